package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mgpai22/splice/internal/media"
	"github.com/mgpai22/splice/internal/project"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <project> <output>",
	Short: "Render a project to a media file, or save its document",
	Long: `Render one video and one audio track of a project with ffmpeg.

Filler renders as black frames and silence, transitions as ffmpeg
xfade and acrossfade filters. An output ending in .json writes the
project document instead, which "splice new --from" reads back.

Examples:
  splice export trailer trailer.mp4
  splice export trailer trailer.mp4 --width 1920 --height 1080
  splice export trailer trailer.json`,
	Args: cobra.ExactArgs(2),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().Int("video-track", 0, "Video track to render, -1 for none")
	exportCmd.Flags().Int("audio-track", 0, "Audio track to render, -1 for none")
	exportCmd.Flags().Int("width", 0, "Output width (default from config)")
	exportCmd.Flags().Int("height", 0, "Output height (default from config)")
	exportCmd.Flags().Bool("dry-run", false, "Print the ffmpeg command instead of running it")
}

func runExport(cmd *cobra.Command, args []string) error {
	output := args[1]
	videoTrack, _ := cmd.Flags().GetInt("video-track")
	audioTrack, _ := cmd.Flags().GetInt("audio-track")
	width, _ := cmd.Flags().GetInt("width")
	height, _ := cmd.Flags().GetInt("height")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	s, err := openSession(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	defer s.close()

	if strings.EqualFold(filepath.Ext(output), ".json") {
		data, err := project.Encode(s.seq, s.meta)
		if err != nil {
			return err
		}
		if err := os.WriteFile(output, data, 0644); err != nil {
			return fmt.Errorf("failed to write project document: %w", err)
		}
		fmt.Printf("Project document written to: %s\n", output)
		return nil
	}

	opts := media.DefaultRenderOptions(s.rate())
	opts.Width, opts.Height, opts.SampleRate = cfg.Export.Width, cfg.Export.Height, cfg.Export.SampleRate
	if width > 0 {
		opts.Width = width
	}
	if height > 0 {
		opts.Height = height
	}
	opts.VideoTrack, opts.AudioTrack = videoTrack, audioTrack

	if dryRun {
		out, err := media.Graph(s.seq, output, opts)
		if err != nil {
			return err
		}
		fmt.Println("ffmpeg " + strings.Join(out.OverWriteOutput().GetArgs(), " "))
		return nil
	}

	ffmpegPath, err := media.FFmpegPath()
	if err != nil {
		return fmt.Errorf("failed to find ffmpeg: %w", err)
	}
	logger.Infow("exporting project", "project", s.project.Name, "output", output,
		"length", s.seq.Length(), "width", opts.Width, "height", opts.Height)
	if err := media.NewRenderer(ffmpegPath, logger).Export(cmd.Context(), s.seq, output, opts); err != nil {
		return err
	}
	fmt.Printf("Exported %s to: %s\n", s.project.Name, output)
	return nil
}
