package cli

import (
	"fmt"

	"github.com/mgpai22/splice/internal/media"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <project> <media-file>...",
	Short: "Append media files to a project",
	Long: `Probe media files with ffprobe and append them to the end of a project.

A file with both video and audio becomes a linked pair of clips that
start together; the shorter of the two tracks is padded with filler.
Missing tracks are created when the requested index equals the track
count.

Examples:
  splice import trailer intro.mov
  splice import trailer a.mov b.mov --video 1 --audio 0`,
	Args: cobra.MinimumNArgs(2),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().Int("video", 0, "Video track to append to")
	importCmd.Flags().Int("audio", 0, "Audio track to append to")
}

func runImport(cmd *cobra.Command, args []string) error {
	videoTrack, _ := cmd.Flags().GetInt("video")
	audioTrack, _ := cmd.Flags().GetInt("audio")

	for _, file := range args[1:] {
		if !media.IsMediaFile(file) {
			return fmt.Errorf("unsupported file format: %s", file)
		}
	}

	paths, err := media.Ensure()
	if err != nil {
		return fmt.Errorf("failed to find ffprobe: %w", err)
	}

	return withSession(cmd.Context(), args[0], func(s *session) error {
		prober := media.NewProber(s.rate(), paths.FFprobe, logger)
		for _, file := range args[1:] {
			src, err := prober.Probe(cmd.Context(), file)
			if err != nil {
				return fmt.Errorf("failed to probe %s: %w", file, err)
			}
			res, err := s.do(importOp{src: src, video: videoTrack, audio: audioTrack})
			if err != nil {
				return err
			}
			fmt.Printf("Imported %s as clip(s) %v (%s)\n", file, res.Created(), timecode(src.Length, s.rate()))
		}
		return nil
	})
}
