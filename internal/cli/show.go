package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/mgpai22/splice/internal/media"
	"github.com/mgpai22/splice/internal/project"
	"github.com/mgpai22/splice/internal/timeline"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <project>",
	Short: "Print the tracks and clips of a project",
	Long: `Print every track of a project with its clips.

Tracks are listed top to bottom: video tracks with the highest index
first, then audio tracks. Clip ids shown here are the ids the editing
commands take.

Examples:
  splice show trailer
  splice show trailer --json`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().Bool("json", false, "Print the project document instead")
}

func runShow(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	s, err := openSession(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	defer s.close()

	if asJSON {
		data, err := project.Encode(s.seq, s.meta)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	fmt.Printf("Project %s (%s)\n", s.project.Name, s.project.ID)
	return describe(os.Stdout, s.seq, s.rate())
}

// writes a human readable listing of seq
func describe(out io.Writer, seq *timeline.Sequence, rate int64) error {
	fmt.Fprintf(out, "Length: %d (%s)\n", seq.Length(), timecode(seq.Length(), rate))

	video := seq.Tracks(timeline.Video)
	tracks := make([]*timeline.Track, 0, len(video))
	for i := len(video) - 1; i >= 0; i-- {
		tracks = append(tracks, video[i])
	}
	tracks = append(tracks, seq.Tracks(timeline.Audio)...)

	for _, t := range tracks {
		fmt.Fprintf(out, "\n%s (length %d)\n", t.Ref(), t.Length())
		if t.Len() == 0 {
			fmt.Fprintln(out, "  (empty)")
			continue
		}
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "  ID\tKIND\tLEFT\tLENGTH\tDETAIL")
		for _, c := range t.Clips() {
			mark := " "
			if c.Selected {
				mark = "*"
			}
			fmt.Fprintf(w, "%s %d\t%s\t%d\t%d\t%s\n", mark, c.ID, c.Kind, c.Left, c.Length, clipDetail(c))
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func clipDetail(c timeline.Clip) string {
	var parts []string
	switch c.Kind {
	case timeline.KindMedia:
		parts = append(parts, fmt.Sprintf("%s @%d", c.Source.Handle, c.Offset))
	case timeline.KindTransition:
		if c.Params == nil {
			break
		}
		parts = append(parts, fmt.Sprintf("%s %s/%s", c.Params.Kind(), c.FramesLeft, c.FramesRight))
		overrides := c.Params.Overrides()
		names := make([]string, 0, len(overrides))
		for name := range overrides {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%s", name, overrides[name]))
		}
	}
	if c.Link != 0 {
		parts = append(parts, fmt.Sprintf("link %d", c.Link))
	}
	return strings.Join(parts, " ")
}

// mm:ss.ff style position of p at rate
func timecode(p timeline.PTS, rate int64) string {
	if rate <= 0 {
		return fmt.Sprint(int64(p))
	}
	secs := media.Seconds(p, rate)
	m := int(secs) / 60
	return fmt.Sprintf("%02d:%05.2f", m, secs-float64(m*60))
}
