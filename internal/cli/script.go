package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mgpai22/splice/internal/history"
	"github.com/mgpai22/splice/internal/media"
	"github.com/mgpai22/splice/internal/timeline"
	"github.com/spf13/cobra"
)

var scriptCmd = &cobra.Command{
	Use:   "script <project> [file]",
	Short: "Run a batch of edits with undo and redo",
	Long: `Run edit commands from a file, or from stdin, against a project.

Each line holds one command. The project is saved only when every line
succeeds, so a failing script leaves it untouched.

  trim <clip> begin|end <delta> [shift]
  delete <clip>... [ripple]
  transition add <clip> [left] [right] [kind]
  transition remove <clip>
  transition set <clip> <param> <value>
  move <clip> <track> <at> [shift] [snap] [with <clip>,...]
  import <file> [video-track] [audio-track]
  undo
  redo

Examples:
  splice script trailer edits.txt
  echo "trim 4 end -10" | splice script trailer`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runScriptCmd,
}

func init() {
	rootCmd.AddCommand(scriptCmd)
	scriptCmd.Flags().Bool("dry-run", false, "Run the edits without saving")
}

func runScriptCmd(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	in := io.Reader(os.Stdin)
	if len(args) == 2 {
		f, err := os.Open(args[1])
		if err != nil {
			return fmt.Errorf("failed to open script: %w", err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	s, err := openSession(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	defer s.close()

	sources := &lazyProber{rate: s.rate()}
	if err := execScript(cmd.Context(), s.history, in, s.rate(), sources, os.Stdout); err != nil {
		return err
	}
	if dryRun {
		fmt.Println("Dry run, project not saved")
		return nil
	}
	if err := s.save(cmd.Context()); err != nil {
		return err
	}
	fmt.Printf("Saved %s, length %d\n", s.project.Name, s.seq.Length())
	return nil
}

// runs every line of r through h, stopping at the first failure
func execScript(ctx context.Context, h *history.History, r io.Reader, rate int64, sources timeline.SourceProvider, out io.Writer) error {
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		st, err := parseStep(ctx, sc.Text(), rate, sources)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if st == nil {
			continue
		}
		switch {
		case st.undo:
			name, err := h.Undo()
			if err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}
			fmt.Fprintf(out, "undo: %s\n", name)
		case st.redo:
			name, err := h.Redo()
			if err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}
			fmt.Fprintf(out, "redo: %s\n", name)
		default:
			res, err := h.Do(st.cmd)
			if err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}
			logger.Debugw("script step", "line", line, "command", st.cmd.Name(), "created", res.Created())
			fmt.Fprintf(out, "%s\n", st.cmd.Name())
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}
	return nil
}

// finds ffprobe on the first import of a script
type lazyProber struct {
	rate   int64
	prober *media.Prober
}

func (p *lazyProber) Probe(ctx context.Context, handle string) (timeline.Source, error) {
	if p.prober == nil {
		paths, err := media.Ensure()
		if err != nil {
			return timeline.Source{}, fmt.Errorf("failed to find ffprobe: %w", err)
		}
		p.prober = media.NewProber(p.rate, paths.FFprobe, logger)
	}
	return p.prober.Probe(ctx, handle)
}
