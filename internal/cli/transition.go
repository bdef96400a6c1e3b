package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/mgpai22/splice/internal/timeline"
	"github.com/spf13/cobra"
)

var transitionCmd = &cobra.Command{
	Use:   "transition",
	Short: "Add, remove and configure transitions",
}

var transitionAddCmd = &cobra.Command{
	Use:   "add <project> <clip>",
	Short: "Add a transition at the cut after a clip",
	Long: `Add a transition at the cut between a clip and the clip after it.

The left side borrows frames from the end of the outgoing clip, the right
side from the start of the incoming clip. Pass "none" for a side to make
an in-only or out-only transition. Without --left and --right the
configured transition length is split over both sides.

Examples:
  splice transition add trailer 4
  splice transition add trailer 4 --kind wipe --left 10 --right 10
  splice transition add trailer 4 --kind fade --left 25 --right none`,
	Args: cobra.ExactArgs(2),
	RunE: runTransitionAdd,
}

var transitionRemoveCmd = &cobra.Command{
	Use:   "remove <project> <transition>",
	Short: "Remove a transition and restore the clips it joined",
	Args:  cobra.ExactArgs(2),
	RunE:  runTransitionRemove,
}

var transitionSetCmd = &cobra.Command{
	Use:   "set <project> <transition> <param> <value>",
	Short: "Change a transition parameter",
	Long: `Change one parameter of a transition.

Run "splice kinds" to see the parameters of every transition kind.

Examples:
  splice transition set trailer 9 direction down
  splice transition set trailer 9 color #ffffffff`,
	Args: cobra.ExactArgs(4),
	RunE: runTransitionSet,
}

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List transition kinds and their parameters",
	Args:  cobra.NoArgs,
	RunE:  runKinds,
}

func init() {
	rootCmd.AddCommand(transitionCmd)
	rootCmd.AddCommand(kindsCmd)
	transitionCmd.AddCommand(transitionAddCmd)
	transitionCmd.AddCommand(transitionRemoveCmd)
	transitionCmd.AddCommand(transitionSetCmd)

	transitionAddCmd.Flags().StringP("kind", "k", "", "Transition kind (default from config)")
	transitionAddCmd.Flags().String("left", "", "Frames taken from the outgoing clip, or none")
	transitionAddCmd.Flags().String("right", "", "Frames taken from the incoming clip, or none")
}

func runTransitionAdd(cmd *cobra.Command, args []string) error {
	kind, _ := cmd.Flags().GetString("kind")
	if kind == "" {
		kind = cfg.Transition.Kind
	}
	id, err := parseClipID(args[1])
	if err != nil {
		return err
	}

	return withSession(cmd.Context(), args[0], func(s *session) error {
		op := addTransitionOp{after: id, kind: kind}
		op.left, op.right = splitLength(cfg.Transition.Length)
		for name, dst := range map[string]*timeline.Frames{"left": &op.left, "right": &op.right} {
			if !cmd.Flags().Changed(name) {
				continue
			}
			v, _ := cmd.Flags().GetString(name)
			if *dst, err = parseFrames(v, s.rate()); err != nil {
				return fmt.Errorf("invalid --%s: %w", name, err)
			}
		}
		res, err := s.do(op)
		if err != nil {
			return err
		}
		for _, created := range res.Created() {
			if c, _, _, err := s.seq.Lookup(created); err == nil && c.IsTransition() {
				fmt.Printf("Added %s transition %d (%s/%s)\n", kind, c.ID, c.FramesLeft, c.FramesRight)
			}
		}
		return nil
	})
}

func runTransitionRemove(cmd *cobra.Command, args []string) error {
	id, err := parseClipID(args[1])
	if err != nil {
		return err
	}
	return withSession(cmd.Context(), args[0], func(s *session) error {
		if _, err := s.do(removeTransitionOp{clip: id}); err != nil {
			return err
		}
		fmt.Printf("Removed transition %d\n", id)
		return nil
	})
}

func runTransitionSet(cmd *cobra.Command, args []string) error {
	id, err := parseClipID(args[1])
	if err != nil {
		return err
	}
	return withSession(cmd.Context(), args[0], func(s *session) error {
		if _, err := s.do(setParamOp{clip: id, name: args[2], value: args[3]}); err != nil {
			return err
		}
		fmt.Printf("Set %s=%s on transition %d\n", args[2], args[3], id)
		return nil
	})
}

func runKinds(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, k := range registry.Kinds() {
		fmt.Fprintf(w, "%s\t%s\n", k.Name, k.Description)
		for _, p := range k.Params {
			detail := fmt.Sprintf("%s, default %s", p.Kind, p.Default)
			if len(p.Options) > 0 {
				detail += ", one of " + strings.Join(p.Options, "|")
			}
			fmt.Fprintf(w, "  %s\t%s\n", p.Name, detail)
		}
	}
	return w.Flush()
}
