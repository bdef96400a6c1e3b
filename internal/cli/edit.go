package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var trimCmd = &cobra.Command{
	Use:   "trim <project> <clip> <begin|end> <delta>",
	Short: "Move one edge of a clip",
	Long: `Move the begin or end edge of a media or transition clip.

A positive delta moves the edge later in time. Deltas are ticks, or
seconds with an "s" suffix. Requests outside the clip bounds are clamped.
Linked partners are trimmed along. With --shift the rest of the
sequence moves to close or open the gap instead of leaving filler.

Examples:
  splice trim trailer 4 end -25
  splice trim trailer 4 begin 1.5s --shift`,
	Args: cobra.ExactArgs(4),
	RunE: runTrim,
}

var moveCmd = &cobra.Command{
	Use:   "move <project> <clip> <track> <at>",
	Short: "Drag a clip to another position or track",
	Long: `Move a clip so that it starts at the given time on the given track.

The clip's linked partner and any clips named with --with move along,
as do transitions between moved clips. Dropped clips overwrite what was
under them unless --shift makes room. Missing tracks are created.

Examples:
  splice move trailer 4 v1 250
  splice move trailer 4 v0 10s --with 7,8 --shift`,
	Args: cobra.ExactArgs(4),
	RunE: runMove,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <project> <clip>...",
	Short: "Remove clips from a project",
	Long: `Remove clips, leaving filler in their place.

With --ripple the rest of each track closes the gap, and linked
partners are removed too.

Examples:
  splice delete trailer 4 5
  splice delete trailer 4 --ripple`,
	Args: cobra.MinimumNArgs(2),
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(trimCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(deleteCmd)

	trimCmd.Flags().Bool("shift", false, "Ripple the change through every track")

	moveCmd.Flags().String("with", "", "Comma separated clips to move along")
	moveCmd.Flags().Bool("shift", false, "Insert room for the moved clips instead of overwriting (default from config)")
	moveCmd.Flags().Bool("snap", false, "Snap to nearby cuts (default from config)")

	deleteCmd.Flags().Bool("ripple", false, "Close the gaps left by deleted clips")
}

func runTrim(cmd *cobra.Command, args []string) error {
	shift, _ := cmd.Flags().GetBool("shift")
	id, err := parseClipID(args[1])
	if err != nil {
		return err
	}
	edge, err := parseEdge(args[2])
	if err != nil {
		return err
	}

	return withSession(cmd.Context(), args[0], func(s *session) error {
		delta, err := parsePTS(args[3], s.rate())
		if err != nil {
			return err
		}
		lo, hi, err := s.seq.TrimBounds(id, edge, shift)
		if err != nil {
			return err
		}
		logger.Debugw("trim bounds", "clip", id, "edge", edge, "min", lo, "max", hi)
		res, err := s.do(trimOp{clip: id, edge: edge, delta: delta, shift: shift})
		if err != nil {
			return err
		}
		if res.Empty() {
			fmt.Println("Nothing to trim")
			return nil
		}
		fmt.Printf("Trimmed %s of clip %d, new clip(s) %v\n", edge, id, res.Created())
		return nil
	})
}

func runMove(cmd *cobra.Command, args []string) error {
	with, _ := cmd.Flags().GetString("with")
	id, err := parseClipID(args[1])
	if err != nil {
		return err
	}
	to, err := parseTrackRef(args[2])
	if err != nil {
		return err
	}
	others, err := parseClipIDs(with)
	if err != nil {
		return err
	}

	return withSession(cmd.Context(), args[0], func(s *session) error {
		at, err := parsePTS(args[3], s.rate())
		if err != nil {
			return err
		}
		op := moveOp{
			clip:         id,
			to:           to,
			at:           at,
			with:         others,
			shift:        flagOr(cmd, "shift", cfg.Drag.Shift),
			snap:         flagOr(cmd, "snap", cfg.SnappingEnabled()),
			snapDistance: snapTicks(),
			trackHeight:  cfg.TrackHeight,
		}
		res, err := s.do(op)
		if err != nil {
			return err
		}
		if res.Empty() {
			fmt.Println("Nothing moved")
			return nil
		}
		fmt.Printf("Moved clip %d to %s, new clip(s) %v\n", id, to, res.Created())
		return nil
	})
}

func runDelete(cmd *cobra.Command, args []string) error {
	ripple, _ := cmd.Flags().GetBool("ripple")
	ids, err := parseClipIDs(args[1:]...)
	if err != nil {
		return err
	}

	return withSession(cmd.Context(), args[0], func(s *session) error {
		if _, err := s.do(deleteOp{clips: ids, ripple: ripple}); err != nil {
			return err
		}
		fmt.Printf("Deleted %d clip(s), project length %d\n", len(ids), s.seq.Length())
		return nil
	})
}

// value of a bool flag when given, else the configured default
func flagOr(cmd *cobra.Command, name string, def bool) bool {
	if !cmd.Flags().Changed(name) {
		return def
	}
	v, _ := cmd.Flags().GetBool(name)
	return v
}
