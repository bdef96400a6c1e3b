package cli

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/mgpai22/splice/internal/drag"
	"github.com/mgpai22/splice/internal/history"
	"github.com/mgpai22/splice/internal/media"
	"github.com/mgpai22/splice/internal/timeline"
	"github.com/mgpai22/splice/internal/transition"
)

// clip ids picked on the command line, standing in for a view selection
type pick []timeline.ClipID

var _ timeline.Selection = pick(nil)

func (p pick) Selected() []timeline.ClipID { return p }

func parseClipID(s string) (timeline.ClipID, error) {
	n, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimSpace(s), "#"), 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid clip id %q", s)
	}
	return timeline.ClipID(n), nil
}

// parses a list of ids separated by commas or given as separate arguments
func parseClipIDs(args ...string) ([]timeline.ClipID, error) {
	var ids []timeline.ClipID
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			id, err := parseClipID(part)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// parses "v0", "a1", "video:2" or "audio:0"
func parseTrackRef(s string) (timeline.TrackRef, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	var kind timeline.TrackKind
	var rest string
	switch {
	case strings.HasPrefix(s, "video:"):
		kind, rest = timeline.Video, strings.TrimPrefix(s, "video:")
	case strings.HasPrefix(s, "audio:"):
		kind, rest = timeline.Audio, strings.TrimPrefix(s, "audio:")
	case strings.HasPrefix(s, "v"):
		kind, rest = timeline.Video, s[1:]
	case strings.HasPrefix(s, "a"):
		kind, rest = timeline.Audio, s[1:]
	default:
		return timeline.TrackRef{}, fmt.Errorf("invalid track %q, want v<N> or a<N>", s)
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return timeline.TrackRef{}, fmt.Errorf("invalid track %q, want v<N> or a<N>", s)
	}
	return timeline.TrackRef{Kind: kind, Index: n}, nil
}

func parseEdge(s string) (timeline.Edge, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "begin", "start", "in":
		return timeline.Begin, nil
	case "end", "out":
		return timeline.End, nil
	}
	return 0, fmt.Errorf("invalid edge %q, want begin or end", s)
}

// parses a time as pts ticks ("120") or seconds ("1.5s") at rate
func parsePTS(s string, rate int64) (timeline.PTS, error) {
	s = strings.TrimSpace(s)
	if secs, ok := strings.CutSuffix(s, "s"); ok {
		f, err := strconv.ParseFloat(secs, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("invalid time %q", s)
		}
		return media.ToPTS(f, rate), nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return timeline.PTS(n), nil
}

// parses a transition side: a frame count, or "none"/"-" for a missing side
func parseFrames(s string, rate int64) (timeline.Frames, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "-", "none":
		return timeline.Frames{}, nil
	}
	n, err := parsePTS(s, rate)
	if err != nil {
		return timeline.Frames{}, err
	}
	if n <= 0 {
		return timeline.Frames{}, fmt.Errorf("transition side must be positive, got %q", s)
	}
	return timeline.FramesOf(n), nil
}

// default sides for a new in-out transition of the given total length
func splitLength(length int64) (timeline.Frames, timeline.Frames) {
	left := timeline.PTS(length / 2)
	right := timeline.PTS(length) - left
	if left == 0 {
		return timeline.Frames{}, timeline.FramesOf(right)
	}
	return timeline.FramesOf(left), timeline.FramesOf(right)
}

type trimOp struct {
	clip  timeline.ClipID
	edge  timeline.Edge
	delta timeline.PTS
	shift bool
}

func (op trimOp) Name() string {
	return fmt.Sprintf("trim %s of clip %d", op.edge, op.clip)
}

func (op trimOp) Apply(seq *timeline.Sequence) (*timeline.Result, error) {
	res, applied, err := seq.Trim(op.clip, op.edge, op.delta, op.shift)
	if err != nil {
		return nil, err
	}
	if applied != op.delta {
		logger.Infow("trim clamped to clip bounds", "clip", op.clip, "requested", op.delta, "applied", applied)
	}
	return res, nil
}

type deleteOp struct {
	clips  []timeline.ClipID
	ripple bool
}

func (op deleteOp) Name() string {
	if op.ripple {
		return fmt.Sprintf("ripple delete %d clip(s)", len(op.clips))
	}
	return fmt.Sprintf("delete %d clip(s)", len(op.clips))
}

func (op deleteOp) Apply(seq *timeline.Sequence) (*timeline.Result, error) {
	return seq.Delete(op.clips, op.ripple)
}

type addTransitionOp struct {
	after       timeline.ClipID
	left, right timeline.Frames
	kind        string
}

func (op addTransitionOp) Name() string {
	return fmt.Sprintf("add %s transition after clip %d", op.kind, op.after)
}

func (op addTransitionOp) Apply(seq *timeline.Sequence) (*timeline.Result, error) {
	return seq.CreateTransition(op.after, op.left, op.right, op.kind)
}

type removeTransitionOp struct {
	clip timeline.ClipID
}

func (op removeTransitionOp) Name() string {
	return fmt.Sprintf("remove transition %d", op.clip)
}

func (op removeTransitionOp) Apply(seq *timeline.Sequence) (*timeline.Result, error) {
	return seq.RemoveTransition(op.clip)
}

// parameter changes live outside the clip structure and are not undoable
type setParamOp struct {
	clip  timeline.ClipID
	name  string
	value string
}

func (op setParamOp) Name() string {
	return fmt.Sprintf("set %s on transition %d", op.name, op.clip)
}

func (op setParamOp) Apply(seq *timeline.Sequence) (*timeline.Result, error) {
	c, _, _, err := seq.Lookup(op.clip)
	if err != nil {
		return nil, err
	}
	if !c.IsTransition() {
		return nil, fmt.Errorf("%w: clip %d is not a transition", timeline.ErrInvalidEdit, op.clip)
	}
	spec, ok := c.Params.Spec(op.name)
	if !ok {
		return nil, fmt.Errorf("transition %s has no parameter %q", c.Params.Kind(), op.name)
	}
	v, err := transition.ParseValue(spec.Kind, op.value)
	if err != nil {
		return nil, err
	}
	if err := seq.SetTransitionParam(op.clip, op.name, v); err != nil {
		return nil, err
	}
	return &timeline.Result{}, nil
}

// appends a probed source as a linked pair, creating tracks as needed
type importOp struct {
	src          timeline.Source
	video, audio int
}

func (op importOp) Name() string {
	return fmt.Sprintf("import %s", op.src.Handle)
}

func (op importOp) Apply(seq *timeline.Sequence) (*timeline.Result, error) {
	want := map[timeline.TrackKind]int{}
	if op.src.HasVideo {
		want[timeline.Video] = op.video
	}
	if op.src.HasAudio {
		want[timeline.Audio] = op.audio
	}
	for kind, index := range want {
		if n := len(seq.Tracks(kind)); index >= n {
			if index > n {
				return nil, fmt.Errorf("%w: %s track %d, have %d", timeline.ErrTrackNotFound, kind, index, n)
			}
			seq.AddTrack(kind)
		}
	}
	return seq.AddSource(op.src, op.video, op.audio)
}

// moves a clip, together with its partners and the clips in with, so it
// starts at at on track to. Runs a drag engine over a one pixel per tick
// grid.
type moveOp struct {
	clip  timeline.ClipID
	to    timeline.TrackRef
	at    timeline.PTS
	with  []timeline.ClipID
	shift bool
	snap  bool

	snapDistance int // ticks
	trackHeight  int
}

func (op moveOp) Name() string {
	return fmt.Sprintf("move clip %d to %s at %d", op.clip, op.to, op.at)
}

func (op moveOp) Apply(seq *timeline.Sequence) (*timeline.Result, error) {
	c, from, _, err := seq.Lookup(op.clip)
	if err != nil {
		return nil, err
	}
	if from.Kind != op.to.Kind {
		return nil, fmt.Errorf("%w: cannot move %s clip %d to %s track", timeline.ErrInvalidEdit, from.Kind, op.clip, op.to.Kind)
	}
	if op.at < 0 {
		return nil, fmt.Errorf("%w: position %d is before the sequence start", timeline.ErrInvalidEdit, op.at)
	}

	height := max(op.trackHeight, 2)
	grid := drag.Grid{Scale: 1, TrackHeight: height, Video: len(seq.Tracks(timeline.Video))}
	sel := pick(slices.Concat([]timeline.ClipID{op.clip}, op.with))
	e := drag.New(seq, grid, sel, drag.Options{Threshold: 1, SnapDistance: op.snapDistance, Snapping: op.snap}, logger)

	grab := c.Left + c.Length/2
	if err := e.Press(grid.Position(from, grab)); err != nil {
		return nil, err
	}
	e.SetShift(op.shift)
	if err := e.Move(grid.Position(op.to, grab+op.at-c.Left)); err != nil {
		e.Abort()
		return nil, err
	}

	var added []timeline.TrackRef
	res, err := e.Drop()
	var need *timeline.NeedTracksError
	for errors.As(err, &need) {
		for range need.Count {
			ref := seq.AddTrack(need.Kind)
			added = append(added, ref)
			logger.Infow("track added for drop", "track", ref)
		}
		res, err = e.Drop()
	}
	if err != nil {
		e.Abort()
		for _, ref := range slices.Backward(added) {
			if rerr := seq.RemoveTrack(ref); rerr != nil {
				logger.Warnw("failed to remove track after refused drop", "track", ref, "error", rerr)
			}
		}
		return nil, err
	}
	res.AddedTracks = added
	return res, nil
}

// one line of an edit script: a command, or an undo/redo step
type step struct {
	undo bool
	redo bool
	cmd  history.Command
}

// parses one script line. Blank lines and # comments yield a nil step.
//
//	trim <clip> begin|end <delta> [shift]
//	delete <clip>... [ripple]
//	transition add <clip> [left] [right] [kind]
//	transition remove <clip>
//	transition set <clip> <param> <value>
//	move <clip> <track> <at> [shift] [snap] [with <clip>,...]
//	import <file> [video-track] [audio-track]
//	undo | redo
func parseStep(ctx context.Context, line string, rate int64, sources timeline.SourceProvider) (*step, error) {
	if i := strings.Index(line, "#"); i >= 0 {
		line = line[:i]
	}
	f := strings.Fields(line)
	if len(f) == 0 {
		return nil, nil
	}
	args := f[1:]
	need := func(n int) error {
		if len(args) < n {
			return fmt.Errorf("%s needs at least %d argument(s)", f[0], n)
		}
		return nil
	}

	switch f[0] {
	case "undo":
		return &step{undo: true}, nil
	case "redo":
		return &step{redo: true}, nil

	case "trim":
		if err := need(3); err != nil {
			return nil, err
		}
		id, err := parseClipID(args[0])
		if err != nil {
			return nil, err
		}
		edge, err := parseEdge(args[1])
		if err != nil {
			return nil, err
		}
		delta, err := parsePTS(args[2], rate)
		if err != nil {
			return nil, err
		}
		return &step{cmd: trimOp{clip: id, edge: edge, delta: delta, shift: slices.Contains(args[3:], "shift")}}, nil

	case "delete":
		ripple := slices.Contains(args, "ripple")
		args = slices.DeleteFunc(slices.Clone(args), func(s string) bool { return s == "ripple" })
		if err := need(1); err != nil {
			return nil, err
		}
		ids, err := parseClipIDs(args...)
		if err != nil {
			return nil, err
		}
		return &step{cmd: deleteOp{clips: ids, ripple: ripple}}, nil

	case "transition":
		if err := need(2); err != nil {
			return nil, err
		}
		id, err := parseClipID(args[1])
		if err != nil {
			return nil, err
		}
		switch args[0] {
		case "add":
			op := addTransitionOp{after: id, kind: cfg.Transition.Kind}
			op.left, op.right = splitLength(cfg.Transition.Length)
			if len(args) > 2 {
				if op.left, err = parseFrames(args[2], rate); err != nil {
					return nil, err
				}
			}
			if len(args) > 3 {
				if op.right, err = parseFrames(args[3], rate); err != nil {
					return nil, err
				}
			}
			if len(args) > 4 {
				op.kind = args[4]
			}
			return &step{cmd: op}, nil
		case "remove":
			return &step{cmd: removeTransitionOp{clip: id}}, nil
		case "set":
			if err := need(4); err != nil {
				return nil, err
			}
			return &step{cmd: setParamOp{clip: id, name: args[2], value: strings.Join(args[3:], " ")}}, nil
		}
		return nil, fmt.Errorf("unknown transition action %q", args[0])

	case "move":
		if err := need(3); err != nil {
			return nil, err
		}
		id, err := parseClipID(args[0])
		if err != nil {
			return nil, err
		}
		to, err := parseTrackRef(args[1])
		if err != nil {
			return nil, err
		}
		at, err := parsePTS(args[2], rate)
		if err != nil {
			return nil, err
		}
		op := moveOp{clip: id, to: to, at: at, snapDistance: snapTicks(), trackHeight: cfg.TrackHeight}
		for i := 3; i < len(args); i++ {
			switch args[i] {
			case "shift":
				op.shift = true
			case "snap":
				op.snap = true
			case "with":
				if i+1 >= len(args) {
					return nil, fmt.Errorf("with needs a clip list")
				}
				i++
				if op.with, err = parseClipIDs(args[i]); err != nil {
					return nil, err
				}
			default:
				return nil, fmt.Errorf("unknown move option %q", args[i])
			}
		}
		return &step{cmd: op}, nil

	case "import":
		if err := need(1); err != nil {
			return nil, err
		}
		op := importOp{}
		for i, dst := range []*int{&op.video, &op.audio} {
			if len(args) > i+1 {
				n, err := strconv.Atoi(args[i+1])
				if err != nil || n < 0 {
					return nil, fmt.Errorf("invalid track index %q", args[i+1])
				}
				*dst = n
			}
		}
		src, err := sources.Probe(ctx, args[0])
		if err != nil {
			return nil, fmt.Errorf("failed to probe %s: %w", args[0], err)
		}
		op.src = src
		return &step{cmd: op}, nil
	}
	return nil, fmt.Errorf("unknown command %q", f[0])
}

// snap distance of the configured zoom, in ticks
func snapTicks() int {
	scale := cfg.Scale()
	if scale <= 0 {
		return cfg.Drag.SnapDistance
	}
	return int(math.Round(float64(cfg.Drag.SnapDistance) / scale))
}
