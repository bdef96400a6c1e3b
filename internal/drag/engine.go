package drag

import (
	"errors"
	"fmt"
	"slices"

	"github.com/mgpai22/splice/internal/logging"
	"github.com/mgpai22/splice/internal/timeline"
)

var ErrNothingToDrag = errors.New("nothing to drag")

// drag lifecycle. Dropped and Aborted are reported by Outcome; the engine
// itself is back in Idle right after either.
type State int

const (
	Idle State = iota
	Dragging
	Dropped
	Aborted
)

func (s State) String() string {
	switch s {
	case Dragging:
		return "dragging"
	case Dropped:
		return "dropped"
	case Aborted:
		return "aborted"
	}
	return "idle"
}

type Options struct {
	Threshold    int // pixels the pointer travels before a press becomes a drag
	SnapDistance int // pixels within which drag points snap
	Snapping     bool
}

// one dragged clip and where it goes
type Target struct {
	Clip timeline.ClipID
	From timeline.TrackRef
	To   timeline.TrackRef
	Left timeline.PTS
}

type piece struct {
	clip timeline.Clip
	ref  timeline.TrackRef
}

// moves the selected clips of a sequence with the pointer
type Engine struct {
	seq    *timeline.Sequence
	layout Layout
	sel    timeline.Selection
	opts   Options
	log    *logging.Logger

	state   State
	outcome State
	pressed bool
	press   Position
	last    Position
	anchor  timeline.TrackRef

	pieces     []piece
	dragPoints []timeline.PTS
	snapPoints []timeline.PTS

	offset      timeline.PTS
	snapOffset  timeline.PTS
	trackOffset int
	shift       bool
	holdSnap    bool
}

func New(seq *timeline.Sequence, layout Layout, sel timeline.Selection, opts Options, log *logging.Logger) *Engine {
	return &Engine{
		seq:    seq,
		layout: layout,
		sel:    sel,
		opts:   opts,
		log:    logging.OrNop(log),
	}
}

func (e *Engine) State() State { return e.state }

// terminal state of the last finished drag
func (e *Engine) Outcome() State { return e.outcome }

// pointer offset in pts, including the snap correction
func (e *Engine) Offset() timeline.PTS { return e.offset + e.snapOffset }

func (e *Engine) SnapOffset() timeline.PTS { return e.snapOffset }

func (e *Engine) TrackOffset() int { return e.trackOffset }

// starts tracking a press on the clip under pos. The dragged set is the
// selection if it contains that clip, else the clip alone; link partners
// and transitions between dragged clips come along.
func (e *Engine) Press(pos Position) error {
	if e.pressed {
		return fmt.Errorf("%w: drag already in progress", timeline.ErrInvalidState)
	}
	ref := e.layout.TrackAt(pos.Y)
	t, err := e.seq.Track(ref)
	if err != nil {
		return fmt.Errorf("%w: no track under pointer", ErrNothingToDrag)
	}
	i := t.ClipAt(e.layout.PTS(pos.X))
	if i < 0 || t.Clip(i).IsEmpty() {
		return fmt.Errorf("%w: no clip under pointer", ErrNothingToDrag)
	}
	hit := t.Clip(i)

	var ids []timeline.ClipID
	if e.sel != nil {
		ids = e.sel.Selected()
	}
	if !slices.Contains(ids, hit.ID) {
		ids = []timeline.ClipID{hit.ID}
	}
	if hit.IsTransition() {
		// a transition is dragged through the clips it joins
		if hit.FramesLeft.Set {
			ids = append(ids, t.Clip(i-1).ID)
		}
		if hit.FramesRight.Set {
			ids = append(ids, t.Clip(i+1).ID)
		}
	}

	pieces := e.collect(ids)
	if len(pieces) == 0 {
		return fmt.Errorf("%w: clip %d cannot be dragged", ErrNothingToDrag, hit.ID)
	}
	e.pieces = pieces
	e.dragPoints, e.snapPoints = e.points()
	e.press, e.last = pos, pos
	e.anchor = ref
	e.pressed = true
	e.offset, e.snapOffset, e.trackOffset = 0, 0, 0
	e.log.Debugw("drag pressed", "clip", hit.ID, "pieces", len(e.pieces))
	return nil
}

func (e *Engine) collect(ids []timeline.ClipID) []piece {
	in := make(map[timeline.ClipID]bool)
	var out []piece
	add := func(id timeline.ClipID) {
		if in[id] {
			return
		}
		c, ref, _, err := e.seq.Lookup(id)
		if err != nil || c.IsEmpty() || c.IsTransition() {
			return
		}
		in[id] = true
		out = append(out, piece{clip: c, ref: ref})
	}
	for _, id := range ids {
		add(id)
		if c, _, _, err := e.seq.Lookup(id); err == nil && c.Link != 0 {
			add(c.Link)
		}
	}

	// transitions travel with their neighbors
	for _, t := range e.seq.AllTracks() {
		clips := t.Clips()
		for i, c := range clips {
			if !c.IsTransition() {
				continue
			}
			left := !c.FramesLeft.Set || in[clips[i-1].ID]
			right := !c.FramesRight.Set || in[clips[i+1].ID]
			if left && right {
				out = append(out, piece{clip: c, ref: t.Ref()})
			}
		}
	}
	return out
}

func (e *Engine) points() (drag, snap []timeline.PTS) {
	in := make(map[timeline.ClipID]bool, len(e.pieces))
	for _, p := range e.pieces {
		in[p.clip.ID] = true
		drag = append(drag, p.clip.Cuts()...)
	}
	snap = []timeline.PTS{0}
	for _, t := range e.seq.AllTracks() {
		for _, c := range t.Clips() {
			if !in[c.ID] && !c.IsEmpty() {
				snap = append(snap, c.Cuts()...)
			}
		}
	}
	slices.Sort(drag)
	slices.Sort(snap)
	return slices.Compact(drag), slices.Compact(snap)
}

// follows the pointer. Nothing moves until it leaves the press threshold.
func (e *Engine) Move(pos Position) error {
	if !e.pressed {
		return fmt.Errorf("%w: no press to drag", timeline.ErrInvalidState)
	}
	e.last = pos
	if e.state == Idle {
		dx, dy := pos.X-e.press.X, pos.Y-e.press.Y
		if abs(dx) < e.opts.Threshold && abs(dy) < e.opts.Threshold {
			return nil
		}
		e.state = Dragging
		e.log.Debugw("drag started", "pieces", len(e.pieces))
	}
	e.update()
	return nil
}

// suspends snapping while held
func (e *Engine) HoldSnapping(hold bool) {
	e.holdSnap = hold
	if e.state == Dragging {
		e.update()
	}
}

// makes room for the dropped clips instead of overwriting
func (e *Engine) SetShift(on bool) {
	e.shift = on
	if e.state == Dragging {
		e.update()
	}
}

func (e *Engine) update() {
	minLeft := e.pieces[0].clip.Left
	minIndex := -1
	for _, p := range e.pieces {
		minLeft = min(minLeft, p.clip.Left)
		if p.ref.Kind == e.anchor.Kind && (minIndex < 0 || p.ref.Index < minIndex) {
			minIndex = p.ref.Index
		}
	}

	e.offset = max(e.layout.PTS(e.last.X)-e.layout.PTS(e.press.X), -minLeft)
	e.snapOffset = 0
	if e.opts.Snapping && !e.holdSnap {
		e.snapOffset = e.snap(e.offset)
		if e.offset+e.snapOffset < -minLeft {
			e.snapOffset = -minLeft - e.offset
		}
	}

	if ref := e.layout.TrackAt(e.last.Y); ref.Kind == e.anchor.Kind {
		e.trackOffset = max(ref.Index-e.anchor.Index, -minIndex)
	}
}

// smallest correction that aligns a drag point with a snap point within
// the snap distance, or zero
func (e *Engine) snap(offset timeline.PTS) timeline.PTS {
	var best timeline.PTS
	found := false
	for _, d := range e.dragPoints {
		moved := d + offset
		for _, s := range e.snapPoints {
			diff := s - moved
			if abs(e.layout.Pixels(diff)) > e.opts.SnapDistance {
				continue
			}
			if !found || abs(diff) < abs(best) {
				best, found = diff, true
			}
		}
	}
	return best
}

// where every dragged clip goes at the current pointer position
func (e *Engine) Targets() ([]Target, error) {
	if !e.pressed {
		return nil, fmt.Errorf("%w: no press to drag", timeline.ErrInvalidState)
	}
	out := make([]Target, 0, len(e.pieces))
	need := map[timeline.TrackKind]int{}
	for _, p := range e.pieces {
		to := p.ref
		if to.Kind == e.anchor.Kind {
			to.Index += e.trackOffset
		}
		if missing := to.Index + 1 - len(e.seq.Tracks(to.Kind)); missing > need[to.Kind] {
			need[to.Kind] = missing
		}
		out = append(out, Target{Clip: p.clip.ID, From: p.ref, To: to, Left: p.clip.Left + e.Offset()})
	}
	for _, kind := range []timeline.TrackKind{timeline.Video, timeline.Audio} {
		if need[kind] > 0 {
			return out, &timeline.NeedTracksError{Kind: kind, Count: need[kind]}
		}
	}
	return out, nil
}

// commits the drag. Missing destination tracks are reported with
// *timeline.NeedTracksError and keep the drag alive so the caller can add
// them and drop again; any other failure aborts.
func (e *Engine) Drop() (*timeline.Result, error) {
	if !e.pressed {
		return nil, fmt.Errorf("%w: no press to drop", timeline.ErrInvalidState)
	}
	if e.state == Idle {
		e.finish(Aborted)
		return &timeline.Result{}, nil
	}
	targets, err := e.Targets()
	if err != nil {
		return nil, err
	}
	if e.unmoved(targets) {
		e.finish(Dropped)
		return &timeline.Result{}, nil
	}

	edit := e.buildEdit(targets)
	res, err := e.seq.Apply(edit)
	if err != nil {
		e.finish(Aborted)
		return nil, fmt.Errorf("failed to drop clips: %w", err)
	}
	e.log.Debugw("clips dropped", "offset", e.Offset(), "tracks", e.trackOffset, "shift", e.shift)
	e.finish(Dropped)
	return res, nil
}

// cancels the drag without touching the sequence
func (e *Engine) Abort() {
	if e.pressed {
		e.finish(Aborted)
	}
}

func (e *Engine) finish(outcome State) {
	e.outcome = outcome
	e.state = Idle
	e.pressed = false
	e.pieces, e.dragPoints, e.snapPoints = nil, nil, nil
	e.offset, e.snapOffset, e.trackOffset = 0, 0, 0
}

func (e *Engine) unmoved(targets []Target) bool {
	for _, t := range targets {
		if t.From != t.To {
			return false
		}
	}
	return e.Offset() == 0
}

func (e *Engine) buildEdit(targets []Target) timeline.Edit {
	orig := make(map[timeline.TrackRef][]timeline.Clip)
	work := make(map[timeline.TrackRef][]timeline.Clip)
	for _, t := range e.seq.AllTracks() {
		orig[t.Ref()] = t.Clips()
		work[t.Ref()] = t.Clips()
	}

	// vacate
	byID := make(map[timeline.ClipID]timeline.Clip, len(e.pieces))
	for _, p := range e.pieces {
		byID[p.clip.ID] = p.clip
		clips := work[p.ref]
		if i := slices.IndexFunc(clips, func(c timeline.Clip) bool { return c.ID == p.clip.ID }); i >= 0 {
			clips[i] = timeline.NewEmpty(p.clip.Length)
		}
	}
	for _, p := range e.pieces {
		reflow(work[p.ref])
	}

	if e.shift {
		e.makeRoom(work, targets)
	}

	for _, t := range targets {
		c := byID[t.Clip].Derive()
		c.Left = t.Left
		work[t.To] = overwrite(work[t.To], c)
	}

	var edit timeline.Edit
	for _, t := range e.seq.AllTracks() {
		repls, apps := planReplacements(t.Ref(), orig[t.Ref()], work[t.Ref()])
		edit.Replacements = append(edit.Replacements, repls...)
		edit.Appends = append(edit.Appends, apps...)
	}
	edit.LinksHandled = true
	return edit
}

// inserts the smallest gap at the drop point that keeps the dropped clips
// clear of everything that follows on their destination tracks. Every track
// gets the same gap so the timeline stays in sync.
func (e *Engine) makeRoom(work map[timeline.TrackRef][]timeline.Clip, targets []Target) {
	p := targets[0].Left
	dropped := make(map[timeline.TrackRef][]timeline.Interval)
	for _, t := range targets {
		p = min(p, t.Left)
		dropped[t.To] = append(dropped[t.To], timeline.Interval{Left: t.Left, Length: e.lengthOf(t.Clip)})
	}

	at := make(map[timeline.TrackRef]timeline.PTS, len(work))
	segments := make(map[timeline.TrackRef][]timeline.Interval)
	for ref, clips := range work {
		_, dest := dropped[ref]
		at[ref] = insertionPoint(clips, p, dest)
		if !dest {
			continue
		}
		for _, c := range clips {
			if c.IsEmpty() || c.Right() <= at[ref] {
				continue
			}
			left := max(c.Left, at[ref])
			segments[ref] = append(segments[ref], timeline.Interval{Left: left, Length: c.Right() - left})
		}
	}

	gap := shiftAmount(dropped, segments)
	if gap == 0 {
		return
	}
	for ref, clips := range work {
		work[ref] = insertGap(clips, at[ref], gap)
	}
}

func (e *Engine) lengthOf(id timeline.ClipID) timeline.PTS {
	for _, p := range e.pieces {
		if p.clip.ID == id {
			return p.clip.Length
		}
	}
	return 0
}

// smallest shift of the segments that clears every dropped interval on the
// same track
func shiftAmount(dropped, segments map[timeline.TrackRef][]timeline.Interval) timeline.PTS {
	candidates := []timeline.PTS{0}
	for ref, ivs := range dropped {
		for _, iv := range ivs {
			for _, q := range segments[ref] {
				if s := iv.Right() - q.Left; s > 0 {
					candidates = append(candidates, s)
				}
			}
		}
	}
	slices.Sort(candidates)

	fits := func(s timeline.PTS) bool {
		for ref, ivs := range dropped {
			for _, q := range segments[ref] {
				moved := timeline.Interval{Left: q.Left + s, Length: q.Length}
				for _, iv := range ivs {
					if moved.Overlaps(iv) {
						return false
					}
				}
			}
		}
		return true
	}
	for _, s := range slices.Compact(candidates) {
		if fits(s) {
			return s
		}
	}
	return candidates[len(candidates)-1]
}

func abs[T ~int | ~int64](v T) T {
	if v < 0 {
		return -v
	}
	return v
}
