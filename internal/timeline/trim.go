package timeline

import "fmt"

// clip edge addressed by a trim
type Edge int

const (
	Begin Edge = iota
	End
)

func (e Edge) String() string {
	if e == End {
		return "end"
	}
	return "begin"
}

// media clip about to be trimmed, seen as if the transition using the
// trimmed edge had already been removed
type trimTarget struct {
	clip     Clip
	ref      TrackRef
	index    int
	clips    []Clip
	edgeTr   *Clip
	restored Clip
	before   *Clip // neighbor left of the restored clip
	after    *Clip // neighbor right of the restored clip
}

func (s *Sequence) trimTarget(id ClipID, edge Edge) (*trimTarget, error) {
	c, ref, i, err := s.Lookup(id)
	if err != nil {
		return nil, err
	}
	t, _ := s.Track(ref)
	tt := &trimTarget{clip: c, ref: ref, index: i, clips: t.clips, restored: c.Derive()}

	lo, hi := i-1, i+1
	if edge == Begin && i > 0 && t.clips[i-1].IsTransition() && t.clips[i-1].FramesRight.Set {
		tr := t.clips[i-1]
		tt.edgeTr = &tr
		tt.restored.AdjustBegin(-tr.FramesRight.N)
		if !tr.FramesLeft.Set {
			lo = i - 2
		}
	}
	if edge == End && i+1 < len(t.clips) && t.clips[i+1].IsTransition() && t.clips[i+1].FramesLeft.Set {
		tr := t.clips[i+1]
		tt.edgeTr = &tr
		tt.restored.AdjustEnd(tr.FramesLeft.N)
		if !tr.FramesRight.Set {
			hi = i + 2
		}
	}
	if lo >= 0 {
		tt.before = &t.clips[lo]
	}
	if hi < len(t.clips) {
		tt.after = &t.clips[hi]
	}
	return tt, nil
}

// converts a visible edge delta into a delta on the restored clip
func (tt *trimTarget) restoredDelta(edge Edge, d PTS) PTS {
	if tt.edgeTr == nil {
		return d
	}
	if edge == Begin {
		return d + tt.edgeTr.FramesRight.N
	}
	return d - tt.edgeTr.FramesLeft.N
}

func (tt *trimTarget) last() bool {
	return tt.after == nil
}

// restored-delta range for an unshifted trim; the neighbor filler yields
func (tt *trimTarget) unshiftedBounds(edge Edge) (PTS, PTS) {
	r := tt.restored
	if edge == Begin {
		lo := PTS(0)
		if tt.before != nil && tt.before.IsEmpty() {
			lo = max(r.MinAdjustBegin(), -tt.before.Length)
		}
		return lo, r.Length - 1
	}
	hi := PTS(0)
	switch {
	case tt.after == nil:
		hi = r.MaxAdjustEnd()
	case tt.after.IsEmpty():
		hi = min(r.MaxAdjustEnd(), tt.after.Length)
	}
	return -(r.Length - 1), hi
}

// restored-delta range for a ripple trim of the clip alone
func (tt *trimTarget) shiftedBounds(edge Edge) (PTS, PTS) {
	r := tt.restored
	if edge == Begin {
		return r.MinAdjustBegin(), r.Length - 1
	}
	return -(r.Length - 1), r.MaxAdjustEnd()
}

// pts where a ripple trim moves the rest of the timeline
func (tt *trimTarget) shiftPoint(edge Edge) PTS {
	if edge == Begin {
		return tt.restored.Left
	}
	return tt.restored.Right()
}

func (tt *trimTarget) trimmed(edge Edge, dr PTS) Clip {
	c := tt.restored
	if edge == Begin {
		c.AdjustBegin(dr)
	} else {
		c.AdjustEnd(dr)
	}
	return c
}

// replacements of an unshifted trim by dr on the restored clip
func (tt *trimTarget) unshiftedEdit(edge Edge, dr PTS, e *Edit) {
	c := tt.trimmed(edge, dr)
	list := []Clip{c}
	switch {
	case edge == Begin && dr > 0:
		list = []Clip{NewEmpty(dr), c}
	case edge == Begin && dr < 0:
		e.Replacements = append(e.Replacements, Replacement{Old: tt.before.ID, New: []Clip{NewEmpty(tt.before.Length + dr)}})
	case edge == End && dr < 0:
		list = append(list, NewEmpty(-dr))
	case edge == End && dr > 0 && tt.after != nil:
		e.Replacements = append(e.Replacements, Replacement{Old: tt.after.ID, New: []Clip{NewEmpty(tt.after.Length - dr)}})
	}
	e.Replacements = append(e.Replacements, Replacement{Old: tt.clip.ID, New: list})
	if tt.edgeTr != nil {
		e.RemoveTransitions = append(e.RemoveTransitions, tt.edgeTr.ID)
	}
}

// allowed adjustment of one edge of a clip, as a visible delta. For media
// clips with shift set the reduction runs over every track.
func (s *Sequence) TrimBounds(id ClipID, edge Edge, shift bool) (PTS, PTS, error) {
	c, _, _, err := s.Lookup(id)
	if err != nil {
		return 0, 0, err
	}
	switch c.Kind {
	case KindEmpty:
		return 0, 0, fmt.Errorf("%w: empty clip %d cannot be trimmed", ErrInvalidEdit, id)
	case KindTransition:
		lo, hi := s.transitionTrimBounds(id, edge)
		return lo, hi, nil
	}
	targets, err := s.trimTargets(id, edge)
	if err != nil {
		return 0, 0, err
	}
	lo, hi := s.mediaTrimBounds(targets, edge, shift)
	conv := targets[0].restoredDelta(edge, 0)
	return lo - conv, hi - conv, nil
}

// trims one clip edge by delta, clamped to TrimBounds. Returns the delta
// actually applied; a zero delta changes nothing.
func (s *Sequence) Trim(id ClipID, edge Edge, delta PTS, shift bool) (*Result, PTS, error) {
	lo, hi, err := s.TrimBounds(id, edge, shift)
	if err != nil {
		return nil, 0, err
	}
	d := min(max(delta, lo), hi)
	if d != delta {
		s.log.Debugw("trim clamped", "clip", id, "edge", edge, "requested", delta, "applied", d)
	}
	if d == 0 {
		return &Result{}, 0, nil
	}

	c, _, _, _ := s.Lookup(id)
	var edit Edit
	if c.IsTransition() {
		edit = s.transitionTrimEdit(id, edge, d)
	} else {
		targets, _ := s.trimTargets(id, edge)
		dr := targets[0].restoredDelta(edge, d)
		if shift {
			edit = s.shiftedTrimEdit(targets, edge, dr)
		} else {
			for _, tt := range targets {
				tt.unshiftedEdit(edge, dr, &edit)
			}
		}
	}
	edit.LinksHandled = true

	res, err := s.Apply(edit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to trim %s of clip %d: %w", edge, id, err)
	}
	return res, d, nil
}

// the clip and its linked partner
func (s *Sequence) trimTargets(id ClipID, edge Edge) ([]*trimTarget, error) {
	tt, err := s.trimTarget(id, edge)
	if err != nil {
		return nil, err
	}
	targets := []*trimTarget{tt}
	if link := tt.clip.Link; link != 0 {
		if p, err := s.trimTarget(link, edge); err == nil && p.clip.IsMedia() {
			targets = append(targets, p)
		}
	}
	return targets, nil
}

func (s *Sequence) mediaTrimBounds(targets []*trimTarget, edge Edge, shift bool) (PTS, PTS) {
	lo, hi := MinPTS, MaxPTS
	for _, tt := range targets {
		var l, h PTS
		if shift {
			l, h = tt.shiftedBounds(edge)
		} else {
			l, h = tt.unshiftedBounds(edge)
		}
		lo, hi = max(lo, l), min(hi, h)
	}
	// linked tracks grow together at the end or not at all
	if !shift && edge == End && len(targets) == 2 && targets[0].last() != targets[1].last() {
		hi = min(hi, 0)
	}
	if shift {
		l, h := s.rippleBounds(targets, edge)
		lo, hi = max(lo, l), min(hi, h)
	}
	if lo > hi {
		return 0, 0
	}
	return lo, hi
}

func (s *Sequence) targetTracks(targets []*trimTarget) map[TrackRef]bool {
	own := make(map[TrackRef]bool, len(targets))
	for _, tt := range targets {
		own[tt.ref] = true
	}
	return own
}

// narrows the ripple delta so every other track can move with it
func (s *Sequence) rippleBounds(targets []*trimTarget, edge Edge) (PTS, PTS) {
	lo, hi := MinPTS, MaxPTS
	x := targets[0].shiftPoint(edge)
	own := s.targetTracks(targets)
	for _, t := range s.AllTracks() {
		if own[t.ref] {
			continue
		}
		if edge == Begin {
			// positive deltas pull the rest of the timeline left
			hi = min(hi, roomAfter(t.clips, x))
			if !canInsert(t.clips, x) {
				lo = max(lo, 0)
			}
		} else {
			lo = max(lo, -roomBefore(t.clips, x))
			if !canInsert(t.clips, x) {
				hi = min(hi, 0)
			}
		}
	}
	return lo, hi
}

// filler length that can be removed starting at x
func roomAfter(clips []Clip, x PTS) PTS {
	if x >= totalLength(clips) {
		return MaxPTS
	}
	i := clipAt(clips, x)
	if !clips[i].IsEmpty() {
		return 0
	}
	return clips[i].Right() - x
}

// filler length that can be removed ending at x
func roomBefore(clips []Clip, x PTS) PTS {
	if x <= 0 {
		return 0
	}
	if end := totalLength(clips); x > end {
		return x - end
	}
	i := clipAt(clips, x-1)
	if !clips[i].IsEmpty() {
		return 0
	}
	return x - clips[i].Left
}

// reports whether filler can be inserted at x without cutting into a clip
// or separating a transition from its neighbor
func canInsert(clips []Clip, x PTS) bool {
	if x >= totalLength(clips) {
		return true
	}
	i := clipAt(clips, x)
	if clips[i].IsEmpty() {
		return true
	}
	if clips[i].Left != x || clips[i].IsTransition() {
		return false
	}
	return i == 0 || !clips[i-1].IsTransition()
}

func clipAt(clips []Clip, p PTS) int {
	for i, c := range clips {
		if c.Contains(p) {
			return i
		}
	}
	return -1
}

// replacements that insert k ticks of filler at x
func insertFiller(clips []Clip, x, k PTS) []Replacement {
	if x >= totalLength(clips) {
		return nil
	}
	i := clipAt(clips, x)
	c := clips[i]
	switch {
	case c.IsEmpty():
		return []Replacement{{Old: c.ID, New: []Clip{NewEmpty(c.Length + k)}}}
	case i > 0 && clips[i-1].IsEmpty():
		return []Replacement{{Old: clips[i-1].ID, New: []Clip{NewEmpty(clips[i-1].Length + k)}}}
	}
	return []Replacement{{Old: c.ID, New: []Clip{NewEmpty(k), c.Derive()}}}
}

// replacements that remove the filler range [x, x+k)
func removeFiller(clips []Clip, x, k PTS) []Replacement {
	if x >= totalLength(clips) {
		return nil
	}
	c := clips[clipAt(clips, x)]
	return []Replacement{{Old: c.ID, New: []Clip{NewEmpty(c.Length - k)}}}
}

func (s *Sequence) shiftedTrimEdit(targets []*trimTarget, edge Edge, dr PTS) Edit {
	var e Edit
	for _, tt := range targets {
		e.Replacements = append(e.Replacements, Replacement{Old: tt.clip.ID, New: []Clip{tt.trimmed(edge, dr)}})
		if tt.edgeTr != nil {
			e.RemoveTransitions = append(e.RemoveTransitions, tt.edgeTr.ID)
		}
	}

	x := targets[0].shiftPoint(edge)
	own := s.targetTracks(targets)
	for _, t := range s.AllTracks() {
		if own[t.ref] {
			continue
		}
		switch {
		case edge == Begin && dr < 0:
			e.Replacements = append(e.Replacements, insertFiller(t.clips, x, -dr)...)
		case edge == Begin:
			e.Replacements = append(e.Replacements, removeFiller(t.clips, x, dr)...)
		case dr > 0:
			e.Replacements = append(e.Replacements, insertFiller(t.clips, x, dr)...)
		default:
			e.Replacements = append(e.Replacements, removeFiller(t.clips, x+dr, -dr)...)
		}
	}
	return e
}

// range of a transition edge move; the neighbor on that side yields. A kind
// that needs both sides keeps at least one frame on each.
func (s *Sequence) transitionTrimBounds(id ClipID, edge Edge) (PTS, PTS) {
	t, i, err := s.transitionAt(id)
	if err != nil {
		return 0, 0
	}
	tr := t.clips[i]
	b := boundsAt(t.clips, i)
	var lo, hi PTS
	if edge == Begin {
		if !tr.FramesLeft.Set {
			return 0, 0
		}
		prev := t.clips[i-1]
		lo = max(b.MinBegin, -(prev.Length - 1))
		hi = min(b.MaxBegin, tr.Length-1, prev.MaxAdjustEnd())
		if tr.FramesRight.Set && !s.kindAllows(tr, false, true) {
			hi = min(hi, tr.FramesLeft.N-1)
		}
	} else {
		if !tr.FramesRight.Set {
			return 0, 0
		}
		next := t.clips[i+1]
		lo = max(b.MinEnd, -(tr.Length - 1), next.MinAdjustBegin())
		hi = min(b.MaxEnd, next.Length-1)
		if tr.FramesLeft.Set && !s.kindAllows(tr, true, false) {
			lo = max(lo, -(tr.FramesRight.N - 1))
		}
	}
	if lo > hi {
		return 0, 0
	}
	return lo, hi
}

func (s *Sequence) kindAllows(tr Clip, left, right bool) bool {
	if tr.Params == nil {
		return true
	}
	k, err := s.registry.Lookup(tr.Params.Kind())
	if err != nil {
		return true
	}
	return k.Allows(left, right)
}

func (s *Sequence) transitionTrimEdit(id ClipID, edge Edge, d PTS) Edit {
	t, i, _ := s.transitionAt(id)
	tr := t.clips[i].Derive()
	if edge == Begin {
		prev := t.clips[i-1]
		p := prev.Derive()
		p.AdjustEnd(d)
		tr.AdjustBegin(d)
		return Edit{Replacements: []Replacement{
			{Old: prev.ID, New: []Clip{p}},
			{Old: id, New: []Clip{tr}},
		}}
	}
	next := t.clips[i+1]
	n := next.Derive()
	n.AdjustBegin(d)
	tr.AdjustEnd(d)
	return Edit{Replacements: []Replacement{
		{Old: id, New: []Clip{tr}},
		{Old: next.ID, New: []Clip{n}},
	}}
}
