package timeline

import (
	"fmt"
	"slices"
)

// replaces one committed clip by a list of new clip values
type Replacement struct {
	Old ClipID
	New []Clip
}

// adds clips at the end of a track
type Append struct {
	Track TrackRef
	Clips []Clip
}

// one atomic change of the sequence.
//
// Replacement lists are spliced in place of their old clip. Transitions in
// RemoveTransitions are unapplied losslessly; when a neighbor of such a
// transition is also replaced, its list must cover the neighbor's restored
// span. A transition whose used neighbor is replaced without keeping the
// shared edge is removed implicitly and its borrowed frames become filler.
//
// Unless LinksHandled is set, replacing a linked clip whose partner is not
// part of the edit mirrors the change onto the partner.
type Edit struct {
	Replacements      []Replacement
	RemoveTransitions []ClipID
	Appends           []Append
	LinksHandled      bool
}

// spliced range of one track: Old clips were replaced by New clips at Index
type TrackChange struct {
	Track TrackRef
	Index int
	Old   []Clip
	New   []Clip
}

// link field of a clip outside the spliced ranges
type LinkChange struct {
	Clip ClipID
	Old  ClipID
	New  ClipID
}

// everything needed to undo or redo a committed edit
type Result struct {
	Changes            []TrackChange
	Links              []LinkChange
	RemovedTransitions []Clip
	// tracks created for the edit, in creation order. Undo removes them
	// again and redo recreates them.
	AddedTracks []TrackRef
}

// reports whether the edit changed nothing
func (r *Result) Empty() bool {
	return r == nil || (len(r.Changes) == 0 && len(r.Links) == 0)
}

// ids of the clips the edit created, in track order
func (r *Result) Created() []ClipID {
	var ids []ClipID
	for _, ch := range r.Changes {
		old := make(map[ClipID]bool, len(ch.Old))
		for _, c := range ch.Old {
			old[c.ID] = true
		}
		for _, c := range ch.New {
			if !old[c.ID] {
				ids = append(ids, c.ID)
			}
		}
	}
	return ids
}

type location struct {
	ref   TrackRef
	index int
}

// staging area of one Apply call; the sequence is touched only by commit
type trial struct {
	seq      *Sequence
	edit     Edit
	old      map[TrackRef][]Clip
	loc      map[ClipID]location
	repl     map[ClipID][]Clip
	explicit map[ClipID]bool
	removed  []Clip
	fresh    map[ClipID]bool
	nextID   ClipID
	final    map[TrackRef][]Clip
	extent   map[TrackRef]PTS
	links    []LinkChange
}

// applies the edit atomically. On error the sequence is left untouched.
func (s *Sequence) Apply(e Edit) (*Result, error) {
	tr := &trial{
		seq:      s,
		edit:     e,
		old:      make(map[TrackRef][]Clip),
		loc:      make(map[ClipID]location),
		repl:     make(map[ClipID][]Clip),
		explicit: make(map[ClipID]bool),
		fresh:    make(map[ClipID]bool),
		nextID:   s.nextID,
		final:    make(map[TrackRef][]Clip),
		extent:   make(map[TrackRef]PTS),
	}
	for _, t := range s.AllTracks() {
		tr.old[t.ref] = t.clips
		for i, c := range t.clips {
			tr.loc[c.ID] = location{ref: t.ref, index: i}
		}
	}

	steps := []func() error{
		tr.ingest,
		tr.mirrorLinks,
		tr.unapplyTransitions,
		tr.build,
		tr.resolveLinks,
		tr.checkParity,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			s.log.Debugw("edit refused", "error", err)
			return nil, err
		}
	}

	res := tr.commit()
	s.log.Debugw("edit applied",
		"changes", len(res.Changes),
		"links", len(res.Links),
		"removed_transitions", len(res.RemovedTransitions),
	)
	return res, nil
}

func (tr *trial) clip(id ClipID) Clip {
	l := tr.loc[id]
	return tr.old[l.ref][l.index]
}

func (tr *trial) checkNew(clips []Clip, seen map[ClipID]bool) error {
	for _, c := range clips {
		if c.ID == 0 {
			continue
		}
		if _, exists := tr.loc[c.ID]; exists || c.ID >= tr.seq.nextID || seen[c.ID] {
			return fmt.Errorf("%w: clip id %d is not a free reserved id", ErrInvalidEdit, c.ID)
		}
		seen[c.ID] = true
		tr.fresh[c.ID] = true
	}
	return nil
}

func (tr *trial) ingest() error {
	seen := make(map[ClipID]bool)
	for _, r := range tr.edit.Replacements {
		if _, ok := tr.loc[r.Old]; !ok {
			return fmt.Errorf("%w: %d", ErrClipNotFound, r.Old)
		}
		if _, dup := tr.repl[r.Old]; dup {
			return fmt.Errorf("%w: clip %d replaced twice", ErrInvalidEdit, r.Old)
		}
		if err := tr.checkNew(r.New, seen); err != nil {
			return err
		}
		tr.repl[r.Old] = slices.Clone(r.New)
	}
	for _, id := range tr.edit.RemoveTransitions {
		if _, ok := tr.loc[id]; !ok {
			return fmt.Errorf("%w: %d", ErrClipNotFound, id)
		}
		if !tr.clip(id).IsTransition() {
			return fmt.Errorf("%w: clip %d is not a transition", ErrInvalidEdit, id)
		}
		if _, replaced := tr.repl[id]; replaced || tr.explicit[id] {
			return fmt.Errorf("%w: transition %d removed twice", ErrInvalidEdit, id)
		}
		tr.explicit[id] = true
	}
	for _, a := range tr.edit.Appends {
		if _, err := tr.seq.Track(a.Track); err != nil {
			return err
		}
		if err := tr.checkNew(a.Clips, seen); err != nil {
			return err
		}
	}
	return nil
}

func (tr *trial) replaced(id ClipID) bool {
	_, ok := tr.repl[id]
	return ok || tr.explicit[id]
}

func (tr *trial) mirrorLinks() error {
	if tr.edit.LinksHandled {
		return nil
	}
	for _, r := range tr.edit.Replacements {
		old := tr.clip(r.Old)
		if old.Link == 0 {
			continue
		}
		if _, ok := tr.loc[old.Link]; !ok || tr.replaced(old.Link) {
			continue
		}
		if err := tr.mirror(old, tr.repl[old.ID], tr.clip(old.Link)); err != nil {
			return err
		}
	}
	return nil
}

// propagates the replacement of old onto its linked partner so both tracks
// change length by the same amount
func (tr *trial) mirror(old Clip, list []Clip, partner Clip) error {
	var derived bool
	for _, c := range list {
		if c.origin == old.ID {
			derived = true
			break
		}
	}

	if !derived {
		return tr.compensate(partner, totalLength(list)-old.Length)
	}

	mirrored := make([]Clip, 0, len(list))
	for _, c := range list {
		if c.origin != old.ID || c.Kind != old.Kind {
			mirrored = append(mirrored, NewEmpty(c.Length))
			continue
		}
		p := partner.Derive()
		begin := c.Offset - old.Offset
		end := (c.Offset + c.Length) - (old.Offset + old.Length)
		if begin < p.MinAdjustBegin() || begin > p.MaxAdjustBegin() {
			return fmt.Errorf("%w: linked clip %d cannot follow begin change %d", ErrLinkDesync, partner.ID, begin)
		}
		p.AdjustBegin(begin)
		if end < p.MinAdjustEnd() || end > p.MaxAdjustEnd() || p.Length+end <= 0 {
			return fmt.Errorf("%w: linked clip %d cannot follow end change %d", ErrLinkDesync, partner.ID, end)
		}
		p.AdjustEnd(end)
		mirrored = append(mirrored, p)
	}
	tr.repl[partner.ID] = mirrored
	return nil
}

// grows or shrinks the partner's track by k right after the partner, using
// the filler that follows it
func (tr *trial) compensate(partner Clip, k PTS) error {
	if k == 0 {
		return nil
	}
	l := tr.loc[partner.ID]
	clips := tr.old[l.ref]
	var after *Clip
	if j := l.index + 1; j < len(clips) && clips[j].IsEmpty() && !tr.replaced(clips[j].ID) {
		after = &clips[j]
	}

	if k > 0 {
		if after != nil {
			tr.repl[after.ID] = []Clip{NewEmpty(after.Length + k)}
		} else {
			tr.repl[partner.ID] = []Clip{partner.Derive(), NewEmpty(k)}
		}
		return nil
	}
	if after != nil && after.Length >= -k {
		tr.repl[after.ID] = []Clip{NewEmpty(after.Length + k)}
		return nil
	}
	return fmt.Errorf("%w: no room to remove %d after clip %d on %s", ErrLinkDesync, -k, partner.ID, l.ref)
}

func (tr *trial) unapplyTransitions() error {
	for _, id := range tr.edit.RemoveTransitions {
		if err := tr.unapply(id, true); err != nil {
			return err
		}
	}

	for changed := true; changed; {
		changed = false
		for _, t := range tr.seq.AllTracks() {
			clips := tr.old[t.ref]
			for i, c := range clips {
				if !c.IsTransition() || tr.replaced(c.ID) || !tr.adjacencyBroken(clips, i) {
					continue
				}
				if err := tr.unapply(c.ID, false); err != nil {
					return err
				}
				changed = true
			}
		}
	}
	return nil
}

// reports whether a used neighbor of the transition at i is replaced by a
// list that no longer shares the transition's edge
func (tr *trial) adjacencyBroken(clips []Clip, i int) bool {
	t := clips[i]
	if t.FramesLeft.Set && i > 0 {
		prev := clips[i-1]
		if l, ok := tr.repl[prev.ID]; ok && (len(l) == 0 || !l[len(l)-1].keepsEndOf(prev)) {
			return true
		}
	}
	if t.FramesRight.Set && i+1 < len(clips) {
		next := clips[i+1]
		if l, ok := tr.repl[next.ID]; ok && (len(l) == 0 || !l[0].keepsBeginOf(next)) {
			return true
		}
	}
	return false
}

// removes a transition, giving its borrowed frames back to the neighbors that
// are still intact and turning the rest into filler
func (tr *trial) unapply(id ClipID, explicit bool) error {
	l := tr.loc[id]
	clips := tr.old[l.ref]
	t := clips[l.index]
	var fill []Clip

	if t.FramesLeft.Set {
		prev := clips[l.index-1]
		fl := t.FramesLeft.N
		list, ok := tr.repl[prev.ID]
		switch {
		case !ok:
			d := prev.Derive()
			if fl > d.MaxAdjustEnd() {
				return invariantf("clip %d cannot take back %d frames from transition %d", prev.ID, fl, id)
			}
			d.AdjustEnd(fl)
			tr.repl[prev.ID] = []Clip{d}
		case explicit:
		case len(list) > 0 && list[len(list)-1].keepsEndOf(prev):
			last := &list[len(list)-1]
			if fl > last.MaxAdjustEnd() {
				return invariantf("clip %d cannot take back %d frames from transition %d", prev.ID, fl, id)
			}
			last.AdjustEnd(fl)
		default:
			fill = append(fill, NewEmpty(fl))
		}
	}

	if t.FramesRight.Set {
		next := clips[l.index+1]
		fr := t.FramesRight.N
		list, ok := tr.repl[next.ID]
		switch {
		case !ok:
			d := next.Derive()
			if -fr < d.MinAdjustBegin() {
				return invariantf("clip %d cannot take back %d frames from transition %d", next.ID, fr, id)
			}
			d.AdjustBegin(-fr)
			tr.repl[next.ID] = []Clip{d}
		case explicit:
		case len(list) > 0 && list[0].keepsBeginOf(next):
			first := &list[0]
			if -fr < first.MinAdjustBegin() {
				return invariantf("clip %d cannot take back %d frames from transition %d", next.ID, fr, id)
			}
			first.AdjustBegin(-fr)
		default:
			fill = append(fill, NewEmpty(fr))
		}
	}

	if explicit {
		delete(tr.explicit, id)
	}
	tr.repl[id] = fill
	tr.removed = append(tr.removed, t)
	return nil
}

func (tr *trial) affected(ref TrackRef) bool {
	for id := range tr.repl {
		if tr.loc[id].ref == ref {
			return true
		}
	}
	for _, a := range tr.edit.Appends {
		if a.Track == ref {
			return true
		}
	}
	return false
}

func (tr *trial) newID() ClipID {
	id := tr.nextID
	tr.nextID++
	tr.fresh[id] = true
	return id
}

func (tr *trial) assignIDs(clips []Clip) {
	for i := range clips {
		if clips[i].ID == 0 {
			clips[i].ID = tr.newID()
		}
	}
}

// copy of c under a new id that keeps the lineage of clips created by this
// edit
func (tr *trial) rederive(c Clip) Clip {
	d := c.Derive()
	if tr.fresh[c.ID] {
		d.origin = c.origin
	}
	d.ID = tr.newID()
	return d
}

func (tr *trial) build() error {
	for _, t := range tr.seq.AllTracks() {
		ref := t.ref
		if !tr.affected(ref) {
			continue
		}
		var raw []Clip
		for _, c := range tr.old[ref] {
			if list, ok := tr.repl[c.ID]; ok {
				raw = append(raw, list...)
			} else {
				raw = append(raw, c)
			}
		}
		for _, a := range tr.edit.Appends {
			if a.Track == ref {
				raw = append(raw, a.Clips...)
			}
		}
		tr.extent[ref] = totalLength(raw)

		clips, err := normalize(raw)
		if err != nil {
			return fmt.Errorf("track %s: %w", ref, err)
		}
		tr.assignIDs(clips)
		if clips, err = tr.recheck(clips); err != nil {
			return fmt.Errorf("track %s: %w", ref, err)
		}
		if err := validateClips(clips); err != nil {
			return fmt.Errorf("track %s: %w", ref, err)
		}
		tr.final[ref] = clips
	}
	return nil
}

// removes transitions that no longer straddle two media clips until none is
// left. Every pass removes one transition, so this terminates.
func (tr *trial) recheck(clips []Clip) ([]Clip, error) {
	for {
		i := -1
		for j, c := range clips {
			if c.IsTransition() && !transitionValid(clips, j) {
				i = j
				break
			}
		}
		if i < 0 {
			return clips, nil
		}

		t := clips[i]
		var fill []Clip
		if t.FramesLeft.Set && t.FramesLeft.N > 0 {
			if i > 0 && clips[i-1].IsMedia() && clips[i-1].MaxAdjustEnd() >= t.FramesLeft.N {
				d := tr.rederive(clips[i-1])
				d.AdjustEnd(t.FramesLeft.N)
				clips[i-1] = d
			} else {
				fill = append(fill, NewEmpty(t.FramesLeft.N))
			}
		}
		if t.FramesRight.Set && t.FramesRight.N > 0 {
			if i+1 < len(clips) && clips[i+1].IsMedia() && clips[i+1].MinAdjustBegin() <= -t.FramesRight.N {
				d := tr.rederive(clips[i+1])
				d.AdjustBegin(-t.FramesRight.N)
				clips[i+1] = d
			} else {
				fill = append(fill, NewEmpty(t.FramesRight.N))
			}
		}
		if !tr.fresh[t.ID] {
			tr.removed = append(tr.removed, t)
		}

		var err error
		clips, err = normalize(slices.Concat(clips[:i], fill, clips[i+1:]))
		if err != nil {
			return nil, err
		}
		tr.assignIDs(clips)
	}
}

// current clips of ref after the edit
func (tr *trial) clipsOf(ref TrackRef) []Clip {
	if clips, ok := tr.final[ref]; ok {
		return clips
	}
	return tr.old[ref]
}

func (tr *trial) resolveLinks() error {
	tracks := tr.seq.AllTracks()
	present := make(map[ClipID]bool)
	derivedOf := make(map[ClipID][]ClipID)
	linkOf := make(map[ClipID]ClipID)
	for _, t := range tracks {
		for _, c := range tr.clipsOf(t.ref) {
			present[c.ID] = true
			linkOf[c.ID] = c.Link
			if tr.fresh[c.ID] && c.origin != 0 {
				derivedOf[c.origin] = append(derivedOf[c.origin], c.ID)
			}
		}
	}

	want := make(map[ClipID]ClipID)
	for _, t := range tracks {
		for _, c := range tr.clipsOf(t.ref) {
			if c.Link == 0 {
				continue
			}
			if present[c.Link] {
				want[c.ID] = c.Link
				continue
			}
			clones := derivedOf[c.Link]
			if tr.fresh[c.ID] && c.origin != 0 {
				if r := slices.Index(derivedOf[c.origin], c.ID); r < len(clones) {
					want[c.ID] = clones[r]
				}
				continue
			}
			for _, id := range clones {
				if linkOf[id] == c.ID {
					want[c.ID] = id
					break
				}
			}
		}
	}
	for id, partner := range want {
		if want[partner] != id {
			want[id] = 0
		}
	}

	for _, t := range tracks {
		clips := tr.clipsOf(t.ref)
		var copied bool
		for i, c := range clips {
			if want[c.ID] == c.Link {
				continue
			}
			if !copied {
				clips = slices.Clone(clips)
				copied = true
			}
			if !tr.fresh[c.ID] {
				tr.links = append(tr.links, LinkChange{Clip: c.ID, Old: c.Link, New: want[c.ID]})
			}
			clips[i].Link = want[c.ID]
		}
		if copied {
			tr.final[t.ref] = clips
		}
	}
	return nil
}

// tracks of a replaced linked clip and its partner that were equally long
// must stay equally long. Filler stripped from a track end still counts.
func (tr *trial) checkParity() error {
	type pair struct{ a, b TrackRef }
	pairs := make(map[pair]bool)
	for id := range tr.repl {
		c := tr.clip(id)
		if c.Link == 0 {
			continue
		}
		if l, ok := tr.loc[c.Link]; ok && l.ref != tr.loc[id].ref {
			a, b := tr.loc[id].ref, l.ref
			if b.Kind < a.Kind || b.Kind == a.Kind && b.Index < a.Index {
				a, b = b, a
			}
			pairs[pair{a, b}] = true
		}
	}
	extent := func(ref TrackRef) PTS {
		if n, ok := tr.extent[ref]; ok {
			return n
		}
		return totalLength(tr.old[ref])
	}
	for p := range pairs {
		if totalLength(tr.old[p.a]) != totalLength(tr.old[p.b]) {
			continue
		}
		if x, y := extent(p.a), extent(p.b); x != y {
			return fmt.Errorf("%w: %s would be %d long, %s %d", ErrLinkDesync, p.a, x, p.b, y)
		}
	}
	return nil
}

func (tr *trial) commit() *Result {
	res := &Result{Links: tr.links, RemovedTransitions: tr.removed}
	for _, t := range tr.seq.AllTracks() {
		clips, ok := tr.final[t.ref]
		if !ok {
			continue
		}
		if ch, changed := diff(t.ref, t.clips, clips); changed {
			res.Changes = append(res.Changes, ch)
		}
		t.clips = clips
	}
	tr.seq.nextID = tr.nextID
	return res
}

// smallest id-wise differing range between two clip lists
func diff(ref TrackRef, before, after []Clip) (TrackChange, bool) {
	p := 0
	for p < len(before) && p < len(after) && before[p].ID == after[p].ID {
		p++
	}
	s := 0
	for s < len(before)-p && s < len(after)-p &&
		before[len(before)-1-s].ID == after[len(after)-1-s].ID {
		s++
	}
	if p == len(before) && p == len(after) {
		return TrackChange{}, false
	}
	return TrackChange{
		Track: ref,
		Index: p,
		Old:   slices.Clone(before[p : len(before)-s]),
		New:   slices.Clone(after[p : len(after)-s]),
	}, true
}

// reverts a committed edit. Edits must be undone in reverse order.
func (s *Sequence) Undo(r *Result) error {
	return s.swap(r, true)
}

// re-applies an edit previously reverted with Undo
func (s *Sequence) Redo(r *Result) error {
	return s.swap(r, false)
}

func (s *Sequence) swap(r *Result, undo bool) error {
	if r == nil {
		return nil
	}
	if !undo {
		added, err := s.restoreTracks(r.AddedTracks)
		if err != nil {
			return err
		}
		if err := s.swapClips(r, false); err != nil {
			s.dropTracks(added)
			return err
		}
		return nil
	}
	if err := s.swapClips(r, true); err != nil {
		return err
	}
	s.dropTracks(r.AddedTracks)
	return nil
}

// recreates the tracks of a redone edit. Each must be the next index of
// its kind.
func (s *Sequence) restoreTracks(refs []TrackRef) ([]TrackRef, error) {
	for i, ref := range refs {
		if n := len(*s.tracksOf(ref.Kind)); n != ref.Index {
			s.dropTracks(refs[:i])
			return nil, fmt.Errorf("%w: history expects %s, sequence has %d %s tracks",
				ErrInvalidState, ref, n, ref.Kind)
		}
		s.AddTrack(ref.Kind)
	}
	return refs, nil
}

// removes tracks in reverse creation order, keeping any that gained clips
func (s *Sequence) dropTracks(refs []TrackRef) {
	for _, ref := range slices.Backward(refs) {
		if err := s.RemoveTrack(ref); err != nil {
			s.log.Debugw("track kept", "track", ref, "error", err)
		}
	}
}

func (s *Sequence) swapClips(r *Result, undo bool) error {
	type step struct {
		track    *Track
		ch       TrackChange
		from, to []Clip
	}
	steps := make([]step, 0, len(r.Changes))
	for _, ch := range r.Changes {
		t, err := s.Track(ch.Track)
		if err != nil {
			return err
		}
		from, to := ch.New, ch.Old
		if !undo {
			from, to = ch.Old, ch.New
		}
		if ch.Index+len(from) > len(t.clips) {
			return fmt.Errorf("%w: history does not match %s", ErrInvalidState, ch.Track)
		}
		for i, c := range from {
			if t.clips[ch.Index+i].ID != c.ID {
				return fmt.Errorf("%w: history does not match %s", ErrInvalidState, ch.Track)
			}
		}
		steps = append(steps, step{track: t, ch: ch, from: from, to: to})
	}

	for _, st := range steps {
		t := st.track
		t.clips = slices.Concat(t.clips[:st.ch.Index], slices.Clone(st.to), t.clips[st.ch.Index+len(st.from):])
		relayout(t.clips)
	}
	for _, lc := range r.Links {
		link := lc.New
		if undo {
			link = lc.Old
		}
		_, ref, i, err := s.Lookup(lc.Clip)
		if err != nil {
			return err
		}
		(*s.tracksOf(ref.Kind))[ref.Index].clips[i].Link = link
	}
	return nil
}
