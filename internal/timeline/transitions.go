package timeline

import (
	"fmt"

	"github.com/mgpai22/splice/internal/transition"
)

// inserts a transition of the given kind at the cut between after and its
// successor. The left clip gives up left frames from its end and the right
// clip gives up right frames from its begin, so the point where the clips
// used to touch stays put.
func (s *Sequence) CreateTransition(after ClipID, left, right Frames, kind string) (*Result, error) {
	_, ref, i, err := s.Lookup(after)
	if err != nil {
		return nil, err
	}
	t, _ := s.Track(ref)
	if i+1 >= len(t.clips) {
		return nil, fmt.Errorf("%w: clip %d has no successor", ErrNotAdjacent, after)
	}
	a, b := t.clips[i], t.clips[i+1]
	if err := fitTransition(a, b, left, right); err != nil {
		return nil, err
	}

	k, err := s.registry.Lookup(kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransitionDoesNotFit, err)
	}
	if !k.Allows(left.Set, right.Set) {
		return nil, fmt.Errorf("%w: kind %q cannot render sides %s/%s", ErrTransitionDoesNotFit, kind, left, right)
	}
	params, err := s.registry.NewParameters(kind)
	if err != nil {
		return nil, err
	}
	tr := NewTransition(params, left, right)

	var edit Edit
	switch {
	case left.Set && right.Set:
		a2, b2 := a.Derive(), b.Derive()
		a2.AdjustEnd(-left.N)
		b2.AdjustBegin(right.N)
		edit.Replacements = []Replacement{
			{Old: a.ID, New: []Clip{a2, tr}},
			{Old: b.ID, New: []Clip{b2}},
		}
	case left.Set:
		a2 := a.Derive()
		a2.AdjustEnd(-left.N)
		edit.Replacements = []Replacement{{Old: a.ID, New: []Clip{a2, tr}}}
	default:
		b2 := b.Derive()
		b2.AdjustBegin(right.N)
		edit.Replacements = []Replacement{{Old: b.ID, New: []Clip{tr, b2}}}
	}
	edit.LinksHandled = true

	res, err := s.Apply(edit)
	if err != nil {
		return nil, err
	}
	s.log.Debugw("transition created", "kind", kind, "after", after, "left", left, "right", right)
	return res, nil
}

// checks the geometric preconditions of a transition between a and b
func fitTransition(a, b Clip, left, right Frames) error {
	if a.IsTransition() || b.IsTransition() {
		return fmt.Errorf("%w: clips %d and %d must not be transitions", ErrTransitionDoesNotFit, a.ID, b.ID)
	}
	if !left.Set && !right.Set {
		return fmt.Errorf("%w: at least one side is required", ErrTransitionDoesNotFit)
	}
	if left.Set {
		if !a.IsMedia() {
			return fmt.Errorf("%w: clip %d is not media", ErrTransitionDoesNotFit, a.ID)
		}
		if left.N <= 0 || left.N >= a.Length {
			return fmt.Errorf("%w: %d left frames on clip of length %d", ErrTransitionDoesNotFit, left.N, a.Length)
		}
	}
	if right.Set {
		if !b.IsMedia() {
			return fmt.Errorf("%w: clip %d is not media", ErrTransitionDoesNotFit, b.ID)
		}
		if right.N <= 0 || right.N >= b.Length {
			return fmt.Errorf("%w: %d right frames on clip of length %d", ErrTransitionDoesNotFit, right.N, b.Length)
		}
	}
	if left.Set && right.Set {
		if a.MaxAdjustEnd() < right.N {
			return fmt.Errorf("%w: source of clip %d ends %d after the cut, need %d",
				ErrTransitionDoesNotFit, a.ID, a.MaxAdjustEnd(), right.N)
		}
		if b.Offset < left.N {
			return fmt.Errorf("%w: source of clip %d starts %d before the cut, need %d",
				ErrTransitionDoesNotFit, b.ID, b.Offset, left.N)
		}
	}
	return nil
}

// removes a transition and gives its frames back to both neighbors
func (s *Sequence) RemoveTransition(id ClipID) (*Result, error) {
	c, _, _, err := s.Lookup(id)
	if err != nil {
		return nil, err
	}
	if !c.IsTransition() {
		return nil, fmt.Errorf("%w: clip %d is not a transition", ErrInvalidEdit, id)
	}
	return s.Apply(Edit{RemoveTransitions: []ClipID{id}, LinksHandled: true})
}

func (s *Sequence) transitionAt(id ClipID) (*Track, int, error) {
	c, ref, i, err := s.Lookup(id)
	if err != nil {
		return nil, -1, err
	}
	if !c.IsTransition() {
		return nil, -1, fmt.Errorf("%w: clip %d is not a transition", ErrInvalidState, id)
	}
	t, _ := s.Track(ref)
	return t, i, nil
}

// outgoing clip of the transition, re-windowed onto the transition's interval
func (s *Sequence) LeftClip(id ClipID) (Clip, error) {
	t, i, err := s.transitionAt(id)
	if err != nil {
		return Clip{}, err
	}
	tr := t.clips[i]
	if !tr.FramesLeft.Set {
		return Clip{}, fmt.Errorf("%w: transition %d has no left side", ErrInvalidState, id)
	}
	prev := t.clips[i-1]
	c := prev.Derive()
	c.AdjustBegin(prev.Length)
	c.AdjustEnd(tr.Length)
	return c, nil
}

// incoming clip of the transition, re-windowed onto the transition's interval
func (s *Sequence) RightClip(id ClipID) (Clip, error) {
	t, i, err := s.transitionAt(id)
	if err != nil {
		return Clip{}, err
	}
	tr := t.clips[i]
	if !tr.FramesRight.Set {
		return Clip{}, fmt.Errorf("%w: transition %d has no right side", ErrInvalidState, id)
	}
	next := t.clips[i+1]
	c := next.Derive()
	c.AdjustEnd(-next.Length)
	c.AdjustBegin(-tr.Length)
	return c, nil
}

// changes one parameter of a transition in place
func (s *Sequence) SetTransitionParam(id ClipID, name string, v transition.Value) error {
	t, i, err := s.transitionAt(id)
	if err != nil {
		return err
	}
	if err := t.clips[i].Params.Set(name, v); err != nil {
		return fmt.Errorf("failed to set %s on transition %d: %w", name, id, err)
	}
	return nil
}
