package timeline

// removes clips from the sequence. Without ripple every clip leaves filler
// of its full span behind; with ripple the rest of its track closes the gap
// and linked partners are removed too. Transitions next to a deleted clip go
// with it, handing their frames back to the surviving neighbor.
func (s *Sequence) Delete(ids []ClipID, ripple bool) (*Result, error) {
	var targets []ClipID
	seen := make(map[ClipID]bool)
	add := func(id ClipID) {
		if !seen[id] {
			seen[id] = true
			targets = append(targets, id)
		}
	}
	for _, id := range ids {
		c, _, _, err := s.Lookup(id)
		if err != nil {
			return nil, err
		}
		add(id)
		if ripple && c.Link != 0 {
			if _, _, _, err := s.Lookup(c.Link); err == nil {
				add(c.Link)
			}
		}
	}

	var edit Edit
	removed := make(map[ClipID]bool)
	remove := func(t Clip) {
		if !removed[t.ID] {
			removed[t.ID] = true
			edit.RemoveTransitions = append(edit.RemoveTransitions, t.ID)
		}
	}
	for _, id := range targets {
		if c, _, _, _ := s.Lookup(id); c.IsTransition() {
			remove(c)
		}
	}
	for _, id := range targets {
		c, ref, i, _ := s.Lookup(id)
		if c.IsTransition() {
			continue
		}
		t, _ := s.Track(ref)
		span := c.Length
		if !c.IsEmpty() {
			if i > 0 && t.clips[i-1].IsTransition() {
				remove(t.clips[i-1])
				span += t.clips[i-1].FramesRight.Value()
			}
			if i+1 < len(t.clips) && t.clips[i+1].IsTransition() {
				remove(t.clips[i+1])
				span += t.clips[i+1].FramesLeft.Value()
			}
		}
		var fill []Clip
		if !ripple {
			fill = []Clip{NewEmpty(span)}
		}
		edit.Replacements = append(edit.Replacements, Replacement{Old: id, New: fill})
	}
	edit.LinksHandled = true

	res, err := s.Apply(edit)
	if err != nil {
		return nil, err
	}
	s.log.Debugw("clips deleted", "count", len(edit.Replacements), "ripple", ripple)
	return res, nil
}
