package timeline

import (
	"fmt"
	"slices"
)

type TrackKind int

const (
	Video TrackKind = iota
	Audio
)

func (k TrackKind) String() string {
	if k == Audio {
		return "audio"
	}
	return "video"
}

// addresses a track inside its sequence
type TrackRef struct {
	Kind  TrackKind
	Index int
}

func (r TrackRef) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.Index)
}

// adjustment bounds of one clip, in pts relative to its current edges
type Bounds struct {
	MinBegin PTS
	MaxBegin PTS
	MinEnd   PTS
	MaxEnd   PTS
}

// ordered, gap-free run of clips starting at zero
type Track struct {
	ref   TrackRef
	clips []Clip
}

func (t *Track) Ref() TrackRef { return t.ref }
func (t *Track) Kind() TrackKind { return t.ref.Kind }
func (t *Track) Index() int { return t.ref.Index }
func (t *Track) Len() int { return len(t.clips) }

func (t *Track) Clip(i int) Clip {
	return t.clips[i]
}

// copy of the clips, left to right
func (t *Track) Clips() []Clip {
	return slices.Clone(t.clips)
}

func (t *Track) Length() PTS {
	return totalLength(t.clips)
}

// position of the clip with the given id, or -1
func (t *Track) IndexOf(id ClipID) int {
	return indexOf(t.clips, id)
}

// index of the clip covering p, or -1 past the end
func (t *Track) ClipAt(p PTS) int {
	for i, c := range t.clips {
		if c.Contains(p) {
			return i
		}
	}
	return -1
}

// complete adjustment bounds of clip i, including the neighbor constraints
// of transitions
func (t *Track) Bounds(i int) Bounds {
	return boundsAt(t.clips, i)
}

// checks every structural invariant of the track
func (t *Track) Validate() error {
	return validateClips(t.clips)
}

func boundsAt(clips []Clip, i int) Bounds {
	c := clips[i]
	b := Bounds{
		MinBegin: c.MinAdjustBegin(),
		MaxBegin: c.MaxAdjustBegin(),
		MinEnd:   c.MinAdjustEnd(),
		MaxEnd:   c.MaxAdjustEnd(),
	}
	if c.Kind != KindTransition {
		return b
	}

	var prev, next *Clip
	if i > 0 {
		prev = &clips[i-1]
	}
	if i+1 < len(clips) {
		next = &clips[i+1]
	}

	if c.FramesLeft.Set && prev != nil {
		// may consume the remaining left neighbor, and with a right side the
		// incoming source must reach back to the new left edge
		b.MinBegin = -prev.Length
		if c.FramesRight.Set && next != nil {
			b.MinBegin = max(b.MinBegin, c.Length-next.Offset)
		}
	}
	if c.FramesRight.Set && next != nil {
		b.MaxEnd = next.Length
		if c.FramesLeft.Set && prev != nil {
			b.MaxEnd = min(b.MaxEnd, prev.MaxAdjustEnd()-c.Length)
		}
	}
	return b
}

func indexOf(clips []Clip, id ClipID) int {
	for i, c := range clips {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func totalLength(clips []Clip) PTS {
	var n PTS
	for _, c := range clips {
		n += c.Length
	}
	return n
}

// recomputes Left of every clip as the prefix sum of lengths
func relayout(clips []Clip) {
	var pos PTS
	for i := range clips {
		clips[i].Left = pos
		pos += clips[i].Length
	}
}

// drops zero-length filler, merges adjacent filler, strips trailing filler
// and re-derives positions. Non-filler clips must have positive length.
func normalize(clips []Clip) ([]Clip, error) {
	out := make([]Clip, 0, len(clips))
	for _, c := range clips {
		if c.Length < 0 || (c.Length == 0 && c.Kind != KindEmpty) {
			return nil, invariantf("%s clip %d would have length %d", c.Kind, c.ID, c.Length)
		}
		if c.Length == 0 {
			continue
		}
		if c.Kind == KindEmpty && len(out) > 0 && out[len(out)-1].Kind == KindEmpty {
			merged := NewEmpty(out[len(out)-1].Length + c.Length)
			out[len(out)-1] = merged
			continue
		}
		out = append(out, c)
	}
	for len(out) > 0 && out[len(out)-1].Kind == KindEmpty {
		out = out[:len(out)-1]
	}
	relayout(out)
	return out, nil
}

// reports whether the transition at i still straddles two usable clips
func transitionValid(clips []Clip, i int) bool {
	t := clips[i]
	if !t.FramesLeft.Set && !t.FramesRight.Set {
		return false
	}
	if t.Length != t.FramesLeft.Value()+t.FramesRight.Value() || t.Length <= 0 {
		return false
	}
	if t.FramesLeft.Set && t.FramesLeft.N <= 0 || t.FramesRight.Set && t.FramesRight.N <= 0 {
		return false
	}
	if i > 0 && clips[i-1].Kind == KindTransition {
		return false
	}
	if i+1 < len(clips) && clips[i+1].Kind == KindTransition {
		return false
	}
	if t.FramesLeft.Set && (i == 0 || clips[i-1].Kind != KindMedia) {
		return false
	}
	if t.FramesRight.Set && (i+1 >= len(clips) || clips[i+1].Kind != KindMedia) {
		return false
	}
	return true
}

func validateClips(clips []Clip) error {
	var pos PTS
	for i, c := range clips {
		if c.ID == 0 {
			return invariantf("clip at index %d has no id", i)
		}
		if c.Left != pos {
			return invariantf("clip %d starts at %d, expected %d", c.ID, c.Left, pos)
		}
		if c.Length <= 0 {
			return invariantf("clip %d has length %d", c.ID, c.Length)
		}
		if c.Kind == KindEmpty && i > 0 && clips[i-1].Kind == KindEmpty {
			return invariantf("adjacent empty clips %d and %d", clips[i-1].ID, c.ID)
		}
		if c.Kind == KindTransition && !transitionValid(clips, i) {
			return invariantf("transition %d does not straddle two media clips", c.ID)
		}
		pos += c.Length
	}
	if n := len(clips); n > 0 && clips[n-1].Kind == KindEmpty {
		return invariantf("track ends with empty clip %d", clips[n-1].ID)
	}
	return nil
}
