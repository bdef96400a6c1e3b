package drag

import (
	"slices"

	"github.com/mgpai22/splice/internal/timeline"
)

// recomputes clip positions as prefix sums of their lengths
func reflow(clips []timeline.Clip) {
	var pos timeline.PTS
	for i := range clips {
		clips[i].Left = pos
		pos += clips[i].Length
	}
}

func extent(clips []timeline.Clip) timeline.PTS {
	if len(clips) == 0 {
		return 0
	}
	return clips[len(clips)-1].Right()
}

// index of the clip strictly containing p, or -1 when p is a cut or past the end
func inside(clips []timeline.Clip, p timeline.PTS) int {
	for i, c := range clips {
		if c.Left < p && p < c.Right() {
			return i
		}
	}
	return -1
}

// makes p a cut. Media splits into two clones of the same source, filler
// into two fillers; a transition cannot be split and turns into filler.
func splitAt(clips []timeline.Clip, p timeline.PTS) []timeline.Clip {
	i := inside(clips, p)
	if i < 0 {
		return clips
	}
	c := clips[i]
	var parts []timeline.Clip
	if c.IsMedia() {
		left, right := c.Derive(), c.Derive()
		left.AdjustEnd(p - c.Right())
		right.AdjustBegin(p - c.Left)
		parts = []timeline.Clip{left, right}
	} else {
		parts = []timeline.Clip{timeline.NewEmpty(p - c.Left), timeline.NewEmpty(c.Right() - p)}
	}
	out := slices.Concat(clips[:i], parts, clips[i+1:])
	reflow(out)
	return out
}

// puts c over [c.Left, c.Right()), replacing whatever was there and padding
// with filler past the track end
func overwrite(clips []timeline.Clip, c timeline.Clip) []timeline.Clip {
	clips = splitAt(splitAt(clips, c.Left), c.Right())
	var before, after []timeline.Clip
	for _, x := range clips {
		switch {
		case x.Right() <= c.Left:
			before = append(before, x)
		case x.Left >= c.Right():
			after = append(after, x)
		}
	}
	if pad := c.Left - extent(before); pad > 0 {
		before = append(before, timeline.NewEmpty(pad))
	}
	out := slices.Concat(before, []timeline.Clip{c}, after)
	reflow(out)
	return out
}

// where a gap inserted for p lands on a track. Filler and clean cuts take
// it at p, media on a destination track is split at p, anything else moves
// the gap to the start of its run of transition-joined clips.
func insertionPoint(clips []timeline.Clip, p timeline.PTS, dest bool) timeline.PTS {
	i := -1
	for j, c := range clips {
		if c.Contains(p) {
			i = j
			break
		}
	}
	if i < 0 {
		return p
	}
	c := clips[i]
	switch {
	case c.IsEmpty():
		return p
	case c.Left == p && !c.IsTransition() && (i == 0 || !clips[i-1].IsTransition()):
		return p
	case dest && c.IsMedia() && c.Left < p:
		return p
	}
	for i > 0 && (clips[i].IsTransition() || clips[i-1].IsTransition()) {
		i--
	}
	return clips[i].Left
}

// inserts n ticks of filler at p, which must come from insertionPoint
func insertGap(clips []timeline.Clip, p, n timeline.PTS) []timeline.Clip {
	if n <= 0 || p >= extent(clips) {
		return clips
	}
	if i := inside(clips, p); i >= 0 && clips[i].IsEmpty() {
		out := slices.Clone(clips)
		out[i] = timeline.NewEmpty(clips[i].Length + n)
		reflow(out)
		return out
	}
	clips = splitAt(clips, p)
	i := slices.IndexFunc(clips, func(c timeline.Clip) bool { return c.Left == p })
	out := slices.Concat(clips[:i], []timeline.Clip{timeline.NewEmpty(n)}, clips[i:])
	reflow(out)
	return out
}

// turns the difference between a committed track and its edited copy into
// edit engine input. Clips of the copy that kept their id are untouched,
// every other clip is new and replaces the removed clips between two kept
// ones, preferring the removed clip it was derived from. A pure insertion
// rides on a clone of the neighboring kept clip.
func planReplacements(ref timeline.TrackRef, orig, final []timeline.Clip) ([]timeline.Replacement, []timeline.Append) {
	index := make(map[timeline.ClipID]int, len(orig))
	for i, c := range orig {
		index[c.ID] = i
	}

	var (
		repls   []timeline.Replacement
		pending []timeline.Clip
		hosted  = make(map[int]int) // orig index -> position in repls
		next    int
		kept    = -1
	)
	host := func(i int, before bool) {
		c := orig[i]
		if at, ok := hosted[i]; ok {
			repls[at].New = append(repls[at].New, pending...)
			return
		}
		list := append([]timeline.Clip{c.Derive()}, pending...)
		if before {
			list = append(slices.Clone(pending), c.Derive())
		}
		hosted[i] = len(repls)
		repls = append(repls, timeline.Replacement{Old: c.ID, New: list})
	}

	for _, c := range final {
		i, ok := index[c.ID]
		if !ok {
			pending = append(pending, c)
			continue
		}
		switch removed := orig[next:i]; {
		case len(removed) > 0:
			repls = append(repls, distribute(removed, pending)...)
		case len(pending) == 0:
		case kept >= 0 && (!orig[kept].IsTransition() || c.IsTransition()):
			host(kept, false)
		default:
			host(i, true)
		}
		pending = nil
		next = i + 1
		kept = i
	}

	if removed := orig[next:]; len(removed) > 0 {
		return append(repls, distribute(removed, pending)...), nil
	}
	if len(pending) > 0 {
		return repls, []timeline.Append{{Track: ref, Clips: pending}}
	}
	return repls, nil
}

// spreads new clips over the removed run they take the place of, keeping
// their order
func distribute(removed, pending []timeline.Clip) []timeline.Replacement {
	lists := make([][]timeline.Clip, len(removed))
	cur := 0
	for _, c := range pending {
		for j := cur; j < len(removed); j++ {
			if c.Origin() == removed[j].ID {
				cur = j
				break
			}
		}
		lists[cur] = append(lists[cur], c)
	}
	out := make([]timeline.Replacement, len(removed))
	for j, old := range removed {
		out[j] = timeline.Replacement{Old: old.ID, New: lists[j]}
	}
	return out
}
