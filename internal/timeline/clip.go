package timeline

import (
	"fmt"

	"github.com/mgpai22/splice/internal/transition"
)

// arena id of a clip, zero means "not created yet"
type ClipID uint64

// closed set of clip variants
type ClipKind int

const (
	KindEmpty ClipKind = iota
	KindMedia
	KindTransition
)

func (k ClipKind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindMedia:
		return "media"
	case KindTransition:
		return "transition"
	}
	return fmt.Sprintf("ClipKind(%d)", int(k))
}

// optional frame count
type Frames struct {
	N   PTS
	Set bool
}

func FramesOf(n PTS) Frames {
	return Frames{N: n, Set: true}
}

// count, or zero when unset
func (f Frames) Value() PTS {
	if !f.Set {
		return 0
	}
	return f.N
}

func (f Frames) String() string {
	if !f.Set {
		return "-"
	}
	return fmt.Sprint(int64(f.N))
}

// decodable media as reported by a source provider
type Source struct {
	Handle   string
	Length   PTS
	HasVideo bool
	HasAudio bool
}

// one slot of a track. Only the fields of the clip's Kind are meaningful:
// Source/Offset for media, FramesLeft/FramesRight/Params for transitions.
type Clip struct {
	ID   ClipID
	Kind ClipKind
	Interval
	Link     ClipID
	Selected bool

	Source Source
	Offset PTS // first source tick shown at Left

	FramesLeft  Frames
	FramesRight Frames
	Params      *transition.Parameters

	origin ClipID
}

func NewEmpty(length PTS) Clip {
	return Clip{Kind: KindEmpty, Interval: Interval{Length: length}}
}

// media clip showing source ticks [offset, offset+length)
func NewMedia(src Source, offset, length PTS) Clip {
	return Clip{
		Kind:     KindMedia,
		Interval: Interval{Length: length},
		Source:   src,
		Offset:   offset,
	}
}

// transition clip value for decoders; edits create transitions through
// Sequence.CreateTransition
func NewTransition(params *transition.Parameters, left, right Frames) Clip {
	return Clip{
		Kind:        KindTransition,
		Interval:    Interval{Length: left.Value() + right.Value()},
		FramesLeft:  left,
		FramesRight: right,
		Params:      params,
	}
}

func (c Clip) IsEmpty() bool { return c.Kind == KindEmpty }
func (c Clip) IsMedia() bool { return c.Kind == KindMedia }
func (c Clip) IsTransition() bool { return c.Kind == KindTransition }

// pts where the two clips around a transition used to meet
func (c Clip) TouchPosition() PTS {
	return c.Left + c.FramesLeft.Value()
}

// clip this one was derived from, zero for fresh clips
func (c Clip) Origin() ClipID {
	return c.origin
}

// independent copy that the edit engine will commit under a new id. The copy
// remembers where it came from so links and transitions can follow it.
func (c Clip) Derive() Clip {
	d := c
	d.ID = 0
	if c.ID != 0 {
		d.origin = c.ID
	}
	d.Params = c.Params.Clone()
	return d
}

// moves the left edge by delta, shrinking the clip for positive delta
func (c *Clip) AdjustBegin(delta PTS) {
	c.Left += delta
	c.Length -= delta
	switch c.Kind {
	case KindMedia:
		c.Offset += delta
	case KindTransition:
		c.FramesLeft.N -= delta
		if c.FramesLeft.N == 0 && c.FramesRight.Set {
			c.FramesLeft = Frames{}
		}
	}
}

// moves the right edge by delta, growing the clip for positive delta
func (c *Clip) AdjustEnd(delta PTS) {
	c.Length += delta
	if c.Kind == KindTransition {
		c.FramesRight.N += delta
		if c.FramesRight.N == 0 && c.FramesLeft.Set {
			c.FramesRight = Frames{}
		}
	}
}

// Bounds of this clip alone. Transitions also depend on their neighbors; use
// Track.Bounds for the complete picture.

func (c Clip) MinAdjustBegin() PTS {
	switch c.Kind {
	case KindMedia:
		return -c.Offset
	case KindTransition:
		if !c.FramesLeft.Set {
			return 0
		}
	}
	return MinPTS
}

func (c Clip) MaxAdjustBegin() PTS {
	if c.Kind == KindTransition {
		return c.FramesLeft.Value()
	}
	return c.Length
}

func (c Clip) MinAdjustEnd() PTS {
	if c.Kind == KindTransition {
		return -c.FramesRight.Value()
	}
	return -c.Length
}

func (c Clip) MaxAdjustEnd() PTS {
	switch c.Kind {
	case KindMedia:
		return c.Source.Length - c.Offset - c.Length
	case KindTransition:
		if !c.FramesRight.Set {
			return 0
		}
	}
	return MaxPTS
}

// meaningful handle positions: both edges, plus the touch position for
// transitions
func (c Clip) Cuts() []PTS {
	if c.Kind == KindTransition {
		return []PTS{c.Left, c.TouchPosition(), c.Right()}
	}
	return []PTS{c.Left, c.Right()}
}

// reports whether c starts exactly where old started in the same source
func (c Clip) keepsBeginOf(old Clip) bool {
	return c.origin == old.ID && c.Kind == old.Kind &&
		c.Source.Handle == old.Source.Handle && c.Offset == old.Offset
}

// reports whether c ends exactly where old ended in the same source
func (c Clip) keepsEndOf(old Clip) bool {
	return c.origin == old.ID && c.Kind == old.Kind &&
		c.Source.Handle == old.Source.Handle &&
		c.Offset+c.Length == old.Offset+old.Length
}

func (c Clip) String() string {
	switch c.Kind {
	case KindMedia:
		return fmt.Sprintf("media#%d[%d+%d %s@%d]", c.ID, c.Left, c.Length, c.Source.Handle, c.Offset)
	case KindTransition:
		kind := ""
		if c.Params != nil {
			kind = c.Params.Kind()
		}
		return fmt.Sprintf("transition#%d[%d+%d %s %s/%s]", c.ID, c.Left, c.Length, kind, c.FramesLeft, c.FramesRight)
	}
	return fmt.Sprintf("empty#%d[%d+%d]", c.ID, c.Left, c.Length)
}
