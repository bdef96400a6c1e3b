package drag

import (
	"math"

	"github.com/mgpai22/splice/internal/timeline"
)

// pointer position in view pixels
type Position struct {
	X, Y int
}

// maps view pixels onto timeline time and tracks
type Layout interface {
	PTS(x int) timeline.PTS
	Pixels(p timeline.PTS) int
	// track under y. Rows past the existing tracks yield indices that do not
	// exist yet.
	TrackAt(y int) timeline.TrackRef
}

// fixed-height rows: video tracks on top with the highest index first,
// audio tracks below them
type Grid struct {
	Scale       float64 // pixels per pts tick
	TrackHeight int
	Video       int // video track count
}

func (g Grid) PTS(x int) timeline.PTS {
	return timeline.PTS(math.Round(float64(x) / g.Scale))
}

func (g Grid) Pixels(p timeline.PTS) int {
	return int(math.Round(float64(p) * g.Scale))
}

func (g Grid) TrackAt(y int) timeline.TrackRef {
	row := int(math.Floor(float64(y) / float64(g.TrackHeight)))
	if row < g.Video {
		return timeline.TrackRef{Kind: timeline.Video, Index: g.Video - 1 - row}
	}
	return timeline.TrackRef{Kind: timeline.Audio, Index: row - g.Video}
}

// pointer position in the middle of the row of ref, at p
func (g Grid) Position(ref timeline.TrackRef, p timeline.PTS) Position {
	row := ref.Index + g.Video
	if ref.Kind == timeline.Video {
		row = g.Video - 1 - ref.Index
	}
	return Position{X: g.Pixels(p), Y: row*g.TrackHeight + g.TrackHeight/2}
}
