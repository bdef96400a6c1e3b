package timeline

import "math"

// timeline tick count
type PTS int64

// stand-ins for unbounded adjustments, far enough from the int64 limits that
// adding a clip length cannot overflow
const (
	MinPTS PTS = math.MinInt64 / 4
	MaxPTS PTS = math.MaxInt64 / 4
)

// half-open range [Left, Left+Length)
type Interval struct {
	Left   PTS
	Length PTS
}

func (iv Interval) Right() PTS {
	return iv.Left + iv.Length
}

func (iv Interval) Contains(p PTS) bool {
	return p >= iv.Left && p < iv.Right()
}

func (iv Interval) Overlaps(o Interval) bool {
	return iv.Left < o.Right() && o.Left < iv.Right()
}

// overlapping part of both intervals
func (iv Interval) Intersect(o Interval) (Interval, bool) {
	left := max(iv.Left, o.Left)
	right := min(iv.Right(), o.Right())
	if right <= left {
		return Interval{}, false
	}
	return Interval{Left: left, Length: right - left}, true
}
