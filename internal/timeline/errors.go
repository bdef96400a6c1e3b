package timeline

import (
	"errors"
	"fmt"
)

var (
	// programmer error or impossible precondition, the edit is aborted
	ErrInvariantViolation = errors.New("invariant violation")

	// adjust request outside the clip bounds, engines clamp instead of failing
	ErrBoundsExceeded = errors.New("adjustment out of bounds")

	// linked tracks would end up with unequal lengths and nothing can compensate
	ErrLinkDesync = errors.New("linked tracks out of sync")

	ErrClipNotFound         = errors.New("clip not found")
	ErrTrackNotFound        = errors.New("track not found")
	ErrNotAdjacent          = errors.New("clips are not adjacent")
	ErrTransitionDoesNotFit = errors.New("transition does not fit")
	ErrInvalidEdit          = errors.New("invalid edit")
	ErrInvalidState         = errors.New("invalid state")
)

// returned when an edit targets tracks that do not exist yet. The sequence
// owner adds Count tracks of Kind and retries.
type NeedTracksError struct {
	Kind  TrackKind
	Count int
}

func (e *NeedTracksError) Error() string {
	return fmt.Sprintf("%d more %s track(s) required", e.Count, e.Kind)
}

func invariantf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariantViolation, fmt.Sprintf(format, args...))
}
