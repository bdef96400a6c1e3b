package media

import (
	"context"
	"fmt"

	"github.com/mgpai22/splice/internal/timeline"
)

// in-memory provider for tests and scripted sessions
type Static map[string]timeline.Source

func (s Static) Probe(_ context.Context, handle string) (timeline.Source, error) {
	src, ok := s[handle]
	if !ok {
		return timeline.Source{}, fmt.Errorf("unknown media %q", handle)
	}
	src.Handle = handle
	return src, nil
}
