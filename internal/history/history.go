package history

import (
	"errors"
	"fmt"

	"github.com/mgpai22/splice/internal/logging"
	"github.com/mgpai22/splice/internal/timeline"
)

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// a user-level edit of a sequence. Apply returns the undo token of the
// committed change.
type Command interface {
	Name() string
	Apply(seq *timeline.Sequence) (*timeline.Result, error)
}

// adapts a plain function to Command
type Func struct {
	Label string
	Fn    func(seq *timeline.Sequence) (*timeline.Result, error)
}

func (f Func) Name() string { return f.Label }

func (f Func) Apply(seq *timeline.Sequence) (*timeline.Result, error) {
	return f.Fn(seq)
}

type entry struct {
	name   string
	result *timeline.Result
}

// linear undo/redo stack over the results of committed edits
type History struct {
	seq    *timeline.Sequence
	max    int
	done   []entry
	undone []entry
	log    *logging.Logger
}

// keeps at most maxLevels undo steps, unlimited when maxLevels <= 0
func New(seq *timeline.Sequence, maxLevels int, log *logging.Logger) *History {
	return &History{seq: seq, max: maxLevels, log: logging.OrNop(log)}
}

// runs cmd and records it. Commands that change nothing are not recorded
// and keep the redo stack.
func (h *History) Do(cmd Command) (*timeline.Result, error) {
	res, err := cmd.Apply(h.seq)
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", cmd.Name(), err)
	}
	if res.Empty() {
		return res, nil
	}
	h.done = append(h.done, entry{name: cmd.Name(), result: res})
	if h.max > 0 && len(h.done) > h.max {
		h.done = h.done[len(h.done)-h.max:]
	}
	h.undone = nil
	h.log.Debugw("command recorded", "command", cmd.Name(), "depth", len(h.done))
	return res, nil
}

// reverts the last recorded command and returns its name
func (h *History) Undo() (string, error) {
	if len(h.done) == 0 {
		return "", ErrNothingToUndo
	}
	e := h.done[len(h.done)-1]
	if err := h.seq.Undo(e.result); err != nil {
		return "", fmt.Errorf("failed to undo %s: %w", e.name, err)
	}
	h.done = h.done[:len(h.done)-1]
	h.undone = append(h.undone, e)
	return e.name, nil
}

// re-applies the last undone command and returns its name
func (h *History) Redo() (string, error) {
	if len(h.undone) == 0 {
		return "", ErrNothingToRedo
	}
	e := h.undone[len(h.undone)-1]
	if err := h.seq.Redo(e.result); err != nil {
		return "", fmt.Errorf("failed to redo %s: %w", e.name, err)
	}
	h.undone = h.undone[:len(h.undone)-1]
	h.done = append(h.done, e)
	return e.name, nil
}

func (h *History) CanUndo() bool { return len(h.done) > 0 }
func (h *History) CanRedo() bool { return len(h.undone) > 0 }

// names of the undoable commands, oldest first
func (h *History) Names() []string {
	names := make([]string, 0, len(h.done))
	for _, e := range h.done {
		names = append(names, e.name)
	}
	return names
}
