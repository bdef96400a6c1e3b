package history

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mgpai22/splice/internal/timeline"
)

func appendClip(ref timeline.TrackRef, length timeline.PTS) Command {
	src := timeline.Source{Handle: "clip", Length: 1000, HasVideo: true}
	return Func{Label: "append clip", Fn: func(seq *timeline.Sequence) (*timeline.Result, error) {
		return seq.Apply(timeline.Edit{Appends: []timeline.Append{{
			Track: ref,
			Clips: []timeline.Clip{timeline.NewMedia(src, 0, length)},
		}}})
	}}
}

func lengths(t *timeline.Track) []timeline.PTS {
	var out []timeline.PTS
	for _, c := range t.Clips() {
		out = append(out, c.Length)
	}
	return out
}

func TestUndoRedo(t *testing.T) {
	seq := timeline.NewSequence(nil)
	ref := seq.AddTrack(timeline.Video)
	track, _ := seq.Track(ref)
	h := New(seq, 0, nil)

	for _, n := range []timeline.PTS{10, 20, 30} {
		if _, err := h.Do(appendClip(ref, n)); err != nil {
			t.Fatalf("do failed: %v", err)
		}
	}

	steps := []struct {
		name string
		run  func() (string, error)
		want []timeline.PTS
	}{
		{name: "undo", run: h.Undo, want: []timeline.PTS{10, 20}},
		{name: "undo again", run: h.Undo, want: []timeline.PTS{10}},
		{name: "redo", run: h.Redo, want: []timeline.PTS{10, 20}},
	}
	for _, st := range steps {
		name, err := st.run()
		if err != nil {
			t.Fatalf("%s failed: %v", st.name, err)
		}
		if name != "append clip" {
			t.Errorf("%s: expected command name, got %q", st.name, name)
		}
		if diff := cmp.Diff(st.want, lengths(track)); diff != "" {
			t.Errorf("%s: lengths mismatch (-want +got):\n%s", st.name, diff)
		}
		if err := seq.Validate(); err != nil {
			t.Fatalf("%s: sequence is invalid: %v", st.name, err)
		}
	}

	if !h.CanRedo() {
		t.Fatal("expected one command to redo")
	}
	if _, err := h.Do(appendClip(ref, 5)); err != nil {
		t.Fatalf("do failed: %v", err)
	}
	if h.CanRedo() {
		t.Error("expected a new command to clear the redo stack")
	}
	if _, err := h.Redo(); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("expected ErrNothingToRedo, got %v", err)
	}
}

func TestMaxLevels(t *testing.T) {
	seq := timeline.NewSequence(nil)
	ref := seq.AddTrack(timeline.Video)
	h := New(seq, 2, nil)
	for _, n := range []timeline.PTS{10, 20, 30} {
		if _, err := h.Do(appendClip(ref, n)); err != nil {
			t.Fatalf("do failed: %v", err)
		}
	}
	if got := len(h.Names()); got != 2 {
		t.Fatalf("expected 2 undo levels, got %d", got)
	}
	for i := 0; i < 2; i++ {
		if _, err := h.Undo(); err != nil {
			t.Fatalf("undo failed: %v", err)
		}
	}
	if _, err := h.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("expected ErrNothingToUndo, got %v", err)
	}
	track, _ := seq.Track(ref)
	if diff := cmp.Diff([]timeline.PTS{10}, lengths(track)); diff != "" {
		t.Errorf("lengths mismatch (-want +got):\n%s", diff)
	}
}

func TestFailedAndEmptyCommands(t *testing.T) {
	seq := timeline.NewSequence(nil)
	ref := seq.AddTrack(timeline.Video)
	h := New(seq, 0, nil)

	failing := Func{Label: "trim", Fn: func(*timeline.Sequence) (*timeline.Result, error) {
		return nil, timeline.ErrClipNotFound
	}}
	if _, err := h.Do(failing); !errors.Is(err, timeline.ErrClipNotFound) {
		t.Errorf("expected the command error to be wrapped, got %v", err)
	}

	noop := Func{Label: "nothing", Fn: func(*timeline.Sequence) (*timeline.Result, error) {
		return &timeline.Result{}, nil
	}}
	if _, err := h.Do(appendClip(ref, 10)); err != nil {
		t.Fatalf("do failed: %v", err)
	}
	if _, err := h.Undo(); err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if _, err := h.Do(noop); err != nil {
		t.Fatalf("do failed: %v", err)
	}
	if h.CanUndo() || !h.CanRedo() {
		t.Errorf("expected an empty result to leave the history alone, undo=%v redo=%v", h.CanUndo(), h.CanRedo())
	}
}
