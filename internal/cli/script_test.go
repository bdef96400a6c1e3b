package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mgpai22/splice/internal/history"
	"github.com/mgpai22/splice/internal/media"
	"github.com/mgpai22/splice/internal/timeline"
)

func scriptSources() media.Static {
	return media.Static{
		"a.mov": {Handle: "a.mov", Length: 100, HasVideo: true, HasAudio: true},
		"b.mov": {Handle: "b.mov", Length: 80, HasVideo: true, HasAudio: true},
	}
}

func runTestScript(t *testing.T, seq *timeline.Sequence, script string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	h := history.New(seq, 0, nil)
	err := execScript(context.Background(), h, strings.NewReader(script), 25, scriptSources(), &out)
	return out.String(), err
}

func TestExecScript(t *testing.T) {
	seq := timeline.NewSequence(nil)
	script := `
# two linked pairs
import a.mov
import b.mov

trim 3 end -30
undo
redo
delete 1 ripple
`
	out, err := runTestScript(t, seq, script)
	if err != nil {
		t.Fatalf("script failed: %v", err)
	}

	want := []string{
		"import a.mov",
		"import b.mov",
		"trim end of clip 3",
		"undo: trim end of clip 3",
		"redo: trim end of clip 3",
		"ripple delete 1 clip(s)",
	}
	if diff := cmp.Diff(want, strings.Split(strings.TrimSpace(out), "\n")); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
	if got := seq.Length(); got != 50 {
		t.Errorf("expected length 50, got %d", got)
	}
	for _, track := range seq.AllTracks() {
		if track.Len() != 1 || track.Clip(0).Source.Handle != "b.mov" {
			t.Errorf("track %s: expected only the trimmed b.mov clip, got %v", track.Ref(), track.Clips())
		}
	}
	if err := seq.Validate(); err != nil {
		t.Errorf("sequence is invalid: %v", err)
	}
}

func TestExecScriptUndoRestoresLength(t *testing.T) {
	seq := timeline.NewSequence(nil)
	if _, err := runTestScript(t, seq, "import a.mov\nimport b.mov\ntrim 3 end -30\n"); err != nil {
		t.Fatalf("script failed: %v", err)
	}
	if got := seq.Length(); got != 150 {
		t.Fatalf("expected length 150 after the trim, got %d", got)
	}
	if _, err := runTestScript(t, seq, "trim 1 end -10 shift\nundo\n"); err != nil {
		t.Fatalf("script failed: %v", err)
	}
	if got := seq.Length(); got != 150 {
		t.Errorf("expected undo to restore length 150, got %d", got)
	}
}

func TestExecScriptErrors(t *testing.T) {
	tests := []struct {
		name   string
		script string
		line   string
		is     error
	}{
		{name: "unknown clip", script: "import a.mov\ntrim 99 end 5\n", line: "line 2", is: timeline.ErrClipNotFound},
		{name: "nothing to undo", script: "undo\n", line: "line 1", is: history.ErrNothingToUndo},
		{name: "nothing to redo", script: "import a.mov\nredo\n", line: "line 2", is: history.ErrNothingToRedo},
		{name: "unknown source", script: "\n\nimport c.mov\n", line: "line 3"},
		{name: "unknown command", script: "split 1 20\n", line: "line 1"},
		{name: "bad edge", script: "trim 1 middle 5\n", line: "line 1"},
		{name: "short move", script: "move 1 v0\n", line: "line 1"},
		{name: "transition on filler", script: "import a.mov\ntransition add 1\n", line: "line 2", is: timeline.ErrNotAdjacent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runTestScript(t, timeline.NewSequence(nil), tt.script)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.line) {
				t.Errorf("expected error to name %s, got %v", tt.line, err)
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("expected %v, got %v", tt.is, err)
			}
		})
	}
}

func TestParseStepTransition(t *testing.T) {
	st, err := parseStep(context.Background(), "transition add 4 10 none fade", 25, nil)
	if err != nil {
		t.Fatalf("parseStep failed: %v", err)
	}
	want := addTransitionOp{after: 4, left: timeline.FramesOf(10), kind: "fade"}
	if got, ok := st.cmd.(addTransitionOp); !ok || got != want {
		t.Errorf("parseStep = %#v, want %#v", st.cmd, want)
	}

	st, err = parseStep(context.Background(), "transition add 4", 25, nil)
	if err != nil {
		t.Fatalf("parseStep failed: %v", err)
	}
	want = addTransitionOp{after: 4, left: timeline.FramesOf(10), right: timeline.FramesOf(10), kind: "crossfade"}
	if got := st.cmd.(addTransitionOp); got != want {
		t.Errorf("parseStep = %#v, want %#v", got, want)
	}

	st, err = parseStep(context.Background(), "move 4 v1 2s shift with 5,6  # comment", 25, nil)
	if err != nil {
		t.Fatalf("parseStep failed: %v", err)
	}
	mv := st.cmd.(moveOp)
	if mv.at != 50 || !mv.shift || mv.snap || mv.to != (timeline.TrackRef{Kind: timeline.Video, Index: 1}) {
		t.Errorf("unexpected move %#v", mv)
	}
	if diff := cmp.Diff([]timeline.ClipID{5, 6}, mv.with); diff != "" {
		t.Errorf("with mismatch (-want +got):\n%s", diff)
	}

	if st, err := parseStep(context.Background(), "   # only a comment", 25, nil); err != nil || st != nil {
		t.Errorf("expected a comment to yield nothing, got %v, %v", st, err)
	}
}
