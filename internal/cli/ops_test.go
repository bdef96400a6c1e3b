package cli

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mgpai22/splice/internal/history"
	"github.com/mgpai22/splice/internal/timeline"
)

func TestParseTrackRef(t *testing.T) {
	tests := []struct {
		in      string
		want    timeline.TrackRef
		wantErr bool
	}{
		{in: "v0", want: timeline.TrackRef{Kind: timeline.Video, Index: 0}},
		{in: "V2", want: timeline.TrackRef{Kind: timeline.Video, Index: 2}},
		{in: "a1", want: timeline.TrackRef{Kind: timeline.Audio, Index: 1}},
		{in: "video:3", want: timeline.TrackRef{Kind: timeline.Video, Index: 3}},
		{in: " audio:0 ", want: timeline.TrackRef{Kind: timeline.Audio, Index: 0}},
		{in: "x1", wantErr: true},
		{in: "v", wantErr: true},
		{in: "a-1", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseTrackRef(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseTrackRef(%q) = %v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseTrackRef(%q) failed: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("parseTrackRef(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParsePTS(t *testing.T) {
	tests := []struct {
		in      string
		want    timeline.PTS
		wantErr bool
	}{
		{in: "120", want: 120},
		{in: "-25", want: -25},
		{in: "2s", want: 50},
		{in: "1.5s", want: 38},
		{in: "-0.2s", want: -5},
		{in: "abc", wantErr: true},
		{in: "s", wantErr: true},
		{in: "NaNs", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parsePTS(tt.in, 25)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parsePTS(%q) = %d, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parsePTS(%q) failed: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("parsePTS(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseFrames(t *testing.T) {
	tests := []struct {
		in      string
		want    timeline.Frames
		wantErr bool
	}{
		{in: "10", want: timeline.FramesOf(10)},
		{in: "1s", want: timeline.FramesOf(25)},
		{in: "none", want: timeline.Frames{}},
		{in: "-", want: timeline.Frames{}},
		{in: "0", wantErr: true},
		{in: "-4", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseFrames(tt.in, 25)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseFrames(%q) = %v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseFrames(%q) failed: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("parseFrames(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseEdgeAndIDs(t *testing.T) {
	for in, want := range map[string]timeline.Edge{"begin": timeline.Begin, "IN": timeline.Begin, "end": timeline.End, "out": timeline.End} {
		got, err := parseEdge(in)
		if err != nil || got != want {
			t.Errorf("parseEdge(%q) = %v, %v, want %v", in, got, err, want)
		}
	}
	if _, err := parseEdge("middle"); err == nil {
		t.Error("expected an error for an unknown edge")
	}

	ids, err := parseClipIDs("4,#5", "7", "")
	if err != nil {
		t.Fatalf("parseClipIDs failed: %v", err)
	}
	if diff := cmp.Diff([]timeline.ClipID{4, 5, 7}, ids); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
	for _, bad := range []string{"0", "x", "-3"} {
		if _, err := parseClipIDs(bad); err == nil {
			t.Errorf("parseClipIDs(%q): expected an error", bad)
		}
	}
}

func TestSplitLength(t *testing.T) {
	tests := []struct {
		length      int64
		left, right timeline.Frames
	}{
		{length: 20, left: timeline.FramesOf(10), right: timeline.FramesOf(10)},
		{length: 7, left: timeline.FramesOf(3), right: timeline.FramesOf(4)},
		{length: 1, left: timeline.Frames{}, right: timeline.FramesOf(1)},
	}
	for _, tt := range tests {
		left, right := splitLength(tt.length)
		if left != tt.left || right != tt.right {
			t.Errorf("splitLength(%d) = %v/%v, want %v/%v", tt.length, left, right, tt.left, tt.right)
		}
	}
}

func TestMoveOpAddsMissingTrack(t *testing.T) {
	seq := timeline.NewSequence(nil)
	ref := seq.AddTrack(timeline.Video)
	src := timeline.Source{Handle: "a.mov", Length: 500, HasVideo: true}
	if _, err := seq.Apply(timeline.Edit{Appends: []timeline.Append{{Track: ref, Clips: []timeline.Clip{
		timeline.NewMedia(src, 0, 50),
		timeline.NewMedia(src, 100, 50),
	}}}}); err != nil {
		t.Fatalf("failed to build sequence: %v", err)
	}
	v0, _ := seq.Track(ref)
	moved := v0.Clip(1)

	op := moveOp{clip: moved.ID, to: timeline.TrackRef{Kind: timeline.Video, Index: 1}, at: 0, trackHeight: 40}
	res, err := op.Apply(seq)
	if err != nil {
		t.Fatalf("move failed: %v", err)
	}
	if res.Empty() {
		t.Fatal("expected the move to change the sequence")
	}
	if n := len(seq.Tracks(timeline.Video)); n != 2 {
		t.Fatalf("expected a second video track, got %d tracks", n)
	}
	v1 := seq.Tracks(timeline.Video)[1]
	if v1.Len() != 1 {
		t.Fatalf("expected one clip on the new track, got %d", v1.Len())
	}
	got := v1.Clip(0)
	if got.Left != 0 || got.Length != 50 || got.Offset != 100 {
		t.Errorf("unexpected moved clip %s", got)
	}
	if v0.Length() != 50 {
		t.Errorf("expected the source track to end at 50, got %d", v0.Length())
	}
}

func TestMoveOpUndoRemovesAddedTrack(t *testing.T) {
	seq := timeline.NewSequence(nil)
	ref := seq.AddTrack(timeline.Video)
	src := timeline.Source{Handle: "a.mov", Length: 500, HasVideo: true}
	if _, err := seq.Apply(timeline.Edit{Appends: []timeline.Append{{Track: ref, Clips: []timeline.Clip{
		timeline.NewMedia(src, 0, 50),
		timeline.NewMedia(src, 100, 50),
	}}}}); err != nil {
		t.Fatalf("failed to build sequence: %v", err)
	}
	v0, _ := seq.Track(ref)
	moved := v0.Clip(1).ID
	h := history.New(seq, 0, nil)

	op := moveOp{clip: moved, to: timeline.TrackRef{Kind: timeline.Video, Index: 1}, trackHeight: 40}
	res, err := h.Do(op)
	if err != nil {
		t.Fatalf("move failed: %v", err)
	}
	want := []timeline.TrackRef{{Kind: timeline.Video, Index: 1}}
	if diff := cmp.Diff(want, res.AddedTracks); diff != "" {
		t.Errorf("added tracks mismatch (-want +got):\n%s", diff)
	}

	if _, err := h.Undo(); err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if n := len(seq.Tracks(timeline.Video)); n != 1 {
		t.Fatalf("expected undo to remove the added track, got %d video tracks", n)
	}
	if _, got, _, err := seq.Lookup(moved); err != nil || got != ref {
		t.Errorf("expected clip %d back on %s, got %s (%v)", moved, ref, got, err)
	}
	if err := seq.Validate(); err != nil {
		t.Fatalf("sequence is invalid after undo: %v", err)
	}

	if _, err := h.Redo(); err != nil {
		t.Fatalf("redo failed: %v", err)
	}
	tracks := seq.Tracks(timeline.Video)
	if len(tracks) != 2 || tracks[1].Len() != 1 || tracks[1].Clip(0).Offset != 100 {
		t.Fatalf("expected redo to recreate the track holding the moved clip")
	}
	if err := seq.Validate(); err != nil {
		t.Errorf("sequence is invalid after redo: %v", err)
	}
}

func TestMoveOpRejectsKindChange(t *testing.T) {
	seq := timeline.NewSequence(nil)
	ref := seq.AddTrack(timeline.Video)
	if _, err := seq.Apply(timeline.Edit{Appends: []timeline.Append{{Track: ref, Clips: []timeline.Clip{
		timeline.NewMedia(timeline.Source{Handle: "a.mov", Length: 100, HasVideo: true}, 0, 100),
	}}}}); err != nil {
		t.Fatalf("failed to build sequence: %v", err)
	}
	v0, _ := seq.Track(ref)

	op := moveOp{clip: v0.Clip(0).ID, to: timeline.TrackRef{Kind: timeline.Audio, Index: 0}, trackHeight: 40}
	if _, err := op.Apply(seq); !errors.Is(err, timeline.ErrInvalidEdit) {
		t.Errorf("expected ErrInvalidEdit, got %v", err)
	}
}
