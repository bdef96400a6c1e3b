package project

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/mgpai22/splice/internal/timeline"
	"github.com/mgpai22/splice/internal/transition"
)

// v0: [a][E][wipe][b], a0: [a][E][b] with both a clips linked
func sampleSequence(t *testing.T) *timeline.Sequence {
	t.Helper()
	s := timeline.NewSequence(nil)
	v := s.AddTrack(timeline.Video)
	a := s.AddTrack(timeline.Audio)
	clip := timeline.Source{Handle: "a.mov", Length: 300, HasVideo: true, HasAudio: true}
	if _, err := s.AddSource(clip, v.Index, a.Index); err != nil {
		t.Fatalf("failed to add source: %v", err)
	}
	other := timeline.Source{Handle: "b.mov", Length: 300, HasVideo: true, HasAudio: true}
	_, err := s.Apply(timeline.Edit{Appends: []timeline.Append{
		{Track: v, Clips: []timeline.Clip{timeline.NewMedia(other, 40, 100)}},
		{Track: a, Clips: []timeline.Clip{timeline.NewEmpty(50), timeline.NewMedia(other, 0, 20)}},
	}})
	if err != nil {
		t.Fatalf("failed to append clips: %v", err)
	}
	vt, _ := s.Track(v)
	if _, _, err := s.Trim(vt.Clip(0).ID, timeline.End, -100, false); err != nil {
		t.Fatalf("failed to trim: %v", err)
	}
	if _, err := s.CreateTransition(vt.Clip(1).ID, timeline.Frames{}, timeline.FramesOf(10), "wipe"); err != nil {
		t.Fatalf("failed to create transition: %v", err)
	}
	if err := s.SetTransitionParam(vt.Clip(2).ID, "direction", transition.Enum("down")); err != nil {
		t.Fatalf("failed to set parameter: %v", err)
	}
	return s
}

type linkedClip struct {
	Span timeline.ClipSpan
	Link timeline.ClipID
}

func describe(s *timeline.Sequence) [][]linkedClip {
	var out [][]linkedClip
	snap := s.Snapshot()
	for ti, t := range s.AllTracks() {
		var row []linkedClip
		for i, c := range t.Clips() {
			row = append(row, linkedClip{Span: snap.Tracks[ti].Clips[i], Link: c.Link})
		}
		out = append(out, row)
	}
	return out
}

func TestRoundTrip(t *testing.T) {
	s := sampleSequence(t)
	meta := Meta{Name: "demo", FrameRate: 25}
	data, err := Encode(s, meta)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	got, gotMeta, err := Decode(data, transition.Builtin())
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if gotMeta.ID == uuid.Nil || gotMeta.Name != "demo" || gotMeta.FrameRate != 25 {
		t.Errorf("unexpected meta %+v", gotMeta)
	}
	if diff := cmp.Diff(describe(s), describe(got)); diff != "" {
		t.Errorf("sequence mismatch (-want +got):\n%s", diff)
	}

	vt, _ := got.Track(timeline.TrackRef{Kind: timeline.Video})
	tr := vt.Clip(2)
	if !tr.IsTransition() || tr.FramesLeft.Set || tr.FramesRight.Value() != 10 {
		t.Fatalf("expected an in-only transition, got %s", tr)
	}
	if v, _ := tr.Params.Get("direction"); v != transition.Enum("down") {
		t.Errorf("expected direction down, got %s", v)
	}
	if diff := cmp.Diff(map[string]transition.Value{"direction": transition.Enum("down")}, tr.Params.Overrides()); diff != "" {
		t.Errorf("overrides mismatch (-want +got):\n%s", diff)
	}

	// new clips must not collide with restored ids
	id := got.Reserve()
	for _, tk := range got.AllTracks() {
		if tk.IndexOf(id) >= 0 {
			t.Fatalf("reserved id %d is already in use", id)
		}
	}

	again, err := Encode(got, gotMeta)
	if err != nil {
		t.Fatalf("second encode failed: %v", err)
	}
	if string(again) != string(data) {
		t.Errorf("expected a stable encoding, got\n%s\nwant\n%s", again, data)
	}
}

func TestDecodeRejects(t *testing.T) {
	s := sampleSequence(t)
	doc, err := NewDocument(s, Meta{Name: "demo"})
	if err != nil {
		t.Fatalf("document failed: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(d *Document)
		is     error
	}{
		{name: "future version", mutate: func(d *Document) { d.Version = 2 }, is: ErrUnsupportedVersion},
		{name: "clip placed twice", mutate: func(d *Document) {
			d.Audio[0].Clips = append(d.Audio[0].Clips, d.Video[0].Clips[0])
		}},
		{name: "orphan clip", mutate: func(d *Document) {
			d.Video[0].Clips = d.Video[0].Clips[:len(d.Video[0].Clips)-1]
		}},
		{name: "moved clip", mutate: func(d *Document) { d.Clips[0].Left = 5 }},
		{name: "unknown source", mutate: func(d *Document) { d.Sources = nil }},
		{name: "unknown kind", mutate: func(d *Document) { d.Clips[0].Kind = "title" }},
		{name: "one-sided link", mutate: func(d *Document) {
			for i := range d.Clips {
				if d.Clips[i].Kind == "media" && d.Clips[i].Link == 0 {
					d.Clips[i].Link = d.Clips[0].ID
				}
			}
			d.Clips[0].Link = 0
		}, is: timeline.ErrInvariantViolation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(doc)
			if err != nil {
				t.Fatalf("marshal failed: %v", err)
			}
			var d Document
			if err := json.Unmarshal(data, &d); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}
			tt.mutate(&d)
			_, err = d.Sequence(nil)
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("expected %v, got %v", tt.is, err)
			}
		})
	}
}
