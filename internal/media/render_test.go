package media

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mgpai22/splice/internal/timeline"
)

func renderSequence(t *testing.T) *timeline.Sequence {
	t.Helper()
	s := timeline.NewSequence(nil)
	a := timeline.Source{Handle: "a.mp4", Length: 250, HasVideo: true, HasAudio: true}
	b := timeline.Source{Handle: "b.mp4", Length: 250, HasVideo: true, HasAudio: true}
	v := s.AddTrack(timeline.Video)
	au := s.AddTrack(timeline.Audio)
	edit := timeline.Edit{Appends: []timeline.Append{
		{Track: v, Clips: []timeline.Clip{timeline.NewMedia(a, 0, 200), timeline.NewMedia(b, 50, 200)}},
		{Track: au, Clips: []timeline.Clip{timeline.NewMedia(a, 0, 200), timeline.NewEmpty(20), timeline.NewMedia(b, 50, 200)}},
	}}
	if _, err := s.Apply(edit); err != nil {
		t.Fatalf("failed to build sequence: %v", err)
	}
	return s
}

func TestGraph(t *testing.T) {
	s := renderSequence(t)
	v, _ := s.Track(timeline.TrackRef{Kind: timeline.Video})
	if _, err := s.CreateTransition(v.Clip(0).ID, timeline.FramesOf(10), timeline.FramesOf(10), "wipe"); err != nil {
		t.Fatalf("failed to create transition: %v", err)
	}

	out, err := Graph(s, "out.mp4", DefaultRenderOptions(25))
	if err != nil {
		t.Fatalf("graph failed: %v", err)
	}
	args := strings.Join(out.GetArgs(), " ")
	for _, want := range []string{"a.mp4", "b.mp4", "xfade", "wipeleft", "concat", "anullsrc", "color=c=0x000000", "libx264", "out.mp4"} {
		if !strings.Contains(args, want) {
			t.Errorf("expected ffmpeg args to contain %q, got %s", want, args)
		}
	}
}

func TestGraphAudioOnly(t *testing.T) {
	s := renderSequence(t)
	opts := DefaultRenderOptions(25)
	opts.VideoTrack = -1

	out, err := Graph(s, "out.m4a", opts)
	if err != nil {
		t.Fatalf("graph failed: %v", err)
	}
	args := strings.Join(out.GetArgs(), " ")
	if strings.Contains(args, "libx264") {
		t.Errorf("expected no video encoder, got %s", args)
	}
	if !strings.Contains(args, "aac") {
		t.Errorf("expected an audio encoder, got %s", args)
	}
}

func TestGraphEmpty(t *testing.T) {
	s := timeline.NewSequence(nil)
	s.AddTrack(timeline.Video)
	if _, err := Graph(s, "out.mp4", DefaultRenderOptions(25)); !errors.Is(err, ErrNothingToRender) {
		t.Errorf("expected ErrNothingToRender, got %v", err)
	}

	full := renderSequence(t)
	opts := DefaultRenderOptions(25)
	opts.VideoTrack, opts.AudioTrack = -1, -1
	if _, err := Graph(full, "out.mp4", opts); !errors.Is(err, ErrNothingToRender) {
		t.Errorf("expected ErrNothingToRender without tracks, got %v", err)
	}
	opts.Rate = 0
	if _, err := Graph(full, "out.mp4", opts); err == nil {
		t.Error("expected an error for a zero rate")
	}
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	s := renderSequence(t)
	missing := filepath.Join(dir, "no-such-ffmpeg")
	out := filepath.Join(dir, "render", "out.mp4")

	t.Run("ffmpeg failure", func(t *testing.T) {
		err := NewRenderer(missing, nil).Export(context.Background(), s, out, DefaultRenderOptions(25))
		if err == nil || !strings.Contains(err.Error(), "ffmpeg export failed") {
			t.Errorf("expected an ffmpeg export failure, got %v", err)
		}
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := NewRenderer(missing, nil).Export(ctx, s, out, DefaultRenderOptions(25))
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
