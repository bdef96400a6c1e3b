package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mgpai22/splice/internal/timeline"
)

func TestParseProbe(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    timeline.Source
		wantErr bool
	}{
		{
			name: "video with audio",
			raw:  `{"format":{"duration":"4.000000"},"streams":[{"codec_type":"video"},{"codec_type":"audio"}]}`,
			want: timeline.Source{Length: 100, HasVideo: true, HasAudio: true},
		},
		{
			name: "audio only rounds to the nearest tick",
			raw:  `{"format":{"duration":"1.019"},"streams":[{"codec_type":"audio"}]}`,
			want: timeline.Source{Length: 25, HasAudio: true},
		},
		{
			name: "stream duration fallback",
			raw:  `{"format":{},"streams":[{"codec_type":"video","duration":"2.0"},{"codec_type":"data"}]}`,
			want: timeline.Source{Length: 50, HasVideo: true},
		},
		{
			name:    "no streams",
			raw:     `{"format":{"duration":"3.0"},"streams":[{"codec_type":"subtitle"}]}`,
			wantErr: true,
		},
		{
			name:    "no duration",
			raw:     `{"format":{"duration":"N/A"},"streams":[{"codec_type":"video"}]}`,
			wantErr: true,
		},
		{
			name:    "not json",
			raw:     `ffprobe: error`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseProbe([]byte(tt.raw), 25)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseProbe() error = %v, wantErr %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); !tt.wantErr && diff != "" {
				t.Errorf("source mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestProberProbe(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(path, []byte("not really video"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	p := NewProber(30, "ffprobe", nil)
	var probed string
	p.run = func(_ context.Context, ffprobe, file string) ([]byte, error) {
		probed = file
		return []byte(`{"format":{"duration":"2.5"},"streams":[{"codec_type":"video"}]}`), nil
	}

	src, err := p.Probe(context.Background(), path)
	if err != nil {
		t.Fatalf("probe failed: %v", err)
	}
	want := timeline.Source{Handle: path, Length: 75, HasVideo: true}
	if diff := cmp.Diff(want, src); diff != "" {
		t.Errorf("source mismatch (-want +got):\n%s", diff)
	}
	if probed != path {
		t.Errorf("expected ffprobe to run on %s, got %s", path, probed)
	}

	if _, err := p.Probe(context.Background(), filepath.Join(dir, "missing.mp4")); err == nil {
		t.Error("expected an error for a missing file")
	}

	p.run = func(context.Context, string, string) ([]byte, error) {
		return nil, errors.New("exit status 1")
	}
	if _, err := p.Probe(context.Background(), path); err == nil {
		t.Error("expected ffprobe failures to surface")
	}
}

func TestStatic(t *testing.T) {
	s := Static{"a.mov": {Length: 10, HasVideo: true}}
	src, err := s.Probe(context.Background(), "a.mov")
	if err != nil {
		t.Fatalf("probe failed: %v", err)
	}
	if src.Handle != "a.mov" || src.Length != 10 {
		t.Errorf("unexpected source %+v", src)
	}
	if _, err := s.Probe(context.Background(), "b.mov"); err == nil {
		t.Error("expected an error for unknown media")
	}
}

func TestEnsure(t *testing.T) {
	env := map[string]string{}
	getenv := func(k string) string { return env[k] }
	found := map[string]string{"ffmpeg": "/usr/bin/ffmpeg", "ffprobe": "/usr/bin/ffprobe"}
	lookPath := func(name string) (string, error) {
		if p, ok := found[name]; ok {
			return p, nil
		}
		return "", errors.New("not found")
	}

	paths, err := ensure(getenv, lookPath)
	if err != nil {
		t.Fatalf("ensure failed: %v", err)
	}
	if paths.FFmpeg != "/usr/bin/ffmpeg" || paths.FFprobe != "/usr/bin/ffprobe" {
		t.Errorf("unexpected paths %+v", paths)
	}

	env["SPLICE_FFPROBE_PATH"] = "/opt/ffprobe"
	if paths, _ = ensure(getenv, lookPath); paths.FFprobe != "/opt/ffprobe" {
		t.Errorf("expected the environment to win, got %s", paths.FFprobe)
	}

	delete(found, "ffmpeg")
	if _, err := ensure(getenv, lookPath); err == nil {
		t.Error("expected an error without ffmpeg")
	}
}

func TestToPTS(t *testing.T) {
	if got := ToPTS(1.5, 24); got != 36 {
		t.Errorf("expected 36, got %d", got)
	}
	if got := Seconds(36, 24); got != 1.5 {
		t.Errorf("expected 1.5, got %g", got)
	}
}
