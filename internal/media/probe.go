package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"

	"github.com/mgpai22/splice/internal/logging"
	"github.com/mgpai22/splice/internal/timeline"
)

// JSON output from ffprobe
type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Duration  string `json:"duration"`
	} `json:"streams"`
}

// runs ffprobe and returns its JSON report
type runFunc func(ctx context.Context, ffprobe, path string) ([]byte, error)

// source provider backed by ffprobe. Lengths are converted to pts at Rate
// ticks per second.
type Prober struct {
	Rate int64

	ffprobe string
	run     runFunc
	log     *logging.Logger
}

func NewProber(rate int64, ffprobe string, log *logging.Logger) *Prober {
	return &Prober{Rate: rate, ffprobe: ffprobe, run: runFFprobe, log: logging.OrNop(log)}
}

func runFFprobe(ctx context.Context, ffprobe, path string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, ffprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}
	return out.Bytes(), nil
}

// reports the length and stream layout of the media file at handle
func (p *Prober) Probe(ctx context.Context, handle string) (timeline.Source, error) {
	if _, err := os.Stat(handle); os.IsNotExist(err) {
		return timeline.Source{}, fmt.Errorf("media file not found: %s", handle)
	}
	raw, err := p.run(ctx, p.ffprobe, handle)
	if err != nil {
		return timeline.Source{}, err
	}
	src, err := parseProbe(raw, p.Rate)
	if err != nil {
		return timeline.Source{}, fmt.Errorf("failed to probe %s: %w", handle, err)
	}
	src.Handle = handle
	p.log.Debugw("media probed", "handle", handle, "length", src.Length, "video", src.HasVideo, "audio", src.HasAudio)
	return src, nil
}

func parseProbe(raw []byte, rate int64) (timeline.Source, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(raw, &probe); err != nil {
		return timeline.Source{}, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	var src timeline.Source
	seconds := parseSeconds(probe.Format.Duration)
	for _, s := range probe.Streams {
		switch s.CodecType {
		case "video":
			src.HasVideo = true
		case "audio":
			src.HasAudio = true
		default:
			continue
		}
		// containers without a format duration still report it per stream
		if seconds <= 0 {
			seconds = max(seconds, parseSeconds(s.Duration))
		}
	}
	if !src.HasVideo && !src.HasAudio {
		return timeline.Source{}, fmt.Errorf("no audio or video streams")
	}
	if seconds <= 0 {
		return timeline.Source{}, fmt.Errorf("unknown duration")
	}
	src.Length = ToPTS(seconds, rate)
	return src, nil
}

func parseSeconds(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0
	}
	return f
}

// nearest tick of a time in seconds
func ToPTS(seconds float64, rate int64) timeline.PTS {
	return timeline.PTS(math.Round(seconds * float64(rate)))
}

func Seconds(p timeline.PTS, rate int64) float64 {
	return float64(p) / float64(rate)
}
