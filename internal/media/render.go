package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/mgpai22/splice/internal/logging"
	"github.com/mgpai22/splice/internal/timeline"
	"github.com/mgpai22/splice/internal/transition"
)

var ErrNothingToRender = errors.New("nothing to render")

// holds options for exporting a sequence
type RenderOptions struct {
	Rate       int64 // pts per second, also the output frame rate
	Width      int
	Height     int
	SampleRate int
	VideoTrack int // index of the video track to render, -1 for none
	AudioTrack int // index of the audio track to render, -1 for none
}

// returns sensible defaults for export
func DefaultRenderOptions(rate int64) RenderOptions {
	return RenderOptions{
		Rate:       rate,
		Width:      1280,
		Height:     720,
		SampleRate: 48000,
	}
}

// flattens one video and one audio track of a sequence into a file with
// ffmpeg. Filler renders as black frames and silence.
type Renderer struct {
	ffmpeg string
	log    *logging.Logger
}

func NewRenderer(ffmpegPath string, log *logging.Logger) *Renderer {
	return &Renderer{ffmpeg: ffmpegPath, log: logging.OrNop(log)}
}

func (r *Renderer) Export(ctx context.Context, seq *timeline.Sequence, outputPath string, opts RenderOptions) error {
	outputDir := filepath.Dir(outputPath)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	out, err := Graph(seq, outputPath, opts)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	out = out.OverWriteOutput().SetFfmpegPath(r.ffmpeg)
	r.log.Debugw("running ffmpeg", "path", r.ffmpeg, "args", out.GetArgs())

	var stderr bytes.Buffer
	if err := out.WithErrorOutput(&stderr).Run(); err != nil {
		return fmt.Errorf("ffmpeg export failed: %w: %s", err, lastLine(stderr.Bytes()))
	}
	r.log.Infow("sequence exported", "output", outputPath, "length", seq.Length())
	return nil
}

// builds the ffmpeg graph rendering seq to outputPath
func Graph(seq *timeline.Sequence, outputPath string, opts RenderOptions) (*ffmpeg.Stream, error) {
	if opts.Rate <= 0 {
		return nil, fmt.Errorf("invalid render rate %d", opts.Rate)
	}
	g := graph{seq: seq, opts: opts, length: seq.Length()}
	if g.length == 0 {
		return nil, fmt.Errorf("%w: sequence is empty", ErrNothingToRender)
	}

	var streams []*ffmpeg.Stream
	kwargs := ffmpeg.KwArgs{}
	if t := g.track(timeline.Video, opts.VideoTrack); t != nil {
		v, err := g.videoTrack(t)
		if err != nil {
			return nil, err
		}
		streams = append(streams, v)
		kwargs["c:v"] = "libx264"
		kwargs["pix_fmt"] = "yuv420p"
	}
	if t := g.track(timeline.Audio, opts.AudioTrack); t != nil {
		a, err := g.audioTrack(t)
		if err != nil {
			return nil, err
		}
		streams = append(streams, a)
		kwargs["c:a"] = "aac"
	}
	if len(streams) == 0 {
		return nil, fmt.Errorf("%w: no track selected", ErrNothingToRender)
	}
	return ffmpeg.Output(streams, outputPath, kwargs), nil
}

type graph struct {
	seq    *timeline.Sequence
	opts   RenderOptions
	length timeline.PTS
}

func (g *graph) track(kind timeline.TrackKind, index int) *timeline.Track {
	if index < 0 {
		return nil
	}
	t, err := g.seq.Track(timeline.TrackRef{Kind: kind, Index: index})
	if err != nil {
		return nil
	}
	return t
}

func (g *graph) seconds(p timeline.PTS) string {
	return strconv.FormatFloat(Seconds(p, g.opts.Rate), 'f', -1, 64)
}

func (g *graph) videoTrack(t *timeline.Track) (*ffmpeg.Stream, error) {
	var segments []*ffmpeg.Stream
	for _, c := range t.Clips() {
		switch c.Kind {
		case timeline.KindEmpty:
			segments = append(segments, g.solid(color.RGBA{A: 0xff}, c.Length))
		case timeline.KindMedia:
			segments = append(segments, g.videoClip(c))
		case timeline.KindTransition:
			seg, err := g.videoTransition(c)
			if err != nil {
				return nil, err
			}
			segments = append(segments, seg)
		}
	}
	if pad := g.length - t.Length(); pad > 0 {
		segments = append(segments, g.solid(color.RGBA{A: 0xff}, pad))
	}
	return ffmpeg.Concat(segments, ffmpeg.KwArgs{"v": 1, "a": 0}), nil
}

func (g *graph) audioTrack(t *timeline.Track) (*ffmpeg.Stream, error) {
	var segments []*ffmpeg.Stream
	for _, c := range t.Clips() {
		switch c.Kind {
		case timeline.KindEmpty:
			segments = append(segments, g.silence(c.Length))
		case timeline.KindMedia:
			segments = append(segments, g.audioClip(c))
		case timeline.KindTransition:
			seg, err := g.audioTransition(c)
			if err != nil {
				return nil, err
			}
			segments = append(segments, seg)
		}
	}
	if pad := g.length - t.Length(); pad > 0 {
		segments = append(segments, g.silence(pad))
	}
	return ffmpeg.Concat(segments, ffmpeg.KwArgs{"v": 0, "a": 1}), nil
}

// brings every video segment to the same geometry and rate so they concat
func (g *graph) conform(s *ffmpeg.Stream) *ffmpeg.Stream {
	return s.
		Filter("scale", ffmpeg.Args{fmt.Sprintf("%d:%d", g.opts.Width, g.opts.Height)}).
		Filter("setsar", ffmpeg.Args{"1"}).
		Filter("fps", ffmpeg.Args{strconv.FormatInt(g.opts.Rate, 10)}).
		Filter("format", ffmpeg.Args{"yuv420p"})
}

func (g *graph) input(c timeline.Clip) *ffmpeg.Stream {
	return ffmpeg.Input(c.Source.Handle, ffmpeg.KwArgs{
		"ss": g.seconds(c.Offset),
		"t":  g.seconds(c.Length),
	})
}

func (g *graph) videoClip(c timeline.Clip) *ffmpeg.Stream {
	if !c.Source.HasVideo {
		return g.solid(color.RGBA{A: 0xff}, c.Length)
	}
	return g.conform(g.input(c).Video())
}

func (g *graph) audioClip(c timeline.Clip) *ffmpeg.Stream {
	if !c.Source.HasAudio {
		return g.silence(c.Length)
	}
	return g.input(c).Audio().Filter("aformat", ffmpeg.Args{},
		ffmpeg.KwArgs{"sample_rates": g.opts.SampleRate, "channel_layouts": "stereo"})
}

func (g *graph) solid(c color.RGBA, length timeline.PTS) *ffmpeg.Stream {
	src := fmt.Sprintf("color=c=0x%02x%02x%02x:s=%dx%d:r=%d:d=%s",
		c.R, c.G, c.B, g.opts.Width, g.opts.Height, g.opts.Rate, g.seconds(length))
	return g.conform(ffmpeg.Input(src, ffmpeg.KwArgs{"f": "lavfi"}))
}

func (g *graph) silence(length timeline.PTS) *ffmpeg.Stream {
	src := fmt.Sprintf("anullsrc=r=%d:cl=stereo", g.opts.SampleRate)
	return ffmpeg.Input(src, ffmpeg.KwArgs{"f": "lavfi", "t": g.seconds(length)})
}

// both sides of a transition re-windowed onto its interval. A missing side
// is nil.
func (g *graph) sides(t timeline.Clip) (left, right *timeline.Clip, err error) {
	if t.FramesLeft.Set {
		c, err := g.seq.LeftClip(t.ID)
		if err != nil {
			return nil, nil, err
		}
		left = &c
	}
	if t.FramesRight.Set {
		c, err := g.seq.RightClip(t.ID)
		if err != nil {
			return nil, nil, err
		}
		right = &c
	}
	return left, right, nil
}

func (g *graph) videoTransition(t timeline.Clip) (*ffmpeg.Stream, error) {
	left, right, err := g.sides(t)
	if err != nil {
		return nil, fmt.Errorf("failed to render transition %d: %w", t.ID, err)
	}
	fill := g.fillColor(t.Params)
	from, to := g.solid(fill, t.Length), g.solid(fill, t.Length)
	if left != nil {
		from = g.videoClip(*left)
	}
	if right != nil {
		to = g.videoClip(*right)
	}
	return ffmpeg.Filter([]*ffmpeg.Stream{from, to}, "xfade", ffmpeg.Args{}, ffmpeg.KwArgs{
		"transition": xfadeName(t.Params),
		"duration":   g.seconds(t.Length),
		"offset":     0,
	}), nil
}

func (g *graph) audioTransition(t timeline.Clip) (*ffmpeg.Stream, error) {
	left, right, err := g.sides(t)
	if err != nil {
		return nil, fmt.Errorf("failed to render transition %d: %w", t.ID, err)
	}
	d := g.seconds(t.Length)
	switch {
	case left != nil && right != nil:
		return ffmpeg.Filter([]*ffmpeg.Stream{g.audioClip(*left), g.audioClip(*right)}, "acrossfade",
			ffmpeg.Args{}, ffmpeg.KwArgs{"d": d}), nil
	case left != nil:
		return g.audioClip(*left).Filter("afade", ffmpeg.Args{}, ffmpeg.KwArgs{"t": "out", "st": 0, "d": d}), nil
	default:
		return g.audioClip(*right).Filter("afade", ffmpeg.Args{}, ffmpeg.KwArgs{"t": "in", "st": 0, "d": d}), nil
	}
}

func (g *graph) fillColor(p *transition.Parameters) color.RGBA {
	if p != nil {
		if v, ok := p.Get("color"); ok && v.Kind == transition.KindColor {
			return v.Color
		}
	}
	return color.RGBA{A: 0xff}
}

// closest xfade effect for a transition look
func xfadeName(p *transition.Parameters) string {
	if p == nil {
		return "fade"
	}
	switch p.Kind() {
	case "wipe":
		if v, ok := p.Get("direction"); ok {
			return "wipe" + v.Enum
		}
	case "crossfade":
		if v, ok := p.Get("curve"); ok && v.Enum == "smooth" {
			return "dissolve"
		}
	}
	return "fade"
}

func lastLine(b []byte) string {
	end := len(b)
	for end > 0 && (b[end-1] == '\n' || b[end-1] == '\r') {
		end--
	}
	start := end
	for start > 0 && b[start-1] != '\n' {
		start--
	}
	return string(b[start:end])
}
