package project

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mgpai22/splice/internal/timeline"
	"github.com/mgpai22/splice/internal/transition"
)

const Version = 1

var ErrUnsupportedVersion = errors.New("unsupported project version")

// identity of a stored project
type Meta struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	FrameRate int64     `json:"frame_rate"`
}

// persisted form of a sequence
type Document struct {
	Version int `json:"version"`
	Meta
	Sources []SourceDoc `json:"sources,omitempty"`
	Clips   []ClipDoc   `json:"clips"`
	Video   []TrackDoc  `json:"video"`
	Audio   []TrackDoc  `json:"audio"`
}

type SourceDoc struct {
	Handle   string       `json:"handle"`
	Length   timeline.PTS `json:"length"`
	HasVideo bool         `json:"has_video"`
	HasAudio bool         `json:"has_audio"`
}

// ordered clip ids of one track
type TrackDoc struct {
	Clips []timeline.ClipID `json:"clips"`
}

type ClipDoc struct {
	ID       timeline.ClipID `json:"id"`
	Kind     string          `json:"kind"`
	Left     timeline.PTS    `json:"left"`
	Length   timeline.PTS    `json:"length"`
	Link     timeline.ClipID `json:"link,omitempty"`
	Selected bool            `json:"selected,omitempty"`

	Source string       `json:"source,omitempty"`
	Offset timeline.PTS `json:"offset,omitempty"`

	Transition  string              `json:"transition,omitempty"`
	FramesLeft  *timeline.PTS       `json:"frames_left,omitempty"`
	FramesRight *timeline.PTS       `json:"frames_right,omitempty"`
	Params      map[string]ParamDoc `json:"params,omitempty"`
}

type ParamDoc struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// serializes seq. A zero meta.ID is replaced by a fresh uuid.
func Encode(seq *timeline.Sequence, meta Meta) ([]byte, error) {
	doc, err := NewDocument(seq, meta)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode project: %w", err)
	}
	return data, nil
}

func NewDocument(seq *timeline.Sequence, meta Meta) (*Document, error) {
	if meta.ID == uuid.Nil {
		meta.ID = uuid.New()
	}
	doc := &Document{Version: Version, Meta: meta, Clips: []ClipDoc{}, Video: []TrackDoc{}, Audio: []TrackDoc{}}
	sources := make(map[string]bool)
	for _, t := range seq.AllTracks() {
		var td TrackDoc
		for _, c := range t.Clips() {
			cd, err := encodeClip(c)
			if err != nil {
				return nil, err
			}
			doc.Clips = append(doc.Clips, cd)
			td.Clips = append(td.Clips, c.ID)
			if c.IsMedia() && !sources[c.Source.Handle] {
				sources[c.Source.Handle] = true
				doc.Sources = append(doc.Sources, SourceDoc{
					Handle:   c.Source.Handle,
					Length:   c.Source.Length,
					HasVideo: c.Source.HasVideo,
					HasAudio: c.Source.HasAudio,
				})
			}
		}
		if t.Kind() == timeline.Video {
			doc.Video = append(doc.Video, td)
		} else {
			doc.Audio = append(doc.Audio, td)
		}
	}
	return doc, nil
}

func encodeClip(c timeline.Clip) (ClipDoc, error) {
	cd := ClipDoc{
		ID:       c.ID,
		Kind:     c.Kind.String(),
		Left:     c.Left,
		Length:   c.Length,
		Link:     c.Link,
		Selected: c.Selected,
	}
	switch c.Kind {
	case timeline.KindMedia:
		cd.Source = c.Source.Handle
		cd.Offset = c.Offset
	case timeline.KindTransition:
		if c.Params == nil {
			return ClipDoc{}, fmt.Errorf("transition %d has no parameters", c.ID)
		}
		cd.Transition = c.Params.Kind()
		cd.FramesLeft = framesPtr(c.FramesLeft)
		cd.FramesRight = framesPtr(c.FramesRight)
		cd.Params = make(map[string]ParamDoc)
		for _, name := range c.Params.Names() {
			v, _ := c.Params.Get(name)
			cd.Params[name] = ParamDoc{Kind: v.Kind.String(), Value: v.String()}
		}
	}
	return cd, nil
}

func framesPtr(f timeline.Frames) *timeline.PTS {
	if !f.Set {
		return nil
	}
	n := f.N
	return &n
}

// rebuilds the sequence stored in data
func Decode(data []byte, registry *transition.Registry, opts ...timeline.Option) (*timeline.Sequence, Meta, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, Meta{}, fmt.Errorf("failed to parse project: %w", err)
	}
	seq, err := doc.Sequence(registry, opts...)
	if err != nil {
		return nil, Meta{}, err
	}
	return seq, doc.Meta, nil
}

// rebuilds the sequence the document describes
func (d *Document) Sequence(registry *transition.Registry, opts ...timeline.Option) (*timeline.Sequence, error) {
	if d.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, d.Version)
	}
	if registry == nil {
		registry = transition.Builtin()
	}

	sources := make(map[string]timeline.Source, len(d.Sources))
	for _, s := range d.Sources {
		sources[s.Handle] = timeline.Source{Handle: s.Handle, Length: s.Length, HasVideo: s.HasVideo, HasAudio: s.HasAudio}
	}
	clips := make(map[timeline.ClipID]timeline.Clip, len(d.Clips))
	for _, cd := range d.Clips {
		if _, dup := clips[cd.ID]; dup || cd.ID == 0 {
			return nil, fmt.Errorf("invalid project: bad clip id %d", cd.ID)
		}
		c, err := decodeClip(cd, sources, registry)
		if err != nil {
			return nil, fmt.Errorf("invalid project: clip %d: %w", cd.ID, err)
		}
		clips[cd.ID] = c
	}

	used := make(map[timeline.ClipID]bool, len(clips))
	tracks := func(docs []TrackDoc) ([][]timeline.Clip, error) {
		out := make([][]timeline.Clip, 0, len(docs))
		for _, td := range docs {
			list := make([]timeline.Clip, 0, len(td.Clips))
			var pos timeline.PTS
			for _, id := range td.Clips {
				c, ok := clips[id]
				if !ok || used[id] {
					return nil, fmt.Errorf("invalid project: clip %d missing or placed twice", id)
				}
				if c.Left != pos {
					return nil, fmt.Errorf("invalid project: clip %d starts at %d, expected %d", id, c.Left, pos)
				}
				used[id] = true
				pos += c.Length
				list = append(list, c)
			}
			out = append(out, list)
		}
		return out, nil
	}
	video, err := tracks(d.Video)
	if err != nil {
		return nil, err
	}
	audio, err := tracks(d.Audio)
	if err != nil {
		return nil, err
	}
	if len(used) != len(clips) {
		return nil, fmt.Errorf("invalid project: %d clips are not on any track", len(clips)-len(used))
	}
	return timeline.Restore(registry, video, audio, opts...)
}

func decodeClip(cd ClipDoc, sources map[string]timeline.Source, registry *transition.Registry) (timeline.Clip, error) {
	var c timeline.Clip
	switch cd.Kind {
	case timeline.KindEmpty.String():
		c = timeline.NewEmpty(cd.Length)
	case timeline.KindMedia.String():
		src, ok := sources[cd.Source]
		if !ok {
			return c, fmt.Errorf("unknown source %q", cd.Source)
		}
		c = timeline.NewMedia(src, cd.Offset, cd.Length)
	case timeline.KindTransition.String():
		params, err := registry.NewParameters(cd.Transition)
		if err != nil {
			return c, err
		}
		for name, pd := range cd.Params {
			kind, err := transition.ParseParamKind(pd.Kind)
			if err != nil {
				return c, err
			}
			v, err := transition.ParseValue(kind, pd.Value)
			if err != nil {
				return c, err
			}
			if err := params.Set(name, v); err != nil {
				return c, err
			}
		}
		c = timeline.NewTransition(params, frames(cd.FramesLeft), frames(cd.FramesRight))
		if c.Length != cd.Length {
			return c, fmt.Errorf("transition length %d does not match its frames", cd.Length)
		}
	default:
		return c, fmt.Errorf("unknown clip kind %q", cd.Kind)
	}
	c.ID = cd.ID
	c.Left = cd.Left
	c.Link = cd.Link
	c.Selected = cd.Selected
	return c, nil
}

func frames(n *timeline.PTS) timeline.Frames {
	if n == nil {
		return timeline.Frames{}
	}
	return timeline.FramesOf(*n)
}
