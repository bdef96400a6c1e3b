package timeline

import (
	"context"
	"fmt"
	"slices"

	"github.com/mgpai22/splice/internal/logging"
	"github.com/mgpai22/splice/internal/transition"
)

// reports the length and stream layout of a media handle
type SourceProvider interface {
	Probe(ctx context.Context, handle string) (Source, error)
}

// supplies the current selection to the drag engine
type Selection interface {
	Selected() []ClipID
}

// stacked video and audio tracks. The sequence owns every track and every
// clip, links are clip ids resolved through it.
type Sequence struct {
	video    []*Track
	audio    []*Track
	nextID   ClipID
	registry *transition.Registry
	log      *logging.Logger
}

type Option func(*Sequence)

func WithLogger(l *logging.Logger) Option {
	return func(s *Sequence) {
		s.log = logging.OrNop(l)
	}
}

func NewSequence(registry *transition.Registry, opts ...Option) *Sequence {
	if registry == nil {
		registry = transition.Builtin()
	}
	s := &Sequence{
		nextID:   1,
		registry: registry,
		log:      logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// rebuilds a sequence from committed clips, e.g. a decoded project. Clips
// keep their ids, positions are re-derived from the lengths.
func Restore(registry *transition.Registry, video, audio [][]Clip, opts ...Option) (*Sequence, error) {
	s := NewSequence(registry, opts...)
	for kind, tracks := range map[TrackKind][][]Clip{Video: video, Audio: audio} {
		for _, clips := range tracks {
			ref := s.AddTrack(kind)
			t, _ := s.Track(ref)
			t.clips = slices.Clone(clips)
			relayout(t.clips)
			for _, c := range t.clips {
				s.nextID = max(s.nextID, c.ID+1)
			}
		}
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("failed to restore sequence: %w", err)
	}
	return s, nil
}

func (s *Sequence) Registry() *transition.Registry {
	return s.registry
}

// appends an empty track of the given kind
func (s *Sequence) AddTrack(kind TrackKind) TrackRef {
	tracks := s.tracksOf(kind)
	ref := TrackRef{Kind: kind, Index: len(*tracks)}
	*tracks = append(*tracks, &Track{ref: ref})
	return ref
}

// removes the topmost track of its kind. Only an empty track can go.
func (s *Sequence) RemoveTrack(ref TrackRef) error {
	tracks := s.tracksOf(ref.Kind)
	if ref.Index < 0 || ref.Index >= len(*tracks) {
		return fmt.Errorf("%w: %s", ErrTrackNotFound, ref)
	}
	if ref.Index != len(*tracks)-1 {
		return fmt.Errorf("%w: %s is not the last %s track", ErrInvalidEdit, ref, ref.Kind)
	}
	if (*tracks)[ref.Index].Len() > 0 {
		return fmt.Errorf("%w: %s still holds clips", ErrInvalidEdit, ref)
	}
	*tracks = (*tracks)[:ref.Index]
	return nil
}

func (s *Sequence) tracksOf(kind TrackKind) *[]*Track {
	if kind == Audio {
		return &s.audio
	}
	return &s.video
}

// tracks of one kind, bottom to top
func (s *Sequence) Tracks(kind TrackKind) []*Track {
	return append([]*Track(nil), *s.tracksOf(kind)...)
}

// video tracks followed by audio tracks
func (s *Sequence) AllTracks() []*Track {
	out := make([]*Track, 0, len(s.video)+len(s.audio))
	out = append(out, s.video...)
	return append(out, s.audio...)
}

func (s *Sequence) Track(ref TrackRef) (*Track, error) {
	tracks := *s.tracksOf(ref.Kind)
	if ref.Index < 0 || ref.Index >= len(tracks) {
		return nil, fmt.Errorf("%w: %s", ErrTrackNotFound, ref)
	}
	return tracks[ref.Index], nil
}

// locates a clip by id
func (s *Sequence) Lookup(id ClipID) (Clip, TrackRef, int, error) {
	for _, t := range s.AllTracks() {
		if i := t.IndexOf(id); i >= 0 {
			return t.clips[i], t.ref, i, nil
		}
	}
	return Clip{}, TrackRef{}, -1, fmt.Errorf("%w: %d", ErrClipNotFound, id)
}

// longest track length
func (s *Sequence) Length() PTS {
	var n PTS
	for _, t := range s.AllTracks() {
		n = max(n, t.Length())
	}
	return n
}

// hands out an id for a clip that a following edit will create. Used when
// new clips must reference each other, e.g. a freshly linked pair.
func (s *Sequence) Reserve() ClipID {
	id := s.nextID
	s.nextID++
	return id
}

// flips the non-structural selection flag
func (s *Sequence) SetSelected(id ClipID, selected bool) error {
	_, ref, i, err := s.Lookup(id)
	if err != nil {
		return err
	}
	tracks := *s.tracksOf(ref.Kind)
	tracks[ref.Index].clips[i].Selected = selected
	return nil
}

// ids of selected clips, in track order
func (s *Sequence) Selected() []ClipID {
	var ids []ClipID
	for _, t := range s.AllTracks() {
		for _, c := range t.clips {
			if c.Selected {
				ids = append(ids, c.ID)
			}
		}
	}
	return ids
}

// checks every track invariant and the symmetry of links
func (s *Sequence) Validate() error {
	present := make(map[ClipID]Clip)
	for _, t := range s.AllTracks() {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("track %s: %w", t.ref, err)
		}
		for _, c := range t.clips {
			if _, dup := present[c.ID]; dup {
				return invariantf("clip id %d used twice", c.ID)
			}
			present[c.ID] = c
		}
	}
	for _, c := range present {
		if c.Link == 0 {
			continue
		}
		partner, ok := present[c.Link]
		if !ok || partner.Link != c.ID {
			return invariantf("clip %d has a one-sided link to %d", c.ID, c.Link)
		}
	}
	return nil
}

// appends a linked video/audio clip pair for src at the end of the given
// tracks, padding the shorter track so both clips start together
func (s *Sequence) AddSource(src Source, video, audio int) (*Result, error) {
	if src.Length <= 0 {
		return nil, fmt.Errorf("%w: source %q has no length", ErrInvalidEdit, src.Handle)
	}
	if !src.HasVideo && !src.HasAudio {
		return nil, fmt.Errorf("%w: source %q has no streams", ErrInvalidEdit, src.Handle)
	}

	var refs []TrackRef
	if src.HasVideo {
		refs = append(refs, TrackRef{Kind: Video, Index: video})
	}
	if src.HasAudio {
		refs = append(refs, TrackRef{Kind: Audio, Index: audio})
	}
	var at PTS
	for _, ref := range refs {
		t, err := s.Track(ref)
		if err != nil {
			return nil, err
		}
		at = max(at, t.Length())
	}

	ids := make([]ClipID, len(refs))
	for i := range refs {
		ids[i] = s.Reserve()
	}

	var edit Edit
	for i, ref := range refs {
		t, _ := s.Track(ref)
		clip := NewMedia(src, 0, src.Length)
		clip.ID = ids[i]
		if len(ids) == 2 {
			clip.Link = ids[1-i]
		}
		var clips []Clip
		if pad := at - t.Length(); pad > 0 {
			clips = append(clips, NewEmpty(pad))
		}
		edit.Appends = append(edit.Appends, Append{Track: ref, Clips: append(clips, clip)})
	}
	edit.LinksHandled = true
	return s.Apply(edit)
}

// read-only copy of clip geometry for background workers
type Snapshot struct {
	Length PTS
	Tracks []TrackSnapshot
}

type TrackSnapshot struct {
	Track TrackRef
	Clips []ClipSpan
}

type ClipSpan struct {
	ID     ClipID
	Kind   ClipKind
	Span   Interval
	Handle string
	Offset PTS
}

func (s *Sequence) Snapshot() Snapshot {
	snap := Snapshot{Length: s.Length()}
	for _, t := range s.AllTracks() {
		ts := TrackSnapshot{Track: t.ref, Clips: make([]ClipSpan, 0, len(t.clips))}
		for _, c := range t.clips {
			ts.Clips = append(ts.Clips, ClipSpan{
				ID:     c.ID,
				Kind:   c.Kind,
				Span:   c.Interval,
				Handle: c.Source.Handle,
				Offset: c.Offset,
			})
		}
		snap.Tracks = append(snap.Tracks, ts)
	}
	return snap
}
