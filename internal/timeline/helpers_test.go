package timeline

import (
	"testing"
)

// kind and geometry of one clip, what layout tests compare
type span struct {
	Kind   ClipKind
	Left   PTS
	Length PTS
}

func layout(t *Track) []span {
	out := make([]span, 0, t.Len())
	for _, c := range t.Clips() {
		out = append(out, span{Kind: c.Kind, Left: c.Left, Length: c.Length})
	}
	return out
}

func media(left, length PTS) span { return span{Kind: KindMedia, Left: left, Length: length} }
func empty(left, length PTS) span { return span{Kind: KindEmpty, Left: left, Length: length} }
func trans(left, length PTS) span { return span{Kind: KindTransition, Left: left, Length: length} }

func testSource(handle string) Source {
	return Source{Handle: handle, Length: 1000, HasVideo: true, HasAudio: true}
}

// sequence with a single video track holding clips
func newTestSequence(t *testing.T, clips ...Clip) (*Sequence, *Track) {
	t.Helper()
	s := NewSequence(nil)
	ref := s.AddTrack(Video)
	appendClips(t, s, ref, clips...)
	track, _ := s.Track(ref)
	return s, track
}

func appendClips(t *testing.T, s *Sequence, ref TrackRef, clips ...Clip) {
	t.Helper()
	if len(clips) == 0 {
		return
	}
	if _, err := s.Apply(Edit{Appends: []Append{{Track: ref, Clips: clips}}, LinksHandled: true}); err != nil {
		t.Fatalf("failed to append clips: %v", err)
	}
}

func mustValidate(t *testing.T, s *Sequence) {
	t.Helper()
	if err := s.Validate(); err != nil {
		t.Fatalf("sequence is invalid: %v", err)
	}
}

func clipIDs(t *Track) []ClipID {
	ids := make([]ClipID, 0, t.Len())
	for _, c := range t.Clips() {
		ids = append(ids, c.ID)
	}
	return ids
}

func mustLookup(t *testing.T, s *Sequence, id ClipID) Clip {
	t.Helper()
	c, _, _, err := s.Lookup(id)
	if err != nil {
		t.Fatalf("lookup %d: %v", id, err)
	}
	return c
}
