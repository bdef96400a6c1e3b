package media

import "testing"

func TestIsMediaFile(t *testing.T) {
	tests := []struct {
		path  string
		video bool
		audio bool
	}{
		{"clip.mov", true, false},
		{"/footage/A001.MXF", true, false},
		{"take.Mp4", true, false},
		{"voice.wav", false, true},
		{"music.flac", false, true},
		{"notes.txt", false, false},
		{"project.json", false, false},
		{"noext", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := IsVideoFile(tt.path); got != tt.video {
				t.Errorf("IsVideoFile(%q) = %v, want %v", tt.path, got, tt.video)
			}
			if got := IsAudioFile(tt.path); got != tt.audio {
				t.Errorf("IsAudioFile(%q) = %v, want %v", tt.path, got, tt.audio)
			}
			if got := IsMediaFile(tt.path); got != (tt.video || tt.audio) {
				t.Errorf("IsMediaFile(%q) = %v, want %v", tt.path, got, tt.video || tt.audio)
			}
		})
	}
}
