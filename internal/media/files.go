package media

import (
	"path/filepath"
	"strings"
)

var (
	videoExts = map[string]bool{
		".mp4": true, ".mkv": true, ".avi": true, ".mov": true, ".webm": true,
		".m4v": true, ".mpeg": true, ".mpg": true, ".mxf": true, ".3gp": true,
	}
	audioExts = map[string]bool{
		".mp3": true, ".wav": true, ".aac": true, ".flac": true,
		".ogg": true, ".m4a": true, ".aiff": true, ".opus": true,
	}
)

// checks if the file looks like a container with a video stream
func IsVideoFile(path string) bool {
	return videoExts[strings.ToLower(filepath.Ext(path))]
}

func IsAudioFile(path string) bool {
	return audioExts[strings.ToLower(filepath.Ext(path))]
}

// checks if the file can be imported into a sequence, by extension only.
// ffprobe has the final word on the streams.
func IsMediaFile(path string) bool {
	return IsVideoFile(path) || IsAudioFile(path)
}
