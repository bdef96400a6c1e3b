package media

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
)

// locations of the ffmpeg tools used for probing and export
type BinaryPaths struct {
	FFmpeg  string
	FFprobe string
}

var (
	ensureOnce sync.Once
	ensureErr  error
	ensurePath BinaryPaths
)

// resolves the ffmpeg tools once per process. SPLICE_FFMPEG_PATH and
// SPLICE_FFPROBE_PATH take precedence over $PATH.
func Ensure() (BinaryPaths, error) {
	ensureOnce.Do(func() {
		ensurePath, ensureErr = ensure(os.Getenv, exec.LookPath)
	})
	return ensurePath, ensureErr
}

func FFmpegPath() (string, error) {
	paths, err := Ensure()
	if err != nil {
		return "", err
	}
	return paths.FFmpeg, nil
}

func ensure(getenv func(string) string, lookPath func(string) (string, error)) (BinaryPaths, error) {
	paths := BinaryPaths{
		FFmpeg:  getenv("SPLICE_FFMPEG_PATH"),
		FFprobe: getenv("SPLICE_FFPROBE_PATH"),
	}
	if paths.FFmpeg == "" {
		found, err := lookPath("ffmpeg")
		if err != nil {
			return BinaryPaths{}, fmt.Errorf("ffmpeg not found, install it or set SPLICE_FFMPEG_PATH: %w", err)
		}
		paths.FFmpeg = found
	}
	if paths.FFprobe == "" {
		found, err := lookPath("ffprobe")
		if err != nil {
			return BinaryPaths{}, fmt.Errorf("ffprobe not found, install it or set SPLICE_FFPROBE_PATH: %w", err)
		}
		paths.FFprobe = found
	}
	return paths, nil
}
