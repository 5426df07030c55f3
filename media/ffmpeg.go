package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// DefaultSegmentLength is the length of each audio segment sent for transcription.
const DefaultSegmentLength = 300 * time.Second

// FFmpeg wraps the ffmpeg binary.
type FFmpeg struct {
	path   string
	runner commandRunner
}

// NewFFmpeg returns a wrapper around the ffmpeg binary at path, or "ffmpeg"
// from PATH when path is empty.
func NewFFmpeg(path string) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpeg{path: path, runner: execRunner{}}
}

// Merge muxes a video-only and an audio-only stream into out without re-encoding.
func (f *FFmpeg) Merge(ctx context.Context, video, audio, out string) error {
	return run(ctx, f.runner, "merge streams", f.path,
		"-y", "-i", video, "-i", audio, "-c", "copy", out)
}

// ExtractAudio writes the audio track of input to out as 16 kHz mono PCM.
func (f *FFmpeg) ExtractAudio(ctx context.Context, input, out string) error {
	return run(ctx, f.runner, "extract audio", f.path,
		"-y", "-i", input, "-vn", "-acodec", "pcm_s16le", "-ar", "16000", "-ac", "1", out)
}

// Split cuts audio into 16 kHz mono WAV segments of at most segment length,
// named <base>_part000.wav, <base>_part001.wav and so on next to the input.
// Stale segments from an earlier run are removed first. The returned paths
// are sorted.
func (f *FFmpeg) Split(ctx context.Context, audio string, segment time.Duration) ([]string, error) {
	if segment <= 0 {
		segment = DefaultSegmentLength
	}
	dir := filepath.Dir(audio)
	base := strings.TrimSuffix(filepath.Base(audio), filepath.Ext(audio))

	stale, err := segments(dir, base)
	if err != nil {
		return nil, err
	}
	for _, p := range stale {
		if err := os.Remove(p); err != nil {
			return nil, fmt.Errorf("remove stale segment: %w", err)
		}
	}

	pattern := filepath.Join(dir, base+"_part%03d.wav")
	err = run(ctx, f.runner, "split audio", f.path,
		"-y", "-i", audio,
		"-f", "segment", "-segment_time", strconv.Itoa(int(segment.Seconds())),
		"-ar", "16000", "-ac", "1", "-sample_fmt", "s16",
		pattern)
	if err != nil {
		return nil, err
	}
	return segments(dir, base)
}

func segments(dir, base string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, base+"_part") && strings.HasSuffix(name, ".wav") {
			out = append(out, filepath.Join(dir, name))
		}
	}
	slices.Sort(out)
	return out, nil
}
