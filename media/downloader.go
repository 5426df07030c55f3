package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/poiesic/studyforge/core"
)

// Artifacts are the local files produced by a download.
type Artifacts struct {
	// VideoPath is the video-only stream, when the platform serves one.
	VideoPath string
	// AudioPath is the audio track used for transcription.
	AudioPath string
	// MergedPath is the playable video with sound.
	MergedPath string
}

// Paths lists every non-empty artifact path.
func (a Artifacts) Paths() []string {
	var out []string
	for _, p := range []string{a.VideoPath, a.AudioPath, a.MergedPath} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Downloader fetches media for a resolved source into a working directory.
type Downloader struct {
	resolver *Resolver
	ffmpeg   *FFmpeg
	aria2c   string
	ytdlp    string
	runner   commandRunner
	logger   *slog.Logger
}

type DownloaderOption func(*Downloader)

// WithTools overrides the aria2c and yt-dlp binaries.
func WithTools(aria2c, ytdlp string) DownloaderOption {
	return func(d *Downloader) {
		if aria2c != "" {
			d.aria2c = aria2c
		}
		if ytdlp != "" {
			d.ytdlp = ytdlp
		}
	}
}

func WithDownloaderLogger(logger *slog.Logger) DownloaderOption {
	return func(d *Downloader) {
		if logger == nil {
			logger = slog.Default()
		}
		d.logger = logger
	}
}

// NewDownloader creates a downloader. The resolver supplies Bilibili stream
// URLs; ffmpeg merges and extracts.
func NewDownloader(resolver *Resolver, ffmpeg *FFmpeg, opts ...DownloaderOption) *Downloader {
	d := &Downloader{
		resolver: resolver,
		ffmpeg:   ffmpeg,
		aria2c:   "aria2c",
		ytdlp:    "yt-dlp",
		runner:   execRunner{},
		logger:   slog.Default().With("component", "downloader"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Download fetches src into dir, which must exist.
func (d *Downloader) Download(ctx context.Context, src *core.Source, dir string) (Artifacts, error) {
	switch src.Platform {
	case core.PlatformBilibili:
		return d.downloadBilibili(ctx, src, dir)
	case core.PlatformYouTube:
		return d.downloadYouTube(ctx, src, dir)
	}
	return Artifacts{}, fmt.Errorf("%w: %q", core.ErrUnsupportedPlatform, src.Platform)
}

func (d *Downloader) downloadBilibili(ctx context.Context, src *core.Source, dir string) (Artifacts, error) {
	streams, err := d.resolver.BilibiliStreams(ctx, src.VideoID)
	if err != nil {
		return Artifacts{}, err
	}

	a := Artifacts{
		VideoPath:  filepath.Join(dir, src.VideoID+"_video.mp4"),
		AudioPath:  filepath.Join(dir, src.VideoID+"_audio.m4s"),
		MergedPath: filepath.Join(dir, src.VideoID+"_merged.mp4"),
	}
	if err := d.aria2(ctx, streams.VideoURL, a.VideoPath); err != nil {
		return Artifacts{}, err
	}
	if err := d.aria2(ctx, streams.AudioURL, a.AudioPath); err != nil {
		return Artifacts{}, err
	}
	if err := d.ffmpeg.Merge(ctx, a.VideoPath, a.AudioPath, a.MergedPath); err != nil {
		return Artifacts{}, err
	}
	d.logger.Info("bilibili media downloaded", "bvid", src.VideoID)
	return a, nil
}

func (d *Downloader) aria2(ctx context.Context, url, out string) error {
	return run(ctx, d.runner, "download stream", d.aria2c,
		"-x", "16", "-s", "16",
		"--header", "Referer: "+bilibiliReferer,
		"--header", "User-Agent: "+userAgent,
		"-o", filepath.Base(out),
		"-d", filepath.Dir(out),
		url)
}

func (d *Downloader) downloadYouTube(ctx context.Context, src *core.Source, dir string) (Artifacts, error) {
	a := Artifacts{
		MergedPath: filepath.Join(dir, src.VideoID+".mp4"),
		AudioPath:  filepath.Join(dir, src.VideoID+".wav"),
	}
	err := run(ctx, d.runner, "download video", d.ytdlp,
		"-f", "bv*+ba/b",
		"--merge-output-format", "mp4",
		"-o", a.MergedPath,
		src.URL)
	if err != nil {
		return Artifacts{}, err
	}
	if _, err := os.Stat(a.MergedPath); err != nil {
		return Artifacts{}, fmt.Errorf("download video: %w", err)
	}
	if err := d.ffmpeg.ExtractAudio(ctx, a.MergedPath, a.AudioPath); err != nil {
		return Artifacts{}, err
	}
	d.logger.Info("youtube media downloaded", "id", src.VideoID)
	return a, nil
}
