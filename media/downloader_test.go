package media

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/poiesic/studyforge/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDownloader(t *testing.T, runner *fakeRunner) *Downloader {
	t.Helper()
	ff := NewFFmpeg("")
	ff.runner = runner
	d := NewDownloader(newTestResolver(t), ff, WithDownloaderLogger(nil))
	d.runner = runner
	return d
}

func TestDownloader_Bilibili(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{create: aria2Output}
	d := newTestDownloader(t, runner)

	src := &core.Source{Platform: core.PlatformBilibili, VideoID: "BVgood"}
	a, err := d.Download(context.Background(), src, dir)
	require.NoError(t, err)

	assert.Equal(t, Artifacts{
		VideoPath:  filepath.Join(dir, "BVgood_video.mp4"),
		AudioPath:  filepath.Join(dir, "BVgood_audio.m4s"),
		MergedPath: filepath.Join(dir, "BVgood_merged.mp4"),
	}, a)
	assert.Equal(t, []string{"aria2c", "aria2c", "ffmpeg"}, runner.names())

	video := runner.calls[0].Args
	assert.Equal(t, "http://cdn/v1", video[len(video)-1])
	assert.Equal(t, "BVgood_video.mp4", flagValue(video, "-o"))
	assert.Equal(t, dir, flagValue(video, "-d"))
	assert.Contains(t, video, "Referer: "+bilibiliReferer)
	assert.Equal(t, "http://cdn/a1", runner.calls[1].Args[len(runner.calls[1].Args)-1])
	assert.Len(t, a.Paths(), 3)
}

func TestDownloader_BilibiliNoStreams(t *testing.T) {
	runner := &fakeRunner{}
	d := newTestDownloader(t, runner)

	_, err := d.Download(context.Background(), &core.Source{Platform: core.PlatformBilibili, VideoID: "BVnostream"}, t.TempDir())
	assert.ErrorIs(t, err, ErrNoStreams)
	assert.Empty(t, runner.calls)
}

func TestDownloader_BilibiliAria2Fails(t *testing.T) {
	runner := &fakeRunner{fail: map[string]error{"aria2c": errExit}}
	d := newTestDownloader(t, runner)

	_, err := d.Download(context.Background(), &core.Source{Platform: core.PlatformBilibili, VideoID: "BVgood"}, t.TempDir())
	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, "download stream", cmdErr.Op)
	assert.Equal(t, []string{"aria2c"}, runner.names())
}

func TestDownloader_YouTube(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{create: lastArgOutputYouTube}
	d := newTestDownloader(t, runner)

	src := &core.Source{URL: "https://youtu.be/dQw4w9WgXcQ", Platform: core.PlatformYouTube, VideoID: "dQw4w9WgXcQ"}
	a, err := d.Download(context.Background(), src, dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "dQw4w9WgXcQ.mp4"), a.MergedPath)
	assert.Equal(t, filepath.Join(dir, "dQw4w9WgXcQ.wav"), a.AudioPath)
	assert.Empty(t, a.VideoPath)
	assert.Equal(t, []string{"yt-dlp", "ffmpeg"}, runner.names())
	assert.Equal(t, src.URL, runner.calls[0].Args[len(runner.calls[0].Args)-1])
}

func TestDownloader_YouTubeMissingOutput(t *testing.T) {
	runner := &fakeRunner{}
	d := newTestDownloader(t, runner)

	src := &core.Source{URL: "https://youtu.be/dQw4w9WgXcQ", Platform: core.PlatformYouTube, VideoID: "dQw4w9WgXcQ"}
	_, err := d.Download(context.Background(), src, t.TempDir())
	require.Error(t, err)
	assert.Equal(t, []string{"yt-dlp"}, runner.names())
}

func TestDownloader_Unsupported(t *testing.T) {
	d := newTestDownloader(t, &fakeRunner{})
	_, err := d.Download(context.Background(), &core.Source{Platform: "vimeo"}, t.TempDir())
	assert.ErrorIs(t, err, core.ErrUnsupportedPlatform)
}

// lastArgOutputYouTube creates the -o target of yt-dlp and the output of ffmpeg.
func lastArgOutputYouTube(name string, args []string) []string {
	if name == "yt-dlp" {
		return []string{flagValue(args, "-o")}
	}
	return lastArgOutput(name, args)
}
