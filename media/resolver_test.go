package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/poiesic/studyforge/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPlatformServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/x/web-interface/view", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, bilibiliReferer, r.Header.Get("Referer"))
		switch r.URL.Query().Get("bvid") {
		case "BVgood":
			_, _ = w.Write([]byte(`{"code": 0, "data": {"title": "Lecture", "pic": "http://pic", "duration": 600, "cid": 99}}`))
		case "BVnostream":
			_, _ = w.Write([]byte(`{"code": 0, "data": {"title": "x", "duration": 600, "cid": 7}}`))
		default:
			_, _ = w.Write([]byte(`{"code": -404, "message": "not found"}`))
		}
	})
	mux.HandleFunc("/x/player/playurl", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "80", q.Get("qn"))
		assert.Equal(t, "16", q.Get("fnval"))
		if q.Get("cid") != "99" {
			_, _ = w.Write([]byte(`{"code": 0, "data": {}}`))
			return
		}
		_, _ = w.Write([]byte(`{"code": 0, "data": {"dash": {
			"video": [{"baseUrl": "http://cdn/v1"}, {"baseUrl": "http://cdn/v2"}],
			"audio": [{"baseUrl": "http://cdn/a1"}]}}}`))
	})
	mux.HandleFunc("/yt/videos", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "snippet,contentDetails", r.URL.Query().Get("part"))
		assert.Equal(t, "KEY", r.URL.Query().Get("key"))
		switch r.URL.Query().Get("id") {
		case "dQw4w9WgXcQ":
			_, _ = w.Write([]byte(`{"items": [{"snippet": {"title": "Talk", "thumbnails": {"high": {"url": "http://hi"}, "default": {"url": "http://def"}}},
				"contentDetails": {"duration": "PT12M30S"}}]}`))
		case "liveliveliv":
			_, _ = w.Write([]byte(`{"items": [{"snippet": {"title": "Live"}, "contentDetails": {"duration": "P0D"}}]}`))
		default:
			_, _ = w.Write([]byte(`{"items": []}`))
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestResolver(t *testing.T) *Resolver {
	srv := newPlatformServer(t)
	return NewResolver(
		WithBilibiliAPI(srv.URL),
		WithYouTubeAPI(srv.URL+"/yt/"),
		WithYouTubeKey("KEY"),
		WithHTTPClient(srv.Client()),
		WithResolverLogger(nil),
	)
}

func TestResolver_Resolve(t *testing.T) {
	r := newTestResolver(t)
	ctx := context.Background()

	t.Run("bilibili", func(t *testing.T) {
		src, err := r.Resolve(ctx, "https://www.bilibili.com/video/BVgood")
		require.NoError(t, err)
		assert.Equal(t, &core.Source{
			URL:      "https://www.bilibili.com/video/BVgood",
			Platform: core.PlatformBilibili,
			VideoID:  "BVgood",
			Title:    "Lecture",
			Cover:    "http://pic",
			Duration: 10 * time.Minute,
			Valid:    true,
		}, src)
	})

	t.Run("bilibili not found", func(t *testing.T) {
		src, err := r.Resolve(ctx, "https://www.bilibili.com/video/BVmissing")
		require.NoError(t, err)
		assert.False(t, src.Valid)
		assert.NotEmpty(t, src.ErrorMsg)
	})

	t.Run("youtube", func(t *testing.T) {
		src, err := r.Resolve(ctx, "https://youtu.be/dQw4w9WgXcQ")
		require.NoError(t, err)
		assert.True(t, src.Valid)
		assert.Equal(t, "Talk", src.Title)
		assert.Equal(t, "http://hi", src.Cover)
		assert.Equal(t, 12*time.Minute+30*time.Second, src.Duration)
	})

	t.Run("youtube live", func(t *testing.T) {
		src, err := r.Resolve(ctx, "https://youtu.be/liveliveliv")
		require.NoError(t, err)
		assert.False(t, src.Valid)
	})

	t.Run("youtube missing", func(t *testing.T) {
		src, err := r.Resolve(ctx, "https://www.youtube.com/watch?v=aaaaaaaaaaa")
		require.NoError(t, err)
		assert.False(t, src.Valid)
	})

	t.Run("unsupported", func(t *testing.T) {
		src, err := r.Resolve(ctx, "https://vimeo.com/1")
		require.NoError(t, err)
		assert.False(t, src.Valid)
		assert.Empty(t, src.Platform)
		assert.ErrorIs(t, core.ValidateSource(src, core.DefaultDurationBounds), core.ErrUnsupportedPlatform)
	})
}

func TestResolver_ResolveTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	r := NewResolver(WithBilibiliAPI(srv.URL))
	_, err := r.Resolve(context.Background(), "https://www.bilibili.com/video/BV1")
	assert.Error(t, err)
}

func TestResolver_BilibiliStreams(t *testing.T) {
	r := newTestResolver(t)
	ctx := context.Background()

	s, err := r.BilibiliStreams(ctx, "BVgood")
	require.NoError(t, err)
	assert.Equal(t, Streams{VideoURL: "http://cdn/v1", AudioURL: "http://cdn/a1"}, s)

	_, err = r.BilibiliStreams(ctx, "BVnostream")
	assert.ErrorIs(t, err, ErrNoStreams)

	_, err = r.BilibiliStreams(ctx, "BVmissing")
	assert.ErrorIs(t, err, ErrNoStreams)
}
