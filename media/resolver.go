package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/poiesic/studyforge/core"
)

const (
	DefaultBilibiliAPI = "https://api.bilibili.com"
	DefaultYouTubeAPI  = "https://www.googleapis.com/youtube/v3"

	bilibiliReferer = "https://www.bilibili.com"
	userAgent       = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36"
)

// ErrNoStreams is returned when Bilibili does not expose separate video and
// audio streams for a video.
var ErrNoStreams = errors.New("no playable streams")

// Streams are direct media URLs for one Bilibili video.
type Streams struct {
	VideoURL string
	AudioURL string
}

// Resolver looks up video metadata on the supported platforms.
type Resolver struct {
	bilibiliAPI string
	youtubeAPI  string
	youtubeKey  string
	client      *http.Client
	logger      *slog.Logger
}

type ResolverOption func(*Resolver)

// WithBilibiliAPI overrides the Bilibili API base URL.
func WithBilibiliAPI(base string) ResolverOption {
	return func(r *Resolver) { r.bilibiliAPI = strings.TrimRight(base, "/") }
}

// WithYouTubeAPI overrides the YouTube Data API base URL.
func WithYouTubeAPI(base string) ResolverOption {
	return func(r *Resolver) { r.youtubeAPI = strings.TrimRight(base, "/") }
}

// WithYouTubeKey sets the YouTube Data API key.
func WithYouTubeKey(key string) ResolverOption {
	return func(r *Resolver) { r.youtubeKey = key }
}

func WithHTTPClient(c *http.Client) ResolverOption {
	return func(r *Resolver) {
		if c != nil {
			r.client = c
		}
	}
}

func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
	}
}

// NewResolver creates a resolver for Bilibili and YouTube.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		bilibiliAPI: DefaultBilibiliAPI,
		youtubeAPI:  DefaultYouTubeAPI,
		client:      &http.Client{Timeout: 15 * time.Second},
		logger:      slog.Default().With("component", "resolver"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the source description of rawURL. Unsupported URLs and
// videos that cannot be found come back with Valid false and a message;
// the error is reserved for failures to reach the platform.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (*core.Source, error) {
	platform, id := Detect(rawURL)
	src := &core.Source{URL: rawURL, Platform: platform, VideoID: id}

	switch platform {
	case core.PlatformBilibili:
		return src, r.resolveBilibili(ctx, src)
	case core.PlatformYouTube:
		return src, r.resolveYouTube(ctx, src)
	}
	src.ErrorMsg = "only Bilibili and YouTube links are supported"
	return src, nil
}

type bilibiliView struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    *struct {
		Title    string `json:"title"`
		Pic      string `json:"pic"`
		Duration int    `json:"duration"`
		CID      int64  `json:"cid"`
	} `json:"data"`
}

func (r *Resolver) bilibiliView(ctx context.Context, bvid string) (*bilibiliView, error) {
	var view bilibiliView
	endpoint := r.bilibiliAPI + "/x/web-interface/view?" + url.Values{"bvid": {bvid}}.Encode()
	if err := r.getJSON(ctx, endpoint, true, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (r *Resolver) resolveBilibili(ctx context.Context, src *core.Source) error {
	view, err := r.bilibiliView(ctx, src.VideoID)
	if err != nil {
		return fmt.Errorf("bilibili metadata: %w", err)
	}
	if view.Code != 0 || view.Data == nil {
		src.ErrorMsg = "bilibili video not found"
		return nil
	}
	src.Title = view.Data.Title
	src.Cover = view.Data.Pic
	src.Duration = time.Duration(view.Data.Duration) * time.Second
	src.Valid = true
	return nil
}

type youtubeVideos struct {
	Items []struct {
		Snippet struct {
			Title      string `json:"title"`
			Thumbnails map[string]struct {
				URL string `json:"url"`
			} `json:"thumbnails"`
		} `json:"snippet"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

func (r *Resolver) resolveYouTube(ctx context.Context, src *core.Source) error {
	params := url.Values{
		"part": {"snippet,contentDetails"},
		"id":   {src.VideoID},
	}
	if r.youtubeKey != "" {
		params.Set("key", r.youtubeKey)
	}
	var resp youtubeVideos
	if err := r.getJSON(ctx, r.youtubeAPI+"/videos?"+params.Encode(), false, &resp); err != nil {
		return fmt.Errorf("youtube metadata: %w", err)
	}
	if len(resp.Items) == 0 {
		src.ErrorMsg = "youtube video not found"
		return nil
	}

	item := resp.Items[0]
	d, ok := ParseISODuration(item.ContentDetails.Duration)
	if !ok {
		src.ErrorMsg = "youtube video has no fixed duration"
		return nil
	}
	src.Title = item.Snippet.Title
	for _, size := range []string{"maxres", "high", "default"} {
		if th, ok := item.Snippet.Thumbnails[size]; ok && th.URL != "" {
			src.Cover = th.URL
			break
		}
	}
	src.Duration = d
	src.Valid = true
	return nil
}

type bilibiliPlayURL struct {
	Code int `json:"code"`
	Data *struct {
		Dash *struct {
			Video []struct {
				BaseURL string `json:"baseUrl"`
			} `json:"video"`
			Audio []struct {
				BaseURL string `json:"baseUrl"`
			} `json:"audio"`
		} `json:"dash"`
	} `json:"data"`
}

// BilibiliStreams returns the first DASH video and audio stream of a video.
func (r *Resolver) BilibiliStreams(ctx context.Context, bvid string) (Streams, error) {
	view, err := r.bilibiliView(ctx, bvid)
	if err != nil {
		return Streams{}, fmt.Errorf("bilibili metadata: %w", err)
	}
	if view.Data == nil || view.Data.CID == 0 {
		return Streams{}, fmt.Errorf("%w: bilibili video %s has no cid", ErrNoStreams, bvid)
	}

	params := url.Values{
		"bvid":  {bvid},
		"cid":   {fmt.Sprint(view.Data.CID)},
		"qn":    {"80"},
		"fnval": {"16"},
	}
	var play bilibiliPlayURL
	if err := r.getJSON(ctx, r.bilibiliAPI+"/x/player/playurl?"+params.Encode(), true, &play); err != nil {
		return Streams{}, fmt.Errorf("bilibili playurl: %w", err)
	}
	if play.Data == nil || play.Data.Dash == nil || len(play.Data.Dash.Video) == 0 || len(play.Data.Dash.Audio) == 0 {
		return Streams{}, fmt.Errorf("%w: bilibili video %s", ErrNoStreams, bvid)
	}
	s := Streams{
		VideoURL: play.Data.Dash.Video[0].BaseURL,
		AudioURL: play.Data.Dash.Audio[0].BaseURL,
	}
	if s.VideoURL == "" || s.AudioURL == "" {
		return Streams{}, fmt.Errorf("%w: bilibili video %s", ErrNoStreams, bvid)
	}
	r.logger.Debug("resolved bilibili streams", "bvid", bvid)
	return s, nil
}

func (r *Resolver) getJSON(ctx context.Context, endpoint string, bilibili bool, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if bilibili {
		req.Header.Set("Referer", bilibiliReferer)
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
