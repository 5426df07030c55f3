// Package literature searches scholarly metadata for works related to a
// transcript and formats them as prompt context.
package literature

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/studyforge/core"
)

const (
	// DefaultBaseURL is the public CrossRef REST endpoint.
	DefaultBaseURL = "https://api.crossref.org"
	// DefaultRows is the number of works requested per search.
	DefaultRows = 5
	// SourceCrossRef labels works returned by CrossRef.
	SourceCrossRef = "CrossRef"
)

// Searcher finds works related to a free-text query.
type Searcher interface {
	Search(ctx context.Context, query string, rows int) ([]core.Work, error)
}

// CrossRef searches the CrossRef works API.
type CrossRef struct {
	baseURL string
	mailto  string
	client  *http.Client
	logger  *slog.Logger
}

var _ Searcher = (*CrossRef)(nil)

// Option configures a CrossRef client.
type Option func(*CrossRef)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) Option {
	return func(c *CrossRef) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithMailto identifies the caller for CrossRef's polite pool.
func WithMailto(addr string) Option {
	return func(c *CrossRef) {
		c.mailto = addr
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *CrossRef) {
		if client != nil {
			c.client = client
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *CrossRef) {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
	}
}

// NewCrossRef creates a CrossRef client.
func NewCrossRef(opts ...Option) *CrossRef {
	c := &CrossRef{
		baseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  slog.Default().With("component", "crossref"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type crossRefResponse struct {
	Message struct {
		Items []crossRefItem `json:"items"`
	} `json:"message"`
}

type crossRefItem struct {
	Title  []string `json:"title"`
	Author []struct {
		Given  string `json:"given"`
		Family string `json:"family"`
	} `json:"author"`
	Issued struct {
		DateParts [][]int `json:"date-parts"`
	} `json:"issued"`
	ContainerTitle []string `json:"container-title"`
	Abstract       string   `json:"abstract"`
	URL            string   `json:"URL"`
	DOI            string   `json:"DOI"`
}

// Search returns up to rows works matching query. A blank query returns no
// works without calling the API.
func (c *CrossRef) Search(ctx context.Context, query string, rows int) ([]core.Work, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []core.Work{}, nil
	}
	if rows <= 0 {
		rows = DefaultRows
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("rows", strconv.Itoa(rows))
	if c.mailto != "" {
		params.Set("mailto", c.mailto)
	}
	endpoint := c.baseURL + "/works?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("crossref request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrSearchFailed, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed crossRefResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrSearchFailed, err)
	}

	works := make([]core.Work, 0, len(parsed.Message.Items))
	for _, item := range parsed.Message.Items {
		works = append(works, item.toWork())
	}
	c.logger.Debug("crossref search complete", "rows", rows, "found", len(works))
	return works, nil
}

func (it crossRefItem) toWork() core.Work {
	w := core.Work{
		Abstract: it.Abstract,
		URL:      it.URL,
		DOI:      it.DOI,
		Source:   SourceCrossRef,
	}
	if len(it.Title) > 0 {
		w.Title = it.Title[0]
	}
	if len(it.ContainerTitle) > 0 {
		w.Venue = it.ContainerTitle[0]
	}
	if len(it.Issued.DateParts) > 0 && len(it.Issued.DateParts[0]) > 0 {
		w.Year = strconv.Itoa(it.Issued.DateParts[0][0])
	}

	names := make([]string, 0, len(it.Author))
	for _, a := range it.Author {
		name := strings.TrimSpace(a.Family + " " + a.Given)
		if name != "" {
			names = append(names, name)
		}
	}
	w.Author = strings.Join(names, ", ")
	return w
}
