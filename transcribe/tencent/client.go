// Package tencent is a minimal Tencent Cloud ASR client for recording
// recognition jobs (CreateRecTask and DescribeTaskStatus).
package tencent

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/studyforge/transcribe"
)

const (
	DefaultEndpoint = "https://asr.tencentcloudapi.com"
	DefaultRegion   = "ap-guangzhou"
	// DefaultEngine is the 16 kHz Mandarin video model.
	DefaultEngine = "16k_zh_video"

	service    = "asr"
	apiVersion = "2019-06-14"
	algorithm  = "TC3-HMAC-SHA256"
	jsonType   = "application/json; charset=utf-8"
)

// ErrAPI wraps error responses returned by the service.
var ErrAPI = errors.New("tencent asr api error")

// Config holds credentials and endpoint settings.
type Config struct {
	SecretID  string
	SecretKey string
	Region    string
	Endpoint  string
	Engine    string
}

// Client implements transcribe.Client.
type Client struct {
	cfg    Config
	host   string
	http   *http.Client
	now    func() time.Time
	logger *slog.Logger
}

var _ transcribe.Client = (*Client)(nil)

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithClock replaces time.Now for request signing.
func WithClock(now func() time.Time) Option {
	return func(cl *Client) {
		cl.now = now
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		if logger == nil {
			logger = slog.Default()
		}
		cl.logger = logger
	}
}

// New creates a client. Credentials are required.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.SecretID == "" || cfg.SecretKey == "" {
		return nil, errors.New("tencent asr: secret id and key are required")
	}
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Engine == "" {
		cfg.Engine = DefaultEngine
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")

	c := &Client{
		cfg:    cfg,
		host:   strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://"),
		http:   &http.Client{Timeout: 30 * time.Second},
		now:    time.Now,
		logger: slog.Default().With("component", "tencent-asr"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type apiError struct {
	Code    string `json:"Code"`
	Message string `json:"Message"`
}

type createRecTaskRequest struct {
	EngineModelType string `json:"EngineModelType"`
	ChannelNum      int    `json:"ChannelNum"`
	ResTextFormat   int    `json:"ResTextFormat"`
	SourceType      int    `json:"SourceType"`
	URL             string `json:"Url"`
	FilterDirty     int    `json:"FilterDirty"`
	FilterModal     int    `json:"FilterModal"`
	FilterPunc      int    `json:"FilterPunc"`
	ConvertNumMode  int    `json:"ConvertNumMode"`
}

type createRecTaskResponse struct {
	Response struct {
		Error *apiError `json:"Error"`
		Data  struct {
			TaskID uint64 `json:"TaskId"`
		} `json:"Data"`
		RequestID string `json:"RequestId"`
	} `json:"Response"`
}

type describeTaskStatusRequest struct {
	TaskID uint64 `json:"TaskId"`
}

type describeTaskStatusResponse struct {
	Response struct {
		Error *apiError `json:"Error"`
		Data  struct {
			StatusStr string `json:"StatusStr"`
			Result    string `json:"Result"`
			ErrorMsg  string `json:"ErrorMsg"`
		} `json:"Data"`
	} `json:"Response"`
}

// Submit creates a recognition job for a publicly reachable audio URL.
func (c *Client) Submit(ctx context.Context, audioURL string) (string, error) {
	req := createRecTaskRequest{
		EngineModelType: c.cfg.Engine,
		ChannelNum:      1,
		ResTextFormat:   2,
		SourceType:      0,
		URL:             audioURL,
		ConvertNumMode:  1,
	}
	var resp createRecTaskResponse
	if err := c.call(ctx, "CreateRecTask", req, &resp); err != nil {
		return "", err
	}
	if e := resp.Response.Error; e != nil {
		return "", fmt.Errorf("%w: %s: %s", ErrAPI, e.Code, e.Message)
	}
	id := strconv.FormatUint(resp.Response.Data.TaskID, 10)
	c.logger.Debug("recognition task created", "job", id, "request", resp.Response.RequestID)
	return id, nil
}

// Poll reports the job's state.
func (c *Client) Poll(ctx context.Context, jobID string) (transcribe.Status, error) {
	id, err := strconv.ParseUint(jobID, 10, 64)
	if err != nil {
		return transcribe.Status{}, fmt.Errorf("invalid job id %q: %w", jobID, err)
	}
	var resp describeTaskStatusResponse
	if err := c.call(ctx, "DescribeTaskStatus", describeTaskStatusRequest{TaskID: id}, &resp); err != nil {
		return transcribe.Status{}, err
	}
	if e := resp.Response.Error; e != nil {
		return transcribe.Status{}, fmt.Errorf("%w: %s: %s", ErrAPI, e.Code, e.Message)
	}

	d := resp.Response.Data
	switch d.StatusStr {
	case "success":
		return transcribe.Status{State: transcribe.StateReady, Text: d.Result}, nil
	case "failed":
		return transcribe.Status{State: transcribe.StateFailed, Reason: d.ErrorMsg}, nil
	default:
		return transcribe.Status{State: transcribe.StatePending}, nil
	}
}

func (c *Client) call(ctx context.Context, action string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint+"/", bytes.NewReader(payload))
	if err != nil {
		return err
	}

	ts := c.now().Unix()
	req.Header.Set("Content-Type", jsonType)
	req.Header.Set("X-TC-Action", action)
	req.Header.Set("X-TC-Timestamp", strconv.FormatInt(ts, 10))
	req.Header.Set("X-TC-Version", apiVersion)
	req.Header.Set("X-TC-Region", c.cfg.Region)
	req.Header.Set("Authorization", sign(c.cfg.SecretID, c.cfg.SecretKey, c.host, payload, ts))

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", action, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s: status %d: %s", ErrAPI, action, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", action, err)
	}
	return nil
}

// sign builds the TC3-HMAC-SHA256 Authorization header value.
func sign(secretID, secretKey, host string, payload []byte, ts int64) string {
	date := time.Unix(ts, 0).UTC().Format("2006-01-02")

	canonical := strings.Join([]string{
		http.MethodPost,
		"/",
		"",
		"content-type:" + jsonType + "\nhost:" + host + "\n",
		"content-type;host",
		sha256Hex(payload),
	}, "\n")

	scope := date + "/" + service + "/tc3_request"
	toSign := strings.Join([]string{
		algorithm,
		strconv.FormatInt(ts, 10),
		scope,
		sha256Hex([]byte(canonical)),
	}, "\n")

	key := hmacSHA256([]byte("TC3"+secretKey), date)
	key = hmacSHA256(key, service)
	key = hmacSHA256(key, "tc3_request")
	signature := hex.EncodeToString(hmacSHA256(key, toSign))

	return fmt.Sprintf("%s Credential=%s/%s, SignedHeaders=content-type;host, Signature=%s",
		algorithm, secretID, scope, signature)
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func hmacSHA256(key []byte, msg string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(msg))
	return mac.Sum(nil)
}
