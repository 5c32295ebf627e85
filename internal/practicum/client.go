// Package practicum talks to the homework-status API: one GET per poll
// iteration, plus shape validation of the response.
package practicum

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"hwbot/pkg/logx"
)

const (
	// DefaultEndpoint is the production homework-status URL.
	DefaultEndpoint = "https://practicum.yandex.ru/api/user_api/homework_statuses/"

	defaultTimeout = 10 * time.Second

	// maxBodyBytes bounds how much of a response we are willing to read.
	maxBodyBytes = 1 << 20
)

type Config struct {
	Endpoint string
	Token    string
	Timeout  time.Duration
}

// Client issues a single blocking GET per call. It performs no retries;
// retry granularity is the caller's iteration, not the request.
type Client struct {
	mu       sync.Mutex
	endpoint string
	token    string
	http     *http.Client
	log      logx.Logger
}

func NewClient(cfg Config, log logx.Logger) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{
		endpoint: endpoint,
		token:    cfg.Token,
		http:     &http.Client{Timeout: timeout},
		log:      log,
	}
}

// Apply updates the client settings at runtime. Zero-valued fields keep
// their current values.
func (c *Client) Apply(cfg Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cfg.Endpoint != "" {
		c.endpoint = cfg.Endpoint
	}
	if cfg.Token != "" {
		c.token = cfg.Token
	}
	if cfg.Timeout > 0 && cfg.Timeout != c.http.Timeout {
		// Swap the whole client; in-flight requests keep the old one.
		c.http = &http.Client{Timeout: cfg.Timeout}
	}
}

// Fetch requests homework statuses changed since the given unix timestamp
// and returns the raw JSON body. Failure modes:
//
//   - *TransportError: network-level failure
//   - *UnexpectedStatusError: HTTP status other than 200
//   - *MalformedPayloadError: body is not valid JSON
func (c *Client) Fetch(ctx context.Context, since int64) (json.RawMessage, error) {
	c.mu.Lock()
	endpoint, token, hc := c.endpoint, c.token, c.http
	c.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	q := url.Values{}
	q.Set("from_date", strconv.FormatInt(since, 10))
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Authorization", "OAuth "+token)

	resp, err := hc.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	c.log.Debug("status api response",
		logx.Int("http_status", resp.StatusCode),
		logx.Int64("from_date", since))

	if resp.StatusCode != http.StatusOK {
		return nil, &UnexpectedStatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if !json.Valid(body) {
		return nil, &MalformedPayloadError{Err: errInvalidJSON(body)}
	}
	return json.RawMessage(body), nil
}

func errInvalidJSON(body []byte) error {
	var v any
	return json.Unmarshal(body, &v)
}
