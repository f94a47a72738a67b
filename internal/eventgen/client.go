package eventgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"github.com/okian/hltjet/internal/domain/model"
	"github.com/okian/hltjet/pkg/logger"
)

// Retry tuning.
const (
	retryDelay    = 50 * time.Millisecond
	retryMaxDelay = 2 * time.Second
	pollDelay     = 20 * time.Millisecond
	pollMaxDelay  = 500 * time.Millisecond
)

// Client talks to the producer service. Requests answered with 429 or a
// 5xx status, and transport failures, are retried with jittered backoff.
type Client struct {
	baseURL  string
	client   *http.Client
	attempts uint
	logger   logger.Logger
}

// NewClient creates a client for baseURL.
func NewClient(baseURL string, timeout time.Duration, attempts uint) *Client {
	if attempts == 0 {
		attempts = 1
	}
	return &Client{
		baseURL:  baseURL,
		client:   &http.Client{Timeout: timeout},
		attempts: attempts,
		logger:   logger.Get().Named("eventgen-client"),
	}
}

type response struct {
	status int
	body   []byte
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// do sends one request, retrying transport failures and the statuses
// retryOn accepts. Other statuses are returned to the caller as they are.
func (c *Client) do(ctx context.Context, method, path string, body []byte, retryOn func(int) bool, opts ...retry.Option) (response, error) {
	var out response
	url := c.baseURL + path

	attempt := func() error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		payload, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		out = response{status: resp.StatusCode, body: payload}
		if retryOn(resp.StatusCode) {
			return fmt.Errorf("%s %s: %w %d", method, path, ErrStatus, resp.StatusCode)
		}
		return nil
	}

	options := []retry.Option{
		retry.Attempts(c.attempts),
		retry.Delay(retryDelay),
		retry.MaxDelay(retryMaxDelay),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug(ctx, "retrying request",
				logger.String("path", path),
				logger.Int("attempt", int(n)+1),
				logger.Error(err))
		}),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	}
	err := retry.Do(attempt, append(options, opts...)...)
	return out, err
}

// Health checks that the service answers its metrics endpoint.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/healthz", nil, retryable)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	if resp.status != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.status)
	}
	return nil
}

// PostEvent submits one event. A duplicate is not an error.
func (c *Client) PostEvent(ctx context.Context, ev *model.Event) (AckResponse, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return AckResponse{}, fmt.Errorf("marshal event %s: %w", ev.EventKey, err)
	}
	resp, err := c.do(ctx, http.MethodPost, "/events", body, retryable)
	if err != nil {
		return AckResponse{}, err
	}
	if resp.status != http.StatusAccepted && resp.status != http.StatusOK {
		return AckResponse{}, fmt.Errorf("post %s: %w %d: %s", ev.EventKey, ErrStatus, resp.status, bytes.TrimSpace(resp.body))
	}
	var ack AckResponse
	if err := json.Unmarshal(resp.body, &ack); err != nil {
		return AckResponse{}, fmt.Errorf("decode ack: %w", err)
	}
	return ack, nil
}

// Products fetches the products of an event, polling until they appear or
// settle elapses.
func (c *Client) Products(ctx context.Context, key model.EventKey, settle time.Duration) (*model.Products, error) {
	ctx, cancel := context.WithTimeout(ctx, settle)
	defer cancel()

	path := fmt.Sprintf("/products/%d/%d/%d", key.Run, key.Lumi, key.Event)
	pending := func(status int) bool {
		return status == http.StatusNotFound || retryable(status)
	}
	resp, err := c.do(ctx, http.MethodGet, path, nil, pending,
		retry.Attempts(uint(settle/pollMaxDelay)+c.attempts+8),
		retry.Delay(pollDelay),
		retry.MaxDelay(pollMaxDelay),
		retry.DelayType(retry.BackOffDelay),
	)
	if err != nil {
		return nil, err
	}
	if resp.status != http.StatusOK {
		return nil, fmt.Errorf("get %s: %w %d", key, ErrStatus, resp.status)
	}
	var p model.Products
	if err := json.Unmarshal(resp.body, &p); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return &p, nil
}
