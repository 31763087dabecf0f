// Package dwhook sends messages to Discord webhooks through a pluggable HTTP
// transport, so the same client code runs in native services and in
// Cloudflare Workers.
//
// The client performs exactly one transport call per send and never sleeps or
// retries. Rate limits are surfaced to the caller: a live 429 becomes a
// [*RateLimitedError] with the wait duration, and the advisory
// [RateLimitState] parsed from response headers can be threaded across calls
// to throttle pre-emptively.
package dwhook

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/defrag-au/dwhook/httpx"
)

// StatusError reports a non-2xx, non-429 response. The raw response body is
// preserved for the caller.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook request failed with status %d", e.StatusCode)
}

// Retryable reports whether the failure is worth retrying with backoff.
// Client errors other than 429 are permanent.
func (e *StatusError) Retryable() bool {
	return e.StatusCode >= http.StatusInternalServerError
}

// SendResult is the outcome of a successful send.
type SendResult struct {
	StatusCode int
	// Body is the raw response body, e.g. the created message object when the
	// webhook URL carries wait=true. It is passed through uninterpreted.
	Body []byte
	// RateLimit is the advisory state after this call, for threading into the
	// next [Client.ExecuteWith] against the same webhook.
	RateLimit RateLimitState
}

// Client posts messages to Discord webhooks.
// It is stateless across calls and safe for concurrent use.
type Client struct {
	doer httpx.Doer
	enc  Encoder
	log  *slog.Logger
}

type Option func(*Client)

// WithLogger sets the logger used for state transition events.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// WithMaxAttachmentBytes overrides the combined attachment size limit.
func WithMaxAttachmentBytes(n int64) Option {
	return func(c *Client) {
		c.enc.MaxBytes = n
	}
}

// NewClient returns a new webhook client using the given transport.
func NewClient(d httpx.Doer, opts ...Option) *Client {
	c := &Client{doer: d, log: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute posts a message to the given webhook URL.
//
// On success it returns a [*SendResult]. Failure modes are returned as typed
// errors: [ErrInvalidMessage] wrapped validation errors, [*TooLargeError] and
// [ErrBoundaryExhausted] from encoding, [*httpx.Error] from the transport,
// [*RateLimitedError] for a 429 and [*StatusError] for other non-2xx
// responses. No error is retried internally.
func (c *Client) Execute(ctx context.Context, url string, m Message) (*SendResult, error) {
	return c.ExecuteWith(ctx, url, m, nil)
}

// ExecuteWith is [Client.Execute] with an advisory rate limit state from a
// prior call against the same webhook. The state is never a hard block; an
// exhausted bucket is logged and the request is still attempted, since the
// authoritative signal is the live 429.
func (c *Client) ExecuteWith(ctx context.Context, url string, m Message, prior *RateLimitState) (*SendResult, error) {
	log := c.log.With("url", url)
	if prior != nil && prior.Exceeded(time.Now()) {
		log.Debug("advisory rate limit exhausted", "delay", prior.Delay(time.Now()), "bucket", prior.Bucket)
	}
	if err := m.Validate(); err != nil {
		log.Warn("message rejected before encoding", "error", err)
		return nil, err
	}
	log.Debug("encoding message", "embeds", len(m.Embeds), "attachments", len(m.Attachments))
	body, err := c.enc.Encode(m)
	if err != nil {
		log.Warn("encoding failed", "error", err)
		return nil, err
	}
	log.Debug("sending request", "bytes", len(body.Bytes))
	resp, err := httpx.Post(ctx, c.doer, url, body.ContentType, body.Bytes)
	if err != nil {
		log.Warn("transport failed", "error", err)
		return nil, err
	}
	log.Debug("response received", "status", resp.StatusCode)
	var state RateLimitState
	if prior != nil {
		state = *prior
	}
	if err := state.Update(resp.Header); err != nil {
		log.Error("Failed to update rate limit state from header", "error", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		e := newRateLimitedError(resp.Header, resp.Body)
		log.Warn("rate limited", "retryAfter", e.RetryAfter, "scope", e.Scope)
		return nil, e
	}
	if resp.StatusCode >= http.StatusBadRequest {
		log.Warn("request rejected", "status", resp.StatusCode, "body", string(resp.Body))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: resp.Body}
	}
	log.Debug("message delivered", "status", resp.StatusCode)
	return &SendResult{StatusCode: resp.StatusCode, Body: resp.Body, RateLimit: state}, nil
}
