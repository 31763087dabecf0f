//go:build !js

package httpx

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"
)

const timeoutDefault = 30 * time.Second

// Client is the native transport backend. It wraps a [http.Client], which
// callers can tune for timeouts, proxies and TLS.
type Client struct {
	hc *http.Client
}

// NewClient returns a native transport using the given HTTP client.
// A nil client selects a default with a 30s timeout.
func NewClient(hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: timeoutDefault}
	}
	return &Client{hc: hc}
}

func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	hr, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, &Error{Kind: ErrUnsupported, URL: req.URL, Err: err}
	}
	for k, vs := range req.Header {
		hr.Header[k] = vs
	}
	resp, err := c.hc.Do(hr)
	if err != nil {
		return nil, classify(req.URL, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: ErrMalformed, URL: req.URL, Err: err}
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

func classify(url string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: ErrTimeout, URL: url, Err: err}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &Error{Kind: ErrTimeout, URL: url, Err: err}
	}
	return &Error{Kind: ErrConnection, URL: url, Err: err}
}
