//go:build js && wasm

package httpx

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/syumai/workers/cloudflare/fetch"
)

// Client is the transport backend for Cloudflare Workers, built on the
// runtime's fetch API. The js/wasm target has no dialer level control, so
// timeouts are driven by the request context.
type Client struct {
	fc *fetch.Client
}

// NewClient returns a worker transport. The argument exists for signature
// parity with the native backend and is ignored, as the fetch API owns all
// connection handling inside the worker runtime.
func NewClient(_ *http.Client) *Client {
	return &Client{fc: fetch.NewClient()}
}

func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	fr, err := fetch.NewRequest(ctx, req.Method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, &Error{Kind: ErrUnsupported, URL: req.URL, Err: err}
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			fr.Header.Set(k, v)
		}
	}
	resp, err := c.fc.Do(fr, nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &Error{Kind: ErrTimeout, URL: req.URL, Err: err}
		}
		return nil, &Error{Kind: ErrConnection, URL: req.URL, Err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: ErrMalformed, URL: req.URL, Err: err}
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}
