// Package httpx provides a minimal HTTP transport abstraction that behaves
// identically on native builds and inside a Cloudflare Worker.
//
// Callers depend on the [Doer] interface only. The concrete backend is chosen
// by build constraints: native builds get a net/http based client, js/wasm
// builds get a client backed by the Workers fetch API.
package httpx

import (
	"context"
	"fmt"
	"net/http"
)

// Request describes a single outbound HTTP request.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response is the fully buffered result of a request.
// Header lookups are case-insensitive.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Doer issues a single HTTP request and returns the buffered response.
// Failures are reported as [*Error].
type Doer interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// ErrorKind classifies transport failures.
type ErrorKind uint

const (
	ErrConnection ErrorKind = iota
	ErrTimeout
	ErrMalformed
	ErrUnsupported
)

func (k ErrorKind) String() string {
	switch k {
	case ErrConnection:
		return "connection"
	case ErrTimeout:
		return "timeout"
	case ErrMalformed:
		return "malformed"
	case ErrUnsupported:
		return "unsupported"
	}
	panic("not implemented")
}

// Error is a transport failure with its classification.
type Error struct {
	Kind ErrorKind
	URL  string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error for %s: %v", e.Kind, e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Post sends a POST request with the given content type and body.
func Post(ctx context.Context, d Doer, url, contentType string, body []byte) (*Response, error) {
	h := make(http.Header)
	h.Set("Content-Type", contentType)
	return d.Do(ctx, &Request{Method: http.MethodPost, URL: url, Header: h, Body: body})
}
