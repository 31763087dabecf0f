package dwhook

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const retryAfterDefault = 60 * time.Second

// RateLimitScope distinguishes which bucket a 429 applies to.
type RateLimitScope uint

const (
	// ScopeRoute limits the webhook route that was called.
	ScopeRoute RateLimitScope = iota
	// ScopeGlobal limits all requests from this client.
	ScopeGlobal
	// ScopeShared limits a resource shared with other clients.
	ScopeShared
)

func (s RateLimitScope) String() string {
	switch s {
	case ScopeRoute:
		return "route"
	case ScopeGlobal:
		return "global"
	case ScopeShared:
		return "shared"
	}
	panic("not implemented")
}

// RateLimitedError reports a live 429 from the service.
// It is a distinct terminal outcome rather than a generic HTTP failure,
// so callers can treat it as "retry later".
type RateLimitedError struct {
	RetryAfter time.Duration
	Scope      RateLimitScope
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("%s rate limited, retry after %v", e.Scope, e.RetryAfter)
}

// RateLimitState is the advisory rate limit bookkeeping derived from
// "X-RateLimit-" response headers. It is caller owned and passed by value
// across calls to the same webhook. The authoritative signal remains a live
// 429 response.
type RateLimitState struct {
	Limit      int
	Remaining  int
	ResetAt    time.Time
	ResetAfter float64
	Bucket     string
	Observed   time.Time
}

func (s RateLimitState) String() string {
	return fmt.Sprintf(
		"limit:%d remaining:%d reset:%s resetAfter:%f",
		s.Limit,
		s.Remaining,
		s.ResetAt, time.Until(s.ResetAt).Seconds(),
	)
}

// IsSet reports whether the state has ever been derived from a response.
func (s RateLimitState) IsSet() bool {
	return !s.Observed.IsZero()
}

// Exceeded reports whether the known bucket is exhausted at the given time.
func (s RateLimitState) Exceeded(now time.Time) bool {
	if !s.IsSet() {
		return false
	}
	if s.Remaining > 0 {
		return false
	}
	if s.ResetAt.Before(now) {
		return false
	}
	return true
}

// Delay returns the advisory wait until the bucket resets, or 0.
func (s RateLimitState) Delay(now time.Time) time.Duration {
	if !s.Exceeded(now) {
		return 0
	}
	return roundUpDuration(s.ResetAt.Sub(now), time.Second)
}

// Update merges the rate limit headers of a fresh response into the state.
// A response about the already known reset period only decrements the
// remaining counter, a new period replaces the state.
func (s *RateLimitState) Update(h http.Header) error {
	if s.Remaining > 0 {
		s.Remaining--
	}
	s2, err := stateFromHeader(h)
	if err != nil {
		return err
	}
	if !s2.IsSet() {
		return nil
	}
	if s2.Bucket == s.Bucket && s2.ResetAt == s.ResetAt {
		return nil
	}
	*s = s2
	return nil
}

func stateFromHeader(h http.Header) (RateLimitState, error) {
	var r RateLimitState
	var err error
	limit := h.Get("X-RateLimit-Limit")
	if limit == "" {
		return r, nil
	}
	remaining := h.Get("X-RateLimit-Remaining")
	if remaining == "" {
		return r, nil
	}
	reset := h.Get("X-RateLimit-Reset")
	if reset == "" {
		return r, nil
	}
	resetAfter := h.Get("X-RateLimit-Reset-After")
	if resetAfter == "" {
		return r, nil
	}
	bucket := h.Get("X-RateLimit-Bucket")
	if bucket == "" {
		return r, nil
	}
	r.Limit, err = strconv.Atoi(limit)
	if err != nil {
		return r, err
	}
	r.Remaining, err = strconv.Atoi(remaining)
	if err != nil {
		return r, err
	}
	resetEpoch, err := strconv.ParseFloat(reset, 64)
	if err != nil {
		return r, err
	}
	r.ResetAt = time.Unix(int64(resetEpoch), 0).UTC()
	r.ResetAfter, err = strconv.ParseFloat(resetAfter, 64)
	if err != nil {
		return r, err
	}
	r.Bucket = bucket
	r.Observed = time.Now().UTC()
	return r, nil
}

// rateLimitBody is the JSON body Discord sends along with a 429.
type rateLimitBody struct {
	Message    string  `json:"message"`
	RetryAfter float64 `json:"retry_after"`
	Global     bool    `json:"global"`
}

// newRateLimitedError derives the terminal 429 outcome from a response.
// The Retry-After header (possibly fractional seconds) is authoritative,
// the JSON body is the fallback, and an unparsable response assumes the
// default wait.
func newRateLimitedError(h http.Header, body []byte) *RateLimitedError {
	e := &RateLimitedError{RetryAfter: retryAfterDefault, Scope: ScopeRoute}
	var rb rateLimitBody
	hasBody := json.Unmarshal(body, &rb) == nil
	if f, err := strconv.ParseFloat(h.Get("Retry-After"), 64); err == nil {
		e.RetryAfter = secondsToDuration(f)
	} else if hasBody && rb.RetryAfter > 0 {
		e.RetryAfter = secondsToDuration(rb.RetryAfter)
	}
	switch strings.ToLower(h.Get("X-RateLimit-Scope")) {
	case "global":
		e.Scope = ScopeGlobal
	case "shared":
		e.Scope = ScopeShared
	}
	if e.Scope == ScopeRoute && (h.Get("X-RateLimit-Global") != "" || (hasBody && rb.Global)) {
		e.Scope = ScopeGlobal
	}
	return e
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// roundUpDuration rounds d up to the next multiple of m.
func roundUpDuration(d time.Duration, m time.Duration) time.Duration {
	x := d.Round(m)
	if x < d {
		return x + m
	}
	return x
}
