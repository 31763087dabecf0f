package dwhook_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/defrag-au/dwhook"
	"github.com/defrag-au/dwhook/httpx"
)

func TestClientExecute(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	ctx := context.Background()
	url := "https://discord.com/api/webhooks/123/token"
	newClient := func() *dwhook.Client {
		return dwhook.NewClient(httpx.NewClient(http.DefaultClient))
	}
	t.Run("can post a message", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponder(
			"POST",
			url,
			httpmock.NewStringResponder(204, ""),
		)
		c := newClient()
		res, err := c.Execute(ctx, url, dwhook.Message{Content: "content"})
		if assert.NoError(t, err) {
			assert.Equal(t, 204, res.StatusCode)
			assert.Equal(t, 1, httpmock.GetTotalCallCount())
		}
	})
	t.Run("can post a message with attachments", func(t *testing.T) {
		httpmock.Reset()
		var contentType string
		httpmock.RegisterResponder("POST", url, func(req *http.Request) (*http.Response, error) {
			contentType = req.Header.Get("Content-Type")
			return httpmock.NewStringResponse(200, `{"id":"456"}`), nil
		})
		c := newClient()
		m := dwhook.Message{
			Content: "content",
			Attachments: []dwhook.Attachment{
				{Filename: "image.png", Body: []byte("fakepng")},
			},
		}
		res, err := c.Execute(ctx, url, m)
		if assert.NoError(t, err) {
			assert.Equal(t, []byte(`{"id":"456"}`), res.Body)
			assert.Contains(t, contentType, "multipart/form-data; boundary=")
		}
	})
	t.Run("should return http 429 as RateLimitedError", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponder(
			"POST",
			url,
			httpmock.NewJsonResponderOrPanic(429,
				map[string]any{
					"message":     "You are being rate limited.",
					"retry_after": 64.57,
					"global":      true,
				}).HeaderSet(http.Header{"Retry-After": []string{"2.5"}}),
		)
		c := newClient()
		_, err := c.Execute(ctx, url, dwhook.Message{Content: "content"})
		var rle *dwhook.RateLimitedError
		if assert.ErrorAs(t, err, &rle) {
			assert.Equal(t, 2500*time.Millisecond, rle.RetryAfter)
			assert.Equal(t, dwhook.ScopeGlobal, rle.Scope)
			assert.Equal(t, 1, httpmock.GetTotalCallCount())
		}
	})
	t.Run("should return http 400 as StatusError preserving the body", func(t *testing.T) {
		httpmock.Reset()
		errBody := `{"code": 50006, "message": "Cannot send an empty message"}`
		httpmock.RegisterResponder(
			"POST",
			url,
			httpmock.NewStringResponder(400, errBody),
		)
		c := newClient()
		_, err := c.Execute(ctx, url, dwhook.Message{Content: "content"})
		var serr *dwhook.StatusError
		if assert.ErrorAs(t, err, &serr) {
			assert.Equal(t, 400, serr.StatusCode)
			assert.Equal(t, []byte(errBody), serr.Body)
			assert.False(t, serr.Retryable())
		}
	})
	t.Run("should return http 500 as retryable StatusError", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponder(
			"POST",
			url,
			httpmock.NewStringResponder(502, "bad gateway"),
		)
		c := newClient()
		_, err := c.Execute(ctx, url, dwhook.Message{Content: "content"})
		var serr *dwhook.StatusError
		if assert.ErrorAs(t, err, &serr) {
			assert.True(t, serr.Retryable())
		}
	})
	t.Run("should thread rate limit state across calls", func(t *testing.T) {
		httpmock.Reset()
		header := http.Header{}
		header.Set("X-RateLimit-Limit", "5")
		header.Set("X-RateLimit-Remaining", "3")
		header.Set("X-RateLimit-Reset", "1470173023")
		header.Set("X-RateLimit-Reset-After", "1.2")
		header.Set("X-RateLimit-Bucket", "abcd1234")
		httpmock.RegisterResponder(
			"POST",
			url,
			httpmock.NewStringResponder(204, "").HeaderSet(header),
		)
		c := newClient()
		res, err := c.Execute(ctx, url, dwhook.Message{Content: "content"})
		require.NoError(t, err)
		assert.True(t, res.RateLimit.IsSet())
		assert.Equal(t, "abcd1234", res.RateLimit.Bucket)
		assert.Equal(t, 3, res.RateLimit.Remaining)
		res2, err := c.ExecuteWith(ctx, url, dwhook.Message{Content: "again"}, &res.RateLimit)
		require.NoError(t, err)
		assert.Equal(t, 2, res2.RateLimit.Remaining)
	})
}

// fakeDoer records invocations so tests can assert that no transport call
// happened.
type fakeDoer struct {
	calls int
	resp  *httpx.Response
	err   error
}

func (f *fakeDoer) Do(ctx context.Context, req *httpx.Request) (*httpx.Response, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func TestClientExecuteNoNetwork(t *testing.T) {
	ctx := context.Background()
	url := "https://discord.com/api/webhooks/123/token"
	t.Run("oversized attachments never reach the transport", func(t *testing.T) {
		d := &fakeDoer{}
		c := dwhook.NewClient(d, dwhook.WithMaxAttachmentBytes(10))
		m := dwhook.Message{
			Content: "content",
			Attachments: []dwhook.Attachment{
				{Filename: "big.png", Body: []byte("this is more than ten bytes")},
			},
		}
		_, err := c.Execute(ctx, url, m)
		var tooLarge *dwhook.TooLargeError
		if assert.ErrorAs(t, err, &tooLarge) {
			assert.Equal(t, 0, d.calls)
		}
	})
	t.Run("invalid messages never reach the transport", func(t *testing.T) {
		d := &fakeDoer{}
		c := dwhook.NewClient(d)
		_, err := c.Execute(ctx, url, dwhook.Message{})
		if assert.ErrorIs(t, err, dwhook.ErrInvalidMessage) {
			assert.Equal(t, 0, d.calls)
		}
	})
	t.Run("transport errors pass through unwrapped", func(t *testing.T) {
		d := &fakeDoer{err: &httpx.Error{Kind: httpx.ErrTimeout, URL: url}}
		c := dwhook.NewClient(d)
		_, err := c.Execute(ctx, url, dwhook.Message{Content: "content"})
		var terr *httpx.Error
		if assert.ErrorAs(t, err, &terr) {
			assert.Equal(t, httpx.ErrTimeout, terr.Kind)
			assert.Equal(t, 1, d.calls)
		}
	})
	t.Run("sends exactly one request per call", func(t *testing.T) {
		d := &fakeDoer{resp: &httpx.Response{StatusCode: 204, Header: http.Header{}}}
		c := dwhook.NewClient(d)
		_, err := c.Execute(ctx, url, dwhook.Message{Content: "content"})
		require.NoError(t, err)
		assert.Equal(t, 1, d.calls)
	})
}
