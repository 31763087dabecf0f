package dwhook_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/defrag-au/dwhook"
)

func TestMessageValidate(t *testing.T) {
	cases := []struct {
		m  dwhook.Message
		ok bool
	}{
		{dwhook.Message{Content: "content"}, true},
		{dwhook.Message{}, false},
		{dwhook.Message{Embeds: []dwhook.Embed{{Description: "description"}}}, true},
		{dwhook.Message{Embeds: []dwhook.Embed{{Timestamp: "invalid"}}}, false},
		{dwhook.Message{Embeds: []dwhook.Embed{{Timestamp: "2006-01-02T15:04:05Z"}}}, true},
		{dwhook.Message{Content: makeStr(2001)}, false},
		{dwhook.Message{Content: "x", Username: makeStr(81)}, false},
		{dwhook.Message{Embeds: []dwhook.Embed{{Description: makeStr(4097)}}}, false},
		{
			dwhook.Message{Embeds: []dwhook.Embed{
				{Description: makeStr(4096)},
				{Description: makeStr(4096)},
			}},
			false,
		},
		{
			dwhook.Message{
				Content:     "content",
				Attachments: []dwhook.Attachment{{Filename: "image.png", Body: []byte("abc")}},
			},
			true,
		},
		{
			dwhook.Message{
				Content:     "content",
				Attachments: []dwhook.Attachment{{Filename: "", Body: []byte("abc")}},
			},
			false,
		},
		{
			dwhook.Message{
				Content:     "content",
				Attachments: []dwhook.Attachment{{Filename: "image.png"}},
			},
			false,
		},
	}
	for i, tc := range cases {
		t.Run(fmt.Sprintf("validate message #%d", i+1), func(t *testing.T) {
			err := tc.m.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, dwhook.ErrInvalidMessage)
			}
		})
	}
}

func TestDetectContentType(t *testing.T) {
	cases := []struct {
		filename string
		want     string
	}{
		{"image.png", "image/png"},
		{"IMAGE.PNG", "image/png"},
		{"photo.jpg", "image/jpeg"},
		{"photo.jpeg", "image/jpeg"},
		{"anim.gif", "image/gif"},
		{"pic.webp", "image/webp"},
		{"report.pdf", "application/octet-stream"},
		{"noext", "application/octet-stream"},
	}
	for _, tc := range cases {
		t.Run(tc.filename, func(t *testing.T) {
			assert.Equal(t, tc.want, dwhook.DetectContentType(tc.filename))
		})
	}
}

func TestAttachmentRef(t *testing.T) {
	assert.Equal(t, "attachment://image.png", dwhook.AttachmentRef("image.png"))
}

func makeStr(n int) string {
	return strings.Repeat("x", n)
}
