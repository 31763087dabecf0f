package dwhook

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// MaxAttachmentBytes is the default limit for the combined size of all
// attachments in one message, matching Discord's non-boosted upload tier.
const MaxAttachmentBytes = 8 << 20

const (
	boundaryPrefix   = "DWhookBoundary"
	boundaryAttempts = 3
)

// ErrBoundaryExhausted is returned when no collision free multipart boundary
// could be generated. With random boundaries this is practically unreachable.
var ErrBoundaryExhausted = errors.New("no collision free boundary found")

// TooLargeError reports that the combined attachment size exceeds the limit.
type TooLargeError struct {
	Total int64
	Limit int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf(
		"attachments too large: %s exceeds limit of %s",
		humanize.IBytes(uint64(e.Total)),
		humanize.IBytes(uint64(e.Limit)),
	)
}

// Body is an encoded multipart request body.
// It is produced once per send attempt and never mutated.
type Body struct {
	Boundary    string
	ContentType string
	Bytes       []byte
}

// Encoder turns a [Message] into a multipart/form-data body with a
// payload_json part followed by one files[i] part per attachment.
type Encoder struct {
	// MaxBytes caps the combined attachment size. Zero selects
	// [MaxAttachmentBytes].
	MaxBytes int64
}

type attachmentMeta struct {
	ID       int    `json:"id"`
	Filename string `json:"filename"`
}

type jsonPayload struct {
	Message
	AttachmentMeta []attachmentMeta `json:"attachments,omitempty"`
}

// Encode builds the request body for a message.
// The size limit is checked before anything is written, each call draws a
// fresh boundary, and part order follows attachment insertion order, so that
// embeds can reference attachment://filename URIs by their stable index.
func (enc Encoder) Encode(m Message) (*Body, error) {
	limit := enc.MaxBytes
	if limit <= 0 {
		limit = MaxAttachmentBytes
	}
	var total int64
	for _, a := range m.Attachments {
		total += int64(len(a.Body))
	}
	if total > limit {
		return nil, &TooLargeError{Total: total, Limit: limit}
	}
	boundary, err := newBoundary(m.Attachments)
	if err != nil {
		return nil, err
	}
	p := jsonPayload{Message: m}
	for i, a := range m.Attachments {
		p.AttachmentMeta = append(p.AttachmentMeta, attachmentMeta{ID: i, Filename: a.Filename})
	}
	dat, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("serialize webhook payload: %w", err)
	}
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	if err := w.SetBoundary(boundary); err != nil {
		return nil, fmt.Errorf("set multipart boundary: %w", err)
	}
	ph := make(textproto.MIMEHeader)
	ph.Set("Content-Disposition", `form-data; name="payload_json"`)
	ph.Set("Content-Type", "application/json")
	pw, err := w.CreatePart(ph)
	if err != nil {
		return nil, fmt.Errorf("create payload part: %w", err)
	}
	if _, err := pw.Write(dat); err != nil {
		return nil, fmt.Errorf("write payload part: %w", err)
	}
	for i, a := range m.Attachments {
		ct := a.ContentType
		if ct == "" {
			ct = DetectContentType(a.Filename)
		}
		fh := make(textproto.MIMEHeader)
		fh.Set("Content-Disposition", fmt.Sprintf(
			`form-data; name="files[%d]"; filename="%s"`, i, escapeQuotes(a.Filename),
		))
		fh.Set("Content-Type", ct)
		fw, err := w.CreatePart(fh)
		if err != nil {
			return nil, fmt.Errorf("create part for %s: %w", a.Filename, err)
		}
		if _, err := fw.Write(a.Body); err != nil {
			return nil, fmt.Errorf("write part for %s: %w", a.Filename, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}
	return &Body{
		Boundary:    boundary,
		ContentType: w.FormDataContentType(),
		Bytes:       buf.Bytes(),
	}, nil
}

// newBoundary generates a random boundary token and verifies that its
// delimiter form does not occur inside any attachment.
func newBoundary(attachments []Attachment) (string, error) {
	for attempt := 0; attempt < boundaryAttempts; attempt++ {
		b := boundaryPrefix + "-" + uuid.NewString()
		if !boundaryCollides(b, attachments) {
			return b, nil
		}
	}
	return "", ErrBoundaryExhausted
}

func boundaryCollides(boundary string, attachments []Attachment) bool {
	delim := []byte("--" + boundary)
	for _, a := range attachments {
		if bytes.Contains(a.Body, delim) {
			return true
		}
	}
	return false
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
