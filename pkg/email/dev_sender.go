package email

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const maxDevFilename = 100

// DevSender stores messages on disk for local development. Every message
// becomes <timestamp>_<tag>.html, .txt and .json under dir, so login links
// can be opened without a mail provider.
type DevSender struct {
	dir string
	now func() time.Time
}

// NewDevSender creates dir lazily on the first send.
func NewDevSender(dir string) *DevSender {
	return &DevSender{dir: dir, now: time.Now}
}

type devEnvelope struct {
	Timestamp string `json:"timestamp"`
	SendTo    string `json:"send_to"`
	Subject   string `json:"subject"`
	Tag       string `json:"tag,omitempty"`
}

func (d *DevSender) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrFailedToSendEmail, err)
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrFailedToSendEmail, d.dir, err)
	}

	now := d.now()
	label := params.Tag
	if label == "" {
		label = params.Subject
	}
	base := filepath.Join(d.dir, now.Format("2006_01_02_150405.000")+"_"+devFilename(label))

	meta, err := json.MarshalIndent(devEnvelope{
		Timestamp: now.Format(time.RFC3339),
		SendTo:    params.SendTo,
		Subject:   params.Subject,
		Tag:       params.Tag,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode envelope: %v", ErrFailedToSendEmail, err)
	}

	for ext, body := range map[string][]byte{
		".html": []byte(params.BodyHTML),
		".txt":  []byte(params.BodyText),
		".json": meta,
	} {
		if len(body) == 0 {
			continue
		}
		if err := os.WriteFile(base+ext, body, 0o644); err != nil {
			return fmt.Errorf("%w: write %s: %v", ErrFailedToSendEmail, ext, err)
		}
	}
	return nil
}

// devFilename keeps ASCII letters, digits, '-', '_' and '.', turning spaces
// into underscores and dropping the rest.
func devFilename(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r == ' ':
			return '_'
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return -1
	}, s)
	if len(s) > maxDevFilename {
		s = s[:maxDevFilename]
	}
	if s == "" {
		return "email"
	}
	return strings.ToLower(s)
}
