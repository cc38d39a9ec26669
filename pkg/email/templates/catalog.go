package templates

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Message identifiers in the catalog.
const (
	MessageLogin             = "login"
	MessageInvitation        = "invitation"
	MessageUnsupportedMethod = "unsupported_method"
)

var (
	ErrUnknownMessage = errors.New("templates: unknown message")
	ErrInvalidCatalog = errors.New("templates: invalid catalog")
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Entry is the text of one message. Every string may contain placeholders.
type Entry struct {
	Subject  string   `yaml:"subject"`
	Greeting string   `yaml:"greeting"`
	Intro    []string `yaml:"intro"`
	Action   string   `yaml:"action"`
	Outro    []string `yaml:"outro"`
}

// Data fills the placeholders of an Entry.
type Data struct {
	FullName string
	SiteName string
	Link     string
	Admin    string
	ResetURL string
	Expires  string
}

func (d Data) replacer() *strings.Replacer {
	return strings.NewReplacer(
		"{fullname}", d.FullName,
		"{sitename}", d.SiteName,
		"{link}", d.Link,
		"{admin}", d.Admin,
		"{reset_url}", d.ResetURL,
		"{expires}", d.Expires,
	)
}

// Rendered is a ready-to-send message.
type Rendered struct {
	Subject string
	HTML    string
	Text    string
}

// Catalog maps message identifiers to their text.
type Catalog struct {
	entries map[string]Entry
}

// ParseCatalog reads a YAML catalog. Every entry needs a subject.
func ParseCatalog(raw []byte) (*Catalog, error) {
	var entries map[string]Entry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, errors.Join(ErrInvalidCatalog, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no messages", ErrInvalidCatalog)
	}
	for id, e := range entries {
		if strings.TrimSpace(e.Subject) == "" {
			return nil, fmt.Errorf("%w: message %q has no subject", ErrInvalidCatalog, id)
		}
	}
	return &Catalog{entries: entries}, nil
}

// DefaultCatalog returns the built-in English catalog.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return c
}

// Entry returns the raw entry for id.
func (c *Catalog) Entry(id string) (Entry, bool) {
	e, ok := c.entries[id]
	return e, ok
}

// Render substitutes data into message id and renders both bodies.
// The call-to-action points at data.Link, or data.ResetURL for the
// unsupported-method notice.
func (c *Catalog) Render(ctx context.Context, id string, data Data) (Rendered, error) {
	e, ok := c.entries[id]
	if !ok {
		return Rendered{}, fmt.Errorf("%w: %s", ErrUnknownMessage, id)
	}

	r := data.replacer()
	msg := Entry{
		Subject:  r.Replace(e.Subject),
		Greeting: r.Replace(e.Greeting),
		Action:   r.Replace(e.Action),
		Intro:    replaceAll(r, e.Intro),
		Outro:    replaceAll(r, e.Outro),
	}

	href := data.Link
	if id == MessageUnsupportedMethod {
		href = data.ResetURL
	}

	html, err := Render(ctx, Message(msg, href))
	if err != nil {
		return Rendered{}, err
	}

	return Rendered{
		Subject: msg.Subject,
		HTML:    html,
		Text:    PlainText(msg, href),
	}, nil
}

func replaceAll(r *strings.Replacer, in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = r.Replace(s)
	}
	return out
}
