package templates

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// Layout wraps body in a minimal table-based email shell with inline styles.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!DOCTYPE html><html><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>`+
			templ.EscapeString(title)+
			`</title></head><body style="margin:0;padding:0;background:#f4f4f5;font-family:Helvetica,Arial,sans-serif;">`+
			`<table role="presentation" width="100%" cellpadding="0" cellspacing="0"><tr><td align="center" style="padding:24px;">`+
			`<table role="presentation" width="560" cellpadding="0" cellspacing="0" style="background:#ffffff;border-radius:8px;padding:32px;">`+
			`<tr><td>`); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</td></tr></table></td></tr></table></body></html>`)
		return err
	})
}

// Text renders a paragraph.
func Text(s string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<p style="margin:0 0 16px;color:#18181b;font-size:16px;line-height:24px;">`+templ.EscapeString(s)+`</p>`)
		return err
	})
}

// TextSecondary renders a muted paragraph.
func TextSecondary(s string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<p style="margin:0 0 12px;color:#71717a;font-size:14px;line-height:20px;">`+templ.EscapeString(s)+`</p>`)
		return err
	})
}

// PrimaryButton renders a call-to-action link styled as a button.
// Unsafe URL schemes are neutralised by templ.URL.
func PrimaryButton(label, href string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<p style="margin:24px 0;"><a href="`+
			templ.EscapeString(string(templ.URL(href)))+
			`" style="display:inline-block;background:#2563eb;color:#ffffff;text-decoration:none;padding:12px 24px;border-radius:6px;font-weight:bold;">`+
			templ.EscapeString(label)+`</a></p>`)
		return err
	})
}

// Message composes an Entry with its call-to-action into a full email.
func Message(e Entry, href string) templ.Component {
	parts := make([]templ.Component, 0, len(e.Intro)+len(e.Outro)+3)
	if e.Greeting != "" {
		parts = append(parts, Text(e.Greeting))
	}
	for _, p := range e.Intro {
		parts = append(parts, Text(p))
	}
	if href != "" && e.Action != "" {
		parts = append(parts, PrimaryButton(e.Action, href), TextSecondary(href))
	}
	for _, p := range e.Outro {
		parts = append(parts, TextSecondary(p))
	}
	return Layout(e.Subject, templ.Join(parts...))
}

// PlainText renders the text/plain alternative of a message.
func PlainText(e Entry, href string) string {
	var b strings.Builder
	write := func(s string) {
		if s == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(s)
	}

	write(e.Greeting)
	for _, p := range e.Intro {
		write(p)
	}
	if href != "" {
		write(e.Action + ":\n" + href)
	}
	for _, p := range e.Outro {
		write(p)
	}
	return b.String()
}
