package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrymomot/magicauth/pkg/email"
	"github.com/dmitrymomot/magicauth/pkg/email/templates"
	"github.com/dmitrymomot/magicauth/pkg/logger"
	"github.com/dmitrymomot/magicauth/pkg/loginlink"
	"github.com/dmitrymomot/magicauth/pkg/validator"
)

// LinkBuilder turns secrets into absolute URLs under the site base URL.
type LinkBuilder struct {
	base *url.URL
}

// NewLinkBuilder validates baseURL, which must be an absolute http(s) URL.
func NewLinkBuilder(baseURL string) (*LinkBuilder, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if err := validator.Apply(
		validator.ValidURLWithScheme("base_url", baseURL, []string{"http", "https"}),
	); err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	return &LinkBuilder{base: u}, nil
}

// URL returns <base>/login?key=<secret> or <base>/invitation?key=<secret>.
func (b *LinkBuilder) URL(kind loginlink.Kind, secret string) string {
	u := b.base.JoinPath(string(kind))
	u.RawQuery = url.Values{"key": {secret}}.Encode()
	return u.String()
}

// Dispatcher renders link emails from the catalog and hands them to a Messenger.
type Dispatcher struct {
	messenger      Messenger
	links          *LinkBuilder
	policy         Policy
	catalog        *templates.Catalog
	siteName       string
	supportContact string
	resetURL       string
	logger         *slog.Logger
}

type DispatcherOption func(*Dispatcher)

// WithCatalog replaces the built-in message catalog.
func WithCatalog(c *templates.Catalog) DispatcherOption {
	return func(d *Dispatcher) {
		if c != nil {
			d.catalog = c
		}
	}
}

func WithSiteName(name string) DispatcherOption {
	return func(d *Dispatcher) {
		d.siteName = name
	}
}

// WithSupportContact sets who users are told to contact for help.
func WithSupportContact(contact string) DispatcherOption {
	return func(d *Dispatcher) {
		d.supportContact = contact
	}
}

// WithPasswordResetURL sets the link in the unsupported-method notice.
func WithPasswordResetURL(u string) DispatcherOption {
	return func(d *Dispatcher) {
		d.resetURL = u
	}
}

func WithDispatcherLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDispatcher creates a Dispatcher. The link builder decides where links point.
func NewDispatcher(messenger Messenger, links *LinkBuilder, policy Policy, opts ...DispatcherOption) *Dispatcher {
	if messenger == nil || links == nil {
		panic("auth: messenger and link builder are required")
	}
	d := &Dispatcher{
		messenger: messenger,
		links:     links,
		policy:    policy,
		catalog:   templates.DefaultCatalog(),
		siteName:  links.base.Host,
		logger:    logger.Noop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.supportContact == "" {
		d.supportContact = d.siteName
	}
	return d
}

// LinkURL returns the URL the user has to open for secret.
func (d *Dispatcher) LinkURL(kind loginlink.Kind, secret string) string {
	return d.links.URL(kind, secret)
}

// Dispatch sends the login or invitation email for secret.
// Delivery errors wrap ErrDeliveryFailed; the issued link stays valid.
func (d *Dispatcher) Dispatch(ctx context.Context, user *User, kind loginlink.Kind, secret string) error {
	var id string
	switch kind {
	case loginlink.KindLogin:
		id = templates.MessageLogin
	case loginlink.KindInvitation:
		id = templates.MessageInvitation
	default:
		return loginlink.ErrInvalidKind
	}

	return d.send(ctx, user, id, templates.Data{
		Link:    d.links.URL(kind, secret),
		Expires: humanizeDuration(d.policy.TTL(kind)),
	})
}

// NotifyUnsupportedMethod tells the user their account signs in some other way.
func (d *Dispatcher) NotifyUnsupportedMethod(ctx context.Context, user *User) error {
	return d.send(ctx, user, templates.MessageUnsupportedMethod, templates.Data{
		ResetURL: d.resetURL,
	})
}

func (d *Dispatcher) send(ctx context.Context, user *User, id string, data templates.Data) error {
	data.FullName = user.FullName()
	data.SiteName = d.siteName
	data.Admin = d.supportContact

	msg, err := d.catalog.Render(ctx, id, data)
	if err != nil {
		return fmt.Errorf("render %s message: %w", id, err)
	}

	if err := d.messenger.Send(ctx, Message{
		To:      user.Email,
		Subject: msg.Subject,
		Text:    msg.Text,
		HTML:    msg.HTML,
		Tag:     "magic-" + id,
	}); err != nil {
		d.logger.ErrorContext(ctx, "failed to send magic link email",
			logger.UserID(user.ID),
			logger.Email(user.Email),
			logger.Event(id),
			logger.Error(err),
			logger.Component("dispatcher"),
		)
		return errors.Join(ErrDeliveryFailed, err)
	}

	d.logger.DebugContext(ctx, "magic link email sent",
		logger.UserID(user.ID),
		logger.Event(id),
		logger.Component("dispatcher"),
	)
	return nil
}

// humanizeDuration renders a lifetime the way people say it: "4 hours", "7 days".
func humanizeDuration(d time.Duration) string {
	unit := func(n int64, name string) string {
		if n == 1 {
			return "1 " + name
		}
		return fmt.Sprintf("%d %ss", n, name)
	}
	switch {
	case d >= 24*time.Hour && d%(24*time.Hour) == 0:
		return unit(int64(d/(24*time.Hour)), "day")
	case d >= time.Hour && d%time.Hour == 0:
		return unit(int64(d/time.Hour), "hour")
	case d >= time.Minute:
		return unit(int64(d/time.Minute), "minute")
	default:
		return unit(int64(d/time.Second), "second")
	}
}

// EmailMessenger sends messages through an email.EmailSender.
type EmailMessenger struct {
	sender email.EmailSender
}

func NewEmailMessenger(sender email.EmailSender) *EmailMessenger {
	return &EmailMessenger{sender: sender}
}

func (m *EmailMessenger) Send(ctx context.Context, msg Message) error {
	return m.sender.SendEmail(ctx, email.SendEmailParams{
		SendTo:   msg.To,
		Subject:  msg.Subject,
		BodyHTML: msg.HTML,
		BodyText: msg.Text,
		Tag:      msg.Tag,
	})
}
