package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"
)

// postmarkSender delivers through Postmark's transactional API.
type postmarkSender struct {
	api     *postmark.Client
	from    string
	replyTo string
}

// NewPostmarkClient checks cfg and returns a Postmark sender. Messages go out
// from SenderEmail with Reply-To set to SupportEmail.
func NewPostmarkClient(cfg Config) (EmailSender, error) {
	if err := cfg.validatePostmark(); err != nil {
		return nil, err
	}
	return &postmarkSender{
		api:     postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		from:    cfg.SenderEmail,
		replyTo: cfg.SupportEmail,
	}, nil
}

func MustNewPostmarkClient(cfg Config) EmailSender {
	s, err := NewPostmarkClient(cfg)
	if err != nil {
		panic(err)
	}
	return s
}

func (c Config) validatePostmark() error {
	checks := []struct {
		ok  bool
		msg string
	}{
		{c.PostmarkServerToken != "", "PostmarkServerToken is required"},
		{c.PostmarkAccountToken != "", "PostmarkAccountToken is required"},
		{emailRegex.MatchString(c.SenderEmail), "SenderEmail must be a valid email address"},
		{emailRegex.MatchString(c.SupportEmail), "SupportEmail must be a valid email address"},
	}
	for _, chk := range checks {
		if !chk.ok {
			return fmt.Errorf("%w: %s", ErrInvalidConfig, chk.msg)
		}
	}
	return nil
}

// SendEmail never enables link tracking: Postmark would rewrite the one-time
// login URL through its own redirector.
func (s *postmarkSender) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	resp, err := s.api.SendEmail(ctx, postmark.Email{
		From:       s.from,
		ReplyTo:    s.replyTo,
		To:         params.SendTo,
		Subject:    params.Subject,
		Tag:        params.Tag,
		HTMLBody:   params.BodyHTML,
		TextBody:   params.BodyText,
		TrackOpens: false,
		TrackLinks: "None",
	})
	switch {
	case err != nil:
		return errors.Join(ErrFailedToSendEmail, err)
	case resp.ErrorCode > 0:
		return errors.Join(ErrFailedToSendEmail, fmt.Errorf("postmark %d: %s", resp.ErrorCode, resp.Message))
	}
	return nil
}
