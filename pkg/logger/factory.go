package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Format selects the slog handler.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Environment names understood by WithEnvironment. "prod" and "stage" are
// accepted as aliases.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

type settings struct {
	level      slog.Level
	format     Format
	output     io.Writer
	attrs      []slog.Attr
	extractors []ContextExtractor
}

type Option func(*settings)

// WithLevelName sets the level from "debug", "info", "warn" or "error".
// Anything else is ignored.
func WithLevelName(name string) Option {
	return func(s *settings) {
		var l slog.Level
		if l.UnmarshalText([]byte(name)) == nil {
			s.level = l
		}
	}
}

// WithFormat panics on an unknown format so a bad LOG_FORMAT stops startup.
func WithFormat(f Format) Option {
	if f != FormatJSON && f != FormatText {
		panic(fmt.Errorf("invalid log format %q: must be %q or %q", f, FormatJSON, FormatText))
	}
	return func(s *settings) { s.format = f }
}

func WithOutput(w io.Writer) Option {
	return func(s *settings) {
		if w != nil {
			s.output = w
		}
	}
}

// WithContextExtractors adds attributes read from the context of each record,
// such as request_id and client_ip.
func WithContextExtractors(extractors ...ContextExtractor) Option {
	return func(s *settings) { s.extractors = append(s.extractors, extractors...) }
}

// WithEnvironment picks level and format for env and tags every record with
// env and, when set, service. Development logs text at debug; staging and
// production log JSON at info.
func WithEnvironment(env, service string) Option {
	return func(s *settings) {
		s.level, s.format = slog.LevelInfo, FormatJSON
		switch env {
		case EnvProduction, "prod":
			env = EnvProduction
		case EnvStaging, "stage":
			env = EnvStaging
		default:
			env = EnvDevelopment
			s.level, s.format = slog.LevelDebug, FormatText
		}
		if service != "" {
			s.attrs = append(s.attrs, slog.String("service", service))
		}
		s.attrs = append(s.attrs, slog.String("env", env))
	}
}

// New builds a logger. Without options it writes JSON at info to stdout.
func New(opts ...Option) *slog.Logger {
	s := settings{level: slog.LevelInfo, format: FormatJSON, output: os.Stdout}
	for _, opt := range opts {
		opt(&s)
	}

	ho := &slog.HandlerOptions{Level: s.level}
	var h slog.Handler = slog.NewJSONHandler(s.output, ho)
	if s.format == FormatText {
		h = slog.NewTextHandler(s.output, ho)
	}
	if len(s.attrs) > 0 {
		h = h.WithAttrs(s.attrs)
	}
	return slog.New(NewLogHandlerDecorator(h, s.extractors...))
}

// Noop discards every record.
func Noop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
