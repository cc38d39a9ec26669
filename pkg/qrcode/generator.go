package qrcode

import (
	"encoding/base64"
	"errors"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

var (
	ErrEmptyContent = errors.New("qrcode: content cannot be empty")
	ErrGenerate     = errors.New("qrcode: failed to generate")
)

const (
	defaultSize = 256
	maxSize     = 2048
)

// RecoveryLevel trades capacity for damage tolerance.
type RecoveryLevel = skipqrcode.RecoveryLevel

const (
	RecoveryLow     = skipqrcode.Low
	RecoveryMedium  = skipqrcode.Medium
	RecoveryHigh    = skipqrcode.High
	RecoveryHighest = skipqrcode.Highest
)

type options struct {
	size     int
	level    RecoveryLevel
	noBorder bool
}

type Option func(*options)

// WithSize sets the image width and height in pixels. Values outside
// (0, 2048] fall back to the default of 256.
func WithSize(px int) Option {
	return func(o *options) {
		if px > 0 && px <= maxSize {
			o.size = px
		}
	}
}

func WithRecoveryLevel(level RecoveryLevel) Option {
	return func(o *options) {
		o.level = level
	}
}

// WithoutBorder drops the quiet zone around the code.
func WithoutBorder() Option {
	return func(o *options) {
		o.noBorder = true
	}
}

// PNG encodes content as a QR code image.
func PNG(content string, opts ...Option) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	o := options{size: defaultSize, level: RecoveryMedium}
	for _, opt := range opts {
		opt(&o)
	}

	q, err := skipqrcode.New(content, o.level)
	if err != nil {
		return nil, errors.Join(ErrGenerate, err)
	}
	q.DisableBorder = o.noBorder

	img, err := q.PNG(o.size)
	if err != nil {
		return nil, errors.Join(ErrGenerate, err)
	}
	return img, nil
}

// DataURI encodes content as a base64 PNG data URI for use in an img tag or
// a JSON response.
func DataURI(content string, opts ...Option) (string, error) {
	img, err := PNG(content, opts...)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(img), nil
}
