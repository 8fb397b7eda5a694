// Package codec converts between wire strings and Go values for SAF header
// fields.
package codec

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidTimestamp is returned for strings no accepted layout matches.
var ErrInvalidTimestamp = errors.New("codec: invalid timestamp")

// Codec performs bidirectional transformation between the wire
// representation A and the domain representation B.
type Codec[A, B any] interface {
	Decode(ctx context.Context, a A) (B, error)
	Encode(ctx context.Context, b B) (A, error)
}

// Timestamp returns a Codec between processing timestamps and time.Time.
func Timestamp() Codec[string, time.Time] { return timestampCodec{} }

type timestampCodec struct{}

func (timestampCodec) Decode(ctx context.Context, a string) (time.Time, error) {
	return ParseTimestamp(a)
}

func (timestampCodec) Encode(ctx context.Context, b time.Time) (string, error) {
	if b.IsZero() {
		return "", fmt.Errorf("%w: zero time", ErrInvalidTimestamp)
	}
	return FormatTimestamp(b), nil
}

// Layouts accepted by ParseTimestamp, tried in order. Producers often omit the
// zone or use a space separator; zone-less values are read as UTC.
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp reads an ISO 8601 style timestamp.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
}

// FormatTimestamp renders t in UTC using RFC3339Nano (Go trims trailing zeros).
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
