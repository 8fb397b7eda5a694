// Package gojson provides a token source backed by goccy/go-json. It is the
// default driver of the saf package.
package gojson

import (
	"bytes"
	stdjson "encoding/json"
	"io"

	j "github.com/goccy/go-json"

	eng "github.com/reoring/saf/internal/engine"
)

// NewReader wraps an io.Reader into an engine.TokenSource for JSON using go-json.
// go-json does not report input offsets, so Location is always -1.
func NewReader(r io.Reader) eng.TokenSource {
	dec := j.NewDecoder(r)
	dec.UseNumber()
	next := func() (stdjson.Token, error) {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch v := tok.(type) {
		case j.Delim:
			return stdjson.Delim(v), nil
		case j.Number:
			return stdjson.Number(v), nil
		}
		return tok, nil
	}
	return eng.NewDecoderSource(next, nil)
}

// NewBytes wraps a byte slice into an engine.TokenSource for JSON using go-json.
func NewBytes(b []byte) eng.TokenSource { return NewReader(bytes.NewReader(b)) }
