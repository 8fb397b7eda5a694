// Package json provides a token source backed by the standard encoding/json
// decoder.
package json

import (
	"bytes"
	"encoding/json"
	"io"

	eng "github.com/reoring/saf/internal/engine"
)

// NewReader wraps an io.Reader into an engine.TokenSource for JSON.
func NewReader(r io.Reader) eng.TokenSource {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return eng.NewDecoderSource(dec.Token, dec.InputOffset)
}

// NewBytes wraps a byte slice into an engine.TokenSource for JSON.
func NewBytes(b []byte) eng.TokenSource { return NewReader(bytes.NewReader(b)) }
