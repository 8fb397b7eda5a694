// Package stream walks a JSON token stream one subtree at a time, so large
// documents can be consumed without decoding them whole.
package stream

import (
	"io"

	eng "github.com/reoring/saf/internal/engine"
)

// PreloadedSource is a subtree source that first returns a preloaded token
// (typically the first token of an element) and then continues to stream the
// remaining tokens for the same subtree from the underlying source. It stops
// after the subtree end is reached, returning io.EOF afterwards.
type PreloadedSource struct {
	inner  eng.TokenSource
	first  eng.Token
	served bool
	depth  int
	done   bool
}

// NewPreloadedSource returns a source for the subtree that starts with first.
func NewPreloadedSource(inner eng.TokenSource, first eng.Token) *PreloadedSource {
	return &PreloadedSource{inner: inner, first: first}
}

func (p *PreloadedSource) NextToken() (eng.Token, error) {
	if p.done {
		return eng.Token{}, io.EOF
	}
	var tok eng.Token
	if !p.served {
		p.served = true
		tok = p.first
	} else {
		var err error
		if tok, err = p.inner.NextToken(); err != nil {
			if err == io.EOF {
				return eng.Token{}, io.ErrUnexpectedEOF
			}
			return eng.Token{}, err
		}
	}
	switch tok.Kind {
	case eng.KindBeginObject, eng.KindBeginArray:
		p.depth++
	case eng.KindEndObject, eng.KindEndArray:
		p.depth--
	}
	// a primitive first token is a whole subtree
	if p.depth <= 0 {
		p.done = true
	}
	return tok, nil
}

func (p *PreloadedSource) Location() int64 { return p.inner.Location() }

// drain consumes what is left of the subtree.
func (p *PreloadedSource) drain() error {
	for !p.done {
		if _, err := p.NextToken(); err != nil {
			return err
		}
	}
	return nil
}
