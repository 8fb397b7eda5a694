package stream

import (
	"errors"
	"io"

	eng "github.com/reoring/saf/internal/engine"
)

// ErrNotObject is returned when the stream does not start with an object.
var ErrNotObject = errors.New("document must be a JSON object")

// Visitor receives the members of a top-level object. Element is called for
// every element of an array member, Value for any other member. Each callback
// gets a source limited to its subtree; whatever it leaves unread is skipped.
// Nil callbacks skip their subtrees.
type Visitor struct {
	Element func(key string, index int, src eng.TokenSource) error
	Value   func(key string, src eng.TokenSource) error
}

// Walk reads one top-level object from src and dispatches its members to v.
// Errors returned by a callback end the walk and are returned unchanged.
func Walk(src eng.TokenSource, v Visitor) error {
	tok, err := src.NextToken()
	if err != nil {
		return err
	}
	if tok.Kind != eng.KindBeginObject {
		return ErrNotObject
	}
	for {
		tok, err := next(src)
		if err != nil {
			return err
		}
		if tok.Kind == eng.KindEndObject {
			return nil
		}
		if tok.Kind != eng.KindKey {
			return io.ErrUnexpectedEOF
		}
		key := tok.String
		first, err := next(src)
		if err != nil {
			return err
		}
		if first.Kind == eng.KindBeginArray && v.Element != nil {
			if err := walkArray(src, key, v.Element); err != nil {
				return err
			}
			continue
		}
		sub := NewPreloadedSource(src, first)
		if v.Value != nil {
			if err := v.Value(key, sub); err != nil {
				return err
			}
		}
		if err := sub.drain(); err != nil {
			return err
		}
	}
}

func walkArray(src eng.TokenSource, key string, fn func(string, int, eng.TokenSource) error) error {
	for i := 0; ; i++ {
		tok, err := next(src)
		if err != nil {
			return err
		}
		if tok.Kind == eng.KindEndArray {
			return nil
		}
		sub := NewPreloadedSource(src, tok)
		if err := fn(key, i, sub); err != nil {
			return err
		}
		if err := sub.drain(); err != nil {
			return err
		}
	}
}

// next reads a token that must exist.
func next(src eng.TokenSource) (eng.Token, error) {
	tok, err := src.NextToken()
	if err == io.EOF {
		return eng.Token{}, io.ErrUnexpectedEOF
	}
	return tok, err
}
