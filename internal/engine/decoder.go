package engine

import (
	"encoding/json"
	"io"
	"strconv"
)

// DecoderSource adapts a Token()-style JSON decoder (encoding/json,
// goccy/go-json) into a TokenSource, telling keys apart from string values.
type DecoderSource struct {
	next   func() (json.Token, error)
	offset func() int64
	stack  []frame
	last   int64
}

type frame struct {
	object       bool
	expectingKey bool
}

// NewDecoderSource wraps next. offset may be nil when the decoder cannot
// report input positions.
func NewDecoderSource(next func() (json.Token, error), offset func() int64) *DecoderSource {
	return &DecoderSource{next: next, offset: offset, last: -1}
}

func (s *DecoderSource) NextToken() (Token, error) {
	raw, err := s.next()
	if err != nil {
		if err == io.EOF {
			return Token{}, io.EOF
		}
		return Token{}, err
	}
	if s.offset != nil {
		s.last = s.offset()
	}

	switch v := raw.(type) {
	case json.Delim:
		switch v {
		case '{':
			s.stack = append(s.stack, frame{object: true, expectingKey: true})
			return s.tok(Token{Kind: KindBeginObject}), nil
		case '[':
			s.stack = append(s.stack, frame{})
			return s.tok(Token{Kind: KindBeginArray}), nil
		case '}':
			s.pop()
			return s.tok(Token{Kind: KindEndObject}), nil
		case ']':
			s.pop()
			return s.tok(Token{Kind: KindEndArray}), nil
		}
	case string:
		if n := len(s.stack); n > 0 && s.stack[n-1].object && s.stack[n-1].expectingKey {
			s.stack[n-1].expectingKey = false
			return s.tok(Token{Kind: KindKey, String: v}), nil
		}
		s.valueDone()
		return s.tok(Token{Kind: KindString, String: v}), nil
	case json.Number:
		s.valueDone()
		return s.tok(Token{Kind: KindNumber, Number: string(v)}), nil
	case float64:
		s.valueDone()
		return s.tok(Token{Kind: KindNumber, Number: strconv.FormatFloat(v, 'g', -1, 64)}), nil
	case bool:
		s.valueDone()
		return s.tok(Token{Kind: KindBool, Bool: v}), nil
	}
	s.valueDone()
	return s.tok(Token{Kind: KindNull}), nil
}

func (s *DecoderSource) Location() int64 { return s.last }

func (s *DecoderSource) tok(t Token) Token {
	t.Offset = s.last
	return t
}

// pop closes the current container; the container itself is a value of its parent.
func (s *DecoderSource) pop() {
	if n := len(s.stack); n > 0 {
		s.stack = s.stack[:n-1]
	}
	s.valueDone()
}

func (s *DecoderSource) valueDone() {
	if n := len(s.stack); n > 0 && s.stack[n-1].object {
		s.stack[n-1].expectingKey = true
	}
}
