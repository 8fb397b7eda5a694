package engine

import (
	"encoding/json"
	"io"
)

// Kind represents token kinds from a generic source.
type Kind int

const (
	KindBeginObject Kind = iota
	KindEndObject
	KindBeginArray
	KindEndArray
	KindKey
	KindString
	KindNumber
	KindBool
	KindNull
)

// Token represents a streaming token with approximate input offset.
type Token struct {
	Kind   Kind
	String string
	Number string
	Bool   bool
	Offset int64
}

// TokenSource is a minimal interface required by the engine.
type TokenSource interface {
	NextToken() (Token, error)
	Location() int64
}

// ObjectSink receives object members in input order. The sink itself becomes
// the decoded value of the object.
type ObjectSink interface {
	Set(key string, v any)
}

// DecodeOrdered builds a value tree from the token source. Objects are
// materialized through newObject so callers keep member order; arrays become
// []any, numbers json.Number.
func DecodeOrdered(src TokenSource, newObject func() ObjectSink) (any, error) {
	d := orderedDecoder{src: src, newObject: newObject}
	tok, err := src.NextToken()
	if err != nil {
		return nil, err
	}
	return d.value(tok)
}

type orderedDecoder struct {
	src       TokenSource
	newObject func() ObjectSink
}

func (d *orderedDecoder) value(tok Token) (any, error) {
	switch tok.Kind {
	case KindBeginObject:
		return d.object()
	case KindBeginArray:
		return d.array()
	case KindString:
		return tok.String, nil
	case KindNumber:
		return json.Number(tok.Number), nil
	case KindBool:
		return tok.Bool, nil
	case KindNull:
		return nil, nil
	default:
		return nil, io.ErrUnexpectedEOF
	}
}

func (d *orderedDecoder) object() (any, error) {
	obj := d.newObject()
	for {
		tok, err := d.src.NextToken()
		if err != nil {
			return nil, err
		}
		if tok.Kind == KindEndObject {
			return obj, nil
		}
		if tok.Kind != KindKey {
			return nil, io.ErrUnexpectedEOF
		}
		vt, err := d.src.NextToken()
		if err != nil {
			return nil, err
		}
		v, err := d.value(vt)
		if err != nil {
			return nil, err
		}
		obj.Set(tok.String, v)
	}
}

func (d *orderedDecoder) array() (any, error) {
	arr := []any{}
	for {
		tok, err := d.src.NextToken()
		if err != nil {
			return nil, err
		}
		if tok.Kind == KindEndArray {
			return arr, nil
		}
		v, err := d.value(tok)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
}
