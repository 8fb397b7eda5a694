package saf

import (
	"bytes"
	stdjson "encoding/json"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
)

// Encode serializes the document. Top-level keys and unit attributes come out
// in the order they were parsed or added; a header added in code goes first.
// Whitespace of the original input is not preserved.
func Encode(doc *Document) ([]byte, error) {
	var w encoder
	if err := w.document(doc); err != nil {
		return nil, err
	}
	return w.buf.Bytes(), nil
}

// EncodeIndent is like Encode but indents the output.
func EncodeIndent(doc *Document, prefix, indent string) ([]byte, error) {
	raw, err := Encode(doc)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, prefix, indent); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// MarshalJSON implements json.Marshaler through Encode.
func (d *Document) MarshalJSON() ([]byte, error) { return Encode(d) }

// WriteTo writes the indented document followed by a newline.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	data, err := EncodeIndent(d, "", "  ")
	if err != nil {
		return 0, err
	}
	n, err := w.Write(append(data, '\n'))
	return int64(n), err
}

type encoder struct {
	buf bytes.Buffer
}

func (w *encoder) document(d *Document) error {
	w.buf.WriteByte('{')
	for i, key := range d.order {
		if i > 0 {
			w.buf.WriteByte(',')
		}
		if err := w.key(key); err != nil {
			return err
		}
		var err error
		switch {
		case key == HeaderKey && d.header != nil:
			err = w.value(d.header)
		case hasKey(d.opaque, key):
			err = w.value(d.opaque[key])
		default:
			l, ok := d.layer(key)
			if !ok {
				return fmt.Errorf("saf: encode: no content for key %q", key)
			}
			err = w.units(l.Units)
		}
		if err != nil {
			return err
		}
	}
	w.buf.WriteByte('}')
	return nil
}

func hasKey(m map[string]any, k string) bool {
	_, ok := m[k]
	return ok
}

func (w *encoder) key(k string) error {
	b, err := json.MarshalNoEscape(k)
	if err != nil {
		return err
	}
	w.buf.Write(b)
	w.buf.WriteByte(':')
	return nil
}

func (w *encoder) units(units []*Object) error {
	w.buf.WriteByte('[')
	for i, u := range units {
		if i > 0 {
			w.buf.WriteByte(',')
		}
		if err := w.value(u); err != nil {
			return err
		}
	}
	w.buf.WriteByte(']')
	return nil
}

func (w *encoder) value(v any) error {
	switch t := v.(type) {
	case nil:
		w.buf.WriteString("null")
	case *Object:
		if t == nil {
			w.buf.WriteString("null")
			return nil
		}
		w.buf.WriteByte('{')
		for i, k := range t.keys {
			if i > 0 {
				w.buf.WriteByte(',')
			}
			if err := w.key(k); err != nil {
				return err
			}
			if err := w.value(t.vals[k]); err != nil {
				return err
			}
		}
		w.buf.WriteByte('}')
	case []any:
		w.buf.WriteByte('[')
		for i := range t {
			if i > 0 {
				w.buf.WriteByte(',')
			}
			if err := w.value(t[i]); err != nil {
				return err
			}
		}
		w.buf.WriteByte(']')
	case []*Object:
		return w.units(t)
	case stdjson.Number:
		if t == "" {
			w.buf.WriteByte('0')
			return nil
		}
		w.buf.WriteString(string(t))
	default:
		b, err := json.MarshalNoEscape(v)
		if err != nil {
			return fmt.Errorf("saf: encode value of type %T: %w", v, err)
		}
		w.buf.Write(b)
	}
	return nil
}
