package saf

import (
	"encoding/json"
	"errors"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Object is a JSON object that remembers member order. Units, the header and
// processing records are all Objects, which keeps round trips lossless.
//
// Values held by an Object are the decoded JSON kinds: string, json.Number,
// bool, nil, []any and *Object. Go numeric types are accepted when building
// documents in code.
type Object struct {
	keys []string
	vals map[string]any
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{vals: map[string]any{}}
}

// ObjectOf builds an Object from alternating keys and values.
func ObjectOf(kv ...any) *Object {
	o := NewObject()
	for i := 0; i+1 < len(kv); i += 2 {
		k, _ := kv[i].(string)
		o.Set(k, kv[i+1])
	}
	return o
}

// Set stores v under key. A new key goes last; an existing key keeps its place.
func (o *Object) Set(key string, v any) {
	if o.vals == nil {
		o.vals = map[string]any{}
	}
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = v
}

// Get returns the value under key.
func (o *Object) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.vals[key]
	return v, ok
}

// Has reports whether key is present, even with a null value.
func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// String returns the value under key when it is a string.
func (o *Object) String(key string) (string, bool) {
	v, _ := o.Get(key)
	s, ok := v.(string)
	return s, ok
}

// Delete removes key.
func (o *Object) Delete(key string) {
	if o == nil {
		return
	}
	if _, ok := o.vals[key]; !ok {
		return
	}
	delete(o.vals, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i:i], o.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the member names in order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return append([]string(nil), o.keys...)
}

// Len returns the number of members.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Clone returns a deep copy.
func (o *Object) Clone() *Object {
	if o == nil {
		return nil
	}
	c := &Object{keys: append([]string(nil), o.keys...), vals: make(map[string]any, len(o.vals))}
	for k, v := range o.vals {
		c.vals[k] = cloneValue(v)
	}
	return c
}

// MarshalJSON encodes the object with its member order.
func (o *Object) MarshalJSON() ([]byte, error) {
	var w encoder
	if err := w.value(o); err != nil {
		return nil, err
	}
	return w.buf.Bytes(), nil
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case *Object:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	case []*Object:
		out := make([]*Object, len(t))
		for i := range t {
			out[i] = t[i].Clone()
		}
		return out
	default:
		return v
	}
}

func cloneUnits(units []*Object) []*Object {
	out := make([]*Object, len(units))
	for i, u := range units {
		out[i] = u.Clone()
	}
	return out
}

// asFloat reads a JSON number.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return 0, false
		}
		// out of range numbers come back as ±Inf or 0
		return f, true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// asInt reads a JSON number that has no fractional part.
func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		t, ok := intText(n)
		if !ok {
			return 0, false
		}
		i, err := strconv.ParseInt(t, 10, 64)
		return i, err == nil
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float64:
		if n != math.Trunc(n) || n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}

// intText returns the exact decimal form of an integral JSON number beyond the
// int64 range too, so 1e30 and 1000000000000000000000000000000 agree. Numbers
// that overflow float64 are rejected.
func intText(v any) (string, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return strconv.FormatInt(i, 10), true
		}
		// keeps the exponent expanded by big.Rat within float64 range
		f, err := n.Float64()
		if err != nil {
			return "", false
		}
		if f == 0 {
			if strings.Trim(strings.SplitN(strings.ToLower(string(n)), "e", 2)[0], "-+0.") != "" {
				return "", false
			}
			return "0", true
		}
		r, ok := new(big.Rat).SetString(string(n))
		if !ok || !r.IsInt() {
			return "", false
		}
		return r.Num().String(), true
	case uint64:
		return strconv.FormatUint(n, 10), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return "", false
		}
		return new(big.Float).SetFloat64(n).Text('f', 0), true
	}
	if i, ok := asInt(v); ok {
		return strconv.FormatInt(i, 10), true
	}
	return "", false
}

// idKey returns the canonical lookup key of an id value. Integer ids and their
// decimal string form share a key, so 1 and "1" name the same unit.
func idKey(v any) (string, bool) {
	if s, ok := v.(string); ok {
		return s, s != ""
	}
	return intText(v)
}

// IDKey returns the canonical key used to compare unit ids; ok is false when v
// is neither an integer nor a non-empty string.
func IDKey(v any) (key string, ok bool) { return idKey(v) }
