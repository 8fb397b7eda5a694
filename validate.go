package saf

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"

	"github.com/reoring/saf/codec"
)

// Validator checks documents against a schema registry. It never mutates the
// document and reports schema violations as Issues rather than errors.
type Validator struct {
	Registry *Registry
}

// NewValidator returns a validator over reg; nil selects DefaultRegistry.
func NewValidator(reg *Registry) *Validator {
	if reg == nil {
		reg = DefaultRegistry()
	}
	return &Validator{Registry: reg}
}

// Validate checks doc with the default registry.
func Validate(ctx context.Context, doc *Document) Issues {
	return NewValidator(nil).Validate(ctx, doc)
}

// Validate returns every conformance issue of doc in document order: header
// first, then each layer that has a registered schema. Unknown layers are
// never reported. A canceled context ends validation with a truncated issue.
func (v *Validator) Validate(ctx context.Context, doc *Document) Issues {
	reg := v.Registry
	if reg == nil {
		reg = DefaultRegistry()
	}
	iss := Issues{}
	if doc.header != nil {
		iss = append(iss, validateHeader(doc.header)...)
	}
	refs := refIndex{doc: doc, reg: reg, cache: map[string]map[string]struct{}{}}
	for _, l := range doc.layers {
		if err := ctx.Err(); err != nil {
			it := issueAt("/", CodeTruncated, Error, nil)
			it.Message = "validation canceled"
			it.Cause = err
			return append(iss, it)
		}
		s, ok := reg.Lookup(l.Name)
		if !ok {
			continue
		}
		iss = append(iss, validateLayer(l, s, &refs)...)
	}
	return iss
}

// ValidateValue validates a decoded JSON value (an *Object or the
// map[string]any produced by json.Unmarshal). Unlike parsing, a top-level value
// that is not a well-formed layer fails hard with ErrMalformedLayer.
func (v *Validator) ValidateValue(ctx context.Context, raw any) (Issues, error) {
	root, ok := toObject(raw).(*Object)
	if !ok {
		return nil, fmt.Errorf("saf: document must be an object, got %s", kindOf(raw))
	}
	doc, _, err := documentFromObject(root, true)
	if err != nil {
		return nil, err
	}
	return v.Validate(ctx, doc), nil
}

func validateLayer(l *Layer, s *LayerSchema, refs *refIndex) Issues {
	var iss Issues
	seen := map[string]int{}
	for i, u := range l.Units {
		for _, a := range s.Attributes {
			path := pointerOf(l.Name, i, a.Name)
			data := map[string]string{"attr": a.Name, "layer": l.Name}
			val, present := u.Get(a.Name)
			if !present {
				if a.Required {
					iss = append(iss, layerIssue(l.Name, issueAt(path, CodeRequired, Error, data)))
				}
				continue
			}
			if !typeOK(a.Type, val) {
				data["expected"] = string(a.Type)
				it := layerIssue(l.Name, issueAt(path, CodeInvalidType, Error, data))
				it.Params = map[string]any{"expected": string(a.Type), "got": kindOf(val)}
				iss = append(iss, it)
				continue
			}
			if a.Type == TypeConfidence {
				if f, _ := asFloat(val); f < 0 || f > 1 || math.IsNaN(f) {
					data["got"] = strconv.FormatFloat(f, 'g', -1, 64)
					it := layerIssue(l.Name, issueAt(path, CodeRange, Warn, data))
					it.Params = map[string]any{"min": 0, "max": 1, "got": f}
					iss = append(iss, it)
				}
			}
			if a.Ref != "" {
				key, _ := idKey(val)
				if !refs.has(a.Ref, key) {
					data["layer"] = a.Ref
					data["got"] = key
					it := layerIssue(l.Name, issueAt(path, CodeDanglingReference, Error, data))
					it.Params = map[string]any{"ref": a.Ref, "id": val, "unit": i}
					iss = append(iss, it)
				}
			}
		}
		if s.Key == "" {
			continue
		}
		val, _ := u.Get(s.Key)
		key, ok := idKey(val)
		if !ok {
			continue
		}
		if first, dup := seen[key]; dup {
			data := map[string]string{"attr": s.Key, "layer": l.Name, "got": key}
			it := layerIssue(l.Name, issueAt(pointerOf(l.Name, i, s.Key), CodeDuplicateTokenID, Error, data))
			it.Params = map[string]any{"first": first, "id": val}
			iss = append(iss, it)
			continue
		}
		seen[key] = i
	}
	return iss
}

func layerIssue(layer string, it Issue) Issue {
	it.Layer = layer
	return it
}

func typeOK(t AttrType, v any) bool {
	switch t {
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeInteger:
		_, ok := intText(v)
		return ok
	case TypeNumber, TypeConfidence:
		_, ok := asFloat(v)
		return ok
	case TypeID:
		_, ok := idKey(v)
		return ok
	default:
		return true
	}
}

// refIndex resolves references against the key attribute of the target
// layer, building each index once per validation run.
type refIndex struct {
	doc   *Document
	reg   *Registry
	cache map[string]map[string]struct{}
}

func (r *refIndex) has(layer, key string) bool {
	idx, ok := r.cache[layer]
	if !ok {
		idx = map[string]struct{}{}
		keyAttr := AttrID
		if s, ok := r.reg.Lookup(layer); ok && s.Key != "" {
			keyAttr = s.Key
		}
		units, _ := r.doc.Layer(layer)
		for _, u := range units {
			v, _ := u.Get(keyAttr)
			if k, ok := idKey(v); ok {
				idx[k] = struct{}{}
			}
		}
		r.cache[layer] = idx
	}
	_, ok = idx[key]
	return ok
}

var versionPattern = regexp.MustCompile(`^\d+(\.\d+){0,2}([-+][0-9A-Za-z.-]+)?$`)

func validateHeader(h *Object) Issues {
	var iss Issues
	at := func(parts ...any) string { return pointerOf(append([]any{HeaderKey}, parts...)...) }

	for _, attr := range []string{AttrFormat, AttrFormatVersion, AttrProcessed} {
		if !h.Has(attr) {
			iss = append(iss, issueAt(at(attr), CodeRequired, Error, map[string]string{"attr": attr}))
		}
	}
	if v, ok := h.Get(AttrFormat); ok {
		if s, isStr := v.(string); !isStr {
			iss = append(iss, typeIssue(at(AttrFormat), AttrFormat, TypeString, v))
		} else if s != FormatName {
			it := issueAt(at(AttrFormat), CodeInvalidFormat, Error, map[string]string{"attr": AttrFormat})
			it.Params = map[string]any{"expected": FormatName, "got": s}
			iss = append(iss, it)
		}
	}
	if v, ok := h.Get(AttrFormatVersion); ok {
		if s, isStr := v.(string); !isStr {
			iss = append(iss, typeIssue(at(AttrFormatVersion), AttrFormatVersion, TypeString, v))
		} else if !versionPattern.MatchString(s) {
			iss = append(iss, issueAt(at(AttrFormatVersion), CodeInvalidFormat, Warn, map[string]string{"attr": AttrFormatVersion}))
		}
	}
	v, ok := h.Get(AttrProcessed)
	if !ok {
		return iss
	}
	arr, isArr := v.([]any)
	if !isArr {
		it := issueAt(at(AttrProcessed), CodeInvalidType, Error, map[string]string{"attr": AttrProcessed, "expected": "array"})
		return append(iss, it)
	}
	for i, e := range arr {
		rec, isObj := e.(*Object)
		if !isObj {
			iss = append(iss, issueAt(at(AttrProcessed, i), CodeInvalidType, Error, map[string]string{"attr": AttrProcessed, "expected": "object"}))
			continue
		}
		iss = append(iss, validateRecord(rec, func(attr string) string { return at(AttrProcessed, i, attr) })...)
	}
	return iss
}

func validateRecord(rec *Object, at func(string) string) Issues {
	var iss Issues
	for _, attr := range []string{AttrModule, AttrModuleVersion, AttrStarted} {
		v, ok := rec.Get(attr)
		if !ok {
			iss = append(iss, issueAt(at(attr), CodeRequired, Error, map[string]string{"attr": attr}))
			continue
		}
		s, isStr := v.(string)
		if !isStr {
			iss = append(iss, typeIssue(at(attr), attr, TypeString, v))
			continue
		}
		if attr == AttrStarted {
			if _, err := codec.ParseTimestamp(s); err != nil {
				it := issueAt(at(attr), CodeInvalidFormat, Warn, map[string]string{"attr": attr})
				it.Cause = err
				iss = append(iss, it)
			}
		}
	}
	if v, ok := rec.Get(AttrArguments); ok {
		switch v.(type) {
		case *Object, []any, nil:
		default:
			iss = append(iss, issueAt(at(AttrArguments), CodeInvalidType, Error, map[string]string{"attr": AttrArguments, "expected": "object or array"}))
		}
	}
	return iss
}

func typeIssue(path, attr string, want AttrType, got any) Issue {
	it := issueAt(path, CodeInvalidType, Error, map[string]string{"attr": attr, "expected": string(want)})
	it.Params = map[string]any{"expected": string(want), "got": kindOf(got)}
	return it
}

// toObject converts map[string]any trees (as produced by json.Unmarshal) into
// Objects. Map keys are sorted since their order is already lost.
func toObject(v any) any {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		o := NewObject()
		for _, k := range keys {
			o.Set(k, toObject(t[k]))
		}
		return o
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = toObject(t[i])
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = toObject(t[i])
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i := range t {
			out[i] = t[i]
		}
		return out
	default:
		return v
	}
}
