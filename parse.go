package saf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	eng "github.com/reoring/saf/internal/engine"
)

// ParseFrom reads one SAF document from src and validates it.
//
// The returned Issues hold every conformance problem found (duplicate keys
// under Warn, malformed layers, schema violations); the document is returned
// alongside them so callers can decide what to do. The error is non-nil only
// for input that cannot be read as a JSON object at all, for enforcement
// limits set to Error, or, with FailFast, for the first issue found. Such
// errors unwrap to Issues via AsIssues.
func ParseFrom(ctx context.Context, src Source, opts ...ParseOpt) (*Document, Issues, error) {
	var opt ParseOpt
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	iss := Issues{}

	var sink func(eng.SimpleIssue)
	if opt.Strictness.OnDuplicateKey == Warn {
		sink = func(si eng.SimpleIssue) {
			it := Issue{Path: si.Path, Code: si.Code, Severity: Warn, Message: si.Message, Offset: si.Offset}
			iss = append(iss, it)
		}
	}
	enforced := eng.WrapWithEnforcement(engineTokenSource(src), eng.EnforceOptions{
		OnDuplicate: toEngineDup(opt.Strictness.OnDuplicateKey),
		MaxDepth:    opt.MaxDepth,
		MaxBytes:    opt.MaxBytes,
		IssueSink:   sink,
		FailFast:    opt.FailFast,
	})

	v, err := eng.DecodeOrdered(enforced, func() eng.ObjectSink { return NewObject() })
	if err != nil {
		return nil, nil, toIssues(err, src.Location())
	}
	if tok, err := enforced.NextToken(); err == nil {
		return nil, nil, singleIssue(CodeParseError, fmt.Sprintf("unexpected data after document at offset %d", tok.Offset))
	} else if !errors.Is(err, io.EOF) {
		return nil, nil, toIssues(err, src.Location())
	}

	root, ok := v.(*Object)
	if !ok {
		return nil, nil, singleIssue(CodeParseError, "document must be a JSON object, got "+kindOf(v))
	}
	if opt.FailFast && len(iss) > 0 {
		return nil, iss, iss[:1]
	}

	doc, structural, err := documentFromObject(root, false)
	if err != nil {
		return nil, nil, err
	}
	iss = append(iss, structural...)
	if opt.FailFast && len(iss) > 0 {
		return doc, iss, iss[:1]
	}
	iss = append(iss, NewValidator(opt.Registry).Validate(ctx, doc)...)
	if opt.FailFast {
		if errs := iss.Errors(); len(errs) > 0 {
			return doc, iss, errs[:1]
		}
	}
	return doc, iss, nil
}

// ParseBytes parses a document held in memory.
func ParseBytes(ctx context.Context, data []byte, opts ...ParseOpt) (*Document, Issues, error) {
	if limit := maxBytes(opts); limit > 0 && int64(len(data)) > limit {
		return nil, nil, singleIssue(CodeTruncated, "max bytes exceeded")
	}
	return ParseFrom(ctx, JSONBytes(data), opts...)
}

// ParseReader parses a document from r. When MaxBytes is set the input is
// read up front so the cap holds for drivers that do not report offsets.
func ParseReader(ctx context.Context, r io.Reader, opts ...ParseOpt) (*Document, Issues, error) {
	limit := maxBytes(opts)
	if limit <= 0 {
		return ParseFrom(ctx, JSONReader(r), opts...)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, nil, fmt.Errorf("saf: read input: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, nil, singleIssue(CodeTruncated, "max bytes exceeded")
	}
	return ParseFrom(ctx, JSONReader(bytes.NewReader(data)), opts...)
}

func maxBytes(opts []ParseOpt) int64 {
	if len(opts) == 0 {
		return 0
	}
	return opts[len(opts)-1].MaxBytes
}

// documentFromObject splits a decoded top-level object into header and
// layers. Values that are not a well-formed layer are kept as opaque content
// and reported; with strict set they fail with ErrMalformedLayer instead.
func documentFromObject(root *Object, strict bool) (*Document, Issues, error) {
	d := NewDocument(nil)
	var iss Issues
	malformed := func(key, expected string, v any) error {
		if strict {
			return fmt.Errorf("%w: %q must be %s, got %s", ErrMalformedLayer, key, expected, kindOf(v))
		}
		it := issueAt(pointerOf(key), CodeMalformedLayer, Error, map[string]string{"layer": key, "expected": expected, "got": kindOf(v)})
		if key != HeaderKey {
			it.Layer = key
		}
		iss = append(iss, it)
		d.opaque[key] = v
		return nil
	}

	for _, key := range root.keys {
		v := root.vals[key]
		d.order = append(d.order, key)
		if key == HeaderKey {
			if h, ok := v.(*Object); ok {
				d.header = h
			} else if err := malformed(key, "an object", v); err != nil {
				return nil, nil, err
			}
			continue
		}
		units, ok := unitsOf(v)
		if !ok {
			if err := malformed(key, "an array of objects", v); err != nil {
				return nil, nil, err
			}
			continue
		}
		d.byName[key] = len(d.layers)
		d.layers = append(d.layers, &Layer{Name: key, Units: units})
	}
	if units, ok := d.Layer(LayerTokens); ok {
		d.tokens = indexFirstWins(units)
	}
	return d, iss, nil
}

// unitsOf reads an array whose elements are all objects.
func unitsOf(v any) ([]*Object, bool) {
	switch t := v.(type) {
	case []*Object:
		return t, true
	case []any:
		units := make([]*Object, len(t))
		for i, e := range t {
			u, ok := e.(*Object)
			if !ok || u == nil {
				return nil, false
			}
			units[i] = u
		}
		return units, true
	}
	return nil, false
}

func toIssues(err error, offset int64) Issues {
	if ii, ok := AsIssues(err); ok {
		return ii
	}
	var ie eng.IssueError
	if errors.As(err, &ie) {
		return Issues{{Code: ie.Code, Path: ie.Path, Severity: Error, Message: ie.Message, Offset: ie.Offset}}
	}
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return Issues{{Code: CodeParseError, Path: "/", Severity: Error, Message: err.Error(), Cause: err, Offset: offset}}
}

func singleIssue(code, msg string) Issues {
	return Issues{{Code: code, Path: "/", Severity: Error, Message: msg, Offset: -1}}
}
