package engine

import (
	"strconv"
	"strings"
)

// DuplicateStrictness controls duplicate key handling.
type DuplicateStrictness int

const (
	DupIgnore DuplicateStrictness = iota
	DupWarn
	DupError
)

// SimpleIssue is a minimal issue representation used by internal helpers.
type SimpleIssue struct {
	Code    string
	Path    string
	Message string
	Offset  int64
}

// IssueError is a lightweight error carrying a SimpleIssue.
type IssueError struct{ SimpleIssue }

func (e IssueError) Error() string { return e.SimpleIssue.Message }

// EnforceOptions controls runtime enforcement behavior.
type EnforceOptions struct {
	OnDuplicate DuplicateStrictness
	MaxDepth    int
	MaxBytes    int64
	// IssueSink receives non-fatal issues (duplicate keys under DupWarn).
	IssueSink func(SimpleIssue)
	// FailFast turns every reported issue into an error.
	FailFast bool
}

// Disabled reports whether wrapping a source with these options is a no-op.
func (o EnforceOptions) Disabled() bool {
	return o.OnDuplicate == DupIgnore && o.MaxDepth == 0 && o.MaxBytes == 0
}

type container struct {
	object     bool
	keys       map[string]struct{}
	path       string
	pendingKey string
	haveKey    bool
	nextIndex  int
}

// WrapWithEnforcement returns a TokenSource that enforces duplicate key policy,
// maximum nesting depth, and maximum consumed bytes.
func WrapWithEnforcement(inner TokenSource, opt EnforceOptions) TokenSource {
	if opt.Disabled() {
		return inner
	}
	return &enforcingTokenSource{inner: inner, opt: opt}
}

type enforcingTokenSource struct {
	inner TokenSource
	opt   EnforceOptions
	stack []container
}

func (e *enforcingTokenSource) NextToken() (Token, error) {
	tok, err := e.inner.NextToken()
	if err != nil {
		return Token{}, err
	}
	path := e.pathFor(tok)

	switch tok.Kind {
	case KindBeginObject, KindBeginArray:
		c := container{object: tok.Kind == KindBeginObject, path: path}
		if c.object {
			c.keys = make(map[string]struct{})
		}
		e.stack = append(e.stack, c)
		if e.opt.MaxDepth > 0 && len(e.stack) > e.opt.MaxDepth {
			return Token{}, e.fatal(SimpleIssue{Code: "parse_error", Path: pointer(path), Message: "max depth exceeded", Offset: tok.Offset})
		}
	case KindEndObject, KindEndArray:
		if n := len(e.stack); n > 0 {
			e.stack = e.stack[:n-1]
		}
		e.valueDone()
	case KindKey:
		if n := len(e.stack); n > 0 && e.stack[n-1].object {
			top := &e.stack[n-1]
			if _, dup := top.keys[tok.String]; dup && e.opt.OnDuplicate != DupIgnore {
				si := SimpleIssue{Code: "duplicate_key", Path: pointer(path), Message: "key '" + tok.String + "' duplicated", Offset: tok.Offset}
				if e.opt.OnDuplicate == DupError || e.opt.FailFast {
					return Token{}, e.fatal(si)
				}
				if e.opt.IssueSink != nil {
					e.opt.IssueSink(si)
				}
			}
			top.keys[tok.String] = struct{}{}
			top.pendingKey = tok.String
			top.haveKey = true
		}
	default:
		e.valueDone()
	}

	if e.opt.MaxBytes > 0 {
		if off := e.Location(); off > e.opt.MaxBytes {
			return Token{}, e.fatal(SimpleIssue{Code: "truncated", Path: pointer(path), Message: "max bytes exceeded", Offset: off})
		}
	}
	return tok, nil
}

func (e *enforcingTokenSource) Location() int64 { return e.inner.Location() }

// fatal issues travel only through the returned error, never the sink.
func (e *enforcingTokenSource) fatal(si SimpleIssue) error {
	return IssueError{si}
}

func (e *enforcingTokenSource) valueDone() {
	if n := len(e.stack); n > 0 && e.stack[n-1].object {
		e.stack[n-1].haveKey = false
		e.stack[n-1].pendingKey = ""
	}
}

// pathFor computes the JSON Pointer of the value a token belongs to.
func (e *enforcingTokenSource) pathFor(tok Token) string {
	n := len(e.stack)
	if n == 0 {
		return ""
	}
	top := &e.stack[n-1]
	switch tok.Kind {
	case KindKey:
		return joinPointer(top.path, tok.String)
	case KindEndObject, KindEndArray:
		return top.path
	}
	if !top.object {
		p := joinPointer(top.path, strconv.Itoa(top.nextIndex))
		top.nextIndex++
		return p
	}
	if top.haveKey {
		return joinPointer(top.path, top.pendingKey)
	}
	return top.path
}

func pointer(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func joinPointer(base, token string) string {
	return base + "/" + pointerEscaper.Replace(token)
}
