package saf

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeRequired          = "required"
	CodeInvalidType       = "invalid_type"
	CodeInvalidFormat     = "invalid_format"
	CodeRange             = "range"
	CodeDanglingReference = "dangling_reference"
	CodeDuplicateTokenID  = "duplicate_id"
	CodeDuplicateLayer    = "duplicate_layer"
	CodeMalformedLayer    = "malformed_layer"
	CodeDuplicateKey      = "duplicate_key"
	CodeParseError        = "parse_error"
	CodeTruncated         = "truncated"
)

// Hard failures returned by document operations. They are wrapped with
// context, so compare with errors.Is.
var (
	ErrLayerNotFound     = errors.New("saf: layer not found")
	ErrUnknownTokenID    = errors.New("saf: unknown token id")
	ErrDuplicateLayer    = errors.New("saf: duplicate layer")
	ErrDuplicateTokenID  = errors.New("saf: duplicate token id")
	ErrMalformedLayer    = errors.New("saf: malformed layer")
	ErrReservedLayerName = errors.New("saf: reserved layer name")
	ErrSentenceNotFound  = errors.New("saf: sentence not found")
)

// Issue represents a single conformance problem found while parsing or
// validating a document.
type Issue struct {
	Path     string // JSON Pointer (for example: /tokens/2/word).
	Code     string // One of the codes listed above.
	Severity Severity
	Message  string
	Layer    string // Layer the issue belongs to; empty for header and document level.
	Field    string // Attribute name, when the issue concerns one.
	Cause    error  // Optional: underlying error.
	Offset   int64  // Byte offset in the input source (-1 when unknown).
	// Params carries structured parameters (e.g., {"min":0, "max":1, "got":1.5})
	// for i18n and observability.
	Params map[string]any
}

func (it Issue) String() string {
	sev := "error"
	if it.Severity == Warn {
		sev = "warn"
	}
	if it.Message == "" {
		return fmt.Sprintf("%s: %s at %s", sev, it.Code, it.Path)
	}
	return fmt.Sprintf("%s: %s at %s: %s", sev, it.Code, it.Path, it.Message)
}

// Issues is a collection of validation entries that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	lim := min(len(iss), maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		// e.g. required at /tokens/0/word
		fmt.Fprintf(b, "%s at %s", iss[i].Code, iss[i].Path)
	}
	if len(iss) > lim {
		fmt.Fprintf(b, "; ... (total %d)", len(iss))
	}
	return b.String()
}

// Errors returns the issues with Error severity.
func (iss Issues) Errors() Issues { return iss.filter(Error) }

// Warnings returns the issues with Warn severity.
func (iss Issues) Warnings() Issues { return iss.filter(Warn) }

// HasErrors reports whether any issue has Error severity.
func (iss Issues) HasErrors() bool {
	for _, it := range iss {
		if it.Severity == Error {
			return true
		}
	}
	return false
}

// Err returns the Error-severity issues as an error, or nil when there are
// none. Warnings never make a document fail.
func (iss Issues) Err() error {
	if errs := iss.Errors(); len(errs) > 0 {
		return errs
	}
	return nil
}

// WithCode returns the issues carrying the given code.
func (iss Issues) WithCode(code string) Issues {
	var out Issues
	for _, it := range iss {
		if it.Code == code {
			out = append(out, it)
		}
	}
	return out
}

func (iss Issues) filter(s Severity) Issues {
	var out Issues
	for _, it := range iss {
		if it.Severity == s {
			out = append(out, it)
		}
	}
	return out
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	return append(dst, more...)
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}
