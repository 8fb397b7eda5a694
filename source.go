package saf

import (
	"io"
	"sync"

	eng "github.com/reoring/saf/internal/engine"
	gojsonsrc "github.com/reoring/saf/source/gojson"
	jsonsrc "github.com/reoring/saf/source/json"
)

// JSONKind enumerates JSON token kinds.
type JSONKind int

const (
	JSONBeginObject JSONKind = iota
	JSONEndObject
	JSONBeginArray
	JSONEndArray
	JSONKey
	JSONString
	JSONNumber
	JSONBool
	JSONNull
)

// JSONToken describes a token in the input stream. Offset records the byte
// position when known (-1 otherwise).
type JSONToken struct {
	Kind   JSONKind
	String string // key or string value
	Number string // number literal, kept as text
	Bool   bool
	Offset int64
}

// Source is a stream of JSON tokens the parser reads documents from.
type Source interface {
	NextToken() (JSONToken, error)
	Location() int64 // byte offset; -1 if unknown
}

// JSONDriver turns raw JSON input into a Source. The default is backed by
// goccy/go-json and may be swapped with SetJSONDriver.
type JSONDriver interface {
	NewReader(r io.Reader) Source
	NewBytes(b []byte) Source
	Name() string
}

var (
	jsonDriverMu      sync.RWMutex
	currentJSONDriver JSONDriver = goJSONDriver{}
)

// SetJSONDriver replaces the global JSON driver; nil values are ignored.
func SetJSONDriver(d JSONDriver) {
	if d == nil {
		return
	}
	jsonDriverMu.Lock()
	currentJSONDriver = d
	jsonDriverMu.Unlock()
}

// UseDefaultJSONDriver restores the go-json driver.
func UseDefaultJSONDriver() { SetJSONDriver(goJSONDriver{}) }

// StdJSONDriver returns the encoding/json driver. Unlike the default it
// reports byte offsets, so issues carry positions and MaxBytes is enforced
// while streaming.
func StdJSONDriver() JSONDriver { return stdJSONDriver{} }

// GoJSONDriver returns the goccy/go-json driver.
func GoJSONDriver() JSONDriver { return goJSONDriver{} }

func getJSONDriver() JSONDriver {
	jsonDriverMu.RLock()
	d := currentJSONDriver
	jsonDriverMu.RUnlock()
	return d
}

type stdJSONDriver struct{}

func (stdJSONDriver) NewReader(r io.Reader) Source { return SourceFromEngine(jsonsrc.NewReader(r)) }
func (stdJSONDriver) NewBytes(b []byte) Source     { return SourceFromEngine(jsonsrc.NewBytes(b)) }
func (stdJSONDriver) Name() string                 { return "encoding/json" }

type goJSONDriver struct{}

func (goJSONDriver) NewReader(r io.Reader) Source { return SourceFromEngine(gojsonsrc.NewReader(r)) }
func (goJSONDriver) NewBytes(b []byte) Source     { return SourceFromEngine(gojsonsrc.NewBytes(b)) }
func (goJSONDriver) Name() string                 { return "goccy/go-json" }

// JSONReader wraps an io.Reader as a Source using the current driver.
func JSONReader(r io.Reader) Source { return getJSONDriver().NewReader(r) }

// JSONBytes wraps a byte slice as a Source using the current driver.
func JSONBytes(b []byte) Source { return getJSONDriver().NewBytes(b) }

// SourceFromEngine wraps an engine.TokenSource as a Source.
func SourceFromEngine(inner eng.TokenSource) Source {
	return &engineSourceAdapter{inner: inner}
}

// engineTokenSource returns the engine view of s, unwrapping engine-backed
// sources instead of stacking adapters.
func engineTokenSource(s Source) eng.TokenSource {
	if ea, ok := s.(*engineSourceAdapter); ok {
		return ea.inner
	}
	return &tokenSourceAdapter{inner: s}
}

func toEngineDup(s Severity) eng.DuplicateStrictness {
	switch s {
	case Warn:
		return eng.DupWarn
	case Error:
		return eng.DupError
	default:
		return eng.DupIgnore
	}
}

type engineSourceAdapter struct {
	inner eng.TokenSource
}

func (s *engineSourceAdapter) NextToken() (JSONToken, error) {
	t, err := s.inner.NextToken()
	if err != nil {
		return JSONToken{}, err
	}
	return JSONToken{Kind: JSONKind(t.Kind), String: t.String, Number: t.Number, Bool: t.Bool, Offset: t.Offset}, nil
}

func (s *engineSourceAdapter) Location() int64 { return s.inner.Location() }

type tokenSourceAdapter struct{ inner Source }

func (a *tokenSourceAdapter) NextToken() (eng.Token, error) {
	t, err := a.inner.NextToken()
	if err != nil {
		return eng.Token{}, err
	}
	return eng.Token{Kind: eng.Kind(t.Kind), String: t.String, Number: t.Number, Bool: t.Bool, Offset: t.Offset}, nil
}

func (a *tokenSourceAdapter) Location() int64 { return a.inner.Location() }
