package saf

import (
	"fmt"
	"time"

	"github.com/reoring/saf/codec"
)

const (
	// HeaderKey is the only reserved top-level key; every other key names a layer.
	HeaderKey = "header"
	// FormatName is the constant value of header.format.
	FormatName = "SAF"
	// FormatVersion is written into headers created by this package.
	FormatVersion = "1.0"
)

// Header attribute names.
const (
	AttrFormat        = "format"
	AttrFormatVersion = "format-version"
	AttrProcessed     = "processed"
	AttrModule        = "module"
	AttrModuleVersion = "module-version"
	AttrStarted       = "started"
	AttrArguments     = "arguments"
)

// Header is a view over the header object of a document. Unknown header keys
// stay in the underlying Object.
type Header struct {
	obj *Object
}

// NewHeader returns a header with format SAF, the given version (FormatVersion
// when empty) and an empty processed list.
func NewHeader(version string) *Header {
	if version == "" {
		version = FormatVersion
	}
	return &Header{obj: ObjectOf(
		AttrFormat, FormatName,
		AttrFormatVersion, version,
		AttrProcessed, []any{},
	)}
}

// Object returns the underlying header object.
func (h *Header) Object() *Object { return h.obj }

func (h *Header) Format() string {
	s, _ := h.obj.String(AttrFormat)
	return s
}

func (h *Header) FormatVersion() string {
	s, _ := h.obj.String(AttrFormatVersion)
	return s
}

// Processed returns the processing records in pipeline order. Entries that are
// not objects are skipped; the validator reports them.
func (h *Header) Processed() []ProcessingRecord {
	v, _ := h.obj.Get(AttrProcessed)
	arr, _ := v.([]any)
	out := make([]ProcessingRecord, 0, len(arr))
	for _, e := range arr {
		if o, ok := e.(*Object); ok {
			out = append(out, recordFromObject(o))
		}
	}
	return out
}

func (h *Header) appendProcessed(rec *Object) error {
	v, ok := h.obj.Get(AttrProcessed)
	if !ok || v == nil {
		h.obj.Set(AttrProcessed, []any{rec})
		return nil
	}
	arr, ok := v.([]any)
	if !ok {
		return fmt.Errorf("saf: header %s is %T, not an array", AttrProcessed, v)
	}
	h.obj.Set(AttrProcessed, append(arr[:len(arr):len(arr)], rec))
	return nil
}

// ProcessingRecord describes one analysis module applied to a document.
type ProcessingRecord struct {
	Module        string
	ModuleVersion string
	Started       time.Time
	// Arguments is an optional mapping or sequence of module parameters.
	Arguments any
}

// Object returns the wire form of the record.
func (r ProcessingRecord) Object() *Object {
	o := ObjectOf(
		AttrModule, r.Module,
		AttrModuleVersion, r.ModuleVersion,
		AttrStarted, codec.FormatTimestamp(r.Started),
	)
	if r.Arguments != nil {
		o.Set(AttrArguments, toObject(r.Arguments))
	}
	return o
}

func recordFromObject(o *Object) ProcessingRecord {
	var r ProcessingRecord
	r.Module, _ = o.String(AttrModule)
	r.ModuleVersion, _ = o.String(AttrModuleVersion)
	if s, ok := o.String(AttrStarted); ok {
		r.Started, _ = codec.ParseTimestamp(s)
	}
	r.Arguments, _ = o.Get(AttrArguments)
	return r
}
