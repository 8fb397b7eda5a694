package saf

import (
	"fmt"
)

// Reserved layer names with schemas in the default registry.
const (
	LayerTokens       = "tokens"
	LayerDependencies = "dependencies"
)

// Layer is a named, ordered collection of units.
type Layer struct {
	Name  string
	Units []*Object
}

// Document is an in-memory SAF document: an optional header plus named layers.
//
// A Document has a single writer. Readers may share it once parsing and merging
// are done; Merger and Pipeline hand out new documents instead of mutating
// their input.
type Document struct {
	header *Object
	layers []*Layer
	byName map[string]int
	// opaque keeps top-level values that are not a well-formed layer (or
	// header) so encoding stays lossless.
	opaque map[string]any
	// order is the top-level key order used when encoding.
	order []string
	// tokens maps canonical token ids to their index in the tokens layer.
	tokens map[string]int
}

// NewDocument returns an empty document with the given header (may be nil).
func NewDocument(h *Header) *Document {
	d := &Document{byName: map[string]int{}, opaque: map[string]any{}, tokens: map[string]int{}}
	if h != nil {
		d.SetHeader(h)
	}
	return d
}

// Header returns the header view, or nil when the document has none.
func (d *Document) Header() *Header {
	if d.header == nil {
		return nil
	}
	return &Header{obj: d.header}
}

// SetHeader installs h as the document header. A nil h removes the header.
func (d *Document) SetHeader(h *Header) {
	d.ensureMaps()
	if h == nil {
		d.header = nil
		delete(d.opaque, HeaderKey)
		d.removeTopKey(HeaderKey)
		return
	}
	if !d.hasTopKey(HeaderKey) {
		d.order = append([]string{HeaderKey}, d.order...)
	}
	delete(d.opaque, HeaderKey)
	d.header = h.obj
}

// AppendProcessed appends rec to header.processed, creating a header when the
// document has none.
func (d *Document) AppendProcessed(rec ProcessingRecord) error {
	return d.appendProcessedObject(rec.Object())
}

func (d *Document) appendProcessedObject(rec *Object) error {
	if d.header == nil {
		if _, malformed := d.opaque[HeaderKey]; malformed {
			return fmt.Errorf("saf: cannot append processing record: header is malformed")
		}
		h := NewHeader("")
		d.SetHeader(h)
	}
	return d.Header().appendProcessed(rec)
}

// Layer returns the units of the named layer. The slice belongs to the
// document and must not be modified.
func (d *Document) Layer(name string) ([]*Object, bool) {
	l, ok := d.layer(name)
	if !ok {
		return nil, false
	}
	return l.Units, true
}

// RequireLayer is like Layer but fails with ErrLayerNotFound.
func (d *Document) RequireLayer(name string) ([]*Object, error) {
	units, ok := d.Layer(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrLayerNotFound, name)
	}
	return units, nil
}

func (d *Document) layer(name string) (*Layer, bool) {
	i, ok := d.byName[name]
	if !ok {
		return nil, false
	}
	return d.layers[i], true
}

// HasLayer reports whether a well-formed layer of that name exists.
func (d *Document) HasLayer(name string) bool {
	_, ok := d.byName[name]
	return ok
}

// LayerNames returns the layer names in document order.
func (d *Document) LayerNames() []string {
	out := make([]string, 0, len(d.layers))
	for _, l := range d.layers {
		out = append(out, l.Name)
	}
	return out
}

// Layers returns all layers in document order.
func (d *Document) Layers() []Layer {
	out := make([]Layer, 0, len(d.layers))
	for _, l := range d.layers {
		out = append(out, *l)
	}
	return out
}

// Opaque returns the raw top-level values that could not be read as a layer
// or header, keyed by their top-level name.
func (d *Document) Opaque() map[string]any {
	out := make(map[string]any, len(d.opaque))
	for k, v := range d.opaque {
		out[k] = v
	}
	return out
}

// AddLayer adds a layer under policy. Units are copied, so the caller keeps
// ownership of its slice. Adding units whose ids collide with existing tokens
// fails with ErrDuplicateTokenID and leaves the document unchanged.
func (d *Document) AddLayer(name string, units []*Object, policy MergePolicy) error {
	if name == "" || name == HeaderKey {
		return fmt.Errorf("%w: %q", ErrReservedLayerName, name)
	}
	d.ensureMaps()
	units = cloneUnits(units)

	existing, exists := d.layer(name)
	_, isOpaque := d.opaque[name]
	if (exists || isOpaque) && policy == MergeReject {
		return fmt.Errorf("%w: %q", ErrDuplicateLayer, name)
	}
	if isOpaque && policy == MergeAppendUnits {
		return fmt.Errorf("%w: cannot append units to %q, it is not an array of objects", ErrMalformedLayer, name)
	}

	switch {
	case exists && policy == MergeAppendUnits:
		if name == LayerTokens {
			idx, err := extendTokenIndex(d.tokens, len(existing.Units), units)
			if err != nil {
				return err
			}
			d.tokens = idx
		}
		existing.Units = append(existing.Units[:len(existing.Units):len(existing.Units)], units...)
		return nil
	case exists:
		if name == LayerTokens {
			idx, err := extendTokenIndex(nil, 0, units)
			if err != nil {
				return err
			}
			d.tokens = idx
		}
		d.layers[d.byName[name]] = &Layer{Name: name, Units: units}
		return nil
	}

	if name == LayerTokens {
		idx, err := extendTokenIndex(nil, 0, units)
		if err != nil {
			return err
		}
		d.tokens = idx
	}
	delete(d.opaque, name)
	d.byName[name] = len(d.layers)
	d.layers = append(d.layers, &Layer{Name: name, Units: units})
	if !d.hasTopKey(name) {
		d.order = append(d.order, name)
	}
	return nil
}

// AddToken appends one token to the tokens layer, creating the layer when
// needed. A token whose id is already present fails with ErrDuplicateTokenID.
func (d *Document) AddToken(t Token) error {
	return d.AddLayer(LayerTokens, []*Object{t.Object()}, MergeAppendUnits)
}

// Token looks a token up by id in constant time. Integer ids and their decimal
// string form are interchangeable.
func (d *Document) Token(id any) (Token, error) {
	key, ok := idKey(id)
	if !ok {
		return Token{}, fmt.Errorf("%w: %v", ErrUnknownTokenID, id)
	}
	i, ok := d.tokens[key]
	if !ok {
		return Token{}, fmt.Errorf("%w: %v", ErrUnknownTokenID, id)
	}
	units, _ := d.Layer(LayerTokens)
	return TokenFromObject(units[i]), nil
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	c := &Document{
		header: d.header.Clone(),
		layers: make([]*Layer, len(d.layers)),
		byName: make(map[string]int, len(d.byName)),
		opaque: make(map[string]any, len(d.opaque)),
		order:  append([]string(nil), d.order...),
		tokens: make(map[string]int, len(d.tokens)),
	}
	for i, l := range d.layers {
		c.layers[i] = &Layer{Name: l.Name, Units: cloneUnits(l.Units)}
	}
	for k, v := range d.byName {
		c.byName[k] = v
	}
	for k, v := range d.opaque {
		c.opaque[k] = cloneValue(v)
	}
	for k, v := range d.tokens {
		c.tokens[k] = v
	}
	return c
}

func (d *Document) ensureMaps() {
	if d.byName == nil {
		d.byName = map[string]int{}
	}
	if d.opaque == nil {
		d.opaque = map[string]any{}
	}
	if d.tokens == nil {
		d.tokens = map[string]int{}
	}
}

// addOpaque stores a raw top-level value under policy. Replacing a layer
// drops it from the model; appending to anything fails with ErrMalformedLayer.
func (d *Document) addOpaque(name string, v any, policy MergePolicy) error {
	d.ensureMaps()
	_, isLayer := d.byName[name]
	_, isOpaque := d.opaque[name]
	if isLayer || isOpaque {
		switch policy {
		case MergeReject:
			return fmt.Errorf("%w: %q", ErrDuplicateLayer, name)
		case MergeAppendUnits:
			return fmt.Errorf("%w: cannot append %q, it is not an array of objects", ErrMalformedLayer, name)
		}
	}
	if isLayer {
		d.removeLayer(name)
	}
	d.opaque[name] = cloneValue(v)
	if !d.hasTopKey(name) {
		d.order = append(d.order, name)
	}
	return nil
}

func (d *Document) removeLayer(name string) {
	i := d.byName[name]
	d.layers = append(d.layers[:i:i], d.layers[i+1:]...)
	delete(d.byName, name)
	for j := i; j < len(d.layers); j++ {
		d.byName[d.layers[j].Name] = j
	}
	if name == LayerTokens {
		d.tokens = map[string]int{}
	}
}

func (d *Document) removeTopKey(key string) {
	for i, k := range d.order {
		if k == key {
			d.order = append(d.order[:i:i], d.order[i+1:]...)
			return
		}
	}
}

func (d *Document) hasTopKey(key string) bool {
	for _, k := range d.order {
		if k == key {
			return true
		}
	}
	return false
}

// extendTokenIndex returns a copy of idx extended with units placed from
// offset on. Units without a usable id are skipped; the validator reports them.
func extendTokenIndex(idx map[string]int, offset int, units []*Object) (map[string]int, error) {
	out := make(map[string]int, len(idx)+len(units))
	for k, v := range idx {
		out[k] = v
	}
	for i, u := range units {
		v, _ := u.Get(AttrID)
		key, ok := idKey(v)
		if !ok {
			continue
		}
		if _, dup := out[key]; dup {
			return nil, fmt.Errorf("%w: %v", ErrDuplicateTokenID, v)
		}
		out[key] = offset + i
	}
	return out, nil
}

// indexFirstWins builds a token index that keeps the first unit for a repeated
// id. Parsing uses it so duplicates end up in the validation report instead of
// failing the load.
func indexFirstWins(units []*Object) map[string]int {
	out := make(map[string]int, len(units))
	for i, u := range units {
		v, _ := u.Get(AttrID)
		if key, ok := idKey(v); ok {
			if _, seen := out[key]; !seen {
				out[key] = i
			}
		}
	}
	return out
}
