package saf

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// AttrType is the value type an attribute must have.
type AttrType string

const (
	TypeAny        AttrType = "any"
	TypeString     AttrType = "string"
	TypeInteger    AttrType = "integer"
	TypeNumber     AttrType = "number"
	TypeID         AttrType = "id"         // integer or non-empty string
	TypeConfidence AttrType = "confidence" // number in [0,1]
)

func (t AttrType) valid() bool {
	switch t {
	case TypeAny, TypeString, TypeInteger, TypeNumber, TypeID, TypeConfidence:
		return true
	}
	return false
}

// AttrSpec describes one attribute of a layer schema.
type AttrSpec struct {
	Name     string   `yaml:"name"`
	Type     AttrType `yaml:"type"`
	Required bool     `yaml:"required,omitempty"`
	// Ref names the layer whose key attribute this attribute points into.
	Ref string `yaml:"ref,omitempty"`
}

// LayerSchema declares the attributes of a layer.
type LayerSchema struct {
	Name string `yaml:"name"`
	// Key is the attribute that identifies units of this layer; it must be
	// unique within the layer and is what references resolve against.
	Key        string     `yaml:"key,omitempty"`
	Attributes []AttrSpec `yaml:"attributes"`
}

// Attr returns the definition of the named attribute.
func (s *LayerSchema) Attr(name string) (AttrSpec, bool) {
	for _, a := range s.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return AttrSpec{}, false
}

// Required returns the names of the required attributes in declaration order.
func (s *LayerSchema) Required() []string {
	var out []string
	for _, a := range s.Attributes {
		if a.Required {
			out = append(out, a.Name)
		}
	}
	return out
}

func (s *LayerSchema) check() error {
	if s.Name == "" || s.Name == HeaderKey {
		return fmt.Errorf("saf: schema: invalid layer name %q", s.Name)
	}
	seen := map[string]bool{}
	for _, a := range s.Attributes {
		if a.Name == "" {
			return fmt.Errorf("saf: schema %s: attribute without name", s.Name)
		}
		if seen[a.Name] {
			return fmt.Errorf("saf: schema %s: attribute %q declared twice", s.Name, a.Name)
		}
		seen[a.Name] = true
		if !a.Type.valid() {
			return fmt.Errorf("saf: schema %s: attribute %q has unknown type %q", s.Name, a.Name, a.Type)
		}
	}
	if s.Key != "" && !seen[s.Key] {
		return fmt.Errorf("saf: schema %s: key %q is not a declared attribute", s.Name, s.Key)
	}
	return nil
}

func (s LayerSchema) clone() *LayerSchema {
	s.Attributes = append([]AttrSpec(nil), s.Attributes...)
	return &s
}

// Registry maps layer names to schemas. New layers are registered as data,
// without touching validator code.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*LayerSchema
	order   []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{schemas: map[string]*LayerSchema{}}
}

// Register adds or replaces the schema for s.Name.
func (r *Registry) Register(s LayerSchema) error {
	if err := s.check(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.schemas[s.Name]; !ok {
		r.order = append(r.order, s.Name)
	}
	r.schemas[s.Name] = s.clone()
	return nil
}

// Lookup returns the schema registered for a layer.
func (r *Registry) Lookup(name string) (*LayerSchema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[name]
	return s, ok
}

// Names returns the registered layer names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Clone returns an independent copy of the registry.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := NewRegistry()
	for _, name := range r.order {
		c.order = append(c.order, name)
		c.schemas[name] = r.schemas[name].clone()
	}
	return c
}

type registryFile struct {
	Layers []LayerSchema `yaml:"layers"`
}

// LoadYAML registers every layer schema found in data. Nothing is registered
// when any schema is invalid.
func (r *Registry) LoadYAML(data []byte) error {
	var f registryFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("saf: schema: %w", err)
	}
	for i := range f.Layers {
		if err := f.Layers[i].check(); err != nil {
			return err
		}
	}
	for _, s := range f.Layers {
		if err := r.Register(s); err != nil {
			return err
		}
	}
	return nil
}

// LoadYAMLFile is LoadYAML for a file path.
func (r *Registry) LoadYAMLFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return r.LoadYAML(data)
}

// LoadRegistryYAML builds a registry from YAML only, without the defaults.
func LoadRegistryYAML(data []byte) (*Registry, error) {
	r := NewRegistry()
	if err := r.LoadYAML(data); err != nil {
		return nil, err
	}
	return r, nil
}

//go:embed schema/saf.yaml
var defaultSchemaYAML []byte

var defaultRegistry = sync.OnceValues(func() (*Registry, error) {
	return LoadRegistryYAML(defaultSchemaYAML)
})

// DefaultRegistry returns a fresh copy of the built-in schemas: tokens,
// dependencies and lexclasses. Callers may register more layers on it.
func DefaultRegistry() *Registry {
	r, err := defaultRegistry()
	if err != nil {
		panic(fmt.Sprintf("saf: embedded schema is invalid: %v", err))
	}
	return r.Clone()
}
