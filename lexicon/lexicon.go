// Package lexicon assigns lexical classes to tokens from a lemma lexicon and
// emits them as a SAF layer.
package lexicon

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/reoring/saf"
)

// LayerName is the layer produced by the annotator.
const LayerName = "lexclasses"

// Lemmas is one lemma or a list of them. A trailing "*" turns a lemma into a
// prefix pattern.
type Lemmas []string

// UnmarshalYAML accepts either a scalar or a sequence of scalars.
func (l *Lemmas) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		*l = Lemmas{n.Value}
		return nil
	case yaml.SequenceNode:
		var out []string
		if err := n.Decode(&out); err != nil {
			return err
		}
		*l = out
		return nil
	}
	return fmt.Errorf("line %d: lemma must be a string or a list of strings", n.Line)
}

// Entry maps lemmas, optionally restricted to one part of speech, to a
// lexical class.
type Entry struct {
	LexClass string `yaml:"lexclass"`
	Lemma    Lemmas `yaml:"lemma"`
	POS      string `yaml:"pos,omitempty"`
}

// Matches reports whether the entry applies to a token with the given
// (already lowercased) lemma and pos.
func (e Entry) Matches(lemma, pos string) bool {
	if e.POS != "" && e.POS != pos {
		return false
	}
	for _, target := range e.Lemma {
		target = strings.ToLower(target)
		if prefix, ok := strings.CutSuffix(target, "*"); ok {
			if strings.HasPrefix(lemma, prefix) {
				return true
			}
			continue
		}
		if target == lemma {
			return true
		}
	}
	return false
}

// Lexicon is an ordered list of entries.
type Lexicon []Entry

// LoadYAML reads a lexicon from YAML. JSON lexicons load as well.
func LoadYAML(data []byte) (Lexicon, error) {
	var lx Lexicon
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&lx); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("lexicon: %w", err)
	}
	for i, e := range lx {
		if e.LexClass == "" {
			return nil, fmt.Errorf("lexicon: entry %d: lexclass is required", i)
		}
		if len(e.Lemma) == 0 {
			return nil, fmt.Errorf("lexicon: entry %d (%s): lemma is required", i, e.LexClass)
		}
	}
	return lx, nil
}

// LoadFile is LoadYAML for a file path.
func LoadFile(path string) (Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadYAML(data)
}

// Match returns the classes of all entries matching lemma and pos, in lexicon
// order and without repeats. lemma is compared case-insensitively.
func (lx Lexicon) Match(lemma, pos string) []string {
	lemma = strings.ToLower(lemma)
	var out []string
	for _, e := range lx {
		if !e.Matches(lemma, pos) {
			continue
		}
		dup := false
		for _, c := range out {
			if c == e.LexClass {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, e.LexClass)
		}
	}
	return out
}

// Annotator is a pipeline module producing one {token, lexclass} unit per
// matching class of each token. Tokens without a lemma are matched on their
// word.
type Annotator struct {
	Lexicon Lexicon
	// ModuleVersion is recorded in the processing record; "1.0" when empty.
	ModuleVersion string
}

var _ saf.Module = (*Annotator)(nil)

// New returns an annotator over lx.
func New(lx Lexicon) *Annotator { return &Annotator{Lexicon: lx} }

func (a *Annotator) Name() string { return "saf-lexicon" }

func (a *Annotator) Version() string {
	if a.ModuleVersion == "" {
		return "1.0"
	}
	return a.ModuleVersion
}

func (a *Annotator) Arguments() any {
	return map[string]any{"entries": len(a.Lexicon)}
}

// Process implements saf.Module.
func (a *Annotator) Process(ctx context.Context, doc *saf.Document) (saf.Layer, error) {
	layer := saf.Layer{Name: LayerName, Units: []*saf.Object{}}
	for i, t := range doc.Tokens() {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return saf.Layer{}, err
			}
		}
		if t.ID == nil {
			continue
		}
		lemma := t.Lemma
		if lemma == "" {
			lemma = t.Word
		}
		for _, class := range a.Lexicon.Match(lemma, posString(t.POS)) {
			layer.Units = append(layer.Units, saf.ObjectOf("token", t.ID, "lexclass", class))
		}
	}
	return layer, nil
}

// Annotate is Process under the name used outside pipelines.
func (a *Annotator) Annotate(ctx context.Context, doc *saf.Document) (saf.Layer, error) {
	return a.Process(ctx, doc)
}

func posString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	}
	if k, ok := saf.IDKey(v); ok {
		return k
	}
	return fmt.Sprint(v)
}
