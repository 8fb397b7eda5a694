package saf_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/reoring/saf"
)

func TestDefaultRegistry(t *testing.T) {
	reg := saf.DefaultRegistry()
	names := reg.Names()
	if len(names) != 3 || names[0] != "tokens" || names[1] != "dependencies" || names[2] != "lexclasses" {
		t.Fatalf("names: %v", names)
	}
	s, ok := reg.Lookup("tokens")
	if !ok || s.Key != "id" {
		t.Fatalf("tokens schema: %+v", s)
	}
	if req := s.Required(); len(req) != 2 || req[0] != "id" || req[1] != "word" {
		t.Fatalf("required: %v", req)
	}
	if a, ok := s.Attr("pos-confidence"); !ok || a.Type != saf.TypeConfidence {
		t.Fatalf("pos-confidence: %+v", a)
	}
	dep, _ := reg.Lookup("dependencies")
	if a, _ := dep.Attr("child"); a.Ref != "tokens" {
		t.Fatalf("child ref: %+v", a)
	}
}

func TestLoadRegistryYAML(t *testing.T) {
	reg, err := saf.LoadRegistryYAML([]byte(`
layers:
  - name: chunks
    key: id
    attributes:
      - {name: id, type: id, required: true}
      - {name: start, type: id, required: true, ref: tokens}
      - {name: label, type: string}
`))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := reg.Lookup("tokens"); ok {
		t.Fatalf("LoadRegistryYAML must not include the defaults")
	}
	if _, ok := reg.Lookup("chunks"); !ok {
		t.Fatalf("chunks missing")
	}
}

func TestLoadRegistryYAML_Invalid(t *testing.T) {
	cases := map[string]string{
		"unknown type":     "layers:\n  - name: x\n    attributes:\n      - {name: a, type: float}\n",
		"undeclared key":   "layers:\n  - name: x\n    key: id\n    attributes:\n      - {name: a, type: string}\n",
		"repeated attr":    "layers:\n  - name: x\n    attributes:\n      - {name: a, type: string}\n      - {name: a, type: id}\n",
		"reserved name":    "layers:\n  - name: header\n    attributes: []\n",
		"unknown field":    "layers:\n  - name: x\n    colour: red\n",
		"not a layer list": "layers: 3\n",
	}
	for name, src := range cases {
		if _, err := saf.LoadRegistryYAML([]byte(src)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestRegistry_LoadYAMLIsAtomic(t *testing.T) {
	reg := saf.NewRegistry()
	err := reg.LoadYAML([]byte("layers:\n  - name: good\n    attributes: []\n  - name: bad\n    attributes:\n      - {name: a, type: nope}\n"))
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(reg.Names()) != 0 {
		t.Fatalf("nothing may be registered on error: %v", reg.Names())
	}
}

func TestRegistry_LoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layers.yaml")
	if err := os.WriteFile(path, []byte("layers:\n  - name: senses\n    attributes:\n      - {name: token, type: id, required: true, ref: tokens}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	reg := saf.DefaultRegistry()
	if err := reg.LoadYAMLFile(path); err != nil {
		t.Fatal(err)
	}
	_, iss := mustParse(t, `{"tokens":[{"id":1,"word":"bank"}],"senses":[{"token":2}]}`, saf.ParseOpt{Registry: reg})
	if n := len(iss.WithCode(saf.CodeDanglingReference)); n != 1 {
		t.Fatalf("issues: %v", iss)
	}
	if err := reg.LoadYAMLFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
