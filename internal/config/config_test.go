package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/reoring/saf"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_MissingFileIsZero(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Parse.MaxDepth != 0 || c.Store.DB != "" {
		t.Fatalf("expected zero config, got %+v", c)
	}
}

func TestLoad_ParsesSections(t *testing.T) {
	p := writeFile(t, "c.yaml", `
log:
  level: debug
  format: json
parse:
  duplicate-keys: warn
  max-depth: 64
  driver: encoding/json
merge:
  policy: append-units
store:
  dir: /tmp/docs
  compress: true
language: ja
`)
	c, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if c.Log.Level != "debug" || c.Store.Dir != "/tmp/docs" || !c.Store.Compress || c.Language != "ja" {
		t.Fatalf("unexpected config: %+v", c)
	}
	opt, err := c.ParseOpt()
	if err != nil {
		t.Fatal(err)
	}
	if opt.Strictness.OnDuplicateKey != saf.Warn || opt.MaxDepth != 64 || opt.Registry != nil {
		t.Fatalf("unexpected parse options: %+v", opt)
	}
	if c.JSONDriver().Name() != "encoding/json" {
		t.Fatalf("unexpected driver %s", c.JSONDriver().Name())
	}
}

func TestLoad_RejectsUnknownKeysAndValues(t *testing.T) {
	for _, body := range []string{
		"bogus: 1\n",
		"merge:\n  policy: overwrite\n",
		"parse:\n  duplicate-keys: sometimes\n",
		"parse:\n  driver: sonic\n",
	} {
		if _, err := Load(writeFile(t, "c.yaml", body)); err == nil {
			t.Errorf("expected error for %q", strings.TrimSpace(body))
		}
	}
}

func TestParseOpt_LoadsExtraSchemas(t *testing.T) {
	schema := writeFile(t, "entities.yaml", `
layers:
  - name: entities
    attributes:
      - {name: token, type: id, required: true, ref: tokens}
      - {name: type, type: string, required: true}
`)
	c := &Config{Schemas: []string{schema}}
	opt, err := c.ParseOpt()
	if err != nil {
		t.Fatal(err)
	}
	if opt.Registry == nil {
		t.Fatal("expected a registry")
	}
	for _, name := range []string{saf.LayerTokens, "entities"} {
		if _, ok := opt.Registry.Lookup(name); !ok {
			t.Errorf("schema %s not registered", name)
		}
	}
}
