package saf_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/reoring/saf"
	"github.com/reoring/saf/i18n"
)

func TestValidate_RequiredAttributes(t *testing.T) {
	_, iss := mustParse(t, `{"tokens":[{"id":1}],"dependencies":[{"parent":1,"child":1}]}`)
	req := iss.WithCode(saf.CodeRequired)
	if len(req) != 2 {
		t.Fatalf("expected 2 required issues, got %v", iss)
	}
	if req[0].Path != "/tokens/0/word" || req[0].Layer != "tokens" || req[0].Field != "word" {
		t.Fatalf("unexpected: %+v", req[0])
	}
	if req[1].Path != "/dependencies/0/relation" {
		t.Fatalf("unexpected: %+v", req[1])
	}
}

func TestValidate_ConfidenceRangeIsWarning(t *testing.T) {
	_, iss := mustParse(t, `{"tokens":[{"id":1,"word":"a","pos-confidence":1.5,"lemma-confidence":-0.1}]}`)
	if iss.HasErrors() {
		t.Fatalf("range violations must be warnings: %v", iss)
	}
	rng := iss.WithCode(saf.CodeRange)
	if len(rng) != 2 {
		t.Fatalf("expected 2 range issues, got %v", iss)
	}
	if rng[0].Severity != saf.Warn || rng[0].Path != "/tokens/0/pos-confidence" {
		t.Fatalf("unexpected: %+v", rng[0])
	}
	if got, _ := rng[0].Params["got"].(float64); got != 1.5 {
		t.Fatalf("params: %v", rng[0].Params)
	}
}

func TestValidate_OverflowingConfidenceIsRangeWarning(t *testing.T) {
	_, iss := mustParse(t, `{"tokens":[{"id":1,"word":"a","pos-confidence":1e400,"lemma-confidence":-1e400}]}`)
	if iss.HasErrors() {
		t.Fatalf("overflowing confidence must not be an error: %v", iss)
	}
	rng := iss.WithCode(saf.CodeRange)
	if len(rng) != 2 || rng[0].Path != "/tokens/0/pos-confidence" || rng[1].Path != "/tokens/0/lemma-confidence" {
		t.Fatalf("expected 2 range issues, got %v", iss)
	}
	if got, _ := rng[0].Params["got"].(float64); !math.IsInf(got, 1) {
		t.Fatalf("params: %v", rng[0].Params)
	}
}

func TestValidate_InvalidTypes(t *testing.T) {
	_, iss := mustParse(t, `{"tokens":[{"id":1.5,"word":3,"offset":"x"},{"id":true,"word":"b"}]}`)
	bad := iss.WithCode(saf.CodeInvalidType)
	paths := map[string]bool{}
	for _, it := range bad {
		paths[it.Path] = true
	}
	for _, p := range []string{"/tokens/0/id", "/tokens/0/word", "/tokens/0/offset", "/tokens/1/id"} {
		if !paths[p] {
			t.Errorf("missing invalid_type at %s (got %v)", p, bad)
		}
	}
}

func TestValidate_DanglingReference(t *testing.T) {
	_, iss := mustParse(t, `{"tokens":[{"id":1,"word":"a"},{"id":2,"word":"b"}],"dependencies":[{"parent":2,"child":9,"relation":"su"},{"parent":"2","child":"1","relation":"x"}]}`)
	dang := iss.WithCode(saf.CodeDanglingReference)
	if len(dang) != 1 {
		t.Fatalf("expected 1 dangling reference, got %v", iss)
	}
	it := dang[0]
	if it.Path != "/dependencies/0/child" || it.Layer != "dependencies" || it.Severity != saf.Error {
		t.Fatalf("unexpected: %+v", it)
	}
	if it.Params["ref"] != "tokens" {
		t.Fatalf("params: %v", it.Params)
	}
}

func TestValidate_DependenciesWithoutTokens(t *testing.T) {
	_, iss := mustParse(t, `{"dependencies":[{"parent":1,"child":2,"relation":"su"}]}`)
	if n := len(iss.WithCode(saf.CodeDanglingReference)); n != 2 {
		t.Fatalf("expected both ends dangling, got %v", iss)
	}
}

func TestValidate_Header(t *testing.T) {
	_, iss := mustParse(t, `{"header":{"format":"XAF","processed":{}}}`)
	want := map[string]string{
		"/header/format-version": saf.CodeRequired,
		"/header/format":         saf.CodeInvalidFormat,
		"/header/processed":      saf.CodeInvalidType,
	}
	if len(iss) != len(want) {
		t.Fatalf("issues: %v", iss)
	}
	for _, it := range iss {
		if want[it.Path] != it.Code {
			t.Errorf("unexpected issue %s at %s", it.Code, it.Path)
		}
	}
}

func TestValidate_ProcessingRecords(t *testing.T) {
	src := `{"header":{"format":"SAF","format-version":"1.0","processed":[` +
		`{"module":"tok","module-version":"1"},` +
		`{"module":"tok","module-version":"1","started":"yesterday","arguments":"x"},` +
		`{"module":"tok","module-version":"1","started":"2024-01-01 12:00:00","arguments":{"lang":"en"}}]}}`
	_, iss := mustParse(t, src)
	if req := iss.WithCode(saf.CodeRequired); len(req) != 1 || req[0].Path != "/header/processed/0/started" {
		t.Fatalf("required: %v", iss)
	}
	fmtIss := iss.WithCode(saf.CodeInvalidFormat)
	if len(fmtIss) != 1 || fmtIss[0].Severity != saf.Warn || fmtIss[0].Path != "/header/processed/1/started" {
		t.Fatalf("timestamp: %v", iss)
	}
	if typ := iss.WithCode(saf.CodeInvalidType); len(typ) != 1 || typ[0].Path != "/header/processed/1/arguments" {
		t.Fatalf("arguments: %v", iss)
	}
}

func TestValidate_FormatVersionPatternWarns(t *testing.T) {
	_, iss := mustParse(t, `{"header":{"format":"SAF","format-version":"one","processed":[]}}`)
	if iss.HasErrors() || len(iss.WithCode(saf.CodeInvalidFormat)) != 1 {
		t.Fatalf("issues: %v", iss)
	}
}

func TestValidate_DoesNotMutate(t *testing.T) {
	doc, _ := mustParse(t, `{"tokens":[{"id":1,"word":"a","pos-confidence":7}]}`)
	before, _ := saf.Encode(doc)
	saf.Validate(context.Background(), doc)
	after, _ := saf.Encode(doc)
	if string(before) != string(after) {
		t.Fatalf("validation changed the document")
	}
}

func TestValidate_Canceled(t *testing.T) {
	doc, _ := mustParse(t, workedExample)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	iss := saf.Validate(ctx, doc)
	if tr := iss.WithCode(saf.CodeTruncated); len(tr) != 1 || !errors.Is(tr[0].Cause, context.Canceled) {
		t.Fatalf("issues: %v", iss)
	}
}

func TestValidateValue(t *testing.T) {
	var raw any
	if err := json.Unmarshal([]byte(`{"tokens":[{"id":1}]}`), &raw); err != nil {
		t.Fatal(err)
	}
	v := saf.NewValidator(nil)
	iss, err := v.ValidateValue(context.Background(), raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(iss.WithCode(saf.CodeRequired)) != 1 {
		t.Fatalf("issues: %v", iss)
	}

	_, err = v.ValidateValue(context.Background(), map[string]any{"tokens": "oops"})
	if !errors.Is(err, saf.ErrMalformedLayer) {
		t.Fatalf("expected ErrMalformedLayer, got %v", err)
	}
	if _, err := v.ValidateValue(context.Background(), []any{1}); err == nil {
		t.Fatalf("expected error for a non-object document")
	}
}

func TestValidate_CustomLayer(t *testing.T) {
	reg := saf.DefaultRegistry()
	err := reg.Register(saf.LayerSchema{
		Name: "entities",
		Key:  "id",
		Attributes: []saf.AttrSpec{
			{Name: "id", Type: saf.TypeID, Required: true},
			{Name: "head", Type: saf.TypeID, Required: true, Ref: "tokens"},
			{Name: "type", Type: saf.TypeString},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	src := `{"tokens":[{"id":1,"word":"Paris"}],"entities":[{"id":"e1","head":1,"type":"LOC"},{"id":"e1","head":4}]}`
	_, iss := mustParse(t, src, saf.ParseOpt{Registry: reg})
	if n := len(iss.WithCode(saf.CodeDanglingReference)); n != 1 {
		t.Fatalf("dangling: %v", iss)
	}
	if n := len(iss.WithCode(saf.CodeDuplicateTokenID)); n != 1 {
		t.Fatalf("duplicate: %v", iss)
	}

	// the default registry is untouched
	_, iss = mustParse(t, src)
	if len(iss) != 0 {
		t.Fatalf("entities must be unknown to the default registry: %v", iss)
	}
}

func TestValidate_MessagesFollowLanguage(t *testing.T) {
	defer i18n.SetLanguage("en")
	_, iss := mustParse(t, `{"tokens":[{"id":1}]}`)
	if iss[0].Message != "missing required attribute word" {
		t.Fatalf("en: %q", iss[0].Message)
	}
	i18n.SetLanguage("ja")
	_, iss = mustParse(t, `{"tokens":[{"id":1}]}`)
	if iss[0].Message != "必須属性 word がありません" {
		t.Fatalf("ja: %q", iss[0].Message)
	}
}
