package saf_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/reoring/saf"
)

func TestRoundTrip_LosslessOrder(t *testing.T) {
	doc, _ := mustParse(t, workedExample)
	out, err := saf.Encode(doc)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != workedExample {
		t.Fatalf("round trip changed the document:\n got %s\nwant %s", out, workedExample)
	}
}

func TestRoundTrip_UnknownLayerPreserved(t *testing.T) {
	src := `{"tokens":[{"id":1,"word":"a"}],"coref":[{"mention":[1,2],"score":0.5,"note":null,"nested":{"z":1,"a":2}}]}`
	doc, iss := mustParse(t, src)
	if len(iss) != 0 {
		t.Fatalf("unknown layers must not produce issues: %v", iss)
	}
	if !doc.HasLayer("coref") {
		t.Fatalf("coref layer missing")
	}
	out, err := saf.Encode(doc)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != src {
		t.Fatalf("got %s", out)
	}
}

func TestRoundTrip_Indented(t *testing.T) {
	doc, _ := mustParse(t, workedExample)
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	again, _ := mustParse(t, buf.String())
	a, _ := saf.Encode(doc)
	b, _ := saf.Encode(again)
	if !bytes.Equal(a, b) {
		t.Fatalf("indented round trip differs:\n%s\n%s", a, b)
	}
}

func TestParse_MalformedLayerKeptOpaque(t *testing.T) {
	src := `{"header":{"format":"SAF","format-version":"1.0","processed":[]},"tokens":"oops","notes":[1,2]}`
	doc, iss := mustParse(t, src)
	mal := iss.WithCode(saf.CodeMalformedLayer)
	if len(mal) != 2 {
		t.Fatalf("expected 2 malformed_layer issues, got %v", iss)
	}
	if mal[0].Path != "/tokens" || mal[0].Layer != "tokens" || mal[0].Severity != saf.Error {
		t.Fatalf("unexpected issue: %+v", mal[0])
	}
	if doc.HasLayer("tokens") {
		t.Fatalf("malformed value must not become a layer")
	}
	if _, ok := doc.Opaque()["notes"]; !ok {
		t.Fatalf("malformed value not kept")
	}
	out, err := saf.Encode(doc)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != src {
		t.Fatalf("malformed content not preserved: %s", out)
	}
}

func TestParse_MalformedHeader(t *testing.T) {
	doc, iss := mustParse(t, `{"header":[1],"tokens":[]}`)
	mal := iss.WithCode(saf.CodeMalformedLayer)
	if len(mal) != 1 || mal[0].Path != "/header" || mal[0].Layer != "" {
		t.Fatalf("issues: %v", iss)
	}
	if doc.Header() != nil {
		t.Fatalf("malformed header must not be exposed as a Header")
	}
	if err := doc.AppendProcessed(saf.ProcessingRecord{Module: "m", ModuleVersion: "1"}); err == nil {
		t.Fatalf("appending to a malformed header must fail")
	}
}

func TestParse_DuplicateTokenIDReported(t *testing.T) {
	doc, iss := mustParse(t, `{"tokens":[{"id":1,"word":"a"},{"id":"1","word":"b"}]}`)
	dup := iss.WithCode(saf.CodeDuplicateTokenID)
	if len(dup) != 1 || dup[0].Path != "/tokens/1/id" {
		t.Fatalf("issues: %v", iss)
	}
	if dup[0].Params["first"] != 0 {
		t.Fatalf("params: %v", dup[0].Params)
	}
	// first occurrence wins for lookups
	if tok, _ := doc.Token(1); tok.Word != "a" {
		t.Fatalf("Token(1).Word = %q", tok.Word)
	}
}

func TestParse_DuplicateKeys(t *testing.T) {
	src := []byte(`{"tokens":[{"id":1,"word":"a","word":"b"}]}`)
	ctx := context.Background()

	doc, iss, err := saf.ParseBytes(ctx, src, saf.ParseOpt{Strictness: saf.Strictness{OnDuplicateKey: saf.Warn}})
	if err != nil {
		t.Fatalf("warn mode must not fail: %v", err)
	}
	dk := iss.WithCode(saf.CodeDuplicateKey)
	if len(dk) != 1 || dk[0].Severity != saf.Warn || dk[0].Path != "/tokens/0/word" {
		t.Fatalf("issues: %v", iss)
	}
	if tok, _ := doc.Token(1); tok.Word != "b" {
		t.Fatalf("last value should win, got %q", tok.Word)
	}

	_, _, err = saf.ParseBytes(ctx, src, saf.ParseOpt{Strictness: saf.Strictness{OnDuplicateKey: saf.Error}})
	hard, ok := saf.AsIssues(err)
	if !ok || len(hard) == 0 || hard[0].Code != saf.CodeDuplicateKey || hard[0].Path != "/tokens/0/word" {
		t.Fatalf("error mode: %v", err)
	}

	_, iss, err = saf.ParseBytes(ctx, src)
	if err != nil || len(iss.WithCode(saf.CodeDuplicateKey)) != 0 {
		t.Fatalf("ignore mode: %v %v", iss, err)
	}
}

func TestParse_MaxDepth(t *testing.T) {
	src := []byte(`{"tokens":[{"id":1,"word":"a"}]}`)
	_, _, err := saf.ParseBytes(context.Background(), src, saf.ParseOpt{MaxDepth: 2})
	iss, ok := saf.AsIssues(err)
	if !ok || iss[0].Path != "/tokens/0" || !strings.Contains(iss[0].Message, "depth") {
		t.Fatalf("expected depth issue at /tokens/0, got %v", err)
	}
	if _, _, err := saf.ParseBytes(context.Background(), src, saf.ParseOpt{MaxDepth: 3}); err != nil {
		t.Fatalf("depth 3 must pass: %v", err)
	}
}

func TestParse_MaxBytes(t *testing.T) {
	src := workedExample
	opt := saf.ParseOpt{MaxBytes: 16}
	for name, parse := range map[string]func() error{
		"bytes": func() error {
			_, _, err := saf.ParseBytes(context.Background(), []byte(src), opt)
			return err
		},
		"reader": func() error {
			_, _, err := saf.ParseReader(context.Background(), strings.NewReader(src), opt)
			return err
		},
	} {
		iss, ok := saf.AsIssues(parse())
		if !ok || iss[0].Code != saf.CodeTruncated {
			t.Fatalf("%s: expected truncated, got %v", name, iss)
		}
	}
	if _, _, err := saf.ParseReader(context.Background(), strings.NewReader(src), saf.ParseOpt{MaxBytes: int64(len(src))}); err != nil {
		t.Fatalf("input at the limit must pass: %v", err)
	}
}

func TestParse_FailFast(t *testing.T) {
	src := []byte(`{"tokens":[{"word":"a"},{"id":2}]}`)
	doc, iss, err := saf.ParseBytes(context.Background(), src, saf.ParseOpt{FailFast: true})
	if err == nil {
		t.Fatalf("expected error")
	}
	first, ok := saf.AsIssues(err)
	if !ok || len(first) != 1 || first[0].Code != saf.CodeRequired || first[0].Path != "/tokens/0/id" {
		t.Fatalf("first issue: %v", err)
	}
	if doc == nil || len(iss) < 2 {
		t.Fatalf("document and full report should still be returned: %v", iss)
	}
}

func TestParse_NotAnObject(t *testing.T) {
	for _, src := range []string{`[1,2]`, `"x"`, ``, `{"tokens":[`, `{} {}`} {
		_, _, err := saf.ParseBytes(context.Background(), []byte(src))
		iss, ok := saf.AsIssues(err)
		if !ok || iss[0].Code != saf.CodeParseError {
			t.Errorf("%q: expected parse_error, got %v", src, err)
		}
	}
}

func TestParse_Drivers(t *testing.T) {
	defer saf.UseDefaultJSONDriver()
	for _, d := range []saf.JSONDriver{saf.StdJSONDriver(), saf.GoJSONDriver()} {
		saf.SetJSONDriver(d)
		doc, iss := mustParse(t, workedExample, saf.ParseOpt{Strictness: saf.Strictness{OnDuplicateKey: saf.Warn}})
		if len(iss) != 0 {
			t.Fatalf("%s: issues %v", d.Name(), iss)
		}
		out, err := saf.Encode(doc)
		if err != nil || string(out) != workedExample {
			t.Fatalf("%s: round trip: %s %v", d.Name(), out, err)
		}
		doc, _, err = saf.ParseReader(context.Background(), strings.NewReader(workedExample))
		if err != nil || !doc.HasLayer("dependencies") {
			t.Fatalf("%s: reader: %v", d.Name(), err)
		}
	}
}

func TestParse_StdDriverReportsOffset(t *testing.T) {
	defer saf.UseDefaultJSONDriver()
	saf.SetJSONDriver(saf.StdJSONDriver())
	_, _, err := saf.ParseBytes(context.Background(), []byte(`{"a":[{"b":1,"b":2}]}`), saf.ParseOpt{Strictness: saf.Strictness{OnDuplicateKey: saf.Error}})
	iss, ok := saf.AsIssues(err)
	if !ok || iss[0].Offset <= 0 {
		t.Fatalf("expected an offset, got %v", iss)
	}
}

func TestParse_ErrorsUnwrap(t *testing.T) {
	_, _, err := saf.ParseBytes(context.Background(), []byte(`{"tokens":[{"word":"a"}]}`), saf.ParseOpt{FailFast: true})
	var iss saf.Issues
	if !errors.As(err, &iss) {
		t.Fatalf("errors.As(Issues) failed for %T", err)
	}
}
