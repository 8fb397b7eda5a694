package i18n

import "testing"

func TestTranslator_DefaultAndJapanese(t *testing.T) {
	// default is en
	if msg := T("invalid_type", nil); msg == "invalid_type" || msg == "" {
		t.Fatalf("expected a human message, got %q", msg)
	}

	SetLanguage("ja")
	if msg := T("required", map[string]string{"attr": "word"}); msg != "必須属性 word がありません" {
		t.Fatalf("expected japanese message, got %q", msg)
	}

	// reset to en
	SetLanguage("en")
}

func TestTranslator_Placeholders(t *testing.T) {
	got := T("dangling_reference", map[string]string{"attr": "parent", "layer": "tokens", "got": "9"})
	if got != "parent refers to unknown tokens id 9" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestTranslator_UnknownCodeAndLanguage(t *testing.T) {
	if got := T("no_such_code", nil); got != "no_such_code" {
		t.Fatalf("expected code echo, got %q", got)
	}
	SetLanguage("xx")
	if got := T("truncated", nil); got != "truncated" {
		t.Fatalf("expected english fallback, got %q", got)
	}
}

type upper struct{}

func (upper) Message(code string, _ map[string]string) string { return "X:" + code }

func TestSetTranslator_CustomAndReset(t *testing.T) {
	SetTranslator(upper{})
	if got := T("range", nil); got != "X:range" {
		t.Fatalf("custom translator not used: %q", got)
	}
	SetTranslator(nil)
	if got := T("truncated", nil); got != "truncated" {
		t.Fatalf("expected english after reset, got %q", got)
	}
}
