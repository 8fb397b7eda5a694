package storage_test

import (
	"context"
	"strings"
	"testing"

	"github.com/reoring/saf"
	"github.com/reoring/saf/storage"
)

func TestHash(t *testing.T) {
	a := storage.Hash([]byte("abc"))
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
	if a != storage.Hash([]byte("abc")) || a == storage.Hash([]byte("abd")) {
		t.Fatalf("hash is not a function of its input")
	}
}

func TestValidateID(t *testing.T) {
	for _, id := range []string{"doc-1", "2024_03_01.a", "ü"} {
		if err := storage.ValidateID(id); err != nil {
			t.Errorf("%q: %v", id, err)
		}
	}
	for _, id := range []string{"", ".", "..", "a/b", `a\b`, "a\x00", strings.Repeat("x", 201)} {
		if err := storage.ValidateID(id); err == nil {
			t.Errorf("%q: expected error", id)
		}
	}
}

func TestEncodeDecode(t *testing.T) {
	doc := saf.NewDocument(saf.NewHeader(""))
	if err := doc.AddToken(saf.Token{ID: 1, Word: "a"}); err != nil {
		t.Fatal(err)
	}
	data, meta, err := storage.Encode("d1", doc)
	if err != nil {
		t.Fatal(err)
	}
	if meta.ID != "d1" || meta.Size != int64(len(data)) || meta.Hash != storage.Hash(data) {
		t.Fatalf("meta: %+v", meta)
	}
	if len(meta.Layers) != 1 || meta.Layers[0] != "tokens" || meta.UpdatedAt.IsZero() {
		t.Fatalf("meta: %+v", meta)
	}
	back, err := storage.Decode(context.Background(), data)
	if err != nil {
		t.Fatal(err)
	}
	if tok, err := back.Token(1); err != nil || tok.Word != "a" {
		t.Fatalf("decoded token: %+v %v", tok, err)
	}
	if _, err := storage.Decode(context.Background(), []byte("[]")); err == nil {
		t.Fatalf("expected error for non-object body")
	}
}
