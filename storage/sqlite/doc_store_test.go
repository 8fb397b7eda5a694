package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/reoring/saf"
	"github.com/reoring/saf/storage"
)

func openTest(t *testing.T) *DocStore {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func parse(t *testing.T, src string) *saf.Document {
	t.Helper()
	doc, _, err := saf.ParseBytes(context.Background(), []byte(src))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

const (
	tokensDoc = `{"tokens":[{"id":1,"word":"a"}]}`
	parsedDoc = `{"tokens":[{"id":1,"word":"a"},{"id":2,"word":"b"}],"dependencies":[{"parent":2,"child":1,"relation":"su"}]}`
)

func TestDocStore_WriteRead(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	meta, err := s.Write(ctx, "d1", parse(t, parsedDoc))
	if err != nil {
		t.Fatal(err)
	}
	if meta.Hash != storage.Hash([]byte(parsedDoc)) {
		t.Fatalf("hash mismatch")
	}
	doc, err := s.Read(ctx, "d1")
	if err != nil {
		t.Fatal(err)
	}
	out, _ := saf.Encode(doc)
	if string(out) != parsedDoc {
		t.Fatalf("got %s", out)
	}
	if _, err := s.Read(ctx, "nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDocStore_ListFindDelete(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	if _, err := s.Write(ctx, "b", parse(t, parsedDoc)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Write(ctx, "a", parse(t, tokensDoc)); err != nil {
		t.Fatal(err)
	}

	metas, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 2 || metas[0].ID != "a" || metas[1].ID != "b" {
		t.Fatalf("list: %+v", metas)
	}
	if l := metas[1].Layers; len(l) != 2 || l[0] != "tokens" || l[1] != "dependencies" {
		t.Fatalf("layers: %v", l)
	}
	if metas[0].UpdatedAt.IsZero() {
		t.Fatalf("updated_at not read back")
	}

	found, err := s.FindByLayer(ctx, "dependencies")
	if err != nil || len(found) != 1 || found[0].ID != "b" {
		t.Fatalf("FindByLayer: %+v %v", found, err)
	}

	// overwriting replaces the layer rows
	if _, err := s.Write(ctx, "b", parse(t, tokensDoc)); err != nil {
		t.Fatal(err)
	}
	if found, _ := s.FindByLayer(ctx, "dependencies"); len(found) != 0 {
		t.Fatalf("stale layer rows: %+v", found)
	}

	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "a"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("second delete: %v", err)
	}
	if metas, _ := s.List(ctx); len(metas) != 1 {
		t.Fatalf("list after delete: %+v", metas)
	}
}

func TestDocStore_InvalidID(t *testing.T) {
	s := openTest(t)
	if _, err := s.Write(context.Background(), "", parse(t, tokensDoc)); err == nil {
		t.Fatalf("expected error for empty id")
	}
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	if a == b || len(a) != 36 {
		t.Fatalf("ids: %q %q", a, b)
	}
	if err := storage.ValidateID(a); err != nil {
		t.Fatal(err)
	}
}
