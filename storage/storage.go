// Package storage defines repositories for SAF documents.
package storage

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zeebo/blake3"

	"github.com/reoring/saf"
)

// ErrNotFound is returned when no document is stored under an id.
var ErrNotFound = errors.New("storage: document not found")

// Meta describes a stored document without loading its layers.
type Meta struct {
	ID string
	// Hash is the hex BLAKE3 digest of the encoded document.
	Hash      string
	Layers    []string
	Size      int64
	UpdatedAt time.Time
}

// DocReader defines read operations for document storage.
type DocReader interface {
	// Read returns the document stored under id or ErrNotFound.
	Read(ctx context.Context, id string) (*saf.Document, error)

	// List returns the metadata of every stored document, ordered by id.
	List(ctx context.Context) ([]Meta, error)
}

// DocWriter defines write operations for document storage.
type DocWriter interface {
	// Write stores doc under id, replacing any previous version.
	Write(ctx context.Context, id string, doc *saf.Document) (Meta, error)

	// Delete removes the document or returns ErrNotFound.
	Delete(ctx context.Context, id string) error
}

// DocRepository combines read and write operations.
type DocRepository interface {
	DocReader
	DocWriter
}

// Hash returns the hex BLAKE3 digest of data.
func Hash(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Encode serializes doc the way every backend stores it and returns the bytes
// with their metadata.
func Encode(id string, doc *saf.Document) ([]byte, Meta, error) {
	data, err := saf.Encode(doc)
	if err != nil {
		return nil, Meta{}, err
	}
	return data, Meta{
		ID:        id,
		Hash:      Hash(data),
		Layers:    doc.LayerNames(),
		Size:      int64(len(data)),
		UpdatedAt: time.Now().UTC(),
	}, nil
}

// Decode parses stored bytes. Stored documents were encoded by this package,
// so only hard parse failures are reported; conformance is the caller's
// concern.
func Decode(ctx context.Context, data []byte) (*saf.Document, error) {
	doc, _, err := saf.ParseBytes(ctx, data)
	return doc, err
}

// ValidateID rejects ids that are empty, too long, or could escape a
// directory when used as a file name.
func ValidateID(id string) error {
	if id == "" || len(id) > 200 {
		return fmt.Errorf("storage: invalid id %q", id)
	}
	if id == "." || id == ".." || strings.ContainsAny(id, `/\`+"\x00") {
		return fmt.Errorf("storage: invalid id %q", id)
	}
	return nil
}
