// Package filesystem stores SAF documents as one JSON file per document,
// optionally xz compressed.
package filesystem

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/reoring/saf"
	"github.com/reoring/saf/storage"
)

const (
	ext   = ".saf.json"
	extXZ = ".saf.json.xz"
)

// DocStore keeps documents under a directory as <id>.saf.json or, with
// compression enabled, <id>.saf.json.xz.
type DocStore struct {
	dir      string
	compress bool
}

var _ storage.DocRepository = (*DocStore)(nil)

// Option configures a DocStore.
type Option func(*DocStore)

// WithCompression makes Write produce xz compressed files. Reads accept both
// forms regardless.
func WithCompression(on bool) Option {
	return func(s *DocStore) { s.compress = on }
}

// NewDocStore opens a store rooted at dir, creating the directory when needed.
func NewDocStore(dir string, opts ...Option) (*DocStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	s := &DocStore{dir: dir}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Write encodes doc and replaces the stored file atomically.
func (s *DocStore) Write(ctx context.Context, id string, doc *saf.Document) (storage.Meta, error) {
	if err := storage.ValidateID(id); err != nil {
		return storage.Meta{}, err
	}
	if err := ctx.Err(); err != nil {
		return storage.Meta{}, err
	}
	data, meta, err := storage.Encode(id, doc)
	if err != nil {
		return storage.Meta{}, err
	}
	payload := data
	if s.compress {
		var buf bytes.Buffer
		w, err := xz.NewWriter(&buf)
		if err != nil {
			return storage.Meta{}, fmt.Errorf("xz writer: %w", err)
		}
		if _, err := w.Write(data); err != nil {
			return storage.Meta{}, err
		}
		if err := w.Close(); err != nil {
			return storage.Meta{}, err
		}
		payload = buf.Bytes()
	}

	target, stale := s.path(id, s.compress), s.path(id, !s.compress)
	if err := writeAtomic(target, payload); err != nil {
		return storage.Meta{}, err
	}
	if err := os.Remove(stale); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return storage.Meta{}, err
	}
	return meta, nil
}

// Read loads the document stored under id.
func (s *DocStore) Read(ctx context.Context, id string) (*saf.Document, error) {
	data, err := s.readRaw(id)
	if err != nil {
		return nil, err
	}
	return storage.Decode(ctx, data)
}

// List returns metadata for every stored document. Hash and Layers require
// reading each file.
func (s *DocStore) List(ctx context.Context) ([]storage.Meta, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var out []storage.Meta
	seen := map[string]bool{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		id, ok := idFromName(e.Name())
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		data, err := s.readRaw(id)
		if err != nil {
			return nil, err
		}
		doc, err := storage.Decode(ctx, data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		out = append(out, storage.Meta{
			ID:        id,
			Hash:      storage.Hash(data),
			Layers:    doc.LayerNames(),
			Size:      int64(len(data)),
			UpdatedAt: info.ModTime().UTC(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Delete removes both the plain and the compressed file of id.
func (s *DocStore) Delete(ctx context.Context, id string) error {
	if err := storage.ValidateID(id); err != nil {
		return err
	}
	removed := false
	for _, p := range []string{s.path(id, false), s.path(id, true)} {
		err := os.Remove(p)
		switch {
		case err == nil:
			removed = true
		case !errors.Is(err, fs.ErrNotExist):
			return err
		}
	}
	if !removed {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	return nil
}

// readRaw returns the uncompressed bytes stored for id.
func (s *DocStore) readRaw(id string) ([]byte, error) {
	if err := storage.ValidateID(id); err != nil {
		return nil, err
	}
	if data, err := os.ReadFile(s.path(id, false)); err == nil {
		return data, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	f, err := os.Open(s.path(id, true))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r, err := xz.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("xz reader: %w", err)
	}
	return io.ReadAll(r)
}

func (s *DocStore) path(id string, compressed bool) string {
	if compressed {
		return filepath.Join(s.dir, id+extXZ)
	}
	return filepath.Join(s.dir, id+ext)
}

func idFromName(name string) (string, bool) {
	for _, suffix := range []string{extXZ, ext} {
		if id, ok := strings.CutSuffix(name, suffix); ok && id != "" {
			return id, true
		}
	}
	return "", false
}

// writeAtomic writes data to a temp file next to path and renames it into
// place.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Open opens a document file for reading, decompressing .xz files.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".xz") {
		return f, nil
	}
	xr, err := xz.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("xz reader: %w", err)
	}
	return xzFile{Reader: xr, f: f}, nil
}

type xzFile struct {
	*xz.Reader
	f *os.File
}

func (x xzFile) Close() error { return x.f.Close() }

// ReadFile parses a SAF document from a path, decompressing .xz files.
func ReadFile(ctx context.Context, path string, opts ...saf.ParseOpt) (*saf.Document, saf.Issues, error) {
	r, err := Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer r.Close()
	return saf.ParseReader(ctx, r, opts...)
}
