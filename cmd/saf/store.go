package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/gosuri/uiprogress"

	"github.com/reoring/saf/internal/logging"
	"github.com/reoring/saf/storage"
	"github.com/reoring/saf/storage/filesystem"
	"github.com/reoring/saf/storage/sqlite"
)

// StoreGroup contains storage operations.
type StoreGroup struct {
	Put    StorePutCmd    `cmd:"" help:"Store documents"`
	Get    StoreGetCmd    `cmd:"" help:"Print a stored document"`
	Ls     StoreLsCmd     `cmd:"" help:"List stored documents"`
	Rm     StoreRmCmd     `cmd:"" help:"Delete a stored document"`
	Import StoreImportCmd `cmd:"" help:"Import every document of a directory"`
}

// StoreFlags select the backend: a SQLite database (--db) or a directory
// (--dir). Unset flags fall back to the store section of the config file.
type StoreFlags struct {
	DB       string `help:"SQLite database path" type:"path" env:"SAF_DB"`
	Dir      string `help:"Directory store root" type:"path" env:"SAF_DIR"`
	Compress bool   `help:"xz compress documents in a directory store"`
}

type backend struct {
	storage.DocRepository
	name  string
	close func() error
}

func (f *StoreFlags) open(a *app) (*backend, error) {
	db, dir := a.cfg.Store.DB, a.cfg.Store.Dir
	override(&db, f.DB)
	override(&dir, f.Dir)
	switch {
	case db != "" && dir != "":
		return nil, errors.New("choose either --db or --dir")
	case db != "":
		s, err := sqlite.Open(db)
		if err != nil {
			return nil, err
		}
		return &backend{DocRepository: s, name: "sqlite", close: s.Close}, nil
	case dir != "":
		s, err := filesystem.NewDocStore(dir, filesystem.WithCompression(f.Compress || a.cfg.Store.Compress))
		if err != nil {
			return nil, err
		}
		return &backend{DocRepository: s, name: "filesystem", close: func() error { return nil }}, nil
	}
	return nil, errors.New("no store configured: use --db or --dir")
}

func (b *backend) put(ctx context.Context, id, path string, a *app) (storage.Meta, error) {
	doc, iss, err := a.readDoc(ctx, path)
	if err != nil {
		return storage.Meta{}, err
	}
	if iss.HasErrors() {
		return storage.Meta{}, fmt.Errorf("%s does not conform: %w", path, iss.Err())
	}
	start := time.Now()
	meta, err := b.Write(ctx, id, doc)
	logging.StoreOperation(ctx, "write", b.name, id, time.Since(start))
	return meta, err
}

// StorePutCmd stores documents. Ids default to the file name without its
// extensions, or a random id with --new-id.
type StorePutCmd struct {
	StoreFlags `embed:""`

	Files []string `arg:"" help:"SAF documents" type:"existingfile"`
	ID    string   `help:"Id for a single document"`
	NewID bool     `name:"new-id" help:"Generate random ids"`
}

func (c *StorePutCmd) Run(ctx context.Context, a *app) error {
	if c.ID != "" && len(c.Files) > 1 {
		return errors.New("--id needs exactly one file")
	}
	b, err := c.open(a)
	if err != nil {
		return err
	}
	defer b.close()
	for _, path := range c.Files {
		id := c.ID
		switch {
		case id != "":
		case c.NewID:
			id = sqlite.NewID()
		default:
			id = idFromPath(path)
		}
		meta, err := b.put(ctx, id, path, a)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s\t%s\n", meta.ID, meta.Hash)
	}
	return nil
}

// StoreGetCmd prints a stored document.
type StoreGetCmd struct {
	StoreFlags `embed:""`

	ID     string `arg:"" help:"Document id"`
	Output string `short:"o" help:"Output file (default stdout)" type:"path"`
}

func (c *StoreGetCmd) Run(ctx context.Context, a *app) error {
	b, err := c.open(a)
	if err != nil {
		return err
	}
	defer b.close()
	start := time.Now()
	doc, err := b.Read(ctx, c.ID)
	logging.StoreOperation(ctx, "read", b.name, c.ID, time.Since(start))
	if err != nil {
		return err
	}
	return a.writeDoc(doc, c.Output)
}

// StoreLsCmd lists stored documents.
type StoreLsCmd struct {
	StoreFlags `embed:""`
}

func (c *StoreLsCmd) Run(ctx context.Context, a *app) error {
	b, err := c.open(a)
	if err != nil {
		return err
	}
	defer b.close()
	metas, err := b.List(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSIZE\tUPDATED\tLAYERS\tHASH")
	for _, m := range metas {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%.12s\n", m.ID, m.Size, m.UpdatedAt.Format(time.RFC3339), strings.Join(m.Layers, ","), m.Hash)
	}
	return w.Flush()
}

// StoreRmCmd deletes a stored document.
type StoreRmCmd struct {
	StoreFlags `embed:""`

	ID string `arg:"" help:"Document id"`
}

func (c *StoreRmCmd) Run(ctx context.Context, a *app) error {
	b, err := c.open(a)
	if err != nil {
		return err
	}
	defer b.close()
	return b.Delete(ctx, c.ID)
}

// StoreImportCmd imports every *.json and *.json.xz file of a directory.
type StoreImportCmd struct {
	StoreFlags `embed:""`

	From string `arg:"" help:"Directory with SAF documents" type:"existingdir"`
	Skip bool   `help:"Skip non-conforming documents instead of failing"`
}

func (c *StoreImportCmd) Run(ctx context.Context, a *app) error {
	b, err := c.open(a)
	if err != nil {
		return err
	}
	defer b.close()

	entries, err := os.ReadDir(c.From)
	if err != nil {
		return err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && (strings.HasSuffix(e.Name(), ".json") || strings.HasSuffix(e.Name(), ".json.xz")) {
			files = append(files, filepath.Join(c.From, e.Name()))
		}
	}
	fmt.Fprintf(a.out, "Reading docs from %s...\n", c.From)

	uiprogress.Start()
	bar := uiprogress.AddBar(len(files))
	bar.AppendCompleted()
	bar.PrependElapsed()

	count, skipped := 0, 0
	for _, path := range files {
		if _, err := b.put(ctx, idFromPath(path), path, a); err != nil {
			if !c.Skip {
				uiprogress.Stop()
				return fmt.Errorf("failed to import %s: %w", path, err)
			}
			logging.Warn("import_skipped", "file", path, "error", err.Error())
			skipped++
		} else {
			count++
		}
		bar.Incr()
	}
	uiprogress.Stop()

	fmt.Fprintf(a.out, "Imported %d docs from %s (%d skipped)\n", count, c.From, skipped)
	return nil
}

func idFromPath(path string) string {
	name := filepath.Base(path)
	for _, suffix := range []string{".xz", ".json", ".saf"} {
		name = strings.TrimSuffix(name, suffix)
	}
	return name
}
