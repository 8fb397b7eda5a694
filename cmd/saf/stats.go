package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/reoring/saf"
	"github.com/reoring/saf/storage/filesystem"
)

// StatsCmd counts layer units by streaming the file, without loading it.
type StatsCmd struct {
	Files []string `arg:"" help:"SAF documents (.json or .json.xz)" type:"existingfile"`
}

func (c *StatsCmd) Run(ctx context.Context, a *app) error {
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tLAYER\tUNITS")
	for _, path := range c.Files {
		r, err := filesystem.Open(path)
		if err != nil {
			return err
		}
		names, counts, err := saf.LayerStats(ctx, r, a.opt)
		r.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		for _, name := range names {
			fmt.Fprintf(w, "%s\t%s\t%d\n", path, name, counts[name])
		}
	}
	return w.Flush()
}
