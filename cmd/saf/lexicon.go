package main

import (
	"context"

	"github.com/reoring/saf"
	"github.com/reoring/saf/internal/logging"
	"github.com/reoring/saf/lexicon"
)

// LexiconCmd adds a lexclasses layer computed from a lemma lexicon.
type LexiconCmd struct {
	File    string `arg:"" help:"SAF document" type:"existingfile"`
	Lexicon string `required:"" short:"l" help:"Lexicon file (YAML or JSON)" type:"existingfile"`
	Output  string `short:"o" help:"Output file (default stdout)" type:"path"`
}

func (c *LexiconCmd) Run(ctx context.Context, a *app) error {
	lx, err := lexicon.LoadFile(c.Lexicon)
	if err != nil {
		return err
	}
	doc, _, err := a.readDoc(ctx, c.File)
	if err != nil {
		return err
	}
	p := saf.Pipeline{
		Modules: []saf.Module{lexicon.New(lx)},
		Logger:  logging.LoggerFromContext(logging.WithDocument(ctx, c.File)),
	}
	out, err := p.Run(ctx, doc)
	if err != nil {
		return err
	}
	return a.writeDoc(out, c.Output)
}
