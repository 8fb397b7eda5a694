package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/reoring/saf"
)

// SentenceCmd prints one sentence, or lists the sentence ids when no id is
// given.
type SentenceCmd struct {
	File string `arg:"" help:"SAF document" type:"existingfile"`
	ID   string `help:"Sentence id"`
}

func (c *SentenceCmd) Run(ctx context.Context, a *app) error {
	doc, _, err := a.readDoc(ctx, c.File)
	if err != nil {
		return err
	}
	if c.ID == "" {
		for _, id := range doc.Sentences() {
			fmt.Fprintln(a.out, id)
		}
		return nil
	}
	s, err := doc.Sentence(c.ID)
	if err != nil {
		return err
	}
	words := make([]string, len(s.Tokens))
	for i, t := range s.Tokens {
		words[i] = t.Word
	}
	fmt.Fprintln(a.out, strings.Join(words, " "))
	for _, tr := range s.Triples() {
		fmt.Fprintf(a.out, "%s -%s-> %s\n", label(tr.Child), tr.Relation, label(tr.Parent))
	}
	return nil
}

func label(t saf.Token) string {
	return fmt.Sprintf("%s:%s", t.Key(), t.Word)
}
