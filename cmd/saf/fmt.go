package main

import (
	"context"
	"fmt"

	"github.com/reoring/saf"
)

// FmtCmd re-encodes a document. Key order is kept, whitespace is normalized.
type FmtCmd struct {
	File    string `arg:"" help:"SAF document" type:"existingfile"`
	Write   bool   `short:"w" help:"Write the result back to the file"`
	Compact bool   `help:"Emit compact JSON instead of indented"`
}

func (c *FmtCmd) Run(ctx context.Context, a *app) error {
	doc, _, err := a.readDoc(ctx, c.File)
	if err != nil {
		return err
	}
	target := "-"
	if c.Write {
		target = c.File
	}
	if !c.Compact {
		return a.writeDoc(doc, target)
	}
	data, err := saf.Encode(doc)
	if err != nil {
		return err
	}
	if target == "-" {
		_, err = fmt.Fprintf(a.out, "%s\n", data)
		return err
	}
	return writeFile(target, append(data, '\n'))
}
