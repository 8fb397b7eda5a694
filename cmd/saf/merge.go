package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	json "github.com/goccy/go-json"

	"github.com/reoring/saf"
)

// MergeCmd adds the output of a processing step to a base document. The
// input is either a JSON array of units (named by --layer) or a whole SAF
// document whose layers and processing records are folded in.
type MergeCmd struct {
	Base  string `arg:"" help:"Base SAF document" type:"existingfile"`
	Input string `arg:"" help:"Units array or SAF document to add" type:"existingfile"`

	Layer         string `help:"Layer name for a units array"`
	Module        string `help:"Module recorded in header.processed" default:"saf-merge"`
	ModuleVersion string `name:"module-version" help:"Module version recorded in header.processed" default:"${version}"`
	Args          string `help:"Module arguments as a JSON object or array"`
	Policy        string `help:"On layer name collision: reject, replace or append-units"`
	Output        string `short:"o" help:"Output file (default stdout)" type:"path"`
}

func (c *MergeCmd) Run(ctx context.Context, a *app) error {
	policyName := a.cfg.Merge.Policy
	override(&policyName, c.Policy)
	policy, err := saf.ParseMergePolicy(policyName)
	if err != nil {
		return err
	}
	m := saf.Merger{Policy: policy}

	base, iss, err := a.readDoc(ctx, c.Base)
	if err != nil {
		return err
	}
	if iss.HasErrors() {
		return fmt.Errorf("%s does not conform: %w", c.Base, iss.Err())
	}

	raw, err := os.ReadFile(c.Input)
	if err != nil {
		return err
	}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
		if c.Layer == "" {
			return fmt.Errorf("--layer is required when %s is a units array", c.Input)
		}
		units, err := readUnits(ctx, trimmed, a.opt)
		if err != nil {
			return fmt.Errorf("%s: %w", c.Input, err)
		}
		rec := saf.ProcessingRecord{
			Module:        c.Module,
			ModuleVersion: c.ModuleVersion,
			Started:       time.Now(),
		}
		if c.Args != "" {
			var args any
			if err := json.Unmarshal([]byte(c.Args), &args); err != nil {
				return fmt.Errorf("--args: %w", err)
			}
			rec.Arguments = args
		}
		out, err := m.Merge(ctx, base, saf.Layer{Name: c.Layer, Units: units}, rec)
		if err != nil {
			return err
		}
		return a.writeDoc(out, c.Output)
	}

	other, _, err := a.readDoc(ctx, c.Input)
	if err != nil {
		return err
	}
	out, err := m.MergeDocument(ctx, base, other)
	if err != nil {
		return err
	}
	return a.writeDoc(out, c.Output)
}

// readUnits parses a JSON array of unit objects with the configured driver.
func readUnits(ctx context.Context, data []byte, opt saf.ParseOpt) ([]*saf.Object, error) {
	const key = "units"
	var buf bytes.Buffer
	buf.WriteString(`{"` + key + `":`)
	buf.Write(data)
	buf.WriteString("}")
	doc, _, err := saf.ParseBytes(ctx, buf.Bytes(), opt)
	if err != nil {
		return nil, err
	}
	units, ok := doc.Layer(key)
	if !ok {
		return nil, fmt.Errorf("%w: expected an array of objects", saf.ErrMalformedLayer)
	}
	return units, nil
}
