package main

import (
	"context"
	"fmt"
	"io"

	json "github.com/goccy/go-json"

	"github.com/reoring/saf"
)

// ValidateCmd reports the issues of each document.
type ValidateCmd struct {
	Files  []string `arg:"" help:"SAF documents (.json or .json.xz)" type:"existingfile"`
	Strict bool     `help:"Treat warnings as failures"`
	Format string   `help:"Report format" enum:"text,json" default:"text"`
}

type issueReport struct {
	File     string `json:"file"`
	Path     string `json:"path"`
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Layer    string `json:"layer,omitempty"`
	Message  string `json:"message"`
}

func (c *ValidateCmd) Run(ctx context.Context, a *app) error {
	failed := 0
	var report []issueReport
	for _, path := range c.Files {
		_, iss, err := a.readDoc(ctx, path)
		if err != nil {
			if hard, ok := saf.AsIssues(err); ok {
				iss = hard
			} else {
				return err
			}
		}
		if iss.HasErrors() || (c.Strict && len(iss) > 0) {
			failed++
		}
		for _, it := range iss {
			report = append(report, issueReport{
				File:     path,
				Path:     it.Path,
				Code:     it.Code,
				Severity: severityName(it.Severity),
				Layer:    it.Layer,
				Message:  it.Message,
			})
		}
	}
	if err := writeReport(a.out, c.Format, report); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d document(s) failed validation", failed, len(c.Files))
	}
	return nil
}

func writeReport(w io.Writer, format string, report []issueReport) error {
	if format == "json" {
		if report == nil {
			report = []issueReport{}
		}
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	}
	for _, r := range report {
		if _, err := fmt.Fprintf(w, "%s:%s: %s %s: %s\n", r.File, r.Path, r.Severity, r.Code, r.Message); err != nil {
			return err
		}
	}
	return nil
}

func severityName(s saf.Severity) string {
	switch s {
	case saf.Error:
		return "error"
	case saf.Warn:
		return "warning"
	default:
		return "info"
	}
}
