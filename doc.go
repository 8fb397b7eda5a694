// Package saf reads, writes, validates and merges SAF documents, a JSON
// interchange format for layered NLP annotations.
//
// A document is an optional header plus named layers of units:
//
// - The document model keeps layer and attribute order, so round trips are lossless
// - Parsing is tolerant: schema violations come back as Issues next to the document
// - Layer schemas live in a Registry loaded from YAML; unknown layers are kept untouched
// - A Merger adds one module's layer and its processing record to a copy of a document
//
// Typical usage:
//
//	doc, issues, err := saf.ParseBytes(ctx, data)
//	if err != nil {
//		return err // not a JSON object, or an enforcement limit was hit
//	}
//	if err := issues.Err(); err != nil {
//		return err // the document does not conform
//	}
//	tok, err := doc.Token(2)
//
//	next, err := saf.Merger{}.Merge(ctx, doc, layer, saf.ProcessingRecord{Module: "parser", ModuleVersion: "1.0"})
package saf
