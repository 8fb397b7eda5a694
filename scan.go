package saf

import (
	"context"
	"errors"
	"fmt"
	"io"

	eng "github.com/reoring/saf/internal/engine"
	"github.com/reoring/saf/internal/stream"
)

// ErrStopScan can be returned by a ScanUnits callback to end the scan early
// without error.
var ErrStopScan = errors.New("saf: stop scan")

// ScanUnits streams the units of every layer in r to fn, in document order,
// holding one unit in memory at a time. The header and top-level values that
// are not arrays are skipped; an array element that is not an object fails
// with ErrMalformedLayer. No schema validation is done. Duplicate keys are
// only enforced when the policy is Error; MaxDepth and MaxBytes apply as in
// ParseFrom.
func ScanUnits(ctx context.Context, r io.Reader, fn func(layer string, index int, unit *Object) error, opts ...ParseOpt) error {
	var opt ParseOpt
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	dup := opt.Strictness.OnDuplicateKey
	if dup == Warn && !opt.FailFast {
		dup = Ignore
	}
	src := JSONReader(r)
	enforced := eng.WrapWithEnforcement(engineTokenSource(src), eng.EnforceOptions{
		OnDuplicate: toEngineDup(dup),
		MaxDepth:    opt.MaxDepth,
		MaxBytes:    opt.MaxBytes,
		FailFast:    opt.FailFast,
	})

	var stop error
	newObject := func() eng.ObjectSink { return NewObject() }
	err := stream.Walk(enforced, stream.Visitor{
		Element: func(key string, i int, sub eng.TokenSource) error {
			if key == HeaderKey {
				return nil
			}
			if i%256 == 0 {
				if stop = ctx.Err(); stop != nil {
					return stop
				}
			}
			v, err := eng.DecodeOrdered(sub, newObject)
			if err != nil {
				return err
			}
			u, ok := v.(*Object)
			if !ok {
				stop = fmt.Errorf("%w: %s is %s, not an object", ErrMalformedLayer, pointerOf(key, i), kindOf(v))
				return stop
			}
			stop = fn(key, i, u)
			return stop
		},
	})
	switch {
	case err == nil:
		return nil
	case stop != nil:
		if errors.Is(stop, ErrStopScan) {
			return nil
		}
		return stop
	case errors.Is(err, stream.ErrNotObject):
		return singleIssue(CodeParseError, err.Error())
	}
	return toIssues(err, src.Location())
}

// LayerStats counts the units of each layer without loading the document.
// names lists the layers in document order; empty layers are not listed.
func LayerStats(ctx context.Context, r io.Reader, opts ...ParseOpt) (names []string, counts map[string]int, err error) {
	counts = map[string]int{}
	err = ScanUnits(ctx, r, func(layer string, _ int, _ *Object) error {
		if _, seen := counts[layer]; !seen {
			names = append(names, layer)
		}
		counts[layer]++
		return nil
	}, opts...)
	return names, counts, err
}
