package saf

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Module is one analysis step. Process reads a snapshot of the document and
// returns the layer it produces; it must not modify doc.
type Module interface {
	Name() string
	Version() string
	// Arguments is recorded in the processing record; nil omits it.
	Arguments() any
	Process(ctx context.Context, doc *Document) (Layer, error)
}

// Pipeline runs modules in order, merging each produced layer and recording
// a processing record per module.
type Pipeline struct {
	Modules []Module
	Merger  Merger
	Logger  *slog.Logger
}

// Result is one document leaving RunStream.
type Result struct {
	Doc *Document
	Err error
}

// Run applies every module to doc and returns the final document. doc is not
// modified; each module sees the document produced by the previous one.
func (p *Pipeline) Run(ctx context.Context, doc *Document) (*Document, error) {
	cur := doc
	for _, m := range p.Modules {
		next, err := p.step(ctx, m, cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

func (p *Pipeline) step(ctx context.Context, m Module, doc *Document) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	started := p.Merger.now()
	layer, err := m.Process(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("module %s: %w", m.Name(), err)
	}
	rec := ProcessingRecord{
		Module:        m.Name(),
		ModuleVersion: m.Version(),
		Started:       started,
		Arguments:     m.Arguments(),
	}
	out, err := p.Merger.Merge(ctx, doc, layer, rec)
	if err != nil {
		return nil, fmt.Errorf("module %s: %w", m.Name(), err)
	}
	p.logger().Debug("module applied",
		"module", m.Name(),
		"version", m.Version(),
		"layer", layer.Name,
		"units", len(layer.Units),
		"duration", time.Since(started))
	return out, nil
}

// RunStream connects one goroutine per module with hand-off channels. Each
// document entering in comes out once on the returned channel, in order; a
// failed document skips the remaining stages and carries its error along with
// the last document that was produced for it. The output channel closes
// after in closes or ctx is done.
func (p *Pipeline) RunStream(ctx context.Context, in <-chan *Document) <-chan Result {
	src := make(chan Result)
	go func() {
		defer close(src)
		for {
			select {
			case <-ctx.Done():
				return
			case doc, ok := <-in:
				if !ok {
					return
				}
				if !send(ctx, src, Result{Doc: doc}) {
					return
				}
			}
		}
	}()

	cur := (<-chan Result)(src)
	for _, m := range p.Modules {
		out := make(chan Result)
		go func(m Module, in <-chan Result, out chan<- Result) {
			defer close(out)
			for r := range in {
				if r.Err == nil {
					next, err := p.step(ctx, m, r.Doc)
					if err != nil {
						r.Err = err
						p.logger().Warn("module failed", "module", m.Name(), "err", err)
					} else {
						r.Doc = next
					}
				}
				if !send(ctx, out, r) {
					drain(in)
					return
				}
			}
		}(m, cur, out)
		cur = out
	}
	return cur
}

func send(ctx context.Context, ch chan<- Result, r Result) bool {
	select {
	case ch <- r:
		return true
	case <-ctx.Done():
		return false
	}
}

// drain unblocks upstream stages after a cancellation.
func drain(in <-chan Result) {
	for range in {
	}
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.New(slog.DiscardHandler)
}
