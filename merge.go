package saf

import (
	"context"
	"fmt"
	"time"
)

// Merger adds the output of one processing step to a document.
type Merger struct {
	// Policy applies when the layer name already exists. The zero value is
	// MergeReject.
	Policy MergePolicy
	// Clock fills ProcessingRecord.Started when it is zero; nil means time.Now.
	Clock func() time.Time
}

// Merge returns a copy of doc with layer added under m.Policy and rec appended
// to header.processed. doc itself is never modified. A header is created when
// doc has none. Existing processing records keep their order.
func (m Merger) Merge(ctx context.Context, doc *Document, layer Layer, rec ProcessingRecord) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := doc.Clone()
	if err := out.AddLayer(layer.Name, layer.Units, m.Policy); err != nil {
		return nil, err
	}
	if rec.Started.IsZero() {
		rec.Started = m.now()
	}
	if err := out.AppendProcessed(rec); err != nil {
		return nil, err
	}
	return out, nil
}

// MergeDocument folds the top-level content of other into a copy of base, in
// other's order, then appends all of other's processing records after base's.
// Layers go through AddLayer under m.Policy; values that are not layers are
// carried over as they are, with the same collision rules. A malformed header
// in other is not carried.
func (m Merger) MergeDocument(ctx context.Context, base, other *Document) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := base.Clone()
	for _, key := range other.order {
		if l, ok := other.layer(key); ok {
			if err := out.AddLayer(l.Name, l.Units, m.Policy); err != nil {
				return nil, fmt.Errorf("merge layer %q: %w", l.Name, err)
			}
			continue
		}
		v, ok := other.opaque[key]
		if !ok || key == HeaderKey {
			continue
		}
		if err := out.addOpaque(key, v, m.Policy); err != nil {
			return nil, fmt.Errorf("merge %q: %w", key, err)
		}
	}
	h := other.Header()
	if h == nil {
		return out, nil
	}
	v, _ := h.obj.Get(AttrProcessed)
	recs, _ := v.([]any)
	for _, r := range recs {
		o, ok := r.(*Object)
		if !ok {
			continue
		}
		if err := out.appendProcessedObject(o.Clone()); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (m Merger) now() time.Time {
	if m.Clock != nil {
		return m.Clock()
	}
	return time.Now()
}

// Merge adds layer to a copy of doc with the default merger.
func Merge(ctx context.Context, doc *Document, layer Layer, rec ProcessingRecord) (*Document, error) {
	return Merger{}.Merge(ctx, doc, layer, rec)
}
