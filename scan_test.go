package saf_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/reoring/saf"
)

func TestScanUnits(t *testing.T) {
	type seen struct {
		layer string
		index int
		word  string
	}
	var got []seen
	err := saf.ScanUnits(context.Background(), strings.NewReader(workedExample), func(layer string, i int, u *saf.Object) error {
		w, _ := u.String("word")
		got = append(got, seen{layer, i, w})
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 6 {
		t.Fatalf("units: %+v", got)
	}
	if got[1] != (seen{"tokens", 1, "wrote"}) || got[5] != (seen{"dependencies", 1, ""}) {
		t.Fatalf("units: %+v", got)
	}
}

func TestScanUnits_Stop(t *testing.T) {
	n := 0
	err := saf.ScanUnits(context.Background(), strings.NewReader(workedExample), func(string, int, *saf.Object) error {
		n++
		if n == 2 {
			return saf.ErrStopScan
		}
		return nil
	})
	if err != nil || n != 2 {
		t.Fatalf("n=%d err=%v", n, err)
	}

	boom := errors.New("boom")
	err = saf.ScanUnits(context.Background(), strings.NewReader(workedExample), func(string, int, *saf.Object) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("callback error must pass through: %v", err)
	}
}

func TestScanUnits_SkipsNonLayers(t *testing.T) {
	src := `{"header":{"format":"SAF","processed":[{"module":"m"}]},"note":"x","tokens":[{"id":1,"word":"a"}],"meta":{"k":[1]}}`
	names, counts, err := saf.LayerStats(context.Background(), strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0] != "tokens" || counts["tokens"] != 1 {
		t.Fatalf("names=%v counts=%v", names, counts)
	}
}

func TestScanUnits_Errors(t *testing.T) {
	ctx := context.Background()
	noop := func(string, int, *saf.Object) error { return nil }

	err := saf.ScanUnits(ctx, strings.NewReader(`{"tokens":[1]}`), noop)
	if !errors.Is(err, saf.ErrMalformedLayer) {
		t.Fatalf("expected ErrMalformedLayer, got %v", err)
	}
	for _, src := range []string{`[]`, `{"tokens":[{"id":1}`, ``} {
		iss, ok := saf.AsIssues(saf.ScanUnits(ctx, strings.NewReader(src), noop))
		if !ok || iss[0].Code != saf.CodeParseError {
			t.Errorf("%q: expected parse_error, got %v", src, iss)
		}
	}
	err = saf.ScanUnits(ctx, strings.NewReader(`{"tokens":[{"id":1,"id":2}]}`), noop,
		saf.ParseOpt{Strictness: saf.Strictness{OnDuplicateKey: saf.Error}})
	if iss, ok := saf.AsIssues(err); !ok || iss[0].Code != saf.CodeDuplicateKey {
		t.Fatalf("expected duplicate_key, got %v", err)
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if err := saf.ScanUnits(canceled, strings.NewReader(workedExample), noop); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
