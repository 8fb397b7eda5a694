package saf

import "fmt"

// Severity expresses the severity level for issues.
type Severity int

const (
	Ignore Severity = iota
	Warn
	Error
)

// Strictness configures enforcement for duplicate JSON object keys.
type Strictness struct {
	OnDuplicateKey Severity // Ignore, Warn or Error.
}

// ParseOpt bundles parsing options.
type ParseOpt struct {
	Strictness Strictness
	MaxDepth   int
	MaxBytes   int64
	// Registry supplies layer schemas for validation; nil means DefaultRegistry.
	Registry *Registry
	// FailFast stops at the first issue and returns it as the error.
	FailFast bool
}

// MergePolicy decides what happens when a layer is added under a name that
// already exists in the document.
type MergePolicy int

const (
	// MergeReject fails with ErrDuplicateLayer.
	MergeReject MergePolicy = iota
	// MergeReplace swaps the existing layer for the new one in place.
	MergeReplace
	// MergeAppendUnits appends the new units to the existing layer.
	MergeAppendUnits
)

func (p MergePolicy) String() string {
	switch p {
	case MergeReject:
		return "reject"
	case MergeReplace:
		return "replace"
	case MergeAppendUnits:
		return "append-units"
	default:
		return fmt.Sprintf("MergePolicy(%d)", int(p))
	}
}

// ParseMergePolicy maps "reject", "replace" and "append-units" to a policy.
// The empty string selects MergeReject.
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch s {
	case "", "reject":
		return MergeReject, nil
	case "replace":
		return MergeReplace, nil
	case "append-units", "append":
		return MergeAppendUnits, nil
	}
	return MergeReject, fmt.Errorf("saf: unknown merge policy %q", s)
}

// ParseSeverity maps "ignore", "warn" and "error" to a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch s {
	case "", "ignore":
		return Ignore, nil
	case "warn":
		return Warn, nil
	case "error":
		return Error, nil
	}
	return Ignore, fmt.Errorf("saf: unknown severity %q", s)
}
