// Package errs collects the small error-combination helpers shared by the
// paths that must attempt every cleanup substep even after an earlier one
// fails (volume teardown, crash-safe create rollback).
package errs

import (
	"strings"

	"github.com/pkg/errors"
)

// Aggregate joins two or more errors collected from independent substeps
// that were all attempted regardless of earlier failures. A single error is
// never wrapped in an Aggregate — Collect returns it directly.
type Aggregate struct {
	errs []error
}

func (a *Aggregate) Error() string {
	msgs := make([]string, len(a.errs))
	for i, err := range a.errs {
		msgs[i] = err.Error()
	}

	return strings.Join(msgs, "; ")
}

// Unwrap exposes the member errors so errors.Is/errors.As can walk into them.
func (a *Aggregate) Unwrap() []error {
	return a.errs
}

// Collect returns nil if errs (after dropping nils) is empty, the single
// remaining error directly if there's exactly one, or an *Aggregate
// otherwise. Each non-nil error is wrapped with msg via pkg/errors so the
// caller's context survives alongside the underlying cause.
func Collect(msg string, errs ...error) error {
	var kept []error

	for _, err := range errs {
		if err == nil {
			continue
		}

		kept = append(kept, errors.Wrap(err, msg))
	}

	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return &Aggregate{errs: kept}
	}
}
