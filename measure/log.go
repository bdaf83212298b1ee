/*
log.go - Append-only record of conversions

PURPOSE:
  Every successful conversion produces an immutable ConversionResult.
  The ConversionLog keeps those records so the history of what was
  converted, through which path, with which effective transform, is
  always reconstructable.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No Update, No Delete. Ever.
  2. IMMUTABLE: Once written, results cannot be modified.

  A wrong conversion is not edited; the caller converts again and both
  records remain.

IMPLEMENTATIONS:
  - measure/store: In-memory log for tests and development
  - store/sqlite:  Persistent log alongside the unit table
*/
package measure

import "context"

// ConversionLog stores conversion results. Append-only.
type ConversionLog interface {
	// Append records a result. This is the ONLY write operation.
	Append(ctx context.Context, result ConversionResult) error

	// Recent returns up to limit results, newest first.
	Recent(ctx context.Context, limit int) ([]ConversionResult, error)

	// ByUnit returns up to limit results that used the unit as source or
	// target, newest first.
	ByUnit(ctx context.Context, id UnitID, limit int) ([]ConversionResult, error)
}
