/*
errors.go - Centralized error types for the conversion engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers should wrap these errors with additional context.

ERROR CATEGORIES:
  1. Registration errors - Invariant violations when defining units
  2. Conversion errors - Failures resolving or applying a conversion
  3. Lifecycle errors - Deletion/update rules

USAGE:
  Match with errors.Is / errors.As:

    if errors.Is(err, measure.ErrIncompatibleUnitType) { ... }

    var oor *measure.OutOfRangeError
    if errors.As(err, &oor) {
        fmt.Println(oor.Value, oor.UnitID)
    }

RETRY SEMANTICS:
  Every error here is deterministic given the same inputs, so automatic
  retries are pointless - with one exception: a registration that lost
  the "first base unit wins" race may retry once after re-reading state.
  IsRetryable identifies that case.

SEE ALSO:
  - registry.go: Raises registration/lifecycle errors
  - resolver.go: Raises conversion errors
*/
package measure

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrDuplicateUnit is returned when a unit id or (unitType, symbol)
	// pair is already taken.
	ErrDuplicateUnit = errors.New("duplicate unit")

	// ErrInvalidBaseUnit is returned when a second active base unit would
	// be created for a unit type that already has one.
	ErrInvalidBaseUnit = errors.New("invalid base unit")

	// ErrInvalidConversionFactor is returned for zero factors or factors
	// referencing a unit of a different type.
	ErrInvalidConversionFactor = errors.New("invalid conversion factor")

	// ErrUnitNotFound is returned when a referenced unit is missing or
	// inactive.
	ErrUnitNotFound = errors.New("unit not found")

	// ErrIncompatibleUnitType is returned when source and target measure
	// different dimensions. Cross-type conversion is never permitted.
	ErrIncompatibleUnitType = errors.New("incompatible unit types")

	// ErrNoConversionPath is returned when neither a direct factor nor a
	// base-unit path connects source and target.
	ErrNoConversionPath = errors.New("no conversion path")

	// ErrOutOfRange is returned when a value violates the source unit's
	// domain constraints. Values are never clamped silently.
	ErrOutOfRange = errors.New("value out of range")

	// ErrUnitTypeLocked is returned when an update tries to change the
	// unit type of a unit that is already referenced by factors or
	// historical conversions.
	ErrUnitTypeLocked = errors.New("unit type cannot be changed")

	// ErrSystemUnit is returned when trying to delete a system unit.
	// System units can only be deactivated.
	ErrSystemUnit = errors.New("system unit cannot be deleted")

	// ErrUnitInUse is returned when trying to hard-delete a unit with a
	// non-zero usage count. Used units are deactivated instead.
	ErrUnitInUse = errors.New("unit has recorded usage")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// DuplicateUnitError reports which key collided.
type DuplicateUnitError struct {
	ID       UnitID
	UnitType UnitType
	Symbol   string
}

func (e *DuplicateUnitError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("duplicate unit: symbol %q already registered for type %s", e.Symbol, e.UnitType)
	}
	return fmt.Sprintf("duplicate unit: id %q already registered", e.ID)
}

func (e *DuplicateUnitError) Unwrap() error { return ErrDuplicateUnit }

// InvalidBaseUnitError reports a violation of the single-base invariant.
type InvalidBaseUnitError struct {
	ID       UnitID
	UnitType UnitType
	Existing UnitID
}

func (e *InvalidBaseUnitError) Error() string {
	return fmt.Sprintf("cannot register %q as base unit: type %s already has active base unit %q",
		e.ID, e.UnitType, e.Existing)
}

func (e *InvalidBaseUnitError) Unwrap() error { return ErrInvalidBaseUnit }

// InvalidConversionFactorError reports a malformed factor entry.
type InvalidConversionFactorError struct {
	UnitID     UnitID
	TargetUnit UnitID
	Reason     string
}

func (e *InvalidConversionFactorError) Error() string {
	return fmt.Sprintf("invalid conversion factor %s -> %s: %s", e.UnitID, e.TargetUnit, e.Reason)
}

func (e *InvalidConversionFactorError) Unwrap() error { return ErrInvalidConversionFactor }

// UnitNotFoundError reports a missing or inactive unit.
type UnitNotFoundError struct {
	ID       UnitID
	Inactive bool
}

func (e *UnitNotFoundError) Error() string {
	if e.Inactive {
		return fmt.Sprintf("unit %q is inactive", e.ID)
	}
	return fmt.Sprintf("unit %q not found", e.ID)
}

func (e *UnitNotFoundError) Unwrap() error { return ErrUnitNotFound }

// IncompatibleUnitTypeError reports a cross-type conversion attempt.
type IncompatibleUnitTypeError struct {
	FromUnit UnitID
	FromType UnitType
	ToUnit   UnitID
	ToType   UnitType
}

func (e *IncompatibleUnitTypeError) Error() string {
	return fmt.Sprintf("cannot convert %s (%s) to %s (%s): unit types differ",
		e.FromUnit, e.FromType, e.ToUnit, e.ToType)
}

func (e *IncompatibleUnitTypeError) Unwrap() error { return ErrIncompatibleUnitType }

// NoConversionPathError reports that resolution failed.
type NoConversionPathError struct {
	FromUnit UnitID
	ToUnit   UnitID
	UnitType UnitType
	Reason   string
}

func (e *NoConversionPathError) Error() string {
	return fmt.Sprintf("no conversion path from %s to %s (%s): %s",
		e.FromUnit, e.ToUnit, e.UnitType, e.Reason)
}

func (e *NoConversionPathError) Unwrap() error { return ErrNoConversionPath }

// OutOfRangeError reports a domain-constraint violation.
type OutOfRangeError struct {
	UnitID UnitID
	Value  decimal.Decimal
	Min    *decimal.Decimal
	Max    *decimal.Decimal
	Reason string
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("value %s out of range for unit %s: %s", e.Value, e.UnitID, e.Reason)
}

func (e *OutOfRangeError) Unwrap() error { return ErrOutOfRange }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on a single retry.
// Only the concurrent-registration conflict on the single-base invariant
// qualifies; everything else is deterministic.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrInvalidBaseUnit)
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrDuplicateUnit) ||
		errors.Is(err, ErrInvalidBaseUnit) ||
		errors.Is(err, ErrInvalidConversionFactor) ||
		errors.Is(err, ErrIncompatibleUnitType) ||
		errors.Is(err, ErrNoConversionPath) ||
		errors.Is(err, ErrOutOfRange) ||
		errors.Is(err, ErrUnitTypeLocked) ||
		errors.Is(err, ErrSystemUnit) ||
		errors.Is(err, ErrUnitInUse)
}

// IsNotFound returns true if the error indicates a missing unit.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUnitNotFound)
}
