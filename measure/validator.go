/*
validator.go - Domain bounds and definition checks

PURPOSE:
  Enforces per-unit numeric domain rules independent of conversion
  direction, and owns the checks shared between the registry and the
  resolver:

    Validate:           min/max/negative policy on a raw value
    SameType:           unit-type compatibility
    ValidateDefinition: structural invariants I2, I3, I4 on a definition

  ValidateDefinition runs at registration time, so a factor referencing
  a different-type unit is rejected when the unit is defined, not
  discovered mid-conversion.

STRICT MODE:
  Values finer than the unit's precision increment normally pass with
  the excess silently absorbed by display rounding. In strict mode a
  value that would lose more than one decimalPlaces digit of meaningful
  information is rejected instead.
*/
package measure

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// VALUE VALIDATION
// =============================================================================

// Validate checks a raw value against the unit's domain constraints.
// Returns an *OutOfRangeError on violation; values are never clamped.
func Validate(value decimal.Decimal, unit *MeasurementUnit) error {
	return validate(value, unit, false)
}

// ValidateStrict additionally rejects values misaligned with the unit's
// precision increment.
func ValidateStrict(value decimal.Decimal, unit *MeasurementUnit) error {
	return validate(value, unit, true)
}

func validate(value decimal.Decimal, unit *MeasurementUnit, strict bool) error {
	// An explicit MinValue is the stronger statement; AllowNegative only
	// supplies the sign default when no lower bound is set.
	if unit.MinValue == nil && !unit.AllowNegative && value.IsNegative() {
		return &OutOfRangeError{
			UnitID: unit.ID,
			Value:  value,
			Reason: "negative values are not allowed",
		}
	}
	if unit.MinValue != nil && value.LessThan(*unit.MinValue) {
		return &OutOfRangeError{
			UnitID: unit.ID,
			Value:  value,
			Min:    unit.MinValue,
			Reason: fmt.Sprintf("below minimum %s", unit.MinValue),
		}
	}
	if unit.MaxValue != nil && value.GreaterThan(*unit.MaxValue) {
		return &OutOfRangeError{
			UnitID: unit.ID,
			Value:  value,
			Max:    unit.MaxValue,
			Reason: fmt.Sprintf("above maximum %s", unit.MaxValue),
		}
	}
	if strict && !PrecisionAligned(value, unit) {
		return &OutOfRangeError{
			UnitID: unit.ID,
			Value:  value,
			Reason: fmt.Sprintf("finer than unit precision %s", unit.Precision),
		}
	}
	return nil
}

// PrecisionAligned reports whether value is representable at the unit's
// precision increment without losing more than one decimalPlaces digit
// of information. Units with no precision configured always pass.
func PrecisionAligned(value decimal.Decimal, unit *MeasurementUnit) bool {
	if unit.Precision.IsZero() || unit.Precision.IsNegative() {
		return true
	}
	// Snap to the nearest multiple of the increment and compare the
	// residue against one digit past decimalPlaces.
	steps := value.Div(unit.Precision).Round(0)
	residue := value.Sub(steps.Mul(unit.Precision)).Abs()
	tolerance := decimal.New(1, -(unit.DecimalPlaces + 1))
	return residue.LessThanOrEqual(tolerance)
}

// SameType reports whether two units measure the same dimension.
func SameType(a, b *MeasurementUnit) bool {
	return a != nil && b != nil && a.UnitType == b.UnitType
}

// =============================================================================
// DEFINITION VALIDATION - Invariants I2, I3, I4
// =============================================================================

// ValidateDefinition checks the structural invariants of a unit
// definition. lookup resolves referenced units (same-registry scope);
// it returns nil for unknown ids.
func ValidateDefinition(u *MeasurementUnit, lookup func(UnitID) *MeasurementUnit) error {
	if u.ID == "" {
		return &InvalidConversionFactorError{UnitID: u.ID, Reason: "unit id is required"}
	}
	if !u.UnitType.Valid() {
		return &InvalidConversionFactorError{UnitID: u.ID, Reason: fmt.Sprintf("unknown unit type %q", u.UnitType)}
	}
	if u.UnitSystem != "" && !u.UnitSystem.Valid() {
		return &InvalidConversionFactorError{UnitID: u.ID, Reason: fmt.Sprintf("unknown unit system %q", u.UnitSystem)}
	}
	if u.DecimalPlaces < 0 {
		return &InvalidConversionFactorError{UnitID: u.ID, Reason: "decimal places must be >= 0"}
	}
	if u.Precision.IsNegative() {
		return &InvalidConversionFactorError{UnitID: u.ID, Reason: "precision must be >= 0"}
	}
	if u.MinValue != nil && u.MaxValue != nil && u.MinValue.GreaterThan(*u.MaxValue) {
		return &InvalidConversionFactorError{UnitID: u.ID, Reason: "min value exceeds max value"}
	}

	// I2: baseUnitRef points to a unit of the same type.
	if u.BaseUnitRef != "" {
		ref := lookup(u.BaseUnitRef)
		if ref == nil {
			return &InvalidConversionFactorError{
				UnitID: u.ID, TargetUnit: u.BaseUnitRef,
				Reason: "base unit reference points to an unknown unit",
			}
		}
		if ref.UnitType != u.UnitType {
			return &InvalidConversionFactorError{
				UnitID: u.ID, TargetUnit: u.BaseUnitRef,
				Reason: fmt.Sprintf("base unit reference has type %s, want %s", ref.UnitType, u.UnitType),
			}
		}
	}

	// I3 + I4 on every factor entry.
	seen := make(map[UnitID]bool, len(u.ConversionFactors))
	for _, cf := range u.ConversionFactors {
		if cf.TargetUnit == "" {
			return &InvalidConversionFactorError{UnitID: u.ID, Reason: "factor target unit is required"}
		}
		if cf.TargetUnit == u.ID {
			return &InvalidConversionFactorError{
				UnitID: u.ID, TargetUnit: cf.TargetUnit,
				Reason: "factor targets its own unit",
			}
		}
		if seen[cf.TargetUnit] {
			return &InvalidConversionFactorError{
				UnitID: u.ID, TargetUnit: cf.TargetUnit,
				Reason: "duplicate factor entry for target",
			}
		}
		seen[cf.TargetUnit] = true

		if cf.Factor.IsZero() {
			return &InvalidConversionFactorError{
				UnitID: u.ID, TargetUnit: cf.TargetUnit,
				Reason: "factor must be non-zero",
			}
		}

		target := lookup(cf.TargetUnit)
		if target == nil {
			return &InvalidConversionFactorError{
				UnitID: u.ID, TargetUnit: cf.TargetUnit,
				Reason: "factor references an unknown unit",
			}
		}
		if target.UnitType != u.UnitType {
			return &InvalidConversionFactorError{
				UnitID: u.ID, TargetUnit: cf.TargetUnit,
				Reason: fmt.Sprintf("factor references type %s, owner has type %s", target.UnitType, u.UnitType),
			}
		}
	}
	return nil
}
