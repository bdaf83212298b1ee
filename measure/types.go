/*
Package measure provides the core measurement-unit conversion engine.

PURPOSE:
  This package contains the types and algorithms for defining measurement
  units (weight, volume, length, temperature, ...) and converting numeric
  values between them. Every unit type has one canonical base unit; all
  other units of the type describe an affine transform to or from it.

KEY CONCEPTS IN THIS FILE (types.go):
  - MeasurementUnit: The canonical definition of one unit
  - ConversionFactor: A stored affine transform toward a target unit
  - Transform: The affine math (apply, invert, compose)
  - ConversionResult: An immutable record of one conversion

DESIGN PRINCIPLES:
  1. Immutability: ConversionResults are never modified after creation
  2. Precision: Uses decimal.Decimal to avoid floating-point errors
  3. Type Safety: Closed UnitType/UnitSystem enumerations reject invalid
     combinations at registration, not at conversion time
  4. Unidirectional storage: Transforms are stored in one direction and
     inverted analytically; both directions never need to be registered

USAGE:
  kg := &measure.MeasurementUnit{ID: "kg", UnitType: measure.TypeWeight, IsBaseUnit: true, ...}
  g := &measure.MeasurementUnit{
      ID: "g", UnitType: measure.TypeWeight,
      ConversionFactors: []measure.ConversionFactor{
          {TargetUnit: "kg", Factor: decimal.RequireFromString("0.001")},
      },
  }

SEE ALSO:
  - registry.go: Authoritative unit store and invariant enforcement
  - resolver.go: The conversion algorithm
  - validator.go: Domain bounds and type compatibility
*/
package measure

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// UNIT TYPE / UNIT SYSTEM - Closed enumerations
// =============================================================================

// UnitType is the dimension a unit measures. Two units can only be
// converted into one another if their UnitType matches.
type UnitType string

const (
	TypeWeight      UnitType = "weight"
	TypeVolume      UnitType = "volume"
	TypeQuantity    UnitType = "quantity"
	TypeLength      UnitType = "length"
	TypeArea        UnitType = "area"
	TypeTime        UnitType = "time"
	TypeTemperature UnitType = "temperature"
	TypeCustom      UnitType = "custom"
)

// UnitTypes lists every valid UnitType.
func UnitTypes() []UnitType {
	return []UnitType{
		TypeWeight, TypeVolume, TypeQuantity, TypeLength,
		TypeArea, TypeTime, TypeTemperature, TypeCustom,
	}
}

// Valid reports whether t is a known unit type.
func (t UnitType) Valid() bool {
	switch t {
	case TypeWeight, TypeVolume, TypeQuantity, TypeLength,
		TypeArea, TypeTime, TypeTemperature, TypeCustom:
		return true
	}
	return false
}

// UnitSystem is informational only; it plays no role in conversion math.
type UnitSystem string

const (
	SystemMetric      UnitSystem = "metric"
	SystemImperial    UnitSystem = "imperial"
	SystemUSCustomary UnitSystem = "us_customary"
	SystemCustom      UnitSystem = "custom"
)

// Valid reports whether s is a known unit system.
func (s UnitSystem) Valid() bool {
	switch s {
	case SystemMetric, SystemImperial, SystemUSCustomary, SystemCustom:
		return true
	}
	return false
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type UnitID string

// =============================================================================
// CONVERSION FACTOR - Stored affine transform toward one target unit
// =============================================================================

// ConversionFactor describes a direct conversion from the unit owning this
// entry to TargetUnit:
//
//	valueInTarget = valueInSource * Factor + Offset
//
// Entries are stored unidirectionally. The resolver inverts them
// analytically when the opposite direction is needed, so registering both
// directions is unnecessary (and discouraged, since the pair can drift).
type ConversionFactor struct {
	TargetUnit UnitID
	Factor     decimal.Decimal
	Offset     decimal.Decimal
}

// Transform returns the affine transform this entry encodes.
func (cf ConversionFactor) Transform() Transform {
	return Transform{Factor: cf.Factor, Offset: cf.Offset}
}

// =============================================================================
// DISPLAY FORMAT
// =============================================================================

type SymbolPosition string

const (
	SymbolBefore SymbolPosition = "before"
	SymbolAfter  SymbolPosition = "after"
)

// DisplayFormat controls how the formatter renders values of a unit.
type DisplayFormat struct {
	ShowSymbol         bool
	SymbolPosition     SymbolPosition
	ThousandsSeparator string
	DecimalSeparator   string
}

// =============================================================================
// MEASUREMENT UNIT - Canonical definition of one unit
// =============================================================================

// MeasurementUnit is the canonical definition of one measurement unit.
//
// INVARIANTS (enforced by Registry at registration time):
//   - At most one active base unit per UnitType
//   - BaseUnitRef, when set, points to a unit of the same UnitType
//   - ConversionFactors reference units of the same UnitType only
//   - Factors are non-zero (a zero factor is not invertible)
type MeasurementUnit struct {
	ID UnitID

	// Presentation metadata.
	Name        string
	Symbol      string
	DisplayName string
	Description string

	UnitType   UnitType
	UnitSystem UnitSystem

	// IsBaseUnit marks the canonical reference unit of its type.
	// BaseUnitRef is a weak reference: lookup only, the base unit's
	// lifecycle is independent. Empty for base units.
	IsBaseUnit  bool
	BaseUnitRef UnitID

	// ConversionFactors are optional direct shortcuts; absence does not
	// block conversion as long as a base-unit path exists. Order is
	// preserved as registered.
	ConversionFactors []ConversionFactor

	// DecimalPlaces governs display rounding. Precision is the smallest
	// increment at which values of this unit are considered distinct
	// (e.g. 0.01); it caps how fine a caller-requested rounding may go.
	DecimalPlaces int32
	Precision     decimal.Decimal

	// Domain constraints on raw values expressed in this unit.
	MinValue      *decimal.Decimal
	MaxValue      *decimal.Decimal
	AllowNegative bool

	DisplayFormat DisplayFormat

	// Lifecycle. Inactive units are excluded from conversions but kept
	// for historical records. System units cannot be deleted, only
	// deactivated.
	IsActive     bool
	IsSystemUnit bool

	// Usage tracking, bumped by every successful conversion touching
	// this unit. Monotonically non-decreasing.
	UsageCount int64
	LastUsed   *time.Time

	CreatedAt time.Time
}

// FactorTo returns the stored direct factor targeting id, if any.
func (u *MeasurementUnit) FactorTo(id UnitID) (ConversionFactor, bool) {
	for _, cf := range u.ConversionFactors {
		if cf.TargetUnit == id {
			return cf, true
		}
	}
	return ConversionFactor{}, false
}

// Clone returns a deep copy. The registry hands out clones so callers
// can never mutate registry state through a lookup result.
func (u *MeasurementUnit) Clone() *MeasurementUnit {
	c := *u
	if u.ConversionFactors != nil {
		c.ConversionFactors = make([]ConversionFactor, len(u.ConversionFactors))
		copy(c.ConversionFactors, u.ConversionFactors)
	}
	if u.MinValue != nil {
		v := *u.MinValue
		c.MinValue = &v
	}
	if u.MaxValue != nil {
		v := *u.MaxValue
		c.MaxValue = &v
	}
	if u.LastUsed != nil {
		t := *u.LastUsed
		c.LastUsed = &t
	}
	return &c
}

// =============================================================================
// CONVERSION PATH / RESULT
// =============================================================================

// ConversionPath identifies how a conversion was resolved.
type ConversionPath string

const (
	PathIdentity ConversionPath = "identity" // source == target
	PathDirect   ConversionPath = "direct"   // stored factor (either direction)
	PathViaBase  ConversionPath = "via_base" // two hops through the base unit
)

// ConversionResult is an immutable record of one conversion. Created
// fresh per conversion call, never mutated afterwards.
type ConversionResult struct {
	ID string

	OriginalValue  decimal.Decimal
	FromUnit       UnitID
	ConvertedValue decimal.Decimal
	ToUnit         UnitID

	// The effective transform actually applied, after any inversion and
	// path composition. For the via_base path this is the composition of
	// both hops collapsed into a single (factor, offset) pair.
	Factor decimal.Decimal
	Offset decimal.Decimal

	Path ConversionPath

	// PrecisionUsed is the number of decimal places the result was
	// rounded to.
	PrecisionUsed int32

	ConvertedAt time.Time
}
