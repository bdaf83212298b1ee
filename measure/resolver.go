/*
resolver.go - The conversion algorithm

PURPOSE:
  Computes convert(value, source, target) -> ConversionResult, choosing
  one of three paths:

    identity:  source == target, value passes through untouched
    direct:    a stored factor connects the pair (either direction -
               reverse entries are inverted analytically)
    via_base:  two hops through the type's base unit, composed into a
               single effective (factor, offset) pair

ALGORITHM:
  1. Resolve both units; missing or inactive fails with UnitNotFound
  2. Reject cross-type conversion outright (liters are never kilograms,
     no matter how the magnitudes line up)
  3. Validate the input against the SOURCE unit's domain constraints
  4. Pick the path (identity > direct > via_base)
  5. Apply the transform in decimal arithmetic
  6. Round once, at the end, half-to-even
  7. Bump usage on both units, append to the conversion log

NUMERIC SEMANTICS:
  All intermediate arithmetic uses decimal.Decimal, so precision never
  drops below what a 64-bit float would carry. Rounding happens exactly
  once, with banker's rounding (RoundBank) to avoid directional bias
  over repeated conversions. Offsets apply in the unit being converted
  INTO for each hop, which is what makes Celsius -> Fahrenheit come out
  right.

FAILURE SEMANTICS:
  Every failure is reported, none silently corrected. The operation is
  deterministic, so there is nothing to retry; the only observable side
  effects of success are the usage counters and the log entry.

SEE ALSO:
  - transform.go: Affine apply/invert/compose
  - registry.go: Unit resolution and usage counters
  - log.go: Append-only record of results
*/
package measure

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// RESOLVER
// =============================================================================

// Resolver computes conversions against a Registry. Log is optional;
// when set, every successful conversion is appended to it.
type Resolver struct {
	Registry *Registry
	Log      ConversionLog
}

// NewResolver creates a resolver over the given registry.
func NewResolver(reg *Registry, log ConversionLog) *Resolver {
	return &Resolver{Registry: reg, Log: log}
}

// ConversionRequest is the input to Convert.
type ConversionRequest struct {
	Value    decimal.Decimal
	FromUnit UnitID
	ToUnit   UnitID

	// Precision, when set, overrides the target unit's decimalPlaces for
	// result rounding. It can never go finer than the target's own
	// precision increment allows.
	Precision *int32

	// Strict applies the validator's strict mode to the input value.
	Strict bool
}

// Convert resolves and applies the conversion described by req.
func (rs *Resolver) Convert(ctx context.Context, req ConversionRequest) (*ConversionResult, error) {
	source, err := rs.resolveActive(req.FromUnit)
	if err != nil {
		return nil, err
	}
	target, err := rs.resolveActive(req.ToUnit)
	if err != nil {
		return nil, err
	}

	if !SameType(source, target) {
		return nil, &IncompatibleUnitTypeError{
			FromUnit: source.ID, FromType: source.UnitType,
			ToUnit: target.ID, ToType: target.UnitType,
		}
	}

	// Bounds are checked in the unit the caller is actually holding the
	// value in - the source.
	if req.Strict {
		err = ValidateStrict(req.Value, source)
	} else {
		err = Validate(req.Value, source)
	}
	if err != nil {
		return nil, err
	}

	var (
		tr   Transform
		path ConversionPath
	)
	switch {
	case source.ID == target.ID:
		tr, path = IdentityTransform(), PathIdentity
	default:
		if direct, ok := rs.directTransform(source, target); ok {
			tr, path = direct, PathDirect
		} else {
			tr, err = rs.baseTransform(source, target)
			if err != nil {
				return nil, err
			}
			path = PathViaBase
		}
	}

	converted := tr.Apply(req.Value)
	places := effectivePlaces(target, req.Precision)
	if path != PathIdentity {
		// Identity conversions return the input bit-for-bit; rounding an
		// untouched value could only introduce drift.
		converted = converted.RoundBank(places)
	}

	now := time.Now().UTC()
	rs.Registry.recordUsage(now, source.ID, target.ID)

	result := &ConversionResult{
		ID:             uuid.NewString(),
		OriginalValue:  req.Value,
		FromUnit:       source.ID,
		ConvertedValue: converted,
		ToUnit:         target.ID,
		Factor:         tr.Factor,
		Offset:         tr.Offset,
		Path:           path,
		PrecisionUsed:  places,
		ConvertedAt:    now,
	}

	if rs.Log != nil {
		if err := rs.Log.Append(ctx, *result); err != nil {
			return nil, fmt.Errorf("conversion computed but not recorded: %w", err)
		}
	}
	return result, nil
}

func (rs *Resolver) resolveActive(id UnitID) (*MeasurementUnit, error) {
	u := rs.Registry.FindByID(id)
	if u == nil {
		return nil, &UnitNotFoundError{ID: id}
	}
	if !u.IsActive {
		return nil, &UnitNotFoundError{ID: id, Inactive: true}
	}
	return u, nil
}

// =============================================================================
// PATH SELECTION
// =============================================================================

// directTransform looks for a stored factor connecting the pair. The
// reverse direction counts: transforms are stored unidirectionally and
// inverted analytically, so Gram->Kilogram being on file makes
// Kilogram->Gram a direct conversion too.
func (rs *Resolver) directTransform(source, target *MeasurementUnit) (Transform, bool) {
	if cf, ok := source.FactorTo(target.ID); ok {
		return cf.Transform(), true
	}
	if cf, ok := target.FactorTo(source.ID); ok {
		inv, err := cf.Transform().Invert()
		if err != nil {
			// Zero factors cannot be registered; nothing to invert means
			// no usable direct path.
			return Transform{}, false
		}
		return inv, true
	}
	return Transform{}, false
}

// baseTransform builds the two-hop path source -> base -> target and
// composes it into a single transform.
func (rs *Resolver) baseTransform(source, target *MeasurementUnit) (Transform, error) {
	base := rs.Registry.FindBaseUnit(source.UnitType)
	if base == nil {
		return Transform{}, &NoConversionPathError{
			FromUnit: source.ID, ToUnit: target.ID, UnitType: source.UnitType,
			Reason: "no base unit defined for type",
		}
	}

	toBase, err := rs.hopTransform(source, base)
	if err != nil {
		return Transform{}, err
	}
	fromBase, err := rs.hopTransform(base, target)
	if err != nil {
		return Transform{}, err
	}
	return toBase.Then(fromBase), nil
}

// hopTransform resolves one hop of the base path: from -> to, where one
// side is the base unit. A hop from a unit onto itself is the identity.
func (rs *Resolver) hopTransform(from, to *MeasurementUnit) (Transform, error) {
	if from.ID == to.ID {
		return IdentityTransform(), nil
	}
	if cf, ok := from.FactorTo(to.ID); ok {
		return cf.Transform(), nil
	}
	if cf, ok := to.FactorTo(from.ID); ok {
		inv, err := cf.Transform().Invert()
		if err == nil {
			return inv, nil
		}
	}

	missing := from.ID
	if from.IsBaseUnit {
		missing = to.ID
	}
	return Transform{}, &NoConversionPathError{
		FromUnit: from.ID, ToUnit: to.ID, UnitType: from.UnitType,
		Reason: fmt.Sprintf("unit %s has no factor to or from the base unit", missing),
	}
}

// =============================================================================
// ROUNDING
// =============================================================================

// effectivePlaces picks the decimal places to round to: the caller's
// override when present, the target's decimalPlaces otherwise - capped
// in both cases at what the target's precision increment can represent.
func effectivePlaces(target *MeasurementUnit, override *int32) int32 {
	places := target.DecimalPlaces
	if override != nil {
		places = *override
	}
	if places < 0 {
		places = 0
	}
	if limit, ok := precisionPlaces(target.Precision); ok && places > limit {
		places = limit
	}
	return places
}

// precisionPlaces derives the representable decimal places from a
// precision increment: 0.01 -> 2, 0.5 -> 1, 1 -> 0. Zero (unset)
// imposes no cap.
func precisionPlaces(p decimal.Decimal) (int32, bool) {
	if p.IsZero() || p.IsNegative() {
		return 0, false
	}
	places := -p.Exponent()
	if places < 0 {
		places = 0
	}
	// Trailing zeros in the stored increment (0.050) do not make it
	// finer than 0.05.
	for places > 0 && p.Equal(p.Round(places-1)) {
		places--
	}
	return places, true
}
