package measure_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/warp/measure-engine/measure"
	"github.com/warp/measure-engine/measure/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func baseUnit(id string, t measure.UnitType, places int32) *measure.MeasurementUnit {
	return &measure.MeasurementUnit{
		ID:            measure.UnitID(id),
		Name:          id,
		Symbol:        id,
		UnitType:      t,
		UnitSystem:    measure.SystemMetric,
		IsBaseUnit:    true,
		DecimalPlaces: places,
		Precision:     decimal.New(1, -places),
		IsActive:      true,
	}
}

func derivedUnit(id string, t measure.UnitType, baseID, factor string, places int32) *measure.MeasurementUnit {
	return &measure.MeasurementUnit{
		ID:          measure.UnitID(id),
		Name:        id,
		Symbol:      id,
		UnitType:    t,
		UnitSystem:  measure.SystemMetric,
		BaseUnitRef: measure.UnitID(baseID),
		ConversionFactors: []measure.ConversionFactor{
			{TargetUnit: measure.UnitID(baseID), Factor: dec(factor)},
		},
		DecimalPlaces: places,
		Precision:     decimal.New(1, -places),
		IsActive:      true,
	}
}

// newWeightRegistry builds kg (base), g and mg, each storing one factor
// toward kg.
func newWeightRegistry(t *testing.T) *measure.Registry {
	t.Helper()
	reg := measure.NewRegistry()
	mustRegister(t, reg, baseUnit("kg", measure.TypeWeight, 3))
	mustRegister(t, reg, derivedUnit("g", measure.TypeWeight, "kg", "0.001", 1))
	mustRegister(t, reg, derivedUnit("mg", measure.TypeWeight, "kg", "0.000001", 0))
	return reg
}

// newTemperatureRegistry builds celsius (base, owning the C->F factor),
// fahrenheit (no factors of its own) and kelvin (owning K->C).
func newTemperatureRegistry(t *testing.T) *measure.Registry {
	t.Helper()
	reg := measure.NewRegistry()

	celsius := baseUnit("celsius", measure.TypeTemperature, 2)
	celsius.AllowNegative = true

	fahrenheit := &measure.MeasurementUnit{
		ID: "fahrenheit", Name: "fahrenheit", Symbol: "F",
		UnitType: measure.TypeTemperature, UnitSystem: measure.SystemUSCustomary,
		BaseUnitRef:   "celsius",
		DecimalPlaces: 2, Precision: dec("0.01"),
		AllowNegative: true,
		IsActive:      true,
	}

	kelvin := &measure.MeasurementUnit{
		ID: "kelvin", Name: "kelvin", Symbol: "K",
		UnitType: measure.TypeTemperature, UnitSystem: measure.SystemMetric,
		BaseUnitRef: "celsius",
		ConversionFactors: []measure.ConversionFactor{
			{TargetUnit: "celsius", Factor: dec("1"), Offset: dec("-273.15")},
		},
		DecimalPlaces: 2, Precision: dec("0.01"),
		IsActive: true,
	}

	mustRegister(t, reg, celsius)
	mustRegister(t, reg, fahrenheit)
	mustRegister(t, reg, kelvin)

	// The C->F transform lives on the celsius side.
	cf := []measure.ConversionFactor{{TargetUnit: "fahrenheit", Factor: dec("1.8"), Offset: dec("32")}}
	if err := reg.Update("celsius", measure.UnitUpdate{ConversionFactors: cf}); err != nil {
		t.Fatalf("attach celsius factor: %v", err)
	}
	return reg
}

func mustRegister(t *testing.T, reg *measure.Registry, u *measure.MeasurementUnit) {
	t.Helper()
	if err := reg.Register(u); err != nil {
		t.Fatalf("register %s: %v", u.ID, err)
	}
}

func convert(t *testing.T, rs *measure.Resolver, value, from, to string) *measure.ConversionResult {
	t.Helper()
	res, err := rs.Convert(context.Background(), measure.ConversionRequest{
		Value:    dec(value),
		FromUnit: measure.UnitID(from),
		ToUnit:   measure.UnitID(to),
	})
	if err != nil {
		t.Fatalf("convert %s %s -> %s: %v", value, from, to, err)
	}
	return res
}

// =============================================================================
// PATH SELECTION
// =============================================================================

func TestConvert_Identity_ExactValue(t *testing.T) {
	// GIVEN: Any unit
	// WHEN: Converting a value onto the same unit
	// THEN: The value passes through exactly, path "identity"

	reg := newWeightRegistry(t)
	rs := measure.NewResolver(reg, nil)

	res := convert(t, rs, "2.718281828459045", "kg", "kg")

	if res.Path != measure.PathIdentity {
		t.Errorf("path = %s, want identity", res.Path)
	}
	// Exact: no rounding drift even though kg has 3 decimal places.
	if !res.ConvertedValue.Equal(dec("2.718281828459045")) {
		t.Errorf("identity changed the value: %s", res.ConvertedValue)
	}
	if !res.Factor.Equal(dec("1")) || !res.Offset.IsZero() {
		t.Errorf("identity transform reported as (%s, %s)", res.Factor, res.Offset)
	}
}

func TestConvert_Direct_StoredDirection(t *testing.T) {
	// GIVEN: Gram stores factor 0.001 toward Kilogram
	// WHEN: convert(2500, g, kg)
	// THEN: 2.5 kg via the direct path

	reg := newWeightRegistry(t)
	rs := measure.NewResolver(reg, nil)

	res := convert(t, rs, "2500", "g", "kg")

	if res.Path != measure.PathDirect {
		t.Errorf("path = %s, want direct", res.Path)
	}
	if !res.ConvertedValue.Equal(dec("2.5")) {
		t.Errorf("2500 g = %s kg, want 2.5", res.ConvertedValue)
	}
	if !res.Factor.Equal(dec("0.001")) {
		t.Errorf("effective factor = %s, want 0.001", res.Factor)
	}
}

func TestConvert_Direct_InverseDirection(t *testing.T) {
	// GIVEN: Only Gram->Kilogram is stored
	// WHEN: convert(2.5, kg, g)
	// THEN: The stored transform is inverted analytically; still "direct"

	reg := newWeightRegistry(t)
	rs := measure.NewResolver(reg, nil)

	res := convert(t, rs, "2.5", "kg", "g")

	if res.Path != measure.PathDirect {
		t.Errorf("path = %s, want direct", res.Path)
	}
	if !res.ConvertedValue.Equal(dec("2500")) {
		t.Errorf("2.5 kg = %s g, want 2500", res.ConvertedValue)
	}
	if !res.Factor.Equal(dec("1000")) {
		t.Errorf("effective factor = %s, want 1000", res.Factor)
	}
}

func TestConvert_ViaBase_SiblingUnits(t *testing.T) {
	// GIVEN: g and mg each store a factor toward kg, none toward each other
	// WHEN: convert(5, g, mg)
	// THEN: Conversion succeeds through the base unit, reporting the
	//       composed transform

	reg := newWeightRegistry(t)
	rs := measure.NewResolver(reg, nil)

	res := convert(t, rs, "5", "g", "mg")

	if res.Path != measure.PathViaBase {
		t.Errorf("path = %s, want via_base", res.Path)
	}
	if !res.ConvertedValue.Equal(dec("5000")) {
		t.Errorf("5 g = %s mg, want 5000", res.ConvertedValue)
	}
	if !res.Factor.Equal(dec("1000")) {
		t.Errorf("composed factor = %s, want 1000", res.Factor)
	}
	if !res.Offset.IsZero() {
		t.Errorf("composed offset = %s, want 0", res.Offset)
	}
}

func TestConvert_ViaBase_BaseAsEndpoint(t *testing.T) {
	// A hop where one endpoint IS the base unit degenerates to identity;
	// kelvin -> fahrenheit still runs both hops.
	reg := newTemperatureRegistry(t)
	rs := measure.NewResolver(reg, nil)

	res := convert(t, rs, "273.15", "kelvin", "fahrenheit")

	if res.Path != measure.PathViaBase {
		t.Errorf("path = %s, want via_base", res.Path)
	}
	if !res.ConvertedValue.Equal(dec("32")) {
		t.Errorf("273.15 K = %s F, want 32", res.ConvertedValue)
	}
}

// =============================================================================
// TEMPERATURE - Affine, not pure scale
// =============================================================================

func TestConvert_CelsiusToFahrenheit(t *testing.T) {
	reg := newTemperatureRegistry(t)
	rs := measure.NewResolver(reg, nil)

	res := convert(t, rs, "100", "celsius", "fahrenheit")

	if res.Path != measure.PathDirect {
		t.Errorf("path = %s, want direct", res.Path)
	}
	if !res.ConvertedValue.Equal(dec("212")) {
		t.Errorf("100C = %s F, want 212", res.ConvertedValue)
	}
}

func TestConvert_FahrenheitToCelsius_InverseAffine(t *testing.T) {
	// GIVEN: Only Celsius->Fahrenheit (1.8, 32) is stored
	// WHEN: convert(212, fahrenheit, celsius)
	// THEN: 100, through the analytically inverted affine transform

	reg := newTemperatureRegistry(t)
	rs := measure.NewResolver(reg, nil)

	res := convert(t, rs, "212", "fahrenheit", "celsius")

	if res.Path != measure.PathDirect {
		t.Errorf("path = %s, want direct", res.Path)
	}
	if !res.ConvertedValue.Equal(dec("100")) {
		t.Errorf("212F = %s C, want 100", res.ConvertedValue)
	}
}

func TestConvert_RoundTrip_WithinPrecision(t *testing.T) {
	// GIVEN: Compatible units A, B
	// WHEN: convert(convert(v, A, B), B, A)
	// THEN: The result equals v within one unit of precision

	reg := newTemperatureRegistry(t)
	rs := measure.NewResolver(reg, nil)

	for _, v := range []string{"0", "36.6", "-40", "451"} {
		there := convert(t, rs, v, "celsius", "fahrenheit")
		back := convert(t, rs, there.ConvertedValue.String(), "fahrenheit", "celsius")

		if back.ConvertedValue.Sub(dec(v)).Abs().GreaterThan(dec("0.01")) {
			t.Errorf("round trip of %s C drifted to %s", v, back.ConvertedValue)
		}
	}
}

// =============================================================================
// FAILURE MODES
// =============================================================================

func TestConvert_CrossType_AlwaysFails(t *testing.T) {
	// GIVEN: A weight unit and a volume unit
	// WHEN: Converting between them
	// THEN: IncompatibleUnitTypeError, never a numeric result

	reg := newWeightRegistry(t)
	mustRegister(t, reg, baseUnit("l", measure.TypeVolume, 3))
	rs := measure.NewResolver(reg, nil)

	_, err := rs.Convert(context.Background(), measure.ConversionRequest{
		Value: dec("1"), FromUnit: "kg", ToUnit: "l",
	})

	if !errors.Is(err, measure.ErrIncompatibleUnitType) {
		t.Fatalf("err = %v, want ErrIncompatibleUnitType", err)
	}
	var typed *measure.IncompatibleUnitTypeError
	if !errors.As(err, &typed) {
		t.Fatal("error does not carry unit context")
	}
	if typed.FromType != measure.TypeWeight || typed.ToType != measure.TypeVolume {
		t.Errorf("error types = %s/%s", typed.FromType, typed.ToType)
	}
}

func TestConvert_UnknownUnit_Fails(t *testing.T) {
	reg := newWeightRegistry(t)
	rs := measure.NewResolver(reg, nil)

	_, err := rs.Convert(context.Background(), measure.ConversionRequest{
		Value: dec("1"), FromUnit: "kg", ToUnit: "stone",
	})
	if !errors.Is(err, measure.ErrUnitNotFound) {
		t.Fatalf("err = %v, want ErrUnitNotFound", err)
	}
}

func TestConvert_InactiveUnit_Fails(t *testing.T) {
	// Inactive units are excluded from conversion targets but stay
	// registered for historical records.
	reg := newWeightRegistry(t)
	if err := reg.Deactivate("g"); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	rs := measure.NewResolver(reg, nil)

	_, err := rs.Convert(context.Background(), measure.ConversionRequest{
		Value: dec("1"), FromUnit: "g", ToUnit: "kg",
	})
	if !errors.Is(err, measure.ErrUnitNotFound) {
		t.Fatalf("err = %v, want ErrUnitNotFound", err)
	}
	if reg.FindByID("g") == nil {
		t.Fatal("deactivated unit vanished from the registry")
	}
}

func TestConvert_NoBaseUnit_NoPath(t *testing.T) {
	// GIVEN: Two custom units with no factors and no base unit
	// WHEN: Converting between them
	// THEN: NoConversionPathError

	reg := measure.NewRegistry()
	a := baseUnit("crate", measure.TypeCustom, 0)
	a.IsBaseUnit = false
	b := baseUnit("pallet", measure.TypeCustom, 0)
	b.IsBaseUnit = false
	mustRegister(t, reg, a)
	mustRegister(t, reg, b)
	rs := measure.NewResolver(reg, nil)

	_, err := rs.Convert(context.Background(), measure.ConversionRequest{
		Value: dec("1"), FromUnit: "crate", ToUnit: "pallet",
	})
	if !errors.Is(err, measure.ErrNoConversionPath) {
		t.Fatalf("err = %v, want ErrNoConversionPath", err)
	}
}

func TestConvert_DisconnectedFromBase_NoPath(t *testing.T) {
	// A unit with no factor to or from the base cannot be reached even
	// though a base unit exists.
	reg := newWeightRegistry(t)
	stray := &measure.MeasurementUnit{
		ID: "stone", Name: "stone", Symbol: "st",
		UnitType: measure.TypeWeight, UnitSystem: measure.SystemImperial,
		DecimalPlaces: 2, Precision: dec("0.01"),
		IsActive: true,
	}
	mustRegister(t, reg, stray)
	rs := measure.NewResolver(reg, nil)

	_, err := rs.Convert(context.Background(), measure.ConversionRequest{
		Value: dec("1"), FromUnit: "stone", ToUnit: "g",
	})
	if !errors.Is(err, measure.ErrNoConversionPath) {
		t.Fatalf("err = %v, want ErrNoConversionPath", err)
	}
}

func TestConvert_OutOfRange_NeverClamps(t *testing.T) {
	// GIVEN: Gram with minValue 0 and allowNegative=false
	// WHEN: Converting -5 g
	// THEN: OutOfRangeError; the value is not clamped to 0

	reg := measure.NewRegistry()
	mustRegister(t, reg, baseUnit("kg", measure.TypeWeight, 3))
	g := derivedUnit("g", measure.TypeWeight, "kg", "0.001", 1)
	min := decimal.Zero
	g.MinValue = &min
	mustRegister(t, reg, g)
	rs := measure.NewResolver(reg, nil)

	_, err := rs.Convert(context.Background(), measure.ConversionRequest{
		Value: dec("-5"), FromUnit: "g", ToUnit: "kg",
	})
	if !errors.Is(err, measure.ErrOutOfRange) {
		t.Fatalf("err = %v, want ErrOutOfRange", err)
	}
}

func TestConvert_BoundsCheckedOnSourceUnit(t *testing.T) {
	// Bounds belong to the unit the value is expressed in. A max of
	// 1000 g does not block 1.5 kg -> g even though the result is 1500.
	reg := measure.NewRegistry()
	mustRegister(t, reg, baseUnit("kg", measure.TypeWeight, 3))
	g := derivedUnit("g", measure.TypeWeight, "kg", "0.001", 1)
	max := dec("1000")
	g.MaxValue = &max
	mustRegister(t, reg, g)
	rs := measure.NewResolver(reg, nil)

	res := convert(t, rs, "1.5", "kg", "g")
	if !res.ConvertedValue.Equal(dec("1500")) {
		t.Errorf("1.5 kg = %s g, want 1500", res.ConvertedValue)
	}

	// But 1500 g as a SOURCE value violates the bound.
	_, err := rs.Convert(context.Background(), measure.ConversionRequest{
		Value: dec("1500"), FromUnit: "g", ToUnit: "kg",
	})
	if !errors.Is(err, measure.ErrOutOfRange) {
		t.Fatalf("err = %v, want ErrOutOfRange", err)
	}
}

// =============================================================================
// ROUNDING & PRECISION
// =============================================================================

func TestConvert_RoundsHalfToEven(t *testing.T) {
	// GIVEN: Target with 2 decimal places
	// WHEN: Results land exactly on the half
	// THEN: Banker's rounding, no directional bias

	reg := measure.NewRegistry()
	mustRegister(t, reg, baseUnit("l", measure.TypeVolume, 2))
	mustRegister(t, reg, derivedUnit("ml", measure.TypeVolume, "l", "0.001", 0))
	rs := measure.NewResolver(reg, nil)

	// 125 ml = 0.125 l -> 0.12 (2 is even), 135 ml = 0.135 l -> 0.14.
	if res := convert(t, rs, "125", "ml", "l"); !res.ConvertedValue.Equal(dec("0.12")) {
		t.Errorf("125 ml = %s l, want 0.12", res.ConvertedValue)
	}
	if res := convert(t, rs, "135", "ml", "l"); !res.ConvertedValue.Equal(dec("0.14")) {
		t.Errorf("135 ml = %s l, want 0.14", res.ConvertedValue)
	}
}

func TestConvert_CallerPrecisionOverride(t *testing.T) {
	reg := measure.NewRegistry()
	kg := baseUnit("kg", measure.TypeWeight, 2)
	kg.Precision = dec("0.0001") // representable down to 4 places
	mustRegister(t, reg, kg)
	mustRegister(t, reg, derivedUnit("g", measure.TypeWeight, "kg", "0.001", 1))
	rs := measure.NewResolver(reg, nil)

	three := int32(3)
	res, err := rs.Convert(context.Background(), measure.ConversionRequest{
		Value: dec("1234.5"), FromUnit: "g", ToUnit: "kg", Precision: &three,
	})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !res.ConvertedValue.Equal(dec("1.2345").RoundBank(3)) {
		t.Errorf("converted = %s, want %s", res.ConvertedValue, dec("1.2345").RoundBank(3))
	}
	if res.PrecisionUsed != 3 {
		t.Errorf("precision used = %d, want 3", res.PrecisionUsed)
	}
}

func TestConvert_PrecisionOverride_CappedByUnitPrecision(t *testing.T) {
	// The caller may ask for finer rounding than the display default,
	// but never finer than the target's own precision increment.
	reg := measure.NewRegistry()
	kg := baseUnit("kg", measure.TypeWeight, 2)
	kg.Precision = dec("0.01")
	mustRegister(t, reg, kg)
	mustRegister(t, reg, derivedUnit("g", measure.TypeWeight, "kg", "0.001", 1))
	rs := measure.NewResolver(reg, nil)

	six := int32(6)
	res, err := rs.Convert(context.Background(), measure.ConversionRequest{
		Value: dec("1234.5"), FromUnit: "g", ToUnit: "kg", Precision: &six,
	})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if res.PrecisionUsed != 2 {
		t.Errorf("precision used = %d, want 2 (capped)", res.PrecisionUsed)
	}
	if !res.ConvertedValue.Equal(dec("1.23")) {
		t.Errorf("converted = %s, want 1.23", res.ConvertedValue)
	}
}

func TestConvert_PrecisionCap_IgnoresTrailingZeros(t *testing.T) {
	// A precision increment stored as 0.050 is the same increment as
	// 0.05; the cap is 2 places, not 3.
	reg := measure.NewRegistry()
	kg := baseUnit("kg", measure.TypeWeight, 2)
	kg.Precision = dec("0.050")
	mustRegister(t, reg, kg)
	mustRegister(t, reg, derivedUnit("g", measure.TypeWeight, "kg", "0.001", 1))
	rs := measure.NewResolver(reg, nil)

	three := int32(3)
	res, err := rs.Convert(context.Background(), measure.ConversionRequest{
		Value: dec("1234.5"), FromUnit: "g", ToUnit: "kg", Precision: &three,
	})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if res.PrecisionUsed != 2 {
		t.Errorf("precision used = %d, want 2", res.PrecisionUsed)
	}
	if !res.ConvertedValue.Equal(dec("1.23")) {
		t.Errorf("converted = %s, want 1.23", res.ConvertedValue)
	}
}

// =============================================================================
// SIDE EFFECTS
// =============================================================================

func TestConvert_BumpsUsageOnBothUnits(t *testing.T) {
	reg := newWeightRegistry(t)
	rs := measure.NewResolver(reg, nil)

	convert(t, rs, "2500", "g", "kg")

	for _, id := range []measure.UnitID{"g", "kg"} {
		u := reg.FindByID(id)
		if u.UsageCount != 1 {
			t.Errorf("%s usage count = %d, want 1", id, u.UsageCount)
		}
		if u.LastUsed == nil {
			t.Errorf("%s last used not set", id)
		}
	}
	if mg := reg.FindByID("mg"); mg.UsageCount != 0 {
		t.Errorf("uninvolved unit bumped to %d", mg.UsageCount)
	}
}

func TestConvert_AppendsToLog(t *testing.T) {
	reg := newWeightRegistry(t)
	log := store.NewMemoryLog()
	rs := measure.NewResolver(reg, log)

	convert(t, rs, "2500", "g", "kg")
	convert(t, rs, "1", "kg", "g")

	if log.Len() != 2 {
		t.Fatalf("log has %d entries, want 2", log.Len())
	}

	recent, err := log.Recent(context.Background(), 1)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 1 || recent[0].FromUnit != "kg" {
		t.Errorf("newest entry = %+v, want the kg->g conversion", recent)
	}

	byUnit, err := log.ByUnit(context.Background(), "g", 10)
	if err != nil {
		t.Fatalf("by unit: %v", err)
	}
	if len(byUnit) != 2 {
		t.Errorf("g appears in %d entries, want 2", len(byUnit))
	}
}

func TestConvert_ConcurrentUsageBumps_NotTorn(t *testing.T) {
	// Many goroutines converting through the same pair must leave the
	// counters exactly at the number of conversions.
	reg := newWeightRegistry(t)
	rs := measure.NewResolver(reg, nil)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := rs.Convert(context.Background(), measure.ConversionRequest{
				Value: dec("1"), FromUnit: "g", ToUnit: "kg",
			})
			if err != nil {
				t.Errorf("convert: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := reg.FindByID("g").UsageCount; got != n {
		t.Errorf("g usage count = %d, want %d", got, n)
	}
	if got := reg.FindByID("kg").UsageCount; got != n {
		t.Errorf("kg usage count = %d, want %d", got, n)
	}
}
