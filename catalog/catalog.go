/*
Package catalog provides pre-built unit set definitions.

PURPOSE:
  Ready-to-register unit definitions for common measurement domains.
  These are convenience builders that set up base units, factors toward
  the base, and display defaults according to typical conventions.

AVAILABLE SETS:
  MetricWeight:    kg (base), g, mg, t
  ImperialWeight:  lb, oz (factors toward kg)
  MetricVolume:    l (base), ml, cl
  CulinaryVolume:  cup, tbsp, tsp (factors toward l)
  MetricLength:    m (base), mm, cm, km
  ImperialLength:  in, ft, yd, mi (factors toward m)
  Temperature:     celsius (base), fahrenheit, kelvin
  TimeUnits:       s (base), min, h, d
  Quantity:        pc (base), pair, dz, gross

CONVENTIONS:
  - Base units are system units (cannot be deleted, only deactivated)
  - Non-base units carry exactly one factor, toward their base unit,
    except temperature where celsius owns the celsius->fahrenheit
    transform because 1.8/32 is exact where 5/9 is not
  - Factors are decimal strings so 0.001 survives JSON exactly

CUSTOMIZATION:
  These are starting points. Real deployments often need different
  decimal places, min/max bounds per unit, or site-specific custom units
  on top.

EXAMPLE:
  f := factory.NewUnitFactory()
  for _, def := range catalog.MetricWeight() {
      u, err := f.BuildUnit(def)
      ...
      registry.Register(u)
  }

SEE ALSO:
  - factory/unit.go: JSON definition schema
  - api/catalogs.go: Loading sets over HTTP
*/
package catalog

import (
	"github.com/shopspring/decimal"
	"github.com/warp/measure-engine/factory"
)

// =============================================================================
// CATALOG REGISTRY
// =============================================================================

// Catalog is a named, loadable unit set.
type Catalog struct {
	ID          string
	Name        string
	Description string
	Units       []factory.UnitJSON
}

// All returns every built-in catalog.
func All() []Catalog {
	return []Catalog{
		{ID: "metric-weight", Name: "Metric Weight", Description: "Kilogram base with gram, milligram and tonne", Units: MetricWeight()},
		{ID: "imperial-weight", Name: "Imperial Weight", Description: "Pound and ounce converting toward kilogram", Units: ImperialWeight()},
		{ID: "metric-volume", Name: "Metric Volume", Description: "Litre base with millilitre and centilitre", Units: MetricVolume()},
		{ID: "culinary-volume", Name: "Culinary Volume", Description: "Cup, tablespoon and teaspoon toward litre", Units: CulinaryVolume()},
		{ID: "metric-length", Name: "Metric Length", Description: "Metre base with millimetre, centimetre and kilometre", Units: MetricLength()},
		{ID: "imperial-length", Name: "Imperial Length", Description: "Inch, foot, yard and mile toward metre", Units: ImperialLength()},
		{ID: "temperature", Name: "Temperature", Description: "Celsius base with Fahrenheit and Kelvin", Units: Temperature()},
		{ID: "time", Name: "Time", Description: "Second base with minute, hour and day", Units: TimeUnits()},
		{ID: "quantity", Name: "Quantity", Description: "Piece base with pair, dozen and gross", Units: Quantity()},
	}
}

// ByID returns the catalog with the given id.
func ByID(id string) (Catalog, bool) {
	for _, c := range All() {
		if c.ID == id {
			return c, true
		}
	}
	return Catalog{}, false
}

// =============================================================================
// WEIGHT
// =============================================================================

// MetricWeight returns the metric weight set with kilogram as base.
func MetricWeight() []factory.UnitJSON {
	return []factory.UnitJSON{
		baseUnit("kg", "Kilogram", "kg", "weight", "metric", 3),
		derived("g", "Gram", "g", "weight", "metric", "kg", "0.001", 1),
		derived("mg", "Milligram", "mg", "weight", "metric", "kg", "0.000001", 0),
		derived("t", "Tonne", "t", "weight", "metric", "kg", "1000", 3),
	}
}

// ImperialWeight returns pound and ounce, converting toward kilogram.
// Registers only when a weight base unit already exists.
func ImperialWeight() []factory.UnitJSON {
	return []factory.UnitJSON{
		derived("lb", "Pound", "lb", "weight", "imperial", "kg", "0.45359237", 2),
		derived("oz", "Ounce", "oz", "weight", "imperial", "kg", "0.028349523125", 2),
	}
}

// =============================================================================
// VOLUME
// =============================================================================

// MetricVolume returns the metric volume set with litre as base.
func MetricVolume() []factory.UnitJSON {
	return []factory.UnitJSON{
		baseUnit("l", "Litre", "L", "volume", "metric", 3),
		derived("ml", "Millilitre", "mL", "volume", "metric", "l", "0.001", 0),
		derived("cl", "Centilitre", "cL", "volume", "metric", "l", "0.01", 1),
	}
}

// CulinaryVolume returns US customary kitchen measures toward litre.
func CulinaryVolume() []factory.UnitJSON {
	return []factory.UnitJSON{
		derived("cup", "Cup", "cup", "volume", "us_customary", "l", "0.2365882365", 2),
		derived("tbsp", "Tablespoon", "tbsp", "volume", "us_customary", "l", "0.01478676478125", 1),
		derived("tsp", "Teaspoon", "tsp", "volume", "us_customary", "l", "0.00492892159375", 1),
	}
}

// =============================================================================
// LENGTH
// =============================================================================

// MetricLength returns the metric length set with metre as base.
func MetricLength() []factory.UnitJSON {
	return []factory.UnitJSON{
		baseUnit("m", "Metre", "m", "length", "metric", 3),
		derived("mm", "Millimetre", "mm", "length", "metric", "m", "0.001", 0),
		derived("cm", "Centimetre", "cm", "length", "metric", "m", "0.01", 1),
		derived("km", "Kilometre", "km", "length", "metric", "m", "1000", 3),
	}
}

// ImperialLength returns imperial length units toward metre.
func ImperialLength() []factory.UnitJSON {
	return []factory.UnitJSON{
		derived("in", "Inch", "in", "length", "imperial", "m", "0.0254", 2),
		derived("ft", "Foot", "ft", "length", "imperial", "m", "0.3048", 2),
		derived("yd", "Yard", "yd", "length", "imperial", "m", "0.9144", 2),
		derived("mi", "Mile", "mi", "length", "imperial", "m", "1609.344", 3),
	}
}

// =============================================================================
// TEMPERATURE
// =============================================================================

// Temperature returns Celsius (base), Fahrenheit and Kelvin.
//
// The Celsius->Fahrenheit transform lives on the Celsius side because
// factor 1.8 / offset 32 is exact, while the reverse 5/9 is not; the
// resolver inverts it analytically when converting F->C. Kelvin stores
// its own offset toward Celsius. All three allow negative values
// (Kelvin is floored at absolute zero instead).
func Temperature() []factory.UnitJSON {
	celsius := baseUnit("celsius", "Celsius", "°C", "temperature", "metric", 2)
	celsius.AllowNegative = true
	celsius.ConversionFactors = []factory.FactorJSON{
		{TargetUnit: "fahrenheit", Factor: dec("1.8"), Offset: dec("32")},
	}

	fahrenheit := factory.UnitJSON{
		ID: "fahrenheit", Name: "Fahrenheit", Symbol: "°F",
		UnitType: "temperature", UnitSystem: "us_customary",
		BaseUnitRef:   "celsius",
		DecimalPlaces: i32(2),
		AllowNegative: true,
		IsSystemUnit:  true,
	}

	kelvin := factory.UnitJSON{
		ID: "kelvin", Name: "Kelvin", Symbol: "K",
		UnitType: "temperature", UnitSystem: "metric",
		BaseUnitRef: "celsius",
		ConversionFactors: []factory.FactorJSON{
			{TargetUnit: "celsius", Factor: dec("1"), Offset: dec("-273.15")},
		},
		DecimalPlaces: i32(2),
		MinValue:      decPtr("0"),
		IsSystemUnit:  true,
	}

	return []factory.UnitJSON{celsius, fahrenheit, kelvin}
}

// =============================================================================
// TIME & QUANTITY
// =============================================================================

// TimeUnits returns the time set with second as base.
func TimeUnits() []factory.UnitJSON {
	return []factory.UnitJSON{
		baseUnit("s", "Second", "s", "time", "metric", 3),
		derived("min", "Minute", "min", "time", "metric", "s", "60", 2),
		derived("h", "Hour", "h", "time", "metric", "s", "3600", 2),
		derived("d", "Day", "d", "time", "metric", "s", "86400", 2),
	}
}

// Quantity returns count-style units with piece as base.
func Quantity() []factory.UnitJSON {
	return []factory.UnitJSON{
		baseUnit("pc", "Piece", "pc", "quantity", "custom", 0),
		derived("pair", "Pair", "pr", "quantity", "custom", "pc", "2", 0),
		derived("dz", "Dozen", "dz", "quantity", "custom", "pc", "12", 0),
		derived("gross", "Gross", "gr", "quantity", "custom", "pc", "144", 0),
	}
}

// =============================================================================
// BUILDERS
// =============================================================================

func baseUnit(id, name, symbol, unitType, system string, places int32) factory.UnitJSON {
	return factory.UnitJSON{
		ID: id, Name: name, Symbol: symbol,
		UnitType: unitType, UnitSystem: system,
		IsBaseUnit:    true,
		DecimalPlaces: i32(places),
		IsSystemUnit:  true,
	}
}

func derived(id, name, symbol, unitType, system, baseID, factor string, places int32) factory.UnitJSON {
	return factory.UnitJSON{
		ID: id, Name: name, Symbol: symbol,
		UnitType: unitType, UnitSystem: system,
		BaseUnitRef: baseID,
		ConversionFactors: []factory.FactorJSON{
			{TargetUnit: baseID, Factor: dec(factor)},
		},
		DecimalPlaces: i32(places),
		IsSystemUnit:  true,
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func i32(n int32) *int32 {
	return &n
}
