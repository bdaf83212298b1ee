/*
Package factory provides JSON to Go unit conversion.

PURPOSE:
  Converts JSON unit definitions into measure.MeasurementUnit values.
  This enables unit configuration without code changes - operators can
  define units in JSON, and the factory creates the proper Go structs.

WHY JSON?
  - Non-developers can add units (a new package size, a local measure)
  - Easy integration with admin UI
  - Version control for unit definitions
  - Database storage of unit configs

JSON SCHEMA:
  {
    "id": "g",
    "name": "Gram",
    "symbol": "g",
    "unit_type": "weight",
    "unit_system": "metric",
    "base_unit_ref": "kg",
    "conversion_factors": [
      {"target_unit": "kg", "factor": "0.001"}
    ],
    "decimal_places": 1,
    "precision": "0.1",
    "display_format": {"show_symbol": true, "symbol_position": "after"}
  }

  Numeric fields accept both JSON numbers and strings; strings are the
  safe choice for factors like 0.001 that a float cannot hold exactly.

KEY FEATURES:
  - Validates structure and enumerations
  - Sets sensible defaults (2 decimal places, precision derived from them)
  - Rejects zero factors and duplicate factor targets up front

  Cross-unit reference checks (base ref type, factor target type) are
  the registry's job - the factory sees one definition at a time.

USAGE:
  factory := NewUnitFactory()

  // From JSON string
  unit, err := factory.ParseUnit(jsonString)

  // From domain presets (recommended)
  import "github.com/warp/measure-engine/catalog"
  for _, def := range catalog.MetricWeight() {
      unit, err := factory.BuildUnit(def)
      registry.Register(unit)
  }

SEE ALSO:
  - measure/types.go: MeasurementUnit definition
  - catalog: Pre-built unit sets
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/measure-engine/measure"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// UnitJSON is the JSON representation of a measurement unit.
type UnitJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	DisplayName string `json:"display_name,omitempty"`
	Description string `json:"description,omitempty"`

	UnitType   string `json:"unit_type"`
	UnitSystem string `json:"unit_system,omitempty"`

	IsBaseUnit  bool   `json:"is_base_unit,omitempty"`
	BaseUnitRef string `json:"base_unit_ref,omitempty"`

	ConversionFactors []FactorJSON `json:"conversion_factors,omitempty"`

	DecimalPlaces *int32           `json:"decimal_places,omitempty"` // default 2
	Precision     *decimal.Decimal `json:"precision,omitempty"`      // default 10^-decimal_places

	MinValue      *decimal.Decimal `json:"min_value,omitempty"`
	MaxValue      *decimal.Decimal `json:"max_value,omitempty"`
	AllowNegative bool             `json:"allow_negative,omitempty"`

	DisplayFormat *DisplayJSON `json:"display_format,omitempty"`

	IsSystemUnit bool  `json:"is_system_unit,omitempty"`
	IsActive     *bool `json:"is_active,omitempty"` // default true
}

// FactorJSON represents one direct conversion entry.
type FactorJSON struct {
	TargetUnit string          `json:"target_unit"`
	Factor     decimal.Decimal `json:"factor"`
	Offset     decimal.Decimal `json:"offset,omitempty"`
}

// DisplayJSON represents display configuration.
type DisplayJSON struct {
	ShowSymbol         *bool  `json:"show_symbol,omitempty"`     // default true
	SymbolPosition     string `json:"symbol_position,omitempty"` // before|after, default after
	ThousandsSeparator string `json:"thousands_separator,omitempty"`
	DecimalSeparator   string `json:"decimal_separator,omitempty"` // default "."
}

// =============================================================================
// FACTORY
// =============================================================================

// UnitFactory creates measure.MeasurementUnit values from JSON.
type UnitFactory struct{}

// NewUnitFactory creates a unit factory.
func NewUnitFactory() *UnitFactory {
	return &UnitFactory{}
}

// ParseUnit parses a JSON unit definition.
func (f *UnitFactory) ParseUnit(jsonStr string) (*measure.MeasurementUnit, error) {
	var def UnitJSON
	if err := json.Unmarshal([]byte(jsonStr), &def); err != nil {
		return nil, fmt.Errorf("failed to parse unit JSON: %w", err)
	}
	return f.BuildUnit(def)
}

// BuildUnit converts a parsed definition into a MeasurementUnit,
// applying defaults and validating what can be validated without a
// registry at hand.
func (f *UnitFactory) BuildUnit(def UnitJSON) (*measure.MeasurementUnit, error) {
	if def.ID == "" {
		return nil, fmt.Errorf("unit id is required")
	}
	if def.Name == "" {
		return nil, fmt.Errorf("unit %q: name is required", def.ID)
	}
	if def.Symbol == "" {
		return nil, fmt.Errorf("unit %q: symbol is required", def.ID)
	}

	unitType := measure.UnitType(def.UnitType)
	if !unitType.Valid() {
		return nil, fmt.Errorf("unit %q: unknown unit type %q", def.ID, def.UnitType)
	}

	unitSystem := measure.UnitSystem(def.UnitSystem)
	if def.UnitSystem == "" {
		unitSystem = measure.SystemCustom
	} else if !unitSystem.Valid() {
		return nil, fmt.Errorf("unit %q: unknown unit system %q", def.ID, def.UnitSystem)
	}

	if def.IsBaseUnit && def.BaseUnitRef != "" {
		return nil, fmt.Errorf("unit %q: a base unit cannot carry a base unit reference", def.ID)
	}

	places := int32(2)
	if def.DecimalPlaces != nil {
		if *def.DecimalPlaces < 0 {
			return nil, fmt.Errorf("unit %q: decimal places must be >= 0", def.ID)
		}
		places = *def.DecimalPlaces
	}

	precision := decimal.New(1, -places) // 10^-places
	if def.Precision != nil {
		if def.Precision.IsNegative() {
			return nil, fmt.Errorf("unit %q: precision must be >= 0", def.ID)
		}
		precision = *def.Precision
	}

	factors := make([]measure.ConversionFactor, 0, len(def.ConversionFactors))
	seen := make(map[string]bool, len(def.ConversionFactors))
	for _, fj := range def.ConversionFactors {
		if fj.TargetUnit == "" {
			return nil, fmt.Errorf("unit %q: factor target unit is required", def.ID)
		}
		if fj.TargetUnit == def.ID {
			return nil, fmt.Errorf("unit %q: factor targets its own unit", def.ID)
		}
		if seen[fj.TargetUnit] {
			return nil, fmt.Errorf("unit %q: duplicate factor for target %q", def.ID, fj.TargetUnit)
		}
		seen[fj.TargetUnit] = true
		if fj.Factor.IsZero() {
			return nil, fmt.Errorf("unit %q: factor toward %q must be non-zero", def.ID, fj.TargetUnit)
		}
		factors = append(factors, measure.ConversionFactor{
			TargetUnit: measure.UnitID(fj.TargetUnit),
			Factor:     fj.Factor,
			Offset:     fj.Offset,
		})
	}

	display, err := buildDisplay(def.DisplayFormat)
	if err != nil {
		return nil, fmt.Errorf("unit %q: %w", def.ID, err)
	}

	active := true
	if def.IsActive != nil {
		active = *def.IsActive
	}

	unit := &measure.MeasurementUnit{
		ID:                measure.UnitID(def.ID),
		Name:              def.Name,
		Symbol:            def.Symbol,
		DisplayName:       defaultStr(def.DisplayName, def.Name),
		Description:       def.Description,
		UnitType:          unitType,
		UnitSystem:        unitSystem,
		IsBaseUnit:        def.IsBaseUnit,
		BaseUnitRef:       measure.UnitID(def.BaseUnitRef),
		ConversionFactors: factors,
		DecimalPlaces:     places,
		Precision:         precision,
		MinValue:          def.MinValue,
		MaxValue:          def.MaxValue,
		AllowNegative:     def.AllowNegative,
		DisplayFormat:     display,
		IsActive:          active,
		IsSystemUnit:      def.IsSystemUnit,
	}
	return unit, nil
}

// BuildDisplayFormat converts a DisplayJSON into the engine's display
// configuration, applying the same defaults as BuildUnit.
func BuildDisplayFormat(dj *DisplayJSON) (measure.DisplayFormat, error) {
	return buildDisplay(dj)
}

func buildDisplay(dj *DisplayJSON) (measure.DisplayFormat, error) {
	out := measure.DisplayFormat{
		ShowSymbol:       true,
		SymbolPosition:   measure.SymbolAfter,
		DecimalSeparator: ".",
	}
	if dj == nil {
		return out, nil
	}
	if dj.ShowSymbol != nil {
		out.ShowSymbol = *dj.ShowSymbol
	}
	switch dj.SymbolPosition {
	case "", string(measure.SymbolAfter):
	case string(measure.SymbolBefore):
		out.SymbolPosition = measure.SymbolBefore
	default:
		return out, fmt.Errorf("unknown symbol position %q", dj.SymbolPosition)
	}
	out.ThousandsSeparator = dj.ThousandsSeparator
	if dj.DecimalSeparator != "" {
		out.DecimalSeparator = dj.DecimalSeparator
	}
	return out, nil
}

func defaultStr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
