package factory

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/measure-engine/measure"
)

func TestParseUnit_FullDefinition(t *testing.T) {
	f := NewUnitFactory()

	unit, err := f.ParseUnit(`{
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
		"min_value": "0",
		"display_format": {"show_symbol": true, "symbol_position": "after"}
	}`)
	require.NoError(t, err)

	assert.Equal(t, measure.UnitID("g"), unit.ID)
	assert.Equal(t, measure.TypeWeight, unit.UnitType)
	assert.Equal(t, measure.SystemMetric, unit.UnitSystem)
	assert.Equal(t, measure.UnitID("kg"), unit.BaseUnitRef)
	require.Len(t, unit.ConversionFactors, 1)
	// "0.001" as a string survives exactly; a JSON float would not.
	assert.True(t, unit.ConversionFactors[0].Factor.Equal(decimal.RequireFromString("0.001")))
	assert.Equal(t, int32(1), unit.DecimalPlaces)
	require.NotNil(t, unit.MinValue)
	assert.True(t, unit.MinValue.Equal(decimal.Zero))
	assert.True(t, unit.IsActive)
}

func TestParseUnit_NumericFieldsAcceptJSONNumbers(t *testing.T) {
	f := NewUnitFactory()

	unit, err := f.ParseUnit(`{
		"id": "dz", "name": "Dozen", "symbol": "dz",
		"unit_type": "quantity",
		"conversion_factors": [{"target_unit": "pc", "factor": 12}]
	}`)
	require.NoError(t, err)
	assert.True(t, unit.ConversionFactors[0].Factor.Equal(decimal.NewFromInt(12)))
}

func TestParseUnit_InvalidJSON(t *testing.T) {
	f := NewUnitFactory()

	_, err := f.ParseUnit(`{not json`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse unit JSON")
}

func TestBuildUnit_Defaults(t *testing.T) {
	f := NewUnitFactory()

	unit, err := f.BuildUnit(UnitJSON{
		ID: "box", Name: "Box", Symbol: "box", UnitType: "quantity",
	})
	require.NoError(t, err)

	assert.Equal(t, measure.SystemCustom, unit.UnitSystem)
	assert.Equal(t, int32(2), unit.DecimalPlaces)
	assert.True(t, unit.Precision.Equal(decimal.RequireFromString("0.01")),
		"precision defaults to 10^-decimalPlaces, got %s", unit.Precision)
	assert.Equal(t, "Box", unit.DisplayName)
	assert.True(t, unit.IsActive)
	assert.True(t, unit.DisplayFormat.ShowSymbol)
	assert.Equal(t, measure.SymbolAfter, unit.DisplayFormat.SymbolPosition)
	assert.Equal(t, ".", unit.DisplayFormat.DecimalSeparator)
}

func TestBuildUnit_RequiredFields(t *testing.T) {
	f := NewUnitFactory()

	cases := []struct {
		name string
		def  UnitJSON
		want string
	}{
		{"missing id", UnitJSON{Name: "X", Symbol: "x", UnitType: "weight"}, "id is required"},
		{"missing name", UnitJSON{ID: "x", Symbol: "x", UnitType: "weight"}, "name is required"},
		{"missing symbol", UnitJSON{ID: "x", Name: "X", UnitType: "weight"}, "symbol is required"},
		{"bad type", UnitJSON{ID: "x", Name: "X", Symbol: "x", UnitType: "mass"}, "unknown unit type"},
		{"bad system", UnitJSON{ID: "x", Name: "X", Symbol: "x", UnitType: "weight", UnitSystem: "si"}, "unknown unit system"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := f.BuildUnit(c.def)
			require.Error(t, err)
			assert.Contains(t, err.Error(), c.want)
		})
	}
}

func TestBuildUnit_BaseUnitWithBaseRef_Rejected(t *testing.T) {
	f := NewUnitFactory()

	_, err := f.BuildUnit(UnitJSON{
		ID: "kg", Name: "Kilogram", Symbol: "kg", UnitType: "weight",
		IsBaseUnit: true, BaseUnitRef: "g",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base unit cannot carry")
}

func TestBuildUnit_FactorValidation(t *testing.T) {
	f := NewUnitFactory()

	_, err := f.BuildUnit(UnitJSON{
		ID: "g", Name: "Gram", Symbol: "g", UnitType: "weight",
		ConversionFactors: []FactorJSON{{TargetUnit: "kg", Factor: decimal.Zero}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-zero")

	_, err = f.BuildUnit(UnitJSON{
		ID: "g", Name: "Gram", Symbol: "g", UnitType: "weight",
		ConversionFactors: []FactorJSON{{TargetUnit: "g", Factor: decimal.NewFromInt(1)}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "its own unit")

	_, err = f.BuildUnit(UnitJSON{
		ID: "g", Name: "Gram", Symbol: "g", UnitType: "weight",
		ConversionFactors: []FactorJSON{
			{TargetUnit: "kg", Factor: decimal.RequireFromString("0.001")},
			{TargetUnit: "kg", Factor: decimal.RequireFromString("0.002")},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate factor")
}

func TestBuildUnit_NegativeDecimalPlaces_Rejected(t *testing.T) {
	f := NewUnitFactory()

	bad := int32(-1)
	_, err := f.BuildUnit(UnitJSON{
		ID: "x", Name: "X", Symbol: "x", UnitType: "weight", DecimalPlaces: &bad,
	})
	require.Error(t, err)
}

func TestBuildDisplayFormat(t *testing.T) {
	show := false
	got, err := BuildDisplayFormat(&DisplayJSON{
		ShowSymbol:         &show,
		SymbolPosition:     "before",
		ThousandsSeparator: ",",
		DecimalSeparator:   ",",
	})
	require.NoError(t, err)
	assert.False(t, got.ShowSymbol)
	assert.Equal(t, measure.SymbolBefore, got.SymbolPosition)
	assert.Equal(t, ",", got.ThousandsSeparator)
	assert.Equal(t, ",", got.DecimalSeparator)

	_, err = BuildDisplayFormat(&DisplayJSON{SymbolPosition: "above"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown symbol position")
}

func TestBuildUnit_InactiveDefinition(t *testing.T) {
	f := NewUnitFactory()

	inactive := false
	unit, err := f.BuildUnit(UnitJSON{
		ID: "legacy", Name: "Legacy", Symbol: "lg", UnitType: "custom",
		IsActive: &inactive,
	})
	require.NoError(t, err)
	assert.False(t, unit.IsActive)
}
