/*
formatter.go - Display rendering and parsing of unit values

PURPOSE:
  Format is a pure function from (value, unit) to a display string using
  the unit's DisplayFormat and decimalPlaces. No state, no side effects.
  Parse is its inverse-compatible counterpart: it strips the configured
  separators and symbol before numeric conversion, so anything Format
  produces feeds back through Parse.

  Display rounding here is a presentation concern; it is independent of
  the precision increment used by conversion (see resolver.go).

EXAMPLES:
  kg with decimalPlaces=2, thousands=",", symbol after:
    Format(1234.5, kg)  -> "1,234.50 kg"
    Parse("1,234.50 kg") -> 1234.5

  eur-style with decimal "," and symbol before:
    Format(1234.5, u)   -> "€1.234,50"
*/
package measure

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Format renders a value according to the unit's display configuration.
func Format(value decimal.Decimal, unit *MeasurementUnit) string {
	f := unit.DisplayFormat

	fixed := value.RoundBank(unit.DecimalPlaces).StringFixed(unit.DecimalPlaces)

	negative := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	intPart, fracPart := fixed, ""
	if i := strings.IndexByte(fixed, '.'); i >= 0 {
		intPart, fracPart = fixed[:i], fixed[i+1:]
	}

	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	b.WriteString(groupDigits(intPart, f.ThousandsSeparator))
	if fracPart != "" {
		sep := f.DecimalSeparator
		if sep == "" {
			sep = "."
		}
		b.WriteString(sep)
		b.WriteString(fracPart)
	}

	out := b.String()
	if f.ShowSymbol && unit.Symbol != "" {
		if f.SymbolPosition == SymbolBefore {
			out = unit.Symbol + out
		} else {
			out = out + " " + unit.Symbol
		}
	}
	return out
}

// groupDigits inserts sep every three digits from the right. An empty
// separator leaves the digits untouched.
func groupDigits(digits, sep string) string {
	if sep == "" || len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// Parse converts a display string back into a raw value, undoing the
// unit's formatting: symbol stripped, thousands separators removed,
// decimal separator normalized.
func Parse(s string, unit *MeasurementUnit) (decimal.Decimal, error) {
	f := unit.DisplayFormat

	s = strings.TrimSpace(s)
	if unit.Symbol != "" {
		s = strings.TrimPrefix(s, unit.Symbol)
		s = strings.TrimSuffix(s, unit.Symbol)
		s = strings.TrimSpace(s)
	}
	if f.ThousandsSeparator != "" {
		s = strings.ReplaceAll(s, f.ThousandsSeparator, "")
	}
	if f.DecimalSeparator != "" && f.DecimalSeparator != "." {
		s = strings.ReplaceAll(s, f.DecimalSeparator, ".")
	}

	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse %q as %s value: %w", s, unit.ID, err)
	}
	return v, nil
}
