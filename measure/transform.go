/*
transform.go - Affine transform arithmetic

PURPOSE:
  A conversion between two units of the same type is an affine transform
  y = x*factor + offset. A pure scale is the special case offset = 0;
  temperature-like units need the full form (Celsius to Fahrenheit is
  y = x*1.8 + 32, not a scale).

  Transforms are stored in one direction only. The two operations here
  make that sufficient:

    Invert:  y = x*f + o   ==>   x = (y - o) / f = y*(1/f) + (-o/f)
    Compose: applying t then next collapses two hops into one pair

  Composition is what lets a via_base conversion report a single
  effective (factor, offset) in its ConversionResult.

SEE ALSO:
  - resolver.go: Chooses which transforms to apply and in which order
*/
package measure

import "github.com/shopspring/decimal"

// Transform is an affine transform y = x*Factor + Offset.
type Transform struct {
	Factor decimal.Decimal
	Offset decimal.Decimal
}

// IdentityTransform returns the transform that maps every value to itself.
func IdentityTransform() Transform {
	return Transform{Factor: decimal.NewFromInt(1), Offset: decimal.Zero}
}

// Apply evaluates the transform at v.
func (t Transform) Apply(v decimal.Decimal) decimal.Decimal {
	return v.Mul(t.Factor).Add(t.Offset)
}

// Invert returns the inverse transform. A zero factor is not invertible;
// the registry rejects zero factors at registration, so hitting this
// error means the transform was constructed outside the registry.
func (t Transform) Invert() (Transform, error) {
	if t.Factor.IsZero() {
		return Transform{}, ErrInvalidConversionFactor
	}
	inv := decimal.NewFromInt(1).Div(t.Factor)
	return Transform{
		Factor: inv,
		Offset: t.Offset.Neg().Div(t.Factor),
	}, nil
}

// Then composes t with next: the result applies t first, then next.
//
//	next(t(x)) = (x*f1 + o1)*f2 + o2 = x*(f1*f2) + (o1*f2 + o2)
func (t Transform) Then(next Transform) Transform {
	return Transform{
		Factor: t.Factor.Mul(next.Factor),
		Offset: t.Offset.Mul(next.Factor).Add(next.Offset),
	}
}

// IsIdentity reports whether the transform maps every value to itself.
func (t Transform) IsIdentity() bool {
	return t.Factor.Equal(decimal.NewFromInt(1)) && t.Offset.IsZero()
}
