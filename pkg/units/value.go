package units

import (
	"fmt"
	"math"
	"strings"
)

// NumDimensions is the number of SI base dimensions tracked per unit value.
const NumDimensions = 7

// Dimension indices into Value.Dims, in fixed SI order.
const (
	DimSecond = iota
	DimMetre
	DimKilogram
	DimAmpere
	DimKelvin
	DimMole
	DimCandela
)

var dimensionSymbols = [NumDimensions]string{"second", "metre", "kilogram", "ampere", "kelvin", "mole", "candela"}

// Value represents a resolved unit: a vector of seven SI base exponents plus a
// numeric multiplier. Exponents may be fractional. Values are immutable; all
// operations return a new Value.
type Value struct {
	Dims       [NumDimensions]float64
	Multiplier float64
}

// Dimensionless returns the dimensionless unit with multiplier 1.
func Dimensionless() Value {
	return Value{Multiplier: 1}
}

// base returns a unit value with a single dimension exponent set to 1.
func base(dim int) Value {
	v := Value{Multiplier: 1}
	v.Dims[dim] = 1
	return v
}

// Times returns the product of two unit values.
func (v Value) Times(o Value) Value {
	r := Value{Multiplier: v.Multiplier * o.Multiplier}
	for i := range r.Dims {
		r.Dims[i] = v.Dims[i] + o.Dims[i]
	}
	return r
}

// Over returns the quotient of two unit values.
func (v Value) Over(o Value) Value {
	r := Value{Multiplier: v.Multiplier / o.Multiplier}
	for i := range r.Dims {
		r.Dims[i] = v.Dims[i] - o.Dims[i]
	}
	return r
}

// Pow raises the unit value (exponents and multiplier) to a real power.
func (v Value) Pow(p float64) Value {
	r := Value{Multiplier: math.Pow(v.Multiplier, p)}
	for i := range r.Dims {
		r.Dims[i] = v.Dims[i] * p
	}
	return r
}

// Scale returns the unit value with its multiplier scaled by f.
func (v Value) Scale(f float64) Value {
	v.Multiplier *= f
	return v
}

const dimEpsilon = 1e-9

// Compatible reports whether two unit values share the same dimension vector,
// ignoring multipliers. Compatible units are convertible into each other.
func (v Value) Compatible(o Value) bool {
	for i := range v.Dims {
		if math.Abs(v.Dims[i]-o.Dims[i]) > dimEpsilon {
			return false
		}
	}
	return true
}

// Equal reports whether two unit values are identical in both dimensions and
// multiplier, within floating-point tolerance.
func (v Value) Equal(o Value) bool {
	if !v.Compatible(o) {
		return false
	}
	if v.Multiplier == o.Multiplier {
		return true
	}
	mean := (math.Abs(v.Multiplier) + math.Abs(o.Multiplier)) / 2
	return math.Abs(v.Multiplier-o.Multiplier) <= dimEpsilon*mean
}

// IsDimensionless reports whether every dimension exponent is zero.
func (v Value) IsDimensionless() bool {
	for i := range v.Dims {
		if math.Abs(v.Dims[i]) > dimEpsilon {
			return false
		}
	}
	return true
}

// ConversionFactor returns the factor f such that a quantity x expressed in v
// equals x*f expressed in o. Fails when the two units are not compatible.
func ConversionFactor(from, to Value) (float64, error) {
	if !from.Compatible(to) {
		return 0, fmt.Errorf("units %s and %s are not convertible", from, to)
	}
	if to.Multiplier == 0 {
		return 0, fmt.Errorf("unit %s has zero multiplier", to)
	}
	return from.Multiplier / to.Multiplier, nil
}

// String renders the unit value in a compact debugging form, e.g.
// "kilogram metre^2 second^-3 ampere^-1 (x1)".
func (v Value) String() string {
	var b strings.Builder
	for i, d := range v.Dims {
		if math.Abs(d) <= dimEpsilon {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		if d == 1 {
			b.WriteString(dimensionSymbols[i])
		} else {
			fmt.Fprintf(&b, "%s^%g", dimensionSymbols[i], d)
		}
	}
	if b.Len() == 0 {
		b.WriteString("dimensionless")
	}
	fmt.Fprintf(&b, " (x%g)", v.Multiplier)
	return b.String()
}
