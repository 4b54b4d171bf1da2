package units

import (
	"fmt"
	"math"
	"strings"
)

// SuggestName derives a deterministic, identifier-safe name for a unit value.
// An exact predefined match reuses the built-in name; anything else is
// composed from the dimension exponents, with a multiplier suffix when the
// multiplier is not 1.
func SuggestName(v Value) string {
	if name, ok := PredefinedNameFor(v); ok {
		return name
	}

	var num, den []string
	for i, d := range v.Dims {
		switch {
		case d > dimEpsilon:
			num = append(num, dimTerm(dimensionSymbols[i], d))
		case d < -dimEpsilon:
			den = append(den, dimTerm(dimensionSymbols[i], -d))
		}
	}

	var b strings.Builder
	switch {
	case len(num) == 0 && len(den) == 0:
		b.WriteString("dimensionless")
	case len(num) == 0:
		b.WriteString("per_" + strings.Join(den, "_"))
	default:
		b.WriteString(strings.Join(num, "_"))
		if len(den) > 0 {
			b.WriteString("_per_" + strings.Join(den, "_"))
		}
	}

	if mean := (math.Abs(v.Multiplier) + 1) / 2; math.Abs(v.Multiplier-1) > dimEpsilon*mean {
		b.WriteString("_x" + identifierNumber(v.Multiplier))
	}
	return b.String()
}

func dimTerm(symbol string, exp float64) string {
	if math.Abs(exp-1) <= dimEpsilon {
		return symbol
	}
	if math.Abs(exp-math.Round(exp)) <= dimEpsilon {
		return fmt.Sprintf("%s%d", symbol, int(math.Round(exp)))
	}
	return symbol + identifierNumber(exp)
}

// identifierNumber renders a number using only identifier-safe characters.
func identifierNumber(f float64) string {
	s := fmt.Sprintf("%g", f)
	r := strings.NewReplacer(".", "_", "-", "m", "+", "")
	return r.Replace(s)
}
