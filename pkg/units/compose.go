package units

import (
	"fmt"
	"math"
	"strconv"
)

// prefixPowers maps the SI prefix names to their power of ten.
var prefixPowers = map[string]int{
	"yotta": 24,
	"zetta": 21,
	"exa":   18,
	"peta":  15,
	"tera":  12,
	"giga":  9,
	"mega":  6,
	"kilo":  3,
	"hecto": 2,
	"deca":  1,
	"deka":  1,
	"deci":  -1,
	"centi": -2,
	"milli": -3,
	"micro": -6,
	"nano":  -9,
	"pico":  -12,
	"femto": -15,
	"atto":  -18,
	"zepto": -21,
	"yocto": -24,
}

// maxPrefixPower caps integer prefixes so 10^power stays finite in float64.
const maxPrefixPower = 307

// Compose builds a unit value from a resolved base unit plus the optional
// prefix, exponent and multiplier attribute strings of one unit row. Empty
// strings mean "absent". The prefix contribution is raised together with the
// base by the exponent; the multiplier is applied last and is unaffected by
// the exponent.
func Compose(baseUnit Value, prefix, exponent, multiplier string) (Value, error) {
	v := baseUnit

	if prefix != "" {
		power, ok := prefixPowers[prefix]
		if !ok {
			p, err := strconv.Atoi(prefix)
			if err != nil {
				return Value{}, fmt.Errorf("prefix %q is neither a named SI prefix nor an integer", prefix)
			}
			if p > maxPrefixPower || p < -maxPrefixPower {
				return Value{}, fmt.Errorf("prefix power %d is out of range (max %d)", p, maxPrefixPower)
			}
			power = p
		}
		v = v.Scale(math.Pow(10, float64(power)))
	}

	if exponent != "" {
		e, err := strconv.ParseFloat(exponent, 64)
		if err != nil {
			return Value{}, fmt.Errorf("exponent %q is not a real number", exponent)
		}
		v = v.Pow(e)
	}

	if multiplier != "" {
		m, err := strconv.ParseFloat(multiplier, 64)
		if err != nil {
			return Value{}, fmt.Errorf("multiplier %q is not a real number", multiplier)
		}
		v = v.Scale(m)
	}

	return v, nil
}
