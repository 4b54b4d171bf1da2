package units

import (
	"fmt"
	"sort"
)

// predefined is the CellML built-in unit catalog, built once at package init.
// Names here may not be redefined by a model.
var predefined = buildCatalog()

func buildCatalog() map[string]Value {
	second := base(DimSecond)
	metre := base(DimMetre)
	kilogram := base(DimKilogram)
	ampere := base(DimAmpere)
	kelvin := base(DimKelvin)
	mole := base(DimMole)
	candela := base(DimCandela)

	hertz := Dimensionless().Over(second)
	newton := kilogram.Times(metre).Over(second.Pow(2))
	pascal := newton.Over(metre.Pow(2))
	joule := newton.Times(metre)
	watt := joule.Over(second)
	coulomb := second.Times(ampere)
	volt := watt.Over(ampere)
	farad := coulomb.Over(volt)
	ohm := volt.Over(ampere)
	siemens := ampere.Over(volt)
	weber := volt.Times(second)
	tesla := weber.Over(metre.Pow(2))
	henry := weber.Over(ampere)
	gray := joule.Over(kilogram)
	katal := mole.Over(second)

	c := map[string]Value{
		"second":        second,
		"metre":         metre,
		"meter":         metre,
		"kilogram":      kilogram,
		"ampere":        ampere,
		"kelvin":        kelvin,
		"mole":          mole,
		"candela":       candela,
		"dimensionless": Dimensionless(),
		"radian":        Dimensionless(),
		"steradian":     Dimensionless(),
		"hertz":         hertz,
		"newton":        newton,
		"pascal":        pascal,
		"joule":         joule,
		"watt":          watt,
		"coulomb":       coulomb,
		"volt":          volt,
		"farad":         farad,
		"ohm":           ohm,
		"siemens":       siemens,
		"weber":         weber,
		"tesla":         tesla,
		"henry":         henry,
		"lumen":         candela,
		"lux":           candela.Over(metre.Pow(2)),
		"becquerel":     hertz,
		"gray":          gray,
		"sievert":       gray,
		"katal":         katal,
		"gram":          kilogram.Scale(1e-3),
		"litre":         metre.Pow(3).Scale(1e-3),
		"liter":         metre.Pow(3).Scale(1e-3),
		"celsius":       kelvin,
	}
	return c
}

// Predefined resolves a CellML built-in unit name to its value.
func Predefined(name string) (Value, error) {
	v, ok := predefined[name]
	if !ok {
		return Value{}, fmt.Errorf("unknown predefined unit %q", name)
	}
	return v, nil
}

// IsPredefined reports whether name is a CellML built-in unit name.
func IsPredefined(name string) bool {
	_, ok := predefined[name]
	return ok
}

// PredefinedNames returns all built-in unit names in sorted order.
func PredefinedNames() []string {
	names := make([]string, 0, len(predefined))
	for name := range predefined {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// canonical ordering used when several predefined names share a value, so that
// lookups by value are deterministic (e.g. "metre" beats "meter").
var preferredNames = []string{
	"dimensionless", "second", "metre", "kilogram", "ampere", "kelvin", "mole",
	"candela", "hertz", "newton", "pascal", "joule", "watt", "coulomb", "volt",
	"farad", "ohm", "siemens", "weber", "tesla", "henry", "gray", "katal",
	"gram", "litre",
}

// PredefinedNameFor returns the preferred built-in name whose value matches v
// exactly (dimensions and multiplier), if any.
func PredefinedNameFor(v Value) (string, bool) {
	for _, name := range preferredNames {
		if predefined[name].Equal(v) {
			return name, true
		}
	}
	return "", false
}
