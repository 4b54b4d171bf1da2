package cellml

import (
	"math"
	"strconv"

	"github.com/dd0wney/cluso-cellml/pkg/units"
)

// UnitRow is one unit element of a units definition, kept in source form so
// a parsed model writes back out structurally unchanged.
type UnitRow struct {
	Units      string
	Prefix     string
	Exponent   string
	Multiplier string
	ID         string
}

// UnitsDef is a named model-scoped units definition: the source rows plus the
// resolved unit value.
type UnitsDef struct {
	Name  string
	Rows  []UnitRow
	Value units.Value
	ID    string
	Meta  map[string]string
}

// rowsFromValue synthesizes unit rows for a programmatically created unit
// value, one row per nonzero dimension with the multiplier on the first row.
func rowsFromValue(v units.Value) []UnitRow {
	dimensionNames := []string{"second", "metre", "kilogram", "ampere", "kelvin", "mole", "candela"}

	var rows []UnitRow
	for i, d := range v.Dims {
		if math.Abs(d) < 1e-9 {
			continue
		}
		row := UnitRow{Units: dimensionNames[i]}
		if math.Abs(d-1) > 1e-9 {
			row.Exponent = strconv.FormatFloat(d, 'g', -1, 64)
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		rows = append(rows, UnitRow{Units: "dimensionless"})
	}
	if math.Abs(v.Multiplier-1) > 1e-12*math.Abs(v.Multiplier) {
		rows[0].Multiplier = strconv.FormatFloat(v.Multiplier, 'g', -1, 64)
	}
	return rows
}
