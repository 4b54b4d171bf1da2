package cellml

import (
	"maps"

	"github.com/dd0wney/cluso-cellml/pkg/units"
)

// Clone produces a fully independent deep copy of the model: units,
// components, variables, encapsulation, connections, connected-set structure
// with its equations and initial values, and the variable of integration.
// Equation references are name-based, so they bind to the new variables
// automatically.
func (m *Model) Clone() *Model {
	clone := &Model{
		name:           m.name,
		componentIndex: make(map[string]*Component),
		unitsIndex:     make(map[string]*UnitsDef),
		nameByValue:    make(map[units.Value]string),
		sets:           newSetIndex(),
		ID:             m.ID,
		Meta:           cloneMeta(m.Meta),
	}

	for _, def := range m.unitsDefs {
		copied := &UnitsDef{
			Name:  def.Name,
			Rows:  append([]UnitRow(nil), def.Rows...),
			Value: def.Value,
			ID:    def.ID,
			Meta:  cloneMeta(def.Meta),
		}
		clone.unitsDefs = append(clone.unitsDefs, copied)
		clone.unitsIndex[copied.Name] = copied
		clone.nameByValue[copied.Value] = copied.Name
	}

	compMap := make(map[*Component]*Component, len(m.components))
	varMap := make(map[*Variable]*Variable)
	for _, c := range m.components {
		nc := &Component{
			name:     c.name,
			model:    clone,
			varIndex: make(map[string]*Variable),
			ID:       c.ID,
			Meta:     cloneMeta(c.Meta),
		}
		clone.components = append(clone.components, nc)
		clone.componentIndex[nc.name] = nc
		compMap[c] = nc

		for _, v := range c.variables {
			nv := &Variable{
				name:       v.name,
				component:  nc,
				unitsName:  v.unitsName,
				unitsValue: v.unitsValue,
				iface:      v.iface,
				id:         v.id,
				ID:         v.ID,
				Meta:       cloneMeta(v.Meta),
			}
			nc.variables = append(nc.variables, nv)
			nc.varIndex[nv.name] = nv
			varMap[v] = nv
		}
	}

	for _, c := range m.components {
		if c.parent != nil {
			compMap[c].parent = compMap[c.parent]
		}
		for _, child := range c.children {
			compMap[c].children = append(compMap[c].children, compMap[child])
		}
	}

	// Variable ids are model-wide and copied verbatim, so the union-find
	// arrays transfer directly.
	clone.sets.parent = append([]int(nil), m.sets.parent...)
	clone.sets.size = append([]int(nil), m.sets.size...)
	clone.sets.vars = make([]*Variable, len(m.sets.vars))
	for i, v := range m.sets.vars {
		clone.sets.vars[i] = varMap[v]
	}
	clone.sets.owner = make([]ownership, len(m.sets.owner))
	for i, o := range m.sets.owner {
		copied := o
		if o.equation != nil {
			copied.equation = o.equation.Clone()
		}
		clone.sets.owner[i] = copied
	}

	for _, conn := range m.connections {
		clone.connections = append(clone.connections, Connection{
			V1: varMap[conn.V1],
			V2: varMap[conn.V2],
			ID: conn.ID,
		})
	}

	if m.voi != nil {
		clone.voi = varMap[m.voi]
	}
	return clone
}

func cloneMeta(meta map[string]string) map[string]string {
	if meta == nil {
		return nil
	}
	return maps.Clone(meta)
}
