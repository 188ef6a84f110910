package schema

// Clone returns a deep copy of the model. Empty collections become nil,
// which is also what decoding a document without them yields.
func (m *Model) Clone() *Model {
	if m == nil {
		return nil
	}
	c := &Model{
		Name:    m.Name,
		Version: m.Version,
	}
	if len(m.Tables) > 0 {
		c.Tables = make(Tables, len(m.Tables))
		for i, t := range m.Tables {
			c.Tables[i] = t.Clone()
		}
	}
	c.Relationships = cloneRelationships(m.Relationships)
	c.Metrics = m.Metrics.Clone()
	return c
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	c := &Table{
		Schema:      t.Schema,
		Name:        t.Name,
		Description: t.Description,
	}
	if len(t.Dimensions) > 0 {
		c.Dimensions = make([]*Dimension, len(t.Dimensions))
		for i, d := range t.Dimensions {
			dc := *d
			c.Dimensions[i] = &dc
		}
	}
	if len(t.Measures) > 0 {
		c.Measures = make([]*Measure, len(t.Measures))
		for i, m := range t.Measures {
			mc := *m
			c.Measures[i] = &mc
		}
	}
	if len(t.Filters) > 0 {
		c.Filters = make(Filters, len(t.Filters))
		for i, f := range t.Filters {
			fc := *f
			c.Filters[i] = &fc
		}
	}
	return c
}

// Clone returns a deep copy of the metrics.
func (ms Metrics) Clone() Metrics {
	if len(ms) == 0 {
		return nil
	}
	c := make(Metrics, len(ms))
	for i, m := range ms {
		mc := *m
		c[i] = &mc
	}
	return c
}

// Clone returns a deep copy of the unified model.
func (u *UnifiedModel) Clone() *UnifiedModel {
	if u == nil {
		return nil
	}
	c := &UnifiedModel{
		Name:        u.Name,
		Version:     u.Version,
		Connector:   u.Connector,
		Description: u.Description,
	}
	if len(u.Models) > 0 {
		c.Models = make([]*EmbeddedModel, len(u.Models))
		for i, em := range u.Models {
			c.Models[i] = &EmbeddedModel{Source: em.Source, Model: em.Model.Clone()}
		}
	}
	c.Relationships = cloneRelationships(u.Relationships)
	c.Metrics = u.Metrics.Clone()
	return c
}

func cloneRelationships(rels []*Relationship) []*Relationship {
	if len(rels) == 0 {
		return nil
	}
	c := make([]*Relationship, len(rels))
	for i, r := range rels {
		rc := *r
		c[i] = &rc
	}
	return c
}
