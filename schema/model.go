package schema

import "strings"

// The following types describe one data source's semantic layer.
type (
	// Model is a semantic model of a single data source.
	Model struct {
		// Name identifies the model within a composition.
		Name string `yaml:"name"`
		// Version is a free-form version string.
		Version string `yaml:"version,omitempty"`
		// Tables holds the tables keyed by "schema.table", in document order.
		Tables Tables `yaml:"tables"`
		// Relationships are the intra-model joins.
		Relationships []*Relationship `yaml:"relationships,omitempty"`
		// Metrics are the model-level metrics keyed by name.
		Metrics Metrics `yaml:"metrics,omitempty"`
	}

	// Table is one table of a semantic model.
	Table struct {
		Schema      string       `yaml:"schema"`
		Name        string       `yaml:"name"`
		Description string       `yaml:"description,omitempty"`
		Dimensions  []*Dimension `yaml:"dimensions,omitempty"`
		Measures    []*Measure   `yaml:"measures,omitempty"`
		Filters     Filters      `yaml:"filters,omitempty"`
	}

	// Dimension is a descriptive column of a table.
	Dimension struct {
		Name        string `yaml:"name"`
		Type        string `yaml:"type,omitempty"`
		Description string `yaml:"description,omitempty"`
		PrimaryKey  bool   `yaml:"primary_key,omitempty"`
	}

	// Measure is an aggregatable column of a table.
	Measure struct {
		Name        string `yaml:"name"`
		Type        string `yaml:"type,omitempty"`
		Description string `yaml:"description,omitempty"`
		Aggregation string `yaml:"aggregation,omitempty"`
	}

	// Filter is a named, reusable predicate of a table.
	Filter struct {
		// Name is the mapping key of the filter.
		Name        string `yaml:"-"`
		Expression  string `yaml:"expression"`
		Description string `yaml:"description,omitempty"`
	}

	// Metric is a named expression. Model metrics reference their own
	// tables, unified metrics may reference any composed model.
	Metric struct {
		// Name is the mapping key of the metric.
		Name        string `yaml:"-"`
		Expression  string `yaml:"expression"`
		Description string `yaml:"description,omitempty"`
	}

	// Relationship is a join between two tables.
	Relationship struct {
		Name string   `yaml:"name"`
		From string   `yaml:"from"`
		To   string   `yaml:"to"`
		On   string   `yaml:"on"`
		Type JoinType `yaml:"type"`
	}
)

// Key returns the qualified table key "schema.name".
func (t *Table) Key() string {
	return t.Schema + "." + t.Name
}

// Dimension returns the dimension with the given name, or nil.
func (t *Table) Dimension(name string) *Dimension {
	for _, d := range t.Dimensions {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// Measure returns the measure with the given name, or nil.
func (t *Table) Measure(name string) *Measure {
	for _, m := range t.Measures {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// FieldNames returns the dimension names followed by the measure names.
func (t *Table) FieldNames() []string {
	names := make([]string, 0, len(t.Dimensions)+len(t.Measures))
	for _, d := range t.Dimensions {
		names = append(names, d.Name)
	}
	for _, m := range t.Measures {
		names = append(names, m.Name)
	}
	return names
}

// PrimaryKeys returns the names of the primary-key dimensions.
func (t *Table) PrimaryKeys() []string {
	var keys []string
	for _, d := range t.Dimensions {
		if d.PrimaryKey {
			keys = append(keys, d.Name)
		}
	}
	return keys
}

// Table returns the table with the given "schema.table" key, or nil.
func (m *Model) Table(key string) *Table {
	return m.Tables.Get(key)
}

// SplitTableKey splits a "schema.table" key. The schema part ends at the
// first dot. ok is false if either part is empty.
func SplitTableKey(key string) (schemaName, table string, ok bool) {
	schemaName, table, found := strings.Cut(key, ".")
	if !found || schemaName == "" || table == "" {
		return "", "", false
	}
	return schemaName, table, true
}
