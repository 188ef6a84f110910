package load

import (
	"fmt"
	"strings"

	"github.com/syssam/unisem"
	"github.com/syssam/unisem/schema"
)

// Check validates the structure of a model: a name, at least one table,
// and no name collisions inside a parent. It returns a *unisem.ParseError
// describing the first violation.
func Check(m *schema.Model) error {
	if m == nil {
		return unisem.NewParseError("", "model is nil", nil)
	}
	if strings.TrimSpace(m.Name) == "" {
		return unisem.NewParseError("name", "model name is required", nil)
	}
	if len(m.Tables) == 0 {
		return unisem.NewParseError("tables", fmt.Sprintf("model %q has no tables", m.Name), nil)
	}
	tables := make(map[string]struct{}, len(m.Tables))
	for i, t := range m.Tables {
		if t == nil || t.Schema == "" || t.Name == "" {
			return unisem.NewParseError(fmt.Sprintf("tables[%d]", i), "table schema and name are required", nil)
		}
		key := t.Key()
		if _, ok := tables[key]; ok {
			return unisem.NewParseError("tables."+key, fmt.Sprintf("table %q redeclared in model %q", key, m.Name), nil)
		}
		tables[key] = struct{}{}
		if err := checkTable(t); err != nil {
			return err
		}
	}
	for i, r := range m.Relationships {
		path := fmt.Sprintf("relationships[%d]", i)
		if r == nil {
			return unisem.NewParseError(path, "relationship is empty", nil)
		}
		if r.Type != "" && !r.Type.Valid() {
			return unisem.NewParseError(path, fmt.Sprintf("unsupported join type %q", r.Type), nil)
		}
	}
	return checkMetrics("metrics", m.Metrics)
}

func checkTable(t *schema.Table) error {
	path := "tables." + t.Key()
	fields := make(map[string]struct{}, len(t.Dimensions)+len(t.Measures))
	declare := func(kind, name string) error {
		if name == "" {
			return unisem.NewParseError(path, kind+" name cannot be empty", nil)
		}
		if _, ok := fields[name]; ok {
			return unisem.NewParseError(path, fmt.Sprintf("field %q redeclared in table %q", name, t.Key()), nil)
		}
		fields[name] = struct{}{}
		return nil
	}
	for _, d := range t.Dimensions {
		if d == nil {
			return unisem.NewParseError(path, "dimension is empty", nil)
		}
		if err := declare("dimension", d.Name); err != nil {
			return err
		}
	}
	for _, m := range t.Measures {
		if m == nil {
			return unisem.NewParseError(path, "measure is empty", nil)
		}
		if err := declare("measure", m.Name); err != nil {
			return err
		}
	}
	filters := make(map[string]struct{}, len(t.Filters))
	for _, f := range t.Filters {
		if f == nil || f.Name == "" {
			return unisem.NewParseError(path+".filters", "filter name cannot be empty", nil)
		}
		if _, ok := filters[f.Name]; ok {
			return unisem.NewParseError(path+".filters", fmt.Sprintf("filter %q redeclared in table %q", f.Name, t.Key()), nil)
		}
		filters[f.Name] = struct{}{}
		if strings.TrimSpace(f.Expression) == "" {
			return unisem.NewParseError(path+".filters."+f.Name, "filter expression cannot be empty", nil)
		}
	}
	return nil
}

// CheckMetrics validates a metric mapping: non-empty, unique names and
// non-empty expressions.
func CheckMetrics(ms schema.Metrics) error {
	return checkMetrics("metrics", ms)
}

func checkMetrics(path string, ms schema.Metrics) error {
	seen := make(map[string]struct{}, len(ms))
	for _, m := range ms {
		if m == nil || m.Name == "" {
			return unisem.NewParseError(path, "metric name cannot be empty", nil)
		}
		if _, ok := seen[m.Name]; ok {
			return unisem.NewParseError(path, fmt.Sprintf("metric %q redeclared", m.Name), nil)
		}
		seen[m.Name] = struct{}{}
		if strings.TrimSpace(m.Expression) == "" {
			return unisem.NewParseError(path+"."+m.Name, "metric expression cannot be empty", nil)
		}
	}
	return nil
}
