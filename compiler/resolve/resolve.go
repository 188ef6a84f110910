// Package resolve builds the cross-model reference index used to validate
// relationships and metrics.
package resolve

import (
	"slices"
	"strings"

	"github.com/syssam/unisem"
	"github.com/syssam/unisem/schema"
)

// TableRef is one table of one model, as known to the index.
type TableRef struct {
	// Model is the name of the owning model.
	Model string
	// Schema and Table identify the table inside its model.
	Schema string
	Table  string
	// Fields holds the dimension names followed by the measure names.
	Fields []string
	fields map[string]struct{}
}

// Key returns the qualified key "model.schema.table".
func (t *TableRef) Key() string {
	return t.Model + "." + t.Schema + "." + t.Table
}

// BareKey returns the key "schema.table".
func (t *TableRef) BareKey() string {
	return t.Schema + "." + t.Table
}

// HasField reports whether the table has a dimension or measure named name.
func (t *TableRef) HasField(name string) bool {
	_, ok := t.fields[name]
	return ok
}

// Match is a resolved reference. Field is empty when the reference names a
// table.
type Match struct {
	Table *TableRef
	Field string
	// Ambiguous is set when a bare reference matched tables of several
	// models; Table is then the first of them in input order.
	Ambiguous bool
}

// String returns the fully qualified form of the match.
func (m Match) String() string {
	if m.Field == "" {
		return m.Table.Key()
	}
	return m.Table.Key() + "." + m.Field
}

// Ambiguity records a bare table key defined by more than one model.
type Ambiguity struct {
	Key    string   // "schema.table"
	Models []string // Owning models, in input order.
}

// Index maps qualified names of a set of models to their tables and fields.
// It is immutable once built and safe for concurrent readers.
type Index struct {
	models []string
	tables []*TableRef
	// qualified "model.schema.table" key.
	byKey map[string]*TableRef
	// bare "schema.table" key; several entries mean ambiguity.
	byBare map[string][]*TableRef
	// bare "schema.table.field" key.
	byField map[string][]*TableRef
	// table name alone, for "table.field" references.
	byName map[string][]*TableRef
}

// BuildIndex indexes the tables and fields of the given models. It fails
// with *unisem.DuplicateModelNameError if two models share a name.
func BuildIndex(models []*schema.Model) (*Index, error) {
	ix := &Index{
		byKey:   make(map[string]*TableRef),
		byBare:  make(map[string][]*TableRef),
		byField: make(map[string][]*TableRef),
		byName:  make(map[string][]*TableRef),
	}
	seen := make(map[string]int, len(models))
	for i, m := range models {
		if first, ok := seen[m.Name]; ok {
			return nil, unisem.NewDuplicateModelNameError(m.Name, first, i)
		}
		seen[m.Name] = i
		ix.models = append(ix.models, m.Name)
		for _, t := range m.Tables {
			ix.add(m.Name, t)
		}
	}
	return ix, nil
}

func (ix *Index) add(model string, t *schema.Table) {
	ref := &TableRef{
		Model:  model,
		Schema: t.Schema,
		Table:  t.Name,
		Fields: t.FieldNames(),
	}
	ref.fields = make(map[string]struct{}, len(ref.Fields))
	for _, f := range ref.Fields {
		ref.fields[f] = struct{}{}
	}
	ix.tables = append(ix.tables, ref)
	ix.byKey[ref.Key()] = ref
	ix.byBare[ref.BareKey()] = append(ix.byBare[ref.BareKey()], ref)
	ix.byName[ref.Table] = append(ix.byName[ref.Table], ref)
	for _, f := range ref.Fields {
		key := ref.BareKey() + "." + f
		ix.byField[key] = append(ix.byField[key], ref)
	}
}

// Models returns the indexed model names in input order.
func (ix *Index) Models() []string {
	return slices.Clone(ix.models)
}

// Tables returns the indexed tables in input order.
func (ix *Index) Tables() []*TableRef {
	return slices.Clone(ix.tables)
}

// Table returns the table with the qualified key "model.schema.table".
func (ix *Index) Table(key string) (*TableRef, bool) {
	t, ok := ix.byKey[key]
	return t, ok
}

// Owners returns the models defining the bare key "schema.table" or
// "schema.table.field", in input order.
func (ix *Index) Owners(bare string) []string {
	refs := ix.byBare[bare]
	if len(refs) == 0 {
		refs = ix.byField[bare]
	}
	owners := make([]string, 0, len(refs))
	for _, r := range refs {
		owners = append(owners, r.Model)
	}
	return owners
}

// Ambiguities lists the bare table keys defined by more than one model,
// in input order of their first definition.
func (ix *Index) Ambiguities() []Ambiguity {
	var out []Ambiguity
	seen := make(map[string]struct{})
	for _, t := range ix.tables {
		key := t.BareKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		if refs := ix.byBare[key]; len(refs) > 1 {
			a := Ambiguity{Key: key}
			for _, r := range refs {
				a.Models = append(a.Models, r.Model)
			}
			out = append(out, a)
		}
	}
	return out
}

// ResolveTable resolves a table reference given either as a qualified key
// "model.schema.table" or as a bare key "schema.table".
func (ix *Index) ResolveTable(ref string) (Match, bool) {
	ref = strings.TrimSpace(ref)
	if t, ok := ix.byKey[ref]; ok {
		return Match{Table: t}, true
	}
	if refs := ix.byBare[ref]; len(refs) > 0 {
		return Match{Table: refs[0], Ambiguous: len(refs) > 1}, true
	}
	return Match{}, false
}

// ResolveReference resolves a dotted token of two to four identifiers.
// Tokens are tried, in order, as:
//
//	model.schema.table.field
//	schema.table.field    model.schema.table
//	schema.table          table.field
func (ix *Index) ResolveReference(token string) (Match, bool) {
	parts := strings.Split(token, ".")
	switch len(parts) {
	case 4:
		key := strings.Join(parts[:3], ".")
		if t, ok := ix.byKey[key]; ok && t.HasField(parts[3]) {
			return Match{Table: t, Field: parts[3]}, true
		}
	case 3:
		if refs := ix.byField[token]; len(refs) > 0 {
			return Match{Table: refs[0], Field: parts[2], Ambiguous: len(refs) > 1}, true
		}
		if t, ok := ix.byKey[token]; ok {
			return Match{Table: t}, true
		}
	case 2:
		if refs := ix.byBare[token]; len(refs) > 0 {
			return Match{Table: refs[0], Ambiguous: len(refs) > 1}, true
		}
		var found []*TableRef
		for _, t := range ix.byName[parts[0]] {
			if t.HasField(parts[1]) {
				found = append(found, t)
			}
		}
		if len(found) > 0 {
			return Match{Table: found[0], Field: parts[1], Ambiguous: len(found) > 1}, true
		}
	}
	return Match{}, false
}
