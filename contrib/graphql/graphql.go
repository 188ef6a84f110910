// Package graphql exports a unified semantic model as a GraphQL schema.
//
// Every embedded table becomes an object type whose fields are the table
// dimensions and measures. Relationships add a field on the type of their
// "from" table, unified metrics are collected in a Metrics type, and a
// Query root lists the tables:
//
//	s, err := graphql.Export(u)
//	if err != nil {
//	    return err
//	}
//	os.WriteFile("sales.graphql", []byte(s.SDL), 0o644)
//
// The rendered SDL is validated with gqlparser before it is returned.
package graphql

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-openapi/inflect"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/syssam/unisem/compiler/resolve"
	"github.com/syssam/unisem/schema"
)

// Schema is an exported GraphQL schema.
type Schema struct {
	// SDL is the schema definition text.
	SDL string
	// AST is the parsed and validated schema.
	AST *ast.Schema
}

type (
	// Option configures an export.
	Option func(*config) error

	config struct {
		descriptions bool
		query        string
		source       string
	}
)

// WithDescriptions controls whether model descriptions, join conditions
// and metric expressions are written as type and field descriptions.
// Enabled by default.
func WithDescriptions(enabled bool) Option {
	return func(c *config) error {
		c.descriptions = enabled
		return nil
	}
}

// WithQueryName sets the name of the root query type. Defaults to "Query".
func WithQueryName(name string) Option {
	return func(c *config) error {
		if !validName(name) {
			return fmt.Errorf("graphql: invalid query type name %q", name)
		}
		c.query = name
		return nil
	}
}

// WithSourceName sets the source name reported in validation errors.
func WithSourceName(name string) Option {
	return func(c *config) error {
		c.source = name
		return nil
	}
}

// Export renders u as SDL and validates it.
func Export(u *schema.UnifiedModel, opts ...Option) (*Schema, error) {
	c := &config{descriptions: true, query: "Query", source: "unified.graphql"}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	sdl, err := render(u, c)
	if err != nil {
		return nil, err
	}
	s, err := Validate(c.source, sdl)
	if err != nil {
		return nil, err
	}
	return &Schema{SDL: sdl, AST: s}, nil
}

// Validate parses and validates sdl.
func Validate(name, sdl string) (*ast.Schema, error) {
	s, err := gqlparser.LoadSchema(&ast.Source{Name: name, Input: sdl})
	if err != nil {
		return nil, fmt.Errorf("graphql: invalid schema: %w", err)
	}
	return s, nil
}

// objectType is one table rendered as a GraphQL object.
type objectType struct {
	name   string
	field  string
	desc   string
	fields []fieldDef
	seen   map[string]bool
}

type fieldDef struct {
	name string
	typ  string
	desc string
}

func render(u *schema.UnifiedModel, c *config) (string, error) {
	if u == nil || len(u.Models) == 0 {
		return "", errors.New("graphql: unified model has no embedded models")
	}
	ix, err := resolve.BuildIndex(u.SourceModels())
	if err != nil {
		return "", err
	}
	names := map[string]bool{c.query: true, "Metrics": true}
	var (
		objects []*objectType
		byKey   = make(map[string]*objectType)
	)
	for _, em := range u.Models {
		for _, t := range em.Model.Tables {
			obj := &objectType{
				name:  typeName(names, em.Model.Name, t.Schema, t.Name),
				field: fieldName(em.Model.Name + "_" + t.Schema + "_" + t.Name),
				desc:  t.Description,
				seen:  make(map[string]bool),
			}
			for _, d := range t.Dimensions {
				obj.add(fieldDef{name: fieldName(d.Name), typ: scalar(d.Type), desc: d.Description})
			}
			for _, m := range t.Measures {
				obj.add(fieldDef{name: fieldName(m.Name), typ: scalar(m.Type), desc: m.Description})
			}
			if len(obj.fields) == 0 {
				obj.add(fieldDef{name: "_empty", typ: "Boolean"})
			}
			objects = append(objects, obj)
			byKey[em.Model.Name+"."+t.Key()] = obj
		}
	}
	for _, r := range u.Relationships {
		from, ok := ix.ResolveTable(r.From)
		if !ok {
			continue
		}
		to, ok := ix.ResolveTable(r.To)
		if !ok {
			continue
		}
		src, dst := byKey[from.Table.Key()], byKey[to.Table.Key()]
		typ := dst.name
		if r.Type == schema.JoinInner {
			typ += "!"
		}
		src.add(fieldDef{
			name: fieldName(r.Name),
			typ:  typ,
			desc: fmt.Sprintf("%s join on %s", r.Type, r.On),
		})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "schema {\n  query: %s\n}\n", c.query)
	for _, obj := range objects {
		b.WriteString("\n")
		writeDesc(&b, "", pick(c, obj.desc))
		fmt.Fprintf(&b, "type %s {\n", obj.name)
		for _, f := range obj.fields {
			writeDesc(&b, "  ", pick(c, f.desc))
			fmt.Fprintf(&b, "  %s: %s\n", f.name, f.typ)
		}
		b.WriteString("}\n")
	}
	if len(u.Metrics) > 0 {
		b.WriteString("\ntype Metrics {\n")
		seen := make(map[string]bool)
		for _, m := range u.Metrics {
			name := unique(seen, fieldName(m.Name))
			desc := m.Description
			if desc == "" {
				desc = m.Expression
			}
			writeDesc(&b, "  ", pick(c, desc))
			fmt.Fprintf(&b, "  %s: Float\n", name)
		}
		b.WriteString("}\n")
	}
	b.WriteString("\n")
	writeDesc(&b, "", pick(c, u.Description))
	fmt.Fprintf(&b, "type %s {\n", c.query)
	seen := make(map[string]bool)
	for _, obj := range objects {
		fmt.Fprintf(&b, "  %s: [%s!]!\n", unique(seen, obj.field), obj.name)
	}
	if len(u.Metrics) > 0 {
		fmt.Fprintf(&b, "  %s: Metrics!\n", unique(seen, "metrics"))
	}
	b.WriteString("}\n")
	return b.String(), nil
}

func (o *objectType) add(f fieldDef) {
	f.name = unique(o.seen, f.name)
	o.fields = append(o.fields, f)
}

// scalar maps a model column type to a GraphQL scalar.
func scalar(typ string) string {
	switch strings.ToLower(strings.TrimSpace(typ)) {
	case "int", "integer", "bigint", "smallint":
		return "Int"
	case "number", "numeric", "decimal", "float", "double", "real":
		return "Float"
	case "bool", "boolean":
		return "Boolean"
	case "id", "uuid":
		return "ID"
	default:
		return "String"
	}
}

// typeName returns a unique Pascal case type name for a table.
func typeName(used map[string]bool, parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(inflect.Camelize(strings.ToLower(clean(p))))
	}
	name := b.String()
	if !validName(name) || strings.HasPrefix(name, "__") {
		name = "T" + name
	}
	return unique(used, name)
}

// fieldName returns a GraphQL field name for an identifier from a model.
func fieldName(s string) string {
	name := clean(s)
	if !validName(name) || strings.HasPrefix(name, "__") {
		name = "f" + strings.TrimLeft(name, "_")
	}
	return name
}

func clean(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' {
			return r
		}
		return '_'
	}, s)
}

func unique(used map[string]bool, name string) string {
	id := name
	for i := 2; used[id]; i++ {
		id = fmt.Sprintf("%s%d", name, i)
	}
	used[id] = true
	return id
}

// validName reports whether s matches /[_A-Za-z][_0-9A-Za-z]*/.
func validName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func pick(c *config, desc string) string {
	if !c.descriptions {
		return ""
	}
	return desc
}

func writeDesc(b *strings.Builder, indent, desc string) {
	if desc == "" {
		return
	}
	desc = strings.ReplaceAll(desc, `"""`, `\"""`)
	fmt.Fprintf(b, "%s\"\"\"\n", indent)
	for _, line := range strings.Split(desc, "\n") {
		fmt.Fprintf(b, "%s%s\n", indent, line)
	}
	fmt.Fprintf(b, "%s\"\"\"\n", indent)
}
