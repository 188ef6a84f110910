// Package validate checks proposed cross-model relationships and unified
// metrics against a reference index. Findings are advisory: offending
// items are dropped and reported, never fatal.
package validate

import (
	"fmt"
	"strings"

	"github.com/go-openapi/inflect"

	"github.com/syssam/unisem"
	"github.com/syssam/unisem/compiler/resolve"
	"github.com/syssam/unisem/schema"
)

// ValidatedRelationship is a relationship whose entities resolved.
type ValidatedRelationship struct {
	*schema.Relationship
	// FromTable and ToTable are the resolved sides.
	FromTable resolve.Match
	ToTable   resolve.Match
}

// ValidateRelationship checks one proposed relationship.
//
// A relationship missing from, to or on is skipped: both results are nil.
// Otherwise it is returned when both sides resolve and the join type is
// supported; the issues then hold only ambiguity notes. On failure the
// relationship is nil and the issues say why.
func ValidateRelationship(rel schema.BuilderRelationship, ix *resolve.Index) (*ValidatedRelationship, unisem.Issues) {
	from, to, on := strings.TrimSpace(rel.From), strings.TrimSpace(rel.To), strings.TrimSpace(rel.On)
	if from == "" || to == "" || on == "" {
		return nil, nil
	}
	name := strings.TrimSpace(rel.Name)
	if name == "" {
		name = relationshipName(from, to)
	}
	var issues unisem.Issues
	fromMatch, ok := ix.ResolveTable(from)
	if !ok {
		issues = append(issues, unisem.NewIssue(unisem.UnknownEntityReference, name, from,
			"relationship %q: from entity %q is not a known table", name, from))
	}
	toMatch, ok := ix.ResolveTable(to)
	if !ok {
		issues = append(issues, unisem.NewIssue(unisem.UnknownEntityReference, name, to,
			"relationship %q: to entity %q is not a known table", name, to))
	}
	jt, ok := schema.ParseJoinType(rel.Type)
	if !ok {
		issues = append(issues, unisem.NewIssue(unisem.InvalidJoinType, name, rel.Type,
			"relationship %q: unsupported join type %q (want one of %s)", name, rel.Type, joinTypes()))
	}
	if len(issues) > 0 {
		return nil, issues
	}
	for _, side := range []struct {
		ref string
		m   resolve.Match
	}{{from, fromMatch}, {to, toMatch}} {
		if side.m.Ambiguous {
			issues = append(issues, unisem.NewIssue(unisem.AmbiguousEntityReference, name, side.ref,
				"relationship %q: %q is defined by models %s; using %q",
				name, side.ref, strings.Join(ix.Owners(side.ref), ", "), side.m.Table.Model))
		}
	}
	return &ValidatedRelationship{
		Relationship: &schema.Relationship{
			Name: name,
			From: from,
			To:   to,
			On:   on,
			Type: jt,
		},
		FromTable: fromMatch,
		ToTable:   toMatch,
	}, issues
}

// Relationships validates rels in input order. Among the relationships
// that pass, a later one replaces an earlier one of the same name and
// takes its own input position; the replacement is reported as a
// DuplicateRelationshipName issue. Generated names never replace: they
// get a numeric suffix ("orders_customers_2") when already taken.
func Relationships(rels []schema.BuilderRelationship, ix *resolve.Index) ([]*ValidatedRelationship, unisem.Issues) {
	var (
		out    []*ValidatedRelationship
		issues unisem.Issues
	)
	for _, rel := range rels {
		v, is := ValidateRelationship(rel, ix)
		issues = append(issues, is...)
		if v == nil {
			continue
		}
		if strings.TrimSpace(rel.Name) == "" {
			v.Name = uniqueName(out, v.Name)
		}
		for i, prev := range out {
			if prev.Name == v.Name {
				out = append(out[:i], out[i+1:]...)
				issues = append(issues, unisem.NewIssue(unisem.DuplicateRelationshipName, v.Name, v.Name,
					"relationship %q declared more than once; the last declaration wins", v.Name))
				break
			}
		}
		out = append(out, v)
	}
	return out, issues
}

// relationshipName derives a name from the table parts of both references,
// e.g. "sales.Orders" and "crm.Customers" give "orders_customers".
func relationshipName(from, to string) string {
	return inflect.Underscore(lastPart(from)) + "_" + inflect.Underscore(lastPart(to))
}

func lastPart(ref string) string {
	if i := strings.LastIndexByte(ref, '.'); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

func joinTypes() string {
	kinds := schema.JoinTypes()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = fmt.Sprintf("%q", k)
	}
	return strings.Join(names, ", ")
}

// uniqueName returns base, or base with the first free "_N" suffix when a
// relationship in out already uses it.
func uniqueName(out []*ValidatedRelationship, base string) string {
	taken := func(name string) bool {
		for _, r := range out {
			if r.Name == name {
				return true
			}
		}
		return false
	}
	name := base
	for i := 2; taken(name); i++ {
		name = fmt.Sprintf("%s_%d", base, i)
	}
	return name
}
