package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/unisem"
	"github.com/syssam/unisem/compiler/resolve"
	"github.com/syssam/unisem/schema"
)

func index(t *testing.T, models ...*schema.Model) *resolve.Index {
	t.Helper()
	if len(models) == 0 {
		models = []*schema.Model{
			{
				Name: "orders",
				Tables: schema.Tables{{
					Schema:     "orders",
					Name:       "orders",
					Dimensions: []*schema.Dimension{{Name: "id"}, {Name: "customer_id"}},
					Measures:   []*schema.Measure{{Name: "total"}},
				}},
			},
			{
				Name: "customers",
				Tables: schema.Tables{{
					Schema:     "customers",
					Name:       "customers",
					Dimensions: []*schema.Dimension{{Name: "id"}, {Name: "name"}},
				}},
			},
		}
	}
	ix, err := resolve.BuildIndex(models)
	require.NoError(t, err)
	return ix
}

var o2c = schema.BuilderRelationship{
	Name: "o2c",
	From: "orders.orders",
	To:   "customers.customers",
	On:   "orders.orders.customer_id = customers.customers.id",
	Type: "inner",
}

func TestValidateRelationship(t *testing.T) {
	ix := index(t)
	v, issues := ValidateRelationship(o2c, ix)
	require.NotNil(t, v)
	assert.Empty(t, issues)
	assert.Equal(t, "o2c", v.Name)
	assert.Equal(t, schema.JoinInner, v.Type)
	assert.Equal(t, "orders.orders.orders", v.FromTable.String())
	assert.Equal(t, "customers.customers.customers", v.ToTable.String())
}

func TestValidateRelationship_Idempotent(t *testing.T) {
	ix := index(t)
	for _, rel := range []schema.BuilderRelationship{
		o2c,
		{Name: "bad", From: "orders.nope", To: "customers.customers", On: "x", Type: "outer"},
	} {
		v1, is1 := ValidateRelationship(rel, ix)
		v2, is2 := ValidateRelationship(rel, ix)
		assert.Equal(t, v1, v2)
		assert.Equal(t, is1, is2)
	}
}

func TestValidateRelationship_SkipIncomplete(t *testing.T) {
	ix := index(t)
	for _, rel := range []schema.BuilderRelationship{
		{Name: "a", From: "orders.orders", To: "customers.customers", On: "", Type: "inner"},
		{Name: "b", From: "orders.orders", To: "customers.customers", On: "   ", Type: "inner"},
		{Name: "c", From: "", To: "customers.customers", On: "x", Type: "inner"},
		{Name: "d", From: "orders.orders", To: "", On: "x", Type: "bogus"},
	} {
		v, issues := ValidateRelationship(rel, ix)
		assert.Nil(t, v, rel.Name)
		assert.Nil(t, issues, rel.Name)
	}
}

func TestValidateRelationship_Issues(t *testing.T) {
	ix := index(t)
	tests := []struct {
		name  string
		rel   schema.BuilderRelationship
		kinds []unisem.IssueKind
		refs  []string
	}{
		{
			name:  "unknown from",
			rel:   schema.BuilderRelationship{Name: "r", From: "orders.missing_table", To: "customers.customers", On: "x", Type: "inner"},
			kinds: []unisem.IssueKind{unisem.UnknownEntityReference},
			refs:  []string{"orders.missing_table"},
		},
		{
			name:  "both sides unknown",
			rel:   schema.BuilderRelationship{Name: "r", From: "a.b", To: "c.d", On: "x", Type: "left"},
			kinds: []unisem.IssueKind{unisem.UnknownEntityReference, unisem.UnknownEntityReference},
			refs:  []string{"a.b", "c.d"},
		},
		{
			name:  "bad join type",
			rel:   schema.BuilderRelationship{Name: "r", From: "orders.orders", To: "customers.customers", On: "x", Type: "cross"},
			kinds: []unisem.IssueKind{unisem.InvalidJoinType},
			refs:  []string{"cross"},
		},
		{
			name:  "empty join type",
			rel:   schema.BuilderRelationship{Name: "r", From: "orders.orders", To: "customers.customers", On: "x"},
			kinds: []unisem.IssueKind{unisem.InvalidJoinType},
			refs:  []string{""},
		},
		{
			name:  "unknown side and bad join type",
			rel:   schema.BuilderRelationship{Name: "r", From: "orders.orders", To: "x.y", On: "x", Type: "outer"},
			kinds: []unisem.IssueKind{unisem.UnknownEntityReference, unisem.InvalidJoinType},
			refs:  []string{"x.y", "outer"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, issues := ValidateRelationship(tt.rel, ix)
			assert.Nil(t, v)
			require.Len(t, issues, len(tt.kinds))
			for i, is := range issues {
				assert.Equal(t, tt.kinds[i], is.Kind)
				assert.Equal(t, tt.refs[i], is.Ref)
				assert.Equal(t, "r", is.Subject)
			}
		})
	}
}

func TestValidateRelationship_Normalizes(t *testing.T) {
	ix := index(t)
	v, issues := ValidateRelationship(schema.BuilderRelationship{
		From: " orders.orders ",
		To:   "customers.customers.customers",
		On:   " orders.orders.customer_id = customers.customers.id ",
		Type: " LEFT ",
	}, ix)
	require.NotNil(t, v)
	assert.Empty(t, issues)
	assert.Equal(t, "orders_customers", v.Name, "generated from the table parts")
	assert.Equal(t, "orders.orders", v.From)
	assert.Equal(t, "orders.orders.customer_id = customers.customers.id", v.On)
	assert.Equal(t, schema.JoinLeft, v.Type)
}

func TestValidateRelationship_Ambiguous(t *testing.T) {
	ix := index(t,
		&schema.Model{Name: "eu", Tables: schema.Tables{{Schema: "sales", Name: "orders"}}},
		&schema.Model{Name: "us", Tables: schema.Tables{{Schema: "sales", Name: "orders"}}},
		&schema.Model{Name: "crm", Tables: schema.Tables{{Schema: "crm", Name: "accounts"}}},
	)
	v, issues := ValidateRelationship(schema.BuilderRelationship{
		Name: "r", From: "sales.orders", To: "crm.accounts", On: "x", Type: "inner",
	}, ix)
	require.NotNil(t, v, "ambiguity does not drop the relationship")
	require.Len(t, issues, 1)
	assert.Equal(t, unisem.AmbiguousEntityReference, issues[0].Kind)
	assert.Contains(t, issues[0].Message, "eu, us")
	assert.Equal(t, "eu", v.FromTable.Table.Model)

	v, issues = ValidateRelationship(schema.BuilderRelationship{
		Name: "r", From: "us.sales.orders", To: "crm.accounts", On: "x", Type: "inner",
	}, ix)
	require.NotNil(t, v)
	assert.Empty(t, issues)
	assert.Equal(t, "us", v.FromTable.Table.Model)
}

func TestRelationships_TieBreak(t *testing.T) {
	ix := index(t)
	first := o2c
	first.Name = "r1"
	other := o2c
	other.Name = "r2"
	later := o2c
	later.Name = "r1"
	later.Type = "left"

	out, issues := Relationships([]schema.BuilderRelationship{first, other, later}, ix)
	require.Len(t, out, 2)
	assert.Equal(t, "r2", out[0].Name)
	assert.Equal(t, "r1", out[1].Name, "winner takes the later position")
	assert.Equal(t, schema.JoinLeft, out[1].Type, "later declaration wins")
	require.Len(t, issues, 1)
	assert.Equal(t, unisem.DuplicateRelationshipName, issues[0].Kind)
	assert.Equal(t, "r1", issues[0].Subject)
}

func TestRelationships_GeneratedNamesStayDistinct(t *testing.T) {
	ix := index(t)
	inner := o2c
	inner.Name = ""
	left := inner
	left.On = "orders.orders.id = customers.customers.id"
	left.Type = "left"
	third := inner

	out, issues := Relationships([]schema.BuilderRelationship{inner, left, third}, ix)
	assert.Empty(t, issues)
	require.Len(t, out, 3)
	assert.Equal(t, "orders_customers", out[0].Name)
	assert.Equal(t, schema.JoinInner, out[0].Type)
	assert.Equal(t, "orders_customers_2", out[1].Name)
	assert.Equal(t, schema.JoinLeft, out[1].Type)
	assert.Equal(t, "orders_customers_3", out[2].Name)
}

func TestRelationships_InvalidDuplicateDoesNotReplace(t *testing.T) {
	ix := index(t)
	bad := o2c
	bad.To = "customers.nope"
	out, issues := Relationships([]schema.BuilderRelationship{o2c, bad}, ix)
	require.Len(t, out, 1)
	assert.Equal(t, "customers.customers", out[0].To)
	require.Len(t, issues, 1)
	assert.Equal(t, unisem.UnknownEntityReference, issues[0].Kind)
}

func TestReferences(t *testing.T) {
	tests := []struct {
		expr string
		want []string
	}{
		{"sum(orders.orders.total) / count(customers.customers.id)", []string{"orders.orders.total", "customers.customers.id"}},
		{"orders.total + orders.total", []string{"orders.total"}},
		{"a.b.c.d * 2", []string{"a.b.c.d"}},
		{"pg.date_trunc ('day', orders.created_at)", []string{"orders.created_at"}},
		{"coalesce(x, 'a.b.c') + \"q.r\" + `s.t`", nil},
		{"count(órdenes.total)", []string{"órdenes.total"}},
		{"sum(ventas.año) + 2.5", []string{"ventas.año"}},
		{"x1.5", nil},
		{"1.5 * x", nil},
		{"count(*)", nil},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			assert.Equal(t, tt.want, References(tt.expr))
		})
	}
}

func TestValidateMetric(t *testing.T) {
	ix := index(t)
	v, issues := ValidateMetric(schema.UnifiedMetric{
		Name:        "revenue_per_customer",
		Expression:  "sum(orders.orders.total) / count(customers.customers.id)",
		Description: "Average revenue",
	}, ix)
	require.NotNil(t, v)
	assert.Empty(t, issues)
	require.Len(t, v.References, 2)
	assert.Equal(t, "orders.orders.orders.total", v.References[0].String())
	assert.Equal(t, "customers.customers.customers.id", v.References[1].String())
	assert.Empty(t, v.Unresolved)
	assert.Equal(t, "Average revenue", v.Description)
}

func TestValidateMetric_Unresolved(t *testing.T) {
	ix := index(t)
	v, issues := ValidateMetric(schema.UnifiedMetric{Name: "m", Expression: "sum(orders.nope.total) + 1"}, ix)
	require.NotNil(t, v, "unresolved references are not fatal")
	assert.False(t, v.Resolved())
	assert.Equal(t, []string{"orders.nope.total"}, v.Unresolved)
	require.Len(t, issues, 1)
	assert.Equal(t, unisem.UnresolvedMetricReferences, issues[0].Kind)
	assert.Equal(t, "orders.nope.total", issues[0].Ref)

	v, issues = ValidateMetric(schema.UnifiedMetric{Name: "m", Expression: "count(orders.orders.id) + orders.nope.x"}, ix)
	require.NotNil(t, v)
	assert.Empty(t, issues, "one resolved reference is enough")
	assert.Equal(t, []string{"orders.nope.x"}, v.Unresolved)
}

func TestValidateMetric_SkipIncomplete(t *testing.T) {
	ix := index(t)
	for _, m := range []schema.UnifiedMetric{
		{Name: "", Expression: "sum(orders.orders.total)"},
		{Name: "m", Expression: " "},
	} {
		v, issues := ValidateMetric(m, ix)
		assert.Nil(t, v)
		assert.Nil(t, issues)
	}
}

func TestMetrics(t *testing.T) {
	ix := index(t)
	ms := []schema.UnifiedMetric{
		{Name: "revenue", Expression: "sum(orders.orders.total)"},
		{Name: "literal", Expression: "42"},
		{Name: "revenue", Expression: "sum(orders.orders.total) * 2"},
	}

	out, issues := Metrics(ms, ix, false)
	require.Len(t, out, 2)
	assert.Equal(t, "literal", out[0].Name)
	assert.Equal(t, "revenue", out[1].Name)
	assert.Equal(t, "sum(orders.orders.total) * 2", out[1].Expression)
	assert.Equal(t, 1, issues.Count(unisem.UnresolvedMetricReferences))
	assert.Equal(t, 1, issues.Count(unisem.DuplicateMetricName))

	out, issues = Metrics(ms, ix, true)
	require.Len(t, out, 1, "strict mode drops unresolved metrics")
	assert.Equal(t, "revenue", out[0].Name)
	assert.Equal(t, 1, issues.Count(unisem.UnresolvedMetricReferences))
}
