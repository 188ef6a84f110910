package validate

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/syssam/unisem"
	"github.com/syssam/unisem/compiler/resolve"
	"github.com/syssam/unisem/schema"
)

// ValidatedMetric is a metric together with the references found in its
// expression.
type ValidatedMetric struct {
	*schema.Metric
	// References are the dotted tokens that resolved, in expression order.
	References []resolve.Match
	// Unresolved are the dotted tokens the index does not know.
	Unresolved []string
}

// Resolved reports whether at least one reference of the expression
// resolved.
func (m *ValidatedMetric) Resolved() bool {
	return len(m.References) > 0
}

var (
	// dotted identifier chains, e.g. orders.orders.total.
	dottedRe = regexp.MustCompile(`[\p{L}_][\p{L}\p{N}_]*(?:\.[\p{L}_][\p{L}\p{N}_]*)+`)
	// single, double or back quoted literals, with backslash escapes.
	quotedRe = regexp.MustCompile(`'(?:[^'\\]|\\.)*'|"(?:[^"\\]|\\.)*"` + "|`[^`]*`")
)

// References extracts the dotted identifier tokens of an expression, in
// order and without repeats. Quoted literals are ignored, and so are
// tokens directly followed by "(" since they name functions.
func References(expr string) []string {
	expr = quotedRe.ReplaceAllStringFunc(expr, func(s string) string {
		return strings.Repeat(" ", len(s))
	})
	var (
		tokens []string
		seen   = make(map[string]struct{})
	)
	for _, loc := range dottedRe.FindAllStringIndex(expr, -1) {
		if strings.HasPrefix(strings.TrimLeft(expr[loc[1]:], " \t"), "(") {
			continue
		}
		// Part of a longer token, e.g. a number or a quoted tail.
		if prev, _ := utf8.DecodeLastRuneInString(expr[:loc[0]]); prev == '.' || isIdent(prev) {
			continue
		}
		tok := expr[loc[0]:loc[1]]
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		tokens = append(tokens, tok)
	}
	return tokens
}

func isIdent(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// ValidateMetric checks one proposed metric. A metric missing its name or
// expression is skipped: both results are nil. Otherwise the metric is
// always returned; an expression without any resolvable reference is
// reported as UnresolvedMetricReferences.
func ValidateMetric(metric schema.UnifiedMetric, ix *resolve.Index) (*ValidatedMetric, unisem.Issues) {
	name, expr := strings.TrimSpace(metric.Name), strings.TrimSpace(metric.Expression)
	if name == "" || expr == "" {
		return nil, nil
	}
	v := &ValidatedMetric{
		Metric: &schema.Metric{
			Name:        name,
			Expression:  expr,
			Description: metric.Description,
		},
	}
	var issues unisem.Issues
	for _, tok := range References(expr) {
		m, ok := ix.ResolveReference(tok)
		if !ok {
			v.Unresolved = append(v.Unresolved, tok)
			continue
		}
		v.References = append(v.References, m)
		if m.Ambiguous {
			issues = append(issues, unisem.NewIssue(unisem.AmbiguousEntityReference, name, tok,
				"metric %q: %q matches several models; using %q", name, tok, m.Table.Model))
		}
	}
	if !v.Resolved() {
		issues = append(issues, unisem.NewIssue(unisem.UnresolvedMetricReferences, name,
			strings.Join(v.Unresolved, ", "),
			"metric %q: no reference in %q resolves to a known table or field", name, expr))
	}
	return v, issues
}

// Metrics validates ms in input order. A later metric replaces an earlier
// one of the same name and takes its own input position; the replacement
// is reported as a DuplicateMetricName issue. In strict mode metrics
// without any resolved reference are dropped.
func Metrics(ms []schema.UnifiedMetric, ix *resolve.Index, strict bool) ([]*ValidatedMetric, unisem.Issues) {
	var (
		out    []*ValidatedMetric
		issues unisem.Issues
	)
	for _, metric := range ms {
		v, is := ValidateMetric(metric, ix)
		issues = append(issues, is...)
		if v == nil || strict && !v.Resolved() {
			continue
		}
		for i, prev := range out {
			if prev.Name == v.Name {
				out = append(out[:i], out[i+1:]...)
				issues = append(issues, unisem.NewIssue(unisem.DuplicateMetricName, v.Name, v.Name,
					"metric %q declared more than once; the last declaration wins", v.Name))
				break
			}
		}
		out = append(out, v)
	}
	return out, issues
}
