package gen

import (
	"strconv"
	"strings"

	"github.com/go-openapi/inflect"
)

// goName turns the parts of a qualified name into an exported Go
// identifier.
func goName(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(inflect.Camelize(sanitize(p)))
	}
	name := b.String()
	if name == "" {
		return "X"
	}
	if c := name[0]; c >= '0' && c <= '9' {
		return "X" + name
	}
	return name
}

// sanitize replaces everything that cannot appear in an identifier with
// underscores, so Camelize treats it as a word break.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '_', r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			return r
		default:
			return '_'
		}
	}, strings.ToLower(s))
}

// fileName returns a lower snake case file name for a model source.
func fileName(source string) string {
	return "model_" + strings.Trim(inflect.Underscore(sanitize(source)), "_") + ".go"
}

// namer hands out unique identifiers within one package.
type namer map[string]struct{}

func (n namer) name(parts ...string) string {
	base := goName(parts...)
	id := base
	for i := 2; n.has(id); i++ {
		id = base + strconv.Itoa(i)
	}
	n[id] = struct{}{}
	return id
}

func (n namer) has(id string) bool {
	_, ok := n[id]
	return ok
}
