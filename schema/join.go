package schema

import (
	"strings"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

// JoinType is the kind of a relationship join.
type JoinType string

// Supported join kinds.
const (
	JoinInner JoinType = "inner"
	JoinLeft  JoinType = "left"
	JoinRight JoinType = "right"
	JoinFull  JoinType = "full"
)

// JoinTypes returns the supported join kinds.
func JoinTypes() []JoinType {
	return []JoinType{JoinInner, JoinLeft, JoinRight, JoinFull}
}

// Valid reports whether t is a supported join kind.
func (t JoinType) Valid() bool {
	switch t {
	case JoinInner, JoinLeft, JoinRight, JoinFull:
		return true
	default:
		return false
	}
}

// String returns the join kind as written in documents.
func (t JoinType) String() string { return string(t) }

// ParseJoinType parses a join kind, ignoring case and surrounding space.
func ParseJoinType(s string) (JoinType, bool) {
	t := JoinType(cases.Fold().String(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", false
	}
	return t, true
}

// UnmarshalYAML implements yaml.Unmarshaler for JoinType. Known kinds are
// normalized; unknown values are kept verbatim so checks can report them.
func (t *JoinType) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	if jt, ok := ParseJoinType(s); ok {
		*t = jt
		return nil
	}
	*t = JoinType(s)
	return nil
}
