package unisem

import (
	"fmt"
	"strings"
)

// IssueKind classifies an advisory finding.
type IssueKind string

// Advisory issue kinds. None of them aborts a composition.
const (
	UnknownEntityReference     IssueKind = "unknown_entity_reference"
	InvalidJoinType            IssueKind = "invalid_join_type"
	DuplicateRelationshipName  IssueKind = "duplicate_relationship_name"
	DuplicateMetricName        IssueKind = "duplicate_metric_name"
	UnresolvedMetricReferences IssueKind = "unresolved_metric_references"
	// AmbiguousEntityReference is informational: the reference was resolved
	// to the first matching model and the relationship is kept.
	AmbiguousEntityReference IssueKind = "ambiguous_entity_reference"
)

// Issue is a non-fatal validation finding reported next to the composed
// result.
type Issue struct {
	Kind    IssueKind `json:"kind" yaml:"kind"`
	Subject string    `json:"subject,omitempty" yaml:"subject,omitempty"` // Relationship or metric name.
	Ref     string    `json:"ref,omitempty" yaml:"ref,omitempty"`         // Offending reference.
	Message string    `json:"message" yaml:"message"`
}

// Error implements the error interface so an issue can be escalated by
// callers that treat advisories as failures.
func (i *Issue) Error() string {
	return fmt.Sprintf("unisem: %s: %s", i.Kind, i.Message)
}

// NewIssue returns a new Issue with a formatted message.
func NewIssue(kind IssueKind, subject, ref, format string, args ...any) *Issue {
	return &Issue{
		Kind:    kind,
		Subject: subject,
		Ref:     ref,
		Message: fmt.Sprintf(format, args...),
	}
}

// Issues is an ordered list of advisory findings.
type Issues []*Issue

// Count returns the number of issues of the given kind.
func (is Issues) Count(kind IssueKind) int {
	n := 0
	for _, i := range is {
		if i.Kind == kind {
			n++
		}
	}
	return n
}

// Of returns the issues of the given kind, in order.
func (is Issues) Of(kind IssueKind) Issues {
	var out Issues
	for _, i := range is {
		if i.Kind == kind {
			out = append(out, i)
		}
	}
	return out
}

// String returns a human-readable summary of the issues.
func (is Issues) String() string {
	if len(is) == 0 {
		return "No issues found"
	}
	var sb strings.Builder
	sb.WriteString("Warnings:\n")
	for _, i := range is {
		sb.WriteString("  - ")
		sb.WriteString(i.Error())
		sb.WriteString("\n")
	}
	return sb.String()
}
