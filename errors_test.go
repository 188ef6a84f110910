package unisem_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/unisem"
)

func TestParseError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := unisem.NewParseError("tables.orders", "missing dimensions", nil)
		assert.Equal(t, "unisem: parse error at tables.orders: missing dimensions", err.Error())
	})

	t.Run("WithSource", func(t *testing.T) {
		err := unisem.NewParseError("", "empty document", nil).WithSource("orders.yaml")
		assert.Equal(t, "unisem: parse error in orders.yaml: empty document", err.Error())
	})

	t.Run("Cause", func(t *testing.T) {
		cause := errors.New("yaml: line 2: did not find expected key")
		err := unisem.NewParseError("", "invalid yaml", cause)
		assert.ErrorIs(t, err, cause)
		assert.ErrorIs(t, err, unisem.ErrParse)
		assert.True(t, unisem.IsParseError(fmt.Errorf("wrapped: %w", err)))
		assert.False(t, unisem.IsParseError(nil))
	})
}

func TestDuplicateModelNameError(t *testing.T) {
	err := unisem.NewDuplicateModelNameError("orders", 0, 2)
	assert.Equal(t, `unisem: duplicate model name "orders" (positions 0 and 2)`, err.Error())
	assert.ErrorIs(t, err, unisem.ErrDuplicateModelName)
	assert.True(t, unisem.IsDuplicateModelName(fmt.Errorf("wrapper: %w", err)))
	assert.False(t, unisem.IsDuplicateModelName(errors.New("other")))
}

func TestEmptyCompositionError(t *testing.T) {
	err := &unisem.EmptyCompositionError{}
	assert.ErrorIs(t, err, unisem.ErrEmptyComposition)
	assert.True(t, unisem.IsEmptyComposition(err))
	assert.False(t, unisem.IsEmptyComposition(nil))
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		fatal bool
	}{
		{"parse", unisem.NewParseError("", "bad", nil), true},
		{"duplicate model", unisem.NewDuplicateModelNameError("a", 0, 1), true},
		{"empty", &unisem.EmptyCompositionError{}, true},
		{"wrapped", fmt.Errorf("compose: %w", &unisem.EmptyCompositionError{}), true},
		{"issue", unisem.NewIssue(unisem.InvalidJoinType, "r1", "cross", "bad join"), false},
		{"not found", unisem.NewNotFoundError("model", "orders"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.fatal, unisem.IsFatal(tt.err))
		})
	}
}

func TestNotFoundError(t *testing.T) {
	err := unisem.NewNotFoundError("model", "orders")
	assert.Equal(t, `unisem: model "orders" not found`, err.Error())
	assert.Equal(t, "model", err.Kind())
	assert.Equal(t, "orders", err.Name())
	assert.True(t, unisem.IsNotFound(fmt.Errorf("wrapper: %w", err)))
	assert.True(t, unisem.IsNotFound(unisem.ErrNotFound))
	assert.False(t, unisem.IsNotFound(nil))
}

func TestAggregateError(t *testing.T) {
	t.Run("nil when empty", func(t *testing.T) {
		assert.NoError(t, unisem.NewAggregateError(nil, nil))
	})

	t.Run("single error is returned as is", func(t *testing.T) {
		e := errors.New("one")
		assert.Same(t, e, unisem.NewAggregateError(nil, e))
	})

	t.Run("multiple", func(t *testing.T) {
		e1 := unisem.NewParseError("", "first", nil)
		e2 := errors.New("second")
		err := unisem.NewAggregateError(e1, nil, e2)
		var agg *unisem.AggregateError
		require.ErrorAs(t, err, &agg)
		assert.Len(t, agg.Errors, 2)
		assert.Contains(t, err.Error(), "[1] unisem: parse error: first")
		assert.Contains(t, err.Error(), "[2] second")
		assert.ErrorIs(t, err, unisem.ErrParse)
	})
}

func TestIssues(t *testing.T) {
	issues := unisem.Issues{
		unisem.NewIssue(unisem.UnknownEntityReference, "o2c", "orders.missing", "unknown %q", "orders.missing"),
		unisem.NewIssue(unisem.DuplicateMetricName, "m", "m", "replaced"),
		unisem.NewIssue(unisem.UnknownEntityReference, "o2c", "customers.missing", "unknown"),
	}
	assert.Equal(t, 2, issues.Count(unisem.UnknownEntityReference))
	assert.Equal(t, 0, issues.Count(unisem.InvalidJoinType))
	assert.Len(t, issues.Of(unisem.DuplicateMetricName), 1)
	assert.Equal(t, `unisem: unknown_entity_reference: unknown "orders.missing"`, issues[0].Error())
	assert.Contains(t, issues.String(), "Warnings:")
	assert.Equal(t, "No issues found", unisem.Issues(nil).String())
}
