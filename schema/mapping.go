package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Tables is an ordered mapping from "schema.table" keys to tables.
type Tables []*Table

// Filters is an ordered mapping from filter names to filters.
type Filters []*Filter

// Metrics is an ordered mapping from metric names to metrics.
type Metrics []*Metric

// Get returns the table with the given key, or nil.
func (ts Tables) Get(key string) *Table {
	for _, t := range ts {
		if t.Key() == key {
			return t
		}
	}
	return nil
}

// Keys returns the table keys in order.
func (ts Tables) Keys() []string {
	keys := make([]string, len(ts))
	for i, t := range ts {
		keys[i] = t.Key()
	}
	return keys
}

// Get returns the filter with the given name, or nil.
func (fs Filters) Get(name string) *Filter {
	for _, f := range fs {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Get returns the metric with the given name, or nil.
func (ms Metrics) Get(name string) *Metric {
	for _, m := range ms {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Names returns the metric names in order.
func (ms Metrics) Names() []string {
	names := make([]string, len(ms))
	for i, m := range ms {
		names[i] = m.Name
	}
	return names
}

// UnmarshalYAML implements yaml.Unmarshaler for Tables. The mapping key is
// authoritative: missing schema/name fields are taken from it, and fields
// that disagree with it are rejected.
func (ts *Tables) UnmarshalYAML(node *yaml.Node) error {
	out := make(Tables, 0, len(node.Content)/2)
	err := eachPair(node, "tables", func(key string, value *yaml.Node) error {
		t := &Table{}
		if err := value.Decode(t); err != nil {
			return fmt.Errorf("table %q: %w", key, err)
		}
		if err := t.bindKey(key); err != nil {
			return err
		}
		out = append(out, t)
		return nil
	})
	if err != nil {
		return err
	}
	*ts = out
	return nil
}

// MarshalYAML implements yaml.Marshaler for Tables.
func (ts Tables) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, t := range ts {
		if err := appendPair(node, t.Key(), t); err != nil {
			return nil, fmt.Errorf("table %q: %w", t.Key(), err)
		}
	}
	return node, nil
}

// UnmarshalYAML implements yaml.Unmarshaler for Filters.
func (fs *Filters) UnmarshalYAML(node *yaml.Node) error {
	out := make(Filters, 0, len(node.Content)/2)
	err := eachPair(node, "filters", func(key string, value *yaml.Node) error {
		f := &Filter{Name: key}
		if value.Kind == yaml.ScalarNode {
			f.Expression = value.Value
		} else if err := value.Decode(f); err != nil {
			return fmt.Errorf("filter %q: %w", key, err)
		}
		out = append(out, f)
		return nil
	})
	if err != nil {
		return err
	}
	*fs = out
	return nil
}

// MarshalYAML implements yaml.Marshaler for Filters.
func (fs Filters) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, f := range fs {
		if err := appendPair(node, f.Name, f); err != nil {
			return nil, fmt.Errorf("filter %q: %w", f.Name, err)
		}
	}
	return node, nil
}

// UnmarshalYAML implements yaml.Unmarshaler for Metrics. A metric is either
// a mapping or a scalar holding its expression.
func (ms *Metrics) UnmarshalYAML(node *yaml.Node) error {
	out := make(Metrics, 0, len(node.Content)/2)
	err := eachPair(node, "metrics", func(key string, value *yaml.Node) error {
		m := &Metric{Name: key}
		if value.Kind == yaml.ScalarNode {
			m.Expression = value.Value
		} else if err := value.Decode(m); err != nil {
			return fmt.Errorf("metric %q: %w", key, err)
		}
		out = append(out, m)
		return nil
	})
	if err != nil {
		return err
	}
	*ms = out
	return nil
}

// MarshalYAML implements yaml.Marshaler for Metrics.
func (ms Metrics) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, m := range ms {
		if err := appendPair(node, m.Name, m); err != nil {
			return nil, fmt.Errorf("metric %q: %w", m.Name, err)
		}
	}
	return node, nil
}

// bindKey reconciles the table fields with its mapping key.
func (t *Table) bindKey(key string) error {
	schemaName, name, ok := SplitTableKey(key)
	if !ok {
		return fmt.Errorf("table key %q must have the form schema.table", key)
	}
	if t.Schema == "" {
		t.Schema = schemaName
	}
	if t.Name == "" {
		t.Name = name
	}
	if t.Key() != key {
		return fmt.Errorf("table key %q does not match schema %q and name %q", key, t.Schema, t.Name)
	}
	return nil
}

// eachPair calls fn for every key/value pair of a mapping node, in order.
// Duplicate keys are passed through; structural checks report them.
func eachPair(node *yaml.Node, what string, fn func(key string, value *yaml.Node) error) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: %s must be a mapping", node.Line, what)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		if key.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: %s key must be a scalar", key.Line, what)
		}
		if err := fn(key.Value, node.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

func appendPair(node *yaml.Node, key string, v any) error {
	value := &yaml.Node{}
	if err := value.Encode(v); err != nil {
		return err
	}
	node.Content = append(node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		value,
	)
	return nil
}
