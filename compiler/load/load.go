// Package load parses semantic model documents into schema values.
package load

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/syssam/unisem"
	"github.com/syssam/unisem/schema"
)

// Document is a raw semantic model document and the label it is known by
// (a model id or a file name).
type Document struct {
	ID  string
	Raw []byte
}

// Parse decodes a raw semantic model document and checks its structure.
// It performs no cross-model validation.
func Parse(raw []byte) (*schema.Model, error) {
	root, err := Mapping(raw)
	if err != nil {
		return nil, err
	}
	m := &schema.Model{}
	if err := root.Decode(m); err != nil {
		return nil, unisem.NewParseError("", "invalid model", err)
	}
	if err := Check(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Mapping decodes raw as a single YAML document whose root is a mapping.
// A stream holding more than one document is rejected.
func Mapping(raw []byte) (*yaml.Node, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, unisem.NewParseError("", "empty document", nil)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	var root yaml.Node
	if err := dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, unisem.NewParseError("", "empty document", nil)
		}
		return nil, unisem.NewParseError("", "invalid yaml", err)
	}
	var next yaml.Node
	if err := dec.Decode(&next); !errors.Is(err, io.EOF) {
		return nil, unisem.NewParseError("", "multiple documents in one stream", err)
	}
	if len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return nil, unisem.NewParseError("", "document must be a mapping", nil)
	}
	return root.Content[0], nil
}

// ParseAll parses independent documents concurrently, using at most
// workers goroutines (GOMAXPROCS when workers < 1). Models are returned in
// document order. Every failing document is reported, labeled with its ID.
func ParseAll(docs []Document, workers int) ([]*schema.Model, error) {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	models := make([]*schema.Model, len(docs))
	errs := make([]error, len(docs))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, doc := range docs {
		g.Go(func() error {
			m, err := Parse(doc.Raw)
			if err != nil {
				errs[i] = labeled(err, doc.ID)
				return nil
			}
			models[i] = m
			return nil
		})
	}
	// Workers report through errs so that every failure is kept.
	_ = g.Wait()

	if err := unisem.NewAggregateError(errs...); err != nil {
		return nil, err
	}
	return models, nil
}

func labeled(err error, source string) error {
	if pe, ok := err.(*unisem.ParseError); ok && source != "" {
		return pe.WithSource(source)
	}
	if source != "" {
		return fmt.Errorf("%s: %w", source, err)
	}
	return err
}
