// Package emit renders unified models as canonical YAML documents and
// reads them back.
package emit

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/syssam/unisem"
	"github.com/syssam/unisem/compiler/load"
	"github.com/syssam/unisem/schema"
)

// Serialize renders u as a canonical YAML document. Empty relationship and
// metric collections are left out.
func Serialize(u *schema.UnifiedModel) ([]byte, error) {
	if u == nil {
		return nil, errors.New("unisem: serialize: nil model")
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(u); err != nil {
		return nil, fmt.Errorf("unisem: serialize %q: %w", u.Name, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("unisem: serialize %q: %w", u.Name, err)
	}
	return buf.Bytes(), nil
}

// Deserialize parses a unified model document. Each embedded model gets
// the structural checks of load.Check and the unified fields are checked
// again with Check. Failures are *unisem.ParseError.
func Deserialize(text []byte) (*schema.UnifiedModel, error) {
	root, err := load.Mapping(text)
	if err != nil {
		return nil, err
	}
	u := &schema.UnifiedModel{}
	if err := root.Decode(u); err != nil {
		return nil, unisem.NewParseError("", "invalid unified model", err)
	}
	if err := Check(u); err != nil {
		return nil, err
	}
	return u, nil
}

// Check validates a unified model: a name, at least one embedded model,
// structurally valid and uniquely named embedded models, complete and
// uniquely named relationships with supported join types, and valid
// metrics.
func Check(u *schema.UnifiedModel) error {
	if u == nil {
		return unisem.NewParseError("", "unified model is nil", nil)
	}
	if strings.TrimSpace(u.Name) == "" {
		return unisem.NewParseError("name", "unified model name is required", nil)
	}
	if len(u.Models) == 0 {
		return unisem.NewParseError("models", "at least one model is required", nil)
	}
	sources := make(map[string]struct{}, len(u.Models))
	names := make(map[string]struct{}, len(u.Models))
	for i, em := range u.Models {
		path := fmt.Sprintf("models[%d]", i)
		if em == nil || em.Model == nil {
			return unisem.NewParseError(path, "embedded model is empty", nil)
		}
		if em.Source == "" {
			return unisem.NewParseError(path+".source", "source is required", nil)
		}
		if _, ok := sources[em.Source]; ok {
			return unisem.NewParseError(path+".source", fmt.Sprintf("source %q selected more than once", em.Source), nil)
		}
		sources[em.Source] = struct{}{}
		if err := load.Check(em.Model); err != nil {
			return nested(err, path+".model")
		}
		if _, ok := names[em.Model.Name]; ok {
			return unisem.NewParseError(path+".model.name", fmt.Sprintf("model name %q used more than once", em.Model.Name), nil)
		}
		names[em.Model.Name] = struct{}{}
	}
	rels := make(map[string]struct{}, len(u.Relationships))
	for i, r := range u.Relationships {
		path := fmt.Sprintf("relationships[%d]", i)
		switch {
		case r == nil:
			return unisem.NewParseError(path, "relationship is empty", nil)
		case r.Name == "":
			return unisem.NewParseError(path, "relationship name is required", nil)
		case r.From == "" || r.To == "" || r.On == "":
			return unisem.NewParseError(path, fmt.Sprintf("relationship %q requires from, to and on", r.Name), nil)
		case !r.Type.Valid():
			return unisem.NewParseError(path, fmt.Sprintf("relationship %q: unsupported join type %q", r.Name, r.Type), nil)
		}
		if _, ok := rels[r.Name]; ok {
			return unisem.NewParseError(path, fmt.Sprintf("relationship %q redeclared", r.Name), nil)
		}
		rels[r.Name] = struct{}{}
	}
	return load.CheckMetrics(u.Metrics)
}

// nested prefixes the path of a parse error with the location of the
// embedded document.
func nested(err error, prefix string) error {
	var pe *unisem.ParseError
	if !errors.As(err, &pe) {
		return err
	}
	c := *pe
	if c.Path == "" {
		c.Path = prefix
	} else {
		c.Path = prefix + "." + c.Path
	}
	return &c
}
