// Package compose merges source models, validated relationships and
// validated metrics into a unified model.
package compose

import (
	"strings"

	"github.com/syssam/unisem"
	"github.com/syssam/unisem/compiler/validate"
	"github.com/syssam/unisem/schema"
)

// DefaultName names a unified model when neither the metadata nor the
// first source model provide a name.
const DefaultName = "unified_model"

// Metadata holds the top-level fields of a unified model.
type Metadata struct {
	Name        string `yaml:"name,omitempty" json:"name,omitempty"`
	Version     string `yaml:"version,omitempty" json:"version,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Connector   string `yaml:"connector,omitempty" json:"connector,omitempty"`
}

// Compose builds a unified model. Models keep the selection order and are
// tagged with their names, relationships keep the validation order and
// metrics are keyed by name in last-validated order. All inputs are
// copied; the result shares no memory with them.
//
// Compose fails with *unisem.EmptyCompositionError when models is empty.
func Compose(models []*schema.Model, rels []*validate.ValidatedRelationship, metrics []*validate.ValidatedMetric, md Metadata) (*schema.UnifiedModel, error) {
	if len(models) == 0 {
		return nil, &unisem.EmptyCompositionError{}
	}
	u := &schema.UnifiedModel{
		Name:        unifiedName(md, models),
		Version:     md.Version,
		Connector:   md.Connector,
		Description: md.Description,
		Models:      make([]*schema.EmbeddedModel, 0, len(models)),
	}
	for _, m := range models {
		u.Models = append(u.Models, &schema.EmbeddedModel{
			Source: m.Name,
			Model:  m.Clone(),
		})
	}
	for _, r := range rels {
		c := *r.Relationship
		u.Relationships = append(u.Relationships, &c)
	}
	for _, m := range metrics {
		if i := indexOf(u.Metrics, m.Name); i >= 0 {
			u.Metrics = append(u.Metrics[:i], u.Metrics[i+1:]...)
		}
		c := *m.Metric
		u.Metrics = append(u.Metrics, &c)
	}
	return u, nil
}

func unifiedName(md Metadata, models []*schema.Model) string {
	if name := strings.TrimSpace(md.Name); name != "" {
		return name
	}
	if name := strings.TrimSpace(models[0].Name); name != "" {
		return name
	}
	return DefaultName
}

func indexOf(ms schema.Metrics, name string) int {
	for i, m := range ms {
		if m.Name == name {
			return i
		}
	}
	return -1
}
