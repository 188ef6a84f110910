package schema

// The following types describe composition inputs and output.
type (
	// BuilderRelationship is a proposed cross-model relationship, before
	// validation. Type is the raw join kind as entered by the user.
	BuilderRelationship struct {
		Name string `yaml:"name" json:"name"`
		From string `yaml:"from" json:"from"`
		To   string `yaml:"to" json:"to"`
		On   string `yaml:"on" json:"on"`
		Type string `yaml:"type" json:"type"`
	}

	// UnifiedMetric is a proposed metric spanning the composed models.
	UnifiedMetric struct {
		Name        string `yaml:"name" json:"name"`
		Expression  string `yaml:"expression" json:"expression"`
		Description string `yaml:"description,omitempty" json:"description,omitempty"`
	}

	// UnifiedModel is the composition of several semantic models.
	UnifiedModel struct {
		Name          string           `yaml:"name"`
		Version       string           `yaml:"version,omitempty"`
		Connector     string           `yaml:"connector,omitempty"`
		Description   string           `yaml:"description,omitempty"`
		Models        []*EmbeddedModel `yaml:"models"`
		Relationships []*Relationship  `yaml:"relationships,omitempty"`
		Metrics       Metrics          `yaml:"metrics,omitempty"`
	}

	// EmbeddedModel is a source model inside a unified model, tagged with
	// the name it was selected under.
	EmbeddedModel struct {
		Source string `yaml:"source"`
		Model  *Model `yaml:"model"`
	}
)

// Model returns the embedded model selected under the given source name,
// or nil.
func (u *UnifiedModel) Model(source string) *Model {
	for _, em := range u.Models {
		if em.Source == source {
			return em.Model
		}
	}
	return nil
}

// SourceModels returns the embedded models in selection order.
func (u *UnifiedModel) SourceModels() []*Model {
	models := make([]*Model, 0, len(u.Models))
	for _, em := range u.Models {
		models = append(models, em.Model)
	}
	return models
}

// Relationship returns the cross-model relationship with the given name,
// or nil.
func (u *UnifiedModel) Relationship(name string) *Relationship {
	for _, r := range u.Relationships {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// Metric returns the unified metric with the given name, or nil.
func (u *UnifiedModel) Metric(name string) *Metric {
	return u.Metrics.Get(name)
}
