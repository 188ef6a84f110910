// Package compiler runs the composition pipeline: parse the selected
// source documents, index them, validate the proposed relationships and
// metrics, compose the unified model and serialize it.
//
//	res, err := compiler.Compose(compiler.Request{
//		Metadata: compose.Metadata{Name: "sales"},
//		Sources:  docs,
//		Relationships: rels,
//		Metrics:  metrics,
//	}, compiler.WithStrictMetrics())
//
// A fatal error (see unisem.IsFatal) yields no result. Advisories are
// returned in Result.Issues next to the composed model.
package compiler

import (
	"go.uber.org/zap"

	"github.com/syssam/unisem"
	"github.com/syssam/unisem/compiler/compose"
	"github.com/syssam/unisem/compiler/emit"
	"github.com/syssam/unisem/compiler/load"
	"github.com/syssam/unisem/compiler/resolve"
	"github.com/syssam/unisem/compiler/validate"
	"github.com/syssam/unisem/schema"
)

// Request is one composition request. Sources are in selection order.
type Request struct {
	Metadata      compose.Metadata             `yaml:"metadata" json:"metadata"`
	Sources       []load.Document              `yaml:"-" json:"-"`
	Relationships []schema.BuilderRelationship `yaml:"relationships,omitempty" json:"relationships,omitempty"`
	Metrics       []schema.UnifiedMetric       `yaml:"metrics,omitempty" json:"metrics,omitempty"`
}

// Result is the outcome of a successful composition.
type Result struct {
	// Model is the composed unified model.
	Model *schema.UnifiedModel
	// Document is the canonical serialization of Model.
	Document []byte
	// Issues are the advisories found while validating, in input order.
	Issues unisem.Issues
}

// Compose runs the whole pipeline for req.
func Compose(req Request, opts ...Option) (*Result, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	log := cfg.Logger.With(zap.String("unified_model", req.Metadata.Name))

	if len(req.Sources) == 0 {
		return nil, &unisem.EmptyCompositionError{}
	}
	models, err := load.ParseAll(req.Sources, cfg.Workers)
	if err != nil {
		return nil, err
	}
	log.Debug("parsed source models", zap.Int("models", len(models)))
	return compile(models, req, cfg, log)
}

// ComposeModels runs the pipeline for models that are already parsed.
// The models must have passed load.Check.
func ComposeModels(models []*schema.Model, req Request, opts ...Option) (*Result, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	return compile(models, req, cfg, cfg.Logger.With(zap.String("unified_model", req.Metadata.Name)))
}

func compile(models []*schema.Model, req Request, cfg *Config, log *zap.Logger) (*Result, error) {
	if len(models) == 0 {
		return nil, &unisem.EmptyCompositionError{}
	}
	ix, err := resolve.BuildIndex(models)
	if err != nil {
		return nil, err
	}
	for _, a := range ix.Ambiguities() {
		log.Debug("ambiguous table key", zap.String("key", a.Key), zap.Strings("models", a.Models))
	}
	rels, issues := validate.Relationships(req.Relationships, ix)
	metrics, metricIssues := validate.Metrics(req.Metrics, ix, cfg.StrictMetrics)
	issues = append(issues, metricIssues...)
	log.Debug("validated composition inputs",
		zap.Int("relationships", len(rels)),
		zap.Int("metrics", len(metrics)),
		zap.Int("issues", len(issues)),
	)
	for _, is := range issues {
		log.Warn("composition advisory",
			zap.String("message", is.Message),
			zap.String("kind", string(is.Kind)),
			zap.String("subject", is.Subject),
			zap.String("ref", is.Ref),
		)
	}

	u, err := compose.Compose(models, rels, metrics, req.Metadata)
	if err != nil {
		return nil, err
	}
	doc, err := emit.Serialize(u)
	if err != nil {
		return nil, err
	}
	log.Debug("composed unified model",
		zap.String("name", u.Name),
		zap.Int("bytes", len(doc)),
	)
	return &Result{Model: u, Document: doc, Issues: issues}, nil
}
