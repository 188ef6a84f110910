package gen

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/dave/jennifer/jen"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/unisem/compiler"
	"github.com/syssam/unisem/compiler/resolve"
	"github.com/syssam/unisem/schema"
)

// DefaultHeader is written at the top of every generated file.
const DefaultHeader = "Code generated by unisem. DO NOT EDIT."

// UnifiedFile is the name of the file holding the unified declarations.
const UnifiedFile = "unified.go"

// Generator renders Go bindings for one unified model.
type Generator struct {
	model   *schema.UnifiedModel
	index   *resolve.Index
	pkg     string
	header  string
	workers int
}

// Option configures a Generator.
type Option func(*Generator) error

// WithPackage sets the package name of the generated files. It defaults
// to the snake cased unified model name.
func WithPackage(pkg string) Option {
	return func(g *Generator) error {
		if pkg == "" || !isPackageName(pkg) {
			return compiler.NewConfigError("Package", pkg, "package must be a valid Go identifier")
		}
		g.pkg = pkg
		return nil
	}
}

// WithHeader sets the file header comment.
func WithHeader(header string) Option {
	return func(g *Generator) error {
		g.header = header
		return nil
	}
}

// WithWorkers sets the number of files written concurrently.
func WithWorkers(n int) Option {
	return func(g *Generator) error {
		if n < 1 {
			return compiler.NewConfigError("Workers", n, "must be at least 1")
		}
		g.workers = n
		return nil
	}
}

// New returns a Generator for u.
func New(u *schema.UnifiedModel, opts ...Option) (*Generator, error) {
	if u == nil || len(u.Models) == 0 {
		return nil, compiler.NewConfigError("Model", nil, "a unified model with at least one embedded model is required")
	}
	ix, err := resolve.BuildIndex(u.SourceModels())
	if err != nil {
		return nil, err
	}
	g := &Generator{
		model:   u,
		index:   ix,
		pkg:     sanitize(u.Name),
		header:  DefaultHeader,
		workers: runtime.GOMAXPROCS(0),
	}
	if !isPackageName(g.pkg) {
		g.pkg = "unified"
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Files renders all files in memory, keyed by file name.
func (g *Generator) Files() (map[string][]byte, error) {
	files := make(map[string][]byte, len(g.model.Models)+1)
	names := make(namer)
	for _, em := range g.model.Models {
		b, err := render(g.modelFile(em, names))
		if err != nil {
			return nil, fmt.Errorf("unisem: gen %s: %w", em.Source, err)
		}
		name := fileName(em.Source)
		for i := 2; files[name] != nil; i++ {
			name = fmt.Sprintf("%s%d.go", strings.TrimSuffix(fileName(em.Source), ".go"), i)
		}
		files[name] = b
	}
	b, err := render(g.unifiedFile(names))
	if err != nil {
		return nil, fmt.Errorf("unisem: gen %s: %w", UnifiedFile, err)
	}
	files[UnifiedFile] = b
	return files, nil
}

// Generate writes the bindings into dir, creating it if needed.
func (g *Generator) Generate(ctx context.Context, dir string) error {
	files, err := g.Files()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)
	for name, b := range files {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := os.WriteFile(filepath.Join(dir, name), b, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", name, err)
			}
			return nil
		})
	}
	return eg.Wait()
}

func (g *Generator) newFile() *jen.File {
	f := jen.NewFile(g.pkg)
	if g.header != "" {
		f.HeaderComment(g.header)
	}
	return f
}

// modelFile declares the table and field names of one embedded model.
func (g *Generator) modelFile(em *schema.EmbeddedModel, names namer) *jen.File {
	f := g.newFile()
	for _, t := range g.index.Tables() {
		if t.Model != em.Model.Name {
			continue
		}
		tableID := names.name(t.Model, t.Schema, t.Table)
		defs := []jen.Code{
			jen.Commentf("%s is the table %q of model %q.", tableID, t.BareKey(), t.Model),
			jen.Id(tableID).Op("=").Lit(t.Key()),
		}
		for _, field := range t.Fields {
			defs = append(defs, jen.Id(names.name(t.Model, t.Schema, t.Table, field)).Op("=").Lit(t.Key()+"."+field))
		}
		f.Const().Defs(defs...)
	}
	return f
}

// unifiedFile declares the unified model metadata, its joins and metrics.
func (g *Generator) unifiedFile(names namer) *jen.File {
	u := g.model
	f := g.newFile()
	f.Comment("Unified model metadata.")
	f.Const().Defs(
		jen.Id(names.name("name")).Op("=").Lit(u.Name),
		jen.Id(names.name("version")).Op("=").Lit(u.Version),
	)

	sources := make([]jen.Code, 0, len(u.Models))
	for _, em := range u.Models {
		sources = append(sources, jen.Lit(em.Source))
	}
	f.Comment("Sources lists the embedded models in selection order.")
	f.Var().Id(names.name("sources")).Op("=").Index().String().Values(sources...)

	join := names.name("join")
	f.Comment("Join is a relationship between two composed tables.")
	f.Type().Id(join).Struct(
		jen.Id("Name").String(),
		jen.Id("From").String(),
		jen.Id("To").String(),
		jen.Id("On").String(),
		jen.Id("Type").String(),
	)
	if len(u.Relationships) > 0 {
		consts := make([]jen.Code, 0, len(u.Relationships))
		joins := make([]jen.Code, 0, len(u.Relationships))
		for _, r := range u.Relationships {
			consts = append(consts, jen.Id(names.name("relationship", r.Name)).Op("=").Lit(r.Name))
			joins = append(joins, jen.Values(jen.Dict{
				jen.Id("Name"): jen.Lit(r.Name),
				jen.Id("From"): jen.Lit(r.From),
				jen.Id("To"):   jen.Lit(r.To),
				jen.Id("On"):   jen.Lit(r.On),
				jen.Id("Type"): jen.Lit(r.Type.String()),
			}))
		}
		f.Comment("Relationship names.")
		f.Const().Defs(consts...)
		f.Comment("Joins holds the relationships in declaration order.")
		f.Var().Id(names.name("joins")).Op("=").Index().Id(join).Values(joins...)
	}
	if len(u.Metrics) > 0 {
		consts := make([]jen.Code, 0, len(u.Metrics))
		exprs := make(jen.Dict, len(u.Metrics))
		for _, m := range u.Metrics {
			consts = append(consts, jen.Id(names.name("metric", m.Name)).Op("=").Lit(m.Name))
			exprs[jen.Lit(m.Name)] = jen.Lit(m.Expression)
		}
		f.Comment("Metric names.")
		f.Const().Defs(consts...)
		f.Comment("Metrics maps metric names to their expressions.")
		f.Var().Id(names.name("metrics")).Op("=").Map(jen.String()).String().Values(exprs)
	}
	return f
}

func render(f *jen.File) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// isPackageName reports whether s is a lower case Go identifier.
func isPackageName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
