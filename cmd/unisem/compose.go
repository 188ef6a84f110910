package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/syssam/unisem"
	"github.com/syssam/unisem/compiler"
	"github.com/syssam/unisem/compiler/emit"
	"github.com/syssam/unisem/compiler/gen"
	"github.com/syssam/unisem/contrib/graphql"
	"github.com/syssam/unisem/dialect/sql"
)

// Output formats of the compose command.
const (
	formatYAML     = "yaml"
	formatSnapshot = "snapshot"
	formatGo       = "go"
	formatGraphQL  = "graphql"
)

// composeOptions are the parsed compose flags.
type composeOptions struct {
	file    string
	output  string
	format  string
	pkg     string
	strict  bool
	watch   bool
	push    bool
	workers int
}

func runCompose(ctx context.Context, e *env, args []string) int {
	var o composeOptions
	fset := flag.NewFlagSet("compose", flag.ContinueOnError)
	fset.SetOutput(e.stderr)
	fset.StringVar(&o.file, "f", "unisem.yaml", "compose file")
	fset.StringVar(&o.output, "o", "-", `output file, or directory for the "go" format; "-" is stdout`)
	fset.StringVar(&o.format, "format", formatYAML, "output format: yaml, snapshot, go or graphql")
	fset.StringVar(&o.pkg, "package", "", `package name for the "go" format`)
	fset.BoolVar(&o.strict, "strict", false, "drop metrics whose references do not resolve")
	fset.BoolVar(&o.watch, "watch", false, "recompose when the compose file or a model file changes")
	fset.BoolVar(&o.push, "push", false, "store the unified document in the document store")
	fset.IntVar(&o.workers, "workers", 0, "number of documents parsed concurrently (0 for GOMAXPROCS)")
	if err := fset.Parse(args); err != nil {
		return exitUsage
	}
	switch o.format {
	case formatYAML, formatSnapshot, formatGraphQL:
	case formatGo:
		if o.output == "-" {
			e.errorf(`compose: the "go" format needs an output directory (-o)`)
			return exitUsage
		}
	default:
		e.errorf("compose: unknown format %q", o.format)
		return exitUsage
	}

	if err := composeOnce(ctx, e, &o); err != nil {
		e.errorf("compose: %v", err)
		if !o.watch {
			return exitError
		}
	}
	if !o.watch {
		return exitOK
	}
	err := watch(ctx, e.log, func() ([]string, error) { return watchedPaths(o.file) }, 100*time.Millisecond, func() {
		if err := composeOnce(ctx, e, &o); err != nil {
			e.log.Error("recompose failed", zap.Error(err))
		}
	})
	if err != nil {
		e.errorf("compose: %v", err)
		return exitError
	}
	return exitOK
}

// composeOnce reads the compose file, composes and writes the output.
func composeOnce(ctx context.Context, e *env, o *composeOptions) error {
	cf, err := loadComposeFile(o.file)
	if err != nil {
		return err
	}
	docs, err := cf.sources(ctx, e.log)
	if err != nil {
		return err
	}
	opts := []compiler.Option{compiler.WithLogger(e.log)}
	if o.strict || cf.Strict {
		opts = append(opts, compiler.WithStrictMetrics())
	}
	if o.workers > 0 {
		opts = append(opts, compiler.WithWorkers(o.workers))
	}
	res, err := compiler.Compose(compiler.Request{
		Metadata:      cf.Metadata,
		Sources:       docs,
		Relationships: cf.Relationships,
		Metrics:       cf.Metrics,
	}, opts...)
	if err != nil {
		return err
	}
	printIssues(e, res.Issues)
	if err := writeResult(ctx, e, o, res); err != nil {
		return err
	}
	if o.push {
		return pushUnified(ctx, e, cf, res)
	}
	return nil
}

// printIssues writes every advisory to stderr, one per line, followed by
// a count per kind.
func printIssues(e *env, issues unisem.Issues) {
	if len(issues) == 0 {
		return
	}
	for _, is := range issues {
		fmt.Fprintf(e.stderr, "warning: %s: subject=%q ref=%q: %s\n", is.Kind, is.Subject, is.Ref, is.Message)
	}
	for _, kind := range []unisem.IssueKind{
		unisem.UnknownEntityReference,
		unisem.InvalidJoinType,
		unisem.DuplicateRelationshipName,
		unisem.DuplicateMetricName,
		unisem.UnresolvedMetricReferences,
		unisem.AmbiguousEntityReference,
	} {
		if of := issues.Of(kind); len(of) > 0 {
			fmt.Fprintf(e.stderr, "%s: %d\n", kind, len(of))
		}
	}
}

func writeResult(ctx context.Context, e *env, o *composeOptions, res *compiler.Result) error {
	var out []byte
	switch o.format {
	case formatYAML:
		out = res.Document
	case formatSnapshot:
		b, err := emit.EncodeSnapshot(res.Model)
		if err != nil {
			return err
		}
		out = b
	case formatGraphQL:
		s, err := graphql.Export(res.Model, graphql.WithSourceName(res.Model.Name+".graphql"))
		if err != nil {
			return err
		}
		out = []byte(s.SDL)
	case formatGo:
		var opts []gen.Option
		if o.pkg != "" {
			opts = append(opts, gen.WithPackage(o.pkg))
		}
		g, err := gen.New(res.Model, opts...)
		if err != nil {
			return err
		}
		if err := g.Generate(ctx, o.output); err != nil {
			return err
		}
		e.log.Info("bindings generated", zap.String("dir", o.output))
		return nil
	}
	if o.output == "-" {
		_, err := e.stdout.Write(out)
		return err
	}
	if err := os.WriteFile(o.output, out, 0o644); err != nil {
		return err
	}
	e.log.Info("unified model written", zap.String("path", o.output), zap.Int("bytes", len(out)))
	return nil
}

func pushUnified(ctx context.Context, e *env, cf *composeFile, res *compiler.Result) error {
	if cf.Store == nil {
		return errors.New("-push needs a store section in the compose file")
	}
	store, closer, err := openStore(ctx, cf.Store, e.log)
	if err != nil {
		return err
	}
	defer closer()
	doc := &sql.Document{Scope: cf.Store.Scope, Kind: sql.KindUnified, Name: res.Model.Name, Body: res.Document}
	if err := store.Put(ctx, doc); err != nil {
		return err
	}
	e.log.Info("unified model stored", zap.String("scope", cf.Store.Scope.String()), zap.String("name", doc.Name), zap.String("id", doc.ID))
	return nil
}

// watchedPaths returns the compose file and, for file backed
// compositions, the selected model files.
func watchedPaths(file string) ([]string, error) {
	paths := []string{file}
	if cf, err := loadComposeFile(file); err == nil {
		paths = append(paths, cf.modelPaths()...)
	}
	for i, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		paths[i] = abs
	}
	return paths, nil
}

// watch calls fn after any watched path is written, created or replaced,
// once events have been quiet for debounce. It returns when ctx is done.
// The watched set comes from paths and is refreshed after every call to fn,
// so files selected by an edited compose file are picked up. Directories
// are watched rather than files so editors that replace files on save are
// seen.
func watch(ctx context.Context, log *zap.Logger, paths func() ([]string, error), debounce time.Duration, fn func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	var (
		targets map[string]bool
		dirs    = make(map[string]bool)
	)
	refresh := func() error {
		ps, err := paths()
		if err != nil {
			return err
		}
		next := make(map[string]bool, len(ps))
		for _, p := range ps {
			next[filepath.Clean(p)] = true
			dir := filepath.Dir(p)
			if dirs[dir] {
				continue
			}
			// Retried on the next refresh.
			if err := w.Add(dir); err != nil {
				log.Warn("directory not watched", zap.String("dir", dir), zap.Error(err))
				continue
			}
			dirs[dir] = true
		}
		targets = next
		log.Debug("watching for changes", zap.Strings("paths", ps))
		return nil
	}
	if err := refresh(); err != nil {
		return err
	}

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !targets[filepath.Clean(ev.Name)] || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			log.Debug("change detected", zap.String("path", ev.Name), zap.Stringer("op", ev.Op))
			pending = time.After(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", zap.Error(err))
		case <-pending:
			pending = nil
			fn()
			if err := refresh(); err != nil {
				log.Warn("watch set not refreshed", zap.Error(err))
			}
		}
	}
}
