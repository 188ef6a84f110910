package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"

	"github.com/syssam/unisem/compiler/compose"
	"github.com/syssam/unisem/compiler/load"
	"github.com/syssam/unisem/dialect"
	"github.com/syssam/unisem/dialect/sql"
	"github.com/syssam/unisem/schema"
)

// composeFile is the YAML file driving the compose command:
//
//	name: sales
//	version: "1"
//	models:
//	  - models/orders.yaml
//	  - models/customers.yaml
//	relationships:
//	  - from: orders.orders
//	    to: customers.customers
//	    on: orders.orders.customer_id = customers.customers.id
//	    type: inner
//	metrics:
//	  - name: revenue
//	    expression: SUM(orders.orders.total)
//
// With a store section, models are names of stored documents instead of
// file paths.
type composeFile struct {
	compose.Metadata `yaml:",inline"`
	Models           []string                     `yaml:"models"`
	Relationships    []schema.BuilderRelationship `yaml:"relationships,omitempty"`
	Metrics          []schema.UnifiedMetric       `yaml:"metrics,omitempty"`
	Strict           bool                         `yaml:"strict,omitempty"`
	Store            *storeConfig                 `yaml:"store,omitempty"`

	// dir is the directory of the compose file; model paths are relative
	// to it.
	dir string
}

// storeConfig selects the document store. Driver and DSN fall back to
// UNISEM_DB_DRIVER and UNISEM_DB_DSN; environment references in the DSN
// are expanded.
type storeConfig struct {
	sql.Scope `yaml:",inline"`
	Driver    string `yaml:"driver,omitempty"`
	DSN       string `yaml:"dsn,omitempty"`
	Table     string `yaml:"table,omitempty"`
}

func loadComposeFile(path string) (*composeFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cf := &composeFile{dir: filepath.Dir(path)}
	if err := yaml.Unmarshal(raw, cf); err != nil {
		return nil, fmt.Errorf("parse compose file %s: %w", path, err)
	}
	if len(cf.Models) == 0 {
		return nil, fmt.Errorf("compose file %s: no models selected", path)
	}
	return cf, nil
}

// modelPaths returns the model file paths, resolved against the compose
// file directory. It is empty for store backed compositions.
func (cf *composeFile) modelPaths() []string {
	if cf.Store != nil {
		return nil
	}
	paths := make([]string, len(cf.Models))
	for i, p := range cf.Models {
		if !filepath.IsAbs(p) {
			p = filepath.Join(cf.dir, p)
		}
		paths[i] = p
	}
	return paths
}

// sources reads the selected model documents in selection order.
func (cf *composeFile) sources(ctx context.Context, log *zap.Logger) ([]load.Document, error) {
	if cf.Store == nil {
		return readDocuments(cf.modelPaths())
	}
	store, closer, err := openStore(ctx, cf.Store, log)
	if err != nil {
		return nil, err
	}
	defer closer()
	return store.Sources(ctx, cf.Store.Scope, cf.Models)
}

func readDocuments(paths []string) ([]load.Document, error) {
	docs := make([]load.Document, 0, len(paths))
	for _, p := range paths {
		raw, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		docs = append(docs, load.Document{ID: p, Raw: raw})
	}
	return docs, nil
}

// openStore opens and migrates the document store. Statements are logged
// at debug level through a StatsDriver.
func openStore(ctx context.Context, cfg *storeConfig, log *zap.Logger) (*sql.Store, func(), error) {
	driver, dsn := cfg.Driver, cfg.DSN
	if driver == "" {
		driver = os.Getenv("UNISEM_DB_DRIVER")
	}
	if dsn == "" {
		dsn = os.Getenv("UNISEM_DB_DSN")
	}
	dsn = os.ExpandEnv(dsn)
	if driver == "" || dsn == "" {
		return nil, nil, fmt.Errorf("store: driver and dsn are required (one of %s)", strings.Join(dialect.Dialects(), ", "))
	}
	drv, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("store: %w", err)
	}
	if drv.Dialect() == dialect.SQLite {
		drv.DB().SetMaxOpenConns(1)
	}
	stats := sql.NewStatsDriver(drv, sql.WithStatsLogger(log.Named("store")), sql.WithSlowThreshold(time.Second))
	closer := func() {
		log.Debug("store closed", zap.Stringer("stats", stats.QueryStats().Stats()))
		_ = stats.Close()
	}
	var opts []sql.StoreOption
	if cfg.Table != "" {
		opts = append(opts, sql.WithTable(cfg.Table))
	}
	store, err := sql.NewStore(stats, opts...)
	if err != nil {
		closer()
		return nil, nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		closer()
		return nil, nil, err
	}
	return store, closer, nil
}
