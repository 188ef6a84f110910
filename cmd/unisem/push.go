package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/syssam/unisem/compiler/load"
	"github.com/syssam/unisem/dialect/sql"
)

// runPush stores model documents under their model names:
//
//	unisem push -org acme -project sales models/orders.yaml models/customers.yaml
//
// Documents are checked before anything is written.
func runPush(ctx context.Context, e *env, args []string) int {
	var cfg storeConfig
	fset := flag.NewFlagSet("push", flag.ContinueOnError)
	fset.SetOutput(e.stderr)
	fset.StringVar(&cfg.Organization, "org", os.Getenv("UNISEM_ORGANIZATION"), "organization of the documents")
	fset.StringVar(&cfg.Project, "project", os.Getenv("UNISEM_PROJECT"), "project of the documents")
	fset.StringVar(&cfg.Driver, "driver", "", "store driver (default $UNISEM_DB_DRIVER)")
	fset.StringVar(&cfg.DSN, "dsn", "", "store data source name (default $UNISEM_DB_DSN)")
	fset.StringVar(&cfg.Table, "table", "", "store table name")
	if err := fset.Parse(args); err != nil {
		return exitUsage
	}
	if fset.NArg() == 0 {
		e.errorf("push: no model files given")
		return exitUsage
	}

	docs := make([]*sql.Document, 0, fset.NArg())
	failed := false
	for _, path := range fset.Args() {
		raw, err := os.ReadFile(path)
		if err != nil {
			e.errorf("push: %v", err)
			failed = true
			continue
		}
		m, err := load.Parse(raw)
		if err != nil {
			e.errorf("push: %s: %v", path, err)
			failed = true
			continue
		}
		docs = append(docs, &sql.Document{Scope: cfg.Scope, Kind: sql.KindModel, Name: m.Name, Body: raw})
	}
	if failed {
		return exitError
	}

	store, closer, err := openStore(ctx, &cfg, e.log)
	if err != nil {
		e.errorf("push: %v", err)
		return exitError
	}
	defer closer()
	for _, doc := range docs {
		if err := store.Put(ctx, doc); err != nil {
			e.errorf("push: %s: %v", doc.Name, err)
			return exitError
		}
		e.log.Info("model stored", zap.String("scope", cfg.Scope.String()), zap.String("name", doc.Name), zap.String("id", doc.ID))
		fmt.Fprintf(e.stdout, "%s\t%s\n", doc.Name, doc.ID)
	}
	return exitOK
}
