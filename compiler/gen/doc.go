// Package gen generates Go bindings for a unified semantic model.
//
// The bindings give every qualified table, field, relationship and metric
// name of the model a Go constant, so query code can reference them
// without string literals:
//
//	g, err := gen.New(u, gen.WithPackage("sales"))
//	if err != nil {
//	    return err
//	}
//	if err := g.Generate(ctx, "internal/sales"); err != nil {
//	    return err
//	}
//
// One file is written per embedded model ("model_<source>.go") plus
// "unified.go" holding the unified name, sources, joins and metrics.
//
// Identifiers are the camel-cased qualified names, e.g. the field
// "orders.orders.orders.total" becomes OrdersOrdersOrdersTotal. Names that
// would collide get a numeric suffix.
package gen
