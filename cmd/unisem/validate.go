package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/syssam/unisem/compiler/emit"
	"github.com/syssam/unisem/compiler/load"
)

// runValidate checks each document and reports one line per file. With
// -unified the documents are unified models instead of source models.
func runValidate(_ context.Context, e *env, args []string) int {
	fset := flag.NewFlagSet("validate", flag.ContinueOnError)
	fset.SetOutput(e.stderr)
	unified := fset.Bool("unified", false, "documents are unified models")
	if err := fset.Parse(args); err != nil {
		return exitUsage
	}
	if fset.NArg() == 0 {
		e.errorf("validate: no files given")
		return exitUsage
	}
	code := exitOK
	for _, path := range fset.Args() {
		if err := validateFile(path, *unified); err != nil {
			fmt.Fprintf(e.stdout, "%s: %v\n", path, err)
			code = exitError
			continue
		}
		fmt.Fprintf(e.stdout, "%s: ok\n", path)
	}
	return code
}

func validateFile(path string, unified bool) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if unified {
		_, err = emit.Deserialize(raw)
		return err
	}
	_, err = load.Parse(raw)
	return err
}
