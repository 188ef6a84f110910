// Command unisem composes semantic models into a unified model.
//
//	unisem [-env file] <command> [flags] [args]
//
// Commands:
//
//	compose   compose the models named in a compose file
//	push      store model documents in the document store
//	validate  check model or unified documents
//
// The logger is configured with UNISEM_LOG_MODE (dev or prod) and
// UNISEM_LOG_LEVEL. Variables are read from the environment after loading
// the optional env file (".env" by default).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/syssam/unisem/internal/logger"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// command is one unisem subcommand.
type command struct {
	name    string
	summary string
	run     func(ctx context.Context, env *env, args []string) int
}

// env is the state shared by all commands.
type env struct {
	stdout io.Writer
	stderr io.Writer
	log    *zap.Logger
}

func (e *env) errorf(format string, args ...any) {
	fmt.Fprintf(e.stderr, "unisem: "+format+"\n", args...)
}

var commands = []*command{
	{name: "compose", summary: "compose the models named in a compose file", run: runCompose},
	{name: "push", summary: "store model documents in the document store", run: runPush},
	{name: "validate", summary: "check model or unified documents", run: runValidate},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := runWithArgs(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func runWithArgs(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fset := flag.NewFlagSet("unisem", flag.ContinueOnError)
	fset.SetOutput(stderr)
	envFile := fset.String("env", ".env", "optional env file loaded before the command runs")
	fset.Usage = func() { usage(stderr, fset) }
	if err := fset.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fset.NArg() == 0 {
		fset.Usage()
		return exitUsage
	}

	envErr := loadEnv(*envFile)
	log, err := logger.New(os.Getenv("UNISEM_LOG_MODE"), os.Getenv("UNISEM_LOG_LEVEL"))
	if err != nil {
		fmt.Fprintf(stderr, "unisem: %v\n", err)
		return exitError
	}
	defer func() { _ = log.Sync() }()
	if envErr != nil {
		log.Warn("could not load env file", zap.String("path", *envFile), zap.Error(envErr))
	}

	name, rest := fset.Arg(0), fset.Args()[1:]
	for _, c := range commands {
		if c.name == name {
			return c.run(ctx, &env{stdout: stdout, stderr: stderr, log: log.Named(name)}, rest)
		}
	}
	if name == "help" {
		usage(stdout, fset)
		return exitOK
	}
	fmt.Fprintf(stderr, "unisem: unknown command %q\n\n", name)
	fset.Usage()
	return exitUsage
}

// loadEnv loads the env file. A missing file is not an error.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func usage(w io.Writer, fset *flag.FlagSet) {
	fmt.Fprintln(w, "Usage: unisem [-env file] <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-9s %s\n", c.name, c.summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fset.SetOutput(w)
	fset.PrintDefaults()
}
