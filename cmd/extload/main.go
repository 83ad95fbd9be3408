// Command extload inspects and loads variant-specific native libraries.
//
// Usage:
//
//	extload [-config file] [-dir module-dir] [-v] <command> [args]
//
// Commands:
//
//	variant                          print the resolved variant
//	candidates NAME...               print candidate paths for each library
//	load [-kind K] [-parallel N] [-k] NAME...
//	                                 load libraries (K: op, fs, lib)
//	extension NAME                   load a built-in extension (oss, pangu, dfs)
//	libraries [-all]                 list libraries and their installed variants
package main

import (
	"context"
	"flag"
	"io"
	"os"

	"github.com/google/subcommands"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run implements the main body of the program and returns the exit code.
// It's separate from main so tests can drive it with their own writers.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	top := flag.NewFlagSet("extload", flag.ContinueOnError)
	top.SetOutput(stderr)

	a := &app{stdout: stdout, stderr: stderr}
	a.setFlags(top)

	cdr := subcommands.NewCommander(top, "extload")
	cdr.Output = stdout
	cdr.Error = stderr
	cdr.Register(cdr.HelpCommand(), "")
	cdr.Register(cdr.FlagsCommand(), "")
	cdr.Register(cdr.CommandsCommand(), "")
	cdr.Register(&variantCmd{app: a}, "")
	cdr.Register(&candidatesCmd{app: a}, "")
	cdr.Register(&loadCmd{app: a}, "")
	cdr.Register(&extensionCmd{app: a}, "")
	cdr.Register(&librariesCmd{app: a}, "")

	if err := top.Parse(args); err != nil {
		return int(subcommands.ExitUsageError)
	}
	return int(cdr.Execute(ctx))
}
