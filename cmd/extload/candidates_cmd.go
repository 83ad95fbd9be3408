package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

// candidatesCmd implements subcommands.Command to print candidate paths.
type candidatesCmd struct {
	app *app
}

var _ = subcommands.Command(&candidatesCmd{})

func (*candidatesCmd) Name() string     { return "candidates" }
func (*candidatesCmd) Synopsis() string { return "print candidate paths for libraries" }
func (*candidatesCmd) Usage() string {
	return `Usage: candidates NAME...

Description:
    Print, in load order, the paths the loader would try for each library.
    Nothing is loaded.
`
}

func (*candidatesCmd) SetFlags(*flag.FlagSet) {}

func (cc *candidatesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprint(cc.app.stderr, "Missing library name.\n\n"+cc.Usage())
		return subcommands.ExitUsageError
	}
	loader := cc.app.mustLoader()
	if loader == nil {
		return subcommands.ExitFailure
	}

	for _, name := range f.Args() {
		paths, variant := loader.Candidates(name)
		fmt.Fprintf(cc.app.stdout, "%s (variant %s)\n", name, variant)
		for _, p := range paths {
			fmt.Fprintf(cc.app.stdout, "  %s\n", p)
		}
	}
	return subcommands.ExitSuccess
}
