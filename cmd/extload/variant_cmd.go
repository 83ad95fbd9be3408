package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

// variantCmd implements subcommands.Command to print the resolved variant.
type variantCmd struct {
	app *app
}

var _ = subcommands.Command(&variantCmd{})

func (*variantCmd) Name() string     { return "variant" }
func (*variantCmd) Synopsis() string { return "print the resolved library variant" }
func (*variantCmd) Usage() string {
	return `Usage: variant

Description:
    Print the variant the loader resolves for the current environment:
    "default" for the bare files, otherwise the suffix (.pai, .xdl, .eflops
    or the SO_SUFFIX override).
`
}

func (*variantCmd) SetFlags(*flag.FlagSet) {}

func (vc *variantCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	loader := vc.app.mustLoader()
	if loader == nil {
		return subcommands.ExitFailure
	}
	fmt.Fprintln(vc.app.stdout, loader.Variant())
	return subcommands.ExitSuccess
}
