package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"

	extload "github.com/contriboss/extload-go"
)

// extensionCmd implements subcommands.Command to load a built-in extension.
type extensionCmd struct {
	app *app
}

var _ = subcommands.Command(&extensionCmd{})

func (*extensionCmd) Name() string     { return "extension" }
func (*extensionCmd) Synopsis() string { return "load a built-in extension" }
func (*extensionCmd) Usage() string {
	return fmt.Sprintf(`Usage: extension NAME

Description:
    Load every library of a built-in extension in order.

Name:
    One of: %s
`, strings.Join(extload.ExtensionNames(), ", "))
}

func (*extensionCmd) SetFlags(*flag.FlagSet) {}

func (ec *extensionCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(ec.app.stderr, ec.Usage())
		return subcommands.ExitUsageError
	}

	ext, err := extload.LookupExtension(f.Arg(0))
	if err != nil {
		fmt.Fprintf(ec.app.stderr, "extload: %v\n", err)
		return subcommands.ExitUsageError
	}

	loader := ec.app.mustLoader()
	if loader == nil {
		return subcommands.ExitFailure
	}

	libs, err := loader.LoadExtension(ext)
	for _, lib := range libs {
		fmt.Fprintf(ec.app.stdout, "%s: loaded %s\n", lib.Name, lib.Path)
	}
	if err != nil {
		fmt.Fprintf(ec.app.stderr, "extload: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
