package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"

	extload "github.com/contriboss/extload-go"
)

// librariesCmd implements subcommands.Command to list installed libraries.
type librariesCmd struct {
	app *app
	all bool // list every native library in the directory, not only known ones
}

var _ = subcommands.Command(&librariesCmd{})

func (*librariesCmd) Name() string     { return "libraries" }
func (*librariesCmd) Synopsis() string { return "list libraries and their installed variants" }
func (*librariesCmd) Usage() string {
	return `Usage: libraries [flag]...

Description:
    List the known libraries and the variants installed for each in the
    module directory. "-" marks a library with no installed file.

Flag:
`
}

func (lc *librariesCmd) SetFlags(f *flag.FlagSet) {
	f.SetOutput(lc.app.stderr)
	f.BoolVar(&lc.all, "all", false, "list every native library found in the module directory instead")
}

func (lc *librariesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	loader := lc.app.mustLoader()
	if loader == nil {
		return subcommands.ExitFailure
	}
	dir := loader.ModuleDir()

	var libs []extload.InstalledLibrary
	if lc.all {
		var err error
		if libs, err = extload.ScanInstalled(dir); err != nil {
			fmt.Fprintf(lc.app.stderr, "extload: %v\n", err)
			return subcommands.ExitFailure
		}
	} else {
		for _, name := range extload.KnownLibraries {
			libs = append(libs, extload.InstalledLibrary{Name: name, Variants: extload.InstalledVariants(dir, name)})
		}
	}

	for _, lib := range libs {
		lc.printLibrary(lib)
	}
	return subcommands.ExitSuccess
}

func (lc *librariesCmd) printLibrary(lib extload.InstalledLibrary) {
	if len(lib.Variants) == 0 {
		fmt.Fprintf(lc.app.stdout, "%-32s -\n", lib.Name)
		return
	}
	labels := make([]string, 0, len(lib.Variants))
	for _, v := range lib.Variants {
		labels = append(labels, v.String())
	}
	fmt.Fprintf(lc.app.stdout, "%-32s %s\n", lib.Name, strings.Join(labels, " "))
}
