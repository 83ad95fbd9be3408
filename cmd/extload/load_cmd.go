package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	extload "github.com/contriboss/extload-go"
)

// loadCmd implements subcommands.Command to load libraries.
type loadCmd struct {
	app       *app
	kind      string // loader kind name accepted by extload.ParseLoaderKind
	parallel  int    // load up to this many libraries at once; 0 loads in order
	keepGoing bool   // continue after a failed library when loading in order
}

var _ = subcommands.Command(&loadCmd{})

func (*loadCmd) Name() string     { return "load" }
func (*loadCmd) Synopsis() string { return "load libraries" }
func (*loadCmd) Usage() string {
	return `Usage: load [flag]... NAME...

Description:
    Load each library with the loader for -kind and print the path that was
    opened. Exits non-zero if any library fails.

Flag:
`
}

func (lc *loadCmd) SetFlags(f *flag.FlagSet) {
	f.SetOutput(lc.app.stderr)
	f.StringVar(&lc.kind, "kind", "op", "loader kind: op, fs or lib")
	f.IntVar(&lc.parallel, "parallel", 0, "load up to N libraries concurrently (0 loads in order)")
	f.BoolVar(&lc.keepGoing, "k", false, "keep loading after a failure")
}

func (lc *loadCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprint(lc.app.stderr, "Missing library name.\n\n"+lc.Usage())
		f.PrintDefaults()
		return subcommands.ExitUsageError
	}

	kind, err := extload.ParseLoaderKind(lc.kind)
	if err != nil {
		fmt.Fprintf(lc.app.stderr, "extload: %v\n", err)
		return subcommands.ExitUsageError
	}

	loader := lc.app.mustLoader()
	if loader == nil {
		return subcommands.ExitFailure
	}

	requests := make([]extload.Request, 0, f.NArg())
	for _, name := range f.Args() {
		requests = append(requests, extload.Request{Name: name, Kind: kind})
	}

	var results []extload.LoadResult
	if lc.parallel > 0 {
		results, err = loader.LoadConcurrently(ctx, requests, lc.parallel)
	} else {
		results, err = loader.LoadAll(ctx, requests, !lc.keepGoing)
	}

	for _, res := range results {
		if res.Err != nil {
			if errors.Is(res.Err, context.Canceled) {
				continue
			}
			fmt.Fprintf(lc.app.stderr, "%s: %v\n", res.Request.Name, res.Err)
			continue
		}
		fmt.Fprintf(lc.app.stdout, "%s: loaded %s\n", res.Request.Name, res.Library.Path)
	}

	if err != nil {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
