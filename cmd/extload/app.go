package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	extload "github.com/contriboss/extload-go"
)

// app holds the top-level flags shared by every subcommand.
type app struct {
	configPath string    // YAML configuration file
	moduleDir  string    // directory holding the libraries
	verbose    bool      // log every load attempt
	stdout     io.Writer // where command output goes
	stderr     io.Writer // where diagnostics and logs go
}

func (a *app) setFlags(f *flag.FlagSet) {
	f.StringVar(&a.configPath, "config", "", "YAML configuration file")
	f.StringVar(&a.moduleDir, "dir", "", "directory holding the libraries (overrides module_dir)")
	f.BoolVar(&a.verbose, "v", false, "log every load attempt to stderr")
}

// newLoader builds a Loader from the configuration file and flags. -dir wins
// over module_dir; with neither, the working directory is used.
func (a *app) newLoader() (*extload.Loader, error) {
	var opts []extload.Option
	moduleDir := a.moduleDir

	if a.configPath != "" {
		cfg, err := extload.LoadFileConfig(a.configPath)
		if err != nil {
			return nil, err
		}
		cfgOpts, err := cfg.Options()
		if err != nil {
			return nil, fmt.Errorf("invalid configuration %s: %w", a.configPath, err)
		}
		opts = append(opts, cfgOpts...)
		if moduleDir == "" {
			moduleDir = cfg.ModuleDir
		}
	}

	if moduleDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		moduleDir = wd
	}

	if a.verbose {
		handler := slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
		opts = append(opts, extload.WithLogger(extload.NewSlogLogger(slog.New(handler))))
	}

	return extload.NewLoader(moduleDir, opts...), nil
}

// mustLoader is newLoader for Execute methods: on failure it reports the
// error and returns nil.
func (a *app) mustLoader() *extload.Loader {
	loader, err := a.newLoader()
	if err != nil {
		fmt.Fprintf(a.stderr, "extload: %v\n", err)
		return nil
	}
	return loader
}
