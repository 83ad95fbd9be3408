// Package extload resolves and loads variant-specific native libraries.
//
// A distribution may ship several mutually exclusive builds of the same
// shared library side by side, told apart by a filename suffix:
//
//	_kv_variable_ops.so          standard build
//	_kv_variable_ops.so.pai      proprietary distribution
//	_kv_variable_ops.so.xdl      proprietary distribution with XDL
//	_kv_variable_ops.so.eflops   proprietary GPU distribution
//
// This package decides which build to load, lists where to look for it and
// loads it through a pluggable loader function.
//
// # Basic Usage
//
// Create a loader bound to the directory that holds the libraries:
//
//	loader := extload.NewLoader("/opt/tfplus/kv_variable/python/ops",
//	    extload.WithProbes(
//	        extload.VersionMarker(frameworkVersion, "pai"),
//	        &extload.ToolProbe{Name: "nvidia-smi"},
//	        &extload.LibraryProbe{Names: []string{"libxdl.so"}},
//	    ),
//	)
//
//	lib, err := loader.LoadOpKernel("_kv_variable_ops.so")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Architecture
//
//	Loader
//	├── Resolver (ChainResolver, RuleResolver)  variant for the environment
//	├── candidate paths                         module dir, then data root
//	└── KindRegistry                            LoadFunc per LoaderKind
//	    ├── OpKernel
//	    ├── FilesystemPlugin
//	    └── SharedLibrary
//
// # Environment
//
//   - SO_SUFFIX: when non-empty, used verbatim as the variant suffix
//   - TFPLUS_DATAPATH: when set, adds a second candidate under this root
//
// Both names can be changed with WithSuffixEnv and WithDataRootEnv.
//
// # Errors
//
// A missing candidate is recoverable and the next one is tried. A candidate
// that exists but fails to load stops the search with a *LoadError. When all
// candidates are missing, a *ResolutionExhaustedError lists every path and
// cause in one message.
//
// # Platform Support
//
// Default loaders use dlopen through github.com/ebitengine/purego on Linux,
// macOS, FreeBSD and NetBSD, with or without cgo. On other platforms they
// report every existing candidate as a load failure; custom LoadFuncs work
// everywhere.
package extload
