package extload

import "fmt"

// Variant identifies which compiled flavor of a shared library to prefer.
//
// A variant is the filename suffix appended to the logical library name on
// disk. For a logical name "_oss_ops.so":
//   - VariantDefault loads "_oss_ops.so"
//   - VariantPAI loads "_oss_ops.so.pai"
//   - VariantEFLOPS loads "_oss_ops.so.eflops"
//
// Override values taken from the environment are used verbatim, so a Variant
// is not restricted to the named constants.
type Variant string

// Named variants shipped by the proprietary distribution.
const (
	VariantDefault Variant = ""        // Standard build, no suffix
	VariantPAI     Variant = ".pai"    // Baseline proprietary distribution
	VariantXDL     Variant = ".xdl"    // Distribution with the optional XDL package present
	VariantEFLOPS  Variant = ".eflops" // GPU-enabled distribution
)

// Suffix returns the filename suffix for the variant.
func (v Variant) Suffix() string {
	return string(v)
}

// String returns a printable name; the default variant prints as "default".
func (v Variant) String() string {
	if v == VariantDefault {
		return "default"
	}
	return string(v)
}

// LoaderKind selects which native loading capability is used for a request.
type LoaderKind int

const (
	// OpKernel loads an op-kernel library and expects a non-zero handle.
	OpKernel LoaderKind = iota

	// FilesystemPlugin loads a filesystem plugin purely for its registration
	// side effect. No handle is expected; a nil error means success.
	FilesystemPlugin

	// SharedLibrary loads a plain dependency library into the global symbol
	// namespace so later op kernels can resolve against it.
	SharedLibrary
)

// RequiresHandle reports whether a successful load of this kind must return
// a non-zero Handle.
func (k LoaderKind) RequiresHandle() bool {
	return k != FilesystemPlugin
}

func (k LoaderKind) String() string {
	switch k {
	case OpKernel:
		return "op"
	case FilesystemPlugin:
		return "filesystem"
	case SharedLibrary:
		return "library"
	default:
		return fmt.Sprintf("LoaderKind(%d)", int(k))
	}
}

// ParseLoaderKind maps the textual kind names used by the CLI and config
// files back to a LoaderKind.
func ParseLoaderKind(s string) (LoaderKind, error) {
	switch s {
	case "op", "opkernel", "op-kernel":
		return OpKernel, nil
	case "fs", "filesystem", "filesystem-plugin":
		return FilesystemPlugin, nil
	case "lib", "library", "shared-library":
		return SharedLibrary, nil
	}
	return 0, fmt.Errorf("unknown loader kind: %q", s)
}

// Handle is the opaque value returned by a loader on success.
type Handle uintptr

// LoadFunc attempts to load the library at path.
//
// Implementations must return an error satisfying IsNotFound when nothing
// loadable exists at path. Any other error is treated as fatal by the Loader.
type LoadFunc func(path string) (Handle, error)

// Request describes a single load.
//
// Name must be a bare filename such as "_dfs_ops.so". It is joined to the
// search locations as-is; callers are trusted not to pass path separators.
type Request struct {
	Name     string     // Logical library name
	Kind     LoaderKind // Loader capability to use
	LoadFunc LoadFunc   // Optional override for the kind's default loader
}

// Attempt records one candidate path that was tried and why it was rejected.
type Attempt struct {
	Path string
	Err  error
}

func (a Attempt) String() string {
	if a.Err == nil {
		return a.Path
	}
	return fmt.Sprintf("%s: %v", a.Path, a.Err)
}

// Library is the outcome of a successful load.
//
// Attempts holds the candidates that were rejected with a not-found error
// before Path succeeded, in the order they were tried.
type Library struct {
	Name     string     // Logical library name that was requested
	Path     string     // Candidate path that loaded
	Kind     LoaderKind // Loader kind used
	Variant  Variant    // Variant resolved for this load
	Handle   Handle     // Zero for FilesystemPlugin
	Attempts []Attempt  // Rejected candidates, in order
	LoadID   string     // Correlates log events for this load
}
