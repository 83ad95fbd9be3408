package extload

import (
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// execLookPath is swapped in tests.
var execLookPath = exec.LookPath

// Probe is a boolean feature oracle consulted by resolvers.
//
// Probes answer questions such as "is this the GPU build" or "is the
// optional package installed". Their implementation is outside the resolver's
// contract; the resolver only needs the answer.
//
// # Thread Safety
//
// Probes may be called concurrently from several loads and should not keep
// mutable state.
type Probe interface {
	Available() bool
}

// ProbeFunc adapts a function to Probe.
type ProbeFunc func() bool

// Available implements Probe.
func (f ProbeFunc) Available() bool {
	return f != nil && f()
}

// Static returns a Probe with a fixed answer.
func Static(available bool) Probe {
	return ProbeFunc(func() bool { return available })
}

// VersionMarker returns a Probe that reports whether version contains marker,
// ignoring case.
//
// The proprietary distribution is recognised by a marker in its framework
// version string, for example "1.15.5-PAI2105" with marker "pai".
//
//	dist := extload.VersionMarker(frameworkVersion, "pai")
func VersionMarker(version, marker string) Probe {
	if marker == "" {
		return Static(false)
	}
	found := strings.Contains(strings.ToLower(version), strings.ToLower(marker))
	return Static(found)
}

// ToolProbe reports whether a binary is available in PATH.
//
// The primary Name is tried first, then each alternative in order. A GPU
// build is commonly detected through its driver tooling:
//
//	gpu := &extload.ToolProbe{
//	    Name:         "nvidia-smi",
//	    Alternatives: []string{"rocm-smi"},
//	}
type ToolProbe struct {
	// Name is the primary binary name.
	Name string

	// Alternatives satisfy the probe when Name is missing.
	Alternatives []string
}

// Available implements Probe.
func (p *ToolProbe) Available() bool {
	if p.Name != "" {
		if _, err := execLookPath(p.Name); err == nil {
			return true
		}
	}
	for _, alt := range p.Alternatives {
		if _, err := execLookPath(alt); err == nil {
			return true
		}
	}
	return false
}

// LibraryProbe reports whether any of the named libraries exists as a
// regular file in one of the search directories.
//
// It stands in for "is the optional package importable": the package is
// considered present when its shared library can be found.
//
// # Search Directories
//
// When Dirs is empty the platform library path variable is used:
//   - Linux, FreeBSD: LD_LIBRARY_PATH
//   - macOS: DYLD_LIBRARY_PATH
//
// Entries are split on the OS list separator; empty entries are skipped.
type LibraryProbe struct {
	Names []string
	Dirs  []string
	Env   Environment // Defaults to OSEnvironment
}

// Available implements Probe.
func (p *LibraryProbe) Available() bool {
	for _, dir := range p.searchDirs() {
		for _, name := range p.Names {
			if fileExists(filepath.Join(dir, name)) {
				return true
			}
		}
	}
	return false
}

func (p *LibraryProbe) searchDirs() []string {
	if len(p.Dirs) > 0 {
		return p.Dirs
	}

	env := p.Env
	if env == nil {
		env = OSEnvironment{}
	}

	key := "LD_LIBRARY_PATH"
	if runtime.GOOS == "darwin" {
		key = "DYLD_LIBRARY_PATH"
	}

	var dirs []string
	for _, dir := range filepath.SplitList(getenv(env, key)) {
		if dir != "" {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// AllOf returns a Probe that is available only when every probe is.
// With no probes it reports false.
func AllOf(probes ...Probe) Probe {
	return ProbeFunc(func() bool {
		if len(probes) == 0 {
			return false
		}
		for _, p := range probes {
			if !probed(p) {
				return false
			}
		}
		return true
	})
}

// AnyOf returns a Probe that is available when at least one probe is.
func AnyOf(probes ...Probe) Probe {
	return ProbeFunc(func() bool {
		for _, p := range probes {
			if probed(p) {
				return true
			}
		}
		return false
	})
}

// EnvProbe reports whether key is set to a non-empty value in env at the
// time of the call. A nil env reads the process environment.
func EnvProbe(env Environment, key string) Probe {
	if env == nil {
		env = OSEnvironment{}
	}
	return ProbeFunc(func() bool {
		return getenv(env, key) != ""
	})
}
