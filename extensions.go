package extload

import (
	"fmt"
	"sort"
)

// Extension is a native extension made of one or more libraries that must be
// loaded in a fixed order.
type Extension struct {
	Name        string
	Description string
	Steps       []Step
}

// Step loads one library of an extension.
//
// EnvDefaults are applied before the library is loaded, and only for keys
// that are not already set. They require the Loader's Environment to
// implement EnvironmentSetter.
type Step struct {
	Library     string
	Kind        LoaderKind
	EnvDefaults map[string]string
}

// Built-in extensions for the storage filesystem plugins.
var (
	// OSSFileSystem registers the object storage service filesystem.
	OSSFileSystem = Extension{
		Name:        "oss",
		Description: "Object storage service filesystem",
		Steps: []Step{
			{Library: "_oss_ops.so", Kind: FilesystemPlugin},
		},
	}

	// PanguFileSystem registers the Pangu distributed filesystem.
	PanguFileSystem = Extension{
		Name:        "pangu",
		Description: "Pangu distributed filesystem",
		Steps: []Step{
			{Library: "_pangu_ops.so", Kind: FilesystemPlugin},
		},
	}

	// DFSFileSystem registers the DFS filesystem. The client library must be
	// in the global namespace before the plugin loads, and the client reads
	// "_" to identify the calling program.
	DFSFileSystem = Extension{
		Name:        "dfs",
		Description: "DFS distributed filesystem",
		Steps: []Step{
			{Library: "libzdfs.so", Kind: SharedLibrary},
			{Library: "_dfs_ops.so", Kind: FilesystemPlugin, EnvDefaults: map[string]string{"_": "tfplus"}},
		},
	}
)

// KnownLibraries lists the library names shipped with the distribution.
var KnownLibraries = []string{
	"libtfplus.so",
	"libtfplus_opdef.so",
	"_antfin_ops.so",
	"_dataset_ops.so",
	"_decode_ops.so",
	"libzdfs.so",
	"_dfs_ops.so",
	"_feature_column_ext_ops.so",
	"_kv_variable_ops.so",
	"_oss_ops.so",
	"_pangu_ops.so",
	"_zero_out_ops.so",
	"_string_to_number_ext_ops.so",
	"_grappler.so",
}

// IsKnownLibrary reports whether name is one of KnownLibraries.
func IsKnownLibrary(name string) bool {
	for _, known := range KnownLibraries {
		if known == name {
			return true
		}
	}
	return false
}

var builtinExtensions = map[string]Extension{
	OSSFileSystem.Name:   OSSFileSystem,
	PanguFileSystem.Name: PanguFileSystem,
	DFSFileSystem.Name:   DFSFileSystem,
}

// LookupExtension returns the built-in extension called name.
func LookupExtension(name string) (Extension, error) {
	ext, ok := builtinExtensions[name]
	if !ok {
		return Extension{}, fmt.Errorf("unknown extension: %q", name)
	}
	return ext, nil
}

// ExtensionNames returns the names of the built-in extensions, sorted.
func ExtensionNames() []string {
	names := make([]string, 0, len(builtinExtensions))
	for name := range builtinExtensions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadExtension runs the steps of ext in order.
//
// Returns the libraries loaded so far and the first error. A failed step
// stops the extension; later steps are not attempted.
func (l *Loader) LoadExtension(ext Extension) ([]*Library, error) {
	var loaded []*Library

	for _, step := range ext.Steps {
		if err := l.applyEnvDefaults(step.EnvDefaults); err != nil {
			return loaded, fmt.Errorf("extension %s: %w", ext.Name, err)
		}

		lib, err := l.Load(Request{Name: step.Library, Kind: step.Kind})
		if err != nil {
			return loaded, fmt.Errorf("extension %s: %w", ext.Name, err)
		}
		loaded = append(loaded, lib)
	}

	return loaded, nil
}

func (l *Loader) applyEnvDefaults(defaults map[string]string) error {
	if len(defaults) == 0 {
		return nil
	}

	setter, ok := l.env.(EnvironmentSetter)
	if !ok {
		return fmt.Errorf("environment does not support setting defaults")
	}

	keys := make([]string, 0, len(defaults))
	for key := range defaults {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if _, set := l.env.Lookup(key); set {
			continue
		}
		if err := setter.Setenv(key, defaults[key]); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}
	return nil
}
