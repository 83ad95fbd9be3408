package extload

import (
	"fmt"
	"sort"
)

// KindRegistry maps each LoaderKind to the LoadFunc used when a Request does
// not carry its own.
//
// # Usage
//
// Create a registry with the platform loaders:
//
//	registry := extload.NewKindRegistry()
//
// Or start empty and register custom loaders, for example in tests:
//
//	registry := &extload.KindRegistry{}
//	registry.Register(extload.OpKernel, fakeLoad)
//
// # Thread Safety
//
// KindRegistry is NOT thread-safe for registration.
// Register all loaders before concurrent use.
// After registration, LoaderFor is safe to call concurrently.
type KindRegistry struct {
	loaders map[LoaderKind]LoadFunc
}

// NewKindRegistry creates a registry with the platform loaders registered
// for OpKernel, FilesystemPlugin and SharedLibrary.
//
// On platforms without dlopen support the registered loaders return an
// error for every path.
func NewKindRegistry() *KindRegistry {
	registry := &KindRegistry{}

	registry.Register(OpKernel, loadOpKernel)
	registry.Register(FilesystemPlugin, loadFilesystemPlugin)
	registry.Register(SharedLibrary, loadSharedLibrary)

	return registry
}

// Register sets the loader for kind, replacing any previous one.
//
// Not thread-safe. Register all loaders before concurrent use.
func (r *KindRegistry) Register(kind LoaderKind, fn LoadFunc) {
	if r.loaders == nil {
		r.loaders = make(map[LoaderKind]LoadFunc)
	}
	r.loaders[kind] = fn
}

// LoaderFor returns the loader registered for kind.
func (r *KindRegistry) LoaderFor(kind LoaderKind) (LoadFunc, error) {
	if fn, ok := r.loaders[kind]; ok && fn != nil {
		return fn, nil
	}
	return nil, fmt.Errorf("no loader registered for kind: %s", kind)
}

// Kinds returns the registered kinds in ascending order.
func (r *KindRegistry) Kinds() []LoaderKind {
	kinds := make([]LoaderKind, 0, len(r.loaders))
	for kind := range r.loaders {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
