//go:build darwin || freebsd || linux || netbsd

package extload

import (
	"fmt"

	"github.com/ebitengine/purego"
)

// dlopen loads path with RTLD_NOW|RTLD_GLOBAL so symbols of dependency
// libraries are visible to op kernels loaded later.
func dlopen(path string) (Handle, error) {
	if err := checkCandidate(path); err != nil {
		return 0, err
	}

	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return 0, fmt.Errorf("dlopen %s: %w", path, err)
	}
	return Handle(handle), nil
}
