//go:build !(darwin || freebsd || linux || netbsd)

package extload

import (
	"fmt"
	"runtime"
)

func dlopen(path string) (Handle, error) {
	if err := checkCandidate(path); err != nil {
		return 0, err
	}
	return 0, fmt.Errorf("loading native libraries is not supported on %s", runtime.GOOS)
}
