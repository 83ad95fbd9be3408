package extload

import (
	"errors"
	"fmt"
	"io/fs"
)

// checkCandidate returns a NotFoundError when nothing loadable exists at
// path. Any other stat failure is returned unchanged and is fatal.
func checkCandidate(path string) error {
	info, err := statFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &NotFoundError{Path: path, Err: err}
		}
		return err
	}
	if !info.Mode().IsRegular() {
		return &NotFoundError{Path: path, Err: fmt.Errorf("not a regular file")}
	}
	return nil
}

func loadOpKernel(path string) (Handle, error) {
	return dlopen(path)
}

func loadSharedLibrary(path string) (Handle, error) {
	return dlopen(path)
}

// loadFilesystemPlugin loads path for its registration side effect only.
func loadFilesystemPlugin(path string) (Handle, error) {
	if _, err := dlopen(path); err != nil {
		return 0, err
	}
	return 0, nil
}
