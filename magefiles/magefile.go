//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default target to run when none is specified.
var Default = Check

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// TestNoCgo runs the unit tests with cgo disabled, which exercises the
// pure-Go dlopen path.
func TestNoCgo() error {
	return sh.RunWithV(map[string]string{"CGO_ENABLED": "0"}, "go", "test", "./...")
}

// Vet runs go vet.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Build compiles the extload command into bin/.
func Build() error {
	return sh.RunV("go", "build", "-o", "bin/extload", "./cmd/extload")
}

// Check runs vet and both test configurations.
func Check() {
	mg.Deps(Vet)
	mg.SerialDeps(Test, TestNoCgo)
}

// Clean removes build output.
func Clean() error {
	return sh.Rm("bin")
}
