package extload

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var nativeLibraryExtensions = []string{".so", ".dylib", ".bundle", ".dll"}

// NamedVariants lists the variants shipped by the proprietary distribution,
// in resolution priority order.
var NamedVariants = []Variant{VariantEFLOPS, VariantXDL, VariantPAI}

// HasLibraryExtension reports whether filename ends with a native library
// extension (.so, .dylib, .bundle, .dll), ignoring case.
//
// Variant suffixes are not extensions: "_oss_ops.so.pai" reports false. Use
// SplitVariant first to strip them.
func HasLibraryExtension(filename string) bool {
	lower := strings.ToLower(filename)
	for _, ext := range nativeLibraryExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// SplitVariant splits a named variant suffix off filename.
//
//	SplitVariant("_oss_ops.so.eflops") // "_oss_ops.so", VariantEFLOPS
//	SplitVariant("_oss_ops.so")        // "_oss_ops.so", VariantDefault
func SplitVariant(filename string) (string, Variant) {
	for _, v := range NamedVariants {
		if strings.HasSuffix(filename, v.Suffix()) {
			return strings.TrimSuffix(filename, v.Suffix()), v
		}
	}
	return filename, VariantDefault
}

// InstalledVariants returns the variants of name present as regular files
// in dir: VariantDefault for the bare file, then each of NamedVariants that
// exists, in priority order.
func InstalledVariants(dir, name string) []Variant {
	var found []Variant
	base := filepath.Join(dir, name)

	if fileExists(base) {
		found = append(found, VariantDefault)
	}
	for _, v := range NamedVariants {
		if fileExists(base + v.Suffix()) {
			found = append(found, v)
		}
	}
	return found
}

// InstalledLibrary is a native library found in a directory together with
// the variants of it that are present.
type InstalledLibrary struct {
	Name     string
	Variants []Variant
}

// ScanInstalled lists every native library in dir, suffixed variants
// grouped under their bare name. Entries without a library extension and
// anything that is not a regular file are ignored. Libraries are sorted by
// name and variants are ordered as in InstalledVariants.
func ScanInstalled(dir string) ([]InstalledLibrary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var names []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		base, _ := SplitVariant(entry.Name())
		if !HasLibraryExtension(base) || seen[base] {
			continue
		}
		seen[base] = true
		names = append(names, base)
	}
	sort.Strings(names)

	libs := make([]InstalledLibrary, 0, len(names))
	for _, name := range names {
		libs = append(libs, InstalledLibrary{Name: name, Variants: InstalledVariants(dir, name)})
	}
	return libs, nil
}
