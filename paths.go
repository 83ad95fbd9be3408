package extload

import (
	"os"
	"path/filepath"
	"strings"
)

// statFile is swapped in tests.
var statFile = os.Stat

// locations holds the directories a load searches.
type locations struct {
	moduleDir   string // Directory of the calling module
	packageRoot string // Root the module directory is relative to
	dataRoot    string // Alternate data root, empty when unset
}

// candidatePaths builds the ordered candidate list for name.
//
// # Order
//
//  1. Primary location: moduleDir/name, suffixed when that file exists
//  2. Alternate location (only when dataRoot is set): the bare primary path
//     re-rooted under dataRoot, suffixed when that file exists
//
// The suffix check is made once per location. A location never contributes
// both its suffixed and its bare path.
func candidatePaths(loc locations, name string, variant Variant) []string {
	primary := filepath.Join(loc.moduleDir, name)
	candidates := []string{chooseVariantPath(primary, variant)}

	if loc.dataRoot != "" {
		alternate := relocate(loc.dataRoot, loc.packageRoot, primary, name)
		candidates = append(candidates, chooseVariantPath(alternate, variant))
	}

	return candidates
}

// chooseVariantPath returns path+suffix when a regular file exists there and
// path otherwise.
func chooseVariantPath(path string, variant Variant) string {
	suffix := variant.Suffix()
	if suffix == "" {
		return path
	}
	if fileExists(path + suffix) {
		return path + suffix
	}
	return path
}

// relocate re-roots path under dataRoot using its position relative to
// packageRoot.
//
// With packageRoot "/src" and dataRoot "bazel-bin", the primary path
// "/src/tfplus/oss/python/ops/_oss_ops.so" becomes
// "bazel-bin/tfplus/oss/python/ops/_oss_ops.so". A path that cannot be
// expressed below packageRoot falls back to dataRoot/name.
func relocate(dataRoot, packageRoot, path, name string) string {
	rel := relativeTo(packageRoot, path)
	if rel == "" {
		rel = name
	}
	return filepath.Join(dataRoot, rel)
}

func relativeTo(root, path string) string {
	if root == "" {
		return ""
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return ""
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return ""
	}

	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return ""
	}
	return safeRelativePath(rel)
}

// safeRelativePath returns "" for paths that escape their root.
func safeRelativePath(path string) string {
	clean := filepath.Clean(path)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return ""
	}
	return clean
}

func fileExists(path string) bool {
	info, err := statFile(path)
	return err == nil && info.Mode().IsRegular()
}

// workingDir returns the process working directory, or "" on error.
func workingDir() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return wd
}
