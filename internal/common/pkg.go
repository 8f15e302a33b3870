package common

import "path"

// UnknownStr is the fallback rendering used by String() methods on enum-like
// values that are out of range.
const UnknownStr = "unknown"

// InterfaceTypeStr is the type spelling emitted when nothing more precise is
// known.
const InterfaceTypeStr = "any"

// PkgAlias returns the package alias (last element of path) for a given package path.
// Returns empty string if pkgPath is empty.
func PkgAlias(pkgPath string) string {
	if pkgPath == "" {
		return ""
	}

	return path.Base(pkgPath)
}
