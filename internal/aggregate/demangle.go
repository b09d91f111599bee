package aggregate

import "github.com/ianlancetaylor/demangle"

// Demangle tries the host-native demangler first (ianlancetaylor/demangle's
// Rust-aware mode), and only on its failure falls back to plain Itanium
// C++ demangling. If both fail, the name passes through unchanged.
//
// Some mangled name schemes are ambiguous between conventions, so a name
// that demangles "successfully" under the wrong mode can still look wrong;
// the two-tier order favors Rust since that is the dominant guest toolchain
// this module targets.
func Demangle(raw string) string {
	if raw == "" {
		return raw
	}

	if out, err := demangle.ToString(raw, demangle.NoClones); err == nil {
		return out
	}

	if out, err := demangle.ToString(raw, demangle.NoClones, demangle.NoRust); err == nil {
		return out
	}

	return raw
}
