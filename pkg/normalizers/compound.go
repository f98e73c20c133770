package normalizers

import "strings"

// compoundPrefixes are relational prefixes that get glued onto the following
// name in informal spelling (عبدالله vs عبد الله).
var compoundPrefixes = []string{"عبد", "ابن", "ابو", "ام", "بن"}

// corePrefixes are leading relational and tribal tokens stripped for
// core-token comparison.
var corePrefixes = []string{"ال", "آل", "بن", "ابن", "ابو", "أبو", "ام", "أم"}

// SplitCompoundName decomposes a glued compound name into [prefix, remainder]
// when the name starts with a known compound prefix with no separating space.
// Returns ok=false for spaced spellings and non-compound names.
func SplitCompoundName(raw string) (prefix, remainder string, ok bool) {
	name := NormalizeName(raw)
	if name == "" || strings.ContainsRune(name, ' ') {
		return "", "", false
	}

	for _, p := range compoundPrefixes {
		norm := NormalizeName(p)
		if strings.HasPrefix(name, norm) && len(name) > len(norm) {
			rest := name[len(norm):]
			// عبد alone binds to a divine attribute; require a remainder long
			// enough to be a real token rather than a suffix letter.
			if len([]rune(rest)) < 2 {
				continue
			}
			return norm, rest, true
		}
	}
	return "", "", false
}

// CoreName strips leading relational and tribal prefixes from a normalized
// name, returning the core token used for loose comparison. A name that is
// nothing but a prefix is returned unchanged.
func CoreName(raw string) string {
	name := NormalizeName(raw)
	tokens := strings.Fields(name)
	for len(tokens) > 1 {
		stripped := false
		for _, p := range corePrefixes {
			if tokens[0] == NormalizeName(p) {
				tokens = tokens[1:]
				stripped = true
				break
			}
		}
		if !stripped {
			break
		}
	}
	if len(tokens) == 0 {
		return name
	}

	// single-token names may still carry a glued article
	core := tokens[0]
	if len(tokens) == 1 {
		if trimmed := strings.TrimPrefix(core, "ال"); trimmed != core && len([]rune(trimmed)) >= 2 {
			core = trimmed
		}
	}
	return strings.Join(append([]string{core}, tokens[1:]...), " ")
}
