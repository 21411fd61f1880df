package motif

import "unicode/utf8"

// IsLowComplexity reports whether seq is an uninformative repeat:
// either a single symbol repeated (AAAA), or a 2-letter unit repeated at
// least twice with at most one extra letter on each end (ACAC, GACACACT).
//
// seq is expected to be upper case already. The empty string is not low
// complexity.
func IsLowComplexity(seq string) bool {
	return isHomopolymer(seq) || isRepeated2mer(seq)
}

// isHomopolymer compares runes, so a repeated multi-byte letter counts.
func isHomopolymer(seq string) bool {
	if seq == "" {
		return false
	}
	first, _ := utf8.DecodeRuneInString(seq)
	for _, r := range seq {
		if r != first {
			return false
		}
	}
	return true
}

// isRepeated2mer matches ^[A-Z]?([A-Z]{2})\1+[A-Z]?$.
func isRepeated2mer(seq string) bool {
	if len(seq) < 4 {
		return false
	}
	for i := 0; i < len(seq); i++ {
		if !isUpper(seq[i]) {
			return false
		}
	}
	for lead := 0; lead <= 1; lead++ {
		for trail := 0; trail <= 1; trail++ {
			if isUnitRepeat(seq[lead : len(seq)-trail]) {
				return true
			}
		}
	}
	return false
}

// isUnitRepeat reports whether core is two or more copies of core[:2].
func isUnitRepeat(core string) bool {
	if len(core) < 4 || len(core)%2 != 0 {
		return false
	}
	for i := 2; i < len(core); i++ {
		if core[i] != core[i%2] {
			return false
		}
	}
	return true
}

func isUpper(c byte) bool {
	return c >= 'A' && c <= 'Z'
}
