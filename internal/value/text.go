package value

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// CaseMode selects case-sensitive or case-insensitive text matching.
type CaseMode uint8

const (
	CaseSensitive CaseMode = iota
	CaseInsensitive
)

func (m CaseMode) String() string {
	if m == CaseInsensitive {
		return "ci"
	}
	return "cs"
}

// Fold returns the case-folded form of s.
// ASCII input is lowered byte by byte. Anything else is NFC-normalized and then
// Unicode case folded.
func Fold(s string) string {
	if isASCII(s) {
		return strings.ToLower(s)
	}
	return cases.Fold().String(norm.NFC.String(s))
}

func (m CaseMode) apply(s string) string {
	if m == CaseInsensitive {
		return Fold(s)
	}
	return s
}

func textPair(a, b Value) (string, string, bool) {
	x, ok := a.(Text)
	if !ok {
		return "", "", false
	}
	y, ok := b.(Text)
	if !ok {
		return "", "", false
	}
	return string(x), string(y), true
}

// TextEq compares two Text values under mode. ok is false unless both are Text.
func TextEq(a, b Value, mode CaseMode) (match, ok bool) {
	x, y, ok := textPair(a, b)
	if !ok {
		return false, false
	}
	if mode == CaseSensitive {
		return x == y, true
	}
	// EqualFold is exact for ASCII and avoids allocating.
	if isASCII(x) && isASCII(y) {
		return strings.EqualFold(x, y), true
	}
	return Fold(x) == Fold(y), true
}

// TextContains reports whether b is a substring of a under mode.
func TextContains(a, b Value, mode CaseMode) (match, ok bool) {
	x, y, ok := textPair(a, b)
	if !ok {
		return false, false
	}
	return strings.Contains(mode.apply(x), mode.apply(y)), true
}

// TextStartsWith reports whether a begins with b under mode.
func TextStartsWith(a, b Value, mode CaseMode) (match, ok bool) {
	x, y, ok := textPair(a, b)
	if !ok {
		return false, false
	}
	return strings.HasPrefix(mode.apply(x), mode.apply(y)), true
}

// TextEndsWith reports whether a ends with b under mode.
func TextEndsWith(a, b Value, mode CaseMode) (match, ok bool) {
	x, y, ok := textPair(a, b)
	if !ok {
		return false, false
	}
	return strings.HasSuffix(mode.apply(x), mode.apply(y)), true
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
