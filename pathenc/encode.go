// Package pathenc implements the bidirectional mapping between workspace
// paths and the upstream CLI's project directory names, plus discovery of
// session logs and projects under the CLI's state root.
package pathenc

import "strings"

// Encode maps an absolute workspace path to the single directory name the
// upstream CLI uses under its projects root. Every path separator becomes
// "-"; a "." immediately after a separator also becomes "-", so "/." encodes
// to "--"; every "_" also becomes "-" (a lossy, known collision — see
// Decode).
//
//	Encode("/Users/name/project")    == "-Users-name-project"
//	Encode("/Users/name/.hidden")    == "-Users-name--hidden"
//	Encode("/Users/name/with_under") == "-Users-name-with-under"
func Encode(path string) string {
	var b strings.Builder
	b.Grow(len(path) + 4)

	afterSep := true // the leading position counts as "after a separator"
	for _, r := range path {
		switch {
		case r == '/' || r == '\\':
			b.WriteByte('-')
			afterSep = true
		case r == '.' && afterSep:
			b.WriteByte('-')
			afterSep = false
		case r == '_':
			b.WriteByte('-')
			afterSep = false
		default:
			b.WriteRune(r)
			afterSep = false
		}
	}
	return b.String()
}

// Decode best-effort reverses Encode for display purposes only. It is not
// reversible for paths that contained "_" (Encode maps both "/" and "_" to
// "-") and must never be used to make functional decisions — callers that
// need to locate a project directory must re-derive it from the caller's
// absolute path via Encode, not by decoding a directory name.
func Decode(encoded string) string {
	if encoded == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(encoded))

	runes := []rune(encoded)
	for i := 0; i < len(runes); i++ {
		if runes[i] == '-' {
			if i+1 < len(runes) && runes[i+1] == '-' {
				b.WriteByte('/')
				b.WriteByte('.')
				i++
				continue
			}
			b.WriteByte('/')
			continue
		}
		b.WriteRune(runes[i])
	}
	return b.String()
}
