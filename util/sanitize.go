package util

import (
	"path/filepath"
	"strings"
	"unicode"
)

// SanitizeEnvValue cleans a value read from the environment or a .env file
// by removing surrounding quotes and whitespace.
func SanitizeEnvValue(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			s = s[1 : len(s)-1]
		}
	}
	return strings.TrimSpace(s)
}

// FileBase returns the file name of p without its extension, with every
// rune outside letters, digits, '-', '_' and '.' replaced by '_'. An empty
// result becomes "audio".
func FileBase(p string) string {
	base := filepath.Base(p)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.' {
			return r
		}
		return '_'
	}, base)
	base = strings.Trim(base, ".")
	if base == "" {
		return "audio"
	}
	return base
}
