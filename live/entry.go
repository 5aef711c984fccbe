package live

import (
	"strings"
	"time"
)

// Languages handled by live mode.
const (
	Russian = "russian"
	Spanish = "spanish"
)

// Entry is one transcribed and translated segment.
type Entry struct {
	Time time.Time `json:"time"`
	// Source is the detected language of the speech, Russian or Spanish.
	Source  string `json:"source"`
	Russian string `json:"russian"`
	Spanish string `json:"spanish"`
}

// Valid reports whether the entry carries any text.
func (e Entry) Valid() bool {
	return strings.TrimSpace(e.Russian) != "" || strings.TrimSpace(e.Spanish) != ""
}

// String renders the source line first:
//
//	RU: привет
//	ES: hola
func (e Entry) String() string {
	ru := "RU: " + e.Russian
	es := "ES: " + e.Spanish
	if e.Source == Spanish {
		return es + "\n" + ru
	}
	return ru + "\n" + es
}

// Render joins entries with blank lines.
func Render(entries []Entry) string {
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = e.String()
	}
	return strings.Join(parts, "\n\n")
}

// IsRussian reports whether a detected language name or code is Russian.
func IsRussian(lang string) bool {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "russian", "ru", "rus":
		return true
	}
	return false
}
