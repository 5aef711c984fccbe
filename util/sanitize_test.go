package util

import "testing"

func TestSanitizeEnvValue(t *testing.T) {
	tests := map[string]string{
		`"sk-abc"`:   "sk-abc",
		`'sk-abc'`:   "sk-abc",
		"  sk-abc  ": "sk-abc",
		`" sk-abc "`: "sk-abc",
		`"`:          `"`,
		"":           "",
	}
	for in, want := range tests {
		if got := SanitizeEnvValue(in); got != want {
			t.Errorf("SanitizeEnvValue(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFileBase(t *testing.T) {
	tests := map[string]string{
		"/tmp/meeting.m4a":         "meeting",
		"/tmp/Reunión final.mp4":   "Reunión_final",
		"notes.v2.wav":             "notes.v2",
		"/tmp/.hidden":             "audio",
		"/":                        "_",
		"/x/recording-1700000.mp3": "recording-1700000",
	}
	for in, want := range tests {
		if got := FileBase(in); got != want {
			t.Errorf("FileBase(%q) = %q, want %q", in, got, want)
		}
	}
}
