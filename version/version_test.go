package version

import "testing"

func TestGet_LinkTimeValuesWin(t *testing.T) {
	origVersion, origCommit, origBuild := Version, GitCommit, BuildTime
	defer func() { Version, GitCommit, BuildTime = origVersion, origCommit, origBuild }()

	Version, GitCommit, BuildTime = "1.2.0", "abcdef0123", "2026-10-16T10:00:00Z"
	info := Get()
	if info.Version != "1.2.0" || info.BuildTime != "2026-10-16T10:00:00Z" {
		t.Errorf("unexpected info %+v", info)
	}
	if info.GitCommit != "abcdef0" {
		t.Errorf("expected short commit, got %q", info.GitCommit)
	}
}

func TestInfo_String(t *testing.T) {
	tests := []struct {
		info Info
		want string
	}{
		{Info{Version: "dev"}, "dev"},
		{Info{Version: "1.0.0", GitCommit: "abc1234"}, "1.0.0 (abc1234)"},
		{Info{Version: "1.0.0", GitCommit: "abc1234", IsDirty: true}, "1.0.0 (abc1234, dirty)"},
	}
	for _, tc := range tests {
		if got := tc.info.String(); got != tc.want {
			t.Errorf("got %q, want %q", got, tc.want)
		}
	}
}
