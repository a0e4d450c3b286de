package version

import "testing"

func TestString(t *testing.T) {
	v, sha, bt := Version, GitSHA, BuildTime
	defer func() { Version, GitSHA, BuildTime = v, sha, bt }()

	Version, GitSHA, BuildTime = "0.3.1", "abc1234", "2024-03-01T09:00:00Z"
	want := "0.3.1 (git abc1234, built 2024-03-01T09:00:00Z)"
	if got := String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
