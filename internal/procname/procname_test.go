package procname

import (
	"os"
	"testing"
)

func TestCleanName(t *testing.T) {
	cases := map[string]string{
		"/usr/bin/bash":    "bash",
		"bash":             "bash",
		"powershell.exe":   "powershell",
		"":                 "",
		"/opt/tool.v2/bin": "bin",
	}
	for in, want := range cases {
		if got := cleanName(in); got != want {
			t.Errorf("cleanName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDeepestDescendantSelfNoChildren(t *testing.T) {
	// The current test process's own PID is guaranteed to exist and,
	// under a typical test runner, has no tracked children in
	// ps.Processes() accounting for this exercise, so the deepest
	// descendant search should at least not error.
	name, err := DeepestDescendant(os.Getpid())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = name
}
