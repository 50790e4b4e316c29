package cmd

import (
	"testing"
	"time"
)

func TestReadOnlyFlags_IncludesTUI(t *testing.T) {
	hasTUI := false
	for _, f := range ReadOnlyFlags() {
		if f.Names()[0] == "tui" {
			hasTUI = true
			break
		}
	}
	if !hasTUI {
		t.Error("ReadOnlyFlags should include --tui flag for explicit error handling")
	}
}

func TestRunCommand_Shape(t *testing.T) {
	cmd := RunCommand()
	if cmd.Name != "run" {
		t.Errorf("name = %q, want run", cmd.Name)
	}

	want := map[string]bool{
		"session-id":      false,
		"worker":          false,
		"config":          false,
		"shim":            false,
		"capture-backend": false,
		"adapter":         false,
	}
	for _, f := range cmd.Flags {
		if _, ok := want[f.Names()[0]]; ok {
			want[f.Names()[0]] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("run command missing --%s flag", name)
		}
	}
}

func TestFirstOf(t *testing.T) {
	if got := firstOf("", "b", "c"); got != "b" {
		t.Errorf("firstOf = %q, want b", got)
	}
	if got := firstOf("", ""); got != "" {
		t.Errorf("firstOf = %q, want empty", got)
	}
}

func TestFirstDuration(t *testing.T) {
	if got := firstDuration(0, 2*time.Second); got != 2*time.Second {
		t.Errorf("firstDuration = %v, want 2s", got)
	}
	if got := firstDuration(time.Second, 2*time.Second); got != time.Second {
		t.Errorf("firstDuration = %v, want 1s", got)
	}
}

func TestFirstSlice(t *testing.T) {
	if got := firstSlice(nil, []string{"a"}); len(got) != 1 || got[0] != "a" {
		t.Errorf("firstSlice = %v", got)
	}
	if got := firstSlice(nil, nil); got != nil {
		t.Errorf("firstSlice = %v, want nil", got)
	}
}
