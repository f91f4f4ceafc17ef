package hookenv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/andrew-pa/dirorch/internal/config"
	"github.com/andrew-pa/dirorch/internal/store"
)

func TestMangleDirVar(t *testing.T) {
	cases := []struct{ phase, state, want string }{
		{"task-items", "in.progress", "DIR_TASK_ITEMS_IN_PROGRESS"},
		{"gather", "new", "DIR_GATHER_NEW"},
		{"a b", "c/d", "DIR_A_B_C_D"},
	}
	for _, c := range cases {
		if got := MangleDirVar(c.phase, c.state); got != c.want {
			t.Errorf("MangleDirVar(%q, %q) = %q, want %q", c.phase, c.state, got, c.want)
		}
	}
}

func TestComposerBaseIncludesDirVarsAndUserEnv(t *testing.T) {
	root := t.TempDir()
	s := store.New(root)
	phases := []config.Phase{{Name: "gather", States: []string{"new", "done"}}}
	if err := s.EnsureDirs(phases); err != nil {
		t.Fatalf("EnsureDirs: %v", err)
	}
	c := NewComposer(s, phases, map[string]string{"FOO": "bar"})
	env := c.Base()

	if env["FOO"] != "bar" {
		t.Fatalf("expected user env FOO=bar, got %q", env["FOO"])
	}
	wantDir, _ := filepath.Abs(s.StateDir("gather", "new"))
	if env["DIR_GATHER_NEW"] != wantDir {
		t.Fatalf("expected DIR_GATHER_NEW=%q, got %q", wantDir, env["DIR_GATHER_NEW"])
	}
	if _, ok := env["DIR_GATHER__FAILED"]; ok {
		t.Fatal("_failed directory must not be exposed as a variable")
	}
	if _, ok := env[InputEntityVar]; ok {
		t.Fatal("Base() must not include INPUT_ENTITY")
	}
}

func TestComposerUserEnvOverwritesProcessEnv(t *testing.T) {
	os.Setenv("DIRORCH_TEST_VAR", "fromprocess")
	defer os.Unsetenv("DIRORCH_TEST_VAR")

	root := t.TempDir()
	s := store.New(root)
	c := NewComposer(s, nil, map[string]string{"DIRORCH_TEST_VAR": "fromuser"})
	env := c.Base()
	if env["DIRORCH_TEST_VAR"] != "fromuser" {
		t.Fatalf("expected user env to win, got %q", env["DIRORCH_TEST_VAR"])
	}
}

func TestForTransitionSetsInputEntity(t *testing.T) {
	root := t.TempDir()
	s := store.New(root)
	phases := []config.Phase{{Name: "gather", States: []string{"new"}}}
	if err := s.EnsureDirs(phases); err != nil {
		t.Fatalf("EnsureDirs: %v", err)
	}
	entityPath := s.EntityPath("gather", "new", "a.txt")
	if err := os.WriteFile(entityPath, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	c := NewComposer(s, phases, nil)
	env := c.ForTransition(entityPath)
	want, _ := filepath.Abs(entityPath)
	if env[InputEntityVar] != want {
		t.Fatalf("expected INPUT_ENTITY=%q, got %q", want, env[InputEntityVar])
	}
}

func TestTemplateContextExcludesProcessEnv(t *testing.T) {
	os.Setenv("DIRORCH_TEST_VAR", "fromprocess")
	defer os.Unsetenv("DIRORCH_TEST_VAR")

	root := t.TempDir()
	s := store.New(root)
	phases := []config.Phase{{Name: "gather", States: []string{"new"}}}
	if err := s.EnsureDirs(phases); err != nil {
		t.Fatalf("EnsureDirs: %v", err)
	}
	c := NewComposer(s, phases, map[string]string{"FOO": "bar"})
	ctx := c.TemplateContext()

	if _, ok := ctx["DIRORCH_TEST_VAR"]; ok {
		t.Fatal("TemplateContext() must not expose the inherited process environment")
	}
	if ctx["FOO"] != "bar" {
		t.Fatalf("expected user env FOO=bar, got %q", ctx["FOO"])
	}
	wantDir, _ := filepath.Abs(s.StateDir("gather", "new"))
	if ctx["DIR_GATHER_NEW"] != wantDir {
		t.Fatalf("expected DIR_GATHER_NEW=%q, got %q", wantDir, ctx["DIR_GATHER_NEW"])
	}
	if _, ok := ctx[InputEntityVar]; ok {
		t.Fatal("TemplateContext() must not include INPUT_ENTITY")
	}
}

func TestToEnvSlice(t *testing.T) {
	slice := ToEnvSlice(map[string]string{"A": "1"})
	if len(slice) != 1 || slice[0] != "A=1" {
		t.Fatalf("unexpected slice: %v", slice)
	}
}
