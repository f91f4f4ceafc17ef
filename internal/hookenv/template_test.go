package hookenv

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRenderStdinSubstitutesContext(t *testing.T) {
	out, err := RenderStdin("hello {{.NAME}}", map[string]string{"NAME": "world"}, t.TempDir())
	if err != nil {
		t.Fatalf("RenderStdin: %v", err)
	}
	if out != "hello world" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestRenderStdinReadFileRelativeToRoot(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "note.txt"), []byte("the content"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	out, err := RenderStdin(`{{read_file "note.txt"}}`, map[string]string{}, root)
	if err != nil {
		t.Fatalf("RenderStdin: %v", err)
	}
	if out != "the content" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestRenderStdinIncludeFileAlias(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "note.txt"), []byte("aliased"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	out, err := RenderStdin(`{{include_file "note.txt"}}`, map[string]string{}, root)
	if err != nil {
		t.Fatalf("RenderStdin: %v", err)
	}
	if out != "aliased" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestRenderStdinReadFileMissing(t *testing.T) {
	_, err := RenderStdin(`{{read_file "nope.txt"}}`, map[string]string{}, t.TempDir())
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestRenderStdinParseError(t *testing.T) {
	_, err := RenderStdin("{{.NAME", map[string]string{}, t.TempDir())
	if err == nil {
		t.Fatal("expected parse error")
	}
}
