package hookenv

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// RenderStdin renders a stdin template against ctx (callers pass
// Composer.TemplateContext: user env and DIR_* variables, without the process
// environment or INPUT_ENTITY) plus a read_file/include_file helper that
// resolves relative paths against root.
func RenderStdin(tmplText string, ctx map[string]string, root string) (string, error) {
	tmpl, err := template.New("stdin").Funcs(stdinFuncs(root)).Parse(tmplText)
	if err != nil {
		return "", fmt.Errorf("hookenv: parsing stdin template: %w", err)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, ctx); err != nil {
		return "", fmt.Errorf("hookenv: rendering stdin template: %w", err)
	}
	return b.String(), nil
}

func stdinFuncs(root string) template.FuncMap {
	readFile := func(path string) (string, error) {
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read_file %s: %w", path, err)
		}
		return string(data), nil
	}
	return template.FuncMap{
		"read_file":    readFile,
		"include_file": readFile,
	}
}
