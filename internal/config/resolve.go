package config

import (
	"os"
	"path/filepath"
)

// ResolvePath turns a CLI `workflow` argument into a config file path. If
// arg names an existing file it is used as-is; otherwise it is treated as a
// logical workflow name and resolved to
// <config-home>/dirorch/workflows/<name>.yml, where config-home is
// $XDG_CONFIG_DIR if set, else <home>/.config.
func ResolvePath(arg string) (string, error) {
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		return arg, nil
	}

	configHome := os.Getenv("XDG_CONFIG_DIR")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "dirorch", "workflows", arg+".yml"), nil
}
