// Package cliux holds terminal-output helpers for the dirorch CLI.
package cliux

import (
	"fmt"
	"io"

	"github.com/andrew-pa/dirorch/internal/config"
)

// ANSI color helpers.
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"
	Cyan  = "\033[36m"
)

// PrintDryRun writes the resolved phase/state/transition plan to w without
// touching the filesystem or running any hook.
func PrintDryRun(w io.Writer, cfg *config.Config, root string) {
	fmt.Fprintf(w, "\n%sDry run — %d phases, root %s:%s\n", Bold, len(cfg.Phases), root, Reset)
	for i, p := range cfg.Phases {
		fmt.Fprintf(w, "\n  %s%d.%s %s%s%s (%s)\n", Cyan, i+1, Reset, Bold, p.Name, Reset, p.Mode)
		fmt.Fprintf(w, "     states: %v\n", p.States)
		for _, tr := range p.Transitions {
			fmt.Fprintf(w, "     %s -> %s", tr.From, tr.To)
			if tr.Cmd != "" {
				fmt.Fprintf(w, "  cmd: %q", tr.Cmd)
			}
			if tr.Jump != "" {
				fmt.Fprintf(w, "  jump: %s", tr.Jump)
			}
			fmt.Fprintln(w)
		}
		for _, hs := range p.AllCompletions() {
			fmt.Fprintf(w, "     completion: %q\n", hs.Cmd)
		}
	}
	if cfg.Init != nil {
		fmt.Fprintf(w, "\n  %sinit:%s %q\n", Dim, Reset, cfg.Init.Cmd)
	}
	fmt.Fprintln(w)
}
