package config

import (
	"fmt"
)

// Validate checks a parsed config for errors: one early-return per
// violated rule, each message naming the offending field.
func Validate(cfg *Config) error {
	if len(cfg.Phases) == 0 {
		return fmt.Errorf("config: at least one phase is required")
	}
	if cfg.Retries < 0 {
		return fmt.Errorf("config: 'retries' must be >= 0")
	}

	seen := make(map[string]bool, len(cfg.Phases))
	for i := range cfg.Phases {
		p := &cfg.Phases[i]

		if p.Name == "" {
			return fmt.Errorf("config: phase %d: name must not be empty", i+1)
		}
		if seen[p.Name] {
			return fmt.Errorf("config: duplicate phase name %q", p.Name)
		}
		seen[p.Name] = true

		if len(p.States) == 0 {
			return fmt.Errorf("config: phase %q: 'states' must be non-empty", p.Name)
		}
		stateSeen := make(map[string]bool, len(p.States))
		for _, s := range p.States {
			if s == "" {
				return fmt.Errorf("config: phase %q: states: empty state name", p.Name)
			}
			if s == FailedState {
				return fmt.Errorf("config: phase %q: states: %q is reserved and may not be declared", p.Name, FailedState)
			}
			if stateSeen[s] {
				return fmt.Errorf("config: phase %q: states: duplicate state %q", p.Name, s)
			}
			stateSeen[s] = true
		}

		if p.Mode == "" {
			p.Mode = ModeTransitions
		}
		if p.Mode != ModeTransitions && p.Mode != ModeEntity {
			return fmt.Errorf("config: phase %q: unknown mode %q (must be %q or %q)", p.Name, p.Mode, ModeTransitions, ModeEntity)
		}

		for j, tr := range p.Transitions {
			if !p.HasState(tr.From) {
				return fmt.Errorf("config: phase %q: transition %d: 'from' %q is not a declared state", p.Name, j+1, tr.From)
			}
			if !p.HasState(tr.To) {
				return fmt.Errorf("config: phase %q: transition %d: 'to' %q is not a declared state", p.Name, j+1, tr.To)
			}
			if tr.Stdin != "" && tr.Cmd == "" {
				return fmt.Errorf("config: phase %q: transition %d: 'stdin' requires 'cmd'", p.Name, j+1)
			}
			if tr.Jump != "" && cfg.PhaseIndex(tr.Jump) < 0 {
				return fmt.Errorf("config: phase %q: transition %d: jump %q references an unknown phase", p.Name, j+1, tr.Jump)
			}
		}

		for k, hs := range p.AllCompletions() {
			if hs.Cmd == "" {
				return fmt.Errorf("config: phase %q: completion %d: 'cmd' is required", p.Name, k+1)
			}
		}
	}

	if cfg.Init != nil && cfg.Init.Cmd == "" {
		return fmt.Errorf("config: init: 'cmd' is required")
	}

	return nil
}

