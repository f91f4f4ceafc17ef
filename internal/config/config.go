// Package config parses and validates dirorch workflow documents.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ModeTransitions and ModeEntity are the two phase execution modes.
const (
	ModeTransitions = "transitions"
	ModeEntity      = "entity"

	// FailedState is the reserved per-phase quarantine directory name.
	// It is a constant, never a configurable value.
	FailedState = "_failed"

	defaultRetries = 3
)

// HookSpec is either a bare command string or a structured {cmd, stdin}
// mapping. Both forms decode into this type from YAML.
type HookSpec struct {
	Cmd   string
	Stdin string
}

// UnmarshalYAML accepts a scalar (the command) or a mapping with cmd/stdin.
func (h *HookSpec) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		h.Cmd = value.Value
		return nil
	case yaml.MappingNode:
		var raw struct {
			Cmd   string `yaml:"cmd"`
			Stdin string `yaml:"stdin"`
		}
		if err := value.Decode(&raw); err != nil {
			return fmt.Errorf("config: hook: %w", err)
		}
		h.Cmd = raw.Cmd
		h.Stdin = raw.Stdin
		return nil
	default:
		return fmt.Errorf("config: hook: must be a string or a mapping with 'cmd'/'stdin'")
	}
}

// Transition is a single transition rule within a phase.
type Transition struct {
	From  string `yaml:"from"`
	To    string `yaml:"to"`
	Cmd   string `yaml:"cmd"`
	Stdin string `yaml:"stdin"`
	Jump  string `yaml:"jump"`
}

// Phase is a named container of states, transitions, and completion hooks.
// Name is populated from the enclosing phases mapping key, not a YAML field
// on Phase itself.
type Phase struct {
	Name            string       `yaml:"-"`
	States          []string     `yaml:"states"`
	Mode            string       `yaml:"mode"`
	Transitions     []Transition `yaml:"transitions"`
	Completions     []HookSpec   `yaml:"completions"`
	CompletionAlias []HookSpec   `yaml:"completion"`
}

// AllCompletions returns the completions and completion hooks concatenated
// in declaration order (completions first, then the singular alias).
func (p *Phase) AllCompletions() []HookSpec {
	if len(p.CompletionAlias) == 0 {
		return p.Completions
	}
	out := make([]HookSpec, 0, len(p.Completions)+len(p.CompletionAlias))
	out = append(out, p.Completions...)
	out = append(out, p.CompletionAlias...)
	return out
}

// HasState reports whether name is one of the phase's declared states.
func (p *Phase) HasState(name string) bool {
	for _, s := range p.States {
		if s == name {
			return true
		}
	}
	return false
}

// OrderedPhases preserves the declaration order of the `phases` mapping.
// yaml.v3 decodes mappings into Go maps, which have no defined order, so
// this type walks the mapping node's Content pairs directly instead.
type OrderedPhases []Phase

func (op *OrderedPhases) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("config: phases: must be a mapping")
	}
	for i := 0; i < len(value.Content)-1; i += 2 {
		keyNode := value.Content[i]
		valNode := value.Content[i+1]
		if keyNode.Kind != yaml.ScalarNode {
			return fmt.Errorf("config: phases: key at position %d is not a scalar", i/2+1)
		}
		var p Phase
		if err := valNode.Decode(&p); err != nil {
			return fmt.Errorf("config: phase %q: %w", keyNode.Value, err)
		}
		p.Name = keyNode.Value
		*op = append(*op, p)
	}
	return nil
}

// rawConfig mirrors the YAML document shape before defaulting/validation.
type rawConfig struct {
	Phases      OrderedPhases     `yaml:"phases"`
	Retries     *int              `yaml:"retries"`
	Env         map[string]string `yaml:"env"`
	Environment map[string]string `yaml:"environment"`
	Init        *HookSpec         `yaml:"init"`
}

// Config is a fully parsed and validated workflow document.
type Config struct {
	Phases  []Phase
	Retries int
	Env     map[string]string
	Init    *HookSpec
}

// Load reads and parses a YAML workflow document, then validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a workflow document from raw bytes and validates it.
func Parse(data []byte) (*Config, error) {
	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg := &Config{
		Phases:  raw.Phases,
		Retries: defaultRetries,
		Init:    raw.Init,
	}
	if raw.Retries != nil {
		cfg.Retries = *raw.Retries
	}

	// env wins over environment on key conflict when both are given.
	cfg.Env = make(map[string]string, len(raw.Env)+len(raw.Environment))
	for k, v := range raw.Environment {
		cfg.Env[k] = v
	}
	for k, v := range raw.Env {
		cfg.Env[k] = v
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// PhaseIndex returns the index of the named phase, or -1 if not found.
func (c *Config) PhaseIndex(name string) int {
	for i, p := range c.Phases {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// Phase returns the named phase, or nil if not found.
func (c *Config) Phase(name string) *Phase {
	if i := c.PhaseIndex(name); i >= 0 {
		return &c.Phases[i]
	}
	return nil
}
