// Package hookenv composes the per-hook environment variable set and
// renders stdin templates against it.
package hookenv

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/andrew-pa/dirorch/internal/config"
	"github.com/andrew-pa/dirorch/internal/store"
)

// InputEntityVar is the variable name carrying the entity's current
// absolute path. It is only set for transition hooks.
const InputEntityVar = "INPUT_ENTITY"

// Composer builds hook environments from the process environment, the
// workflow's declared env, and each (phase, state) directory path.
type Composer struct {
	userEnv map[string]string
	dirVars map[string]string
}

// NewComposer precomputes the DIR_<PHASE>_<STATE> variables for every
// declared (phase, state) pair. _failed directories are intentionally
// omitted, per the environment contract.
func NewComposer(s *store.Store, phases []config.Phase, userEnv map[string]string) *Composer {
	dirVars := make(map[string]string)
	for _, p := range phases {
		for _, st := range p.States {
			name := MangleDirVar(p.Name, st)
			abs, err := filepath.Abs(s.StateDir(p.Name, st))
			if err != nil {
				abs = s.StateDir(p.Name, st)
			}
			dirVars[name] = abs
		}
	}
	return &Composer{userEnv: userEnv, dirVars: dirVars}
}

// MangleDirVar produces the DIR_<PHASE>_<STATE> variable name for a
// (phase, state) pair: uppercase, non-[A-Z0-9] characters replaced with '_'.
func MangleDirVar(phase, state string) string {
	return "DIR_" + mangle(phase) + "_" + mangle(state)
}

func mangle(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Base returns the mapping used as both the hook process environment (sans
// INPUT_ENTITY) and the stdin template context: process env, overwritten by
// user env, overwritten by DIR_* variables.
func (c *Composer) Base() map[string]string {
	env := make(map[string]string, len(c.dirVars)+len(c.userEnv)+16)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	for k, v := range c.userEnv {
		env[k] = v
	}
	for k, v := range c.dirVars {
		env[k] = v
	}
	return env
}

// TemplateContext returns the mapping used as the stdin template context:
// user env overwritten by DIR_* variables. Unlike Base(), the inherited
// process environment is never included here — it reaches the hook's child
// process but is not exposed to the stdin template — and INPUT_ENTITY is
// never included either, matching the transition hook environment's own
// exclusion of it from anything but the child process.
func (c *Composer) TemplateContext() map[string]string {
	ctx := make(map[string]string, len(c.dirVars)+len(c.userEnv))
	for k, v := range c.userEnv {
		ctx[k] = v
	}
	for k, v := range c.dirVars {
		ctx[k] = v
	}
	return ctx
}

// ForTransition returns the Base() mapping plus INPUT_ENTITY set to the
// entity's absolute path in its current (source) state directory.
func (c *Composer) ForTransition(entityPath string) map[string]string {
	env := c.Base()
	abs, err := filepath.Abs(entityPath)
	if err != nil {
		abs = entityPath
	}
	env[InputEntityVar] = abs
	return env
}

// ToEnvSlice converts a variable mapping into the os/exec "KEY=VALUE" form.
func ToEnvSlice(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}
