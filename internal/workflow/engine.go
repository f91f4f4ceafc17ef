// Package workflow implements the top-level engine: directory setup, the
// init hook, phase-cursor advancement with jump recursion, completion
// hooks, and the termination rule.
package workflow

import (
	"context"
	"fmt"

	"github.com/andrew-pa/dirorch/internal/config"
	"github.com/andrew-pa/dirorch/internal/hook"
	"github.com/andrew-pa/dirorch/internal/hookenv"
	"github.com/andrew-pa/dirorch/internal/logging"
	"github.com/andrew-pa/dirorch/internal/phase"
	"github.com/andrew-pa/dirorch/internal/runtimestate"
	"github.com/andrew-pa/dirorch/internal/store"
)

// maxJumpDepth is the recursion depth above which a warning is logged.
// Cycles are not detected or forbidden (spec §9); this is purely an
// operator signal that something may be looping.
const maxJumpDepth = 25

// Engine is the top-level workflow driver.
type Engine struct {
	cfg      *config.Config
	store    *store.Store
	state    *runtimestate.Store
	phases   *phase.Engine
	composer *hookenv.Composer
	log      *logging.Logger
}

// New builds a workflow Engine from a validated config and a store rooted
// at the run's --root.
func New(cfg *config.Config, s *store.Store, st *runtimestate.Store, log *logging.Logger) *Engine {
	composer := hookenv.NewComposer(s, cfg.Phases, cfg.Env)
	return &Engine{
		cfg:      cfg,
		store:    s,
		state:    st,
		phases:   phase.New(s, composer, cfg.Retries, log),
		composer: composer,
		log:      log,
	}
}

// Run executes the workflow to termination: ensure directories, run init on
// a fresh start, then loop phases to fixpoint with completion hooks until
// the first phase is wrapped back into and idles.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.store.EnsureDirs(e.cfg.Phases); err != nil {
		return fmt.Errorf("workflow: %w", err)
	}

	cursor, fresh, err := e.loadCursor()
	if err != nil {
		return err
	}

	if fresh && e.cfg.Init != nil {
		e.log.Info("running init hook")
		outcome, hookErr := hook.Run(*e.cfg.Init, e.composer.Base(), e.cfg.Retries, e.composer.TemplateContext(), e.store.Root(), e.logAttempt("init"))
		if outcome == hook.Exhausted {
			return fmt.Errorf("workflow: init hook exhausted: %w", hookErr)
		}
	}

	phaseIdx := e.cfg.PhaseIndex(cursor)
	if phaseIdx < 0 {
		phaseIdx = 0
	}
	wrapped := false

	for {
		p := &e.cfg.Phases[phaseIdx]

		e.log.Info("phase start", "phase", p.Name)
		if err := e.state.Save(p.Name); err != nil {
			return fmt.Errorf("workflow: persisting cursor: %w", err)
		}

		result, err := e.phases.RunToFixpoint(ctx, p, e.makeOnJump(1))
		if err != nil {
			return fmt.Errorf("workflow: phase %q: %w", p.Name, err)
		}
		e.log.Info("phase fixpoint", "phase", p.Name, "moves", result.TotalMoves)

		if phaseIdx == 0 && wrapped && result.FirstPassMoves == 0 {
			e.log.Info("workflow idle, terminating", "phase", p.Name)
			return nil
		}

		for _, hs := range p.AllCompletions() {
			outcome, hookErr := hook.Run(hs, e.composer.Base(), e.cfg.Retries, e.composer.TemplateContext(), e.store.Root(), e.logAttempt("completion:"+p.Name))
			if outcome == hook.Exhausted {
				return fmt.Errorf("workflow: phase %q: completion hook exhausted: %w", p.Name, hookErr)
			}
		}

		next := (phaseIdx + 1) % len(e.cfg.Phases)
		if next == 0 {
			wrapped = true
		}
		phaseIdx = next
	}
}

// loadCursor resolves the phase to resume at: the persisted cursor if it
// still names a known phase, otherwise the first declared phase. It also
// reports whether this is a fresh start (the state file is missing, empty or
// corrupt), which gates whether the init hook runs. A persisted cursor that
// names a phase no longer in the config is not a fresh start.
func (e *Engine) loadCursor() (phaseName string, fresh bool, err error) {
	persisted, ok, corrupt := e.state.Load()
	if corrupt {
		e.log.Warn("runtime state file is corrupt, treating as fresh start")
	}
	if !ok {
		return e.cfg.Phases[0].Name, true, nil
	}
	if e.cfg.PhaseIndex(persisted) < 0 {
		e.log.Warn("persisted phase no longer exists in config, restarting from first phase", "phase", persisted)
		return e.cfg.Phases[0].Name, false, nil
	}
	return persisted, false, nil
}

// makeOnJump returns a phase.OnJump that recursively runs the target phase
// to fixpoint, logging a warning above maxJumpDepth. It does not advance or
// persist the cursor, and does not run the triggering phase's completion
// hooks — those only ever happen in the main loop above.
func (e *Engine) makeOnJump(depth int) phase.OnJump {
	return func(ctx context.Context, target string) error {
		if depth > maxJumpDepth {
			e.log.Warn("jump recursion depth threshold reached, possible cycle", "depth", depth, "target", target)
		}
		idx := e.cfg.PhaseIndex(target)
		if idx < 0 {
			return fmt.Errorf("workflow: jump to unknown phase %q", target)
		}
		p := &e.cfg.Phases[idx]
		e.log.Info("jump entered", "target", target, "depth", depth)
		_, err := e.phases.RunToFixpoint(ctx, p, e.makeOnJump(depth+1))
		e.log.Info("jump exited", "target", target, "depth", depth)
		return err
	}
}

func (e *Engine) logAttempt(label string) hook.AttemptLogger {
	return func(attempt, total int, err error) {
		if err != nil {
			e.log.Warn("hook attempt failed", "hook", label, "attempt", attempt, "total", total, "err", err)
		}
	}
}
