// Package phase drives a single phase's transitions or entity loop to
// fixpoint: collecting entities from the store, composing their hook
// environment, invoking the hook runner, and moving files on success or
// exhaustion.
package phase

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/andrew-pa/dirorch/internal/config"
	"github.com/andrew-pa/dirorch/internal/group"
	"github.com/andrew-pa/dirorch/internal/hook"
	"github.com/andrew-pa/dirorch/internal/hookenv"
	"github.com/andrew-pa/dirorch/internal/logging"
	"github.com/andrew-pa/dirorch/internal/store"
)

// OnJump is invoked synchronously whenever a successful transition carries
// a jump target; it runs that phase to fixpoint before returning.
type OnJump func(ctx context.Context, targetPhase string) error

// Engine applies one phase's rules against the store until fixpoint.
type Engine struct {
	store    *store.Store
	composer *hookenv.Composer
	retries  int
	log      *logging.Logger
}

// New returns a phase Engine sharing a store, environment composer, retry
// count, and logger across every phase of a run.
func New(s *store.Store, composer *hookenv.Composer, retries int, log *logging.Logger) *Engine {
	return &Engine{store: s, composer: composer, retries: retries, log: log}
}

// Result summarizes one RunToFixpoint call.
type Result struct {
	// FirstPassMoves is the number of moves made during the first
	// iteration only (the first pass in transitions mode; in entity mode
	// there is only ever one pass, so this equals TotalMoves).
	FirstPassMoves int
	TotalMoves     int
}

// RunToFixpoint drives p to fixpoint in its configured mode.
func (e *Engine) RunToFixpoint(ctx context.Context, p *config.Phase, onJump OnJump) (Result, error) {
	switch p.Mode {
	case config.ModeEntity:
		return e.runEntityMode(ctx, p, onJump)
	default:
		return e.runTransitionsMode(ctx, p, onJump)
	}
}

func (e *Engine) runTransitionsMode(ctx context.Context, p *config.Phase, onJump OnJump) (Result, error) {
	var result Result
	pass := 0
	for {
		moves, err := e.transitionsPass(ctx, p, onJump)
		if err != nil {
			return result, err
		}
		if pass == 0 {
			result.FirstPassMoves = moves
		}
		result.TotalMoves += moves
		pass++
		if moves == 0 {
			break
		}
	}
	return result, nil
}

// transitionsPass runs every declared transition rule once, in order,
// against a snapshot of its from_state directory.
func (e *Engine) transitionsPass(ctx context.Context, p *config.Phase, onJump OnJump) (int, error) {
	moves := 0
	for ruleIdx := range p.Transitions {
		tr := &p.Transitions[ruleIdx]
		names, err := e.store.ListEntities(p.Name, tr.From)
		if err != nil {
			return moves, err
		}
		if len(names) == 0 {
			continue
		}

		var n atomic.Int64
		err = group.RunWithJumps(ctx, names,
			func(ctx context.Context, name string) (string, bool, error) {
				_, actualState, err := e.applyTransition(p, tr, name)
				if err != nil {
					return "", false, err
				}
				n.Add(1)
				if actualState == tr.To && tr.Jump != "" {
					return tr.Jump, true, nil
				}
				return "", false, nil
			},
			func(jumpTo string) error {
				return onJump(ctx, jumpTo)
			},
		)
		moves += int(n.Load())
		if err != nil {
			return moves, err
		}
	}
	return moves, nil
}

// applyTransition runs one transition rule against one entity, moving it to
// to_state on success or to _failed on exhaustion. It always counts as a
// move: both outcomes relocate the file. The returned state is tr.To on
// success or store.FailedState on exhaustion.
func (e *Engine) applyTransition(p *config.Phase, tr *config.Transition, name string) (moved bool, newState string, err error) {
	spec := config.HookSpec{Cmd: tr.Cmd, Stdin: tr.Stdin}
	entityPath := e.store.EntityPath(p.Name, tr.From, name)

	env := e.composer.ForTransition(entityPath)
	stdinCtx := e.composer.TemplateContext()

	outcome, hookErr := hook.Run(spec, env, e.retries, stdinCtx, e.store.Root(), func(attempt, total int, attemptErr error) {
		if attemptErr != nil {
			e.log.Warn("hook attempt failed", "phase", p.Name, "state", tr.From, "entity", name, "attempt", attempt, "total", total, "err", attemptErr)
		}
	})

	if outcome == hook.Exhausted {
		e.log.Warn("transition exhausted, quarantining", "phase", p.Name, "from", tr.From, "entity", name, "err", hookErr)
		if err := e.store.Move(p.Name, tr.From, store.FailedState, name); err != nil {
			return false, "", fmt.Errorf("phase %q: quarantining %q: %w", p.Name, name, err)
		}
		return true, store.FailedState, nil
	}

	if err := e.store.Move(p.Name, tr.From, tr.To, name); err != nil {
		return false, "", fmt.Errorf("phase %q: moving %q: %w", p.Name, name, err)
	}
	e.log.Info("entity moved", "phase", p.Name, "from", tr.From, "to", tr.To, "entity", name)
	return true, tr.To, nil
}

// runEntityMode drives each entity through as many applicable transitions
// as it can take in sequence — including any jumps, fired inline, with the
// same entity resumed afterward — before picking the next entity. No
// concurrency is used in this mode.
func (e *Engine) runEntityMode(ctx context.Context, p *config.Phase, onJump OnJump) (Result, error) {
	var result Result
	atRest := make(map[string]bool)

	for {
		name, state, found, err := e.nextEntity(p, atRest)
		if err != nil {
			return result, err
		}
		if !found {
			break
		}

		for {
			moved, nextState, jumpTo, err := e.driveEntity(p, name, state)
			if err != nil {
				return result, err
			}
			if !moved {
				atRest[name] = true
				break
			}
			result.TotalMoves++
			result.FirstPassMoves = result.TotalMoves

			if jumpTo != "" {
				if err := onJump(ctx, jumpTo); err != nil {
					return result, err
				}
			}
			state = nextState
		}
	}
	return result, nil
}

// nextEntity scans declared states in order and returns the first filename
// in the first non-empty, not-at-rest state.
func (e *Engine) nextEntity(p *config.Phase, atRest map[string]bool) (name, state string, found bool, err error) {
	for _, st := range p.States {
		names, err := e.store.ListEntities(p.Name, st)
		if err != nil {
			return "", "", false, err
		}
		for _, n := range names {
			if atRest[n] {
				continue
			}
			return n, st, true, nil
		}
	}
	return "", "", false, nil
}

// driveEntity attempts the declared transitions in order looking for the
// first whose from matches state, applies it, and reports the entity's
// resulting state (to_state on success, _failed on exhaustion).
func (e *Engine) driveEntity(p *config.Phase, name, state string) (moved bool, newState, jumpTo string, err error) {
	for i := range p.Transitions {
		tr := &p.Transitions[i]
		if tr.From != state {
			continue
		}
		didMove, actualState, err := e.applyTransition(p, tr, name)
		if err != nil {
			return false, "", "", err
		}
		if !didMove {
			continue
		}
		if actualState == tr.To && tr.Jump != "" {
			return true, actualState, tr.Jump, nil
		}
		return true, actualState, "", nil
	}
	return false, "", "", nil
}
