// Package group partitions an ordered entity list into concurrency groups
// by filename numeric prefix and drives a per-entity action across them:
// parallel within a group, strictly sequential across groups.
package group

import (
	"context"
	"regexp"
	"strconv"

	"golang.org/x/sync/errgroup"
)

var prefixPattern = regexp.MustCompile(`^(\d+)-`)

// Batch is one contiguous block of same-group-key filenames, in list order.
type Batch struct {
	Names []string
}

// Partition walks names in order and accumulates contiguous runs sharing a
// group key: the integer value of a leading "NN-" prefix, or a unique
// per-index key for filenames that don't match (each ungrouped filename is
// its own singleton run, never merged with an adjacent one).
func Partition(names []string) []Batch {
	var runs []Batch
	var curKey string
	var curIsGroup bool
	var cur []string
	first := true
	for i, name := range names {
		key, isGroup := groupKey(name, i)
		if first || key != curKey || !isGroup || !curIsGroup {
			if len(cur) > 0 {
				runs = append(runs, Batch{Names: cur})
			}
			cur = []string{name}
			curKey = key
			curIsGroup = isGroup
			first = false
			continue
		}
		cur = append(cur, name)
	}
	if len(cur) > 0 {
		runs = append(runs, Batch{Names: cur})
	}
	return runs
}

// groupKey returns the group key for a filename and whether it participates
// in real grouping (true) or is an ungrouped singleton (false). Ungrouped
// filenames get a key unique to their position so two consecutive
// ungrouped names are never coalesced into the same run.
func groupKey(name string, index int) (string, bool) {
	m := prefixPattern.FindStringSubmatch(name)
	if m == nil {
		return "singleton:" + strconv.Itoa(index), false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return "singleton:" + strconv.Itoa(index), false
	}
	return strconv.Itoa(n), true
}

// Action is the per-entity work performed by Run. Errors are independent:
// one entity's failure does not cancel its siblings in the same group.
type Action func(ctx context.Context, name string) error

// Run partitions names and invokes action across each group: singleton runs
// execute inline, multi-entity runs execute concurrently via an errgroup
// and are awaited before the next run begins.
func Run(ctx context.Context, names []string, action Action) error {
	return RunWithJumps(ctx, names, func(ctx context.Context, name string) (string, bool, error) {
		return "", false, action(ctx, name)
	}, func(string) error { return nil })
}

// JumpAction is the per-entity work performed by RunWithJumps. It reports
// an optional jump target alongside its error.
type JumpAction func(ctx context.Context, name string) (jumpTo string, ok bool, err error)

// RunWithJumps partitions names and runs action across each run exactly as
// Run does, but additionally collects any jump targets the action reports.
// Jumps are fired via onJump only after the entire run (singleton or group)
// has finished, in the entities' start order — so a jump raised by one
// member of a concurrently-executing group never reenters the store while
// its siblings are still running.
func RunWithJumps(ctx context.Context, names []string, action JumpAction, onJump func(jumpTo string) error) error {
	for _, r := range Partition(names) {
		jumps := make([]string, len(r.Names))
		has := make([]bool, len(r.Names))

		if len(r.Names) == 1 {
			j, ok, err := action(ctx, r.Names[0])
			if err != nil {
				return err
			}
			jumps[0], has[0] = j, ok
		} else {
			g, gctx := errgroup.WithContext(ctx)
			for idx, name := range r.Names {
				idx, name := idx, name
				g.Go(func() error {
					j, ok, err := action(gctx, name)
					if err != nil {
						return err
					}
					jumps[idx], has[idx] = j, ok
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
		}

		for i, ok := range has {
			if !ok {
				continue
			}
			if err := onJump(jumps[i]); err != nil {
				return err
			}
		}
	}
	return nil
}
