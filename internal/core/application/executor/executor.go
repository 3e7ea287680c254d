// Package executor interprets plan trees. The result of an execution mirrors
// the shape of the executed tree.
//
// Errors returned by Execute are defects of the plan (or of the command
// factory configuration). Failures of the commands instead are reported in
// the ExecutionResult and never retried.
package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
	"github.com/shieldpay/shieldpay-sdk/internal/core/ports"
	"github.com/shieldpay/shieldpay-sdk/pkg/stats"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Observer is notified every time a command of the plan terminates.
type Observer func(node *domain.CommandNode, result domain.ExecutionResult)

type Executor struct {
	factory ports.CommandFactory
}

func NewExecutor(factory ports.CommandFactory) (*Executor, error) {
	if factory == nil {
		return nil, fmt.Errorf("missing command factory")
	}
	return &Executor{factory}, nil
}

// Execute runs the plan. The optional input is passed to the root node.
func (e *Executor) Execute(
	ctx context.Context, node domain.PlanNode, input *domain.Payload,
) (domain.ExecutionResult, error) {
	return e.ExecuteObserved(ctx, node, input, nil)
}

// ExecuteObserved runs the plan like Execute, invoking the observer, if not
// nil, once per terminated command. The observer may be invoked concurrently
// for commands of parallel nodes.
func (e *Executor) ExecuteObserved(
	ctx context.Context, node domain.PlanNode, input *domain.Payload,
	observer Observer,
) (domain.ExecutionResult, error) {
	var notify Observer
	if observer != nil {
		lock := &sync.Mutex{}
		notify = func(n *domain.CommandNode, r domain.ExecutionResult) {
			lock.Lock()
			defer lock.Unlock()
			observer(n, r)
		}
	}

	res, err := e.run(ctx, node, input, notify)
	if err != nil {
		return domain.ExecutionResult{}, err
	}

	stats.PlanExecutions.WithLabelValues(stats.Outcome(res.Success)).Inc()
	return res, nil
}

func (e *Executor) run(
	ctx context.Context, node domain.PlanNode, input *domain.Payload,
	notify Observer,
) (domain.ExecutionResult, error) {
	switch n := node.(type) {
	case *domain.DataNode:
		return domain.Succeeded(n.Payload), nil
	case *domain.CommandNode:
		return e.runCommand(ctx, n, input, notify)
	case *domain.SerialNode:
		return e.runSerial(ctx, n, input, notify)
	case *domain.ParallelNode:
		return e.runParallel(ctx, n, notify)
	default:
		return domain.ExecutionResult{}, fmt.Errorf("%w: %T", ErrUnknownNode, node)
	}
}

func (e *Executor) runCommand(
	ctx context.Context, node *domain.CommandNode, input *domain.Payload,
	notify Observer,
) (domain.ExecutionResult, error) {
	if input == nil {
		return domain.ExecutionResult{}, fmt.Errorf(
			"%w: %s (%s)", ErrMissingInput, node.Name, node.ID,
		)
	}

	cmd, err := e.factory.NewCommand(node.ID, node.Name, *input, node.Intent)
	if err != nil {
		return domain.ExecutionResult{}, err
	}

	log.Debugf("executing command %s (%s)", cmd.Name(), cmd.ID())
	start := time.Now()
	data, err := cmd.Execute(ctx)
	stats.ObserveCommand(cmd.Name(), start, err)

	var res domain.ExecutionResult
	if err != nil {
		log.WithError(err).Warnf("command %s (%s) failed", cmd.Name(), cmd.ID())
		res = domain.Failed(err)
	} else {
		log.Debugf("command %s (%s) done", cmd.Name(), cmd.ID())
		res = domain.Succeeded(data)
	}

	if notify != nil {
		notify(node, res)
	}
	return res, nil
}

// runSerial threads the data of every item into the next one. It stops at the
// first failure, the returned items include the failed one.
func (e *Executor) runSerial(
	ctx context.Context, node *domain.SerialNode, input *domain.Payload,
	notify Observer,
) (domain.ExecutionResult, error) {
	if len(node.Items) <= 0 {
		return domain.ExecutionResult{}, ErrEmptySerial
	}

	items := make([]domain.ExecutionResult, 0, len(node.Items))
	for _, item := range node.Items {
		res, err := e.run(ctx, item, input, notify)
		if err != nil {
			return domain.ExecutionResult{}, err
		}
		items = append(items, res)

		if !res.Success {
			return domain.Failed(res.Err, items...), nil
		}

		data := res.Data
		input = &data
	}

	return domain.Succeeded(items[len(items)-1].Data, items...), nil
}

// runParallel runs all the items concurrently and waits for all of them,
// whatever their outcome. The data of the successful items are flattened
// into a single list.
func (e *Executor) runParallel(
	ctx context.Context, node *domain.ParallelNode, notify Observer,
) (domain.ExecutionResult, error) {
	items := make([]domain.ExecutionResult, len(node.Items))

	eg := &errgroup.Group{}
	for i, item := range node.Items {
		i, item := i, item
		eg.Go(func() error {
			res, err := e.run(ctx, item, nil, notify)
			if err != nil {
				return err
			}
			items[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return domain.ExecutionResult{}, err
	}

	entries := make([]domain.BalanceEntry, 0, len(items))
	failed := make([]error, 0)
	for _, res := range items {
		if !res.Success {
			failed = append(failed, res.Err)
			continue
		}
		entries = append(entries, res.Data.Entries()...)
	}

	if len(failed) > 0 {
		err := fmt.Errorf(
			"%d of %d parallel items failed: %w", len(failed), len(items), failed[0],
		)
		return domain.Failed(err, items...), nil
	}
	return domain.Succeeded(domain.MultiPayload(entries), items...), nil
}
