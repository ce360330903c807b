// (c) ccnft authors (see AUTHORS)
// SPDX-License-Identifier: Apache-2.0 (see LICENSE)

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

const DefaultSupervisorTimeout = 5 * time.Second

var ErrWorkerExited = errors.New("worker exited")

// SupervisorWorker starts the workers in order, waiting for each to be ready
// before starting the next one. When a worker exits or times out the others
// are canceled and Start returns after all of them stopped.
type SupervisorWorker struct {
	Name    string
	Workers []Worker
	Timeout time.Duration
}

func (w SupervisorWorker) String() string {
	return w.Name
}

func (w SupervisorWorker) Start(ctx context.Context, ready chan<- struct{}) error {
	timeout := w.Timeout
	if timeout == 0 {
		timeout = DefaultSupervisorTimeout
	}
	supervisorCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	group, groupCtx := errgroup.WithContext(supervisorCtx)

	for _, worker := range w.Workers {
		workerReady := make(chan struct{}, 1)
		group.Go(func() error {
			err := worker.Start(groupCtx, workerReady)
			if err != nil {
				slog.Warn("supervisor: worker failed", "worker", worker, "error", err)
				return fmt.Errorf("%v: %w", worker, err)
			}
			slog.Debug("supervisor: worker exited", "worker", worker)
			if ctx.Err() == nil {
				return fmt.Errorf("%w: %v", ErrWorkerExited, worker)
			}
			return nil
		})
		select {
		case <-workerReady:
			slog.Debug("supervisor: worker is ready", "worker", worker)
		case <-groupCtx.Done():
			return w.wait(ctx, group)
		case <-time.After(timeout):
			slog.Warn("supervisor: worker timed out", "worker", worker)
			cancel()
			if err := w.wait(ctx, group); err != nil {
				slog.Debug("supervisor: stopped after timeout", "error", err)
			}
			return fmt.Errorf("supervisor: %v timed out", worker)
		}
	}

	slog.Info("supervisor: all workers are ready", "supervisor", w.Name)
	if ready != nil {
		ready <- struct{}{}
	}
	return w.wait(ctx, group)
}

func (w SupervisorWorker) wait(ctx context.Context, group *errgroup.Group) error {
	err := group.Wait()
	if ctx.Err() != nil && errors.Is(err, ErrWorkerExited) {
		return nil
	}
	return err
}
