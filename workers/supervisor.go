package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"chat-relay/contract"
	"chat-relay/errors"
)

const waitTimeBeforeRestart = 200 * time.Millisecond

// Supervisor keeps the relay's background workers alive. Each worker
// runs in its own goroutine: a panic or error restarts it after a short
// delay, a clean return retires it, and cancelling the parent context
// stops everything. Run blocks until every goroutine has finished.
type Supervisor struct {
	Cancel  context.CancelFunc
	wg      *sync.WaitGroup
	log     *slog.Logger
	workers []contract.Worker
}

func NewSupervisor(log *slog.Logger) *Supervisor {
	return &Supervisor{wg: &sync.WaitGroup{}, log: log}
}

// Run derives a local cancellation scope from the parent ctx: a parent
// cancel propagates down, while Stop only cancels the children.
func (s *Supervisor) Run(ctx context.Context) {
	supervisedCtx, cancel := context.WithCancel(ctx)
	s.Cancel = cancel
	defer s.Cancel()

	for _, worker := range s.workers {
		s.Start(supervisedCtx, worker)
	}
	s.wg.Wait()
}

func (s *Supervisor) Add(worker ...contract.Worker) contract.ISupervisor {
	s.workers = append(s.workers, worker...)
	return s
}

// Start supervises one worker. A crash in the worker must never take
// the supervision loop, or any sibling worker, down with it.
func (s *Supervisor) Start(ctx context.Context, worker contract.Worker) {
	s.wg.Add(1)
	workerName := contract.GetWorkerName(worker)

	go func() {
		defer s.wg.Done()

		for {
			if ctx.Err() != nil {
				s.log.Info("Stopping worker", "name", workerName)
				return
			}

			err := s.runShielded(ctx, worker)
			if err == nil {
				// A clean return retires the worker, no restart
				s.log.Info("Worker finished", "name", workerName)
				return
			}

			if ctx.Err() != nil {
				s.log.Info("Worker stopped (context canceled)", "name", workerName)
				return
			}

			s.log.Warn("Worker crashed, restarting", "name", workerName, "error", err)
			select {
			case <-ctx.Done():
				// Shutdown wins over the restart delay
				return
			case <-time.After(waitTimeBeforeRestart):
			}
		}
	}()
}

// runShielded executes one worker pass, converting a panic into an
// error so the supervision loop survives it.
func (s *Supervisor) runShielded(ctx context.Context, worker contract.Worker) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errors.ErrWorkerPanic, r)
		}
	}()
	return worker.Run(ctx)
}

// Stop cancels the supervised context; Run returns once every worker
// goroutine has observed it and exited.
func (s *Supervisor) Stop() {
	if s.Cancel != nil {
		s.Cancel()
	}
}
