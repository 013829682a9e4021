// Package worker runs periodic maintenance tasks alongside the HTTP server.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Task is a unit of periodic work.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Worker runs tasks on their own tickers with bounded concurrency.
type Worker struct {
	tasks          []Task
	maxConcurrency int
	logger         *slog.Logger
}

// New creates a worker. maxConcurrency <= 0 means one task at a time.
func New(logger *slog.Logger, maxConcurrency int, tasks ...Task) *Worker {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &Worker{
		tasks:          tasks,
		maxConcurrency: maxConcurrency,
		logger:         logger,
	}
}

// Start runs the tasks until ctx is cancelled, then waits for in-flight runs.
// A tick that finds the worker at capacity is skipped.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("worker starting", "tasks", len(w.tasks), "max_concurrency", w.maxConcurrency)

	sem := make(chan struct{}, w.maxConcurrency)
	var inflight sync.WaitGroup
	var loops sync.WaitGroup

	for _, task := range w.tasks {
		loops.Add(1)
		go func(task Task) {
			defer loops.Done()

			ticker := time.NewTicker(task.Interval)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					select {
					case sem <- struct{}{}:
						inflight.Add(1)
						go func() {
							defer func() {
								<-sem
								inflight.Done()
							}()
							w.run(ctx, task)
						}()
					default:
						w.logger.Debug("worker at capacity, skipping tick", "task", task.Name)
					}
				}
			}
		}(task)
	}

	<-ctx.Done()
	loops.Wait()
	inflight.Wait()
	w.logger.Info("worker stopped")
	return nil
}

func (w *Worker) run(ctx context.Context, task Task) {
	start := time.Now()
	if err := task.Run(ctx); err != nil {
		w.logger.Error("task failed", "task", task.Name, "error", err)
		return
	}
	w.logger.Debug("task completed", "task", task.Name, "duration", time.Since(start))
}
