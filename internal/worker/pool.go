// Package worker provides a parallel tile generation worker pool.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/MeKo-Tech/tilepyramid/internal/tile"
)

// Generator is the interface for tile generation.
// This matches the signature of pipeline.Generator.Generate.
type Generator interface {
	Generate(ctx context.Context, idx tile.Index) (bytes int, err error)
}

// Task represents a single tile generation task.
type Task struct {
	Index tile.Index
}

// Result represents the outcome of a tile generation task.
type Result struct {
	Task    Task
	Bytes   int
	Err     error
	Elapsed time.Duration
}

// Skipped reports a successful task that produced no tile.
func (r Result) Skipped() bool {
	return r.Err == nil && r.Bytes == 0
}

// ProgressFunc is called after each task completes.
type ProgressFunc func(r Result, completed, total int)

// Config configures the worker pool.
type Config struct {
	Workers    int
	Generator  Generator
	OnProgress ProgressFunc
}

// Pool manages parallel tile generation.
type Pool struct {
	workers    int
	generator  Generator
	onProgress ProgressFunc
}

// New creates a new worker pool.
func New(cfg Config) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	return &Pool{
		workers:    workers,
		generator:  cfg.Generator,
		onProgress: cfg.OnProgress,
	}
}

// TasksFor wraps tile indices as tasks.
func TasksFor(indices []tile.Index) []Task {
	tasks := make([]Task, len(indices))
	for i, idx := range indices {
		tasks[i] = Task{Index: idx}
	}
	return tasks
}

// Run executes all tasks and returns results.
// Tasks are processed in parallel by the configured number of workers.
// The function blocks until all tasks complete or the context is cancelled;
// tasks never handed to a worker produce no result.
func (p *Pool) Run(ctx context.Context, tasks []Task) []Result {
	if len(tasks) == 0 {
		return nil
	}

	taskCh := make(chan Task, p.workers)
	resultCh := make(chan Result, p.workers)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx, taskCh, resultCh)
		}()
	}

	// Feed tasks
	go func() {
		defer close(taskCh)
		for _, task := range tasks {
			select {
			case taskCh <- task:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Collect results in a separate goroutine
	results := make([]Result, 0, len(tasks))
	done := make(chan struct{})

	go func() {
		completed := 0
		for result := range resultCh {
			results = append(results, result)
			completed++
			if p.onProgress != nil {
				p.onProgress(result, completed, len(tasks))
			}
		}
		close(done)
	}()

	wg.Wait()
	close(resultCh)
	<-done

	return results
}

// worker processes tasks from the task channel and sends results to the result channel.
func (p *Pool) worker(ctx context.Context, tasks <-chan Task, results chan<- Result) {
	for task := range tasks {
		if err := ctx.Err(); err != nil {
			results <- Result{Task: task, Err: err}
			continue
		}

		start := time.Now()
		n, err := p.generator.Generate(ctx, task.Index)
		results <- Result{
			Task:    task,
			Bytes:   n,
			Err:     err,
			Elapsed: time.Since(start),
		}
	}
}
