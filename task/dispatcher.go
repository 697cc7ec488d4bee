// task/dispatcher.go
package task

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	aegis_errors "github.com/aegis-admin/aegis/errors"
	logger "github.com/aegis-admin/aegis/logging"
	"github.com/aegis-admin/aegis/util"
)

// Run statuses
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusRevoked   = "revoked"
)

// Func is a named maintenance job
type Func func(ctx context.Context) error

// Run is one execution of a registered task
type Run struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Status     string     `json:"status"`
	SubmitTime time.Time  `json:"submit_time"`
	StartTime  *time.Time `json:"start_time,omitempty"`
	FinishTime *time.Time `json:"finish_time,omitempty"`
	Error      string     `json:"error,omitempty"`

	cancel context.CancelFunc
}

type job struct {
	runID string
	fn    Func
}

// Dispatcher executes registered maintenance tasks on a small worker pool.
// Runs are tracked in memory; a restart forgets history, which is acceptable
// for operator-triggered maintenance jobs.
type Dispatcher struct {
	mu       sync.Mutex
	tasks    map[string]Func
	runs     map[string]*Run
	queue    chan job
	eventBus *util.EventBus
	wg       sync.WaitGroup
	stopOnce sync.Once
}

const (
	workerCount = 2
	queueDepth  = 64
)

func NewDispatcher(eventBus *util.EventBus) *Dispatcher {
	d := &Dispatcher{
		tasks:    make(map[string]Func),
		runs:     make(map[string]*Run),
		queue:    make(chan job, queueDepth),
		eventBus: eventBus,
	}
	for i := 0; i < workerCount; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// Register adds a named task. Registration happens at startup, before any
// Submit, so it takes the same lock but never contends.
func (d *Dispatcher) Register(name string, fn Func) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tasks[name] = fn
}

// Names returns the registered task names, sorted
func (d *Dispatcher) Names() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	names := make([]string, 0, len(d.tasks))
	for name := range d.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Submit queues one execution of a registered task and returns its run ID
func (d *Dispatcher) Submit(name string) (*Run, error) {
	d.mu.Lock()
	fn, ok := d.tasks[name]
	if !ok {
		d.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", aegis_errors.ErrTaskNotFound, name)
	}

	run := &Run{
		ID:         uuid.NewString(),
		Name:       name,
		Status:     StatusPending,
		SubmitTime: time.Now(),
	}
	d.runs[run.ID] = run
	d.mu.Unlock()

	select {
	case d.queue <- job{runID: run.ID, fn: fn}:
	default:
		d.mu.Lock()
		run.Status = StatusFailed
		run.Error = "task queue full"
		d.mu.Unlock()
		return nil, fmt.Errorf("%w: task queue full", aegis_errors.ErrServerError)
	}

	logger.Info("Task submitted", zap.String("task", name), zap.String("runID", run.ID))
	return d.snapshotRun(run.ID), nil
}

// Revoke cancels a pending or running execution
func (d *Dispatcher) Revoke(runID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	run, ok := d.runs[runID]
	if !ok {
		return fmt.Errorf("%w: run %q", aegis_errors.ErrTaskNotFound, runID)
	}
	switch run.Status {
	case StatusPending:
		run.Status = StatusRevoked
		now := time.Now()
		run.FinishTime = &now
	case StatusRunning:
		run.Status = StatusRevoked
		if run.cancel != nil {
			run.cancel()
		}
	}
	return nil
}

// GetRun returns one run by ID
func (d *Dispatcher) GetRun(runID string) (*Run, error) {
	run := d.snapshotRun(runID)
	if run == nil {
		return nil, fmt.Errorf("%w: run %q", aegis_errors.ErrTaskNotFound, runID)
	}
	return run, nil
}

// ListRuns returns all tracked runs, newest first
func (d *Dispatcher) ListRuns() []*Run {
	d.mu.Lock()
	defer d.mu.Unlock()

	runs := make([]*Run, 0, len(d.runs))
	for _, run := range d.runs {
		copied := *run
		copied.cancel = nil
		runs = append(runs, &copied)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].SubmitTime.After(runs[j].SubmitTime)
	})
	return runs
}

// Stop drains the queue and waits for in-flight tasks
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.queue)
		d.wg.Wait()
	})
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for item := range d.queue {
		d.execute(item)
	}
}

func (d *Dispatcher) execute(item job) {
	d.mu.Lock()
	run, ok := d.runs[item.runID]
	if !ok || run.Status != StatusPending {
		// Revoked while queued
		d.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	run.Status = StatusRunning
	run.cancel = cancel
	now := time.Now()
	run.StartTime = &now
	d.mu.Unlock()

	err := item.fn(ctx)
	cancel()

	d.mu.Lock()
	finish := time.Now()
	run.FinishTime = &finish
	run.cancel = nil
	if run.Status == StatusRevoked {
		// Keep the revoked verdict even if the task finished on its own
	} else if err != nil {
		run.Status = StatusFailed
		run.Error = err.Error()
		logger.Error("Task failed", zap.Error(err), zap.String("task", run.Name), zap.String("runID", run.ID))
	} else {
		run.Status = StatusSucceeded
		logger.Info("Task finished", zap.String("task", run.Name), zap.String("runID", run.ID))
	}
	name, status := run.Name, run.Status
	d.mu.Unlock()

	d.eventBus.Publish(context.Background(), util.EventTaskFinished, map[string]string{
		"run_id": item.runID,
		"name":   name,
		"status": status,
	})
}

func (d *Dispatcher) snapshotRun(runID string) *Run {
	d.mu.Lock()
	defer d.mu.Unlock()
	run, ok := d.runs[runID]
	if !ok {
		return nil
	}
	copied := *run
	copied.cancel = nil
	return &copied
}
