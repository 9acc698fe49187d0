package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/contentcheck/internal/config"
	"github.com/google/uuid"
)

// ErrStopped is returned by Submit once the orchestrator has been stopped.
var ErrStopped = errors.New("orchestrator stopped")

// concurrentRuns bounds how many queued runs scan the roots at once.
const concurrentRuns = 2

// Orchestrator queues validation runs for the report server and executes
// them in the background.
type Orchestrator struct {
	runs  *RunStore
	stats *RunStats
	queue chan *RunRecord
	log   *slog.Logger
	cfg   config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	stopped bool
}

func NewOrchestrator(cfg config.Config, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		runs:  NewRunStore(cfg.RunTTL),
		stats: NewRunStats(cfg.RunTTL),
		queue: make(chan *RunRecord, cfg.MaxQueueSize),
		log:   log,
		cfg:   cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range concurrentRuns {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case run, ok := <-o.queue:
					if !ok {
						return
					}
					o.process(workerCtx, run)
				}
			}
		}()
	}

	// Start run store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.runs.Cleanup()
			}
		}
	}()
}

func (o *Orchestrator) process(ctx context.Context, rec *RunRecord) {
	log := o.log.With("run_id", rec.ID)
	rec.SetStatus(StatusRunning)

	cfg := o.cfg
	cfg.Strict = rec.Strict
	start := time.Now()
	rep, err := NewRun(cfg, log).Execute(ctx)
	o.stats.Record(time.Since(start).Milliseconds(), err != nil)
	if err != nil {
		log.Error("run failed", "error", err)
		rec.Fail(err.Error())
		return
	}
	rec.Complete(rep)
}

// Stop gracefully shuts down the workers. Later Submits fail with ErrStopped.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	close(o.queue)
	o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
}

// Submit queues a new run over the configured roots.
func (o *Orchestrator) Submit(strict bool) (*RunRecord, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		return nil, ErrStopped
	}

	rec := NewRunRecord(uuid.NewString(), strict)
	o.runs.Put(rec)
	select {
	case o.queue <- rec:
		return rec, nil
	default:
		rec.Fail("queue full")
		return rec, fmt.Errorf("run queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetRun returns a run by ID.
func (o *Orchestrator) GetRun(id string) *RunRecord {
	return o.runs.Get(id)
}

// ListRuns returns summaries of retained runs, newest first.
func (o *Orchestrator) ListRuns() []RunSnapshot {
	return o.runs.List()
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Stats returns the rolling run duration aggregate.
func (o *Orchestrator) Stats() StatsSnapshot {
	return o.stats.Snapshot()
}

// Config returns the configuration runs are executed with.
func (o *Orchestrator) Config() config.Config {
	return o.cfg
}
