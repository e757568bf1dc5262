package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sdrpipeline/sdrstream/internal/logging"
)

// DefaultDeadlockTimeout is the 500ms stop-on-deadlock watchdog period from
// spec.md §4.7. Unlike the Holoscan scheduler this is modeled on, this
// scheduler runs a long-lived streaming service where upstream silence
// (no UDP traffic) is a legitimate, common idle state — so the watchdog
// logs at debug level rather than terminating the process. That adaptation is
// recorded in DESIGN.md.
const DefaultDeadlockTimeout = 500 * time.Millisecond

// Scheduler runs a Graph's operators across a bounded worker pool, one
// operator-shard per worker, matching the "N+1 worker threads" model: N
// per-channel chains plus one ingest/formatter/channelizer worker.
type Scheduler struct {
	graph           *Graph
	workerCount     int
	deadlockTimeout time.Duration
	logger          logging.Logger

	lastProgressUnixNano atomic.Int64
}

// NewScheduler builds a Scheduler with the given worker count (conventionally
// N+1 for N channels) and the default deadlock timeout.
func NewScheduler(graph *Graph, workerCount int, logger logging.Logger) *Scheduler {
	return &Scheduler{
		graph:           graph,
		workerCount:     workerCount,
		deadlockTimeout: DefaultDeadlockTimeout,
		logger:          logger,
	}
}

// Run calls Setup then Initialize on every operator, then drives Compute in
// a loop per worker shard until ctx is cancelled. It returns the first
// Setup/Initialize error (a configuration error, fatal at startup per
// spec.md §7); runtime Compute errors are logged and never returned.
func (s *Scheduler) Run(ctx context.Context) error {
	for _, op := range s.graph.Operators() {
		if err := op.Setup(); err != nil {
			return err
		}
	}
	for _, op := range s.graph.Operators() {
		if err := op.Initialize(); err != nil {
			return err
		}
	}

	s.lastProgressUnixNano.Store(time.Now().UnixNano())

	var wg sync.WaitGroup
	for _, shard := range s.shardOperators() {
		wg.Add(1)
		go func(shard []Operator) {
			defer wg.Done()
			s.runShard(ctx, shard)
		}(shard)
	}

	watchdogDone := make(chan struct{})
	go func() {
		defer close(watchdogDone)
		s.watchdog(ctx)
	}()

	wg.Wait()
	<-watchdogDone
	return nil
}

// shardOperators distributes operators round-robin across workerCount
// shards so each operator runs on a single, consistently-assigned worker.
func (s *Scheduler) shardOperators() [][]Operator {
	n := s.workerCount
	if n <= 0 {
		n = 1
	}
	shards := make([][]Operator, n)
	for i, op := range s.graph.Operators() {
		idx := i % n
		shards[idx] = append(shards[idx], op)
	}
	return shards
}

// idleBackoff is how long runShard sleeps after a tick where no operator in
// the shard progressed, so an idle shard yields its core instead of
// busy-spinning select/default while waiting on upstream data.
const idleBackoff = 5 * time.Millisecond

func (s *Scheduler) runShard(ctx context.Context, shard []Operator) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		anyProgressed := false
		for _, op := range shard {
			progressed, err := op.Compute(ctx)
			if err != nil {
				s.logger.Error("operator compute error, dropping tick", "operator", op.Name(), "error", err)
				continue
			}
			if progressed {
				anyProgressed = true
				s.lastProgressUnixNano.Store(time.Now().UnixNano())
			}
		}
		if !anyProgressed {
			select {
			case <-ctx.Done():
				return
			case <-time.After(idleBackoff):
			}
		}
	}
}

func (s *Scheduler) watchdog(ctx context.Context) {
	ticker := time.NewTicker(s.deadlockTimeout)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			idleFor := time.Since(time.Unix(0, s.lastProgressUnixNano.Load()))
			if idleFor >= s.deadlockTimeout {
				s.logger.Debugf("graph idle for %s (no operator progressed)", idleFor)
			}
		}
	}
}
