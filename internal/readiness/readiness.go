// Package readiness implements the startup TCP-connect probing the entry
// point uses to wait for the ASR, frontend, and retrieval endpoints before
// starting ASR workers and the scheduler.
package readiness

import (
	"context"
	"fmt"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sdrpipeline/sdrstream/internal/logging"
)

// PollInterval is the 5-second polling interval from spec.md §4.7.
const PollInterval = 5 * time.Second

// Deadline is the 5-minute total wait deadline from spec.md §4.7.
const Deadline = 5 * time.Minute

// dialTimeout bounds each individual connection attempt so a single hung
// dial cannot consume the whole poll interval.
const dialTimeout = 2 * time.Second

// WaitForTCP polls addr (host:port) every PollInterval until it accepts a
// TCP connection or the deadline elapses, whichever comes first.
func WaitForTCP(ctx context.Context, addr string, logger logging.Logger) error {
	deadline := time.Now().Add(Deadline)
	for {
		conn, err := net.DialTimeout("tcp", addr, dialTimeout)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("readiness: %s did not become reachable within %s: %w", addr, Deadline, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(PollInterval):
		}
		logger.Debugf("readiness: still waiting for %s", addr)
	}
}

// WaitForAll waits for every endpoint concurrently, matching the teacher's
// errgroup fan-out-then-join idiom for concurrent startup steps. If any
// endpoint fails to become ready within its own deadline, the whole wait
// fails with that error.
func WaitForAll(ctx context.Context, logger logging.Logger, endpoints ...string) error {
	g, gCtx := errgroup.WithContext(ctx)
	for _, addr := range endpoints {
		addr := addr
		g.Go(func() error {
			return WaitForTCP(gCtx, addr, logger)
		})
	}
	return g.Wait()
}
