package readiness

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/sdrpipeline/sdrstream/internal/logging"
)

func newTestLogger(t *testing.T) logging.Logger {
	t.Helper()
	l, err := logging.New()
	if err != nil {
		t.Fatalf("logging.New() error = %v", err)
	}
	return l
}

func TestWaitForTCPSucceedsWhenListening(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := WaitForTCP(ctx, ln.Addr().String(), newTestLogger(t)); err != nil {
		t.Fatalf("WaitForTCP() error = %v", err)
	}
}

func TestWaitForTCPFailsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// An address nothing listens on; context is already cancelled so we
	// should not wait out a full PollInterval before returning.
	err := WaitForTCP(ctx, "127.0.0.1:1", newTestLogger(t))
	if err == nil {
		t.Fatal("WaitForTCP() expected error for cancelled context, got nil")
	}
}

func TestWaitForAllWaitsForEveryEndpoint(t *testing.T) {
	var listeners []net.Listener
	var addrs []string
	for i := 0; i < 3; i++ {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("Listen() error = %v", err)
		}
		listeners = append(listeners, ln)
		addrs = append(addrs, ln.Addr().String())
		go func(l net.Listener) {
			for {
				conn, err := l.Accept()
				if err != nil {
					return
				}
				conn.Close()
			}
		}(ln)
	}
	defer func() {
		for _, ln := range listeners {
			ln.Close()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := WaitForAll(ctx, newTestLogger(t), addrs...); err != nil {
		t.Fatalf("WaitForAll() error = %v", err)
	}
}
