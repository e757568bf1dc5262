package queue

import (
	"testing"

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

func TestQueueFIFOOrder(t *testing.T) {
	q := New[int]("test", newTestLogger(t))
	q.Push(1)
	q.Push(2)
	q.Push(3)

	for _, want := range []int{1, 2, 3} {
		got, ok := q.TryPop()
		if !ok {
			t.Fatalf("TryPop() ok = false, want true")
		}
		if got != want {
			t.Errorf("TryPop() = %d, want %d", got, want)
		}
	}
}

func TestQueueTryPopEmpty(t *testing.T) {
	q := New[int]("test", newTestLogger(t))
	if _, ok := q.TryPop(); ok {
		t.Fatal("TryPop() on empty queue ok = true, want false")
	}
}

func TestQueueGrowsWithoutDroppingUnderBackpressure(t *testing.T) {
	q := New[int]("test", newTestLogger(t))
	const n = 50
	for i := 0; i < n; i++ {
		q.Push(i)
	}
	if q.Len() != n {
		t.Fatalf("Len() = %d, want %d: Push must never drop", q.Len(), n)
	}
	for i := 0; i < n; i++ {
		got, ok := q.TryPop()
		if !ok || got != i {
			t.Fatalf("TryPop() = (%d, %v), want (%d, true)", got, ok, i)
		}
	}
}
