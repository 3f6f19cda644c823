package queue

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFIFO(t *testing.T) {
	ctx := context.Background()
	q := New[int](0, Reject)
	for i := 1; i <= 3; i++ {
		if _, _, err := q.Push(i); err != nil {
			t.Fatalf("Push(%d): %v", i, err)
		}
	}
	for want := 1; want <= 3; want++ {
		got, err := q.Pop(ctx)
		if err != nil {
			t.Fatalf("Pop: %v", err)
		}
		if got != want {
			t.Fatalf("Pop order: got %d want %d", got, want)
		}
		q.Done()
	}
	if q.Len() != 0 || q.Pending() != 0 {
		t.Fatalf("expected empty queue, len=%d pending=%d", q.Len(), q.Pending())
	}
}

func TestPendingCountsInflight(t *testing.T) {
	q := New[string](0, Reject)
	_, _, _ = q.Push("a")
	if _, err := q.Pop(context.Background()); err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if q.Len() != 0 || q.Pending() != 1 {
		t.Fatalf("len=%d pending=%d, want 0/1", q.Len(), q.Pending())
	}
	q.Done()
	if q.Pending() != 0 {
		t.Fatalf("pending after Done = %d", q.Pending())
	}
}

func TestPopBlocksUntilPush(t *testing.T) {
	q := New[int](0, Reject)
	got := make(chan int, 1)
	go func() {
		v, err := q.Pop(context.Background())
		if err == nil {
			got <- v
		}
	}()

	select {
	case <-got:
		t.Fatalf("Pop returned before Push")
	case <-time.After(20 * time.Millisecond):
	}

	_, _, _ = q.Push(7)
	select {
	case v := <-got:
		if v != 7 {
			t.Fatalf("got %d want 7", v)
		}
	case <-time.After(time.Second):
		t.Fatalf("Pop did not wake up after Push")
	}
}

func TestPopHonorsContext(t *testing.T) {
	q := New[int](0, Reject)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := q.Pop(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Pop err=%v, want deadline exceeded", err)
	}
}

func TestBoundedReject(t *testing.T) {
	q := New[int](2, Reject)
	_, _, _ = q.Push(1)
	_, _, _ = q.Push(2)
	if _, _, err := q.Push(3); !errors.Is(err, ErrFull) {
		t.Fatalf("Push on full queue: err=%v want ErrFull", err)
	}
	if q.Len() != 2 {
		t.Fatalf("len=%d want 2", q.Len())
	}
}

func TestBoundedDropOldest(t *testing.T) {
	q := New[int](2, DropOldest)
	_, _, _ = q.Push(1)
	_, _, _ = q.Push(2)
	dropped, ok, err := q.Push(3)
	if err != nil || !ok || dropped != 1 {
		t.Fatalf("Push: dropped=%d ok=%v err=%v, want 1/true/nil", dropped, ok, err)
	}
	for _, want := range []int{2, 3} {
		got, _ := q.Pop(context.Background())
		if got != want {
			t.Fatalf("got %d want %d", got, want)
		}
		q.Done()
	}
}
