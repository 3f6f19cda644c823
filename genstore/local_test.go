package genstore

import (
	"context"
	"testing"
	"time"
)

func TestLocalBumpAndSnapshot(t *testing.T) {
	ctx := context.Background()
	s := NewLocalGenStore(0, 0)
	t.Cleanup(func() { _ = s.Close(ctx) })

	if g, err := s.Snapshot(ctx, "GUILD:1"); err != nil || g != 0 {
		t.Fatalf("Snapshot missing: g=%d err=%v, want 0", g, err)
	}
	for want := uint64(1); want <= 2; want++ {
		g, err := s.Bump(ctx, "GUILD:1")
		if err != nil {
			t.Fatal(err)
		}
		if g != want {
			t.Fatalf("Bump: got %d want %d", g, want)
		}
	}
	if g, _ := s.Snapshot(ctx, "GUILD:1"); g != 2 {
		t.Fatalf("Snapshot after bumps: got %d want 2", g)
	}
	if g, _ := s.Snapshot(ctx, "GUILD:2"); g != 0 {
		t.Fatalf("other key should be untouched, got %d", g)
	}
}

func TestLocalCleanupPrunesOld(t *testing.T) {
	ctx := context.Background()
	s := NewLocalGenStore(0, time.Second) // retention=1s
	t.Cleanup(func() { _ = s.Close(ctx) })

	if _, err := s.Bump(ctx, "old"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(1200 * time.Millisecond)
	s.Cleanup(time.Second)

	g, err := s.Snapshot(ctx, "old")
	if err != nil {
		t.Fatal(err)
	}
	if g != 0 {
		t.Fatalf("expected pruned -> 0, got %d", g)
	}
}

func TestLocalPruneLoopAndIdempotentClose(t *testing.T) {
	ctx := context.Background()
	s := NewLocalGenStore(10*time.Millisecond, 20*time.Millisecond)

	if _, err := s.Bump(ctx, "ROLE:1"); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
	deadline := time.Now().Add(2 * time.Second)
	for s.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("prune loop never removed the key")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := s.Close(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(ctx); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
