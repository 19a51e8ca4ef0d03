package store

import (
	"context"
	"testing"

	"github.com/rushteam/venuekit/core"
)

func TestMemoryStoreGetSet(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !core.IsStoreNotFound(err) {
		t.Errorf("missing key error = %v, want store not found", err)
	}

	if err := s.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "v" {
		t.Errorf("got %q, want %q", got, "v")
	}

	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "k"); !core.IsStoreNotFound(err) {
		t.Errorf("deleted key error = %v, want store not found", err)
	}
}

func TestMemoryStoreBatch(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	err := s.BatchSet(ctx, map[string][]byte{
		"a": []byte("1"),
		"b": []byte("2"),
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.BatchGet(ctx, []string{"a", "b", "missing"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if string(got["b"]) != "2" {
		t.Errorf("b = %q, want 2", got["b"])
	}
}

func TestMemoryStoreZRangeOrdering(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	// Equal scores must come back in member order so that two refreshes
	// of the same leaderboard produce identical slices.
	for _, m := range []struct {
		member string
		score  float64
	}{
		{"30", 0.5},
		{"10", 0.9},
		{"20", 0.5},
		{"40", 0.1},
	} {
		if err := s.ZAdd(ctx, "trending", m.score, m.member); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.ZRange(ctx, "trending", 0, -1)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"10", "20", "30", "40"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}

	top, err := s.ZRange(ctx, "trending", 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 2 || top[0] != "10" || top[1] != "20" {
		t.Errorf("top 2 = %v, want [10 20]", top)
	}

	empty, err := s.ZRange(ctx, "nope", 0, -1)
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 0 {
		t.Errorf("missing zset = %v, want empty", empty)
	}
}

func TestMemoryStoreZScore(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	if err := s.ZAdd(ctx, "z", 0.42, "7"); err != nil {
		t.Fatal(err)
	}
	score, err := s.ZScore(ctx, "z", "7")
	if err != nil {
		t.Fatal(err)
	}
	if score != 0.42 {
		t.Errorf("score = %f, want 0.42", score)
	}
	if _, err := s.ZScore(ctx, "z", "8"); !core.IsStoreNotFound(err) {
		t.Errorf("missing member error = %v, want store not found", err)
	}
}

func TestMemoryStoreHash(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	if err := s.HSet(ctx, "profile:u1", "taste", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := s.HSet(ctx, "profile:u1", "quality", []byte("y")); err != nil {
		t.Fatal(err)
	}

	got, err := s.HGet(ctx, "profile:u1", "taste")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "x" {
		t.Errorf("taste = %q, want x", got)
	}

	all, err := s.HGetAll(ctx, "profile:u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || string(all["quality"]) != "y" {
		t.Errorf("HGetAll = %v", all)
	}

	if _, err := s.HGet(ctx, "profile:u1", "nope"); !core.IsStoreNotFound(err) {
		t.Errorf("missing field error = %v, want store not found", err)
	}
}
