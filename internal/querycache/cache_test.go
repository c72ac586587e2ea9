package querycache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFetchCachesResult(t *testing.T) {
	c := New(time.Minute)
	calls := 0
	fetch := func(context.Context) ([]string, error) {
		calls++
		return []string{"Delhi"}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := Fetch(context.Background(), c, Key("reels", "Delhi"), fetch)
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		if len(got) != 1 || got[0] != "Delhi" {
			t.Fatalf("unexpected value %v", got)
		}
	}
	if calls != 1 {
		t.Fatalf("expected a single fetch, got %d", calls)
	}
}

func TestFetchDoesNotCacheErrors(t *testing.T) {
	c := New(time.Minute)
	boom := errors.New("boom")

	if _, err := Fetch(context.Background(), c, "k", func(context.Context) (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, ok := c.Get("k"); ok {
		t.Fatalf("errors must not be cached")
	}
}

func TestEntriesExpire(t *testing.T) {
	c := New(20 * time.Millisecond)
	c.Commit(c.Begin("k"), 1)

	if _, ok := c.Get("k"); !ok {
		t.Fatalf("expected fresh entry")
	}
	time.Sleep(40 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestResultAfterInvalidationIsDropped(t *testing.T) {
	c := New(time.Minute)

	stale := c.Begin("plans|u1")
	c.Invalidate("plans|u1")
	fresh := c.Begin("plans|u1")

	if !c.Commit(fresh, "new") {
		t.Fatalf("fresh result must be stored")
	}
	if c.Commit(stale, "old") {
		t.Fatalf("result issued before invalidation must be dropped")
	}
	if v, _ := c.Get("plans|u1"); v != "new" {
		t.Fatalf("expected newer state to survive, got %v", v)
	}
}

func TestOlderQueryCannotOverwriteNewer(t *testing.T) {
	c := New(time.Minute)

	first := c.Begin("k")
	second := c.Begin("k")

	c.Commit(second, "second")
	if c.Commit(first, "first") {
		t.Fatalf("older query must not overwrite a newer result")
	}
	if v, _ := c.Get("k"); v != "second" {
		t.Fatalf("got %v", v)
	}
}

func TestInvalidatePrefix(t *testing.T) {
	c := New(time.Minute)
	c.Commit(c.Begin(Key("plans", "u1", "")), 1)
	c.Commit(c.Begin(Key("plans", "u1", "current")), 2)
	c.Commit(c.Begin(Key("plans", "u2", "")), 3)
	inflight := c.Begin(Key("plans", "u1", "past"))

	c.InvalidatePrefix(Key("plans", "u1") + "|")

	if _, ok := c.Get(Key("plans", "u1", "")); ok {
		t.Fatalf("expected u1 entries to be dropped")
	}
	if _, ok := c.Get(Key("plans", "u2", "")); !ok {
		t.Fatalf("u2 entries must survive")
	}
	if c.Current(inflight) {
		t.Fatalf("in-flight u1 query must be superseded")
	}
}

func TestFlushRejectsQueriesInFlight(t *testing.T) {
	c := New(time.Minute)
	inflight := c.Begin("saved|u1")

	c.Flush()

	if c.Current(inflight) {
		t.Fatalf("query issued before Flush must be superseded")
	}
	if c.Commit(inflight, "old user") {
		t.Fatalf("result issued before Flush must be dropped")
	}
	if _, ok := c.Get("saved|u1"); ok {
		t.Fatalf("nothing may be cached for a flushed query")
	}
}

func TestIdleKeysAreForgotten(t *testing.T) {
	c := New(20 * time.Millisecond)
	ctx := context.Background()
	boom := errors.New("boom")

	_, _ = Fetch(ctx, c, "reels|failed", func(context.Context) (int, error) { return 0, boom })
	if n := c.Len(); n != 0 {
		t.Fatalf("failed query left %d key(s) behind", n)
	}

	_, _ = Fetch(ctx, c, "reels|Delhi", func(context.Context) (int, error) { return 1, nil })
	c.Invalidate("reels|Delhi")
	if n := c.Len(); n != 0 {
		t.Fatalf("invalidated key still tracked, %d key(s)", n)
	}

	for _, city := range []string{"Goa", "Pune", "Agra"} {
		_, _ = Fetch(ctx, c, Key("reels", city), func(context.Context) (int, error) { return 1, nil })
	}
	time.Sleep(40 * time.Millisecond)
	for i := 0; i < sweepEvery; i++ {
		c.Abandon(c.Begin("reels|tick"))
	}
	if n := c.Len(); n != 0 {
		t.Fatalf("expired keys still tracked after a sweep, %d key(s)", n)
	}
}

func TestKeyWithQueryInFlightIsKept(t *testing.T) {
	c := New(time.Minute)
	inflight := c.Begin("k")
	c.Invalidate("k")

	if n := c.Len(); n != 1 {
		t.Fatalf("in-flight key dropped, %d key(s)", n)
	}
	if c.Commit(inflight, 1) {
		t.Fatalf("invalidated query must not be stored")
	}
	if n := c.Len(); n != 0 {
		t.Fatalf("finished key still tracked, %d key(s)", n)
	}
}
