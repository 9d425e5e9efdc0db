package session

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

func TestMessageDeduperObserve(t *testing.T) {
	d := NewMessageDeduper(8)

	if !d.Observe("msg-1") {
		t.Error("first observation should be new")
	}
	if d.Observe("msg-1") {
		t.Error("second observation should be a duplicate")
	}
	if !d.Observe("msg-2") {
		t.Error("different id should be new")
	}
}

func TestMessageDeduperEmptyIDAlwaysNew(t *testing.T) {
	d := NewMessageDeduper(8)

	// Messages without an id cannot be keyed and are never deduplicated.
	if !d.Observe("") {
		t.Error("empty id should be treated as new")
	}
	if !d.Observe("") {
		t.Error("empty id should be treated as new every time")
	}
	if d.Seen("") {
		t.Error("empty id should never be reported seen")
	}
}

func TestMessageDeduperSeenMark(t *testing.T) {
	d := NewMessageDeduper(8)

	if d.Seen("msg-1") {
		t.Error("unmarked id reported as seen")
	}
	d.Mark("msg-1")
	if !d.Seen("msg-1") {
		t.Error("marked id not reported as seen")
	}
}

func TestMessageDeduperReset(t *testing.T) {
	d := NewMessageDeduper(8)
	d.Mark("msg-1")
	d.Reset()
	if d.Seen("msg-1") {
		t.Error("reset should clear the set")
	}
}

func TestMessageDeduperObserveConcurrent(t *testing.T) {
	// The push path and the REST reply path can race Observe on the same
	// message id; exactly one of them may see it as new.
	d := NewMessageDeduper(defaultDedupeSize)

	const iterations = 1000
	for i := 0; i < iterations; i++ {
		id := fmt.Sprintf("msg-%d", i)
		var wins int32
		start := make(chan struct{})
		var wg sync.WaitGroup
		for g := 0; g < 2; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				if d.Observe(id) {
					atomic.AddInt32(&wins, 1)
				}
			}()
		}
		close(start)
		wg.Wait()
		if wins != 1 {
			t.Fatalf("id %q observed as new %d times, want 1", id, wins)
		}
	}
}

func TestMessageDeduperBounded(t *testing.T) {
	d := NewMessageDeduper(2)
	d.Mark("a")
	d.Mark("b")
	d.Mark("c")
	// Oldest entry evicted once capacity is exceeded.
	if d.Seen("a") {
		t.Error("oldest id should have been evicted")
	}
	if !d.Seen("b") || !d.Seen("c") {
		t.Error("recent ids should still be present")
	}
}
