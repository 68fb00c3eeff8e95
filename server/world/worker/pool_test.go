package worker

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

// drainOne spins until exactly one result arrives or the deadline passes.
func drainOne(t *testing.T, p *Pool) Result {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		var got *Result
		p.Drain(func(res Result) {
			r := res
			got = &r
		})
		if got != nil {
			return *got
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("no result before deadline")
	return Result{}
}

func TestSubmitAndDrain(t *testing.T) {
	p := NewPool(2, 8, nil)
	defer p.Close()

	id, ok := p.Submit(func() any { return 42 })
	if !ok {
		t.Fatal("submit rejected on an empty queue")
	}
	res := drainOne(t, p)
	if res.ID != id {
		t.Fatalf("result id %v, want %v", res.ID, id)
	}
	if res.Err != nil || res.Value.(int) != 42 {
		t.Fatalf("result: %+v", res)
	}
}

func TestPanicBecomesError(t *testing.T) {
	p := NewPool(1, 8, nil)
	defer p.Close()

	if _, ok := p.Submit(func() any { panic("boom") }); !ok {
		t.Fatal("submit rejected")
	}
	res := drainOne(t, p)
	if res.Err == nil {
		t.Fatal("panicking job must deliver an error result")
	}
}

func TestSubmitBackpressure(t *testing.T) {
	p := NewPool(1, 1, nil)
	defer p.Close()

	block := make(chan struct{})
	// Occupy the single worker, then fill the single queue slot.
	p.Submit(func() any { <-block; return nil })
	time.Sleep(10 * time.Millisecond)
	p.Submit(func() any { return nil })

	if _, ok := p.Submit(func() any { return nil }); ok {
		t.Fatal("submit must refuse when the queue is full instead of blocking")
	}
	close(block)
}

func TestSubmitAfterClose(t *testing.T) {
	p := NewPool(1, 4, nil)
	p.Close()
	if _, ok := p.Submit(func() any { return nil }); ok {
		t.Fatal("submit must refuse after Close")
	}
}

func TestRequestIDsUnique(t *testing.T) {
	p := NewPool(1, 64, nil)
	defer p.Close()

	seen := make(map[uuid.UUID]bool)
	for i := 0; i < 32; i++ {
		id, ok := p.Submit(func() any { return nil })
		if !ok {
			// Queue pressure is fine; drain and continue.
			p.Drain(func(Result) {})
			continue
		}
		if seen[id] {
			t.Fatalf("duplicate request id %v", id)
		}
		seen[id] = true
	}
}
