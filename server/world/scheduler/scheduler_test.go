package scheduler

import (
	"testing"
	"time"
)

// fakeClock advances a fixed amount every time the scheduler asks for the
// time, making budget exhaustion deterministic.
type fakeClock struct {
	now  time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.now = c.now.Add(c.step)
	return c.now
}

type countTask struct {
	runs    int
	elapsed time.Duration
}

func (t *countTask) Execute(_, _ time.Duration) Result {
	t.runs++
	return Result{Completed: true, Elapsed: t.elapsed, WorkUnits: 1}
}

func TestCriticalAlwaysRuns(t *testing.T) {
	m := NewMetrics()
	s := New(Config{Metrics: m, MinBudget: time.Millisecond})
	// Every clock query advances 10ms: the budget is gone before any
	// non-critical task gets a slot.
	s.now = (&fakeClock{step: 10 * time.Millisecond}).Now

	critical := &countTask{}
	normal := &countTask{}
	s.Register("input", Critical, critical)
	s.Register("generation", Normal, normal)

	for i := 0; i < 5; i++ {
		s.Frame(16 * time.Millisecond)
	}
	if critical.runs != 5 {
		t.Fatalf("critical task ran %d times, want 5", critical.runs)
	}
	if normal.runs != 0 {
		t.Fatalf("normal task ran %d times, want 0 (budget exhausted)", normal.runs)
	}
	tm, _ := m.Task("generation")
	if tm.Skips != 5 {
		t.Fatalf("normal task skips: got %d, want 5", tm.Skips)
	}
}

func TestPriorityOrder(t *testing.T) {
	s := New(Config{MaxBudget: time.Second, MinBudget: time.Second})
	var order []string
	mk := func(id string) Task {
		return TaskFunc(func(_, _ time.Duration) Result {
			order = append(order, id)
			return Result{Completed: true}
		})
	}
	s.Register("low", Low, mk("low"))
	s.Register("normal", Normal, mk("normal"))
	s.Register("critical", Critical, mk("critical"))
	s.Register("high", High, mk("high"))

	s.Frame(16 * time.Millisecond)
	want := []string{"critical", "high", "normal", "low"}
	for i, id := range want {
		if order[i] != id {
			t.Fatalf("execution order %v, want %v", order, want)
		}
	}
}

func TestBudgetClamped(t *testing.T) {
	s := New(Config{})
	// No frames reported: budget sits at the minimum.
	if got := s.Budget(); got != time.Millisecond {
		t.Fatalf("empty budget: got %v, want 1ms", got)
	}
	// A huge frame time clamps at the maximum.
	for i := 0; i < 100; i++ {
		s.ReportFrameTime(time.Second)
	}
	if got := s.Budget(); got != 8*time.Millisecond {
		t.Fatalf("clamped budget: got %v, want 8ms", got)
	}
}

func TestBudgetTracksFrameEMA(t *testing.T) {
	s := New(Config{})
	for i := 0; i < 200; i++ {
		s.ReportFrameTime(16 * time.Millisecond)
	}
	// 0.25 * 16ms = 4ms.
	got := s.Budget()
	if got < 3900*time.Microsecond || got > 4100*time.Microsecond {
		t.Fatalf("budget: got %v, want ~4ms", got)
	}
}

func TestUnregisterStops(t *testing.T) {
	s := New(Config{MaxBudget: time.Second, MinBudget: time.Second})
	task := &countTask{}
	s.Register("x", Normal, task)
	s.Frame(time.Millisecond)
	s.Unregister("x")
	s.Frame(time.Millisecond)
	if task.runs != 1 {
		t.Fatalf("task ran %d times, want 1", task.runs)
	}
}

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()
	s := New(Config{Metrics: m, MaxBudget: time.Second, MinBudget: time.Second})
	task := &countTask{elapsed: 2 * time.Millisecond}
	s.Register("gen", Normal, task)

	for i := 0; i < 3; i++ {
		s.Frame(time.Millisecond)
	}
	tm, ok := m.Task("gen")
	if !ok {
		t.Fatal("no metrics recorded for task")
	}
	if tm.Executions != 3 || tm.WorkUnits != 3 {
		t.Fatalf("counters: %+v", tm)
	}
	if tm.ExecTimeEMA == 0 {
		t.Fatal("EMA never initialised")
	}
	if f := m.Frame(); f.Frames != 3 || f.BackgroundTime == 0 {
		t.Fatalf("frame metrics: %+v", f)
	}
}
