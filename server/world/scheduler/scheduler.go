// Package scheduler implements the adaptive frame-budget executor: a
// registry of prioritised tasks interleaved within a budget derived from a
// rolling average of frame times. Critical tasks always run; everything
// else shares whatever the budget leaves.
package scheduler

import (
	"log/slog"
	"time"

	"golang.org/x/exp/slices"
)

// Priority is a task's hard priority class. Critical tasks run
// unconditionally every frame; the rest run in class order until the frame
// budget is consumed.
type Priority uint8

const (
	Critical Priority = iota
	High
	Normal
	Low
)

func (p Priority) String() string {
	switch p {
	case Critical:
		return "critical"
	case High:
		return "high"
	case Normal:
		return "normal"
	default:
		return "low"
	}
}

// Result is what a task reports back from one execution slot.
type Result struct {
	// Completed is false when the task self-limited against the remaining
	// budget and wants to keep its place next frame.
	Completed bool
	// Elapsed is the task's own measurement of time spent, fed into its
	// per-task EMA.
	Elapsed time.Duration
	// WorkUnits counts the units of work processed (sub-chunks generated,
	// columns ticked, ...), for metrics only.
	WorkUnits int
}

// Task is a scheduled unit. Execute is handed the frame delta and the
// budget still available this frame; implementations typically loop calling
// their processNext until the budget runs out.
type Task interface {
	Execute(delta, remainingBudget time.Duration) Result
}

// TaskFunc adapts a plain function to the Task interface.
type TaskFunc func(delta, remainingBudget time.Duration) Result

func (f TaskFunc) Execute(delta, remainingBudget time.Duration) Result {
	return f(delta, remainingBudget)
}

// Config holds the scheduler's budget policy tunables. The zero value is
// usable; withDefaults fills in the documented defaults.
type Config struct {
	Logger *slog.Logger
	// BudgetRatio is the fraction of the average frame time granted to
	// non-critical work each frame.
	BudgetRatio float64
	// AdaptationRate blends each new frame-time measurement into the
	// rolling average.
	AdaptationRate float64
	MinBudget      time.Duration
	MaxBudget      time.Duration
	// Metrics enables per-task and per-frame metrics collection when
	// non-nil.
	Metrics *Metrics
}

func (c Config) withDefaults() Config {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.BudgetRatio <= 0 {
		c.BudgetRatio = 0.25
	}
	if c.AdaptationRate <= 0 {
		c.AdaptationRate = 0.1
	}
	if c.MinBudget <= 0 {
		c.MinBudget = time.Millisecond
	}
	if c.MaxBudget <= 0 {
		c.MaxBudget = 8 * time.Millisecond
	}
	return c
}

type entry struct {
	id       string
	priority Priority
	task     Task
	// seq breaks priority ties by registration order so execution order is
	// deterministic.
	seq int
}

// Scheduler owns the task registry and runs one Frame per game tick. It is
// driven by the game-tick thread exclusively.
type Scheduler struct {
	conf Config

	tasks map[string]*entry
	order []*entry
	dirty bool
	seq   int

	// avgFrame is the exponential moving average of reported frame times,
	// in seconds.
	avgFrame float64

	now func() time.Time
}

// New returns a Scheduler with the given configuration.
func New(conf Config) *Scheduler {
	return &Scheduler{
		conf:  conf.withDefaults(),
		tasks: make(map[string]*entry),
		now:   time.Now,
	}
}

// Register installs a task under id. Registering an existing id replaces
// the task, keeping its place in the order.
func (s *Scheduler) Register(id string, p Priority, t Task) {
	if old, ok := s.tasks[id]; ok {
		s.conf.Logger.Warn("scheduler: duplicate task registration, replacing", "id", id)
		old.priority, old.task = p, t
		s.dirty = true
		return
	}
	s.tasks[id] = &entry{id: id, priority: p, task: t, seq: s.seq}
	s.seq++
	s.dirty = true
}

// Unregister removes the task registered under id, if any.
func (s *Scheduler) Unregister(id string) {
	if _, ok := s.tasks[id]; !ok {
		return
	}
	delete(s.tasks, id)
	s.dirty = true
}

// Budget returns the current per-frame budget for non-critical work:
// budgetRatio · avgFrame, clamped to [MinBudget, MaxBudget].
func (s *Scheduler) Budget() time.Duration {
	b := time.Duration(s.conf.BudgetRatio * s.avgFrame * float64(time.Second))
	if b < s.conf.MinBudget {
		return s.conf.MinBudget
	}
	if b > s.conf.MaxBudget {
		return s.conf.MaxBudget
	}
	return b
}

// ReportFrameTime blends a measured frame duration into the rolling
// average via the adaptation rate.
func (s *Scheduler) ReportFrameTime(d time.Duration) {
	sec := d.Seconds()
	if s.avgFrame == 0 {
		s.avgFrame = sec
		return
	}
	s.avgFrame += (sec - s.avgFrame) * s.conf.AdaptationRate
}

// Frame runs one scheduling pass: critical tasks unconditionally, then the
// remaining classes in priority order until the budget is spent. A task
// whose class comes up after the budget ran out is recorded as skipped.
func (s *Scheduler) Frame(delta time.Duration) {
	if s.dirty {
		s.rebuildOrder()
	}
	budget := s.Budget()
	start := s.now()
	var criticalTime, backgroundTime time.Duration

	for _, e := range s.order {
		if e.priority == Critical {
			res := e.task.Execute(delta, budget)
			criticalTime += res.Elapsed
			s.conf.Metrics.record(e.id, res, false)
			continue
		}
		spent := s.now().Sub(start)
		remaining := budget - spent
		if remaining <= 0 {
			s.conf.Metrics.record(e.id, Result{}, true)
			continue
		}
		res := e.task.Execute(delta, remaining)
		backgroundTime += res.Elapsed
		s.conf.Metrics.record(e.id, res, false)
	}

	s.conf.Metrics.recordFrame(criticalTime, backgroundTime)
}

func (s *Scheduler) rebuildOrder() {
	s.order = s.order[:0]
	for _, e := range s.tasks {
		s.order = append(s.order, e)
	}
	slices.SortFunc(s.order, func(a, b *entry) int {
		if a.priority != b.priority {
			return int(a.priority) - int(b.priority)
		}
		return a.seq - b.seq
	})
	s.dirty = false
}
