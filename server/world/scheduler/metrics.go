package scheduler

import (
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Metrics tracks per-task and per-frame counters for observability,
// opt-in. A nil *Metrics is valid and records nothing.
type Metrics struct {
	tasks  map[string]*TaskMetrics
	frames FrameMetrics

	// emaRate blends each new execution time into the per-task EMA.
	emaRate float64
}

// TaskMetrics is one task's rolling counters.
type TaskMetrics struct {
	// ExecTimeEMA is the exponential moving average of Execute durations.
	ExecTimeEMA time.Duration
	Executions  uint64
	Skips       uint64
	WorkUnits   uint64
}

// FrameMetrics is the per-frame time breakdown.
type FrameMetrics struct {
	Frames         uint64
	CriticalTime   time.Duration
	BackgroundTime time.Duration
}

// NewMetrics creates an empty metrics registry.
func NewMetrics() *Metrics {
	return &Metrics{tasks: make(map[string]*TaskMetrics), emaRate: 0.1}
}

func (m *Metrics) record(id string, res Result, skipped bool) {
	if m == nil {
		return
	}
	t, ok := m.tasks[id]
	if !ok {
		t = &TaskMetrics{}
		m.tasks[id] = t
	}
	if skipped {
		t.Skips++
		return
	}
	t.Executions++
	t.WorkUnits += uint64(res.WorkUnits)
	if t.ExecTimeEMA == 0 {
		t.ExecTimeEMA = res.Elapsed
	} else {
		t.ExecTimeEMA += time.Duration(float64(res.Elapsed-t.ExecTimeEMA) * m.emaRate)
	}
}

func (m *Metrics) recordFrame(critical, background time.Duration) {
	if m == nil {
		return
	}
	m.frames.Frames++
	m.frames.CriticalTime += critical
	m.frames.BackgroundTime += background
}

// Task returns a copy of the counters recorded for id.
func (m *Metrics) Task(id string) (TaskMetrics, bool) {
	if m == nil {
		return TaskMetrics{}, false
	}
	t, ok := m.tasks[id]
	if !ok {
		return TaskMetrics{}, false
	}
	return *t, true
}

// Frame returns a copy of the per-frame breakdown.
func (m *Metrics) Frame() FrameMetrics {
	if m == nil {
		return FrameMetrics{}
	}
	return m.frames
}

// TaskIDs returns the ids of all tasks with recorded metrics, sorted.
func (m *Metrics) TaskIDs() []string {
	if m == nil {
		return nil
	}
	ids := maps.Keys(m.tasks)
	slices.Sort(ids)
	return ids
}
