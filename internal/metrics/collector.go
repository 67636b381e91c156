package metrics

import (
	"fmt"
	"sync"
	"time"
)

// Phase represents a timed step of a dataset run
type Phase string

const (
	// GeneratePhase produces the records in memory
	GeneratePhase Phase = "GENERATE"
	// WritePhase persists the records to one sink
	WritePhase Phase = "WRITE"
	// VerifyPhase compares a sink's record count with the generated count
	VerifyPhase Phase = "VERIFY"
)

// RunResult stores the metrics for a complete dataset run
type RunResult struct {
	RunID      string                 `json:"runId"`
	Parameters map[string]interface{} `json:"parameters"`
	StartTime  time.Time              `json:"startTime"`
	EndTime    time.Time              `json:"endTime"`
	Duration   time.Duration          `json:"duration"`
	Phases     []*PhaseMetric         `json:"phases"`
	Summary    map[string]interface{} `json:"summary"`
}

// PhaseMetric represents metrics for a single phase
type PhaseMetric struct {
	Phase        Phase         `json:"phase"`
	Target       string        `json:"target,omitempty"`
	StartTime    time.Time     `json:"startTime"`
	EndTime      time.Time     `json:"endTime"`
	Duration     time.Duration `json:"duration"`
	ItemCount    int64         `json:"itemCount"`
	ByteCount    int64         `json:"byteCount"`
	Error        error         `json:"-"`
	ErrorMessage string        `json:"errorMessage,omitempty"`
}

// Collector collects phase metrics for dataset runs
type Collector struct {
	mu         sync.Mutex
	currentRun *RunResult
	runs       map[string]*RunResult
	now        func() time.Time
}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	return &Collector{
		runs: make(map[string]*RunResult),
		now:  time.Now,
	}
}

// StartRun begins a new run and sets it as the current run
func (c *Collector) StartRun(runID string, parameters map[string]interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.currentRun = &RunResult{
		RunID:      runID,
		Parameters: parameters,
		StartTime:  c.now(),
		Phases:     make([]*PhaseMetric, 0),
		Summary:    make(map[string]interface{}),
	}

	c.runs[runID] = c.currentRun
}

// MeasurePhase times fn as one phase of the current run and returns its error.
// target names the sink for write and verify phases.
func (c *Collector) MeasurePhase(phase Phase, target string, itemCount, byteCount int64, fn func() error) error {
	if fn == nil {
		return fmt.Errorf("phase function cannot be nil")
	}

	c.mu.Lock()
	if c.currentRun == nil {
		c.mu.Unlock()
		return fmt.Errorf("no run is currently active")
	}
	c.mu.Unlock()

	metric := &PhaseMetric{
		Phase:     phase,
		Target:    target,
		StartTime: c.now(),
		ItemCount: itemCount,
		ByteCount: byteCount,
	}

	err := fn()
	metric.EndTime = c.now()
	metric.Duration = metric.EndTime.Sub(metric.StartTime)

	if err != nil {
		metric.Error = err
		metric.ErrorMessage = err.Error()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.currentRun != nil {
		c.currentRun.Phases = append(c.currentRun.Phases, metric)
	}

	return err
}

// AddCustomMetric adds a custom metric to the current run's summary
func (c *Collector) AddCustomMetric(name string, value interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.currentRun == nil {
		return fmt.Errorf("no run is currently active")
	}

	c.currentRun.Summary[name] = value
	return nil
}

// EndRun completes the run, calculates summary metrics, and returns the result
func (c *Collector) EndRun(runID string) *RunResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	run, exists := c.runs[runID]
	if !exists || run != c.currentRun {
		return nil
	}

	run.EndTime = c.now()
	run.Duration = run.EndTime.Sub(run.StartTime)

	var totalDuration time.Duration
	var totalItems, totalBytes int64
	var successCount, errorCount int64
	phaseDurations := make(map[string]int64)

	for _, p := range run.Phases {
		totalDuration += p.Duration
		totalBytes += p.ByteCount
		if p.Phase == WritePhase {
			totalItems += p.ItemCount
		}

		if p.Error != nil {
			errorCount++
		} else {
			successCount++
		}

		key := string(p.Phase)
		if p.Target != "" {
			key += ":" + p.Target
		}
		phaseDurations[key] += p.Duration.Nanoseconds()
	}

	phaseCount := int64(len(run.Phases))

	if phaseCount > 0 {
		run.Summary["phaseCount"] = phaseCount
		run.Summary["totalDuration"] = totalDuration.Nanoseconds()
		run.Summary["totalItems"] = totalItems
		run.Summary["totalBytes"] = totalBytes
		run.Summary["successCount"] = successCount
		run.Summary["errorCount"] = errorCount
		run.Summary["successRate"] = float64(successCount) / float64(phaseCount)
		run.Summary["phaseDurations"] = phaseDurations
		if seconds := run.Duration.Seconds(); seconds > 0 {
			run.Summary["throughputItems"] = float64(totalItems) / seconds
		}
	}

	c.currentRun = nil
	return run
}

// GetRunResult retrieves a run result by id
func (c *Collector) GetRunResult(runID string) *RunResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.runs[runID]
}

// Reset clears all run data
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.currentRun = nil
	c.runs = make(map[string]*RunResult)
}
