package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// steppingClock advances one second on every call
func steppingClock() func() time.Time {
	t := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestCollector_RunSummary(t *testing.T) {
	c := NewCollector()
	c.now = steppingClock()

	c.StartRun("run-1", map[string]interface{}{"recordCount": 100})

	require.NoError(t, c.MeasurePhase(GeneratePhase, "", 100, 0, func() error { return nil }))
	require.NoError(t, c.MeasurePhase(WritePhase, "csv", 100, 2048, func() error { return nil }))
	err := c.MeasurePhase(WritePhase, "dynamodb", 100, 0, func() error { return errors.New("throttled") })
	assert.EqualError(t, err, "throttled")
	require.NoError(t, c.AddCustomMetric("recordsGenerated", 100))

	result := c.EndRun("run-1")
	require.NotNil(t, result)

	assert.Len(t, result.Phases, 3)
	assert.Equal(t, "throttled", result.Phases[2].ErrorMessage)
	assert.Equal(t, int64(3), result.Summary["phaseCount"])
	assert.Equal(t, int64(200), result.Summary["totalItems"])
	assert.Equal(t, int64(2048), result.Summary["totalBytes"])
	assert.Equal(t, int64(1), result.Summary["errorCount"])
	assert.InDelta(t, 2.0/3.0, result.Summary["successRate"], 1e-9)
	assert.Equal(t, 100, result.Summary["recordsGenerated"])

	durations := result.Summary["phaseDurations"].(map[string]int64)
	assert.Equal(t, time.Second.Nanoseconds(), durations["GENERATE"])
	assert.Contains(t, durations, "WRITE:csv")
	assert.Contains(t, durations, "WRITE:dynamodb")

	assert.Same(t, result, c.GetRunResult("run-1"))
}

func TestCollector_NoActiveRun(t *testing.T) {
	c := NewCollector()

	assert.Error(t, c.MeasurePhase(GeneratePhase, "", 0, 0, func() error { return nil }))
	assert.Error(t, c.AddCustomMetric("x", 1))
	assert.Nil(t, c.EndRun("missing"))

	c.StartRun("run-2", nil)
	assert.Error(t, c.MeasurePhase(GeneratePhase, "", 0, 0, nil))
}

func TestCollector_Reset(t *testing.T) {
	c := NewCollector()
	c.StartRun("run-3", nil)
	c.Reset()

	assert.Nil(t, c.GetRunResult("run-3"))
	assert.Nil(t, c.EndRun("run-3"))
}
