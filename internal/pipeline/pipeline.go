package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/pedro-hbl/fintx-dataset-generator/internal/metrics"
	"github.com/pedro-hbl/fintx-dataset-generator/pkg/dataset/generator"
	"github.com/pedro-hbl/fintx-dataset-generator/pkg/dataset/models"
	"github.com/pedro-hbl/fintx-dataset-generator/pkg/dataset/report"
	"github.com/pedro-hbl/fintx-dataset-generator/pkg/sinks"
)

// ErrCountMismatch is returned when a sink holds a different number of records than were generated
var ErrCountMismatch = errors.New("record count mismatch")

// Options configures a pipeline run
type Options struct {
	Generator generator.Options

	// Verify re-counts every sink after writing
	Verify bool

	Batch *sinks.BatchOptions

	// Parameters are recorded with the run metrics
	Parameters map[string]interface{}
}

// SinkResult describes what happened at one sink
type SinkResult struct {
	Name     string                 `json:"name"`
	Written  int                    `json:"written"`
	Count    int64                  `json:"count,omitempty"`
	Verified bool                   `json:"verified"`
	Metrics  map[string]interface{} `json:"metrics"`
}

// Result is the outcome of a pipeline run
type Result struct {
	RunID   string                `json:"runId"`
	Records []*models.Transaction `json:"-"`
	Summary report.Summary        `json:"summary"`
	Sinks   []SinkResult          `json:"sinks"`
	Metrics *metrics.RunResult    `json:"metrics"`
}

// Run generates the dataset, writes it to every sink in order and optionally verifies
// the stored counts. It stops at the first failing sink; the returned Result still
// carries everything completed up to that point.
func Run(ctx context.Context, opts Options, targets []sinks.Sink, collector *metrics.Collector) (*Result, error) {
	if collector == nil {
		collector = metrics.NewCollector()
	}

	result := &Result{
		RunID: uuid.New().String(),
	}

	collector.StartRun(result.RunID, opts.Parameters)
	defer func() {
		result.Metrics = collector.EndRun(result.RunID)
	}()

	gen := generator.New(opts.Generator)
	recordCount := int64(gen.Options().RecordCount)

	err := collector.MeasurePhase(metrics.GeneratePhase, "", recordCount, 0, func() error {
		result.Records = gen.Generate()
		return nil
	})
	if err != nil {
		return result, err
	}

	result.Summary = report.Summarize(result.Records)
	collector.AddCustomMetric("recordsGenerated", len(result.Records))
	collector.AddCustomMetric("statusCounts", result.Summary.ByStatus)
	log.Printf("Run %s: generated %d records", result.RunID, len(result.Records))

	for _, sink := range targets {
		sinkResult, err := writeToSink(ctx, sink, result.Records, opts, collector)
		result.Sinks = append(result.Sinks, sinkResult)
		if err != nil {
			return result, fmt.Errorf("%s sink: %w", sink.Name(), err)
		}
	}

	return result, nil
}

func writeToSink(ctx context.Context, sink sinks.Sink, records []*models.Transaction, opts Options, collector *metrics.Collector) (SinkResult, error) {
	sinkResult := SinkResult{Name: sink.Name()}

	if err := sink.Initialize(ctx); err != nil {
		return sinkResult, fmt.Errorf("failed to initialize: %w", err)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			log.Printf("Warning: failed to close %s sink: %v", sink.Name(), err)
		}
	}()

	err := collector.MeasurePhase(metrics.WritePhase, sink.Name(), int64(len(records)), 0, func() error {
		return sink.WriteBatch(ctx, records, opts.Batch)
	})
	sinkResult.Metrics = sink.GetMetrics()
	if err != nil {
		return sinkResult, fmt.Errorf("write failed: %w", err)
	}
	sinkResult.Written = len(records)
	log.Printf("Wrote %d records to %s", len(records), sink.Name())

	if !opts.Verify {
		return sinkResult, nil
	}

	err = collector.MeasurePhase(metrics.VerifyPhase, sink.Name(), int64(len(records)), 0, func() error {
		count, err := sink.Count(ctx)
		if err != nil {
			return err
		}
		sinkResult.Count = count
		if count != int64(len(records)) {
			return fmt.Errorf("%w: expected %d, found %d", ErrCountMismatch, len(records), count)
		}
		return nil
	})
	if err != nil {
		return sinkResult, fmt.Errorf("verification failed: %w", err)
	}

	sinkResult.Verified = true
	return sinkResult, nil
}
