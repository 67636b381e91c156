package csvsink

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pedro-hbl/fintx-dataset-generator/pkg/dataset/csvfile"
	"github.com/pedro-hbl/fintx-dataset-generator/pkg/dataset/models"
	"github.com/pedro-hbl/fintx-dataset-generator/pkg/sinks"
)

// DefaultPath is where a default run writes its dataset
const DefaultPath = "data/financial_transactions_100k.csv"

// CSVSink writes the dataset to a single delimited file
type CSVSink struct {
	path        string
	metrics     map[string]interface{}
	initialized bool
}

// CSVFactory creates CSV sink instances
type CSVFactory struct{}

// NewCSVFactory creates a new CSV factory
func NewCSVFactory() *CSVFactory {
	return &CSVFactory{}
}

// CreateSink implements the SinkFactory interface
func (f *CSVFactory) CreateSink(config map[string]interface{}) (sinks.Sink, error) {
	return NewCSVSink(sinks.GetString(config, "path", DefaultPath)), nil
}

// NewCSVSink creates a sink writing to path
func NewCSVSink(path string) *CSVSink {
	s := &CSVSink{path: path}
	s.ResetMetrics()
	return s
}

// Name implements the Sink interface
func (s *CSVSink) Name() string {
	return "csv"
}

// Path returns the output file path
func (s *CSVSink) Path() string {
	return s.path
}

// Initialize checks that the output directory exists. It is never created.
func (s *CSVSink) Initialize(ctx context.Context) error {
	dir := filepath.Dir(s.path)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("output directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output directory %s is not a directory", dir)
	}
	s.initialized = true
	return nil
}

// Close implements the Sink interface
func (s *CSVSink) Close() error {
	s.initialized = false
	return nil
}

// WriteBatch writes the whole dataset in one pass, replacing any previous file.
// The file handle is held only for the duration of the write.
func (s *CSVSink) WriteBatch(ctx context.Context, records []*models.Transaction, options *sinks.BatchOptions) error {
	if !s.initialized {
		return errors.New("sink not initialized")
	}

	if err := csvfile.WriteFile(s.path, records); err != nil {
		s.metrics["failedOperations"] = s.metrics["failedOperations"].(int) + 1
		return err
	}

	s.metrics["writeOperations"] = s.metrics["writeOperations"].(int) + 1
	s.metrics["recordsWritten"] = len(records)
	if info, err := os.Stat(s.path); err == nil {
		s.metrics["fileSize"] = info.Size()
	}
	return nil
}

// Count re-reads the file and returns its number of data rows
func (s *CSVSink) Count(ctx context.Context) (int64, error) {
	records, err := csvfile.ReadFile(s.path)
	if err != nil {
		return 0, err
	}
	return int64(len(records)), nil
}

// GetMetrics implements the Sink interface
func (s *CSVSink) GetMetrics() map[string]interface{} {
	metrics := make(map[string]interface{})
	for k, v := range s.metrics {
		metrics[k] = v
	}
	return metrics
}

// ResetMetrics implements the Sink interface
func (s *CSVSink) ResetMetrics() {
	s.metrics = map[string]interface{}{
		"writeOperations":  0,
		"failedOperations": 0,
		"recordsWritten":   0,
		"fileSize":         int64(0),
	}
}
