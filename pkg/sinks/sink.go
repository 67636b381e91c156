package sinks

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pedro-hbl/fintx-dataset-generator/pkg/dataset/models"
)

// BatchOptions represents options for batch writes
type BatchOptions struct {
	// MaxBatchSize caps the records sent per request; zero uses the sink's own limit
	MaxBatchSize int
}

// Sink defines the interface every dataset destination must satisfy
type Sink interface {
	// Name identifies the sink in logs and metrics
	Name() string

	// Initialize prepares the destination (connections, tables, files)
	Initialize(ctx context.Context) error
	Close() error

	// WriteBatch persists records in generation order
	WriteBatch(ctx context.Context, records []*models.Transaction, options *BatchOptions) error

	// Count returns how many records the destination currently holds
	Count(ctx context.Context) (int64, error)

	// Metrics and diagnostics
	GetMetrics() map[string]interface{}
	ResetMetrics()
}

// SinkFactory creates and configures a specific sink implementation
type SinkFactory interface {
	// CreateSink creates a new sink instance with the given configuration
	CreateSink(config map[string]interface{}) (Sink, error)
}

// Registry maps sink names to their factories
type Registry struct {
	factories map[string]SinkFactory
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]SinkFactory),
	}
}

// Register adds a factory under name, replacing any previous one
func (r *Registry) Register(name string, factory SinkFactory) {
	r.factories[strings.ToLower(name)] = factory
}

// Names lists the registered sink names in sorted order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create builds the sink registered under name
func (r *Registry) Create(name string, config map[string]interface{}) (Sink, error) {
	factory, ok := r.factories[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unsupported sink type: %s", name)
	}

	sink, err := factory.CreateSink(config)
	if err != nil {
		return nil, fmt.Errorf("error creating %s sink: %w", name, err)
	}
	return sink, nil
}

// GetString reads a string config value with a default
func GetString(config map[string]interface{}, key, defaultValue string) string {
	if v, ok := config[key].(string); ok && v != "" {
		return v
	}
	return defaultValue
}

// GetInt reads an integer config value with a default; JSON numbers arrive as float64
func GetInt(config map[string]interface{}, key string, defaultValue int) int {
	switch v := config[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return defaultValue
	}
}

// GetBool reads a boolean config value with a default
func GetBool(config map[string]interface{}, key string, defaultValue bool) bool {
	if v, ok := config[key].(bool); ok {
		return v
	}
	return defaultValue
}

// Chunk splits records into consecutive slices of at most size elements
func Chunk(records []*models.Transaction, size int) [][]*models.Transaction {
	if size <= 0 {
		size = len(records)
	}
	var chunks [][]*models.Transaction
	for i := 0; i < len(records); i += size {
		end := i + size
		if end > len(records) {
			end = len(records)
		}
		chunks = append(chunks, records[i:end])
	}
	return chunks
}
