package pipeline

import (
	"fmt"
	"strings"

	"github.com/pedro-hbl/fintx-dataset-generator/internal/config"
	"github.com/pedro-hbl/fintx-dataset-generator/pkg/sinks"
	"github.com/pedro-hbl/fintx-dataset-generator/pkg/sinks/csvsink"
	"github.com/pedro-hbl/fintx-dataset-generator/pkg/sinks/dynamodb"
	"github.com/pedro-hbl/fintx-dataset-generator/pkg/sinks/immudb"
	"github.com/pedro-hbl/fintx-dataset-generator/pkg/sinks/timestream"
)

// DefaultRegistry registers every built-in sink
func DefaultRegistry() *sinks.Registry {
	registry := sinks.NewRegistry()
	registry.Register("csv", csvsink.NewCSVFactory())
	registry.Register("dynamodb", dynamodb.NewDynamoDBFactory())
	registry.Register("timestream", timestream.NewTimestreamFactory())
	registry.Register("immudb", immudb.NewImmuDBFactory())
	return registry
}

// CreateSinks builds the configured sinks in order. Overrides keyed "<sink>.<key>"
// replace individual factory settings, e.g. "dynamodb.endpoint".
func CreateSinks(registry *sinks.Registry, cfg *config.Config, overrides map[string]interface{}) ([]sinks.Sink, error) {
	created := make([]sinks.Sink, 0, len(cfg.Sinks))

	for _, name := range cfg.Sinks {
		sinkConfig := cfg.SinkConfig(name)

		prefix := name + "."
		for k, v := range overrides {
			if strings.HasPrefix(k, prefix) {
				sinkConfig[strings.TrimPrefix(k, prefix)] = v
			}
		}

		sink, err := registry.Create(name, sinkConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create sinks: %w", err)
		}
		created = append(created, sink)
	}

	return created, nil
}
