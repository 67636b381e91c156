package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedro-hbl/fintx-dataset-generator/pkg/dataset/generator"
	"github.com/pedro-hbl/fintx-dataset-generator/pkg/sinks/csvsink"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, generator.DefaultRecordCount, cfg.RecordCount)
	assert.Equal(t, generator.DefaultSeed, cfg.Seed)
	assert.Equal(t, csvsink.DefaultPath, cfg.OutputPath)
	assert.Equal(t, generator.RefundSelectionLiteral, cfg.RefundSelection)
	assert.Equal(t, []string{"csv"}, cfg.Sinks)
	assert.False(t, cfg.Verify)
	assert.Equal(t, 3322, cfg.ImmuDB.Port)

	opts := cfg.GeneratorOptions()
	assert.Equal(t, 10000, opts.RecordCount)
	assert.Equal(t, int64(42), opts.Seed)
	assert.Equal(t, generator.DefaultMissingRates(), opts.MissingRates)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DATASET_RECORD_COUNT", "250")
	t.Setenv("DATASET_SEED", "7")
	t.Setenv("DATASET_OUTPUT_PATH", "/tmp/tx.csv")
	t.Setenv("DATASET_REFUND_SELECTION", "Contiguous")
	t.Setenv("DATASET_SINKS", "csv, DynamoDB,csv")
	t.Setenv("DATASET_VERIFY", "true")
	t.Setenv("DYNAMODB_ENDPOINT", "http://localhost:8000")
	t.Setenv("IMMUDB_PORT", "3323")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 250, cfg.RecordCount)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, generator.RefundSelectionContiguous, cfg.RefundSelection)
	assert.Equal(t, []string{"csv", "dynamodb"}, cfg.Sinks)
	assert.True(t, cfg.Verify)

	assert.Equal(t, map[string]interface{}{"path": "/tmp/tx.csv"}, cfg.SinkConfig("csv"))
	assert.Equal(t, "http://localhost:8000", cfg.SinkConfig("dynamodb")["endpoint"])
	assert.Equal(t, 3323, cfg.SinkConfig("immudb")["port"])
	assert.Empty(t, cfg.SinkConfig("kafka"))
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		want  string
	}{
		{"non-numeric count", "DATASET_RECORD_COUNT", "lots", "DATASET_RECORD_COUNT"},
		{"negative count", "DATASET_RECORD_COUNT", "-1", "negative"},
		{"bad seed", "DATASET_SEED", "4.2", "DATASET_SEED"},
		{"unknown refund selection", "DATASET_REFUND_SELECTION", "random", "refund selection"},
		{"unknown sink", "DATASET_SINKS", "csv,kafka", "unknown sink"},
		{"bad immudb port", "IMMUDB_PORT", "port", "IMMUDB_PORT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestParseSinks(t *testing.T) {
	names, err := ParseSinks(" immudb ,timestream,")
	require.NoError(t, err)
	assert.Equal(t, []string{"immudb", "timestream"}, names)

	_, err = ParseSinks(" , ")
	assert.ErrorContains(t, err, "no sinks configured")
}
