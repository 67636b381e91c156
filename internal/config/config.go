package config

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pedro-hbl/fintx-dataset-generator/pkg/dataset/generator"
	"github.com/pedro-hbl/fintx-dataset-generator/pkg/sinks/csvsink"
)

// KnownSinks lists the sink names that can be selected with DATASET_SINKS
var KnownSinks = []string{"csv", "dynamodb", "timestream", "immudb"}

// Config holds application configuration.
type Config struct {
	RecordCount     int
	Seed            int64
	OutputPath      string
	RefundSelection generator.RefundSelection
	Sinks           []string
	Verify          bool

	AWSRegion  string
	DynamoDB   DynamoDBConfig
	Timestream TimestreamConfig
	ImmuDB     ImmuDBConfig
}

// DynamoDBConfig configures the dynamodb sink
type DynamoDBConfig struct {
	Table       string
	Endpoint    string
	CreateTable bool
}

// TimestreamConfig configures the timestream sink
type TimestreamConfig struct {
	Database string
	Table    string
	Endpoint string
}

// ImmuDBConfig configures the immudb sink
type ImmuDBConfig struct {
	Address  string
	Port     int
	Username string
	Password string
	Database string
	Table    string
}

// Load reads configuration from the environment and a .env file if present.
// Without any overrides it reproduces the default dataset run.
func Load() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("DATASET_RECORD_COUNT", strconv.Itoa(generator.DefaultRecordCount))
	v.SetDefault("DATASET_SEED", strconv.FormatInt(generator.DefaultSeed, 10))
	v.SetDefault("DATASET_OUTPUT_PATH", csvsink.DefaultPath)
	v.SetDefault("DATASET_REFUND_SELECTION", string(generator.RefundSelectionLiteral))
	v.SetDefault("DATASET_SINKS", "csv")
	v.SetDefault("DATASET_VERIFY", false)

	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("DYNAMODB_TABLE", "FinancialTransactions")
	v.SetDefault("DYNAMODB_ENDPOINT", "")
	v.SetDefault("DYNAMODB_CREATE_TABLE", false)
	v.SetDefault("TIMESTREAM_DATABASE", "FinancialDataset")
	v.SetDefault("TIMESTREAM_TABLE", "Transactions")
	v.SetDefault("TIMESTREAM_ENDPOINT", "")
	v.SetDefault("IMMUDB_ADDRESS", "127.0.0.1")
	v.SetDefault("IMMUDB_PORT", "3322")
	v.SetDefault("IMMUDB_USERNAME", "immudb")
	v.SetDefault("IMMUDB_PASSWORD", "immudb")
	v.SetDefault("IMMUDB_DATABASE", "defaultdb")
	v.SetDefault("IMMUDB_TABLE", "transactions")

	v.AutomaticEnv()

	cfg := &Config{
		OutputPath: v.GetString("DATASET_OUTPUT_PATH"),
		Verify:     v.GetBool("DATASET_VERIFY"),
		AWSRegion:  v.GetString("AWS_REGION"),
		DynamoDB: DynamoDBConfig{
			Table:       v.GetString("DYNAMODB_TABLE"),
			Endpoint:    v.GetString("DYNAMODB_ENDPOINT"),
			CreateTable: v.GetBool("DYNAMODB_CREATE_TABLE"),
		},
		Timestream: TimestreamConfig{
			Database: v.GetString("TIMESTREAM_DATABASE"),
			Table:    v.GetString("TIMESTREAM_TABLE"),
			Endpoint: v.GetString("TIMESTREAM_ENDPOINT"),
		},
		ImmuDB: ImmuDBConfig{
			Address:  v.GetString("IMMUDB_ADDRESS"),
			Username: v.GetString("IMMUDB_USERNAME"),
			Password: v.GetString("IMMUDB_PASSWORD"),
			Database: v.GetString("IMMUDB_DATABASE"),
			Table:    v.GetString("IMMUDB_TABLE"),
		},
	}

	var err error

	cfg.RecordCount, err = strconv.Atoi(strings.TrimSpace(v.GetString("DATASET_RECORD_COUNT")))
	if err != nil {
		return nil, fmt.Errorf("invalid DATASET_RECORD_COUNT: %w", err)
	}
	if cfg.RecordCount < 0 {
		return nil, fmt.Errorf("invalid DATASET_RECORD_COUNT: %d is negative", cfg.RecordCount)
	}

	cfg.Seed, err = strconv.ParseInt(strings.TrimSpace(v.GetString("DATASET_SEED")), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid DATASET_SEED: %w", err)
	}

	cfg.RefundSelection, err = generator.ParseRefundSelection(v.GetString("DATASET_REFUND_SELECTION"))
	if err != nil {
		return nil, err
	}

	cfg.Sinks, err = ParseSinks(v.GetString("DATASET_SINKS"))
	if err != nil {
		return nil, err
	}

	cfg.ImmuDB.Port, err = strconv.Atoi(strings.TrimSpace(v.GetString("IMMUDB_PORT")))
	if err != nil {
		return nil, fmt.Errorf("invalid IMMUDB_PORT: %w", err)
	}

	return cfg, nil
}

// ParseSinks splits a comma-separated sink list, dropping blanks and duplicates
func ParseSinks(value string) ([]string, error) {
	var names []string
	seen := make(map[string]bool)

	for _, part := range strings.Split(value, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" || seen[name] {
			continue
		}
		if !slices.Contains(KnownSinks, name) {
			return nil, fmt.Errorf("unknown sink %q (expected one of %s)", name, strings.Join(KnownSinks, ", "))
		}
		seen[name] = true
		names = append(names, name)
	}

	if len(names) == 0 {
		return nil, fmt.Errorf("no sinks configured")
	}
	return names, nil
}

// GeneratorOptions returns generator options for this configuration
func (c *Config) GeneratorOptions() generator.Options {
	opts := generator.DefaultOptions()
	opts.RecordCount = c.RecordCount
	opts.Seed = c.Seed
	opts.RefundSelection = c.RefundSelection
	return opts
}

// SinkConfig returns the factory configuration map for the named sink
func (c *Config) SinkConfig(name string) map[string]interface{} {
	switch name {
	case "csv":
		return map[string]interface{}{
			"path": c.OutputPath,
		}
	case "dynamodb":
		return map[string]interface{}{
			"region":      c.AWSRegion,
			"tableName":   c.DynamoDB.Table,
			"endpoint":    c.DynamoDB.Endpoint,
			"createTable": c.DynamoDB.CreateTable,
		}
	case "timestream":
		return map[string]interface{}{
			"region":       c.AWSRegion,
			"databaseName": c.Timestream.Database,
			"tableName":    c.Timestream.Table,
			"endpoint":     c.Timestream.Endpoint,
		}
	case "immudb":
		return map[string]interface{}{
			"address":   c.ImmuDB.Address,
			"port":      c.ImmuDB.Port,
			"username":  c.ImmuDB.Username,
			"password":  c.ImmuDB.Password,
			"database":  c.ImmuDB.Database,
			"tableName": c.ImmuDB.Table,
		}
	default:
		return map[string]interface{}{}
	}
}
