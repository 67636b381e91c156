package timestream

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/timestreamquery"
	"github.com/aws/aws-sdk-go-v2/service/timestreamwrite"
	"github.com/aws/aws-sdk-go-v2/service/timestreamwrite/types"

	"github.com/pedro-hbl/fintx-dataset-generator/pkg/dataset/models"
	"github.com/pedro-hbl/fintx-dataset-generator/pkg/sinks"
)

const (
	// maxBatchSize is the WriteRecords limit
	maxBatchSize = 100

	measureName = "transaction"

	// Records span the past year, so the memory store must hold a year and
	// older writes go to the magnetic store.
	memoryRetentionHours  = 8766
	magneticRetentionDays = 3650
)

// WriteAPI is the subset of the Timestream write client the sink uses
type WriteAPI interface {
	DescribeDatabase(ctx context.Context, params *timestreamwrite.DescribeDatabaseInput, optFns ...func(*timestreamwrite.Options)) (*timestreamwrite.DescribeDatabaseOutput, error)
	CreateDatabase(ctx context.Context, params *timestreamwrite.CreateDatabaseInput, optFns ...func(*timestreamwrite.Options)) (*timestreamwrite.CreateDatabaseOutput, error)
	DescribeTable(ctx context.Context, params *timestreamwrite.DescribeTableInput, optFns ...func(*timestreamwrite.Options)) (*timestreamwrite.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *timestreamwrite.CreateTableInput, optFns ...func(*timestreamwrite.Options)) (*timestreamwrite.CreateTableOutput, error)
	WriteRecords(ctx context.Context, params *timestreamwrite.WriteRecordsInput, optFns ...func(*timestreamwrite.Options)) (*timestreamwrite.WriteRecordsOutput, error)
}

// QueryAPI is the subset of the Timestream query client the sink uses
type QueryAPI interface {
	Query(ctx context.Context, params *timestreamquery.QueryInput, optFns ...func(*timestreamquery.Options)) (*timestreamquery.QueryOutput, error)
}

// TimestreamSink writes each transaction as a multi-measure record stamped with its date and time
type TimestreamSink struct {
	writeClient  WriteAPI
	queryClient  QueryAPI
	databaseName string
	tableName    string
	metrics      map[string]interface{}
	initialized  bool
	now          func() time.Time
}

// TimestreamConfig holds configuration for the Timestream sink
type TimestreamConfig struct {
	Region       string
	DatabaseName string
	TableName    string
	Endpoint     string

	// Now bounds record timestamps. Defaults to time.Now.
	Now func() time.Time
}

// TimestreamFactory creates Timestream sink instances
type TimestreamFactory struct{}

// NewTimestreamFactory creates a new Timestream factory
func NewTimestreamFactory() *TimestreamFactory {
	return &TimestreamFactory{}
}

// CreateSink implements the SinkFactory interface
func (f *TimestreamFactory) CreateSink(config map[string]interface{}) (sinks.Sink, error) {
	return NewTimestreamSink(TimestreamConfig{
		Region:       sinks.GetString(config, "region", "us-east-1"),
		DatabaseName: sinks.GetString(config, "databaseName", "FinancialDataset"),
		TableName:    sinks.GetString(config, "tableName", "Transactions"),
		Endpoint:     sinks.GetString(config, "endpoint", ""),
	})
}

// NewTimestreamSink creates a sink with write and query clients from the default AWS config chain
func NewTimestreamSink(config TimestreamConfig) (*TimestreamSink, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(config.Region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	writeClient := timestreamwrite.NewFromConfig(awsCfg, func(o *timestreamwrite.Options) {
		if config.Endpoint != "" {
			o.BaseEndpoint = aws.String(config.Endpoint)
		}
	})
	queryClient := timestreamquery.NewFromConfig(awsCfg, func(o *timestreamquery.Options) {
		if config.Endpoint != "" {
			o.BaseEndpoint = aws.String(config.Endpoint)
		}
	})

	return NewTimestreamSinkWithClients(writeClient, queryClient, config), nil
}

// NewTimestreamSinkWithClients creates a sink using existing clients
func NewTimestreamSinkWithClients(writeClient WriteAPI, queryClient QueryAPI, config TimestreamConfig) *TimestreamSink {
	s := &TimestreamSink{
		writeClient:  writeClient,
		queryClient:  queryClient,
		databaseName: config.DatabaseName,
		tableName:    config.TableName,
		now:          config.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.ResetMetrics()
	return s
}

// Name implements the Sink interface
func (s *TimestreamSink) Name() string {
	return "timestream"
}

// Initialize creates the database and table when they are missing
func (s *TimestreamSink) Initialize(ctx context.Context) error {
	if s.initialized {
		return nil
	}

	if err := s.ensureDatabaseExists(ctx); err != nil {
		return fmt.Errorf("failed to ensure database exists: %w", err)
	}

	if err := s.ensureTableExists(ctx); err != nil {
		return fmt.Errorf("failed to ensure table exists: %w", err)
	}

	s.initialized = true
	return nil
}

// Close implements the Sink interface
func (s *TimestreamSink) Close() error {
	// Timestream doesn't require explicit connection closing
	s.initialized = false
	return nil
}

// WriteBatch implements the Sink interface
func (s *TimestreamSink) WriteBatch(ctx context.Context, records []*models.Transaction, options *sinks.BatchOptions) error {
	if !s.initialized {
		return errors.New("sink not initialized")
	}

	if len(records) == 0 {
		return nil
	}

	batchSize := maxBatchSize
	if options != nil && options.MaxBatchSize > 0 && options.MaxBatchSize < maxBatchSize {
		batchSize = options.MaxBatchSize
	}

	// Timestream rejects records stamped in the future, which holiday
	// chargebacks can be when a run falls in a holiday month.
	latest := s.now().UTC().Truncate(time.Millisecond)
	clamped := 0

	for _, batch := range sinks.Chunk(records, batchSize) {
		tsRecords := make([]types.Record, 0, len(batch))
		for _, tx := range batch {
			occurredAt, err := tx.OccurredAt()
			if err != nil {
				return fmt.Errorf("transaction %s: %w", tx.TransactionID, err)
			}
			if occurredAt.After(latest) {
				occurredAt = latest
				clamped++
				s.metrics["recordsClamped"] = s.metrics["recordsClamped"].(int) + 1
			}
			tsRecords = append(tsRecords, recordAt(tx, occurredAt))
		}

		_, err := s.writeClient.WriteRecords(ctx, &timestreamwrite.WriteRecordsInput{
			DatabaseName: aws.String(s.databaseName),
			TableName:    aws.String(s.tableName),
			Records:      tsRecords,
		})
		if err != nil {
			s.metrics["failedOperations"] = s.metrics["failedOperations"].(int) + 1

			var rejected *types.RejectedRecordsException
			if errors.As(err, &rejected) {
				return fmt.Errorf("%d records rejected: %w", len(rejected.RejectedRecords), err)
			}
			return fmt.Errorf("failed to write batch: %w", err)
		}

		s.metrics["batchWriteOperations"] = s.metrics["batchWriteOperations"].(int) + 1
		s.metrics["recordsWritten"] = s.metrics["recordsWritten"].(int) + len(batch)
	}

	if clamped > 0 {
		log.Printf("Timestream: %d future-dated records stamped at %s", clamped, latest.Format(time.RFC3339))
	}
	return nil
}

// Count implements the Sink interface
func (s *TimestreamSink) Count(ctx context.Context) (int64, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM "%s"."%s"`, s.databaseName, s.tableName)

	result, err := s.queryClient.Query(ctx, &timestreamquery.QueryInput{
		QueryString: aws.String(query),
	})
	if err != nil {
		return 0, fmt.Errorf("query failed: %w", err)
	}
	s.metrics["queryOperations"] = s.metrics["queryOperations"].(int) + 1

	if len(result.Rows) == 0 || len(result.Rows[0].Data) == 0 || result.Rows[0].Data[0].ScalarValue == nil {
		return 0, errors.New("invalid result format")
	}

	return strconv.ParseInt(*result.Rows[0].Data[0].ScalarValue, 10, 64)
}

// GetMetrics implements the Sink interface
func (s *TimestreamSink) GetMetrics() map[string]interface{} {
	// Return a copy to avoid race conditions
	metrics := make(map[string]interface{})
	for k, v := range s.metrics {
		metrics[k] = v
	}
	return metrics
}

// ResetMetrics implements the Sink interface
func (s *TimestreamSink) ResetMetrics() {
	s.metrics = map[string]interface{}{
		"batchWriteOperations": 0,
		"queryOperations":      0,
		"failedOperations":     0,
		"recordsWritten":       0,
		"recordsClamped":       0,
	}
}

// ToRecord converts a transaction into a multi-measure record stamped with its
// date and time. Missing dimensions and a missing amount are left out of the record.
func ToRecord(tx *models.Transaction) (types.Record, error) {
	occurredAt, err := tx.OccurredAt()
	if err != nil {
		return types.Record{}, fmt.Errorf("transaction %s: %w", tx.TransactionID, err)
	}
	return recordAt(tx, occurredAt), nil
}

func recordAt(tx *models.Transaction, occurredAt time.Time) types.Record {
	dimensions := []types.Dimension{
		dimension("transaction_id", tx.TransactionID),
		dimension("customer_id", tx.CustomerID),
		dimension("product_id", tx.ProductID),
		dimension("merchant_id", tx.MerchantID),
	}
	if tx.HasCountry() {
		dimensions = append(dimensions, dimension("country", string(tx.Country)))
	}
	if tx.HasPaymentType() {
		dimensions = append(dimensions, dimension("payment_type", string(tx.PaymentType)))
	}

	measures := []types.MeasureValue{
		{
			Name:  aws.String("status"),
			Value: aws.String(string(tx.Status)),
			Type:  types.MeasureValueTypeVarchar,
		},
	}
	if tx.HasAmount() {
		measures = append(measures, types.MeasureValue{
			Name:  aws.String("amount"),
			Value: aws.String(tx.AmountString()),
			Type:  types.MeasureValueTypeDouble,
		})
	}

	return types.Record{
		Dimensions:       dimensions,
		MeasureName:      aws.String(measureName),
		MeasureValueType: types.MeasureValueTypeMulti,
		MeasureValues:    measures,
		Time:             aws.String(strconv.FormatInt(occurredAt.UnixMilli(), 10)),
		TimeUnit:         types.TimeUnitMilliseconds,
	}
}

func dimension(name, value string) types.Dimension {
	return types.Dimension{
		Name:  aws.String(name),
		Value: aws.String(value),
	}
}

// ensureDatabaseExists checks if the database exists and creates it if it doesn't
func (s *TimestreamSink) ensureDatabaseExists(ctx context.Context) error {
	_, err := s.writeClient.DescribeDatabase(ctx, &timestreamwrite.DescribeDatabaseInput{
		DatabaseName: aws.String(s.databaseName),
	})
	if err == nil {
		return nil
	}

	var notFoundErr *types.ResourceNotFoundException
	if !errors.As(err, &notFoundErr) {
		return fmt.Errorf("error checking database existence: %w", err)
	}

	_, err = s.writeClient.CreateDatabase(ctx, &timestreamwrite.CreateDatabaseInput{
		DatabaseName: aws.String(s.databaseName),
	})
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	return nil
}

// ensureTableExists checks if the table exists and creates it if it doesn't
func (s *TimestreamSink) ensureTableExists(ctx context.Context) error {
	_, err := s.writeClient.DescribeTable(ctx, &timestreamwrite.DescribeTableInput{
		DatabaseName: aws.String(s.databaseName),
		TableName:    aws.String(s.tableName),
	})
	if err == nil {
		return nil
	}

	var notFoundErr *types.ResourceNotFoundException
	if !errors.As(err, &notFoundErr) {
		return fmt.Errorf("error checking table existence: %w", err)
	}

	_, err = s.writeClient.CreateTable(ctx, &timestreamwrite.CreateTableInput{
		DatabaseName: aws.String(s.databaseName),
		TableName:    aws.String(s.tableName),
		RetentionProperties: &types.RetentionProperties{
			MemoryStoreRetentionPeriodInHours:  aws.Int64(memoryRetentionHours),
			MagneticStoreRetentionPeriodInDays: aws.Int64(magneticRetentionDays),
		},
		MagneticStoreWriteProperties: &types.MagneticStoreWriteProperties{
			EnableMagneticStoreWrites: aws.Bool(true),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}
