package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/pedro-hbl/fintx-dataset-generator/pkg/dataset/models"
	"github.com/pedro-hbl/fintx-dataset-generator/pkg/sinks"
)

// maxBatchSize is the DynamoDB BatchWriteItem limit
const maxBatchSize = 25

// API is the subset of the DynamoDB client the sink uses
type API interface {
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoDBSink writes the dataset to a DynamoDB table keyed by transaction id
type DynamoDBSink struct {
	client      API
	config      DynamoDBConfig
	metrics     map[string]interface{}
	initialized bool
}

// DynamoDBConfig holds the configuration for a DynamoDB sink
type DynamoDBConfig struct {
	Region          string
	TableName       string
	Endpoint        string
	ProvisionedRCUs int64
	ProvisionedWCUs int64
	CreateTable     bool
}

// Item is the DynamoDB representation of a transaction. Missing values are omitted.
type Item struct {
	TransactionID string   `dynamodbav:"transactionId"`
	Date          string   `dynamodbav:"date"`
	Time          string   `dynamodbav:"time"`
	CustomerID    string   `dynamodbav:"customerId"`
	ProductID     string   `dynamodbav:"productId"`
	MerchantID    string   `dynamodbav:"merchantId"`
	Amount        *float64 `dynamodbav:"amount,omitempty"`
	PaymentType   string   `dynamodbav:"paymentType,omitempty"`
	Country       string   `dynamodbav:"country,omitempty"`
	Status        string   `dynamodbav:"status"`
}

// DynamoDBFactory creates DynamoDB sink instances
type DynamoDBFactory struct{}

// NewDynamoDBFactory creates a new DynamoDB factory
func NewDynamoDBFactory() *DynamoDBFactory {
	return &DynamoDBFactory{}
}

// CreateSink implements the SinkFactory interface
func (f *DynamoDBFactory) CreateSink(config map[string]interface{}) (sinks.Sink, error) {
	dbConfig := DynamoDBConfig{
		Region:          sinks.GetString(config, "region", "us-east-1"),
		TableName:       sinks.GetString(config, "tableName", "FinancialTransactions"),
		Endpoint:        sinks.GetString(config, "endpoint", ""),
		ProvisionedRCUs: int64(sinks.GetInt(config, "provisionedRCUs", 5)),
		ProvisionedWCUs: int64(sinks.GetInt(config, "provisionedWCUs", 5)),
		CreateTable:     sinks.GetBool(config, "createTable", false),
	}

	return NewDynamoDBSink(dbConfig)
}

// NewDynamoDBSink creates a sink backed by a client built from the default AWS config chain
func NewDynamoDBSink(dbConfig DynamoDBConfig) (*DynamoDBSink, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(dbConfig.Region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		// Custom endpoint for DynamoDB Local or LocalStack
		if dbConfig.Endpoint != "" {
			o.BaseEndpoint = aws.String(dbConfig.Endpoint)
		}
	})

	return NewDynamoDBSinkWithClient(client, dbConfig), nil
}

// NewDynamoDBSinkWithClient creates a sink using an existing client
func NewDynamoDBSinkWithClient(client API, dbConfig DynamoDBConfig) *DynamoDBSink {
	s := &DynamoDBSink{
		client: client,
		config: dbConfig,
	}
	s.ResetMetrics()
	return s
}

// Name implements the Sink interface
func (s *DynamoDBSink) Name() string {
	return "dynamodb"
}

// Initialize implements the Sink interface
func (s *DynamoDBSink) Initialize(ctx context.Context) error {
	if s.initialized {
		return nil
	}

	if s.config.CreateTable {
		if err := s.createTransactionTable(ctx); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.config.TableName),
	})
	if err != nil {
		var notFoundErr *types.ResourceNotFoundException
		if errors.As(err, &notFoundErr) {
			return fmt.Errorf("table %s does not exist", s.config.TableName)
		}
		return fmt.Errorf("error checking table: %w", err)
	}

	s.initialized = true
	return nil
}

// Close implements the Sink interface
func (s *DynamoDBSink) Close() error {
	// DynamoDB doesn't require explicit connection closing
	s.initialized = false
	return nil
}

// WriteBatch implements the Sink interface
func (s *DynamoDBSink) WriteBatch(ctx context.Context, records []*models.Transaction, options *sinks.BatchOptions) error {
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

	var unprocessed int

	for _, batch := range sinks.Chunk(records, batchSize) {
		writeRequests := make([]types.WriteRequest, 0, len(batch))
		for _, tx := range batch {
			item, err := attributevalue.MarshalMap(ToItem(tx))
			if err != nil {
				return fmt.Errorf("failed to marshal transaction %s: %w", tx.TransactionID, err)
			}

			writeRequests = append(writeRequests, types.WriteRequest{
				PutRequest: &types.PutRequest{
					Item: item,
				},
			})
		}

		result, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				s.config.TableName: writeRequests,
			},
		})
		if err != nil {
			s.metrics["failedOperations"] = s.metrics["failedOperations"].(int) + 1
			return fmt.Errorf("BatchWriteItem operation failed: %w", err)
		}

		s.metrics["batchWriteOperations"] = s.metrics["batchWriteOperations"].(int) + 1
		pending := len(result.UnprocessedItems[s.config.TableName])
		unprocessed += pending
		s.metrics["recordsWritten"] = s.metrics["recordsWritten"].(int) + len(batch) - pending
	}

	// Unprocessed items are reported rather than retried
	if unprocessed > 0 {
		s.metrics["unprocessedItems"] = unprocessed
		return fmt.Errorf("%d transactions were not processed", unprocessed)
	}

	return nil
}

// Count scans the table with Select COUNT, following pagination
func (s *DynamoDBSink) Count(ctx context.Context) (int64, error) {
	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName: aws.String(s.config.TableName),
		Select:    types.SelectCount,
	})

	var total int64
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("scan failed: %w", err)
		}
		total += int64(page.Count)
	}
	return total, nil
}

// GetMetrics implements the Sink interface
func (s *DynamoDBSink) GetMetrics() map[string]interface{} {
	// Return a copy to avoid race conditions
	metrics := make(map[string]interface{})
	for k, v := range s.metrics {
		metrics[k] = v
	}
	return metrics
}

// ResetMetrics implements the Sink interface
func (s *DynamoDBSink) ResetMetrics() {
	s.metrics = map[string]interface{}{
		"batchWriteOperations": 0,
		"failedOperations":     0,
		"recordsWritten":       0,
		"unprocessedItems":     0,
	}
}

// ToItem maps a transaction onto its DynamoDB item
func ToItem(tx *models.Transaction) Item {
	item := Item{
		TransactionID: tx.TransactionID,
		Date:          tx.Date,
		Time:          tx.Time,
		CustomerID:    tx.CustomerID,
		ProductID:     tx.ProductID,
		MerchantID:    tx.MerchantID,
		PaymentType:   string(tx.PaymentType),
		Country:       string(tx.Country),
		Status:        string(tx.Status),
	}
	if tx.HasAmount() {
		amount := tx.Amount.Decimal.InexactFloat64()
		item.Amount = &amount
	}
	return item
}

// createTransactionTable creates the table with a status/date index for per-status queries
func (s *DynamoDBSink) createTransactionTable(ctx context.Context) error {
	throughput := &types.ProvisionedThroughput{
		ReadCapacityUnits:  aws.Int64(s.config.ProvisionedRCUs),
		WriteCapacityUnits: aws.Int64(s.config.ProvisionedWCUs),
	}

	createTableInput := &dynamodb.CreateTableInput{
		TableName: aws.String(s.config.TableName),
		AttributeDefinitions: []types.AttributeDefinition{
			{
				AttributeName: aws.String("transactionId"),
				AttributeType: types.ScalarAttributeTypeS,
			},
			{
				AttributeName: aws.String("status"),
				AttributeType: types.ScalarAttributeTypeS,
			},
			{
				AttributeName: aws.String("date"),
				AttributeType: types.ScalarAttributeTypeS,
			},
		},
		KeySchema: []types.KeySchemaElement{
			{
				AttributeName: aws.String("transactionId"),
				KeyType:       types.KeyTypeHash,
			},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			{
				IndexName: aws.String("StatusDateIndex"),
				KeySchema: []types.KeySchemaElement{
					{
						AttributeName: aws.String("status"),
						KeyType:       types.KeyTypeHash,
					},
					{
						AttributeName: aws.String("date"),
						KeyType:       types.KeyTypeRange,
					},
				},
				Projection: &types.Projection{
					ProjectionType: types.ProjectionTypeAll,
				},
				ProvisionedThroughput: throughput,
			},
		},
		ProvisionedThroughput: throughput,
	}

	_, err := s.client.CreateTable(ctx, createTableInput)
	if err != nil {
		var alreadyExistsErr *types.ResourceInUseException
		if errors.As(err, &alreadyExistsErr) {
			// Table already exists, which is fine
			return nil
		}
		return err
	}

	waiter := dynamodb.NewTableExistsWaiter(s.client)
	err = waiter.Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.config.TableName),
	}, 5*time.Minute)
	if err != nil {
		return fmt.Errorf("failed to wait for table creation: %w", err)
	}

	return nil
}
