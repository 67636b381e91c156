package immudb

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/codenotary/immudb/pkg/client"

	"github.com/pedro-hbl/fintx-dataset-generator/pkg/dataset/models"
	"github.com/pedro-hbl/fintx-dataset-generator/pkg/sinks"
)

// defaultBatchSize keeps each SQL transaction well under the server's per-tx entry limit
const defaultBatchSize = 250

// ImmuDBSink writes the dataset into a tamper-evident immudb SQL table
type ImmuDBSink struct {
	client    client.ImmuClient
	options   *client.Options
	dbName    string
	tableName string
	connected bool
	metrics   map[string]interface{}
}

// ImmuDBFactory creates immudb sink instances
type ImmuDBFactory struct{}

// NewImmuDBFactory creates a new factory for immudb
func NewImmuDBFactory() *ImmuDBFactory {
	return &ImmuDBFactory{}
}

// CreateSink implements the SinkFactory interface
func (f *ImmuDBFactory) CreateSink(config map[string]interface{}) (sinks.Sink, error) {
	port := sinks.GetInt(config, "port", 3322)
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid immudb port: %d", port)
	}

	options := client.DefaultOptions().
		WithAddress(sinks.GetString(config, "address", "127.0.0.1")).
		WithPort(port).
		WithUsername(sinks.GetString(config, "username", "immudb")).
		WithPassword(sinks.GetString(config, "password", "immudb")).
		WithDatabase(sinks.GetString(config, "database", "defaultdb"))

	s := &ImmuDBSink{
		options:   options,
		dbName:    options.Database,
		tableName: sinks.GetString(config, "tableName", "transactions"),
	}
	s.ResetMetrics()
	return s, nil
}

// Name implements the Sink interface
func (s *ImmuDBSink) Name() string {
	return "immudb"
}

// Initialize opens a session and ensures the table and its indexes exist
func (s *ImmuDBSink) Initialize(ctx context.Context) error {
	if s.connected {
		return nil
	}

	c := client.NewClient().WithOptions(s.options)

	err := c.OpenSession(ctx, []byte(s.options.Username), []byte(s.options.Password), s.dbName)
	if err != nil {
		return fmt.Errorf("failed to connect to immudb: %w", err)
	}

	s.client = c
	s.connected = true

	if _, err := c.SQLExec(ctx, createTableStatement(s.tableName), nil); err != nil {
		c.CloseSession(ctx)
		s.connected = false
		return fmt.Errorf("failed to create table: %w", err)
	}

	for _, stmt := range indexStatements(s.tableName) {
		if _, err := c.SQLExec(ctx, stmt, nil); err != nil {
			// Index creation is not critical
			log.Printf("Warning: failed to create index: %v", err)
		}
	}

	return nil
}

// Close ends the session
func (s *ImmuDBSink) Close() error {
	if s.connected && s.client != nil {
		err := s.client.CloseSession(context.Background())
		if err == nil {
			s.connected = false
		}
		return err
	}
	return nil
}

// WriteBatch inserts records in SQL transactions of at most MaxBatchSize rows
func (s *ImmuDBSink) WriteBatch(ctx context.Context, records []*models.Transaction, options *sinks.BatchOptions) error {
	if !s.connected {
		return errors.New("sink not initialized")
	}

	batchSize := defaultBatchSize
	if options != nil && options.MaxBatchSize > 0 {
		batchSize = options.MaxBatchSize
	}

	query := insertStatement(s.tableName)

	for _, batch := range sinks.Chunk(records, batchSize) {
		tx, err := s.client.NewTx(ctx)
		if err != nil {
			s.metrics["failedOperations"] = s.metrics["failedOperations"].(int) + 1
			return fmt.Errorf("failed to start transaction: %w", err)
		}

		for _, record := range batch {
			params, err := InsertParams(record)
			if err != nil {
				tx.Rollback(ctx)
				return err
			}

			if err := tx.SQLExec(ctx, query, params); err != nil {
				tx.Rollback(ctx)
				s.metrics["failedOperations"] = s.metrics["failedOperations"].(int) + 1
				return fmt.Errorf("failed to insert transaction %s: %w", record.TransactionID, err)
			}
		}

		if _, err := tx.Commit(ctx); err != nil {
			s.metrics["failedOperations"] = s.metrics["failedOperations"].(int) + 1
			return fmt.Errorf("failed to commit batch transaction: %w", err)
		}

		s.metrics["batchWriteOperations"] = s.metrics["batchWriteOperations"].(int) + 1
		s.metrics["recordsWritten"] = s.metrics["recordsWritten"].(int) + len(batch)
	}

	return nil
}

// Count implements the Sink interface
func (s *ImmuDBSink) Count(ctx context.Context) (int64, error) {
	if !s.connected {
		return 0, errors.New("sink not initialized")
	}

	result, err := s.client.SQLQuery(ctx, countStatement(s.tableName), nil, true)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	if len(result.Rows) == 0 || len(result.Rows[0].Values) == 0 {
		return 0, errors.New("empty count result")
	}
	return result.Rows[0].Values[0].GetN(), nil
}

// GetMetrics implements the Sink interface
func (s *ImmuDBSink) GetMetrics() map[string]interface{} {
	metrics := make(map[string]interface{})
	for k, v := range s.metrics {
		metrics[k] = v
	}
	return metrics
}

// ResetMetrics implements the Sink interface
func (s *ImmuDBSink) ResetMetrics() {
	s.metrics = map[string]interface{}{
		"batchWriteOperations": 0,
		"failedOperations":     0,
		"recordsWritten":       0,
	}
}

// Amount, country and payment type are nullable; everything else is always present.
func createTableStatement(table string) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s ("+
		"transaction_id VARCHAR[16] NOT NULL, "+
		"tx_date VARCHAR[10] NOT NULL, "+
		"tx_time VARCHAR[8] NOT NULL, "+
		"occurred_at INTEGER NOT NULL, "+
		"customer_id VARCHAR[16] NOT NULL, "+
		"product_id VARCHAR[16] NOT NULL, "+
		"amount FLOAT, "+
		"payment_type VARCHAR[16], "+
		"country VARCHAR[16], "+
		"merchant_id VARCHAR[16] NOT NULL, "+
		"status VARCHAR[16] NOT NULL, "+
		"PRIMARY KEY transaction_id"+
		")", table)
}

func indexStatements(table string) []string {
	return []string{
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS ON %s(status)", table),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS ON %s(occurred_at)", table),
	}
}

func insertStatement(table string) string {
	return fmt.Sprintf("INSERT INTO %s "+
		"(transaction_id, tx_date, tx_time, occurred_at, customer_id, product_id, amount, payment_type, country, merchant_id, status) "+
		"VALUES (@transaction_id, @tx_date, @tx_time, @occurred_at, @customer_id, @product_id, @amount, @payment_type, @country, @merchant_id, @status)",
		table)
}

func countStatement(table string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s", table)
}

// InsertParams binds a transaction to the insert statement's named parameters.
// Missing values bind as NULL.
func InsertParams(tx *models.Transaction) (map[string]interface{}, error) {
	occurredAt, err := tx.OccurredAt()
	if err != nil {
		return nil, err
	}

	params := map[string]interface{}{
		"transaction_id": tx.TransactionID,
		"tx_date":        tx.Date,
		"tx_time":        tx.Time,
		"occurred_at":    occurredAt.Unix(),
		"customer_id":    tx.CustomerID,
		"product_id":     tx.ProductID,
		"amount":         nil,
		"payment_type":   nil,
		"country":        nil,
		"merchant_id":    tx.MerchantID,
		"status":         string(tx.Status),
	}
	if tx.HasAmount() {
		params["amount"] = tx.Amount.Decimal.InexactFloat64()
	}
	if tx.HasPaymentType() {
		params["payment_type"] = string(tx.PaymentType)
	}
	if tx.HasCountry() {
		params["country"] = string(tx.Country)
	}
	return params, nil
}
