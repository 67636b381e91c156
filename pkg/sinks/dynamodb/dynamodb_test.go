package dynamodb

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedro-hbl/fintx-dataset-generator/pkg/dataset/models"
	"github.com/pedro-hbl/fintx-dataset-generator/pkg/sinks"
)

type fakeClient struct {
	batches      [][]types.WriteRequest
	unprocessed  int
	describeErr  error
	createCalled bool
	pageCounts   []int32
	scans        int
}

func (f *fakeClient) BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	var requests []types.WriteRequest
	for _, reqs := range params.RequestItems {
		requests = reqs
	}
	f.batches = append(f.batches, requests)

	out := &dynamodb.BatchWriteItemOutput{}
	if f.unprocessed > 0 {
		out.UnprocessedItems = map[string][]types.WriteRequest{
			"Transactions": requests[:f.unprocessed],
		}
	}
	return out, nil
}

func (f *fakeClient) CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.createCalled = true
	return nil, &types.ResourceInUseException{Message: aws.String("exists")}
}

func (f *fakeClient) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	return &dynamodb.DescribeTableOutput{}, nil
}

func (f *fakeClient) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	out := &dynamodb.ScanOutput{Count: f.pageCounts[f.scans]}
	f.scans++
	if f.scans < len(f.pageCounts) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"transactionId": &types.AttributeValueMemberS{Value: "TX"},
		}
	}
	return out, nil
}

func testRecords(n int) []*models.Transaction {
	out := make([]*models.Transaction, n)
	for i := range out {
		out[i] = &models.Transaction{
			TransactionID: models.TransactionID(i),
			Date:          "2026-03-04",
			Time:          "10:11:12",
			Status:        models.Pending,
		}
	}
	return out
}

func TestToItem(t *testing.T) {
	tx := &models.Transaction{
		TransactionID: "TX10000",
		Date:          "2026-03-04",
		Time:          "10:11:12",
		CustomerID:    "CUST1234",
		ProductID:     "PROD123",
		MerchantID:    "MERCH12",
		Amount:        decimal.NullDecimal{Decimal: decimal.RequireFromString("1234.56"), Valid: true},
		PaymentType:   models.PayPal,
		Country:       models.Canada,
		Status:        models.Chargeback,
	}

	item := ToItem(tx)
	require.NotNil(t, item.Amount)
	assert.Equal(t, 1234.56, *item.Amount)
	assert.Equal(t, "PayPal", item.PaymentType)
	assert.Equal(t, "Chargeback", item.Status)

	missing := ToItem(&models.Transaction{TransactionID: "TX10001", Status: models.Pending})
	assert.Nil(t, missing.Amount)
	assert.Empty(t, missing.Country)
}

func TestWriteBatch_ChunksOf25(t *testing.T) {
	client := &fakeClient{}
	sink := NewDynamoDBSinkWithClient(client, DynamoDBConfig{TableName: "Transactions"})
	require.NoError(t, sink.Initialize(context.Background()))

	require.NoError(t, sink.WriteBatch(context.Background(), testRecords(60), nil))

	require.Len(t, client.batches, 3)
	assert.Len(t, client.batches[0], 25)
	assert.Len(t, client.batches[2], 10)

	item := client.batches[0][0].PutRequest.Item
	assert.Equal(t, &types.AttributeValueMemberS{Value: "TX10000"}, item["transactionId"])
	assert.NotContains(t, item, "amount")
	assert.NotContains(t, item, "country")

	metrics := sink.GetMetrics()
	assert.Equal(t, 3, metrics["batchWriteOperations"])
	assert.Equal(t, 60, metrics["recordsWritten"])
}

func TestWriteBatch_SmallerBatchOption(t *testing.T) {
	client := &fakeClient{}
	sink := NewDynamoDBSinkWithClient(client, DynamoDBConfig{TableName: "Transactions"})
	require.NoError(t, sink.Initialize(context.Background()))

	require.NoError(t, sink.WriteBatch(context.Background(), testRecords(10), &sinks.BatchOptions{MaxBatchSize: 4}))
	assert.Len(t, client.batches, 3)
}

func TestWriteBatch_UnprocessedItems(t *testing.T) {
	client := &fakeClient{unprocessed: 2}
	sink := NewDynamoDBSinkWithClient(client, DynamoDBConfig{TableName: "Transactions"})
	require.NoError(t, sink.Initialize(context.Background()))

	err := sink.WriteBatch(context.Background(), testRecords(5), nil)
	assert.ErrorContains(t, err, "2 transactions were not processed")
	assert.Equal(t, 3, sink.GetMetrics()["recordsWritten"])
}

func TestWriteBatch_NotInitialized(t *testing.T) {
	sink := NewDynamoDBSinkWithClient(&fakeClient{}, DynamoDBConfig{TableName: "Transactions"})
	assert.Error(t, sink.WriteBatch(context.Background(), testRecords(1), nil))
}

func TestInitialize(t *testing.T) {
	client := &fakeClient{describeErr: &types.ResourceNotFoundException{Message: aws.String("missing")}}
	sink := NewDynamoDBSinkWithClient(client, DynamoDBConfig{TableName: "Transactions"})
	assert.ErrorContains(t, sink.Initialize(context.Background()), "does not exist")

	client = &fakeClient{describeErr: errors.New("network down")}
	sink = NewDynamoDBSinkWithClient(client, DynamoDBConfig{TableName: "Transactions"})
	assert.ErrorContains(t, sink.Initialize(context.Background()), "network down")

	client = &fakeClient{}
	sink = NewDynamoDBSinkWithClient(client, DynamoDBConfig{TableName: "Transactions", CreateTable: true})
	require.NoError(t, sink.Initialize(context.Background()))
	assert.True(t, client.createCalled)
}

func TestCount_FollowsPages(t *testing.T) {
	client := &fakeClient{pageCounts: []int32{40, 35, 5}}
	sink := NewDynamoDBSinkWithClient(client, DynamoDBConfig{TableName: "Transactions"})

	count, err := sink.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(80), count)
	assert.Equal(t, 3, client.scans)
}
