package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// ErrItemNotFound is returned by GetItem when no item matches the key.
var ErrItemNotFound = errors.New("item not found")

// DynamoAPI is the subset of *dynamodb.Client the services use.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// StoreError wraps a failed DynamoDB call.
type StoreError struct {
	Op    string
	Table string
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("failed to %s in table '%s': %v", e.Op, e.Table, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

type DynamoService struct {
	Client DynamoAPI
	Logger *zap.Logger
}

// NewDynamoService wraps client. A nil logger discards output.
func NewDynamoService(client DynamoAPI, logger *zap.Logger) *DynamoService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DynamoService{Client: client, Logger: logger}
}

// InitializeDynamoDBClient initializes the DynamoDB client. An empty endpoint
// keeps the SDK's default resolution; a non-empty one points the client at a
// local DynamoDB.
func InitializeDynamoDBClient(ctx context.Context, region, endpoint string) (*dynamodb.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

// GetItem retrieves an item from DynamoDB
func (ds *DynamoService) GetItem(ctx context.Context, tableName string, key map[string]types.AttributeValue) (map[string]types.AttributeValue, error) {
	output, err := ds.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(tableName),
		Key:       key,
	})
	if err != nil {
		ds.Logger.Error("get item failed", zap.String("table", tableName), zap.Error(err))
		return nil, &StoreError{Op: "get item", Table: tableName, Err: err}
	}

	if output.Item == nil {
		return nil, ErrItemNotFound
	}

	return output.Item, nil
}

// PutItem writes item unconditionally, replacing any item with the same key.
func (ds *DynamoService) PutItem(ctx context.Context, tableName string, item map[string]types.AttributeValue) error {
	_, err := ds.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(tableName),
		Item:      item,
	})
	if err != nil {
		ds.Logger.Error("put item failed", zap.String("table", tableName), zap.Error(err))
		return &StoreError{Op: "put item", Table: tableName, Err: err}
	}
	ds.Logger.Debug("item inserted", zap.String("table", tableName))
	return nil
}

// UpdateItem applies updateExpression to the item at key and returns the
// item as it is after the update.
func (ds *DynamoService) UpdateItem(
	ctx context.Context,
	tableName string,
	updateExpression string,
	key map[string]types.AttributeValue,
	expressionAttributeValues map[string]types.AttributeValue,
	expressionAttributeNames map[string]string,
) (map[string]types.AttributeValue, error) {
	if len(key) == 0 {
		return nil, errors.New("update failed: key cannot be empty")
	}
	if updateExpression == "" {
		return nil, errors.New("update failed: updateExpression cannot be empty")
	}

	ds.Logger.Debug("updating item",
		zap.String("table", tableName),
		zap.String("expression", updateExpression),
		zap.Any("names", expressionAttributeNames),
	)

	output, err := ds.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(tableName),
		Key:                       key,
		UpdateExpression:          aws.String(updateExpression),
		ExpressionAttributeValues: expressionAttributeValues,
		ExpressionAttributeNames:  expressionAttributeNames,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		ds.Logger.Error("update item failed", zap.String("table", tableName), zap.Error(err))
		return nil, &StoreError{Op: "update item", Table: tableName, Err: err}
	}

	if output.Attributes == nil {
		return map[string]types.AttributeValue{}, nil
	}
	return output.Attributes, nil
}

// QueryAll runs input and follows LastEvaluatedKey until every page is read.
// Sort order and filters are taken from input unchanged.
func (ds *DynamoService) QueryAll(ctx context.Context, input *dynamodb.QueryInput) ([]map[string]types.AttributeValue, error) {
	tableName := aws.ToString(input.TableName)
	paginator := dynamodb.NewQueryPaginator(ds.Client, input)

	var items []map[string]types.AttributeValue
	pages := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			ds.Logger.Error("query failed", zap.String("table", tableName), zap.Error(err))
			return nil, &StoreError{Op: "query items", Table: tableName, Err: err}
		}
		pages++
		items = append(items, page.Items...)
	}

	ds.Logger.Debug("query complete",
		zap.String("table", tableName),
		zap.Int("pages", pages),
		zap.Int("items", len(items)),
	)
	return items, nil
}
