// Package testutil holds in-memory stand-ins for the external services the
// handlers talk to.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// KeySchema names the key attributes of a fake table. SortKey may be empty.
type KeySchema struct {
	PartitionKey string
	SortKey      string
}

// FakeDynamo is an in-memory DynamoDB covering the calls the services make.
// Expressions are parsed only as far as the services write them.
type FakeDynamo struct {
	mu     sync.Mutex
	schema map[string]KeySchema
	tables map[string]map[string]map[string]types.AttributeValue

	// PageSize limits items per Query page when positive.
	PageSize int
	// Err, when set, is returned by every call.
	Err error

	Puts    []*dynamodb.PutItemInput
	Updates []*dynamodb.UpdateItemInput
	Queries []*dynamodb.QueryInput
}

// NewFakeDynamo creates a fake with the given tables.
func NewFakeDynamo(schema map[string]KeySchema) *FakeDynamo {
	f := &FakeDynamo{
		schema: schema,
		tables: make(map[string]map[string]map[string]types.AttributeValue),
	}
	for name := range schema {
		f.tables[name] = make(map[string]map[string]types.AttributeValue)
	}
	return f
}

// Seed stores item directly.
func (f *FakeDynamo) Seed(table string, item map[string]types.AttributeValue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, _ := f.itemID(table, item)
	f.tables[table][id] = copyItem(item)
}

// Items returns every stored item of table.
func (f *FakeDynamo) Items(table string) []map[string]types.AttributeValue {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]types.AttributeValue, 0, len(f.tables[table]))
	for _, item := range f.tables[table] {
		out = append(out, copyItem(item))
	}
	return out
}

func (f *FakeDynamo) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	table := aws.ToString(params.TableName)
	id, err := f.itemID(table, params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := f.tables[table][id]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: copyItem(item)}, nil
}

func (f *FakeDynamo) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	table := aws.ToString(params.TableName)
	id, err := f.itemID(table, params.Item)
	if err != nil {
		return nil, err
	}
	f.Puts = append(f.Puts, params)
	f.tables[table][id] = copyItem(params.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *FakeDynamo) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	table := aws.ToString(params.TableName)
	id, err := f.itemID(table, params.Key)
	if err != nil {
		return nil, err
	}

	expr := aws.ToString(params.UpdateExpression)
	if !strings.HasPrefix(expr, "SET ") {
		return nil, fmt.Errorf("fake: unsupported update expression %q", expr)
	}

	item, ok := f.tables[table][id]
	if !ok {
		item = copyItem(params.Key)
	}
	for _, clause := range strings.Split(strings.TrimPrefix(expr, "SET "), ",") {
		parts := strings.SplitN(clause, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("fake: malformed clause %q", clause)
		}
		name := resolveName(strings.TrimSpace(parts[0]), params.ExpressionAttributeNames)
		value, ok := params.ExpressionAttributeValues[strings.TrimSpace(parts[1])]
		if !ok {
			return nil, fmt.Errorf("fake: missing value for %q", parts[1])
		}
		item[name] = value
	}

	f.Updates = append(f.Updates, params)
	f.tables[table][id] = item
	return &dynamodb.UpdateItemOutput{Attributes: copyItem(item)}, nil
}

func (f *FakeDynamo) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	f.Queries = append(f.Queries, params)

	table := aws.ToString(params.TableName)
	schema := f.schema[table]

	// "<name> = <:value>"
	cond := strings.SplitN(aws.ToString(params.KeyConditionExpression), "=", 2)
	if len(cond) != 2 {
		return nil, fmt.Errorf("fake: unsupported key condition %q", aws.ToString(params.KeyConditionExpression))
	}
	pkName := resolveName(strings.TrimSpace(cond[0]), params.ExpressionAttributeNames)
	pkValue := stringValue(params.ExpressionAttributeValues[strings.TrimSpace(cond[1])])
	if pkName != schema.PartitionKey {
		return nil, fmt.Errorf("fake: key condition on %q, table partition key is %q", pkName, schema.PartitionKey)
	}

	var matched []map[string]types.AttributeValue
	for _, item := range f.tables[table] {
		if stringValue(item[schema.PartitionKey]) == pkValue {
			matched = append(matched, item)
		}
	}

	forward := params.ScanIndexForward == nil || *params.ScanIndexForward
	sort.Slice(matched, func(i, j int) bool {
		a, b := stringValue(matched[i][schema.SortKey]), stringValue(matched[j][schema.SortKey])
		if forward {
			return a < b
		}
		return a > b
	})

	if params.ExclusiveStartKey != nil {
		start := stringValue(params.ExclusiveStartKey[schema.SortKey])
		for i, item := range matched {
			if stringValue(item[schema.SortKey]) == start {
				matched = matched[i+1:]
				break
			}
		}
	}

	out := &dynamodb.QueryOutput{}
	if f.PageSize > 0 && len(matched) > f.PageSize {
		matched = matched[:f.PageSize]
		last := matched[len(matched)-1]
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			schema.PartitionKey: last[schema.PartitionKey],
			schema.SortKey:      last[schema.SortKey],
		}
	}

	for _, item := range matched {
		ok, err := matchesFilter(item, params)
		if err != nil {
			return nil, err
		}
		if ok {
			out.Items = append(out.Items, copyItem(item))
		}
	}
	out.Count = int32(len(out.Items))
	return out, nil
}

// matchesFilter supports "<name> BETWEEN <:a> AND <:b>" over strings.
func matchesFilter(item map[string]types.AttributeValue, params *dynamodb.QueryInput) (bool, error) {
	filter := aws.ToString(params.FilterExpression)
	if filter == "" {
		return true, nil
	}
	fields := strings.Fields(filter)
	if len(fields) != 5 || fields[1] != "BETWEEN" || fields[3] != "AND" {
		return false, fmt.Errorf("fake: unsupported filter %q", filter)
	}
	value := stringValue(item[resolveName(fields[0], params.ExpressionAttributeNames)])
	low := stringValue(params.ExpressionAttributeValues[fields[2]])
	high := stringValue(params.ExpressionAttributeValues[fields[4]])
	return value != "" && value >= low && value <= high, nil
}

func (f *FakeDynamo) itemID(table string, item map[string]types.AttributeValue) (string, error) {
	schema, ok := f.schema[table]
	if !ok {
		return "", fmt.Errorf("fake: ResourceNotFoundException: table %q does not exist", table)
	}
	pk := stringValue(item[schema.PartitionKey])
	if pk == "" {
		return "", fmt.Errorf("fake: ValidationException: missing key %q", schema.PartitionKey)
	}
	if schema.SortKey == "" {
		return pk, nil
	}
	sk := stringValue(item[schema.SortKey])
	if sk == "" {
		return "", fmt.Errorf("fake: ValidationException: missing key %q", schema.SortKey)
	}
	return pk + "\x00" + sk, nil
}

func resolveName(name string, names map[string]string) string {
	if strings.HasPrefix(name, "#") {
		if resolved, ok := names[name]; ok {
			return resolved
		}
	}
	return name
}

func stringValue(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func copyItem(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}
