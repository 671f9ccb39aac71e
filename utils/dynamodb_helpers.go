package utils

import (
	"fmt"

	"mofit_api/models"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
)

// ExtractString safely extracts a string from a DynamoDB attribute map
func ExtractString(item map[string]types.AttributeValue, field string) string {
	if attr, ok := item[field]; ok {
		if v, ok := attr.(*types.AttributeValueMemberS); ok {
			return v.Value
		}
	}
	return ""
}

// ToAttributeValueMap converts attributes into a DynamoDB item.
// Numbers are written as exact decimal strings.
func ToAttributeValueMap(attrs *models.Attributes) (map[string]types.AttributeValue, error) {
	item := make(map[string]types.AttributeValue, attrs.Len())
	for _, k := range attrs.Keys() {
		v, _ := attrs.Get(k)
		av, err := ToAttributeValue(v)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", k, err)
		}
		item[k] = av
	}
	return item, nil
}

// ToAttributeValue converts a single attribute value. Plain Go numbers and
// maps are normalised first with ToDecimalTree.
func ToAttributeValue(v any) (types.AttributeValue, error) {
	switch val := ToDecimalTree(v).(type) {
	case nil:
		return &types.AttributeValueMemberNULL{Value: true}, nil
	case string:
		return &types.AttributeValueMemberS{Value: val}, nil
	case bool:
		return &types.AttributeValueMemberBOOL{Value: val}, nil
	case decimal.Decimal:
		return &types.AttributeValueMemberN{Value: val.String()}, nil
	case []byte:
		return &types.AttributeValueMemberB{Value: val}, nil
	case []any:
		list := make([]types.AttributeValue, 0, len(val))
		for i, item := range val {
			av, err := ToAttributeValue(item)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			list = append(list, av)
		}
		return &types.AttributeValueMemberL{Value: list}, nil
	case *models.Attributes:
		m, err := ToAttributeValueMap(val)
		if err != nil {
			return nil, err
		}
		return &types.AttributeValueMemberM{Value: m}, nil
	default:
		return nil, fmt.Errorf("unsupported attribute type %T", v)
	}
}

// FromAttributeValueMap converts a DynamoDB item into attributes sorted by name.
func FromAttributeValueMap(item map[string]types.AttributeValue) (*models.Attributes, error) {
	attrs := models.NewAttributes()
	for k, av := range item {
		v, err := FromAttributeValue(av)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", k, err)
		}
		attrs.Set(k, v)
	}
	attrs.SortKeys()
	return attrs, nil
}

// FromAttributeValue converts a single DynamoDB attribute value.
// Number sets become lists of decimals, string and binary sets become lists.
func FromAttributeValue(av types.AttributeValue) (any, error) {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return v.Value, nil
	case *types.AttributeValueMemberN:
		d, err := decimal.NewFromString(v.Value)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", v.Value, err)
		}
		return d, nil
	case *types.AttributeValueMemberBOOL:
		return v.Value, nil
	case *types.AttributeValueMemberNULL:
		return nil, nil
	case *types.AttributeValueMemberB:
		return v.Value, nil
	case *types.AttributeValueMemberL:
		list := make([]any, 0, len(v.Value))
		for _, item := range v.Value {
			converted, err := FromAttributeValue(item)
			if err != nil {
				return nil, err
			}
			list = append(list, converted)
		}
		return list, nil
	case *types.AttributeValueMemberM:
		return FromAttributeValueMap(v.Value)
	case *types.AttributeValueMemberSS:
		list := make([]any, 0, len(v.Value))
		for _, s := range v.Value {
			list = append(list, s)
		}
		return list, nil
	case *types.AttributeValueMemberNS:
		list := make([]any, 0, len(v.Value))
		for _, s := range v.Value {
			d, err := decimal.NewFromString(s)
			if err != nil {
				return nil, fmt.Errorf("invalid number %q: %w", s, err)
			}
			list = append(list, d)
		}
		return list, nil
	case *types.AttributeValueMemberBS:
		list := make([]any, 0, len(v.Value))
		for _, b := range v.Value {
			list = append(list, b)
		}
		return list, nil
	default:
		return nil, fmt.Errorf("unsupported attribute value %T", av)
	}
}
