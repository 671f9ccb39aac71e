package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"mofit_api/models"
	"mofit_api/utils"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ErrNoUpdatableFields is returned when a patch has nothing to set once the
// partition key has been removed.
var ErrNoUpdatableFields = errors.New("no updatable fields in request body")

type UserProfileService struct {
	Dynamo *DynamoService
	Table  string
}

// NewUserProfileService binds the service to tableName.
func NewUserProfileService(dynamo *DynamoService, tableName string) *UserProfileService {
	if tableName == "" {
		tableName = models.UserProfilesTable
	}
	return &UserProfileService{Dynamo: dynamo, Table: tableName}
}

func profileKey(userID string) (map[string]types.AttributeValue, error) {
	return attributevalue.MarshalMap(map[string]string{models.UserIDAttribute: userID})
}

// GetUserProfile retrieves a user profile by ID. It returns ErrItemNotFound
// when there is no profile for userID.
func (ups *UserProfileService) GetUserProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	key, err := profileKey(userID)
	if err != nil {
		return nil, err
	}

	item, err := ups.Dynamo.GetItem(ctx, ups.Table, key)
	if err != nil {
		return nil, err
	}

	profile, err := utils.FromAttributeValueMap(item)
	if err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return profile, nil
}

// UpdateUserProfile sets every field in updates on the profile and returns the
// full profile after the update. The UserId field is never patched. A profile
// that does not exist yet is created.
func (ups *UserProfileService) UpdateUserProfile(ctx context.Context, userID string, updates *models.Attributes) (*models.UserProfile, error) {
	key, err := profileKey(userID)
	if err != nil {
		return nil, err
	}

	expr, err := buildUpdateExpression(updates)
	if err != nil {
		return nil, err
	}

	updatedItem, err := ups.Dynamo.UpdateItem(ctx, ups.Table, expr.Expression, key, expr.Values, expr.Names)
	if err != nil {
		return nil, err
	}

	profile, err := utils.FromAttributeValueMap(updatedItem)
	if err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return profile, nil
}

type updateExpression struct {
	Expression string
	Names      map[string]string
	Values     map[string]types.AttributeValue
}

// buildUpdateExpression turns a patch into "SET #a = :a, #b = :b".
// Placeholders are the field names with spaces (and anything else DynamoDB
// does not accept in a placeholder) replaced by underscores; the names map
// keeps the original field names.
func buildUpdateExpression(updates *models.Attributes) (updateExpression, error) {
	expr := updateExpression{
		Names:  make(map[string]string),
		Values: make(map[string]types.AttributeValue),
	}

	clauses := make([]string, 0, updates.Len())
	for i, field := range updates.Keys() {
		if field == models.UserIDAttribute {
			continue
		}

		placeholder := placeholderName(field)
		if placeholder == "" {
			placeholder = "f" + strconv.Itoa(i)
		}
		for {
			if _, taken := expr.Names["#"+placeholder]; !taken {
				break
			}
			placeholder += "_" + strconv.Itoa(i)
		}

		value, _ := updates.Get(field)
		av, err := utils.ToAttributeValue(value)
		if err != nil {
			return updateExpression{}, fmt.Errorf("field %q: %w", field, err)
		}

		expr.Names["#"+placeholder] = field
		expr.Values[":"+placeholder] = av
		clauses = append(clauses, "#"+placeholder+" = :"+placeholder)
	}

	if len(clauses) == 0 {
		return updateExpression{}, ErrNoUpdatableFields
	}

	expr.Expression = "SET " + strings.Join(clauses, ", ")
	return expr, nil
}

func placeholderName(field string) string {
	var b strings.Builder
	for _, r := range field {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
