package utils

import (
	"encoding/json"
	"math/big"
	"sort"

	"mofit_api/models"

	"github.com/shopspring/decimal"
)

// ToDecimalTree walks a value and replaces every number with a
// decimal.Decimal. Floats go through their shortest string form, so 30.5
// becomes exactly 30.5 rather than its binary expansion.
// Plain maps become *models.Attributes with sorted keys.
func ToDecimalTree(v any) any {
	switch val := v.(type) {
	case float64:
		return decimal.NewFromFloat(val)
	case float32:
		return decimal.NewFromFloat32(val)
	case int:
		return decimal.NewFromInt(int64(val))
	case int32:
		return decimal.NewFromInt32(val)
	case int64:
		return decimal.NewFromInt(val)
	case uint:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(val)), 0)
	case uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(val), 0)
	case json.Number:
		d, err := decimal.NewFromString(val.String())
		if err != nil {
			return val.String()
		}
		return d
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = ToDecimalTree(item)
		}
		return out
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		attrs := models.NewAttributes()
		for _, k := range keys {
			attrs.Set(k, ToDecimalTree(val[k]))
		}
		return attrs
	case *models.Attributes:
		out := models.NewAttributes()
		for _, k := range val.Keys() {
			item, _ := val.Get(k)
			out.Set(k, ToDecimalTree(item))
		}
		return out
	default:
		return v
	}
}
