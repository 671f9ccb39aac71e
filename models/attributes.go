package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/shopspring/decimal"
)

// ErrNotAnObject is returned when a JSON document is valid but its top-level
// value is not an object.
var ErrNotAnObject = errors.New("json value is not an object")

// Attributes is an ordered, open set of item attributes.
//
// Values are one of: string, decimal.Decimal, bool, nil, []byte, []any or
// *Attributes. Numbers are always kept as decimals; they only become floats
// when the attributes are encoded as JSON.
type Attributes struct {
	keys   []string
	values map[string]any
}

// NewAttributes returns an empty attribute set.
func NewAttributes() *Attributes {
	return &Attributes{values: make(map[string]any)}
}

// Set adds or replaces an attribute. A new key is appended to the key order,
// a replaced key keeps its position.
func (a *Attributes) Set(key string, value any) {
	if a.values == nil {
		a.values = make(map[string]any)
	}
	if _, exists := a.values[key]; !exists {
		a.keys = append(a.keys, key)
	}
	a.values[key] = value
}

// Get returns the value stored under key.
func (a *Attributes) Get(key string) (any, bool) {
	if a == nil {
		return nil, false
	}
	v, ok := a.values[key]
	return v, ok
}

// GetString returns the value under key when it is a string.
func (a *Attributes) GetString(key string) (string, bool) {
	v, ok := a.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Delete removes key if present.
func (a *Attributes) Delete(key string) {
	if a == nil {
		return
	}
	if _, ok := a.values[key]; !ok {
		return
	}
	delete(a.values, key)
	for i, k := range a.keys {
		if k == key {
			a.keys = append(a.keys[:i], a.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the attribute names in order.
func (a *Attributes) Keys() []string {
	if a == nil {
		return nil
	}
	out := make([]string, len(a.keys))
	copy(out, a.keys)
	return out
}

// Len reports the number of attributes.
func (a *Attributes) Len() int {
	if a == nil {
		return 0
	}
	return len(a.keys)
}

// SortKeys reorders the attributes by name. Items read back from the store
// have no meaningful order, so they are sorted to keep output stable.
func (a *Attributes) SortKeys() {
	if a == nil {
		return
	}
	sort.Strings(a.keys)
}

// Merge copies every attribute of other into a, in other's order.
func (a *Attributes) Merge(other *Attributes) {
	if other == nil {
		return
	}
	for _, k := range other.keys {
		a.Set(k, other.values[k])
	}
}

// MarshalJSON encodes the attributes as a JSON object in key order.
// Decimals are written as float64.
func (a *Attributes) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range a.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		if err := encodeValue(&buf, a.values[k]); err != nil {
			return nil, fmt.Errorf("attribute %q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping key order and reading every
// number as a decimal.
func (a *Attributes) UnmarshalJSON(data []byte) error {
	decoded, err := DecodeAttributes(data)
	if err != nil {
		return err
	}
	*a = *decoded
	return nil
}

func encodeValue(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case decimal.Decimal:
		f, _ := val.Float64()
		b, err := json.Marshal(f)
		if err != nil {
			return err
		}
		buf.Write(b)
	case *Attributes:
		b, err := val.MarshalJSON()
		if err != nil {
			return err
		}
		buf.Write(b)
	case []any:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeValue(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return err
		}
		buf.Write(b)
	}
	return nil
}

// DecodeAttributes parses a JSON object into Attributes.
func DecodeAttributes(data []byte) (*Attributes, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after top-level value")
	}
	attrs, ok := v.(*Attributes)
	if !ok {
		return nil, ErrNotAnObject
	}
	return attrs, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			attrs := NewAttributes()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected object key %v", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				attrs.Set(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return attrs, nil
		case '[':
			list := []any{}
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				list = append(list, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return list, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", t, err)
		}
		return d, nil
	default:
		// string, bool or nil
		return t, nil
	}
}
