package schema

import (
	"encoding/json"
	"maps"
	"slices"
)

// Reserved field names managed by Model.
const (
	FieldID        = "id"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
)

// ReservedFields lists the keys owned by Model rather than the record type.
var ReservedFields = []string{FieldID, FieldCreatedAt, FieldUpdatedAt}

// Fields is the untyped field mapping exchanged between records and stores.
type Fields map[string]interface{}

// Clone returns a shallow copy of f.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	return maps.Clone(f)
}

// Has reports whether key is present, even with a nil value.
func (f Fields) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// Without returns a copy of f with keys removed.
func (f Fields) Without(keys ...string) Fields {
	result := make(Fields, len(f))
	for k, v := range f {
		if !slices.Contains(keys, k) {
			result[k] = v
		}
	}
	return result
}

// Merge returns a copy of f with every key of other set on it.
func (f Fields) Merge(other Fields) Fields {
	result := make(Fields, len(f)+len(other))
	for k, v := range f {
		result[k] = v
	}
	for k, v := range other {
		result[k] = v
	}
	return result
}

// Keys returns the keys of f in ascending order.
func (f Fields) Keys() []string {
	return slices.Sorted(maps.Keys(f))
}

// String returns the JSON form of f, or an empty object if f cannot be encoded.
func (f Fields) String() string {
	data, err := json.Marshal(f)
	if err != nil {
		return "{}"
	}
	return string(data)
}
