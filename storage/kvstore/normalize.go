package kvstore

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Normalize returns a deep copy of val in its JSON shape.
func Normalize(val StoredValue) (StoredValue, error) {
	if val == nil {
		return StoredValue{}, nil
	}
	data, err := json.Marshal(val)
	if err != nil {
		return nil, errors.Wrap(err, "kvstore: encode value")
	}
	return decodeValue(data)
}

func decodeValue(data []byte) (StoredValue, error) {
	var result StoredValue
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, errors.Wrap(err, "kvstore: decode value")
	}
	if result == nil {
		result = StoredValue{}
	}
	return result, nil
}

// clone deep-copies a value that is already normalized.
func clone(val StoredValue) StoredValue {
	if val == nil {
		return nil
	}
	out := make(StoredValue, len(val))
	for k, v := range val {
		out[k] = cloneAny(v)
	}
	return out
}

func cloneAny(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = cloneAny(e)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = cloneAny(e)
		}
		return out
	default:
		return v
	}
}
