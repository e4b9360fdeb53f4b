package docstore

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// Matcher evaluates a Query's filters against documents held in memory,
// with the semantics of the Firestore operators: equality, membership in a
// list and array containment. Values are compared in their JSON form, so
// an int 3 matches a stored 3.0 and a time.Time matches its RFC 3339 text.
type Matcher struct {
	filters []compiledFilter
}

type compiledFilter struct {
	path  string
	op    Operator
	value interface{}
}

// NewMatcher compiles q's filters. It fails if a filter has an unsupported
// operator or a value that cannot be encoded.
func NewMatcher(q Query) (*Matcher, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	m := &Matcher{filters: make([]compiledFilter, 0, len(q.Filters))}
	for _, f := range q.Filters {
		value, err := jsonValue(f.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "docstore: filter on %s", f.Path)
		}
		m.filters = append(m.filters, compiledFilter{path: escapePath(f.Path), op: f.Op, value: value})
	}
	return m, nil
}

// Match reports whether doc satisfies every filter.
func (m *Matcher) Match(doc map[string]interface{}) (bool, error) {
	if len(m.filters) == 0 {
		return true, nil
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return false, errors.Wrap(err, "docstore: encode document")
	}
	return m.MatchJSON(raw), nil
}

// MatchJSON is Match for a document already encoded as JSON.
func (m *Matcher) MatchJSON(raw []byte) bool {
	for _, f := range m.filters {
		if !f.match(gjson.GetBytes(raw, f.path)) {
			return false
		}
	}
	return true
}

func (f compiledFilter) match(field gjson.Result) bool {
	if !field.Exists() {
		return false
	}
	switch f.op {
	case OpEqual:
		return reflect.DeepEqual(field.Value(), f.value)
	case OpIn:
		got := field.Value()
		for _, candidate := range f.value.([]interface{}) {
			if reflect.DeepEqual(got, candidate) {
				return true
			}
		}
		return false
	case OpArrayContains:
		if !field.IsArray() {
			return false
		}
		for _, elem := range field.Array() {
			if reflect.DeepEqual(elem.Value(), f.value) {
				return true
			}
		}
		return false
	}
	return false
}

// jsonValue returns v as it reads back from JSON.
func jsonValue(v interface{}) (interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// escapePath turns a dotted field path into a gjson path, escaping gjson's
// wildcard and modifier characters inside each segment.
func escapePath(path string) string {
	parts := strings.Split(path, ".")
	for i, p := range parts {
		parts[i] = gjson.Escape(p)
	}
	return strings.Join(parts, ".")
}
