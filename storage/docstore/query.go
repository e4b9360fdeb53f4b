package docstore

import (
	"reflect"
	"sort"

	"github.com/pkg/errors"

	"github.com/aqua777/go-fireorm/validation"
)

// Operator is a comparison understood by both adapters. The values are the
// Firestore operator strings.
type Operator string

const (
	OpEqual         Operator = "=="
	OpIn            Operator = "in"
	OpArrayContains Operator = "array-contains"
)

// ErrUnsupportedOperator is returned for a filter whose operator is not one of
// OpEqual, OpIn or OpArrayContains.
var ErrUnsupportedOperator = errors.New("docstore: unsupported operator")

// Filter is a single predicate on a field. Path may address a nested map
// with dots, as in "address.city".
type Filter struct {
	Path  string
	Op    Operator
	Value interface{}
}

// Query selects documents from a collection. Results are ordered by
// document id; Offset and Limit apply after filtering. A zero Limit means
// no limit.
type Query struct {
	Filters []Filter
	Offset  int
	Limit   int
}

// NewQuery translates an equality mapping and an array-contains mapping into
// a Query. A slice value in equal becomes an OpIn membership filter.
// Filters are sorted by path so the translation is deterministic.
func NewQuery(equal map[string]interface{}, arrayContains map[string]interface{}) Query {
	var q Query
	for path, value := range equal {
		if list, ok := asList(value); ok {
			q.Filters = append(q.Filters, Filter{Path: path, Op: OpIn, Value: list})
			continue
		}
		q.Filters = append(q.Filters, Filter{Path: path, Op: OpEqual, Value: value})
	}
	for path, value := range arrayContains {
		q.Filters = append(q.Filters, Filter{Path: path, Op: OpArrayContains, Value: value})
	}
	sortFilters(q.Filters)
	return q
}

// Where returns a copy of q with one more filter.
func (q Query) Where(path string, op Operator, value interface{}) Query {
	if op == OpIn {
		if list, ok := asList(value); ok {
			value = list
		}
	}
	filters := make([]Filter, len(q.Filters), len(q.Filters)+1)
	copy(filters, q.Filters)
	q.Filters = append(filters, Filter{Path: path, Op: op, Value: value})
	return q
}

// Page returns a copy of q windowed to the 1-indexed page.
func (q Query) Page(page, pageSize int) (Query, error) {
	if err := validation.ValidatePageParams(page, pageSize); err != nil {
		return q, err
	}
	start, _ := validation.PageWindow(page, pageSize)
	q.Offset = start
	q.Limit = pageSize
	return q, nil
}

// Unwindowed returns a copy of q without Offset and Limit.
func (q Query) Unwindowed() Query {
	q.Offset = 0
	q.Limit = 0
	return q
}

// Validate checks the operators and the window.
func (q Query) Validate() error {
	v := validation.NewValidator()
	v.RequireNonNegative(q.Offset, "offset")
	v.RequireNonNegative(q.Limit, "limit")
	for _, f := range q.Filters {
		v.RequireNotEmpty(f.Path, "filter.path")
		if _, ok := asList(f.Value); f.Op == OpIn && !ok {
			v.AddError(f.Path, "in requires a list value", f.Value)
		}
	}
	if err := v.Error(); err != nil {
		return err
	}
	for _, f := range q.Filters {
		switch f.Op {
		case OpEqual, OpIn, OpArrayContains:
		default:
			return errors.Wrapf(ErrUnsupportedOperator, "%q on %s", f.Op, f.Path)
		}
	}
	return nil
}

// window applies Offset and Limit to n items and returns the bounds.
func (q Query) window(n int) (start, end int) {
	start = min(q.Offset, n)
	end = n
	if q.Limit > 0 && start+q.Limit < end {
		end = start + q.Limit
	}
	return start, end
}

func sortFilters(filters []Filter) {
	sort.SliceStable(filters, func(i, j int) bool {
		if filters[i].Path != filters[j].Path {
			return filters[i].Path < filters[j].Path
		}
		return opRank(filters[i].Op) < opRank(filters[j].Op)
	})
}

func opRank(op Operator) int {
	switch op {
	case OpEqual:
		return 0
	case OpIn:
		return 1
	default:
		return 2
	}
}

// asList converts any slice or array other than []byte to []interface{}.
func asList(value interface{}) ([]interface{}, bool) {
	if value == nil {
		return nil, false
	}
	if list, ok := value.([]interface{}); ok {
		return list, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	list := make([]interface{}, rv.Len())
	for i := range list {
		list[i] = rv.Index(i).Interface()
	}
	return list, true
}
