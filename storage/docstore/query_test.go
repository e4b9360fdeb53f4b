package docstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqua777/go-fireorm/validation"
)

func TestNewQueryTranslation(t *testing.T) {
	q := NewQuery(
		map[string]interface{}{"status": "open", "owner": []string{"ann", "bob"}, "tags": "x"},
		map[string]interface{}{"tags": "red"},
	)

	assert.Equal(t, []Filter{
		{Path: "owner", Op: OpIn, Value: []interface{}{"ann", "bob"}},
		{Path: "status", Op: OpEqual, Value: "open"},
		{Path: "tags", Op: OpEqual, Value: "x"},
		{Path: "tags", Op: OpArrayContains, Value: "red"},
	}, q.Filters)
	assert.Zero(t, q.Offset)
	assert.Zero(t, q.Limit)
}

func TestNewQueryBytesAreScalar(t *testing.T) {
	q := NewQuery(map[string]interface{}{"blob": []byte("abc")}, nil)
	require.Len(t, q.Filters, 1)
	assert.Equal(t, OpEqual, q.Filters[0].Op)
}

func TestQueryWhereDoesNotAlias(t *testing.T) {
	base := Query{}.Where("a", OpEqual, 1)
	left := base.Where("b", OpEqual, 2)
	right := base.Where("c", OpIn, []int{3, 4})

	assert.Len(t, base.Filters, 1)
	assert.Equal(t, "b", left.Filters[1].Path)
	assert.Equal(t, "c", right.Filters[1].Path)
	assert.Equal(t, []interface{}{3, 4}, right.Filters[1].Value)
}

func TestQueryPage(t *testing.T) {
	q, err := Query{}.Page(3, 10)
	require.NoError(t, err)
	assert.Equal(t, 20, q.Offset)
	assert.Equal(t, 10, q.Limit)
	assert.Equal(t, Query{}, q.Unwindowed())

	_, err = Query{}.Page(0, 10)
	verrs, ok := validation.AsValidationErrors(err)
	require.True(t, ok)
	assert.True(t, verrs.HasField("page"))

	_, err = Query{}.Page(1, 0)
	verrs, ok = validation.AsValidationErrors(err)
	require.True(t, ok)
	assert.True(t, verrs.HasField("page_size"))
}

func TestQueryWindow(t *testing.T) {
	tests := []struct {
		q          Query
		n          int
		start, end int
	}{
		{Query{}, 5, 0, 5},
		{Query{Offset: 2}, 5, 2, 5},
		{Query{Limit: 2}, 5, 0, 2},
		{Query{Offset: 4, Limit: 3}, 5, 4, 5},
		{Query{Offset: 9, Limit: 3}, 5, 5, 5},
	}
	for _, tt := range tests {
		start, end := tt.q.window(tt.n)
		assert.Equal(t, tt.start, start, "%+v", tt.q)
		assert.Equal(t, tt.end, end, "%+v", tt.q)
	}
}

func TestMatcher(t *testing.T) {
	doc := map[string]interface{}{
		"n":       3,
		"when":    time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		"tags":    []string{"a", "b"},
		"nested":  map[string]interface{}{"k": "v", "weird*key": 1},
		"nothing": nil,
	}

	tests := []struct {
		name string
		q    Query
		want bool
	}{
		{"int matches float", Query{}.Where("n", OpEqual, 3.0), true},
		{"time matches", Query{}.Where("when", OpEqual, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)), true},
		{"membership", Query{}.Where("n", OpIn, []int{1, 3}), true},
		{"membership miss", Query{}.Where("n", OpIn, []int{1, 2}), false},
		{"array contains", Query{}.Where("tags", OpArrayContains, "b"), true},
		{"array contains on scalar", Query{}.Where("n", OpArrayContains, 3), false},
		{"nested", Query{}.Where("nested.k", OpEqual, "v"), true},
		{"escaped segment", Query{}.Where("nested.weird*key", OpEqual, 1), true},
		{"missing field", Query{}.Where("absent", OpEqual, nil), false},
		{"null field", Query{}.Where("nothing", OpEqual, nil), true},
		{"whole list", Query{}.Where("tags", OpEqual, []string{"a", "b"}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMatcher(tt.q)
			require.NoError(t, err)
			got, err := m.Match(doc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveSentinels(t *testing.T) {
	now := time.Now()
	out := resolveSentinels(map[string]interface{}{
		"a": ServerTimestamp,
		"b": map[string]interface{}{"c": ServerTimestamp},
		"d": "fireorm.ServerTimestamp",
	}, now)

	assert.Equal(t, now, out["a"])
	assert.Equal(t, now, out["b"].(map[string]interface{})["c"])
	assert.Equal(t, "fireorm.ServerTimestamp", out["d"])
}

func TestNewFakeID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewFakeID()
		assert.Len(t, id, FakeIDLength)
		assert.Regexp(t, `^[a-z0-9]{20}$`, id)
		assert.True(t, IsFakeID(id))
		seen[id] = true
	}
	assert.Len(t, seen, 1000)

	assert.False(t, IsFakeID("ABCDEFGHIJKLMNOPQRST"))
	assert.False(t, IsFakeID("short"))
}
