package schema

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqua777/go-fireorm/validation"
)

type testUser struct {
	Model
	Name  string
	Age   int
	Tags  []string
	Admin bool
}

func (u *testUser) ToFields() Fields {
	return Fields{
		"name":  u.Name,
		"age":   u.Age,
		"tags":  u.Tags,
		"admin": u.Admin,
	}
}

func (u *testUser) FromFields(d *Decoder) error {
	d.Require("name")
	d.String("name", &u.Name)
	d.Int("age", &u.Age)
	d.StringSlice("tags", &u.Tags)
	d.Bool("admin", &u.Admin)
	if u.Age < 0 {
		return errors.New("age must not be negative")
	}
	return nil
}

func TestFieldsWithout(t *testing.T) {
	f := Fields{"id": "abc", "name": "Ann", "created_at": time.Now()}
	out := f.Without(FieldID, FieldCreatedAt)

	assert.Equal(t, Fields{"name": "Ann"}, out)
	assert.Len(t, f, 3, "receiver must not be modified")
}

func TestFieldsMerge(t *testing.T) {
	a := Fields{"x": 1, "y": 2}
	b := Fields{"y": 3, "z": 4}

	merged := a.Merge(b)
	assert.Equal(t, Fields{"x": 1, "y": 3, "z": 4}, merged)
	assert.Equal(t, 2, a["y"])
}

func TestFieldsKeysAndString(t *testing.T) {
	f := Fields{"b": 1, "a": "x"}
	assert.Equal(t, []string{"a", "b"}, f.Keys())
	assert.JSONEq(t, `{"a":"x","b":1}`, f.String())

	assert.True(t, Fields{"k": nil}.Has("k"))
	assert.False(t, Fields{}.Has("k"))
	assert.Nil(t, Fields(nil).Clone())
}

func TestModelFields(t *testing.T) {
	var m Model
	assert.Empty(t, m.ModelFields())
	assert.False(t, m.IsPersisted())

	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	m.ID = "abc"
	m.Stamp(now, true)

	f := m.ModelFields()
	assert.Equal(t, "abc", f[FieldID])
	assert.Equal(t, now, f[FieldCreatedAt])
	assert.Equal(t, now, f[FieldUpdatedAt])
	assert.True(t, m.IsPersisted())
}

func TestModelStampKeepsCreatedAt(t *testing.T) {
	var m Model
	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	later := first.Add(time.Hour)

	m.Stamp(first, true)
	m.Stamp(later, false)

	require.NotNil(t, m.CreatedAt)
	require.NotNil(t, m.UpdatedAt)
	assert.True(t, m.CreatedAt.Equal(first))
	assert.True(t, m.UpdatedAt.Equal(later))
}

func TestDecodeFull(t *testing.T) {
	var u testUser
	err := Decode(&u, Fields{
		"id":         "user1",
		"name":       "Ann",
		"age":        float64(31),
		"tags":       []interface{}{"red", "blue"},
		"admin":      true,
		"created_at": "2024-05-01T10:00:00Z",
		"updated_at": time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, "user1", u.ID)
	assert.Equal(t, "Ann", u.Name)
	assert.Equal(t, 31, u.Age)
	assert.Equal(t, []string{"red", "blue"}, u.Tags)
	assert.True(t, u.Admin)
	require.NotNil(t, u.CreatedAt)
	assert.True(t, u.CreatedAt.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)))
	require.NotNil(t, u.UpdatedAt)
	assert.Equal(t, 2, u.UpdatedAt.Day())
}

func TestDecodeMissingRequired(t *testing.T) {
	var u testUser
	err := Decode(&u, Fields{"age": 3})
	require.Error(t, err)

	verrs, ok := validation.AsValidationErrors(err)
	require.True(t, ok)
	assert.True(t, verrs.HasField("name"))
}

func TestDecodeTypeMismatch(t *testing.T) {
	tests := []struct {
		name   string
		fields Fields
		field  string
	}{
		{"string from map", Fields{"name": map[string]interface{}{"a": 1}}, "name"},
		{"int from text", Fields{"name": "Ann", "age": "old"}, "age"},
		{"int from fraction", Fields{"name": "Ann", "age": 1.5}, "age"},
		{"int from bool", Fields{"name": "Ann", "age": true}, "age"},
		{"tags from string", Fields{"name": "Ann", "tags": "red"}, "tags"},
		{"timestamp from number", Fields{"name": "Ann", "created_at": 12}, "created_at"},
		{"bool from text", Fields{"name": "Ann", "admin": "maybe"}, "admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var u testUser
			err := Decode(&u, tt.fields)
			verrs, ok := validation.AsValidationErrors(err)
			require.True(t, ok, "expected validation errors, got %v", err)
			assert.True(t, verrs.HasField(tt.field), "errors: %v", verrs)
		})
	}
}

func TestDecodeRecordError(t *testing.T) {
	var u testUser
	err := Decode(&u, Fields{"name": "Ann", "age": -1})

	verrs, ok := validation.AsValidationErrors(err)
	require.True(t, ok)
	assert.True(t, verrs.HasField("record"))
}

func TestDecodePartial(t *testing.T) {
	u := testUser{Name: "Ann", Age: 30, Tags: []string{"red"}}
	u.ID = "keep"

	err := DecodePartial(&u, Fields{"age": int64(31)})
	require.NoError(t, err)

	assert.Equal(t, "keep", u.ID)
	assert.Equal(t, "Ann", u.Name)
	assert.Equal(t, 31, u.Age)
	assert.Equal(t, []string{"red"}, u.Tags)
}

func TestDecodePartialUnknownField(t *testing.T) {
	u := testUser{Name: "Ann"}
	err := DecodePartial(&u, Fields{"nmae": "Bea", "age": 3})

	verrs, ok := validation.AsValidationErrors(err)
	require.True(t, ok)
	assert.True(t, verrs.HasField("nmae"))
	assert.False(t, verrs.HasField("age"))

	require.NoError(t, Decode(&u, Fields{"name": "Ann", "extra": true}), "full decodes tolerate stored extras")
}

func TestDecodeNullValues(t *testing.T) {
	u := testUser{Name: "Ann", Tags: []string{"red"}}
	now := time.Now()
	u.CreatedAt = &now

	err := DecodePartial(&u, Fields{"tags": nil, "created_at": nil})
	require.NoError(t, err)
	assert.Nil(t, u.Tags)
	assert.Nil(t, u.CreatedAt)
}

func TestDecoderCoercion(t *testing.T) {
	d := NewDecoder(Fields{
		"count": "12",
		"ratio": int64(2),
		"when":  "2024-05-01T12:00:00+02:00",
		"meta":  Fields{"k": "v"},
		"raw":   []interface{}{1, "a"},
	})

	var count int64
	var ratio float64
	var when time.Time
	var meta map[string]interface{}
	var raw interface{}

	d.Int64("count", &count)
	d.Float64("ratio", &ratio)
	d.Time("when", &when)
	d.Map("meta", &meta)
	d.Value("raw", &raw)
	require.NoError(t, d.Err())

	assert.Equal(t, int64(12), count)
	assert.Equal(t, 2.0, ratio)
	assert.Equal(t, time.UTC, when.Location())
	assert.Equal(t, 10, when.Hour())
	assert.Equal(t, map[string]interface{}{"k": "v"}, meta)
	assert.Equal(t, []interface{}{1, "a"}, raw)
}

func TestAllFields(t *testing.T) {
	u := testUser{Name: "Ann"}
	u.ID = "x"

	f := AllFields(&u)
	assert.Equal(t, "x", f[FieldID])
	assert.Equal(t, "Ann", f["name"])
	assert.False(t, f.Has(FieldCreatedAt))
}
