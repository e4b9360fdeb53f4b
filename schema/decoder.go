package schema

import (
	"errors"
	"math"
	"time"

	"github.com/spf13/cast"

	"github.com/aqua777/go-fireorm/validation"
)

// Decoder reads typed values out of a Fields mapping.
//
// Stores hand values back in different shapes: Firestore returns int64 and
// time.Time, the JSON-backed engines return float64 and RFC 3339 strings.
// Decoder coerces all of them. Every failure is recorded as a validation
// error and the destination is left untouched; Err reports them at the end.
//
// A partial decoder is used for merges: required keys are not enforced,
// absent keys never modify the destination and keys no accessor reads are
// reported as unknown fields.
type Decoder struct {
	fields  Fields
	partial bool
	read    map[string]bool
	v       *validation.Validator
}

// NewDecoder creates a Decoder over f.
func NewDecoder(f Fields) *Decoder {
	return &Decoder{fields: f, read: map[string]bool{}, v: validation.NewValidator()}
}

// NewPartialDecoder creates a Decoder that skips required-key checks.
func NewPartialDecoder(f Fields) *Decoder {
	d := NewDecoder(f)
	d.partial = true
	return d
}

// Fields returns the mapping being decoded.
func (d *Decoder) Fields() Fields {
	return d.fields
}

// Partial reports whether d decodes a partial update.
func (d *Decoder) Partial() bool {
	return d.partial
}

// Has reports whether key is present.
func (d *Decoder) Has(key string) bool {
	return d.fields.Has(key)
}

// Require records an error for every key that is absent or null.
// It does nothing on a partial decoder.
func (d *Decoder) Require(keys ...string) {
	if d.partial {
		return
	}
	for _, key := range keys {
		v, ok := d.fields[key]
		d.v.Require(ok && v != nil, key, "field required")
	}
}

// AddError records a custom validation error.
func (d *Decoder) AddError(field, message string, value interface{}) {
	d.v.AddError(field, message, value)
}

// Err returns the collected validation errors, or nil.
func (d *Decoder) Err() error {
	return d.v.Error()
}

// lookup returns the raw value for key. ok is false when key is absent.
func (d *Decoder) lookup(key string) (interface{}, bool) {
	d.read[key] = true
	v, ok := d.fields[key]
	return v, ok
}

// unread returns the keys of the mapping that no accessor has read, sorted.
func (d *Decoder) unread() []string {
	var keys []string
	for _, k := range d.fields.Keys() {
		if !d.read[k] {
			keys = append(keys, k)
		}
	}
	return keys
}

// String decodes key into dst.
func (d *Decoder) String(key string, dst *string) {
	raw, ok := d.lookup(key)
	if !ok {
		return
	}
	if raw == nil {
		*dst = ""
		return
	}
	switch raw.(type) {
	case map[string]interface{}, []interface{}, Fields:
		d.v.AddError(key, "must be a string", raw)
		return
	}
	s, err := cast.ToStringE(raw)
	if err != nil {
		d.v.AddError(key, "must be a string", raw)
		return
	}
	*dst = s
}

// Int decodes key into dst. Floating point values must be whole numbers.
func (d *Decoder) Int(key string, dst *int) {
	var n int64
	if d.int64(key, &n) {
		*dst = int(n)
	}
}

// Int64 decodes key into dst.
func (d *Decoder) Int64(key string, dst *int64) {
	d.int64(key, dst)
}

func (d *Decoder) int64(key string, dst *int64) bool {
	raw, ok := d.lookup(key)
	if !ok {
		return false
	}
	if raw == nil {
		*dst = 0
		return true
	}
	switch v := raw.(type) {
	case bool:
		d.v.AddError(key, "must be an integer", raw)
		return false
	case float64:
		if v != math.Trunc(v) {
			d.v.AddError(key, "must be an integer", raw)
			return false
		}
	case float32:
		if float64(v) != math.Trunc(float64(v)) {
			d.v.AddError(key, "must be an integer", raw)
			return false
		}
	}
	n, err := cast.ToInt64E(raw)
	if err != nil {
		d.v.AddError(key, "must be an integer", raw)
		return false
	}
	*dst = n
	return true
}

// Float64 decodes key into dst.
func (d *Decoder) Float64(key string, dst *float64) {
	raw, ok := d.lookup(key)
	if !ok {
		return
	}
	if raw == nil {
		*dst = 0
		return
	}
	if _, isBool := raw.(bool); isBool {
		d.v.AddError(key, "must be a number", raw)
		return
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil {
		d.v.AddError(key, "must be a number", raw)
		return
	}
	*dst = f
}

// Bool decodes key into dst.
func (d *Decoder) Bool(key string, dst *bool) {
	raw, ok := d.lookup(key)
	if !ok {
		return
	}
	if raw == nil {
		*dst = false
		return
	}
	b, err := cast.ToBoolE(raw)
	if err != nil {
		d.v.AddError(key, "must be a boolean", raw)
		return
	}
	*dst = b
}

// Time decodes key into dst. Times are returned in UTC.
func (d *Decoder) Time(key string, dst *time.Time) {
	var t *time.Time
	if d.timePtr(key, &t) {
		if t == nil {
			*dst = time.Time{}
			return
		}
		*dst = *t
	}
}

// TimePtr decodes key into dst; a null value sets dst to nil.
func (d *Decoder) TimePtr(key string, dst **time.Time) {
	d.timePtr(key, dst)
}

func (d *Decoder) timePtr(key string, dst **time.Time) bool {
	raw, ok := d.lookup(key)
	if !ok {
		return false
	}
	if raw == nil {
		*dst = nil
		return true
	}
	switch raw.(type) {
	case string, time.Time, *time.Time:
	default:
		d.v.AddError(key, "must be a timestamp", raw)
		return false
	}
	t, err := cast.ToTimeE(raw)
	if err != nil {
		d.v.AddError(key, "must be a timestamp", raw)
		return false
	}
	t = t.UTC()
	*dst = &t
	return true
}

// StringSlice decodes a list of strings.
func (d *Decoder) StringSlice(key string, dst *[]string) {
	raw, ok := d.lookup(key)
	if !ok {
		return
	}
	if raw == nil {
		*dst = nil
		return
	}
	switch raw.(type) {
	case []interface{}, []string:
	default:
		d.v.AddError(key, "must be a list of strings", raw)
		return
	}
	s, err := cast.ToStringSliceE(raw)
	if err != nil {
		d.v.AddError(key, "must be a list of strings", raw)
		return
	}
	*dst = s
}

// Map decodes a nested mapping.
func (d *Decoder) Map(key string, dst *map[string]interface{}) {
	raw, ok := d.lookup(key)
	if !ok {
		return
	}
	if raw == nil {
		*dst = nil
		return
	}
	if f, isFields := raw.(Fields); isFields {
		raw = map[string]interface{}(f)
	}
	m, err := cast.ToStringMapE(raw)
	if err != nil {
		d.v.AddError(key, "must be a mapping", raw)
		return
	}
	*dst = m
}

// Value copies the raw value of key into dst without coercion.
func (d *Decoder) Value(key string, dst *interface{}) {
	if raw, ok := d.lookup(key); ok {
		*dst = raw
	}
}

// Decode runs the full reconstruction of r from f: reserved fields first,
// then the record's own FromFields.
func Decode(r Record, f Fields) error {
	return decode(r, NewDecoder(f))
}

// DecodePartial applies f to r as a partial update.
func DecodePartial(r Record, f Fields) error {
	return decode(r, NewPartialDecoder(f))
}

func decode(r Record, d *Decoder) error {
	r.GetModel().DecodeModel(d)
	if err := r.FromFields(d); err != nil {
		var verrs validation.ValidationErrors
		if errors.As(err, &verrs) {
			for _, e := range verrs {
				if !d.hasError(e.Field, e.Message) {
					d.AddError(e.Field, e.Message, e.Value)
				}
			}
		} else {
			d.AddError("record", err.Error(), nil)
		}
	}
	if d.partial {
		for _, k := range d.unread() {
			d.AddError(k, "unknown field", d.fields[k])
		}
	}
	return d.Err()
}

func (d *Decoder) hasError(field, message string) bool {
	for _, e := range d.v.Errors() {
		if e.Field == field && e.Message == message {
			return true
		}
	}
	return false
}
