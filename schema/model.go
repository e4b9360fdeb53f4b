package schema

import "time"

// Model carries the identity and timestamps shared by every record.
// Embed it in a record type:
//
//	type User struct {
//		schema.Model
//		Name string
//	}
type Model struct {
	ID        string
	CreatedAt *time.Time
	UpdatedAt *time.Time
}

// GetModel returns m. Embedding Model gives a record type this method.
func (m *Model) GetModel() *Model {
	return m
}

// IsPersisted reports whether the record has been assigned an id.
func (m *Model) IsPersisted() bool {
	return m.ID != ""
}

// ModelFields returns the reserved fields that are set on m.
func (m *Model) ModelFields() Fields {
	f := Fields{}
	if m.ID != "" {
		f[FieldID] = m.ID
	}
	if m.CreatedAt != nil {
		f[FieldCreatedAt] = *m.CreatedAt
	}
	if m.UpdatedAt != nil {
		f[FieldUpdatedAt] = *m.UpdatedAt
	}
	return f
}

// DecodeModel reads the reserved fields present in d into m.
func (m *Model) DecodeModel(d *Decoder) {
	d.String(FieldID, &m.ID)
	d.TimePtr(FieldCreatedAt, &m.CreatedAt)
	d.TimePtr(FieldUpdatedAt, &m.UpdatedAt)
}

// Stamp sets the timestamps after a write at t. created is true for inserts.
func (m *Model) Stamp(t time.Time, created bool) {
	if created {
		c := t
		m.CreatedAt = &c
	}
	u := t
	m.UpdatedAt = &u
}

// AllFields returns the record's own fields merged with its reserved fields.
func AllFields(r Record) Fields {
	return r.ToFields().Merge(r.GetModel().ModelFields())
}
