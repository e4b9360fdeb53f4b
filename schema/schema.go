// Package schema defines the contract between typed records and document stores.
//
// A record type embeds Model for its identity and timestamps and implements
// Record to convert its own fields to and from the untyped Fields mapping.
// Conversion is written by hand per type; Decoder does the type coercion and
// collects validation errors so that records never rely on reflection.
package schema

// Record is implemented by every type that can be stored in a collection.
type Record interface {
	// GetModel returns the embedded identity and timestamp fields.
	GetModel() *Model

	// ToFields returns the record's own fields. It must not include the
	// reserved keys id, created_at and updated_at.
	ToFields() Fields

	// FromFields reads the record's own fields from d. Type mismatches and
	// missing required keys are reported through d; a non-nil return value is
	// treated as an additional validation failure.
	FromFields(d *Decoder) error
}

// CollectionNamer can be implemented by a record type to override the
// collection name derived from its type name.
type CollectionNamer interface {
	CollectionName() string
}
