package docstore

import (
	"math/rand/v2"
	"regexp"
)

const (
	// FakeIDLength is the length of a generated pseudo-id, the same as a
	// Firestore auto-id.
	FakeIDLength = 20

	fakeIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// IDPattern matches ids produced by NewFakeID.
var IDPattern = regexp.MustCompile(`^[a-z0-9]{20}$`)

// IDGenerator produces document ids for the offline adapter.
type IDGenerator func() string

// NewFakeID returns 20 characters drawn uniformly from [a-z0-9].
// Uniqueness is left to chance and never checked against a store.
func NewFakeID() string {
	b := make([]byte, FakeIDLength)
	for i := range b {
		b[i] = fakeIDAlphabet[rand.IntN(len(fakeIDAlphabet))]
	}
	return string(b)
}

// IsFakeID reports whether id has the shape of a pseudo-id.
func IsFakeID(id string) bool {
	return IDPattern.MatchString(id)
}
