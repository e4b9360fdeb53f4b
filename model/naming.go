package model

import (
	"reflect"

	"github.com/jinzhu/inflection"

	"github.com/aqua777/go-fireorm/schema"
)

// CollectionName returns the collection of record type T: the value of its
// CollectionName method if it has one and it is not empty, otherwise the
// plural of the type name ("User" becomes "Users", "Person" becomes "People").
func CollectionName[T any, PT RecordPtr[T]]() string {
	var zero T
	if namer, ok := any(PT(&zero)).(schema.CollectionNamer); ok {
		if name := namer.CollectionName(); name != "" {
			return name
		}
	}
	return inflection.Plural(reflect.TypeOf(zero).Name())
}
