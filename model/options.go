package model

import (
	"log/slog"

	"github.com/aqua777/go-fireorm/callbacks"
	"github.com/aqua777/go-fireorm/storage/docstore"
)

type repositoryOptions struct {
	collection string
	callbacks  *callbacks.CallbackManager
	logger     *slog.Logger
}

// RepositoryOption configures a Repository.
type RepositoryOption func(*repositoryOptions)

// WithCollectionName overrides the collection name derived from the record type.
func WithCollectionName(name string) RepositoryOption {
	return func(o *repositoryOptions) {
		o.collection = name
	}
}

// WithCallbackManager makes the repository emit an event per operation.
func WithCallbackManager(m *callbacks.CallbackManager) RepositoryOption {
	return func(o *repositoryOptions) {
		o.callbacks = m
	}
}

// WithLogger sets the repository logger.
func WithLogger(logger *slog.Logger) RepositoryOption {
	return func(o *repositoryOptions) {
		o.logger = logger
	}
}

type queryOptions struct {
	equal         map[string]interface{}
	arrayContains map[string]interface{}
}

// QueryOption adds a filter to GetPage or Count.
type QueryOption func(*queryOptions)

// Where matches documents whose field equals value. A slice value matches
// documents whose field equals any element of it.
func Where(field string, value interface{}) QueryOption {
	return func(o *queryOptions) {
		o.equal[field] = value
	}
}

// WhereEqual applies Where for every entry of params.
func WhereEqual(params map[string]interface{}) QueryOption {
	return func(o *queryOptions) {
		for field, value := range params {
			o.equal[field] = value
		}
	}
}

// ArrayContains matches documents whose list field contains value.
func ArrayContains(field string, value interface{}) QueryOption {
	return func(o *queryOptions) {
		o.arrayContains[field] = value
	}
}

func buildQuery(opts []QueryOption) docstore.Query {
	o := &queryOptions{
		equal:         map[string]interface{}{},
		arrayContains: map[string]interface{}{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return docstore.NewQuery(o.equal, o.arrayContains)
}

type saveOptions struct {
	newID         bool
	keepCreatedAt bool
}

// SaveOption configures Save.
type SaveOption func(*saveOptions)

// WithNewID makes Save insert the record under a new id even if it has one.
func WithNewID() SaveOption {
	return func(o *saveOptions) {
		o.newID = true
	}
}

type mergeOptions struct {
	overwriteID bool
	exclude     []string
}

// MergeOption configures Merge.
type MergeOption func(*mergeOptions)

// OverwriteID lets an "id" key in the update replace the record's id.
func OverwriteID() MergeOption {
	return func(o *mergeOptions) {
		o.overwriteID = true
	}
}

// Exclude skips keys of the update.
func Exclude(keys ...string) MergeOption {
	return func(o *mergeOptions) {
		o.exclude = append(o.exclude, keys...)
	}
}
