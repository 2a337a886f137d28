package firesnapshot

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"cloud.google.com/go/firestore"
)

// BuilderOption configures a QueryBuilder.
type BuilderOption func(*builderConfig)

type builderConfig struct {
	logger *slog.Logger
}

// WithLogger sets the logger unknown-field warnings are written to.
// The default is slog.Default().
func WithLogger(l *slog.Logger) BuilderOption {
	return func(c *builderConfig) {
		c.logger = l
	}
}

// QueryBuilder narrows a Firestore query with clauses on typed fields of D.
// Clauses are applied in call order. A clause whose field has no stored name
// is dropped with a warning and recorded in Err; the rest of the query is kept.
type QueryBuilder[D FieldNameReferable] struct {
	query  firestore.Query
	logger *slog.Logger
	errs   []error
}

// NewQueryBuilder starts from q, usually a collection's base query.
func NewQueryBuilder[D FieldNameReferable](q firestore.Query, opts ...BuilderOption) *QueryBuilder[D] {
	cfg := builderConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &QueryBuilder[D]{query: q, logger: cfg.logger}
}

// Generate returns the query built so far.
func (b *QueryBuilder[D]) Generate() firestore.Query {
	return b.query
}

// Err returns the clauses dropped so far, or nil.
func (b *QueryBuilder[D]) Err() error {
	return errors.Join(b.errs...)
}

func (b *QueryBuilder[D]) Where(f Filter[D]) *QueryBuilder[D] {
	b.update(f.key, func(q firestore.Query, name string) firestore.Query {
		return q.Where(name, string(f.op), f.value)
	})
	return b
}

func (b *QueryBuilder[D]) OrderBy(f Accessor[D], dir firestore.Direction) *QueryBuilder[D] {
	b.update(f.Key(), func(q firestore.Query, name string) firestore.Query {
		return q.OrderBy(name, dir)
	})
	return b
}

// Limit caps the number of results. A later call replaces an earlier one.
func (b *QueryBuilder[D]) Limit(n int) *QueryBuilder[D] {
	b.query = b.query.Limit(n)
	return b
}

func (b *QueryBuilder[D]) StartAt(doc *firestore.DocumentSnapshot) *QueryBuilder[D] {
	b.query = b.query.StartAt(doc)
	return b
}

func (b *QueryBuilder[D]) StartAfter(doc *firestore.DocumentSnapshot) *QueryBuilder[D] {
	b.query = b.query.StartAfter(doc)
	return b
}

func (b *QueryBuilder[D]) EndAt(doc *firestore.DocumentSnapshot) *QueryBuilder[D] {
	b.query = b.query.EndAt(doc)
	return b
}

func (b *QueryBuilder[D]) EndBefore(doc *firestore.DocumentSnapshot) *QueryBuilder[D] {
	b.query = b.query.EndBefore(doc)
	return b
}

func (b *QueryBuilder[D]) update(key FieldKey, apply func(firestore.Query, string) firestore.Query) {
	zero := zeroReferable[D]()
	name, ok := zero.FieldName(key)
	if !ok || name == "" {
		dataType := fmt.Sprintf("%T", zero)
		b.logger.Warn("Field name not found, skipping clause.", "field", string(key), "dataType", dataType)
		b.errs = append(b.errs, fmt.Errorf("%w: %s.%s", ErrUnknownField, dataType, key))
		return
	}
	b.query = apply(b.query, name)
}

// zeroReferable returns the zero value of D, or a pointer to a zero value when
// D is itself a pointer type, so FieldName can be called on it.
func zeroReferable[D FieldNameReferable]() D {
	var zero D
	if t := reflect.TypeOf(&zero).Elem(); t.Kind() == reflect.Pointer {
		zero = reflect.New(t.Elem()).Interface().(D)
	}
	return zero
}
