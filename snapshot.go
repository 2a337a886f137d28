package firesnapshot

import (
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
)

// DataFactory builds document data once the document's reference is known,
// for data that embeds its own ID or reference.
type DataFactory[D any] func(ref *firestore.DocumentRef) D

// RawDocument is the untyped form of a fetched document.
type RawDocument interface {
	Exists() bool
	Data() map[string]interface{}
	DataTo(p interface{}) error
	Reference() *firestore.DocumentRef
}

// WrapDocument adapts a Firestore document snapshot. doc may be nil.
func WrapDocument(doc *firestore.DocumentSnapshot) RawDocument {
	return firestoreDocument{doc: doc}
}

type firestoreDocument struct {
	doc *firestore.DocumentSnapshot
}

func (d firestoreDocument) Exists() bool { return d.doc.Exists() }

func (d firestoreDocument) Data() map[string]interface{} { return d.doc.Data() }

func (d firestoreDocument) DataTo(p interface{}) error {
	if d.doc == nil {
		return fmt.Errorf("no document snapshot")
	}
	return d.doc.DataTo(p)
}

func (d firestoreDocument) Reference() *firestore.DocumentRef {
	if d.doc == nil {
		return nil
	}
	return d.doc.Ref
}

// Snapshot is a document's data together with the reference it lives at.
//
// Data may be changed freely; the reference never changes. Create and update
// times are captured once when the snapshot is built from a stored document
// and are not refreshed by later writes.
//
// A Snapshot must not be mutated from several goroutines at once.
type Snapshot[D any] struct {
	Data D

	reference  *firestore.DocumentRef
	raw        RawDocument
	createTime *time.Time
	updateTime *time.Time
}

// New binds data to ref.
func New[D any](data D, ref *firestore.DocumentRef) *Snapshot[D] {
	return &Snapshot[D]{Data: data, reference: ref}
}

// NewFromFactory binds the data produced by factory to ref.
func NewFromFactory[D any](ref *firestore.DocumentRef, factory DataFactory[D]) *Snapshot[D] {
	return New(factory(ref), ref)
}

// NewAtPath binds data to the document at path.
func NewAtPath[D any](r Resolver, data D, path DocumentPath[D]) *Snapshot[D] {
	return New(data, path.Ref(r))
}

// NewAtPathFromFactory binds the data produced by factory to the document at path.
func NewAtPathFromFactory[D any](r Resolver, path DocumentPath[D], factory DataFactory[D]) *Snapshot[D] {
	return NewFromFactory(path.Ref(r), factory)
}

// NewInCollection binds data to document id in coll. An empty id picks a new random ID.
func NewInCollection[D any](r Resolver, data D, coll CollectionPath[D], id string) *Snapshot[D] {
	return New(data, coll.DocumentRef(r, id))
}

// NewInCollectionFromFactory is NewInCollection with deferred data.
func NewInCollectionFromFactory[D any](r Resolver, coll CollectionPath[D], id string, factory DataFactory[D]) *Snapshot[D] {
	return NewFromFactory(coll.DocumentRef(r, id), factory)
}

// FromDocument decodes raw into a Snapshot. A missing document and a payload
// that does not decode into D both yield ErrNotExist.
func FromDocument[D any](raw RawDocument) (*Snapshot[D], error) {
	if raw == nil || !raw.Exists() {
		return nil, notExist(raw, nil)
	}
	var data D
	if err := raw.DataTo(&data); err != nil {
		return nil, notExist(raw, err)
	}

	s := New(data, raw.Reference())
	s.raw = raw
	if tracksTimestamps(data) {
		fields := raw.Data()
		s.createTime = timestampOf(fields, CreateTimeField)
		s.updateTime = timestampOf(fields, UpdateTimeField)
	}
	return s, nil
}

// FromFirestore is FromDocument for a Firestore document snapshot.
func FromFirestore[D any](doc *firestore.DocumentSnapshot) (*Snapshot[D], error) {
	return FromDocument[D](WrapDocument(doc))
}

func notExist(raw RawDocument, cause error) error {
	path := ""
	if raw != nil {
		if ref := raw.Reference(); ref != nil {
			path = shortPath(ref.Path)
		}
	}
	switch {
	case path != "" && cause != nil:
		return fmt.Errorf("%w: %s: %v", ErrNotExist, path, cause)
	case path != "":
		return fmt.Errorf("%w: %s", ErrNotExist, path)
	case cause != nil:
		return fmt.Errorf("%w: %v", ErrNotExist, cause)
	}
	return ErrNotExist
}

// Reference returns the document reference the snapshot is bound to.
func (s *Snapshot[D]) Reference() *firestore.DocumentRef {
	return s.reference
}

// Path returns the document path of Reference.
func (s *Snapshot[D]) Path() DocumentPath[D] {
	return DocumentPathOf[D](s.reference)
}

// Raw returns the document the snapshot was decoded from, or nil if it was built in memory.
func (s *Snapshot[D]) Raw() RawDocument {
	return s.raw
}

// Document returns the underlying Firestore snapshot, usable as a query cursor.
func (s *Snapshot[D]) Document() (*firestore.DocumentSnapshot, bool) {
	fd, ok := s.raw.(firestoreDocument)
	if !ok || fd.doc == nil {
		return nil, false
	}
	return fd.doc, true
}

// CreateTime returns the server creation time captured at load.
// It is never set for data types that do not implement HasTimestamps.
func (s *Snapshot[D]) CreateTime() (time.Time, bool) {
	if s.createTime == nil {
		return time.Time{}, false
	}
	return *s.createTime, true
}

// UpdateTime returns the server update time captured at load.
func (s *Snapshot[D]) UpdateTime() (time.Time, bool) {
	if s.updateTime == nil {
		return time.Time{}, false
	}
	return *s.updateTime, true
}

// Replicated returns a detached deep copy bound to the same reference.
func (s *Snapshot[D]) Replicated(c *Codec) (*Snapshot[D], error) {
	return s.replicate(c, s.reference)
}

// ReplicatedAt returns a detached deep copy bound to path, e.g. for writing
// the same content to a new location. The path is resolved through the
// codec's Resolver.
func (s *Snapshot[D]) ReplicatedAt(c *Codec, path DocumentPath[D]) (*Snapshot[D], error) {
	r := c.Resolver()
	if r == nil {
		return nil, fmt.Errorf("failed to replicate %s at %s: %w", s.Path(), path, ErrNoResolver)
	}
	ref := path.Ref(r)
	if ref == nil {
		return nil, fmt.Errorf("failed to replicate %s: invalid document path %q", s.Path(), path)
	}
	return s.replicate(c, ref)
}

func (s *Snapshot[D]) replicate(c *Codec, ref *firestore.DocumentRef) (*Snapshot[D], error) {
	var data D
	if err := c.Copy(s.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to replicate %s: %w", s.Path(), err)
	}
	out := New(data, ref)
	if tracksTimestamps(data) {
		out.createTime = s.createTime
		out.updateTime = s.updateTime
	}
	return out, nil
}

// Value reads a field of the snapshot's data.
func Value[D, V any](s *Snapshot[D], f Field[D, V]) V {
	return f.Get(&s.Data)
}

// SetValue writes a field of the snapshot's data.
func SetValue[D, V any](s *Snapshot[D], f Field[D, V], v V) {
	f.Set(&s.Data, v)
}

// ReferenceOf returns the reference wrapper stored in a field of the snapshot's data.
func ReferenceOf[D, T any](s *Snapshot[D], f ReferenceField[D, T]) *Reference[T] {
	return f.Get(&s.Data)
}

// Equal reports whether a and b point at the same document path and hold equal data.
func Equal[D comparable](a, b *Snapshot[D]) bool {
	return EqualFunc(a, b, func(x, y D) bool { return x == y })
}

// EqualFunc is Equal with a caller-supplied data comparison.
func EqualFunc[D any](a, b *Snapshot[D], eq func(x, y D) bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	return refPath(a.reference) == refPath(b.reference) && eq(a.Data, b.Data)
}

func refPath(ref *firestore.DocumentRef) string {
	if ref == nil {
		return ""
	}
	return ref.Path
}
