package firesnapshot

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
)

// Fetcher retrieves the raw document behind a reference. A missing document
// should be reported as a RawDocument whose Exists is false rather than as an error.
type Fetcher interface {
	Fetch(ctx context.Context, ref *firestore.DocumentRef) (RawDocument, error)
}

// Reference is a field value pointing at another document holding T.
// It is stored as a map with a single "ref" reference value. The loaded
// target is cached in memory only.
type Reference[T any] struct {
	Ref *firestore.DocumentRef `firestore:"ref"`

	cached *Snapshot[T]
}

// NewReference returns an unloaded reference to ref.
func NewReference[T any](ref *firestore.DocumentRef) Reference[T] {
	return Reference[T]{Ref: ref}
}

// ReferenceTo returns a reference to s that is already loaded with s.
func ReferenceTo[T any](s *Snapshot[T]) Reference[T] {
	return Reference[T]{Ref: s.Reference(), cached: s}
}

// Path returns the target document's path.
func (r *Reference[T]) Path() DocumentPath[T] {
	return DocumentPathOf[T](r.Ref)
}

// Cached returns the loaded target, if any.
func (r *Reference[T]) Cached() (*Snapshot[T], bool) {
	return r.cached, r.cached != nil
}

// Retarget points r at ref and drops any cached target.
func (r *Reference[T]) Retarget(ref *firestore.DocumentRef) {
	r.Ref = ref
	r.cached = nil
}

// Load fetches and decodes the target and caches it on r.
func (r *Reference[T]) Load(ctx context.Context, f Fetcher) (*Snapshot[T], error) {
	if r.Ref == nil {
		return nil, errors.New("firesnapshot: reference has no target")
	}
	raw, err := f.Fetch(ctx, r.Ref)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", r.Path(), err)
	}
	s, err := FromDocument[T](raw)
	if err != nil {
		return nil, err
	}
	r.cached = s
	return s, nil
}
