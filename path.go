package firesnapshot

import (
	"strings"

	"cloud.google.com/go/firestore"
)

// documentsSegment separates the database prefix from the document path in a
// fully qualified Firestore resource name.
const documentsSegment = "/documents/"

// Resolver turns slash-separated paths into Firestore references.
// *firestore.Client satisfies it.
type Resolver interface {
	Doc(path string) *firestore.DocumentRef
	Collection(path string) *firestore.CollectionRef
}

// DocumentPath identifies a single document holding data of type D.
type DocumentPath[D any] struct {
	path string
}

// NewDocumentPath returns the document path for raw, e.g. "users/alice".
func NewDocumentPath[D any](raw string) DocumentPath[D] {
	return DocumentPath[D]{path: strings.Trim(raw, "/")}
}

// DocumentPathOf returns the path of ref relative to its database.
func DocumentPathOf[D any](ref *firestore.DocumentRef) DocumentPath[D] {
	if ref == nil {
		return DocumentPath[D]{}
	}
	return NewDocumentPath[D](shortPath(ref.Path))
}

func (p DocumentPath[D]) String() string {
	return p.path
}

// ID returns the last path segment.
func (p DocumentPath[D]) ID() string {
	if i := strings.LastIndex(p.path, "/"); i >= 0 {
		return p.path[i+1:]
	}
	return p.path
}

// Parent returns the collection the document belongs to.
func (p DocumentPath[D]) Parent() CollectionPath[D] {
	if i := strings.LastIndex(p.path, "/"); i >= 0 {
		return CollectionPath[D]{path: p.path[:i]}
	}
	return CollectionPath[D]{}
}

// Ref resolves the path. It returns nil if the path does not name a document.
func (p DocumentPath[D]) Ref(r Resolver) *firestore.DocumentRef {
	return r.Doc(p.path)
}

// CollectionPath identifies a collection of documents holding data of type D.
type CollectionPath[D any] struct {
	path string
}

// NewCollectionPath returns the collection path for raw, e.g. "users" or "users/alice/posts".
func NewCollectionPath[D any](raw string) CollectionPath[D] {
	return CollectionPath[D]{path: strings.Trim(raw, "/")}
}

func (c CollectionPath[D]) String() string {
	return c.path
}

// Doc returns the path of the document id inside c.
func (c CollectionPath[D]) Doc(id string) DocumentPath[D] {
	return NewDocumentPath[D](c.path + "/" + id)
}

// Ref resolves the path. It returns nil if the path does not name a collection.
func (c CollectionPath[D]) Ref(r Resolver) *firestore.CollectionRef {
	return r.Collection(c.path)
}

// DocumentRef returns a reference to the document id inside c.
// An empty id yields a reference with a new random ID.
func (c CollectionPath[D]) DocumentRef(r Resolver, id string) *firestore.DocumentRef {
	coll := c.Ref(r)
	if coll == nil {
		return nil
	}
	if id == "" {
		return coll.NewDoc()
	}
	return coll.Doc(id)
}

// Query returns the unfiltered query over every document in c.
func (c CollectionPath[D]) Query(r Resolver) firestore.Query {
	coll := c.Ref(r)
	if coll == nil {
		return firestore.Query{}
	}
	return coll.Query
}

func shortPath(full string) string {
	if i := strings.Index(full, documentsSegment); i >= 0 {
		return full[i+len(documentsSegment):]
	}
	return strings.Trim(full, "/")
}
