package gcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	"github.com/Lllllllleong/firesnapshot"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrAlreadyExists is returned by Create when the target document is already present.
var ErrAlreadyExists = errors.New("document already exists")

// defaultFetchConcurrency bounds parallel reads in LoadReferences.
const defaultFetchConcurrency = 10

// Store performs snapshot I/O against Firestore.
type Store struct {
	client *firestore.Client
	codec  *firesnapshot.Codec
}

// NewStore wraps an existing Firestore client.
func NewStore(client *firestore.Client) *Store {
	return &Store{
		client: client,
		codec:  firesnapshot.NewCodec(client),
	}
}

func (s *Store) Client() *firestore.Client {
	return s.client
}

// Codec returns a codec whose references resolve against this store's client.
func (s *Store) Codec() *firesnapshot.Codec {
	return s.codec
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Fetch implements firesnapshot.Fetcher. A missing document is returned as a
// raw document that does not exist.
func (s *Store) Fetch(ctx context.Context, ref *firestore.DocumentRef) (firesnapshot.RawDocument, error) {
	if ref == nil {
		return nil, fmt.Errorf("cannot fetch a nil document reference")
	}
	doc, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return firesnapshot.WrapDocument(doc), nil
		}
		return nil, fmt.Errorf("failed to get document %s: %w", ref.Path, err)
	}
	return firesnapshot.WrapDocument(doc), nil
}

// Get loads the document at path.
func Get[D any](ctx context.Context, s *Store, path firesnapshot.DocumentPath[D]) (*firesnapshot.Snapshot[D], error) {
	ref := path.Ref(s.client)
	if ref == nil {
		return nil, fmt.Errorf("invalid document path %q", path)
	}
	raw, err := s.Fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	return firesnapshot.FromDocument[D](raw)
}

// Create writes snap as a new document. Server timestamps are assigned for
// data embedding firesnapshot.Timestamps.
func Create[D any](ctx context.Context, s *Store, snap *firesnapshot.Snapshot[D]) error {
	ref := snap.Reference()
	if _, err := ref.Create(ctx, firesnapshot.WriteValue(snap, true)); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("%s: %w", snap.Path(), ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create document %s: %w", snap.Path(), err)
	}
	slog.Debug("Created document.", "path", snap.Path().String())
	return nil
}

// Save overwrites the document with snap's data. The snapshot's cached
// timestamps are left as they were.
func Save[D any](ctx context.Context, s *Store, snap *firesnapshot.Snapshot[D]) error {
	ref := snap.Reference()
	if _, err := ref.Set(ctx, firesnapshot.WriteValue(snap, false)); err != nil {
		return fmt.Errorf("failed to save document %s: %w", snap.Path(), err)
	}
	slog.Debug("Saved document.", "path", snap.Path().String())
	return nil
}

// Delete removes the document snap is bound to.
func Delete[D any](ctx context.Context, s *Store, snap *firesnapshot.Snapshot[D]) error {
	if _, err := snap.Reference().Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete document %s: %w", snap.Path(), err)
	}
	return nil
}

// Documents runs q and decodes every result.
func Documents[D any](ctx context.Context, s *Store, q firestore.Query) ([]*firesnapshot.Snapshot[D], error) {
	it := q.Documents(ctx)
	defer it.Stop()

	var snaps []*firesnapshot.Snapshot[D]
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to run query: %w", err)
		}
		snap, err := firesnapshot.FromFirestore[D](doc)
		if err != nil {
			return nil, fmt.Errorf("failed to decode query result: %w", err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

// LoadReferences loads every unloaded reference in refs concurrently through f,
// usually a *Store. A reference listed more than once is loaded once.
func LoadReferences[T any](ctx context.Context, f firesnapshot.Fetcher, refs []*firesnapshot.Reference[T]) error {
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(defaultFetchConcurrency)

	seen := make(map[*firesnapshot.Reference[T]]struct{}, len(refs))
	for _, ref := range refs {
		if ref == nil {
			continue
		}
		if _, dup := seen[ref]; dup {
			continue
		}
		seen[ref] = struct{}{}
		if _, ok := ref.Cached(); ok {
			continue
		}
		eg.Go(func() error {
			if _, err := ref.Load(gctx, f); err != nil {
				return fmt.Errorf("reference %s: %w", ref.Path(), err)
			}
			return nil
		})
	}
	return eg.Wait()
}
