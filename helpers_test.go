package firesnapshot_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/firesnapshot"
)

// newTestClient returns a client pointed at an emulator address. Nothing is
// dialed until an RPC is made, so the tests never touch the network.
func newTestClient(t *testing.T) *firestore.Client {
	t.Helper()
	t.Setenv("FIRESTORE_EMULATOR_HOST", "localhost:8080")
	client, err := firestore.NewClient(context.Background(), "test-project")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

type team struct {
	Name string `firestore:"name"`
}

type member struct {
	firesnapshot.Timestamps

	Name  string                       `firestore:"name"`
	Age   int                          `firestore:"age"`
	Tags  []string                     `firestore:"tags"`
	Team  firesnapshot.Reference[team] `firestore:"team"`
	Notes map[string]string            `firestore:"notes,omitempty"`
}

var memberFieldNames = firesnapshot.FieldNames{
	"Name": "name",
	"Age":  "age",
	"Tags": "tags",
	"Team": "team.ref",
}

func (member) FieldName(key firesnapshot.FieldKey) (string, bool) {
	return memberFieldNames.Lookup(key)
}

var memberFields = struct {
	Name     firesnapshot.Field[member, string]
	Age      firesnapshot.Field[member, int]
	Tags     firesnapshot.ArrayField[member, string]
	Team     firesnapshot.ReferenceField[member, team]
	Nickname firesnapshot.Field[member, string] // declared but not mapped
}{
	Name:     firesnapshot.NewField("Name", func(m *member) *string { return &m.Name }),
	Age:      firesnapshot.NewField("Age", func(m *member) *int { return &m.Age }),
	Tags:     firesnapshot.NewArrayField("Tags", func(m *member) *[]string { return &m.Tags }),
	Team:     firesnapshot.NewReferenceField("Team", func(m *member) *firesnapshot.Reference[team] { return &m.Team }),
	Nickname: firesnapshot.NewField("Nickname", func(m *member) *string { return &m.Name }),
}

// note does not track timestamps and is comparable.
type note struct {
	Title string `firestore:"title"`
	Body  string `firestore:"body"`
}

// fakeDocument is a RawDocument backed by a plain field map.
type fakeDocument struct {
	codec  *firesnapshot.Codec
	ref    *firestore.DocumentRef
	exists bool
	fields map[string]interface{}
}

func (d fakeDocument) Exists() bool                      { return d.exists }
func (d fakeDocument) Data() map[string]interface{}      { return d.fields }
func (d fakeDocument) Reference() *firestore.DocumentRef { return d.ref }

func (d fakeDocument) DataTo(p interface{}) error {
	return d.codec.DecodeMap(d.fields, p)
}

// storedDocument is a RawDocument shaped like a Firestore read: DataTo hands
// back the exact Go values the client decodes (int64, time.Time,
// *firestore.DocumentRef inside untyped fields) rather than going through JSON.
type storedDocument[D any] struct {
	ref    *firestore.DocumentRef
	data   D
	fields map[string]interface{}
}

func (d storedDocument[D]) Exists() bool                      { return true }
func (d storedDocument[D]) Data() map[string]interface{}      { return d.fields }
func (d storedDocument[D]) Reference() *firestore.DocumentRef { return d.ref }

func (d storedDocument[D]) DataTo(p interface{}) error {
	dst, ok := p.(*D)
	if !ok {
		return fmt.Errorf("firestore: DataTo: cannot decode %T into %T", d.data, p)
	}
	*dst = d.data
	return nil
}

// record holds untyped values the way Firestore stores them.
type record struct {
	firesnapshot.Timestamps

	Title string                 `firestore:"title"`
	Meta  map[string]interface{} `firestore:"meta"`
	Extra interface{}            `firestore:"extra"`
}

// fakeFetcher serves fake documents by full reference path.
type fakeFetcher struct {
	docs  map[string]firesnapshot.RawDocument
	calls int
}

func (f *fakeFetcher) Fetch(_ context.Context, ref *firestore.DocumentRef) (firesnapshot.RawDocument, error) {
	f.calls++
	if doc, ok := f.docs[ref.Path]; ok {
		return doc, nil
	}
	return fakeDocument{ref: ref}, nil
}

var (
	createdAt = time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	updatedAt = time.Date(2025, 3, 4, 12, 30, 0, 0, time.UTC)
)
