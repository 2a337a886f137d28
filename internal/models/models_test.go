package models

import (
	"context"
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/firesnapshot"
)

func TestDocumentFields_AllMapped(t *testing.T) {
	keys := []firesnapshot.FieldKey{
		DocumentFields.FileHash.Key(),
		DocumentFields.OriginalFilename.Key(),
		DocumentFields.Status.Key(),
		DocumentFields.ErrorDetails.Key(),
		DocumentFields.PageCount.Key(),
		DocumentFields.WorkflowExecutionID.Key(),
		DocumentFields.CreatedAt.Key(),
		DocumentFields.UpdateTime.Key(),
	}

	for _, key := range keys {
		_, ok := Document{}.FieldName(key)
		assert.True(t, ok, "field %s has no stored name", key)
	}

	name, _ := Document{}.FieldName(DocumentFields.UpdateTime.Key())
	assert.Equal(t, firesnapshot.UpdateTimeField, name)
}

func TestPageFields_AllMapped(t *testing.T) {
	keys := []firesnapshot.FieldKey{
		PageFields.Document.Key(),
		PageFields.DocumentRef.Key(),
		PageFields.PageNumber.Key(),
		PageFields.GCSUri.Key(),
		PageFields.Status.Key(),
		PageFields.Tags.Key(),
	}

	for _, key := range keys {
		_, ok := Page{}.FieldName(key)
		assert.True(t, ok, "field %s has no stored name", key)
	}

	name, _ := Page{}.FieldName(PageFields.DocumentRef.Key())
	assert.Equal(t, "document.ref", name)
}

func TestPage_EncodesDocumentReference(t *testing.T) {
	t.Setenv("FIRESTORE_EMULATOR_HOST", "localhost:8080")
	client, err := firestore.NewClient(context.Background(), "test-project")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	codec := firesnapshot.NewCodec(client)

	page := Page{
		Document:   firesnapshot.NewReference[Document](client.Doc("documents/abc")),
		PageNumber: 3,
		Tags:       []string{"invoice"},
	}
	data, err := codec.Marshal(page)
	require.NoError(t, err)

	var decoded Page
	require.NoError(t, codec.Unmarshal(data, &decoded))
	assert.Equal(t, 3, decoded.PageNumber)
	assert.Equal(t, []string{"invoice"}, decoded.Tags)
	require.NotNil(t, decoded.Document.Ref)
	assert.Equal(t, "documents/abc", decoded.Document.Path().String())
	assert.Equal(t, "abc", PageFields.DocumentRef.Get(&decoded).ID)
}

func TestDocument_TracksTimestamps(t *testing.T) {
	var _ firesnapshot.HasTimestamps = Document{}
	var _ firesnapshot.HasTimestamps = Page{}
}
