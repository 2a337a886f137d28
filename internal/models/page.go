package models

import (
	"cloud.google.com/go/firestore"
	"github.com/Lllllllleong/firesnapshot"
)

// Page is a single split page of a Document.
type Page struct {
	firesnapshot.Timestamps

	Document   firesnapshot.Reference[Document] `firestore:"document"`
	PageNumber int                              `firestore:"pageNumber"`
	GCSUri     string                           `firestore:"gcsUri,omitempty"`
	Status     string                           `firestore:"status,omitempty"`
	Tags       []string                         `firestore:"tags,omitempty"`
}

var pageFieldNames = firesnapshot.FieldNames{
	"Document":    "document.ref",
	"DocumentRef": "document.ref",
	"PageNumber":  "pageNumber",
	"GCSUri":      "gcsUri",
	"Status":      "status",
	"Tags":        "tags",
	"UpdateTime":  firesnapshot.UpdateTimeField,
}

// FieldName implements firesnapshot.FieldNameReferable.
func (Page) FieldName(key firesnapshot.FieldKey) (string, bool) {
	return pageFieldNames.Lookup(key)
}

// PageFields are the typed accessors for Page.
var PageFields = struct {
	Document    firesnapshot.ReferenceField[Page, Document]
	DocumentRef firesnapshot.Field[Page, *firestore.DocumentRef]
	PageNumber  firesnapshot.Field[Page, int]
	GCSUri      firesnapshot.Field[Page, string]
	Status      firesnapshot.Field[Page, string]
	Tags        firesnapshot.ArrayField[Page, string]
}{
	Document:    firesnapshot.NewReferenceField("Document", func(p *Page) *firesnapshot.Reference[Document] { return &p.Document }),
	DocumentRef: firesnapshot.NewField("DocumentRef", func(p *Page) **firestore.DocumentRef { return &p.Document.Ref }),
	PageNumber:  firesnapshot.NewField("PageNumber", func(p *Page) *int { return &p.PageNumber }),
	GCSUri:      firesnapshot.NewField("GCSUri", func(p *Page) *string { return &p.GCSUri }),
	Status:      firesnapshot.NewField("Status", func(p *Page) *string { return &p.Status }),
	Tags:        firesnapshot.NewArrayField("Tags", func(p *Page) *[]string { return &p.Tags }),
}
