package models

import (
	"time"

	"github.com/Lllllllleong/firesnapshot"
)

// Document statuses shared across services.
const (
	StatusValidating = "VALIDATING"
	StatusSplitting  = "SPLITTING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
	StatusArchived   = "ARCHIVED"
)

// Document represents the main record for a PDF processing job in Firestore.
// It tracks the overall status and metadata of the file.
type Document struct {
	firesnapshot.Timestamps

	FileHash            string    `firestore:"fileHash,omitempty" json:"fileHash,omitempty"`
	OriginalFilename    string    `firestore:"originalFilename,omitempty" json:"originalFilename,omitempty"`
	Status              string    `firestore:"status,omitempty" json:"status,omitempty"`
	ErrorDetails        string    `firestore:"errorDetails,omitempty" json:"errorDetails,omitempty"`
	PageCount           int       `firestore:"pageCount,omitempty" json:"pageCount,omitempty"`
	WorkflowExecutionID string    `firestore:"workflowExecutionId,omitempty" json:"workflowExecutionId,omitempty"` // For traceability
	CreatedAt           time.Time `firestore:"createdAt,omitempty" json:"createdAt,omitempty"`
}

var documentFieldNames = firesnapshot.FieldNames{
	"FileHash":            "fileHash",
	"OriginalFilename":    "originalFilename",
	"Status":              "status",
	"ErrorDetails":        "errorDetails",
	"PageCount":           "pageCount",
	"WorkflowExecutionID": "workflowExecutionId",
	"CreatedAt":           "createdAt",
	"CreateTime":          firesnapshot.CreateTimeField,
	"UpdateTime":          firesnapshot.UpdateTimeField,
}

// FieldName implements firesnapshot.FieldNameReferable.
func (Document) FieldName(key firesnapshot.FieldKey) (string, bool) {
	return documentFieldNames.Lookup(key)
}

// DocumentFields are the typed accessors for Document.
var DocumentFields = struct {
	FileHash            firesnapshot.Field[Document, string]
	OriginalFilename    firesnapshot.Field[Document, string]
	Status              firesnapshot.Field[Document, string]
	ErrorDetails        firesnapshot.Field[Document, string]
	PageCount           firesnapshot.Field[Document, int]
	WorkflowExecutionID firesnapshot.Field[Document, string]
	CreatedAt           firesnapshot.Field[Document, time.Time]
	UpdateTime          firesnapshot.Field[Document, time.Time]
}{
	FileHash:            firesnapshot.NewField("FileHash", func(d *Document) *string { return &d.FileHash }),
	OriginalFilename:    firesnapshot.NewField("OriginalFilename", func(d *Document) *string { return &d.OriginalFilename }),
	Status:              firesnapshot.NewField("Status", func(d *Document) *string { return &d.Status }),
	ErrorDetails:        firesnapshot.NewField("ErrorDetails", func(d *Document) *string { return &d.ErrorDetails }),
	PageCount:           firesnapshot.NewField("PageCount", func(d *Document) *int { return &d.PageCount }),
	WorkflowExecutionID: firesnapshot.NewField("WorkflowExecutionID", func(d *Document) *string { return &d.WorkflowExecutionID }),
	CreatedAt:           firesnapshot.NewField("CreatedAt", func(d *Document) *time.Time { return &d.CreatedAt }),
	UpdateTime:          firesnapshot.NewField("UpdateTime", func(d *Document) *time.Time { return &d.UpdateTime }),
}
