package models

import "time"

// These structs define the JSON payloads for HTTP requests and responses
// handled by the document Cloud Functions.

// DocumentStatusRequest is the input for the document-status function.
type DocumentStatusRequest struct {
	Status       string `json:"status"`
	MinPageCount int    `json:"minPageCount"`
	Limit        int    `json:"limit"`
	StartAfter   string `json:"startAfter"` // Document ID of the last item of the previous page
	Descending   bool   `json:"descending"`
}

// DocumentSummary is one document in a DocumentStatusResponse.
type DocumentSummary struct {
	DocumentID       string     `json:"documentId"`
	Path             string     `json:"path"`
	OriginalFilename string     `json:"originalFilename,omitempty"`
	Status           string     `json:"status"`
	PageCount        int        `json:"pageCount"`
	CreateTime       *time.Time `json:"createTime,omitempty"`
	UpdateTime       *time.Time `json:"updateTime,omitempty"`
}

// DocumentStatusResponse is the output of the document-status function.
type DocumentStatusResponse struct {
	Documents  []DocumentSummary `json:"documents"`
	NextCursor string            `json:"nextCursor,omitempty"`
}

// ArchiveRequest is the payload of the event consumed by the document-archiver function.
type ArchiveRequest struct {
	DocumentID  string `json:"documentId"`
	ExecutionID string `json:"executionId"`
}

// ArchiveResponse is the outcome of archiving one document.
type ArchiveResponse struct {
	Status        string `json:"status"`
	ArchivePath   string `json:"archivePath"`
	PagesArchived int    `json:"pagesArchived"`
	ExportGCSUri  string `json:"exportGcsUri"`
}
