package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	"github.com/Lllllllleong/firesnapshot"
	"github.com/Lllllllleong/firesnapshot/internal/gcp"
	"github.com/Lllllllleong/firesnapshot/internal/models"
)

const maxStatusPageSize = 100

// StatusConfig holds configuration for the document-status service.
type StatusConfig struct {
	ProjectID       string
	DatabaseID      string
	CollectionName  string
	DefaultPageSize int
}

// StatusFunction lists processing documents through typed queries.
type StatusFunction struct {
	store  *gcp.Store
	config StatusConfig
}

func loadStatusConfig() (*StatusConfig, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}

	return &StatusConfig{
		ProjectID:       projectID,
		DatabaseID:      gcp.GetEnv("FIRESTORE_DATABASE", ""),
		CollectionName:  gcp.GetEnv("FIRESTORE_COLLECTION", "documents"),
		DefaultPageSize: gcp.GetEnvInt("DEFAULT_PAGE_SIZE", 20),
	}, nil
}

// NewStatusLister creates a new StatusFunction instance.
func NewStatusLister(ctx context.Context) (*StatusFunction, error) {
	config, err := loadStatusConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	client, err := gcp.NewFirestoreClient(ctx, config.ProjectID, config.DatabaseID)
	if err != nil {
		return nil, err
	}

	slog.Info("Document status lister initialized.", "collection", config.CollectionName)
	return &StatusFunction{
		store:  gcp.NewStore(client),
		config: *config,
	}, nil
}

// Process runs the listing described by req.
func (f *StatusFunction) Process(ctx context.Context, req *models.DocumentStatusRequest) (*models.DocumentStatusResponse, error) {
	logCtx := slog.With("status", req.Status, "startAfter", req.StartAfter)
	logCtx.Info("Listing documents.")

	documents := f.collection()

	var cursor *firestore.DocumentSnapshot
	if req.StartAfter != "" {
		snap, err := gcp.Get(ctx, f.store, documents.Doc(req.StartAfter))
		if err != nil {
			if errors.Is(err, firesnapshot.ErrNotExist) {
				logCtx.Warn("Cursor document not found, listing from the start.")
			} else {
				logCtx.Error("Failed to load cursor document", "error", err)
				return nil, fmt.Errorf("failed to load cursor document: %w", err)
			}
		} else if doc, ok := snap.Document(); ok {
			cursor = doc
		}
	}

	builder := f.buildQuery(req, documents.Query(f.store.Client()), cursor)
	if err := builder.Err(); err != nil {
		logCtx.Warn("Query was built with dropped clauses.", "error", err)
	}

	snaps, err := gcp.Documents[models.Document](ctx, f.store, builder.Generate())
	if err != nil {
		logCtx.Error("Failed to query documents", "error", err)
		return nil, err
	}

	resp := &models.DocumentStatusResponse{Documents: make([]models.DocumentSummary, 0, len(snaps))}
	for _, snap := range snaps {
		resp.Documents = append(resp.Documents, summarize(snap))
	}
	if n := len(snaps); n > 0 && n == f.pageSize(req) {
		resp.NextCursor = snaps[n-1].Path().ID()
	}

	logCtx.Info("Listing complete.", "documentCount", len(resp.Documents))
	return resp, nil
}

func (f *StatusFunction) collection() firesnapshot.CollectionPath[models.Document] {
	return firesnapshot.NewCollectionPath[models.Document](f.config.CollectionName)
}

func (f *StatusFunction) pageSize(req *models.DocumentStatusRequest) int {
	size := req.Limit
	if size <= 0 {
		size = f.config.DefaultPageSize
	}
	if size <= 0 || size > maxStatusPageSize {
		size = maxStatusPageSize
	}
	return size
}

func (f *StatusFunction) buildQuery(req *models.DocumentStatusRequest, base firestore.Query, cursor *firestore.DocumentSnapshot) *firesnapshot.QueryBuilder[models.Document] {
	dir := firestore.Asc
	if req.Descending {
		dir = firestore.Desc
	}

	b := firesnapshot.NewQueryBuilder[models.Document](base)
	if req.Status != "" {
		b.Where(models.DocumentFields.Status.Equal(req.Status))
	}
	if req.MinPageCount > 0 {
		// Range filters require the first ordering to be on the same field.
		b.Where(models.DocumentFields.PageCount.GreaterThanOrEqual(req.MinPageCount)).
			OrderBy(models.DocumentFields.PageCount, dir)
	}
	b.OrderBy(models.DocumentFields.UpdateTime, dir).Limit(f.pageSize(req))
	if cursor != nil {
		b.StartAfter(cursor)
	}
	return b
}

func summarize(snap *firesnapshot.Snapshot[models.Document]) models.DocumentSummary {
	summary := models.DocumentSummary{
		DocumentID:       snap.Path().ID(),
		Path:             snap.Path().String(),
		OriginalFilename: snap.Data.OriginalFilename,
		Status:           snap.Data.Status,
		PageCount:        snap.Data.PageCount,
	}
	if t, ok := snap.CreateTime(); ok {
		summary.CreateTime = &t
	}
	if t, ok := snap.UpdateTime(); ok {
		summary.UpdateTime = &t
	}
	return summary
}
