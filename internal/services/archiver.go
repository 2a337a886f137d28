package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/firesnapshot"
	"github.com/Lllllllleong/firesnapshot/internal/gcp"
	"github.com/Lllllllleong/firesnapshot/internal/models"
	"golang.org/x/sync/errgroup"
)

const archiveConcurrency = 10

// ArchiverConfig holds configuration for the document-archiver service.
type ArchiverConfig struct {
	ProjectID         string
	DatabaseID        string
	CollectionName    string
	PagesCollection   string
	ArchiveCollection string
	ArchiveBucket     string
}

// ArchiverFunction copies a finished document and its pages into the archive.
type ArchiverFunction struct {
	store         *gcp.Store
	storageClient *storage.Client
	config        ArchiverConfig
}

// NewArchiver creates a new ArchiverFunction instance.
func NewArchiver(ctx context.Context) (*ArchiverFunction, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}

	config := ArchiverConfig{
		ProjectID:         projectID,
		DatabaseID:        gcp.GetEnv("FIRESTORE_DATABASE", ""),
		CollectionName:    gcp.GetEnv("FIRESTORE_COLLECTION", "documents"),
		PagesCollection:   gcp.GetEnv("PAGES_COLLECTION", "pages"),
		ArchiveCollection: gcp.GetEnv("ARCHIVE_COLLECTION", "archive"),
		ArchiveBucket:     gcp.GetEnv("ARCHIVE_BUCKET", ""),
	}
	if config.ArchiveBucket == "" {
		return nil, fmt.Errorf("ARCHIVE_BUCKET environment variable must be set")
	}

	client, err := gcp.NewFirestoreClient(ctx, config.ProjectID, config.DatabaseID)
	if err != nil {
		return nil, err
	}
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	slog.Info("Document archiver initialized.", "archiveCollection", config.ArchiveCollection)
	return &ArchiverFunction{
		store:         gcp.NewStore(client),
		storageClient: storageClient,
		config:        config,
	}, nil
}

// Process archives the document named in req. Rerunning it for a document
// that was already archived is safe.
func (f *ArchiverFunction) Process(ctx context.Context, req *models.ArchiveRequest) (*models.ArchiveResponse, error) {
	logCtx := slog.With("documentId", req.DocumentID, "executionId", req.ExecutionID)
	logCtx.Info("Starting archive.")

	if req.DocumentID == "" {
		return nil, fmt.Errorf("documentId must be provided")
	}

	// --- 1. Load the source document ---
	source, err := gcp.Get(ctx, f.store, f.documentPath(req.DocumentID))
	if err != nil {
		logCtx.Error("Failed to load document", "error", err)
		return nil, err
	}

	// --- 2. Copy it into the archive collection ---
	archived, err := f.archiveCopy(source)
	if err != nil {
		logCtx.Error("Failed to replicate document", "error", err)
		return nil, err
	}
	if err := gcp.Create(ctx, f.store, archived); err != nil {
		if !errors.Is(err, gcp.ErrAlreadyExists) {
			logCtx.Error("Failed to create archived document", "error", err)
			return nil, err
		}
		logCtx.Info("Archived document already exists. Continuing.", "archivePath", archived.Path().String())
	}

	// --- 3. Copy its pages ---
	pages, err := gcp.Documents[models.Page](ctx, f.store, f.pagesQuery(source.Reference()).Generate())
	if err != nil {
		logCtx.Error("Failed to query pages", "error", err)
		return nil, err
	}
	pageCount, err := f.archivePages(ctx, logCtx, archived, pages)
	if err != nil {
		return nil, err
	}

	// --- 4. Export the archived record to GCS ---
	exportURI, err := f.export(ctx, archived)
	if err != nil {
		logCtx.Error("Failed to export archived document", "error", err)
		return nil, err
	}

	// --- 5. Mark the source as archived ---
	firesnapshot.SetValue(source, models.DocumentFields.Status, models.StatusArchived)
	if err := gcp.Save(ctx, f.store, source); err != nil {
		logCtx.Error("Failed to update source status", "error", err)
		return nil, err
	}

	logCtx.Info("Archive complete.", "pagesArchived", pageCount, "exportGcsUri", exportURI)
	return &models.ArchiveResponse{
		Status:        "success",
		ArchivePath:   archived.Path().String(),
		PagesArchived: pageCount,
		ExportGCSUri:  exportURI,
	}, nil
}

func (f *ArchiverFunction) documentPath(id string) firesnapshot.DocumentPath[models.Document] {
	return firesnapshot.NewCollectionPath[models.Document](f.config.CollectionName).Doc(id)
}

func (f *ArchiverFunction) archivePath(id string) firesnapshot.DocumentPath[models.Document] {
	return firesnapshot.NewCollectionPath[models.Document](f.config.ArchiveCollection).Doc(id)
}

func (f *ArchiverFunction) archivePagesCollection(archived *firesnapshot.Snapshot[models.Document]) firesnapshot.CollectionPath[models.Page] {
	return firesnapshot.NewCollectionPath[models.Page](archived.Path().String() + "/" + f.config.PagesCollection)
}

// archiveCopy returns a detached copy of source bound to its archive location.
func (f *ArchiverFunction) archiveCopy(source *firesnapshot.Snapshot[models.Document]) (*firesnapshot.Snapshot[models.Document], error) {
	archived, err := source.ReplicatedAt(f.store.Codec(), f.archivePath(source.Path().ID()))
	if err != nil {
		return nil, err
	}
	firesnapshot.SetValue(archived, models.DocumentFields.Status, models.StatusArchived)
	return archived, nil
}

func (f *ArchiverFunction) pagesQuery(document *firestore.DocumentRef) *firesnapshot.QueryBuilder[models.Page] {
	pages := firesnapshot.NewCollectionPath[models.Page](f.config.PagesCollection)
	return firesnapshot.NewQueryBuilder[models.Page](pages.Query(f.store.Client())).
		Where(models.PageFields.DocumentRef.Equal(document)).
		OrderBy(models.PageFields.PageNumber, firestore.Asc)
}

// archivePages copies pages under the archived document and points each copy at it.
func (f *ArchiverFunction) archivePages(ctx context.Context, logCtx *slog.Logger, archived *firesnapshot.Snapshot[models.Document], pages []*firesnapshot.Snapshot[models.Page]) (int, error) {
	logCtx.Info("Archiving pages.", "pageCount", len(pages))
	target := f.archivePagesCollection(archived)

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(archiveConcurrency)
	for _, page := range pages {
		eg.Go(func() error {
			copied, err := f.archivedPage(archived, target, page)
			if err != nil {
				return err
			}
			if err := gcp.Create(gctx, f.store, copied); err != nil && !errors.Is(err, gcp.ErrAlreadyExists) {
				return fmt.Errorf("page %d: %w", copied.Data.PageNumber, err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		logCtx.Error("One or more pages failed to archive", "error", err)
		return 0, err
	}
	return len(pages), nil
}

// archivedPage returns a detached copy of page stored under target whose
// document reference points at archived. page is left as it was.
func (f *ArchiverFunction) archivedPage(archived *firesnapshot.Snapshot[models.Document], target firesnapshot.CollectionPath[models.Page], page *firesnapshot.Snapshot[models.Page]) (*firesnapshot.Snapshot[models.Page], error) {
	copied, err := page.ReplicatedAt(f.store.Codec(), target.Doc(page.Path().ID()))
	if err != nil {
		return nil, err
	}
	firesnapshot.ReferenceOf(copied, models.PageFields.Document).Retarget(archived.Reference())
	return copied, nil
}

func (f *ArchiverFunction) export(ctx context.Context, archived *firesnapshot.Snapshot[models.Document]) (string, error) {
	content, err := f.store.Codec().Marshal(archived.Data)
	if err != nil {
		return "", fmt.Errorf("failed to encode export: %w", err)
	}
	objectName := fmt.Sprintf("%s.json", archived.Path().String())
	bucket := f.storageClient.Bucket(f.config.ArchiveBucket)
	if err := gcp.SaveToGCSAtomically(ctx, bucket, objectName, "application/json", content); err != nil {
		return "", err
	}
	return fmt.Sprintf("gs://%s/%s", f.config.ArchiveBucket, objectName), nil
}
