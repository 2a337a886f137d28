package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/firesnapshot/internal/models"
	"github.com/Lllllllleong/firesnapshot/internal/services"
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

var (
	archiverInstance *services.ArchiverFunction
	once             sync.Once
	initErr          error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.CloudEvent("ArchiveDocument", archiveDocument)
}

// main is required by the Go Functions Framework.
func main() {}

// archiveDocument is the Cloud Function entry point.
func archiveDocument(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		archiverInstance, initErr = services.NewArchiver(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var req models.ArchiveRequest
	if err := json.Unmarshal(e.Data(), &req); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	res, err := archiverInstance.Process(ctx, &req)
	if err != nil {
		// Returning the error marks the invocation as failed so the event is retried.
		return err
	}
	slog.Info("Archived document.", "eventId", e.ID(), "archivePath", res.ArchivePath)
	return nil
}
