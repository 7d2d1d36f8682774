package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
)

// ExportRepository stores generated quote documents
type ExportRepository interface {
	Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error)
	Delete(ctx context.Context, objectPath string) error
	GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error)
}

// ExportObjectPath returns a unique object key for a quote export,
// e.g. exports/3/D202603007-<uuid>.xlsx
func ExportObjectPath(workspaceID int32, orderNumber string, ext string) string {
	filename := fmt.Sprintf("%s-%s%s", orderNumber, uuid.New().String(), ext)
	return path.Join("exports", fmt.Sprintf("%d", workspaceID), filename)
}
