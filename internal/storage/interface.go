package storage

import (
	"context"
	"io"
)

// UploadResult contains the result of an image upload
type UploadResult struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
}

// ImageStore is the external image-hosting collaborator.
// The interface allows for easy mocking in tests.
type ImageStore interface {
	Upload(ctx context.Context, r io.Reader, userID string) (*UploadResult, error)
	Delete(ctx context.Context, publicID string) error
}
