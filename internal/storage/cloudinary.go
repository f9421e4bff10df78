package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

// CloudinaryStore uploads images to Cloudinary
type CloudinaryStore struct {
	client *cloudinary.Cloudinary
	folder string
}

// Ensure CloudinaryStore implements ImageStore
var _ ImageStore = (*CloudinaryStore)(nil)

// NewCloudinaryStore creates an image store from a CLOUDINARY_URL-style DSN
func NewCloudinaryStore(cloudinaryURL, folder string) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to configure cloudinary: %w", err)
	}
	if folder == "" {
		folder = "onsekiz"
	}
	return &CloudinaryStore{client: cld, folder: folder}, nil
}

// Upload sends the image bytes to Cloudinary and returns the hosted URL
func (s *CloudinaryStore) Upload(ctx context.Context, r io.Reader, userID string) (*UploadResult, error) {
	publicID := fmt.Sprintf("%s_%s", userID, uuid.New().String())

	result, err := s.client.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder:         s.folder,
		PublicID:       publicID,
		Transformation: "c_limit,w_1080,q_auto",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	return &UploadResult{
		PublicID: result.PublicID,
		URL:      result.SecureURL,
		Size:     int64(result.Bytes),
	}, nil
}

// Delete removes a hosted image by its public ID
func (s *CloudinaryStore) Delete(ctx context.Context, publicID string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := s.client.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// PublicIDFromURL derives the storage public ID from a hosted image URL.
// Cloudinary delivery URLs look like
// .../image/upload/v12345/<folder>/<id>.<ext>; the public ID is the
// folder-qualified path without the version prefix or extension.
func PublicIDFromURL(rawURL string) string {
	const marker = "/upload/"
	idx := strings.Index(rawURL, marker)
	if idx < 0 {
		return ""
	}
	rest := rawURL[idx+len(marker):]

	// Drop the version segment if present (v followed by digits)
	if slash := strings.IndexByte(rest, '/'); slash > 1 && rest[0] == 'v' {
		allDigits := true
		for _, ch := range rest[1:slash] {
			if ch < '0' || ch > '9' {
				allDigits = false
				break
			}
		}
		if allDigits {
			rest = rest[slash+1:]
		}
	}

	ext := path.Ext(rest)
	return strings.TrimSuffix(rest, ext)
}
