// Package storage keeps uploaded images (post pictures and avatars) on
// local disk or in an S3-compatible bucket. Records in the database hold
// only the object key; URL turns a key into something a browser can load.
package storage

import (
	"context"
	"io"
	"path"

	"github.com/google/uuid"
)

// ImageStore saves and serves uploaded images.
type ImageStore interface {
	// Save writes the image under a fresh key inside dir and returns the key.
	Save(ctx context.Context, dir, contentType string, body io.Reader, size int64) (string, error)
	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// URL returns the public URL of the object.
	URL(key string) string
}

// imageExtensions maps the image types accepted for upload to the file
// extension used in their keys.
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// Supported reports whether images of this content type can be stored.
func Supported(contentType string) bool {
	_, ok := imageExtensions[contentType]
	return ok
}

// NewKey returns a unique object key in dir for an image of contentType,
// for example "posts/0b9e....png".
func NewKey(dir, contentType string) string {
	return path.Join(dir, uuid.NewString()+imageExtensions[contentType])
}
