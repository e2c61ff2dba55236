// Package storage uploads and deletes avatar objects.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

var ErrObjectNotFound = errors.New("object not found")

// ObjectStorage stores blobs by key.
type ObjectStorage interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
}

// MountMediaURL turns a stored key into a public URL. Absolute URLs, such as
// pictures coming from OAuth providers, are returned unchanged.
func MountMediaURL(cdnURL, ref string) string {
	if ref == "" {
		return ""
	}
	if IsExternal(ref) {
		return ref
	}
	return strings.TrimRight(cdnURL, "/") + "/" + strings.TrimLeft(ref, "/")
}

// IsExternal reports whether ref points outside our bucket.
func IsExternal(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// AvatarKey builds a fresh object key for a user's avatar, keeping the upload's extension.
func AvatarKey(userID uuid.UUID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return "users/" + userID.String() + "/avatar-" + uuid.NewString() + ext
}
