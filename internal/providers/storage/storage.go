// Package storage keeps generated artifacts such as daily audit reports.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

var ErrObjectNotFound = errors.New("storage_object_not_found")

// Storage writes objects and hands back a reference that Open understands.
type Storage interface {
	Put(ctx context.Context, name, contentType string, body io.Reader) (string, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	Backend() string
}

// ObjectName builds "<prefix>/<slug>-<short uuid>.<ext>" so reruns for the
// same day never overwrite an earlier artifact.
func ObjectName(prefix, title, ext string) string {
	base := slug.Make(title)
	if base == "" {
		base = "artifact"
	}
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	name := fmt.Sprintf("%s-%s.%s", base, suffix, strings.TrimPrefix(ext, "."))
	if prefix == "" {
		return name
	}
	return path.Join(slug.Make(prefix), name)
}
