package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmorgan81/imagegen/internal/log"
)

type UploadParams struct {
	Name        string
	Data        []byte
	ContentType string
	Metadata    map[string]string
}

type Uploader interface {
	Upload(context.Context, UploadParams) error
}

// FileUploader writes into a local directory, creating it if needed.
type FileUploader struct {
	Dir string
}

func (u *FileUploader) Upload(ctx context.Context, params UploadParams) error {
	path := filepath.Join(u.Dir, filepath.Base(params.Name))
	log.FromContextOrDiscard(ctx).WithGroup("file").Info("writing", "file", path)

	if u.Dir != "" {
		if err := os.MkdirAll(u.Dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", u.Dir, err)
		}
	}
	return os.WriteFile(path, params.Data, 0o644)
}

// NewUploader picks S3 for s3://bucket[/prefix] destinations and a local
// directory otherwise. client is only used for S3.
func NewUploader(dest string, client PutObjectAPI) (Uploader, error) {
	rest, ok := strings.CutPrefix(dest, "s3://")
	if !ok {
		return &FileUploader{Dir: dest}, nil
	}
	bucket, prefix, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return nil, fmt.Errorf("no bucket in %q", dest)
	}
	if client == nil {
		return nil, fmt.Errorf("no s3 client for %q", dest)
	}
	return &S3Uploader{Client: client, Bucket: bucket, Prefix: prefix}, nil
}
