package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
)

const ContentTypeJSON = "application/json"

// UploadResult describes one stored object.
type UploadResult struct {
	Key      string `json:"key"`
	Location string `json:"location"`
	ETag     string `json:"etag,omitempty"`
}

// FileUploader is the object store behind the tournament archive.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)
	Delete(ctx context.Context, key string) error
	GetPublicURL(key string) string
}

// UploadJSON marshals v and stores it under key.
func UploadJSON(ctx context.Context, u FileUploader, key string, v any) (*UploadResult, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", key, err)
	}
	return u.Upload(ctx, key, ContentTypeJSON, bytes.NewReader(body))
}
