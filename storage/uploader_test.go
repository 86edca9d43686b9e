package storage

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureUploader struct {
	key, contentType string
	body             []byte
}

func (c *captureUploader) Upload(_ context.Context, key, contentType string, r io.Reader) (*UploadResult, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	c.key, c.contentType, c.body = key, contentType, b
	return &UploadResult{Key: key, Location: c.GetPublicURL(key)}, nil
}

func (c *captureUploader) Delete(context.Context, string) error { return nil }

func (c *captureUploader) GetPublicURL(key string) string { return "https://cdn.test/" + key }

func TestUploadJSON(t *testing.T) {
	up := &captureUploader{}
	res, err := UploadJSON(context.Background(), up, "archive/x.json", map[string]int{"round": 2})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/archive/x.json", res.Location)
	assert.Equal(t, ContentTypeJSON, up.contentType)
	assert.JSONEq(t, `{"round":2}`, string(up.body))

	_, err = UploadJSON(context.Background(), up, "bad.json", make(chan int))
	assert.ErrorContains(t, err, "bad.json")
}
