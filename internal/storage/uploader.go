package storage

import (
	"context"
	"fmt"
	"net/url"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// Uploader writes objects to a GCS bucket and returns tokenized public URLs.
type Uploader struct {
	client *storage.Client
	bucket string
}

func NewUploader(ctx context.Context, bucket string) (*Uploader, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &Uploader{client: client, bucket: bucket}, nil
}

func (u *Uploader) Close() error {
	return u.client.Close()
}

func (u *Uploader) Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error) {
	token := uuid.NewString()
	obj := u.client.Bucket(u.bucket).Object(objectPath)
	w := obj.NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = map[string]string{
		"firebaseStorageDownloadTokens": token,
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	escapedPath := url.PathEscape(objectPath)
	publicURL := fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		u.bucket, escapedPath, token)
	return publicURL, nil
}
