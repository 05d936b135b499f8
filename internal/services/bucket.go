package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/stonebridgevc/dealdesk-backend/internal/apierr"
	"github.com/stonebridgevc/dealdesk-backend/internal/logger"
)

const fallbackContentType = "application/octet-stream"

// BucketService is the blob store capability. Objects live under
// {dealID}/{filename}.
type BucketService interface {
	UploadBytes(ctx context.Context, dealID, filename string, data []byte, contentType string) (string, error)
	DownloadFile(ctx context.Context, dealID, filename string) ([]byte, string, error)
	DeleteFolder(ctx context.Context, dealID string) error
	ObjectURL(dealID, filename string) string
}

type bucketService struct {
	log           *logger.Logger
	storageClient *storage.Client
	bucketName    string
}

func NewBucketService(log *logger.Logger) (BucketService, error) {
	serviceLog := log.With("service", "BucketService")
	bucket := os.Getenv("GCS_BUCKET_NAME")
	if bucket == "" {
		return nil, fmt.Errorf("missing env var GCS_BUCKET_NAME")
	}
	saPath := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON")
	if saPath == "" {
		serviceLog.Warn("GOOGLE_APPLICATION_CREDENTIALS_JSON not set, storage client will rely on ADC")
	}
	ctx := context.Background()
	var stClient *storage.Client
	var err error
	if saPath != "" {
		stClient, err = storage.NewClient(ctx, option.WithCredentialsFile(saPath), option.WithScopes(storage.ScopeReadWrite))
	} else {
		stClient, err = storage.NewClient(ctx, option.WithScopes(storage.ScopeReadWrite))
	}
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &bucketService{
		log:           serviceLog,
		storageClient: stClient,
		bucketName:    bucket,
	}, nil
}

func (bs *bucketService) UploadBytes(ctx context.Context, dealID, filename string, data []byte, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	key := blobPath(dealID, filename)
	w := bs.storageClient.Bucket(bs.bucketName).Object(key).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close GCS writer: %w", err)
	}
	return bs.ObjectURL(dealID, filename), nil
}

func (bs *bucketService) DownloadFile(ctx context.Context, dealID, filename string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	key := blobPath(dealID, filename)
	obj := bs.storageClient.Bucket(bs.bucketName).Object(key)
	attrs, err := obj.Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, "", apierr.NotFound("blob_not_found", fmt.Errorf("object %q not found", key))
		}
		return nil, "", fmt.Errorf("stat GCS object %q: %w", key, err)
	}
	reader, err := obj.NewReader(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("open GCS object %q: %w", key, err)
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, "", fmt.Errorf("read GCS object %q: %w", key, err)
	}
	contentType := attrs.ContentType
	if contentType == "" {
		contentType = fallbackContentType
	}
	return data, contentType, nil
}

// DeleteFolder removes every object under the deal's prefix. Per-object
// failures are collected but already-gone objects are not errors.
func (bs *bucketService) DeleteFolder(ctx context.Context, dealID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()
	prefix := dealID + "/"
	bucket := bs.storageClient.Bucket(bs.bucketName)
	it := bucket.Objects(ctx, &storage.Query{Prefix: prefix})

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return fmt.Errorf("list GCS prefix %q: %w", prefix, err)
		}
		name := attrs.Name
		g.Go(func() error {
			if err := bucket.Object(name).Delete(gctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
				return fmt.Errorf("delete GCS object %q: %w", name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (bs *bucketService) ObjectURL(dealID, filename string) string {
	return fmt.Sprintf("gs://%s/%s", bs.bucketName, blobPath(dealID, filename))
}

func blobPath(dealID, filename string) string {
	return fmt.Sprintf("%s/%s", dealID, filename)
}
