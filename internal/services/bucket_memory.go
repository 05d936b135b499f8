package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/stonebridgevc/dealdesk-backend/internal/apierr"
	"github.com/stonebridgevc/dealdesk-backend/internal/logger"
)

type memoryObject struct {
	data        []byte
	contentType string
}

// memoryBucketService keeps blobs in process memory. Used when no GCS bucket
// is configured, and by tests.
type memoryBucketService struct {
	mu      sync.RWMutex
	log     *logger.Logger
	objects map[string]memoryObject
}

func NewMemoryBucketService(baseLog *logger.Logger) BucketService {
	return &memoryBucketService{
		log:     baseLog.With("service", "MemoryBucketService"),
		objects: make(map[string]memoryObject),
	}
}

func (bs *memoryBucketService) UploadBytes(ctx context.Context, dealID, filename string, data []byte, contentType string) (string, error) {
	key := blobPath(dealID, filename)
	stored := memoryObject{
		data:        append([]byte(nil), data...),
		contentType: contentType,
	}
	bs.mu.Lock()
	bs.objects[key] = stored
	bs.mu.Unlock()
	return bs.ObjectURL(dealID, filename), nil
}

func (bs *memoryBucketService) DownloadFile(ctx context.Context, dealID, filename string) ([]byte, string, error) {
	key := blobPath(dealID, filename)
	bs.mu.RLock()
	obj, ok := bs.objects[key]
	bs.mu.RUnlock()
	if !ok {
		return nil, "", apierr.NotFound("blob_not_found", fmt.Errorf("object %q not found", key))
	}
	contentType := obj.contentType
	if contentType == "" {
		contentType = fallbackContentType
	}
	return append([]byte(nil), obj.data...), contentType, nil
}

func (bs *memoryBucketService) DeleteFolder(ctx context.Context, dealID string) error {
	prefix := dealID + "/"
	bs.mu.Lock()
	defer bs.mu.Unlock()
	for key := range bs.objects {
		if strings.HasPrefix(key, prefix) {
			delete(bs.objects, key)
		}
	}
	return nil
}

func (bs *memoryBucketService) ObjectURL(dealID, filename string) string {
	return fmt.Sprintf("mem://deals/%s", blobPath(dealID, filename))
}
