package service

import (
	"bytes"
	"context"
	"path"

	"opc_crm_backend/internal/adapters/storage"
)

// Archiver keeps a copy of every upload.
type Archiver interface {
	Archive(ctx context.Context, batchID, fileName, contentType string, data []byte) (string, error)
}

// ObjectArchiver stores uploads under imports/<batch id>/<file name>.
type ObjectArchiver struct {
	store  storage.ObjectStore
	bucket string
}

func NewObjectArchiver(store storage.ObjectStore, bucket string) *ObjectArchiver {
	return &ObjectArchiver{store: store, bucket: bucket}
}

func (a *ObjectArchiver) Archive(ctx context.Context, batchID, fileName, contentType string, data []byte) (string, error) {
	key := path.Join("imports", batchID, storage.SafeName(fileName))
	return a.store.PutObject(ctx, a.bucket, key, contentType, bytes.NewReader(data), int64(len(data)))
}
