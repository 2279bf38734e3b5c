// Package memory provides a versioned in-memory blob store for tests and
// development. Every Put is assigned a fresh version ID; Get and Head
// report the latest version. Corrupt mutates stored bytes in place without
// changing the version, which is exactly the failure mode the integrity
// verifier exists to catch.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/casetrail/casetrail/pkg/evidence"
)

type object struct {
	data      []byte
	versionID string
	updatedAt time.Time
}

// Backend is a versioned in-memory implementation of evidence.BlobStore.
type Backend struct {
	mu           sync.RWMutex
	objects      map[string]*object
	bucketAbsent bool
}

// New creates a new in-memory blob store with an existing bucket.
func New() *Backend {
	return &Backend{
		objects: make(map[string]*object),
	}
}

// NewUnprovisioned creates a store whose bucket does not exist, for
// exercising the deployment-precondition failure path.
func NewUnprovisioned() *Backend {
	b := New()
	b.bucketAbsent = true
	return b
}

// BucketExists reports whether the bucket exists.
func (b *Backend) BucketExists(ctx context.Context) error {
	if b.bucketAbsent {
		return evidence.ErrBucketNotFound
	}
	return nil
}

// Head retrieves metadata for the latest version of an object.
func (b *Backend) Head(ctx context.Context, objectKey string) (*evidence.ObjectMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[objectKey]
	if !exists {
		return nil, &evidence.StoreError{Op: "head", Key: objectKey, Err: evidence.ErrObjectNotFound}
	}
	return &evidence.ObjectMeta{
		Key:       objectKey,
		VersionID: obj.versionID,
		Size:      int64(len(obj.data)),
		UpdatedAt: obj.updatedAt,
	}, nil
}

// Put writes an object and returns the version ID assigned to the write.
func (b *Backend) Put(ctx context.Context, objectKey string, reader io.Reader) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", &evidence.StoreError{Op: "put", Key: objectKey, Err: err}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	versionID := uuid.NewString()
	b.objects[objectKey] = &object{
		data:      data,
		versionID: versionID,
		updatedAt: time.Now().UTC(),
	}
	return versionID, nil
}

// Get opens the latest version of an object for reading.
func (b *Backend) Get(ctx context.Context, objectKey string) (io.ReadCloser, string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[objectKey]
	if !exists {
		return nil, "", &evidence.StoreError{Op: "get", Key: objectKey, Err: evidence.ErrObjectNotFound}
	}
	data := make([]byte, len(obj.data))
	copy(data, obj.data)
	return io.NopCloser(bytes.NewReader(data)), obj.versionID, nil
}

// PresignGet returns a synthetic time-bounded URL. The scheme makes these
// URLs unmistakably non-routable outside tests.
func (b *Backend) PresignGet(ctx context.Context, objectKey string, ttl time.Duration) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if _, exists := b.objects[objectKey]; !exists {
		return "", &evidence.StoreError{Op: "presign", Key: objectKey, Err: evidence.ErrObjectNotFound}
	}
	expires := time.Now().UTC().Add(ttl).Unix()
	return fmt.Sprintf("memory:///%s?expires=%d", url.PathEscape(objectKey), expires), nil
}

// Corrupt overwrites the stored bytes of an object without assigning a
// new version. Returns false when the object does not exist.
func (b *Backend) Corrupt(objectKey string, data []byte) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	obj, exists := b.objects[objectKey]
	if !exists {
		return false
	}
	obj.data = append([]byte(nil), data...)
	return true
}

// Remove deletes an object outside the gateway path, simulating
// out-of-band tampering with the store.
func (b *Backend) Remove(objectKey string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, objectKey)
}

// Exists reports whether any object is stored at objectKey.
func (b *Backend) Exists(objectKey string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, exists := b.objects[objectKey]
	return exists
}

// Keys returns all stored object keys. Test helper.
func (b *Backend) Keys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]string, 0, len(b.objects))
	for k := range b.objects {
		keys = append(keys, k)
	}
	return keys
}
