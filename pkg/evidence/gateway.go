package evidence

import (
	"context"
	"io"
	"time"
)

// Blob store gateway: the only path through which blobs are written or
// read. Every write ends with a ledger record for the version the store
// assigned, and every read goes through the verifier, so a blob without a
// matching ledger entry is unreachable through this API.

// EnsureBucket verifies the configured bucket exists. Bucket provisioning
// is a deployment concern; a missing bucket is a configuration error, not
// something to repair at runtime.
func (s *service) EnsureBucket(ctx context.Context) error {
	return s.store.BucketExists(ctx)
}

// Upsert writes content at objectKey.
//
// New key: write, re-stat for the assigned version ID, and record the
// hashes computed during the upload pass. Existing key: the current
// version must first verify against the ledger; an existing object with
// no ledger entry was written outside this subsystem and is never
// silently overwritten.
func (s *service) Upsert(ctx context.Context, objectKey string, content io.Reader) (UpsertOutcome, *ObjectRecord, error) {
	outcome := UpsertCreated

	_, err := s.store.Head(ctx, objectKey)
	switch {
	case err == nil:
		if _, verr := s.verifier.VerifyObject(ctx, objectKey); verr != nil {
			if isNotFound(verr) {
				return "", nil, &StoreError{Op: "upsert", Key: objectKey, Err: ErrUnledgeredObject}
			}
			return "", nil, verr
		}
		outcome = UpsertVerified
	case isNotFound(err):
		// no existing object, plain create
	default:
		return "", nil, err
	}

	digests := newDigestPair()
	counter := &countingReader{inner: io.TeeReader(content, digests.Writer())}
	if _, err := s.store.Put(ctx, objectKey, counter); err != nil {
		return "", nil, err
	}

	// Re-stat for the authoritative version ID of the write just made.
	meta, err := s.store.Head(ctx, objectKey)
	if err != nil {
		return "", nil, err
	}

	rec, err := s.verifier.recordWrite(ctx, objectKey, meta.VersionID, digests, counter.n)
	if err != nil {
		return "", nil, err
	}
	return outcome, rec, nil
}

// Fetch returns the verified bytes at objectKey.
func (s *service) Fetch(ctx context.Context, objectKey string) ([]byte, *ObjectRecord, error) {
	return s.verifier.ReadVerified(ctx, objectKey)
}

// Presign returns a time-bounded read URL for objectKey.
func (s *service) Presign(ctx context.Context, objectKey string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.presignTTL
	}
	return s.store.PresignGet(ctx, objectKey, ttl)
}

// PresignTTL reports the configured validity window for presigned URLs.
func (s *service) PresignTTL() time.Duration {
	return s.presignTTL
}

type countingReader struct {
	inner io.Reader
	n     int64
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.inner.Read(p)
	r.n += int64(n)
	return n, err
}

func isNotFound(err error) bool {
	return errorIsAny(err, ErrObjectNotFound, ErrRecordNotFound)
}
