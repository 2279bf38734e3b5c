package evidence

import (
	"bytes"
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
	"strings"
	"time"
)

// Verifier recomputes digests on every read and compares them against the
// hash ledger. Storage-layer integrity is never trusted on its own: trust
// is re-derived from the independently recorded digest pair, which catches
// silent corruption and out-of-band modification alike.
//
// Verification failures are never retried here. A corrupted read is not
// fixed by re-reading, and an automatic retry would only mask the signal.
type Verifier struct {
	store  BlobStore
	ledger HashLedger
}

// NewVerifier creates a verifier over a store and its ledger.
func NewVerifier(store BlobStore, ledger HashLedger) *Verifier {
	return &Verifier{store: store, ledger: ledger}
}

// digestPair computes MD5 and SHA256 over a single pass of the input.
type digestPair struct {
	md5    hash.Hash
	sha256 hash.Hash
}

func newDigestPair() *digestPair {
	return &digestPair{md5: md5.New(), sha256: sha256.New()}
}

func (d *digestPair) Writer() io.Writer {
	return io.MultiWriter(d.md5, d.sha256)
}

func (d *digestPair) MD5Hex() string {
	return hex.EncodeToString(d.md5.Sum(nil))
}

func (d *digestPair) SHA256Hex() string {
	return hex.EncodeToString(d.sha256.Sum(nil))
}

// check compares computed digests against a ledger record. Hex digests
// compare case-insensitively; both algorithms must match.
func (d *digestPair) check(rec *ObjectRecord) error {
	if actual := d.MD5Hex(); !strings.EqualFold(actual, rec.MD5Hash) {
		return &IntegrityError{
			ObjectKey: rec.ObjectKey,
			VersionID: rec.VersionID,
			Algorithm: AlgorithmMD5,
			Expected:  strings.ToLower(rec.MD5Hash),
			Actual:    actual,
		}
	}
	if actual := d.SHA256Hex(); !strings.EqualFold(actual, rec.SHA256Hash) {
		return &IntegrityError{
			ObjectKey: rec.ObjectKey,
			VersionID: rec.VersionID,
			Algorithm: AlgorithmSHA256,
			Expected:  strings.ToLower(rec.SHA256Hash),
			Actual:    actual,
		}
	}
	return nil
}

// ReadVerified fetches an object fully, hashes it in one pass, and
// compares both digests against the ledger entry for the version the
// store actually returned. The record is resolved before the body is
// consumed, so an un-ledgered object fails without paying for the read.
// The bytes are only handed back after both digests match.
func (v *Verifier) ReadVerified(ctx context.Context, objectKey string) ([]byte, *ObjectRecord, error) {
	rc, versionID, err := v.store.Get(ctx, objectKey)
	if err != nil {
		return nil, nil, err
	}
	defer rc.Close()

	rec, err := v.ledger.Lookup(ctx, objectKey, versionID)
	if err != nil {
		return nil, nil, err
	}

	digests := newDigestPair()
	var buf bytes.Buffer
	if _, err := io.Copy(io.MultiWriter(&buf, digests.Writer()), rc); err != nil {
		return nil, nil, &StoreError{Op: "read", Key: objectKey, Err: err}
	}

	if err := digests.check(rec); err != nil {
		return nil, nil, err
	}
	return buf.Bytes(), rec, nil
}

// OpenVerified streams an object while hashing it, deferring the digest
// comparison to EOF. The ledger entry is resolved up front so a missing
// record fails before any byte is consumed; the final Read returns an
// IntegrityError instead of io.EOF when the digests do not match. Callers
// that need the bytes only after verification should use ReadVerified.
func (v *Verifier) OpenVerified(ctx context.Context, objectKey string) (io.ReadCloser, *ObjectRecord, error) {
	rc, versionID, err := v.store.Get(ctx, objectKey)
	if err != nil {
		return nil, nil, err
	}

	rec, err := v.ledger.Lookup(ctx, objectKey, versionID)
	if err != nil {
		rc.Close()
		return nil, nil, err
	}

	digests := newDigestPair()
	return &verifyReader{
		inner:   rc,
		tee:     io.TeeReader(rc, digests.Writer()),
		digests: digests,
		record:  rec,
	}, rec, nil
}

type verifyReader struct {
	inner   io.ReadCloser
	tee     io.Reader
	digests *digestPair
	record  *ObjectRecord
	checked bool
	failed  error
}

func (r *verifyReader) Read(p []byte) (int, error) {
	if r.failed != nil {
		return 0, r.failed
	}
	n, err := r.tee.Read(p)
	if err == io.EOF && !r.checked {
		r.checked = true
		if verr := r.digests.check(r.record); verr != nil {
			r.failed = verr
			return n, verr
		}
	}
	return n, err
}

// Close closes the underlying stream. If the stream was fully consumed
// the digest comparison has already happened in Read; Close reports a
// failure that Read surfaced, so a copy-then-close caller cannot miss it.
func (r *verifyReader) Close() error {
	err := r.inner.Close()
	if r.failed != nil {
		return r.failed
	}
	return err
}

// VerifyObject streams an object to completion without retaining it,
// checking both digests. Used where only proof of integrity is needed,
// not the content.
func (v *Verifier) VerifyObject(ctx context.Context, objectKey string) (*ObjectRecord, error) {
	rc, rec, err := v.OpenVerified(ctx, objectKey)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(io.Discard, rc); err != nil {
		rc.Close()
		return nil, err
	}
	if err := rc.Close(); err != nil {
		return nil, err
	}
	return rec, nil
}

// recordWrite hashes already-written content metadata into the ledger so
// that a subsequent read of that exact version is verifiable. Called by
// the gateway immediately after a successful write and re-stat.
func (v *Verifier) recordWrite(ctx context.Context, objectKey, versionID string, digests *digestPair, size int64) (*ObjectRecord, error) {
	rec := ObjectRecord{
		ObjectKey:  objectKey,
		VersionID:  versionID,
		MD5Hash:    digests.MD5Hex(),
		SHA256Hash: digests.SHA256Hex(),
		SizeBytes:  size,
		RecordedAt: time.Now().UTC(),
	}
	if err := v.ledger.Record(ctx, rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
