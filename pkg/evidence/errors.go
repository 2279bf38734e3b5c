package evidence

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrBucketNotFound indicates the configured bucket does not exist.
	// Bucket provisioning is a deployment precondition; this package never
	// creates buckets.
	ErrBucketNotFound = errors.New("bucket not found")

	// ErrObjectNotFound indicates no object exists at the requested key.
	ErrObjectNotFound = errors.New("object not found")

	// ErrRecordNotFound indicates no hash ledger entry exists for the
	// (object key, version) pair. This is an integrity failure, not an
	// invitation to serve unverified bytes.
	ErrRecordNotFound = errors.New("hash record not found")

	// ErrIntegrity indicates a recomputed digest did not match the ledger.
	ErrIntegrity = errors.New("integrity verification failed")

	// ErrHashConflict indicates a ledger entry already exists for the same
	// object version with different hashes.
	ErrHashConflict = errors.New("conflicting hashes recorded for object version")

	// ErrUnledgeredObject indicates the upload target already exists in
	// storage but has no ledger entry, so it cannot be legally overwritten.
	ErrUnledgeredObject = errors.New("existing object has no hash record")
)

func errorIsAny(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Digest algorithm names as reported by IntegrityError.
const (
	AlgorithmMD5    = "MD5"
	AlgorithmSHA256 = "SHA256"
)

// IntegrityError reports a digest mismatch for a specific object version.
type IntegrityError struct {
	ObjectKey string
	VersionID string
	Algorithm string // AlgorithmMD5 or AlgorithmSHA256
	Expected  string
	Actual    string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity verification failed for object %s (version %s): %s mismatch: expected %s, got %s",
		e.ObjectKey, e.VersionID, e.Algorithm, e.Expected, e.Actual)
}

func (e *IntegrityError) Unwrap() error {
	return ErrIntegrity
}

// StoreError represents an error from a blob store operation.
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store operation %s failed for key %s: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// LedgerError represents an error from a hash ledger operation.
type LedgerError struct {
	Op        string
	Key       string
	VersionID string
	Err       error
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("ledger operation %s failed for key %s (version %s): %v", e.Op, e.Key, e.VersionID, e.Err)
}

func (e *LedgerError) Unwrap() error {
	return e.Err
}

// ReferenceError represents a failure resolving an embedded asset
// reference inside a document.
type ReferenceError struct {
	DocumentKey string
	AssetName   string
	Err         error
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("reference %q in document %s failed to resolve: %v", e.AssetName, e.DocumentKey, e.Err)
}

func (e *ReferenceError) Unwrap() error {
	return e.Err
}
