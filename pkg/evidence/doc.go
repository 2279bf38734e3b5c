// Package evidence implements the evidentiary content store for case
// documents: deterministic object keys, a persisted hash ledger, a blob
// store gateway, single-pass dual-digest integrity verification, embedded
// asset reference resolution, and export assembly.
//
// Every byte returned by this package has been re-hashed and compared
// against the ledger entry recorded when it was written. A missing ledger
// entry or a digest mismatch is a hard failure; nothing in this package
// retries or degrades to unverified reads.
package evidence
