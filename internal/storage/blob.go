package storage

import "io"

// BlobStore keeps raw chapter uploads so the exact imported file can be
// served back or re-parsed later. Keys are slash paths like
// "chapters/<id>/source.txt".
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	Delete(key string) error
}
