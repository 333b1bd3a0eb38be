package couchbase

import (
	"errors"
	"fmt"

	"github.com/couchbase/gocb/v2"
)

// ErrDocumentNotFound is returned when a requested document does not exist.
var ErrDocumentNotFound = errors.New("document not found")

// DocumentManager handles document CRUD operations
type DocumentManager struct {
	bucket *gocb.Bucket
}

// NewDocumentManager creates a new document manager
func NewDocumentManager(bucket *gocb.Bucket) *DocumentManager {
	return &DocumentManager{
		bucket: bucket,
	}
}

// UpsertDocument stores or updates a document
func (dm *DocumentManager) UpsertDocument(docID string, data interface{}) error {
	col := dm.bucket.DefaultCollection()

	_, err := col.Upsert(docID, data, &gocb.UpsertOptions{})
	if err != nil {
		return fmt.Errorf("failed to upsert document %s: %w", docID, err)
	}

	return nil
}

// GetDocument retrieves a document into result. Missing documents yield
// ErrDocumentNotFound.
func (dm *DocumentManager) GetDocument(docID string, result interface{}) error {
	col := dm.bucket.DefaultCollection()

	resultDoc, err := col.Get(docID, &gocb.GetOptions{})
	if err != nil {
		if errors.Is(err, gocb.ErrDocumentNotFound) {
			return ErrDocumentNotFound
		}
		return fmt.Errorf("failed to get document %s: %w", docID, err)
	}

	err = resultDoc.Content(result)
	if err != nil {
		return fmt.Errorf("failed to parse document content: %w", err)
	}

	return nil
}

// DeleteDocument removes a document. Missing documents yield
// ErrDocumentNotFound.
func (dm *DocumentManager) DeleteDocument(docID string) error {
	col := dm.bucket.DefaultCollection()

	_, err := col.Remove(docID, &gocb.RemoveOptions{})
	if err != nil {
		if errors.Is(err, gocb.ErrDocumentNotFound) {
			return ErrDocumentNotFound
		}
		return fmt.Errorf("failed to delete document %s: %w", docID, err)
	}

	return nil
}
