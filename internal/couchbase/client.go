package couchbase

import (
	"fmt"

	"github.com/couchbase/gocb/v2"
)

// Client represents a Couchbase client that orchestrates all operations
type Client struct {
	connManager *ConnectionManager
	docManager  *DocumentManager
	bucketName  string
}

// NewClient creates a new Couchbase client bound to one bucket
func NewClient(url, username, password, bucketName string) (*Client, error) {
	// Initialize connection manager
	connManager, err := NewConnectionManager(url, username, password, bucketName)
	if err != nil {
		return nil, err
	}

	// Initialize document manager
	docManager := NewDocumentManager(connManager.GetBucket())

	client := &Client{
		connManager: connManager,
		docManager:  docManager,
		bucketName:  bucketName,
	}

	return client, nil
}

// Close closes the Couchbase connection
func (c *Client) Close() error {
	return c.connManager.Close()
}

// UpsertDocument stores or updates a document in Couchbase
func (c *Client) UpsertDocument(docID string, data interface{}) error {
	return c.docManager.UpsertDocument(docID, data)
}

// GetDocument retrieves a document from Couchbase
func (c *Client) GetDocument(docID string, result interface{}) error {
	return c.docManager.GetDocument(docID, result)
}

// DeleteDocument removes a document from Couchbase
func (c *Client) DeleteDocument(docID string) error {
	return c.docManager.DeleteDocument(docID)
}

// Query runs a N1QL statement against the bucket and returns the result
// iterator. The statement may reference the bucket as `b`.
func (c *Client) Query(statement string, params map[string]interface{}) (*gocb.QueryResult, error) {
	full := fmt.Sprintf("SELECT META(b).id AS _id, b.* FROM `%s` b %s", c.bucketName, statement)
	result, err := c.connManager.GetCluster().Query(full, &gocb.QueryOptions{
		NamedParameters: params,
		Adhoc:           true,
	})
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return result, nil
}
