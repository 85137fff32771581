// Package models defines the documents, editor sessions and callback
// records exchanged between the blob store, the editor and the journal.
package models

import "time"

// Properties are the store-reported attributes of a document.
type Properties struct {
	ContentLength int64     `json:"contentLength"`
	ContentType   string    `json:"contentType,omitempty"`
	CacheControl  string    `json:"cacheControl,omitempty"`
	LastModified  time.Time `json:"lastModified"`
	ETag          string    `json:"etag,omitempty"`
}

// Metadata describes one stored document. Names ending in _v<N>.<ext>
// are historical snapshots.
type Metadata struct {
	Name       string            `json:"name"`
	Properties Properties        `json:"properties"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}
