// Package generated stores legal documents drafted from recommendations so
// they can be listed and downloaded again.
package generated

import "time"

// Document is a stored generated document.
type Document struct {
	ID               string    `json:"id"`
	UserID           string    `json:"-"`
	DocumentID       string    `json:"documentId"`
	RecommendationID string    `json:"recommendationId"`
	Title            string    `json:"title"`
	FileName         string    `json:"fileName"`
	MimeType         string    `json:"mimeType"`
	SizeBytes        int64     `json:"sizeBytes"`
	StorageKey       string    `json:"-"`
	CreatedAt        time.Time `json:"createdAt"`
}
