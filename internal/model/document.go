package model

import (
	"time"

	"github.com/docker/go-units"
)

// DocumentType classifies a document by its source filename extension.
type DocumentType string

const (
	DocumentTypePDF   DocumentType = "pdf"
	DocumentTypeImage DocumentType = "image"
	DocumentTypeNote  DocumentType = "note"
	DocumentTypeOther DocumentType = "other"
)

// DocumentTypes lists every known type in display order.
var DocumentTypes = []DocumentType{
	DocumentTypePDF,
	DocumentTypeImage,
	DocumentTypeNote,
	DocumentTypeOther,
}

// Document is a file attached to a trip and kept available offline.
// Content is excluded from JSON; it is served separately as raw bytes.
type Document struct {
	ID        string       `json:"id"`
	Type      DocumentType `json:"type"`
	Title     string       `json:"title"`
	Content   []byte       `json:"-"`
	FileName  *string      `json:"file_name,omitempty"`
	MimeType  *string      `json:"mime_type,omitempty"`
	ByteSize  int64        `json:"byte_size"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	Notes     *string      `json:"notes,omitempty"`
	TripID    *string      `json:"trip_id,omitempty"`
}

// SetContent replaces the payload and keeps ByteSize and UpdatedAt in step with it.
func (d *Document) SetContent(content []byte, now time.Time) {
	d.Content = content
	d.ByteSize = int64(len(content))
	d.Touch(now)
}

// Touch stamps UpdatedAt, never moving it before CreatedAt.
func (d *Document) Touch(now time.Time) {
	if now.Before(d.CreatedAt) {
		now = d.CreatedAt
	}
	d.UpdatedAt = now
}

// AvailableOffline reports whether the document carries its file bytes.
func (d *Document) AvailableOffline() bool {
	return len(d.Content) > 0
}

// FormattedSize returns ByteSize in human readable decimal units (e.g. "2.5MB").
func (d *Document) FormattedSize() string {
	return units.HumanSize(float64(d.ByteSize))
}
