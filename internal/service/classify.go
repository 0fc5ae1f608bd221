package service

import (
	"path/filepath"
	"strings"

	"tripdocs/internal/model"
)

type classification struct {
	docType  model.DocumentType
	mimeType string
}

var extensionTable = map[string]classification{
	"pdf":  {model.DocumentTypePDF, "application/pdf"},
	"jpg":  {model.DocumentTypeImage, "image/jpeg"},
	"jpeg": {model.DocumentTypeImage, "image/jpeg"},
	"png":  {model.DocumentTypeImage, "image/png"},
	"heic": {model.DocumentTypeImage, "image/heic"},
	"heif": {model.DocumentTypeImage, "image/heif"},
	"gif":  {model.DocumentTypeImage, "image/gif"},
	"bmp":  {model.DocumentTypeImage, "image/bmp"},
	"tiff": {model.DocumentTypeImage, "image/tiff"},
	"txt":  {model.DocumentTypeNote, "text/plain"},
	"md":   {model.DocumentTypeNote, "text/plain"},
	"rtf":  {model.DocumentTypeNote, "text/plain"},
}

// Classify derives the document type and MIME type from a filename extension,
// case-insensitively. Unknown extensions yield DocumentTypeOther and a nil MIME.
func Classify(fileName string) (model.DocumentType, *string) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	c, ok := extensionTable[ext]
	if !ok {
		return model.DocumentTypeOther, nil
	}
	mime := c.mimeType
	return c.docType, &mime
}
