package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripdocs/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		fileName string
		wantType model.DocumentType
		wantMIME string
	}{
		{"boarding-pass.pdf", model.DocumentTypePDF, "application/pdf"},
		{"BOARDING-PASS.PDF", model.DocumentTypePDF, "application/pdf"},
		{"beach.jpg", model.DocumentTypeImage, "image/jpeg"},
		{"beach.JPEG", model.DocumentTypeImage, "image/jpeg"},
		{"map.png", model.DocumentTypeImage, "image/png"},
		{"IMG_0001.HEIC", model.DocumentTypeImage, "image/heic"},
		{"IMG_0002.heif", model.DocumentTypeImage, "image/heif"},
		{"anim.gif", model.DocumentTypeImage, "image/gif"},
		{"scan.bmp", model.DocumentTypeImage, "image/bmp"},
		{"scan.tiff", model.DocumentTypeImage, "image/tiff"},
		{"packing.txt", model.DocumentTypeNote, "text/plain"},
		{"README.md", model.DocumentTypeNote, "text/plain"},
		{"letter.rtf", model.DocumentTypeNote, "text/plain"},
	}
	for _, tt := range tests {
		t.Run(tt.fileName, func(t *testing.T) {
			gotType, gotMIME := Classify(tt.fileName)
			assert.Equal(t, tt.wantType, gotType)
			require.NotNil(t, gotMIME)
			assert.Equal(t, tt.wantMIME, *gotMIME)
		})
	}
}

func TestClassify_Other(t *testing.T) {
	for _, name := range []string{"archive.zip", "noextension", "", "backup.tar.gz", "trailingdot."} {
		gotType, gotMIME := Classify(name)
		assert.Equal(t, model.DocumentTypeOther, gotType, name)
		assert.Nil(t, gotMIME, name)
	}
}

func TestFileTooLargeError(t *testing.T) {
	err := &FileTooLargeError{Size: 60 * 1024 * 1024, Max: 50 * 1024 * 1024}
	assert.Equal(t, "file size (60MiB) exceeds maximum allowed size (50MiB)", err.Error())
	assert.ErrorIs(t, err, ErrFileTooLarge)
}
