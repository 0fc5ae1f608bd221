package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"tripdocs/internal/model"
	"tripdocs/internal/service"
	"tripdocs/internal/source"
	"tripdocs/internal/storage"
)

// documentResponse is the JSON view of a document. Content is served by
// GET /documents/{id}/content.
type documentResponse struct {
	model.Document
	AvailableOffline bool   `json:"available_offline"`
	FormattedSize    string `json:"formatted_size"`
}

type documentListResponse struct {
	Items []documentResponse `json:"data"`
	Total int                `json:"total"`
}

func newDocumentResponse(d model.Document) documentResponse {
	return documentResponse{
		Document:         d,
		AvailableOffline: d.AvailableOffline(),
		FormattedSize:    d.FormattedSize(),
	}
}

func newDocumentList(docs []model.Document) documentListResponse {
	items := make([]documentResponse, 0, len(docs))
	for _, d := range docs {
		items = append(items, newDocumentResponse(d))
	}
	return documentListResponse{Items: items, Total: len(items)}
}

type importDocumentRequest struct {
	ObjectKey    string  `json:"object_key"`
	Title        string  `json:"title"`
	Notes        *string `json:"notes,omitempty"`
	TripID       *string `json:"trip_id,omitempty"`
	RemoveSource bool    `json:"remove_source"`
}

type updateNotesRequest struct {
	Notes string `json:"notes"`
}

type batchDeleteRequest struct {
	IDs []string `json:"ids"`
}

// ListDocuments godoc
// @Summary List all documents
// @Tags documents
// @Produce json
// @Success 200 {object} documentListResponse
// @Router /documents [get]
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		docs, err := svc.FetchAllDocuments(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(newDocumentList(docs))
	}
}

// UploadDocument godoc
// @Summary Upload a document
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document file"
// @Param title formData string true "Title"
// @Param notes formData string false "Notes"
// @Param trip_id formData string false "Trip ID"
// @Success 201 {object} documentResponse
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Failure 413 {object} errorPayload
// @Router /documents [post]
func UploadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		tripID, ok := optionalID(c.FormValue("trip_id"))
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_TRIP_ID", "invalid trip_id format")
		}

		doc, err := svc.CreateDocument(c.UserContext(), source.Multipart(fh), c.FormValue("title"), tripID, optionalText(c.FormValue("notes")))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(newDocumentResponse(*doc))
	}
}

// ImportDocument godoc
// @Summary Create a document from an object in the import inbox
// @Tags documents
// @Accept json
// @Produce json
// @Param request body importDocumentRequest true "Import request"
// @Success 201 {object} documentResponse
// @Failure 404 {object} errorPayload
// @Failure 503 {object} errorPayload
// @Router /documents/import [post]
func ImportDocument(svc service.DocumentService, inbox storage.Storage, logger *slog.Logger) fiber.Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return func(c *fiber.Ctx) error {
		if inbox == nil {
			return writeError(c, fiber.StatusServiceUnavailable, "IMPORT_DISABLED", "import inbox is not configured")
		}

		var req importDocumentRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if strings.TrimSpace(req.ObjectKey) == "" {
			return writeError(c, fiber.StatusBadRequest, "OBJECT_KEY_REQUIRED", "object_key is required")
		}
		if req.TripID != nil {
			if _, err := uuid.Parse(*req.TripID); err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_TRIP_ID", "invalid trip_id format")
			}
		}

		doc, err := svc.CreateDocument(c.UserContext(), source.Object(inbox, req.ObjectKey), req.Title, req.TripID, req.Notes)
		if err != nil {
			return writeServiceError(c, err)
		}

		if req.RemoveSource {
			// The document is already committed; a leftover inbox object is only logged.
			if err := inbox.Delete(c.UserContext(), req.ObjectKey); err != nil {
				logger.Warn("failed to remove imported object",
					"component", "http",
					"event", "inbox_remove",
					"status", "failed",
					"object_key", req.ObjectKey,
					"document_id", doc.ID,
					"error", err.Error(),
				)
			}
		}
		return c.Status(fiber.StatusCreated).JSON(newDocumentResponse(*doc))
	}
}

// GetDocument godoc
// @Summary Get document metadata
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} documentResponse
// @Failure 404 {object} errorPayload
// @Router /documents/{id} [get]
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := svc.GetDocument(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(newDocumentResponse(*doc))
	}
}

// GetDocumentContent godoc
// @Summary Download document content
// @Tags documents
// @Produce octet-stream
// @Param id path string true "Document ID"
// @Success 200 {file} binary
// @Failure 404 {object} errorPayload
// @Router /documents/{id}/content [get]
func GetDocumentContent(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := svc.GetDocument(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		if !doc.AvailableOffline() {
			return writeError(c, fiber.StatusNotFound, "CONTENT_UNAVAILABLE", "document has no content")
		}

		ct := fiber.MIMEOctetStream
		if doc.MimeType != nil {
			ct = *doc.MimeType
		}
		c.Set(fiber.HeaderContentType, ct)
		if doc.FileName != nil {
			c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", *doc.FileName))
		}
		return c.Send(doc.Content)
	}
}

// UpdateDocumentNotes godoc
// @Summary Replace document notes
// @Description An empty string clears the notes.
// @Tags documents
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param request body updateNotesRequest true "Notes"
// @Success 200 {object} documentResponse
// @Failure 404 {object} errorPayload
// @Router /documents/{id}/notes [patch]
func UpdateDocumentNotes(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var req updateNotesRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		doc, err := svc.GetDocument(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		if err := svc.UpdateNotes(c.UserContext(), doc, req.Notes); err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(newDocumentResponse(*doc))
	}
}

// DeleteDocument godoc
// @Summary Delete a document
// @Tags documents
// @Param id path string true "Document ID"
// @Success 204
// @Failure 404 {object} errorPayload
// @Router /documents/{id} [delete]
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := svc.GetDocument(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		if err := svc.DeleteDocument(c.UserContext(), doc); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// BatchDeleteDocuments godoc
// @Summary Delete several documents at once
// @Description Unknown IDs are skipped. The rest are removed in one commit.
// @Tags documents
// @Accept json
// @Produce json
// @Param request body batchDeleteRequest true "Document IDs"
// @Success 200 {object} map[string]int
// @Failure 400 {object} errorPayload
// @Router /documents/batch-delete [post]
func BatchDeleteDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req batchDeleteRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if len(req.IDs) == 0 {
			return writeError(c, fiber.StatusBadRequest, "IDS_REQUIRED", "ids are required")
		}

		docs := make([]model.Document, 0, len(req.IDs))
		for _, id := range req.IDs {
			if _, err := uuid.Parse(id); err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
			}
			doc, err := svc.GetDocument(c.UserContext(), id)
			if errors.Is(err, service.ErrNotFound) {
				continue
			}
			if err != nil {
				return writeServiceError(c, err)
			}
			docs = append(docs, *doc)
		}

		if err := svc.DeleteDocuments(c.UserContext(), docs); err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"deleted": len(docs)})
	}
}

// optionalID returns nil for an empty value and false for a malformed one.
func optionalID(v string) (*string, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, true
	}
	if _, err := uuid.Parse(v); err != nil {
		return nil, false
	}
	return &v, true
}

func optionalText(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
