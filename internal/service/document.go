package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"tripdocs/internal/imaging"
	"tripdocs/internal/model"
	"tripdocs/internal/repository"
	"tripdocs/internal/source"
)

var tracer = otel.Tracer("tripdocs/internal/service")

// Options bounds what the admission pipeline accepts and how images are shrunk.
type Options struct {
	MaxFileSizeBytes        int64
	MaxImageDimensionPx     int
	ImageCompressionQuality float64
}

// DefaultOptions returns the stock limits: 50 MiB, 2048 px, quality 0.8.
func DefaultOptions() Options {
	return Options{
		MaxFileSizeBytes:        50 * 1024 * 1024,
		MaxImageDimensionPx:     imaging.DefaultMaxDimension,
		ImageCompressionQuality: imaging.DefaultQuality,
	}
}

// DocumentService defines the use cases for handling trip documents.
type DocumentService interface {
	// CreateDocument admits the source, classifies it, shrinks images, and stores
	// the result. Nothing is stored when any step fails.
	CreateDocument(ctx context.Context, src source.Source, title string, tripID, notes *string) (*model.Document, error)

	// UpdateNotes replaces the notes of doc; an empty string clears them.
	UpdateNotes(ctx context.Context, doc *model.Document, notes string) error

	DeleteDocument(ctx context.Context, doc *model.Document) error

	// DeleteDocuments removes all docs in one commit.
	DeleteDocuments(ctx context.Context, docs []model.Document) error

	// GetDocument returns a single document by its ID.
	GetDocument(ctx context.Context, id string) (*model.Document, error)

	// FetchDocuments returns the documents of a trip, newest first.
	FetchDocuments(ctx context.Context, tripID string) ([]model.Document, error)

	// FetchAllDocuments returns every document, newest first.
	FetchAllDocuments(ctx context.Context) ([]model.Document, error)

	// GroupByType partitions the trip's documents by type. Types without
	// documents are absent from the map.
	GroupByType(ctx context.Context, tripID string) (map[model.DocumentType][]model.Document, error)
}

type documentService struct {
	repo   repository.DocumentRepository
	trips  repository.TripRepository
	opts   Options
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// NewDocumentService constructs a new DocumentService. Zero-valued options
// fall back to DefaultOptions.
func NewDocumentService(repo repository.DocumentRepository, trips repository.TripRepository, opts Options, logger *slog.Logger) DocumentService {
	def := DefaultOptions()
	if opts.MaxFileSizeBytes <= 0 {
		opts.MaxFileSizeBytes = def.MaxFileSizeBytes
	}
	if opts.MaxImageDimensionPx <= 0 {
		opts.MaxImageDimensionPx = def.MaxImageDimensionPx
	}
	if opts.ImageCompressionQuality <= 0 {
		opts.ImageCompressionQuality = def.ImageCompressionQuality
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &documentService{
		repo:   repo,
		trips:  trips,
		opts:   opts,
		logger: logger.With("component", "document_service"),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.New().String() },
	}
}

func (s *documentService) CreateDocument(ctx context.Context, src source.Source, title string, tripID, notes *string) (*model.Document, error) {
	ctx, span := tracer.Start(ctx, "DocumentService.CreateDocument")
	defer span.End()

	if src == nil {
		return nil, ErrSourceNil
	}
	if strings.TrimSpace(title) == "" {
		return nil, ErrTitleRequired
	}
	if tripID != nil {
		trip, err := s.trips.FindByID(ctx, *tripID)
		if err != nil {
			return nil, fail(span, fmt.Errorf("find trip: %w", err))
		}
		if trip == nil {
			return nil, ErrTripNotFound
		}
	}

	data, err := s.admit(ctx, src)
	if err != nil {
		documentsRejectedTotal.WithLabelValues(rejectReason(err)).Inc()
		s.logger.Warn("document rejected",
			"event", "document_admission",
			"status", "failed",
			"source", src.Name(),
			"error", err.Error(),
		)
		return nil, fail(span, err)
	}

	// Name is final only after Open succeeded.
	fileName := src.Name()
	docType, mimeType := Classify(fileName)
	span.SetAttributes(attribute.String("document.type", string(docType)))

	if docType == model.DocumentTypeImage {
		res := imaging.Transform(data, imaging.Options{
			MaxDimension: s.opts.MaxImageDimensionPx,
			Quality:      s.opts.ImageCompressionQuality,
		})
		imageTransformsTotal.WithLabelValues(string(res.Outcome)).Inc()
		span.SetAttributes(attribute.String("image.outcome", string(res.Outcome)))

		switch res.Outcome {
		case imaging.OutcomeTransformed:
			jpeg := "image/jpeg"
			mimeType = &jpeg
			s.logger.Debug("image downscaled",
				"source", fileName,
				"from_bytes", len(data),
				"to_bytes", len(res.Data),
				"width", res.Width,
				"height", res.Height,
			)
		case imaging.OutcomeDecodeFailed:
			s.logger.Info("image kept as-is",
				"event", "image_transform",
				"status", "decode_failed",
				"source", fileName,
				"error", res.Err.Error(),
			)
		}
		data = res.Data
	}

	now := s.now()
	doc := &model.Document{
		ID:        s.newID(),
		Type:      docType,
		Title:     title,
		FileName:  optional(fileName),
		MimeType:  mimeType,
		CreatedAt: now,
		Notes:     normalizeNotes(notes),
		TripID:    tripID,
	}
	doc.SetContent(data, now)

	if err := s.repo.Insert(ctx, doc); err != nil {
		s.logger.Error("failed to save document",
			"event", "document_insert",
			"status", "failed",
			"document_id", doc.ID,
			"error", err.Error(),
		)
		return nil, fail(span, fmt.Errorf("save document: %w", err))
	}

	documentsCreatedTotal.WithLabelValues(string(doc.Type)).Inc()
	s.logger.Info("document created",
		"event", "document_insert",
		"status", "success",
		"document_id", doc.ID,
		"type", doc.Type,
		"byte_size", doc.ByteSize,
	)
	return doc, nil
}

// admit reads the whole source, refusing anything over the size ceiling.
// A declared size is checked before any byte is read; streams of unknown
// length are read up to one byte past the ceiling and then drained so the
// reported size is exact.
func (s *documentService) admit(ctx context.Context, src source.Source) ([]byte, error) {
	rc, size, err := src.Open(ctx)
	if err != nil {
		if errors.Is(err, source.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrFileNotFound, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrCannotReadFile, err)
	}
	defer rc.Close()

	limit := s.opts.MaxFileSizeBytes
	if size > limit {
		return nil, &FileTooLargeError{Size: size, Max: limit}
	}

	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCannotReadFile, err)
	}
	if int64(len(data)) > limit {
		rest, err := io.Copy(io.Discard, rc)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCannotReadFile, err)
		}
		return nil, &FileTooLargeError{Size: int64(len(data)) + rest, Max: limit}
	}
	return data, nil
}

func (s *documentService) UpdateNotes(ctx context.Context, doc *model.Document, notes string) error {
	ctx, span := tracer.Start(ctx, "DocumentService.UpdateNotes")
	defer span.End()

	if doc == nil {
		return ErrNotFound
	}
	if doc.ID == "" {
		return ErrIDRequired
	}

	prev := doc.Notes
	doc.Notes = normalizeNotes(&notes)
	if err := s.repo.Update(ctx, doc); err != nil {
		doc.Notes = prev
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fail(span, fmt.Errorf("update notes: %w", err))
	}
	return nil
}

func (s *documentService) DeleteDocument(ctx context.Context, doc *model.Document) error {
	ctx, span := tracer.Start(ctx, "DocumentService.DeleteDocument")
	defer span.End()

	if doc == nil || doc.ID == "" {
		return ErrIDRequired
	}
	if err := s.repo.Delete(ctx, doc); err != nil {
		return fail(span, fmt.Errorf("delete document: %w", err))
	}
	s.logger.Info("document deleted", "event", "document_delete", "document_id", doc.ID)
	return nil
}

func (s *documentService) DeleteDocuments(ctx context.Context, docs []model.Document) error {
	ctx, span := tracer.Start(ctx, "DocumentService.DeleteDocuments",
		trace.WithAttributes(attribute.Int("documents.count", len(docs))))
	defer span.End()

	if len(docs) == 0 {
		return nil
	}
	if err := s.repo.DeleteMany(ctx, docs); err != nil {
		return fail(span, fmt.Errorf("delete documents: %w", err))
	}
	s.logger.Info("documents deleted", "event", "document_delete_batch", "count", len(docs))
	return nil
}

func (s *documentService) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.repo.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNotFound
	}
	return doc, nil
}

func (s *documentService) FetchDocuments(ctx context.Context, tripID string) ([]model.Document, error) {
	if tripID == "" {
		return nil, ErrIDRequired
	}
	return s.repo.FetchByTrip(ctx, tripID)
}

func (s *documentService) FetchAllDocuments(ctx context.Context) ([]model.Document, error) {
	return s.repo.FetchAll(ctx)
}

func (s *documentService) GroupByType(ctx context.Context, tripID string) (map[model.DocumentType][]model.Document, error) {
	docs, err := s.FetchDocuments(ctx, tripID)
	if err != nil {
		return nil, err
	}
	groups := make(map[model.DocumentType][]model.Document)
	for _, d := range docs {
		groups[d.Type] = append(groups[d.Type], d)
	}
	return groups, nil
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrFileNotFound):
		return "not_found"
	case errors.Is(err, ErrFileTooLarge):
		return "too_large"
	default:
		return "unreadable"
	}
}

func normalizeNotes(notes *string) *string {
	if notes == nil || strings.TrimSpace(*notes) == "" {
		return nil
	}
	n := *notes
	return &n
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
