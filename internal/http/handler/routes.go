package handler

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"tripdocs/internal/service"
	"tripdocs/internal/storage"
)

// Dependencies are the collaborators the HTTP surface calls into.
// DB and Inbox are optional: a nil DB reports healthy without a ping, and a
// nil Inbox disables POST /documents/import.
type Dependencies struct {
	DB        Pinger
	Documents service.DocumentService
	Trips     service.TripService
	Inbox     storage.Storage
	Logger    *slog.Logger
}

// AppConfig is the Fiber configuration the API runs with. Values read from
// the request outlive the handler (cache keys, logs), so they must not alias
// fasthttp's reused buffers.
func AppConfig(bodyLimit int) fiber.Config {
	return fiber.Config{
		ErrorHandler: ErrorHandler(),
		BodyLimit:    bodyLimit,
		Immutable:    true,
	}
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, deps Dependencies) {
	app.Get("/health", HealthCheck(deps.DB))
	app.Get("/healthz", LivenessProbe())

	trips := app.Group("/trips")
	trips.Post("/", CreateTrip(deps.Trips))
	trips.Get("/:id", GetTrip(deps.Trips))
	trips.Delete("/:id", DeleteTrip(deps.Trips))
	trips.Get("/:id/documents", ListTripDocuments(deps.Documents))
	trips.Get("/:id/documents/grouped", GroupTripDocuments(deps.Documents))

	docs := app.Group("/documents")
	docs.Get("/", ListDocuments(deps.Documents))
	docs.Post("/", UploadDocument(deps.Documents))
	docs.Post("/import", ImportDocument(deps.Documents, deps.Inbox, deps.Logger))
	docs.Post("/batch-delete", BatchDeleteDocuments(deps.Documents))
	docs.Get("/:id", GetDocument(deps.Documents))
	docs.Get("/:id/content", GetDocumentContent(deps.Documents))
	docs.Patch("/:id/notes", UpdateDocumentNotes(deps.Documents))
	docs.Delete("/:id", DeleteDocument(deps.Documents))
}
