package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"tripdocs/internal/service"
)

type createTripRequest struct {
	Name      string     `json:"name"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
}

// CreateTrip godoc
// @Summary Create a trip
// @Tags trips
// @Accept json
// @Produce json
// @Param trip body createTripRequest true "Trip"
// @Success 201 {object} model.Trip
// @Failure 400 {object} errorPayload
// @Router /trips [post]
func CreateTrip(svc service.TripService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createTripRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
			return writeError(c, fiber.StatusBadRequest, "INVALID_DATES", "end_date is before start_date")
		}

		trip, err := svc.CreateTrip(c.UserContext(), req.Name, req.StartDate, req.EndDate, req.Notes)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(trip)
	}
}

// GetTrip godoc
// @Summary Get a trip
// @Tags trips
// @Produce json
// @Param id path string true "Trip ID"
// @Success 200 {object} model.Trip
// @Failure 404 {object} errorPayload
// @Router /trips/{id} [get]
func GetTrip(svc service.TripService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		trip, err := svc.GetTrip(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(trip)
	}
}

// DeleteTrip godoc
// @Summary Delete a trip
// @Description Documents of the trip are kept and detached.
// @Tags trips
// @Param id path string true "Trip ID"
// @Success 204
// @Failure 404 {object} errorPayload
// @Router /trips/{id} [delete]
func DeleteTrip(svc service.TripService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.DeleteTrip(c.UserContext(), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ListTripDocuments godoc
// @Summary List the documents of a trip
// @Tags trips
// @Produce json
// @Param id path string true "Trip ID"
// @Success 200 {object} documentListResponse
// @Router /trips/{id}/documents [get]
func ListTripDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		docs, err := svc.FetchDocuments(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(newDocumentList(docs))
	}
}

// GroupTripDocuments godoc
// @Summary List the documents of a trip grouped by type
// @Tags trips
// @Produce json
// @Param id path string true "Trip ID"
// @Success 200 {object} map[string][]documentResponse
// @Router /trips/{id}/documents/grouped [get]
func GroupTripDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		groups, err := svc.GroupByType(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		res := make(map[string][]documentResponse, len(groups))
		for typ, docs := range groups {
			res[string(typ)] = newDocumentList(docs).Items
		}
		return c.JSON(res)
	}
}
