package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/slippymap/slippy-backend/internal/dto"
	"github.com/slippymap/slippy-backend/internal/services"
)

type ReportHandler struct {
	reportService *services.ReportService
}

func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (h *ReportHandler) Create(c *fiber.Ctx) error {
	var req services.CreateReportInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	report, err := h.reportService.Create(c.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNameRejected):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, services.ErrInvalidCondition),
			errors.Is(err, services.ErrInvalidLocation),
			errors.Is(err, services.ErrInvalidCoordinates):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(report)
}

func (h *ReportHandler) List(c *fiber.Ctx) error {
	query := services.ListQuery{
		RadiusKM:  queryFloat(c, "radius_km", 0),
		Limit:     c.QueryInt("limit", 100),
		Strict24h: c.QueryBool("strict_24h", false),
	}
	if lat, err := strconv.ParseFloat(c.Query("lat"), 64); err == nil {
		query.Lat = &lat
	}
	if lng, err := strconv.ParseFloat(c.Query("lng"), 64); err == nil {
		query.Lng = &lng
	}

	reports, err := h.reportService.List(query)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(fiber.Map{"reports": reports, "count": len(reports)})
}

func (h *ReportHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid report id",
		})
	}

	report, err := h.reportService.Get(id)
	if err != nil {
		if errors.Is(err, services.ErrReportNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(report)
}

func (h *ReportHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid report id",
		})
	}

	if err := h.reportService.Delete(id); err != nil {
		if errors.Is(err, services.ErrReportNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(fiber.Map{"deleted": true})
}

func queryFloat(c *fiber.Ctx, key string, fallback float64) float64 {
	f, err := strconv.ParseFloat(c.Query(key), 64)
	if err != nil {
		return fallback
	}
	return f
}
