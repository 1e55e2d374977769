package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/slippymap/slippy-backend/internal/dto"
	"github.com/slippymap/slippy-backend/internal/services"
)

type ZipHandler struct {
	zipService *services.ZipService
}

func NewZipHandler(zipService *services.ZipService) *ZipHandler {
	return &ZipHandler{zipService: zipService}
}

func (h *ZipHandler) Lookup(c *fiber.Ctx) error {
	view, err := h.zipService.Lookup(c.Params("zip"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidZip):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, services.ErrZipNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(view)
}
