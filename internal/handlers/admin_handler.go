package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/slippymap/slippy-backend/internal/dto"
	"github.com/slippymap/slippy-backend/internal/scheduler"
	"github.com/slippymap/slippy-backend/internal/services"
)

type AdminHandler struct {
	authService *services.AuthService
	backfill    *scheduler.Backfill
	moderation  *scheduler.Moderation
}

func NewAdminHandler(authService *services.AuthService, backfill *scheduler.Backfill, moderation *scheduler.Moderation) *AdminHandler {
	return &AdminHandler{authService: authService, backfill: backfill, moderation: moderation}
}

func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	token, expiresAt, err := h.authService.Login(req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	return c.JSON(dto.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	})
}

// Backfill runs one address-backfill batch synchronously and returns the
// batch result, so an operator can page through a backlog with next_offset.
func (h *AdminHandler) Backfill(c *fiber.Ctx) error {
	var req dto.BackfillRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid request body",
			})
		}
	}

	result, err := h.backfill.RunBatch(c.Context(), scheduler.BackfillOptions{
		BatchSize: req.BatchSize,
		Offset:    req.Offset,
		DryRun:    req.DryRun,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}
	return c.JSON(result)
}

// ModerationRun drains one batch of pending comments on demand.
func (h *AdminHandler) ModerationRun(c *fiber.Ctx) error {
	result, err := h.moderation.Sweep(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}
	return c.JSON(result)
}
