package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/slippymap/slippy-backend/internal/dto"
	"github.com/slippymap/slippy-backend/internal/geocode"
)

type GeocodeHandler struct {
	resolver *geocode.Resolver
}

func NewGeocodeHandler(resolver *geocode.Resolver) *GeocodeHandler {
	return &GeocodeHandler{resolver: resolver}
}

// Intersection resolves a coordinate pair on demand. Both extraction modes
// come from a single provider fetch; the coordinate fallback shows up with
// the "coordinates" tier.
func (h *GeocodeHandler) Intersection(c *fiber.Ctx) error {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "lat and lng query parameters are required",
		})
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "latitude or longitude out of range",
		})
	}

	intersection, fullAddress := h.resolver.Lookup(c.Context(), lat, lng)

	return c.JSON(dto.GeocodeResponse{
		Intersection:     intersection.Address,
		IntersectionTier: string(intersection.Tier),
		FullAddress:      fullAddress.Address,
		FullAddressTier:  string(fullAddress.Tier),
	})
}
