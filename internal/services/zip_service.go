package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/slippymap/slippy-backend/internal/models"
)

var (
	ErrInvalidZip  = errors.New("zip code must be 5 digits")
	ErrZipNotFound = errors.New("zip code not found")
)

// ZipView is a zip centroid lookup result shaped for map recentering.
type ZipView struct {
	ZipCode     string  `json:"zip_code"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	DisplayName string  `json:"display_name"`
	City        string  `json:"city"`
	State       string  `json:"state"`
	County      string  `json:"county"`
}

// ZipService looks up US zip centroids from the locally imported table.
type ZipService struct {
	db *gorm.DB
}

func NewZipService(db *gorm.DB) *ZipService {
	return &ZipService{db: db}
}

// Lookup returns the centroid for a zip code. Input is normalized: non-digits
// are stripped and anything shorter than 5 digits is rejected.
func (s *ZipService) Lookup(zip string) (*ZipView, error) {
	normalized := normalizeZip(zip)
	if normalized == "" {
		return nil, ErrInvalidZip
	}

	var row models.ZipCode
	if err := s.db.First(&row, "zip_code = ?", normalized).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrZipNotFound
		}
		return nil, fmt.Errorf("lookup zip: %w", err)
	}

	return &ZipView{
		ZipCode:     row.ZipCode,
		Latitude:    row.Latitude,
		Longitude:   row.Longitude,
		DisplayName: fmt.Sprintf("%s, %s %s", row.City, row.State, row.ZipCode),
		City:        row.City,
		State:       row.State,
		County:      row.County,
	}, nil
}

func normalizeZip(zip string) string {
	var b strings.Builder
	for _, r := range zip {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
		if b.Len() == 5 {
			break
		}
	}
	if b.Len() != 5 {
		return ""
	}
	return b.String()
}
