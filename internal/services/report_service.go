package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/slippymap/slippy-backend/internal/geocode"
	"github.com/slippymap/slippy-backend/internal/models"
)

var (
	ErrInvalidCondition   = errors.New("invalid condition type")
	ErrInvalidLocation    = errors.New("invalid location type")
	ErrInvalidCoordinates = errors.New("latitude or longitude out of range")
	ErrNameRejected       = errors.New("submitter name rejected")
	ErrReportNotFound     = errors.New("report not found")
)

const (
	maxSubmitterNameLen = 25

	// How many candidate rows a map query loads before distance filtering.
	listScanCap = 500

	earthRadiusKM = 6371.0
)

// AddressResolver resolves coordinates to a display address at submission time.
type AddressResolver interface {
	Intersection(ctx context.Context, lat, lng float64) geocode.Result
}

// NameChecker screens free-text name fields against the local wordlist.
type NameChecker interface {
	CheckName(name string) (bool, []string)
}

// ReportService owns the hazard-report lifecycle: creation with inline address
// resolution, map listing with distance and recency filtering, and deletion.
type ReportService struct {
	db       *gorm.DB
	resolver AddressResolver
	names    NameChecker
	logger   *slog.Logger
}

func NewReportService(db *gorm.DB, resolver AddressResolver, names NameChecker, logger *slog.Logger) *ReportService {
	return &ReportService{db: db, resolver: resolver, names: names, logger: logger}
}

// CreateReportInput carries a new report submission.
type CreateReportInput struct {
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	ConditionType string  `json:"condition_type"`
	LocationType  string  `json:"location_type"`
	SubmitterName string  `json:"submitter_name"`
}

// Create validates and stores a report, then attempts one inline address
// resolution. Resolution is best-effort: a geocoder failure never fails the
// submission, and the coordinate fallback is not persisted so the row stays
// eligible for the backfill sweep.
func (s *ReportService) Create(ctx context.Context, input CreateReportInput) (*models.Report, error) {
	if input.Latitude < -90 || input.Latitude > 90 || input.Longitude < -180 || input.Longitude > 180 {
		return nil, ErrInvalidCoordinates
	}
	if !models.ValidCondition(input.ConditionType) {
		return nil, ErrInvalidCondition
	}
	location := input.LocationType
	if location == "" {
		location = models.LocationRoad
	}
	if !models.ValidLocation(location) {
		return nil, ErrInvalidLocation
	}

	report := models.Report{
		Latitude:      input.Latitude,
		Longitude:     input.Longitude,
		ConditionType: input.ConditionType,
		LocationType:  location,
	}

	if name := strings.TrimSpace(input.SubmitterName); name != "" {
		if banned, matched := s.names.CheckName(name); banned {
			s.logger.Info("report submission rejected for name content", "matched", strings.Join(matched, ","))
			return nil, ErrNameRejected
		}
		name = truncateRunes(html.EscapeString(name), maxSubmitterNameLen)
		report.SubmitterName = &name
	}

	if err := s.db.Create(&report).Error; err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}

	if resolved := s.resolver.Intersection(ctx, report.Latitude, report.Longitude); resolved.Resolved() {
		err := s.db.Model(&models.Report{}).
			Where("id = ? AND address IS NULL", report.ID).
			Updates(map[string]interface{}{
				"address":      resolved.Address,
				"address_tier": string(resolved.Tier),
			}).Error
		if err != nil {
			s.logger.Warn("inline address update failed", "report_id", report.ID, "error", err)
		} else {
			report.Address = &resolved.Address
			report.AddressTier = string(resolved.Tier)
		}
	} else {
		s.logger.Info("inline address resolution deferred to backfill", "report_id", report.ID)
	}

	return &report, nil
}

// ListQuery filters a map listing. Lat/Lng enable radius filtering; Strict24h
// forces the recency filter that otherwise only kicks in on busy areas.
type ListQuery struct {
	Lat       *float64
	Lng       *float64
	RadiusKM  float64
	Limit     int
	Strict24h bool
}

// ReportView is a listed report with its vote tallies and visible comment count.
type ReportView struct {
	models.Report
	Upvotes      int64 `json:"upvotes"`
	Downvotes    int64 `json:"downvotes"`
	CommentCount int64 `json:"comment_count"`
}

// List returns reports for the map, newest first. When the area has at least
// Limit reports from the last 24 hours only those are shown, so stale pins
// drop off busy maps but sparse areas keep their history.
func (s *ReportService) List(query ListQuery) ([]ReportView, error) {
	if query.Limit <= 0 {
		query.Limit = 100
	}
	if query.RadiusKM <= 0 {
		query.RadiusKM = 50
	}

	cutoff := time.Now().Add(-24 * time.Hour)

	recent, err := s.scan(&cutoff)
	if err != nil {
		return nil, err
	}
	recent = s.withinRadius(recent, query)

	var reports []models.Report
	if query.Strict24h || len(recent) >= query.Limit {
		reports = recent
	} else {
		all, err := s.scan(nil)
		if err != nil {
			return nil, err
		}
		reports = s.withinRadius(all, query)
	}
	if len(reports) > query.Limit {
		reports = reports[:query.Limit]
	}

	return s.attachCounts(reports)
}

// Get returns one report with its tallies.
func (s *ReportService) Get(id uuid.UUID) (*ReportView, error) {
	var report models.Report
	if err := s.db.First(&report, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("load report: %w", err)
	}
	views, err := s.attachCounts([]models.Report{report})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Delete removes a report; comments and votes cascade.
func (s *ReportService) Delete(id uuid.UUID) error {
	result := s.db.Delete(&models.Report{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("delete report: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrReportNotFound
	}
	return nil
}

func (s *ReportService) scan(since *time.Time) ([]models.Report, error) {
	tx := s.db.Order("created_at DESC").Limit(listScanCap)
	if since != nil {
		tx = tx.Where("created_at >= ?", *since)
	}
	var reports []models.Report
	if err := tx.Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

func (s *ReportService) withinRadius(reports []models.Report, query ListQuery) []models.Report {
	if query.Lat == nil || query.Lng == nil {
		return reports
	}
	filtered := reports[:0:0]
	for _, r := range reports {
		if haversineKM(*query.Lat, *query.Lng, r.Latitude, r.Longitude) <= query.RadiusKM {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

func (s *ReportService) attachCounts(reports []models.Report) ([]ReportView, error) {
	views := make([]ReportView, len(reports))
	if len(reports) == 0 {
		return views, nil
	}

	ids := make([]uuid.UUID, len(reports))
	index := make(map[uuid.UUID]int, len(reports))
	for i, r := range reports {
		views[i] = ReportView{Report: r}
		ids[i] = r.ID
		index[r.ID] = i
	}

	type voteTally struct {
		ReportID uuid.UUID
		VoteType string
		Count    int64
	}
	var votes []voteTally
	err := s.db.Model(&models.Vote{}).
		Select("report_id, vote_type, COUNT(*) AS count").
		Where("report_id IN ?", ids).
		Group("report_id, vote_type").
		Scan(&votes).Error
	if err != nil {
		return nil, fmt.Errorf("tally votes: %w", err)
	}
	for _, v := range votes {
		i := index[v.ReportID]
		if v.VoteType == models.VoteUp {
			views[i].Upvotes = v.Count
		} else {
			views[i].Downvotes = v.Count
		}
	}

	type commentTally struct {
		ReportID uuid.UUID
		Count    int64
	}
	var comments []commentTally
	err = s.db.Model(&models.Comment{}).
		Select("report_id, COUNT(*) AS count").
		Where("report_id IN ? AND status = ?", ids, models.CommentApproved).
		Group("report_id").
		Scan(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("tally comments: %w", err)
	}
	for _, c := range comments {
		views[index[c.ReportID]].CommentCount = c.Count
	}

	return views, nil
}

func haversineKM(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
