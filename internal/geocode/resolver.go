package geocode

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"golang.org/x/time/rate"
)

// Tier records which extraction strategy produced an address string.
type Tier string

const (
	TierHighway      Tier = "highway"
	TierIntersection Tier = "intersection"
	TierHouseNumber  Tier = "house_number"
	TierRoad         Tier = "road"
	TierPedestrian   Tier = "pedestrian"
	TierDisplayName  Tier = "display_name"
	TierAddress      Tier = "address"
	TierLocality     Tier = "locality"
	TierCoordinates  Tier = "coordinates"
)

// Result is a resolved location string tagged with its extraction tier.
// TierCoordinates marks the terminal fallback, so callers can tell a real
// address apart from a formatted coordinate pair.
type Result struct {
	Address string
	Tier    Tier
}

// Resolved reports whether the result carries a provider-derived address
// rather than the coordinate fallback.
func (r Result) Resolved() bool {
	return r.Tier != TierCoordinates
}

// Fetcher is the reverse-geocoding dependency of the Resolver.
type Fetcher interface {
	Reverse(ctx context.Context, lat, lng float64) (*Payload, error)
}

// Resolver turns coordinates into human-readable location strings. The entry
// points are total: any fetch, decode, or provider error collapses to the
// coordinate fallback and is logged, never returned. Every provider call goes
// through the shared limiter, so inline submission-time resolution, the
// on-demand endpoint, and the backfill sweep together stay under the provider
// rate limit.
type Resolver struct {
	client  Fetcher
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewResolver creates a resolver. A nil limiter disables pacing.
func NewResolver(client Fetcher, limiter *rate.Limiter, logger *slog.Logger) *Resolver {
	return &Resolver{client: client, limiter: limiter, logger: logger}
}

// fetch performs one paced provider call. A nil return means the coordinate
// fallback applies.
func (r *Resolver) fetch(ctx context.Context, lat, lng float64) *Payload {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			r.logger.Warn("reverse geocoding aborted", "lat", lat, "lng", lng, "error", err)
			return nil
		}
	}
	payload, err := r.client.Reverse(ctx, lat, lng)
	if err != nil {
		r.logger.Warn("reverse geocoding failed", "lat", lat, "lng", lng, "error", err)
		return nil
	}
	if payload.Error != "" {
		r.logger.Warn("geocoder returned error", "lat", lat, "lng", lng, "error", payload.Error)
		return nil
	}
	return payload
}

// Intersection resolves a short road/intersection label, e.g. "I-95 & Main
// Street" or "500 Fifth Avenue".
func (r *Resolver) Intersection(ctx context.Context, lat, lng float64) Result {
	payload := r.fetch(ctx, lat, lng)
	if payload == nil {
		return coordinateResult(lat, lng)
	}
	return ExtractIntersection(payload, lat, lng)
}

// FullAddress resolves a mailing-style address, e.g.
// "500 Fifth Avenue, New York, NY 10017".
func (r *Resolver) FullAddress(ctx context.Context, lat, lng float64) Result {
	payload := r.fetch(ctx, lat, lng)
	if payload == nil {
		return coordinateResult(lat, lng)
	}
	return ExtractFullAddress(payload, lat, lng)
}

// Lookup resolves both label forms from a single provider fetch.
func (r *Resolver) Lookup(ctx context.Context, lat, lng float64) (intersection, fullAddress Result) {
	payload := r.fetch(ctx, lat, lng)
	if payload == nil {
		fallback := coordinateResult(lat, lng)
		return fallback, fallback
	}
	return ExtractIntersection(payload, lat, lng), ExtractFullAddress(payload, lat, lng)
}

// ExtractIntersection derives the intersection label from a payload. Highway
// references win, then road pairs, then single roads, then pedestrian ways,
// then the first display-name segment, then coordinates.
func ExtractIntersection(payload *Payload, lat, lng float64) Result {
	addr := payload.Address

	isHighway := addr.Ref != "" || highwayClass(payload.Type)
	if isHighway {
		route := addr.Ref
		if norm := NormalizeHighway(route); norm != "" {
			route = norm
		}
		if route == "" {
			route = NormalizeHighway(addr.Road)
		}
		if route != "" {
			if addr.Road2 != "" {
				route += " & " + addr.Road2
			}
			return Result{Address: route, Tier: TierHighway}
		}
	}

	switch {
	case addr.Road != "" && addr.Road2 != "":
		return Result{Address: addr.Road + " & " + addr.Road2, Tier: TierIntersection}
	case addr.Road != "" && addr.HouseNumber != "":
		return Result{Address: addr.HouseNumber + " " + addr.Road, Tier: TierHouseNumber}
	case addr.Road != "":
		return Result{Address: addr.Road, Tier: TierRoad}
	case addr.Pedestrian != "":
		return Result{Address: addr.Pedestrian, Tier: TierPedestrian}
	case addr.Path != "":
		return Result{Address: addr.Path, Tier: TierPedestrian}
	}

	for _, part := range strings.Split(payload.DisplayName, ",") {
		if part = strings.TrimSpace(part); part != "" {
			return Result{Address: part, Tier: TierDisplayName}
		}
	}

	return coordinateResult(lat, lng)
}

// ExtractFullAddress derives a mailing-style address from a payload. It keeps
// the shorter of the provider display string (trimmed of trailing country) and
// a component-assembled "street, city, state postcode", since the assembled
// form is more specific when both exist.
func ExtractFullAddress(payload *Payload, lat, lng float64) Result {
	addr := payload.Address

	best := trailingCountryRe.ReplaceAllString(strings.TrimSpace(payload.DisplayName), "")
	tier := TierDisplayName

	if assembled := assembleAddress(addr); assembled != "" {
		if best == "" || len(assembled) < len(best) {
			best = assembled
			tier = TierAddress
		}
	}

	if best == "" {
		for _, fallback := range []string{addr.County, addr.StateDistrict, addr.Region, addr.State, addr.Country} {
			if fallback = strings.TrimSpace(fallback); fallback != "" {
				return Result{Address: fallback, Tier: TierLocality}
			}
		}
		return coordinateResult(lat, lng)
	}
	return Result{Address: best, Tier: tier}
}

func assembleAddress(addr Address) string {
	street := addr.Road
	if street == "" {
		street = addr.Pedestrian
	}
	if street == "" {
		street = addr.Path
	}
	if addr.Ref != "" {
		if norm := NormalizeHighway(addr.Ref); norm != "" {
			street = norm
		} else {
			street = addr.Ref
		}
	}

	var parts []string
	switch {
	case street != "" && addr.HouseNumber != "":
		parts = append(parts, addr.HouseNumber+" "+street)
	case street != "":
		parts = append(parts, street)
	case addr.HouseNumber != "":
		parts = append(parts, addr.HouseNumber)
	}

	if city := firstNonEmpty(addr.City, addr.Town, addr.Village, addr.Municipality, addr.Suburb, addr.Neighbourhood); city != "" {
		parts = append(parts, city)
	}

	state := firstNonEmpty(addr.State, addr.Province)
	switch {
	case state != "" && addr.Postcode != "":
		parts = append(parts, state+" "+addr.Postcode)
	case state != "":
		parts = append(parts, state)
	case addr.Postcode != "":
		parts = append(parts, addr.Postcode)
	}

	return strings.Join(parts, ", ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func coordinateResult(lat, lng float64) Result {
	return Result{
		Address: fmt.Sprintf("%.6f, %.6f", lat, lng),
		Tier:    TierCoordinates,
	}
}

func highwayClass(placeType string) bool {
	switch strings.ToLower(placeType) {
	case "motorway", "trunk", "primary":
		return true
	}
	return false
}

// Highway reference patterns. Ordering matters: the bare interstate pattern
// would also match the tail of "US 95", so the more specific prefixes are
// tried first.
var (
	usRouteRe    = regexp.MustCompile(`(?i)\bU\.?S\.?[- ]?(?:Highway|Route|Hwy|Rt)[- ]?(\d+)\b`)
	usBareRe     = regexp.MustCompile(`(?i)\bU\.?S\.?[- ]?(\d+)\b`)
	stateRe      = regexp.MustCompile(`(?i)\b(?:State|SR|SH)[- ]?(?:Route|Highway|Hwy|Rt)[- ]?(\d+)\b`)
	stateBareRe  = regexp.MustCompile(`(?i)\bSR[- ]?(\d+)\b`)
	countyRe     = regexp.MustCompile(`(?i)\b(?:County|CR)[- ]?(?:Road|Route|Hwy|Rt)[- ]?(\d+)\b`)
	countyBareRe = regexp.MustCompile(`(?i)\bCR[- ]?(\d+)\b`)
	interstateRe = regexp.MustCompile(`(?i)\b(?:Interstate[- ]?|I[- ]?)(\d+)\b`)

	trailingCountryRe = regexp.MustCompile(`(?i),\s*(United States|USA|US)$`)
)

// NormalizeHighway canonicalizes a road name or route reference to the
// "{PREFIX}-{number}" form: "Interstate 95" → "I-95", "U.S. Route 101" →
// "US-101", "State Route 1" → "SR-1", "County Road 1" → "CR-1". Returns ""
// when the name carries no recognizable route number.
func NormalizeHighway(name string) string {
	if name == "" {
		return ""
	}
	if m := usRouteRe.FindStringSubmatch(name); m != nil {
		return "US-" + m[1]
	}
	if m := usBareRe.FindStringSubmatch(name); m != nil {
		return "US-" + m[1]
	}
	if m := stateRe.FindStringSubmatch(name); m != nil {
		return "SR-" + m[1]
	}
	if m := stateBareRe.FindStringSubmatch(name); m != nil {
		return "SR-" + m[1]
	}
	if m := countyRe.FindStringSubmatch(name); m != nil {
		return "CR-" + m[1]
	}
	if m := countyBareRe.FindStringSubmatch(name); m != nil {
		return "CR-" + m[1]
	}
	if m := interstateRe.FindStringSubmatch(name); m != nil {
		return "I-" + m[1]
	}
	return ""
}
