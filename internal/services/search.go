package services

import (
	"context"
	"math"

	"gorm.io/gorm"

	"github.com/medrates/pricing-backend/internal/geo"
	"github.com/medrates/pricing-backend/internal/logger"
	"github.com/medrates/pricing-backend/internal/repos"
)

// DefaultRadiusKm applies when a location search does not name a radius.
const DefaultRadiusKm = 10.0

// ProviderResult is one search hit. DistanceKm is set only when a location
// filter ran and the provider's ZIP resolved.
type ProviderResult struct {
	repos.SearchRow
	DistanceKm *float64 `json:"distance_km"`
}

type SearchService interface {
	SearchProviders(ctx context.Context, drg, zip string, radiusKm float64) ([]ProviderResult, error)
}

type searchService struct {
	db         *gorm.DB
	log        *logger.Logger
	searchRepo repos.SearchRepo
	resolver   *geo.Resolver
}

func NewSearchService(db *gorm.DB, baseLog *logger.Logger, searchRepo repos.SearchRepo, resolver *geo.Resolver) SearchService {
	serviceLog := baseLog.With("service", "SearchService")
	return &searchService{
		db:         db,
		log:        serviceLog,
		searchRepo: searchRepo,
		resolver:   resolver,
	}
}

// SearchProviders runs the structured query path: an entirely numeric drg
// filter matches the exact MS-DRG code, anything else matches the
// description case-insensitively. When a ZIP is given the results pass
// through the radius filter.
func (ss *searchService) SearchProviders(ctx context.Context, drg, zip string, radiusKm float64) ([]ProviderResult, error) {
	var (
		rows []repos.SearchRow
		err  error
	)
	switch {
	case drg == "":
		rows, err = ss.searchRepo.SearchAll(ctx, nil)
	case isAllDigits(drg):
		rows, err = ss.searchRepo.SearchByCode(ctx, nil, drg)
	default:
		rows, err = ss.searchRepo.SearchByDescription(ctx, nil, drg)
	}
	if err != nil {
		return nil, err
	}

	results := make([]ProviderResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, ProviderResult{SearchRow: row})
	}

	if zip == "" {
		return results, nil
	}
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}
	return ss.filterByDistance(results, zip, radiusKm), nil
}

// filterByDistance keeps providers within radiusKm of the target ZIP,
// annotated with the distance. An unresolvable target ZIP skips the filter
// entirely; providers with unresolvable ZIPs are dropped while the filter is
// active.
func (ss *searchService) filterByDistance(results []ProviderResult, zip string, radiusKm float64) []ProviderResult {
	target, ok := ss.resolver.Lookup(zip)
	if !ok {
		ss.log.Warn("Could not resolve coordinates for target ZIP, skipping radius filter", "zip", zip)
		return results
	}

	filtered := make([]ProviderResult, 0, len(results))
	for _, res := range results {
		coords, ok := ss.resolver.Lookup(res.ProviderZipCode)
		if !ok {
			continue
		}
		d := geo.Distance(target.Lat, target.Lon, coords.Lat, coords.Lon)
		if d > radiusKm {
			continue
		}
		rounded := math.Round(d*100) / 100
		res.DistanceKm = &rounded
		filtered = append(filtered, res)
	}
	return filtered
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
