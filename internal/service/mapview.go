package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pkordes/wanderlust/backend/internal/aggregate"
	"github.com/pkordes/wanderlust/backend/internal/clients/geocode"
	"github.com/pkordes/wanderlust/backend/internal/domain"
	"github.com/pkordes/wanderlust/backend/internal/repo"
)

// Marker is one itinerary item placed on the trip map.
type Marker struct {
	ItemID   string
	Title    string
	Location string
	Date     string
	Category domain.CategoryInfo
	Lat      float64
	Lon      float64
}

// MapService places itinerary items on a map.
type MapService struct {
	store    repo.RecordStore
	geocoder Geocoder
	policy   aggregate.Policy
	access   tripAccess
	log      *slog.Logger
}

// NewMapService constructs a MapService.
func NewMapService(store repo.RecordStore, g Geocoder, p aggregate.Policy, log *slog.Logger) *MapService {
	if log == nil {
		log = slog.Default()
	}
	return &MapService{store: store, geocoder: g, policy: p, access: tripAccess{store: store}, log: log}
}

// Markers geocodes the location of every itinerary item and returns markers
// in itinerary order. Each distinct location is looked up once. Items whose
// location is empty or cannot be resolved are left off the map.
func (s *MapService) Markers(ctx context.Context, sess domain.Session, tripID string) ([]Marker, error) {
	if _, err := s.access.owned(ctx, sess, tripID); err != nil {
		return nil, fmt.Errorf("service.MapService.Markers: %w", err)
	}
	children, err := s.store.Children(ctx, itineraryPath(tripID), repo.Query{OrderByChild: "date"})
	if err != nil {
		return nil, fmt.Errorf("service.MapService.Markers: %w", err)
	}
	items := s.policy.FlattenItinerary(decodeItems(children))

	locations := make(map[string]string) // normalized -> as typed
	for _, it := range items {
		if key := locationKey(it.Location); key != "" {
			if _, ok := locations[key]; !ok {
				locations[key] = it.Location
			}
		}
	}

	var (
		mu     sync.Mutex
		places = make(map[string]geocode.Place, len(locations))
	)
	// Lookups queue on the geocoder's rate limiter.
	g, gctx := errgroup.WithContext(ctx)
	for key, loc := range locations {
		g.Go(func() error {
			p, found, err := s.geocoder.Search(gctx, loc)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.log.WarnContext(ctx, "geocode failed, skipping marker", "location", loc, "error", err)
				return nil
			}
			if !found {
				s.log.InfoContext(ctx, "location not found, skipping marker", "location", loc)
				return nil
			}
			mu.Lock()
			places[key] = p
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("service.MapService.Markers: %w", err)
	}

	markers := make([]Marker, 0, len(items))
	for _, it := range items {
		p, ok := places[locationKey(it.Location)]
		if !ok {
			continue
		}
		markers = append(markers, Marker{
			ItemID:   it.ID,
			Title:    it.DisplayTitle(),
			Location: it.Location,
			Date:     domain.FormatDate(it.Date),
			Category: it.Category.Info(),
			Lat:      p.Lat,
			Lon:      p.Lon,
		})
	}
	return markers, nil
}

// Locate geocodes free text for the location picker.
// Returns domain.ErrNotFound when nothing matches.
func (s *MapService) Locate(ctx context.Context, location string) (geocode.Place, error) {
	p, found, err := s.geocoder.Search(ctx, location)
	if err != nil {
		return geocode.Place{}, fmt.Errorf("service.MapService.Locate: %w", err)
	}
	if !found {
		return geocode.Place{}, fmt.Errorf("service.MapService.Locate: %w: %q", domain.ErrNotFound, location)
	}
	return p, nil
}

func locationKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
