package service

import (
	"context"
	"fmt"

	"github.com/pkordes/wanderlust/backend/internal/aggregate"
	"github.com/pkordes/wanderlust/backend/internal/domain"
	"github.com/pkordes/wanderlust/backend/internal/repo"
)

// ExportService assembles a flat export of all of a user's trips.
type ExportService struct {
	store  repo.RecordStore
	trips  *TripService
	policy aggregate.Policy
}

// NewExportService constructs an ExportService.
func NewExportService(store repo.RecordStore, trips *TripService, p aggregate.Policy) *ExportService {
	return &ExportService{store: store, trips: trips, policy: p}
}

// Export returns one ExportRow per itinerary item across the session's trips,
// in trip order then itinerary order. Trips with no items contribute one row
// with empty item fields. Every row carries its trip's expense total.
func (s *ExportService) Export(ctx context.Context, sess domain.Session) ([]domain.ExportRow, error) {
	trips, err := s.trips.ListMine(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.Export: %w", err)
	}

	rows := []domain.ExportRow{}
	for _, trip := range trips {
		itemChildren, err := s.store.Children(ctx, itineraryPath(trip.ID), repo.Query{OrderByChild: "date"})
		if err != nil {
			return nil, fmt.Errorf("service.ExportService.Export: %w", err)
		}
		expenseChildren, err := s.store.Children(ctx, expensesPath(trip.ID), repo.Query{})
		if err != nil {
			return nil, fmt.Errorf("service.ExportService.Export: %w", err)
		}
		total := s.policy.SummarizeExpenses(decodeExpenses(expenseChildren)).Total

		base := domain.ExportRow{
			TripID:          trip.ID,
			TripName:        trip.DisplayName(),
			TripDestination: trip.Destination,
			TripStartDate:   domain.FormatDate(trip.StartDate),
			TripEndDate:     domain.FormatDate(trip.EndDate),
			TripTotal:       total,
		}

		items := s.policy.FlattenItinerary(decodeItems(itemChildren))
		if len(items) == 0 {
			rows = append(rows, base)
			continue
		}
		for _, it := range items {
			row := base
			row.ItemTitle = it.DisplayTitle()
			row.ItemCategory = string(it.Category)
			row.ItemLocation = it.Location
			row.ItemDate = domain.FormatDate(it.Date)
			row.ItemTime = it.Time
			row.ItemNotes = it.Notes
			if it.Experience != nil {
				row.Rating = it.Experience.Rating
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}
