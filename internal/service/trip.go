// Package service contains the business logic of the Wanderlust API.
// Services validate inputs, enforce ownership, and orchestrate record-store
// writes. No storage details live here; services depend on repo.RecordStore,
// not on an implementation.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkordes/wanderlust/backend/internal/domain"
	"github.com/pkordes/wanderlust/backend/internal/repo"
	"github.com/pkordes/wanderlust/backend/internal/validation"
)

// TripInput holds the fields of a trip. Dates are "YYYY-MM-DD" or empty.
type TripInput struct {
	Name        string `json:"name" validate:"notblank,max=200"`
	Destination string `json:"destination" validate:"max=200"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Notes       string `json:"notes" validate:"max=5000"`
}

// TripService implements trip CRUD for the signed-in owner.
type TripService struct {
	store    repo.RecordStore
	images   ImageHost
	validate *validation.Validator
	access   tripAccess
	log      *slog.Logger
}

// NewTripService constructs a TripService. images may be nil, in which case
// hosted photos are left behind when a trip is deleted.
func NewTripService(store repo.RecordStore, images ImageHost, v *validation.Validator, log *slog.Logger) *TripService {
	if log == nil {
		log = slog.Default()
	}
	return &TripService{store: store, images: images, validate: v, access: tripAccess{store: store}, log: log}
}

// Create validates and persists a new trip owned by sess.
func (s *TripService) Create(ctx context.Context, sess domain.Session, in TripInput) (domain.Trip, error) {
	if !sess.Authenticated() {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", domain.ErrNotAuthenticated)
	}
	if err := s.validateTrip(in); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}

	n := tripFields(in)
	n["owner"] = sess.UserID
	n["isShared"] = false
	n["createdAt"] = repo.ServerTimestamp
	for k, v := range n {
		if v == nil {
			delete(n, k)
		}
	}

	id, err := s.store.Push(ctx, tripsRoot, n)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}
	return s.Get(ctx, sess, id)
}

// Get returns one of the session's trips.
func (s *TripService) Get(ctx context.Context, sess domain.Session, id string) (domain.Trip, error) {
	trip, err := s.access.owned(ctx, sess, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Get: %w", err)
	}
	return trip, nil
}

// ListMine returns the session's trips ordered by start date, undated last.
// Always returns a non-nil slice.
func (s *TripService) ListMine(ctx context.Context, sess domain.Session) ([]domain.Trip, error) {
	if !sess.Authenticated() {
		return nil, fmt.Errorf("service.TripService.ListMine: %w", domain.ErrNotAuthenticated)
	}
	children, err := s.store.Children(ctx, tripsRoot, repo.Query{OrderByChild: "owner", EqualTo: sess.UserID})
	if err != nil {
		return nil, fmt.Errorf("service.TripService.ListMine: %w", err)
	}
	trips := make([]domain.Trip, 0, len(children))
	for _, c := range children {
		trips = append(trips, decodeTrip(c.Key, c.Value))
	}
	sortTrips(trips)
	return trips, nil
}

// Update replaces the editable fields of a trip. Empty optional fields are
// cleared. Sharing state and ownership are not editable here.
func (s *TripService) Update(ctx context.Context, sess domain.Session, id string, in TripInput) (domain.Trip, error) {
	if _, err := s.access.owned(ctx, sess, id); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}
	if err := s.validateTrip(in); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}
	if err := s.store.Update(ctx, tripPath(id), tripFields(in)); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}
	return s.Get(ctx, sess, id)
}

// Delete removes the trip with its itinerary, expenses and packing list, and
// its share link. Hosted photos are deleted best-effort afterwards.
func (s *TripService) Delete(ctx context.Context, sess domain.Session, id string) error {
	trip, err := s.access.owned(ctx, sess, id)
	if err != nil {
		return fmt.Errorf("service.TripService.Delete: %w", err)
	}

	items, err := s.store.Children(ctx, itineraryPath(id), repo.Query{})
	if err != nil {
		return fmt.Errorf("service.TripService.Delete: %w", err)
	}

	if err := s.store.Remove(ctx, tripPath(id)); err != nil {
		return fmt.Errorf("service.TripService.Delete: %w", err)
	}
	if trip.ShareToken != "" {
		if err := s.store.Remove(ctx, sharePath(trip.ShareToken)); err != nil {
			s.log.WarnContext(ctx, "remove share link failed", "trip_id", id, "error", err)
		}
	}

	if s.images == nil {
		return nil
	}
	for _, c := range items {
		for _, p := range currentExperience(c.Value).Photos {
			if p.PublicID == "" {
				continue
			}
			if err := s.images.Destroy(ctx, p.PublicID); err != nil {
				s.log.WarnContext(ctx, "delete trip photo failed", "trip_id", id, "public_id", p.PublicID, "error", err)
			}
		}
	}
	return nil
}

func (s *TripService) validateTrip(in TripInput) error {
	err := s.validate.Validate(in)
	start, startOK := domain.ParseDate(in.StartDate)
	if in.StartDate != "" && !startOK {
		err = validation.Add(err, "startDate", "must be a date as YYYY-MM-DD")
	}
	end, endOK := domain.ParseDate(in.EndDate)
	if in.EndDate != "" && !endOK {
		err = validation.Add(err, "endDate", "must be a date as YYYY-MM-DD")
	}
	if startOK && endOK && end.Before(start) {
		err = validation.Add(err, "endDate", "must not be before startDate")
	}
	return err
}

// tripFields maps the editable fields; blank optional fields map to nil.
func tripFields(in TripInput) repo.Node {
	return repo.Node{
		"name":        strings.TrimSpace(in.Name),
		"destination": optional(in.Destination),
		"startDate":   optional(in.StartDate),
		"endDate":     optional(in.EndDate),
		"notes":       optional(in.Notes),
	}
}
