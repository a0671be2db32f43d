package service

import (
	"context"
	"fmt"
	"log/slog"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/pkordes/wanderlust/backend/internal/aggregate"
	"github.com/pkordes/wanderlust/backend/internal/domain"
	"github.com/pkordes/wanderlust/backend/internal/repo"
)

// shareTokenLength gives ~126 bits of entropy with the default alphabet.
const shareTokenLength = 21

// SharedTrip is the read-only view of a shared trip.
type SharedTrip struct {
	Trip      domain.Trip
	Itinerary []domain.ItineraryItem
}

// ShareService publishes trips through unguessable read-only links.
type ShareService struct {
	store  repo.RecordStore
	policy aggregate.Policy
	access tripAccess
	log    *slog.Logger
}

// NewShareService constructs a ShareService.
func NewShareService(store repo.RecordStore, p aggregate.Policy, log *slog.Logger) *ShareService {
	if log == nil {
		log = slog.Default()
	}
	return &ShareService{store: store, policy: p, access: tripAccess{store: store}, log: log}
}

// Enable marks the trip shared and returns its share token. A trip that is
// already shared keeps its token.
func (s *ShareService) Enable(ctx context.Context, sess domain.Session, tripID string) (string, error) {
	trip, err := s.access.owned(ctx, sess, tripID)
	if err != nil {
		return "", fmt.Errorf("service.ShareService.Enable: %w", err)
	}
	if trip.IsShared && trip.ShareToken != "" {
		return trip.ShareToken, nil
	}

	token, err := gonanoid.New(shareTokenLength)
	if err != nil {
		return "", fmt.Errorf("service.ShareService.Enable: token: %w", err)
	}
	// The default alphabet is URL and path safe.
	if err := s.store.Set(ctx, sharePath(token), repo.Node{"tripId": tripID}); err != nil {
		return "", fmt.Errorf("service.ShareService.Enable: %w", err)
	}
	if err := s.store.Update(ctx, tripPath(tripID), repo.Node{"isShared": true, "shareToken": token}); err != nil {
		return "", fmt.Errorf("service.ShareService.Enable: %w", err)
	}
	if trip.ShareToken != "" {
		if err := s.store.Remove(ctx, sharePath(trip.ShareToken)); err != nil {
			s.log.WarnContext(ctx, "remove stale share link failed", "trip_id", tripID, "error", err)
		}
	}
	return token, nil
}

// Disable revokes the trip's share link. Disabling an unshared trip is a no-op.
func (s *ShareService) Disable(ctx context.Context, sess domain.Session, tripID string) error {
	trip, err := s.access.owned(ctx, sess, tripID)
	if err != nil {
		return fmt.Errorf("service.ShareService.Disable: %w", err)
	}
	if err := s.store.Update(ctx, tripPath(tripID), repo.Node{"isShared": false, "shareToken": nil}); err != nil {
		return fmt.Errorf("service.ShareService.Disable: %w", err)
	}
	if trip.ShareToken != "" {
		if err := s.store.Remove(ctx, sharePath(trip.ShareToken)); err != nil {
			return fmt.Errorf("service.ShareService.Disable: %w", err)
		}
	}
	return nil
}

// View returns the shared trip for token. No session is needed. Unknown or
// revoked tokens return domain.ErrNotFound.
func (s *ShareService) View(ctx context.Context, token string) (SharedTrip, error) {
	if err := checkID("share token", token); err != nil {
		return SharedTrip{}, fmt.Errorf("service.ShareService.View: %w", err)
	}
	link, err := s.store.Get(ctx, sharePath(token))
	if err != nil {
		return SharedTrip{}, fmt.Errorf("service.ShareService.View: %w", err)
	}
	tripID := str(link, "tripId")
	if err := checkID("trip", tripID); err != nil {
		return SharedTrip{}, fmt.Errorf("service.ShareService.View: %w", err)
	}

	n, err := s.store.Get(ctx, tripPath(tripID))
	if err != nil {
		return SharedTrip{}, fmt.Errorf("service.ShareService.View: %w", err)
	}
	trip := decodeTrip(tripID, n)
	if !trip.IsShared || trip.ShareToken != token {
		return SharedTrip{}, fmt.Errorf("service.ShareService.View: %w: trip is not shared", domain.ErrNotFound)
	}

	children, err := s.store.Children(ctx, itineraryPath(tripID), repo.Query{OrderByChild: "date"})
	if err != nil {
		return SharedTrip{}, fmt.Errorf("service.ShareService.View: %w", err)
	}
	return SharedTrip{Trip: trip, Itinerary: s.policy.FlattenItinerary(decodeItems(children))}, nil
}
