package service

import (
	"context"
	"fmt"

	"github.com/pkordes/wanderlust/backend/internal/domain"
	"github.com/pkordes/wanderlust/backend/internal/repo"
)

// tripAccess resolves a trip for a session. Every trip-scoped operation goes
// through it, so reads and writes share one ownership rule.
type tripAccess struct {
	store repo.RecordStore
}

// owned returns the trip when sess is signed in and owns it.
// Returns domain.ErrNotAuthenticated, domain.ErrNotFound or domain.ErrForbidden.
func (a tripAccess) owned(ctx context.Context, sess domain.Session, tripID string) (domain.Trip, error) {
	if !sess.Authenticated() {
		return domain.Trip{}, domain.ErrNotAuthenticated
	}
	if err := checkID("trip", tripID); err != nil {
		return domain.Trip{}, err
	}
	n, err := a.store.Get(ctx, tripPath(tripID))
	if err != nil {
		return domain.Trip{}, err
	}
	trip := decodeTrip(tripID, n)
	if trip.Owner != sess.UserID {
		return domain.Trip{}, fmt.Errorf("%w: trip %s", domain.ErrForbidden, tripID)
	}
	return trip, nil
}
