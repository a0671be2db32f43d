package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkordes/wanderlust/backend/internal/aggregate"
	"github.com/pkordes/wanderlust/backend/internal/domain"
	"github.com/pkordes/wanderlust/backend/internal/realtime"
	"github.com/pkordes/wanderlust/backend/internal/repo"
	"github.com/pkordes/wanderlust/backend/internal/validation"
)

// ItemInput holds the fields of a new itinerary item.
type ItemInput struct {
	Title    string `json:"title" validate:"notblank,max=200"`
	Category string `json:"category" validate:"max=50"`
	Location string `json:"location" validate:"max=200"`
	Date     string `json:"date" validate:"required"`
	Time     string `json:"time" validate:"clock"`
	Notes    string `json:"notes" validate:"max=2000"`
}

// ItemUpdate holds the fields to change on an itinerary item; nil means
// unchanged. An empty Location, Time or Notes clears the field.
type ItemUpdate struct {
	Title    *string `json:"title" validate:"omitempty,notblank,max=200"`
	Category *string `json:"category" validate:"omitempty,max=50"`
	Location *string `json:"location" validate:"omitempty,max=200"`
	Date     *string `json:"date"`
	Time     *string `json:"time" validate:"omitempty,clock"`
	Notes    *string `json:"notes" validate:"omitempty,max=2000"`
}

// ItineraryService implements the itinerary mutator and the day-grouped view.
type ItineraryService struct {
	store    repo.RecordStore
	watcher  Watcher
	validate *validation.Validator
	policy   aggregate.Policy
	access   tripAccess
}

// NewItineraryService constructs an ItineraryService.
func NewItineraryService(store repo.RecordStore, w Watcher, v *validation.Validator, p aggregate.Policy) *ItineraryService {
	return &ItineraryService{store: store, watcher: w, validate: v, policy: p, access: tripAccess{store: store}}
}

// Create validates and stores a new itinerary item and returns its id.
// Title and date are required; time, when given, must be HH:MM.
func (s *ItineraryService) Create(ctx context.Context, sess domain.Session, tripID string, in ItemInput) (string, error) {
	if _, err := s.access.owned(ctx, sess, tripID); err != nil {
		return "", fmt.Errorf("service.ItineraryService.Create: %w", err)
	}

	err := s.validate.Validate(in)
	if _, ok := domain.ParseDate(in.Date); in.Date != "" && !ok {
		err = validation.Add(err, "date", "must be a date as YYYY-MM-DD")
	}
	if err != nil {
		return "", fmt.Errorf("service.ItineraryService.Create: %w", err)
	}

	n := repo.Node{
		"title":     strings.TrimSpace(in.Title),
		"category":  string(domain.ResolveItineraryCategory(in.Category)),
		"date":      in.Date,
		"createdAt": repo.ServerTimestamp,
	}
	for k, v := range map[string]string{"location": in.Location, "time": in.Time, "notes": in.Notes} {
		if v := optional(v); v != nil {
			n[k] = v
		}
	}

	id, err := s.store.Push(ctx, itineraryPath(tripID), n)
	if err != nil {
		return "", fmt.Errorf("service.ItineraryService.Create: %w", err)
	}
	return id, nil
}

// Update applies the non-nil fields of in to an existing item. The item's
// experience is left untouched.
// Returns domain.ErrNotFound if the item does not exist.
func (s *ItineraryService) Update(ctx context.Context, sess domain.Session, tripID, itemID string, in ItemUpdate) error {
	if _, err := s.access.owned(ctx, sess, tripID); err != nil {
		return fmt.Errorf("service.ItineraryService.Update: %w", err)
	}
	if err := checkID("itinerary item", itemID); err != nil {
		return fmt.Errorf("service.ItineraryService.Update: %w", err)
	}

	err := s.validate.Validate(in)
	fields := repo.Node{}
	if in.Title != nil {
		fields["title"] = strings.TrimSpace(*in.Title)
	}
	if in.Category != nil {
		fields["category"] = string(domain.ResolveItineraryCategory(*in.Category))
	}
	if in.Date != nil {
		if _, ok := domain.ParseDate(*in.Date); !ok {
			err = validation.Add(err, "date", "must be a date as YYYY-MM-DD")
		}
		fields["date"] = *in.Date
	}
	if in.Location != nil {
		fields["location"] = optional(*in.Location)
	}
	if in.Time != nil {
		fields["time"] = optional(*in.Time)
	}
	if in.Notes != nil {
		fields["notes"] = optional(*in.Notes)
	}
	if err != nil {
		return fmt.Errorf("service.ItineraryService.Update: %w", err)
	}
	if len(fields) == 0 {
		if _, err := s.store.Get(ctx, itemPath(tripID, itemID)); err != nil {
			return fmt.Errorf("service.ItineraryService.Update: %w", err)
		}
		return nil
	}

	if err := s.store.Update(ctx, itemPath(tripID, itemID), fields); err != nil {
		return fmt.Errorf("service.ItineraryService.Update: %w", err)
	}
	return nil
}

// Delete removes an itinerary item and its experience. Hosted photos are not
// touched; callers that need them gone use ExperienceService.RemovePhoto first.
// Deleting an absent item is not an error; removed reports whether this call
// deleted it.
func (s *ItineraryService) Delete(ctx context.Context, sess domain.Session, tripID, itemID string) (removed bool, err error) {
	if _, err := s.access.owned(ctx, sess, tripID); err != nil {
		return false, fmt.Errorf("service.ItineraryService.Delete: %w", err)
	}
	if err := checkID("itinerary item", itemID); err != nil {
		return false, nil
	}
	return removeIfPresent(ctx, s.store, itemPath(tripID, itemID), "service.ItineraryService.Delete")
}

// Get returns a single itinerary item.
func (s *ItineraryService) Get(ctx context.Context, sess domain.Session, tripID, itemID string) (domain.ItineraryItem, error) {
	if _, err := s.access.owned(ctx, sess, tripID); err != nil {
		return domain.ItineraryItem{}, fmt.Errorf("service.ItineraryService.Get: %w", err)
	}
	if err := checkID("itinerary item", itemID); err != nil {
		return domain.ItineraryItem{}, fmt.Errorf("service.ItineraryService.Get: %w", err)
	}
	n, err := s.store.Get(ctx, itemPath(tripID, itemID))
	if err != nil {
		return domain.ItineraryItem{}, fmt.Errorf("service.ItineraryService.Get: %w", err)
	}
	return decodeItem(itemID, n), nil
}

// Days returns the itinerary grouped by day.
func (s *ItineraryService) Days(ctx context.Context, sess domain.Session, tripID string) ([]aggregate.DayGroup, error) {
	if _, err := s.access.owned(ctx, sess, tripID); err != nil {
		return nil, fmt.Errorf("service.ItineraryService.Days: %w", err)
	}
	children, err := s.store.Children(ctx, itineraryPath(tripID), repo.Query{OrderByChild: "date"})
	if err != nil {
		return nil, fmt.Errorf("service.ItineraryService.Days: %w", err)
	}
	return s.policy.GroupItineraryByDay(decodeItems(children)), nil
}

// Watch delivers the day-grouped itinerary now and after every change until
// ctx ends or the subscription is closed.
func (s *ItineraryService) Watch(ctx context.Context, sess domain.Session, tripID string, fn func([]aggregate.DayGroup)) (*realtime.Subscription, error) {
	if _, err := s.access.owned(ctx, sess, tripID); err != nil {
		return nil, fmt.Errorf("service.ItineraryService.Watch: %w", err)
	}
	sub, err := s.watcher.Subscribe(ctx, itineraryPath(tripID), repo.Query{OrderByChild: "date"}, func(children []repo.Child) {
		fn(s.policy.GroupItineraryByDay(decodeItems(children)))
	})
	if err != nil {
		return nil, fmt.Errorf("service.ItineraryService.Watch: %w", err)
	}
	return sub, nil
}
