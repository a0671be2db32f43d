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

// PackingInput holds the fields of a new packing item. A blank category
// becomes "other".
type PackingInput struct {
	Name     string `json:"name" validate:"notblank,max=200"`
	Category string `json:"category" validate:"max=100"`
}

// PackingUpdate holds the fields to change; nil means unchanged.
type PackingUpdate struct {
	Name     *string `json:"name" validate:"omitempty,notblank,max=200"`
	Category *string `json:"category" validate:"omitempty,max=100"`
	Packed   *bool   `json:"packed"`
}

// PackingService implements the packing-list mutator and its grouped view.
type PackingService struct {
	store    repo.RecordStore
	watcher  Watcher
	validate *validation.Validator
	access   tripAccess
}

// NewPackingService constructs a PackingService.
func NewPackingService(store repo.RecordStore, w Watcher, v *validation.Validator) *PackingService {
	return &PackingService{store: store, watcher: w, validate: v, access: tripAccess{store: store}}
}

// Create stores a new unpacked item and returns its id.
func (s *PackingService) Create(ctx context.Context, sess domain.Session, tripID string, in PackingInput) (string, error) {
	if _, err := s.access.owned(ctx, sess, tripID); err != nil {
		return "", fmt.Errorf("service.PackingService.Create: %w", err)
	}
	if err := s.validate.Validate(in); err != nil {
		return "", fmt.Errorf("service.PackingService.Create: %w", err)
	}

	id, err := s.store.Push(ctx, packingPath(tripID), repo.Node{
		"name":     strings.TrimSpace(in.Name),
		"category": domain.NormalizePackingCategory(in.Category),
		"packed":   false,
	})
	if err != nil {
		return "", fmt.Errorf("service.PackingService.Create: %w", err)
	}
	return id, nil
}

// Update applies the non-nil fields of in.
// Returns domain.ErrNotFound if the item does not exist.
func (s *PackingService) Update(ctx context.Context, sess domain.Session, tripID, itemID string, in PackingUpdate) error {
	if _, err := s.access.owned(ctx, sess, tripID); err != nil {
		return fmt.Errorf("service.PackingService.Update: %w", err)
	}
	if err := checkID("packing item", itemID); err != nil {
		return fmt.Errorf("service.PackingService.Update: %w", err)
	}
	if err := s.validate.Validate(in); err != nil {
		return fmt.Errorf("service.PackingService.Update: %w", err)
	}

	fields := repo.Node{}
	if in.Name != nil {
		fields["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Category != nil {
		fields["category"] = domain.NormalizePackingCategory(*in.Category)
	}
	if in.Packed != nil {
		fields["packed"] = *in.Packed
	}
	if len(fields) == 0 {
		if _, err := s.store.Get(ctx, packingItemPath(tripID, itemID)); err != nil {
			return fmt.Errorf("service.PackingService.Update: %w", err)
		}
		return nil
	}

	if err := s.store.Update(ctx, packingItemPath(tripID, itemID), fields); err != nil {
		return fmt.Errorf("service.PackingService.Update: %w", err)
	}
	return nil
}

// SetPacked sets only the packed flag, the checklist toggle.
func (s *PackingService) SetPacked(ctx context.Context, sess domain.Session, tripID, itemID string, packed bool) error {
	if err := s.Update(ctx, sess, tripID, itemID, PackingUpdate{Packed: &packed}); err != nil {
		return fmt.Errorf("service.PackingService.SetPacked: %w", err)
	}
	return nil
}

// Delete removes a packing item; removing an absent item is not an error.
func (s *PackingService) Delete(ctx context.Context, sess domain.Session, tripID, itemID string) (removed bool, err error) {
	if _, err := s.access.owned(ctx, sess, tripID); err != nil {
		return false, fmt.Errorf("service.PackingService.Delete: %w", err)
	}
	if err := checkID("packing item", itemID); err != nil {
		return false, nil
	}
	return removeIfPresent(ctx, s.store, packingItemPath(tripID, itemID), "service.PackingService.Delete")
}

// Summary returns the packing list grouped by category.
func (s *PackingService) Summary(ctx context.Context, sess domain.Session, tripID string) (aggregate.PackingSummary, error) {
	if _, err := s.access.owned(ctx, sess, tripID); err != nil {
		return aggregate.PackingSummary{}, fmt.Errorf("service.PackingService.Summary: %w", err)
	}
	children, err := s.store.Children(ctx, packingPath(tripID), repo.Query{})
	if err != nil {
		return aggregate.PackingSummary{}, fmt.Errorf("service.PackingService.Summary: %w", err)
	}
	return aggregate.GroupPackingByCategory(decodePackingItems(children)), nil
}

// Watch delivers the grouped packing list now and after every change.
func (s *PackingService) Watch(ctx context.Context, sess domain.Session, tripID string, fn func(aggregate.PackingSummary)) (*realtime.Subscription, error) {
	if _, err := s.access.owned(ctx, sess, tripID); err != nil {
		return nil, fmt.Errorf("service.PackingService.Watch: %w", err)
	}
	sub, err := s.watcher.Subscribe(ctx, packingPath(tripID), repo.Query{}, func(children []repo.Child) {
		fn(aggregate.GroupPackingByCategory(decodePackingItems(children)))
	})
	if err != nil {
		return nil, fmt.Errorf("service.PackingService.Watch: %w", err)
	}
	return sub, nil
}
