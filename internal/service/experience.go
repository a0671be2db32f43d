package service

import (
	"context"
	"fmt"
	"log/slog"
	"maps"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pkordes/wanderlust/backend/internal/domain"
	"github.com/pkordes/wanderlust/backend/internal/repo"
	"github.com/pkordes/wanderlust/backend/internal/validation"
)

// maxConcurrentUploads bounds parallel requests to the image host.
const maxConcurrentUploads = 4

// ImageHost stores photo files. *imagehost.Client implements it.
type ImageHost interface {
	Upload(ctx context.Context, image string) (domain.Photo, error)
	Destroy(ctx context.Context, publicID string) error
}

var errNoImageHost = fmt.Errorf("%w: image hosting is not configured", domain.ErrTransport)

// ExperienceInput is the retrospective an owner writes for an itinerary item.
// Photos are managed separately with AddPhotos and RemovePhoto.
type ExperienceInput struct {
	Rating  int    `json:"rating"`
	Journal string `json:"journal" validate:"max=10000"`
}

// ExperienceService edits the experience embedded in an itinerary item.
// Every change is a single store Transform on the item, so concurrent edits of
// rating, journal and photos never overwrite one another.
type ExperienceService struct {
	store    repo.RecordStore
	images   ImageHost
	validate *validation.Validator
	access   tripAccess
	log      *slog.Logger
}

// NewExperienceService constructs an ExperienceService. images may be nil,
// in which case AddPhotos and RemovePhoto fail with domain.ErrTransport.
func NewExperienceService(store repo.RecordStore, images ImageHost, v *validation.Validator, log *slog.Logger) *ExperienceService {
	if log == nil {
		log = slog.Default()
	}
	return &ExperienceService{store: store, images: images, validate: v, access: tripAccess{store: store}, log: log}
}

// SetExperience stores rating (clamped to [0, 5]) and journal, keeping any
// photos already attached. When the result has no rating, no journal and no
// photos the experience is deleted rather than stored empty, and nil is
// returned.
func (s *ExperienceService) SetExperience(ctx context.Context, sess domain.Session, tripID, itemID string, in ExperienceInput) (*domain.Experience, error) {
	if _, err := s.access.owned(ctx, sess, tripID); err != nil {
		return nil, fmt.Errorf("service.ExperienceService.SetExperience: %w", err)
	}
	if err := checkID("itinerary item", itemID); err != nil {
		return nil, fmt.Errorf("service.ExperienceService.SetExperience: %w", err)
	}
	if err := s.validate.Validate(in); err != nil {
		return nil, fmt.Errorf("service.ExperienceService.SetExperience: %w", err)
	}

	var result *domain.Experience
	err := s.store.Transform(ctx, itemPath(tripID, itemID), func(cur repo.Node, exists bool) (repo.Node, error) {
		if !exists {
			return nil, domain.ErrNotFound
		}
		exp := currentExperience(cur)
		exp.Rating = domain.ClampRating(in.Rating)
		exp.Journal = in.Journal
		result = putExperience(cur, exp)
		return cur, nil
	})
	if err != nil {
		return nil, fmt.Errorf("service.ExperienceService.SetExperience: %w", err)
	}
	return result, nil
}

// AddPhotos uploads base64 images concurrently and attaches them to the
// item's experience in one Transform. Returns the new photos keyed by photo id.
// If any upload fails nothing is attached and the images that did upload are
// deleted again.
func (s *ExperienceService) AddPhotos(ctx context.Context, sess domain.Session, tripID, itemID string, images []string) (map[string]domain.Photo, error) {
	if _, err := s.access.owned(ctx, sess, tripID); err != nil {
		return nil, fmt.Errorf("service.ExperienceService.AddPhotos: %w", err)
	}
	if err := checkID("itinerary item", itemID); err != nil {
		return nil, fmt.Errorf("service.ExperienceService.AddPhotos: %w", err)
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("service.ExperienceService.AddPhotos: %w", validation.Field("images", "is required"))
	}
	if s.images == nil {
		return nil, fmt.Errorf("service.ExperienceService.AddPhotos: %w", errNoImageHost)
	}
	if _, err := s.store.Get(ctx, itemPath(tripID, itemID)); err != nil {
		return nil, fmt.Errorf("service.ExperienceService.AddPhotos: %w", err)
	}

	uploaded := make([]domain.Photo, len(images))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentUploads)
	for i, img := range images {
		g.Go(func() error {
			p, err := s.images.Upload(gctx, img)
			if err != nil {
				return fmt.Errorf("photo %d: %w", i+1, err)
			}
			uploaded[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.discard(ctx, uploaded)
		return nil, fmt.Errorf("service.ExperienceService.AddPhotos: %w", err)
	}

	added := make(map[string]domain.Photo, len(uploaded))
	for _, p := range uploaded {
		id, err := uuid.NewV7()
		if err != nil {
			s.discard(ctx, uploaded)
			return nil, fmt.Errorf("service.ExperienceService.AddPhotos: photo id: %w", err)
		}
		added[id.String()] = p
	}

	err := s.store.Transform(ctx, itemPath(tripID, itemID), func(cur repo.Node, exists bool) (repo.Node, error) {
		if !exists {
			return nil, domain.ErrNotFound
		}
		exp := currentExperience(cur)
		if exp.Photos == nil {
			exp.Photos = make(map[string]domain.Photo, len(added))
		}
		maps.Copy(exp.Photos, added)
		putExperience(cur, exp)
		return cur, nil
	})
	if err != nil {
		s.discard(ctx, uploaded)
		return nil, fmt.Errorf("service.ExperienceService.AddPhotos: %w", err)
	}
	return added, nil
}

// RemovePhoto deletes the hosted image, then detaches it from the experience.
// The experience is deleted when nothing else is left in it.
// Returns domain.ErrNotFound if the item or photo does not exist.
func (s *ExperienceService) RemovePhoto(ctx context.Context, sess domain.Session, tripID, itemID, photoID string) error {
	if _, err := s.access.owned(ctx, sess, tripID); err != nil {
		return fmt.Errorf("service.ExperienceService.RemovePhoto: %w", err)
	}
	if err := checkID("itinerary item", itemID); err != nil {
		return fmt.Errorf("service.ExperienceService.RemovePhoto: %w", err)
	}

	n, err := s.store.Get(ctx, itemPath(tripID, itemID))
	if err != nil {
		return fmt.Errorf("service.ExperienceService.RemovePhoto: %w", err)
	}
	photo, ok := currentExperience(n).Photos[photoID]
	if !ok {
		return fmt.Errorf("service.ExperienceService.RemovePhoto: %w: photo %s", domain.ErrNotFound, photoID)
	}
	if photo.PublicID != "" {
		if s.images == nil {
			return fmt.Errorf("service.ExperienceService.RemovePhoto: %w", errNoImageHost)
		}
		if err := s.images.Destroy(ctx, photo.PublicID); err != nil {
			return fmt.Errorf("service.ExperienceService.RemovePhoto: %w", err)
		}
	}

	err = s.store.Transform(ctx, itemPath(tripID, itemID), func(cur repo.Node, exists bool) (repo.Node, error) {
		if !exists {
			return nil, domain.ErrNotFound
		}
		exp := currentExperience(cur)
		delete(exp.Photos, photoID)
		putExperience(cur, exp)
		return cur, nil
	})
	if err != nil {
		return fmt.Errorf("service.ExperienceService.RemovePhoto: %w", err)
	}
	return nil
}

// discard deletes uploaded images that will not be attached.
func (s *ExperienceService) discard(ctx context.Context, photos []domain.Photo) {
	for _, p := range photos {
		if p.PublicID == "" {
			continue
		}
		if err := s.images.Destroy(context.WithoutCancel(ctx), p.PublicID); err != nil {
			s.log.WarnContext(ctx, "discard uploaded photo failed", "public_id", p.PublicID, "error", err)
		}
	}
}

func currentExperience(item repo.Node) domain.Experience {
	raw, ok := item["experience"].(map[string]any)
	if !ok {
		return domain.Experience{}
	}
	return decodeExperience(repo.Node(raw))
}

// putExperience writes exp into item, or deletes the field when exp is empty.
// It returns the stored experience, nil when deleted.
func putExperience(item repo.Node, exp domain.Experience) *domain.Experience {
	if exp.Empty() {
		delete(item, "experience")
		return nil
	}
	item["experience"] = map[string]any(encodeExperience(exp))
	return &exp
}
