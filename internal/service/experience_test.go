package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/wanderlust/backend/internal/domain"
	"github.com/pkordes/wanderlust/backend/internal/repo"
	"github.com/pkordes/wanderlust/backend/internal/service"
	"github.com/pkordes/wanderlust/backend/internal/validation"
)

func itemNode(t *testing.T, e *env, tripID, itemID string) repo.Node {
	t.Helper()
	n, err := e.store.Get(context.Background(), repo.Join("trips", tripID, "itinerary", itemID))
	require.NoError(t, err)
	return n
}

func TestExperienceService_SetExperience(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tripID := e.newTrip(t, service.TripInput{})
	itemID := e.newItem(t, tripID, service.ItemInput{})

	exp, err := e.experience.SetExperience(ctx, owner, tripID, itemID, service.ExperienceInput{Rating: 9, Journal: "Loved it"})
	require.NoError(t, err)
	require.NotNil(t, exp)
	assert.Equal(t, domain.MaxRating, exp.Rating, "rating is clamped")
	assert.Equal(t, "Loved it", exp.Journal)

	item, err := e.itinerary.Get(ctx, owner, tripID, itemID)
	require.NoError(t, err)
	require.NotNil(t, item.Experience)
	assert.Equal(t, 5, item.Experience.Rating)
}

// An experience with nothing in it is removed, not stored as an empty object.
func TestExperienceService_SetExperience_EmptyRemovesNode(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tripID := e.newTrip(t, service.TripInput{})
	itemID := e.newItem(t, tripID, service.ItemInput{})

	_, err := e.experience.SetExperience(ctx, owner, tripID, itemID, service.ExperienceInput{Rating: 3, Journal: "ok"})
	require.NoError(t, err)
	require.Contains(t, itemNode(t, e, tripID, itemID), "experience")

	exp, err := e.experience.SetExperience(ctx, owner, tripID, itemID, service.ExperienceInput{Rating: 0, Journal: ""})
	require.NoError(t, err)
	assert.Nil(t, exp)
	assert.NotContains(t, itemNode(t, e, tripID, itemID), "experience")
}

func TestExperienceService_SetExperience_EmptyOnFreshItem(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tripID := e.newTrip(t, service.TripInput{})
	itemID := e.newItem(t, tripID, service.ItemInput{})

	exp, err := e.experience.SetExperience(ctx, owner, tripID, itemID, service.ExperienceInput{})
	require.NoError(t, err)
	assert.Nil(t, exp)
	assert.NotContains(t, itemNode(t, e, tripID, itemID), "experience")
	assert.Equal(t, "Castle visit", itemNode(t, e, tripID, itemID)["title"], "the item itself is untouched")
}

func TestExperienceService_SetExperience_KeepsPhotos(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tripID := e.newTrip(t, service.TripInput{})
	itemID := e.newItem(t, tripID, service.ItemInput{})

	added, err := e.experience.AddPhotos(ctx, owner, tripID, itemID, images(1))
	require.NoError(t, err)

	exp, err := e.experience.SetExperience(ctx, owner, tripID, itemID, service.ExperienceInput{})
	require.NoError(t, err)
	require.NotNil(t, exp, "photos keep the experience alive")
	assert.Len(t, exp.Photos, len(added))
}

func TestExperienceService_SetExperience_Errors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tripID := e.newTrip(t, service.TripInput{})
	itemID := e.newItem(t, tripID, service.ItemInput{})

	_, err := e.experience.SetExperience(ctx, owner, tripID, "missing", service.ExperienceInput{Rating: 2})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = e.store.Get(ctx, repo.Join("trips", tripID, "itinerary", "missing"))
	assert.ErrorIs(t, err, domain.ErrNotFound, "no item is created for a missing id")

	_, err = e.experience.SetExperience(ctx, stranger, tripID, itemID, service.ExperienceInput{Rating: 2})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = e.experience.SetExperience(ctx, owner, tripID, itemID, service.ExperienceInput{Journal: strings.Repeat("x", 10001)})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// ---- photos ----------------------------------------------------------------

func TestExperienceService_AddPhotos(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tripID := e.newTrip(t, service.TripInput{})
	itemID := e.newItem(t, tripID, service.ItemInput{})

	added, err := e.experience.AddPhotos(ctx, owner, tripID, itemID, images(3))
	require.NoError(t, err)
	require.Len(t, added, 3)

	item, err := e.itinerary.Get(ctx, owner, tripID, itemID)
	require.NoError(t, err)
	require.NotNil(t, item.Experience)
	assert.Equal(t, added, item.Experience.Photos)

	publicIDs := []string{}
	for _, p := range added {
		publicIDs = append(publicIDs, p.PublicID)
	}
	assert.ElementsMatch(t, []string{"hosted/img1", "hosted/img2", "hosted/img3"}, publicIDs)
}

func TestExperienceService_AddPhotos_UploadFailureDiscards(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tripID := e.newTrip(t, service.TripInput{})
	itemID := e.newItem(t, tripID, service.ItemInput{})

	host := &mockImageHost{
		upload: func(_ context.Context, image string) (domain.Photo, error) {
			if image == "img2" {
				return domain.Photo{}, errors.New("boom")
			}
			return domain.Photo{URL: "u/" + image, PublicID: "p/" + image}, nil
		},
	}
	svc := service.NewExperienceService(e.store, host, validation.New(), nil)

	_, err := svc.AddPhotos(ctx, owner, tripID, itemID, images(2))
	require.Error(t, err)

	assert.NotContains(t, itemNode(t, e, tripID, itemID), "experience", "nothing is attached")
	for _, id := range host.Destroyed() {
		assert.Equal(t, "p/img1", id, "only the upload that succeeded is cleaned up")
	}
}

func TestExperienceService_AddPhotos_Errors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tripID := e.newTrip(t, service.TripInput{})
	itemID := e.newItem(t, tripID, service.ItemInput{})

	_, err := e.experience.AddPhotos(ctx, owner, tripID, itemID, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = e.experience.AddPhotos(ctx, owner, tripID, "missing", images(1))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = e.experience.AddPhotos(ctx, nobody, tripID, itemID, images(1))
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestExperienceService_RemovePhoto(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tripID := e.newTrip(t, service.TripInput{})
	itemID := e.newItem(t, tripID, service.ItemInput{})

	added, err := e.experience.AddPhotos(ctx, owner, tripID, itemID, images(2))
	require.NoError(t, err)

	var first string
	for id := range added {
		first = id
		break
	}
	require.NoError(t, e.experience.RemovePhoto(ctx, owner, tripID, itemID, first))
	assert.Equal(t, []string{added[first].PublicID}, e.images.Destroyed())

	item, err := e.itinerary.Get(ctx, owner, tripID, itemID)
	require.NoError(t, err)
	require.NotNil(t, item.Experience)
	assert.Len(t, item.Experience.Photos, 1)
	assert.NotContains(t, item.Experience.Photos, first)
}

func TestExperienceService_RemovePhoto_LastPhotoRemovesExperience(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tripID := e.newTrip(t, service.TripInput{})
	itemID := e.newItem(t, tripID, service.ItemInput{})

	added, err := e.experience.AddPhotos(ctx, owner, tripID, itemID, images(1))
	require.NoError(t, err)
	for id := range added {
		require.NoError(t, e.experience.RemovePhoto(ctx, owner, tripID, itemID, id))
	}

	assert.NotContains(t, itemNode(t, e, tripID, itemID), "experience")
}

func TestExperienceService_RemovePhoto_Errors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tripID := e.newTrip(t, service.TripInput{})
	itemID := e.newItem(t, tripID, service.ItemInput{})

	err := e.experience.RemovePhoto(ctx, owner, tripID, itemID, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	added, err := e.experience.AddPhotos(ctx, owner, tripID, itemID, images(1))
	require.NoError(t, err)

	host := &mockImageHost{destroy: func(context.Context, string) error { return domain.ErrTransport }}
	svc := service.NewExperienceService(e.store, host, validation.New(), nil)
	for id := range added {
		err := svc.RemovePhoto(ctx, owner, tripID, itemID, id)
		assert.ErrorIs(t, err, domain.ErrTransport)
	}

	item, err := e.itinerary.Get(ctx, owner, tripID, itemID)
	require.NoError(t, err)
	require.NotNil(t, item.Experience)
	assert.Len(t, item.Experience.Photos, 1, "a failed destroy keeps the photo attached")
}

func TestExperienceService_NoImageHost(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tripID := e.newTrip(t, service.TripInput{})
	itemID := e.newItem(t, tripID, service.ItemInput{})
	svc := service.NewExperienceService(e.store, nil, validation.New(), nil)

	_, err := svc.AddPhotos(ctx, owner, tripID, itemID, images(1))
	assert.ErrorIs(t, err, domain.ErrTransport)

	exp, err := svc.SetExperience(ctx, owner, tripID, itemID, service.ExperienceInput{Rating: 4})
	require.NoError(t, err, "rating and journal work without an image host")
	assert.Equal(t, 4, exp.Rating)
}
