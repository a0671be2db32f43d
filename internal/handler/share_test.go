package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/wanderlust/backend/internal/domain"
	"github.com/pkordes/wanderlust/backend/internal/handler"
	"github.com/pkordes/wanderlust/backend/internal/service"
)

func sharesHandler(m *mockShareServicer) http.Handler {
	return newHTTPHandler(handler.Services{Trips: &mockTripServicer{}, Shares: m})
}

func TestEnableShare(t *testing.T) {
	svc := &mockShareServicer{
		enable: func(_ context.Context, sess domain.Session, tripID string) (string, error) {
			assert.Equal(t, testUser, sess.UserID)
			assert.Equal(t, "t1", tripID)
			return "V1StGXR8_Z5jdHi6B-myT", nil
		},
	}

	rec := do(t, sharesHandler(svc), http.MethodPost, "/trips/t1/share", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"token":"V1StGXR8_Z5jdHi6B-myT"}`, rec.Body.String())
}

func TestDisableShare(t *testing.T) {
	called := false
	svc := &mockShareServicer{
		disable: func(context.Context, domain.Session, string) error {
			called = true
			return nil
		},
	}

	rec := do(t, sharesHandler(svc), http.MethodDelete, "/trips/t1/share", nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, called)
}

func TestViewSharedTrip_Anonymous(t *testing.T) {
	trip := tripFixture()
	trip.IsShared, trip.ShareToken = true, "tok"
	svc := &mockShareServicer{
		view: func(_ context.Context, token string) (service.SharedTrip, error) {
			assert.Equal(t, "tok", token)
			return service.SharedTrip{
				Trip:      trip,
				Itinerary: []domain.ItineraryItem{{ID: "i1", Title: "Flight", Category: domain.CategoryFlight}},
			}, nil
		},
	}

	rec := doAnonymous(t, sharesHandler(svc), http.MethodGet, "/share/tok", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[struct {
		Trip      tripBody `json:"trip"`
		Itinerary []struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"itinerary"`
	}](t, rec)
	assert.Equal(t, trip.Name, resp.Trip.Name)
	assert.Empty(t, resp.Trip.ShareToken, "the token is not echoed to viewers")
	require.Len(t, resp.Itinerary, 1)
	assert.Equal(t, "Flight", resp.Itinerary[0].Title)
}

func TestViewSharedTrip_404(t *testing.T) {
	svc := &mockShareServicer{
		view: func(context.Context, string) (service.SharedTrip, error) {
			return service.SharedTrip{}, fmt.Errorf("service.ShareService.View: %w: trip is not shared", domain.ErrNotFound)
		},
	}

	rec := doAnonymous(t, sharesHandler(svc), http.MethodGet, "/share/revoked", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not found: trip is not shared", decode[errorBody](t, rec).Error.Message)
}
