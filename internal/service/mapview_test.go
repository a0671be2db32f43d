package service_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/wanderlust/backend/internal/aggregate"
	"github.com/pkordes/wanderlust/backend/internal/clients/geocode"
	"github.com/pkordes/wanderlust/backend/internal/domain"
	"github.com/pkordes/wanderlust/backend/internal/service"
)

func TestMapService_Markers(t *testing.T) {
	e := newEnv(t)
	tripID := e.newTrip(t, validTrip())
	e.newItem(t, tripID, service.ItemInput{Title: "Castle", Category: "activity", Location: "Castelo de S. Jorge", Date: "2025-06-02"})
	e.newItem(t, tripID, service.ItemInput{Title: "Flight", Category: "flight", Location: "LIS", Date: "2025-06-01"})
	e.newItem(t, tripID, service.ItemInput{Title: "Dinner", Category: "dining", Location: "castelo de s.  jorge", Date: "2025-06-02", Time: "20:00"})
	e.newItem(t, tripID, service.ItemInput{Title: "Nowhere", Location: "Atlantis", Date: "2025-06-03"})
	e.newItem(t, tripID, service.ItemInput{Title: "Nap", Date: "2025-06-03"})

	var calls atomic.Int32
	geo := &mockGeocoder{
		search: func(_ context.Context, location string) (geocode.Place, bool, error) {
			calls.Add(1)
			switch location {
			case "LIS":
				return geocode.Place{Lat: 38.77, Lon: -9.13}, true, nil
			case "Castelo de S. Jorge", "castelo de s.  jorge":
				return geocode.Place{Lat: 38.71, Lon: -9.13}, true, nil
			}
			return geocode.Place{}, false, nil
		},
	}
	svc := service.NewMapService(e.store, geo, aggregate.DefaultPolicy, nil)

	markers, err := svc.Markers(context.Background(), owner, tripID)
	require.NoError(t, err)

	titles := make([]string, len(markers))
	for i, m := range markers {
		titles[i] = m.Title
	}
	assert.Equal(t, []string{"Flight", "Castle", "Dinner"}, titles, "itinerary order, unresolved and empty locations skipped")
	assert.Equal(t, int32(3), calls.Load(), "each distinct location is geocoded once")
	assert.Equal(t, "blue", markers[0].Category.Color)
	assert.Equal(t, "2025-06-01", markers[0].Date)
	assert.InDelta(t, 38.71, markers[1].Lat, 1e-9)
}

func TestMapService_Markers_GeocodeFailureSkips(t *testing.T) {
	e := newEnv(t)
	tripID := e.newTrip(t, validTrip())
	e.newItem(t, tripID, service.ItemInput{Location: "LIS"})

	geo := &mockGeocoder{
		search: func(context.Context, string) (geocode.Place, bool, error) {
			return geocode.Place{}, false, domain.ErrTransport
		},
	}
	svc := service.NewMapService(e.store, geo, aggregate.DefaultPolicy, nil)

	markers, err := svc.Markers(context.Background(), owner, tripID)
	require.NoError(t, err)
	assert.Empty(t, markers)
}

func TestMapService_Locate(t *testing.T) {
	geo := placesGeocoder(map[string]geocode.Place{"Porto": {Lat: 41.15, Lon: -8.61}})
	svc := service.NewMapService(nil, geo, aggregate.DefaultPolicy, nil)

	p, err := svc.Locate(context.Background(), "Porto")
	require.NoError(t, err)
	assert.InDelta(t, 41.15, p.Lat, 1e-9)

	_, err = svc.Locate(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
