package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pkordes/wanderlust/backend/internal/aggregate"
	"github.com/pkordes/wanderlust/backend/internal/clients/geocode"
	"github.com/pkordes/wanderlust/backend/internal/clients/weather"
	"github.com/pkordes/wanderlust/backend/internal/domain"
	"github.com/pkordes/wanderlust/backend/internal/realtime"
	"github.com/pkordes/wanderlust/backend/internal/repo"
	"github.com/pkordes/wanderlust/backend/internal/service"
	"github.com/pkordes/wanderlust/backend/internal/validation"
)

// mockImageHost is a hand-written test double for service.ImageHost.
// Each method is a function field; set only the ones your test needs.
type mockImageHost struct {
	upload  func(ctx context.Context, image string) (domain.Photo, error)
	destroy func(ctx context.Context, publicID string) error

	mu        sync.Mutex
	destroyed []string
}

func (m *mockImageHost) Upload(ctx context.Context, image string) (domain.Photo, error) {
	return m.upload(ctx, image)
}

func (m *mockImageHost) Destroy(ctx context.Context, publicID string) error {
	m.mu.Lock()
	m.destroyed = append(m.destroyed, publicID)
	m.mu.Unlock()
	if m.destroy == nil {
		return nil
	}
	return m.destroy(ctx, publicID)
}

func (m *mockImageHost) Destroyed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.destroyed...)
}

// compile-time check: mockImageHost must satisfy service.ImageHost.
var _ service.ImageHost = (*mockImageHost)(nil)

// echoImageHost uploads every image as "hosted/<image>".
func echoImageHost() *mockImageHost {
	return &mockImageHost{
		upload: func(_ context.Context, image string) (domain.Photo, error) {
			return domain.Photo{URL: "https://img.example/" + image, PublicID: "hosted/" + image}, nil
		},
	}
}

type mockGeocoder struct {
	search func(ctx context.Context, location string) (geocode.Place, bool, error)
}

func (m *mockGeocoder) Search(ctx context.Context, location string) (geocode.Place, bool, error) {
	return m.search(ctx, location)
}

var _ service.Geocoder = (*mockGeocoder)(nil)

// placesGeocoder resolves the given locations and reports everything else as
// not found.
func placesGeocoder(places map[string]geocode.Place) *mockGeocoder {
	return &mockGeocoder{
		search: func(_ context.Context, location string) (geocode.Place, bool, error) {
			p, ok := places[location]
			return p, ok, nil
		},
	}
}

type mockForecaster struct {
	dailyForecast func(ctx context.Context, lat, lon float64, start, end time.Time) ([]weather.Day, error)
}

func (m *mockForecaster) DailyForecast(ctx context.Context, lat, lon float64, start, end time.Time) ([]weather.Day, error) {
	return m.dailyForecast(ctx, lat, lon, start, end)
}

var _ service.Forecaster = (*mockForecaster)(nil)

// ---- environment -----------------------------------------------------------

var (
	owner    = domain.Session{UserID: "user-1"}
	stranger = domain.Session{UserID: "user-2"}
	nobody   = domain.Session{}
)

// env wires the services over one in-memory store and a live hub, the way
// main does with STORE_DRIVER=memory.
type env struct {
	store      repo.RecordStore
	hub        *realtime.Hub
	images     *mockImageHost
	trips      *service.TripService
	expenses   *service.ExpenseService
	itinerary  *service.ItineraryService
	packing    *service.PackingService
	experience *service.ExperienceService
	shares     *service.ShareService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	bus := realtime.NewLocalBus()
	store := repo.NewMemoryStore(repo.WithNotifier(bus))
	hub := realtime.NewHub(store, nil)
	require.NoError(t, hub.Start(ctx, bus))

	v := validation.New()
	images := echoImageHost()
	p := aggregate.DefaultPolicy
	return &env{
		store:      store,
		hub:        hub,
		images:     images,
		trips:      service.NewTripService(store, images, v, nil),
		expenses:   service.NewExpenseService(store, hub, v, p),
		itinerary:  service.NewItineraryService(store, hub, v, p),
		packing:    service.NewPackingService(store, hub, v),
		experience: service.NewExperienceService(store, images, v, nil),
		shares:     service.NewShareService(store, p, nil),
	}
}

// newTrip creates a trip owned by owner and returns its id.
func (e *env) newTrip(t *testing.T, in service.TripInput) string {
	t.Helper()
	if in.Name == "" {
		in.Name = "Lisbon"
	}
	trip, err := e.trips.Create(context.Background(), owner, in)
	require.NoError(t, err)
	return trip.ID
}

func (e *env) newItem(t *testing.T, tripID string, in service.ItemInput) string {
	t.Helper()
	if in.Title == "" {
		in.Title = "Castle visit"
	}
	if in.Date == "" {
		in.Date = "2024-03-01"
	}
	id, err := e.itinerary.Create(context.Background(), owner, tripID, in)
	require.NoError(t, err)
	return id
}

func ptr[T any](v T) *T { return &v }

// recvWithin waits for one value on ch.
func recvWithin[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		var zero T
		t.Fatalf("timed out waiting for %T", zero)
		return zero
	}
}

func itemTitles(items []domain.ItineraryItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Title
	}
	return out
}

func images(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("img%d", i+1)
	}
	return out
}
