package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pkordes/wanderlust/backend/internal/aggregate"
	"github.com/pkordes/wanderlust/backend/internal/auth"
	"github.com/pkordes/wanderlust/backend/internal/clients/geocode"
	"github.com/pkordes/wanderlust/backend/internal/domain"
	"github.com/pkordes/wanderlust/backend/internal/handler"
	"github.com/pkordes/wanderlust/backend/internal/realtime"
	"github.com/pkordes/wanderlust/backend/internal/service"
)

const (
	testSecret = "handler-test-secret"
	testUser   = "user-1"
)

// ---- mocks -----------------------------------------------------------------
// Each mock is a test double for one handler servicer interface.
// Set only the method fields your test needs.

type mockTripServicer struct {
	create   func(ctx context.Context, sess domain.Session, in service.TripInput) (domain.Trip, error)
	get      func(ctx context.Context, sess domain.Session, id string) (domain.Trip, error)
	listMine func(ctx context.Context, sess domain.Session) ([]domain.Trip, error)
	update   func(ctx context.Context, sess domain.Session, id string, in service.TripInput) (domain.Trip, error)
	delete   func(ctx context.Context, sess domain.Session, id string) error
}

func (m *mockTripServicer) Create(ctx context.Context, sess domain.Session, in service.TripInput) (domain.Trip, error) {
	return m.create(ctx, sess, in)
}
func (m *mockTripServicer) Get(ctx context.Context, sess domain.Session, id string) (domain.Trip, error) {
	return m.get(ctx, sess, id)
}
func (m *mockTripServicer) ListMine(ctx context.Context, sess domain.Session) ([]domain.Trip, error) {
	return m.listMine(ctx, sess)
}
func (m *mockTripServicer) Update(ctx context.Context, sess domain.Session, id string, in service.TripInput) (domain.Trip, error) {
	return m.update(ctx, sess, id, in)
}
func (m *mockTripServicer) Delete(ctx context.Context, sess domain.Session, id string) error {
	return m.delete(ctx, sess, id)
}

var _ handler.TripServicer = (*mockTripServicer)(nil)

type mockItineraryServicer struct {
	create func(ctx context.Context, sess domain.Session, tripID string, in service.ItemInput) (string, error)
	update func(ctx context.Context, sess domain.Session, tripID, itemID string, in service.ItemUpdate) error
	delete func(ctx context.Context, sess domain.Session, tripID, itemID string) (bool, error)
	get    func(ctx context.Context, sess domain.Session, tripID, itemID string) (domain.ItineraryItem, error)
	days   func(ctx context.Context, sess domain.Session, tripID string) ([]aggregate.DayGroup, error)
}

func (m *mockItineraryServicer) Create(ctx context.Context, sess domain.Session, tripID string, in service.ItemInput) (string, error) {
	return m.create(ctx, sess, tripID, in)
}
func (m *mockItineraryServicer) Update(ctx context.Context, sess domain.Session, tripID, itemID string, in service.ItemUpdate) error {
	return m.update(ctx, sess, tripID, itemID, in)
}
func (m *mockItineraryServicer) Delete(ctx context.Context, sess domain.Session, tripID, itemID string) (bool, error) {
	return m.delete(ctx, sess, tripID, itemID)
}
func (m *mockItineraryServicer) Get(ctx context.Context, sess domain.Session, tripID, itemID string) (domain.ItineraryItem, error) {
	return m.get(ctx, sess, tripID, itemID)
}
func (m *mockItineraryServicer) Days(ctx context.Context, sess domain.Session, tripID string) ([]aggregate.DayGroup, error) {
	return m.days(ctx, sess, tripID)
}
func (m *mockItineraryServicer) Watch(context.Context, domain.Session, string, func([]aggregate.DayGroup)) (*realtime.Subscription, error) {
	panic("mockItineraryServicer.Watch: streams are tested against real services")
}

var _ handler.ItineraryServicer = (*mockItineraryServicer)(nil)

type mockExpenseServicer struct {
	create  func(ctx context.Context, sess domain.Session, tripID string, in service.ExpenseInput) (string, error)
	update  func(ctx context.Context, sess domain.Session, tripID, id string, in service.ExpenseUpdate) error
	delete  func(ctx context.Context, sess domain.Session, tripID, id string) (bool, error)
	get     func(ctx context.Context, sess domain.Session, tripID, id string) (domain.Expense, error)
	summary func(ctx context.Context, sess domain.Session, tripID string) (aggregate.ExpenseSummary, error)
}

func (m *mockExpenseServicer) Create(ctx context.Context, sess domain.Session, tripID string, in service.ExpenseInput) (string, error) {
	return m.create(ctx, sess, tripID, in)
}
func (m *mockExpenseServicer) Update(ctx context.Context, sess domain.Session, tripID, id string, in service.ExpenseUpdate) error {
	return m.update(ctx, sess, tripID, id, in)
}
func (m *mockExpenseServicer) Delete(ctx context.Context, sess domain.Session, tripID, id string) (bool, error) {
	return m.delete(ctx, sess, tripID, id)
}
func (m *mockExpenseServicer) Get(ctx context.Context, sess domain.Session, tripID, id string) (domain.Expense, error) {
	return m.get(ctx, sess, tripID, id)
}
func (m *mockExpenseServicer) Summary(ctx context.Context, sess domain.Session, tripID string) (aggregate.ExpenseSummary, error) {
	return m.summary(ctx, sess, tripID)
}
func (m *mockExpenseServicer) Watch(context.Context, domain.Session, string, func(aggregate.ExpenseSummary)) (*realtime.Subscription, error) {
	panic("mockExpenseServicer.Watch: streams are tested against real services")
}

var _ handler.ExpenseServicer = (*mockExpenseServicer)(nil)

type mockPackingServicer struct {
	create  func(ctx context.Context, sess domain.Session, tripID string, in service.PackingInput) (string, error)
	update  func(ctx context.Context, sess domain.Session, tripID, itemID string, in service.PackingUpdate) error
	delete  func(ctx context.Context, sess domain.Session, tripID, itemID string) (bool, error)
	summary func(ctx context.Context, sess domain.Session, tripID string) (aggregate.PackingSummary, error)
}

func (m *mockPackingServicer) Create(ctx context.Context, sess domain.Session, tripID string, in service.PackingInput) (string, error) {
	return m.create(ctx, sess, tripID, in)
}
func (m *mockPackingServicer) Update(ctx context.Context, sess domain.Session, tripID, itemID string, in service.PackingUpdate) error {
	return m.update(ctx, sess, tripID, itemID, in)
}
func (m *mockPackingServicer) Delete(ctx context.Context, sess domain.Session, tripID, itemID string) (bool, error) {
	return m.delete(ctx, sess, tripID, itemID)
}
func (m *mockPackingServicer) Summary(ctx context.Context, sess domain.Session, tripID string) (aggregate.PackingSummary, error) {
	return m.summary(ctx, sess, tripID)
}
func (m *mockPackingServicer) Watch(context.Context, domain.Session, string, func(aggregate.PackingSummary)) (*realtime.Subscription, error) {
	panic("mockPackingServicer.Watch: streams are tested against real services")
}

var _ handler.PackingServicer = (*mockPackingServicer)(nil)

type mockExperienceServicer struct {
	setExperience func(ctx context.Context, sess domain.Session, tripID, itemID string, in service.ExperienceInput) (*domain.Experience, error)
	addPhotos     func(ctx context.Context, sess domain.Session, tripID, itemID string, images []string) (map[string]domain.Photo, error)
	removePhoto   func(ctx context.Context, sess domain.Session, tripID, itemID, photoID string) error
}

func (m *mockExperienceServicer) SetExperience(ctx context.Context, sess domain.Session, tripID, itemID string, in service.ExperienceInput) (*domain.Experience, error) {
	return m.setExperience(ctx, sess, tripID, itemID, in)
}
func (m *mockExperienceServicer) AddPhotos(ctx context.Context, sess domain.Session, tripID, itemID string, images []string) (map[string]domain.Photo, error) {
	return m.addPhotos(ctx, sess, tripID, itemID, images)
}
func (m *mockExperienceServicer) RemovePhoto(ctx context.Context, sess domain.Session, tripID, itemID, photoID string) error {
	return m.removePhoto(ctx, sess, tripID, itemID, photoID)
}

var _ handler.ExperienceServicer = (*mockExperienceServicer)(nil)

type mockShareServicer struct {
	enable  func(ctx context.Context, sess domain.Session, tripID string) (string, error)
	disable func(ctx context.Context, sess domain.Session, tripID string) error
	view    func(ctx context.Context, token string) (service.SharedTrip, error)
}

func (m *mockShareServicer) Enable(ctx context.Context, sess domain.Session, tripID string) (string, error) {
	return m.enable(ctx, sess, tripID)
}
func (m *mockShareServicer) Disable(ctx context.Context, sess domain.Session, tripID string) error {
	return m.disable(ctx, sess, tripID)
}
func (m *mockShareServicer) View(ctx context.Context, token string) (service.SharedTrip, error) {
	return m.view(ctx, token)
}

var _ handler.ShareServicer = (*mockShareServicer)(nil)

type mockWeatherServicer struct {
	forecast func(ctx context.Context, sess domain.Session, tripID string) (service.Forecast, error)
}

func (m *mockWeatherServicer) Forecast(ctx context.Context, sess domain.Session, tripID string) (service.Forecast, error) {
	return m.forecast(ctx, sess, tripID)
}

var _ handler.WeatherServicer = (*mockWeatherServicer)(nil)

type mockMapServicer struct {
	markers func(ctx context.Context, sess domain.Session, tripID string) ([]service.Marker, error)
	locate  func(ctx context.Context, location string) (geocode.Place, error)
}

func (m *mockMapServicer) Markers(ctx context.Context, sess domain.Session, tripID string) ([]service.Marker, error) {
	return m.markers(ctx, sess, tripID)
}
func (m *mockMapServicer) Locate(ctx context.Context, location string) (geocode.Place, error) {
	return m.locate(ctx, location)
}

var _ handler.MapServicer = (*mockMapServicer)(nil)

type mockExportServicer struct {
	export func(ctx context.Context, sess domain.Session) ([]domain.ExportRow, error)
}

func (m *mockExportServicer) Export(ctx context.Context, sess domain.Session) ([]domain.ExportRow, error) {
	return m.export(ctx, sess)
}

var _ handler.ExportServicer = (*mockExportServicer)(nil)

// ---- helpers ---------------------------------------------------------------

// newHTTPHandler wires a Server behind auth.Middleware.
// This mirrors how main.go wires it in production.
func newHTTPHandler(svc handler.Services, opts ...handler.Option) http.Handler {
	srv := handler.NewServer(svc, nil, opts...)
	return auth.Middleware(auth.NewVerifier(testSecret), srv.WriteError)(srv.Routes())
}

// bearer returns a valid Authorization header value for user.
func bearer(t *testing.T, user string) string {
	t.Helper()
	token, err := auth.NewVerifier(testSecret).Issue(user, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

// do sends a request as testUser. body may be nil, a string of raw JSON, or a
// value to marshal.
func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	req := newRequest(t, method, path, body)
	req.Header.Set("Authorization", bearer(t, testUser))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func doRequest(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// doAnonymous sends a request without credentials.
func doAnonymous(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, newRequest(t, method, path, body))
	return rec
}

func newRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewBuffer(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if r != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// decode unmarshals the recorder body into T.
func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), "body: %s", rec.Body.String())
	return v
}

type errorBody struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

func date(s string) time.Time {
	d, ok := domain.ParseDate(s)
	if !ok {
		panic("bad test date " + s)
	}
	return d
}

func ptr[T any](v T) *T { return &v }
