// Package handler implements the HTTP handlers for the Wanderlust API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (trip.go, itinerary.go, etc.) but share the same Server struct so they
// can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/wanderlust/backend/internal/aggregate"
	"github.com/pkordes/wanderlust/backend/internal/auth"
	"github.com/pkordes/wanderlust/backend/internal/clients/geocode"
	"github.com/pkordes/wanderlust/backend/internal/domain"
	"github.com/pkordes/wanderlust/backend/internal/realtime"
	"github.com/pkordes/wanderlust/backend/internal/service"
)

// TripServicer defines the trip operations the handlers depend on.
// Defining the interfaces here (in the consumer package) lets handler tests
// inject a mock without touching the record store or service layer.
type TripServicer interface {
	Create(ctx context.Context, sess domain.Session, in service.TripInput) (domain.Trip, error)
	Get(ctx context.Context, sess domain.Session, id string) (domain.Trip, error)
	ListMine(ctx context.Context, sess domain.Session) ([]domain.Trip, error)
	Update(ctx context.Context, sess domain.Session, id string, in service.TripInput) (domain.Trip, error)
	Delete(ctx context.Context, sess domain.Session, id string) error
}

// ItineraryServicer defines the itinerary operations.
type ItineraryServicer interface {
	Create(ctx context.Context, sess domain.Session, tripID string, in service.ItemInput) (string, error)
	Update(ctx context.Context, sess domain.Session, tripID, itemID string, in service.ItemUpdate) error
	Delete(ctx context.Context, sess domain.Session, tripID, itemID string) (bool, error)
	Get(ctx context.Context, sess domain.Session, tripID, itemID string) (domain.ItineraryItem, error)
	Days(ctx context.Context, sess domain.Session, tripID string) ([]aggregate.DayGroup, error)
	Watch(ctx context.Context, sess domain.Session, tripID string, fn func([]aggregate.DayGroup)) (*realtime.Subscription, error)
}

// ExpenseServicer defines the expense operations.
type ExpenseServicer interface {
	Create(ctx context.Context, sess domain.Session, tripID string, in service.ExpenseInput) (string, error)
	Update(ctx context.Context, sess domain.Session, tripID, id string, in service.ExpenseUpdate) error
	Delete(ctx context.Context, sess domain.Session, tripID, id string) (bool, error)
	Get(ctx context.Context, sess domain.Session, tripID, id string) (domain.Expense, error)
	Summary(ctx context.Context, sess domain.Session, tripID string) (aggregate.ExpenseSummary, error)
	Watch(ctx context.Context, sess domain.Session, tripID string, fn func(aggregate.ExpenseSummary)) (*realtime.Subscription, error)
}

// PackingServicer defines the packing-list operations.
type PackingServicer interface {
	Create(ctx context.Context, sess domain.Session, tripID string, in service.PackingInput) (string, error)
	Update(ctx context.Context, sess domain.Session, tripID, itemID string, in service.PackingUpdate) error
	Delete(ctx context.Context, sess domain.Session, tripID, itemID string) (bool, error)
	Summary(ctx context.Context, sess domain.Session, tripID string) (aggregate.PackingSummary, error)
	Watch(ctx context.Context, sess domain.Session, tripID string, fn func(aggregate.PackingSummary)) (*realtime.Subscription, error)
}

// ExperienceServicer defines the experience and photo operations.
type ExperienceServicer interface {
	SetExperience(ctx context.Context, sess domain.Session, tripID, itemID string, in service.ExperienceInput) (*domain.Experience, error)
	AddPhotos(ctx context.Context, sess domain.Session, tripID, itemID string, images []string) (map[string]domain.Photo, error)
	RemovePhoto(ctx context.Context, sess domain.Session, tripID, itemID, photoID string) error
}

// ShareServicer defines the share-link operations.
type ShareServicer interface {
	Enable(ctx context.Context, sess domain.Session, tripID string) (string, error)
	Disable(ctx context.Context, sess domain.Session, tripID string) error
	View(ctx context.Context, token string) (service.SharedTrip, error)
}

// WeatherServicer defines the forecast lookup.
type WeatherServicer interface {
	Forecast(ctx context.Context, sess domain.Session, tripID string) (service.Forecast, error)
}

// MapServicer defines the map lookups.
type MapServicer interface {
	Markers(ctx context.Context, sess domain.Session, tripID string) ([]service.Marker, error)
	Locate(ctx context.Context, location string) (geocode.Place, error)
}

// ExportServicer defines the flat export of the signed-in user's trips.
type ExportServicer interface {
	Export(ctx context.Context, sess domain.Session) ([]domain.ExportRow, error)
}

// Services groups the dependencies of Server. A nil field disables its routes.
type Services struct {
	Trips      TripServicer
	Itinerary  ItineraryServicer
	Expenses   ExpenseServicer
	Packing    PackingServicer
	Experience ExperienceServicer
	Shares     ShareServicer
	Weather    WeatherServicer
	Maps       MapServicer
	Export     ExportServicer
}

// DefaultHeartbeat is how often an idle event stream sends a keep-alive comment.
const DefaultHeartbeat = 25 * time.Second

// Server serves every API endpoint. Methods are in domain-specific files but
// all operate on this struct.
type Server struct {
	svc       Services
	log       *slog.Logger
	heartbeat time.Duration
	shutdown  <-chan struct{}
}

// Option configures a Server.
type Option func(*Server)

// WithHeartbeat overrides DefaultHeartbeat.
func WithHeartbeat(d time.Duration) Option {
	return func(s *Server) { s.heartbeat = d }
}

// WithShutdown ends every open event stream once ctx is done.
func WithShutdown(ctx context.Context) Option {
	return func(s *Server) { s.shutdown = ctx.Done() }
}

// NewServer constructs the Server with all its dependencies.
func NewServer(svc Services, log *slog.Logger, opts ...Option) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{svc: svc, log: log, heartbeat: DefaultHeartbeat}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns the API router. Sessions are expected on the request context
// already, see auth.Middleware.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.WriteError(w, r, domain.ErrNotFound)
	})

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)
	if s.svc.Shares != nil {
		r.Get("/share/{token}", s.ViewSharedTrip)
	}

	r.Group(func(r chi.Router) {
		r.Use(auth.Require(s.WriteError))

		if s.svc.Maps != nil {
			r.Get("/geocode", s.Geocode)
		}
		if s.svc.Export != nil {
			r.Get("/export", s.ExportTrips)
		}
		if s.svc.Trips == nil {
			return
		}
		r.Route("/trips", func(r chi.Router) {
			r.Get("/", s.ListTrips)
			r.Post("/", s.CreateTrip)
			r.Route("/{tripID}", func(r chi.Router) {
				r.Get("/", s.GetTrip)
				r.Put("/", s.UpdateTrip)
				r.Delete("/", s.DeleteTrip)
				s.itineraryRoutes(r)
				s.expenseRoutes(r)
				s.packingRoutes(r)
				s.tripExtraRoutes(r)
			})
		})
	})
	return r
}

func (s *Server) itineraryRoutes(r chi.Router) {
	if s.svc.Itinerary == nil {
		return
	}
	r.Get("/itinerary", s.ListItinerary)
	r.Get("/itinerary/stream", s.StreamItinerary)
	r.Post("/itinerary", s.CreateItem)
	r.Get("/itinerary/{itemID}", s.GetItem)
	r.Patch("/itinerary/{itemID}", s.UpdateItem)
	r.Delete("/itinerary/{itemID}", s.DeleteItem)
	if s.svc.Experience != nil {
		r.Put("/itinerary/{itemID}/experience", s.SetExperience)
		r.Post("/itinerary/{itemID}/photos", s.AddPhotos)
		r.Delete("/itinerary/{itemID}/photos/{photoID}", s.RemovePhoto)
	}
}

func (s *Server) expenseRoutes(r chi.Router) {
	if s.svc.Expenses == nil {
		return
	}
	r.Get("/expenses", s.ListExpenses)
	r.Get("/expenses/stream", s.StreamExpenses)
	r.Post("/expenses", s.CreateExpense)
	r.Get("/expenses/{expenseID}", s.GetExpense)
	r.Patch("/expenses/{expenseID}", s.UpdateExpense)
	r.Delete("/expenses/{expenseID}", s.DeleteExpense)
}

func (s *Server) packingRoutes(r chi.Router) {
	if s.svc.Packing == nil {
		return
	}
	r.Get("/packing", s.ListPacking)
	r.Get("/packing/stream", s.StreamPacking)
	r.Post("/packing", s.CreatePackingItem)
	r.Patch("/packing/{itemID}", s.UpdatePackingItem)
	r.Delete("/packing/{itemID}", s.DeletePackingItem)
}

func (s *Server) tripExtraRoutes(r chi.Router) {
	if s.svc.Shares != nil {
		r.Post("/share", s.EnableShare)
		r.Delete("/share", s.DisableShare)
	}
	if s.svc.Weather != nil {
		r.Get("/weather", s.GetForecast)
	}
	if s.svc.Maps != nil {
		r.Get("/map", s.GetMarkers)
	}
}
