package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/pkordes/wanderlust/backend/internal/aggregate"
	"github.com/pkordes/wanderlust/backend/internal/realtime"
)

// writeWindow is the deadline given to each event write. It replaces the
// server-wide WriteTimeout for the lifetime of a stream.
const writeWindow = 60 * time.Second

// StreamItinerary handles GET /trips/{tripID}/itinerary/stream. Every change to
// the trip's itinerary pushes the full day-grouped view as an "itinerary" event.
func (s *Server) StreamItinerary(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathParam(r, "tripID")
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	watch := func(ctx context.Context, fn func([]aggregate.DayGroup)) (*realtime.Subscription, error) {
		return s.svc.Itinerary.Watch(ctx, session(r), tripID, fn)
	}
	stream(s, w, r, "itinerary", watch, daysToResponse)
}

// StreamExpenses handles GET /trips/{tripID}/expenses/stream ("expenses" events).
func (s *Server) StreamExpenses(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathParam(r, "tripID")
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	watch := func(ctx context.Context, fn func(aggregate.ExpenseSummary)) (*realtime.Subscription, error) {
		return s.svc.Expenses.Watch(ctx, session(r), tripID, fn)
	}
	stream(s, w, r, "expenses", watch, expenseSummaryToResponse)
}

// StreamPacking handles GET /trips/{tripID}/packing/stream ("packing" events).
func (s *Server) StreamPacking(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathParam(r, "tripID")
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	watch := func(ctx context.Context, fn func(aggregate.PackingSummary)) (*realtime.Subscription, error) {
		return s.svc.Packing.Watch(ctx, session(r), tripID, fn)
	}
	stream(s, w, r, "packing", watch, packingSummaryToResponse)
}

// stream opens a subscription and relays its views as server-sent events
// until the client goes away. Only the latest view is kept: a slow client
// skips intermediate states instead of queueing them.
func stream[T, R any](
	s *Server,
	w http.ResponseWriter,
	r *http.Request,
	event string,
	watch func(context.Context, func(T)) (*realtime.Subscription, error),
	render func(T) R,
) {
	ctx := r.Context()
	latest := make(chan T, 1)
	push := func(v T) {
		for {
			select {
			case latest <- v:
				return
			default:
				select {
				case <-latest:
				default:
				}
			}
		}
	}

	sub, err := watch(ctx, push)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		s.log.ErrorContext(ctx, "streaming not supported", "error", err)
		return
	}
	log := s.log.With(slog.String("event", event), slog.String("path", r.URL.Path))

	heartbeat := time.NewTicker(s.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case v := <-latest:
			data, err := json.Marshal(render(v))
			if err != nil {
				log.ErrorContext(ctx, "encode event", "error", err)
				return
			}
			if err := s.sendFrame(rc, w, fmt.Sprintf("event: %s\ndata: %s\n\n", event, data)); err != nil {
				log.DebugContext(ctx, "client disconnected during send", "error", err)
				return
			}
		case <-heartbeat.C:
			if err := s.sendFrame(rc, w, ": ping\n\n"); err != nil {
				log.DebugContext(ctx, "client disconnected during heartbeat", "error", err)
				return
			}
		case <-sub.Done():
			return
		case <-s.shutdown:
			return
		case <-ctx.Done():
			return
		}
	}
}

// sendFrame writes one SSE frame, flushes it and extends the write deadline.
func (s *Server) sendFrame(rc *http.ResponseController, w http.ResponseWriter, frame string) error {
	// Not every ResponseWriter supports deadlines; the recorder in tests does not.
	_ = rc.SetWriteDeadline(time.Now().Add(writeWindow))
	if _, err := fmt.Fprint(w, frame); err != nil {
		return err
	}
	return rc.Flush()
}
