package handler

import (
	"net/http"

	"github.com/pkordes/wanderlust/backend/internal/domain"
	"github.com/pkordes/wanderlust/backend/internal/service"
)

// CreateTrip handles POST /trips.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var in service.TripInput
	if err := decodeJSON(r, &in); err != nil {
		s.WriteError(w, r, err)
		return
	}

	created, err := s.svc.Trips.Create(r.Context(), session(r), in)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tripToResponse(created, true))
}

// ListTrips handles GET /trips.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=20, max=100).
// Trips are ordered soonest start date first, undated trips last.
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	params := domain.NewPaginationParams(page, limit)

	trips, err := s.svc.Trips.ListMine(r.Context(), session(r))
	if err != nil {
		s.WriteError(w, r, err)
		return
	}

	window := domain.Paginate(trips, params)
	data := make([]tripResponse, 0, len(window))
	for _, t := range window {
		data = append(data, tripToResponse(t, true))
	}
	writeJSON(w, http.StatusOK, tripListResponse{
		Data: data,
		Pagination: pagination{
			Page:  params.Page,
			Limit: params.Limit,
			Total: len(trips),
		},
	})
}

// GetTrip handles GET /trips/{tripID}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "tripID")
	if err != nil {
		s.WriteError(w, r, err)
		return
	}

	trip, err := s.svc.Trips.Get(r.Context(), session(r), id)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip, true))
}

// UpdateTrip handles PUT /trips/{tripID}. The body replaces every editable
// field; blank optional fields are cleared.
func (s *Server) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "tripID")
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	var in service.TripInput
	if err := decodeJSON(r, &in); err != nil {
		s.WriteError(w, r, err)
		return
	}

	updated, err := s.svc.Trips.Update(r.Context(), session(r), id, in)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(updated, true))
}

// DeleteTrip handles DELETE /trips/{tripID}. The trip's share link and
// hosted photos go with it.
func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "tripID")
	if err != nil {
		s.WriteError(w, r, err)
		return
	}

	if err := s.svc.Trips.Delete(r.Context(), session(r), id); err != nil {
		s.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
