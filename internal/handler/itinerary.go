package handler

import (
	"net/http"

	"github.com/pkordes/wanderlust/backend/internal/service"
)

// ListItinerary handles GET /trips/{tripID}/itinerary and returns the items
// grouped by day.
func (s *Server) ListItinerary(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathParam(r, "tripID")
	if err != nil {
		s.WriteError(w, r, err)
		return
	}

	days, err := s.svc.Itinerary.Days(r.Context(), session(r), tripID)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, daysToResponse(days))
}

// CreateItem handles POST /trips/{tripID}/itinerary.
func (s *Server) CreateItem(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathParam(r, "tripID")
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	var in service.ItemInput
	if err := decodeJSON(r, &in); err != nil {
		s.WriteError(w, r, err)
		return
	}

	id, err := s.svc.Itinerary.Create(r.Context(), session(r), tripID, in)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

// GetItem handles GET /trips/{tripID}/itinerary/{itemID}.
func (s *Server) GetItem(w http.ResponseWriter, r *http.Request) {
	ids, err := pathParams(r, "tripID", "itemID")
	if err != nil {
		s.WriteError(w, r, err)
		return
	}

	item, err := s.svc.Itinerary.Get(r.Context(), session(r), ids[0], ids[1])
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itemToResponse(item))
}

// UpdateItem handles PATCH /trips/{tripID}/itinerary/{itemID}. Absent fields
// are left unchanged.
func (s *Server) UpdateItem(w http.ResponseWriter, r *http.Request) {
	ids, err := pathParams(r, "tripID", "itemID")
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	var in service.ItemUpdate
	if err := decodeJSON(r, &in); err != nil {
		s.WriteError(w, r, err)
		return
	}

	if err := s.svc.Itinerary.Update(r.Context(), session(r), ids[0], ids[1], in); err != nil {
		s.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteItem handles DELETE /trips/{tripID}/itinerary/{itemID}. Deleting a
// missing item succeeds with removed=false.
func (s *Server) DeleteItem(w http.ResponseWriter, r *http.Request) {
	ids, err := pathParams(r, "tripID", "itemID")
	if err != nil {
		s.WriteError(w, r, err)
		return
	}

	removed, err := s.svc.Itinerary.Delete(r.Context(), session(r), ids[0], ids[1])
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deletedResponse{Removed: removed})
}
