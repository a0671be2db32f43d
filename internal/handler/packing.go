package handler

import (
	"net/http"

	"github.com/pkordes/wanderlust/backend/internal/service"
)

// ListPacking handles GET /trips/{tripID}/packing.
func (s *Server) ListPacking(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathParam(r, "tripID")
	if err != nil {
		s.WriteError(w, r, err)
		return
	}

	sum, err := s.svc.Packing.Summary(r.Context(), session(r), tripID)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, packingSummaryToResponse(sum))
}

// CreatePackingItem handles POST /trips/{tripID}/packing.
func (s *Server) CreatePackingItem(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathParam(r, "tripID")
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	var in service.PackingInput
	if err := decodeJSON(r, &in); err != nil {
		s.WriteError(w, r, err)
		return
	}

	id, err := s.svc.Packing.Create(r.Context(), session(r), tripID, in)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

// UpdatePackingItem handles PATCH /trips/{tripID}/packing/{itemID}, including
// the packed toggle.
func (s *Server) UpdatePackingItem(w http.ResponseWriter, r *http.Request) {
	ids, err := pathParams(r, "tripID", "itemID")
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	var in service.PackingUpdate
	if err := decodeJSON(r, &in); err != nil {
		s.WriteError(w, r, err)
		return
	}

	if err := s.svc.Packing.Update(r.Context(), session(r), ids[0], ids[1], in); err != nil {
		s.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeletePackingItem handles DELETE /trips/{tripID}/packing/{itemID}.
func (s *Server) DeletePackingItem(w http.ResponseWriter, r *http.Request) {
	ids, err := pathParams(r, "tripID", "itemID")
	if err != nil {
		s.WriteError(w, r, err)
		return
	}

	removed, err := s.svc.Packing.Delete(r.Context(), session(r), ids[0], ids[1])
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deletedResponse{Removed: removed})
}
