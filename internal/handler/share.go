package handler

import (
	"net/http"
)

// EnableShare handles POST /trips/{tripID}/share and returns the share token.
// Calling it on a shared trip returns the existing token.
func (s *Server) EnableShare(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathParam(r, "tripID")
	if err != nil {
		s.WriteError(w, r, err)
		return
	}

	token, err := s.svc.Shares.Enable(r.Context(), session(r), tripID)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shareResponse{Token: token})
}

// DisableShare handles DELETE /trips/{tripID}/share.
func (s *Server) DisableShare(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathParam(r, "tripID")
	if err != nil {
		s.WriteError(w, r, err)
		return
	}

	if err := s.svc.Shares.Disable(r.Context(), session(r), tripID); err != nil {
		s.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ViewSharedTrip handles GET /share/{token}. No session is required.
func (s *Server) ViewSharedTrip(w http.ResponseWriter, r *http.Request) {
	token, err := pathParam(r, "token")
	if err != nil {
		s.WriteError(w, r, err)
		return
	}

	shared, err := s.svc.Shares.View(r.Context(), token)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sharedTripResponse{
		Trip:      tripToResponse(shared.Trip, false),
		Itinerary: itemsToResponse(shared.Itinerary),
	})
}
