package handler

import (
	"fmt"
	"net/http"

	"github.com/pkordes/wanderlust/backend/internal/domain"
	"github.com/pkordes/wanderlust/backend/internal/service"
)

type addPhotosRequest struct {
	// Images are data URIs or remote URLs.
	Images []string `json:"images"`
}

// SetExperience handles PUT /trips/{tripID}/itinerary/{itemID}/experience.
// When the rating is zero, the journal blank and no photos remain, the
// experience is removed and the response is 204.
func (s *Server) SetExperience(w http.ResponseWriter, r *http.Request) {
	ids, err := pathParams(r, "tripID", "itemID")
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	var in service.ExperienceInput
	if err := decodeJSON(r, &in); err != nil {
		s.WriteError(w, r, err)
		return
	}

	exp, err := s.svc.Experience.SetExperience(r.Context(), session(r), ids[0], ids[1], in)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	if exp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, experienceToResponse(exp))
}

// AddPhotos handles POST /trips/{tripID}/itinerary/{itemID}/photos and
// returns the new photos keyed by id.
func (s *Server) AddPhotos(w http.ResponseWriter, r *http.Request) {
	ids, err := pathParams(r, "tripID", "itemID")
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	var in addPhotosRequest
	if err := decodeJSON(r, &in); err != nil {
		s.WriteError(w, r, err)
		return
	}
	if len(in.Images) == 0 {
		s.WriteError(w, r, fmt.Errorf("%w: at least one image is required", domain.ErrValidation))
		return
	}

	photos, err := s.svc.Experience.AddPhotos(r.Context(), session(r), ids[0], ids[1], in.Images)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, photosToResponse(photos))
}

// RemovePhoto handles DELETE /trips/{tripID}/itinerary/{itemID}/photos/{photoID}.
func (s *Server) RemovePhoto(w http.ResponseWriter, r *http.Request) {
	ids, err := pathParams(r, "tripID", "itemID", "photoID")
	if err != nil {
		s.WriteError(w, r, err)
		return
	}

	if err := s.svc.Experience.RemovePhoto(r.Context(), session(r), ids[0], ids[1], ids[2]); err != nil {
		s.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
