package handler

import (
	"net/http"
)

// GetForecast handles GET /trips/{tripID}/weather: the daily forecast for the
// trip's destination and dates, with packing advice per day.
func (s *Server) GetForecast(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathParam(r, "tripID")
	if err != nil {
		s.WriteError(w, r, err)
		return
	}

	f, err := s.svc.Weather.Forecast(r.Context(), session(r), tripID)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, forecastToResponse(f))
}

// GetMarkers handles GET /trips/{tripID}/map.
func (s *Server) GetMarkers(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathParam(r, "tripID")
	if err != nil {
		s.WriteError(w, r, err)
		return
	}

	markers, err := s.svc.Maps.Markers(r.Context(), session(r), tripID)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, markersToResponse(markers))
}

// Geocode handles GET /geocode?q=, the location picker lookup.
func (s *Server) Geocode(w http.ResponseWriter, r *http.Request) {
	q, err := queryString(r, "q")
	if err != nil {
		s.WriteError(w, r, err)
		return
	}

	place, err := s.svc.Maps.Locate(r.Context(), q)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, placeToResponse(place))
}
