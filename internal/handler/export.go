package handler

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/oapi-codegen/runtime"

	"github.com/pkordes/wanderlust/backend/internal/domain"
	"github.com/pkordes/wanderlust/backend/internal/validation"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"trip_id", "trip_name", "trip_destination", "trip_start_date", "trip_end_date",
	"item_title", "item_category", "item_location", "item_date", "item_time",
	"item_notes", "rating", "trip_total",
}

type exportRowResponse struct {
	TripID          string  `json:"tripId"`
	TripName        string  `json:"tripName"`
	TripDestination string  `json:"tripDestination,omitempty"`
	TripStartDate   string  `json:"tripStartDate,omitempty"`
	TripEndDate     string  `json:"tripEndDate,omitempty"`
	ItemTitle       string  `json:"itemTitle,omitempty"`
	ItemCategory    string  `json:"itemCategory,omitempty"`
	ItemLocation    string  `json:"itemLocation,omitempty"`
	ItemDate        string  `json:"itemDate,omitempty"`
	ItemTime        string  `json:"itemTime,omitempty"`
	ItemNotes       string  `json:"itemNotes,omitempty"`
	Rating          int     `json:"rating,omitempty"`
	TripTotal       float64 `json:"tripTotal"`
}

// ExportTrips handles GET /export.
// It returns one row per itinerary item across all of the caller's trips.
// Use ?format=csv to receive CSV; default is JSON.
func (s *Server) ExportTrips(w http.ResponseWriter, r *http.Request) {
	var format *string
	if err := runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), &format); err != nil {
		s.WriteError(w, r, validation.Field("format", err.Error()))
		return
	}
	wantCSV := false
	if format != nil {
		switch *format {
		case "csv":
			wantCSV = true
		case "json":
		default:
			s.WriteError(w, r, validation.Field("format", "must be csv or json"))
			return
		}
	}

	rows, err := s.svc.Export.Export(r.Context(), session(r))
	if err != nil {
		s.WriteError(w, r, err)
		return
	}

	if wantCSV {
		s.writeCSV(w, r, rows)
		return
	}
	out := make([]exportRowResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, exportRowToResponse(row))
	}
	writeJSON(w, http.StatusOK, out)
}

// writeCSV buffers the whole table so a failure can still produce an error
// response instead of a truncated file.
func (s *Server) writeCSV(w http.ResponseWriter, r *http.Request, rows []domain.ExportRow) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	_ = cw.Write(csvHeaders)
	for _, row := range rows {
		_ = cw.Write(exportRowToCSVRecord(row))
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		s.WriteError(w, r, fmt.Errorf("handler.ExportTrips: csv: %w", err))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="wanderlust-export.csv"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func exportRowToResponse(r domain.ExportRow) exportRowResponse {
	return exportRowResponse{
		TripID:          r.TripID,
		TripName:        r.TripName,
		TripDestination: r.TripDestination,
		TripStartDate:   r.TripStartDate,
		TripEndDate:     r.TripEndDate,
		ItemTitle:       r.ItemTitle,
		ItemCategory:    r.ItemCategory,
		ItemLocation:    r.ItemLocation,
		ItemDate:        r.ItemDate,
		ItemTime:        r.ItemTime,
		ItemNotes:       r.ItemNotes,
		Rating:          r.Rating,
		TripTotal:       r.TripTotal.Float(),
	}
}

// exportRowToCSVRecord encodes a domain.ExportRow as a flat string slice.
// A zero rating is written as an empty cell.
func exportRowToCSVRecord(r domain.ExportRow) []string {
	rating := ""
	if r.Rating > 0 {
		rating = strconv.Itoa(r.Rating)
	}
	return []string{
		r.TripID,
		r.TripName,
		r.TripDestination,
		r.TripStartDate,
		r.TripEndDate,
		r.ItemTitle,
		r.ItemCategory,
		r.ItemLocation,
		r.ItemDate,
		r.ItemTime,
		r.ItemNotes,
		rating,
		strconv.FormatFloat(r.TripTotal.Float(), 'f', 2, 64),
	}
}
