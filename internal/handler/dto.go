package handler

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/wanderlust/backend/internal/aggregate"
	"github.com/pkordes/wanderlust/backend/internal/clients/geocode"
	"github.com/pkordes/wanderlust/backend/internal/domain"
	"github.com/pkordes/wanderlust/backend/internal/service"
)

// Response bodies. Field names follow the JSON the front end already reads
// from the record store (camelCase, public_id on photos).

type tripResponse struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Destination string              `json:"destination,omitempty"`
	StartDate   *openapi_types.Date `json:"startDate,omitempty"`
	EndDate     *openapi_types.Date `json:"endDate,omitempty"`
	Notes       string              `json:"notes,omitempty"`
	IsShared    bool                `json:"isShared"`
	ShareToken  string              `json:"shareToken,omitempty"`
	CreatedAt   *time.Time          `json:"createdAt,omitempty"`
}

type pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

type tripListResponse struct {
	Data       []tripResponse `json:"data"`
	Pagination pagination     `json:"pagination"`
}

type categoryResponse struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
	Color string `json:"color,omitempty"`
}

type photoResponse struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

type experienceResponse struct {
	Rating  int                      `json:"rating"`
	Journal string                   `json:"journal,omitempty"`
	Photos  map[string]photoResponse `json:"photos,omitempty"`
}

type itemResponse struct {
	ID         string              `json:"id"`
	Title      string              `json:"title"`
	Category   categoryResponse    `json:"category"`
	Location   string              `json:"location,omitempty"`
	Date       *openapi_types.Date `json:"date,omitempty"`
	Time       string              `json:"time,omitempty"`
	Notes      string              `json:"notes,omitempty"`
	Experience *experienceResponse `json:"experience,omitempty"`
}

type dayResponse struct {
	Date    *openapi_types.Date `json:"date,omitempty"`
	Undated bool                `json:"undated,omitempty"`
	Items   []itemResponse      `json:"items"`
}

type expenseResponse struct {
	ID            string              `json:"id"`
	Description   string              `json:"description"`
	Amount        float64             `json:"amount"`
	AmountInvalid bool                `json:"amountInvalid,omitempty"`
	Category      categoryResponse    `json:"category"`
	Date          *openapi_types.Date `json:"date,omitempty"`
}

type categoryTotalResponse struct {
	Category categoryResponse `json:"category"`
	Total    float64          `json:"total"`
	Count    int              `json:"count"`
}

type expenseSummaryResponse struct {
	Total        float64                 `json:"total"`
	TotalDisplay string                  `json:"totalDisplay"`
	Expenses     []expenseResponse       `json:"expenses"`
	ByCategory   []categoryTotalResponse `json:"byCategory"`
	InvalidCount int                     `json:"invalidCount,omitempty"`
}

type packingItemResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Packed   bool   `json:"packed"`
}

type packingGroupResponse struct {
	Category    string                `json:"category"`
	Label       string                `json:"label"`
	Items       []packingItemResponse `json:"items"`
	PackedCount int                   `json:"packedCount"`
	TotalCount  int                   `json:"totalCount"`
}

type packingSummaryResponse struct {
	Groups      []packingGroupResponse `json:"groups"`
	PackedCount int                    `json:"packedCount"`
	TotalCount  int                    `json:"totalCount"`
	Progress    float64                `json:"progress"`
}

type placeResponse struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	DisplayName string  `json:"displayName,omitempty"`
}

type forecastDayResponse struct {
	Date       openapi_types.Date `json:"date"`
	Code       int                `json:"weatherCode"`
	TempMax    float64            `json:"tempMax"`
	TempMin    float64            `json:"tempMin"`
	PrecipProb float64            `json:"precipitationProbability"`
	Windspeed  float64            `json:"windspeed"`
	Advice     string             `json:"advice"`
}

type forecastResponse struct {
	Place placeResponse         `json:"place"`
	Days  []forecastDayResponse `json:"days"`
}

type markerResponse struct {
	ItemID   string           `json:"itemId"`
	Title    string           `json:"title"`
	Location string           `json:"location"`
	Date     string           `json:"date,omitempty"`
	Category categoryResponse `json:"category"`
	Lat      float64          `json:"lat"`
	Lon      float64          `json:"lon"`
}

type createdResponse struct {
	ID string `json:"id"`
}

type deletedResponse struct {
	Removed bool `json:"removed"`
}

type shareResponse struct {
	Token string `json:"token"`
}

type sharedTripResponse struct {
	Trip      tripResponse   `json:"trip"`
	Itinerary []itemResponse `json:"itinerary"`
}

// --- mapping helpers --------------------------------------------------------

// dateOrNil converts a calendar date, nil for the zero time.
func dateOrNil(t time.Time) *openapi_types.Date {
	if t.IsZero() {
		return nil
	}
	return &openapi_types.Date{Time: t}
}

func timeOrNil(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func categoryToResponse(c domain.CategoryInfo) categoryResponse {
	return categoryResponse{Key: c.Key, Label: c.Label, Icon: c.Icon, Color: c.Color}
}

// tripToResponse converts a domain.Trip. The share token is only shown to
// the owner, so View responses pass withToken=false.
func tripToResponse(t domain.Trip, withToken bool) tripResponse {
	resp := tripResponse{
		ID:          t.ID,
		Name:        t.DisplayName(),
		Destination: t.Destination,
		StartDate:   dateOrNil(t.StartDate),
		EndDate:     dateOrNil(t.EndDate),
		Notes:       t.Notes,
		IsShared:    t.IsShared,
		CreatedAt:   timeOrNil(t.CreatedAt),
	}
	if withToken {
		resp.ShareToken = t.ShareToken
	}
	return resp
}

func experienceToResponse(e *domain.Experience) *experienceResponse {
	if e == nil {
		return nil
	}
	resp := &experienceResponse{Rating: e.Rating, Journal: e.Journal}
	if len(e.Photos) > 0 {
		resp.Photos = photosToResponse(e.Photos)
	}
	return resp
}

func itemToResponse(it domain.ItineraryItem) itemResponse {
	return itemResponse{
		ID:         it.ID,
		Title:      it.DisplayTitle(),
		Category:   categoryToResponse(it.Category.Info()),
		Location:   it.Location,
		Date:       dateOrNil(it.Date),
		Time:       it.Time,
		Notes:      it.Notes,
		Experience: experienceToResponse(it.Experience),
	}
}

func itemsToResponse(items []domain.ItineraryItem) []itemResponse {
	out := make([]itemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, itemToResponse(it))
	}
	return out
}

func daysToResponse(days []aggregate.DayGroup) []dayResponse {
	out := make([]dayResponse, 0, len(days))
	for _, d := range days {
		out = append(out, dayResponse{Date: dateOrNil(d.Date), Undated: d.Undated, Items: itemsToResponse(d.Items)})
	}
	return out
}

func expenseToResponse(e domain.Expense) expenseResponse {
	return expenseResponse{
		ID:            e.ID,
		Description:   e.Description,
		Amount:        e.Amount.Float(),
		AmountInvalid: e.AmountInvalid,
		Category:      categoryToResponse(e.Category.Info()),
		Date:          dateOrNil(e.Date),
	}
}

func expenseSummaryToResponse(s aggregate.ExpenseSummary) expenseSummaryResponse {
	resp := expenseSummaryResponse{
		Total:        s.Total.Float(),
		TotalDisplay: s.Total.String(),
		Expenses:     make([]expenseResponse, 0, len(s.Ordered)),
		ByCategory:   make([]categoryTotalResponse, 0, len(s.ByCategory)),
		InvalidCount: s.Invalid,
	}
	for _, e := range s.Ordered {
		resp.Expenses = append(resp.Expenses, expenseToResponse(e))
	}
	for _, c := range s.ByCategory {
		resp.ByCategory = append(resp.ByCategory, categoryTotalResponse{
			Category: categoryToResponse(c.Info),
			Total:    c.Total.Float(),
			Count:    c.Count,
		})
	}
	return resp
}

func packingSummaryToResponse(s aggregate.PackingSummary) packingSummaryResponse {
	resp := packingSummaryResponse{
		Groups:      make([]packingGroupResponse, 0, len(s.Groups)),
		PackedCount: s.PackedCount,
		TotalCount:  s.TotalCount,
		Progress:    s.Progress(),
	}
	for _, g := range s.Groups {
		items := make([]packingItemResponse, 0, len(g.Items))
		for _, it := range g.Items {
			items = append(items, packingItemResponse{ID: it.ID, Name: it.Name, Category: it.Category, Packed: it.Packed})
		}
		resp.Groups = append(resp.Groups, packingGroupResponse{
			Category:    g.Category,
			Label:       g.Label,
			Items:       items,
			PackedCount: g.PackedCount,
			TotalCount:  g.TotalCount,
		})
	}
	return resp
}

func placeToResponse(p geocode.Place) placeResponse {
	return placeResponse{Lat: p.Lat, Lon: p.Lon, DisplayName: p.DisplayName}
}

func forecastToResponse(f service.Forecast) forecastResponse {
	resp := forecastResponse{Place: placeToResponse(f.Place), Days: make([]forecastDayResponse, 0, len(f.Days))}
	for _, d := range f.Days {
		resp.Days = append(resp.Days, forecastDayResponse{
			Date:       openapi_types.Date{Time: d.Date},
			Code:       d.Code,
			TempMax:    d.TempMax,
			TempMin:    d.TempMin,
			PrecipProb: d.PrecipProb,
			Windspeed:  d.Windspeed,
			Advice:     d.Advice,
		})
	}
	return resp
}

func markersToResponse(markers []service.Marker) []markerResponse {
	out := make([]markerResponse, 0, len(markers))
	for _, m := range markers {
		out = append(out, markerResponse{
			ItemID:   m.ItemID,
			Title:    m.Title,
			Location: m.Location,
			Date:     m.Date,
			Category: categoryToResponse(m.Category),
			Lat:      m.Lat,
			Lon:      m.Lon,
		})
	}
	return out
}

func photosToResponse(photos map[string]domain.Photo) map[string]photoResponse {
	out := make(map[string]photoResponse, len(photos))
	for id, p := range photos {
		out[id] = photoResponse{URL: p.URL, PublicID: p.PublicID}
	}
	return out
}
