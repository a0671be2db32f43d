package domain

import (
	"strings"
	"time"
)

// ItineraryCategory classifies an itinerary item. Unknown values resolve to
// CategoryOther through ResolveItineraryCategory.
type ItineraryCategory string

const (
	CategoryFlight    ItineraryCategory = "flight"
	CategoryLodging   ItineraryCategory = "lodging"
	CategoryTransport ItineraryCategory = "transport"
	CategoryDining    ItineraryCategory = "dining"
	CategoryActivity  ItineraryCategory = "activity"
	CategoryOther     ItineraryCategory = "other"
)

// CategoryInfo is the presentation data attached to a category key.
type CategoryInfo struct {
	Key   string
	Label string
	Icon  string
	// Color is the map marker colour.
	Color string
}

var itineraryCategories = map[ItineraryCategory]CategoryInfo{
	CategoryFlight:    {Key: "flight", Label: "Flight", Icon: "fas fa-plane-departure", Color: "blue"},
	CategoryLodging:   {Key: "lodging", Label: "Lodging", Icon: "fas fa-hotel", Color: "purple"},
	CategoryTransport: {Key: "transport", Label: "Transport", Icon: "fas fa-car", Color: "orange"},
	CategoryDining:    {Key: "dining", Label: "Dining", Icon: "fas fa-utensils", Color: "red"},
	CategoryActivity:  {Key: "activity", Label: "Activity", Icon: "fas fa-ticket-alt", Color: "green"},
	CategoryOther:     {Key: "other", Label: "Other", Icon: "fas fa-map-pin", Color: "gray"},
}

// ResolveItineraryCategory maps raw input to a known category.
// Matching is case-insensitive; blank or unknown input yields CategoryOther.
func ResolveItineraryCategory(s string) ItineraryCategory {
	c := ItineraryCategory(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := itineraryCategories[c]; ok {
		return c
	}
	return CategoryOther
}

// Info returns the label, icon and marker colour for c.
func (c ItineraryCategory) Info() CategoryInfo {
	return itineraryCategories[ResolveItineraryCategory(string(c))]
}

// ItineraryItem is a dated, optionally timed planned activity within a trip.
type ItineraryItem struct {
	ID       string
	Title    string
	Category ItineraryCategory
	Location string
	// Date is the zero time when the stored date is missing or malformed.
	Date time.Time
	// Time is "HH:MM" or empty.
	Time       string
	Notes      string
	Experience *Experience
	CreatedAt  time.Time
}

// DisplayTitle returns the title, or "Untitled Item" when it is blank.
func (i ItineraryItem) DisplayTitle() string {
	if strings.TrimSpace(i.Title) == "" {
		return "Untitled Item"
	}
	return i.Title
}

// Dated reports whether the item carries a usable calendar date.
func (i ItineraryItem) Dated() bool {
	return !i.Date.IsZero()
}

// MaxRating is the highest star rating an Experience can hold.
const MaxRating = 5

// Experience is the retrospective content attached to an itinerary item.
type Experience struct {
	Rating  int
	Journal string
	Photos  map[string]Photo
}

// Empty reports whether the experience carries nothing worth persisting.
func (e Experience) Empty() bool {
	return e.Rating == 0 && strings.TrimSpace(e.Journal) == "" && len(e.Photos) == 0
}

// ClampRating limits r to the range [0, MaxRating].
func ClampRating(r int) int {
	if r < 0 {
		return 0
	}
	if r > MaxRating {
		return MaxRating
	}
	return r
}

// Photo is an image hosted by the image hosting service.
// PublicID is the host's handle used to delete it.
type Photo struct {
	URL      string
	PublicID string
}
