package domain

// ExportRow is a single row in a user's full-data export.
// It is a flat, denormalized view: one row per itinerary item, with trip
// fields repeated for every item on that trip. Trips with no itinerary items
// yield one row with zero values for all item fields.
type ExportRow struct {
	// Trip fields, repeated for every item on the trip.
	TripID          string
	TripName        string
	TripDestination string
	TripStartDate   string // "2006-01-02", empty when unset
	TripEndDate     string // "2006-01-02", empty when unset

	// Item fields, zero values when the trip has no items.
	ItemTitle    string
	ItemCategory string
	ItemLocation string
	ItemDate     string
	ItemTime     string
	ItemNotes    string
	Rating       int

	// TripTotal is the sum of the trip's valid expenses, repeated per row.
	TripTotal Cents
}
