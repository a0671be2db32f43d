// Package aggregate turns unordered record maps into the deterministic view
// models the front end renders: itinerary grouped by day, expenses with a
// total, packing items grouped by category with progress.
//
// Every function is pure apart from logging. Inputs are maps keyed by record
// id; the key is authoritative and overwrites any ID on the record.
package aggregate

import "github.com/pkordes/wanderlust/backend/internal/domain"

// Order is a sort direction.
type Order int

const (
	Ascending Order = iota
	Descending
)

func (o Order) apply(c int) int {
	if o == Descending {
		return -c
	}
	return c
}

// Policy chooses the orderings the view models use. Earlier versions of the
// app disagreed on these, so they are configurable rather than fixed.
type Policy struct {
	// Days orders itinerary day groups by calendar date. The undated group
	// stays last either way.
	Days Order
	// Expenses orders expenses by date, ties by id in the same direction.
	Expenses Order
}

// DefaultPolicy lists days oldest first and expenses newest first.
var DefaultPolicy = Policy{Days: Ascending, Expenses: Descending}

// GroupItineraryByDay applies DefaultPolicy.
func GroupItineraryByDay(records map[string]domain.ItineraryItem) []DayGroup {
	return DefaultPolicy.GroupItineraryByDay(records)
}

// SummarizeExpenses applies DefaultPolicy.
func SummarizeExpenses(records map[string]domain.Expense) ExpenseSummary {
	return DefaultPolicy.SummarizeExpenses(records)
}

// FlattenItinerary applies DefaultPolicy.
func FlattenItinerary(records map[string]domain.ItineraryItem) []domain.ItineraryItem {
	return DefaultPolicy.FlattenItinerary(records)
}
