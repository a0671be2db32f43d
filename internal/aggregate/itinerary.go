package aggregate

import (
	"cmp"
	"slices"
	"time"

	"github.com/pkordes/wanderlust/backend/internal/domain"
)

// DayGroup is the itinerary for one calendar day. The undated group has a zero
// Date and Undated set.
type DayGroup struct {
	Date    time.Time
	Undated bool
	Items   []domain.ItineraryItem
}

// GroupItineraryByDay partitions records by calendar date. Items within a day
// sort by time as "HH:MM" strings, so items without a time come first; ties
// go to the lower id. Items with a missing or malformed date form one undated
// group placed after every dated group.
func (p Policy) GroupItineraryByDay(records map[string]domain.ItineraryItem) []DayGroup {
	byDay := make(map[time.Time][]domain.ItineraryItem)
	var undated []domain.ItineraryItem
	for id, item := range records {
		item.ID = id
		if !item.Dated() {
			undated = append(undated, item)
			continue
		}
		day := calendarDay(item.Date)
		byDay[day] = append(byDay[day], item)
	}

	groups := make([]DayGroup, 0, len(byDay)+1)
	for day, items := range byDay {
		sortItems(items)
		groups = append(groups, DayGroup{Date: day, Items: items})
	}
	slices.SortFunc(groups, func(a, b DayGroup) int {
		return p.Days.apply(a.Date.Compare(b.Date))
	})

	if len(undated) > 0 {
		sortItems(undated)
		groups = append(groups, DayGroup{Undated: true, Items: undated})
	}
	return groups
}

// FlattenItinerary returns every item in day-group order. The share view
// lists the itinerary this way.
func (p Policy) FlattenItinerary(records map[string]domain.ItineraryItem) []domain.ItineraryItem {
	out := make([]domain.ItineraryItem, 0, len(records))
	for _, g := range p.GroupItineraryByDay(records) {
		out = append(out, g.Items...)
	}
	return out
}

func sortItems(items []domain.ItineraryItem) {
	slices.SortFunc(items, func(a, b domain.ItineraryItem) int {
		if c := cmp.Compare(a.Time, b.Time); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// calendarDay drops the clock so items on the same date group together
// regardless of how their dates were parsed.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
