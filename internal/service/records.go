package service

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/pkordes/wanderlust/backend/internal/domain"
	"github.com/pkordes/wanderlust/backend/internal/repo"
)

// Store layout. Collections hang off the trip so removing the trip removes
// everything it owns.
const (
	tripsRoot  = "trips"
	sharesRoot = "shares"
)

func tripPath(tripID string) string         { return repo.Join(tripsRoot, tripID) }
func itineraryPath(tripID string) string    { return repo.Join(tripsRoot, tripID, "itinerary") }
func itemPath(tripID, itemID string) string { return repo.Join(itineraryPath(tripID), itemID) }
func expensesPath(tripID string) string     { return repo.Join(tripsRoot, tripID, "expenses") }
func expensePath(tripID, id string) string  { return repo.Join(expensesPath(tripID), id) }
func packingPath(tripID string) string      { return repo.Join(tripsRoot, tripID, "packing") }
func packingItemPath(tripID, id string) string {
	return repo.Join(packingPath(tripID), id)
}
func sharePath(token string) string { return repo.Join(sharesRoot, token) }

// checkID rejects ids that could address a different node than intended.
func checkID(kind, id string) error {
	if id == "" || strings.ContainsAny(id, "/.#$[]") {
		return fmt.Errorf("%w: %s %q", domain.ErrNotFound, kind, id)
	}
	return nil
}

// ---- field readers ---------------------------------------------------------
// Stored records are loosely shaped; every reader falls back to the zero value.

func str(n repo.Node, key string) string {
	s, _ := n[key].(string)
	return s
}

func boolean(n repo.Node, key string) bool {
	b, _ := n[key].(bool)
	return b
}

func number(v any) (float64, bool) {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func date(n repo.Node, key string) time.Time {
	d, _ := domain.ParseDate(str(n, key))
	return d
}

// millis reads a ServerTimestamp-resolved field.
func millis(n repo.Node, key string) time.Time {
	f, ok := number(n[key])
	if !ok {
		return time.Time{}
	}
	return time.UnixMilli(int64(f)).UTC()
}

// optional returns s, or nil (which deletes the field on Update) when blank.
func optional(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return s
}

// ---- Trip ------------------------------------------------------------------

func decodeTrip(id string, n repo.Node) domain.Trip {
	return domain.Trip{
		ID:          id,
		Owner:       str(n, "owner"),
		Name:        str(n, "name"),
		Destination: str(n, "destination"),
		StartDate:   date(n, "startDate"),
		EndDate:     date(n, "endDate"),
		Notes:       str(n, "notes"),
		IsShared:    boolean(n, "isShared"),
		ShareToken:  str(n, "shareToken"),
		CreatedAt:   millis(n, "createdAt"),
	}
}

// sortTrips orders trips by start date, undated trips last, ties by id.
func sortTrips(trips []domain.Trip) {
	slices.SortFunc(trips, func(a, b domain.Trip) int {
		if a.StartDate.IsZero() != b.StartDate.IsZero() {
			if a.StartDate.IsZero() {
				return 1
			}
			return -1
		}
		if c := a.StartDate.Compare(b.StartDate); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// ---- Itinerary -------------------------------------------------------------

func decodeItem(id string, n repo.Node) domain.ItineraryItem {
	item := domain.ItineraryItem{
		ID:        id,
		Title:     str(n, "title"),
		Category:  domain.ResolveItineraryCategory(str(n, "category")),
		Location:  str(n, "location"),
		Date:      date(n, "date"),
		Time:      str(n, "time"),
		Notes:     str(n, "notes"),
		CreatedAt: millis(n, "createdAt"),
	}
	if raw, ok := n["experience"].(map[string]any); ok {
		exp := decodeExperience(repo.Node(raw))
		if !exp.Empty() {
			item.Experience = &exp
		}
	}
	return item
}

func decodeExperience(n repo.Node) domain.Experience {
	exp := domain.Experience{Journal: str(n, "journal")}
	if r, ok := number(n["rating"]); ok {
		exp.Rating = domain.ClampRating(int(r))
	}
	if photos, ok := n["photos"].(map[string]any); ok && len(photos) > 0 {
		exp.Photos = make(map[string]domain.Photo, len(photos))
		for id, raw := range photos {
			p, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			exp.Photos[id] = domain.Photo{URL: str(p, "url"), PublicID: str(p, "public_id")}
		}
	}
	return exp
}

func encodeExperience(e domain.Experience) repo.Node {
	n := repo.Node{"rating": e.Rating}
	if e.Journal != "" {
		n["journal"] = e.Journal
	}
	if len(e.Photos) > 0 {
		photos := make(map[string]any, len(e.Photos))
		for id, p := range e.Photos {
			photos[id] = map[string]any{"url": p.URL, "public_id": p.PublicID}
		}
		n["photos"] = photos
	}
	return n
}

func decodeItems(children []repo.Child) map[string]domain.ItineraryItem {
	out := make(map[string]domain.ItineraryItem, len(children))
	for _, c := range children {
		out[c.Key] = decodeItem(c.Key, c.Value)
	}
	return out
}

// ---- Expense ---------------------------------------------------------------

func decodeExpense(id string, n repo.Node) domain.Expense {
	e := domain.Expense{
		ID:          id,
		Description: str(n, "description"),
		Category:    domain.ResolveExpenseCategory(str(n, "category")),
		Date:        date(n, "date"),
		CreatedAt:   millis(n, "createdAt"),
	}
	amount, err := domain.ParseAmount(n["amount"])
	if err != nil {
		e.AmountInvalid = true
	} else {
		e.Amount = amount
	}
	return e
}

func decodeExpenses(children []repo.Child) map[string]domain.Expense {
	out := make(map[string]domain.Expense, len(children))
	for _, c := range children {
		out[c.Key] = decodeExpense(c.Key, c.Value)
	}
	return out
}

// ---- Packing ---------------------------------------------------------------

func decodePacking(id string, n repo.Node) domain.PackingItem {
	return domain.PackingItem{
		ID:       id,
		Name:     str(n, "name"),
		Category: domain.NormalizePackingCategory(str(n, "category")),
		Packed:   boolean(n, "packed"),
	}
}

func decodePackingItems(children []repo.Child) map[string]domain.PackingItem {
	out := make(map[string]domain.PackingItem, len(children))
	for _, c := range children {
		out[c.Key] = decodePacking(c.Key, c.Value)
	}
	return out
}
