package aggregate

import (
	"cmp"
	"slices"

	"github.com/pkordes/wanderlust/backend/internal/domain"
)

// PackingGroup holds the items of one packing category.
type PackingGroup struct {
	Category    string // normalized key
	Label       string
	Items       []domain.PackingItem
	PackedCount int
	TotalCount  int
}

// PackingSummary is the packing list view model.
type PackingSummary struct {
	Groups      []PackingGroup
	PackedCount int
	TotalCount  int
}

// Progress is the packed fraction across all items in [0, 1], 0 when the list
// is empty.
func (s PackingSummary) Progress() float64 {
	if s.TotalCount == 0 {
		return 0
	}
	return float64(s.PackedCount) / float64(s.TotalCount)
}

// GroupPackingByCategory groups records by normalized category, ordered
// alphabetically by key. Items inside a group sort by name, then id.
func GroupPackingByCategory(records map[string]domain.PackingItem) PackingSummary {
	byCategory := make(map[string]*PackingGroup)
	sum := PackingSummary{Groups: []PackingGroup{}}

	for id, item := range records {
		item.ID = id
		item.Category = domain.NormalizePackingCategory(item.Category)

		g, ok := byCategory[item.Category]
		if !ok {
			g = &PackingGroup{Category: item.Category, Label: domain.CategoryLabel(item.Category)}
			byCategory[item.Category] = g
		}
		g.Items = append(g.Items, item)
		g.TotalCount++
		sum.TotalCount++
		if item.Packed {
			g.PackedCount++
			sum.PackedCount++
		}
	}

	for _, g := range byCategory {
		slices.SortFunc(g.Items, func(a, b domain.PackingItem) int {
			if c := cmp.Compare(a.Name, b.Name); c != 0 {
				return c
			}
			return cmp.Compare(a.ID, b.ID)
		})
		sum.Groups = append(sum.Groups, *g)
	}
	slices.SortFunc(sum.Groups, func(a, b PackingGroup) int {
		return cmp.Compare(a.Category, b.Category)
	})
	return sum
}
