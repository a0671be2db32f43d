package aggregate_test

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/wanderlust/backend/internal/aggregate"
	"github.com/pkordes/wanderlust/backend/internal/domain"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, ok := domain.ParseDate(s)
	require.True(t, ok, "bad fixture date %q", s)
	return d
}

func itemIDs(items []domain.ItineraryItem) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids
}

func expenseIDs(es []domain.Expense) []string {
	ids := make([]string, 0, len(es))
	for _, e := range es {
		ids = append(ids, e.ID)
	}
	return ids
}

// Amounts are summed as integer cents; totals are compared in cents.

func TestSummarizeExpenses_ScenarioA(t *testing.T) {
	a12_50, err := domain.ParseAmount(12.50)
	require.NoError(t, err)
	a7_5, err := domain.ParseAmount(7.5)
	require.NoError(t, err)

	got := aggregate.SummarizeExpenses(map[string]domain.Expense{
		"e1": {Amount: a12_50, Date: date(t, "2024-01-02")},
		"e2": {Amount: a7_5, Date: date(t, "2024-01-01")},
	})

	assert.Equal(t, domain.Cents(2000), got.Total)
	assert.Equal(t, "20.00", got.Total.String())
	if diff := cmp.Diff([]string{"e1", "e2"}, expenseIDs(got.Ordered)); diff != "" {
		t.Errorf("ordered mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarizeExpenses_Empty(t *testing.T) {
	got := aggregate.SummarizeExpenses(nil)

	assert.Equal(t, domain.Cents(0), got.Total)
	assert.NotNil(t, got.Ordered)
	assert.Empty(t, got.Ordered)
	assert.Empty(t, got.ByCategory)
}

func TestSummarizeExpenses_TiesByIDDescending(t *testing.T) {
	d := date(t, "2024-05-05")

	got := aggregate.SummarizeExpenses(map[string]domain.Expense{
		"a": {Amount: 100, Date: d},
		"c": {Amount: 100, Date: d},
		"b": {Amount: 100, Date: d},
	})

	assert.Equal(t, []string{"c", "b", "a"}, expenseIDs(got.Ordered))
}

func TestSummarizeExpenses_OldestFirstPolicy(t *testing.T) {
	p := aggregate.Policy{Expenses: aggregate.Ascending}

	got := p.SummarizeExpenses(map[string]domain.Expense{
		"e1": {Amount: 100, Date: date(t, "2024-01-02")},
		"e2": {Amount: 100, Date: date(t, "2024-01-01")},
	})

	assert.Equal(t, []string{"e2", "e1"}, expenseIDs(got.Ordered))
}

func TestSummarizeExpenses_MalformedAmountExcluded(t *testing.T) {
	got := aggregate.SummarizeExpenses(map[string]domain.Expense{
		"ok":  {Amount: 500, Category: domain.ExpenseFood, Date: date(t, "2024-01-01")},
		"bad": {Amount: 999, AmountInvalid: true, Category: domain.ExpenseFood, Date: date(t, "2024-01-02")},
	})

	assert.Equal(t, domain.Cents(500), got.Total)
	assert.Equal(t, 1, got.Invalid)
	require.Len(t, got.Ordered, 2)
	assert.Equal(t, "bad", got.Ordered[0].ID)
	assert.Equal(t, domain.Cents(0), got.Ordered[0].Amount, "shown as zero")
	require.Len(t, got.ByCategory, 1)
	assert.Equal(t, domain.Cents(500), got.ByCategory[0].Total)
	assert.Equal(t, 2, got.ByCategory[0].Count)
}

func TestSummarizeExpenses_ByCategory(t *testing.T) {
	got := aggregate.SummarizeExpenses(map[string]domain.Expense{
		"1": {Amount: 1000, Category: domain.ExpenseTransport},
		"2": {Amount: 250, Category: domain.ExpenseFood},
		"3": {Amount: 750, Category: domain.ExpenseFood},
		"4": {Amount: 100, Category: "mystery"},
	})

	want := []aggregate.CategoryTotal{
		{Category: domain.ExpenseFood, Info: domain.ExpenseFood.Info(), Total: 1000, Count: 2},
		{Category: domain.ExpenseOther, Info: domain.ExpenseOther.Info(), Total: 100, Count: 1},
		{Category: domain.ExpenseTransport, Info: domain.ExpenseTransport.Info(), Total: 1000, Count: 1},
	}
	if diff := cmp.Diff(want, got.ByCategory); diff != "" {
		t.Errorf("by category mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarizeExpenses_TotalEqualsSum(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	for range 50 {
		records := make(map[string]domain.Expense)
		var want domain.Cents
		for i := range 1 + rng.IntN(40) {
			// Random two-decimal amounts, parsed from their decimal form.
			raw := float64(1+rng.IntN(1_000_000)) / 100
			amt, err := domain.ParseAmount(raw)
			require.NoError(t, err)
			want += amt
			records[string(rune('a'+i%26))+string(rune('0'+i/26))] = domain.Expense{Amount: amt}
		}

		got := aggregate.SummarizeExpenses(records)

		assert.Equal(t, want, got.Total)
		assert.Len(t, got.Ordered, len(records))
	}
}

func TestGroupItineraryByDay_ScenarioB(t *testing.T) {
	d := date(t, "2024-03-01")

	got := aggregate.GroupItineraryByDay(map[string]domain.ItineraryItem{
		"a": {Date: d, Time: "09:00"},
		"b": {Date: d},
		"c": {Date: d, Time: "08:00"},
	})

	require.Len(t, got, 1)
	assert.True(t, got[0].Date.Equal(d))
	assert.Equal(t, []string{"b", "c", "a"}, itemIDs(got[0].Items))
}

func TestGroupItineraryByDay_DaysAscendingUndatedLast(t *testing.T) {
	got := aggregate.GroupItineraryByDay(map[string]domain.ItineraryItem{
		"x": {Date: date(t, "2024-03-03")},
		"y": {},
		"z": {Date: date(t, "2024-03-01"), Time: "10:00"},
		"w": {Date: date(t, "2024-03-01"), Time: "10:00"},
	})

	require.Len(t, got, 3)
	assert.Equal(t, "2024-03-01", domain.FormatDate(got[0].Date))
	assert.Equal(t, []string{"w", "z"}, itemIDs(got[0].Items), "time ties broken by id")
	assert.Equal(t, "2024-03-03", domain.FormatDate(got[1].Date))
	assert.True(t, got[2].Undated)
	assert.Equal(t, []string{"y"}, itemIDs(got[2].Items))
}

func TestGroupItineraryByDay_DescendingKeepsUndatedLast(t *testing.T) {
	p := aggregate.Policy{Days: aggregate.Descending}

	got := p.GroupItineraryByDay(map[string]domain.ItineraryItem{
		"x": {Date: date(t, "2024-03-03")},
		"y": {},
		"z": {Date: date(t, "2024-03-01")},
	})

	require.Len(t, got, 3)
	assert.Equal(t, "2024-03-03", domain.FormatDate(got[0].Date))
	assert.Equal(t, "2024-03-01", domain.FormatDate(got[1].Date))
	assert.True(t, got[2].Undated)
}

func TestGroupItineraryByDay_Properties(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	times := []string{"", "07:30", "08:00", "12:15", "18:45", "23:59"}
	base := date(t, "2024-06-01")

	for range 50 {
		records := make(map[string]domain.ItineraryItem)
		for i := range rng.IntN(30) {
			records[string(rune('A'+i))] = domain.ItineraryItem{
				Date: base.AddDate(0, 0, rng.IntN(5)),
				Time: times[rng.IntN(len(times))],
			}
		}

		groups := aggregate.GroupItineraryByDay(records)

		n := 0
		for gi, g := range groups {
			n += len(g.Items)
			if gi > 0 {
				assert.True(t, groups[gi-1].Date.Before(g.Date), "days ascending")
			}
			for i := 1; i < len(g.Items); i++ {
				assert.LessOrEqual(t, g.Items[i-1].Time, g.Items[i].Time, "times ascending")
			}
		}
		assert.Equal(t, len(records), n, "every item lands in one group")
	}
}

func TestFlattenItinerary(t *testing.T) {
	got := aggregate.FlattenItinerary(map[string]domain.ItineraryItem{
		"late":    {Date: date(t, "2024-03-02"), Time: "08:00"},
		"undated": {},
		"early":   {Date: date(t, "2024-03-01"), Time: "20:00"},
		"first":   {Date: date(t, "2024-03-01")},
	})

	assert.Equal(t, []string{"first", "early", "late", "undated"}, itemIDs(got))
}

func TestGroupPackingByCategory(t *testing.T) {
	got := aggregate.GroupPackingByCategory(map[string]domain.PackingItem{
		"1": {Name: "Socks", Category: "Clothes", Packed: true},
		"2": {Name: "Charger", Category: "electronics"},
		"3": {Name: "Hat", Category: "  clothes "},
		"4": {Name: "Passport", Category: ""},
	})

	require.Len(t, got.Groups, 3)
	assert.Equal(t, []string{"clothes", "electronics", "other"},
		[]string{got.Groups[0].Category, got.Groups[1].Category, got.Groups[2].Category})
	assert.Equal(t, "Clothes", got.Groups[0].Label)
	assert.Equal(t, 1, got.Groups[0].PackedCount)
	assert.Equal(t, 2, got.Groups[0].TotalCount)
	assert.Equal(t, "Hat", got.Groups[0].Items[0].Name)
	assert.Equal(t, "clothes", got.Groups[0].Items[1].Category, "items carry the normalized key")
	assert.Equal(t, 1, got.PackedCount)
	assert.Equal(t, 4, got.TotalCount)
	assert.InDelta(t, 0.25, got.Progress(), 1e-9)
}

func TestGroupPackingByCategory_Empty(t *testing.T) {
	got := aggregate.GroupPackingByCategory(map[string]domain.PackingItem{})

	assert.Empty(t, got.Groups)
	assert.Equal(t, 0, got.PackedCount)
	assert.Equal(t, 0, got.TotalCount)
	assert.Equal(t, 0.0, got.Progress())
}
