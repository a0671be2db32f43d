package aggregate

import (
	"cmp"
	"log/slog"
	"slices"

	"github.com/pkordes/wanderlust/backend/internal/domain"
)

// ExpenseSummary is the expense list view model.
type ExpenseSummary struct {
	// Total sums every valid amount in integer cents, so it is exact to the
	// cent however many expenses there are.
	Total   domain.Cents
	Ordered []domain.Expense
	// ByCategory holds one entry per category with at least one expense,
	// sorted by category key.
	ByCategory []CategoryTotal
	// Invalid counts expenses whose stored amount could not be read. They
	// are listed in Ordered with a zero amount and left out of every total.
	Invalid int
}

// CategoryTotal is the spend in one expense category.
type CategoryTotal struct {
	Category domain.ExpenseCategory
	Info     domain.CategoryInfo
	Total    domain.Cents
	Count    int
}

// SummarizeExpenses totals records and orders them by date (newest first
// under DefaultPolicy), ties broken by id in the same direction. Empty input
// yields a zero total and an empty, non-nil list.
func (p Policy) SummarizeExpenses(records map[string]domain.Expense) ExpenseSummary {
	sum := ExpenseSummary{Ordered: make([]domain.Expense, 0, len(records))}
	byCategory := make(map[domain.ExpenseCategory]*CategoryTotal)

	for id, e := range records {
		e.ID = id
		e.Category = domain.ResolveExpenseCategory(string(e.Category))
		if e.AmountInvalid {
			e.Amount = 0
			sum.Invalid++
		} else {
			sum.Total += e.Amount
		}
		sum.Ordered = append(sum.Ordered, e)

		ct, ok := byCategory[e.Category]
		if !ok {
			ct = &CategoryTotal{Category: e.Category, Info: e.Category.Info()}
			byCategory[e.Category] = ct
		}
		ct.Total += e.Amount
		ct.Count++
	}

	if sum.Invalid > 0 {
		slog.Warn("expenses with malformed amounts excluded from total", "count", sum.Invalid)
	}

	slices.SortFunc(sum.Ordered, func(a, b domain.Expense) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return p.Expenses.apply(c)
		}
		return p.Expenses.apply(cmp.Compare(a.ID, b.ID))
	})

	sum.ByCategory = make([]CategoryTotal, 0, len(byCategory))
	for _, ct := range byCategory {
		sum.ByCategory = append(sum.ByCategory, *ct)
	}
	slices.SortFunc(sum.ByCategory, func(a, b CategoryTotal) int {
		return cmp.Compare(a.Category, b.Category)
	})
	return sum
}
