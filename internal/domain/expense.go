package domain

import (
	"strings"
	"time"
)

// ExpenseCategory classifies an expense. Unknown values resolve to
// ExpenseOther through ResolveExpenseCategory.
type ExpenseCategory string

const (
	ExpenseFood       ExpenseCategory = "food"
	ExpenseTransport  ExpenseCategory = "transport"
	ExpenseLodging    ExpenseCategory = "lodging"
	ExpenseActivities ExpenseCategory = "activities"
	ExpenseShopping   ExpenseCategory = "shopping"
	ExpenseOther      ExpenseCategory = "other"
)

var expenseCategories = map[ExpenseCategory]CategoryInfo{
	ExpenseFood:       {Key: "food", Label: "Food", Icon: "fas fa-utensils"},
	ExpenseTransport:  {Key: "transport", Label: "Transport", Icon: "fas fa-car"},
	ExpenseLodging:    {Key: "lodging", Label: "Lodging", Icon: "fas fa-hotel"},
	ExpenseActivities: {Key: "activities", Label: "Activities", Icon: "fas fa-ticket-alt"},
	ExpenseShopping:   {Key: "shopping", Label: "Shopping", Icon: "fas fa-shopping-bag"},
	ExpenseOther:      {Key: "other", Label: "Other", Icon: "fas fa-receipt"},
}

// ResolveExpenseCategory maps raw input to a known expense category.
func ResolveExpenseCategory(s string) ExpenseCategory {
	c := ExpenseCategory(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := expenseCategories[c]; ok {
		return c
	}
	return ExpenseOther
}

// Info returns the label and icon for c.
func (c ExpenseCategory) Info() CategoryInfo {
	return expenseCategories[ResolveExpenseCategory(string(c))]
}

// Expense is money spent during a trip.
//
// AmountInvalid is set when the stored amount could not be parsed; Amount is
// then 0 and the expense is left out of totals.
type Expense struct {
	ID            string
	Description   string
	Amount        Cents
	AmountInvalid bool
	Category      ExpenseCategory
	Date          time.Time
	CreatedAt     time.Time
}
