package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/pkordes/wanderlust/backend/internal/aggregate"
	"github.com/pkordes/wanderlust/backend/internal/domain"
	"github.com/pkordes/wanderlust/backend/internal/realtime"
	"github.com/pkordes/wanderlust/backend/internal/repo"
	"github.com/pkordes/wanderlust/backend/internal/validation"
)

// Watcher opens standing subscriptions. *realtime.Hub implements it.
type Watcher interface {
	Subscribe(ctx context.Context, parent string, q repo.Query, onChange func([]repo.Child)) (*realtime.Subscription, error)
}

// ExpenseInput holds the fields of a new expense.
type ExpenseInput struct {
	Description string  `json:"description" validate:"notblank,max=200"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category" validate:"max=50"`
	Date        string  `json:"date" validate:"required"`
}

// ExpenseUpdate holds the fields to change on an expense; nil means unchanged.
type ExpenseUpdate struct {
	Description *string  `json:"description" validate:"omitempty,notblank,max=200"`
	Amount      *float64 `json:"amount"`
	Category    *string  `json:"category" validate:"omitempty,max=50"`
	Date        *string  `json:"date" validate:"omitempty"`
}

// ExpenseService implements the expense mutator and the expense view model.
type ExpenseService struct {
	store    repo.RecordStore
	watcher  Watcher
	validate *validation.Validator
	policy   aggregate.Policy
	access   tripAccess
}

// NewExpenseService constructs an ExpenseService.
func NewExpenseService(store repo.RecordStore, w Watcher, v *validation.Validator, p aggregate.Policy) *ExpenseService {
	return &ExpenseService{store: store, watcher: w, validate: v, policy: p, access: tripAccess{store: store}}
}

// Create validates and stores a new expense and returns its id.
// Returns domain.ErrValidation when the description is blank or the amount is
// not a positive number.
func (s *ExpenseService) Create(ctx context.Context, sess domain.Session, tripID string, in ExpenseInput) (string, error) {
	if _, err := s.access.owned(ctx, sess, tripID); err != nil {
		return "", fmt.Errorf("service.ExpenseService.Create: %w", err)
	}

	err := s.validate.Validate(in)
	amount, amountErr := positiveAmount(in.Amount)
	if amountErr != nil {
		err = validation.Add(err, "amount", amountErr.Error())
	}
	if _, ok := domain.ParseDate(in.Date); in.Date != "" && !ok {
		err = validation.Add(err, "date", "must be a date as YYYY-MM-DD")
	}
	if err != nil {
		return "", fmt.Errorf("service.ExpenseService.Create: %w", err)
	}

	id, err := s.store.Push(ctx, expensesPath(tripID), repo.Node{
		"description": in.Description,
		"amount":      amount.Float(),
		"category":    string(domain.ResolveExpenseCategory(in.Category)),
		"date":        in.Date,
		"createdAt":   repo.ServerTimestamp,
	})
	if err != nil {
		return "", fmt.Errorf("service.ExpenseService.Create: %w", err)
	}
	return id, nil
}

// Update applies the non-nil fields of in to an existing expense.
// Returns domain.ErrNotFound if the expense does not exist.
func (s *ExpenseService) Update(ctx context.Context, sess domain.Session, tripID, id string, in ExpenseUpdate) error {
	if _, err := s.access.owned(ctx, sess, tripID); err != nil {
		return fmt.Errorf("service.ExpenseService.Update: %w", err)
	}
	if err := checkID("expense", id); err != nil {
		return fmt.Errorf("service.ExpenseService.Update: %w", err)
	}

	err := s.validate.Validate(in)
	fields := repo.Node{}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.Amount != nil {
		amount, amountErr := positiveAmount(*in.Amount)
		if amountErr != nil {
			err = validation.Add(err, "amount", amountErr.Error())
		}
		fields["amount"] = amount.Float()
	}
	if in.Category != nil {
		fields["category"] = string(domain.ResolveExpenseCategory(*in.Category))
	}
	if in.Date != nil {
		if _, ok := domain.ParseDate(*in.Date); !ok {
			err = validation.Add(err, "date", "must be a date as YYYY-MM-DD")
		}
		fields["date"] = *in.Date
	}
	if err != nil {
		return fmt.Errorf("service.ExpenseService.Update: %w", err)
	}
	if len(fields) == 0 {
		// Nothing to change; still report a missing record.
		if _, err := s.store.Get(ctx, expensePath(tripID, id)); err != nil {
			return fmt.Errorf("service.ExpenseService.Update: %w", err)
		}
		return nil
	}

	if err := s.store.Update(ctx, expensePath(tripID, id), fields); err != nil {
		return fmt.Errorf("service.ExpenseService.Update: %w", err)
	}
	return nil
}

// Delete removes an expense. Deleting an expense that is already gone is not
// an error; removed reports whether this call deleted it.
func (s *ExpenseService) Delete(ctx context.Context, sess domain.Session, tripID, id string) (removed bool, err error) {
	if _, err := s.access.owned(ctx, sess, tripID); err != nil {
		return false, fmt.Errorf("service.ExpenseService.Delete: %w", err)
	}
	if err := checkID("expense", id); err != nil {
		return false, nil
	}
	return removeIfPresent(ctx, s.store, expensePath(tripID, id), "service.ExpenseService.Delete")
}

// Get returns a single expense.
func (s *ExpenseService) Get(ctx context.Context, sess domain.Session, tripID, id string) (domain.Expense, error) {
	if _, err := s.access.owned(ctx, sess, tripID); err != nil {
		return domain.Expense{}, fmt.Errorf("service.ExpenseService.Get: %w", err)
	}
	if err := checkID("expense", id); err != nil {
		return domain.Expense{}, fmt.Errorf("service.ExpenseService.Get: %w", err)
	}
	n, err := s.store.Get(ctx, expensePath(tripID, id))
	if err != nil {
		return domain.Expense{}, fmt.Errorf("service.ExpenseService.Get: %w", err)
	}
	return decodeExpense(id, n), nil
}

// Summary returns the expense view model of a trip.
func (s *ExpenseService) Summary(ctx context.Context, sess domain.Session, tripID string) (aggregate.ExpenseSummary, error) {
	if _, err := s.access.owned(ctx, sess, tripID); err != nil {
		return aggregate.ExpenseSummary{}, fmt.Errorf("service.ExpenseService.Summary: %w", err)
	}
	children, err := s.store.Children(ctx, expensesPath(tripID), repo.Query{OrderByChild: "date"})
	if err != nil {
		return aggregate.ExpenseSummary{}, fmt.Errorf("service.ExpenseService.Summary: %w", err)
	}
	return s.policy.SummarizeExpenses(decodeExpenses(children)), nil
}

// Watch delivers the expense view model now and after every change until ctx
// ends or the subscription is closed.
func (s *ExpenseService) Watch(ctx context.Context, sess domain.Session, tripID string, fn func(aggregate.ExpenseSummary)) (*realtime.Subscription, error) {
	if _, err := s.access.owned(ctx, sess, tripID); err != nil {
		return nil, fmt.Errorf("service.ExpenseService.Watch: %w", err)
	}
	sub, err := s.watcher.Subscribe(ctx, expensesPath(tripID), repo.Query{OrderByChild: "date"}, func(children []repo.Child) {
		fn(s.policy.SummarizeExpenses(decodeExpenses(children)))
	})
	if err != nil {
		return nil, fmt.Errorf("service.ExpenseService.Watch: %w", err)
	}
	return sub, nil
}

// positiveAmount converts a submitted amount to cents and requires it to be
// at least one cent and at most domain.MaxAmount.
func positiveAmount(f float64) (domain.Cents, error) {
	amount, err := domain.ParseAmount(f)
	if errors.Is(err, domain.ErrAmountRange) && f > 0 {
		return 0, fmt.Errorf("must not exceed %s", domain.MaxAmount)
	}
	if err != nil || amount <= 0 {
		return 0, errors.New("must be a positive number")
	}
	return amount, nil
}

// removeIfPresent removes path and reports whether anything was there.
func removeIfPresent(ctx context.Context, store repo.RecordStore, path, op string) (bool, error) {
	if _, err := store.Get(ctx, path); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if err := store.Remove(ctx, path); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}
