package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"spendlog/internal/core"
	"spendlog/internal/storage"
)

// ChartRefreshPublisher notifies the chart worker that a user's expenses
// changed. The AMQP client implements it; a nil publisher disables the
// pipeline entirely.
type ChartRefreshPublisher interface {
	PublishChartRefresh(ctx context.Context, userID int64) error
}

// ExpenseInput carries the raw form fields of an expense before validation.
type ExpenseInput struct {
	Amount   string
	Category string
	Note     string
	Date     string
}

// ExpenseService orchestrates expense operations: validation, persistence and
// the asynchronous chart refresh that follows every mutation.
type ExpenseService struct {
	storage   *storage.SQLiteRepository
	publisher ChartRefreshPublisher
}

func NewExpenseService(storage *storage.SQLiteRepository, publisher ChartRefreshPublisher) *ExpenseService {
	return &ExpenseService{
		storage:   storage,
		publisher: publisher,
	}
}

func (s *ExpenseService) parseInput(in ExpenseInput) (core.Expense, error) {
	cents, err := core.ParseDecimalToCents(in.Amount)
	if err != nil {
		return core.Expense{}, err
	}

	date, err := core.ParseDate(in.Date)
	if err != nil {
		return core.Expense{}, err
	}

	e := core.Expense{
		Amount:   core.Money{Cents: cents},
		Category: strings.TrimSpace(in.Category),
		Note:     strings.TrimSpace(in.Note),
		Date:     date,
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

// Add validates and stores a new expense for the owner.
func (s *ExpenseService) Add(ctx context.Context, ownerID int64, in ExpenseInput) (core.Expense, error) {
	e, err := s.parseInput(in)
	if err != nil {
		return core.Expense{}, err
	}
	e.OwnerID = ownerID

	created, err := s.storage.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.publishRefresh(ctx, ownerID)
	return created, nil
}

// List returns all of the owner's expenses, newest first.
func (s *ExpenseService) List(ctx context.Context, ownerID int64) ([]core.Expense, error) {
	return s.storage.ListExpensesByOwner(ctx, ownerID)
}

// Get loads one expense, enforcing ownership. A record owned by someone else
// yields ErrForbidden; the HTTP layer renders both that and ErrNotFound as a
// 404 so record ids cannot be probed.
func (s *ExpenseService) Get(ctx context.Context, ownerID, id int64) (core.Expense, error) {
	e, err := s.storage.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, err
	}
	if e.OwnerID != ownerID {
		return core.Expense{}, fmt.Errorf("%w: expense %d", core.ErrForbidden, id)
	}
	return e, nil
}

// Update overwrites the mutable fields of an owned expense. Last write wins;
// there is no optimistic locking on the row.
func (s *ExpenseService) Update(ctx context.Context, ownerID, id int64, in ExpenseInput) (core.Expense, error) {
	current, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return core.Expense{}, err
	}

	e, err := s.parseInput(in)
	if err != nil {
		return core.Expense{}, err
	}
	e.ID = current.ID
	e.OwnerID = current.OwnerID

	if err := s.storage.UpdateExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}

	s.publishRefresh(ctx, ownerID)
	return s.storage.GetExpense(ctx, id)
}

// Remove deletes an owned expense.
func (s *ExpenseService) Remove(ctx context.Context, ownerID, id int64) error {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return err
	}

	if err := s.storage.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	s.publishRefresh(ctx, ownerID)
	return nil
}

// publishRefresh is fire-and-forget: the expense is already persisted, so a
// broker outage only delays the pre-rendered charts.
func (s *ExpenseService) publishRefresh(ctx context.Context, ownerID int64) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "Chart refresh publisher not configured, skipping")
		return
	}
	if err := s.publisher.PublishChartRefresh(ctx, ownerID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish chart refresh",
			"user_id", ownerID, "error", err)
	}
}
