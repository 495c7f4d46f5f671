package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"spendlog/internal/core"
)

// recordingPublisher captures refresh notifications instead of hitting a broker.
type recordingPublisher struct {
	userIDs []int64
	err     error
}

func (p *recordingPublisher) PublishChartRefresh(_ context.Context, userID int64) error {
	p.userIDs = append(p.userIDs, userID)
	return p.err
}

func newExpenseFixture(t *testing.T) (*ExpenseService, *recordingPublisher, int64) {
	t.Helper()
	repo := newTestStorage(t)
	pub := &recordingPublisher{}
	svc := NewExpenseService(repo, pub)

	accounts := NewAccountService(repo, time.Hour)
	u, err := accounts.Register(context.Background(), "Ada", "ada@example.com", "pw")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return svc, pub, u.ID
}

func TestExpenseAdd(t *testing.T) {
	svc, pub, ownerID := newExpenseFixture(t)
	ctx := context.Background()

	e, err := svc.Add(ctx, ownerID, ExpenseInput{
		Amount:   "12,50",
		Category: " Food ",
		Note:     "lunch",
		Date:     "2024-03-10",
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if e.Amount.Cents != 1250 {
		t.Fatalf("amount = %d cents, want 1250", e.Amount.Cents)
	}
	if e.Category != "Food" {
		t.Fatalf("category not trimmed: %q", e.Category)
	}
	if len(pub.userIDs) != 1 || pub.userIDs[0] != ownerID {
		t.Fatalf("publish calls = %v, want [%d]", pub.userIDs, ownerID)
	}

	tests := []struct {
		name string
		in   ExpenseInput
	}{
		{"bad amount", ExpenseInput{Amount: "abc", Category: "Food", Date: "2024-03-10"}},
		{"zero amount", ExpenseInput{Amount: "0", Category: "Food", Date: "2024-03-10"}},
		{"empty category", ExpenseInput{Amount: "1.00", Category: "  ", Date: "2024-03-10"}},
		{"bad date", ExpenseInput{Amount: "1.00", Category: "Food", Date: "10/03/2024"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(pub.userIDs)
			_, err := svc.Add(ctx, ownerID, tt.in)
			if !errors.Is(err, core.ErrValidation) {
				t.Fatalf("Add() error = %v, want ErrValidation", err)
			}
			if len(pub.userIDs) != before {
				t.Fatal("rejected input must not trigger a chart refresh")
			}
		})
	}
}

func TestExpenseAddSurvivesPublisherFailure(t *testing.T) {
	svc, pub, ownerID := newExpenseFixture(t)
	pub.err = fmt.Errorf("broker down")

	e, err := svc.Add(context.Background(), ownerID, ExpenseInput{
		Amount: "5.00", Category: "Food", Date: "2024-03-10",
	})
	if err != nil {
		t.Fatalf("Add should succeed despite publish failure: %v", err)
	}

	got, err := svc.Get(context.Background(), ownerID, e.ID)
	if err != nil || got.Amount.Cents != 500 {
		t.Fatalf("expense not persisted: %+v, %v", got, err)
	}
}

func TestExpenseUpdateAndRemove(t *testing.T) {
	svc, pub, ownerID := newExpenseFixture(t)
	ctx := context.Background()

	e, err := svc.Add(ctx, ownerID, ExpenseInput{
		Amount: "10.00", Category: "Food", Date: "2024-03-10",
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	updated, err := svc.Update(ctx, ownerID, e.ID, ExpenseInput{
		Amount: "20.00", Category: "Transport", Note: "bus", Date: "2024-03-11",
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Amount.Cents != 2000 || updated.Category != "Transport" || updated.Date.String() != "2024-03-11" {
		t.Fatalf("update not applied: %+v", updated)
	}

	if err := svc.Remove(ctx, ownerID, e.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := svc.Get(ctx, ownerID, e.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after remove, got %v", err)
	}

	// Add, update and remove each refresh the charts once.
	if len(pub.userIDs) != 3 {
		t.Fatalf("publish calls = %d, want 3", len(pub.userIDs))
	}
}

func TestExpenseOwnershipScoping(t *testing.T) {
	svc, _, adaID := newExpenseFixture(t)
	ctx := context.Background()

	accounts := NewAccountService(svc.storage, time.Hour)
	bob, err := accounts.Register(ctx, "Bob", "bob@example.com", "pw")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	e, err := svc.Add(ctx, adaID, ExpenseInput{
		Amount: "10.00", Category: "Food", Date: "2024-03-10",
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	if _, err := svc.Get(ctx, bob.ID, e.ID); !errors.Is(err, core.ErrForbidden) {
		t.Fatalf("Get across owners: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Update(ctx, bob.ID, e.ID, ExpenseInput{
		Amount: "1.00", Category: "X", Date: "2024-03-10",
	}); !errors.Is(err, core.ErrForbidden) {
		t.Fatalf("Update across owners: expected ErrForbidden, got %v", err)
	}
	if err := svc.Remove(ctx, bob.ID, e.ID); !errors.Is(err, core.ErrForbidden) {
		t.Fatalf("Remove across owners: expected ErrForbidden, got %v", err)
	}

	// The record survives the denied operations.
	if _, err := svc.Get(ctx, adaID, e.ID); err != nil {
		t.Fatalf("owner lost access to own expense: %v", err)
	}

	lists, err := svc.List(ctx, bob.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(lists) != 0 {
		t.Fatalf("other owner's list contains %d foreign expenses", len(lists))
	}
}
