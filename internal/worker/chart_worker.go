// Package worker rebuilds pre-rendered chart artifacts in the background.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"spendlog/internal/amqp"
	"spendlog/internal/charts"
	"spendlog/internal/storage"
)

// ChartWorker renders chart artifacts for users whose expenses changed. It is
// driven by AMQP refresh messages, with a periodic sweep catching anything a
// lost message would leave stale.
type ChartWorker struct {
	storage     *storage.SQLiteRepository
	writer      *charts.Writer
	bucketCount int
}

func NewChartWorker(storage *storage.SQLiteRepository, writer *charts.Writer, bucketCount int) *ChartWorker {
	return &ChartWorker{
		storage:     storage,
		writer:      writer,
		bucketCount: bucketCount,
	}
}

// HandleRefreshMessage processes one chart refresh message from AMQP.
func (w *ChartWorker) HandleRefreshMessage(ctx context.Context, msg *amqp.ChartRefreshMessage) error {
	slog.InfoContext(ctx, "Processing chart refresh message",
		"user_id", msg.UserID,
		"requested_at", msg.Timestamp)
	return w.RefreshUser(ctx, msg.UserID)
}

// RefreshUser rebuilds all four chart artifacts for one user from the current
// expense list.
func (w *ChartWorker) RefreshUser(ctx context.Context, userID int64) error {
	expenses, err := w.storage.ListExpensesByOwner(ctx, userID)
	if err != nil {
		return fmt.Errorf("list expenses for charts: %w", err)
	}

	set := charts.BuildSet(expenses, w.bucketCount)
	if err := w.writer.WriteSet(userID, set); err != nil {
		return fmt.Errorf("write chart set: %w", err)
	}

	slog.InfoContext(ctx, "Charts refreshed", "user_id", userID, "expenses", len(expenses))
	return nil
}

// RefreshAll rebuilds artifacts for every registered user. Errors on one user
// do not stop the others.
func (w *ChartWorker) RefreshAll(ctx context.Context) error {
	userIDs, err := w.storage.ListUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("list users for chart sweep: %w", err)
	}

	failed := 0
	for _, id := range userIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.RefreshUser(ctx, id); err != nil {
			failed++
			slog.ErrorContext(ctx, "Chart sweep failed for user", "user_id", id, "error", err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("chart sweep: %d of %d users failed", failed, len(userIDs))
	}
	return nil
}

// RunSweep rebuilds everything immediately and then on every tick until the
// context is done.
func (w *ChartWorker) RunSweep(ctx context.Context, interval time.Duration) error {
	if err := w.RefreshAll(ctx); err != nil && ctx.Err() == nil {
		slog.ErrorContext(ctx, "Initial chart sweep failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping chart sweep", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			if err := w.RefreshAll(ctx); err != nil && ctx.Err() == nil {
				slog.ErrorContext(ctx, "Chart sweep failed", "error", err)
			}
		}
	}
}
