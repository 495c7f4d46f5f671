package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"spendlog/internal/charts"
	"spendlog/internal/core"
	"spendlog/internal/report"
	"spendlog/internal/services"
)

type dashboardData struct {
	Title      string
	User       core.User
	Expenses   []core.Expense
	Total      core.Money
	ByCategory []core.CategoryAmount
	ByMonth    []core.MonthAmount
}

func (s *Server) expensesCacheKey(userID int64) string {
	return fmt.Sprintf("user-%d", userID)
}

// listExpenses serves the dashboard from the per-user cache when possible.
func (s *Server) listExpenses(r *http.Request, userID int64) ([]core.Expense, error) {
	key := s.expensesCacheKey(userID)
	if items, found := s.expensesCache.Get(key); found {
		slog.DebugContext(r.Context(), "Expense list cache hit", "user_id", userID, "count", len(items))
		result := make([]core.Expense, len(items))
		copy(result, items)
		return result, nil
	}

	items, err := s.expenses.List(r.Context(), userID)
	if err != nil {
		return nil, err
	}
	s.expensesCache.Set(key, items)
	return items, nil
}

func (s *Server) invalidateExpenses(userID int64) {
	s.expensesCache.Delete(s.expensesCacheKey(userID))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, user core.User) {
	expenses, err := s.listExpenses(r, user.ID)
	if err != nil {
		s.renderFailure(w, r, err)
		return
	}

	data := dashboardData{
		Title:      "Dashboard",
		User:       user,
		Expenses:   expenses,
		Total:      core.TotalAmount(expenses),
		ByCategory: core.SumByCategory(expenses),
		ByMonth:    core.SumByMonth(expenses),
	}
	s.render(w, r, http.StatusOK, "dashboard.html", data)
}

type expenseFormData struct {
	Title    string
	User     core.User
	Action   string
	Amount   string
	Category string
	Note     string
	Date     string
	Error    string
}

func (s *Server) handleAddForm(w http.ResponseWriter, r *http.Request, user core.User) {
	s.render(w, r, http.StatusOK, "expense_form.html", expenseFormData{
		Title:  "Add expense",
		User:   user,
		Action: "/add",
	})
}

func parseExpenseForm(r *http.Request) (services.ExpenseInput, error) {
	if err := r.ParseForm(); err != nil {
		return services.ExpenseInput{}, err
	}
	return services.ExpenseInput{
		Amount:   sanitizeInput(r.Form.Get("amount")),
		Category: sanitizeInput(r.Form.Get("category")),
		Note:     sanitizeInput(r.Form.Get("note")),
		Date:     sanitizeInput(r.Form.Get("date")),
	}, nil
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request, user core.User) {
	in, err := parseExpenseForm(r)
	if err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	if _, err := s.expenses.Add(r.Context(), user.ID, in); err != nil {
		if errors.Is(err, core.ErrValidation) {
			s.render(w, r, http.StatusUnprocessableEntity, "expense_form.html", expenseFormData{
				Title:    "Add expense",
				User:     user,
				Action:   "/add",
				Amount:   in.Amount,
				Category: in.Category,
				Note:     in.Note,
				Date:     in.Date,
				Error:    err.Error(),
			})
			return
		}
		s.renderFailure(w, r, err)
		return
	}

	s.invalidateExpenses(user.ID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func expenseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: expense id", core.ErrNotFound)
	}
	return id, nil
}

func (s *Server) handleEditForm(w http.ResponseWriter, r *http.Request, user core.User) {
	id, err := expenseID(r)
	if err != nil {
		s.renderFailure(w, r, err)
		return
	}

	e, err := s.expenses.Get(r.Context(), user.ID, id)
	if err != nil {
		s.renderFailure(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "expense_form.html", expenseFormData{
		Title:    "Edit expense",
		User:     user,
		Action:   fmt.Sprintf("/edit/%d", e.ID),
		Amount:   e.Amount.Decimal(),
		Category: e.Category,
		Note:     e.Note,
		Date:     e.Date.String(),
	})
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request, user core.User) {
	id, err := expenseID(r)
	if err != nil {
		s.renderFailure(w, r, err)
		return
	}

	in, err := parseExpenseForm(r)
	if err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	if _, err := s.expenses.Update(r.Context(), user.ID, id, in); err != nil {
		if errors.Is(err, core.ErrValidation) {
			s.render(w, r, http.StatusUnprocessableEntity, "expense_form.html", expenseFormData{
				Title:    "Edit expense",
				User:     user,
				Action:   fmt.Sprintf("/edit/%d", id),
				Amount:   in.Amount,
				Category: in.Category,
				Note:     in.Note,
				Date:     in.Date,
				Error:    err.Error(),
			})
			return
		}
		s.renderFailure(w, r, err)
		return
	}

	s.invalidateExpenses(user.ID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, user core.User) {
	id, err := expenseID(r)
	if err != nil {
		s.renderFailure(w, r, err)
		return
	}

	if err := s.expenses.Remove(r.Context(), user.ID, id); err != nil {
		s.renderFailure(w, r, err)
		return
	}

	s.invalidateExpenses(user.ID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleReport streams the user's full expense history as a CSV download.
// Always reads through the service so the export reflects the latest writes.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request, user core.User) {
	expenses, err := s.expenses.List(r.Context(), user.ID)
	if err != nil {
		s.renderFailure(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="expenses.csv"`)
	if err := report.WriteCSV(w, expenses); err != nil {
		slog.ErrorContext(r.Context(), "CSV export failed", "user_id", user.ID, "error", err)
	}
}

// handleChart serves one pre-rendered chart artifact as JSON, building the
// series in-process when the worker has not rendered it yet.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request, user core.User) {
	name := r.PathValue("name")
	if !charts.ValidName(name) {
		http.Error(w, "unknown chart", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	if s.chartStore != nil {
		if body, err := s.chartStore.Read(user.ID, name); err == nil {
			_, _ = w.Write(body)
			return
		} else if !errors.Is(err, core.ErrNotFound) {
			slog.ErrorContext(r.Context(), "Chart artifact read failed",
				"user_id", user.ID, "chart", name, "error", err)
		}
	}

	expenses, err := s.listExpenses(r, user.ID)
	if err != nil {
		http.Error(w, "chart unavailable", http.StatusInternalServerError)
		return
	}

	set := charts.BuildSet(expenses, s.histogramBuckets)
	var series charts.Series
	for _, candidate := range set.All() {
		if candidate.Name == name {
			series = candidate
			break
		}
	}

	if err := json.NewEncoder(w).Encode(series); err != nil {
		slog.ErrorContext(r.Context(), "Chart encoding failed", "chart", name, "error", err)
	}
}
