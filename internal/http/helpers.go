package http

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"spendlog/internal/core"
)

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"amount": func(m core.Money) string { return m.Decimal() },
	}
}

// statusForError maps domain errors to HTTP status codes. ErrForbidden is
// deliberately indistinguishable from ErrNotFound so record ids cannot be
// probed across accounts.
func statusForError(err error) int {
	switch {
	case errors.Is(err, core.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, core.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrNotFound), errors.Is(err, core.ErrForbidden):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// render executes a page template with the given status. Template failures
// after the header is written can only be logged.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "template", name)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution failed", "template", name, "error", err)
	}
}

// renderFailure reports err on the error page with the mapped status.
func (s *Server) renderFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed", "url", r.URL.Path, "error", err)
	}

	data := struct {
		Title   string
		User    core.User
		Status  int
		Message string
	}{
		Title:  fmt.Sprintf("%d", status),
		Status: status,
	}
	if status == http.StatusNotFound {
		data.Message = "The record you asked for does not exist."
	} else {
		data.Message = "Something went wrong handling the request."
	}

	s.render(w, r, status, "error.html", data)
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
