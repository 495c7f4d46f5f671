package http

import (
	"errors"
	"log/slog"
	"net/http"

	"spendlog/internal/core"
)

type accountFormData struct {
	Title string
	User  core.User
	Name  string
	Email string
	Error string
}

func (s *Server) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "register.html", accountFormData{Title: "Register"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	name := sanitizeInput(r.Form.Get("name"))
	email := sanitizeInput(r.Form.Get("email"))
	password := r.Form.Get("password")

	_, err := s.accounts.Register(r.Context(), name, email, password)
	if err != nil {
		data := accountFormData{Title: "Register", Name: name, Email: email}
		switch {
		case errors.Is(err, core.ErrConflict):
			data.Error = "That email address is already registered."
		case errors.Is(err, core.ErrValidation):
			data.Error = err.Error()
		default:
			s.renderFailure(w, r, err)
			return
		}
		s.render(w, r, statusForError(err), "register.html", data)
		return
	}

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "login.html", accountFormData{Title: "Log in"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	email := sanitizeInput(r.Form.Get("email"))
	password := r.Form.Get("password")

	token, err := s.accounts.Authenticate(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, core.ErrAuth) {
			s.render(w, r, http.StatusUnauthorized, "login.html", accountFormData{
				Title: "Log in",
				Email: email,
				Error: "Wrong email or password.",
			})
			return
		}
		s.renderFailure(w, r, err)
		return
	}

	s.setSessionCookie(w, token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, user core.User) {
	if c, err := r.Cookie(sessionCookieName); err == nil {
		s.accounts.EndSession(c.Value)
	}
	s.clearSessionCookie(w)

	slog.InfoContext(r.Context(), "User logged out", "user_id", user.ID)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
