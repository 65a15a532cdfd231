package web

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/customify/internal/auth"
	"github.com/desertthunder/customify/internal/models"
	"github.com/desertthunder/customify/internal/shared"
)

// page assembles the common template payload for a request.
func (a *App) page(w http.ResponseWriter, r *http.Request, title string) pageData {
	data := pageData{Title: title, Flash: popFlash(w, r)}

	if session := sessionFrom(r); session != nil {
		data.LoggedIn = true
		data.Username = session.DisplayName()
		data.Connected = session.HasToken()
		if data.Username == "" {
			if user, err := a.users.Get(session.UserID()); err == nil {
				data.Username = user.Username()
			}
		}
	}

	return data
}

func (a *App) handleHome(w http.ResponseWriter, r *http.Request) {
	a.render(w, "home", a.page(w, r, "Customify"))
}

func (a *App) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	a.render(w, "register", a.page(w, r, "Register"))
}

func (a *App) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	username := strings.TrimSpace(r.PostFormValue("username"))
	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")
	confirm := r.PostFormValue("confirm_password")

	data := a.page(w, r, "Register")
	data.Form = map[string]string{"username": username, "email": email}

	if username == "" {
		data.Errors = append(data.Errors, "Username is required.")
	}
	if password != confirm {
		data.Errors = append(data.Errors, "Passwords do not match.")
	}
	if err := auth.ValidatePassword(password); err != nil {
		data.Errors = append(data.Errors, "Password must be at least 8 characters with an uppercase letter, a lowercase letter, a digit, and a special character.")
	}

	if len(data.Errors) == 0 {
		hash, err := auth.HashPassword(password)
		if err != nil {
			a.logger.Error("failed to hash password", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		user := models.NewUser(0, username, email, hash)
		switch err := a.users.Create(user); {
		case err == nil:
			setFlash(w, "success", "Account created. Log in to continue.")
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		case errors.Is(err, shared.ErrDuplicateUser):
			data.Errors = append(data.Errors, "That email or username is already registered.")
		case errors.Is(err, shared.ErrInvalidInput):
			data.Errors = append(data.Errors, "Please enter a valid email address.")
		default:
			a.logger.Error("failed to create user", "error", err)
			data.Errors = append(data.Errors, "Registration failed. Try again.")
		}
	}

	w.WriteHeader(http.StatusUnprocessableEntity)
	a.render(w, "register", data)
}

func (a *App) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	a.render(w, "login", a.page(w, r, "Log In"))
}

func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")

	// A missing account and a wrong password answer identically.
	user, err := a.users.GetByEmail(email)
	if err == nil {
		err = auth.CheckPassword(user.PasswordHash(), password)
	}
	if err != nil {
		data := a.page(w, r, "Log In")
		data.Form = map[string]string{"email": email}
		data.Errors = append(data.Errors, "Invalid email or password.")
		w.WriteHeader(http.StatusUnauthorized)
		a.render(w, "login", data)
		return
	}

	session := models.NewSession(0, user.ID(), time.Duration(a.cfg.Session.TTLHours)*time.Hour)
	if err := a.sessions.Create(session); err != nil {
		a.logger.Error("failed to create session", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := a.cookies.SetCookie(w, session.ID()); err != nil {
		a.logger.Error("failed to set session cookie", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

func (a *App) handleLogout(w http.ResponseWriter, r *http.Request) {
	if session := sessionFrom(r); session != nil {
		if err := a.sessions.Delete(session.ID()); err != nil {
			a.logger.Error("failed to delete session", "session", session.ID(), "error", err)
		}
	}

	a.cookies.ClearCookie(w)
	setFlash(w, "success", "Logged out.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
