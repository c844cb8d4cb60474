package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/metinatakli/seat-reservation-web/internal/domain"
)

const (
	msgLoginRequired  = "You must be logged in to access this page."
	msgSessionExpired = "Your session has expired. Please log in again."
)

func (app *Application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")

				app.serverErrorResponse(w, r, fmt.Errorf("%s", err))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// requireSession is the gate in front of the booking screen. The stored
// session is trusted as-is; the booking service decides whether the token is
// still valid.
func (app *Application) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := app.sessions.Load(r.Context())
		if err != nil {
			if errors.Is(err, domain.ErrUnauthenticated) {
				app.putFlash(r.Context(), msgLoginRequired)
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			app.serverErrorResponse(w, r, err)
			return
		}

		w.Header().Add("Cache-Control", "no-store")

		ctx := context.WithValue(r.Context(), sessionContextKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (app *Application) redirectIfAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := app.sessions.Load(r.Context())
		if err == nil {
			http.Redirect(w, r, "/seats", http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// expireSession drops a session the booking service no longer accepts.
func (app *Application) expireSession(w http.ResponseWriter, r *http.Request) {
	app.contextGetLogger(r).Warn("booking service rejected the session token")

	err := app.sessions.Clear(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	app.putFlash(r.Context(), msgSessionExpired)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
