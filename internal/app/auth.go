package app

import (
	"errors"
	"net/http"

	"github.com/metinatakli/seat-reservation-web/internal/domain"
	appvalidator "github.com/metinatakli/seat-reservation-web/internal/validator"
)

const (
	msgLoginFailed    = "Invalid Email or Password!"
	msgRegisterFailed = "Registration failed."
	msgLoggedOut      = "You have been logged out."
	msgLogoutFailed   = "Error logging out."
	msgInvalidForm    = "Please correct the errors below."
)

type loginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

type signupForm struct {
	Name     string `form:"name" validate:"required,notblank"`
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

func (app *Application) LoginPage(w http.ResponseWriter, r *http.Request) {
	app.render(w, r, http.StatusOK, "login.tmpl", app.newTemplateData(r))
}

func (app *Application) SignupPage(w http.ResponseWriter, r *http.Request) {
	app.render(w, r, http.StatusOK, "signup.tmpl", app.newTemplateData(r))
}

func (app *Application) Login(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	var input loginForm
	err := app.decodeForm(r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	data := app.newTemplateData(r)
	data.Form = map[string]string{"email": input.Email}

	err = app.validator.Struct(input)
	if err != nil {
		data.Error = msgInvalidForm
		data.FieldErrors = appvalidator.FieldErrors(err)
		app.render(w, r, http.StatusUnprocessableEntity, "login.tmpl", data)
		return
	}

	result, err := app.bookingService.Login(r.Context(), domain.Credentials{
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		logger.Warn("login failed", "error", err)

		status, message := backendFailure(err, msgLoginFailed)
		data.Error = message
		app.render(w, r, status, "login.tmpl", data)
		return
	}

	app.startSession(w, r, result)
}

func (app *Application) Signup(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	var input signupForm
	err := app.decodeForm(r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	data := app.newTemplateData(r)
	data.Form = map[string]string{"name": input.Name, "email": input.Email}

	err = app.validator.Struct(input)
	if err != nil {
		data.Error = msgInvalidForm
		data.FieldErrors = appvalidator.FieldErrors(err)
		app.render(w, r, http.StatusUnprocessableEntity, "signup.tmpl", data)
		return
	}

	result, err := app.bookingService.Register(r.Context(), domain.Registration{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		logger.Warn("registration failed", "error", err)

		status, message := backendFailure(err, msgRegisterFailed)
		data.Error = message
		app.render(w, r, status, "signup.tmpl", data)
		return
	}

	app.startSession(w, r, result)
}

func (app *Application) startSession(w http.ResponseWriter, r *http.Request, result *domain.AuthResult) {
	err := app.sessions.Save(r.Context(), result.Session)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	app.contextGetLogger(r).Info("viewer signed in", "user_id", result.Session.UserID)

	app.putFlash(r.Context(), result.Message)
	http.Redirect(w, r, "/seats", http.StatusSeeOther)
}

func (app *Application) Logout(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)
	session := app.contextGetSession(r)

	release, err := app.guard.Acquire(r.Context(), "logout:"+session.UserID)
	if err != nil {
		app.inFlightResponse(w, r, err)
		return
	}
	defer release()

	message, err := app.bookingService.Logout(r.Context(), session)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			app.expireSession(w, r)
			return
		}

		logger.Warn("logout failed", "error", err)

		status, _ := backendFailure(err, msgLogoutFailed)
		app.errorResponse(w, r, status, domain.RejectionMessage(err, msgLogoutFailed))
		return
	}

	err = app.sessions.Clear(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	if message == "" {
		message = msgLoggedOut
	}

	app.putFlash(r.Context(), message)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
