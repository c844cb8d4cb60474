package app

import (
	"errors"
	"net/http"

	"github.com/metinatakli/seat-reservation-web/internal/domain"
)

var errMalformedForm = errors.New("malformed form")

const (
	ErrInternalServer  = "The server encountered a problem and could not process your request"
	msgConnectivity    = "An error occurred. Please try again."
	msgUnexpectedReply = "Unexpected response format."
)

func (app *Application) logError(r *http.Request, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.logger.Error(err.Error(), "method", method, "uri", uri)
}

// The errorResponse() method renders the error page with the given status code
// and message.
func (app *Application) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	data := app.newTemplateData(r)
	data.Error = message

	app.render(w, r, status, "error.tmpl", data)
}

func (app *Application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)

	app.errorResponse(w, r, http.StatusInternalServerError, ErrInternalServer)
}

func (app *Application) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	message := "The requested page could not be found"
	app.errorResponse(w, r, http.StatusNotFound, message)
}

func (app *Application) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	message := "The requested method is not supported for this page"
	app.errorResponse(w, r, http.StatusMethodNotAllowed, message)
}

func (app *Application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.contextGetLogger(r).Warn("bad request", "error", err)
	app.errorResponse(w, r, http.StatusBadRequest, "The request could not be understood")
}

// backendFailure maps a booking service error to the status code and message
// shown to the viewer. Rejections keep the server message when it sent one.
func backendFailure(err error, fallback string) (int, string) {
	var rejection *domain.RejectionError

	switch {
	case errors.Is(err, domain.ErrNetworkFailure):
		return http.StatusBadGateway, msgConnectivity
	case errors.As(err, &rejection):
		status := rejection.StatusCode
		if status >= http.StatusInternalServerError {
			status = http.StatusBadGateway
		}

		return status, domain.RejectionMessage(err, fallback)
	case errors.Is(err, domain.ErrUnexpectedResponse), errors.Is(err, domain.ErrInvalidSeatNumber):
		return http.StatusBadGateway, msgUnexpectedReply
	default:
		return http.StatusInternalServerError, fallback
	}
}

func (app *Application) inFlightResponse(w http.ResponseWriter, r *http.Request, err error) {
	if !errors.Is(err, domain.ErrActionInFlight) {
		app.serverErrorResponse(w, r, err)
		return
	}

	app.contextGetLogger(r).Info("rejected duplicate submission")
	app.errorResponse(w, r, http.StatusConflict, "A request is already in progress. Please wait.")
}
