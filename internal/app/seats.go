package app

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/metinatakli/seat-reservation-web/internal/domain"
	appvalidator "github.com/metinatakli/seat-reservation-web/internal/validator"
)

const (
	msgBookingFailed  = "Error booking seats."
	msgResetFailed    = "Error resetting booking."
	msgInvalidSeats   = "Please enter a valid number of seats."
	msgSeatsNotLoaded = "The seat map has not been loaded yet."
)

type bookingForm struct {
	Seats int `form:"seats" validate:"required,gt=0"`
}

func bookingGuardKey(session domain.Session) string {
	return "booking:" + session.UserID
}

func (app *Application) ShowSeats(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)
	session := app.contextGetSession(r)

	data := app.newTemplateData(r)

	booked, err := app.bookingService.ShowBookedSeats(r.Context(), session)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			app.expireSession(w, r)
			return
		}

		logger.Error("failed to load booked seats", "error", err)

		status, message := backendFailure(err, msgConnectivity)
		data.Error = message
		data.Seats = newSeatsView(domain.NewLedger())
		app.render(w, r, status, "seats.tmpl", data)
		return
	}

	ledger := domain.NewLedger()

	err = ledger.Load(booked.SeatNumbers)
	if err != nil {
		logger.Error("booking service sent an invalid seat map", "error", err)

		data.Error = msgUnexpectedReply
		data.Seats = newSeatsView(domain.NewLedger())
		app.render(w, r, http.StatusBadGateway, "seats.tmpl", data)
		return
	}

	if booked.BookedCount != ledger.Occupied() {
		logger.Warn("booked seat count differs from seat map",
			"server_count", booked.BookedCount, "local_count", ledger.Occupied())
		app.metrics.recordDrift(r.Context(), "load")
	}

	err = app.saveLedger(r.Context(), ledger)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	data.Seats = newSeatsView(ledger)
	app.render(w, r, http.StatusOK, "seats.tmpl", data)
}

func (app *Application) BookSeats(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)
	session := app.contextGetSession(r)

	ledger := app.loadLedger(r)

	data := app.newTemplateData(r)
	data.Seats = newSeatsView(ledger)

	var input bookingForm
	err := app.decodeForm(r, &input)
	if err != nil {
		logger.Debug("undecodable booking form", "error", err)

		data.Error = msgInvalidSeats
		data.FieldErrors = map[string]string{"seats": appvalidator.ErrDefaultInvalid}
		app.render(w, r, http.StatusUnprocessableEntity, "seats.tmpl", data)
		return
	}

	data.Form = map[string]string{"seats": strconv.Itoa(input.Seats)}

	message, fieldErrors := app.validateBooking(input, ledger)
	if message != "" {
		data.Error = message
		data.FieldErrors = fieldErrors

		app.metrics.recordAction(r.Context(), "book", "invalid")
		app.render(w, r, http.StatusUnprocessableEntity, "seats.tmpl", data)
		return
	}

	release, err := app.guard.Acquire(r.Context(), bookingGuardKey(session))
	if err != nil {
		app.inFlightResponse(w, r, err)
		return
	}
	defer release()

	result, err := app.bookingService.BookSeats(r.Context(), session, domain.BookingRequest{
		UserID: session.UserID,
		Seats:  input.Seats,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			app.expireSession(w, r)
			return
		}

		logger.Warn("booking failed", "seats", input.Seats, "error", err)
		app.metrics.recordAction(r.Context(), "book", "rejected")

		status, message := backendFailure(err, msgBookingFailed)
		if errors.Is(err, domain.ErrNetworkFailure) {
			message = msgBookingFailed
		}

		data.Error = message
		app.render(w, r, status, "seats.tmpl", data)
		return
	}

	rec, err := ledger.Apply(*result)
	if err != nil {
		logger.Error("booking service sent invalid allocated seats", "error", err)

		data.Error = msgUnexpectedReply
		app.render(w, r, http.StatusBadGateway, "seats.tmpl", data)
		return
	}

	if rec.Drifted() {
		logger.Warn("booked seat count differs from seat map",
			"server_count", rec.Hint, "local_count", rec.Occupied)
		app.metrics.recordDrift(r.Context(), "book")
	}

	err = app.saveLedger(r.Context(), ledger)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	logger.Info("seats booked", "user_id", session.UserID, "allocated", result.AllocatedSeats)
	app.metrics.recordAction(r.Context(), "book", "success")
	app.metrics.recordAllocation(r.Context(), len(result.AllocatedSeats))

	data.Form = nil
	data.Seats = newSeatsView(ledger)
	data.Seats.Message = result.Message
	app.render(w, r, http.StatusOK, "seats.tmpl", data)
}

// validateBooking checks the requested seat count against the form rules and
// the seats currently shown as available. An empty message means the request
// may go to the booking service.
func (app *Application) validateBooking(input bookingForm, ledger *domain.Ledger) (string, map[string]string) {
	err := app.validator.Struct(input)
	if err != nil {
		return msgInvalidSeats, appvalidator.FieldErrors(err)
	}

	if !ledger.Loaded() {
		return msgSeatsNotLoaded, nil
	}

	if input.Seats > ledger.Available() {
		return fmt.Sprintf("Only %d seats are available.", ledger.Available()), nil
	}

	return "", nil
}

func (app *Application) ResetBooking(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)
	session := app.contextGetSession(r)

	ledger := app.loadLedger(r)

	data := app.newTemplateData(r)
	data.Seats = newSeatsView(ledger)

	release, err := app.guard.Acquire(r.Context(), bookingGuardKey(session))
	if err != nil {
		app.inFlightResponse(w, r, err)
		return
	}
	defer release()

	message, err := app.bookingService.ResetBooking(r.Context(), session)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			app.expireSession(w, r)
			return
		}

		logger.Warn("reset failed", "error", err)
		app.metrics.recordAction(r.Context(), "reset", "rejected")

		status, _ := backendFailure(err, msgResetFailed)
		data.Error = domain.RejectionMessage(err, msgResetFailed)
		app.render(w, r, status, "seats.tmpl", data)
		return
	}

	ledger.Clear()

	err = app.saveLedger(r.Context(), ledger)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	logger.Info("booking reset", "user_id", session.UserID)
	app.metrics.recordAction(r.Context(), "reset", "success")

	data.Seats = newSeatsView(ledger)
	data.Seats.Message = message
	app.render(w, r, http.StatusOK, "seats.tmpl", data)
}
