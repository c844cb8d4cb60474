package app

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"
)

func (app *Application) contextGetLogger(r *http.Request) *slog.Logger {
	logger := app.logger.With(
		"request_id", middleware.GetReqID(r.Context()),
		"method", r.Method,
		"uri", r.URL.RequestURI(),
	)

	spanCtx := trace.SpanContextFromContext(r.Context())
	if spanCtx.HasTraceID() {
		logger = logger.With("trace_id", spanCtx.TraceID().String())
	}

	return logger
}

func (app *Application) writeJSON(w http.ResponseWriter, status int, data any, headers http.Header) {
	js, err := json.Marshal(data)
	if err != nil {
		app.logger.Error("failed to encode response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(js)
}

// decodeForm parses the urlencoded request body into dst.
func (app *Application) decodeForm(r *http.Request, dst any) error {
	err := r.ParseForm()
	if err != nil {
		return fmt.Errorf("%w: %w", errMalformedForm, err)
	}

	err = app.formDecoder.Decode(dst, r.PostForm)
	if err != nil {
		return fmt.Errorf("%w: %w", errMalformedForm, err)
	}

	return nil
}
