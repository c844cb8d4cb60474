package app

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/metinatakli/seat-reservation-web/internal/domain"
	"github.com/metinatakli/seat-reservation-web/internal/ui"
)

type templateData struct {
	Flash         string
	Error         string
	FieldErrors   map[string]string
	Form          map[string]string
	Authenticated bool
	Seats         *seatsView
	Version       string
}

type seatCell struct {
	Number int
	Booked bool
}

// seatsView is the read-only projection of a ledger the grid template draws.
type seatsView struct {
	Loaded    bool
	Cells     []seatCell
	Available int
	Booked    int
	Allocated []int
	Message   string
}

func newSeatsView(ledger *domain.Ledger) *seatsView {
	view := &seatsView{Loaded: ledger.Loaded()}
	if !view.Loaded {
		return view
	}

	for i, booked := range ledger.Seats() {
		view.Cells = append(view.Cells, seatCell{Number: i + 1, Booked: booked})
	}

	view.Booked = ledger.Occupied()
	view.Available = ledger.Available()
	view.Allocated = ledger.Allocated()

	return view
}

func joinSeats(seats []int) string {
	if len(seats) == 0 {
		return "None"
	}

	parts := make([]string, len(seats))
	for i, n := range seats {
		parts[i] = strconv.Itoa(n)
	}

	return strings.Join(parts, ", ")
}

var functions = template.FuncMap{
	"joinSeats": joinSeats,
}

func newTemplateCache() (map[string]*template.Template, error) {
	cache := map[string]*template.Template{}

	pages, err := fs.Glob(ui.Files, "templates/*.tmpl")
	if err != nil {
		return nil, err
	}

	for _, page := range pages {
		name := filepath.Base(page)
		if name == "base.tmpl" {
			continue
		}

		ts, err := template.New(name).Funcs(functions).ParseFS(ui.Files, "templates/base.tmpl", page)
		if err != nil {
			return nil, err
		}

		cache[name] = ts
	}

	return cache, nil
}

// newTemplateData pops the flash message, so it is shown exactly once.
func (app *Application) newTemplateData(r *http.Request) templateData {
	_, err := app.sessions.Load(r.Context())

	return templateData{
		Flash:         app.sessionManager.PopString(r.Context(), SessionKeyFlash.String()),
		Authenticated: err == nil,
		Version:       version,
	}
}

func (app *Application) render(w http.ResponseWriter, r *http.Request, status int, page string, data templateData) {
	ts, ok := app.templates[page]
	if !ok {
		app.logError(r, fmt.Errorf("the template %s does not exist", page))
		http.Error(w, ErrInternalServer, http.StatusInternalServerError)
		return
	}

	buf := new(bytes.Buffer)

	err := ts.ExecuteTemplate(buf, "base", data)
	if err != nil {
		app.logError(r, err)
		http.Error(w, ErrInternalServer, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
