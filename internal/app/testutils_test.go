package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/go-playground/form/v4"
	"github.com/metinatakli/seat-reservation-web/internal/domain"
	"github.com/metinatakli/seat-reservation-web/internal/inflight"
	"github.com/metinatakli/seat-reservation-web/internal/mocks"
	"github.com/metinatakli/seat-reservation-web/internal/validator"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testSession = domain.Session{UserID: "42", AccessToken: "token-42"}

func newTestApplication(t *testing.T, opts ...func(*Application)) *Application {
	t.Helper()

	templates, err := newTemplateCache()
	require.NoError(t, err)

	appMetrics, err := newMetrics()
	require.NoError(t, err)

	sessionManager := scs.New()

	app := &Application{
		config:         Config{Env: "test", Backend: BackendConfig{URL: "http://backend.test"}},
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		validator:      validator.NewValidator(),
		formDecoder:    form.NewDecoder(),
		sessionManager: sessionManager,
		sessions:       NewSessionStore(sessionManager),
		bookingService: &mocks.MockBookingService{},
		guard:          inflight.NewMemory(),
		templates:      templates,
		metrics:        appMetrics,
	}

	for _, opt := range opts {
		opt(app)
	}

	return app
}

// testBrowser drives the application like a browser that keeps cookies but
// does not follow redirects.
type testBrowser struct {
	t      *testing.T
	server *httptest.Server
	client *http.Client
}

func newTestBrowser(t *testing.T, app *Application) *testBrowser {
	t.Helper()

	server := httptest.NewServer(app.Routes())
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testBrowser{
		t:      t,
		server: server,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

type testResponse struct {
	status   int
	location string
	body     string
	header   http.Header
}

func (b *testBrowser) get(path string) testResponse {
	b.t.Helper()

	return b.send(http.MethodGet, path, nil)
}

func (b *testBrowser) post(path string, values url.Values) testResponse {
	b.t.Helper()

	return b.send(http.MethodPost, path, values)
}

func (b *testBrowser) send(method, path string, values url.Values) testResponse {
	b.t.Helper()

	var body io.Reader
	if values != nil {
		body = strings.NewReader(values.Encode())
	}

	req, err := http.NewRequest(method, b.server.URL+path, body)
	require.NoError(b.t, err)

	if values != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := b.client.Do(req)
	require.NoError(b.t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)

	return testResponse{
		status:   resp.StatusCode,
		location: resp.Header.Get("Location"),
		body:     string(data),
		header:   resp.Header,
	}
}

// login signs the browser in as testSession.
func (b *testBrowser) login(service *mocks.MockBookingService) {
	b.t.Helper()

	credentials := domain.Credentials{Email: "viewer@example.com", Password: "secret"}
	service.On("Login", mock.Anything, credentials).
		Return(&domain.AuthResult{Message: "Login successful", Session: testSession}, nil).Once()

	resp := b.post("/login", url.Values{"email": {credentials.Email}, "password": {credentials.Password}})
	require.Equal(b.t, http.StatusSeeOther, resp.status)
	require.Equal(b.t, "/seats", resp.location)
}

// loadSeats renders the seat page once with the given occupied seats so the
// ledger is stored in the session.
func (b *testBrowser) loadSeats(service *mocks.MockBookingService, occupied []int) testResponse {
	b.t.Helper()

	service.On("ShowBookedSeats", mock.Anything, testSession).
		Return(&domain.BookedSeats{SeatNumbers: occupied, BookedCount: len(occupied)}, nil).Once()

	resp := b.get("/seats")
	require.Equal(b.t, http.StatusOK, resp.status)

	return resp
}

func seatRange(from, to int) []int {
	seats := make([]int, 0, to-from+1)
	for n := from; n <= to; n++ {
		seats = append(seats, n)
	}
	return seats
}

func bookingServiceOf(app *Application) *mocks.MockBookingService {
	return app.bookingService.(*mocks.MockBookingService)
}
