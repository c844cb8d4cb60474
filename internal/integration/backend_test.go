package integration_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

const (
	fakeUserID = 7
	fakeToken  = "fake-access-token"
	seatCount  = 80
)

// fakeBookingService mimics the booking backend: it allocates the lowest
// free seats and keeps state in memory.
type fakeBookingService struct {
	mu       sync.Mutex
	occupied map[int]bool
	calls    map[string]int
}

func newFakeBookingService(occupied ...int) *fakeBookingService {
	f := &fakeBookingService{occupied: map[int]bool{}, calls: map[string]int{}}
	for _, n := range occupied {
		f.occupied[n] = true
	}
	return f
}

func (f *fakeBookingService) server() *httptest.Server {
	r := chi.NewRouter()

	r.Post("/api/users/login", f.login)
	r.Post("/api/users/register", f.login)

	r.Group(func(r chi.Router) {
		r.Use(f.authenticate)

		r.Post("/api/users/logout", f.message("Logout successful"))
		r.Get("/api/showBookedSeat", f.showBookedSeats)
		r.Post("/api/seatBooking", f.bookSeats)
		r.Post("/api/resetBooking", f.reset)
	})

	return httptest.NewServer(r)
}

func (f *fakeBookingService) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls[path]
}

func (f *fakeBookingService) record(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[r.URL.Path]++
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (f *fakeBookingService) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ") != fakeToken {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid token"})
			return
		}

		f.record(r)
		next.ServeHTTP(w, r)
	})
}

func (f *fakeBookingService) login(w http.ResponseWriter, r *http.Request) {
	f.record(r)

	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Password != "secret" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Welcome",
		"user":    map[string]any{"id": fakeUserID, "accessToken": fakeToken},
	})
}

func (f *fakeBookingService) message(message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": message})
	}
}

func (f *fakeBookingService) showBookedSeats(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	seats := []int{}
	for n := 1; n <= seatCount; n++ {
		if f.occupied[n] {
			seats = append(seats, n)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"seatNumbers": seats, "bookedSeatsCount": len(seats)})
}

func (f *fakeBookingService) bookSeats(w http.ResponseWriter, r *http.Request) {
	var input struct {
		UserID string `json:"user_id"`
		Seats  int    `json:"seats"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Bad request"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	allocated := []int{}
	for n := 1; n <= seatCount && len(allocated) < input.Seats; n++ {
		if !f.occupied[n] {
			allocated = append(allocated, n)
		}
	}

	if len(allocated) < input.Seats {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Not enough seats available"})
		return
	}

	for _, n := range allocated {
		f.occupied[n] = true
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"allocatedSeats":   allocated,
		"message":          "Seats booked successfully",
		"bookedSeatsCount": len(f.occupied),
	})
}

func (f *fakeBookingService) reset(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.occupied = map[int]bool{}
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"message": "Booking reset successfully"})
}
