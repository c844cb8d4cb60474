package domain

import "context"

type Credentials struct {
	Email    string
	Password string
}

type Registration struct {
	Name     string
	Email    string
	Password string
}

type AuthResult struct {
	Message string
	Session Session
}

type BookingRequest struct {
	UserID string
	Seats  int
}

type BookingResult struct {
	AllocatedSeats []int
	Message        string
	// BookedCount is the server's occupied seat count, when it sends one.
	BookedCount *int
}

type BookedSeats struct {
	SeatNumbers []int
	BookedCount int
}

// BookingService is the external booking backend. Every method returns
// ErrNetworkFailure when no response was received and *RejectionError for
// non-2xx answers.
type BookingService interface {
	Login(ctx context.Context, credentials Credentials) (*AuthResult, error)
	Register(ctx context.Context, registration Registration) (*AuthResult, error)
	Logout(ctx context.Context, session Session) (string, error)
	ShowBookedSeats(ctx context.Context, session Session) (*BookedSeats, error)
	BookSeats(ctx context.Context, session Session, request BookingRequest) (*BookingResult, error)
	ResetBooking(ctx context.Context, session Session) (string, error)
}

// ActionGuard serialises submissions of the same action. Acquire returns
// ErrActionInFlight when key is already held; the returned release func must
// be called exactly once.
type ActionGuard interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}
