package backend

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/metinatakli/seat-reservation-web/internal/domain"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userRequest struct {
	UserID string `json:"userId"`
}

type bookingRequest struct {
	UserID string `json:"user_id"`
	Seats  int    `json:"seats"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type authResponse struct {
	Message string `json:"message"`
	User    *struct {
		ID          userID `json:"id"`
		AccessToken string `json:"accessToken"`
	} `json:"user"`
}

func (r authResponse) toDomain() (*domain.AuthResult, error) {
	if r.User == nil {
		return nil, fmt.Errorf("%w: missing user", domain.ErrUnexpectedResponse)
	}

	session := domain.Session{
		UserID:      string(r.User.ID),
		AccessToken: r.User.AccessToken,
	}

	if !domain.IsAuthenticated(session) {
		return nil, fmt.Errorf("%w: incomplete user credentials", domain.ErrUnexpectedResponse)
	}

	return &domain.AuthResult{Message: r.Message, Session: session}, nil
}

type bookedSeatsResponse struct {
	SeatNumbers      []int `json:"seatNumbers"`
	BookedSeatsCount int   `json:"bookedSeatsCount"`
}

type bookingResponse struct {
	AllocatedSeats   []int  `json:"allocatedSeats"`
	Message          string `json:"message"`
	BookedSeatsCount *int   `json:"bookedSeatsCount,omitempty"`
}

// userID accepts both JSON strings (Mongo style ids) and numbers.
type userID string

func (id *userID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = userID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("user id must be a string or a number: %w", err)
	}
	*id = userID(n.String())

	return nil
}
