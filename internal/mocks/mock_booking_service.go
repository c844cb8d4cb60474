package mocks

import (
	"context"

	"github.com/metinatakli/seat-reservation-web/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) Login(ctx context.Context, credentials domain.Credentials) (*domain.AuthResult, error) {
	args := m.Called(ctx, credentials)
	result, _ := args.Get(0).(*domain.AuthResult)
	return result, args.Error(1)
}

func (m *MockBookingService) Register(ctx context.Context, registration domain.Registration) (*domain.AuthResult, error) {
	args := m.Called(ctx, registration)
	result, _ := args.Get(0).(*domain.AuthResult)
	return result, args.Error(1)
}

func (m *MockBookingService) Logout(ctx context.Context, session domain.Session) (string, error) {
	args := m.Called(ctx, session)
	return args.String(0), args.Error(1)
}

func (m *MockBookingService) ShowBookedSeats(ctx context.Context, session domain.Session) (*domain.BookedSeats, error) {
	args := m.Called(ctx, session)
	result, _ := args.Get(0).(*domain.BookedSeats)
	return result, args.Error(1)
}

func (m *MockBookingService) BookSeats(
	ctx context.Context,
	session domain.Session,
	request domain.BookingRequest) (*domain.BookingResult, error) {

	args := m.Called(ctx, session, request)
	result, _ := args.Get(0).(*domain.BookingResult)
	return result, args.Error(1)
}

func (m *MockBookingService) ResetBooking(ctx context.Context, session domain.Session) (string, error) {
	args := m.Called(ctx, session)
	return args.String(0), args.Error(1)
}
