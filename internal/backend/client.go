// Package backend talks to the external booking service over HTTP.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/metinatakli/seat-reservation-web/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxResponseBytes = 1 << 20

const (
	loginPath     = "/api/users/login"
	registerPath  = "/api/users/register"
	logoutPath    = "/api/users/logout"
	bookedPath    = "/api/showBookedSeat"
	bookingPath   = "/api/seatBooking"
	resetPath     = "/api/resetBooking"
	tracerName    = "github.com/metinatakli/seat-reservation-web/internal/backend"
	bearerPrefix  = "Bearer "
	jsonMediaType = "application/json"
)

// Client implements domain.BookingService.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	tracer     trace.Tracer
}

func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid booking service url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid booking service url %q: scheme must be http or https", baseURL)
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    u,
		httpClient: httpClient,
		tracer:     otel.Tracer(tracerName),
	}, nil
}

func (c *Client) Login(ctx context.Context, credentials domain.Credentials) (*domain.AuthResult, error) {
	req := loginRequest{Email: credentials.Email, Password: credentials.Password}

	var resp authResponse
	err := c.do(ctx, http.MethodPost, loginPath, "", req, &resp)
	if err != nil {
		return nil, err
	}

	return resp.toDomain()
}

func (c *Client) Register(ctx context.Context, registration domain.Registration) (*domain.AuthResult, error) {
	req := registerRequest{Name: registration.Name, Email: registration.Email, Password: registration.Password}

	var resp authResponse
	err := c.do(ctx, http.MethodPost, registerPath, "", req, &resp)
	if err != nil {
		return nil, err
	}

	return resp.toDomain()
}

// Logout succeeds on any 2xx answer, even when the body cannot be decoded.
func (c *Client) Logout(ctx context.Context, session domain.Session) (string, error) {
	var resp messageResponse
	err := c.do(ctx, http.MethodPost, logoutPath, session.AccessToken, userRequest{UserID: session.UserID}, &resp)
	if err != nil && !errors.Is(err, domain.ErrUnexpectedResponse) {
		return "", err
	}

	return resp.Message, nil
}

func (c *Client) ShowBookedSeats(ctx context.Context, session domain.Session) (*domain.BookedSeats, error) {
	var resp bookedSeatsResponse
	err := c.do(ctx, http.MethodGet, bookedPath, session.AccessToken, nil, &resp)
	if err != nil {
		return nil, err
	}

	if resp.SeatNumbers == nil {
		return nil, fmt.Errorf("%w: missing seatNumbers", domain.ErrUnexpectedResponse)
	}

	return &domain.BookedSeats{
		SeatNumbers: resp.SeatNumbers,
		BookedCount: resp.BookedSeatsCount,
	}, nil
}

func (c *Client) BookSeats(
	ctx context.Context,
	session domain.Session,
	request domain.BookingRequest) (*domain.BookingResult, error) {

	req := bookingRequest{UserID: request.UserID, Seats: request.Seats}

	var resp bookingResponse
	err := c.do(ctx, http.MethodPost, bookingPath, session.AccessToken, req, &resp)
	if err != nil {
		return nil, err
	}

	if resp.AllocatedSeats == nil {
		return nil, fmt.Errorf("%w: missing allocatedSeats", domain.ErrUnexpectedResponse)
	}

	return &domain.BookingResult{
		AllocatedSeats: resp.AllocatedSeats,
		Message:        resp.Message,
		BookedCount:    resp.BookedSeatsCount,
	}, nil
}

func (c *Client) ResetBooking(ctx context.Context, session domain.Session) (string, error) {
	var resp messageResponse
	err := c.do(ctx, http.MethodPost, resetPath, session.AccessToken, userRequest{UserID: session.UserID}, &resp)
	if err != nil && !errors.Is(err, domain.ErrUnexpectedResponse) {
		return "", err
	}

	return resp.Message, nil
}

// do sends body as JSON and decodes a 2xx answer into out. Transport errors
// wrap domain.ErrNetworkFailure, non-2xx answers become *domain.RejectionError
// and undecodable 2xx bodies wrap domain.ErrUnexpectedResponse.
func (c *Client) do(ctx context.Context, method, path, accessToken string, body, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, method+" "+path, trace.WithSpanKind(trace.SpanKindClient))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.JoinPath(path).String(), reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}

	req.Header.Set("Accept", jsonMediaType)
	if body != nil {
		req.Header.Set("Content-Type", jsonMediaType)
	}
	if accessToken != "" {
		req.Header.Set("Authorization", bearerPrefix+accessToken)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", domain.ErrNetworkFailure, method, path, err)
	}
	defer res.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", res.StatusCode))

	data, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read %s response: %w", domain.ErrNetworkFailure, path, err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var resp messageResponse
		_ = json.Unmarshal(data, &resp)

		return &domain.RejectionError{StatusCode: res.StatusCode, Message: resp.Message}
	}

	if out == nil {
		return nil
	}

	err = json.Unmarshal(data, out)
	if err != nil {
		return fmt.Errorf("%w: decode %s response: %w", domain.ErrUnexpectedResponse, path, err)
	}

	return nil
}
