package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/metinatakli/seat-reservation-web/internal/domain"
)

type sessionKey string

const (
	SessionKeyUserId      = sessionKey("userID")
	SessionKeyAccessToken = sessionKey("accessToken")
	SessionKeyLedger      = sessionKey("ledger")
	SessionKeyFlash       = sessionKey("flash")

	sessionContextKey = sessionKey("session")
)

func (s sessionKey) String() string {
	return string(s)
}

// scsSessionStore keeps the viewer session in the scs session bound to the
// request context.
type scsSessionStore struct {
	sessionManager *scs.SessionManager
}

func NewSessionStore(sessionManager *scs.SessionManager) domain.SessionStore {
	return &scsSessionStore{sessionManager: sessionManager}
}

func (s *scsSessionStore) Load(ctx context.Context) (domain.Session, error) {
	session := domain.Session{
		UserID:      s.sessionManager.GetString(ctx, SessionKeyUserId.String()),
		AccessToken: s.sessionManager.GetString(ctx, SessionKeyAccessToken.String()),
	}

	if !domain.IsAuthenticated(session) {
		return domain.Session{}, domain.ErrUnauthenticated
	}

	return session, nil
}

func (s *scsSessionStore) Save(ctx context.Context, session domain.Session) error {
	if !domain.IsAuthenticated(session) {
		return fmt.Errorf("%w: incomplete session", domain.ErrInvalidRequest)
	}

	// To help prevent session fixation attacks we should renew the session token after any privilege level change.
	// https://github.com/OWASP/CheatSheetSeries/blob/master/cheatsheets/Session_Management_Cheat_Sheet.md#renew-the-session-id-after-any-privilege-level-change
	err := s.sessionManager.RenewToken(ctx)
	if err != nil {
		return err
	}

	s.sessionManager.Put(ctx, SessionKeyUserId.String(), session.UserID)
	s.sessionManager.Put(ctx, SessionKeyAccessToken.String(), session.AccessToken)
	s.sessionManager.Remove(ctx, SessionKeyLedger.String())

	return nil
}

func (s *scsSessionStore) Clear(ctx context.Context) error {
	return s.sessionManager.Destroy(ctx)
}

func (app *Application) contextGetSession(r *http.Request) domain.Session {
	session, ok := r.Context().Value(sessionContextKey).(domain.Session)
	if !ok {
		panic("missing session from context")
	}

	return session
}

func (app *Application) putFlash(ctx context.Context, message string) {
	if message != "" {
		app.sessionManager.Put(ctx, SessionKeyFlash.String(), message)
	}
}

// loadLedger returns the ledger the viewer last saw. A missing or corrupt
// entry yields an unloaded ledger.
func (app *Application) loadLedger(r *http.Request) *domain.Ledger {
	ledger := domain.NewLedger()

	data := app.sessionManager.GetBytes(r.Context(), SessionKeyLedger.String())
	if data == nil {
		return ledger
	}

	err := json.Unmarshal(data, ledger)
	if err != nil {
		app.contextGetLogger(r).Warn("discarding corrupt ledger from session", "error", err)
		return domain.NewLedger()
	}

	return ledger
}

func (app *Application) saveLedger(ctx context.Context, ledger *domain.Ledger) error {
	data, err := json.Marshal(ledger)
	if err != nil {
		return err
	}

	app.sessionManager.Put(ctx, SessionKeyLedger.String(), data)

	return nil
}
