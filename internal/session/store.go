// Package session holds the single authority over who is logged in.
//
// The in-memory session is mirrored to durable storage under the "token" and
// "user" keys. Consumers read it through Snapshot; it changes only through
// Login, Logout, and Restore.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/me/clinic/internal/api"
	"github.com/me/clinic/internal/logging"
	"github.com/me/clinic/internal/store"
	"github.com/me/clinic/pkg/model"
)

// Doer sends a request to the backend. *api.Client satisfies it.
type Doer interface {
	Do(ctx context.Context, req api.Request) (*api.Response, error)
}

// Store owns the current session.
type Store struct {
	storage store.Store
	client  Doer
	logger  *slog.Logger
	now     func() time.Time

	mu       sync.RWMutex
	sess     model.Session
	loading  bool
	onLogout []func()
}

// New creates an empty session store. It reports Loading until Restore has run.
func New(storage store.Store, client Doer, logger *slog.Logger) *Store {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Store{
		storage: storage,
		client:  client,
		logger:  logger.With("component", "session"),
		now:     time.Now,
		loading: true,
	}
}

// Snapshot returns a copy of the current session.
func (s *Store) Snapshot() model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := model.Session{Token: s.sess.Token}
	if s.sess.Identity != nil {
		id := *s.sess.Identity
		snap.Identity = &id
	}
	return snap
}

// Loading reports whether the persisted session has not been restored yet.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// OnLogout registers fn to run after every logout, including logouts
// triggered by an invalid session.
func (s *Store) OnLogout(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLogout = append(s.onLogout, fn)
}

// Restore rehydrates the session from durable storage. Both keys must be
// present and well-formed; a partial or corrupt pair is removed so the two
// keys are always present or absent together. A storage read error leaves
// the session empty and is returned.
func (s *Store) Restore(ctx context.Context) error {
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	token, hasToken, err := s.storage.Get(ctx, store.KeyToken)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	raw, hasUser, err := s.storage.Get(ctx, store.KeyUser)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}

	if !hasToken && !hasUser {
		s.logger.Debug("no persisted session")
		return nil
	}

	id, err := decodeIdentity(token, raw, hasToken, hasUser)
	if err != nil {
		s.logger.Warn("discarding persisted session", "error", err)
		if rmErr := s.storage.Remove(ctx, store.KeyToken, store.KeyUser); rmErr != nil {
			return fmt.Errorf("restore session: clear invalid state: %w", rmErr)
		}
		return nil
	}

	s.mu.Lock()
	s.sess = model.Session{Identity: id, Token: token}
	s.mu.Unlock()

	s.logger.Debug("session restored", "role", id.Type, "identifier", id.Identifier)
	return nil
}

func decodeIdentity(token, raw string, hasToken, hasUser bool) (*model.Identity, error) {
	if !hasToken || token == "" {
		return nil, errors.New("user record without token")
	}
	if !hasUser {
		return nil, errors.New("token without user record")
	}
	var id model.Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		return nil, fmt.Errorf("decode user record: %w", err)
	}
	if !id.Type.Valid() {
		return nil, fmt.Errorf("user record has unknown type %q", id.Type)
	}
	id.Token = token
	return &id, nil
}

// Login authenticates creds against the role's login endpoint. On success
// the session is persisted and adopted. On failure a *Failure is returned and
// neither memory nor storage changes.
func (s *Store) Login(ctx context.Context, creds model.Credentials, role model.Role) error {
	strat, err := StrategyFor(role)
	if err != nil {
		return &Failure{Op: "login", Role: string(role), Message: err.Error(), Err: err}
	}

	logger := s.logger.With("role", role)

	resp, err := s.client.Do(ctx, api.Request{
		Method: http.MethodPost,
		Path:   strat.LoginPath,
		Body:   strat.LoginBody(creds),
		Public: true,
	})
	if err != nil {
		logger.Info("login rejected", "error", err)
		return &Failure{Op: "login", Role: string(role), Message: api.Message(err, msgLoginFailed), Err: err}
	}

	token, err := tokenFromBody(resp.Body)
	if err != nil {
		logger.Warn("login response carried no token", "error", err)
		return &Failure{Op: "login", Role: string(role), Message: msgLoginFailed, Err: err}
	}

	id := &model.Identity{
		Identifier: creds.Identifier,
		Type:       role,
		Token:      token,
		LoggedInAt: s.now().UTC(),
	}
	if err := s.persist(ctx, id); err != nil {
		logger.Error("persist session", "error", err)
		return &Failure{Op: "login", Role: string(role), Message: msgLoginFailed, Err: err}
	}

	s.mu.Lock()
	s.sess = model.Session{Identity: id, Token: token}
	s.mu.Unlock()

	logger.Info("logged in", "identifier", creds.Identifier)
	return nil
}

// persist writes token then user. If the second write fails the first is
// rolled back so storage never holds half a session.
func (s *Store) persist(ctx context.Context, id *model.Identity) error {
	data, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}
	if err := s.storage.Set(ctx, store.KeyToken, id.Token); err != nil {
		return err
	}
	if err := s.storage.Set(ctx, store.KeyUser, string(data)); err != nil {
		if rmErr := s.storage.Remove(ctx, store.KeyToken); rmErr != nil {
			s.logger.Error("roll back token", "error", rmErr)
		}
		return err
	}
	return nil
}

// tokenFromBody reads the bearer token from a login response. The backend
// returns the token itself as the body, either raw or as a JSON string;
// a {"token": "..."} object is accepted too.
func tokenFromBody(body []byte) (string, error) {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return "", errors.New("empty login response")
	}

	var s string
	if json.Unmarshal(body, &s) == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			return "", errors.New("empty token in login response")
		}
		return s, nil
	}

	if strings.HasPrefix(text, "{") {
		var obj struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(body, &obj); err != nil || obj.Token == "" {
			return "", errors.New("login response object has no token")
		}
		return obj.Token, nil
	}

	return text, nil
}

// Logout clears the session in memory and in storage. It is idempotent and
// always leaves memory empty; a storage error is returned after that.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	was := s.sess.Role()
	s.sess = model.Session{}
	handlers := append([]func(){}, s.onLogout...)
	s.mu.Unlock()

	err := s.storage.Remove(ctx, store.KeyToken, store.KeyUser)
	if err != nil {
		s.logger.Error("clear persisted session", "error", err)
	}

	s.logger.Debug("logged out", "role", was)
	for _, fn := range handlers {
		fn()
	}
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// HandleSessionInvalid is the subscriber for api.Client.OnSessionInvalid.
func (s *Store) HandleSessionInvalid(ctx context.Context) {
	s.logger.Info("session invalidated by backend")
	// Logout has already logged any storage error.
	_ = s.Logout(ctx)
}

// Register creates a patient or doctor account. It never changes the
// session. The backend's response body is returned on success.
func (s *Store) Register(ctx context.Context, profile any, role model.Role) (json.RawMessage, error) {
	strat, err := StrategyFor(role)
	if err != nil {
		return nil, &Failure{Op: "register", Role: string(role), Message: err.Error(), Err: err}
	}
	if strat.RegisterPath == "" {
		return nil, &Failure{Op: "register", Role: string(role), Message: ErrRegistrationNotSupported.Error(), Err: ErrRegistrationNotSupported}
	}

	resp, err := s.client.Do(ctx, api.Request{
		Method: http.MethodPost,
		Path:   strat.RegisterPath,
		Body:   profile,
		Public: true,
	})
	if err != nil {
		s.logger.Info("registration rejected", "role", role, "error", err)
		return nil, &Failure{Op: "register", Role: string(role), Message: api.Message(err, msgRegistrationFailed), Err: err}
	}
	return json.RawMessage(resp.Body), nil
}
