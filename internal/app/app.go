// Package app is the application root. It owns the session store, the API
// client, and the current location, and wires the client's invalid-session
// signal to the session store.
package app

import (
	"context"
	"log/slog"
	"sync"

	"github.com/me/clinic/internal/api"
	"github.com/me/clinic/internal/guard"
	"github.com/me/clinic/internal/logging"
	"github.com/me/clinic/internal/session"
	"github.com/me/clinic/internal/store"
)

// App ties the session to navigation.
type App struct {
	Session *session.Store
	Client  *api.Client

	logger *slog.Logger

	mu       sync.Mutex
	location string
}

// New creates an App over storage. The client must read its token from the
// same storage (see api.StoreTokens).
func New(storage store.Store, client *api.Client, logger *slog.Logger) *App {
	if logger == nil {
		logger = logging.Discard()
	}
	a := &App{
		Session:  session.New(storage, client, logger),
		Client:   client,
		logger:   logger.With("component", "app"),
		location: "/",
	}
	client.OnSessionInvalid(a.Session.HandleSessionInvalid)
	client.OnSessionInvalid(func(context.Context) { a.ForceLogin() })
	return a
}

// Boot restores the persisted session and routes to the initial location.
func (a *App) Boot(ctx context.Context) (guard.Decision, error) {
	if err := a.Session.Restore(ctx); err != nil {
		return a.Navigate(guard.LoginPath), err
	}
	return a.Navigate(a.Location()), nil
}

// Navigate resolves path through the guard and moves to the resulting
// location. While the session is still loading the location is unchanged.
func (a *App) Navigate(path string) guard.Decision {
	d := guard.Resolve(path, guard.InputFor(a.Session.Snapshot(), a.Session.Loading(), ""))

	a.mu.Lock()
	defer a.mu.Unlock()
	if d.Kind != guard.Loading {
		a.location = d.Target
	}
	a.logger.Debug("navigate", "path", path, "decision", d.Kind, "location", a.location)
	return d
}

// ForceLogin moves to the login view regardless of the guard.
func (a *App) ForceLogin() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.location = guard.LoginPath
}

// Location returns the current route.
func (a *App) Location() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.location
}
