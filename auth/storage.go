package auth

import (
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/sessionworks/authbridge/sessions"
)

// StoreFactory builds the per-request session store. The default factory
// reads the session cookie directly.
type StoreFactory func(r *http.Request, policy sessions.CookiePolicy) sessions.Store

var (
	storageMu      sync.Mutex
	storageFactory StoreFactory
)

// ConfigureStorage installs a custom session store factory. It must be
// called at most once, centrally, before requests are served: the first
// call wins and later calls are ignored with a warning. Concurrent
// divergent first calls are a startup-ordering bug in the application,
// not something this package resolves.
func ConfigureStorage(factory StoreFactory) {
	if factory == nil {
		return
	}
	storageMu.Lock()
	defer storageMu.Unlock()
	if storageFactory != nil {
		log.Warn().Msg("session storage already configured; ignoring subsequent configuration")
		return
	}
	storageFactory = factory
}

// newStore builds the session store for a request using the configured
// factory, falling back to the cookie-backed default.
func newStore(r *http.Request, policy sessions.CookiePolicy) sessions.Store {
	storageMu.Lock()
	factory := storageFactory
	storageMu.Unlock()

	if factory == nil {
		return sessions.NewCookieStore(r, policy)
	}
	return factory(r, policy)
}
