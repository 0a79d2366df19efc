package sessions

import (
	"net/http"

	"github.com/pkg/errors"
)

// SealedKey is the single key under which the sealed session record is
// stored inside a Store.
const SealedKey = "jwt"

// Store is a per-request mutable key/value bag backing the session
// cookie. Its lifecycle is one request: values are read from the incoming
// cookie at construction, mutated during session resolution, and written
// back via Commit (or cleared via Destroy).
type Store interface {
	Has(key string) bool
	Get(key string) (string, bool)
	Set(key, value string)

	// Commit serializes the current bag into a Set-Cookie ready cookie.
	Commit() (*http.Cookie, error)
	// Destroy returns a cookie that clears the session on the client.
	Destroy() *http.Cookie
}

// CookiePolicy carries the cookie attributes applied on Commit/Destroy.
type CookiePolicy struct {
	Name   string
	MaxAge int
	Secure bool
}

// CookieStore is the default Store, backed directly by the session cookie
// on the incoming request.
type CookieStore struct {
	policy CookiePolicy
	values map[string]string
}

// NewCookieStore builds a store from the request's session cookie. A
// missing cookie yields an empty bag, not an error.
func NewCookieStore(r *http.Request, policy CookiePolicy) *CookieStore {
	s := &CookieStore{
		policy: policy,
		values: make(map[string]string),
	}
	if r != nil {
		if cookie, err := r.Cookie(policy.Name); err == nil && cookie.Value != "" {
			s.values[SealedKey] = cookie.Value
		}
	}
	return s
}

func (s *CookieStore) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

func (s *CookieStore) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

func (s *CookieStore) Set(key, value string) {
	s.values[key] = value
}

// Commit produces the session cookie for the current bag contents.
func (s *CookieStore) Commit() (*http.Cookie, error) {
	sealed, ok := s.values[SealedKey]
	if !ok || sealed == "" {
		return nil, errors.New("[CookieStore.Commit] no sealed session to commit")
	}
	return &http.Cookie{
		Name:     s.policy.Name,
		Value:    sealed,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.policy.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   s.policy.MaxAge,
	}, nil
}

// Destroy clears the bag and returns a cookie that expires the session on
// the client.
func (s *CookieStore) Destroy() *http.Cookie {
	delete(s.values, SealedKey)
	return &http.Cookie{
		Name:     s.policy.Name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.policy.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	}
}
