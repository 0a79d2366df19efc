package sessions_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sessionworks/authbridge/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPolicy = sessions.CookiePolicy{
	Name:   "wos-session",
	MaxAge: 34560000,
	Secure: true,
}

func TestCookieStoreReadsIncomingCookie(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "wos-session", Value: "sealed-value"})

	store := sessions.NewCookieStore(r, testPolicy)

	assert.True(t, store.Has(sessions.SealedKey))
	v, ok := store.Get(sessions.SealedKey)
	require.True(t, ok)
	assert.Equal(t, "sealed-value", v)
}

func TestCookieStoreMissingCookie(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	store := sessions.NewCookieStore(r, testPolicy)

	assert.False(t, store.Has(sessions.SealedKey))

	_, err := store.Commit()
	require.Error(t, err)
}

func TestCookieStoreCommitAttributes(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	store := sessions.NewCookieStore(r, testPolicy)
	store.Set(sessions.SealedKey, "renewed-seal")

	cookie, err := store.Commit()
	require.NoError(t, err)

	assert.Equal(t, "wos-session", cookie.Name)
	assert.Equal(t, "renewed-seal", cookie.Value)
	assert.Equal(t, "/", cookie.Path)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, 34560000, cookie.MaxAge)
}

func TestCookieStoreDestroy(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "wos-session", Value: "sealed-value"})
	store := sessions.NewCookieStore(r, testPolicy)

	cookie := store.Destroy()

	assert.Equal(t, "wos-session", cookie.Name)
	assert.Empty(t, cookie.Value)
	assert.Equal(t, -1, cookie.MaxAge)
	assert.False(t, store.Has(sessions.SealedKey))
}
