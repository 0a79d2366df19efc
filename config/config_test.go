package config_test

import (
	"testing"

	"github.com/sessionworks/authbridge/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "this-password-is-32-characters!!"

func TestDefaults(t *testing.T) {
	cfg := config.NewWithSource(nil)

	assert.Equal(t, "wos-session", cfg.CookieName())
	assert.Equal(t, 34560000, cfg.CookieMaxAge())
	assert.Equal(t, "api.workos.com", cfg.APIHostname())
	assert.True(t, cfg.APIHTTPS())
	assert.Equal(t, 0, cfg.APIPort())
	assert.Equal(t, "https://api.workos.com", cfg.APIBaseURL())
}

func TestPrecedenceExplicitOverSource(t *testing.T) {
	source := config.MapSource(map[string]string{
		config.KeyClientID:   "client_from_source",
		config.KeyCookieName: "source-cookie",
	})

	cfg := config.NewWithSource(source,
		config.WithClientID("client_from_override"),
	)

	clientID, err := cfg.ClientID()
	require.NoError(t, err)
	assert.Equal(t, "client_from_override", clientID)

	// No override for cookie name, so the source wins over the default.
	assert.Equal(t, "source-cookie", cfg.CookieName())
}

func TestMissingRequiredKeyNamesEnvVar(t *testing.T) {
	cfg := config.NewWithSource(nil)

	_, err := cfg.ClientID()
	require.Error(t, err)

	var confErr *config.ConfigurationError
	require.ErrorAs(t, err, &confErr)
	assert.Equal(t, config.KeyClientID, confErr.Key)
	assert.Equal(t, "WORKOS_CLIENT_ID", confErr.EnvVar)
	assert.Contains(t, err.Error(), "WORKOS_CLIENT_ID")
}

func TestCookiePasswordTooShort(t *testing.T) {
	cfg := config.NewWithSource(nil, config.WithCookiePassword("too-short"))

	_, err := cfg.CookiePassword()
	require.Error(t, err)

	var confErr *config.ConfigurationError
	require.ErrorAs(t, err, &confErr)
	assert.Equal(t, config.KeyCookiePassword, confErr.Key)
}

func TestCookiePasswordValid(t *testing.T) {
	cfg := config.NewWithSource(nil, config.WithCookiePassword(testPassword))

	password, err := cfg.CookiePassword()
	require.NoError(t, err)
	assert.Equal(t, testPassword, password)
}

func TestBoolCoercion(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"true string", "true", true},
		{"one", "1", true},
		{"mixed case", "TRUE", true},
		{"false string", "false", false},
		{"zero", "0", false},
		// Non-coercible values are treated as absent, so the built-in
		// apiHttps default (true) applies.
		{"garbage falls through to default", "yes please", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			source := config.MapSource(map[string]string{
				config.KeyAPIHTTPS: tc.value,
			})
			cfg := config.NewWithSource(source)
			assert.Equal(t, tc.want, cfg.APIHTTPS())
		})
	}
}

func TestBoolGarbageWithoutDefaultIsFalse(t *testing.T) {
	source := config.MapSource(map[string]string{
		config.KeyRedirectURI: "maybe",
	})
	cfg := config.NewWithSource(source)

	// No bool default exists for this key, so falling through ends at
	// false.
	assert.False(t, cfg.GetBool(config.KeyRedirectURI))
}

func TestIntCoercionNonNumericFallsBack(t *testing.T) {
	source := config.MapSource(map[string]string{
		config.KeyCookieMaxAge: "not-a-number",
		config.KeyAPIPort:      "nine thousand",
	})
	cfg := config.NewWithSource(source)

	// Non-numeric values are treated as absent: the max age falls through
	// to its default, the port has none and reads as zero.
	assert.Equal(t, config.DefaultCookieMaxAge, cfg.GetInt(config.KeyCookieMaxAge))
	assert.Equal(t, config.DefaultCookieMaxAge, cfg.CookieMaxAge())
	assert.Equal(t, 0, cfg.APIPort())
}

func TestEnvVarFor(t *testing.T) {
	assert.Equal(t, "WORKOS_CLIENT_ID", config.EnvVarFor(config.KeyClientID))
	assert.Equal(t, "WORKOS_COOKIE_PASSWORD", config.EnvVarFor(config.KeyCookiePassword))
	assert.Empty(t, config.EnvVarFor("no-such-key"))
}

func TestAPIBaseURLWithPortAndScheme(t *testing.T) {
	cfg := config.NewWithSource(nil,
		config.WithAPIHostname("localhost"),
		config.WithAPIHTTPS(false),
		config.WithAPIPort(7000),
	)
	assert.Equal(t, "http://localhost:7000", cfg.APIBaseURL())
}

func TestCookieSecureFollowsRedirectURIScheme(t *testing.T) {
	httpsCfg := config.NewWithSource(nil, config.WithRedirectURI("https://example.com/callback"))
	assert.True(t, httpsCfg.CookieSecure())

	httpCfg := config.NewWithSource(nil, config.WithRedirectURI("http://localhost:3000/callback"))
	assert.False(t, httpCfg.CookieSecure())

	// No redirect URI at all: default to not secure rather than erroring.
	assert.False(t, config.NewWithSource(nil).CookieSecure())
}
