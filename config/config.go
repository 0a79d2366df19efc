// Package config resolves the adapter's configuration from explicit
// programmatic overrides, a pluggable key/value source (normally the
// process environment) and built-in defaults, in that order of precedence.
//
// A Resolver is immutable once constructed. Required keys are validated
// lazily, on first access, so that an application which never touches a
// given code path is not forced to configure it.
package config

import (
	"strconv"
	"strings"
)

// Configuration keys. These are the canonical camel-case names; each maps
// to a WORKOS_* environment variable in EnvSource.
const (
	KeyClientID       = "clientId"
	KeyAPIKey         = "apiKey"
	KeyRedirectURI    = "redirectUri"
	KeyCookiePassword = "cookiePassword"
	KeyCookieName     = "cookieName"
	KeyCookieMaxAge   = "cookieMaxAge"
	KeyAPIHostname    = "apiHostname"
	KeyAPIHTTPS       = "apiHttps"
	KeyAPIPort        = "apiPort"
)

const (
	// DefaultCookieName is used when no cookie name is configured.
	DefaultCookieName = "wos-session"
	// DefaultCookieMaxAge is 400 days in seconds.
	DefaultCookieMaxAge = 34560000
	// DefaultAPIHostname is the provider's public API host.
	DefaultAPIHostname = "api.workos.com"

	// MinCookiePasswordLength is the minimum accepted length for the
	// session sealing password.
	MinCookiePasswordLength = 32
)

// envKeys maps configuration keys to their environment-variable
// equivalents, used by EnvSource and by ConfigurationError messages.
var envKeys = map[string]string{
	KeyClientID:       "WORKOS_CLIENT_ID",
	KeyAPIKey:         "WORKOS_API_KEY",
	KeyRedirectURI:    "WORKOS_REDIRECT_URI",
	KeyCookiePassword: "WORKOS_COOKIE_PASSWORD",
	KeyCookieName:     "WORKOS_COOKIE_NAME",
	KeyCookieMaxAge:   "WORKOS_COOKIE_MAX_AGE",
	KeyAPIHostname:    "WORKOS_API_HOSTNAME",
	KeyAPIHTTPS:       "WORKOS_API_HTTPS",
	KeyAPIPort:        "WORKOS_API_PORT",
}

// EnvVarFor returns the environment variable name for a configuration key,
// or the empty string for unknown keys.
func EnvVarFor(key string) string {
	return envKeys[key]
}

var defaults = map[string]string{
	KeyCookieName:   DefaultCookieName,
	KeyCookieMaxAge: strconv.Itoa(DefaultCookieMaxAge),
	KeyAPIHostname:  DefaultAPIHostname,
	KeyAPIHTTPS:     "true",
}

// Resolver is a read-only view over the merged configuration.
type Resolver struct {
	overrides map[string]string
	source    Source
}

// Option applies an explicit programmatic override to a Resolver under
// construction. Explicit values take precedence over the source and over
// defaults.
type Option func(*Resolver)

func override(key, value string) Option {
	return func(r *Resolver) {
		if value != "" {
			r.overrides[key] = value
		}
	}
}

func WithClientID(v string) Option       { return override(KeyClientID, v) }
func WithAPIKey(v string) Option         { return override(KeyAPIKey, v) }
func WithRedirectURI(v string) Option    { return override(KeyRedirectURI, v) }
func WithCookiePassword(v string) Option { return override(KeyCookiePassword, v) }
func WithCookieName(v string) Option     { return override(KeyCookieName, v) }
func WithAPIHostname(v string) Option    { return override(KeyAPIHostname, v) }

func WithCookieMaxAge(seconds int) Option {
	return override(KeyCookieMaxAge, strconv.Itoa(seconds))
}

func WithAPIHTTPS(https bool) Option {
	return override(KeyAPIHTTPS, strconv.FormatBool(https))
}

func WithAPIPort(port int) Option {
	return override(KeyAPIPort, strconv.Itoa(port))
}

// New builds a Resolver backed by the process environment.
func New(options ...Option) *Resolver {
	return NewWithSource(EnvSource(), options...)
}

// NewWithSource builds a Resolver backed by an arbitrary source. A nil
// source behaves as an empty one.
func NewWithSource(source Source, options ...Option) *Resolver {
	if source == nil {
		source = func(string) (string, bool) { return "", false }
	}
	r := &Resolver{
		overrides: make(map[string]string),
		source:    source,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// lookup applies the precedence chain: explicit override, then source,
// then built-in default. The second return reports whether any level
// produced a value.
func (r *Resolver) lookup(key string) (string, bool) {
	if v, ok := r.overrides[key]; ok {
		return v, true
	}
	if v, ok := r.source(key); ok && v != "" {
		return v, true
	}
	if v, ok := defaults[key]; ok {
		return v, true
	}
	return "", false
}

// candidates returns every configured value for key in precedence order.
// Typed getters walk this list so that a non-coercible value at one level
// falls through to the next instead of masking the default.
func (r *Resolver) candidates(key string) []string {
	var out []string
	if v, ok := r.overrides[key]; ok {
		out = append(out, v)
	}
	if v, ok := r.source(key); ok && v != "" {
		out = append(out, v)
	}
	if v, ok := defaults[key]; ok {
		out = append(out, v)
	}
	return out
}

// GetString returns the configured string for key, or "" when absent.
func (r *Resolver) GetString(key string) string {
	v, _ := r.lookup(key)
	return v
}

// GetBool returns the configured boolean for key. "true"/"1" and
// "false"/"0" (case-insensitive) are recognized; a non-coercible value is
// treated as absent and the next precedence level applies.
func (r *Resolver) GetBool(key string) bool {
	for _, v := range r.candidates(key) {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1":
			return true
		case "false", "0":
			return false
		}
	}
	return false
}

// GetInt returns the configured integer for key. A non-numeric value is
// treated as absent and the next precedence level applies; zero when no
// level holds a number.
func (r *Resolver) GetInt(key string) int {
	for _, v := range r.candidates(key) {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return 0
}

// GetRequired returns the configured string for key or a
// ConfigurationError naming the key and its environment equivalent.
func (r *Resolver) GetRequired(key string) (string, error) {
	v, ok := r.lookup(key)
	if !ok || v == "" {
		return "", &ConfigurationError{Key: key, EnvVar: EnvVarFor(key), Reason: "missing required configuration"}
	}
	return v, nil
}

// ClientID returns the provider client id. Required.
func (r *Resolver) ClientID() (string, error) {
	return r.GetRequired(KeyClientID)
}

// APIKey returns the provider API key. Required.
func (r *Resolver) APIKey() (string, error) {
	return r.GetRequired(KeyAPIKey)
}

// RedirectURI returns the OAuth redirect URI. Required.
func (r *Resolver) RedirectURI() (string, error) {
	return r.GetRequired(KeyRedirectURI)
}

// CookiePassword returns the session sealing password. Required, and must
// be at least MinCookiePasswordLength characters.
func (r *Resolver) CookiePassword() (string, error) {
	v, err := r.GetRequired(KeyCookiePassword)
	if err != nil {
		return "", err
	}
	if len(v) < MinCookiePasswordLength {
		return "", &ConfigurationError{
			Key:    KeyCookiePassword,
			EnvVar: EnvVarFor(KeyCookiePassword),
			Reason: "cookie password must be at least 32 characters",
		}
	}
	return v, nil
}

// CookieName returns the session cookie name.
func (r *Resolver) CookieName() string {
	return r.GetString(KeyCookieName)
}

// CookieMaxAge returns the session cookie max age in seconds.
func (r *Resolver) CookieMaxAge() int {
	n := r.GetInt(KeyCookieMaxAge)
	if n <= 0 {
		return DefaultCookieMaxAge
	}
	return n
}

// APIHostname returns the provider API hostname.
func (r *Resolver) APIHostname() string {
	return r.GetString(KeyAPIHostname)
}

// APIHTTPS reports whether provider API calls use https.
func (r *Resolver) APIHTTPS() bool {
	return r.GetBool(KeyAPIHTTPS)
}

// APIPort returns the provider API port, or 0 when unset.
func (r *Resolver) APIPort() int {
	return r.GetInt(KeyAPIPort)
}

// APIBaseURL assembles the provider API origin from hostname, scheme and
// optional port.
func (r *Resolver) APIBaseURL() string {
	scheme := "http"
	if r.APIHTTPS() {
		scheme = "https"
	}
	base := scheme + "://" + r.APIHostname()
	if port := r.APIPort(); port > 0 {
		base += ":" + strconv.Itoa(port)
	}
	return base
}

// CookieSecure reports whether the session cookie should carry the Secure
// attribute: true iff the configured redirect URI uses https.
func (r *Resolver) CookieSecure() bool {
	uri, err := r.RedirectURI()
	if err != nil {
		return false
	}
	return strings.HasPrefix(uri, "https:")
}
