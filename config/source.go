package config

import "os"

// Source supplies raw configuration values by key. The boolean reports
// whether the source had any value for the key; an empty string with
// ok=true is still treated as absent by the resolver.
type Source func(key string) (value string, ok bool)

// EnvSource reads configuration from WORKOS_* environment variables.
func EnvSource() Source {
	return func(key string) (string, bool) {
		envKey, ok := envKeys[key]
		if !ok {
			return "", false
		}
		return os.LookupEnv(envKey)
	}
}

// MapSource reads configuration from a fixed map keyed by canonical
// configuration key. Useful in tests and embedded setups.
func MapSource(values map[string]string) Source {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}
