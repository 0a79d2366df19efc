package config

import "fmt"

// ConfigurationError reports a missing or invalid required configuration
// value. It names both the configuration key and the environment variable
// that would satisfy it.
type ConfigurationError struct {
	Key    string
	EnvVar string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.EnvVar != "" {
		return fmt.Sprintf("config: %s for %q (set %s)", e.Reason, e.Key, e.EnvVar)
	}
	return fmt.Sprintf("config: %s for %q", e.Reason, e.Key)
}
