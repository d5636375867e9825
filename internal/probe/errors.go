package probe

import "errors"

// ConfigurationError rejects an invocation before any probe runs:
// invalid target syntax, unknown probe name, or unusable settings.
// It is the only failure the engine surfaces as a returned error;
// everything else is contained in per-probe Results.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// IsConfigurationError reports whether err is (or wraps) a
// ConfigurationError, letting the CLI map it to a usage failure.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

var (
	ErrEmptyTarget   = errors.New("target cannot be empty")
	ErrInvalidTarget = errors.New("target is not a plausible host or domain")
	ErrNoProbes      = errors.New("no probes requested")
)
