package types

import "errors"

// Config holds backend selection and parameters for opening per-user stores.
type Config struct {
	Backend       string `json:"backend" yaml:"backend"`
	DataDir       string `json:"data_dir" yaml:"data_dir"`
	RetentionDays int    `json:"retention_days" yaml:"retention_days"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// DefaultRetentionDays is applied when Config.RetentionDays is zero.
const DefaultRetentionDays = 90

// Config validation errors.
var (
	ErrBackendEmpty      = errors.New("backend must not be empty")
	ErrBackendUnknown    = errors.New("unknown backend")
	ErrRetentionNegative = errors.New("retention days must not be negative")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.RetentionDays < 0 {
		return ErrRetentionNegative
	}
	return nil
}

// Retention returns the effective retention period in days.
func (c Config) Retention() int {
	if c.RetentionDays == 0 {
		return DefaultRetentionDays
	}
	return c.RetentionDays
}
