package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure.
type ValidationError struct {
	Field   string // The config field path (e.g., "tracker.keep_records")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels.
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation
// errors found.
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateEnforcement()...)
	errors = append(errors, c.validateTracker()...)
	errors = append(errors, c.validateHooks()...)
	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validateNotifications()...)

	return errors
}

func (c *Config) validateEnforcement() []ValidationError {
	var errors []ValidationError
	for _, ext := range c.Enforcement.CodeExtensions {
		if !strings.HasPrefix(ext, ".") {
			errors = append(errors, ValidationError{
				Field:   "enforcement.code_extensions",
				Value:   ext,
				Message: "extensions must include the leading dot",
			})
		}
	}
	return errors
}

func (c *Config) validateTracker() []ValidationError {
	var errors []ValidationError
	if c.Tracker.StaleWindowMinutes <= 0 {
		errors = append(errors, ValidationError{
			Field:   "tracker.stale_window_minutes",
			Value:   c.Tracker.StaleWindowMinutes,
			Message: "must be positive",
		})
	}
	if c.Tracker.WarnThresholdEdits < 0 {
		errors = append(errors, ValidationError{
			Field:   "tracker.warn_threshold_edits",
			Value:   c.Tracker.WarnThresholdEdits,
			Message: "must be non-negative",
		})
	}
	if c.Tracker.MaxLogSizeBytes <= 0 {
		errors = append(errors, ValidationError{
			Field:   "tracker.max_log_size_bytes",
			Value:   c.Tracker.MaxLogSizeBytes,
			Message: "must be positive",
		})
	}
	if c.Tracker.KeepRecords <= 0 {
		errors = append(errors, ValidationError{
			Field:   "tracker.keep_records",
			Value:   c.Tracker.KeepRecords,
			Message: "must be positive",
		})
	}
	return errors
}

func (c *Config) validateHooks() []ValidationError {
	var errors []ValidationError
	if c.Hooks.InputTimeoutMs <= 0 {
		errors = append(errors, ValidationError{
			Field:   "hooks.input_timeout_ms",
			Value:   c.Hooks.InputTimeoutMs,
			Message: "must be positive",
		})
	}
	if c.Hooks.MaxInputBytes <= 0 {
		errors = append(errors, ValidationError{
			Field:   "hooks.max_input_bytes",
			Value:   c.Hooks.MaxInputBytes,
			Message: "must be positive",
		})
	}
	return errors
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError
	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}
	if c.Logging.MaxSizeMB < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be non-negative",
		})
	}
	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}
	return errors
}

func (c *Config) validateNotifications() []ValidationError {
	var errors []ValidationError
	if c.Notifications.TimeoutMs <= 0 {
		errors = append(errors, ValidationError{
			Field:   "notifications.timeout_ms",
			Value:   c.Notifications.TimeoutMs,
			Message: "must be positive",
		})
	}
	return errors
}
