package common

import "fmt"

// ConfigError reports a missing or invalid configuration value. It is fatal at startup.
type ConfigError struct {
	Key     string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("Configuration Error: %s", e.Message)
	}
	return fmt.Sprintf("Configuration Error: %s: %s", e.Key, e.Message)
}

// GenerationError wraps any failure of the hosted model call.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return e.Err.Error()
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func NewConfigError(key, message string) error {
	return &ConfigError{Key: key, Message: message}
}

func NewGenerationError(err error) error {
	return &GenerationError{Err: err}
}
