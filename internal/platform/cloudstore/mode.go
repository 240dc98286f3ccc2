package cloudstore

import (
	"fmt"
	"net/url"
	"strings"
)

type ConfigErrorCode string

const (
	ConfigErrorInvalidMode         ConfigErrorCode = "invalid_mode"
	ConfigErrorMissingBucket       ConfigErrorCode = "missing_bucket"
	ConfigErrorMissingEmulatorHost ConfigErrorCode = "missing_emulator_host"
	ConfigErrorInvalidEmulatorHost ConfigErrorCode = "invalid_emulator_host"
)

type ConfigError struct {
	Code         ConfigErrorCode
	Mode         string
	EmulatorHost string
	Cause        error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "invalid cloud storage config"
	}
	switch e.Code {
	case ConfigErrorInvalidMode:
		return fmt.Sprintf("invalid CLOUD_STORAGE_MODE=%q (allowed: %q, %q, %q, %q)",
			e.Mode, ModeDrive, ModeGCS, ModeGCSEmulator, ModeNone)
	case ConfigErrorMissingBucket:
		return fmt.Sprintf("CLOUD_STORAGE_MODE=%q requires GCS_BUCKET to be set", e.Mode)
	case ConfigErrorMissingEmulatorHost:
		return fmt.Sprintf("CLOUD_STORAGE_MODE=%q requires STORAGE_EMULATOR_HOST to be set", ModeGCSEmulator)
	case ConfigErrorInvalidEmulatorHost:
		return fmt.Sprintf("invalid STORAGE_EMULATOR_HOST=%q; expected absolute URL like http://fake-gcs:4443", e.EmulatorHost)
	default:
		return "invalid cloud storage config"
	}
}

func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NormalizeMode lower-cases the mode and maps the empty string to "none".
func NormalizeMode(mode string) string {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		return ModeNone
	}
	return mode
}

// Validate checks the settings a mode depends on without contacting Google.
func Validate(cfg Config) error {
	mode := NormalizeMode(cfg.Mode)
	switch mode {
	case ModeNone, ModeDrive:
		return nil
	case ModeGCS:
		if strings.TrimSpace(cfg.Bucket) == "" {
			return &ConfigError{Code: ConfigErrorMissingBucket, Mode: mode}
		}
		return nil
	case ModeGCSEmulator:
		if strings.TrimSpace(cfg.Bucket) == "" {
			return &ConfigError{Code: ConfigErrorMissingBucket, Mode: mode}
		}
		host := strings.TrimSpace(cfg.EmulatorHost)
		if host == "" {
			return &ConfigError{Code: ConfigErrorMissingEmulatorHost, Mode: mode}
		}
		u, err := url.Parse(host)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return &ConfigError{Code: ConfigErrorInvalidEmulatorHost, Mode: mode, EmulatorHost: host, Cause: err}
		}
		return nil
	default:
		return &ConfigError{Code: ConfigErrorInvalidMode, Mode: cfg.Mode}
	}
}
