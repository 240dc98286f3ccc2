package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/zahnovia-backend/internal/platform/cloudstore"
	"github.com/yungbote/zahnovia-backend/internal/platform/gcp"
	"github.com/yungbote/zahnovia-backend/internal/platform/logger"
)

var newCloudStore = cloudstore.New

type StorageProviderBootstrapErrorCode string

const (
	StorageProviderBootstrapErrorInvalidMode         StorageProviderBootstrapErrorCode = "invalid_mode"
	StorageProviderBootstrapErrorMissingBucket       StorageProviderBootstrapErrorCode = "missing_bucket"
	StorageProviderBootstrapErrorMissingEmulatorHost StorageProviderBootstrapErrorCode = "missing_emulator_host"
	StorageProviderBootstrapErrorInvalidEmulatorHost StorageProviderBootstrapErrorCode = "invalid_emulator_host"
	StorageProviderBootstrapErrorConnectFailed       StorageProviderBootstrapErrorCode = "connect_failed"
	StorageProviderBootstrapErrorRootFolder          StorageProviderBootstrapErrorCode = "root_folder_failed"
)

type StorageProviderBootstrapError struct {
	Code         StorageProviderBootstrapErrorCode
	Mode         string
	EmulatorHost string
	Cause        error
}

func (e *StorageProviderBootstrapError) Error() string {
	if e == nil {
		return "cloud storage bootstrap failed"
	}
	return fmt.Sprintf(
		"cloud storage bootstrap failed (code=%s mode=%q emulator_host=%q): %v",
		e.Code,
		e.Mode,
		e.EmulatorHost,
		e.Cause,
	)
}

func (e *StorageProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveCloudStore builds the configured store and resolves the root folder
// id. In "none" mode it returns a nil store and an empty root.
func resolveCloudStore(ctx context.Context, log *logger.Logger, cfg cloudstore.Config, creds gcp.Credentials) (cloudstore.Store, string, error) {
	mode := cloudstore.NormalizeMode(cfg.Mode)
	log.Info(
		"Selecting cloud storage provider",
		"mode", mode,
		"bucket", cfg.Bucket,
		"emulator_host", cfg.EmulatorHost,
	)

	store, err := newCloudStore(ctx, log, cfg, creds)
	if err != nil {
		classified := classifyStorageProviderBootstrapError(cfg, err)
		log.Error(
			"Cloud storage provider bootstrap failed",
			"mode", mode,
			"emulator_host", cfg.EmulatorHost,
			"error_code", storageProviderBootstrapErrorCode(classified),
			"error", classified,
		)
		return nil, "", classified
	}
	if store == nil {
		return nil, "", nil
	}

	rootID := strings.TrimSpace(cfg.RootFolderID)
	if rootID == "" {
		rootID, err = store.EnsureFolder(ctx, cfg.RootFolder, "")
		if err != nil {
			bootErr := &StorageProviderBootstrapError{
				Code:         StorageProviderBootstrapErrorRootFolder,
				Mode:         mode,
				EmulatorHost: cfg.EmulatorHost,
				Cause:        err,
			}
			log.Error("Cloud storage root folder unavailable", "root_folder", cfg.RootFolder, "error", bootErr)
			return nil, "", bootErr
		}
	}
	log.Info("Cloud storage ready", "mode", mode, "root_folder_id", rootID)
	return store, rootID, nil
}

func classifyStorageProviderBootstrapError(cfg cloudstore.Config, err error) error {
	code := StorageProviderBootstrapErrorConnectFailed
	var cfgErr *cloudstore.ConfigError
	if errors.As(err, &cfgErr) {
		switch cfgErr.Code {
		case cloudstore.ConfigErrorInvalidMode:
			code = StorageProviderBootstrapErrorInvalidMode
		case cloudstore.ConfigErrorMissingBucket:
			code = StorageProviderBootstrapErrorMissingBucket
		case cloudstore.ConfigErrorMissingEmulatorHost:
			code = StorageProviderBootstrapErrorMissingEmulatorHost
		case cloudstore.ConfigErrorInvalidEmulatorHost:
			code = StorageProviderBootstrapErrorInvalidEmulatorHost
		}
	}
	return &StorageProviderBootstrapError{
		Code:         code,
		Mode:         cloudstore.NormalizeMode(cfg.Mode),
		EmulatorHost: cfg.EmulatorHost,
		Cause:        err,
	}
}

func storageProviderBootstrapErrorCode(err error) StorageProviderBootstrapErrorCode {
	var bootstrapErr *StorageProviderBootstrapError
	if errors.As(err, &bootstrapErr) {
		if bootstrapErr.Code != "" {
			return bootstrapErr.Code
		}
	}
	return StorageProviderBootstrapErrorConnectFailed
}
