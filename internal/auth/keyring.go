package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zalando/go-keyring"
)

// Keyring service name for pokectl credentials.
const ServiceName = "pokectl"

// sessionKey is the keyring account under which the session token lives.
const sessionKey = "session"

// Errors for token storage.
var (
	ErrNoCredential    = errors.New("no credential found")
	ErrKeyringNotAvail = errors.New("keyring not available")
)

// TokenStore persists the opaque session token across process restarts.
type TokenStore interface {
	Save(token string) error
	Load() (string, error)
	Delete() error
}

// KeyringTokenStore stores the session token in the OS keyring.
type KeyringTokenStore struct{}

var _ TokenStore = KeyringTokenStore{}

// Save stores the token.
func (KeyringTokenStore) Save(token string) error {
	if err := keyring.Set(ServiceName, sessionKey, token); err != nil {
		if isKeyringUnavailable(err) {
			return fmt.Errorf("%w: %w", ErrKeyringNotAvail, err)
		}
		return fmt.Errorf("store session token: %w", err)
	}
	return nil
}

// Load retrieves the token. Returns ErrNoCredential when none is stored.
func (KeyringTokenStore) Load() (string, error) {
	token, err := keyring.Get(ServiceName, sessionKey)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNoCredential
		}
		if isKeyringUnavailable(err) {
			return "", fmt.Errorf("%w: %w", ErrKeyringNotAvail, err)
		}
		return "", fmt.Errorf("load session token: %w", err)
	}
	return token, nil
}

// Delete removes the token. Deleting a missing token succeeds.
func (KeyringTokenStore) Delete() error {
	err := keyring.Delete(ServiceName, sessionKey)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		if isKeyringUnavailable(err) {
			return fmt.Errorf("%w: %w", ErrKeyringNotAvail, err)
		}
		return fmt.Errorf("delete session token: %w", err)
	}
	return nil
}

// FileTokenStore stores the session token in a plain file. Fallback for
// headless environments (CI, containers, SSH) without a keyring.
type FileTokenStore struct {
	Path string
}

var _ TokenStore = FileTokenStore{}

// NewFileTokenStore stores the token under the given data directory.
func NewFileTokenStore(dataDir string) FileTokenStore {
	return FileTokenStore{Path: filepath.Join(dataDir, "session")}
}

// Save writes the token with owner-only permissions.
func (f FileTokenStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	if err := os.WriteFile(f.Path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("write session token: %w", err)
	}
	return nil
}

// Load reads the token. Returns ErrNoCredential when the file is absent.
func (f FileTokenStore) Load() (string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoCredential
		}
		return "", fmt.Errorf("read session token: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Delete removes the token file. Missing file is success.
func (f FileTokenStore) Delete() error {
	err := os.Remove(f.Path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete session token: %w", err)
	}
	return nil
}

// isKeyringUnavailable checks if the error indicates the keyring is not
// available. This happens in headless environments (CI, containers, SSH
// sessions).
func isKeyringUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, keyring.ErrNotFound) {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "dbus") ||
		strings.Contains(errStr, "keychain") ||
		strings.Contains(errStr, "credential") ||
		strings.Contains(errStr, "secret service")
}

// IsKeyringAvailable probes the OS keyring.
func IsKeyringAvailable() bool {
	_, err := keyring.Get(ServiceName, "__probe__")
	if err == nil {
		//nolint:errcheck // Best effort cleanup, keyring already confirmed working
		keyring.Delete(ServiceName, "__probe__")
		return true
	}
	return errors.Is(err, keyring.ErrNotFound)
}

// DefaultTokenStore picks the keyring when available, otherwise the
// file fallback under dataDir.
func DefaultTokenStore(dataDir string) TokenStore {
	if IsKeyringAvailable() {
		return KeyringTokenStore{}
	}
	return NewFileTokenStore(dataDir)
}
