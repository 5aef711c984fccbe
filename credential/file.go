package credential

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kbukum/audioscribe/encryption"
	"github.com/kbukum/audioscribe/errors"
	"github.com/kbukum/audioscribe/logger"
)

const keyPurpose = "audioscribe/openai-api-key"

// FileStore keeps the key encrypted at rest in a single file with mode 0600.
type FileStore struct {
	path string
	enc  encryption.Encryptor
	log  *logger.Logger
	mu   sync.Mutex
}

// NewFileStore creates a FileStore at path. secret derives the file
// encryption key; changing it makes an existing file unreadable.
func NewFileStore(path, secret string, log *logger.Logger) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("credential: key file path is required")
	}
	enc, err := encryption.New(secret, encryption.WithPurpose(keyPurpose))
	if err != nil {
		return nil, fmt.Errorf("credential: %w", err)
	}
	if log == nil {
		log = logger.Get("credential")
	}
	return &FileStore{path: path, enc: enc, log: log.WithComponent("credential")}, nil
}

// Path returns the key file location.
func (s *FileStore) Path() string { return s.path }

// Get decrypts and returns the stored key. A missing file, or one that can
// no longer be decrypted, is reported as CREDENTIAL_MISSING.
func (s *FileStore) Get(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return "", errors.CredentialMissing()
		}
		return "", errors.Internal(fmt.Errorf("credential: read key file: %w", err))
	}

	key, err := s.enc.Decrypt(strings.TrimSpace(string(data)))
	if err != nil {
		s.log.Warn("stored key cannot be decrypted", logger.Fields(logger.FieldPath, s.path))
		return "", errors.CredentialMissing().WithCause(err).WithDetail("reason", "undecryptable")
	}
	return key, nil
}

// Set validates, encrypts and writes key, replacing any previous one.
func (s *FileStore) Set(_ context.Context, key string) error {
	key = strings.TrimSpace(key)
	if err := Validate(key); err != nil {
		return err
	}
	sealed, err := s.enc.Encrypt(key)
	if err != nil {
		return errors.Internal(fmt.Errorf("credential: encrypt key: %w", err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Internal(fmt.Errorf("credential: create key directory: %w", err))
	}
	tmp, err := os.CreateTemp(dir, ".key-*")
	if err != nil {
		return errors.Internal(fmt.Errorf("credential: create key file: %w", err))
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.WriteString(sealed + "\n"); err != nil {
		_ = tmp.Close()
		return errors.Internal(fmt.Errorf("credential: write key file: %w", err))
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return errors.Internal(fmt.Errorf("credential: chmod key file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		return errors.Internal(fmt.Errorf("credential: close key file: %w", err))
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.Internal(fmt.Errorf("credential: commit key file: %w", err))
	}
	s.log.Info("API key stored", logger.Fields(logger.FieldPath, s.path))
	return nil
}

// Remove deletes the key file. Removing a missing key succeeds.
func (s *FileStore) Remove(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return errors.Internal(fmt.Errorf("credential: remove key file: %w", err))
	}
	s.log.Info("API key removed", logger.Fields(logger.FieldPath, s.path))
	return nil
}

var _ Store = (*FileStore)(nil)
