package session

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/rs/zerolog/log"
)

// ErrNoSession is returned when no session is stored.
var ErrNoSession = errors.New("no stored session")

const (
	sessionFile   = "session.json"
	installIDFile = "install_id"
)

// Store persists the single canonical session record on the local
// filesystem. Corrupt stored data is treated as "no session" and cleared,
// never surfaced as a fatal error.
type Store struct {
	baseDir string
}

// NewStore creates a session store rooted at baseDir.
// If baseDir is empty, uses ~/.puntual/
func NewStore(baseDir string) (*Store, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		baseDir = filepath.Join(home, ".puntual")
	}

	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	store := &Store{baseDir: baseDir}

	if err := store.ensureInstallID(); err != nil {
		return nil, err
	}

	log.Debug().Str("baseDir", baseDir).Msg("session store initialized")

	return store, nil
}

// Load reads the stored session. Returns ErrNoSession when nothing is
// stored or the stored record cannot be decoded.
func (s *Store) Load() (*Session, error) {
	data, err := os.ReadFile(s.sessionPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil || sess.AccessToken == "" {
		// Corrupt state is cleared rather than reported.
		log.Warn().Str("path", s.sessionPath()).Msg("clearing undecodable session record")
		s.Clear()
		return nil, ErrNoSession
	}

	return &sess, nil
}

// Save writes the session record atomically with owner-only permissions.
func (s *Store) Save(sess *Session) error {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	tempPath := s.sessionPath() + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}

	if err := os.Rename(tempPath, s.sessionPath()); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save session: %w", err)
	}

	log.Debug().Int64("userID", sess.UserID).Msg("session saved")

	return nil
}

// Clear removes the stored session. Clearing an absent session is not an
// error.
func (s *Store) Clear() {
	if err := os.Remove(s.sessionPath()); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("failed to clear session")
	}
}

// AccessToken returns the stored access token, or empty when absent. It is
// the flat compatibility view over the canonical record.
func (s *Store) AccessToken() string {
	sess, err := s.Load()
	if err != nil {
		return ""
	}
	return sess.AccessToken
}

// RefreshToken returns the stored refresh token, or empty when absent.
func (s *Store) RefreshToken() string {
	sess, err := s.Load()
	if err != nil {
		return ""
	}
	return sess.RefreshToken
}

// InstallID returns this installation's stable client identifier.
func (s *Store) InstallID() string {
	data, err := os.ReadFile(filepath.Join(s.baseDir, installIDFile))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func (s *Store) sessionPath() string {
	return filepath.Join(s.baseDir, sessionFile)
}

// ensureInstallID generates the installation identifier on first use: 16
// random bytes, base58-encoded.
func (s *Store) ensureInstallID() error {
	path := filepath.Join(s.baseDir, installIDFile)
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Errorf("failed to generate install id: %w", err)
	}

	id := base58.Encode(buf)
	if err := os.WriteFile(path, []byte(id+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write install id: %w", err)
	}

	log.Debug().Str("installID", id).Msg("generated install id")

	return nil
}
