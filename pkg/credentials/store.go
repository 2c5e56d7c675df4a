package credentials

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

const (
	configDirName = "specter"
	tokenFileName = "token"
)

// Store persists the platform bearer token under the per-user config
// directory. All failures on the read path are soft: a missing or unreadable
// token file means "no credential", never an error, so the host process can
// start without one.
type Store struct {
	logger zerolog.Logger
	path   string
}

func NewStore(logger zerolog.Logger) *Store {
	return &Store{
		logger: logger.With().Str("component", "credentials").Logger(),
		path:   defaultTokenPath(),
	}
}

func defaultTokenPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		// Fall back to the working directory; Save will still create it.
		dir = "."
	}
	return filepath.Join(dir, configDirName, tokenFileName)
}

// Path returns the token file location.
func (s *Store) Path() string {
	return s.path
}

// Load returns the persisted token, or "" if none is stored.
func (s *Store) Load() string {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Msgf("failed to read token file %s", s.path)
		}
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Save writes the token, creating the config directory if needed. Failure is
// logged rather than returned; losing persistence is not worth crashing the
// host process over.
func (s *Store) Save(token string) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		s.logger.Warn().Err(err).Msgf("failed to create config directory for %s", s.path)
		return
	}
	if err := os.WriteFile(s.path, []byte(token), 0o600); err != nil {
		s.logger.Warn().Err(err).Msgf("failed to write token file %s", s.path)
	}
}

// Clear deletes the persisted token. A missing file is not an error.
func (s *Store) Clear() {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn().Err(err).Msgf("failed to remove token file %s", s.path)
	}
}
