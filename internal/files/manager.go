package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	dirPermissions = 0o755

	// SessionExt is the extension of round-trip session files.
	SessionExt = ".stamps"
	// ConfigName is the config file looked up in the base directory.
	ConfigName = "config.yaml"
	// DefaultSession is used when no session name is given.
	DefaultSession = "default"
)

// ErrInvalidSessionName is returned for names that would escape the base directory.
var ErrInvalidSessionName = errors.New("session name must be a plain file name")

// Manager centralizes where sessions and exports live on disk.
type Manager struct {
	basePath string
}

// NewManager constructs a Manager rooted at the provided directory. If basePath
// is empty, it falls back to ~/.tanda (or another location determined by
// ResolveBasePath).
func NewManager(basePath string) (*Manager, error) {
	var err error
	if basePath == "" {
		basePath, err = ResolveBasePath()
		if err != nil {
			return nil, err
		}
	}
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, err
	}

	return &Manager{basePath: abs}, nil
}

// BasePath returns the root directory.
func (m *Manager) BasePath() string {
	return m.basePath
}

// ConfigPath returns the default config file location.
func (m *Manager) ConfigPath() string {
	return filepath.Join(m.basePath, ConfigName)
}

// SessionPath resolves the session file for name. The file may not exist yet.
func (m *Manager) SessionPath(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultSession
	}
	name = strings.TrimSuffix(name, SessionExt)
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSessionName, name)
	}
	return filepath.Join(m.basePath, name+SessionExt), nil
}

// Sessions lists the session names present in the base directory.
func (m *Manager) Sessions() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(m.basePath, "*"+SessionExt))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(matches))
	for _, match := range matches {
		names = append(names, strings.TrimSuffix(filepath.Base(match), SessionExt))
	}
	return names, nil
}

// EnsureBase creates the base directory if needed.
func (m *Manager) EnsureBase() error {
	if m == nil {
		return errors.New("files.Manager is nil")
	}
	if err := os.MkdirAll(m.basePath, dirPermissions); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	return nil
}
