// SPDX-License-Identifier: MPL-2.0

package tempfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

type (
	// Manager is a registry of temporary paths. It is not safe for concurrent use.
	Manager struct {
		fs      billy.Filesystem
		hostFS  bool
		paths   []string
		logger  *log.Logger
		perm    os.FileMode
		created int
	}

	// Option configures a Manager.
	Option func(*Manager)
)

// WithFilesystem uses fsys instead of the host filesystem.
// Paths are passed to fsys unchanged.
func WithFilesystem(fsys billy.Filesystem) Option {
	return func(m *Manager) {
		m.fs = fsys
		m.hostFS = false
	}
}

// WithLogger replaces the manager logger.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithFileMode sets the permissions of created files. The default is 0o644.
func WithFileMode(perm os.FileMode) Option {
	return func(m *Manager) {
		m.perm = perm
	}
}

// NewManager creates a Manager on the host filesystem.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		fs:     osfs.New("/"),
		hostFS: true,
		perm:   0o644,
		logger: log.NewWithOptions(os.Stderr, log.Options{
			Prefix: "tempfile",
			Level:  log.WarnLevel,
		}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetUp runs before each test. It currently has nothing to prepare.
func (m *Manager) SetUp() {}

// RegisterTempFile adds paths to the registry without creating them. On the
// host filesystem relative paths are made absolute against the current working
// directory at registration time.
func (m *Manager) RegisterTempFile(paths ...string) {
	for _, path := range paths {
		m.paths = append(m.paths, m.resolve(path))
	}
}

// CreateTempFile writes content as UTF-8 and registers path.
func (m *Manager) CreateTempFile(path, content string) error {
	return m.CreateTempFileWithEncoding(path, content, nil)
}

// CreateTempFileWithEncoding writes content with enc and registers path.
// A nil enc means UTF-8 without a byte order mark.
func (m *Manager) CreateTempFileWithEncoding(path, content string, enc encoding.Encoding) error {
	data, err := orUTF8(enc).NewEncoder().Bytes([]byte(content))
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	path = m.resolve(path)
	if err := util.WriteFile(m.fs, path, data, m.perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	m.RegisterTempFile(path)
	m.created++
	return nil
}

// ReadText reads the whole file at path decoded with enc (nil means UTF-8).
// The path does not need to be registered.
func (m *Manager) ReadText(path string, enc encoding.Encoding) (string, error) {
	data, err := util.ReadFile(m.fs, m.resolve(path))
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	text, err := orUTF8(enc).NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return string(text), nil
}

// ForgetTempFiles clears the registry without deleting anything.
func (m *Manager) ForgetTempFiles() {
	m.paths = nil
}

// Paths returns a copy of the registered paths in registration order, as
// resolved by RegisterTempFile.
func (m *Manager) Paths() []string {
	return slices.Clone(m.paths)
}

// Created returns how many files this manager has written.
func (m *Manager) Created() int {
	return m.created
}

// TearDown deletes every registered path in reverse registration order and
// clears the registry. Paths that no longer exist are skipped; other
// failures are collected and returned together.
func (m *Manager) TearDown() error {
	var errs []error
	for _, path := range slices.Backward(m.paths) {
		err := m.fs.Remove(path)
		switch {
		case err == nil:
			m.logger.Debug("removed temp file", "path", path)
		case errors.Is(err, fs.ErrNotExist):
			m.logger.Debug("temp file already gone", "path", path)
		default:
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", path, err))
		}
	}
	m.paths = nil

	if len(errs) > 0 {
		m.logger.Warn("temp file cleanup incomplete", "failures", len(errs))
	}
	return errors.Join(errs...)
}

// resolve makes host paths absolute against the current working directory.
// The host filesystem is rooted at "/".
func (m *Manager) resolve(path string) string {
	if !m.hostFS || filepath.IsAbs(path) {
		return path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

func orUTF8(enc encoding.Encoding) encoding.Encoding {
	if enc == nil {
		return unicode.UTF8
	}
	return enc
}
