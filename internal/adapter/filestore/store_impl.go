package filestore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/jack23912/webscrapbook/internal/entity"
	"github.com/jack23912/webscrapbook/pkg/utils"
)

// ErrInvalidName is returned for names that would leave the session directory.
var ErrInvalidName = errors.New("invalid artifact name")

// StoreImpl keeps the artifacts of each session in its own directory of an
// afero filesystem. It implements DocumentSink and BlobStore.
type StoreImpl struct {
	fs   afero.Fs
	root string
}

// New creates a store rooted at root on fs.
func New(fs afero.Fs, root string) *StoreImpl {
	return &StoreImpl{fs: fs, root: filepath.Clean(root)}
}

// NewOS creates a store on the OS filesystem.
func NewOS(root string) *StoreImpl {
	return New(afero.NewOsFs(), root)
}

// SaveDocument writes the artifact as <document name><ext> and returns that
// file name, which is how other documents of the session link to it.
func (s *StoreImpl) SaveDocument(ctx context.Context, settings entity.CaptureSettings, artifact entity.Artifact) (string, error) {
	ext := utils.ExtensionByType(artifact.Mime)
	if ext == "" {
		ext = ".html"
	}
	name := artifact.DocumentName + ext
	if err := s.WriteFile(ctx, settings.SessionID, name, []byte(artifact.Content)); err != nil {
		return "", err
	}
	return name, nil
}

// WriteFile stores data as name in the session directory.
func (s *StoreImpl) WriteFile(_ context.Context, sessionID, name string, data []byte) error {
	path, err := s.Path(sessionID, name)
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}
	if err := afero.WriteFile(s.fs, path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// ReadFile returns the content of a stored file.
func (s *StoreImpl) ReadFile(sessionID, name string) ([]byte, error) {
	path, err := s.Path(sessionID, name)
	if err != nil {
		return nil, err
	}
	return afero.ReadFile(s.fs, path)
}

// Exists reports whether a session has a file called name.
func (s *StoreImpl) Exists(sessionID, name string) bool {
	path, err := s.Path(sessionID, name)
	if err != nil {
		return false
	}
	_, err = s.fs.Stat(path)
	return err == nil
}

// Path returns where name of a session is stored.
func (s *StoreImpl) Path(sessionID, name string) (string, error) {
	if !validComponent(sessionID) || !validComponent(name) {
		return "", fmt.Errorf("%w: %q/%q", ErrInvalidName, sessionID, name)
	}
	return filepath.Join(s.root, sessionID, name), nil
}

// HTTPFileSystem serves the store read-only, one directory per session.
func (s *StoreImpl) HTTPFileSystem() http.FileSystem {
	return afero.NewHttpFs(afero.NewReadOnlyFs(afero.NewBasePathFs(s.fs, s.root)))
}

func validComponent(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}
