package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goliatone/go-bookbinder/book"
	"github.com/goliatone/go-bookbinder/internal/logging"
	"github.com/goliatone/go-bookbinder/pkg/interfaces"
)

// Repository persists workspaces on the local filesystem.
type Repository struct {
	root   string
	logger interfaces.Logger
}

// NewRepository returns a filesystem-backed workspace repository rooted at
// dir. The logger is optional.
func NewRepository(dir string, logger interfaces.Logger) (*Repository, error) {
	if dir == "" {
		return nil, ErrRootRequired
	}
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Repository{root: dir, logger: logger}, nil
}

// Path computes the workspace root for a provider/content pair without
// creating anything.
func (r *Repository) Path(providerName, contentID string) string {
	return filepath.Join(r.root, newWorkspaceID(providerName, contentID))
}

// Setup prepares the workspace directory layout, creating the source and
// assets/images areas when absent. Existing content is left untouched so the
// update check can inspect the previous record.
func (r *Repository) Setup(providerName, contentID string) (Workspace, error) {
	ws := Workspace{
		ID:   newWorkspaceID(providerName, contentID),
		Root: r.Path(providerName, contentID),
	}
	for _, dir := range []string{ws.SourceDir(), ws.ImagesDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Workspace{}, fmt.Errorf("workspace: create %s: %w", dir, err)
		}
	}
	r.logger.Debug("workspace ready", "workspace_id", ws.ID, "root", ws.Root)
	return ws, nil
}

// Reset wholesale-clears the source and assets areas ahead of a rebuild.
// The record file survives until the new record is persisted.
func (r *Repository) Reset(ws Workspace) error {
	for _, dir := range []string{ws.SourceDir(), ws.AssetsDir()} {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("workspace: clear %s: %w", dir, err)
		}
	}
	for _, dir := range []string{ws.SourceDir(), ws.ImagesDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("workspace: recreate %s: %w", dir, err)
		}
	}
	r.logger.Debug("workspace cleared", "workspace_id", ws.ID)
	return nil
}

// SaveRecord persists the workspace record.
func (r *Repository) SaveRecord(ws Workspace, record Record) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("workspace: encode record: %w", err)
	}
	if err := os.WriteFile(ws.RecordPath(), data, 0o644); err != nil {
		return fmt.Errorf("workspace: write record: %w", err)
	}
	return nil
}

// LoadRecord reads the workspace record. A missing file maps to
// ErrRecordNotFound so callers can treat it as "rebuild required".
func (r *Repository) LoadRecord(ws Workspace) (*Record, error) {
	data, err := os.ReadFile(ws.RecordPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("workspace: read record: %w", err)
	}
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("workspace: decode record: %w", err)
	}
	return &record, nil
}

// SaveBook persists the unified content manifest into the source area.
func (r *Repository) SaveBook(ws Workspace, manifest *book.Manifest) error {
	data, err := manifest.Marshal()
	if err != nil {
		return fmt.Errorf("workspace: encode content manifest: %w", err)
	}
	if err := os.WriteFile(ws.BookPath(), data, 0o644); err != nil {
		return fmt.Errorf("workspace: write content manifest: %w", err)
	}
	return nil
}

// LoadBook reads and validates the persisted content manifest.
func (r *Repository) LoadBook(ws Workspace) (*book.Manifest, error) {
	data, err := os.ReadFile(ws.BookPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("workspace: read content manifest: %w", err)
	}
	manifest, err := book.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("workspace: decode content manifest: %w", err)
	}
	return manifest, nil
}

// WritePage stores a normalized page fragment under the source area.
func (r *Repository) WritePage(ws Workspace, name, content string) error {
	path := filepath.Join(ws.SourceDir(), filepath.FromSlash(name))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("workspace: write page %s: %w", name, err)
	}
	return nil
}

// ReadPage loads a page fragment by its manifest-relative path.
func (r *Repository) ReadPage(ws Workspace, rel string) (string, error) {
	data, err := os.ReadFile(ws.PagePath(rel))
	if err != nil {
		return "", fmt.Errorf("workspace: read page %s: %w", rel, err)
	}
	return string(data), nil
}
