// Package workspace manages the on-disk build state for a single work: a
// source area with normalized pages and the persisted content manifest, an
// assets area with downloaded binaries, and a record file describing how the
// workspace was produced. Workspaces are rebuilt wholesale; partial updates
// are not supported.
package workspace

import (
	"path/filepath"
	"strings"
	"time"
)

const (
	sourceDirName  = "source"
	assetsDirName  = "assets"
	imagesDirName  = "images"
	recordFileName = "manifest.json"
	bookFileName   = "detail.json"

	recordSchemaVersion = "1.0"
)

// Workspace is a self-contained, addressable unit of build state.
type Workspace struct {
	ID   string
	Root string
}

// ID format is "<provider>_<content-id>"; both parts are already path-safe.
func newWorkspaceID(providerName, contentID string) string {
	return strings.TrimSpace(providerName) + "_" + strings.TrimSpace(contentID)
}

// SourceDir returns the directory holding normalized pages and the persisted
// content manifest.
func (w Workspace) SourceDir() string {
	return filepath.Join(w.Root, sourceDirName)
}

// AssetsDir returns the directory holding binary resources.
func (w Workspace) AssetsDir() string {
	return filepath.Join(w.Root, assetsDirName)
}

// ImagesDir returns the image subdirectory of the assets area.
func (w Workspace) ImagesDir() string {
	return filepath.Join(w.AssetsDir(), imagesDirName)
}

// RecordPath returns the location of the workspace record file.
func (w Workspace) RecordPath() string {
	return filepath.Join(w.Root, recordFileName)
}

// BookPath returns the location of the persisted content manifest.
func (w Workspace) BookPath() string {
	return filepath.Join(w.SourceDir(), bookFileName)
}

// PagePath resolves a manifest-relative page path ("./page-1.xhtml") inside
// the source area.
func (w Workspace) PagePath(rel string) string {
	rel = strings.TrimPrefix(strings.TrimSpace(rel), "./")
	return filepath.Join(w.SourceDir(), filepath.FromSlash(rel))
}

// RelImagePath returns the path of a downloaded image as referenced from a
// page in the source area.
func RelImagePath(filename string) string {
	return "../" + assetsDirName + "/" + imagesDirName + "/" + filename
}

// Record is the build metadata persisted next to the workspace content. The
// fingerprint is the sole cache-validity signal for rebuild decisions.
type Record struct {
	ProviderName       string         `json:"provider_name"`
	CreatedAt          time.Time      `json:"created_at"`
	SourceMetadata     map[string]any `json:"source_metadata,omitempty"`
	ContentFingerprint string         `json:"content_fingerprint"`
	SchemaVersion      string         `json:"workspace_schema_version"`
}

// NewRecord builds a record for a completed populate step.
func NewRecord(providerName, contentID, fingerprint string) Record {
	return Record{
		ProviderName:       providerName,
		CreatedAt:          time.Now().UTC(),
		SourceMetadata:     map[string]any{"id": contentID},
		ContentFingerprint: fingerprint,
		SchemaVersion:      recordSchemaVersion,
	}
}
