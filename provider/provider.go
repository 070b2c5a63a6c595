// Package provider defines the per-source strategy contract: update
// detection, body parsing, and metadata mapping. Each content source supplies
// one Provider implementation; the pipeline selects it from a Registry keyed
// on provider name.
package provider

import (
	"github.com/goliatone/go-bookbinder/book"
	"github.com/goliatone/go-bookbinder/pkg/interfaces"
	"github.com/goliatone/go-bookbinder/workspace"
)

// Provider bundles the strategies for one content source.
type Provider interface {
	// Name is the registry key and the workspace id prefix.
	Name() string

	// IsUpdateRequired decides whether a rebuild is needed. previous is the
	// fingerprint persisted by the last successful build; callers pass the
	// empty string when no record exists or the stored value is unreadable,
	// which always forces a rebuild. The returned fingerprint is persisted
	// after a successful populate step. Pure decision function.
	IsUpdateRequired(previous string, fresh interfaces.RawData) (required bool, fingerprint string)

	// ImageRefs extracts the embedded-image and cover URLs a downloader
	// should materialize before parsing.
	ImageRefs(fetched interfaces.FetchResult) ImageRefs

	// Parse converts the provider's raw body representation into normalized
	// inline markup. Image references without a resolved local path are left
	// unsubstituted and logged, never raised.
	Parse(raw any, imagePaths map[string]string) (string, error)

	// MapWork converts a fetched payload plus parsed content into the
	// unified content manifest and the page fragments to persist.
	MapWork(in WorkInput) (*MappedWork, error)
}

// ImageRefs lists the remote images a work embeds. CoverID, when set, names
// the entry in URLsByID that holds the declared cover.
type ImageRefs struct {
	URLsByID map[string]string
	CoverID  string
}

// WorkInput carries everything a mapper needs for one work.
type WorkInput struct {
	Workspace  workspace.Workspace
	Fetched    interfaces.FetchResult
	ImagePaths map[string]string
	Logger     interfaces.Logger
}

// Page is a normalized page fragment destined for the workspace source area.
type Page struct {
	Name    string
	Title   string
	Content string
}

// MappedWork is the outcome of the parse/populate step.
type MappedWork struct {
	Manifest *book.Manifest
	Pages    []Page
}
