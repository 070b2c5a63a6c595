// Package book defines the provider-agnostic intermediate representation of a
// work: core metadata, an ordered content structure, and the resource
// dictionary the generator consumes. A Manifest is produced once per
// successful parse step, persisted alongside the workspace, and treated as
// immutable for the remainder of the build.
package book

import (
	"encoding/json"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Resource roles used in the manifest resource dictionary.
const (
	RoleContent    = "content"
	RoleCover      = "cover"
	RoleEmbedded   = "embedded_image"
	RoleStylesheet = "stylesheet"
)

// Author identifies the creator of a work.
type Author struct {
	Name       string `json:"name"`
	Identifier string `json:"identifier,omitempty"`
}

// Series places a work inside a larger sequence. Order is 1-based; zero means
// the provider did not expose a position.
type Series struct {
	Name       string `json:"name"`
	Identifier string `json:"identifier,omitempty"`
	Order      int    `json:"order,omitempty"`
}

// Core carries the metadata every provider must map: identity, authorship,
// description, and timestamps. Volatile provider counters (views, likes)
// never belong here; they would defeat fingerprint-based caching.
type Core struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Author       Author     `json:"author"`
	Series       *Series    `json:"series,omitempty"`
	Description  string     `json:"description,omitempty"`
	Keywords     []string   `json:"keywords,omitempty"`
	Published    time.Time  `json:"published"`
	Modified     *time.Time `json:"modified,omitempty"`
	CanonicalURL string     `json:"canonical_url,omitempty"`
	CoverKey     string     `json:"cover_key,omitempty"`
}

// Resource describes one entry of the resource dictionary. Path is relative
// to the workspace area that owns the resource kind.
type Resource struct {
	Path      string `json:"path"`
	MediaType string `json:"media_type"`
	Role      string `json:"role"`
}

// ContentRef is one ordered entry of the content structure. Key resolves
// into the resource dictionary.
type ContentRef struct {
	Title string `json:"title"`
	Key   string `json:"source"`
}

// Manifest is the unified content manifest: the single artifact the
// component generator reads. Properties carries provider-specific opaque
// values (text length, paywall flags) keyed as "<provider>:<name>".
type Manifest struct {
	Core       Core                `json:"core"`
	Structure  []ContentRef        `json:"content_structure"`
	Resources  map[string]Resource `json:"resources"`
	Properties map[string]any      `json:"provider_properties,omitempty"`
}

// Validate checks the structural invariants the generator relies on: a title,
// at least one content entry, and every structure key resolving to a content
// resource.
func (m Manifest) Validate() error {
	if err := validation.ValidateStruct(&m.Core,
		validation.Field(&m.Core.ID, validation.Required),
		validation.Field(&m.Core.Title, validation.Required),
	); err != nil {
		return err
	}
	if err := validation.Validate(m.Structure, validation.Required); err != nil {
		return ErrEmptyStructure
	}
	for _, ref := range m.Structure {
		res, ok := m.Resources[ref.Key]
		if !ok {
			return &UnresolvedKeyError{Key: ref.Key}
		}
		if res.Role != RoleContent {
			return &UnresolvedKeyError{Key: ref.Key, Role: RoleContent}
		}
	}
	if m.Core.CoverKey != "" {
		if _, ok := m.Resources[m.Core.CoverKey]; !ok {
			return &UnresolvedKeyError{Key: m.Core.CoverKey, Role: RoleCover}
		}
	}
	return nil
}

// Property returns a provider property by its suffix, e.g. "text_length"
// matches "inline:text_length" regardless of provider prefix.
func (m Manifest) Property(suffix string) (any, bool) {
	for key, value := range m.Properties {
		if key == suffix {
			return value, true
		}
		if idx := lastColon(key); idx >= 0 && key[idx+1:] == suffix {
			return value, true
		}
	}
	return nil, false
}

func lastColon(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == ':' {
			return i
		}
	}
	return -1
}

// Marshal renders the manifest as indented JSON for persistence.
func (m Manifest) Marshal() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// Unmarshal parses a persisted manifest and validates it.
func Unmarshal(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m.Resources == nil {
		m.Resources = map[string]Resource{}
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}
