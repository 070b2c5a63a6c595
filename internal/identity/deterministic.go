package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must ensure key construction prevents cross-entity collisions
// (prefix by domain/type).
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// BookUUID derives the package identity for a work. Rebuilding the same
// provider/content pair always yields the same identifier, so readers treat
// a regenerated file as an update rather than a new publication.
func BookUUID(providerName, contentID string) uuid.UUID {
	provider := strings.ToLower(strings.TrimSpace(providerName))
	return UUID("bookbinder:book:" + provider + ":" + strings.TrimSpace(contentID))
}

// SeriesUUID derives a stable identifier for a series within a provider.
func SeriesUUID(providerName, seriesID string) uuid.UUID {
	provider := strings.ToLower(strings.TrimSpace(providerName))
	return UUID("bookbinder:series:" + provider + ":" + strings.TrimSpace(seriesID))
}
