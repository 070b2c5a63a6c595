package interfaces

import "context"

// RawData is the opaque structured record a fetch layer hands to the
// pipeline. Providers know which keys their payloads carry; the core only
// ever reads it through provider strategies.
type RawData = map[string]any

// FetchResult bundles the primary payload used for update detection with any
// supplementary payloads a provider fetched alongside it.
type FetchResult struct {
	// Primary is the payload the update check canonicalizes.
	Primary RawData
	// Extra holds provider-specific side payloads keyed by name
	// (e.g. a detail endpoint response).
	Extra map[string]RawData
}

// Fetcher supplies raw provider data. Network access, authentication, and
// retry policy live behind this interface; the pipeline never issues
// requests itself.
type Fetcher interface {
	FetchWork(ctx context.Context, contentID string) (FetchResult, error)
}

// ImageDownloader materializes remote images into a local directory. The
// returned map contains an entry per image id that is available locally;
// missing ids mean "not yet available" and are not an error. Implementations
// may skip files that already exist when overwrite is false.
type ImageDownloader interface {
	Download(ctx context.Context, dir string, urlsByID map[string]string, overwrite bool) (map[string]string, error)
}

// Compressor recompresses an asset's raw bytes. Implementations return the
// possibly smaller payload, or skipped=true to signal a no-op. Errors never
// abort package assembly; callers fall back to the original bytes.
type Compressor interface {
	Compress(ctx context.Context, data []byte, mediaType string) (out []byte, skipped bool, err error)
}
