package bookbinder

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-bookbinder/book"
	"github.com/goliatone/go-bookbinder/internal/logging"
	"github.com/goliatone/go-bookbinder/internal/textutil"
	"github.com/goliatone/go-bookbinder/provider"
	"github.com/goliatone/go-bookbinder/workspace"
)

// Outcome classifies how a build ended.
type Outcome string

const (
	// OutcomeBuilt means a package was produced.
	OutcomeBuilt Outcome = "built"
	// OutcomeSkipped means the content was unchanged since the last build.
	OutcomeSkipped Outcome = "skipped"
)

// BuildResult describes one completed build.
type BuildResult struct {
	Outcome     Outcome
	Provider    string
	ContentID   string
	Workspace   workspace.Workspace
	OutputPath  string
	Fingerprint string
}

// BatchItem pairs one batch entry with its result or failure.
type BatchItem struct {
	ContentID string
	Result    *BuildResult
	Err       error
}

// Build runs the full pipeline for one work: fetch, update check, parse and
// populate the workspace, resolve assets, generate components, and assemble
// the package. Unchanged content short-circuits to OutcomeSkipped after the
// update check.
func (b *Binder) Build(ctx context.Context, providerName, contentID string) (*BuildResult, error) {
	p, err := b.registry.Get(providerName)
	if err != nil {
		return nil, wrapDataError(err, providerName)
	}
	fetcher, ok := b.fetchers[providerName]
	if !ok || fetcher == nil {
		return nil, wrapDataError(fmt.Errorf("bookbinder: no fetcher registered for provider %q", providerName), providerName)
	}

	ws, err := b.workspaces.Setup(providerName, contentID)
	if err != nil {
		return nil, wrapBuildError(err)
	}
	logger := logging.WithWorkspace(b.logger, ws.ID, providerName)
	logger.Info("starting build", "content_id", contentID)

	fetched, err := fetcher.FetchWork(ctx, contentID)
	if err != nil {
		return nil, wrapFetchError(err, providerName)
	}

	required, fingerprint := p.IsUpdateRequired(b.previousFingerprint(ws), fetched.Primary)
	if !required {
		logger.Info("content unchanged, skipping build")
		return &BuildResult{
			Outcome:     OutcomeSkipped,
			Provider:    providerName,
			ContentID:   contentID,
			Workspace:   ws,
			Fingerprint: fingerprint,
		}, nil
	}
	if err := b.workspaces.Reset(ws); err != nil {
		return nil, wrapBuildError(err)
	}

	imagePaths, err := b.downloadImages(ctx, ws, p, fetched)
	if err != nil {
		return nil, wrapFetchError(err, providerName)
	}

	work, err := p.MapWork(provider.WorkInput{
		Workspace:  ws,
		Fetched:    fetched,
		ImagePaths: imagePaths,
		Logger:     logger,
	})
	if err != nil {
		return nil, wrapDataError(err, providerName)
	}
	if err := work.Manifest.Validate(); err != nil {
		return nil, wrapDataError(err, providerName)
	}

	for _, page := range work.Pages {
		if err := b.workspaces.WritePage(ws, page.Name, page.Content); err != nil {
			return nil, wrapBuildError(err)
		}
	}
	if err := b.workspaces.SaveBook(ws, work.Manifest); err != nil {
		return nil, wrapBuildError(err)
	}
	if err := b.workspaces.SaveRecord(ws, workspace.NewRecord(providerName, contentID, fingerprint)); err != nil {
		return nil, wrapBuildError(err)
	}

	outputPath, err := b.assemble(ctx, ws, work.Manifest)
	if err != nil {
		return nil, err
	}

	logger.Info("build complete", "output", outputPath)
	return &BuildResult{
		Outcome:     OutcomeBuilt,
		Provider:    providerName,
		ContentID:   contentID,
		Workspace:   ws,
		OutputPath:  outputPath,
		Fingerprint: fingerprint,
	}, nil
}

// BuildBatch runs Build for each content id, isolating failures so one bad
// work never aborts the rest. Context cancellation stops the batch.
func (b *Binder) BuildBatch(ctx context.Context, providerName string, contentIDs []string) []BatchItem {
	items := make([]BatchItem, 0, len(contentIDs))
	for _, contentID := range contentIDs {
		if err := ctx.Err(); err != nil {
			items = append(items, BatchItem{ContentID: contentID, Err: err})
			continue
		}
		result, err := b.Build(ctx, providerName, contentID)
		if err != nil {
			b.logger.Error("batch item failed", "provider", providerName, "content_id", contentID, "error", err)
		}
		items = append(items, BatchItem{ContentID: contentID, Result: result, Err: err})
	}
	return items
}

// previousFingerprint loads the persisted fingerprint; any load problem
// degrades to "no previous build" so the checker forces a rebuild.
func (b *Binder) previousFingerprint(ws workspace.Workspace) string {
	record, err := b.workspaces.LoadRecord(ws)
	if err != nil {
		if !errors.Is(err, workspace.ErrRecordNotFound) {
			b.logger.Warn("unreadable workspace record, forcing rebuild", "workspace_id", ws.ID, "error", err)
		}
		return ""
	}
	return record.ContentFingerprint
}

func (b *Binder) downloadImages(ctx context.Context, ws workspace.Workspace, p provider.Provider, fetched FetchResult) (map[string]string, error) {
	refs := p.ImageRefs(fetched)
	if b.downloader == nil || len(refs.URLsByID) == 0 {
		return nil, nil
	}
	return b.downloader.Download(ctx, ws.ImagesDir(), refs.URLsByID, true)
}

// assemble resolves assets, generates components, and writes the package.
func (b *Binder) assemble(ctx context.Context, ws workspace.Workspace, manifest *book.Manifest) (string, error) {
	images, cover, err := b.resolver.Resolve(ws, manifest)
	if err != nil {
		return "", wrapBuildError(err)
	}
	components, err := b.generator.Generate(ws, manifest, images, cover)
	if err != nil {
		return "", wrapBuildError(err)
	}
	outputPath := b.outputPath(manifest)
	if err := b.assembler.Assemble(ctx, components, outputPath); err != nil {
		return "", wrapBuildError(err)
	}
	return outputPath, nil
}

// outputPath renders the configured filename template. Works inside a
// series use the series template when one is configured; every rendered
// segment is sanitized for the filesystem.
func (b *Binder) outputPath(manifest *book.Manifest) string {
	template := b.config.Builder.FilenameTemplate
	if manifest.Core.Series != nil && b.config.Builder.SeriesFilenameTemplate != "" {
		template = b.config.Builder.SeriesFilenameTemplate
	}

	core := manifest.Core
	id := ""
	if v, ok := manifest.Property("id"); ok {
		id = fmt.Sprint(v)
	}
	authorName := core.Author.Name
	if authorName == "" {
		authorName = "unknown_author"
	}
	vars := map[string]string{
		"title":       textutil.SafeSegment(core.Title),
		"title_slug":  textutil.Slug(core.Title),
		"id":          id,
		"author_name": textutil.SafeSegment(authorName),
		"author_id":   core.Author.Identifier,
	}
	if core.Series != nil {
		vars["series_title"] = textutil.SafeSegment(core.Series.Name)
		vars["series_slug"] = textutil.Slug(core.Series.Name)
		vars["series_id"] = core.Series.Identifier
		vars["series_order"] = fmt.Sprint(core.Series.Order)
	} else {
		vars["series_title"] = ""
		vars["series_slug"] = ""
		vars["series_id"] = ""
		vars["series_order"] = ""
	}

	rendered := template
	for key, value := range vars {
		rendered = strings.ReplaceAll(rendered, "{"+key+"}", value)
	}

	segments := strings.Split(rendered, "/")
	for i, segment := range segments {
		segments[i] = textutil.SafeSegment(segment)
	}
	return filepath.Join(b.config.Builder.OutputDir, filepath.Join(segments...))
}
