// Package bookbinder turns raw work payloads from pluggable content
// providers into EPUB packages. The pipeline is fetch, update check, parse
// into a unified content manifest, resolve assets, generate components, and
// assemble the container; each stage lives in its own package and this
// facade wires them together.
package bookbinder

import (
	"github.com/goliatone/go-bookbinder/assets"
	"github.com/goliatone/go-bookbinder/book"
	"github.com/goliatone/go-bookbinder/compress"
	"github.com/goliatone/go-bookbinder/epub"
	"github.com/goliatone/go-bookbinder/internal/logging"
	"github.com/goliatone/go-bookbinder/internal/logging/gologger"
	"github.com/goliatone/go-bookbinder/pkg/interfaces"
	"github.com/goliatone/go-bookbinder/provider"
	"github.com/goliatone/go-bookbinder/provider/blocks"
	"github.com/goliatone/go-bookbinder/provider/inline"
	"github.com/goliatone/go-bookbinder/workspace"
)

// Re-exported contracts for consumers of the bookbinder package.
type (
	Manifest        = book.Manifest
	Workspace       = workspace.Workspace
	Provider        = provider.Provider
	Fetcher         = interfaces.Fetcher
	FetchResult     = interfaces.FetchResult
	RawData         = interfaces.RawData
	ImageDownloader = interfaces.ImageDownloader
	Logger          = interfaces.Logger
	LoggerProvider  = interfaces.LoggerProvider
)

// Dependencies carries the host-supplied collaborators. Fetchers map
// provider names to their transport implementations; the downloader
// materializes remote images into the workspace.
type Dependencies struct {
	Fetchers   map[string]interfaces.Fetcher
	Downloader interfaces.ImageDownloader
	Logger     interfaces.LoggerProvider
	// Providers registers additional provider strategies beyond the
	// built-in inline and blocks ones.
	Providers []provider.Provider
}

// Binder is the top-level pipeline runtime.
type Binder struct {
	config     Config
	logs       interfaces.LoggerProvider
	logger     interfaces.Logger
	registry   *provider.Registry
	workspaces *workspace.Repository
	fetchers   map[string]interfaces.Fetcher
	downloader interfaces.ImageDownloader
	resolver   *assets.Resolver
	generator  *epub.Generator
	assembler  *epub.Assembler
}

// New wires the pipeline from configuration and host dependencies.
func New(cfg Config, deps Dependencies) (*Binder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logs := deps.Logger
	if logs == nil {
		glogProvider, err := gologger.NewProvider(gologger.Config{
			Level:     cfg.Logging.Level,
			Format:    cfg.Logging.Format,
			AddSource: cfg.Logging.AddSource,
		})
		if err != nil {
			return nil, err
		}
		logs = glogProvider
	}

	workspaces, err := workspace.NewRepository(cfg.WorkspaceRoot, logging.WorkspaceLogger(logs))
	if err != nil {
		return nil, err
	}

	registry := provider.NewRegistry()
	providerLogger := logging.ProviderLogger(logs)
	builtIn := []provider.Provider{
		inline.New(inline.Options{
			WorkURL:    cfg.Providers.WorkURL,
			ArtworkURL: cfg.Providers.ArtworkURL,
		}, providerLogger),
		blocks.New(blocks.Options{
			PostURL: cfg.Providers.PostURL,
		}, providerLogger),
	}
	for _, p := range append(builtIn, deps.Providers...) {
		if err := registry.Register(p); err != nil {
			return nil, err
		}
	}

	generator, err := epub.NewGenerator(epub.GeneratorOptions{
		Language:      cfg.Builder.Language,
		InfoPageTitle: cfg.Builder.InfoPageTitle,
	}, logging.EpubLogger(logs))
	if err != nil {
		return nil, err
	}

	var compressor interfaces.Compressor
	if cfg.Compression.Enabled {
		compressor = compress.New(compress.Options{
			JPEGQuality: cfg.Compression.JPEGQuality,
			MaxWorkers:  cfg.Compression.MaxWorkers,
		}, logging.CompressLogger(logs))
	}

	return &Binder{
		config:     cfg,
		logs:       logs,
		logger:     logging.PipelineLogger(logs),
		registry:   registry,
		workspaces: workspaces,
		fetchers:   deps.Fetchers,
		downloader: deps.Downloader,
		resolver:   assets.NewResolver(logging.AssetsLogger(logs)),
		generator:  generator,
		assembler:  epub.NewAssembler(compressor, logging.EpubLogger(logs)),
	}, nil
}

// Registry exposes the provider registry for advanced integrations.
func (b *Binder) Registry() *provider.Registry {
	return b.registry
}

// Workspaces exposes the workspace repository.
func (b *Binder) Workspaces() *workspace.Repository {
	return b.workspaces
}
