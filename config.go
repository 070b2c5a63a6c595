package bookbinder

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// LoggingConfig selects the logging provider behavior.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string `json:"level"`
	// Format is one of json, console, pretty. Defaults to console.
	Format string `json:"format"`
	// AddSource includes caller locations in log records.
	AddSource bool `json:"add_source"`
}

// CompressionConfig controls image recompression during assembly.
type CompressionConfig struct {
	Enabled     bool `json:"enabled"`
	JPEGQuality int  `json:"jpeg_quality"`
	MaxWorkers  int  `json:"max_workers"`
}

// BuilderConfig controls package generation and output naming. Filename
// templates accept {title}, {title_slug}, {id}, {author_name}, {author_id},
// {series_title}, {series_slug}, {series_id}, and {series_order}; rendered
// segments are sanitized for the filesystem.
type BuilderConfig struct {
	OutputDir              string `json:"output_dir"`
	FilenameTemplate       string `json:"filename_template"`
	SeriesFilenameTemplate string `json:"series_filename_template"`
	Language               string `json:"language"`
	InfoPageTitle          string `json:"info_page_title"`
}

// ProviderConfig carries the source-site URL templates the built-in
// providers need. Empty templates disable the related rewrites.
type ProviderConfig struct {
	WorkURL    string `json:"work_url"`
	ArtworkURL string `json:"artwork_url"`
	PostURL    string `json:"post_url"`
}

// Config is the module configuration.
type Config struct {
	// WorkspaceRoot is the directory holding all build workspaces.
	WorkspaceRoot string            `json:"workspace_root"`
	Builder       BuilderConfig     `json:"builder"`
	Compression   CompressionConfig `json:"compression"`
	Logging       LoggingConfig     `json:"logging"`
	Providers     ProviderConfig    `json:"providers"`
}

// DefaultConfig returns a configuration with workable defaults for every
// field except WorkspaceRoot and Builder.OutputDir, which callers must set.
func DefaultConfig() Config {
	return Config{
		Builder: BuilderConfig{
			FilenameTemplate:       "{author_name}/{title}.epub",
			SeriesFilenameTemplate: "{author_name}/{series_title}/{series_order}_{title}.epub",
			Language:               "en",
		},
		Compression: CompressionConfig{
			Enabled:     true,
			JPEGQuality: 80,
			MaxWorkers:  4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks the fields the pipeline cannot default.
func (c Config) Validate() error {
	if err := validation.ValidateStruct(&c,
		validation.Field(&c.WorkspaceRoot, validation.Required),
	); err != nil {
		return err
	}
	return validation.ValidateStruct(&c.Builder,
		validation.Field(&c.Builder.OutputDir, validation.Required),
		validation.Field(&c.Builder.FilenameTemplate, validation.Required),
	)
}
