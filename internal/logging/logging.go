package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-bookbinder/pkg/interfaces"
)

const (
	rootModule      = "bookbinder"
	providerModule  = "bookbinder.provider"
	workspaceModule = "bookbinder.workspace"
	assetsModule    = "bookbinder.assets"
	epubModule      = "bookbinder.epub"
	compressModule  = "bookbinder.compress"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The module identifier is
// attached as a structured field so entries can be filtered predictably.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{"module": module})
}

// PipelineLogger returns the logger namespace reserved for the coordinator.
func PipelineLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, rootModule)
}

// ProviderLogger returns the logger namespace reserved for provider strategies.
func ProviderLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, providerModule)
}

// WorkspaceLogger returns the logger namespace reserved for workspace persistence.
func WorkspaceLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, workspaceModule)
}

// AssetsLogger returns the logger namespace reserved for asset resolution.
func AssetsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, assetsModule)
}

// EpubLogger returns the logger namespace reserved for component generation
// and package assembly.
func EpubLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, epubModule)
}

// CompressLogger returns the logger namespace reserved for recompression workers.
func CompressLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, compressModule)
}

// WithWorkspace enriches the logger with the build-scoped identifiers every
// pipeline entry should carry. Empty values are ignored.
func WithWorkspace(logger interfaces.Logger, workspaceID, providerName string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(workspaceID); trimmed != "" {
		fields["workspace_id"] = trimmed
	}
	if trimmed := strings.TrimSpace(providerName); trimmed != "" {
		fields["provider"] = trimmed
	}
	return WithFields(logger, fields)
}

// WithFields attaches structured fields to a logger when the implementation
// supports the optional FieldsLogger extension. Callers can pass nil or an
// empty map to skip allocation safely.
func WithFields(logger interfaces.Logger, fields map[string]any) interfaces.Logger {
	if logger == nil || len(fields) == 0 {
		return logger
	}

	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		copied := make(map[string]any, len(fields))
		for key, value := range fields {
			copied[key] = value
		}
		return fieldsLogger.WithFields(copied)
	}

	return logger
}

// NoOp returns a logger that drops every log entry. It satisfies the Logger
// contract so services can safely operate when logging is disabled.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
