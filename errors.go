package bookbinder

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	providerFetchFailed  = "PROVIDER_FETCH_FAILED"
	dataProcessingFailed = "DATA_PROCESSING_FAILED"
	buildFailed          = "BUILD_FAILED"
)

// wrapFetchError marks failures talking to a content source.
func wrapFetchError(err error, providerName string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryExternal, "provider fetch failed").
		WithTextCode(providerFetchFailed).
		WithMetadata(map[string]any{"provider": providerName})
}

// wrapDataError marks failures interpreting a fetched payload.
func wrapDataError(err error, providerName string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "payload processing failed").
		WithTextCode(dataProcessingFailed).
		WithMetadata(map[string]any{"provider": providerName})
}

// wrapBuildError marks failures producing the output package.
func wrapBuildError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, "package build failed").
		WithTextCode(buildFailed)
}

// IsFetchError reports whether the error came from a content source.
func IsFetchError(err error) bool {
	return goerrors.IsCategory(err, goerrors.CategoryExternal)
}

// IsDataError reports whether the error came from payload interpretation.
func IsDataError(err error) bool {
	return goerrors.IsCategory(err, goerrors.CategoryValidation)
}

// IsBuildError reports whether the error came from package assembly.
func IsBuildError(err error) bool {
	return goerrors.IsCategory(err, goerrors.CategoryInternal)
}
