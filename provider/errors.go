package provider

import (
	"errors"
	"fmt"
)

var (
	// ErrNameRequired indicates a provider registration without a name.
	ErrNameRequired = errors.New("provider: name is required")
)

// UnknownProviderError reports a registry lookup for a name nobody registered.
type UnknownProviderError struct {
	Name string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("provider: unknown provider %q", e.Name)
}
