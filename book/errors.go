package book

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyStructure indicates a manifest without any content entries.
	ErrEmptyStructure = errors.New("book: content structure is empty")
	// ErrBodyInvalid indicates a raw body payload that failed schema validation.
	ErrBodyInvalid = errors.New("book: body payload failed schema validation")
)

// UnresolvedKeyError reports a content-structure or cover key that does not
// resolve to a usable resource.
type UnresolvedKeyError struct {
	Key  string
	Role string
}

func (e *UnresolvedKeyError) Error() string {
	if e.Role != "" {
		return fmt.Sprintf("book: resource key %q does not resolve to a %s resource", e.Key, e.Role)
	}
	return fmt.Sprintf("book: resource key %q not found", e.Key)
}
