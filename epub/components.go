// Package epub turns a validated content manifest plus resolved assets into
// a complete EPUB 3 package: rendered XHTML components, the OPF package
// document, the navigation document, and finally the zip container.
package epub

import (
	"github.com/goliatone/go-bookbinder/assets"
)

// PageAsset is one rendered text component, addressed by its href inside the
// content area.
type PageAsset struct {
	ID      string
	Href    string
	Title   string
	Content []byte
}

// Components is the full set of generated package parts handed to the
// assembler. TextLength is the authoritative character count, computed from
// the final rendered pages rather than trusted from provider properties.
type Components struct {
	Pages      []PageAsset
	Images     []assets.ImageAsset
	InfoPage   PageAsset
	CoverPage  *PageAsset
	Stylesheet *PageAsset
	ContentOPF []byte
	Nav        []byte
	TextLength int
}
