// Package inline implements the provider for sources that deliver a work as
// a single text body with inline directives: page breaks, chapter headings,
// ruby annotations, and image placement tokens. The payload is flat, so
// update detection hashes a fixed subset of content-bearing fields.
package inline

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-bookbinder/book"
	"github.com/goliatone/go-bookbinder/internal/identity"
	"github.com/goliatone/go-bookbinder/internal/logging"
	"github.com/goliatone/go-bookbinder/internal/mediatype"
	"github.com/goliatone/go-bookbinder/internal/textutil"
	"github.com/goliatone/go-bookbinder/pkg/interfaces"
	"github.com/goliatone/go-bookbinder/provider"
	"github.com/goliatone/go-bookbinder/workspace"
)

// ProviderName is the registry key for this provider.
const ProviderName = "inline"

// CoverImageID is the downloader key reserved for the declared cover.
const CoverImageID = "cover"

// contentHashFields is the payload subset that participates in the content
// fingerprint. Volatile counters (views, bookmarks) are deliberately absent.
var contentHashFields = []string{
	"title",
	"seriesId",
	"seriesTitle",
	"userId",
	"coverUrl",
	"tags",
	"caption",
	"text",
	"images",
	"artworks",
	"cdate",
}

// Options configures source-site URL templates. Templates use "{id}" as the
// placeholder; an empty template disables the corresponding rewrite.
type Options struct {
	// WorkURL renders the canonical public URL of a work.
	WorkURL string
	// ArtworkURL renders the public URL of a referenced artwork.
	ArtworkURL string
}

// Provider converts inline-directive payloads into the unified manifest.
type Provider struct {
	opts    Options
	checker provider.ContentHashChecker
	logger  interfaces.Logger
}

// New builds the inline provider. The logger is optional.
func New(opts Options, logger interfaces.Logger) *Provider {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Provider{
		opts:    opts,
		checker: provider.ContentHashChecker{Fields: contentHashFields},
		logger:  logger,
	}
}

func (p *Provider) Name() string { return ProviderName }

// IsUpdateRequired compares content hashes over the critical field subset.
func (p *Provider) IsUpdateRequired(previous string, fresh interfaces.RawData) (bool, string) {
	return p.checker.IsUpdateRequired(previous, fresh)
}

// ImageRefs collects the embedded image URLs, the referenced artworks, and
// the declared cover. Artwork ids back the work-image tokens, so they join
// the same download pool as uploads.
func (p *Provider) ImageRefs(fetched interfaces.FetchResult) provider.ImageRefs {
	refs := provider.ImageRefs{URLsByID: map[string]string{}}
	for _, field := range []string{"images", "artworks"} {
		for id, v := range provider.MapField(fetched.Primary, field) {
			if url, ok := v.(string); ok && url != "" {
				refs.URLsByID[id] = url
			}
		}
	}
	if cover := provider.StringField(fetched.Primary, "coverUrl"); cover != "" {
		refs.URLsByID[CoverImageID] = cover
		refs.CoverID = CoverImageID
	}
	return refs
}

// MapWork parses the body, splits it into pages on the page-break directive,
// and assembles the unified content manifest.
func (p *Provider) MapWork(in provider.WorkInput) (*provider.MappedWork, error) {
	primary := in.Fetched.Primary
	contentID := idString(primary)

	parsedBody, err := p.Parse(primary["text"], in.ImagePaths)
	if err != nil {
		return nil, err
	}
	parsedDescription, _ := p.Parse(provider.StringField(primary, "caption"), in.ImagePaths)

	pageContents := strings.Split(parsedBody, PageBreak)
	pages := make([]provider.Page, 0, len(pageContents))
	structure := make([]book.ContentRef, 0, len(pageContents))
	resources := map[string]book.Resource{}
	for i, content := range pageContents {
		name := fmt.Sprintf("page-%d.xhtml", i+1)
		key := fmt.Sprintf("res-page-%d", i+1)
		pages = append(pages, provider.Page{
			Name:    name,
			Title:   pageTitle(content, i+1),
			Content: content,
		})
		structure = append(structure, book.ContentRef{Title: pages[i].Title, Key: key})
		resources[key] = book.Resource{
			Path:      "./" + name,
			MediaType: mediatype.XHTML,
			Role:      book.RoleContent,
		}
	}

	core := book.Core{
		ID:    "urn:uuid:" + identity.BookUUID(ProviderName, contentID).String(),
		Title: provider.StringField(primary, "title"),
		Author: book.Author{
			Name:       provider.StringField(primary, "userName"),
			Identifier: provider.StringField(primary, "userId"),
		},
		Description: parsedDescription,
		Keywords:    provider.StringSlice(primary, "tags"),
	}
	if published, ok := provider.TimeField(primary, "cdate"); ok {
		core.Published = published
	}
	if p.opts.WorkURL != "" && contentID != "" {
		core.CanonicalURL = strings.ReplaceAll(p.opts.WorkURL, "{id}", contentID)
	}
	core.Series = p.mapSeries(primary)

	for id, path := range in.ImagePaths {
		base := filepath.Base(path)
		res := book.Resource{
			Path:      workspace.RelImagePath(base),
			MediaType: mediatype.Detect(base),
			Role:      book.RoleEmbedded,
		}
		key := "res-img-" + id
		if id == CoverImageID {
			key = "res-cover"
			res.Role = book.RoleCover
			core.CoverKey = key
		}
		resources[key] = res
	}

	manifest := &book.Manifest{
		Core:      core,
		Structure: structure,
		Resources: resources,
		Properties: map[string]any{
			ProviderName + ":id":          contentID,
			ProviderName + ":text_length": textutil.TextLength(parsedBody),
		},
	}
	return &provider.MappedWork{Manifest: manifest, Pages: pages}, nil
}

// mapSeries reads the series fields and derives a 1-based position. When the
// payload exposes navigation, the position is the predecessor's order plus
// one; a work with no predecessor is first.
func (p *Provider) mapSeries(primary interfaces.RawData) *book.Series {
	seriesID := provider.StringField(primary, "seriesId")
	if seriesID == "" {
		if n, ok := provider.IntField(primary, "seriesId"); ok {
			seriesID = fmt.Sprint(n)
		}
	}
	title := provider.StringField(primary, "seriesTitle")
	if seriesID == "" && title == "" {
		return nil
	}

	order := 1
	if n, ok := provider.IntField(primary, "seriesOrder"); ok && n > 0 {
		order = n
	} else if nav := provider.MapField(primary, "seriesNavigation"); nav != nil {
		if prev, ok := nav["prevWork"].(map[string]any); ok {
			if n, ok := provider.IntField(prev, "order"); ok {
				order = n + 1
			}
		}
	}
	return &book.Series{
		Name:       title,
		Identifier: seriesID,
		Order:      order,
	}
}

func idString(primary interfaces.RawData) string {
	if s := provider.StringField(primary, "id"); s != "" {
		return s
	}
	if n, ok := provider.IntField(primary, "id"); ok {
		return fmt.Sprint(n)
	}
	return ""
}
