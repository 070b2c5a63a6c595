// Package blocks implements the provider for sources that deliver a work as
// a block-structured JSON body: an ordered list of paragraph, header, image,
// file, and embed blocks, with style and link spans addressed by offset.
// These sources expose a reliable last-modified timestamp, so update
// detection compares timestamps instead of hashing content.
package blocks

import (
	"encoding/json"
	"fmt"
	"html"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-bookbinder/book"
	"github.com/goliatone/go-bookbinder/internal/identity"
	"github.com/goliatone/go-bookbinder/internal/logging"
	"github.com/goliatone/go-bookbinder/internal/mediatype"
	"github.com/goliatone/go-bookbinder/pkg/interfaces"
	"github.com/goliatone/go-bookbinder/provider"
	"github.com/goliatone/go-bookbinder/workspace"
)

// ProviderName is the registry key for this provider.
const ProviderName = "blocks"

// CoverImageID is the downloader key reserved for the declared cover.
const CoverImageID = "cover"

// Options configures the source-site URL template. PostURL uses "{creator}"
// and "{id}" placeholders; empty disables the canonical URL.
type Options struct {
	PostURL string
}

// Provider converts block-structured payloads into the unified manifest.
type Provider struct {
	opts    Options
	checker provider.TimestampChecker
	logger  interfaces.Logger
}

// New builds the blocks provider. The logger is optional.
func New(opts Options, logger interfaces.Logger) *Provider {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Provider{
		opts:    opts,
		checker: provider.TimestampChecker{Key: "updatedDatetime"},
		logger:  logger,
	}
}

func (p *Provider) Name() string { return ProviderName }

// IsUpdateRequired compares the payload's last-modified timestamp against
// the persisted fingerprint.
func (p *Provider) IsUpdateRequired(previous string, fresh interfaces.RawData) (bool, string) {
	return p.checker.IsUpdateRequired(previous, fresh)
}

// ImageRefs collects the body's image map plus the declared cover.
func (p *Provider) ImageRefs(fetched interfaces.FetchResult) provider.ImageRefs {
	refs := provider.ImageRefs{URLsByID: map[string]string{}}
	for id, v := range provider.MapField(fetched.Primary, "imageMap") {
		if url, ok := v.(string); ok && url != "" {
			refs.URLsByID[id] = url
		}
	}
	if cover := provider.StringField(fetched.Primary, "coverImageUrl"); cover != "" {
		refs.URLsByID[CoverImageID] = cover
		refs.CoverID = CoverImageID
	}
	return refs
}

// MapWork renders the block body to a single page and assembles the unified
// content manifest.
func (p *Provider) MapWork(in provider.WorkInput) (*provider.MappedWork, error) {
	primary := in.Fetched.Primary
	contentID := provider.StringField(primary, "id")

	body, err := decodeBody(primary["body"])
	if err != nil {
		return nil, err
	}
	content := p.render(body, in.ImagePaths)

	page := provider.Page{Name: "page-1.xhtml", Title: "Body", Content: content}
	resources := map[string]book.Resource{
		"res-page-1": {
			Path:      "./page-1.xhtml",
			MediaType: mediatype.XHTML,
			Role:      book.RoleContent,
		},
	}

	user := provider.MapField(primary, "user")
	core := book.Core{
		ID:    "urn:uuid:" + identity.BookUUID(ProviderName, contentID).String(),
		Title: provider.StringField(primary, "title"),
		Author: book.Author{
			Name:       provider.StringField(user, "name"),
			Identifier: provider.StringField(user, "userId"),
		},
		Description: escapeExcerpt(provider.StringField(primary, "excerpt")),
		Keywords:    provider.StringSlice(primary, "tags"),
	}
	if published, ok := provider.TimeField(primary, "publishedDatetime"); ok {
		core.Published = published
	}
	if modified, ok := provider.TimeField(primary, "updatedDatetime"); ok {
		core.Modified = &modified
	}
	creatorID := provider.StringField(primary, "creatorId")
	if p.opts.PostURL != "" && contentID != "" {
		url := strings.ReplaceAll(p.opts.PostURL, "{creator}", creatorID)
		core.CanonicalURL = strings.ReplaceAll(url, "{id}", contentID)
	}

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

	properties := map[string]any{
		ProviderName + ":id":          contentID,
		ProviderName + ":creator_id":  creatorID,
		ProviderName + ":text_length": body.TextLength(),
	}
	if fee, ok := provider.IntField(primary, "feeRequired"); ok {
		properties[ProviderName+":fee_required"] = fee
	}

	manifest := &book.Manifest{
		Core:       core,
		Structure:  []book.ContentRef{{Title: page.Title, Key: "res-page-1"}},
		Resources:  resources,
		Properties: properties,
	}
	return &provider.MappedWork{Manifest: manifest, Pages: []provider.Page{page}}, nil
}

// escapeExcerpt renders the plain-text excerpt as markup, one line break per
// newline.
func escapeExcerpt(excerpt string) string {
	if excerpt == "" {
		return ""
	}
	return strings.ReplaceAll(html.EscapeString(excerpt), "\n", "<br />")
}

// decodeBody accepts the shapes a body may arrive in: already decoded, as a
// raw JSON object, or as bytes.
func decodeBody(raw any) (*book.Body, error) {
	switch v := raw.(type) {
	case *book.Body:
		return v, nil
	case []byte:
		return book.DecodeBody(v)
	case map[string]any:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", book.ErrBodyInvalid, err)
		}
		return book.DecodeBody(data)
	default:
		return nil, fmt.Errorf("blocks: body must be a block document, got %T: %w", raw, book.ErrBodyInvalid)
	}
}
