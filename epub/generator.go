package epub

import (
	"embed"
	"fmt"
	"html"
	"os"
	"regexp"
	"strings"
	"text/template"
	"time"

	xhtml "golang.org/x/net/html"

	"github.com/goliatone/go-bookbinder/assets"
	"github.com/goliatone/go-bookbinder/book"
	"github.com/goliatone/go-bookbinder/internal/logging"
	"github.com/goliatone/go-bookbinder/internal/mediatype"
	"github.com/goliatone/go-bookbinder/internal/textutil"
	"github.com/goliatone/go-bookbinder/pkg/interfaces"
	"github.com/goliatone/go-bookbinder/workspace"
)

//go:embed templates/*.tmpl templates/style.css
var templatesFS embed.FS

// Pages reference assets as "../assets/images/x"; inside the package the
// image area sits directly under OEBPS, so the assets segment goes away.
var assetSrcPattern = regexp.MustCompile(`src="\.\./assets/(images/[^"]+)"`)

const (
	stylesheetID   = "css_style"
	stylesheetHref = "css/style.css"
	infoPageID     = "info_page"
	infoPageHref   = "text/info.xhtml"
	coverPageID    = "cover_page"
	coverPageHref  = "text/cover.xhtml"
)

// GeneratorOptions tune component generation.
type GeneratorOptions struct {
	// Language is the package language tag. Defaults to "en".
	Language string
	// InfoPageTitle names the metadata page in the reading order.
	// Defaults to "About".
	InfoPageTitle string
	// Now supplies the dcterms:modified timestamp. Defaults to time.Now.
	Now func() time.Time
}

// Generator renders package components from a populated workspace.
type Generator struct {
	opts   GeneratorOptions
	logger interfaces.Logger
	tmpl   *template.Template
}

// NewGenerator parses the embedded templates once. The logger is optional.
func NewGenerator(opts GeneratorOptions, logger interfaces.Logger) (*Generator, error) {
	if opts.Language == "" {
		opts.Language = "en"
	}
	if opts.InfoPageTitle == "" {
		opts.InfoPageTitle = "About"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = logging.NoOp()
	}
	tmpl, err := template.New("epub").Funcs(template.FuncMap{
		"esc": html.EscapeString,
	}).ParseFS(templatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("epub: parse templates: %w", err)
	}
	return &Generator{opts: opts, logger: logger, tmpl: tmpl}, nil
}

// Generate produces every component of the package. The manifest must be
// valid; content resources it names must exist on disk.
func (g *Generator) Generate(ws workspace.Workspace, manifest *book.Manifest, images []assets.ImageAsset, cover *assets.ImageAsset) (*Components, error) {
	stylesheet, err := g.stylesheet()
	if err != nil {
		g.logger.Warn("stylesheet unavailable, packaging without one", "error", err)
	}
	cssPath := ""
	if stylesheet != nil {
		cssPath = "../" + stylesheet.Href
	}

	pages, textLength, err := g.renderPages(ws, manifest, cssPath)
	if err != nil {
		return nil, err
	}

	coverHref := ""
	if cover != nil {
		coverHref = "../" + cover.Href
	}
	infoPage, err := g.renderInfoPage(manifest, cssPath, coverHref, textLength)
	if err != nil {
		return nil, err
	}

	var coverPage *PageAsset
	if cover != nil {
		page, err := g.renderCoverPage(coverHref)
		if err != nil {
			return nil, err
		}
		coverPage = page
	}

	opf, err := g.renderOPF(manifest, pages, images, infoPage, coverPage, cover, stylesheet)
	if err != nil {
		return nil, err
	}
	nav, err := g.renderNav(pages, infoPage, coverPage != nil)
	if err != nil {
		return nil, err
	}

	return &Components{
		Pages:      pages,
		Images:     images,
		InfoPage:   infoPage,
		CoverPage:  coverPage,
		Stylesheet: stylesheet,
		ContentOPF: opf,
		Nav:        nav,
		TextLength: textLength,
	}, nil
}

func (g *Generator) stylesheet() (*PageAsset, error) {
	content, err := templatesFS.ReadFile("templates/style.css")
	if err != nil {
		return nil, err
	}
	return &PageAsset{
		ID:      stylesheetID,
		Href:    stylesheetHref,
		Title:   "stylesheet",
		Content: content,
	}, nil
}

// renderPages wraps each content resource in a document shell and rewrites
// asset references to package-relative form. The authoritative text length is
// the sum over the rewritten fragments, before wrapping.
func (g *Generator) renderPages(ws workspace.Workspace, manifest *book.Manifest, cssPath string) ([]PageAsset, int, error) {
	pages := make([]PageAsset, 0, len(manifest.Structure))
	textLength := 0
	for i, ref := range manifest.Structure {
		res, ok := manifest.Resources[ref.Key]
		if !ok || res.Role != book.RoleContent {
			return nil, 0, fmt.Errorf("epub: content resource %q missing from manifest", ref.Key)
		}
		raw, err := os.ReadFile(ws.PagePath(res.Path))
		if err != nil {
			return nil, 0, fmt.Errorf("epub: read page %s: %w", res.Path, err)
		}
		content := assetSrcPattern.ReplaceAllString(string(raw), `src="../${1}"`)
		textLength += textutil.TextLength(content)

		rendered := []byte(content)
		if !isCompleteDocument(content) {
			rendered, err = g.render("page.xhtml.tmpl", map[string]any{
				"Title":   ref.Title,
				"Content": content,
				"CSSPath": cssPath,
			})
			if err != nil {
				return nil, 0, fmt.Errorf("epub: render page %s: %w", res.Path, err)
			}
		}
		pages = append(pages, PageAsset{
			ID:      fmt.Sprintf("page_%d", i+1),
			Href:    fmt.Sprintf("text/page-%d.xhtml", i+1),
			Title:   ref.Title,
			Content: rendered,
		})
	}
	return pages, textLength, nil
}

func (g *Generator) renderInfoPage(manifest *book.Manifest, cssPath, coverHref string, textLength int) (PageAsset, error) {
	core := manifest.Core
	data := map[string]any{
		"PageTitle":    g.opts.InfoPageTitle,
		"Title":        core.Title,
		"AuthorName":   core.Author.Name,
		"Keywords":     core.Keywords,
		"TextLength":   textLength,
		"CanonicalURL": core.CanonicalURL,
		"Description":  core.Description,
		"CSSPath":      cssPath,
		"CoverHref":    coverHref,
		"Published":    "",
		"SeriesName":   "",
		"SeriesOrder":  0,
	}
	if !core.Published.IsZero() {
		data["Published"] = core.Published.Format("2006-01-02 15:04")
	}
	if core.Series != nil {
		data["SeriesName"] = core.Series.Name
		data["SeriesOrder"] = core.Series.Order
	}
	content, err := g.render("info.xhtml.tmpl", data)
	if err != nil {
		return PageAsset{}, fmt.Errorf("epub: render info page: %w", err)
	}
	return PageAsset{
		ID:      infoPageID,
		Href:    infoPageHref,
		Title:   g.opts.InfoPageTitle,
		Content: content,
	}, nil
}

func (g *Generator) renderCoverPage(coverHref string) (*PageAsset, error) {
	content, err := g.render("cover.xhtml.tmpl", map[string]any{"CoverHref": coverHref})
	if err != nil {
		return nil, fmt.Errorf("epub: render cover page: %w", err)
	}
	return &PageAsset{
		ID:      coverPageID,
		Href:    coverPageHref,
		Title:   "Cover",
		Content: content,
	}, nil
}

type opfItem struct {
	ID         string
	Href       string
	MediaType  string
	Properties string
}

type opfSpineRef struct {
	IDRef  string
	Linear bool
}

// renderOPF emits the package document. Manifest order is nav, stylesheet,
// cover page, info page, content pages, then images; the spine runs cover
// (non-linear), info, then the content pages.
func (g *Generator) renderOPF(manifest *book.Manifest, pages []PageAsset, images []assets.ImageAsset, infoPage PageAsset, coverPage *PageAsset, cover *assets.ImageAsset, stylesheet *PageAsset) ([]byte, error) {
	items := []opfItem{{ID: "nav", Href: "nav.xhtml", MediaType: mediatype.XHTML, Properties: "nav"}}
	var spine []opfSpineRef

	if stylesheet != nil {
		items = append(items, opfItem{ID: stylesheet.ID, Href: stylesheet.Href, MediaType: mediatype.CSS})
	}
	if coverPage != nil {
		items = append(items, opfItem{ID: coverPage.ID, Href: coverPage.Href, MediaType: mediatype.XHTML})
		spine = append(spine, opfSpineRef{IDRef: coverPage.ID, Linear: false})
	}
	items = append(items, opfItem{ID: infoPage.ID, Href: infoPage.Href, MediaType: mediatype.XHTML})
	spine = append(spine, opfSpineRef{IDRef: infoPage.ID, Linear: true})
	for _, page := range pages {
		items = append(items, opfItem{ID: page.ID, Href: page.Href, MediaType: mediatype.XHTML})
		spine = append(spine, opfSpineRef{IDRef: page.ID, Linear: true})
	}
	for _, image := range images {
		item := opfItem{ID: image.ID, Href: image.Href, MediaType: image.MediaType}
		if image.IsCover {
			item.Properties = "cover-image"
		}
		items = append(items, item)
	}

	core := manifest.Core
	data := map[string]any{
		"Identifier":   core.ID,
		"Title":        core.Title,
		"Language":     g.opts.Language,
		"AuthorName":   core.Author.Name,
		"Description":  textutil.StripMarkup(core.Description),
		"Keywords":     core.Keywords,
		"CanonicalURL": core.CanonicalURL,
		"Modified":     g.opts.Now().UTC().Format("2006-01-02T15:04:05Z"),
		"Items":        items,
		"Spine":        spine,
		"Published":    "",
		"SeriesName":   "",
		"SeriesOrder":  0,
		"CoverImageID": "",
	}
	if !core.Published.IsZero() {
		data["Published"] = core.Published.UTC().Format("2006-01-02")
	}
	if core.Series != nil {
		data["SeriesName"] = core.Series.Name
		data["SeriesOrder"] = core.Series.Order
	}
	if cover != nil {
		data["CoverImageID"] = cover.ID
	}
	content, err := g.render("content.opf.tmpl", data)
	if err != nil {
		return nil, fmt.Errorf("epub: render package document: %w", err)
	}
	return content, nil
}

func (g *Generator) renderNav(pages []PageAsset, infoPage PageAsset, hasCover bool) ([]byte, error) {
	navPages := make([]map[string]string, 0, len(pages))
	for _, page := range pages {
		navPages = append(navPages, map[string]string{"Href": page.Href, "Title": page.Title})
	}
	startHref := ""
	if len(pages) > 0 {
		startHref = pages[0].Href
	}
	content, err := g.render("nav.xhtml.tmpl", map[string]any{
		"InfoHref":  infoPage.Href,
		"InfoTitle": infoPage.Title,
		"Pages":     navPages,
		"HasCover":  hasCover,
		"StartHref": startHref,
	})
	if err != nil {
		return nil, fmt.Errorf("epub: render navigation document: %w", err)
	}
	return content, nil
}

func (g *Generator) render(name string, data any) ([]byte, error) {
	var buf strings.Builder
	if err := g.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	return []byte(buf.String()), nil
}

// isCompleteDocument detects pages that already carry their own document
// shell: an html root element containing a head or body. Those are packaged
// as-is instead of being wrapped again. Tokenizing means escaped markup in
// page text never counts as a tag.
func isCompleteDocument(content string) bool {
	z := xhtml.NewTokenizer(strings.NewReader(content))
	root := false
	for {
		switch z.Next() {
		case xhtml.ErrorToken:
			return false
		case xhtml.StartTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "html":
				root = true
			case "head", "body":
				if root {
					return true
				}
			}
		}
	}
}
