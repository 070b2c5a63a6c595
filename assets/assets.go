// Package assets resolves which downloaded binaries actually belong in the
// final package. Collection enumerates everything under the workspace image
// area; the sweep keeps only images referenced from rendered pages or
// stylesheets, plus the declared cover.
package assets

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-bookbinder/book"
	"github.com/goliatone/go-bookbinder/internal/logging"
	"github.com/goliatone/go-bookbinder/internal/mediatype"
	"github.com/goliatone/go-bookbinder/pkg/interfaces"
	"github.com/goliatone/go-bookbinder/workspace"
)

var cssURLPattern = regexp.MustCompile(`url\(\s*['"]?([^'")]+)['"]?\s*\)`)

// ImageAsset is one image destined for the package, addressed by the href it
// will carry inside the content area.
type ImageAsset struct {
	ID        string
	Href      string
	Path      string
	MediaType string
	Filename  string
	IsCover   bool
}

// Resolver performs the collect/mark/sweep pass over a populated workspace.
type Resolver struct {
	logger interfaces.Logger
}

// NewResolver builds a resolver. The logger is optional.
func NewResolver(logger interfaces.Logger) *Resolver {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Resolver{logger: logger}
}

// Resolve returns the images to package and the cover asset, if any. Images
// nothing references are dropped; the declared cover is always kept. A page
// that cannot be read is skipped with a warning rather than failing the
// build, since the generator validates pages separately.
func (r *Resolver) Resolve(ws workspace.Workspace, manifest *book.Manifest) ([]ImageAsset, *ImageAsset, error) {
	all, err := r.collect(ws)
	if err != nil {
		return nil, nil, err
	}

	cover := r.findCover(all, manifest)
	referenced := r.referencedFilenames(ws, manifest)

	final := make([]ImageAsset, 0, len(all))
	coverKept := false
	for _, asset := range all {
		if referenced[asset.Filename] {
			final = append(final, asset)
			if cover != nil && asset.Filename == cover.Filename {
				coverKept = true
			}
		}
	}
	if cover != nil && !coverKept {
		final = append(final, *cover)
	}
	return final, cover, nil
}

// collect enumerates the image area in filename order and assigns sequential
// ids, so identical workspaces always yield identical manifests.
func (r *Resolver) collect(ws workspace.Workspace) ([]ImageAsset, error) {
	entries, err := os.ReadDir(ws.ImagesDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("assets: read image dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	out := make([]ImageAsset, 0, len(names))
	for i, name := range names {
		out = append(out, ImageAsset{
			ID:        fmt.Sprintf("img_%d", i+1),
			Href:      "images/" + name,
			Path:      filepath.Join(ws.ImagesDir(), name),
			MediaType: mediatype.Detect(name),
			Filename:  name,
		})
	}
	return out, nil
}

// findCover matches the manifest's declared cover against the collected
// images by filename. A declared cover with no backing file is reported and
// dropped; the package is still built.
func (r *Resolver) findCover(all []ImageAsset, manifest *book.Manifest) *ImageAsset {
	if manifest.Core.CoverKey == "" {
		return nil
	}
	res, ok := manifest.Resources[manifest.Core.CoverKey]
	if !ok {
		return nil
	}
	coverName := path.Base(res.Path)
	for i := range all {
		if all[i].Filename == coverName {
			all[i].IsCover = true
			cover := all[i]
			return &cover
		}
	}
	r.logger.Warn("declared cover image not found", "filename", coverName)
	return nil
}

// referencedFilenames scans content pages for src attributes and stylesheet
// resources for url() references, reduced to bare filenames. Remote and
// inline data references never match local assets.
func (r *Resolver) referencedFilenames(ws workspace.Workspace, manifest *book.Manifest) map[string]bool {
	referenced := map[string]bool{}
	add := func(raw string) {
		p := strings.Trim(strings.TrimSpace(raw), `'"`)
		// Query strings and fragments never reach the filesystem.
		if i := strings.IndexAny(p, "?#"); i >= 0 {
			p = p[:i]
		}
		if p == "" || strings.HasPrefix(p, "http") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "data:") {
			return
		}
		referenced[path.Base(p)] = true
	}

	for _, ref := range manifest.Structure {
		res, ok := manifest.Resources[ref.Key]
		if !ok || res.Role != book.RoleContent {
			continue
		}
		content, err := os.ReadFile(ws.PagePath(res.Path))
		if err != nil {
			r.logger.Warn("skipping unreadable page", "path", res.Path, "error", err)
			continue
		}
		for _, src := range srcAttributes(string(content)) {
			add(src)
		}
	}

	for _, res := range manifest.Resources {
		if res.Role != book.RoleStylesheet {
			continue
		}
		content, err := os.ReadFile(ws.PagePath(res.Path))
		if err != nil {
			r.logger.Warn("skipping unreadable stylesheet", "path", res.Path, "error", err)
			continue
		}
		for _, m := range cssURLPattern.FindAllStringSubmatch(string(content), -1) {
			add(m[1])
		}
	}
	return referenced
}

// srcAttributes tokenizes markup and returns every src attribute value.
// Tokenizing tolerates the fragment-level markup pages contain.
func srcAttributes(content string) []string {
	var out []string
	z := html.NewTokenizer(strings.NewReader(content))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return out
		case html.StartTagToken, html.SelfClosingTagToken:
			_, hasAttr := z.TagName()
			for hasAttr {
				key, val, more := z.TagAttr()
				if strings.EqualFold(string(key), "src") {
					out = append(out, string(val))
				}
				hasAttr = more
			}
		}
	}
}
