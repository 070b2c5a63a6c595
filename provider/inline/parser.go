package inline

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/goliatone/go-bookbinder/book"
	"github.com/goliatone/go-bookbinder/workspace"
)

// PageBreak is the directive that splits a body into pages. It survives
// parsing untouched; the mapper splits on it afterwards.
const PageBreak = "[newpage]"

var (
	imageTokenPattern = regexp.MustCompile(`\[(uploadedimage|workimage):(\d+)\]`)
	jumpPattern       = regexp.MustCompile(`\[jump:(\d+)\]`)
	chapterPattern    = regexp.MustCompile(`\[chapter:(.+?)\]`)
	rubyPattern       = regexp.MustCompile(`\[\[rb:(.+?)\s*>\s*(.+?)\]\]`)
	jumpURIPattern    = regexp.MustCompile(`\[\[jumpuri:(.+?)\s*>\s*(https?://.+?)\]\]`)
	workURIPattern    = regexp.MustCompile(`inline://works/(\d+)`)
	artworkURIPattern = regexp.MustCompile(`inline://artworks/(\d+)`)
	pageTitlePattern  = regexp.MustCompile(`<h2>(.*?)</h2>`)
)

// Parse rewrites the inline directives of a raw body into markup. Image
// tokens whose id has no downloaded file stay in the text verbatim, with a
// warning; a missing asset never aborts the build. Rules apply in a fixed
// order so chapter output is not re-matched by later rules.
func (p *Provider) Parse(raw any, imagePaths map[string]string) (string, error) {
	text, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("inline: body must be text, got %T: %w", raw, book.ErrBodyInvalid)
	}
	if text == "" {
		return "", nil
	}

	relPaths := make(map[string]string, len(imagePaths))
	for id, path := range imagePaths {
		relPaths[id] = workspace.RelImagePath(filepath.Base(path))
	}

	text = imageTokenPattern.ReplaceAllStringFunc(text, func(token string) string {
		groups := imageTokenPattern.FindStringSubmatch(token)
		kind := strings.TrimSuffix(groups[1], "image")
		id := groups[2]
		path, ok := relPaths[id]
		if !ok {
			p.logger.Warn("no downloaded file for image reference", "image_id", id)
			return token
		}
		return fmt.Sprintf(`<img alt="%s_%s" src="%s" />`, kind, id, path)
	})

	text = jumpPattern.ReplaceAllString(text, `<a href="page-${1}.xhtml">Go to page ${1}</a>`)
	text = chapterPattern.ReplaceAllString(text, `<h2>${1}</h2>`)
	text = rubyPattern.ReplaceAllString(text, `<ruby>${1}<rt>${2}</rt></ruby>`)
	text = jumpURIPattern.ReplaceAllString(text, `<a href="${2}" target="_blank" rel="noopener noreferrer">${1}</a>`)
	if p.opts.WorkURL != "" {
		text = workURIPattern.ReplaceAllString(text, strings.ReplaceAll(p.opts.WorkURL, "{id}", "${1}"))
	}
	if p.opts.ArtworkURL != "" {
		text = artworkURIPattern.ReplaceAllString(text, strings.ReplaceAll(p.opts.ArtworkURL, "{id}", "${1}"))
	}

	return strings.ReplaceAll(text, "\n", "<br />\n"), nil
}

// pageTitle extracts the first chapter heading of a page, falling back to a
// positional name.
func pageTitle(content string, number int) string {
	if m := pageTitlePattern.FindStringSubmatch(content); m != nil {
		if title := strings.TrimSpace(m[1]); title != "" {
			return title
		}
	}
	return fmt.Sprintf("Page %d", number)
}
