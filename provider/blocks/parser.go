package blocks

import (
	"fmt"
	"html"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goliatone/go-bookbinder/book"
	"github.com/goliatone/go-bookbinder/workspace"
)

// Parse decodes a block-structured body and renders it as markup. A body
// whose image ids have no downloaded file renders without those images,
// with a warning per miss.
func (p *Provider) Parse(raw any, imagePaths map[string]string) (string, error) {
	body, err := decodeBody(raw)
	if err != nil {
		return "", err
	}
	return p.render(body, imagePaths), nil
}

// render walks the block list in order. Non-empty parts are separated by a
// line break, except after parts that already are one.
func (p *Provider) render(body *book.Body, imagePaths map[string]string) string {
	if body.Kind == book.BodyText {
		return strings.ReplaceAll(html.EscapeString(body.Text), "\n", "<br />")
	}

	relPaths := make(map[string]string, len(imagePaths))
	for id, path := range imagePaths {
		relPaths[id] = workspace.RelImagePath(filepath.Base(path))
	}

	var parts []string
	prev := ""
	for _, block := range body.Blocks {
		part := p.renderBlock(block, relPaths)
		if part == "" {
			continue
		}
		if prev != "" && prev != "<br />" && part != "<br />" {
			parts = append(parts, "<br />")
		}
		parts = append(parts, part)
		prev = part
	}
	return strings.Join(parts, "\n")
}

func (p *Provider) renderBlock(block book.Block, relPaths map[string]string) string {
	switch block.Type {
	case book.BlockHeader:
		return "<h2>" + html.EscapeString(block.Text) + "</h2>"
	case book.BlockParagraph:
		return renderParagraph(block)
	case book.BlockImage:
		path, ok := relPaths[block.ImageID]
		if !ok {
			p.logger.Warn("no downloaded file for image block", "image_id", block.ImageID)
			return ""
		}
		return fmt.Sprintf(`<img src="%s" alt="image_%s" />`, path, block.ImageID)
	case book.BlockFile:
		path, ok := relPaths[block.FileID]
		if !ok {
			p.logger.Warn("no downloaded file for file block", "file_id", block.FileID)
			return ""
		}
		return fmt.Sprintf(`<a href="%s">Attached file</a>`, path)
	case book.BlockURLEmbed:
		return placeholder("embedded content")
	default:
		rawType := block.RawType
		if rawType == "" {
			rawType = string(block.Type)
		}
		p.logger.Warn("unsupported content block", "block_type", rawType)
		return placeholder("type: " + html.EscapeString(rawType))
	}
}

func placeholder(detail string) string {
	return `<div style="padding: 1em; margin: 1em 0; border: 1px dashed #ccc; color: #777; font-style: italic;">` +
		`Unsupported content block (` + detail + `) cannot be displayed.` +
		`</div>`
}

// renderParagraph converts one paragraph block, splicing style and link tags
// into the escaped text. The splice works on a descending sort of insertion
// offsets so earlier insertions never shift the positions of later ones.
// Offsets address runes of the escaped text.
func renderParagraph(block book.Block) string {
	if block.Text == "" {
		return "<br />"
	}

	type insertion struct {
		offset int
		tag    string
	}
	var inserts []insertion
	for _, style := range block.Styles {
		if style.Type != "bold" {
			continue
		}
		inserts = append(inserts, insertion{style.Offset, "<b>"})
		inserts = append(inserts, insertion{style.Offset + style.Length, "</b>"})
	}
	for _, link := range block.Links {
		openTag := `<a href="` + html.EscapeString(link.URL) + `">`
		inserts = append(inserts, insertion{link.Offset, openTag})
		inserts = append(inserts, insertion{link.Offset + link.Length, "</a>"})
	}

	runes := []rune(html.EscapeString(block.Text))
	sort.SliceStable(inserts, func(i, j int) bool {
		return inserts[i].offset > inserts[j].offset
	})
	for _, ins := range inserts {
		at := ins.offset
		if at < 0 {
			at = 0
		}
		if at > len(runes) {
			at = len(runes)
		}
		tag := []rune(ins.tag)
		spliced := make([]rune, 0, len(runes)+len(tag))
		spliced = append(spliced, runes[:at]...)
		spliced = append(spliced, tag...)
		spliced = append(spliced, runes[at:]...)
		runes = spliced
	}
	return strings.ReplaceAll(string(runes), "\n", "<br />")
}
