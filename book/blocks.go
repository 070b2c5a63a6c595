package book

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// BlockType discriminates the closed set of body block variants. Providers
// that emit a discriminator outside this set decode to BlockUnknown; the
// parser renders a visible placeholder instead of dropping the block.
type BlockType string

const (
	BlockParagraph BlockType = "p"
	BlockHeader    BlockType = "header"
	BlockImage     BlockType = "image"
	BlockFile      BlockType = "file"
	BlockURLEmbed  BlockType = "url_embed"
	BlockUnknown   BlockType = "unknown"
)

// StyleSpan marks a styled run inside a paragraph by rune offset and length.
type StyleSpan struct {
	Type   string `json:"type"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
}

// LinkSpan marks a hyperlink run inside a paragraph by rune offset and length.
type LinkSpan struct {
	URL    string `json:"url"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
}

// Block is one unit of a block-structured body. Only the fields relevant to
// the variant are populated.
type Block struct {
	Type    BlockType   `json:"type"`
	Text    string      `json:"text,omitempty"`
	Styles  []StyleSpan `json:"styles,omitempty"`
	Links   []LinkSpan  `json:"links,omitempty"`
	ImageID string      `json:"image_id,omitempty"`
	FileID  string      `json:"file_id,omitempty"`
	EmbedID string      `json:"embed_id,omitempty"`

	// RawType preserves an unrecognized discriminator for placeholder
	// rendering and diagnostics.
	RawType string `json:"-"`
}

// Body is a raw provider body in one of two shapes: a flat text payload or
// an ordered block list.
type Body struct {
	Kind   string  `json:"type"`
	Text   string  `json:"text,omitempty"`
	Blocks []Block `json:"blocks,omitempty"`
}

// Body kinds.
const (
	BodyArticle = "article"
	BodyText    = "text"
)

// bodySchema constrains the shape of raw block payloads at the decode
// boundary. Discriminators are deliberately open-ended strings: unknown
// block types must decode to a placeholder, not fail validation.
const bodySchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["type"],
  "properties": {
    "type": {"enum": ["article", "text"]},
    "text": {"type": "string"},
    "blocks": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["type"],
        "properties": {
          "type": {"type": "string"},
          "text": {"type": "string"},
          "imageId": {"type": "string"},
          "fileId": {"type": "string"},
          "urlEmbedId": {"type": "string"},
          "styles": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["type", "offset", "length"],
              "properties": {
                "type": {"type": "string"},
                "offset": {"type": "integer", "minimum": 0},
                "length": {"type": "integer", "minimum": 0}
              }
            }
          },
          "links": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["url", "offset", "length"],
              "properties": {
                "url": {"type": "string"},
                "offset": {"type": "integer", "minimum": 0},
                "length": {"type": "integer", "minimum": 0}
              }
            }
          }
        }
      }
    }
  }
}`

var compiledBodySchema = jsonschema.MustCompileString("bookbinder://schemas/body.json", bodySchema)

// rawBlock mirrors the wire casing of block payloads.
type rawBlock struct {
	Type       string      `json:"type"`
	Text       string      `json:"text"`
	Styles     []StyleSpan `json:"styles"`
	Links      []LinkSpan  `json:"links"`
	ImageID    string      `json:"imageId"`
	FileID     string      `json:"fileId"`
	URLEmbedID string      `json:"urlEmbedId"`
}

type rawBody struct {
	Type   string     `json:"type"`
	Text   string     `json:"text"`
	Blocks []rawBlock `json:"blocks"`
}

// DecodeBody validates a raw body payload against the body schema and maps
// it into the closed block set. Unknown discriminators become BlockUnknown
// with RawType preserved.
func DecodeBody(data []byte) (*Body, error) {
	var probe any
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBodyInvalid, err)
	}
	if err := compiledBodySchema.Validate(probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBodyInvalid, err)
	}

	var raw rawBody
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBodyInvalid, err)
	}

	body := &Body{Kind: raw.Type, Text: raw.Text}
	if raw.Type == BodyText {
		return body, nil
	}

	body.Blocks = make([]Block, 0, len(raw.Blocks))
	for _, rb := range raw.Blocks {
		body.Blocks = append(body.Blocks, mapBlock(rb))
	}
	return body, nil
}

func mapBlock(rb rawBlock) Block {
	switch BlockType(rb.Type) {
	case BlockParagraph:
		return Block{Type: BlockParagraph, Text: rb.Text, Styles: rb.Styles, Links: rb.Links}
	case BlockHeader:
		return Block{Type: BlockHeader, Text: rb.Text}
	case BlockImage:
		return Block{Type: BlockImage, ImageID: rb.ImageID}
	case BlockFile:
		return Block{Type: BlockFile, FileID: rb.FileID}
	case BlockURLEmbed:
		return Block{Type: BlockURLEmbed, EmbedID: rb.URLEmbedID}
	default:
		return Block{Type: BlockUnknown, Text: rb.Text, RawType: strings.TrimSpace(rb.Type)}
	}
}

// TextLength sums the text carried by the body's blocks, used for provider
// properties before the generator computes the authoritative length.
func (b *Body) TextLength() int {
	if b == nil {
		return 0
	}
	if b.Kind == BodyText {
		return len([]rune(b.Text))
	}
	total := 0
	for _, block := range b.Blocks {
		total += len([]rune(block.Text))
	}
	return total
}
