package book

import (
	"errors"
	"testing"
)

func TestDecodeBodyArticle(t *testing.T) {
	payload := `{
		"type": "article",
		"blocks": [
			{"type": "header", "text": "Prologue"},
			{"type": "p", "text": "Hello world", "styles": [{"type": "bold", "offset": 0, "length": 5}]},
			{"type": "image", "imageId": "img-9"},
			{"type": "sticker", "text": ""}
		]
	}`
	body, err := DecodeBody([]byte(payload))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Kind != BodyArticle {
		t.Fatalf("expected article body, got %q", body.Kind)
	}
	if len(body.Blocks) != 4 {
		t.Fatalf("expected 4 blocks, got %d", len(body.Blocks))
	}
	if body.Blocks[0].Type != BlockHeader || body.Blocks[0].Text != "Prologue" {
		t.Fatalf("unexpected header block: %+v", body.Blocks[0])
	}
	if body.Blocks[1].Type != BlockParagraph || len(body.Blocks[1].Styles) != 1 {
		t.Fatalf("unexpected paragraph block: %+v", body.Blocks[1])
	}
	if body.Blocks[2].Type != BlockImage || body.Blocks[2].ImageID != "img-9" {
		t.Fatalf("unexpected image block: %+v", body.Blocks[2])
	}
	if body.Blocks[3].Type != BlockUnknown || body.Blocks[3].RawType != "sticker" {
		t.Fatalf("expected unknown discriminator to map to placeholder, got %+v", body.Blocks[3])
	}
}

func TestDecodeBodyText(t *testing.T) {
	body, err := DecodeBody([]byte(`{"type": "text", "text": "flat body"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Kind != BodyText || body.Text != "flat body" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestDecodeBodyRejectsMalformedPayload(t *testing.T) {
	cases := []string{
		`{"type": "carousel"}`,
		`{"blocks": []}`,
		`{"type": "article", "blocks": [{"text": "no discriminator"}]}`,
		`not json at all`,
	}
	for _, payload := range cases {
		if _, err := DecodeBody([]byte(payload)); !errors.Is(err, ErrBodyInvalid) {
			t.Fatalf("payload %q: expected ErrBodyInvalid, got %v", payload, err)
		}
	}
}

func TestBodyTextLength(t *testing.T) {
	body := &Body{Kind: BodyArticle, Blocks: []Block{
		{Type: BlockHeader, Text: "ab"},
		{Type: BlockParagraph, Text: "cde"},
		{Type: BlockImage, ImageID: "x"},
	}}
	if got := body.TextLength(); got != 5 {
		t.Fatalf("TextLength = %d, want 5", got)
	}
}
