package inline

import (
	"strings"
	"testing"

	"github.com/goliatone/go-bookbinder/book"
	"github.com/goliatone/go-bookbinder/pkg/interfaces"
	"github.com/goliatone/go-bookbinder/provider"
)

func testProvider() *Provider {
	return New(Options{
		WorkURL:    "https://reader.example.net/works/{id}",
		ArtworkURL: "https://reader.example.net/artworks/{id}",
	}, nil)
}

func TestParseImageToken(t *testing.T) {
	p := testProvider()
	out, err := p.Parse("before [uploadedimage:7] after", map[string]string{
		"7": "/tmp/ws/assets/images/7.png",
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := `before <img alt="uploaded_7" src="../assets/images/7.png" /> after`
	if out != want {
		t.Fatalf("unexpected output:\n got %q\nwant %q", out, want)
	}
}

func TestParseKeepsUnresolvedImageTokenVerbatim(t *testing.T) {
	p := testProvider()
	out, err := p.Parse("see [workimage:99] here", map[string]string{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !strings.Contains(out, "[workimage:99]") {
		t.Fatalf("expected literal token preserved, got %q", out)
	}
}

func TestParseDirectives(t *testing.T) {
	p := testProvider()
	cases := []struct {
		name, in, want string
	}{
		{"jump", "[jump:3]", `<a href="page-3.xhtml">Go to page 3</a>`},
		{"chapter", "[chapter:The Gate]", "<h2>The Gate</h2>"},
		{"ruby", "[[rb:漢字 > かんじ]]", "<ruby>漢字<rt>かんじ</rt></ruby>"},
		{
			"jumpuri",
			"[[jumpuri:source > https://example.com/a]]",
			`<a href="https://example.com/a" target="_blank" rel="noopener noreferrer">source</a>`,
		},
		{"work uri", "inline://works/11", "https://reader.example.net/works/11"},
		{"artwork uri", "inline://artworks/12", "https://reader.example.net/artworks/12"},
		{"newline", "a\nb", "a<br />\nb"},
		{"page break survives", "a[newpage]b", "a[newpage]b"},
	}
	for _, tc := range cases {
		out, err := p.Parse(tc.in, nil)
		if err != nil {
			t.Fatalf("%s: parse: %v", tc.name, err)
		}
		if out != tc.want {
			t.Fatalf("%s:\n got %q\nwant %q", tc.name, out, tc.want)
		}
	}
}

func TestParseLeavesInternalURIsWithoutTemplates(t *testing.T) {
	p := New(Options{}, nil)
	out, err := p.Parse("inline://works/11", nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if out != "inline://works/11" {
		t.Fatalf("expected untouched uri, got %q", out)
	}
}

func TestParseRejectsNonTextBody(t *testing.T) {
	p := testProvider()
	if _, err := p.Parse(map[string]any{}, nil); err == nil {
		t.Fatal("expected error for non-text body")
	}
}

func TestImageRefs(t *testing.T) {
	p := testProvider()
	refs := p.ImageRefs(interfaces.FetchResult{Primary: interfaces.RawData{
		"images":   map[string]any{"7": "https://img.example.net/7.png"},
		"coverUrl": "https://img.example.net/cover.jpg",
	}})
	if refs.CoverID != CoverImageID {
		t.Fatalf("expected cover id, got %q", refs.CoverID)
	}
	if refs.URLsByID["7"] != "https://img.example.net/7.png" {
		t.Fatalf("missing embedded image url: %v", refs.URLsByID)
	}
	if refs.URLsByID[CoverImageID] != "https://img.example.net/cover.jpg" {
		t.Fatalf("missing cover url: %v", refs.URLsByID)
	}
}

func TestImageRefsIncludeReferencedArtworks(t *testing.T) {
	p := testProvider()
	refs := p.ImageRefs(interfaces.FetchResult{Primary: interfaces.RawData{
		"images":   map[string]any{"7": "https://img.example.net/7.png"},
		"artworks": map[string]any{"99": "https://img.example.net/99.png"},
	}})
	if refs.URLsByID["99"] != "https://img.example.net/99.png" {
		t.Fatalf("missing artwork url: %v", refs.URLsByID)
	}
}

func TestWorkImageTokenResolvesFromArtworkRefs(t *testing.T) {
	p := testProvider()
	refs := p.ImageRefs(interfaces.FetchResult{Primary: interfaces.RawData{
		"artworks": map[string]any{"99": "https://img.example.net/99.png"},
	}})
	if refs.URLsByID["99"] == "" {
		t.Fatalf("artwork reference not surfaced: %v", refs.URLsByID)
	}

	// The downloader keys local paths by the same ids the refs carry.
	out, err := p.Parse("see [workimage:99] here", map[string]string{
		"99": "/ws/assets/images/99.png",
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !strings.Contains(out, `<img alt="work_99" src="../assets/images/99.png" />`) {
		t.Fatalf("expected resolved work image, got %q", out)
	}
}

func TestUpdateRequiredWhenArtworksChange(t *testing.T) {
	p := testProvider()
	payload := workPayload()
	payload["artworks"] = map[string]any{"99": "https://img.example.net/99.png"}

	_, fingerprint := p.IsUpdateRequired("", payload)
	payload["artworks"] = map[string]any{"99": "https://img.example.net/99-r2.png"}
	required, next := p.IsUpdateRequired(fingerprint, payload)
	if !required || next == fingerprint {
		t.Fatal("expected changed artwork set to force a rebuild")
	}
}

func workPayload() interfaces.RawData {
	return interfaces.RawData{
		"id":          "42",
		"title":       "A Story",
		"userId":      "9",
		"userName":    "Author Person",
		"caption":     "intro\nline",
		"text":        "[chapter:One]\nfirst page[newpage]plain second page",
		"tags":        []any{"fantasy", "short"},
		"cdate":       "2024-03-01T10:00:00Z",
		"seriesId":    float64(5),
		"seriesTitle": "The Cycle",
		"seriesNavigation": map[string]any{
			"prevWork": map[string]any{"order": float64(2)},
		},
	}
}

func TestMapWorkSplitsPagesAndTitles(t *testing.T) {
	p := testProvider()
	work, err := p.MapWork(provider.WorkInput{
		Fetched:    interfaces.FetchResult{Primary: workPayload()},
		ImagePaths: map[string]string{CoverImageID: "/ws/assets/images/cover.jpg"},
	})
	if err != nil {
		t.Fatalf("map work: %v", err)
	}
	if len(work.Pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(work.Pages))
	}
	if work.Pages[0].Title != "One" {
		t.Fatalf("expected heading title, got %q", work.Pages[0].Title)
	}
	if work.Pages[1].Title != "Page 2" {
		t.Fatalf("expected fallback title, got %q", work.Pages[1].Title)
	}
	if work.Pages[0].Name != "page-1.xhtml" || work.Pages[1].Name != "page-2.xhtml" {
		t.Fatalf("unexpected page names %q %q", work.Pages[0].Name, work.Pages[1].Name)
	}
	if strings.Contains(work.Pages[1].Content, PageBreak) {
		t.Fatal("page break leaked into page content")
	}
}

func TestMapWorkManifest(t *testing.T) {
	p := testProvider()
	work, err := p.MapWork(provider.WorkInput{
		Fetched:    interfaces.FetchResult{Primary: workPayload()},
		ImagePaths: map[string]string{CoverImageID: "/ws/assets/images/cover.jpg"},
	})
	if err != nil {
		t.Fatalf("map work: %v", err)
	}
	m := work.Manifest
	if err := m.Validate(); err != nil {
		t.Fatalf("manifest invalid: %v", err)
	}
	if m.Core.Title != "A Story" {
		t.Fatalf("unexpected title %q", m.Core.Title)
	}
	if !strings.HasPrefix(m.Core.ID, "urn:uuid:") {
		t.Fatalf("expected urn:uuid identity, got %q", m.Core.ID)
	}
	if m.Core.CanonicalURL != "https://reader.example.net/works/42" {
		t.Fatalf("unexpected canonical url %q", m.Core.CanonicalURL)
	}
	if m.Core.Series == nil || m.Core.Series.Order != 3 {
		t.Fatalf("expected series order 3, got %+v", m.Core.Series)
	}
	if m.Core.CoverKey != "res-cover" {
		t.Fatalf("unexpected cover key %q", m.Core.CoverKey)
	}
	cover := m.Resources["res-cover"]
	if cover.Role != book.RoleCover || cover.Path != "../assets/images/cover.jpg" {
		t.Fatalf("unexpected cover resource %+v", cover)
	}
	if length, ok := m.Property("text_length"); !ok || length.(int) <= 0 {
		t.Fatalf("expected positive text length property, got %v ok=%v", length, ok)
	}
}

func TestMapWorkDeterministicIdentity(t *testing.T) {
	p := testProvider()
	first, err := p.MapWork(provider.WorkInput{Fetched: interfaces.FetchResult{Primary: workPayload()}})
	if err != nil {
		t.Fatalf("map work: %v", err)
	}
	second, err := p.MapWork(provider.WorkInput{Fetched: interfaces.FetchResult{Primary: workPayload()}})
	if err != nil {
		t.Fatalf("map work: %v", err)
	}
	if first.Manifest.Core.ID != second.Manifest.Core.ID {
		t.Fatalf("identity not stable: %q vs %q", first.Manifest.Core.ID, second.Manifest.Core.ID)
	}
}
