package bookbinder

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-bookbinder/book"
	"github.com/goliatone/go-bookbinder/pkg/interfaces"
)

type fakeFetcher struct {
	payloads map[string]interfaces.RawData
	calls    int
	err      error
}

func (f *fakeFetcher) FetchWork(ctx context.Context, contentID string) (interfaces.FetchResult, error) {
	f.calls++
	if f.err != nil {
		return interfaces.FetchResult{}, f.err
	}
	payload, ok := f.payloads[contentID]
	if !ok {
		return interfaces.FetchResult{}, fmt.Errorf("no such work %q", contentID)
	}
	return interfaces.FetchResult{Primary: payload}, nil
}

type fakeDownloader struct {
	calls int
}

func (d *fakeDownloader) Download(ctx context.Context, dir string, urlsByID map[string]string, overwrite bool) (map[string]string, error) {
	d.calls++
	out := make(map[string]string, len(urlsByID))
	for id, url := range urlsByID {
		name := id + filepath.Ext(url)
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("image-bytes"), 0o644); err != nil {
			return nil, err
		}
		out[id] = path
	}
	return out, nil
}

func inlinePayload(text string) interfaces.RawData {
	return interfaces.RawData{
		"id":       "42",
		"title":    "A Story",
		"userId":   "9",
		"userName": "Author Person",
		"caption":  "intro",
		"text":     text,
		"tags":     []any{"fantasy"},
		"cdate":    "2024-03-01T10:00:00Z",
		"coverUrl": "https://img.example.net/cover.jpg",
		"images":   map[string]any{"7": "https://img.example.net/7.png"},
	}
}

func testBinder(t *testing.T, fetcher *fakeFetcher) *Binder {
	t.Helper()
	cfg := DefaultConfig()
	cfg.WorkspaceRoot = t.TempDir()
	cfg.Builder.OutputDir = t.TempDir()
	cfg.Compression.Enabled = false
	cfg.Logging.Level = "error"

	binder, err := New(cfg, Dependencies{
		Fetchers:   map[string]interfaces.Fetcher{"inline": fetcher},
		Downloader: &fakeDownloader{},
	})
	if err != nil {
		t.Fatalf("new binder: %v", err)
	}
	return binder
}

func TestBuildProducesPackage(t *testing.T) {
	fetcher := &fakeFetcher{payloads: map[string]interfaces.RawData{
		"42": inlinePayload("[chapter:One]\n[uploadedimage:7][newpage]second page"),
	}}
	binder := testBinder(t, fetcher)

	result, err := binder.Build(context.Background(), "inline", "42")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if result.Outcome != OutcomeBuilt {
		t.Fatalf("expected built outcome, got %q", result.Outcome)
	}
	if result.Fingerprint == "" {
		t.Fatal("expected a fingerprint")
	}

	zr, err := zip.OpenReader(result.OutputPath)
	if err != nil {
		t.Fatalf("output is not a readable archive: %v", err)
	}
	defer zr.Close()
	if zr.File[0].Name != "mimetype" {
		t.Fatalf("expected mimetype first, got %q", zr.File[0].Name)
	}
	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
	}
	for _, want := range []string{
		"META-INF/container.xml",
		"OEBPS/content.opf",
		"OEBPS/nav.xhtml",
		"OEBPS/text/page-1.xhtml",
		"OEBPS/text/page-2.xhtml",
		"OEBPS/images/7.png",
		"OEBPS/images/cover.jpg",
	} {
		if !names[want] {
			t.Fatalf("archive missing %s; have %v", want, names)
		}
	}

	// Workspace record and manifest persisted for the next update check.
	record, err := binder.Workspaces().LoadRecord(result.Workspace)
	if err != nil {
		t.Fatalf("load record: %v", err)
	}
	if record.ContentFingerprint != result.Fingerprint {
		t.Fatalf("fingerprint mismatch: %q vs %q", record.ContentFingerprint, result.Fingerprint)
	}
	if _, err := binder.Workspaces().LoadBook(result.Workspace); err != nil {
		t.Fatalf("load book: %v", err)
	}
}

func TestBuildSkipsUnchangedContent(t *testing.T) {
	fetcher := &fakeFetcher{payloads: map[string]interfaces.RawData{
		"42": inlinePayload("unchanged body"),
	}}
	binder := testBinder(t, fetcher)

	first, err := binder.Build(context.Background(), "inline", "42")
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	second, err := binder.Build(context.Background(), "inline", "42")
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if second.Outcome != OutcomeSkipped {
		t.Fatalf("expected skipped outcome, got %q", second.Outcome)
	}
	if second.Fingerprint != first.Fingerprint {
		t.Fatalf("fingerprint changed without content change: %q vs %q", second.Fingerprint, first.Fingerprint)
	}
}

func TestBuildRebuildsOnContentChange(t *testing.T) {
	fetcher := &fakeFetcher{payloads: map[string]interfaces.RawData{
		"42": inlinePayload("version one"),
	}}
	binder := testBinder(t, fetcher)

	if _, err := binder.Build(context.Background(), "inline", "42"); err != nil {
		t.Fatalf("first build: %v", err)
	}
	fetcher.payloads["42"] = inlinePayload("version two")
	result, err := binder.Build(context.Background(), "inline", "42")
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if result.Outcome != OutcomeBuilt {
		t.Fatalf("expected rebuild after edit, got %q", result.Outcome)
	}

	page, err := binder.Workspaces().ReadPage(result.Workspace, "./page-1.xhtml")
	if err != nil {
		t.Fatalf("read page: %v", err)
	}
	if !strings.Contains(page, "version two") {
		t.Fatalf("workspace still holds stale content: %q", page)
	}
}

func TestBuildUnknownProvider(t *testing.T) {
	binder := testBinder(t, &fakeFetcher{})
	_, err := binder.Build(context.Background(), "nope", "1")
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
	if !IsDataError(err) {
		t.Fatalf("expected data error, got %v", err)
	}
}

func TestBuildFetchFailure(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("upstream down")}
	binder := testBinder(t, fetcher)
	_, err := binder.Build(context.Background(), "inline", "42")
	if err == nil {
		t.Fatal("expected error when fetch fails")
	}
	if !IsFetchError(err) {
		t.Fatalf("expected fetch error, got %v", err)
	}
}

func TestBuildBatchIsolatesFailures(t *testing.T) {
	fetcher := &fakeFetcher{payloads: map[string]interfaces.RawData{
		"1": inlinePayload("first work"),
		"2": inlinePayload("second work"),
	}}
	// "bad" is missing from payloads and fails its fetch.
	binder := testBinder(t, fetcher)

	items := binder.BuildBatch(context.Background(), "inline", []string{"1", "bad", "2"})
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Err != nil || items[0].Result.Outcome != OutcomeBuilt {
		t.Fatalf("expected first item built, got %+v", items[0])
	}
	if items[1].Err == nil {
		t.Fatal("expected failure for missing work")
	}
	if items[2].Err != nil || items[2].Result.Outcome != OutcomeBuilt {
		t.Fatalf("expected third item built despite earlier failure, got %+v", items[2])
	}
}

func TestOutputPathTemplates(t *testing.T) {
	binder := testBinder(t, &fakeFetcher{})

	manifest := &book.Manifest{
		Core: book.Core{
			Title:  "A/Story: Two",
			Author: book.Author{Name: "Author Person"},
		},
		Properties: map[string]any{"inline:id": "42"},
	}
	path := binder.outputPath(manifest)
	if strings.Contains(path, ":") {
		t.Fatalf("expected sanitized path, got %q", path)
	}
	if filepath.Base(path) != "A_Story_ Two.epub" {
		t.Fatalf("unexpected filename %q", filepath.Base(path))
	}

	manifest.Core.Series = &book.Series{Name: "The Cycle", Identifier: "5", Order: 3}
	seriesPath := binder.outputPath(manifest)
	if !strings.Contains(seriesPath, "The Cycle") || !strings.Contains(filepath.Base(seriesPath), "3_") {
		t.Fatalf("expected series template applied, got %q", seriesPath)
	}
}

func TestNewRejectsIncompleteConfig(t *testing.T) {
	_, err := New(Config{}, Dependencies{})
	if err == nil {
		t.Fatal("expected validation error for empty config")
	}
}
