package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-bookbinder/book"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	return repo
}

func TestNewRepositoryRequiresRoot(t *testing.T) {
	if _, err := NewRepository("", nil); !errors.Is(err, ErrRootRequired) {
		t.Fatalf("expected ErrRootRequired, got %v", err)
	}
}

func TestSetupCreatesLayout(t *testing.T) {
	repo := newTestRepo(t)
	ws, err := repo.Setup("inline", "42")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if ws.ID != "inline_42" {
		t.Fatalf("expected workspace id inline_42, got %q", ws.ID)
	}
	for _, dir := range []string{ws.SourceDir(), ws.ImagesDir()} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s, err=%v", dir, err)
		}
	}
}

func TestRecordRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ws, _ := repo.Setup("inline", "42")

	if _, err := repo.LoadRecord(ws); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound before save, got %v", err)
	}

	record := NewRecord("inline", "42", "abc123")
	if err := repo.SaveRecord(ws, record); err != nil {
		t.Fatalf("save record: %v", err)
	}
	loaded, err := repo.LoadRecord(ws)
	if err != nil {
		t.Fatalf("load record: %v", err)
	}
	if loaded.ContentFingerprint != "abc123" {
		t.Fatalf("expected fingerprint abc123, got %q", loaded.ContentFingerprint)
	}
	if loaded.ProviderName != "inline" {
		t.Fatalf("expected provider inline, got %q", loaded.ProviderName)
	}
}

func TestResetClearsSourceAndAssets(t *testing.T) {
	repo := newTestRepo(t)
	ws, _ := repo.Setup("inline", "42")

	if err := repo.WritePage(ws, "page-1.xhtml", "<p>old</p>"); err != nil {
		t.Fatalf("write page: %v", err)
	}
	stale := filepath.Join(ws.ImagesDir(), "old.png")
	if err := os.WriteFile(stale, []byte("png"), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	if err := repo.SaveRecord(ws, NewRecord("inline", "42", "keep")); err != nil {
		t.Fatalf("save record: %v", err)
	}

	if err := repo.Reset(ws); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, err := os.Stat(ws.PagePath("./page-1.xhtml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected page cleared, got %v", err)
	}
	if _, err := os.Stat(stale); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected image cleared, got %v", err)
	}
	// The record survives reset; only a new record replaces it.
	if _, err := repo.LoadRecord(ws); err != nil {
		t.Fatalf("expected record to survive reset, got %v", err)
	}
	if _, err := os.Stat(ws.ImagesDir()); err != nil {
		t.Fatalf("expected images dir recreated, got %v", err)
	}
}

func TestBookRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ws, _ := repo.Setup("inline", "42")

	manifest := &book.Manifest{
		Core: book.Core{
			ID:        "urn:uuid:00000000-0000-4000-8000-000000000001",
			Title:     "Roundtrip",
			Published: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		Structure: []book.ContentRef{{Title: "Page 1", Key: "res-page-1"}},
		Resources: map[string]book.Resource{
			"res-page-1": {Path: "./page-1.xhtml", MediaType: "application/xhtml+xml", Role: book.RoleContent},
		},
	}
	if err := repo.SaveBook(ws, manifest); err != nil {
		t.Fatalf("save book: %v", err)
	}
	loaded, err := repo.LoadBook(ws)
	if err != nil {
		t.Fatalf("load book: %v", err)
	}
	if loaded.Core.Title != "Roundtrip" {
		t.Fatalf("expected title Roundtrip, got %q", loaded.Core.Title)
	}
}

func TestPageRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ws, _ := repo.Setup("inline", "42")

	if err := repo.WritePage(ws, "page-1.xhtml", "<p>hello</p>"); err != nil {
		t.Fatalf("write page: %v", err)
	}
	content, err := repo.ReadPage(ws, "./page-1.xhtml")
	if err != nil {
		t.Fatalf("read page: %v", err)
	}
	if content != "<p>hello</p>" {
		t.Fatalf("unexpected page content %q", content)
	}
}
