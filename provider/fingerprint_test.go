package provider

import (
	"testing"

	"github.com/goliatone/go-bookbinder/pkg/interfaces"
)

var hashFields = []string{"title", "text", "tags"}

func TestFingerprintIgnoresUnlistedFields(t *testing.T) {
	base := interfaces.RawData{
		"title":     "A Story",
		"text":      "Once upon a time.",
		"tags":      []any{"fantasy"},
		"viewCount": float64(10),
	}
	bumped := interfaces.RawData{
		"title":     "A Story",
		"text":      "Once upon a time.",
		"tags":      []any{"fantasy"},
		"viewCount": float64(9000),
	}
	if Fingerprint(base, hashFields) != Fingerprint(bumped, hashFields) {
		t.Fatal("fingerprint changed when only an unlisted field changed")
	}
}

func TestFingerprintTracksListedFields(t *testing.T) {
	base := interfaces.RawData{"title": "A Story", "text": "v1"}
	edited := interfaces.RawData{"title": "A Story", "text": "v2"}
	if Fingerprint(base, hashFields) == Fingerprint(edited, hashFields) {
		t.Fatal("fingerprint did not change when listed field changed")
	}
}

func TestFingerprintTreatsMissingFieldAsNull(t *testing.T) {
	withNull := interfaces.RawData{"title": "A Story", "text": nil}
	without := interfaces.RawData{"title": "A Story"}
	if Fingerprint(withNull, hashFields) != Fingerprint(without, hashFields) {
		t.Fatal("explicit null and absent field should fingerprint identically")
	}
}

func TestContentHashChecker(t *testing.T) {
	checker := ContentHashChecker{Fields: hashFields}
	payload := interfaces.RawData{"title": "A Story", "text": "body"}

	required, fingerprint := checker.IsUpdateRequired("", payload)
	if !required {
		t.Fatal("expected update required with no previous fingerprint")
	}
	if fingerprint == "" {
		t.Fatal("expected a fingerprint for fresh payload")
	}

	required, again := checker.IsUpdateRequired(fingerprint, payload)
	if required {
		t.Fatal("expected no update for identical payload")
	}
	if again != fingerprint {
		t.Fatalf("fingerprint not stable: %q vs %q", again, fingerprint)
	}

	payload["text"] = "edited body"
	required, edited := checker.IsUpdateRequired(fingerprint, payload)
	if !required {
		t.Fatal("expected update after content edit")
	}
	if edited == fingerprint {
		t.Fatal("expected a new fingerprint after content edit")
	}
}

func TestTimestampChecker(t *testing.T) {
	checker := TimestampChecker{Key: "updatedAt"}

	required, fingerprint := checker.IsUpdateRequired("", interfaces.RawData{"updatedAt": "2024-05-01T00:00:00Z"})
	if !required || fingerprint != "2024-05-01T00:00:00Z" {
		t.Fatalf("expected update with fingerprint, got required=%v fingerprint=%q", required, fingerprint)
	}

	required, _ = checker.IsUpdateRequired("2024-05-01T00:00:00Z", interfaces.RawData{"updatedAt": "2024-05-01T00:00:00Z"})
	if required {
		t.Fatal("expected no update for matching timestamp")
	}

	required, _ = checker.IsUpdateRequired("2024-05-01T00:00:00Z", interfaces.RawData{"updatedAt": "2024-06-01T00:00:00Z"})
	if !required {
		t.Fatal("expected update for newer timestamp")
	}

	// Missing timestamp cannot rule out staleness.
	required, fingerprint = checker.IsUpdateRequired("2024-05-01T00:00:00Z", interfaces.RawData{})
	if !required || fingerprint != "" {
		t.Fatalf("expected update for missing timestamp, got required=%v fingerprint=%q", required, fingerprint)
	}
}
