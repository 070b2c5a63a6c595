package textutil

import "testing"

func TestStripMarkup(t *testing.T) {
	in := `<p>Hello <b>world</b></p><br />line&amp;more`
	got := StripMarkup(in)
	want := "Hello world line&more"
	if got != want {
		t.Fatalf("StripMarkup = %q, want %q", got, want)
	}
}

func TestTextLengthIgnoresTags(t *testing.T) {
	if got := TextLength("<b>abc</b> def"); got != len("abc def") {
		t.Fatalf("TextLength = %d, want %d", got, len("abc def"))
	}
}

func TestTextLengthCountsRunesNotBytes(t *testing.T) {
	if got := TextLength("日本語"); got != 3 {
		t.Fatalf("TextLength = %d, want 3", got)
	}
}

func TestSafeSegment(t *testing.T) {
	cases := map[string]string{
		`a/b\c:d`:   "a_b_c_d",
		"  .hidden.": "hidden",
		"":           "untitled",
		"plain name": "plain name",
	}
	for in, want := range cases {
		if got := SafeSegment(in); got != want {
			t.Fatalf("SafeSegment(%q) = %q, want %q", in, got, want)
		}
	}
}
