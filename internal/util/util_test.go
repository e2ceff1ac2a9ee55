package util

import (
	"reflect"
	"testing"
)

func TestSafeFilename(t *testing.T) {
	tests := []struct {
		name  string
		title string
		id    string
		want  string
	}{
		{"simple title", "My Great Note", "42", "my-great-note-42"},
		{"empty title falls back", "", "42", "note-42"},
		{"symbols only falls back", "!!!???", "7", "note-7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SafeFilename(tt.title, tt.id, 120); got != tt.want {
				t.Errorf("SafeFilename() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDedupeStrings(t *testing.T) {
	got := DedupeStrings([]string{"a", " b ", "a", "", "c", "b"})
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DedupeStrings() = %v, want %v", got, want)
	}
}

func TestFormatCount(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1.0k"},
		{12500, "12.5k"},
		{999999, "1000.0k"},
		{2300000, "2.3m"},
	}

	for _, tt := range tests {
		if got := FormatCount(tt.n); got != tt.want {
			t.Errorf("FormatCount(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Truncate(short) = %q", got)
	}
	if got := Truncate("a longer string", 10); got != "a longe..." {
		t.Errorf("Truncate() = %q", got)
	}
	if got := Truncate("abcdef", 3); got != "abc" {
		t.Errorf("Truncate tiny limit = %q", got)
	}
}
