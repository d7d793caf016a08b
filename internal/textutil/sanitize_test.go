package textutil

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "padding", in: "  Kid A \x00\x00", want: "Kid A"},
		{name: "inner whitespace", in: "Side\t\tOne\nTwo", want: "Side One Two"},
		{name: "nfc", in: "Café", want: "Café"},
		{name: "empty", in: "\x00 \t", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanText(tt.in); got != tt.want {
				t.Fatalf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "Intro", want: "Intro"},
		{name: "separators", in: "AC/DC: Back\\In*Black", want: "AC-DC- Back-In-Black"},
		{name: "removed", in: `Why? "Me" <you> |`, want: "Why Me you"},
		{name: "hidden", in: "...And Justice", want: "And Justice"},
		{name: "blank", in: "   ", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFileName(tt.in); got != tt.want {
				t.Fatalf("SanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeFileNameTruncatesOnRuneBoundary(t *testing.T) {
	got := SanitizeFileName(strings.Repeat("é", 150))
	if len(got) > maxFileNameBytes {
		t.Fatalf("len = %d, want <= %d", len(got), maxFileNameBytes)
	}
	if !utf8.ValidString(got) {
		t.Fatal("truncated name is not valid UTF-8")
	}
}
