package locator

import (
	"errors"
	"slices"
	"testing"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/games/42", "/games/42"},
		{"games/42", "/games/42"},
		{"/games//42/", "/games/42"},
		{"/games/./42", "/games/42"},
		{"/games/41/../42", "/games/42"},
		{"/games/42?since=3", "/games/42"},
		{"/games/a%20b", "/games/a%20b"},
	}
	for _, tt := range tests {
		got, err := Canonicalize(tt.in)
		if err != nil {
			t.Errorf("Canonicalize(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Canonicalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCanonicalizeErrors(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"", ErrEmpty},
		{"/", ErrEmpty},
		{"//evil.example.com/games", ErrAbsoluteURL},
		{"wss://evil.example.com/games", ErrAbsoluteURL},
		{"/games\\42", ErrBackslash},
		{"/games/%00", ErrNullByte},
		{"/games/%G1", ErrInvalidPercentEscape},
		{"/games/%4", ErrInvalidPercentEscape},
		{"/../games", ErrEscapesRoot},
	}
	for _, tt := range tests {
		_, err := Canonicalize(tt.in)
		if !errors.Is(err, tt.want) {
			t.Errorf("Canonicalize(%q) error = %v, want %v", tt.in, err, tt.want)
		}
	}
}

func TestSegments(t *testing.T) {
	got, err := Segments("/games/42/messages/England.France")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []string{"games", "42", "messages", "England.France"}) {
		t.Errorf("Segments() = %v", got)
	}

	got, err = Segments("/games/a%20b")
	if err != nil || got[1] != "a b" {
		t.Errorf("Segments() = %v, %v", got, err)
	}

	if _, err := Segments("/games/a%2Fb"); !errors.Is(err, ErrEncodedSlashInSegment) {
		t.Errorf("encoded slash: err = %v", err)
	}
}

func TestJoin(t *testing.T) {
	if got := Join("games", "a b", "messages"); got != "/games/a%20b/messages" {
		t.Errorf("Join() = %q", got)
	}
	segs, err := Segments(Join("games", "a/b"))
	if !errors.Is(err, ErrEncodedSlashInSegment) {
		t.Errorf("Segments(Join(a/b)) = %v, %v", segs, err)
	}
}
