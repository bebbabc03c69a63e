package token_test

import (
	"slices"
	"testing"

	"github.com/MrWong99/cutmark/internal/token"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"Don't!", "dont"},
		{"192.168.0.1", "19216801"},
		{"Wi-Fi", "wifi"},
		{"café", "caf"},
		{"...", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := token.Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTokenize(t *testing.T) {
	t.Parallel()

	got := token.Tokenize(`Hello, World! (it's 192.168.0.1 on "Wi-Fi")`)
	want := []string{"hello", "world", "it's", "192.168.0.1", "on", "wi-fi"}
	if !slices.Equal(got, want) {
		t.Errorf("Tokenize: got %q, want %q", got, want)
	}
}

func TestTokenize_DropsEmptyTokens(t *testing.T) {
	t.Parallel()

	if got := token.Tokenize(`... "" !!!`); len(got) != 0 {
		t.Errorf("Tokenize of pure punctuation: got %q, want no tokens", got)
	}
	if got := token.Tokenize(""); got != nil {
		t.Errorf("Tokenize(\"\") = %q, want nil", got)
	}
}

func TestClean(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"Wi-Fi,", "wi-fi"},
		{"(Hello)", "hello"},
		{"'quoted'", "quoted"},
		{"...", ""},
	}
	for _, tc := range cases {
		if got := token.Clean(tc.in); got != tc.want {
			t.Errorf("Clean(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIsStopWord(t *testing.T) {
	t.Parallel()

	if !token.IsStopWord("the") {
		t.Error(`IsStopWord("the") = false, want true`)
	}
	// Callers are expected to lowercase first.
	if token.IsStopWord("The") {
		t.Error(`IsStopWord("The") = true, want false`)
	}
	if token.IsStopWord("word") {
		t.Error(`IsStopWord("word") = true, want false`)
	}
}

func TestDigits(t *testing.T) {
	t.Parallel()

	if got := token.Digits("ab1c23-4"); got != "1234" {
		t.Errorf("Digits(%q) = %q, want %q", "ab1c23-4", got, "1234")
	}
	if !token.HasDigit("v2") || token.HasDigit("vii") {
		t.Error("HasDigit: v2 must report true, vii false")
	}
}
