package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/axiomflow/api/internal/config"
)

func TestExtractGoogleResult(t *testing.T) {
	tests := []struct {
		name string
		page string
		want string
	}{
		{
			name: "result-container class",
			page: `<html><div class="result-container">你好世界</div></html>`,
			want: "你好世界",
		},
		{
			name: "legacy t0 class",
			page: `<html><div class="t0">Bonjour</div></html>`,
			want: "Bonjour",
		},
		{
			name: "html entities unescaped",
			page: `<div class="result-container">a &amp; b &lt;c&gt;</div>`,
			want: "a & b <c>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractGoogleResult(tt.page)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestExtractGoogleResultNoMatch(t *testing.T) {
	if _, err := extractGoogleResult("<html><body>captcha</body></html>"); err == nil {
		t.Error("expected an error when no translation is present")
	}
}

func TestNormalizeGoogleLang(t *testing.T) {
	tests := map[string]string{
		"zh":      "zh-CN",
		"zh-Hans": "zh-CN",
		"zh-hant": "zh-TW",
		"":        "auto",
		"en":      "en",
		"ja":      "ja",
	}
	for in, want := range tests {
		if got := normalizeGoogleLang(in); got != want {
			t.Errorf("normalizeGoogleLang(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGoogleClientTranslate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("sl"); got != "en" {
			t.Errorf("expected sl=en, got %q", got)
		}
		if got := r.URL.Query().Get("tl"); got != "zh-CN" {
			t.Errorf("expected tl=zh-CN, got %q", got)
		}
		if got := r.URL.Query().Get("q"); got != "Hello" {
			t.Errorf("expected q=Hello, got %q", got)
		}
		w.Write([]byte(`<div class="result-container">你好</div>`))
	}))
	defer srv.Close()

	c := NewGoogleClient(&config.GoogleConfig{Endpoint: srv.URL, Timeout: 5})
	got, err := c.Translate(context.Background(), "Hello", TranslateMeta{LangIn: "en", LangOut: "zh"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "你好" {
		t.Errorf("expected 你好, got %q", got)
	}
}

func TestGoogleClientTranslateEmptyText(t *testing.T) {
	c := NewGoogleClient(&config.GoogleConfig{Endpoint: "http://unused", Timeout: 1})
	got, err := c.Translate(context.Background(), "   ", TranslateMeta{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "   " {
		t.Errorf("whitespace input should pass through, got %q", got)
	}
}

func TestGoogleClientTruncatesLongText(t *testing.T) {
	var gotLen int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLen = len(r.URL.Query().Get("q"))
		w.Write([]byte(`<div class="result-container">ok</div>`))
	}))
	defer srv.Close()

	c := NewGoogleClient(&config.GoogleConfig{Endpoint: srv.URL, Timeout: 5})
	long := strings.Repeat("a", googleMaxTextLen+500)
	if _, err := c.Translate(context.Background(), long, TranslateMeta{LangIn: "en", LangOut: "fr"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotLen != googleMaxTextLen {
		t.Errorf("expected text capped at %d, got %d", googleMaxTextLen, gotLen)
	}
}

func TestGoogleClientTruncatesOnRuneBoundary(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query().Get("q")
		w.Write([]byte(`<div class="result-container">ok</div>`))
	}))
	defer srv.Close()

	c := NewGoogleClient(&config.GoogleConfig{Endpoint: srv.URL, Timeout: 5})
	// 3-byte runes; the byte cap falls mid-rune
	long := strings.Repeat("界", googleMaxTextLen/3+200)
	if _, err := c.Translate(context.Background(), long, TranslateMeta{LangIn: "zh", LangOut: "en"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !utf8.ValidString(got) {
		t.Error("truncated text contains a split rune")
	}
	if len(got) > googleMaxTextLen {
		t.Errorf("expected text capped at %d bytes, got %d", googleMaxTextLen, len(got))
	}
	want := googleMaxTextLen - googleMaxTextLen%3
	if len(got) != want {
		t.Errorf("expected cut at %d bytes, got %d", want, len(got))
	}
}
