package security

import (
	"strings"
	"testing"
)

// TestSanitizeText はタグが除去されプレーンテキストになることを検証する。
func TestSanitizeText(t *testing.T) {
	sanitizer := NewTextSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"プレーンテキストはそのまま", "Click Frenzy", "Click Frenzy"},
		{"前後の空白を除去", "  Reaction Test \n", "Reaction Test"},
		{"scriptタグを除去", "Neon<script>alert(1)</script> Overload", "Neon Overload"},
		{"インラインタグを除去", "<b>Precision</b> Sniper", "Precision Sniper"},
		{"イベント属性ごと除去", `<img src=x onerror="alert(1)">Game`, "Game"},
		{"空文字列", "", ""},
		{"記号はエスケープしない", "Tom's Game & Co", "Tom's Game & Co"},
		{"エンティティは文字に戻す", "Clicca il pi&ugrave; veloce &amp; vinci", "Clicca il più veloce & vinci"},
		{"エンティティで隠したタグも除去", "&lt;script&gt;alert(1)&lt;/script&gt;Sniper", "Sniper"},
		{"比較記号は残す", "score < 10", "score < 10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.SanitizeText(tt.input)
			if got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestSanitizeText_NoTagsSurvive は出力にHTMLタグが残らないことを検証する。
func TestSanitizeText_NoTagsSurvive(t *testing.T) {
	sanitizer := NewTextSanitizer()

	for _, input := range []string{
		`<img src=x onerror="alert(1)">`,
		`&lt;img src=x onerror=&quot;alert(1)&quot;&gt;`,
		`&amp;lt;b&amp;gt;bold&amp;lt;/b&amp;gt;`,
	} {
		got := sanitizer.SanitizeText(input)
		if strings.Contains(got, "<img") || strings.Contains(got, "<b>") {
			t.Errorf("SanitizeText(%q) = %q, tag survived", input, got)
		}
	}
}

// TestSanitizeText_Idempotent はサニタイズ済みの値を再度通しても変わらないことを検証する。
func TestSanitizeText_Idempotent(t *testing.T) {
	sanitizer := NewTextSanitizer()

	for _, input := range []string{"<p>Colpisci i bersagli velocemente.</p>", "Tom's Game & Co", "a < b"} {
		first := sanitizer.SanitizeText(input)
		second := sanitizer.SanitizeText(first)
		if first != second {
			t.Errorf("not idempotent for %q: %q vs %q", input, first, second)
		}
	}
}

func TestSanitizeLink(t *testing.T) {
	sanitizer := NewTextSanitizer()

	tests := []struct {
		input  string
		wantOK bool
	}{
		{"./assets/tug.png", true},
		{"/games/tug-of-war.html", true},
		{"https://placehold.co/80x80?text=Sniper", true},
		{"", true},
		{"javascript:alert(1)", false},
		{"http://example.com/a.png", false},
		{"data:image/png;base64,AAAA", false},
		{"//evil.example/a.png", false},
		{`./a.png" onerror="alert(1)`, false},
		{"https:///nohost", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := sanitizer.SanitizeLink(tt.input)
			if ok != tt.wantOK {
				t.Errorf("SanitizeLink(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.input {
				t.Errorf("SanitizeLink(%q) = %q", tt.input, got)
			}
			if !ok && got != "" {
				t.Errorf("rejected link should return empty string, got %q", got)
			}
		})
	}
}
