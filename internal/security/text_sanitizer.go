// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer はカタログの表示用テキストとリンクを検査する。
// テキストはタグを除去したプレーンテキストとして返し、エスケープは描画側で行う。
package security

import (
	"html"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer は表示用テキストとリンクのサニタイズ機能のインターフェースを定義する。
type TextSanitizer interface {
	// SanitizeText は全てのHTMLタグを除去したプレーンテキストを返す。
	// 「&」や「'」はそのまま残す。前後の空白は取り除く。
	SanitizeText(raw string) string

	// SanitizeLink はリンクとして安全な値かを判定し、正規化した値を返す。
	// 相対パスとhttpsのURLのみ許可する。空文字列は許可して空文字列を返す。
	SanitizeLink(raw string) (string, bool)
}

// textSanitizer はTextSanitizerの実装。
// bluemondayのポリシーはスレッドセーフで、生成後は読み取り専用。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
func NewTextSanitizer() TextSanitizer {
	return &textSanitizer{policy: bluemonday.StrictPolicy()}
}

// maxSanitizePasses はエンティティで隠されたタグを剥がすための最大反復回数。
const maxSanitizePasses = 4

// SanitizeText はタグを除去したテキストを返す。
// bluemondayの出力はエスケープ済みのため戻す。戻した結果にタグが現れた場合は
// 変化が無くなるまで除去を繰り返す。収束しなければエスケープ済みのまま返す。
func (s *textSanitizer) SanitizeText(raw string) string {
	text := raw
	for i := 0; i < maxSanitizePasses; i++ {
		next := html.UnescapeString(s.policy.Sanitize(text))
		if next == text {
			return strings.TrimSpace(text)
		}
		text = next
	}
	return strings.TrimSpace(s.policy.Sanitize(text))
}

// SanitizeLink はリンクを検査する。
// 属性値に埋め込まれるため、引用符・山括弧・空白を含む値は拒否する。
func (s *textSanitizer) SanitizeLink(raw string) (string, bool) {
	link := strings.TrimSpace(raw)
	if link == "" {
		return "", true
	}
	if strings.ContainsAny(link, "\"'<>` \t\r\n\\") {
		return "", false
	}

	u, err := url.Parse(link)
	if err != nil {
		return "", false
	}

	switch u.Scheme {
	case "":
		// 相対パス。プロトコル相対URL（//host）は外部ホストになるため拒否。
		if u.Host != "" || strings.HasPrefix(link, "//") {
			return "", false
		}
	case "https":
		if u.Host == "" {
			return "", false
		}
	default:
		return "", false
	}

	return link, true
}
