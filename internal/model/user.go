package model

import "encoding/json"

// Credentials はメールアドレスとパスワードの組。
// 1リクエストの間だけ存在し、永続化もログ出力もしない。
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserRef はIDプロバイダーが返すユーザーオブジェクト。
// 中身は解釈せず、存在の有無だけを扱う。
type UserRef = json.RawMessage

// Session はログイン成功時に返すアクセストークンとユーザー。
type Session struct {
	AccessToken string
	User        UserRef
}

// Registration はユーザー登録の結果。
// メール確認が必要な場合、プロバイダーはセッションを発行しない。
type Registration struct {
	User UserRef
}

// HasUser はユーザーオブジェクトが空でないかを返す。
func HasUser(u UserRef) bool {
	if len(u) == 0 {
		return false
	}
	s := string(u)
	return s != "null" && s != "{}"
}
