package model

// PublicConfig はフロントエンドに公開してよい設定値。
// IDプロバイダーの公開（anon）キーのみを含み、秘密鍵は決して含めない。
type PublicConfig struct {
	IdentityServiceURL       string `json:"identityServiceUrl"`
	IdentityServicePublicKey string `json:"identityServicePublicKey"`

	// 既存フロントエンド互換のキー名。値は上の2フィールドと同一。
	LegacySupabaseURL     string `json:"SUPABASE_URL"`
	LegacySupabaseAnonKey string `json:"SUPABASE_ANON_KEY"`
}

// NewPublicConfig はURLと公開キーからPublicConfigを生成する。
// 未設定の値は空文字列のまま返す。
func NewPublicConfig(url, publicKey string) PublicConfig {
	return PublicConfig{
		IdentityServiceURL:       url,
		IdentityServicePublicKey: publicKey,
		LegacySupabaseURL:        url,
		LegacySupabaseAnonKey:    publicKey,
	}
}

// IdentityURL は旧キー名のみが返された場合も考慮してIDサービスURLを返す。
func (c PublicConfig) IdentityURL() string {
	if c.IdentityServiceURL != "" {
		return c.IdentityServiceURL
	}
	return c.LegacySupabaseURL
}

// PublicKey は旧キー名のみが返された場合も考慮して公開キーを返す。
func (c PublicConfig) PublicKey() string {
	if c.IdentityServicePublicKey != "" {
		return c.IdentityServicePublicKey
	}
	return c.LegacySupabaseAnonKey
}
