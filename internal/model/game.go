package model

// GameDescriptor はカタログに掲載するゲームを表す。
// IDは一意かつ不変。ImageとPageはフロントエンド表示用。
type GameDescriptor struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Image       string `json:"image,omitempty" yaml:"image"`
	Page        string `json:"page,omitempty" yaml:"page"`
}

// MatchResult は1回のプレイ結果。一度書き込んだら変更しない。
// 未指定の項目はnilのままストアへ渡し、受け入れるかどうかはストアが決める。
type MatchResult struct {
	GameID           *string  `json:"gameId"`
	PlayerID         *string  `json:"playerId"`
	Score            *float64 `json:"score"`
	PaymentSessionID *string  `json:"paymentSessionId"`
}

// Game はゲームIDを返す。未指定なら空文字列。
func (r *MatchResult) Game() string {
	if r.GameID == nil {
		return ""
	}
	return *r.GameID
}

// Complete はゲームID、プレイヤーID、スコアがすべて指定されているかを返す。
func (r *MatchResult) Complete() bool {
	return r.GameID != nil && r.PlayerID != nil && r.Score != nil
}
