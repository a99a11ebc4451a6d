package model

// CheckoutRequest はエントリー料金のチェックアウト作成リクエスト。
type CheckoutRequest struct {
	GameID      string `json:"gameId"`
	AmountCents int64  `json:"amountCents"`
	PlayerID    string `json:"playerId"`
}

// CheckoutSession は決済プロセッサが発行したチェックアウトセッション。
// ライフサイクルと有効期限はプロセッサ側が管理する。
type CheckoutSession struct {
	ID          string
	RedirectURL string
}

// PaymentRecord はWebhookで受け取った決済完了の記録。
// セッションIDをキーとしてupsertする。
type PaymentRecord struct {
	SessionID   string
	GameID      string
	PlayerID    string
	AmountCents int64
	Currency    string
	Status      string
}
