package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrWalletUnavailable はウォレット拡張が無い場合に返す。
var ErrWalletUnavailable = errors.New("client: wallet not installed")

// ErrWalletCanceled はユーザーが接続を拒否した場合に返す。
var ErrWalletCanceled = errors.New("client: wallet connection canceled")

// ユーザー向けの表示文言
const (
	walletUnavailableStatus = "MetaMask non installato."
	walletCanceledStatus    = "Connessione annullata."
)

// WalletConnector はブラウザのウォレット（MetaMaskなど）を抽象化する。
type WalletConnector interface {
	// RequestAccount はアカウントへのアクセスを要求し、アドレスを返す。
	RequestAccount(ctx context.Context) (string, error)
}

// WalletStatus はウォレット接続の結果を表示用にまとめたもの。
type WalletStatus struct {
	Address string
	Status  string // モーダルに表示する文言
	Button  string // 接続ボタンの文言
}

// ShortAddress はアドレスを先頭6文字と末尾4文字に短縮する。
func ShortAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:6] + "…" + address[len(address)-4:]
}

// ConnectWallet はウォレットに接続し、表示用の状態を返す。
// 失敗した場合もStatusにはユーザー向けの文言が入る。Close後はErrClosedを返す。
func (a *App) ConnectWallet(ctx context.Context) (WalletStatus, error) {
	if a.isClosed() {
		return WalletStatus{}, ErrClosed
	}
	if a.wallet == nil {
		return WalletStatus{Status: walletUnavailableStatus}, ErrWalletUnavailable
	}

	address, err := a.wallet.RequestAccount(ctx)
	if err != nil {
		a.logger.Warn("wallet connection failed", slog.String("error", err.Error()))
		if errors.Is(err, ErrWalletUnavailable) {
			return WalletStatus{Status: walletUnavailableStatus}, err
		}
		return WalletStatus{Status: walletCanceledStatus}, fmt.Errorf("%w: %w", ErrWalletCanceled, err)
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return WalletStatus{}, ErrClosed
	}
	a.walletAddress = address
	a.mu.Unlock()

	return WalletStatus{
		Address: address,
		Status:  "Connesso: " + ShortAddress(address),
		Button:  "Wallet: " + address[:min(6, len(address))] + "…",
	}, nil
}

// WalletAddress は接続済みのアドレスを返す。未接続なら空文字列。
func (a *App) WalletAddress() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.walletAddress
}
