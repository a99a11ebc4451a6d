package client

import (
	"context"
	"errors"
	"testing"
)

type fakeWallet struct {
	address string
	err     error
}

func (f *fakeWallet) RequestAccount(context.Context) (string, error) {
	return f.address, f.err
}

func TestShortAddress(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0x1234567890abcdef1234567890abcdef12345678", "0x1234…5678"},
		{"0x12345678", "0x12345678"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ShortAddress(tt.in); got != tt.want {
			t.Errorf("ShortAddress(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestApp_ConnectWallet(t *testing.T) {
	app := New(Options{
		Logger: discardLogger(),
		Wallet: &fakeWallet{address: "0xAbCd000000000000000000000000000000001234"},
	})

	status, err := app.ConnectWallet(context.Background())
	if err != nil {
		t.Fatalf("ConnectWallet() error = %v", err)
	}
	if status.Status != "Connesso: 0xAbCd…1234" {
		t.Errorf("Status = %q", status.Status)
	}
	if status.Button != "Wallet: 0xAbCd…" {
		t.Errorf("Button = %q", status.Button)
	}
	if app.WalletAddress() != "0xAbCd000000000000000000000000000000001234" {
		t.Errorf("WalletAddress = %q", app.WalletAddress())
	}
}

func TestApp_ConnectWallet_Unavailable(t *testing.T) {
	app := New(Options{Logger: discardLogger()})

	status, err := app.ConnectWallet(context.Background())
	if !errors.Is(err, ErrWalletUnavailable) {
		t.Fatalf("error = %v, want ErrWalletUnavailable", err)
	}
	if status.Status != "MetaMask non installato." {
		t.Errorf("Status = %q", status.Status)
	}
}

func TestApp_ConnectWallet_Canceled(t *testing.T) {
	app := New(Options{
		Logger: discardLogger(),
		Wallet: &fakeWallet{err: errors.New("user rejected the request")},
	})

	status, err := app.ConnectWallet(context.Background())
	if !errors.Is(err, ErrWalletCanceled) {
		t.Fatalf("error = %v, want ErrWalletCanceled", err)
	}
	if status.Status != "Connessione annullata." {
		t.Errorf("Status = %q", status.Status)
	}
	if app.WalletAddress() != "" {
		t.Error("address should not be stored on failure")
	}
}

type closingWallet struct {
	app *App
}

func (w *closingWallet) RequestAccount(context.Context) (string, error) {
	w.app.Close()
	return "0xAbCd000000000000000000000000000000001234", nil
}

func TestApp_ConnectWallet_AfterClose(t *testing.T) {
	wallet := &fakeWallet{address: "0xAbCd000000000000000000000000000000001234"}
	app := New(Options{Logger: discardLogger(), Wallet: wallet})
	app.Close()

	if _, err := app.ConnectWallet(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("error = %v, want ErrClosed", err)
	}
	if app.WalletAddress() != "" {
		t.Errorf("WalletAddress = %q, want empty", app.WalletAddress())
	}
}

func TestApp_ConnectWallet_ClosedWhileConnecting(t *testing.T) {
	wallet := &closingWallet{}
	app := New(Options{Logger: discardLogger(), Wallet: wallet})
	wallet.app = app

	if _, err := app.ConnectWallet(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("error = %v, want ErrClosed", err)
	}
	if app.WalletAddress() != "" {
		t.Errorf("WalletAddress = %q, want empty", app.WalletAddress())
	}
}
