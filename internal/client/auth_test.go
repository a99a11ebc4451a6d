package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/rivlclub/rivl/internal/model"
)

func TestApp_SubmitAuth_Login(t *testing.T) {
	var gotBody map[string]string
	srv := newBackend(t, model.NewPublicConfig("", ""), func(m *http.ServeMux) {
		m.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
			if ct := r.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			json.NewDecoder(r.Body).Decode(&gotBody)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"message":"Login ok","access_token":"tok","user":{"id":"u1"}}`))
		})
	})
	app := newTestApp(t, srv, Options{})

	result, err := app.SubmitAuth(context.Background(), AuthModeLogin, "a@b.it", "secret")
	if err != nil {
		t.Fatalf("SubmitAuth() error = %v", err)
	}
	if gotBody["email"] != "a@b.it" || gotBody["password"] != "secret" {
		t.Errorf("request body = %v", gotBody)
	}
	if result.Message != "Login effettuato!" {
		t.Errorf("Message = %q", result.Message)
	}
	if !result.LoggedIn() {
		t.Error("LoggedIn() = false, want true")
	}
	if app.AccessToken() != "tok" {
		t.Errorf("AccessToken = %q", app.AccessToken())
	}
}

func TestApp_SubmitAuth_Register(t *testing.T) {
	srv := newBackend(t, model.NewPublicConfig("", ""), func(m *http.ServeMux) {
		m.HandleFunc("POST /api/auth/register", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"message":"Registrazione avvenuta","user":null}`))
		})
	})
	app := newTestApp(t, srv, Options{})

	result, err := app.SubmitAuth(context.Background(), AuthModeRegister, "a@b.it", "secret")
	if err != nil {
		t.Fatalf("SubmitAuth() error = %v", err)
	}
	if result.Message != "Registrazione completata! Controlla la tua email." {
		t.Errorf("Message = %q", result.Message)
	}
	if result.LoggedIn() {
		t.Error("registration should not log in")
	}
	if app.AccessToken() != "" {
		t.Error("no token should be stored after registration")
	}
}

func TestApp_SubmitAuth_Errors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantInvalid bool
		wantMessage string
	}{
		{"server error message", http.StatusBadRequest, `{"error":"Invalid login credentials"}`, false, "Invalid login credentials"},
		{"error without message", http.StatusBadGateway, `{}`, false, "Errore durante l'operazione"},
		{"non JSON body", http.StatusInternalServerError, `<html>oops</html>`, true, ""},
		{"non JSON success", http.StatusOK, `ok`, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newBackend(t, model.NewPublicConfig("", ""), func(m *http.ServeMux) {
				m.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tt.status)
					w.Write([]byte(tt.body))
				})
			})
			app := newTestApp(t, srv, Options{})

			_, err := app.SubmitAuth(context.Background(), AuthModeLogin, "a@b.it", "x")
			if tt.wantInvalid {
				if !errors.Is(err, ErrInvalidResponse) {
					t.Errorf("error = %v, want ErrInvalidResponse", err)
				}
				return
			}

			var authErr *AuthError
			if !errors.As(err, &authErr) {
				t.Fatalf("error = %v, want *AuthError", err)
			}
			if authErr.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", authErr.Message, tt.wantMessage)
			}
			if authErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", authErr.StatusCode, tt.status)
			}
		})
	}
}

func TestApp_SubmitAuth_UnknownMode(t *testing.T) {
	app := New(Options{Logger: discardLogger()})
	if _, err := app.SubmitAuth(context.Background(), AuthMode("logout"), "a", "b"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestApp_SubmitAuth_AfterClose(t *testing.T) {
	calls := 0
	srv := newBackend(t, model.NewPublicConfig("", ""), func(m *http.ServeMux) {
		m.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.Write([]byte(`{"access_token":"tok"}`))
		})
	})
	app := newTestApp(t, srv, Options{})
	app.Close()

	if _, err := app.SubmitAuth(context.Background(), AuthModeLogin, "a@b.it", "secret"); !errors.Is(err, ErrClosed) {
		t.Errorf("error = %v, want ErrClosed", err)
	}
	if calls != 0 {
		t.Errorf("backend calls = %d, want 0", calls)
	}
}

func TestApp_SubmitAuth_ClosedDuringRequestDropsToken(t *testing.T) {
	var app *App
	srv := newBackend(t, model.NewPublicConfig("", ""), func(m *http.ServeMux) {
		m.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
			app.Close()
			w.Write([]byte(`{"access_token":"tok","user":{"id":"u1"}}`))
		})
	})
	app = newTestApp(t, srv, Options{})

	if _, err := app.SubmitAuth(context.Background(), AuthModeLogin, "a@b.it", "secret"); !errors.Is(err, ErrClosed) {
		t.Errorf("error = %v, want ErrClosed", err)
	}
	if app.AccessToken() != "" {
		t.Errorf("AccessToken = %q, want empty after Close", app.AccessToken())
	}
}
