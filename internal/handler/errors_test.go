package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rivlclub/rivl/internal/model"
)

func TestMapAPIErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{model.ErrCodeInvalidRequest, http.StatusBadRequest},
		{model.ErrCodeProviderRejected, http.StatusBadRequest},
		{model.ErrCodeStoreRejected, http.StatusBadRequest},
		{model.ErrCodePaymentRejected, http.StatusBadRequest},
		{model.ErrCodeInvalidSignature, http.StatusBadRequest},
		{model.ErrCodeOriginNotAllowed, http.StatusForbidden},
		{model.ErrCodeNotFound, http.StatusNotFound},
		{model.ErrCodeRequestInProgress, http.StatusConflict},
		{model.ErrCodeKeyReused, http.StatusUnprocessableEntity},
		{model.ErrCodeRateLimited, http.StatusTooManyRequests},
		{model.ErrCodeUpstreamUnavailable, http.StatusBadGateway},
		{model.ErrCodeNotConfigured, http.StatusServiceUnavailable},
		{model.ErrCodeInternal, http.StatusInternalServerError},
		{"UNKNOWN", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got := mapAPIErrorToHTTPStatus(&model.APIError{Code: tt.code})
			if got != tt.want {
				t.Errorf("mapAPIErrorToHTTPStatus(%s) = %d, want %d", tt.code, got, tt.want)
			}
		})
	}
}

func TestHandleServiceError_WrappedAPIError(t *testing.T) {
	w := httptest.NewRecorder()
	err := fmt.Errorf("submit: %w", model.NewStoreRejectedError("bad row"))

	handleServiceError(w, err)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if body := decodeBody(t, w.Body.Bytes()); body["error"] != "bad row" {
		t.Errorf("error = %v, want %q", body["error"], "bad row")
	}
}

func TestHandleServiceError_PlainErrorIsNotExposed(t *testing.T) {
	w := httptest.NewRecorder()

	handleServiceError(w, errors.New("dial tcp 10.0.0.1:5432: connection refused"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if strings.Contains(w.Body.String(), "10.0.0.1") {
		t.Errorf("internal detail leaked: %s", w.Body.String())
	}
}

func TestDecodeJSONBody(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		wantOK bool
	}{
		{"object", `{"email":"a@b.it"}`, true},
		{"empty body", ``, true},
		{"unknown fields ignored", `{"foo":1}`, true},
		{"malformed", `{"email":`, false},
		{"array", `[1,2]`, false},
		{"wrong type", `{"email":5}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			var creds model.Credentials
			ok := decodeJSONBody(w, req, &creds)

			if ok != tt.wantOK {
				t.Errorf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !tt.wantOK && w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestDecodeJSONBody_TooLarge(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/",
		strings.NewReader(`{"email":"`+strings.Repeat("a", 100)+`"}`))
	req.Body = http.MaxBytesReader(w, req.Body, 16)

	var creds model.Credentials
	if decodeJSONBody(w, req, &creds) {
		t.Fatal("expected decode to fail")
	}
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want %d", w.Code, http.StatusRequestEntityTooLarge)
	}
}
