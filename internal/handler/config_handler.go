package handler

import (
	"log/slog"
	"net/http"

	"github.com/rivlclub/rivl/internal/middleware"
	"github.com/rivlclub/rivl/internal/model"
)

// ConfigHandler はブラウザ向けの公開設定を返す。
type ConfigHandler struct {
	config model.PublicConfig
	logger *slog.Logger
}

// NewConfigHandler はConfigHandlerを生成する。configは起動時に確定した値で、以後変更しない。
func NewConfigHandler(config model.PublicConfig, logger *slog.Logger) *ConfigHandler {
	return &ConfigHandler{config: config, logger: logger}
}

// GetConfig は公開設定を返す。未設定の値は空文字列になり、失敗はしない。
// GET /api/config
func (h *ConfigHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("public config requested",
		slog.Bool("identity_url_set", h.config.IdentityURL() != ""),
		slog.Bool("public_key_set", h.config.PublicKey() != ""),
	)
	middleware.WriteJSON(w, http.StatusOK, h.config)
}
