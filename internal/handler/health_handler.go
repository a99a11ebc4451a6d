package handler

import (
	"net/http"

	"github.com/rivlclub/rivl/internal/middleware"
)

type healthResponse struct {
	Status string `json:"status"`
}

// Health はプロセスの生存確認に応答する。外部サービスへの疎通は確認しない。
// GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
