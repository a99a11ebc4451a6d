package client

import "strings"

// バックエンドの既定URL
const (
	ProductionBackendURL = "https://rivl.onrender.com"
	LocalBackendURL      = "http://localhost:3000"
)

// 本番バックエンドを使うホスト名の断片
var productionHostMarkers = []string{"rivl.club", "vercel.app"}

// ResolveBaseURL はバックエンドのベースURLを決定する。
// overrideが空でなければそれを優先し、次にホスト名で本番かローカルかを判定する。
func ResolveBaseURL(override, hostname string) string {
	if override = strings.TrimSpace(override); override != "" {
		return strings.TrimRight(override, "/")
	}

	host := strings.ToLower(hostname)
	for _, marker := range productionHostMarkers {
		if strings.Contains(host, marker) {
			return ProductionBackendURL
		}
	}
	return LocalBackendURL
}
