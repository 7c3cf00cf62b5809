package api

import (
	_ "embed"
	"net/http"

	"gymbook/internal/metrics"
)

//go:embed web/index.html
var indexHTML []byte

// handleIndex serves the booking page. The page is static; it pulls
// machines, days, slots and the list from the JSON API.
func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	metrics.IncHTTP("index")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}
