package api

import "net/http"

// dashboardHandler serves the embedded console dashboard. The page holds no
// data; everything is fetched from /api with the operator's key.
func (s *Server) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write([]byte(dashboardHTML))
}
