package http

import (
	"net/http"

	"exam-quiz-service/internal/identity"
)

// NewRouter mounts the JSON API, the play websocket and the health check behind the
// identity middleware.
func NewRouter(api *APIHandler, ws *WSHandler, issuer *identity.Issuer) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /api/categories", api.Categories)
	mux.HandleFunc("GET /api/trends", api.Trends)
	mux.HandleFunc("GET /api/results", api.Results)
	mux.HandleFunc("POST /api/results", api.SaveResult)
	mux.HandleFunc("GET /api/dashboard", api.Dashboard)
	mux.HandleFunc("GET /api/leaderboard", api.Leaderboard)
	mux.HandleFunc("GET /api/pass-rates", api.PassRates)
	mux.HandleFunc("GET /ws/play", ws.ServeWS)
	return identity.Middleware(issuer)(mux)
}
