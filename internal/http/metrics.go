package httpapi

import (
	"net/http"

	"portfolio-backend-go/internal/models"
	"portfolio-backend-go/internal/services"

	"github.com/gorilla/websocket"
)

type SystemMetricsResponse struct {
	Items   []models.MetricSample `json:"items"`
	Clients int                   `json:"clients"`
}

func (s *Server) SystemMetrics(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), 120)
	if limit > 500 {
		limit = 500
	}
	resp := SystemMetricsResponse{Items: s.Samples.Latest(limit)}
	if s.MetricsHub != nil {
		resp.Clients = s.MetricsHub.Clients()
	}
	writeData(w, http.StatusOK, resp)
}

// MetricsSocket streams samples to admins. Browsers cannot set headers on
// websocket requests, so the token comes in the query string.
func (s *Server) MetricsSocket(w http.ResponseWriter, r *http.Request) {
	if s.MetricsHub == nil {
		s.NotFound(w, r)
		return
	}
	token := r.URL.Query().Get("token")
	if token == "" {
		WriteError(w, http.StatusUnauthorized, notAuthorized)
		return
	}
	principal, err := s.Users.Authenticate(r.Context(), token)
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	if !principal.Can(services.CapViewTelemetry) {
		WriteError(w, http.StatusForbidden, "User role "+principal.Role+" is not authorized to access this route")
		return
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || s.allowOrigin(r, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.MetricsHub.Add(conn)
	defer func() {
		s.MetricsHub.Remove(conn)
		_ = conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
