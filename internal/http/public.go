package httpapi

import (
	"context"
	"net/http"
	"time"

	"portfolio-backend-go/internal/models"
	"portfolio-backend-go/internal/store"
)

type HealthResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Store     string    `json:"store"`
	Uptime    string    `json:"uptime"`
	Timestamp time.Time `json:"timestamp"`
}

type RootResponse struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

func (s *Server) Root(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, RootResponse{
		Success: true,
		Message: "Portfolio API",
		Version: "1.0.0",
		Endpoints: map[string]string{
			"health":    "/api/health",
			"auth":      "/api/auth",
			"projects":  "/api/projects",
			"skills":    "/api/skills",
			"services":  "/api/services",
			"timeline":  "/api/timeline",
			"approach":  "/api/approach",
			"about":     "/api/about",
			"cv":        "/api/cv",
			"settings":  "/api/settings",
			"contact":   "/api/contact",
			"dashboard": "/api/dashboard",
			"upload":    "/api/upload",
		},
	})
}

// Health reports 503 when the store does not answer within two seconds.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	resp := HealthResponse{
		Success:   true,
		Message:   "Server is running",
		Store:     "ok",
		Uptime:    time.Since(s.StartedAt).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
	}
	status := http.StatusOK
	if _, err := s.Store.Count(ctx, models.CollSettings, store.Filter{}); err != nil {
		resp.Success = false
		resp.Store = "unavailable"
		status = http.StatusServiceUnavailable
	}
	WriteJSON(w, status, resp)
}

func (s *Server) NotFound(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusNotFound, "Route not found")
}
