package httpapi

import (
	"net/http"

	"portfolio-backend-go/internal/services"
)

type bulkDeleteResponse struct {
	DeletedCount int64 `json:"deletedCount"`
}

type bulkUpdateResponse struct {
	ModifiedCount int64 `json:"modifiedCount"`
}

func (s *Server) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Dashboard.Stats(r.Context())
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writeData(w, http.StatusOK, stats)
}

func (s *Server) DashboardSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.Dashboard.Summary(r.Context())
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writeData(w, http.StatusOK, summary)
}

func (s *Server) DashboardActivity(w http.ResponseWriter, r *http.Request) {
	items, err := s.Dashboard.Activity(r.Context(), parseInt(r.URL.Query().Get("limit"), 0))
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writeList(w, items)
}

func (s *Server) DashboardSearch(w http.ResponseWriter, r *http.Request) {
	results, err := s.Dashboard.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writeData(w, http.StatusOK, results)
}

func (s *Server) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req services.BulkInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err, "")
		return
	}
	n, err := s.Dashboard.BulkDelete(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writeData(w, http.StatusOK, bulkDeleteResponse{DeletedCount: n})
}

func (s *Server) BulkUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req services.BulkInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err, "")
		return
	}
	n, err := s.Dashboard.BulkUpdateStatus(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writeData(w, http.StatusOK, bulkUpdateResponse{ModifiedCount: n})
}
