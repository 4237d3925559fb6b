package httpapi

import (
	"net/http"

	"portfolio-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
)

func (s *Server) ActiveCV(w http.ResponseWriter, r *http.Request) {
	cv, err := s.CV.Active(r.Context())
	if err != nil {
		writeServiceError(w, err, "No CV available")
		return
	}
	writeData(w, http.StatusOK, cv)
}

func (s *Server) DownloadCV(w http.ResponseWriter, r *http.Request) {
	link, err := s.CV.Download(r.Context())
	if err != nil {
		writeServiceError(w, err, "No CV available")
		return
	}
	writeData(w, http.StatusOK, link)
}

func (s *Server) AllCVs(w http.ResponseWriter, r *http.Request) {
	cvs, err := s.CV.All(r.Context())
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writeList(w, cvs)
}

func (s *Server) UploadCV(w http.ResponseWriter, r *http.Request) {
	var req services.CVInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err, "")
		return
	}
	cv, err := s.CV.Upload(r.Context(), CurrentPrincipal(r), req)
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writeMessage(w, http.StatusCreated, "CV link saved successfully", cv)
}

func (s *Server) ActivateCV(w http.ResponseWriter, r *http.Request) {
	cv, err := s.CV.Activate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "CV not found")
		return
	}
	writeMessage(w, http.StatusOK, "CV activated successfully", cv)
}

func (s *Server) DeleteCV(w http.ResponseWriter, r *http.Request) {
	if err := s.CV.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err, "CV not found")
		return
	}
	writeMessage(w, http.StatusOK, "CV deleted successfully", struct{}{})
}
