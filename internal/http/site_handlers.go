package httpapi

import (
	"net/http"

	"portfolio-backend-go/internal/models"
)

func (s *Server) GetAbout(w http.ResponseWriter, r *http.Request) {
	about, err := s.About.Get(r.Context())
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	if about == nil {
		writeMessage(w, http.StatusOK, "No about information found. Please add content through the admin panel.", nullData)
		return
	}
	writeData(w, http.StatusOK, about)
}

func (s *Server) UpdateAbout(w http.ResponseWriter, r *http.Request) {
	var patch models.AboutPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeServiceError(w, err, "")
		return
	}
	about, err := s.About.Update(r.Context(), &patch)
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writeData(w, http.StatusOK, about)
}

func (s *Server) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.Settings.GetOrCreate(r.Context())
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writeData(w, http.StatusOK, settings)
}

func (s *Server) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch models.SiteSettingsPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeServiceError(w, err, "")
		return
	}
	settings, err := s.Settings.Update(r.Context(), patch)
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writeMessage(w, http.StatusOK, "Settings updated successfully", settings)
}

func (s *Server) ToggleSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.Settings.Toggle(r.Context())
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	state := "inactive"
	if settings.IsActive {
		state = "active"
	}
	writeMessage(w, http.StatusOK, "Site is now "+state, settings)
}
