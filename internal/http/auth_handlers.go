package httpapi

import (
	"net/http"

	"portfolio-backend-go/internal/services"
)

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req services.Credentials
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err, "")
		return
	}
	session, err := s.Users.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writeData(w, http.StatusOK, session)
}

func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err, "")
		return
	}
	session, err := s.Users.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writeData(w, http.StatusCreated, session)
}

func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	user, err := s.Users.Get(r.Context(), CurrentPrincipal(r).UserID)
	if err != nil {
		writeServiceError(w, err, "User not found")
		return
	}
	writeData(w, http.StatusOK, user.Public())
}

// Logout is stateless; clients drop their token.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusOK, "Logged out successfully", struct{}{})
}

func (s *Server) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	var req services.DetailsInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err, "")
		return
	}
	user, err := s.Users.UpdateDetails(r.Context(), CurrentPrincipal(r).UserID, req)
	if err != nil {
		writeServiceError(w, err, "User not found")
		return
	}
	writeData(w, http.StatusOK, user.Public())
}

func (s *Server) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req services.PasswordChange
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err, "")
		return
	}
	session, err := s.Users.UpdatePassword(r.Context(), CurrentPrincipal(r).UserID, req)
	if err != nil {
		writeServiceError(w, err, "User not found")
		return
	}
	writeData(w, http.StatusOK, session)
}
