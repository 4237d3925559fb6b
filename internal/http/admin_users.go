package httpapi

import (
	"net/http"

	"portfolio-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
)

func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.Users.List(r.Context())
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writeList(w, users)
}

func (s *Server) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.Users.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "User not found")
		return
	}
	writeData(w, http.StatusOK, user.Public())
}

func (s *Server) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req services.UserPatch
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err, "")
		return
	}
	user, err := s.Users.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, err, "User not found")
		return
	}
	writeData(w, http.StatusOK, user.Public())
}

func (s *Server) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.Users.Delete(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err, "User not found")
		return
	}
	writeData(w, http.StatusOK, struct{}{})
}
