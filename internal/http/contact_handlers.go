package httpapi

import (
	"net/http"

	"portfolio-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
)

func (s *Server) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var req services.ContactInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err, "")
		return
	}
	receipt, err := s.Contacts.Submit(r.Context(), req, clientIP(r), r.UserAgent())
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writeMessage(w, http.StatusCreated, "Message sent successfully", receipt)
}

func (s *Server) ListContacts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	result, err := s.Contacts.List(r.Context(), query.Get("status"), parseInt(query.Get("page"), 1), parseInt(query.Get("limit"), 0))
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writePage(w, result)
}

func (s *Server) GetContact(w http.ResponseWriter, r *http.Request) {
	contact, err := s.Contacts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "Contact not found")
		return
	}
	writeData(w, http.StatusOK, contact)
}

func (s *Server) UpdateContact(w http.ResponseWriter, r *http.Request) {
	var req services.ContactStatusInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err, "")
		return
	}
	contact, err := s.Contacts.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, err, "Contact not found")
		return
	}
	writeData(w, http.StatusOK, contact)
}

func (s *Server) DeleteContact(w http.ResponseWriter, r *http.Request) {
	if err := s.Contacts.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err, "Contact not found")
		return
	}
	writeData(w, http.StatusOK, struct{}{})
}
