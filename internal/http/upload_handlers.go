package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"portfolio-backend-go/internal/services"
)

const uploadFormOverhead = 1 << 20

const uploadsCSP = "default-src 'none'; style-src 'unsafe-inline'; sandbox"

func (s *Server) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.Media.MaxBytes+uploadFormOverhead)
	file, header, err := r.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeServiceError(w, services.ErrValidation("File too large"), "")
			return
		}
		writeServiceError(w, services.ErrValidation("Please upload a file"), "")
		return
	}
	defer file.Close()
	image, err := s.Media.UploadImage(r.Context(), header.Filename, file)
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writeMessage(w, http.StatusCreated, "Image uploaded successfully", image)
}

// uploadsHandler serves locally stored uploads without directory listings.
func (s *Server) uploadsHandler() http.Handler {
	if s.Config.UploadDriver != "local" {
		return http.HandlerFunc(s.NotFound)
	}
	files := http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.Config.UploadDir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			s.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=86400")
		// Uploaded SVGs may carry script; render them in a sandbox with no
		// fetches of their own.
		w.Header().Set("Content-Security-Policy", uploadsCSP)
		files.ServeHTTP(w, r)
	})
}
