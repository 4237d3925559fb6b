package httpapi

import (
	"net/http"

	"portfolio-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
)

// mountResource registers the list/get/create/update/delete family for a
// content resource. Reads are public; writes need protect and admin.
func mountResource[T any, P any](api chi.Router, path string, res services.Resource[T, P], protect, admin func(http.Handler) http.Handler) {
	notFound := res.Spec.Name + " not found"
	api.Route(path, func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			query := req.URL.Query()
			params := services.ListParams{
				Filters: map[string]string{},
				Page:    parseInt(query.Get("page"), 1),
				Limit:   parseInt(query.Get("limit"), 0),
			}
			for _, f := range res.Spec.Filters {
				params.Filters[f.Field] = query.Get(f.Field)
			}
			result, err := res.List(req.Context(), params)
			if err != nil {
				writeServiceError(w, err, notFound)
				return
			}
			writePage(w, result)
		})

		r.Get("/{id}", func(w http.ResponseWriter, req *http.Request) {
			item, err := res.Get(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				writeServiceError(w, err, notFound)
				return
			}
			writeData(w, http.StatusOK, item)
		})

		r.Group(func(in chi.Router) {
			in.Use(protect, admin)

			in.Post("/", func(w http.ResponseWriter, req *http.Request) {
				item := res.New()
				if err := decodeJSON(w, req, &item); err != nil {
					writeServiceError(w, err, notFound)
					return
				}
				created, err := res.Create(req.Context(), &item)
				if err != nil {
					writeServiceError(w, err, notFound)
					return
				}
				writeData(w, http.StatusCreated, created)
			})

			in.Put("/{id}", func(w http.ResponseWriter, req *http.Request) {
				var patch P
				if err := decodeJSON(w, req, &patch); err != nil {
					writeServiceError(w, err, notFound)
					return
				}
				updated, err := res.Update(req.Context(), chi.URLParam(req, "id"), &patch)
				if err != nil {
					writeServiceError(w, err, notFound)
					return
				}
				writeData(w, http.StatusOK, updated)
			})

			in.Delete("/{id}", func(w http.ResponseWriter, req *http.Request) {
				if err := res.Delete(req.Context(), chi.URLParam(req, "id")); err != nil {
					writeServiceError(w, err, notFound)
					return
				}
				writeData(w, http.StatusOK, struct{}{})
			})
		})
	})
}
