package httpapi

import (
	"net/http"
	"testing"

	"portfolio-backend-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkillsScenario(t *testing.T) {
	env := newTestEnv(t, nil)
	admin := env.tokenFor(models.RoleAdmin)

	rec := env.request(http.MethodGet, "/api/skills", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	empty := decodeEnvelope(t, rec)
	assert.True(t, empty.Success)
	assert.Equal(t, 0, *empty.Count)
	assert.JSONEq(t, `[]`, string(empty.Data))

	rec = env.request(http.MethodPost, "/api/skills", admin, map[string]any{
		"name": "Go", "icon": "SiGo", "level": "Expert", "proficiency": 95, "category": "Backend", "featured": true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeData[models.Skill](t, decodeEnvelope(t, rec))
	assert.Equal(t, "text-gray-400", created.Color)

	rec = env.request(http.MethodPost, "/api/skills", admin, map[string]any{
		"name": "Go", "icon": "x", "level": "Basic", "proficiency": 5,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Duplicate field value entered", decodeEnvelope(t, rec).Error)

	rec = env.request(http.MethodPost, "/api/skills", admin, map[string]any{
		"name": "Rust", "icon": "x", "level": "Guru", "proficiency": 150,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	invalid := decodeEnvelope(t, rec)
	assert.Len(t, invalid.Errors, 2)

	rec = env.request(http.MethodGet, "/api/skills?featured=true&category=Backend", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, *decodeEnvelope(t, rec).Count)

	rec = env.request(http.MethodGet, "/api/skills?category=Design", "", nil)
	assert.Equal(t, 0, *decodeEnvelope(t, rec).Count)

	rec = env.request(http.MethodPut, "/api/skills/"+created.ID, admin, map[string]any{"proficiency": 80})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeData[models.Skill](t, decodeEnvelope(t, rec))
	require.NotNil(t, updated.Proficiency)
	assert.Equal(t, 80, *updated.Proficiency)
	assert.Equal(t, "Go", updated.Name)

	rec = env.request(http.MethodDelete, "/api/skills/"+created.ID, admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{}}`, rec.Body.String())

	rec = env.request(http.MethodGet, "/api/skills/"+created.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Skill not found", decodeEnvelope(t, rec).Error)
}

func TestProjectsPagination(t *testing.T) {
	env := newTestEnv(t, nil)
	admin := env.tokenFor(models.RoleAdmin)

	for i := 0; i < 3; i++ {
		rec := env.request(http.MethodPost, "/api/projects", admin, map[string]any{
			"title":           "Project",
			"description":     "Short",
			"fullDescription": "Long",
			"image":           "https://images.example.com/p.png",
			"order":           i,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := env.request(http.MethodGet, "/api/projects?page=2&limit=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, 1, *body.Count)
	assert.Equal(t, int64(3), *body.Total)
	assert.Equal(t, 2, *body.Page)
	assert.Equal(t, 2, *body.Pages)

	rec = env.request(http.MethodGet, "/api/projects?featured=maybe", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownIDsAreNotFound(t *testing.T) {
	env := newTestEnv(t, nil)
	admin := env.tokenFor(models.RoleAdmin)

	for _, path := range []string{"/api/projects/", "/api/services/", "/api/timeline/", "/api/approach/"} {
		rec := env.request(http.MethodGet, path+"does-not-exist", "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		rec = env.request(http.MethodDelete, path+"does-not-exist", admin, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}
