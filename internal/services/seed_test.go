package services

import (
	"context"
	"testing"

	"portfolio-backend-go/internal/models"
	"portfolio-backend-go/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeederImportAndDestroy(t *testing.T) {
	st := newTestStore(t)
	seeder := Seeder{Store: st, Content: NewContent(st, nil), About: AboutService{Store: st}}
	ctx := context.Background()

	fixture := Fixture{
		About: map[string]any{"name": "Alex", "title": "Developer", "profileImage": "/uploads/me.png"},
		Projects: []map[string]any{{
			"title": "Site", "description": "d", "fullDescription": "fd",
			"image": "/uploads/site.png", "technologies": []any{"Go"},
		}},
		Skills: []map[string]any{
			{"name": "Go", "icon": "go", "level": "Expert", "proficiency": 90},
			{"name": "SQL", "icon": "db", "level": "Proficient", "proficiency": 70, "category": "Backend"},
		},
		Timeline: []map[string]any{{"date": "2020", "title": "Start", "description": "d", "icon": "i"}},
	}
	report, err := seeder.Import(ctx, fixture)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		models.CollProjects: 1, models.CollSkills: 2, models.CollTimeline: 1, models.CollAbout: 1,
	}, report)

	project, err := st.Find(ctx, models.CollProjects, store.Query{})
	require.NoError(t, err)
	require.Len(t, project, 1)
	assert.Equal(t, "#", project[0]["link"], "defaults apply to seeded records")

	// Users and settings survive a destroy.
	_, err = SettingsService{Store: st}.GetOrCreate(ctx)
	require.NoError(t, err)

	deleted, err := seeder.Destroy(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted[models.CollSkills])
	assert.Equal(t, int64(1), deleted[models.CollAbout])
	n, err := st.Count(ctx, models.CollSettings, store.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSeederStopsAtInvalidRecord(t *testing.T) {
	st := newTestStore(t)
	seeder := Seeder{Store: st, Content: NewContent(st, nil), About: AboutService{Store: st}}

	report, err := seeder.Import(context.Background(), Fixture{
		Skills: []map[string]any{
			{"name": "Go", "icon": "go", "level": "Expert", "proficiency": 90},
			{"name": "Bad", "icon": "x", "level": "Wizard", "proficiency": 10},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "skills[1]")
	assert.Equal(t, 1, report[models.CollSkills])
}
