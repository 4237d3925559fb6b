package services

import (
	"context"
	"testing"
	"time"

	"portfolio-backend-go/internal/models"
	"portfolio-backend-go/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dashboardFixture struct {
	st        store.Store
	dash      DashboardService
	content   Content
	contacts  *ContactService
	projects  []string
	services  []string
	contactID string
}

func newDashboardFixture(t *testing.T) dashboardFixture {
	t.Helper()
	st := newTestStore(t)
	f := dashboardFixture{
		st:       st,
		dash:     DashboardService{Store: st},
		content:  NewContent(st, nil),
		contacts: &ContactService{Store: st},
	}
	ctx := context.Background()
	for i, title := range []string{"Go service", "React app", "Go CLI"} {
		p := newProject(f.content, title, i, func(p *models.Project) {
			p.Featured = i == 0
			p.Technologies = []string{"Go"}
		})
		created, err := f.content.Projects.Create(ctx, &p)
		require.NoError(t, err)
		f.projects = append(f.projects, created.ID)
	}
	for _, title := range []string{"Consulting", "Audits"} {
		s := f.content.Services.New()
		s.Title, s.Description, s.Icon = title, title+" work", "icon"
		created, err := f.content.Services.Create(ctx, &s)
		require.NoError(t, err)
		f.services = append(f.services, created.ID)
	}
	skill := f.content.Skills.New()
	skill.Name, skill.Icon, skill.Level, skill.Proficiency, skill.Featured = "Golang", "go", "Expert", ptr(90), true
	_, err := f.content.Skills.Create(ctx, &skill)
	require.NoError(t, err)

	receipt, err := f.contacts.Submit(ctx, validContact(), "", "")
	require.NoError(t, err)
	f.contactID = receipt.ID
	return f
}

func TestDashboardStats(t *testing.T) {
	f := newDashboardFixture(t)
	stats, err := f.dash.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ProjectCounts{Total: 3, Active: 3, Featured: 1}, stats.Counts.Projects)
	assert.Equal(t, SkillCounts{Total: 1, Featured: 1}, stats.Counts.Skills)
	assert.Equal(t, int64(2), stats.Counts.Services)
	assert.Equal(t, ContactCounts{Total: 1, Unread: 1}, stats.Counts.Contacts)
	assert.Equal(t, int64(0), stats.Counts.Users)
	require.Len(t, stats.Recent.Projects, 3)
	require.Len(t, stats.Recent.Contacts, 1)
	assert.NotContains(t, stats.Recent.Contacts[0], "message")
	assert.Equal(t, "Jane Roe", stats.Recent.Contacts[0]["name"])
}

func TestDashboardSummaryProjectsFields(t *testing.T) {
	f := newDashboardFixture(t)
	summary, err := f.dash.Summary(context.Background())
	require.NoError(t, err)
	require.Len(t, summary.Projects, 3)
	for _, p := range summary.Projects {
		assert.Contains(t, p, "title")
		assert.NotContains(t, p, "fullDescription")
	}
	require.Len(t, summary.Services, 2)
	assert.Equal(t, []store.Document{}, summary.Timeline)
}

func TestDashboardSearch(t *testing.T) {
	f := newDashboardFixture(t)
	ctx := context.Background()

	_, err := f.dash.Search(ctx, "  ")
	svcErr := requireKind(t, err, KindValidation)
	assert.Equal(t, "Please provide a search query", svcErr.Message)

	results, err := f.dash.Search(ctx, "go")
	require.NoError(t, err)
	assert.Len(t, results[models.CollProjects], 3, "technologies match too")
	assert.Len(t, results[models.CollSkills], 1)
	assert.Empty(t, results[models.CollTimeline])
	assert.Contains(t, results, models.CollContacts)

	results, err = f.dash.Search(ctx, "react")
	require.NoError(t, err)
	require.Len(t, results[models.CollProjects], 1)
	assert.Equal(t, "React app", results[models.CollProjects][0]["title"])

	// Regex metacharacters are matched literally.
	results, err = f.dash.Search(ctx, ".*")
	require.NoError(t, err)
	assert.Empty(t, results[models.CollProjects])
}

func TestDashboardBulkDelete(t *testing.T) {
	f := newDashboardFixture(t)
	ctx := context.Background()

	_, err := f.dash.BulkDelete(ctx, BulkInput{Type: models.CollProjects})
	svcErr := requireKind(t, err, KindValidation)
	assert.Equal(t, "Please provide type and ids array", svcErr.Message)

	_, err = f.dash.BulkDelete(ctx, BulkInput{Type: models.CollUsers, IDs: []string{"x"}})
	svcErr = requireKind(t, err, KindValidation)
	assert.Equal(t, "Invalid type", svcErr.Message)

	n, err := f.dash.BulkDelete(ctx, BulkInput{Type: models.CollProjects, IDs: []string{f.projects[0], f.projects[1], f.projects[0], "missing"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	left, err := f.st.Count(ctx, models.CollProjects, store.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), left)
}

func TestDashboardBulkUpdateStatus(t *testing.T) {
	f := newDashboardFixture(t)
	ctx := context.Background()

	_, err := f.dash.BulkUpdateStatus(ctx, BulkInput{Type: models.CollProjects, IDs: f.projects})
	svcErr := requireKind(t, err, KindValidation)
	assert.Equal(t, "Please provide type, ids array, and status", svcErr.Message)

	_, err = f.dash.BulkUpdateStatus(ctx, BulkInput{Type: models.CollProjects, IDs: f.projects, Status: "deleted"})
	svcErr = requireKind(t, err, KindValidation)
	assert.Equal(t, "Status must be one of: active, archived, draft", svcErr.Message)

	n, err := f.dash.BulkUpdateStatus(ctx, BulkInput{Type: models.CollProjects, IDs: f.projects[:2], Status: models.ProjectArchived})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	archived, err := f.st.Count(ctx, models.CollProjects, store.Filter{Equals: map[string]any{"status": models.ProjectArchived}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), archived)

	n, err = f.dash.BulkUpdateStatus(ctx, BulkInput{Type: models.CollServices, IDs: f.services, Status: "inactive"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	inactive, err := f.content.Services.List(ctx, ListParams{Filters: map[string]string{"active": "false"}})
	require.NoError(t, err)
	assert.Len(t, inactive.Items, 2)

	n, err = f.dash.BulkUpdateStatus(ctx, BulkInput{Type: models.CollServices, IDs: f.services[:1], Status: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = f.dash.BulkUpdateStatus(ctx, BulkInput{Type: models.CollServices, IDs: f.services, Status: "maybe"})
	requireKind(t, err, KindValidation)

	n, err = f.dash.BulkUpdateStatus(ctx, BulkInput{Type: models.CollContacts, IDs: []string{f.contactID}, Status: models.ContactArchived})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = f.dash.BulkUpdateStatus(ctx, BulkInput{Type: models.CollSkills, IDs: []string{"x"}, Status: "active"})
	svcErr = requireKind(t, err, KindValidation)
	assert.Equal(t, "Invalid type", svcErr.Message)
}

func TestDashboardActivity(t *testing.T) {
	f := newDashboardFixture(t)
	items, err := f.dash.Activity(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, items, 7)
	for i := 1; i < len(items); i++ {
		assert.False(t, items[i].Date.After(items[i-1].Date), "newest first")
	}
	kinds := map[string]int{}
	for _, it := range items {
		kinds[it.Type]++
	}
	assert.Equal(t, map[string]int{"project": 3, "service": 2, "skill": 1, "contact": 1}, kinds)

	limited, err := f.dash.Activity(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestMergeByDateDesc(t *testing.T) {
	at := func(minute int) time.Time {
		return time.Date(2024, 1, 1, 0, minute, 0, 0, time.UTC)
	}
	feeds := [][]ActivityItem{
		{{Title: "a9", Date: at(9)}, {Title: "a5", Date: at(5)}, {Title: "a1", Date: at(1)}},
		{},
		{{Title: "c9", Date: at(9)}, {Title: "c7", Date: at(7)}},
	}
	titles := func(items []ActivityItem) []string {
		out := []string{}
		for _, it := range items {
			out = append(out, it.Title)
		}
		return out
	}
	assert.Equal(t, []string{"a9", "c9", "c7", "a5", "a1"}, titles(mergeByDateDesc(feeds, 10)))
	assert.Equal(t, []string{"a9", "c9", "c7"}, titles(mergeByDateDesc(feeds, 3)))
	assert.Empty(t, mergeByDateDesc(nil, 5))
}

func TestServiceActive(t *testing.T) {
	for in, want := range map[any]bool{true: true, false: false, "true": true, "active": true, "false": false, "inactive": false} {
		got, err := serviceActive(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, "%v", in)
	}
	_, err := serviceActive(1.0)
	assert.Error(t, err)
}
