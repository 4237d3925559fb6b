package services

import (
	"context"
	"fmt"
	"testing"

	"portfolio-backend-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProject(c Content, title string, order int, mutate func(*models.Project)) models.Project {
	p := c.Projects.New()
	p.Title = title
	p.Description = "short " + title
	p.FullDescription = "long " + title
	p.Image = "/uploads/" + title + ".png"
	p.Order = order
	if mutate != nil {
		mutate(&p)
	}
	return p
}

func TestProjectDefaultsAndValidation(t *testing.T) {
	listener := &recordingListener{}
	c := NewContent(newTestStore(t), listener)
	ctx := context.Background()

	in := newProject(c, "site", 1, nil)
	created, err := c.Projects.Create(ctx, &in)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "#", created.Link)
	assert.Equal(t, models.ProjectActive, created.Status)
	assert.Equal(t, []string{}, created.Technologies)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, []string{models.CollProjects}, listener.collections())

	bad := c.Projects.New()
	bad.Title = "   "
	bad.Image = "not-a-url"
	_, err = c.Projects.Create(ctx, &bad)
	svcErr := requireKind(t, err, KindValidation)
	assert.Equal(t, "Please provide title", svcErr.Message)
	fields := map[string]string{}
	for _, f := range svcErr.Fields {
		fields[f.Field] = f.Message
	}
	assert.Equal(t, "Please provide description", fields["description"])
	assert.Equal(t, "Please provide a valid URL for image", fields["image"])

	wrongStatus := newProject(c, "other", 2, func(p *models.Project) { p.Status = "gone" })
	_, err = c.Projects.Create(ctx, &wrongStatus)
	svcErr = requireKind(t, err, KindValidation)
	assert.Equal(t, "Status must be one of: active, archived, draft", svcErr.Message)
}

func TestProjectListFiltersAndPagination(t *testing.T) {
	c := NewContent(newTestStore(t), nil)
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		p := newProject(c, fmt.Sprintf("p%02d", i), 12-i, func(p *models.Project) {
			p.Featured = i%3 == 0
			if i >= 10 {
				p.Status = models.ProjectDraft
			}
		})
		_, err := c.Projects.Create(ctx, &p)
		require.NoError(t, err)
	}

	first, err := c.Projects.List(ctx, ListParams{})
	require.NoError(t, err)
	assert.True(t, first.Paginated)
	assert.Equal(t, int64(12), first.Total)
	assert.Equal(t, 2, first.Pages)
	require.Len(t, first.Items, 10)
	assert.Equal(t, "p11", first.Items[0].Title, "lowest order first")

	second, err := c.Projects.List(ctx, ListParams{Page: 2, Limit: 10})
	require.NoError(t, err)
	require.Len(t, second.Items, 2)
	assert.Equal(t, "p00", second.Items[1].Title)

	beyond, err := c.Projects.List(ctx, ListParams{Page: 5, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, beyond.Items, 0)
	assert.Equal(t, int64(12), beyond.Total)
	assert.Equal(t, 5, beyond.Page)
	assert.Equal(t, 6, beyond.Pages)

	past, err := c.Projects.List(ctx, ListParams{Page: 9, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, past.Items)
	assert.Equal(t, int64(12), past.Total)
	assert.Equal(t, 6, past.Pages)

	capped, err := c.Projects.List(ctx, ListParams{Limit: 1000})
	require.NoError(t, err)
	assert.Len(t, capped.Items, 12)

	featured, err := c.Projects.List(ctx, ListParams{Filters: map[string]string{"featured": "true"}})
	require.NoError(t, err)
	assert.Equal(t, int64(4), featured.Total)

	drafts, err := c.Projects.List(ctx, ListParams{Filters: map[string]string{"status": "draft"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), drafts.Total)

	_, err = c.Projects.List(ctx, ListParams{Filters: map[string]string{"featured": "yes"}})
	requireKind(t, err, KindValidation)
}

func TestProjectUpdateAndDelete(t *testing.T) {
	listener := &recordingListener{}
	c := NewContent(newTestStore(t), listener)
	ctx := context.Background()

	in := newProject(c, "site", 1, nil)
	created, err := c.Projects.Create(ctx, &in)
	require.NoError(t, err)

	updated, err := c.Projects.Update(ctx, created.ID, &models.ProjectPatch{Featured: ptr(true)})
	require.NoError(t, err)
	assert.True(t, updated.Featured)
	assert.Equal(t, "site", updated.Title)

	_, err = c.Projects.Update(ctx, created.ID, &models.ProjectPatch{Title: ptr("")})
	requireKind(t, err, KindValidation)

	unchanged, err := c.Projects.Update(ctx, created.ID, &models.ProjectPatch{})
	require.NoError(t, err)
	assert.True(t, unchanged.Featured)

	_, err = c.Projects.Update(ctx, "00000000-0000-0000-0000-000000000000", &models.ProjectPatch{Featured: ptr(false)})
	svcErr := requireKind(t, err, KindNotFound)
	assert.Equal(t, "Project not found", svcErr.Message)

	require.NoError(t, c.Projects.Delete(ctx, created.ID))
	_, err = c.Projects.Get(ctx, created.ID)
	requireKind(t, err, KindNotFound)
	err = c.Projects.Delete(ctx, created.ID)
	requireKind(t, err, KindNotFound)

	assert.Equal(t, []string{models.CollProjects, models.CollProjects, models.CollProjects}, listener.collections())
}

func TestSkillsOrderingAndUniqueName(t *testing.T) {
	c := NewContent(newTestStore(t), nil)
	ctx := context.Background()
	for _, s := range []struct {
		name  string
		order int
	}{{"Rust", 1}, {"Go", 1}, {"CSS", 0}} {
		skill := c.Skills.New()
		skill.Name = s.name
		skill.Icon = "icon"
		skill.Level = "Expert"
		skill.Proficiency = ptr(80)
		skill.Order = s.order
		_, err := c.Skills.Create(ctx, &skill)
		require.NoError(t, err)
	}

	list, err := c.Skills.List(ctx, ListParams{})
	require.NoError(t, err)
	assert.False(t, list.Paginated)
	names := []string{}
	for _, s := range list.Items {
		names = append(names, s.Name)
		assert.Equal(t, "text-gray-400", s.Color)
		assert.Equal(t, "Other", s.Category)
	}
	assert.Equal(t, []string{"CSS", "Go", "Rust"}, names)

	dup := c.Skills.New()
	dup.Name = "Go"
	dup.Icon = "icon"
	dup.Level = "Basic"
	dup.Proficiency = ptr(10)
	_, err = c.Skills.Create(ctx, &dup)
	svcErr := requireKind(t, err, KindConflict)
	assert.Equal(t, "Duplicate field value entered", svcErr.Message)

	missing := c.Skills.New()
	missing.Name = "Zig"
	missing.Icon = "icon"
	missing.Level = "Basic"
	_, err = c.Skills.Create(ctx, &missing)
	svcErr = requireKind(t, err, KindValidation)
	assert.Equal(t, "Please provide proficiency", svcErr.Message)
}

func TestServicesApproachTimelineDefaults(t *testing.T) {
	c := NewContent(newTestStore(t), nil)
	ctx := context.Background()

	svc := c.Services.New()
	svc.Title, svc.Description, svc.Icon = "APIs", "Backends", "server"
	created, err := c.Services.Create(ctx, &svc)
	require.NoError(t, err)
	assert.True(t, created.Active)

	_, err = c.Services.Update(ctx, created.ID, &models.ServicePatch{Active: ptr(false)})
	require.NoError(t, err)
	inactive, err := c.Services.List(ctx, ListParams{Filters: map[string]string{"active": "false"}})
	require.NoError(t, err)
	assert.Len(t, inactive.Items, 1)

	entry := c.Timeline.New()
	entry.Date, entry.Title, entry.Description, entry.Icon = "2020", "Started", "First job", "rocket"
	savedEntry, err := c.Timeline.Create(ctx, &entry)
	require.NoError(t, err)
	assert.Equal(t, "left", savedEntry.Position)

	bad := c.Timeline.New()
	bad.Date, bad.Title, bad.Description, bad.Icon, bad.Position = "2021", "x", "y", "z", "center"
	_, err = c.Timeline.Create(ctx, &bad)
	requireKind(t, err, KindValidation)

	item := c.Approach.New()
	item.Title, item.Description, item.Icon = "Listen", "First understand", "ear"
	savedItem, err := c.Approach.Create(ctx, &item)
	require.NoError(t, err)
	assert.True(t, savedItem.Featured)
	assert.True(t, savedItem.Active)

	_, err = c.Approach.Get(ctx, "missing")
	svcErr := requireKind(t, err, KindNotFound)
	assert.Equal(t, "Approach item not found", svcErr.Message)
}
