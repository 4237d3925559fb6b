package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"portfolio-backend-go/internal/models"
	"portfolio-backend-go/internal/store"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

const (
	activityDefaultLimit = 20
	activityMaxLimit     = 100
	searchLimit          = 10
	recentLimit          = 5
)

type DashboardService struct {
	Store    store.Store
	Listener ChangeListener
}

type ProjectCounts struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Featured int64 `json:"featured"`
}

type SkillCounts struct {
	Total    int64 `json:"total"`
	Featured int64 `json:"featured"`
}

type ContactCounts struct {
	Total  int64 `json:"total"`
	Unread int64 `json:"unread"`
}

type Counts struct {
	Projects ProjectCounts `json:"projects"`
	Skills   SkillCounts   `json:"skills"`
	Services int64         `json:"services"`
	Timeline int64         `json:"timeline"`
	Approach int64         `json:"approach"`
	Contacts ContactCounts `json:"contacts"`
	Users    int64         `json:"users"`
}

type Recent struct {
	Contacts []store.Document `json:"contacts"`
	Projects []store.Document `json:"projects"`
}

type Stats struct {
	Counts Counts `json:"counts"`
	Recent Recent `json:"recent"`
}

func eq(field string, value any) store.Filter {
	return store.Filter{Equals: map[string]any{field: value}}
}

// Stats runs every count and recent-items query concurrently.
func (d DashboardService) Stats(ctx context.Context) (Stats, error) {
	var out Stats
	g, ctx := errgroup.WithContext(ctx)
	count := func(dst *int64, coll string, f store.Filter) {
		g.Go(func() error {
			n, err := d.Store.Count(ctx, coll, f)
			*dst = n
			return err
		})
	}
	count(&out.Counts.Projects.Total, models.CollProjects, store.Filter{})
	count(&out.Counts.Projects.Active, models.CollProjects, eq("status", models.ProjectActive))
	count(&out.Counts.Projects.Featured, models.CollProjects, eq("featured", true))
	count(&out.Counts.Skills.Total, models.CollSkills, store.Filter{})
	count(&out.Counts.Skills.Featured, models.CollSkills, eq("featured", true))
	count(&out.Counts.Services, models.CollServices, store.Filter{})
	count(&out.Counts.Timeline, models.CollTimeline, store.Filter{})
	count(&out.Counts.Approach, models.CollApproach, store.Filter{})
	count(&out.Counts.Contacts.Total, models.CollContacts, store.Filter{})
	count(&out.Counts.Contacts.Unread, models.CollContacts, eq("status", models.ContactNew))
	count(&out.Counts.Users, models.CollUsers, store.Filter{})

	recent := func(dst *[]store.Document, coll string, fields ...string) {
		g.Go(func() error {
			docs, err := d.Store.Find(ctx, coll, store.Query{
				Sort:  []store.SortKey{{Field: store.FieldCreatedAt, Desc: true}},
				Limit: recentLimit,
			})
			*dst = project(docs, fields...)
			return err
		})
	}
	recent(&out.Recent.Contacts, models.CollContacts, "name", "email", "subject", "status", store.FieldCreatedAt)
	recent(&out.Recent.Projects, models.CollProjects, "title", "status", "featured", store.FieldCreatedAt)

	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	return out, nil
}

type Summary struct {
	Projects []store.Document `json:"projects"`
	Skills   []store.Document `json:"skills"`
	Services []store.Document `json:"services"`
	Timeline []store.Document `json:"timeline"`
}

func (d DashboardService) Summary(ctx context.Context) (Summary, error) {
	var out Summary
	g, ctx := errgroup.WithContext(ctx)
	load := func(dst *[]store.Document, coll string, sort []store.SortKey, fields ...string) {
		g.Go(func() error {
			docs, err := d.Store.Find(ctx, coll, store.Query{Sort: sort})
			*dst = project(docs, fields...)
			return err
		})
	}
	load(&out.Projects, models.CollProjects, []store.SortKey{createdAtDesc},
		"title", "status", "featured", store.FieldCreatedAt, store.FieldUpdatedAt)
	load(&out.Skills, models.CollSkills, []store.SortKey{{Field: "category"}, {Field: "name"}},
		"name", "category", "level", "featured", store.FieldCreatedAt)
	load(&out.Services, models.CollServices, []store.SortKey{orderAsc},
		"title", "active", store.FieldCreatedAt)
	load(&out.Timeline, models.CollTimeline, []store.SortKey{orderAsc, createdAtAsc},
		"title", "date", store.FieldCreatedAt)
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return out, nil
}

type ActivityItem struct {
	Type   string    `json:"type"`
	Action string    `json:"action"`
	Title  string    `json:"title"`
	Date   time.Time `json:"date"`
}

type activitySource struct {
	coll   string
	kind   string
	action string
	field  string
	title  func(store.Document) string
}

func stringField(name string) func(store.Document) string {
	return func(doc store.Document) string {
		s, _ := doc[name].(string)
		return s
	}
}

var activitySources = []activitySource{
	{coll: models.CollProjects, kind: "project", action: "updated", field: store.FieldUpdatedAt, title: stringField("title")},
	{coll: models.CollSkills, kind: "skill", action: "updated", field: store.FieldUpdatedAt, title: stringField("name")},
	{coll: models.CollServices, kind: "service", action: "updated", field: store.FieldUpdatedAt, title: stringField("title")},
	{coll: models.CollTimeline, kind: "timeline", action: "updated", field: store.FieldUpdatedAt, title: stringField("title")},
	{coll: models.CollContacts, kind: "contact", action: "received", field: store.FieldCreatedAt, title: func(doc store.Document) string {
		return stringField("name")(doc) + " - " + stringField("email")(doc)
	}},
}

// Activity merges the newest changes across collections, newest first.
func (d DashboardService) Activity(ctx context.Context, limit int) ([]ActivityItem, error) {
	if limit < 1 {
		limit = activityDefaultLimit
	}
	limit = lo.Clamp(limit, 1, activityMaxLimit)

	feeds := make([][]ActivityItem, len(activitySources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range activitySources {
		g.Go(func() error {
			docs, err := d.Store.Find(gctx, src.coll, store.Query{
				Sort:  []store.SortKey{{Field: src.field, Desc: true}},
				Limit: limit,
			})
			if err != nil {
				return err
			}
			items := make([]ActivityItem, 0, len(docs))
			for _, doc := range docs {
				items = append(items, ActivityItem{
					Type:   src.kind,
					Action: src.action,
					Title:  src.title(doc),
					Date:   parseTimestamp(doc[src.field]),
				})
			}
			feeds[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return mergeByDateDesc(feeds, limit), nil
}

// mergeByDateDesc merges feeds that are each sorted newest first. Ties go
// to the earlier feed.
func mergeByDateDesc(feeds [][]ActivityItem, limit int) []ActivityItem {
	heads := make([]int, len(feeds))
	out := make([]ActivityItem, 0, limit)
	for len(out) < limit {
		best := -1
		for i, feed := range feeds {
			if heads[i] >= len(feed) {
				continue
			}
			if best < 0 || feed[heads[i]].Date.After(feeds[best][heads[best]].Date) {
				best = i
			}
		}
		if best < 0 {
			break
		}
		out = append(out, feeds[best][heads[best]])
		heads[best]++
	}
	return out
}

func parseTimestamp(v any) time.Time {
	s, _ := v.(string)
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

var searchFields = map[string][]string{
	models.CollProjects: {"title", "description", "technologies"},
	models.CollSkills:   {"name", "category"},
	models.CollServices: {"title", "description"},
	models.CollTimeline: {"title", "description"},
	models.CollApproach: {"title", "description"},
	models.CollContacts: {"name", "email", "subject"},
}

// Search matches term literally and case-insensitively, at most ten
// documents per collection.
func (d DashboardService) Search(ctx context.Context, term string) (map[string][]store.Document, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, ErrValidation("Please provide a search query")
	}
	colls := lo.Keys(searchFields)
	results := make([][]store.Document, len(colls))
	g, gctx := errgroup.WithContext(ctx)
	for i, coll := range colls {
		g.Go(func() error {
			docs, err := d.Store.Find(gctx, coll, store.Query{
				Search: store.Search{Fields: searchFields[coll], Term: term},
				Sort:   []store.SortKey{createdAtDesc},
				Limit:  searchLimit,
			})
			if docs == nil {
				docs = []store.Document{}
			}
			results[i] = docs
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make(map[string][]store.Document, len(colls))
	for i, coll := range colls {
		out[coll] = results[i]
	}
	return out, nil
}

var bulkDeletable = []string{
	models.CollProjects, models.CollSkills, models.CollServices,
	models.CollTimeline, models.CollApproach, models.CollContacts,
}

type BulkInput struct {
	Type   string   `json:"type"`
	IDs    []string `json:"ids"`
	Status any      `json:"status"`
}

func (d DashboardService) BulkDelete(ctx context.Context, in BulkInput) (int64, error) {
	if in.Type == "" || len(in.IDs) == 0 {
		return 0, ErrValidation("Please provide type and ids array")
	}
	if !lo.Contains(bulkDeletable, in.Type) {
		return 0, ErrValidation("Invalid type")
	}
	n, err := d.Store.DeleteMany(ctx, in.Type, store.Filter{IDs: lo.Uniq(in.IDs)})
	if err != nil {
		return 0, err
	}
	if n > 0 && in.Type != models.CollContacts {
		recordMutation(ctx, d.Listener, in.Type, "bulk-delete")
	}
	return n, nil
}

// BulkUpdateStatus sets status on projects and contacts and active on
// services.
func (d DashboardService) BulkUpdateStatus(ctx context.Context, in BulkInput) (int64, error) {
	if in.Type == "" || len(in.IDs) == 0 || in.Status == nil || in.Status == "" {
		return 0, ErrValidation("Please provide type, ids array, and status")
	}
	var set store.Document
	switch in.Type {
	case models.CollProjects:
		status, ok := in.Status.(string)
		if !ok || !lo.Contains(models.ProjectStatuses, status) {
			return 0, ErrValidation("Status must be one of: " + strings.Join(models.ProjectStatuses, ", "))
		}
		set = store.Document{"status": status}
	case models.CollContacts:
		status, ok := in.Status.(string)
		if !ok || !lo.Contains(models.ContactStatuses, status) {
			return 0, ErrValidation("Status must be one of: " + strings.Join(models.ContactStatuses, ", "))
		}
		set = store.Document{"status": status}
	case models.CollServices:
		active, err := serviceActive(in.Status)
		if err != nil {
			return 0, err
		}
		set = store.Document{"active": active}
	default:
		return 0, ErrValidation("Invalid type")
	}
	n, err := d.Store.PatchMany(ctx, in.Type, store.Filter{IDs: lo.Uniq(in.IDs)}, set)
	if err != nil {
		return 0, err
	}
	if n > 0 && in.Type != models.CollContacts {
		recordMutation(ctx, d.Listener, in.Type, "bulk-update")
	}
	return n, nil
}

func serviceActive(v any) (bool, error) {
	switch value := v.(type) {
	case bool:
		return value, nil
	case string:
		switch value {
		case "true", "active":
			return true, nil
		case "false", "inactive":
			return false, nil
		}
	}
	return false, ErrValidation(fmt.Sprintf("Invalid status for services: %v", v))
}

// project keeps id plus the named fields of each document.
func project(docs []store.Document, fields ...string) []store.Document {
	out := make([]store.Document, 0, len(docs))
	for _, doc := range docs {
		p := store.Document{store.FieldID: doc[store.FieldID]}
		for _, f := range fields {
			if v, ok := doc[f]; ok {
				p[f] = v
			}
		}
		out = append(out, p)
	}
	return out
}
