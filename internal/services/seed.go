package services

import (
	"context"
	"encoding/json"
	"fmt"

	"portfolio-backend-go/internal/models"
	"portfolio-backend-go/internal/store"
)

// Fixture is the content of a seed file. Records use the same field names
// as the API.
type Fixture struct {
	About    map[string]any   `yaml:"about"`
	Projects []map[string]any `yaml:"projects"`
	Skills   []map[string]any `yaml:"skills"`
	Services []map[string]any `yaml:"services"`
	Timeline []map[string]any `yaml:"timeline"`
	Approach []map[string]any `yaml:"approach"`
}

// Seeder loads fixtures through the same validation as the API.
type Seeder struct {
	Store   store.Store
	Content Content
	About   AboutService
}

var seededCollections = []string{
	models.CollProjects, models.CollSkills, models.CollServices,
	models.CollTimeline, models.CollApproach, models.CollAbout,
}

// Import inserts every record and returns the number written per
// collection. It stops at the first invalid record.
func (s Seeder) Import(ctx context.Context, f Fixture) (map[string]int, error) {
	report := map[string]int{}
	steps := []struct {
		coll    string
		records []map[string]any
		create  func(map[string]any) error
	}{
		{models.CollProjects, f.Projects, func(r map[string]any) error { return seedOne(ctx, s.Content.Projects, r) }},
		{models.CollSkills, f.Skills, func(r map[string]any) error { return seedOne(ctx, s.Content.Skills, r) }},
		{models.CollServices, f.Services, func(r map[string]any) error { return seedOne(ctx, s.Content.Services, r) }},
		{models.CollTimeline, f.Timeline, func(r map[string]any) error { return seedOne(ctx, s.Content.Timeline, r) }},
		{models.CollApproach, f.Approach, func(r map[string]any) error { return seedOne(ctx, s.Content.Approach, r) }},
	}
	for _, step := range steps {
		for i, record := range step.records {
			if err := step.create(record); err != nil {
				return report, fmt.Errorf("%s[%d]: %w", step.coll, i, err)
			}
			report[step.coll]++
		}
	}
	if len(f.About) > 0 {
		var patch models.AboutPatch
		if err := remarshal(f.About, &patch); err != nil {
			return report, fmt.Errorf("about: %w", err)
		}
		if _, err := s.About.Update(ctx, &patch); err != nil {
			return report, fmt.Errorf("about: %w", err)
		}
		report[models.CollAbout] = 1
	}
	return report, nil
}

// Destroy removes all seeded content. Users, contacts, CVs and settings are
// kept.
func (s Seeder) Destroy(ctx context.Context) (map[string]int64, error) {
	report := map[string]int64{}
	for _, coll := range seededCollections {
		n, err := s.Store.DeleteMany(ctx, coll, store.Filter{})
		if err != nil {
			return report, fmt.Errorf("%s: %w", coll, err)
		}
		report[coll] = n
	}
	return report, nil
}

func seedOne[T any, P any](ctx context.Context, res Resource[T, P], record map[string]any) error {
	item := res.New()
	if err := remarshal(record, &item); err != nil {
		return err
	}
	_, err := res.Create(ctx, &item)
	return err
}

// remarshal decodes a loosely typed record into out through JSON, so that
// the API's field names apply.
func remarshal(in any, out any) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
