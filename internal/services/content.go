package services

import (
	"portfolio-backend-go/internal/models"
	"portfolio-backend-go/internal/store"
)

type (
	Projects = Resource[models.Project, models.ProjectPatch]
	Skills   = Resource[models.Skill, models.SkillPatch]
	Services = Resource[models.Service, models.ServicePatch]
	Timeline = Resource[models.TimelineEntry, models.TimelinePatch]
	Approach = Resource[models.Approach, models.ApproachPatch]
)

// Content bundles the five content resources.
type Content struct {
	Projects Projects
	Skills   Skills
	Services Services
	Timeline Timeline
	Approach Approach
}

var (
	orderAsc      = store.SortKey{Field: "order"}
	createdAtAsc  = store.SortKey{Field: store.FieldCreatedAt}
	createdAtDesc = store.SortKey{Field: store.FieldCreatedAt, Desc: true}
)

func NewContent(st store.Store, listener ChangeListener) Content {
	return Content{
		Projects: Projects{Store: st, Listener: listener, Spec: ResourceSpec[models.Project]{
			Collection: models.CollProjects,
			Name:       "Project",
			Defaults: func() models.Project {
				return models.Project{Link: "#", Status: models.ProjectActive, Technologies: []string{}}
			},
			Filters:  []FilterSpec{{Field: "status"}, {Field: "featured", Bool: true}},
			Sort:     []store.SortKey{orderAsc, createdAtDesc},
			Paginate: &PageSpec{DefaultLimit: 10, MaxLimit: 100},
		}},
		Skills: Skills{Store: st, Listener: listener, Spec: ResourceSpec[models.Skill]{
			Collection: models.CollSkills,
			Name:       "Skill",
			Defaults: func() models.Skill {
				return models.Skill{Color: "text-gray-400", Category: "Other"}
			},
			Filters: []FilterSpec{{Field: "category"}, {Field: "featured", Bool: true}},
			Sort:    []store.SortKey{orderAsc, {Field: "name"}},
		}},
		Services: Services{Store: st, Listener: listener, Spec: ResourceSpec[models.Service]{
			Collection: models.CollServices,
			Name:       "Service",
			Defaults:   func() models.Service { return models.Service{Active: true} },
			Filters:    []FilterSpec{{Field: "active", Bool: true}},
			Sort:       []store.SortKey{orderAsc, createdAtDesc},
		}},
		Timeline: Timeline{Store: st, Listener: listener, Spec: ResourceSpec[models.TimelineEntry]{
			Collection: models.CollTimeline,
			Name:       "Timeline entry",
			Defaults:   func() models.TimelineEntry { return models.TimelineEntry{Position: "left"} },
			Sort:       []store.SortKey{orderAsc, createdAtAsc},
		}},
		Approach: Approach{Store: st, Listener: listener, Spec: ResourceSpec[models.Approach]{
			Collection: models.CollApproach,
			Name:       "Approach item",
			Defaults:   func() models.Approach { return models.Approach{Featured: true, Active: true} },
			Filters:    []FilterSpec{{Field: "featured", Bool: true}, {Field: "active", Bool: true}},
			Sort:       []store.SortKey{orderAsc, createdAtAsc},
		}},
	}
}
