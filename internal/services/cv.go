package services

import (
	"context"
	"time"

	"portfolio-backend-go/internal/models"
	"portfolio-backend-go/internal/store"
)

const cvActiveFlag = "isActive"

type CVService struct {
	Store    store.Store
	Listener ChangeListener
}

type CVInput struct {
	Title           string `json:"title"`
	GoogleDriveLink string `json:"googleDriveLink" validate:"required,httpurl"`
	Description     string `json:"description"`
}

// CVView is the public shape of a CV record.
type CVView struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	GoogleDriveLink string    `json:"googleDriveLink"`
	Description     string    `json:"description"`
	UploadedAt      time.Time `json:"uploadedAt"`
	ViewCount       *int64    `json:"viewCount,omitempty"`
}

type CVLink struct {
	GoogleDriveLink string `json:"googleDriveLink"`
	Title           string `json:"title"`
}

type Uploader struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CVRecord is a CV as listed to admins, with the uploader resolved.
type CVRecord struct {
	models.CV
	UploadedBy *Uploader `json:"uploadedBy"`
}

func viewOf(cv models.CV, withCount bool) CVView {
	view := CVView{
		ID:              cv.ID,
		Title:           cv.Title,
		GoogleDriveLink: cv.GoogleDriveLink,
		Description:     cv.Description,
		UploadedAt:      cv.CreatedAt,
	}
	if withCount {
		count := cv.ViewCount
		view.ViewCount = &count
	}
	return view
}

// Upload stores a new CV as the only active one.
func (s CVService) Upload(ctx context.Context, actor Principal, in CVInput) (CVView, error) {
	if err := check(&in); err != nil {
		return CVView{}, err
	}
	if in.Title == "" {
		in.Title = "My CV"
	}
	doc, err := store.FromValue(models.CV{
		Title:           in.Title,
		GoogleDriveLink: in.GoogleDriveLink,
		Description:     in.Description,
		UploadedBy:      actor.UserID,
		IsActive:        true,
	})
	if err != nil {
		return CVView{}, err
	}
	saved, err := s.Store.InsertExclusive(ctx, models.CollCVs, cvActiveFlag, doc)
	if err != nil {
		return CVView{}, err
	}
	recordMutation(ctx, s.Listener, models.CollCVs, "create")
	cv, err := decodeAs[models.CV](saved)
	if err != nil {
		return CVView{}, err
	}
	return viewOf(cv, false), nil
}

func (s CVService) Active(ctx context.Context) (CVView, error) {
	cv, err := s.active(ctx)
	if err != nil {
		return CVView{}, err
	}
	return viewOf(cv, true), nil
}

// Download returns the active link and counts the view.
func (s CVService) Download(ctx context.Context) (CVLink, error) {
	cv, err := s.active(ctx)
	if err != nil {
		return CVLink{}, err
	}
	if _, err := s.Store.Increment(ctx, models.CollCVs, cv.ID, "viewCount", 1); err != nil {
		return CVLink{}, notFoundAs(err, "No CV available")
	}
	return CVLink{GoogleDriveLink: cv.GoogleDriveLink, Title: cv.Title}, nil
}

func (s CVService) Activate(ctx context.Context, id string) (models.CV, error) {
	doc, err := s.Store.SetExclusive(ctx, models.CollCVs, cvActiveFlag, id)
	if err != nil {
		return models.CV{}, notFoundAs(err, "CV not found with id of "+id)
	}
	recordMutation(ctx, s.Listener, models.CollCVs, "update")
	return decodeAs[models.CV](doc)
}

// All lists every CV, newest first.
func (s CVService) All(ctx context.Context) ([]CVRecord, error) {
	docs, err := s.Store.Find(ctx, models.CollCVs, store.Query{
		Sort: []store.SortKey{{Field: store.FieldCreatedAt, Desc: true}},
	})
	if err != nil {
		return nil, err
	}
	cvs, err := decodeAll[models.CV](docs)
	if err != nil {
		return nil, err
	}
	uploaders, err := s.uploaders(ctx, cvs)
	if err != nil {
		return nil, err
	}
	out := make([]CVRecord, 0, len(cvs))
	for _, cv := range cvs {
		out = append(out, CVRecord{CV: cv, UploadedBy: uploaders[cv.UploadedBy]})
	}
	return out, nil
}

// Delete never promotes another record to active.
func (s CVService) Delete(ctx context.Context, id string) error {
	if err := s.Store.Delete(ctx, models.CollCVs, id); err != nil {
		return notFoundAs(err, "CV not found with id of "+id)
	}
	recordMutation(ctx, s.Listener, models.CollCVs, "delete")
	return nil
}

func (s CVService) active(ctx context.Context) (models.CV, error) {
	docs, err := s.Store.Find(ctx, models.CollCVs, store.Query{
		Filter: store.Filter{Equals: map[string]any{cvActiveFlag: true}},
		Sort:   []store.SortKey{{Field: store.FieldCreatedAt, Desc: true}},
		Limit:  1,
	})
	if err != nil {
		return models.CV{}, err
	}
	if len(docs) == 0 {
		return models.CV{}, ErrNotFound("No CV available")
	}
	return decodeAs[models.CV](docs[0])
}

func (s CVService) uploaders(ctx context.Context, cvs []models.CV) (map[string]*Uploader, error) {
	ids := make([]string, 0, len(cvs))
	seen := map[string]bool{}
	for _, cv := range cvs {
		if cv.UploadedBy != "" && !seen[cv.UploadedBy] {
			seen[cv.UploadedBy] = true
			ids = append(ids, cv.UploadedBy)
		}
	}
	out := map[string]*Uploader{}
	if len(ids) == 0 {
		return out, nil
	}
	docs, err := s.Store.Find(ctx, models.CollUsers, store.Query{Filter: store.Filter{IDs: ids}})
	if err != nil {
		return nil, err
	}
	users, err := decodeAll[models.User](docs)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = &Uploader{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	return out, nil
}
