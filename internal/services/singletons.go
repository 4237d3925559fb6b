package services

import (
	"context"
	"errors"
	"strings"

	"portfolio-backend-go/internal/models"
	"portfolio-backend-go/internal/store"
)

type AboutService struct {
	Store    store.Store
	Listener ChangeListener
}

// Get returns nil when the about document has not been written yet.
func (s AboutService) Get(ctx context.Context) (*models.About, error) {
	doc, err := s.Store.Get(ctx, models.CollAbout, models.AboutKey)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	about, err := decodeAs[models.About](doc)
	if err != nil {
		return nil, err
	}
	return &about, nil
}

// Update merges patch into the about document, creating it on first write.
// Creation requires name, title and profileImage.
func (s AboutService) Update(ctx context.Context, patch *models.AboutPatch) (models.About, error) {
	if err := check(patch); err != nil {
		return models.About{}, err
	}
	set, err := store.FromValue(patch)
	if err != nil {
		return models.About{}, err
	}
	doc, err := s.Store.Patch(ctx, models.CollAbout, models.AboutKey, set)
	if errors.Is(err, store.ErrNotFound) {
		doc, err = s.create(ctx, patch, set)
	}
	if err != nil {
		return models.About{}, err
	}
	recordMutation(ctx, s.Listener, models.CollAbout, "update")
	return decodeAs[models.About](doc)
}

func (s AboutService) create(ctx context.Context, patch *models.AboutPatch, set store.Document) (store.Document, error) {
	var missing []FieldError
	for _, f := range []struct {
		name  string
		value *string
	}{{"name", patch.Name}, {"title", patch.Title}, {"profileImage", patch.ProfileImage}} {
		if f.value == nil || *f.value == "" {
			missing = append(missing, FieldError{Field: f.name, Message: "Please provide " + strings.ToLower(humanize(f.name))})
		}
	}
	if len(missing) > 0 {
		return nil, ErrValidationFields(missing)
	}
	initial, err := store.FromValue(models.About{Bio: []string{}})
	if err != nil {
		return nil, err
	}
	for k, v := range set {
		initial[k] = v
	}
	initial[store.FieldID] = models.AboutKey
	doc, err := s.Store.Insert(ctx, models.CollAbout, initial)
	if errors.Is(err, store.ErrDuplicate) {
		// Lost the race against a concurrent first write.
		return s.Store.Patch(ctx, models.CollAbout, models.AboutKey, set)
	}
	return doc, err
}

type SettingsService struct {
	Store    store.Store
	Listener ChangeListener
}

func defaultSettings() store.Document {
	return store.Document{
		"isActive":           true,
		"maintenanceTitle":   models.DefaultMaintenanceTitle,
		"maintenanceMessage": models.DefaultMaintenanceMessage,
	}
}

// GetOrCreate returns the site settings, writing the defaults on first
// access. Concurrent first calls converge on the same document.
func (s SettingsService) GetOrCreate(ctx context.Context) (models.SiteSettings, error) {
	doc, err := s.Store.EnsureOne(ctx, models.CollSettings, models.SettingsKey, defaultSettings())
	if err != nil {
		return models.SiteSettings{}, err
	}
	return decodeAs[models.SiteSettings](doc)
}

// Update applies the present fields. Blank titles and messages keep the
// stored value.
func (s SettingsService) Update(ctx context.Context, patch models.SiteSettingsPatch) (models.SiteSettings, error) {
	if err := check(&patch); err != nil {
		return models.SiteSettings{}, err
	}
	if patch.MaintenanceTitle != nil && *patch.MaintenanceTitle == "" {
		patch.MaintenanceTitle = nil
	}
	if patch.MaintenanceMessage != nil && *patch.MaintenanceMessage == "" {
		patch.MaintenanceMessage = nil
	}
	current, err := s.GetOrCreate(ctx)
	if err != nil {
		return models.SiteSettings{}, err
	}
	set, err := store.FromValue(patch)
	if err != nil {
		return models.SiteSettings{}, err
	}
	if len(set) == 0 {
		return current, nil
	}
	return s.patch(ctx, set)
}

// Toggle flips isActive and returns the new settings.
func (s SettingsService) Toggle(ctx context.Context) (models.SiteSettings, error) {
	current, err := s.GetOrCreate(ctx)
	if err != nil {
		return models.SiteSettings{}, err
	}
	return s.patch(ctx, store.Document{"isActive": !current.IsActive})
}

func (s SettingsService) patch(ctx context.Context, set store.Document) (models.SiteSettings, error) {
	doc, err := s.Store.Patch(ctx, models.CollSettings, models.SettingsKey, set)
	if err != nil {
		return models.SiteSettings{}, err
	}
	recordMutation(ctx, s.Listener, models.CollSettings, "update")
	return decodeAs[models.SiteSettings](doc)
}
