package services

import (
	"context"
	"html"
	"strings"
	"sync"

	"portfolio-backend-go/internal/logging"
	"portfolio-backend-go/internal/models"
	"portfolio-backend-go/internal/store"
)

type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// ContactReceipt is what the submitter gets back.
type ContactReceipt struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
}

type ContactService struct {
	Store    store.Store
	Notifier Notifier

	pending sync.WaitGroup
}

var contactPage = &PageSpec{DefaultLimit: 20, MaxLimit: 100}

// Submit stores the message and notifies in the background. Notification
// failures are logged only.
func (s *ContactService) Submit(ctx context.Context, in ContactInput, ip, userAgent string) (ContactReceipt, error) {
	contact := models.Contact{
		Name:      in.Name,
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Subject:   in.Subject,
		Message:   in.Message,
		Status:    models.ContactNew,
		IPAddress: ip,
		UserAgent: userAgent,
	}
	if err := check(&contact); err != nil {
		return ContactReceipt{}, err
	}
	contact.Name = html.EscapeString(contact.Name)
	contact.Subject = html.EscapeString(contact.Subject)
	contact.Message = html.EscapeString(contact.Message)

	doc, err := store.FromValue(contact)
	if err != nil {
		return ContactReceipt{}, err
	}
	saved, err := s.Store.Insert(ctx, models.CollContacts, doc)
	if err != nil {
		return ContactReceipt{}, err
	}
	stored, err := decodeAs[models.Contact](saved)
	if err != nil {
		return ContactReceipt{}, err
	}

	if s.Notifier != nil {
		bg := context.WithoutCancel(ctx)
		s.pending.Add(1)
		go func() {
			defer s.pending.Done()
			if err := s.Notifier.ContactReceived(bg, stored); err != nil {
				logging.WithComponent("contacts").Warn().Err(err).Str("contact_id", stored.ID).Msg("contact notification failed")
			}
		}()
	}

	return ContactReceipt{ID: stored.ID, Name: stored.Name, Email: stored.Email, Subject: stored.Subject}, nil
}

// Wait blocks until every in-flight notification has finished.
func (s *ContactService) Wait() {
	s.pending.Wait()
}

func (s *ContactService) List(ctx context.Context, status string, page, limit int) (ListResult[models.Contact], error) {
	filter := store.Filter{}
	if status != "" {
		filter.Equals = map[string]any{"status": status}
	}
	page, limit = normalizePage(page, limit, contactPage)
	total, err := s.Store.Count(ctx, models.CollContacts, filter)
	if err != nil {
		return ListResult[models.Contact]{}, err
	}
	docs, err := s.Store.Find(ctx, models.CollContacts, store.Query{
		Filter: filter,
		Sort:   []store.SortKey{{Field: store.FieldCreatedAt, Desc: true}},
		Skip:   (page - 1) * limit,
		Limit:  limit,
	})
	if err != nil {
		return ListResult[models.Contact]{}, err
	}
	items, err := decodeAll[models.Contact](docs)
	if err != nil {
		return ListResult[models.Contact]{}, err
	}
	return ListResult[models.Contact]{
		Items:     items,
		Total:     total,
		Page:      page,
		Pages:     int((total + int64(limit) - 1) / int64(limit)),
		Paginated: true,
	}, nil
}

// Get returns the message and marks it read the first time it is opened.
func (s *ContactService) Get(ctx context.Context, id string) (models.Contact, error) {
	doc, err := s.Store.Get(ctx, models.CollContacts, id)
	if err != nil {
		return models.Contact{}, notFoundAs(err, "Contact not found with id of "+id)
	}
	contact, err := decodeAs[models.Contact](doc)
	if err != nil {
		return models.Contact{}, err
	}
	if contact.Status != models.ContactNew {
		return contact, nil
	}
	return s.setStatus(ctx, id, models.ContactRead)
}

type ContactStatusInput struct {
	Status string `json:"status" validate:"required,oneof=new read replied archived"`
}

func (s *ContactService) UpdateStatus(ctx context.Context, id string, in ContactStatusInput) (models.Contact, error) {
	if err := check(&in); err != nil {
		return models.Contact{}, err
	}
	return s.setStatus(ctx, id, in.Status)
}

func (s *ContactService) Delete(ctx context.Context, id string) error {
	return notFoundAs(s.Store.Delete(ctx, models.CollContacts, id), "Contact not found with id of "+id)
}

func (s *ContactService) setStatus(ctx context.Context, id, status string) (models.Contact, error) {
	doc, err := s.Store.Patch(ctx, models.CollContacts, id, store.Document{"status": status})
	if err != nil {
		return models.Contact{}, notFoundAs(err, "Contact not found with id of "+id)
	}
	return decodeAs[models.Contact](doc)
}
