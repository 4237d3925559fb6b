package services

import (
	"context"

	"portfolio-backend-go/internal/metrics"
	"portfolio-backend-go/internal/models"
	"portfolio-backend-go/internal/store"
)

// Schemas lists every collection with its unique fields.
func Schemas() []store.Schema {
	return []store.Schema{
		{Name: models.CollProjects},
		{Name: models.CollSkills, Unique: []string{"name"}},
		{Name: models.CollServices},
		{Name: models.CollTimeline},
		{Name: models.CollApproach},
		{Name: models.CollAbout},
		{Name: models.CollSettings},
		{Name: models.CollCVs},
		{Name: models.CollContacts},
		{Name: models.CollUsers, Unique: []string{"email"}},
	}
}

func decodeAs[T any](doc store.Document) (T, error) {
	var out T
	err := doc.Decode(&out)
	return out, err
}

func decodeAll[T any](docs []store.Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		item, err := decodeAs[T](doc)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// ChangeListener is told about every successful content mutation.
type ChangeListener interface {
	ContentChanged(ctx context.Context, collection string)
}

type nopListener struct{}

func (nopListener) ContentChanged(context.Context, string) {}

func listenerOrNop(l ChangeListener) ChangeListener {
	if l == nil {
		return nopListener{}
	}
	return l
}

func recordMutation(ctx context.Context, l ChangeListener, collection, action string) {
	metrics.ContentMutationsTotal.WithLabelValues(collection, action).Inc()
	listenerOrNop(l).ContentChanged(ctx, collection)
}
