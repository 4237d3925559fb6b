package services

import (
	"context"
	"fmt"

	"portfolio-backend-go/internal/store"

	"github.com/samber/lo"
)

// FilterSpec declares a query-string filter. Bool filters accept only
// "true" and "false"; the rest compare the raw string.
type FilterSpec struct {
	Field string
	Bool  bool
}

type PageSpec struct {
	DefaultLimit int
	MaxLimit     int
}

// ResourceSpec parameterizes the generic content contract for one
// collection.
type ResourceSpec[T any] struct {
	Collection string
	Name       string
	Defaults   func() T
	// Prepare runs on create input before validation.
	Prepare  func(*T)
	Filters  []FilterSpec
	Sort     []store.SortKey
	Paginate *PageSpec
}

type ListParams struct {
	Filters map[string]string
	Page    int
	Limit   int
}

type ListResult[T any] struct {
	Items     []T
	Total     int64
	Page      int
	Pages     int
	Paginated bool
}

// Resource implements list/get/create/update/delete for a collection whose
// documents decode into T and whose partial updates decode into P.
type Resource[T any, P any] struct {
	Spec     ResourceSpec[T]
	Store    store.Store
	Listener ChangeListener
}

// New returns a value populated with the collection defaults, ready for a
// request body to be decoded over it.
func (r Resource[T, P]) New() T {
	if r.Spec.Defaults == nil {
		var zero T
		return zero
	}
	return r.Spec.Defaults()
}

func (r Resource[T, P]) List(ctx context.Context, params ListParams) (ListResult[T], error) {
	filter, err := r.filter(params.Filters)
	if err != nil {
		return ListResult[T]{}, err
	}
	q := store.Query{Filter: filter, Sort: r.Spec.Sort}
	result := ListResult[T]{}

	if p := r.Spec.Paginate; p != nil {
		page, limit := normalizePage(params.Page, params.Limit, p)
		total, err := r.Store.Count(ctx, r.Spec.Collection, filter)
		if err != nil {
			return ListResult[T]{}, err
		}
		q.Skip = (page - 1) * limit
		q.Limit = limit
		result.Paginated = true
		result.Total = total
		result.Page = page
		result.Pages = int((total + int64(limit) - 1) / int64(limit))
	}

	docs, err := r.Store.Find(ctx, r.Spec.Collection, q)
	if err != nil {
		return ListResult[T]{}, err
	}
	items, err := decodeAll[T](docs)
	if err != nil {
		return ListResult[T]{}, err
	}
	result.Items = items
	if !result.Paginated {
		result.Total = int64(len(items))
	}
	return result, nil
}

func (r Resource[T, P]) Get(ctx context.Context, id string) (T, error) {
	doc, err := r.Store.Get(ctx, r.Spec.Collection, id)
	if err != nil {
		var zero T
		return zero, notFoundAs(err, r.notFound())
	}
	return decodeAs[T](doc)
}

func (r Resource[T, P]) Create(ctx context.Context, item *T) (T, error) {
	var zero T
	if r.Spec.Prepare != nil {
		r.Spec.Prepare(item)
	}
	if err := check(item); err != nil {
		return zero, err
	}
	doc, err := store.FromValue(item)
	if err != nil {
		return zero, err
	}
	saved, err := r.Store.Insert(ctx, r.Spec.Collection, doc)
	if err != nil {
		return zero, err
	}
	recordMutation(ctx, r.Listener, r.Spec.Collection, "create")
	return decodeAs[T](saved)
}

// Update validates only the fields present in patch and applies them in a
// single find-and-modify.
func (r Resource[T, P]) Update(ctx context.Context, id string, patch *P) (T, error) {
	var zero T
	if err := check(patch); err != nil {
		return zero, err
	}
	set, err := store.FromValue(patch)
	if err != nil {
		return zero, err
	}
	if len(set) == 0 {
		return r.Get(ctx, id)
	}
	doc, err := r.Store.Patch(ctx, r.Spec.Collection, id, set)
	if err != nil {
		return zero, notFoundAs(err, r.notFound())
	}
	recordMutation(ctx, r.Listener, r.Spec.Collection, "update")
	return decodeAs[T](doc)
}

func (r Resource[T, P]) Delete(ctx context.Context, id string) error {
	if err := r.Store.Delete(ctx, r.Spec.Collection, id); err != nil {
		return notFoundAs(err, r.notFound())
	}
	recordMutation(ctx, r.Listener, r.Spec.Collection, "delete")
	return nil
}

func (r Resource[T, P]) filter(raw map[string]string) (store.Filter, error) {
	equals := map[string]any{}
	for _, spec := range r.Spec.Filters {
		value, ok := raw[spec.Field]
		if !ok || value == "" {
			continue
		}
		if !spec.Bool {
			equals[spec.Field] = value
			continue
		}
		flag, ok := parseBoolFlag(value)
		if !ok {
			return store.Filter{}, ErrValidation(fmt.Sprintf("Invalid value for %s: expected true or false", spec.Field))
		}
		equals[spec.Field] = flag
	}
	return store.Filter{Equals: equals}, nil
}

func (r Resource[T, P]) notFound() string {
	return r.Spec.Name + " not found"
}

func parseBoolFlag(value string) (bool, bool) {
	switch value {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

func normalizePage(page, limit int, spec *PageSpec) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = spec.DefaultLimit
	}
	return page, lo.Clamp(limit, 1, spec.MaxLimit)
}
