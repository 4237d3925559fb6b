// Package store is a small document-store abstraction over the collections
// the portfolio keeps. Documents are JSON objects; every driver assigns the
// "id", "createdAt" and "updatedAt" fields.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("document not found")
	ErrDuplicate         = errors.New("duplicate key")
	ErrInvalidID         = errors.New("invalid document id")
	ErrUnknownCollection = errors.New("unknown collection")
)

const (
	FieldID        = "id"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// Document is a single stored record.
type Document map[string]any

func (d Document) ID() string {
	id, _ := d[FieldID].(string)
	return id
}

// Decode converts the document into a typed value through its JSON form.
func (d Document) Decode(out any) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// FromValue converts a typed value into a document, dropping the fields the
// store manages itself.
func FromValue(v any) (Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	doc := Document{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	delete(doc, FieldID)
	delete(doc, FieldCreatedAt)
	delete(doc, FieldUpdatedAt)
	return doc, nil
}

// Filter restricts a query to documents whose fields equal the given values
// and, when IDs is non-nil, whose id is in the list.
type Filter struct {
	Equals map[string]any
	IDs    []string
}

// Search is a case-insensitive literal substring match across Fields. Array
// fields match when any element matches.
type Search struct {
	Fields []string
	Term   string
}

type SortKey struct {
	Field string
	Desc  bool
}

type Query struct {
	Filter Filter
	Search Search
	Sort   []SortKey
	Skip   int
	Limit  int
}

// Schema declares a collection and its unique fields.
type Schema struct {
	Name   string
	Unique []string
}

type Store interface {
	Insert(ctx context.Context, coll string, doc Document) (Document, error)
	Get(ctx context.Context, coll, id string) (Document, error)
	Find(ctx context.Context, coll string, q Query) ([]Document, error)
	Count(ctx context.Context, coll string, f Filter) (int64, error)
	// Patch merges set into the document in one find-and-modify step and
	// returns the updated document.
	Patch(ctx context.Context, coll, id string, set Document) (Document, error)
	PatchMany(ctx context.Context, coll string, f Filter, set Document) (int64, error)
	Delete(ctx context.Context, coll, id string) error
	DeleteMany(ctx context.Context, coll string, f Filter) (int64, error)
	// EnsureOne returns the document stored under key, creating it from
	// defaults when absent.
	EnsureOne(ctx context.Context, coll, key string, defaults Document) (Document, error)
	// InsertExclusive clears flag on every document and inserts doc with
	// flag set.
	InsertExclusive(ctx context.Context, coll, flag string, doc Document) (Document, error)
	// SetExclusive clears flag on every document and sets it on id.
	SetExclusive(ctx context.Context, coll, flag, id string) (Document, error)
	Increment(ctx context.Context, coll, id, field string, delta int64) (Document, error)
	Close() error
}

// Timestamp renders t in a fixed-width form so that string order equals time
// order.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z07:00")
}

func now() string {
	return Timestamp(time.Now())
}

// stamp prepares a new document for insertion.
func stamp(doc Document) Document {
	out := make(Document, len(doc)+3)
	for k, v := range doc {
		out[k] = v
	}
	if out.ID() == "" {
		out[FieldID] = uuid.NewString()
	}
	ts := now()
	out[FieldCreatedAt] = ts
	out[FieldUpdatedAt] = ts
	return out
}

// cleanSet strips managed fields from an update and records the new
// modification time.
func cleanSet(set Document) Document {
	out := make(Document, len(set)+1)
	for k, v := range set {
		if k == FieldID || k == FieldCreatedAt || k == FieldUpdatedAt {
			continue
		}
		out[k] = v
	}
	out[FieldUpdatedAt] = now()
	return out
}

func validID(id string) error {
	if id == "" || len(id) > 128 {
		return ErrInvalidID
	}
	for _, r := range id {
		if r < 0x21 || r == 0x7f {
			return ErrInvalidID
		}
	}
	return nil
}

type registry map[string]Schema

func newRegistry(schemas []Schema) registry {
	reg := registry{}
	for _, s := range schemas {
		reg[s.Name] = s
	}
	return reg
}

func (r registry) lookup(coll string) (Schema, error) {
	schema, ok := r[coll]
	if !ok {
		return Schema{}, fmt.Errorf("%w: %s", ErrUnknownCollection, coll)
	}
	return schema, nil
}
