package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBolt(t *testing.T) *BoltStore {
	t.Helper()
	s, err := NewBoltStore(filepath.Join(t.TempDir(), "test.db"),
		Schema{Name: "items"},
		Schema{Name: "skills", Unique: []string{"name"}},
		Schema{Name: "cvs"},
		Schema{Name: "settings"},
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBoltInsertGet(t *testing.T) {
	s := newTestBolt(t)
	ctx := context.Background()

	doc, err := s.Insert(ctx, "items", Document{"title": "alpha", "order": 2, "tags": []string{"go"}})
	require.NoError(t, err)
	require.NotEmpty(t, doc.ID())
	assert.NotEmpty(t, doc[FieldCreatedAt])
	assert.Equal(t, doc[FieldCreatedAt], doc[FieldUpdatedAt])

	got, err := s.Get(ctx, "items", doc.ID())
	require.NoError(t, err)
	assert.Equal(t, doc, got)
	assert.Equal(t, float64(2), got["order"])
}

func TestBoltUnknownCollection(t *testing.T) {
	s := newTestBolt(t)
	_, err := s.Insert(context.Background(), "nope", Document{})
	assert.ErrorIs(t, err, ErrUnknownCollection)
}

func TestBoltMissingAndInvalidIDs(t *testing.T) {
	s := newTestBolt(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "items", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Patch(ctx, "items", "missing", Document{"title": "x"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "items", "missing"), ErrNotFound)

	_, err = s.Get(ctx, "items", "bad id")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestBoltFindFilterSortWindow(t *testing.T) {
	s := newTestBolt(t)
	ctx := context.Background()

	for i, item := range []Document{
		{"title": "c", "order": 1, "featured": true},
		{"title": "a", "order": 0, "featured": false},
		{"title": "b", "order": 1, "featured": true},
		{"title": "d", "order": 3},
	} {
		_, err := s.Insert(ctx, "items", item)
		require.NoError(t, err, "insert %d", i)
	}

	docs, err := s.Find(ctx, "items", Query{Sort: []SortKey{{Field: "order"}, {Field: "title"}}})
	require.NoError(t, err)
	titles := make([]string, 0, len(docs))
	for _, d := range docs {
		titles = append(titles, d["title"].(string))
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, titles)

	featured, err := s.Find(ctx, "items", Query{Filter: Filter{Equals: map[string]any{"featured": true}}})
	require.NoError(t, err)
	assert.Len(t, featured, 2)

	n, err := s.Count(ctx, "items", Filter{Equals: map[string]any{"order": 1}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	page, err := s.Find(ctx, "items", Query{Sort: []SortKey{{Field: "title", Desc: true}}, Skip: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "c", page[0]["title"])
	assert.Equal(t, "b", page[1]["title"])

	beyond, err := s.Find(ctx, "items", Query{Skip: 10, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, beyond)
}

func TestBoltWindowPastEnd(t *testing.T) {
	s := newTestBolt(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := s.Insert(ctx, "items", Document{"order": i})
		require.NoError(t, err)
	}

	docs, err := s.Find(ctx, "items", Query{Skip: 8, Limit: 2})
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)

	docs, err = s.Find(ctx, "items", Query{Skip: 3})
	require.NoError(t, err)
	assert.Empty(t, docs)

	n, err := s.Count(ctx, "items", Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestBoltSearchIsLiteral(t *testing.T) {
	s := newTestBolt(t)
	ctx := context.Background()

	_, err := s.Insert(ctx, "items", Document{"title": "Go (1.22) release", "tags": []string{"Backend"}})
	require.NoError(t, err)
	_, err = s.Insert(ctx, "items", Document{"title": "Anything", "tags": []string{"frontend"}})
	require.NoError(t, err)

	docs, err := s.Find(ctx, "items", Query{Search: Search{Fields: []string{"title"}, Term: "(1.22)"}})
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	docs, err = s.Find(ctx, "items", Query{Search: Search{Fields: []string{"title"}, Term: ".*"}})
	require.NoError(t, err)
	assert.Empty(t, docs)

	docs, err = s.Find(ctx, "items", Query{Search: Search{Fields: []string{"title", "tags"}, Term: "BACKEND"}})
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestBoltPatchMergesFields(t *testing.T) {
	s := newTestBolt(t)
	ctx := context.Background()

	doc, err := s.Insert(ctx, "items", Document{"title": "a", "order": 1})
	require.NoError(t, err)

	patched, err := s.Patch(ctx, "items", doc.ID(), Document{"order": 5, FieldID: "hijack"})
	require.NoError(t, err)
	assert.Equal(t, doc.ID(), patched.ID())
	assert.Equal(t, "a", patched["title"])
	assert.Equal(t, float64(5), patched["order"])
	assert.Equal(t, doc[FieldCreatedAt], patched[FieldCreatedAt])
	assert.GreaterOrEqual(t, patched[FieldUpdatedAt].(string), doc[FieldUpdatedAt].(string))
}

func TestBoltUniqueFields(t *testing.T) {
	s := newTestBolt(t)
	ctx := context.Background()

	first, err := s.Insert(ctx, "skills", Document{"name": "Nmap"})
	require.NoError(t, err)
	_, err = s.Insert(ctx, "skills", Document{"name": "Nmap"})
	assert.ErrorIs(t, err, ErrDuplicate)

	second, err := s.Insert(ctx, "skills", Document{"name": "Wireshark"})
	require.NoError(t, err)
	_, err = s.Patch(ctx, "skills", second.ID(), Document{"name": "Nmap"})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = s.Patch(ctx, "skills", first.ID(), Document{"name": "Nmap"})
	assert.NoError(t, err)
}

func TestBoltManyOperationsCountExisting(t *testing.T) {
	s := newTestBolt(t)
	ctx := context.Background()

	a, err := s.Insert(ctx, "items", Document{"status": "draft"})
	require.NoError(t, err)
	b, err := s.Insert(ctx, "items", Document{"status": "draft"})
	require.NoError(t, err)

	n, err := s.PatchMany(ctx, "items", Filter{IDs: []string{a.ID(), "ghost"}}, Document{"status": "active"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.DeleteMany(ctx, "items", Filter{IDs: []string{a.ID(), b.ID(), "ghost"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = s.DeleteMany(ctx, "items", Filter{IDs: []string{}})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBoltEnsureOneIsIdempotent(t *testing.T) {
	s := newTestBolt(t)
	ctx := context.Background()

	first, err := s.EnsureOne(ctx, "settings", "site", Document{"isActive": true})
	require.NoError(t, err)
	_, err = s.Patch(ctx, "settings", "site", Document{"isActive": false})
	require.NoError(t, err)
	second, err := s.EnsureOne(ctx, "settings", "site", Document{"isActive": true})
	require.NoError(t, err)

	assert.Equal(t, "site", first.ID())
	assert.Equal(t, false, second["isActive"])
	n, err := s.Count(ctx, "settings", Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestBoltExclusiveFlag(t *testing.T) {
	s := newTestBolt(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		doc, err := s.InsertExclusive(ctx, "cvs", "isActive", Document{"title": "cv"})
		require.NoError(t, err)
		ids = append(ids, doc.ID())
	}
	active, err := s.Find(ctx, "cvs", Query{Filter: Filter{Equals: map[string]any{"isActive": true}}})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, ids[2], active[0].ID())

	_, err = s.SetExclusive(ctx, "cvs", "isActive", ids[0])
	require.NoError(t, err)
	active, err = s.Find(ctx, "cvs", Query{Filter: Filter{Equals: map[string]any{"isActive": true}}})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, ids[0], active[0].ID())

	_, err = s.SetExclusive(ctx, "cvs", "isActive", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	n, err := s.Count(ctx, "cvs", Filter{Equals: map[string]any{"isActive": true}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestBoltIncrement(t *testing.T) {
	s := newTestBolt(t)
	ctx := context.Background()

	doc, err := s.Insert(ctx, "cvs", Document{"viewCount": 0})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		doc, err = s.Increment(ctx, "cvs", doc.ID(), "viewCount", 1)
		require.NoError(t, err)
	}
	assert.Equal(t, float64(3), doc["viewCount"])
}

func TestDocumentDecodeRoundTrip(t *testing.T) {
	type item struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Order int    `json:"order"`
	}
	doc, err := FromValue(item{ID: "dropped", Title: "x", Order: 4})
	require.NoError(t, err)
	_, hasID := doc[FieldID]
	assert.False(t, hasID)

	doc[FieldID] = "kept"
	var out item
	require.NoError(t, doc.Decode(&out))
	assert.Equal(t, item{ID: "kept", Title: "x", Order: 4}, out)
}
