package store

import (
	"encoding/json"
	"reflect"
	"sort"
	"strings"
)

// normalize maps a Go value onto the shape encoding/json produces when
// decoding into any, so filter values compare equal to stored values.
func normalize(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}

func normalizeFilter(f Filter) Filter {
	if len(f.Equals) == 0 {
		return f
	}
	equals := make(map[string]any, len(f.Equals))
	for k, v := range f.Equals {
		equals[k] = normalize(v)
	}
	return Filter{Equals: equals, IDs: f.IDs}
}

// matches reports whether doc satisfies an already normalized filter.
func matches(doc Document, f Filter) bool {
	if f.IDs != nil {
		id := doc.ID()
		found := false
		for _, candidate := range f.IDs {
			if candidate == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for field, want := range f.Equals {
		if !reflect.DeepEqual(doc[field], want) {
			return false
		}
	}
	return true
}

func matchesSearch(doc Document, s Search) bool {
	if s.Term == "" || len(s.Fields) == 0 {
		return true
	}
	term := strings.ToLower(s.Term)
	for _, field := range s.Fields {
		switch value := doc[field].(type) {
		case string:
			if strings.Contains(strings.ToLower(value), term) {
				return true
			}
		case []any:
			for _, item := range value {
				if text, ok := item.(string); ok && strings.Contains(strings.ToLower(text), term) {
					return true
				}
			}
		}
	}
	return false
}

// compareValues orders JSON scalars. Missing values sort first, then
// booleans, numbers and strings.
func compareValues(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra - rb
	}
	switch av := a.(type) {
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		default:
			return 1
		}
	case float64:
		bv := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case string:
		return strings.Compare(av, b.(string))
	}
	return 0
}

func rank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case float64:
		return 2
	case string:
		return 3
	default:
		return 4
	}
}

func sortDocs(docs []Document, keys []SortKey) {
	if len(keys) == 0 {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		for _, key := range keys {
			c := compareValues(docs[i][key.Field], docs[j][key.Field])
			if c == 0 {
				continue
			}
			if key.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func window(docs []Document, skip, limit int) []Document {
	if skip > 0 {
		if skip >= len(docs) {
			return []Document{}
		}
		docs = docs[skip:]
	}
	if limit > 0 && limit < len(docs) {
		docs = docs[:limit]
	}
	return docs
}

// runQuery applies filter, search, sort and window to an in-memory set.
func runQuery(all []Document, q Query) []Document {
	f := normalizeFilter(q.Filter)
	out := make([]Document, 0, len(all))
	for _, doc := range all {
		if matches(doc, f) && matchesSearch(doc, q.Search) {
			out = append(out, doc)
		}
	}
	sortDocs(out, q.Sort)
	return window(out, q.Skip, q.Limit)
}
