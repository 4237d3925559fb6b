package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"time"

	bolt "go.etcd.io/bbolt"
)

// BoltStore keeps one bucket per collection, keyed by document id. Queries
// scan the bucket; every mutation runs inside a single write transaction.
type BoltStore struct {
	db  *bolt.DB
	reg registry
}

func NewBoltStore(path string, schemas ...Schema) (*BoltStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data dir: %w", err)
		}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, schema := range schemas {
			if _, err := tx.CreateBucketIfNotExists([]byte(schema.Name)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", schema.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltStore{db: db, reg: newRegistry(schemas)}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) Insert(ctx context.Context, coll string, doc Document) (Document, error) {
	schema, err := s.reg.lookup(coll)
	if err != nil {
		return nil, err
	}
	out := stamp(doc)
	if err := validID(out.ID()); err != nil {
		return nil, err
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(coll))
		if b.Get([]byte(out.ID())) != nil {
			return ErrDuplicate
		}
		if err := checkUnique(b, schema, out); err != nil {
			return err
		}
		return put(b, out)
	})
	if err != nil {
		return nil, err
	}
	return normalizeDoc(out), nil
}

func (s *BoltStore) Get(ctx context.Context, coll, id string) (Document, error) {
	if _, err := s.reg.lookup(coll); err != nil {
		return nil, err
	}
	if err := validID(id); err != nil {
		return nil, err
	}
	var doc Document
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		doc, err = get(tx.Bucket([]byte(coll)), id)
		return err
	})
	return doc, err
}

func (s *BoltStore) Find(ctx context.Context, coll string, q Query) ([]Document, error) {
	all, err := s.scan(coll)
	if err != nil {
		return nil, err
	}
	return runQuery(all, q), nil
}

func (s *BoltStore) Count(ctx context.Context, coll string, f Filter) (int64, error) {
	all, err := s.scan(coll)
	if err != nil {
		return 0, err
	}
	f = normalizeFilter(f)
	var n int64
	for _, doc := range all {
		if matches(doc, f) {
			n++
		}
	}
	return n, nil
}

func (s *BoltStore) Patch(ctx context.Context, coll, id string, set Document) (Document, error) {
	schema, err := s.reg.lookup(coll)
	if err != nil {
		return nil, err
	}
	if err := validID(id); err != nil {
		return nil, err
	}
	var out Document
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(coll))
		doc, err := get(b, id)
		if err != nil {
			return err
		}
		merge(doc, cleanSet(set))
		if err := checkUnique(b, schema, doc); err != nil {
			return err
		}
		out = doc
		return put(b, doc)
	})
	return out, err
}

func (s *BoltStore) PatchMany(ctx context.Context, coll string, f Filter, set Document) (int64, error) {
	schema, err := s.reg.lookup(coll)
	if err != nil {
		return 0, err
	}
	f = normalizeFilter(f)
	var n int64
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(coll))
		docs, err := all(b)
		if err != nil {
			return err
		}
		for _, doc := range docs {
			if !matches(doc, f) {
				continue
			}
			merge(doc, cleanSet(set))
			if err := checkUnique(b, schema, doc); err != nil {
				return err
			}
			if err := put(b, doc); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	return n, err
}

func (s *BoltStore) Delete(ctx context.Context, coll, id string) error {
	if _, err := s.reg.lookup(coll); err != nil {
		return err
	}
	if err := validID(id); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(coll))
		if b.Get([]byte(id)) == nil {
			return ErrNotFound
		}
		return b.Delete([]byte(id))
	})
}

func (s *BoltStore) DeleteMany(ctx context.Context, coll string, f Filter) (int64, error) {
	if _, err := s.reg.lookup(coll); err != nil {
		return 0, err
	}
	f = normalizeFilter(f)
	var n int64
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(coll))
		docs, err := all(b)
		if err != nil {
			return err
		}
		for _, doc := range docs {
			if !matches(doc, f) {
				continue
			}
			if err := b.Delete([]byte(doc.ID())); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	return n, err
}

func (s *BoltStore) EnsureOne(ctx context.Context, coll, key string, defaults Document) (Document, error) {
	if _, err := s.reg.lookup(coll); err != nil {
		return nil, err
	}
	if err := validID(key); err != nil {
		return nil, err
	}
	var out Document
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(coll))
		doc, err := get(b, key)
		if err == nil {
			out = doc
			return nil
		}
		if err != ErrNotFound {
			return err
		}
		seed := Document{}
		for k, v := range defaults {
			seed[k] = v
		}
		seed[FieldID] = key
		out = stamp(seed)
		return put(b, normalizeDoc(out))
	})
	if err != nil {
		return nil, err
	}
	return normalizeDoc(out), nil
}

func (s *BoltStore) InsertExclusive(ctx context.Context, coll, flag string, doc Document) (Document, error) {
	schema, err := s.reg.lookup(coll)
	if err != nil {
		return nil, err
	}
	out := stamp(doc)
	out[flag] = true
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(coll))
		if err := clearFlag(b, flag); err != nil {
			return err
		}
		if err := checkUnique(b, schema, out); err != nil {
			return err
		}
		return put(b, out)
	})
	if err != nil {
		return nil, err
	}
	return normalizeDoc(out), nil
}

func (s *BoltStore) SetExclusive(ctx context.Context, coll, flag, id string) (Document, error) {
	if _, err := s.reg.lookup(coll); err != nil {
		return nil, err
	}
	if err := validID(id); err != nil {
		return nil, err
	}
	var out Document
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(coll))
		if b.Get([]byte(id)) == nil {
			return ErrNotFound
		}
		if err := clearFlag(b, flag); err != nil {
			return err
		}
		doc, err := get(b, id)
		if err != nil {
			return err
		}
		merge(doc, cleanSet(Document{flag: true}))
		out = doc
		return put(b, doc)
	})
	return out, err
}

func (s *BoltStore) Increment(ctx context.Context, coll, id, field string, delta int64) (Document, error) {
	if _, err := s.reg.lookup(coll); err != nil {
		return nil, err
	}
	if err := validID(id); err != nil {
		return nil, err
	}
	var out Document
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(coll))
		doc, err := get(b, id)
		if err != nil {
			return err
		}
		current, _ := doc[field].(float64)
		doc[field] = current + float64(delta)
		out = doc
		return put(b, doc)
	})
	return out, err
}

func (s *BoltStore) scan(coll string) ([]Document, error) {
	if _, err := s.reg.lookup(coll); err != nil {
		return nil, err
	}
	var docs []Document
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		docs, err = all(tx.Bucket([]byte(coll)))
		return err
	})
	return docs, err
}

func get(b *bolt.Bucket, id string) (Document, error) {
	data := b.Get([]byte(id))
	if data == nil {
		return nil, ErrNotFound
	}
	doc := Document{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func put(b *bolt.Bucket, doc Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return b.Put([]byte(doc.ID()), data)
}

func all(b *bolt.Bucket) ([]Document, error) {
	docs := []Document{}
	err := b.ForEach(func(k, v []byte) error {
		doc := Document{}
		if err := json.Unmarshal(v, &doc); err != nil {
			return err
		}
		docs = append(docs, doc)
		return nil
	})
	return docs, err
}

func merge(doc, set Document) {
	for k, v := range set {
		doc[k] = normalize(v)
	}
}

func normalizeDoc(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = normalize(v)
	}
	return out
}

func clearFlag(b *bolt.Bucket, flag string) error {
	docs, err := all(b)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		if doc[flag] != true {
			continue
		}
		merge(doc, cleanSet(Document{flag: false}))
		if err := put(b, doc); err != nil {
			return err
		}
	}
	return nil
}

// checkUnique rejects doc when another document shares a unique field value.
func checkUnique(b *bolt.Bucket, schema Schema, doc Document) error {
	if len(schema.Unique) == 0 {
		return nil
	}
	docs, err := all(b)
	if err != nil {
		return err
	}
	for _, field := range schema.Unique {
		value, ok := doc[field]
		if !ok || value == nil {
			continue
		}
		want := normalize(value)
		for _, other := range docs {
			if other.ID() == doc.ID() {
				continue
			}
			if reflect.DeepEqual(other[field], want) {
				return fmt.Errorf("%w: %s", ErrDuplicate, field)
			}
		}
	}
	return nil
}
