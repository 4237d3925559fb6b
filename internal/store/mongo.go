package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps one collection per schema with string _id keys.
//
// InsertExclusive and SetExclusive issue two writes. Without a replica set
// there is a short window where no document carries the flag; a single
// operator makes that acceptable.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	reg    registry
}

func NewMongoStore(ctx context.Context, uri, database string, schemas ...Schema) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	s := &MongoStore{client: client, db: client.Database(database), reg: newRegistry(schemas)}
	for _, schema := range schemas {
		for _, field := range schema.Unique {
			_, err := s.db.Collection(schema.Name).Indexes().CreateOne(connectCtx, mongo.IndexModel{
				Keys:    bson.D{{Key: field, Value: 1}},
				Options: options.Index().SetUnique(true),
			})
			if err != nil {
				_ = client.Disconnect(context.Background())
				return nil, fmt.Errorf("mongo index %s.%s: %w", schema.Name, field, err)
			}
		}
	}
	return s, nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) coll(name string) (*mongo.Collection, error) {
	if _, err := s.reg.lookup(name); err != nil {
		return nil, err
	}
	return s.db.Collection(name), nil
}

func (s *MongoStore) Insert(ctx context.Context, coll string, doc Document) (Document, error) {
	c, err := s.coll(coll)
	if err != nil {
		return nil, err
	}
	out := normalizeDoc(stamp(doc))
	if err := validID(out.ID()); err != nil {
		return nil, err
	}
	if _, err := c.InsertOne(ctx, toMongo(out)); err != nil {
		return nil, mongoError(err)
	}
	return out, nil
}

func (s *MongoStore) Get(ctx context.Context, coll, id string) (Document, error) {
	c, err := s.coll(coll)
	if err != nil {
		return nil, err
	}
	if err := validID(id); err != nil {
		return nil, err
	}
	return decodeSingle(c.FindOne(ctx, bson.M{"_id": id}))
}

func (s *MongoStore) Find(ctx context.Context, coll string, q Query) ([]Document, error) {
	c, err := s.coll(coll)
	if err != nil {
		return nil, err
	}
	cur, err := c.Find(ctx, mongoFilter(q.Filter, q.Search), mongoFindOptions(q))
	if err != nil {
		return nil, mongoError(err)
	}
	defer cur.Close(ctx)
	docs := []Document{}
	for cur.Next(ctx) {
		doc, err := fromMongo(cur.Current)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, cur.Err()
}

func mongoFindOptions(q Query) *options.FindOptions {
	opts := options.Find()
	if sortSpec := mongoSort(q.Sort); len(sortSpec) > 0 {
		opts.SetSort(sortSpec)
	}
	if q.Skip > 0 {
		opts.SetSkip(int64(q.Skip))
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	return opts
}

func (s *MongoStore) Count(ctx context.Context, coll string, f Filter) (int64, error) {
	c, err := s.coll(coll)
	if err != nil {
		return 0, err
	}
	return c.CountDocuments(ctx, mongoFilter(f, Search{}))
}

func (s *MongoStore) Patch(ctx context.Context, coll, id string, set Document) (Document, error) {
	c, err := s.coll(coll)
	if err != nil {
		return nil, err
	}
	if err := validID(id); err != nil {
		return nil, err
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	return decodeSingle(c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M(normalizeDoc(cleanSet(set)))}, opts))
}

func (s *MongoStore) PatchMany(ctx context.Context, coll string, f Filter, set Document) (int64, error) {
	c, err := s.coll(coll)
	if err != nil {
		return 0, err
	}
	res, err := c.UpdateMany(ctx, mongoFilter(f, Search{}), bson.M{"$set": bson.M(normalizeDoc(cleanSet(set)))})
	if err != nil {
		return 0, mongoError(err)
	}
	return res.MatchedCount, nil
}

func (s *MongoStore) Delete(ctx context.Context, coll, id string) error {
	c, err := s.coll(coll)
	if err != nil {
		return err
	}
	if err := validID(id); err != nil {
		return err
	}
	res, err := c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mongoError(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteMany(ctx context.Context, coll string, f Filter) (int64, error) {
	c, err := s.coll(coll)
	if err != nil {
		return 0, err
	}
	res, err := c.DeleteMany(ctx, mongoFilter(f, Search{}))
	if err != nil {
		return 0, mongoError(err)
	}
	return res.DeletedCount, nil
}

func (s *MongoStore) EnsureOne(ctx context.Context, coll, key string, defaults Document) (Document, error) {
	c, err := s.coll(coll)
	if err != nil {
		return nil, err
	}
	if err := validID(key); err != nil {
		return nil, err
	}
	seed := Document{}
	for k, v := range defaults {
		seed[k] = v
	}
	seed[FieldID] = key
	onInsert := toMongo(normalizeDoc(stamp(seed)))
	delete(onInsert, "_id")
	_, err = c.UpdateOne(ctx, bson.M{"_id": key}, bson.M{"$setOnInsert": onInsert}, options.Update().SetUpsert(true))
	// A concurrent upsert on the same key can lose with a duplicate key error;
	// the document exists either way.
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return nil, mongoError(err)
	}
	return s.Get(ctx, coll, key)
}

func (s *MongoStore) InsertExclusive(ctx context.Context, coll, flag string, doc Document) (Document, error) {
	c, err := s.coll(coll)
	if err != nil {
		return nil, err
	}
	out := stamp(doc)
	out[flag] = true
	out = normalizeDoc(out)
	if err := s.clearFlag(ctx, c, flag); err != nil {
		return nil, err
	}
	if _, err := c.InsertOne(ctx, toMongo(out)); err != nil {
		return nil, mongoError(err)
	}
	return out, nil
}

func (s *MongoStore) SetExclusive(ctx context.Context, coll, flag, id string) (Document, error) {
	c, err := s.coll(coll)
	if err != nil {
		return nil, err
	}
	if err := validID(id); err != nil {
		return nil, err
	}
	if _, err := decodeSingle(c.FindOne(ctx, bson.M{"_id": id})); err != nil {
		return nil, err
	}
	if err := s.clearFlag(ctx, c, flag); err != nil {
		return nil, err
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	return decodeSingle(c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M(normalizeDoc(cleanSet(Document{flag: true})))}, opts))
}

func (s *MongoStore) Increment(ctx context.Context, coll, id, field string, delta int64) (Document, error) {
	c, err := s.coll(coll)
	if err != nil {
		return nil, err
	}
	if err := validID(id); err != nil {
		return nil, err
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	return decodeSingle(c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{field: delta}}, opts))
}

func (s *MongoStore) clearFlag(ctx context.Context, c *mongo.Collection, flag string) error {
	_, err := c.UpdateMany(ctx, bson.M{flag: true}, bson.M{"$set": bson.M{flag: false, FieldUpdatedAt: now()}})
	return mongoError(err)
}

func mongoFilter(f Filter, s Search) bson.M {
	filter := bson.M{}
	for field, value := range f.Equals {
		filter[mongoField(field)] = normalize(value)
	}
	if f.IDs != nil {
		filter["_id"] = bson.M{"$in": f.IDs}
	}
	if s.Term != "" && len(s.Fields) > 0 {
		pattern := regexp.QuoteMeta(s.Term)
		ors := bson.A{}
		for _, field := range s.Fields {
			ors = append(ors, bson.M{mongoField(field): bson.M{"$regex": pattern, "$options": "i"}})
		}
		filter["$or"] = ors
	}
	return filter
}

func mongoSort(keys []SortKey) bson.D {
	spec := bson.D{}
	for _, key := range keys {
		dir := 1
		if key.Desc {
			dir = -1
		}
		spec = append(spec, bson.E{Key: mongoField(key.Field), Value: dir})
	}
	return spec
}

func mongoField(field string) string {
	if field == FieldID {
		return "_id"
	}
	return field
}

func toMongo(doc Document) bson.M {
	out := bson.M{}
	for k, v := range doc {
		out[mongoField(k)] = v
	}
	return out
}

// fromMongo goes through relaxed extended JSON so nested values come back in
// the same shape as the other drivers produce.
func fromMongo(raw bson.Raw) (Document, error) {
	data, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return nil, err
	}
	doc := Document{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if id, ok := doc["_id"]; ok {
		doc[FieldID] = id
		delete(doc, "_id")
	}
	return doc, nil
}

func decodeSingle(res *mongo.SingleResult) (Document, error) {
	raw, err := res.Raw()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, mongoError(err)
	}
	return fromMongo(raw)
}

func mongoError(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}
