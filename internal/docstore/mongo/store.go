package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"expense-tracker/internal/docstore"
)

const documentsCollection = "documents"

type record struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Collection string             `bson:"collection"`
	DocID      string             `bson:"docId"`
	Data       bson.M             `bson:"data"`
	CreateTime time.Time          `bson:"createTime"`
	UpdateTime time.Time          `bson:"updateTime"`
}

// Store maps every logical collection onto one mongo collection keyed by
// (collection, docId).
type Store struct {
	client *mongo.Client
	docs   *mongo.Collection
}

// Connect dials the server and verifies it is reachable.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

func NewStore(client *mongo.Client, database string) *Store {
	return &Store{
		client: client,
		docs:   client.Database(database).Collection(documentsCollection),
	}
}

func (s *Store) Init(ctx context.Context) error {
	_, err := s.docs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "collection", Value: 1}, {Key: "docId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create documents index: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (*docstore.Document, error) {
	var rec record
	err := s.docs.FindOne(ctx, bson.M{"collection": collection, "docId": id}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, docstore.ErrNotFound
		}
		return nil, fmt.Errorf("find document: %w", err)
	}
	doc := toDocument(rec)
	return &doc, nil
}

func (s *Store) Query(ctx context.Context, collection string, filters ...docstore.Filter) ([]docstore.Document, error) {
	filter := bson.M{"collection": collection}
	for _, f := range filters {
		value, err := docstore.Normalize(f.Value)
		if err != nil {
			return nil, err
		}
		filter["data."+f.Field] = value
	}

	cur, err := s.docs.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find documents: %w", err)
	}
	defer cur.Close(ctx)

	docs := []docstore.Document{}
	for cur.Next(ctx) {
		var rec record
		if err := cur.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		docs = append(docs, toDocument(rec))
	}
	return docs, cur.Err()
}

func (s *Store) Add(ctx context.Context, collection string, data docstore.Data) (string, error) {
	id := uuid.NewString()
	if err := s.Create(ctx, collection, id, data); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) Create(ctx context.Context, collection, id string, data docstore.Data) error {
	now := time.Now().UTC()
	resolved, err := docstore.Resolve(data, now)
	if err != nil {
		return err
	}

	_, err = s.docs.InsertOne(ctx, record{
		Collection: collection,
		DocID:      id,
		Data:       bson.M(resolved),
		CreateTime: now,
		UpdateTime: now,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return docstore.ErrAlreadyExists
		}
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *Store) Set(ctx context.Context, collection, id string, data docstore.Data) error {
	now := time.Now().UTC()
	resolved, err := docstore.Resolve(data, now)
	if err != nil {
		return err
	}

	_, err = s.docs.UpdateOne(ctx,
		bson.M{"collection": collection, "docId": id},
		bson.M{
			"$set":         bson.M{"data": bson.M(resolved), "updateTime": now},
			"$setOnInsert": bson.M{"createTime": now},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("set document: %w", err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, collection, id string, patch docstore.Data) error {
	now := time.Now().UTC()
	resolved, err := docstore.Resolve(patch, now)
	if err != nil {
		return err
	}

	set := bson.M{"updateTime": now}
	for k, v := range resolved {
		set["data."+k] = v
	}

	res, err := s.docs.UpdateOne(ctx, bson.M{"collection": collection, "docId": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if res.MatchedCount == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.docs.DeleteOne(ctx, bson.M{"collection": collection, "docId": id}); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func toDocument(rec record) docstore.Document {
	data := make(docstore.Data, len(rec.Data))
	for k, v := range rec.Data {
		data[k] = fromBSON(v)
	}
	return docstore.Document{
		ID:         rec.DocID,
		Data:       data,
		CreateTime: rec.CreateTime.UTC(),
		UpdateTime: rec.UpdateTime.UTC(),
	}
}

func fromBSON(v any) any {
	switch val := v.(type) {
	case primitive.DateTime:
		return val.Time().UTC()
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	default:
		return val
	}
}

var _ docstore.Store = (*Store)(nil)
