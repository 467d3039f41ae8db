package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"animesync/internal/textutil"
)

const mongoCloseTimeout = 5 * time.Second

// MongoStore keeps one document per record.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	now        func() time.Time
}

var _ Store = (*MongoStore)(nil)

type mongoRecord struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Titles    []string           `bson:"titles"`
	Score     *float64           `bson:"score,omitempty"`
	Episodes  *int               `bson:"episodes,omitempty"`
	Status    string             `bson:"status,omitempty"`
	URL       string             `bson:"url,omitempty"`
	Genres    []Genre            `bson:"genres,omitempty"`
	Studios   []string           `bson:"studios,omitempty"`
	Links     []Link             `bson:"links,omitempty"`
	SyncedAt  *time.Time         `bson:"syncedAt,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (m mongoRecord) toRecord() Record {
	record := Record{
		Key:      m.ID.Hex(),
		Titles:   m.Titles,
		Score:    m.Score,
		Episodes: m.Episodes,
		Status:   Status(m.Status),
		URL:      m.URL,
		Genres:   m.Genres,
		Studios:  m.Studios,
		Links:    m.Links,
	}
	if m.SyncedAt != nil {
		ts := m.SyncedAt.UTC()
		record.SyncedAt = &ts
	}
	return record
}

// OpenMongo connects to MongoDB and verifies the connection.
func OpenMongo(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(uri) == "" {
		return nil, fmt.Errorf("mongo connection string is required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(collection),
		now:        time.Now,
	}, nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), mongoCloseTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Ping verifies the server is reachable.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ensureContext(ctx), nil)
}

// List returns all records ordered by key.
func (s *MongoStore) List(ctx context.Context) ([]Record, error) {
	ctx = ensureContext(ctx)
	cursor, err := s.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer cursor.Close(ctx)

	records := []Record{}
	for cursor.Next(ctx) {
		var doc mongoRecord
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		records = append(records, doc.toRecord())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return records, nil
}

// Get returns the record with key or nil when absent.
func (s *MongoStore) Get(ctx context.Context, key string) (*Record, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(key))
	if err != nil {
		return nil, nil
	}
	var doc mongoRecord
	err = s.collection.FindOne(ensureContext(ctx), bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record %s: %w", key, err)
	}
	record := doc.toRecord()
	return &record, nil
}

// Add inserts a record with the given titles.
func (s *MongoStore) Add(ctx context.Context, titles ...string) (Record, error) {
	clean := textutil.UniqueTitles(titles)
	doc := mongoRecord{
		ID:        primitive.NewObjectID(),
		Titles:    nonNil(clean),
		CreatedAt: s.now().UTC(),
	}
	if _, err := s.collection.InsertOne(ensureContext(ctx), doc); err != nil {
		return Record{}, fmt.Errorf("insert record: %w", err)
	}
	return Record{Key: doc.ID.Hex(), Titles: clean}, nil
}

// ApplyDetail overwrites the reconciled fields and stamps syncedAt.
func (s *MongoStore) ApplyDetail(ctx context.Context, key string, detail Detail) error {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(key))
	if err != nil {
		return fmt.Errorf("apply detail to %q: %w", key, ErrRecordNotFound)
	}
	status := detail.Status
	if status == "" {
		status = StatusOther
	}
	update := bson.M{"$set": bson.M{
		"score":    detail.Score,
		"episodes": detail.Episodes,
		"status":   string(status),
		"url":      detail.URL,
		"genres":   nonNil(detail.Genres),
		"studios":  nonNil(detail.Studios),
		"links":    nonNil(detail.Links),
		"syncedAt": s.now().UTC(),
	}}
	res, err := s.collection.UpdateOne(ensureContext(ctx), bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("apply detail to %s: %w", key, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("apply detail to %s: %w", key, ErrRecordNotFound)
	}
	return nil
}
