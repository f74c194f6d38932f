package catalog

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/lightbox/pkg/errors"
)

// MongoConfig locates a catalog collection.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// Defaults for MongoConfig fields left empty.
const (
	DefaultMongoDatabase   = "lightbox"
	DefaultMongoCollection = "images"
)

// Mongo serves images from a MongoDB collection. Documents are ordered by
// their integer "position" field, then by "id" to break ties.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
	owned  bool
}

// NewMongo connects to MongoDB and verifies the connection.
func NewMongo(ctx context.Context, cfg MongoConfig) (*Mongo, error) {
	if cfg.URI == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "mongo URI is required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI).SetConnectTimeout(10*time.Second))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping mongo")
	}
	m := NewMongoFromCollection(client.Database(orDefault(cfg.Database, DefaultMongoDatabase)).
		Collection(orDefault(cfg.Collection, DefaultMongoCollection)))
	m.client = client
	m.owned = true
	return m, nil
}

// NewMongoFromCollection wraps an existing collection. Close is a no-op
// for sources created this way.
func NewMongoFromCollection(coll *mongo.Collection) *Mongo {
	return &Mongo{coll: coll}
}

// FetchPage implements [Source]. Failures are reported as FETCH_FAILED.
func (m *Mongo) FetchPage(ctx context.Context, offset, count int) (Page, error) {
	if offset < 0 || count < 0 {
		return Page{}, errors.New(errors.ErrCodeInvalidInput, "invalid page offset=%d count=%d", offset, count)
	}
	total, err := m.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return Page{}, errors.Wrap(errors.ErrCodeFetchFailed, err, "count catalog documents")
	}
	if count == 0 || int64(offset) >= total {
		return Page{Total: int(total)}, nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "position", Value: 1}, {Key: "id", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(count))
	cur, err := m.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return Page{}, errors.Wrap(errors.ErrCodeFetchFailed, err, "query catalog page at offset %d", offset)
	}
	defer cur.Close(ctx)

	images := make([]*Image, 0, count)
	for cur.Next(ctx) {
		var img Image
		if err := cur.Decode(&img); err != nil {
			return Page{}, errors.Wrap(errors.ErrCodeFetchFailed, err, "decode catalog document")
		}
		if img.ID == "" {
			img.ID = img.URL
		}
		images = append(images, &img)
	}
	if err := cur.Err(); err != nil {
		return Page{}, errors.Wrap(errors.ErrCodeFetchFailed, err, "iterate catalog page")
	}
	return Page{Images: images, Total: int(total)}, nil
}

// Insert stores images with consecutive positions starting at start.
// Used by `lightbox import` and tests.
func (m *Mongo) Insert(ctx context.Context, start int, images []*Image) error {
	if len(images) == 0 {
		return nil
	}
	docs := make([]any, len(images))
	for i, img := range images {
		docs[i] = mongoDoc{Image: *img, Position: start + i}
	}
	if _, err := m.coll.InsertMany(ctx, docs); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "insert %d images", len(images))
	}
	return nil
}

// Close disconnects the client if this source created it.
func (m *Mongo) Close(ctx context.Context) error {
	if !m.owned || m.client == nil {
		return nil
	}
	return m.client.Disconnect(ctx)
}

type mongoDoc struct {
	Image    `bson:",inline"`
	Position int `bson:"position"`
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

var _ Source = (*Mongo)(nil)
