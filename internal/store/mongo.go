package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/fairyhunter13/nexus-inventory/internal/model"
)

// Mongo stores products as documents in a single collection.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type productDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	Name        string             `bson:"name"`
	Category    string             `bson:"category"`
	Price       float64            `bson:"price"`
	Stock       float64            `bson:"stock"`
	LastUpdated time.Time          `bson:"lastUpdated"`
}

func (d productDoc) product() model.Product {
	return model.Product{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Category:    d.Category,
		Price:       d.Price,
		Stock:       d.Stock,
		LastUpdated: d.LastUpdated.UTC(),
	}
}

// NewMongo connects to uri and binds the database/collection pair. The driver
// connects lazily; use Ping to verify reachability.
func NewMongo(ctx context.Context, uri, database, collection string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongo")
	}
	return &Mongo{client: client, coll: client.Database(database).Collection(collection)}, nil
}

func (s *Mongo) List(ctx context.Context) ([]model.Product, error) {
	cur, err := s.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "finding products")
	}
	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding products")
	}
	out := make([]model.Product, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.product())
	}
	return out, nil
}

func (s *Mongo) Create(ctx context.Context, p model.Product) (model.Product, error) {
	p = stamp(p)
	oid, err := primitive.ObjectIDFromHex(p.ID)
	if err != nil {
		return model.Product{}, errors.Wrap(err, "assigning id")
	}
	doc := productDoc{
		ID:          oid,
		Name:        p.Name,
		Category:    p.Category,
		Price:       p.Price,
		Stock:       p.Stock,
		LastUpdated: p.LastUpdated,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return model.Product{}, errors.Wrap(err, "inserting product")
	}
	return p, nil
}

// Delete ignores identifiers that are not valid ObjectIDs; nothing can match
// them.
func (s *Mongo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return errors.Wrapf(err, "deleting product %s", id)
	}
	return nil
}

func (s *Mongo) Ping(ctx context.Context) error {
	return errors.Wrap(s.client.Ping(ctx, readpref.Primary()), "pinging mongo")
}

func (s *Mongo) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
