package catalog

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSource locates a movies collection.
type MongoSource struct {
	URI        string
	Database   string
	Collection string
}

// mongoMovie accepts both the ETL layout (movieId) and a plain id field.
type mongoMovie struct {
	ID      *int64 `bson:"id,omitempty"`
	MovieID *int64 `bson:"movieId,omitempty"`
	Title   string `bson:"title"`
	Soup    string `bson:"soup"`
}

func (d mongoMovie) toMovie() (Movie, error) {
	switch {
	case d.ID != nil:
		return Movie{ID: *d.ID, Title: d.Title, Soup: d.Soup}, nil
	case d.MovieID != nil:
		return Movie{ID: *d.MovieID, Title: d.Title, Soup: d.Soup}, nil
	default:
		return Movie{}, fmt.Errorf("%w: document %q has no id", ErrMalformedSnapshot, d.Title)
	}
}

// LoadMongo reads the catalog from a MongoDB collection ordered by _id.
func LoadMongo(ctx context.Context, src MongoSource) (*Catalog, error) {
	if src.URI == "" || src.Database == "" || src.Collection == "" {
		return nil, fmt.Errorf("mongo catalog source needs uri, database and collection")
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(src.URI))
	if err != nil {
		return nil, fmt.Errorf("cannot connect to mongo: %w", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping failed: %w", err)
	}

	coll := client.Database(src.Database).Collection(src.Collection)
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetProjection(bson.D{{Key: "id", Value: 1}, {Key: "movieId", Value: 1}, {Key: "title", Value: 1}, {Key: "soup", Value: 1}})
	cur, err := coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot query %s.%s: %w", src.Database, src.Collection, err)
	}
	defer cur.Close(ctx)

	var docs []mongoMovie
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("cannot decode %s.%s: %w", src.Database, src.Collection, err)
	}
	movies, err := fromMongo(docs)
	if err != nil {
		return nil, err
	}
	return New(movies)
}

func fromMongo(docs []mongoMovie) ([]Movie, error) {
	out := make([]Movie, 0, len(docs))
	for _, d := range docs {
		m, err := d.toMovie()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
