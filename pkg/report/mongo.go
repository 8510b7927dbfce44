package report

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/ondemand/pkg/errors"
)

// Default MongoDB location of session records.
const (
	DefaultDatabase   = "ondemand"
	DefaultCollection = "reports"
)

// MongoSink inserts one document per session. Saving a session again
// replaces its document.
type MongoSink struct {
	collection *mongo.Collection
	disconnect func(context.Context) error
}

// NewMongoSink connects to uri and returns a sink writing to
// ondemand.reports.
func NewMongoSink(ctx context.Context, uri string) (*MongoSink, error) {
	if err := errors.ValidateURL(uri, "mongodb", "mongodb+srv"); err != nil {
		return nil, err
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStore, err, "ping mongodb")
	}
	s := NewMongoSinkFromCollection(client.Database(DefaultDatabase).Collection(DefaultCollection))
	s.disconnect = client.Disconnect
	return s, nil
}

// NewMongoSinkFromCollection writes to an existing collection. The caller
// keeps ownership of its client.
func NewMongoSinkFromCollection(coll *mongo.Collection) *MongoSink {
	return &MongoSink{collection: coll}
}

func (s *MongoSink) Save(ctx context.Context, rec *Record) error {
	if rec.SessionID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "report record has no session id")
	}
	_, err := s.collection.ReplaceOne(ctx,
		bson.M{"session_id": rec.SessionID}, rec,
		options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "save report %s", rec.SessionID)
	}
	return nil
}

// Close disconnects the client opened by NewMongoSink.
func (s *MongoSink) Close(ctx context.Context) error {
	if s.disconnect == nil {
		return nil
	}
	return s.disconnect(ctx)
}

var _ Sink = (*MongoSink)(nil)
