package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Sequence names held in the counters collection.
const (
	seqUsers      = "users"
	seqUserID     = "user_id"
	seqLanguages  = "languages"
	seqSentences  = "sentences"
	seqRecordings = "recordings"
)

// counters hands out monotonically increasing int64 keys.
type counters struct {
	coll *mongo.Collection
}

func newCounters(db *mongo.Database) *counters {
	return &counters{coll: db.Collection(collectionCounters)}
}

func (c *counters) next(ctx context.Context, name string) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := c.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("next %s: %w", name, err)
	}
	return doc.Seq, nil
}

// raise moves a sequence forward to at least floor.
func (c *counters) raise(ctx context.Context, name string, floor int64) error {
	_, err := c.coll.UpdateOne(ctx,
		bson.M{"_id": name},
		bson.M{"$max": bson.M{"seq": floor}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("raise %s: %w", name, err)
	}
	return nil
}

// maxID returns the highest _id of coll, or 0 when it is empty.
func maxID(ctx context.Context, coll *mongo.Collection) (int64, error) {
	var doc struct {
		ID int64 `bson:"_id"`
	}
	err := coll.FindOne(ctx, bson.M{},
		options.FindOne().SetSort(bson.D{{Key: "_id", Value: -1}}).SetProjection(bson.M{"_id": 1}),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return doc.ID, nil
}
