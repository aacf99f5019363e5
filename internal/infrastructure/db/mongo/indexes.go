package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lugayetu/collector/internal/core/domain"
)

// EnsureIndexes creates the indexes every collection relies on. The unique
// ones back the domain invariants: one account per email, one sequential
// identifier per account, unique language names and codes, unique sentence
// texts per language and one recording per (user, sentence).
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	specs := map[string][]mongo.IndexModel{
		collectionUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetName("uniq_email").SetUnique(true)},
			{
				Keys: bson.D{{Key: "user_id", Value: 1}},
				Options: options.Index().SetName(indexUserID).SetUnique(true).
					SetPartialFilterExpression(bson.M{"user_id": bson.M{"$type": "string"}}),
			},
			{Keys: bson.D{{Key: "is_admin", Value: 1}, {Key: "is_approved", Value: 1}}},
		},
		collectionLanguages: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetName("uniq_name").SetUnique(true)},
			{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetName("uniq_code").SetUnique(true)},
		},
		collectionSentences: {
			{
				Keys:    bson.D{{Key: "language_id", Value: 1}, {Key: "text", Value: 1}},
				Options: options.Index().SetName("uniq_language_text").SetUnique(true),
			},
		},
		collectionRecordings: {
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "sentence_id", Value: 1}},
				Options: options.Index().SetName("uniq_user_sentence").SetUnique(true),
			},
			{Keys: bson.D{{Key: "sentence_id", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "audio_path", Value: 1}}},
		},
	}

	for coll, indexes := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("ensure indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// SyncCounters raises every key sequence to the highest ID already stored, so
// data loaded from elsewhere never collides with freshly drawn keys.
func SyncCounters(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	c := newCounters(db)
	for seq, coll := range map[string]string{
		seqUsers:      collectionUsers,
		seqLanguages:  collectionLanguages,
		seqSentences:  collectionSentences,
		seqRecordings: collectionRecordings,
	} {
		max, err := maxID(ctx, db.Collection(coll))
		if err != nil {
			return fmt.Errorf("sync counter %s: %w", seq, err)
		}
		if err := c.raise(ctx, seq, max); err != nil {
			return err
		}
	}

	highest, err := highestUserIDSuffix(ctx, db.Collection(collectionUsers))
	if err != nil {
		return fmt.Errorf("sync counter %s: %w", seqUserID, err)
	}
	return c.raise(ctx, seqUserID, highest)
}

func highestUserIDSuffix(ctx context.Context, coll *mongo.Collection) (int64, error) {
	values, err := coll.Distinct(ctx, "user_id", bson.M{"user_id": bson.M{"$type": "string"}})
	if err != nil {
		return 0, err
	}
	var highest int64
	for _, v := range values {
		s, _ := v.(string)
		if n, ok := domain.ParseUserIDSuffix(s); ok && n > highest {
			highest = n
		}
	}
	return highest, nil
}
