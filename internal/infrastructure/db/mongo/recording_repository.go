package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lugayetu/collector/internal/core/domain"
	"github.com/lugayetu/collector/internal/core/ports"
)

type RecordingRepository struct {
	coll *mongo.Collection
	seq  *counters
}

func NewRecordingRepository(db *mongo.Database) *RecordingRepository {
	return &RecordingRepository{coll: db.Collection(collectionRecordings), seq: newCounters(db)}
}

type recordingDoc struct {
	ID         int64     `bson:"_id"`
	UserID     int64     `bson:"user_id"`
	SentenceID int64     `bson:"sentence_id"`
	AudioPath  string    `bson:"audio_path"`
	Duration   float64   `bson:"duration"`
	CreatedAt  time.Time `bson:"created_at"`
}

func (d recordingDoc) toDomain() *domain.Recording {
	return &domain.Recording{
		ID:         d.ID,
		UserID:     d.UserID,
		SentenceID: d.SentenceID,
		AudioPath:  d.AudioPath,
		Duration:   d.Duration,
		CreatedAt:  d.CreatedAt.UTC(),
	}
}

func (r *RecordingRepository) Create(ctx context.Context, rec *domain.Recording) (*domain.Recording, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.seq.next(ctx, seqRecordings)
	if err != nil {
		return nil, fmt.Errorf("insert recording: %w", err)
	}
	doc := recordingDoc{
		ID:         id,
		UserID:     rec.UserID,
		SentenceID: rec.SentenceID,
		AudioPath:  rec.AudioPath,
		Duration:   rec.Duration,
		CreatedAt:  rec.CreatedAt.UTC(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrAlreadyRecorded
		}
		return nil, fmt.Errorf("insert recording: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *RecordingRepository) findOne(ctx context.Context, filter bson.M) (*domain.Recording, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc recordingDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRecordingNotFound
		}
		return nil, fmt.Errorf("find recording: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *RecordingRepository) FindByID(ctx context.Context, id int64) (*domain.Recording, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *RecordingRepository) FindByAudioPath(ctx context.Context, path string) (*domain.Recording, error) {
	return r.findOne(ctx, bson.M{"audio_path": path})
}

func (r *RecordingRepository) Exists(ctx context.Context, userID, sentenceID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{"user_id": userID, "sentence_id": sentenceID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count recording: %w", err)
	}
	return n > 0, nil
}

func (r *RecordingRepository) SentenceIDsByUser(ctx context.Context, userID int64) ([]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	values, err := r.coll.Distinct(ctx, "sentence_id", bson.M{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("recorded sentences: %w", err)
	}
	return toInt64s(values), nil
}

// recordingQuery translates a filter into a query document.
func recordingQuery(f ports.RecordingFilter) bson.M {
	q := bson.M{}
	if f.UserID != 0 {
		q["user_id"] = f.UserID
	}
	if f.RestrictSentences {
		ids := f.SentenceIDs
		if ids == nil {
			ids = []int64{}
		}
		q["sentence_id"] = bson.M{"$in": ids}
	}
	created := bson.M{}
	if !f.From.IsZero() {
		created["$gte"] = f.From.UTC()
	}
	if !f.To.IsZero() {
		created["$lt"] = f.To.UTC()
	}
	if len(created) > 0 {
		q["created_at"] = created
	}
	return q
}

func (r *RecordingRepository) List(ctx context.Context, f ports.RecordingFilter) ([]*domain.Recording, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if f.Offset > 0 {
		opts.SetSkip(int64(f.Offset))
	}
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}

	cur, err := r.coll.Find(ctx, recordingQuery(f), opts)
	if err != nil {
		return nil, fmt.Errorf("list recordings: %w", err)
	}
	var docs []recordingDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode recordings: %w", err)
	}
	out := make([]*domain.Recording, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *RecordingRepository) Totals(ctx context.Context, f ports.RecordingFilter) (ports.RecordingTotals, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: recordingQuery(f)}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "duration", Value: bson.D{{Key: "$sum", Value: "$duration"}}},
		}}},
	})
	if err != nil {
		return ports.RecordingTotals{}, fmt.Errorf("recording totals: %w", err)
	}
	var rows []struct {
		Count    int64   `bson:"count"`
		Duration float64 `bson:"duration"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return ports.RecordingTotals{}, fmt.Errorf("decode recording totals: %w", err)
	}
	if len(rows) == 0 {
		return ports.RecordingTotals{}, nil
	}
	return ports.RecordingTotals{Count: rows[0].Count, Duration: rows[0].Duration}, nil
}

func (r *RecordingRepository) AudioPaths(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	values, err := r.coll.Distinct(ctx, "audio_path", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("audio paths: %w", err)
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *RecordingRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete recording: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrRecordingNotFound
	}
	return nil
}

func (r *RecordingRepository) DeleteByUser(ctx context.Context, userID int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.coll.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		return fmt.Errorf("delete user recordings: %w", err)
	}
	return nil
}

func (r *RecordingRepository) DeleteBySentences(ctx context.Context, sentenceIDs []int64) error {
	if len(sentenceIDs) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.coll.DeleteMany(ctx, bson.M{"sentence_id": bson.M{"$in": sentenceIDs}}); err != nil {
		return fmt.Errorf("delete sentence recordings: %w", err)
	}
	return nil
}
