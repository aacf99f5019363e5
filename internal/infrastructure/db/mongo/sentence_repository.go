package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lugayetu/collector/internal/core/domain"
)

type SentenceRepository struct {
	coll *mongo.Collection
	seq  *counters
}

func NewSentenceRepository(db *mongo.Database) *SentenceRepository {
	return &SentenceRepository{coll: db.Collection(collectionSentences), seq: newCounters(db)}
}

type sentenceDoc struct {
	ID          int64     `bson:"_id"`
	LanguageID  int64     `bson:"language_id"`
	Text        string    `bson:"text"`
	Translation string    `bson:"translation"`
	CreatedAt   time.Time `bson:"created_at"`
}

func (d sentenceDoc) toDomain() *domain.Sentence {
	return &domain.Sentence{
		ID:          d.ID,
		LanguageID:  d.LanguageID,
		Text:        d.Text,
		Translation: d.Translation,
		CreatedAt:   d.CreatedAt.UTC(),
	}
}

func (r *SentenceRepository) Create(ctx context.Context, s *domain.Sentence) (*domain.Sentence, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.seq.next(ctx, seqSentences)
	if err != nil {
		return nil, fmt.Errorf("insert sentence: %w", err)
	}
	doc := sentenceDoc{
		ID:          id,
		LanguageID:  s.LanguageID,
		Text:        s.Text,
		Translation: s.Translation,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrSentenceExists
		}
		return nil, fmt.Errorf("insert sentence: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *SentenceRepository) FindByID(ctx context.Context, id int64) (*domain.Sentence, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc sentenceDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSentenceNotFound
		}
		return nil, fmt.Errorf("find sentence: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *SentenceRepository) FindByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Sentence, error) {
	out := make(map[int64]*domain.Sentence, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find sentences: %w", err)
	}
	var docs []sentenceDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode sentences: %w", err)
	}
	for _, d := range docs {
		out[d.ID] = d.toDomain()
	}
	return out, nil
}

func (r *SentenceRepository) TextExists(ctx context.Context, languageID int64, text string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{"language_id": languageID, "text": text}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count sentence: %w", err)
	}
	return n > 0, nil
}

func (r *SentenceRepository) ids(ctx context.Context, filter bson.M) ([]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	values, err := r.coll.Distinct(ctx, "_id", filter)
	if err != nil {
		return nil, fmt.Errorf("sentence ids: %w", err)
	}
	return toInt64s(values), nil
}

func (r *SentenceRepository) IDs(ctx context.Context, languageID int64) ([]int64, error) {
	filter := bson.M{}
	if languageID != 0 {
		filter["language_id"] = languageID
	}
	return r.ids(ctx, filter)
}

func (r *SentenceRepository) SearchIDs(ctx context.Context, query string) ([]int64, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	return r.ids(ctx, bson.M{"$or": []bson.M{
		{"text": pattern},
		{"translation": pattern},
	}})
}

func (r *SentenceRepository) CountByLanguage(ctx context.Context) (map[int64]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$language_id"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	})
	if err != nil {
		return nil, fmt.Errorf("count sentences: %w", err)
	}
	var rows []struct {
		LanguageID int64 `bson:"_id"`
		Count      int64 `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode sentence counts: %w", err)
	}
	out := make(map[int64]int64, len(rows))
	for _, row := range rows {
		out[row.LanguageID] = row.Count
	}
	return out, nil
}

func (r *SentenceRepository) DeleteByLanguage(ctx context.Context, languageID int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.coll.DeleteMany(ctx, bson.M{"language_id": languageID}); err != nil {
		return fmt.Errorf("delete sentences: %w", err)
	}
	return nil
}
