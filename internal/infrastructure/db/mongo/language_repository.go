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
)

type LanguageRepository struct {
	coll *mongo.Collection
	seq  *counters
}

func NewLanguageRepository(db *mongo.Database) *LanguageRepository {
	return &LanguageRepository{coll: db.Collection(collectionLanguages), seq: newCounters(db)}
}

type languageDoc struct {
	ID               int64     `bson:"_id"`
	Name             string    `bson:"name"`
	Code             string    `bson:"code"`
	SentencesFile    string    `bson:"sentences_file"`
	TranslationsFile string    `bson:"translations_file"`
	CreatedAt        time.Time `bson:"created_at"`
}

func (d languageDoc) toDomain() *domain.Language {
	return &domain.Language{
		ID:               d.ID,
		Name:             d.Name,
		Code:             d.Code,
		SentencesFile:    d.SentencesFile,
		TranslationsFile: d.TranslationsFile,
		CreatedAt:        d.CreatedAt.UTC(),
	}
}

func (r *LanguageRepository) Create(ctx context.Context, lang *domain.Language) (*domain.Language, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.seq.next(ctx, seqLanguages)
	if err != nil {
		return nil, fmt.Errorf("insert language: %w", err)
	}
	doc := languageDoc{
		ID:               id,
		Name:             lang.Name,
		Code:             lang.Code,
		SentencesFile:    lang.SentencesFile,
		TranslationsFile: lang.TranslationsFile,
		CreatedAt:        time.Now().UTC(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrLanguageExists
		}
		return nil, fmt.Errorf("insert language: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *LanguageRepository) findOne(ctx context.Context, filter bson.M) (*domain.Language, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc languageDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrLanguageNotFound
		}
		return nil, fmt.Errorf("find language: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *LanguageRepository) find(ctx context.Context, filter bson.M) ([]*domain.Language, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find languages: %w", err)
	}
	var docs []languageDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode languages: %w", err)
	}
	out := make([]*domain.Language, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *LanguageRepository) FindByID(ctx context.Context, id int64) (*domain.Language, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *LanguageRepository) FindByCode(ctx context.Context, code string) (*domain.Language, error) {
	return r.findOne(ctx, bson.M{"code": code})
}

func (r *LanguageRepository) FindByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Language, error) {
	out := make(map[int64]*domain.Language, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	langs, err := r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	for _, l := range langs {
		out[l.ID] = l
	}
	return out, nil
}

func (r *LanguageRepository) List(ctx context.Context) ([]*domain.Language, error) {
	return r.find(ctx, bson.M{})
}

func (r *LanguageRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete language: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrLanguageNotFound
	}
	return nil
}
