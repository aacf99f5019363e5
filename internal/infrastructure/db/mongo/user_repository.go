package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lugayetu/collector/internal/core/domain"
)

const indexUserID = "uniq_user_id"

type UserRepository struct {
	coll *mongo.Collection
	seq  *counters
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(collectionUsers), seq: newCounters(db)}
}

type userDoc struct {
	ID             int64     `bson:"_id"`
	UserID         string    `bson:"user_id,omitempty"`
	LastName       string    `bson:"nom"`
	FirstName      string    `bson:"prenom"`
	Age            int       `bson:"age"`
	Sex            string    `bson:"sexe"`
	SpokenLanguage string    `bson:"langue_parlee"`
	Province       string    `bson:"province"`
	City           string    `bson:"ville_village"`
	Email          string    `bson:"email"`
	PasswordHash   string    `bson:"password_hash"`
	IsAdmin        bool      `bson:"is_admin"`
	IsApproved     bool      `bson:"is_approved"`
	AcceptedTerms  bool      `bson:"accepted_terms"`
	CreatedAt      time.Time `bson:"created_at"`
}

func toUserDoc(u *domain.User) userDoc {
	return userDoc{
		ID:             u.ID,
		UserID:         u.UserID,
		LastName:       u.LastName,
		FirstName:      u.FirstName,
		Age:            u.Age,
		Sex:            string(u.Sex),
		SpokenLanguage: u.SpokenLanguage,
		Province:       u.Province,
		City:           u.City,
		Email:          u.Email,
		PasswordHash:   u.PasswordHash,
		IsAdmin:        u.IsAdmin,
		IsApproved:     u.IsApproved,
		AcceptedTerms:  u.AcceptedTerms,
		CreatedAt:      u.CreatedAt.UTC(),
	}
}

func (d userDoc) toDomain() *domain.User {
	return &domain.User{
		ID:             d.ID,
		UserID:         d.UserID,
		LastName:       d.LastName,
		FirstName:      d.FirstName,
		Age:            d.Age,
		Sex:            domain.Sex(d.Sex),
		SpokenLanguage: d.SpokenLanguage,
		Province:       d.Province,
		City:           d.City,
		Email:          d.Email,
		PasswordHash:   d.PasswordHash,
		IsAdmin:        d.IsAdmin,
		IsApproved:     d.IsApproved,
		AcceptedTerms:  d.AcceptedTerms,
		CreatedAt:      d.CreatedAt.UTC(),
	}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.seq.next(ctx, seqUsers)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	doc := toUserDoc(user)
	doc.ID = id

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			if strings.Contains(err.Error(), indexUserID) {
				return nil, domain.ErrUserIDTaken
			}
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDoc
	if err := r.coll.FindOne(ctx, filter, opts...).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	out := make([]*domain.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) FindByIDs(ctx context.Context, ids []int64) (map[int64]*domain.User, error) {
	out := make(map[int64]*domain.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	users, err := r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{"email": email}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count email: %w", err)
	}
	return n > 0, nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": user.ID}, toUserDoc(user))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrUserIDTaken
		}
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) SetApproved(ctx context.Context, id int64, approved bool) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"is_approved": approved}})
	if err != nil {
		return fmt.Errorf("set approval: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) ListContributors(ctx context.Context) ([]*domain.User, error) {
	return r.find(ctx, bson.M{"is_admin": false},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}))
}

func (r *UserRepository) CountContributors(ctx context.Context, approved bool) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{"is_admin": false, "is_approved": approved})
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r *UserRepository) NextUserSeq(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return r.seq.next(ctx, seqUserID)
}

func (r *UserRepository) LastCreated(ctx context.Context) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"user_id": bson.M{"$type": "string"}},
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}))
}

func (r *UserRepository) MaxID(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return maxID(ctx, r.coll)
}

func (r *UserRepository) MissingUserID(ctx context.Context) ([]*domain.User, error) {
	return r.find(ctx, bson.M{"$or": []bson.M{
		{"user_id": bson.M{"$exists": false}},
		{"user_id": ""},
		{"user_id": nil},
	}})
}
