package mongostore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/liveflow/donor-service/internal/domain"
	"github.com/liveflow/donor-service/internal/repository"
)

type userStore struct {
	c *mongo.Collection
}

func (s *userStore) Create(ctx context.Context, user *domain.User) error {
	doc := newUserDoc(user)
	doc.ID = primitive.NewObjectID()
	if _, err := s.c.InsertOne(ctx, doc); err != nil {
		return mapWriteErr(err)
	}
	user.ID = doc.ID.Hex()
	return nil
}

func (s *userStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var doc userDoc
	if err := s.c.FindOne(ctx, bson.M{"email": email}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	user := doc.toDomain()
	return &user, nil
}

func (s *userStore) List(ctx context.Context, filter repository.UserFilter) ([]domain.User, error) {
	q := bson.M{}
	if filter.Status != "" {
		q["status"] = string(filter.Status)
	}
	if filter.BloodGroup != "" {
		q["bloodGroup"] = filter.BloodGroup
	}
	if filter.District != "" {
		q["district"] = filter.District
	}
	if filter.Upazila != "" {
		q["upazila"] = filter.Upazila
	}
	cur, err := s.c.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	return decodeAll(ctx, cur, userDoc.toDomain)
}

func (s *userStore) Update(ctx context.Context, email string, patch repository.Patch) (repository.UpdateResult, error) {
	res, err := s.c.UpdateOne(ctx, bson.M{"email": email}, setPatch(patch))
	if err != nil {
		return repository.UpdateResult{}, err
	}
	return updateResult(res), nil
}

func (s *userStore) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}
