package mongostore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/liveflow/donor-service/internal/domain"
	"github.com/liveflow/donor-service/internal/repository"
)

type requestStore struct {
	c *mongo.Collection
}

func (s *requestStore) Create(ctx context.Context, req *domain.BloodRequest) error {
	doc := newRequestDoc(req)
	doc.ID = primitive.NewObjectID()
	if _, err := s.c.InsertOne(ctx, doc); err != nil {
		return mapWriteErr(err)
	}
	req.ID = doc.ID.Hex()
	return nil
}

func (s *requestStore) GetByID(ctx context.Context, id string) (*domain.BloodRequest, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var doc requestDoc
	if err := s.c.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	req := doc.toDomain()
	return &req, nil
}

func (s *requestStore) List(ctx context.Context, filter repository.BloodRequestFilter) ([]domain.BloodRequest, error) {
	q := bson.M{}
	if filter.RegistererEmail != "" {
		q["registererEmail"] = filter.RegistererEmail
	}
	if filter.BloodGroup != "" {
		q["bloodGroup"] = filter.BloodGroup
	}
	if filter.Status != "" {
		q["status"] = string(filter.Status)
	}
	opts := options.Find()
	if filter.NewestFirst {
		opts.SetSort(bson.D{{Key: "requestTime", Value: -1}})
	}
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll(ctx, cur, requestDoc.toDomain)
}

func (s *requestStore) Update(ctx context.Context, id string, expected domain.RequestStatus, patch repository.Patch) (repository.UpdateResult, error) {
	oid, err := parseID(id)
	if err != nil {
		return repository.UpdateResult{}, err
	}
	q := bson.M{"_id": oid}
	if expected != "" {
		q["status"] = string(expected)
	}
	res, err := s.c.UpdateOne(ctx, q, setPatch(patch))
	if err != nil {
		return repository.UpdateResult{}, err
	}
	return updateResult(res), nil
}

func (s *requestStore) Delete(ctx context.Context, id string) (int64, error) {
	oid, err := parseID(id)
	if err != nil {
		return 0, err
	}
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *requestStore) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}
