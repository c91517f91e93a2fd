package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/liveflow/donor-service/internal/domain"
	"github.com/liveflow/donor-service/internal/repository"
)

type deletedStore struct {
	c *mongo.Collection
}

func (s *deletedStore) Create(ctx context.Context, archived *domain.DeletedBloodRequest) error {
	if archived.DeletedAt.IsZero() {
		archived.DeletedAt = time.Now().UTC()
	}
	doc := deletedDoc{
		Request:    newRequestDoc(&archived.BloodRequest),
		OriginalID: archived.OriginalID,
		DeletedAt:  archived.DeletedAt,
	}
	doc.Request.ID = primitive.NewObjectID()
	if _, err := s.c.InsertOne(ctx, doc); err != nil {
		return mapWriteErr(err)
	}
	archived.ID = doc.Request.ID.Hex()
	return nil
}

func (s *deletedStore) List(ctx context.Context) ([]domain.DeletedBloodRequest, error) {
	cur, err := s.c.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	return decodeAll(ctx, cur, deletedDoc.toDomain)
}

type donationStore struct {
	c *mongo.Collection
}

func (s *donationStore) Create(ctx context.Context, donation *domain.Donation) error {
	doc := donationDoc{
		ID:            primitive.NewObjectID(),
		Donor:         donation.Donor,
		DonorEmail:    donation.DonorEmail,
		Amount:        donation.Amount,
		TransactionID: donation.TransactionID,
		PaymentStatus: donation.PaymentStatus,
		DonateAt:      donation.DonateAt,
	}
	if _, err := s.c.InsertOne(ctx, doc); err != nil {
		return mapWriteErr(err)
	}
	donation.ID = doc.ID.Hex()
	return nil
}

func (s *donationStore) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Donation, error) {
	var doc donationDoc
	if err := s.c.FindOne(ctx, bson.M{"transactionId": transactionID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	donation := doc.toDomain()
	return &donation, nil
}

func (s *donationStore) List(ctx context.Context) ([]domain.Donation, error) {
	cur, err := s.c.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	return decodeAll(ctx, cur, donationDoc.toDomain)
}

func (s *donationStore) TotalAmount(ctx context.Context) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: nil}, {Key: "total", Value: bson.D{{Key: "$sum", Value: "$amount"}}}}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)
	var row struct {
		Total float64 `bson:"total"`
	}
	if cur.Next(ctx) {
		if err := cur.Decode(&row); err != nil {
			return 0, err
		}
	}
	return row.Total, cur.Err()
}
