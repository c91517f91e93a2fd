// Package mongostore implements the repositories over MongoDB collections.
package mongostore

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/liveflow/donor-service/internal/repository"
)

// Collection names.
const (
	UsersCollection           = "users"
	RequestsCollection        = "bloodRequests"
	DeletedRequestsCollection = "deletedBloodRequests"
	DonationsCollection       = "donations"
)

// New builds a repository.Store over db.
func New(db *mongo.Database, logger *zap.Logger) repository.Store {
	return repository.Store{
		Users:     &userStore{c: db.Collection(UsersCollection)},
		Requests:  &requestStore{c: db.Collection(RequestsCollection)},
		Deleted:   &deletedStore{c: db.Collection(DeletedRequestsCollection)},
		Donations: &donationStore{c: db.Collection(DonationsCollection)},
		Tx:        &transactor{client: db.Client(), logger: logger},
	}
}

// EnsureIndexes creates the unique and lookup indexes the repositories rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		UsersCollection: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetName("uniq_users_email").SetUnique(true),
			},
		},
		RequestsCollection: {
			{
				Keys:    bson.D{{Key: "registererEmail", Value: 1}, {Key: "requestTime", Value: -1}},
				Options: options.Index().SetName("idx_requests_registerer_time"),
			},
		},
		DeletedRequestsCollection: {
			{
				Keys:    bson.D{{Key: "originalId", Value: 1}},
				Options: options.Index().SetName("uniq_deleted_original").SetUnique(true),
			},
		},
		DonationsCollection: {
			{
				Keys:    bson.D{{Key: "transactionId", Value: 1}},
				Options: options.Index().SetName("uniq_donations_transaction").SetUnique(true),
			},
		},
	}
	for name, models := range specs {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}

type transactor struct {
	client *mongo.Client
	logger *zap.Logger
}

// WithinTransaction runs fn in a multi-document transaction. Standalone
// servers reject transactions; fn is then run again without one.
func (t *transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if repository.InTransaction(ctx) {
		return fn(ctx)
	}
	sess, err := t.client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(repository.MarkTransaction(sc))
	})
	if err != nil && IsNotSupported(err) {
		t.logger.Debug("transactions unsupported; running without one", zap.Error(err))
		return fn(ctx)
	}
	return err
}

// IsNotSupported reports whether err means the deployment cannot run
// multi-document transactions.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, 51, 263:
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	hasTxn := strings.Contains(msg, "transaction")
	switch {
	case hasTxn && strings.Contains(msg, "replica set"):
		return true
	case strings.Contains(msg, "session") && strings.Contains(msg, "not supported"):
		return true
	case hasTxn && strings.Contains(msg, "session"):
		return true
	case hasTxn && strings.Contains(msg, "illegal operation"):
		return true
	}
	return false
}

func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	return errors.As(err, &ce) && ce.Code == 11000
}

func mapWriteErr(err error) error {
	if isDuplicateKeyErr(err) {
		return repository.ErrDuplicate
	}
	return err
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, repository.ErrMalformedID
	}
	return oid, nil
}

func setPatch(patch repository.Patch) bson.M {
	return bson.M{"$set": bson.M(patch)}
}

func updateResult(res *mongo.UpdateResult) repository.UpdateResult {
	return repository.UpdateResult{Matched: res.MatchedCount, Modified: res.ModifiedCount}
}

func decodeAll[D any, T any](ctx context.Context, cur *mongo.Cursor, convert func(D) T) ([]T, error) {
	defer cur.Close(ctx)
	out := make([]T, 0)
	for cur.Next(ctx) {
		var doc D
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, convert(doc))
	}
	return out, cur.Err()
}
