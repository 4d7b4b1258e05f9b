package services

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AnshRaj112/travelnest-backend/internal/database"
	"github.com/AnshRaj112/travelnest-backend/internal/models"
)

// MongoAdminOTPStore persists admin sign-in codes so every instance sees the
// same code. A TTL index on expiresAt sweeps abandoned documents.
type MongoAdminOTPStore struct {
	col *mongo.Collection
}

func NewMongoAdminOTPStore(db *mongo.Database) *MongoAdminOTPStore {
	return &MongoAdminOTPStore{col: db.Collection(database.AdminOTPsCollection)}
}

// Put stores rec, replacing any pending code for the same email.
func (s *MongoAdminOTPStore) Put(ctx context.Context, rec models.AdminOTP) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	_, err := s.col.ReplaceOne(ctx, bson.M{"_id": rec.Email}, rec, options.Replace().SetUpsert(true))
	return err
}

func (s *MongoAdminOTPStore) Get(ctx context.Context, email string) (*models.AdminOTP, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	var rec models.AdminOTP
	if err := s.col.FindOne(ctx, bson.M{"_id": email}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrAdminOTPNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// Consume deletes the pending code for email only if it still has codeHash,
// so two concurrent verifications cannot both succeed.
func (s *MongoAdminOTPStore) Consume(ctx context.Context, email, codeHash string) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	res, err := s.col.DeleteOne(ctx, bson.M{"_id": email, "codeHash": codeHash})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return models.ErrAdminOTPNotFound
	}
	return nil
}

func (s *MongoAdminOTPStore) Delete(ctx context.Context, email string) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	_, err := s.col.DeleteOne(ctx, bson.M{"_id": email})
	return err
}
