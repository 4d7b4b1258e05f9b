package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/AnshRaj112/travelnest-backend/internal/database"
	"github.com/AnshRaj112/travelnest-backend/internal/models"
	"github.com/AnshRaj112/travelnest-backend/internal/otp"
)

const storeTimeout = 5 * time.Second

// PendingUpdate carries the fields a repeat registration may change on an
// unverified account. Empty values leave the stored field untouched.
type PendingUpdate struct {
	Name         string
	PasswordHash string
	Phone        string
	DateOfBirth  *time.Time
}

// MongoUserStore keeps customer accounts, their pending challenge and their
// wishlist in the users collection. Every mutation is a single document write.
type MongoUserStore struct {
	col *mongo.Collection
	now func() time.Time
}

func NewMongoUserStore(db *mongo.Database) *MongoUserStore {
	return &MongoUserStore{
		col: db.Collection(database.UsersCollection),
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (s *MongoUserStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	var user models.User
	if err := s.col.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *MongoUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *MongoUserStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// Create inserts user and fills in its ID. A second account for the same
// email fails with ErrDuplicateEmail.
func (s *MongoUserStore) Create(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	now := s.now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Wishlist == nil {
		user.Wishlist = []models.WishlistItem{}
	}

	res, err := s.col.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrDuplicateEmail
		}
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = oid
	}
	return nil
}

func (s *MongoUserStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	_, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (s *MongoUserStore) update(ctx context.Context, filter bson.M, update bson.M) (*mongo.UpdateResult, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	if set, ok := update["$set"].(bson.M); ok {
		set["updatedAt"] = s.now()
	} else {
		update["$set"] = bson.M{"updatedAt": s.now()}
	}
	return s.col.UpdateOne(ctx, filter, update)
}

func (s *MongoUserStore) updateByID(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	res, err := s.update(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

// SetChallenge stores ch as the user's only pending challenge.
func (s *MongoUserStore) SetChallenge(ctx context.Context, id primitive.ObjectID, ch otp.Challenge) error {
	return s.updateByID(ctx, id, bson.M{"$set": bson.M{"challenge": ch}})
}

func (s *MongoUserStore) ClearChallenge(ctx context.Context, id primitive.ObjectID) error {
	return s.updateByID(ctx, id, bson.M{"$unset": bson.M{"challenge": ""}})
}

func (s *MongoUserStore) IncrementAttempts(ctx context.Context, id primitive.ObjectID) error {
	return s.updateByID(ctx, id, bson.M{"$inc": bson.M{"challenge.attempts": 1}})
}

// RefreshPending updates an unverified account and issues ch in one write.
// The isEmailVerified guard keeps a verified account from being modified.
func (s *MongoUserStore) RefreshPending(ctx context.Context, id primitive.ObjectID, upd PendingUpdate, ch otp.Challenge) error {
	set := bson.M{"challenge": ch}
	if upd.Name != "" {
		set["name"] = upd.Name
	}
	if upd.PasswordHash != "" {
		set["passwordHash"] = upd.PasswordHash
	}
	if upd.Phone != "" {
		set["phone"] = upd.Phone
	}
	if upd.DateOfBirth != nil {
		set["dateOfBirth"] = upd.DateOfBirth
	}

	res, err := s.update(ctx, bson.M{"_id": id, "isEmailVerified": false}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

// MarkVerified flips isEmailVerified to true and drops the challenge. Nothing
// in the store ever sets the flag back to false.
func (s *MongoUserStore) MarkVerified(ctx context.Context, id primitive.ObjectID) error {
	return s.updateByID(ctx, id, bson.M{
		"$set":   bson.M{"isEmailVerified": true},
		"$unset": bson.M{"challenge": ""},
	})
}

// UpdatePassword stores a new hash and drops the reset token.
func (s *MongoUserStore) UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	return s.updateByID(ctx, id, bson.M{
		"$set":   bson.M{"passwordHash": passwordHash},
		"$unset": bson.M{"challenge": ""},
	})
}

// AddWishlistItem appends item unless the package is already listed.
func (s *MongoUserStore) AddWishlistItem(ctx context.Context, userID primitive.ObjectID, item models.WishlistItem) error {
	res, err := s.update(ctx,
		bson.M{"_id": userID, "wishlist.packageId": bson.M{"$ne": item.PackageID}},
		bson.M{"$push": bson.M{"wishlist": item}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrAlreadyInWishlist
	}
	return nil
}

func (s *MongoUserStore) RemoveWishlistItem(ctx context.Context, userID, packageID primitive.ObjectID) error {
	res, err := s.update(ctx,
		bson.M{"_id": userID, "wishlist.packageId": packageID},
		bson.M{"$pull": bson.M{"wishlist": bson.M{"packageId": packageID}}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotInWishlist
	}
	return nil
}

// PullPackageFromWishlists removes a deleted package from every wishlist.
func (s *MongoUserStore) PullPackageFromWishlists(ctx context.Context, packageID primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	_, err := s.col.UpdateMany(ctx,
		bson.M{"wishlist.packageId": packageID},
		bson.M{"$pull": bson.M{"wishlist": bson.M{"packageId": packageID}}},
	)
	return err
}
