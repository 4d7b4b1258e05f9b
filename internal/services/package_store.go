package services

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AnshRaj112/travelnest-backend/internal/database"
	"github.com/AnshRaj112/travelnest-backend/internal/models"
)

const (
	DefaultPageSize = 12
	MaxPageSize     = 50
)

type MongoPackageStore struct {
	col *mongo.Collection
	now func() time.Time
}

func NewMongoPackageStore(db *mongo.Database) *MongoPackageStore {
	return &MongoPackageStore{
		col: db.Collection(database.PackagesCollection),
		now: func() time.Time { return time.Now().UTC() },
	}
}

func packageQuery(f models.PackageFilter) bson.M {
	filter := bson.M{}
	if !f.IncludeInactive {
		filter["isActive"] = true
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Destination != "" {
		filter["destination"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(f.Destination) + "$", Options: "i"}
	}
	if f.FeaturedOnly {
		filter["isFeatured"] = true
	}
	return filter
}

// normalizePage clamps page and limit to sane values.
func normalizePage(page, limit int64) (int64, int64) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

// List returns one page of packages, newest first, plus the total match count.
func (s *MongoPackageStore) List(ctx context.Context, f models.PackageFilter) ([]models.TravelPackage, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	filter := packageQuery(f)
	page, limit := normalizePage(f.Page, f.Limit)

	total, err := s.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	packages := []models.TravelPackage{}
	if err := cursor.All(ctx, &packages); err != nil {
		return nil, 0, err
	}
	return packages, total, nil
}

func (s *MongoPackageStore) findOne(ctx context.Context, filter bson.M) (*models.TravelPackage, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	var pkg models.TravelPackage
	if err := s.col.FindOne(ctx, filter).Decode(&pkg); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrPackageNotFound
		}
		return nil, err
	}
	return &pkg, nil
}

func (s *MongoPackageStore) FindBySlug(ctx context.Context, slug string) (*models.TravelPackage, error) {
	return s.findOne(ctx, bson.M{"slug": slug})
}

func (s *MongoPackageStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.TravelPackage, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// FindByIDs returns the active packages among ids, in no particular order.
func (s *MongoPackageStore) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.TravelPackage, error) {
	packages := []models.TravelPackage{}
	if len(ids) == 0 {
		return packages, nil
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	cursor, err := s.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}, "isActive": true})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, &packages); err != nil {
		return nil, err
	}
	return packages, nil
}

func (s *MongoPackageStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	count, err := s.col.CountDocuments(ctx, bson.M{"slug": slug}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *MongoPackageStore) Create(ctx context.Context, pkg *models.TravelPackage) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	now := s.now()
	pkg.CreatedAt = now
	pkg.UpdatedAt = now

	res, err := s.col.InsertOne(ctx, pkg)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrDuplicateSlug
		}
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		pkg.ID = oid
	}
	return nil
}

// Replace overwrites every editable field of the package with pkg.
func (s *MongoPackageStore) Replace(ctx context.Context, pkg *models.TravelPackage) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	pkg.UpdatedAt = s.now()
	res, err := s.col.ReplaceOne(ctx, bson.M{"_id": pkg.ID}, pkg)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrDuplicateSlug
		}
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrPackageNotFound
	}
	return nil
}

func (s *MongoPackageStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return models.ErrPackageNotFound
	}
	return nil
}
