package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/AnshRaj112/travelnest-backend/internal/models"
	"github.com/AnshRaj112/travelnest-backend/pkg/utils"
)

const (
	packagesCacheResource = "packages"
	packageCacheResource  = "package"
	defaultCurrency       = "INR"
	maxSlugCandidates     = 20
)

// PackagePage is one page of catalog results.
type PackagePage struct {
	Packages []models.TravelPackage `json:"packages"`
	Total    int64                  `json:"total"`
	Page     int64                  `json:"page"`
	Limit    int64                  `json:"limit"`
}

// PackageService owns the catalog: public reads go through the Redis cache,
// admin writes invalidate it.
type PackageService struct {
	packages PackageStore
	users    UserStore
	cache    Cache
	logger   *zap.Logger
}

func NewPackageService(packages PackageStore, users UserStore, cache Cache, logger *zap.Logger) *PackageService {
	return &PackageService{packages: packages, users: users, cache: cache, logger: logger}
}

func listCacheKey(f models.PackageFilter) string {
	page, limit := normalizePage(f.Page, f.Limit)
	id := fmt.Sprintf("c=%s|d=%s|f=%t|p=%d|l=%d",
		strings.ToLower(f.Category), strings.ToLower(f.Destination), f.FeaturedOnly, page, limit)
	return CacheKey(packagesCacheResource, id)
}

// List returns active packages matching f, newest first.
func (s *PackageService) List(ctx context.Context, f models.PackageFilter) (*PackagePage, error) {
	f.IncludeInactive = false
	f.Category = strings.TrimSpace(f.Category)
	f.Destination = strings.TrimSpace(f.Destination)

	key := listCacheKey(f)
	var cached PackagePage
	if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.logger.Warn("package cache read failed", zap.String("key", key), zap.Error(err))
	} else if hit {
		return &cached, nil
	}

	page, err := s.list(ctx, f)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, page); err != nil {
		s.logger.Warn("package cache write failed", zap.String("key", key), zap.Error(err))
	}
	return page, nil
}

// AdminList returns every package including inactive ones. Never cached.
func (s *PackageService) AdminList(ctx context.Context, f models.PackageFilter) (*PackagePage, error) {
	f.IncludeInactive = true
	return s.list(ctx, f)
}

func (s *PackageService) list(ctx context.Context, f models.PackageFilter) (*PackagePage, error) {
	packages, total, err := s.packages.List(ctx, f)
	if err != nil {
		return nil, models.NewInternalError("Failed to fetch packages", err)
	}
	page, limit := normalizePage(f.Page, f.Limit)
	return &PackagePage{Packages: packages, Total: total, Page: page, Limit: limit}, nil
}

// GetBySlug returns an active package. Inactive packages are reported as
// missing.
func (s *PackageService) GetBySlug(ctx context.Context, slug string) (*models.TravelPackage, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return nil, models.NewValidationError("Package slug is required")
	}

	key := CacheKey(packageCacheResource, slug)
	var cached models.TravelPackage
	if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.logger.Warn("package cache read failed", zap.String("key", key), zap.Error(err))
	} else if hit {
		return &cached, nil
	}

	pkg, err := s.packages.FindBySlug(ctx, slug)
	if errors.Is(err, models.ErrPackageNotFound) || (err == nil && !pkg.IsActive) {
		return nil, models.NewNotFoundError("Package not found")
	}
	if err != nil {
		return nil, models.NewInternalError("Failed to fetch package", err)
	}

	if err := s.cache.Set(ctx, key, pkg); err != nil {
		s.logger.Warn("package cache write failed", zap.String("key", key), zap.Error(err))
	}
	return pkg, nil
}

func parseObjectID(raw, what string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
	if err != nil {
		return primitive.NilObjectID, models.NewValidationError("Invalid " + what + " ID")
	}
	return oid, nil
}

func validatePackageInput(in *models.PackageInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Destination = strings.TrimSpace(in.Destination)
	in.Category = strings.ToLower(strings.TrimSpace(in.Category))
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))

	switch {
	case in.Title == "" || in.Destination == "":
		return models.NewValidationError("Title and destination are required")
	case in.DurationDays < 1:
		return models.NewValidationError("Duration must be at least one day")
	case in.DurationNights < 0 || in.DurationNights > in.DurationDays:
		return models.NewValidationError("Nights must be between 0 and the number of days")
	case in.Price < 0:
		return models.NewValidationError("Price cannot be negative")
	}
	for i, day := range in.Itinerary {
		if day.Day < 1 || strings.TrimSpace(day.Title) == "" {
			return models.NewValidationError(fmt.Sprintf("Itinerary entry %d needs a day number and title", i+1))
		}
	}
	if in.Currency == "" {
		in.Currency = defaultCurrency
	}
	return nil
}

func applyPackageInput(pkg *models.TravelPackage, in models.PackageInput) {
	pkg.Title = in.Title
	pkg.Destination = in.Destination
	pkg.Category = in.Category
	pkg.Summary = strings.TrimSpace(in.Summary)
	pkg.Description = strings.TrimSpace(in.Description)
	pkg.DurationDays = in.DurationDays
	pkg.DurationNights = in.DurationNights
	pkg.Price = in.Price
	pkg.Currency = in.Currency
	pkg.Images = in.Images
	pkg.Highlights = in.Highlights
	pkg.Itinerary = in.Itinerary
	pkg.Inclusions = in.Inclusions
	pkg.Exclusions = in.Exclusions
	pkg.IsFeatured = in.IsFeatured
	if in.IsActive != nil {
		pkg.IsActive = *in.IsActive
	}
}

// uniqueSlug derives a slug from title that no other package uses. Numbered
// suffixes are tried first, then a random one.
func (s *PackageService) uniqueSlug(ctx context.Context, title string) (string, error) {
	base := utils.Slugify(title)
	slug := base
	for i := 2; i <= maxSlugCandidates; i++ {
		exists, err := s.packages.SlugExists(ctx, slug)
		if err != nil {
			return "", err
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
	return base + "-" + uuid.New().String()[:8], nil
}

func (s *PackageService) invalidate(ctx context.Context, slugs ...string) {
	if err := s.cache.DeletePrefix(ctx, packagesCacheResource); err != nil {
		s.logger.Warn("failed to invalidate package listings", zap.Error(err))
	}
	for _, slug := range slugs {
		if slug == "" {
			continue
		}
		if err := s.cache.Delete(ctx, CacheKey(packageCacheResource, slug)); err != nil {
			s.logger.Warn("failed to invalidate package", zap.String("slug", slug), zap.Error(err))
		}
	}
}

func (s *PackageService) Create(ctx context.Context, in models.PackageInput) (*models.TravelPackage, error) {
	if err := validatePackageInput(&in); err != nil {
		return nil, err
	}
	slug, err := s.uniqueSlug(ctx, in.Title)
	if err != nil {
		return nil, models.NewInternalError("Failed to generate slug", err)
	}

	pkg := &models.TravelPackage{Slug: slug, IsActive: true}
	applyPackageInput(pkg, in)

	if err := s.packages.Create(ctx, pkg); err != nil {
		if errors.Is(err, models.ErrDuplicateSlug) {
			return nil, models.NewStateConflictError("A package with a similar title was just created. Please retry")
		}
		return nil, models.NewInternalError("Failed to create package", err)
	}
	s.invalidate(ctx)
	return pkg, nil
}

// Update replaces a package's content. The slug changes only when the title
// does.
func (s *PackageService) Update(ctx context.Context, rawID string, in models.PackageInput) (*models.TravelPackage, error) {
	id, err := parseObjectID(rawID, "package")
	if err != nil {
		return nil, err
	}
	if err := validatePackageInput(&in); err != nil {
		return nil, err
	}

	pkg, err := s.packages.FindByID(ctx, id)
	if errors.Is(err, models.ErrPackageNotFound) {
		return nil, models.NewNotFoundError("Package not found")
	}
	if err != nil {
		return nil, models.NewInternalError("Failed to fetch package", err)
	}

	oldSlug := pkg.Slug
	if !strings.EqualFold(pkg.Title, in.Title) && utils.Slugify(in.Title) != pkg.Slug {
		slug, err := s.uniqueSlug(ctx, in.Title)
		if err != nil {
			return nil, models.NewInternalError("Failed to generate slug", err)
		}
		pkg.Slug = slug
	}
	applyPackageInput(pkg, in)

	if err := s.packages.Replace(ctx, pkg); err != nil {
		switch {
		case errors.Is(err, models.ErrPackageNotFound):
			return nil, models.NewNotFoundError("Package not found")
		case errors.Is(err, models.ErrDuplicateSlug):
			return nil, models.NewStateConflictError("A package with a similar title already exists")
		}
		return nil, models.NewInternalError("Failed to update package", err)
	}
	s.invalidate(ctx, oldSlug, pkg.Slug)
	return pkg, nil
}

// Delete removes a package and drops it from every wishlist.
func (s *PackageService) Delete(ctx context.Context, rawID string) error {
	id, err := parseObjectID(rawID, "package")
	if err != nil {
		return err
	}
	pkg, err := s.packages.FindByID(ctx, id)
	if errors.Is(err, models.ErrPackageNotFound) {
		return models.NewNotFoundError("Package not found")
	}
	if err != nil {
		return models.NewInternalError("Failed to fetch package", err)
	}

	if err := s.packages.Delete(ctx, id); err != nil {
		if errors.Is(err, models.ErrPackageNotFound) {
			return models.NewNotFoundError("Package not found")
		}
		return models.NewInternalError("Failed to delete package", err)
	}
	if err := s.users.PullPackageFromWishlists(ctx, id); err != nil {
		s.logger.Warn("failed to remove deleted package from wishlists", zap.String("packageId", rawID), zap.Error(err))
	}
	s.invalidate(ctx, pkg.Slug)
	return nil
}
