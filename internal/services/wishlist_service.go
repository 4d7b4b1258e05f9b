package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AnshRaj112/travelnest-backend/internal/models"
)

// WishlistEntry is a saved package joined with its catalog data.
type WishlistEntry struct {
	Package models.TravelPackage `json:"package"`
	AddedAt time.Time            `json:"addedAt"`
}

type WishlistService struct {
	users    UserStore
	packages PackageStore
	now      func() time.Time
}

func NewWishlistService(users UserStore, packages PackageStore) *WishlistService {
	return &WishlistService{
		users:    users,
		packages: packages,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *WishlistService) loadUser(ctx context.Context, rawUserID string) (*models.User, error) {
	uid, err := primitive.ObjectIDFromHex(rawUserID)
	if err != nil {
		return nil, models.NewAuthError("Invalid session")
	}
	user, err := s.users.FindByID(ctx, uid)
	if errors.Is(err, models.ErrUserNotFound) {
		return nil, models.NewNotFoundError("User not found")
	}
	if err != nil {
		return nil, models.NewInternalError("Failed to load user", err)
	}
	return user, nil
}

// List returns the user's saved packages in the order they were added.
// Packages that were deactivated or deleted are skipped.
func (s *WishlistService) List(ctx context.Context, rawUserID string) ([]WishlistEntry, error) {
	user, err := s.loadUser(ctx, rawUserID)
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(user.Wishlist))
	for _, item := range user.Wishlist {
		ids = append(ids, item.PackageID)
	}
	packages, err := s.packages.FindByIDs(ctx, ids)
	if err != nil {
		return nil, models.NewInternalError("Failed to fetch wishlist packages", err)
	}
	byID := make(map[primitive.ObjectID]models.TravelPackage, len(packages))
	for _, p := range packages {
		byID[p.ID] = p
	}

	entries := make([]WishlistEntry, 0, len(user.Wishlist))
	for _, item := range user.Wishlist {
		if p, ok := byID[item.PackageID]; ok {
			entries = append(entries, WishlistEntry{Package: p, AddedAt: item.AddedAt})
		}
	}
	return entries, nil
}

// Add saves an active package to the user's wishlist once.
func (s *WishlistService) Add(ctx context.Context, rawUserID, rawPackageID string) error {
	if rawPackageID == "" {
		return models.NewValidationError("Package ID is required")
	}
	pid, err := parseObjectID(rawPackageID, "package")
	if err != nil {
		return err
	}
	user, err := s.loadUser(ctx, rawUserID)
	if err != nil {
		return err
	}

	pkg, err := s.packages.FindByID(ctx, pid)
	if errors.Is(err, models.ErrPackageNotFound) || (err == nil && !pkg.IsActive) {
		return models.NewNotFoundError("Package not found")
	}
	if err != nil {
		return models.NewInternalError("Failed to fetch package", err)
	}

	if user.HasWishlisted(pid) {
		return models.NewStateConflictError("Package already in wishlist")
	}
	err = s.users.AddWishlistItem(ctx, user.ID, models.WishlistItem{PackageID: pid, AddedAt: s.now()})
	if errors.Is(err, models.ErrAlreadyInWishlist) {
		return models.NewStateConflictError("Package already in wishlist")
	}
	if err != nil {
		return models.NewInternalError("Failed to update wishlist", err)
	}
	return nil
}

func (s *WishlistService) Remove(ctx context.Context, rawUserID, rawPackageID string) error {
	pid, err := parseObjectID(rawPackageID, "package")
	if err != nil {
		return err
	}
	uid, err := primitive.ObjectIDFromHex(rawUserID)
	if err != nil {
		return models.NewAuthError("Invalid session")
	}

	err = s.users.RemoveWishlistItem(ctx, uid, pid)
	if errors.Is(err, models.ErrNotInWishlist) {
		return models.NewNotFoundError("Package not in wishlist")
	}
	if err != nil {
		return models.NewInternalError("Failed to update wishlist", err)
	}
	return nil
}
