package service

import (
	"context"
	"errors"

	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"
)

// WishlistService manages saved products
type WishlistService struct {
	products ProductReader
	store    WishlistStore
}

func NewWishlistService(products ProductReader, store WishlistStore) *WishlistService {
	return &WishlistService{products: products, store: store}
}

// WishlistInput saves a product
type WishlistInput struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
}

func (s *WishlistService) List(ctx context.Context, userID int64) ([]models.WishlistItem, error) {
	ctx, span := util.StartSpan(ctx, "WishlistService.List")
	defer span.End()

	items, err := s.store.ListWishlist(ctx, userID)
	return items, mapStoreError(err)
}

// Add saves a product. Saving it again is not an error.
func (s *WishlistService) Add(ctx context.Context, userID int64, in WishlistInput) error {
	if err := validateStruct(&in); err != nil {
		return err
	}

	if _, err := s.products.GetProductByID(ctx, in.ProductID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NewValidationError("product_id", "selected product is invalid")
		}
		return mapStoreError(err)
	}

	return mapStoreError(s.store.AddToWishlist(ctx, userID, in.ProductID))
}

func (s *WishlistService) Remove(ctx context.Context, userID, productID int64) error {
	return mapStoreError(s.store.RemoveFromWishlist(ctx, userID, productID))
}

func (s *WishlistService) Count(ctx context.Context, userID int64) (int, error) {
	n, err := s.store.CountWishlist(ctx, userID)
	return n, mapStoreError(err)
}
