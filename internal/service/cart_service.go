package service

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartService manages shopping carts
type CartService struct {
	products ProductReader
	carts    CartStore
	logger   *zap.Logger
}

func NewCartService(products ProductReader, carts CartStore) *CartService {
	return &CartService{
		products: products,
		carts:    carts,
		logger:   util.ComponentLogger("cart"),
	}
}

// CartItemInput adds a product to the cart
type CartItemInput struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,min=1,max=10000"`
}

// CartQuantityInput sets the quantity of a cart entry
type CartQuantityInput struct {
	Quantity int `json:"quantity" validate:"required,min=1,max=10000"`
}

// CartView is the cart with its computed subtotal
type CartView struct {
	Items    []models.CartLine
	Subtotal decimal.Decimal
	Count    int
}

func (s *CartService) GetCart(ctx context.Context, userID int64) (*CartView, error) {
	ctx, span := util.StartSpan(ctx, "CartService.GetCart")
	defer span.End()

	lines, err := s.carts.ListCart(ctx, userID)
	if err != nil {
		return nil, mapStoreError(err)
	}

	view := &CartView{Items: lines, Subtotal: decimal.Zero}
	for _, l := range lines {
		view.Subtotal = view.Subtotal.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
		view.Count += l.Quantity
	}
	return view, nil
}

// AddItem adds a product, merging with an existing entry for the same
// product. The merged quantity may not exceed stock.
func (s *CartService) AddItem(ctx context.Context, userID int64, in CartItemInput) (*models.CartEntry, error) {
	ctx, span := util.StartSpan(ctx, "CartService.AddItem")
	defer span.End()

	if err := validateStruct(&in); err != nil {
		return nil, err
	}

	product, err := s.products.GetProductByID(ctx, in.ProductID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NewValidationError("product_id", "selected product is invalid")
	}
	if err != nil {
		return nil, mapStoreError(err)
	}
	if !product.IsActive {
		return nil, ErrProductUnavailable
	}

	existing := 0
	entry, err := s.carts.GetCartEntry(ctx, userID, in.ProductID)
	switch {
	case err == nil:
		existing = entry.Quantity
	case !errors.Is(err, store.ErrNotFound):
		return nil, mapStoreError(err)
	}

	if existing+in.Quantity > product.Stock {
		return nil, fmt.Errorf("%w: only %d available", ErrInsufficientStock, product.Stock)
	}

	entry, err = s.carts.AddToCart(ctx, userID, in.ProductID, in.Quantity)
	if err != nil {
		return nil, mapStoreError(err)
	}

	s.logger.Debug("Cart item added",
		zap.Int64("user_id", userID),
		zap.Int64("product_id", in.ProductID),
		zap.Int("quantity", entry.Quantity))
	return entry, nil
}

// UpdateItem replaces the quantity of an existing entry
func (s *CartService) UpdateItem(ctx context.Context, userID, productID int64, in CartQuantityInput) error {
	ctx, span := util.StartSpan(ctx, "CartService.UpdateItem")
	defer span.End()

	if err := validateStruct(&in); err != nil {
		return err
	}

	if _, err := s.carts.GetCartEntry(ctx, userID, productID); err != nil {
		return mapStoreError(err)
	}

	product, err := s.products.GetProductByID(ctx, productID)
	if err != nil {
		return mapStoreError(err)
	}
	if in.Quantity > product.Stock {
		return fmt.Errorf("%w: only %d available", ErrInsufficientStock, product.Stock)
	}

	return mapStoreError(s.carts.SetCartQuantity(ctx, userID, productID, in.Quantity))
}

func (s *CartService) RemoveItem(ctx context.Context, userID, productID int64) error {
	return mapStoreError(s.carts.RemoveFromCart(ctx, userID, productID))
}

func (s *CartService) Clear(ctx context.Context, userID int64) error {
	return mapStoreError(s.carts.ClearCart(ctx, userID))
}

// Count sums the quantities in the cart
func (s *CartService) Count(ctx context.Context, userID int64) (int, error) {
	n, err := s.carts.CountCart(ctx, userID)
	return n, mapStoreError(err)
}
