package service

import (
	"context"
	"strings"

	"storefront/internal/models"
	"storefront/internal/util"

	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CatalogService serves the storefront catalog and admin product management
type CatalogService struct {
	products     ProductStore
	images       ImageStore
	policy       *bluemonday.Policy
	lowStock     int
	defaultLimit int
	logger       *zap.Logger
}

func NewCatalogService(products ProductStore, images ImageStore, lowStockThreshold, defaultPageSize int) *CatalogService {
	if defaultPageSize <= 0 {
		defaultPageSize = 12
	}
	return &CatalogService{
		products:     products,
		images:       images,
		policy:       bluemonday.UGCPolicy(),
		lowStock:     lowStockThreshold,
		defaultLimit: defaultPageSize,
		logger:       util.ComponentLogger("catalog"),
	}
}

// ProductQuery filters catalog listings
type ProductQuery struct {
	Search  string `form:"search" json:"search" validate:"max=255"`
	Page    int    `form:"page" json:"page" validate:"gte=0"`
	PerPage int    `form:"per_page" json:"per_page" validate:"gte=0,max=100"`
}

// ProductInput creates or edits a product
type ProductInput struct {
	Name        string          `json:"name" form:"name" validate:"required,max=255"`
	Description string          `json:"description" form:"description" validate:"max=10000"`
	Price       decimal.Decimal `json:"price" form:"price" validate:"gte=0,lte=99999999"`
	Stock       int             `json:"stock" form:"stock" validate:"gte=0"`
	IsActive    *bool           `json:"is_active" form:"is_active"`
	RemoveImage bool            `json:"remove_image" form:"remove_image"`
}

// StockStatus labels a stock level for admin listings
func (s *CatalogService) StockStatus(stock int) string {
	return models.StockStatus(stock, s.lowStock)
}

// ListActive lists products visible in the storefront
func (s *CatalogService) ListActive(ctx context.Context, q ProductQuery) (*Page[models.Product], error) {
	return s.list(ctx, q, true)
}

// List lists every product for the admin catalog
func (s *CatalogService) List(ctx context.Context, q ProductQuery) (*Page[models.Product], error) {
	return s.list(ctx, q, false)
}

func (s *CatalogService) list(ctx context.Context, q ProductQuery, activeOnly bool) (*Page[models.Product], error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.List")
	defer span.End()

	if err := validateStruct(&q); err != nil {
		return nil, err
	}
	if q.PerPage == 0 {
		q.PerPage = s.defaultLimit
	}

	products, total, err := s.products.ListProducts(ctx, models.ProductFilter{
		Search:     strings.TrimSpace(q.Search),
		ActiveOnly: activeOnly,
		Page:       q.Page,
		PerPage:    q.PerPage,
	})
	if err != nil {
		return nil, mapStoreError(err)
	}

	page := newPage(products, total, q.Page, q.PerPage)
	return &page, nil
}

// GetActive returns a storefront product. Inactive products are not found.
func (s *CatalogService) GetActive(ctx context.Context, id int64) (*models.Product, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *CatalogService) Get(ctx context.Context, id int64) (*models.Product, error) {
	p, err := s.products.GetProductByID(ctx, id)
	return p, mapStoreError(err)
}

// Latest returns the newest purchasable products
func (s *CatalogService) Latest(ctx context.Context, limit int) ([]models.Product, error) {
	products, err := s.products.LatestActiveProducts(ctx, limit)
	return products, mapStoreError(err)
}

func (s *CatalogService) Create(ctx context.Context, in ProductInput, image *ImageUpload) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.Create")
	defer span.End()

	if err := validateStruct(&in); err != nil {
		return nil, err
	}

	p := &models.Product{IsActive: true}
	s.apply(p, in)

	if image != nil {
		name, err := s.images.Save(*image)
		if err != nil {
			return nil, err
		}
		p.Image = &name
	}

	if err := s.products.CreateProduct(ctx, p); err != nil {
		s.removeImage(p.Image)
		return nil, mapStoreError(err)
	}

	s.logger.Info("Product created", zap.Int64("product_id", p.ID))
	return p, nil
}

// Update edits a product. A new image replaces the old file; RemoveImage
// drops the current one.
func (s *CatalogService) Update(ctx context.Context, id int64, in ProductInput, image *ImageUpload) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.Update")
	defer span.End()

	if err := validateStruct(&in); err != nil {
		return nil, err
	}

	p, err := s.products.GetProductByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err)
	}
	oldImage := p.Image
	s.apply(p, in)

	switch {
	case image != nil:
		name, err := s.images.Save(*image)
		if err != nil {
			return nil, err
		}
		p.Image = &name
	case in.RemoveImage:
		p.Image = nil
	}

	if err := s.products.UpdateProduct(ctx, p); err != nil {
		if p.Image != oldImage {
			s.removeImage(p.Image)
		}
		return nil, mapStoreError(err)
	}

	if oldImage != nil && (p.Image == nil || *p.Image != *oldImage) {
		s.removeImage(oldImage)
	}
	return p, nil
}

func (s *CatalogService) Delete(ctx context.Context, id int64) error {
	ctx, span := util.StartSpan(ctx, "CatalogService.Delete")
	defer span.End()

	p, err := s.products.GetProductByID(ctx, id)
	if err != nil {
		return mapStoreError(err)
	}
	if err := s.products.DeleteProduct(ctx, id); err != nil {
		return mapStoreError(err)
	}

	s.removeImage(p.Image)
	s.logger.Info("Product deleted", zap.Int64("product_id", id))
	return nil
}

func (s *CatalogService) apply(p *models.Product, in ProductInput) {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = s.policy.Sanitize(in.Description)
	p.Price = in.Price.Round(2)
	p.Stock = in.Stock
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
}

func (s *CatalogService) removeImage(name *string) {
	if name == nil || s.images == nil {
		return
	}
	if err := s.images.Remove(*name); err != nil {
		s.logger.Warn("Failed to remove product image", zap.String("image", *name), zap.Error(err))
	}
}
