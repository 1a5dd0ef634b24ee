package api

import (
	"time"

	"storefront/internal/models"
	"storefront/internal/service"

	"github.com/shopspring/decimal"
)

// money renders amounts as fixed two-decimal strings
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func (h *Handler) imageURL(name *string) *string {
	if name == nil {
		return nil
	}
	url := h.imageBase + "/" + *name
	return &url
}

type productResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	Stock       int       `json:"stock"`
	StockStatus string    `json:"stock_status,omitempty"`
	IsActive    bool      `json:"is_active"`
	Image       *string   `json:"image"`
	ImageURL    *string   `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (h *Handler) newProductResponse(p *models.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       money(p.Price),
		Stock:       p.Stock,
		IsActive:    p.IsActive,
		Image:       p.Image,
		ImageURL:    h.imageURL(p.Image),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (h *Handler) newProductList(products []models.Product) []productResponse {
	out := make([]productResponse, len(products))
	for i := range products {
		out[i] = h.newProductResponse(&products[i])
	}
	return out
}

type pageResponse[T any] struct {
	Data        []T `json:"data"`
	Total       int `json:"total"`
	PerPage     int `json:"per_page"`
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
}

func newPageResponse[S, T any](p *service.Page[S], convert func(*S) T) pageResponse[T] {
	data := make([]T, len(p.Data))
	for i := range p.Data {
		data[i] = convert(&p.Data[i])
	}
	return pageResponse[T]{
		Data:        data,
		Total:       p.Total,
		PerPage:     p.PerPage,
		CurrentPage: p.CurrentPage,
		LastPage:    p.LastPage,
	}
}

type orderItemResponse struct {
	ID           int64   `json:"id"`
	ProductID    int64   `json:"product_id"`
	ProductName  *string `json:"product_name"`
	ProductImage *string `json:"product_image"`
	Quantity     int     `json:"quantity"`
	Price        string  `json:"price"`
	Subtotal     string  `json:"subtotal"`
}

type orderResponse struct {
	ID              int64                  `json:"id"`
	OrderNumber     string                 `json:"order_number"`
	UserID          int64                  `json:"user_id"`
	Status          string                 `json:"status"`
	ShippingAddress models.AddressSnapshot `json:"shipping_address"`
	ShippingOption  string                 `json:"shipping_option"`
	ShippingFee     string                 `json:"shipping_fee"`
	PaymentMethod   string                 `json:"payment_method"`
	PaymentFee      string                 `json:"payment_fee"`
	Subtotal        string                 `json:"subtotal"`
	VoucherCode     *string                `json:"voucher_code"`
	VoucherDiscount string                 `json:"voucher_discount"`
	Total           string                 `json:"total"`
	CustomerName    string                 `json:"customer_name,omitempty"`
	ItemCount       int                    `json:"item_count,omitempty"`
	Items           []orderItemResponse    `json:"items,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

func newOrderResponse(o *models.Order) orderResponse {
	return orderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		Status:          o.Status,
		ShippingAddress: o.ShippingAddress,
		ShippingOption:  o.ShippingOption,
		ShippingFee:     money(o.ShippingFee),
		PaymentMethod:   o.PaymentMethod,
		PaymentFee:      money(o.PaymentFee),
		Subtotal:        money(o.Subtotal),
		VoucherCode:     o.VoucherCode,
		VoucherDiscount: money(o.VoucherDiscount),
		Total:           money(o.Total),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func (h *Handler) newOrderDetail(d *service.OrderDetail) orderResponse {
	resp := newOrderResponse(d.Order)
	resp.CustomerName = d.CustomerName
	resp.Items = make([]orderItemResponse, len(d.Items))
	for i, it := range d.Items {
		resp.Items[i] = orderItemResponse{
			ID:           it.ID,
			ProductID:    it.ProductID,
			ProductName:  it.ProductName,
			ProductImage: h.imageURL(it.ProductImage),
			Quantity:     it.Quantity,
			Price:        money(it.Price),
			Subtotal:     money(it.Subtotal),
		}
	}
	return resp
}

func newOrderSummary(s *models.OrderSummary) orderResponse {
	resp := newOrderResponse(&s.Order)
	resp.CustomerName = s.CustomerName
	resp.ItemCount = s.ItemCount
	return resp
}

func newOrderSummaries(list []models.OrderSummary) []orderResponse {
	out := make([]orderResponse, len(list))
	for i := range list {
		out[i] = newOrderSummary(&list[i])
	}
	return out
}

type cartItemResponse struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Price     string  `json:"price"`
	Quantity  int     `json:"quantity"`
	Stock     int     `json:"stock"`
	IsActive  bool    `json:"is_active"`
	LineTotal string  `json:"line_total"`
	ImageURL  *string `json:"image_url"`
}

type cartResponse struct {
	Items    []cartItemResponse `json:"items"`
	Subtotal string             `json:"subtotal"`
	Count    int                `json:"count"`
}

func (h *Handler) newCartResponse(v *service.CartView) cartResponse {
	items := make([]cartItemResponse, len(v.Items))
	for i, l := range v.Items {
		items[i] = cartItemResponse{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     money(l.Price),
			Quantity:  l.Quantity,
			Stock:     l.Stock,
			IsActive:  l.IsActive,
			LineTotal: money(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))),
			ImageURL:  h.imageURL(l.Image),
		}
	}
	return cartResponse{Items: items, Subtotal: money(v.Subtotal), Count: v.Count}
}

type wishlistItemResponse struct {
	ProductID int64     `json:"product_id"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	Stock     int       `json:"stock"`
	IsActive  bool      `json:"is_active"`
	ImageURL  *string   `json:"image_url"`
	AddedAt   time.Time `json:"added_at"`
}

func (h *Handler) newWishlist(items []models.WishlistItem) []wishlistItemResponse {
	out := make([]wishlistItemResponse, len(items))
	for i, it := range items {
		out[i] = wishlistItemResponse{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     money(it.Price),
			Stock:     it.Stock,
			IsActive:  it.IsActive,
			ImageURL:  h.imageURL(it.Image),
			AddedAt:   it.CreatedAt,
		}
	}
	return out
}

type refundResponse struct {
	ID           int64     `json:"id"`
	OrderID      int64     `json:"order_id"`
	OrderNumber  string    `json:"order_number"`
	UserID       int64     `json:"user_id"`
	CustomerName string    `json:"customer_name"`
	Amount       string    `json:"amount"`
	Reason       string    `json:"reason"`
	Status       string    `json:"status"`
	AdminNotes   *string   `json:"admin_notes"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func newRefundResponse(r *models.Refund) refundResponse {
	return refundResponse{
		ID:           r.ID,
		OrderID:      r.OrderID,
		OrderNumber:  r.OrderNumber,
		UserID:       r.UserID,
		CustomerName: r.CustomerName,
		Amount:       money(r.Amount),
		Reason:       r.Reason,
		Status:       r.Status,
		AdminNotes:   r.AdminNotes,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type metricResponse struct {
	Current  string  `json:"current"`
	Previous string  `json:"previous"`
	Change   float64 `json:"change"`
}

func newMetric(m service.MetricChange, asMoney bool) metricResponse {
	if asMoney {
		return metricResponse{Current: money(m.Current), Previous: money(m.Previous), Change: m.Change}
	}
	return metricResponse{Current: m.Current.String(), Previous: m.Previous.String(), Change: m.Change}
}
