package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"storefront/internal/models"
	"storefront/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// dashboard and notifications

func (h *Handler) adminDashboard(c *gin.Context) {
	d, err := h.svc.Reports.Dashboard(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"month":         d.Month,
		"orders":        newMetric(d.Orders, false),
		"customers":     newMetric(d.Customers, false),
		"products":      newMetric(d.Products, false),
		"revenue":       newMetric(d.Revenue, true),
		"recent_orders": newOrderSummaries(d.RecentOrders),
	})
}

func (h *Handler) monthlyReport(c *gin.Context) {
	month := time.Now()
	if raw := c.Query("month"); raw != "" {
		parsed, err := time.Parse("2006-01", raw)
		if err != nil {
			h.writeError(c, service.NewValidationError("month", "month must be formatted as YYYY-MM"))
			return
		}
		month = parsed
	}

	stats, err := h.svc.Reports.MonthlyStats(c.Request.Context(), month)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"month":     month.Format("2006-01"),
		"orders":    stats.Orders,
		"customers": stats.Customers,
		"products":  stats.Products,
		"revenue":   money(stats.Revenue),
	})
}

func (h *Handler) listNotifications(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	notes, err := h.svc.Notifications.List(c.Request.Context(), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": notes})
}

// orders

func (h *Handler) adminListOrders(c *gin.Context) {
	var q service.AdminOrdersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.badRequest(c, err)
		return
	}

	page, err := h.svc.AdminOrders.ListOrders(c.Request.Context(), q)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPageResponse(page, newOrderSummary))
}

func (h *Handler) adminGetOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	detail, err := h.svc.AdminOrders.GetOrder(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.newOrderDetail(detail))
}

type statusUpdateRequest struct {
	Status string `json:"status"`
}

func (h *Handler) adminUpdateOrderStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req statusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	order, err := h.svc.AdminOrders.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "order status updated", "order": newOrderResponse(order)})
}

// products

func (h *Handler) adminProductResponse(p *models.Product) productResponse {
	resp := h.newProductResponse(p)
	resp.StockStatus = h.svc.Catalog.StockStatus(p.Stock)
	return resp
}

func (h *Handler) adminListProducts(c *gin.Context) {
	var q service.ProductQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.badRequest(c, err)
		return
	}

	page, err := h.svc.Catalog.List(c.Request.Context(), q)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPageResponse(page, h.adminProductResponse))
}

func (h *Handler) adminGetProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	p, err := h.svc.Catalog.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.adminProductResponse(p))
}

func (h *Handler) adminCreateProduct(c *gin.Context) {
	in, upload, cleanup, ok := h.productInput(c)
	if !ok {
		return
	}
	defer cleanup()

	p, err := h.svc.Catalog.Create(c.Request.Context(), in, upload)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.adminProductResponse(p))
}

func (h *Handler) adminUpdateProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	in, upload, cleanup, ok := h.productInput(c)
	if !ok {
		return
	}
	defer cleanup()

	p, err := h.svc.Catalog.Update(c.Request.Context(), id, in, upload)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.adminProductResponse(p))
}

func (h *Handler) adminDeleteProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Catalog.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
}

// productInput reads a product from a JSON body or a multipart form with
// an optional "image" file. cleanup closes the uploaded file. On failure
// the response has already been written.
func (h *Handler) productInput(c *gin.Context) (service.ProductInput, *service.ImageUpload, func(), bool) {
	var in service.ProductInput
	noop := func() {}

	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBindJSON(&in); err != nil {
			h.badRequest(c, err)
			return in, nil, noop, false
		}
		return in, nil, noop, true
	}

	ve := &service.ValidationError{}
	in.Name = c.PostForm("name")
	in.Description = c.PostForm("description")
	if raw := c.PostForm("price"); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			ve.Add("price", "price must be a number")
		}
		in.Price = price
	}
	if raw := c.PostForm("stock"); raw != "" {
		stock, err := strconv.Atoi(raw)
		if err != nil {
			ve.Add("stock", "stock must be an integer")
		}
		in.Stock = stock
	}
	if raw := c.PostForm("is_active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			ve.Add("is_active", "is_active must be true or false")
		}
		in.IsActive = &active
	}
	in.RemoveImage, _ = strconv.ParseBool(c.PostForm("remove_image"))
	if err := ve.OrNil(); err != nil {
		h.writeError(c, err)
		return in, nil, noop, false
	}

	header, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return in, nil, noop, true
	}
	if err != nil {
		h.logger.Debug("Unreadable image upload", zap.Error(err))
		h.writeError(c, service.NewValidationError("image", "image upload failed"))
		return in, nil, noop, false
	}
	file, err := header.Open()
	if err != nil {
		h.writeError(c, fmt.Errorf("failed to open upload: %w", err))
		return in, nil, noop, false
	}

	upload := &service.ImageUpload{Filename: header.Filename, Size: header.Size, Reader: file}
	return in, upload, func() { file.Close() }, true
}

// customers

func (h *Handler) listCustomers(c *gin.Context) {
	users, err := h.svc.Customers.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": users})
}

func (h *Handler) getCustomer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	u, err := h.svc.Customers.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) createCustomer(c *gin.Context) {
	var in service.CustomerInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badRequest(c, err)
		return
	}

	u, err := h.svc.Customers.Create(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (h *Handler) updateCustomer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in service.CustomerInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badRequest(c, err)
		return
	}

	u, err := h.svc.Customers.Update(c.Request.Context(), id, in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) deleteCustomer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Customers.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "customer deleted"})
}

// refunds

func (h *Handler) listRefunds(c *gin.Context) {
	refunds, err := h.svc.Refunds.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	out := make([]refundResponse, len(refunds))
	for i := range refunds {
		out[i] = newRefundResponse(&refunds[i])
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func (h *Handler) getRefund(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	r, err := h.svc.Refunds.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newRefundResponse(r))
}

func (h *Handler) createRefund(c *gin.Context) {
	var in service.RefundInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badRequest(c, err)
		return
	}

	r, err := h.svc.Refunds.Create(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newRefundResponse(r))
}

func (h *Handler) updateRefund(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in service.RefundInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badRequest(c, err)
		return
	}

	r, err := h.svc.Refunds.Update(c.Request.Context(), id, in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newRefundResponse(r))
}

func (h *Handler) deleteRefund(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Refunds.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "refund deleted"})
}
