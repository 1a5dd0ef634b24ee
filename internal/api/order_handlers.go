package api

import (
	"errors"
	"net/http"

	"storefront/internal/models"
	"storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// createOrder handles checkout
func (h *Handler) createOrder(c *gin.Context) {
	var req service.PlaceOrderRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	req.IdempotencyKey = c.GetHeader("Idempotency-Key")

	res, err := h.svc.Orders.PlaceOrder(c.Request.Context(), identity(c).UserID, &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if res.Replayed {
		c.Header("Idempotent-Replayed", "true")
	}
	body := gin.H{
		"message":      "order placed",
		"order_id":     res.Order.ID,
		"order_number": res.Order.OrderNumber,
		"status":       res.Order.Status,
		"total":        money(res.Order.Total),
	}
	if len(res.Warnings) > 0 {
		body["warnings"] = res.Warnings
	}
	c.JSON(http.StatusOK, body)
}

// getOrder handles get order by ID
func (h *Handler) getOrder(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	detail, err := h.svc.Orders.GetOrder(c.Request.Context(), identity(c).UserID, orderID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.newOrderDetail(detail))
}

func (h *Handler) recentOrders(c *gin.Context) {
	var q service.RecentOrdersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.badRequest(c, err)
		return
	}

	page, err := h.svc.Orders.ListRecentOrders(c.Request.Context(), identity(c).UserID, q)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPageResponse(page, newOrderSummary))
}

func (h *Handler) cancelOrder(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	order, err := h.svc.Orders.CancelOrder(c.Request.Context(), identity(c).UserID, orderID)
	if errors.Is(err, service.ErrNotFound) {
		err = service.ErrOrderNotCancellable
	}
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "order cancelled",
		"order":   newOrderResponse(order),
		"status":  models.OrderStatusCancelled,
	})
}
