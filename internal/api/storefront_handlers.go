package api

import (
	"net/http"

	"storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// catalog

func (h *Handler) listProducts(c *gin.Context) {
	var q service.ProductQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.badRequest(c, err)
		return
	}

	page, err := h.svc.Catalog.ListActive(c.Request.Context(), q)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPageResponse(page, h.newProductResponse))
}

func (h *Handler) getProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	p, err := h.svc.Catalog.GetActive(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.newProductResponse(p))
}

// cart

func (h *Handler) getCart(c *gin.Context) {
	view, err := h.svc.Cart.GetCart(c.Request.Context(), identity(c).UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.newCartResponse(view))
}

func (h *Handler) addToCart(c *gin.Context) {
	var in service.CartItemInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badRequest(c, err)
		return
	}

	entry, err := h.svc.Cart.AddItem(c.Request.Context(), identity(c).UserID, in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "added to cart", "item": entry})
}

func (h *Handler) updateCartItem(c *gin.Context) {
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}
	var in service.CartQuantityInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badRequest(c, err)
		return
	}

	if err := h.svc.Cart.UpdateItem(c.Request.Context(), identity(c).UserID, productID, in); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cart updated"})
}

func (h *Handler) removeCartItem(c *gin.Context) {
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}

	if err := h.svc.Cart.RemoveItem(c.Request.Context(), identity(c).UserID, productID); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "removed from cart"})
}

func (h *Handler) clearCart(c *gin.Context) {
	if err := h.svc.Cart.Clear(c.Request.Context(), identity(c).UserID); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cart cleared"})
}

func (h *Handler) cartCount(c *gin.Context) {
	n, err := h.svc.Cart.Count(c.Request.Context(), identity(c).UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

// wishlist

func (h *Handler) getWishlist(c *gin.Context) {
	items, err := h.svc.Wishlist.List(c.Request.Context(), identity(c).UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": h.newWishlist(items)})
}

func (h *Handler) addToWishlist(c *gin.Context) {
	var in service.WishlistInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badRequest(c, err)
		return
	}

	if err := h.svc.Wishlist.Add(c.Request.Context(), identity(c).UserID, in); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "added to wishlist"})
}

func (h *Handler) removeFromWishlist(c *gin.Context) {
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}

	if err := h.svc.Wishlist.Remove(c.Request.Context(), identity(c).UserID, productID); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "removed from wishlist"})
}

func (h *Handler) wishlistCount(c *gin.Context) {
	n, err := h.svc.Wishlist.Count(c.Request.Context(), identity(c).UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

// addresses

func (h *Handler) listAddresses(c *gin.Context) {
	addrs, err := h.svc.Addresses.List(c.Request.Context(), identity(c).UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": addrs})
}

func (h *Handler) defaultAddress(c *gin.Context) {
	addr, err := h.svc.Addresses.GetDefault(c.Request.Context(), identity(c).UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": addr})
}

func (h *Handler) getAddress(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	addr, err := h.svc.Addresses.Get(c.Request.Context(), identity(c).UserID, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, addr)
}

func (h *Handler) createAddress(c *gin.Context) {
	var in service.AddressInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badRequest(c, err)
		return
	}

	addr, err := h.svc.Addresses.Create(c.Request.Context(), identity(c).UserID, in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, addr)
}

func (h *Handler) updateAddress(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in service.AddressInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badRequest(c, err)
		return
	}

	addr, err := h.svc.Addresses.Update(c.Request.Context(), identity(c).UserID, id, in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, addr)
}

func (h *Handler) deleteAddress(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Addresses.Delete(c.Request.Context(), identity(c).UserID, id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "address deleted"})
}

// dashboard

func (h *Handler) userDashboard(c *gin.Context) {
	d, err := h.svc.Reports.UserDashboard(c.Request.Context(), identity(c).UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"wishlist_count":  d.WishlistCount,
		"cart_count":      d.CartCount,
		"recent_orders":   newOrderSummaries(d.RecentOrders),
		"latest_products": h.newProductList(d.LatestProducts),
	})
}
