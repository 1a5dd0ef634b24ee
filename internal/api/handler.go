package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"storefront/internal/models"
	"storefront/internal/service"
	"storefront/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// TokenVerifier resolves bearer tokens to identities
type TokenVerifier interface {
	Authenticate(ctx context.Context, token string) (*models.Identity, error)
}

// Pinger is a dependency checked by the readiness probe
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services are the application services behind the API
type Services struct {
	Auth          *service.AuthService
	Catalog       *service.CatalogService
	Cart          *service.CartService
	Wishlist      *service.WishlistService
	Addresses     *service.AddressService
	Orders        *service.OrderService
	AdminOrders   *service.AdminOrderService
	Customers     *service.CustomerService
	Refunds       *service.RefundService
	Reports       *service.ReportService
	Notifications *service.NotificationService
}

// Handler contains HTTP handlers
type Handler struct {
	svc       Services
	verifier  TokenVerifier
	deps      map[string]Pinger
	imageBase string
	logger    *zap.Logger
}

// NewHandler creates a new HTTP handler. imageBase is the public URL
// prefix product image names are joined to.
func NewHandler(svc Services, verifier TokenVerifier, deps map[string]Pinger, imageBase string) *Handler {
	return &Handler{
		svc:       svc,
		verifier:  verifier,
		deps:      deps,
		imageBase: strings.TrimRight(imageBase, "/"),
		logger:    util.ComponentLogger("api"),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(tracingMiddleware())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/register", h.register)
		v1.POST("/login", h.login)
		v1.POST("/admin/login", h.adminLogin)

		v1.GET("/products", h.listProducts)
		v1.GET("/products/:id", h.getProduct)
		v1.GET("/checkout/options", h.checkoutOptions)
	}

	customer := v1.Group("", h.requireRole(models.RoleCustomer))
	{
		customer.POST("/logout", h.logout)
		customer.GET("/verify", h.verify)
		customer.GET("/user", h.me)
		customer.GET("/user/dashboard", h.userDashboard)

		customer.GET("/cart", h.getCart)
		customer.POST("/cart", h.addToCart)
		customer.DELETE("/cart", h.clearCart)
		customer.GET("/cart/count", h.cartCount)
		customer.PATCH("/cart/:productId", h.updateCartItem)
		customer.DELETE("/cart/:productId", h.removeCartItem)

		customer.GET("/wishlist", h.getWishlist)
		customer.POST("/wishlist", h.addToWishlist)
		customer.GET("/wishlist/count", h.wishlistCount)
		customer.DELETE("/wishlist/:productId", h.removeFromWishlist)

		customer.GET("/addresses", h.listAddresses)
		customer.POST("/addresses", h.createAddress)
		customer.GET("/addresses/default", h.defaultAddress)
		customer.GET("/addresses/:id", h.getAddress)
		customer.PUT("/addresses/:id", h.updateAddress)
		customer.DELETE("/addresses/:id", h.deleteAddress)

		customer.POST("/orders", h.createOrder)
		customer.GET("/orders/recent", h.recentOrders)
		customer.GET("/orders/:id", h.getOrder)
		customer.POST("/orders/:id/cancel", h.cancelOrder)
	}

	admin := v1.Group("/admin", h.requireRole(models.RoleAdmin))
	{
		admin.POST("/logout", h.logout)
		admin.GET("/verify", h.verify)
		admin.GET("/dashboard", h.adminDashboard)
		admin.GET("/reports/monthly", h.monthlyReport)
		admin.GET("/notifications", h.listNotifications)

		admin.GET("/orders", h.adminListOrders)
		admin.GET("/orders/:id", h.adminGetOrder)
		admin.PUT("/orders/:id", h.adminUpdateOrderStatus)

		admin.GET("/products", h.adminListProducts)
		admin.POST("/products", h.adminCreateProduct)
		admin.GET("/products/:id", h.adminGetProduct)
		admin.PUT("/products/:id", h.adminUpdateProduct)
		admin.DELETE("/products/:id", h.adminDeleteProduct)

		admin.GET("/customers", h.listCustomers)
		admin.POST("/customers", h.createCustomer)
		admin.GET("/customers/:id", h.getCustomer)
		admin.PUT("/customers/:id", h.updateCustomer)
		admin.DELETE("/customers/:id", h.deleteCustomer)

		admin.GET("/refunds", h.listRefunds)
		admin.POST("/refunds", h.createRefund)
		admin.GET("/refunds/:id", h.getRefund)
		admin.PUT("/refunds/:id", h.updateRefund)
		admin.DELETE("/refunds/:id", h.deleteRefund)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports ready only when every dependency answers
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{}
	ready := true
	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			h.logger.Warn("Readiness check failed", zap.String("dependency", name), zap.Error(err))
			checks[name] = "unavailable"
			ready = false
			continue
		}
		checks[name] = "ok"
	}

	status, code := "ready", http.StatusOK
	if !ready {
		status, code = "not ready", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status": status,
		"checks": checks,
		"time":   time.Now().Unix(),
	})
}

// checkoutOptions lists shipping tiers and payment methods with their fees
func (h *Handler) checkoutOptions(c *gin.Context) {
	shipping := []gin.H{}
	for _, o := range service.ShippingOptions() {
		shipping = append(shipping, gin.H{
			"key":         o.Key,
			"label":       o.Label,
			"description": o.Description,
			"fee":         money(o.Fee),
		})
	}
	payment := []gin.H{}
	for _, m := range service.PaymentMethods() {
		payment = append(payment, gin.H{
			"key":   m.Key,
			"label": m.Label,
			"fee":   money(m.Fee),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"shipping_options": shipping,
		"payment_methods":  payment,
	})
}

// tracingMiddleware opens a server span per request; service spans nest
// under it through the request context.
func tracingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		ctx, span := util.StartSpan(c.Request.Context(), c.Request.Method+" "+route,
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route))
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
