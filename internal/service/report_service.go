package service

import (
	"context"
	"time"

	"storefront/internal/models"
	"storefront/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// StatsStore aggregates monthly activity
type StatsStore interface {
	MonthStats(ctx context.Context, from, to time.Time) (models.MonthStats, error)
}

// Sizes of the dashboard widgets
const (
	adminRecentOrders   = 5
	userRecentOrders    = 3
	userLatestProducts  = 4
	notificationsOnPage = 20
)

// ReportService computes the admin and customer dashboards. Nothing is
// cached; every call reads the store.
type ReportService struct {
	stats     StatsStore
	orders    OrderStore
	products  ProductStore
	carts     CartStore
	wishlists WishlistStore
	logger    *zap.Logger
	now       func() time.Time
}

func NewReportService(stats StatsStore, orders OrderStore, products ProductStore, carts CartStore, wishlists WishlistStore) *ReportService {
	return &ReportService{
		stats:     stats,
		orders:    orders,
		products:  products,
		carts:     carts,
		wishlists: wishlists,
		logger:    util.ComponentLogger("reports"),
		now:       time.Now,
	}
}

// MetricChange is one dashboard figure with its change against last month
type MetricChange struct {
	Current  decimal.Decimal `json:"current"`
	Previous decimal.Decimal `json:"previous"`
	Change   float64         `json:"change"`
}

// AdminDashboard summarises the current calendar month
type AdminDashboard struct {
	Month        string                `json:"month"`
	Orders       MetricChange          `json:"orders"`
	Customers    MetricChange          `json:"customers"`
	Products     MetricChange          `json:"products"`
	Revenue      MetricChange          `json:"revenue"`
	RecentOrders []models.OrderSummary `json:"recent_orders"`
}

// UserDashboard is a customer's landing summary
type UserDashboard struct {
	WishlistCount  int                   `json:"wishlist_count"`
	CartCount      int                   `json:"cart_count"`
	RecentOrders   []models.OrderSummary `json:"recent_orders"`
	LatestProducts []models.Product      `json:"latest_products"`
}

// MonthlyStats aggregates the calendar month containing month.
func (s *ReportService) MonthlyStats(ctx context.Context, month time.Time) (models.MonthStats, error) {
	ctx, span := util.StartSpan(ctx, "ReportService.MonthlyStats")
	defer span.End()

	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	stats, err := s.stats.MonthStats(ctx, start, start.AddDate(0, 1, 0))
	return stats, mapStoreError(err)
}

// Dashboard computes this month's figures against the previous month.
func (s *ReportService) Dashboard(ctx context.Context) (*AdminDashboard, error) {
	ctx, span := util.StartSpan(ctx, "ReportService.Dashboard")
	defer span.End()

	now := s.now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	prevStart := start.AddDate(0, -1, 0)
	next := start.AddDate(0, 1, 0)

	var (
		cur, prev models.MonthStats
		recent    []models.OrderSummary
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cur, err = s.stats.MonthStats(gctx, start, next)
		return err
	})
	g.Go(func() error {
		var err error
		prev, err = s.stats.MonthStats(gctx, prevStart, start)
		return err
	})
	g.Go(func() error {
		var err error
		recent, _, err = s.orders.ListOrders(gctx, models.OrderFilter{Page: 1, PerPage: adminRecentOrders})
		return err
	})
	if err := g.Wait(); err != nil {
		util.RecordError(span, err)
		return nil, mapStoreError(err)
	}

	return &AdminDashboard{
		Month:        start.Format("2006-01"),
		Orders:       newMetricChange(decimal.NewFromInt(int64(prev.Orders)), decimal.NewFromInt(int64(cur.Orders))),
		Customers:    newMetricChange(decimal.NewFromInt(int64(prev.Customers)), decimal.NewFromInt(int64(cur.Customers))),
		Products:     newMetricChange(decimal.NewFromInt(int64(prev.Products)), decimal.NewFromInt(int64(cur.Products))),
		Revenue:      newMetricChange(prev.Revenue, cur.Revenue),
		RecentOrders: recent,
	}, nil
}

// UserDashboard gathers a customer's counts, recent orders and the newest products.
func (s *ReportService) UserDashboard(ctx context.Context, userID int64) (*UserDashboard, error) {
	ctx, span := util.StartSpan(ctx, "ReportService.UserDashboard")
	defer span.End()

	d := &UserDashboard{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		d.WishlistCount, err = s.wishlists.CountWishlist(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		d.CartCount, err = s.carts.CountCart(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		d.RecentOrders, _, err = s.orders.ListOrders(gctx, models.OrderFilter{UserID: userID, Page: 1, PerPage: userRecentOrders})
		return err
	})
	g.Go(func() error {
		var err error
		d.LatestProducts, err = s.products.LatestActiveProducts(gctx, userLatestProducts)
		return err
	})
	if err := g.Wait(); err != nil {
		util.RecordError(span, err)
		return nil, mapStoreError(err)
	}
	return d, nil
}

func newMetricChange(prev, cur decimal.Decimal) MetricChange {
	return MetricChange{Current: cur, Previous: prev, Change: PercentChange(prev, cur)}
}

// PercentChange is (cur - prev) / prev * 100 rounded to one decimal place.
// A rise from zero counts as 100 and zero to zero as 0.
func PercentChange(prev, cur decimal.Decimal) float64 {
	if prev.IsZero() {
		if cur.GreaterThan(decimal.Zero) {
			return 100
		}
		return 0
	}
	change, _ := cur.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100)).Round(1).Float64()
	return change
}
