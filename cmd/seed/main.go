package main

import (
	"context"
	"errors"
	"log"
	"time"

	"storefront/config"
	"storefront/internal/models"
	"storefront/internal/service"
	"storefront/internal/store"
	"storefront/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var sampleProducts = []service.ProductInput{
	{Name: "Canvas Tote Bag", Description: "Heavy cotton tote with inner pocket.", Price: decimal.NewFromInt(450), Stock: 40},
	{Name: "Ceramic Mug", Description: "350ml stoneware mug, dishwasher safe.", Price: decimal.NewFromInt(100), Stock: 120},
	{Name: "Desk Lamp", Description: "LED lamp with three brightness levels.", Price: decimal.RequireFromString("1299.50"), Stock: 8},
	{Name: "Notebook Set", Description: "Three A5 dotted notebooks.", Price: decimal.NewFromInt(275), Stock: 0},
}

func main() {
	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()
	logger := util.ComponentLogger("seed")

	if cfg.Seed.AdminPassword == "" {
		log.Fatal("ADMIN_PASSWORD must be set to seed the admin account")
	}

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Seed.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash admin password: %v", err)
	}
	admin := &models.User{
		Name:         "Administrator",
		Email:        cfg.Seed.AdminEmail,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		Status:       models.UserStatusActive,
	}
	switch err := db.CreateUser(ctx, admin); {
	case errors.Is(err, store.ErrDuplicateEmail):
		logger.Info("Admin already exists", zap.String("email", admin.Email))
	case err != nil:
		log.Fatalf("Failed to create admin: %v", err)
	default:
		logger.Info("Admin created", zap.String("email", admin.Email), zap.Int64("user_id", admin.ID))
	}

	_, total, err := db.ListProducts(ctx, models.ProductFilter{Page: 1, PerPage: 1})
	if err != nil {
		log.Fatalf("Failed to count products: %v", err)
	}
	if total > 0 {
		logger.Info("Catalog already populated", zap.Int("products", total))
		return
	}

	catalog := service.NewCatalogService(db, nil, cfg.Business.LowStockThreshold, cfg.Business.DefaultPageSize)
	for _, in := range sampleProducts {
		p, err := catalog.Create(ctx, in, nil)
		if err != nil {
			log.Fatalf("Failed to create product %q: %v", in.Name, err)
		}
		logger.Info("Product created", zap.Int64("product_id", p.ID), zap.String("name", p.Name))
	}
}
