package main

import (
	"context"
	"errors"
	"time"

	"github.com/joho/godotenv"
	"github.com/localmart/localmart-backend/internal/config"
	"github.com/localmart/localmart-backend/internal/db"
	"github.com/localmart/localmart-backend/internal/model"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type seedUser struct {
	Name  string
	Email string
}

type seedSeller struct {
	ShopName string
	Email    string
	Products []model.Product
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	conn, err := db.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := conn.AutoMigrate(
		&model.User{},
		&model.Seller{},
		&model.Product{},
		&model.Order{},
		&model.Conversation{},
		&model.Message{},
		&model.Notification{},
	); err != nil {
		log.Fatal().Err(err).Msg("auto migrate failed")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal().Err(err).Msg("bcrypt failed")
	}

	users := []seedUser{
		{Name: "Asha Patel", Email: "asha@example.com"},
		{Name: "Marco Silva", Email: "marco@example.com"},
	}
	for _, u := range users {
		if err := upsertUser(ctx, conn, u, string(hash)); err != nil {
			log.Fatal().Err(err).Str("email", u.Email).Msg("seed user failed")
		}
	}

	sellers := []seedSeller{
		{
			ShopName: "Corner Greens",
			Email:    "greens@example.com",
			Products: []model.Product{
				{Name: "Heirloom tomatoes", Description: "1kg box, picked this morning", PriceCents: 650, Stock: 20},
				{Name: "Basil bunch", Description: "Fresh basil, big bunch", PriceCents: 250, Stock: 40},
			},
		},
		{
			ShopName: "Bikeworks",
			Email:    "bikeworks@example.com",
			Products: []model.Product{
				{Name: "Tube 700x28", Description: "Presta valve inner tube", PriceCents: 900, Stock: 15},
			},
		},
	}
	for _, s := range sellers {
		if err := upsertSeller(ctx, conn, s, string(hash)); err != nil {
			log.Fatal().Err(err).Str("email", s.Email).Msg("seed seller failed")
		}
	}

	log.Info().Msg("seed completed")
}

func upsertUser(ctx context.Context, conn *gorm.DB, u seedUser, hash string) error {
	var existing model.User
	err := conn.WithContext(ctx).Where("email = ?", u.Email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return conn.WithContext(ctx).Create(&model.User{Name: u.Name, Email: u.Email, PasswordHash: hash}).Error
}

func upsertSeller(ctx context.Context, conn *gorm.DB, s seedSeller, hash string) error {
	var existing model.Seller
	err := conn.WithContext(ctx).Where("email = ?", s.Email).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		existing = model.Seller{ShopName: s.ShopName, Email: s.Email, PasswordHash: hash}
		if err := conn.WithContext(ctx).Create(&existing).Error; err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	for _, p := range s.Products {
		var count int64
		if err := conn.WithContext(ctx).Model(&model.Product{}).
			Where("seller_id = ? AND name = ?", existing.ID, p.Name).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		p.SellerID = existing.ID
		if err := conn.WithContext(ctx).Create(&p).Error; err != nil {
			return err
		}
	}
	return nil
}
