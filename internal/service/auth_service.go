package service

import (
	"context"
	"errors"
	"strings"

	"github.com/localmart/localmart-backend/internal/auth"
	"github.com/localmart/localmart-backend/internal/model"
	"github.com/localmart/localmart-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService interface {
	RegisterUser(ctx context.Context, name, email, password string) (*model.User, error)
	RegisterSeller(ctx context.Context, shopName, email, password string) (*model.Seller, error)
	Login(ctx context.Context, role model.ParticipantRole, email, password string) (auth.Identity, string, error)
}

type authService struct {
	userRepo   repository.UserRepository
	sellerRepo repository.SellerRepository
	tokens     *auth.TokenIssuer
}

func NewAuthService(userRepo repository.UserRepository, sellerRepo repository.SellerRepository, tokens *auth.TokenIssuer) AuthService {
	return &authService{userRepo: userRepo, sellerRepo: sellerRepo, tokens: tokens}
}

func (s *authService) RegisterUser(ctx context.Context, name, email, password string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &model.User{Name: name, Email: email, PasswordHash: string(hash)}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *authService) RegisterSeller(ctx context.Context, shopName, email, password string) (*model.Seller, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := s.sellerRepo.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	sl := &model.Seller{ShopName: shopName, Email: email, PasswordHash: string(hash)}
	if err := s.sellerRepo.Create(ctx, sl); err != nil {
		return nil, err
	}
	return sl, nil
}

func (s *authService) Login(ctx context.Context, role model.ParticipantRole, email, password string) (auth.Identity, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var (
		id   uint64
		hash string
	)
	switch role {
	case model.RoleUser:
		u, err := s.userRepo.FindByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return auth.Identity{}, "", ErrInvalidCredentials
			}
			return auth.Identity{}, "", err
		}
		id, hash = u.ID, u.PasswordHash
	case model.RoleSeller:
		sl, err := s.sellerRepo.FindByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return auth.Identity{}, "", ErrInvalidCredentials
			}
			return auth.Identity{}, "", err
		}
		id, hash = sl.ID, sl.PasswordHash
	default:
		return auth.Identity{}, "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return auth.Identity{}, "", ErrInvalidCredentials
	}
	ident := auth.Identity{Role: role, ID: id}
	token, err := s.tokens.Issue(ident)
	if err != nil {
		return auth.Identity{}, "", err
	}
	return ident, token, nil
}
