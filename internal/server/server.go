package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/localmart/localmart-backend/internal/auth"
	"github.com/localmart/localmart-backend/internal/chat"
	"github.com/localmart/localmart-backend/internal/config"
	"github.com/localmart/localmart-backend/internal/handler"
	appmw "github.com/localmart/localmart-backend/internal/middleware"
	"github.com/localmart/localmart-backend/internal/repository"
	"github.com/localmart/localmart-backend/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type requestValidator struct {
	v *validator.Validate
}

func (rv *requestValidator) Validate(i interface{}) error {
	return rv.v.Struct(i)
}

type Server struct {
	e *echo.Echo

	userRepo   repository.UserRepository
	sellerRepo repository.SellerRepository
	prodRepo   repository.ProductRepository
	orderRepo  repository.OrderRepository
	convRepo   repository.ConversationRepository
	notifRepo  repository.NotificationRepository
}

// New wires the whole application. db may be nil at construction; inject it
// later with SetDB once the connection is up.
func New(db *gorm.DB, cfg *config.Config, uploader service.ImageUploader, log zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) (bool, error) {
			low := strings.ToLower(origin)
			if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
				strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
				return true, nil
			}
			u, err := url.Parse(origin)
			if err != nil {
				return false, nil
			}
			if u.Scheme != "http" && u.Scheme != "https" {
				return false, nil
			}
			if strings.HasSuffix(u.Hostname(), "vercel.app") {
				return true, nil
			}
			return false, nil
		},
	}))
	e.Validator = &requestValidator{v: validator.New()}

	tokens := auth.NewTokenIssuer(cfg.JWTSecret)
	authMw := appmw.NewAuthMiddleware(tokens)

	userRepo := repository.NewUserRepository(db)
	sellerRepo := repository.NewSellerRepository(db)
	prodRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	convRepo := repository.NewConversationRepository(db)
	notifRepo := repository.NewNotificationRepository(db)

	authSvc := service.NewAuthService(userRepo, sellerRepo, tokens)
	prodSvc := service.NewProductService(prodRepo, uploader)
	convSvc := service.NewConversationService(convRepo, userRepo, sellerRepo)
	notifSvc := service.NewNotificationService(notifRepo)
	orderSvc := service.NewOrderService(orderRepo, prodRepo, convSvc, notifSvc)

	var presence *chat.Presence
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		presence = chat.NewPresence(rdb)
	}
	hub := chat.NewHub(log)
	relay := chat.NewRelay(hub, convSvc, notifSvc, presence, log)
	wsHandler := chat.NewHandler(relay, hub, presence, tokens, log)

	authHandler := handler.NewAuthHandler(authSvc)
	prodHandler := handler.NewProductHandler(prodSvc)
	orderHandler := handler.NewOrderHandler(orderSvc)
	convHandler := handler.NewConversationHandler(convSvc, notifSvc, relay)
	notifHandler := handler.NewNotificationHandler(notifSvc)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"ok": "true"})
	})

	e.GET("/ws", wsHandler.Serve)

	api := e.Group("/api")
	api.POST("/users", authHandler.RegisterUser)
	api.POST("/sellers", authHandler.RegisterSeller)
	api.POST("/login", authHandler.Login)

	api.GET("/products", prodHandler.List)
	api.GET("/products/:id", prodHandler.Get)
	api.POST("/products", prodHandler.Create, authMw.RequireAuth)
	api.GET("/me/products", prodHandler.ListMine, authMw.RequireAuth)
	api.POST("/products/:id/image", prodHandler.UploadImage, authMw.RequireAuth)

	api.POST("/orders", orderHandler.Create, authMw.RequireAuth)
	api.GET("/me/orders", orderHandler.ListMine, authMw.RequireAuth)
	api.POST("/orders/:id/message-seller", orderHandler.MessageSeller, authMw.RequireAuth)
	api.POST("/orders/:id/ship", orderHandler.MarkShipped, authMw.RequireAuth)
	api.POST("/orders/:id/receive", orderHandler.MarkDelivered, authMw.RequireAuth)

	api.POST("/conversations", convHandler.CreateOrGet, authMw.RequireAuth)
	api.GET("/conversations", convHandler.ListMine, authMw.RequireAuth)
	api.GET("/conversations/:id/messages", convHandler.ListMessages, authMw.RequireAuth)
	api.POST("/conversations/:id/messages", convHandler.CreateMessage, authMw.RequireAuth)
	api.POST("/conversations/:id/read", convHandler.MarkRead, authMw.RequireAuth)

	api.GET("/notifications", notifHandler.List, authMw.RequireAuth)
	api.POST("/notifications/read", notifHandler.MarkAllRead, authMw.RequireAuth)

	return &Server{
		e:          e,
		userRepo:   userRepo,
		sellerRepo: sellerRepo,
		prodRepo:   prodRepo,
		orderRepo:  orderRepo,
		convRepo:   convRepo,
		notifRepo:  notifRepo,
	}
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

// SetDB injects a late database connection into every repository.
func (s *Server) SetDB(db *gorm.DB) {
	s.userRepo.SetDB(db)
	s.sellerRepo.SetDB(db)
	s.prodRepo.SetDB(db)
	s.orderRepo.SetDB(db)
	s.convRepo.SetDB(db)
	s.notifRepo.SetDB(db)
}
