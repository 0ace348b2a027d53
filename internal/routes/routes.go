package routes

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"vestia_back_end/internal/cart"
	"vestia_back_end/internal/config"
	"vestia_back_end/internal/database"
	"vestia_back_end/internal/gateway"
	"vestia_back_end/internal/handlers/payment"
	"vestia_back_end/internal/handlers/product"
	"vestia_back_end/internal/handlers/store"
	"vestia_back_end/internal/handlers/tryon"
	"vestia_back_end/internal/handlers/user"
	"vestia_back_end/internal/inventory"
	"vestia_back_end/internal/middleware"
	"vestia_back_end/internal/orders"
	"vestia_back_end/internal/payments"
	"vestia_back_end/internal/pricing"
	"vestia_back_end/internal/services"
	tryonpkg "vestia_back_end/internal/tryon"
)

// Setup construit les dépendances et les injecte dans les packages de
// handlers. Renvoie le worker de prova pour que main lance ses goroutines.
func Setup() (*tryonpkg.Worker, error) {
	ordersSession, err := database.GetOrdersSession()
	if err != nil {
		return nil, fmt.Errorf("session orders: %w", err)
	}
	productsSession, err := database.GetProductsSession()
	if err != nil {
		return nil, fmt.Errorf("session products: %w", err)
	}
	usersSession, err := database.GetUsersSession()
	if err != nil {
		return nil, fmt.Errorf("session users: %w", err)
	}

	orderRepo := database.NewScyllaOrderRepo(ordersSession)
	cartStore := database.NewRedisCartStore(database.Redis)
	stock := inventory.NewLedger(database.NewScyllaStockStore(productsSession))

	orderService := &orders.Service{
		Orders:   orderRepo,
		Stock:    stock,
		Pricing:  pricing.NewEngine(nil),
		Numbers:  orders.NewNumberGenerator(database.NewRedisSequencer(database.Redis)),
		Carts:    cartStore,
		Counters: database.NewScyllaStatsCounter(productsSession),
	}

	asaas := gateway.NewClient(config.Asaas())

	notifier := services.NewEmailNotifier(func(ctx context.Context, userID gocql.UUID) (string, error) {
		var email string
		err := usersSession.Query(`SELECT email FROM users WHERE user_id = ?`, userID).
			WithContext(ctx).Scan(&email)
		return email, err
	})
	reconciler := payments.NewReconciler(orderRepo, orderService, notifier)

	// Pipeline de prova virtuelle
	tryonRepo := database.NewScyllaTryOnRepo(usersSession)
	tryonQueue := tryonpkg.NewRedisQueue(database.Redis)
	tryonPub := tryonpkg.NewRedisPublisher(database.Redis)

	var generator tryonpkg.Generator
	if key := os.Getenv("FASHN_API_KEY"); key != "" {
		baseURL := os.Getenv("FASHN_BASE_URL")
		if baseURL == "" {
			baseURL = "https://api.fashn.ai"
		}
		generator = tryonpkg.NewFashnGenerator(tryonpkg.FashnConfig{BaseURL: baseURL, APIKey: key})
	} else {
		generator = &tryonpkg.MockGenerator{}
	}
	worker := tryonpkg.NewWorker(tryonRepo, tryonQueue, generator, tryonPub)

	// Injection dans les packages de handlers
	user.Carts = cartStore
	user.Coupons = cart.DefaultCoupons()
	user.Orders = orderService
	user.OrderRepo = orderRepo
	user.Gateway = asaas

	product.OrderRepo = orderRepo

	store.Orders = orderService
	store.OrderRepo = orderRepo

	payment.Reconciler = reconciler
	payment.OrderRepo = orderRepo
	payment.Gateway = asaas

	tryon.Repo = tryonRepo
	tryon.Queue = tryonQueue

	return worker, nil
}

func RegisterRoutes(r *gin.Engine) {
	r.Use(cors.New(corsConfig()))

	api := r.Group("/api")
	api.Use(middleware.APIRateLimit())

	// Auth
	api.POST("/auth/register", middleware.RegisterRateLimit(), user.Register)
	api.POST("/auth/login", middleware.LoginRateLimit(), user.Login)

	// Profil
	me := api.Group("/me", middleware.AuthJWT)
	{
		me.GET("", user.Me)
		me.PUT("", user.UpdateProfile)
		me.PUT("/addresses", user.SaveAddresses)
		me.POST("/body-photo", user.UploadBodyPhoto)
		me.DELETE("/body-photo", user.DeleteBodyPhoto)
	}

	// Panier
	panier := api.Group("/cart", middleware.AuthJWT, middleware.CartRateLimit())
	{
		panier.GET("", user.GetCart)
		panier.POST("/items", user.AddToCart)
		panier.PUT("/items/:index", user.UpdateCartItem)
		panier.DELETE("/items/:index", user.RemoveFromCart)
		panier.POST("/coupon", user.ApplyCoupon)
		panier.DELETE("/coupon", user.RemoveCoupon)
		panier.DELETE("", user.ClearCart)
	}

	// Commandes
	api.POST("/checkout", middleware.AuthJWT, user.Checkout)
	commandes := api.Group("/orders", middleware.AuthJWT)
	{
		commandes.GET("", user.GetMyOrders)
		commandes.GET("/number/:number", user.GetOrderByNumber)
		commandes.GET("/:id", user.GetOrderByID)
		commandes.POST("/:id/cancel", user.CancelOrder)
	}

	// Paiements. Le webhook reste hors du rate limit : le prestataire rejoue
	// ses événements et ne doit jamais être throttlé.
	r.POST("/api/payments/webhook", payment.AsaasWebhook)
	paiements := api.Group("/payments", middleware.AuthJWT)
	{
		paiements.GET("/orders/:id", payment.GetOrderPayment)
		paiements.GET("/orders/:id/pix", payment.GetOrderPix)
	}

	// Catalogue public
	api.GET("/products", product.ListProducts)
	api.GET("/products/:id", product.GetProduct)
	api.GET("/products/:id/reviews", product.ListReviews)
	api.GET("/categories", product.ListCategories)
	api.GET("/stores/:id", store.GetStore)

	// Avis (achat vérifié)
	api.POST("/products/:id/reviews", middleware.AuthJWT, product.CreateReview)

	// Produits (vendeur)
	produits := api.Group("/products", middleware.AuthJWT, middleware.RequireSeller)
	{
		produits.POST("", product.CreateProduct)
		produits.PUT("/:id", product.UpdateProduct)
		produits.DELETE("/:id", product.DeleteProduct)
		produits.POST("/:id/images", product.UploadProductImage)
		produits.DELETE("/:id/images", product.DeleteProductImage)
		produits.GET("/:id/stock", product.GetVariantStock)
		produits.PUT("/:id/stock", product.SetVariantStock)
	}

	// Boutiques (vendeur)
	api.POST("/stores", middleware.AuthJWT, middleware.RequireSeller, store.CreateStore)
	boutique := api.Group("/stores/me", middleware.AuthJWT, middleware.RequireSeller)
	{
		boutique.GET("", store.GetMyStore)
		boutique.PUT("", store.UpdateMyStore)
		boutique.GET("/orders", store.GetStoreOrders)
		boutique.PUT("/orders/:id/status", store.UpdateOrderStatus)
	}

	// Catégories (admin)
	api.POST("/categories", middleware.AuthJWT, middleware.RequireAdmin, product.CreateCategory)
	api.PUT("/categories/:id", middleware.AuthJWT, middleware.RequireAdmin, product.UpdateCategory)

	// Prova virtuelle
	prova := api.Group("/tryon", middleware.AuthJWT)
	{
		prova.POST("", middleware.TryOnRateLimit(), tryon.CreateTryOn)
		prova.GET("", tryon.ListTryOns)
		prova.GET("/:id", tryon.GetTryOn)
		prova.GET("/:id/ws", tryon.WatchTryOn)
	}
}

func corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization")
	cfg.AllowCredentials = true
	cfg.MaxAge = 12 * time.Hour
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.AllowOrigins = strings.Split(origins, ",")
	} else {
		cfg.AllowOrigins = []string{"http://localhost:3000"}
	}
	return cfg
}
