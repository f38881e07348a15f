package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shoeparadise/storefront-backend/api/controllers"
	webhookcontrollers "github.com/shoeparadise/storefront-backend/api/controllers/webhooks"
	"github.com/shoeparadise/storefront-backend/api/middleware"
	addresssvc "github.com/shoeparadise/storefront-backend/internal/addresses"
	authsvc "github.com/shoeparadise/storefront-backend/internal/auth"
	cartsvc "github.com/shoeparadise/storefront-backend/internal/cart"
	"github.com/shoeparadise/storefront-backend/internal/catalog"
	checkoutsvc "github.com/shoeparadise/storefront-backend/internal/checkout"
	ordersvc "github.com/shoeparadise/storefront-backend/internal/orders"
	reviewsvc "github.com/shoeparadise/storefront-backend/internal/reviews"
	stripewebhook "github.com/shoeparadise/storefront-backend/internal/webhooks/stripe"
	wishlistsvc "github.com/shoeparadise/storefront-backend/internal/wishlist"
	"github.com/shoeparadise/storefront-backend/pkg/config"
	"github.com/shoeparadise/storefront-backend/pkg/enums"
	"github.com/shoeparadise/storefront-backend/pkg/logger"
	"github.com/shoeparadise/storefront-backend/pkg/metrics"
	"github.com/shoeparadise/storefront-backend/pkg/redis"
	"github.com/shoeparadise/storefront-backend/pkg/stripe"
)

type pinger interface {
	Ping(context.Context) error
}

// RouterParams collects everything the HTTP surface depends on.
type RouterParams struct {
	Config *config.Config
	Logger *logger.Logger

	DBPinger    pinger
	RedisClient *redis.Client
	Metrics     *metrics.HTTPMetrics
	Registry    *prometheus.Registry

	AuthService     authsvc.Service
	CatalogService  catalog.Service
	ReviewService   reviewsvc.Service
	CartService     cartsvc.Service
	WishlistService wishlistsvc.Service
	AddressService  addresssvc.Service
	OrderService    ordersvc.Service
	CheckoutService checkoutsvc.Service

	StripeClient *stripe.Client
	WebhookSvc   *stripewebhook.Service
	WebhookGuard *stripewebhook.IdempotencyGuard
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(p.Metrics),
		middleware.CORS(cfg.App.AllowedOrigins()),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, p.DBPinger, p.RedisClient, logg))
	})

	if p.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(p.WebhookSvc, p.StripeClient, p.WebhookGuard, logg))
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, p.RedisClient, logg)).Post("/register", controllers.Register(p.AuthService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, p.RedisClient, logg)).Post("/login", controllers.Login(p.AuthService, logg))
		r.With(middleware.Auth(cfg.JWT, logg)).Get("/me", controllers.Me(p.AuthService, logg))
	})

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", controllers.ListProducts(p.CatalogService, logg))
		r.Get("/featured", controllers.FeaturedProducts(p.CatalogService, logg))
		r.Get("/{slug}", controllers.GetProduct(p.CatalogService, logg))
		r.Get("/{slug}/reviews", controllers.ListProductReviews(p.ReviewService, p.CatalogService, logg))
		r.With(middleware.Auth(cfg.JWT, logg)).Post("/{slug}/reviews", controllers.CreateProductReview(p.ReviewService, p.CatalogService, logg))
	})
	r.Get("/api/categories", controllers.ListCategories(p.CatalogService, logg))
	r.Get("/api/brands", controllers.ListBrands(p.CatalogService, logg))

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(p.CartService, logg))
			r.Post("/items", controllers.AddCartItem(p.CartService, logg))
			r.Put("/items/{itemID}", controllers.UpdateCartItem(p.CartService, logg))
			r.Delete("/", controllers.ClearCart(p.CartService, logg))
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", controllers.ListWishlist(p.WishlistService, logg))
			r.Post("/", controllers.AddWishlistItem(p.WishlistService, logg))
			r.Delete("/{productID}", controllers.RemoveWishlistItem(p.WishlistService, logg))
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Get("/", controllers.ListAddresses(p.AddressService, logg))
			r.Post("/", controllers.CreateAddress(p.AddressService, logg))
			r.Delete("/{addressID}", controllers.DeleteAddress(p.AddressService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(p.OrderService, logg))
			r.Get("/{orderID}", controllers.GetOrder(p.OrderService, logg))
		})

		r.Post("/checkout", controllers.Checkout(p.CheckoutService, logg))

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))

			r.Route("/products", func(r chi.Router) {
				r.Post("/", controllers.AdminCreateProduct(p.CatalogService, logg))
				r.Put("/{productID}", controllers.AdminUpdateProduct(p.CatalogService, logg))
				r.Delete("/{productID}", controllers.AdminDeleteProduct(p.CatalogService, logg))
			})
			r.Post("/categories", controllers.AdminCreateCategory(p.CatalogService, logg))
			r.Post("/brands", controllers.AdminCreateBrand(p.CatalogService, logg))
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminListOrders(p.OrderService, logg))
				r.Put("/{orderID}/status", controllers.AdminUpdateOrderStatus(p.OrderService, logg))
			})
		})
	})

	return r
}
