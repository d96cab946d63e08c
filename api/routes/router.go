package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/minsukang/storefront-backend/api/controllers"
	"github.com/minsukang/storefront-backend/api/middleware"
	"github.com/minsukang/storefront-backend/internal/cart"
	"github.com/minsukang/storefront-backend/internal/orders"
	"github.com/minsukang/storefront-backend/internal/payments"
	"github.com/minsukang/storefront-backend/internal/products"
	"github.com/minsukang/storefront-backend/pkg/config"
	"github.com/minsukang/storefront-backend/pkg/db"
	"github.com/minsukang/storefront-backend/pkg/logger"
	"github.com/minsukang/storefront-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	productService products.Service,
	cartService cart.Service,
	orderService orders.Service,
	paymentService payments.Service,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		if redisClient != nil {
			r.Get("/ready", controllers.HealthReady(cfg, dbClient, redisClient, logg))
		} else {
			r.Get("/ready", controllers.HealthReady(cfg, dbClient, nil, logg))
		}
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(productService, logg))
			r.Get("/popular", controllers.PopularProducts(productService, logg))
			r.Get("/{productId}", controllers.GetProduct(productService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.GetCart(cartService, logg))
				r.Delete("/", controllers.ClearCart(cartService, logg))
				r.Get("/count", controllers.CartCount(cartService, logg))
				r.Get("/summary", controllers.CartSummary(cartService, logg))
				r.Post("/items", controllers.AddCartItem(cartService, logg))
				r.Patch("/items/{itemId}", controllers.UpdateCartItem(cartService, logg))
				r.Delete("/items/{itemId}", controllers.RemoveCartItem(cartService, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", controllers.PlaceOrder(orderService, logg))
				r.Get("/", controllers.ListOrders(orderService, logg))
				r.Get("/{orderId}", controllers.GetOrder(orderService, logg))
				r.Post("/{orderId}/payment-session", controllers.CreatePaymentSession(paymentService, logg))
			})
		})
	})

	return r
}
