package server

import (
	"net/http"
	"time"

	"padaria/internal/storefront/controller"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func NewRouter(ctrl *controller.Controller, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", ctrl.Health)
	r.Get("/bakeries", ctrl.ListBakeries)

	r.Post("/sessions", ctrl.CreateSession)
	r.Route("/sessions/{sessionId}", func(r chi.Router) {
		r.Delete("/", ctrl.CloseSession)
		r.Post("/login", ctrl.Login)
		r.Put("/bakery", ctrl.SelectBakery)
		r.Get("/menu", ctrl.Menu)

		r.Get("/cart", ctrl.Cart)
		r.Post("/cart/items", ctrl.AddCartItem)
		r.Delete("/cart/items/{itemId}", ctrl.RemoveCartItem)
		r.Delete("/cart", ctrl.ClearCart)

		r.Post("/orders", ctrl.PlaceOrder)
		r.Get("/orders", ctrl.Orders)
		r.Get("/changes", ctrl.Changes)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/bakeries", ctrl.CreateBakery)
			r.Post("/menu", ctrl.AddMenuItem)
			r.Delete("/menu/{itemId}", ctrl.RemoveMenuItem)
			r.Post("/orders/{orderId}/advance", ctrl.AdvanceOrder)
			r.Post("/orders/{orderId}/regress", ctrl.RegressOrder)
			r.Get("/orders/{orderId}/history", ctrl.OrderHistory)
		})
	})

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Info("request",
				zap.String("requestId", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
