// Package httpapi — REST-интерфейс сервиса заказов поверх chi.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ordermgmt/internal/service/auth"
	"github.com/vladislavdragonenkov/ordermgmt/internal/service/catalog"
	"github.com/vladislavdragonenkov/ordermgmt/internal/service/orders"
)

// Handler реализует HTTP-обработчики.
type Handler struct {
	orders   *orders.Service
	catalog  *catalog.Service
	auth     *auth.Service
	validate *validator.Validate
	logger   *log.Entry
}

// NewHandler создаёт обработчики поверх сервисов.
func NewHandler(ordersSvc *orders.Service, catalogSvc *catalog.Service, authSvc *auth.Service, logger *log.Entry) *Handler {
	if logger == nil {
		logger = log.New().WithField("component", "http")
	}
	return &Handler{
		orders:   ordersSvc,
		catalog:  catalogSvc,
		auth:     authSvc,
		validate: newValidator(),
		logger:   logger,
	}
}

// Router настраивает маршруты и middleware.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h.logger))

	r.Get("/health", h.Health)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(h.requireAuth).Post("/logout", h.Logout)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)

		r.Get("/profile", h.Profile)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Post("/", h.CreateProduct)
			r.Get("/{id}", h.GetProduct)
			r.Put("/{id}", h.UpdateProduct)
			r.Delete("/{id}", h.DeleteProduct)
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Get("/", h.ListMyAddresses)
			r.Post("/", h.CreateAddress)
			r.Get("/{id}", h.GetAddress)
			r.Put("/{id}", h.UpdateAddress)
			r.Delete("/{id}", h.DeleteAddress)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.ListMyOrders)
			r.Post("/", h.CreateOrder)
			r.Get("/{id}", h.GetOrder)
			r.Put("/{id}", h.UpdateOrderStatus)
			r.Post("/{id}/cancel", h.CancelOrder)
			r.Get("/{id}/total", h.OrderTotal)
			r.Get("/{id}/timeline", h.OrderTimeline)
		})

		r.Get("/users/{userId}/addresses", h.ListUserAddresses)
		r.Get("/users/{userId}/orders", h.ListUserOrders)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", http.StatusText(http.StatusNotFound))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", http.StatusText(http.StatusMethodNotAllowed))
	})

	return r
}

// Health — проверка живости API.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
