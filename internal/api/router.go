package api

import (
	"log"
	"net/http"
	"time"

	"github.com/example/bizpanel/internal/api/middleware"
	"github.com/example/bizpanel/internal/infrastructure/store"
)

// RouterConfig carries the pieces the routes are guarded with.
type RouterConfig struct {
	Tokens      middleware.TokenValidator
	RateLimiter *middleware.RateLimiter
}

func NewRouter(handlers *Handlers, authHandlers *AuthHandlers, cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	authed := middleware.AuthMiddleware(cfg.Tokens)
	can := middleware.RequirePermission

	// Auth
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			authHandlers.Login(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			authHandlers.Logout(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.Handle("/auth/me", middleware.Chain(http.HandlerFunc(authHandlers.Me), authed))

	// Sales
	createSale := http.Handler(http.HandlerFunc(handlers.CreateSale))
	if cfg.RateLimiter != nil {
		createSale = cfg.RateLimiter.Middleware(createSale)
	}
	mux.Handle("/sales", middleware.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.SaleForm(w, r)
		case http.MethodPost:
			createSale.ServeHTTP(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}), authed, can(store.PermCreateSales)))

	mux.Handle("/sales/", middleware.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.GetSale(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}), authed, can(store.PermViewSales)))

	// Activity log
	mux.Handle("/activity", middleware.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.ListActivity(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}), authed, can(store.PermViewActivity)))

	mux.HandleFunc("/health", handlers.Health)

	return withLogging(mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("[API] %s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond))
	})
}
