package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/swamy3697/Shop-Mate/internal/auth"
	"github.com/swamy3697/Shop-Mate/internal/share"
	"github.com/swamy3697/Shop-Mate/internal/shopping"
)

// Options configures the API router.
type Options struct {
	Service   *shopping.Service
	Accounts  auth.AccountStore
	JWTSecret string

	// CORSOrigins lists the browser origins allowed to call the API.
	// Empty disables CORS handling.
	CORSOrigins []string

	// PDFFont sets the shared PDF. Zero uses share.DefaultFont.
	PDFFont share.Font
}

// NewRouter creates the API handler with all endpoints registered, wrapped
// in request logging, metrics and CORS handling.
func NewRouter(opts Options) http.Handler {
	mux := http.NewServeMux()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := NewMetrics(reg)

	authHandler := &AuthHandler{Accounts: opts.Accounts, JWTSecret: opts.JWTSecret}
	itemsHandler := &ItemsHandler{Service: opts.Service}
	listHandler := &ListHandler{Service: opts.Service, Font: opts.PDFFont}
	searchHandler := &SearchHandler{Service: opts.Service}
	dataHandler := &DataHandler{Service: opts.Service}

	authMW := AuthMiddleware(opts.JWTSecret, opts.Accounts)
	authed := func(h http.HandlerFunc) http.Handler { return authMW(h) }

	// Public.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("GET /healthz", health)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	mux.Handle("PUT /api/auth/password", authed(authHandler.ChangePassword))

	// Catalog.
	mux.Handle("GET /api/items", authed(itemsHandler.List))
	mux.Handle("POST /api/items", authed(itemsHandler.Create))
	mux.Handle("GET /api/items/{id}", authed(itemsHandler.Get))
	mux.Handle("PUT /api/items/{id}", authed(itemsHandler.Update))
	mux.Handle("DELETE /api/items/{id}", authed(itemsHandler.Delete))
	mux.Handle("PUT /api/items/{id}/image", authed(itemsHandler.UploadImage))
	mux.Handle("GET /api/items/{id}/image", authed(itemsHandler.GetImage))
	mux.Handle("DELETE /api/items/{id}/image", authed(itemsHandler.DeleteImage))
	mux.Handle("POST /api/items/{id}/list", authed(itemsHandler.AddToList))

	// Search.
	mux.Handle("GET /api/search", authed(searchHandler.Search))
	mux.Handle("POST /api/search/create", authed(searchHandler.Create))

	// Shopping list.
	mux.Handle("GET /api/list", authed(listHandler.List))
	mux.Handle("POST /api/list", authed(listHandler.Add))
	mux.Handle("DELETE /api/list", authed(listHandler.Clear))
	mux.Handle("PUT /api/list/{id}", authed(listHandler.Update))
	mux.Handle("DELETE /api/list/{id}", authed(listHandler.Delete))
	mux.Handle("POST /api/list/{id}/toggle", authed(listHandler.Toggle))
	mux.Handle("GET /api/list/{id}/image", authed(listHandler.GetImage))
	mux.Handle("GET /api/list/share.txt", authed(listHandler.ShareText))
	mux.Handle("GET /api/list/share.pdf", authed(listHandler.SharePDF))

	// Settings.
	mux.Handle("DELETE /api/data", authed(dataHandler.Reset))

	var handler http.Handler = mux
	handler = LoggingMiddleware(metrics)(handler)
	if len(opts.CORSOrigins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
		}).Handler(handler)
	}
	return handler
}

// health handles GET /healthz.
func health(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}
