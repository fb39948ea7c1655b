package main

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/diewo77/facturo/auth"
	"github.com/diewo77/facturo/httpx"
	"github.com/diewo77/facturo/i18n"
	"github.com/diewo77/facturo/internal/billing"
	"github.com/diewo77/facturo/internal/config"
	"github.com/diewo77/facturo/internal/handlers"
	"github.com/diewo77/facturo/internal/logging"
	"github.com/diewo77/facturo/internal/metrics"
	"github.com/diewo77/facturo/internal/numbering"
	"github.com/diewo77/facturo/internal/pdf"
	"github.com/diewo77/facturo/internal/plan"
	"github.com/diewo77/facturo/internal/policy"
	"github.com/diewo77/facturo/internal/services"
	"github.com/diewo77/facturo/internal/store"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux     *http.ServeMux
	handler http.Handler
	cfg     *config.Config
	store   *store.Store
	auth    *auth.Authenticator
	gate    *policy.PlanGate
	log     *zap.Logger

	sessions  *handlers.SessionHandler
	clients   *handlers.ClientHandler
	products  *handlers.ProductHandler
	company   *handlers.CompanyHandler
	invoices  *handlers.InvoiceHandler
	billing   *handlers.BillingHandler
	dashboard *handlers.DashboardHandler
	analytics *handlers.AnalyticsHandler
}

// NewApp wires services and handlers around st and catalog.
func NewApp(cfg *config.Config, st *store.Store, catalog *plan.Catalog, log *zap.Logger) *App {
	if log == nil {
		log = zap.NewNop()
	}
	authenticator := auth.New(cfg.App.SessionSecret)
	limits := billing.NewEvaluator(catalog, st, billing.WithLogger(log))
	numbers := numbering.NewAssigner(st, log)

	clientSvc := services.NewClientService(st, limits, log)
	productSvc := services.NewProductService(st)
	companySvc := services.NewCompanyService(st)
	invoiceSvc := services.NewInvoiceService(st, limits, numbers, log,
		services.WithMaxAttempts(cfg.App.NumberingMaxAttempts))

	planGate := policy.NewPlanGate(catalog, log)

	app := &App{
		mux:   http.NewServeMux(),
		cfg:   cfg,
		store: st,
		auth:  authenticator,
		gate:  planGate,
		log:   log,

		sessions:  handlers.NewSessionHandler(authenticator, catalog, !cfg.App.Dev, log),
		clients:   handlers.NewClientHandler(clientSvc, st, log),
		products:  handlers.NewProductHandler(productSvc, st, log),
		company:   handlers.NewCompanyHandler(companySvc, log),
		invoices:  handlers.NewInvoiceHandler(invoiceSvc, pdf.NewRenderer(), planGate, log),
		billing:   handlers.NewBillingHandler(limits, log),
		dashboard: handlers.NewDashboardHandler(st, log),
		analytics: handlers.NewAnalyticsHandler(st, log),
	}
	app.setupRoutes()

	// metrics sits right above the mux so it sees the matched pattern
	app.handler = logging.Middleware(log)(
		app.withLanguage(authenticator.Middleware(metrics.Middleware(app.mux))))
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

func (a *App) setupRoutes() {
	// Public
	a.mux.HandleFunc("GET /healthz", a.healthz)
	a.mux.Handle("GET /metrics", metrics.Handler())
	a.mux.HandleFunc("POST /api/session", a.sessions.Login)

	// Session
	a.mux.Handle("GET /api/session", a.requireAuth(a.sessions.Me))
	a.mux.Handle("DELETE /api/session", a.requireAuth(a.sessions.Logout))

	// Clients
	a.mux.Handle("GET /api/clients", a.requireAuth(a.clients.List))
	a.mux.Handle("POST /api/clients", a.requireAuth(a.clients.Create))
	a.mux.Handle("GET /api/clients/{id}", a.requireAuth(a.clients.View))
	a.mux.Handle("PUT /api/clients/{id}", a.requireAuth(a.clients.Update))
	a.mux.Handle("DELETE /api/clients/{id}", a.requireAuth(a.clients.Delete))

	// Products
	a.mux.Handle("GET /api/products", a.requireAuth(a.products.List))
	a.mux.Handle("POST /api/products", a.requireAuth(a.products.Create))
	a.mux.Handle("GET /api/products/{id}", a.requireAuth(a.products.View))
	a.mux.Handle("PUT /api/products/{id}", a.requireAuth(a.products.Update))
	a.mux.Handle("DELETE /api/products/{id}", a.requireAuth(a.products.Delete))

	// Invoices
	a.mux.Handle("GET /api/invoices", a.requireAuth(a.invoices.List))
	a.mux.Handle("POST /api/invoices", a.requireAuth(a.invoices.Create))
	a.mux.Handle("GET /api/invoices/{id}", a.requireAuth(a.invoices.View))
	a.mux.Handle("PUT /api/invoices/{id}", a.requireAuth(a.invoices.Update))
	a.mux.Handle("DELETE /api/invoices/{id}", a.requireAuth(a.invoices.Delete))
	a.mux.Handle("GET /api/invoices/{id}/pdf",
		a.requireFeature(plan.FeaturePDFExport, a.invoices.PDF))

	// Company profile
	a.mux.Handle("GET /api/company-profile", a.requireAuth(a.company.View))
	a.mux.Handle("POST /api/company-profile", a.requireAuth(a.company.Create))
	a.mux.Handle("PUT /api/company-profile", a.requireAuth(a.company.Update))
	a.mux.Handle("DELETE /api/company-profile", a.requireAuth(a.company.Delete))

	// Billing and reporting
	a.mux.Handle("GET /api/billing/plan", a.requireAuth(a.billing.Plan))
	a.mux.Handle("GET /api/billing/usage", a.requireAuth(a.billing.Usage))
	a.mux.Handle("GET /api/billing/plans", a.requireAuth(a.billing.Plans))
	a.mux.Handle("GET /dashboard/stats", a.requireAuth(a.dashboard.Stats))
	a.mux.Handle("GET /api/analytics/revenue",
		a.requireFeature(plan.FeatureAnalytics, a.analytics.Revenue))
}

func (a *App) requireAuth(h http.HandlerFunc) http.Handler {
	return auth.RequireAuth(h)
}

// requireFeature also requires authentication; the gate answers 401 for
// anonymous requests.
func (a *App) requireFeature(feature plan.Feature, h http.HandlerFunc) http.Handler {
	return a.gate.RequireFeature(feature)(h)
}

// withLanguage resolves the response language from ?lang=, the lang cookie
// or Accept-Language, in that order. A supported ?lang= is remembered in
// the cookie.
func (a *App) withLanguage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := i18n.Negotiate(r.Header.Get("Accept-Language"), a.cfg.App.DefaultLang)
		if c, err := r.Cookie("lang"); err == nil && i18n.Supported(c.Value) {
			lang = c.Value
		}
		if q := r.URL.Query().Get("lang"); i18n.Supported(q) {
			lang = q
			http.SetCookie(w, &http.Cookie{
				Name:     "lang",
				Value:    lang,
				Path:     "/",
				MaxAge:   86400 * 365,
				HttpOnly: true,
			})
		}
		next.ServeHTTP(w, r.WithContext(i18n.WithLang(r.Context(), lang)))
	})
}

func (a *App) healthz(w http.ResponseWriter, r *http.Request) {
	if err := a.store.Ping(r.Context()); err != nil {
		logging.FromContext(r.Context(), a.log).Error("health check failed", zap.Error(err))
		httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
