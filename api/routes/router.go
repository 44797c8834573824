package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dormledger/hostel-inventory/api/controllers"
	"github.com/dormledger/hostel-inventory/api/middleware"
	"github.com/dormledger/hostel-inventory/internal/audits"
	"github.com/dormledger/hostel-inventory/internal/auth"
	"github.com/dormledger/hostel-inventory/internal/export"
	"github.com/dormledger/hostel-inventory/internal/inventory"
	"github.com/dormledger/hostel-inventory/internal/students"
	"github.com/dormledger/hostel-inventory/internal/users"
	"github.com/dormledger/hostel-inventory/pkg/auth/session"
	"github.com/dormledger/hostel-inventory/pkg/config"
	"github.com/dormledger/hostel-inventory/pkg/logger"
	pkgredis "github.com/dormledger/hostel-inventory/pkg/redis"
)

// RouterParams carries everything the HTTP surface depends on.
type RouterParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Redis    controllers.Pinger
	Gatherer prometheus.Gatherer

	Sessions    session.AccessSessionChecker
	RateLimiter middleware.RateLimiterStore
	Idempotency pkgredis.IdempotencyStore

	Auth      auth.Service
	Users     users.Service
	Inventory inventory.Service
	Export    export.Service
	Audits    audits.Service
	Students  students.Service
	Importer  students.Importer
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUsernameLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, map[string]controllers.Pinger{
			"db":    p.DB,
			"redis": p.Redis,
		}, logg))
	})

	if p.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, p.RateLimiter, logg)).
			Post("/auth/login", controllers.AuthLogin(p.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
			r.Use(middleware.Idempotency(p.Idempotency, logg))

			r.Post("/auth/logout", controllers.AuthLogout(p.Auth, logg))

			r.Route("/users", func(r chi.Router) {
				r.Post("/", controllers.UsersCreate(p.Users, logg))
				r.Post("/change-password", controllers.UsersChangePassword(p.Users, logg))
			})

			r.Route("/inventory", func(r chi.Router) {
				r.Put("/stock", controllers.InventoryUpsertStock(p.Inventory, logg))
				r.Get("/stock", controllers.InventoryListStock(p.Inventory, logg))
				r.Post("/issue", controllers.InventoryIssue(p.Inventory, logg))
				r.Post("/return", controllers.InventoryReturn(p.Inventory, logg))
				r.Get("/students/{studentId}", controllers.InventoryStudentItems(p.Inventory, logg))
				r.Get("/assigned/export", controllers.InventoryAssignedExport(p.Export, logg))
			})

			r.Route("/audits", func(r chi.Router) {
				r.Post("/", controllers.AuditsCreate(p.Audits, logg))
				r.Get("/", controllers.AuditsList(p.Audits, logg))
				r.Get("/{auditId}", controllers.AuditsGet(p.Audits, logg))
				r.Delete("/{auditId}", controllers.AuditsDelete(p.Audits, logg))
			})

			r.Route("/students", func(r chi.Router) {
				r.Post("/", controllers.StudentsCreate(p.Students, logg))
				r.Get("/", controllers.StudentsList(p.Students, logg))
				r.Post("/import", controllers.StudentsImport(p.Importer, logg))
				r.Get("/{studentId}", controllers.StudentsGet(p.Students, logg))
				r.Patch("/{studentId}", controllers.StudentsUpdate(p.Students, logg))
				r.Delete("/{studentId}", controllers.StudentsDelete(p.Students, logg))
			})
		})
	})

	return r
}
