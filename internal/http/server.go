package httpapi

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"portfolio-backend-go/internal/config"
	"portfolio-backend-go/internal/metrics"
	"portfolio-backend-go/internal/services"
	"portfolio-backend-go/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Server struct {
	Config     config.Config
	Store      store.Store
	Tokens     services.TokenService
	Users      services.UserService
	Content    services.Content
	About      services.AboutService
	Settings   services.SettingsService
	CV         services.CVService
	Contacts   *services.ContactService
	Dashboard  services.DashboardService
	Media      services.MediaService
	Samples    *services.SampleRing
	MetricsHub *services.MetricsHub
	StartedAt  time.Time
}

// Deps are the collaborators that differ between production and tests.
type Deps struct {
	Store      store.Store
	Notifier   services.Notifier
	Blobs      services.BlobStore
	Listener   services.ChangeListener
	Samples    *services.SampleRing
	MetricsHub *services.MetricsHub
}

func NewServer(cfg config.Config, deps Deps) *Server {
	tokens := services.TokenService{
		Secret:    []byte(cfg.JWTSecret),
		Issuer:    cfg.JWTIssuer,
		AccessTTL: time.Duration(cfg.AccessTTLSeconds) * time.Second,
	}
	if deps.Notifier == nil {
		deps.Notifier = services.NopNotifier{}
	}
	if deps.Samples == nil {
		deps.Samples = services.NewSampleRing(1)
	}
	st := deps.Store
	return &Server{
		Config:     cfg,
		Store:      st,
		Tokens:     tokens,
		Users:      services.UserService{Store: st, Tokens: tokens},
		Content:    services.NewContent(st, deps.Listener),
		About:      services.AboutService{Store: st, Listener: deps.Listener},
		Settings:   services.SettingsService{Store: st, Listener: deps.Listener},
		CV:         services.CVService{Store: st, Listener: deps.Listener},
		Contacts:   &services.ContactService{Store: st, Notifier: deps.Notifier},
		Dashboard:  services.DashboardService{Store: st, Listener: deps.Listener},
		Media:      services.MediaService{Blobs: deps.Blobs, MaxBytes: cfg.UploadMaxBytes},
		Samples:    deps.Samples,
		MetricsHub: deps.MetricsHub,
		StartedAt:  time.Now(),
	}
}

// allowOrigin accepts the configured origins and any preview deployment
// whose host ends with the configured suffix.
func (s *Server) allowOrigin(_ *http.Request, origin string) bool {
	for _, allowed := range s.Config.AllowedOrigins() {
		if strings.EqualFold(strings.TrimSuffix(allowed, "/"), origin) {
			return true
		}
	}
	suffix := s.Config.CorsPreviewSuffix
	if suffix == "" {
		return false
	}
	u, err := url.Parse(origin)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Hostname()), strings.ToLower(suffix))
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if s.Config.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(RequestLogger)
	r.Use(Recoverer)
	r.Use(SecurityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowOriginFunc:  s.allowOrigin,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"RateLimit-Limit", "RateLimit-Remaining", "RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	protect := Protect(s.Users)
	admin := Authorize(services.CapManageContent)

	apiLimiter := NewRateLimiter("api", s.Config.RateLimitWindow, s.Config.RateLimitMax,
		"Too many requests from this IP, please try again later.")
	contactLimiter := NewRateLimiter("contact", s.Config.ContactLimitWindow, s.Config.ContactLimitMax,
		"Too many contact form submissions, please try again later.")

	r.Get("/", s.Root)

	r.Route("/api", func(api chi.Router) {
		api.Use(apiLimiter.Middleware)
		api.Use(middleware.Compress(5))

		api.Get("/health", s.Health)

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/login", s.Login)
			auth.Get("/logout", s.Logout)
			auth.Group(func(in chi.Router) {
				in.Use(protect)
				in.Get("/me", s.Me)
				in.Put("/updatedetails", s.UpdateDetails)
				in.Put("/updatepassword", s.UpdatePassword)
				in.With(Authorize(services.CapRegisterUsers)).Post("/register", s.Register)
				in.Route("/users", func(users chi.Router) {
					users.Use(Authorize(services.CapManageUsers))
					users.Get("/", s.ListUsers)
					users.Get("/{id}", s.GetUser)
					users.Put("/{id}", s.UpdateUser)
					users.Delete("/{id}", s.DeleteUser)
				})
			})
		})

		mountResource(api, "/projects", s.Content.Projects, protect, admin)
		mountResource(api, "/skills", s.Content.Skills, protect, admin)
		mountResource(api, "/services", s.Content.Services, protect, admin)
		mountResource(api, "/timeline", s.Content.Timeline, protect, admin)
		mountResource(api, "/approach", s.Content.Approach, protect, admin)

		api.Get("/about", s.GetAbout)
		api.With(protect, admin).Put("/about", s.UpdateAbout)

		api.Route("/settings", func(settings chi.Router) {
			settings.Get("/", s.GetSettings)
			settings.With(protect, admin).Put("/", s.UpdateSettings)
			settings.With(protect, admin).Put("/toggle", s.ToggleSettings)
		})

		api.Route("/cv", func(cv chi.Router) {
			cv.Get("/", s.ActiveCV)
			cv.Get("/download", s.DownloadCV)
			cv.Group(func(in chi.Router) {
				in.Use(protect, admin)
				in.Get("/all", s.AllCVs)
				in.Post("/upload", s.UploadCV)
				in.Put("/{id}/activate", s.ActivateCV)
				in.Delete("/{id}", s.DeleteCV)
			})
		})

		api.Route("/contact", func(contact chi.Router) {
			contact.With(contactLimiter.Middleware).Post("/", s.SubmitContact)
			contact.Group(func(in chi.Router) {
				in.Use(protect, admin)
				in.Get("/", s.ListContacts)
				in.Get("/{id}", s.GetContact)
				in.Put("/{id}", s.UpdateContact)
				in.Delete("/{id}", s.DeleteContact)
			})
		})

		api.Route("/dashboard", func(dash chi.Router) {
			dash.Use(protect, Authorize(services.CapViewDashboard))
			dash.Get("/stats", s.DashboardStats)
			dash.Get("/summary", s.DashboardSummary)
			dash.Get("/activity", s.DashboardActivity)
			dash.Get("/search", s.DashboardSearch)
			dash.Post("/bulk-update-status", s.BulkUpdateStatus)
			dash.With(Authorize(services.CapBulkDelete)).Post("/bulk-delete", s.BulkDelete)
			dash.With(Authorize(services.CapViewTelemetry)).Get("/system", s.SystemMetrics)
		})

		api.With(protect, admin).Post("/upload/image", s.UploadImage)
	})

	r.Handle("/uploads/*", s.uploadsHandler())
	r.Get("/ws/metrics", s.MetricsSocket)
	if s.Config.MetricsEnabled {
		r.Handle("/metrics", metrics.Handler())
	}

	r.NotFound(s.NotFound)
	r.MethodNotAllowed(s.NotFound)
	return r
}
