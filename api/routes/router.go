package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/article39/artist-platform-backend/api/controllers"
	"github.com/article39/artist-platform-backend/api/middleware"
	"github.com/article39/artist-platform-backend/internal/applications"
	"github.com/article39/artist-platform-backend/internal/auth"
	"github.com/article39/artist-platform-backend/internal/content"
	"github.com/article39/artist-platform-backend/internal/dashboard"
	"github.com/article39/artist-platform-backend/internal/gigs"
	"github.com/article39/artist-platform-backend/internal/payments"
	"github.com/article39/artist-platform-backend/internal/songs"
	"github.com/article39/artist-platform-backend/internal/submissions"
	"github.com/article39/artist-platform-backend/internal/tasks"
	"github.com/article39/artist-platform-backend/internal/uploads"
	"github.com/article39/artist-platform-backend/internal/verification"
	"github.com/article39/artist-platform-backend/pkg/auth/session"
	"github.com/article39/artist-platform-backend/pkg/config"
	"github.com/article39/artist-platform-backend/pkg/logger"
	"github.com/article39/artist-platform-backend/pkg/redis"
)

// Services are the domain services behind the HTTP surface.
type Services struct {
	Auth         auth.Service
	Submissions  submissions.Service
	Verification verification.Service
	Songs        songs.Service
	Gigs         gigs.Service
	Applications applications.Service
	Payments     payments.Service
	Dashboard    dashboard.Service
	Content      *content.Catalog
	Uploads      uploads.Service
	Tasks        tasks.AdminService
}

type Params struct {
	Config      *config.Config
	Logger      *logger.Logger
	Sessions    session.AccessSessionChecker
	Principals  middleware.PrincipalLoader
	RateLimiter redis.RateLimiter
	Health      map[string]controllers.Pinger
	Services    Services
}

type gates struct {
	auth     func(http.Handler) http.Handler
	optional func(http.Handler) http.Handler
	admin    func(http.Handler) http.Handler
	artist   func(http.Handler) http.Handler
}

func NewRouter(p Params) http.Handler {
	cfg := p.Config
	logg := p.Logger
	svc := p.Services

	g := gates{
		auth:     middleware.Auth(cfg.JWT, p.Sessions, p.Principals, logg),
		optional: middleware.OptionalAuth(cfg.JWT, p.Sessions, p.Principals, logg),
		admin:    middleware.Require(middleware.CapabilityAdmin, logg),
		artist:   middleware.Require(middleware.CapabilityVerifiedArtist, logg),
	}

	loginPolicy := middleware.NewRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUsernameLimit,
	)
	intakePolicy := middleware.NewRateLimitPolicy(
		"intake",
		cfg.AuthRateLimit.IntakeWindow,
		cfg.AuthRateLimit.IntakeIPLimit,
		0,
	)

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.Health))
	})

	r.With(middleware.RateLimit(loginPolicy, p.RateLimiter, logg)).
		Post("/rest-auth/login", controllers.AuthLogin(svc.Auth, logg))
	r.Post("/get-access-token", controllers.AuthRefresh(svc.Auth, logg))
	r.Post("/api/token/verify", controllers.AuthVerifyToken(svc.Auth, logg))
	r.Group(func(r chi.Router) {
		r.Use(g.auth)
		r.Post("/rest-auth/logout", controllers.AuthLogout(svc.Auth, logg))
		r.Post("/rest-auth/password/change", controllers.AuthPasswordChange(svc.Auth, logg))
	})

	r.Post("/file-upload", controllers.FileUpload(svc.Uploads, logg))

	r.Route("/form", func(r chi.Router) {
		intake := middleware.RateLimit(intakePolicy, p.RateLimiter, logg)
		r.With(intake).Post("/artist", controllers.SubmitMusician(svc.Submissions, logg))
		r.With(intake).Post("/filmmaker", controllers.SubmitFilmmaker(svc.Submissions, logg))
		r.With(g.auth, g.admin).Get("/artist", controllers.GetMusicians(svc.Submissions, logg))
		r.With(g.auth, g.admin).Get("/filmmaker", controllers.GetFilmmakers(svc.Submissions, logg))
	})

	r.Route("/administrator", func(r chi.Router) {
		r.Use(g.auth, g.admin)
		r.Post("/verify-artist", controllers.VerifyArtist(svc.Verification, logg))

		r.Get("/song", controllers.AdminSongs(svc.Songs, logg))
		r.Put("/song-status", controllers.ReviewSong(svc.Songs, logg))

		r.Get("/gig", controllers.AdminGigs(svc.Gigs, logg))
		r.Post("/gig", controllers.CreateGig(svc.Gigs, logg))
		r.Put("/gig", controllers.UpdateGig(svc.Gigs, logg))
		r.Delete("/gig", controllers.DeleteGig(svc.Gigs, logg))

		r.Get("/application", controllers.AdminApplications(svc.Applications, logg))
		r.Put("/application-status", controllers.SetApplicationStatus(svc.Applications, logg))

		r.Get("/tasks", controllers.AdminTasks(svc.Tasks, logg))
		r.Post("/tasks/retry", controllers.RetryTask(svc.Tasks, logg))
	})

	r.Route("/artist", func(r chi.Router) {
		r.Use(g.auth, g.artist)
		r.Post("/song", controllers.EnlistSong(svc.Songs, logg))
		r.Get("/song", controllers.ArtistSongs(svc.Songs, logg))
		r.Get("/gig", controllers.ArtistGigs(svc.Gigs, logg))
		r.Post("/apply-gig", controllers.ApplyGig(svc.Applications, logg))
		r.Post("/payment", controllers.RequestPayment(svc.Payments, logg))
		r.Get("/payment", controllers.ArtistPayments(svc.Payments, logg))
		r.Get("/payment/gigs", controllers.PaymentGigs(svc.Payments, logg))
		r.Get("/dashboard", controllers.ArtistDashboard(svc.Dashboard, logg))
	})

	r.Route("/web-api", func(r chi.Router) {
		r.Use(g.optional)
		r.Get("/gigs", controllers.PublicGigs(svc.Gigs, logg))

		if c := svc.Content; c != nil {
			mountContent(r, c.Carousel, g, logg)
			mountContent(r, c.Stories, g, logg)
			mountContent(r, c.Events, g, logg)
			mountContent(r, c.Tickets, g, logg)
			mountContent(r, c.Exhibitions, g, logg)
			mountContent(r, c.Albums, g, logg)
			mountContent(r, c.Singles, g, logg)
			mountContent(r, c.Shows, g, logg)
			mountContent(r, c.ShowBookings, g, logg)
		}
	})

	return r
}

// mountContent exposes one website resource. Reads are public unless the
// rows hold visitor contact details; writes are admin-only except the
// visitor-facing bookings.
func mountContent[T any](r chi.Router, svc *content.Service[T], g gates, logg *logger.Logger) {
	res := svc.Resource()
	public := middleware.Require(middleware.CapabilityPublic, logg)

	read, create := public, public
	if res.PrivateRead {
		read = g.admin
	}
	if !res.PublicCreate {
		create = g.admin
	}

	r.Route("/"+res.Path, func(r chi.Router) {
		r.With(read).Get("/", controllers.ContentGet(svc, logg))
		r.With(create).Post("/", controllers.ContentCreate(svc, logg))
		r.With(g.admin).Put("/", controllers.ContentUpdate(svc, logg))
		r.With(g.admin).Delete("/", controllers.ContentDelete(svc, logg))
	})
}
