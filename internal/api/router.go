package api

import (
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/AlexZx-05/Multiple-step-form/internal/storage"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// photoRoutes answer an oversized body like any other rejected upload.
var photoRoutes = map[string]bool{
	"/api/upload-profile-photo": true,
	"/api/submit-form":          true,
}

type RouterConfig struct {
	JWTSecret   []byte
	RateLimit   float64 // requests per second per client, 0 disables limiting
	RateBurst   int
	CORSOrigins []string
	UploadDir   string
	BodyLimit   string
	Gatherer    prometheus.Gatherer
}

// NewRouter wires the middleware chain and every route of the profile API.
func NewRouter(h *UserHandler, cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code == http.StatusRequestEntityTooLarge && photoRoutes[c.Path()] {
			if !c.Response().Committed {
				_ = c.JSON(400, map[string]string{"error": storage.ErrTooLarge.Error()})
			}
			return
		}
		e.DefaultHTTPErrorHandler(err, c)
	}

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: cfg.CORSOrigins}))
	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}
	if cfg.RateLimit > 0 {
		e.Use(middleware.RateLimiterWithConfig(rateLimiterConfig(cfg)))
	}

	e.POST("/users", h.CreateUser)

	apiGroup := e.Group("/api")
	apiGroup.POST("/check-username", h.CheckUsername)
	apiGroup.GET("/countries", h.ListCountries)
	apiGroup.GET("/states", h.ListStates)
	apiGroup.GET("/cities", h.ListCities)
	apiGroup.POST("/upload-profile-photo", h.UploadProfilePhoto)
	apiGroup.POST("/update-profile", h.UpdateProfile)
	apiGroup.POST("/submit-form", h.SubmitForm)
	apiGroup.POST("/login", h.Login)
	apiGroup.GET("/profile", h.GetProfile, echojwt.WithConfig(echojwt.Config{
		SigningKey: cfg.JWTSecret,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(jwt.RegisteredClaims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(401, map[string]string{"error": "Unauthorized"})
		},
	}))

	if cfg.UploadDir != "" {
		e.Static("/uploads", cfg.UploadDir)
	}

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]interface{}{
			"status":  "ok",
			"service": "profile-service",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	return e
}

func rateLimiterConfig(cfg RouterConfig) middleware.RateLimiterConfig {
	return middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(cfg.RateLimit),
				Burst:     cfg.RateBurst,
				ExpiresIn: 3 * time.Minute,
			}),
		IdentifierExtractor: func(context echo.Context) (string, error) {
			return context.RealIP(), nil
		},
		ErrorHandler: func(context echo.Context, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
		DenyHandler: func(context echo.Context, identifier string, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
	}
}
