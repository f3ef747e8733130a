// Package httpapi mounts the invitations API on a Gin engine.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbourn/go-invitations-backend/internal/config"
	"github.com/tbourn/go-invitations-backend/internal/http/handlers"
	"github.com/tbourn/go-invitations-backend/internal/http/middleware"
)

// maxBodyBytes caps every request body.
const maxBodyBytes = 1 << 20

// Deps carries the collaborators the routes need.
type Deps struct {
	// Invitations backs the /auth/:authToken/invitations routes.
	Invitations handlers.InvitationService
	// Gate resolves :authToken to a user.
	Gate  middleware.Authenticator
	About handlers.About
}

var (
	corsMethods = []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodDelete, http.MethodOptions}
	corsHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	corsExpose  = []string{"X-Request-ID", "Content-Length"}
)

// RegisterRoutes installs the global middleware chain and every endpoint.
//
// The chain runs tracing, request IDs, the access log and panic recovery
// first, so a failure anywhere below still carries a trace and a request ID
// in its log line. Invitation routes add Authenticate, NoStore and, when
// RATE_RPS > 0, the rate limiter, which therefore keys on the username.
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(
		otelgin.Middleware(cfg.OTEL.ServiceName),
		middleware.RequestID(),
		middleware.RedactingLogger(middleware.RedactOptions{}),
		middleware.Recovery(),
		limitBody(maxBodyBytes),
		middleware.Metrics(),
	)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(corsChain(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	h := handlers.New(deps.Invitations, deps.About)
	r.GET("/health", h.Health)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(gzip.Gzip(gzip.DefaultCompression))
	api.GET("/ping/:token", h.Ping)
	api.HEAD("/ping/:token", h.Ping)
	api.GET("/about", h.GetAbout)

	authed := api.Group("/auth/:"+middleware.AuthTokenParam,
		middleware.Authenticate(deps.Gate),
		middleware.NoStore(),
	)
	if cfg.RateRPS > 0 {
		authed.Use(middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP()).Handler())
	}
	authed.GET("/invitations", h.ListInvitations)
	authed.POST("/invitations", h.CreateInvitation)
	authed.DELETE("/invitations/:invitationId", h.DeleteInvitation)
	// Clients that cannot send DELETE with a body use this alias.
	authed.POST("/invitations/:invitationId/delete", h.DeleteInvitation)
}

// corsChain answers any origin when origins is empty, else only the listed
// ones. Access-Control-Allow-Origin is set even on requests without an Origin
// header, which lets plain health checks see the effective policy.
func corsChain(origins []string) []gin.HandlerFunc {
	base := cors.Config{
		AllowMethods:  corsMethods,
		AllowHeaders:  corsHeaders,
		ExposeHeaders: corsExpose,
		MaxAge:        12 * time.Hour,
	}

	if len(origins) == 0 {
		base.AllowAllOrigins = true
		return []gin.HandlerFunc{
			func(c *gin.Context) {
				c.Header("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(base),
		}
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	base.AllowOrigins = origins
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					c.Header("Access-Control-Allow-Origin", origin)
					c.Writer.Header().Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(base),
	}
}

// limitBody wraps the body in http.MaxBytesReader; oversized bodies fail to
// bind downstream.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
