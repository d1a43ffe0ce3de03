package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/yuchankim/trainmail/internal/handler"    // import the handlers that implement business logic
	"github.com/yuchankim/trainmail/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Used by load balancers and monitoring to verify the service is up.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes.
// Unauthenticated operations live under /v1/auth.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotates the refresh token along with the access token.
	g.POST("/refresh", a.Refresh)
	// Logout accepts a refresh_token body without JWT auth, or revokes all
	// sessions when called with a bearer token and no body.
	g.POST("/logout", a.Logout)
}

// RegisterCohorts registers the public cohort lookup endpoints used by the
// registration form.  No authentication is applied so prospective users can
// look up their cohort before creating an account.
func RegisterCohorts(e *echo.Echo, ch *handler.CohortHandler) {
	e.GET("/v1/cohorts/recommend", ch.Recommend)
	e.GET("/v1/cohorts/:no/phase", ch.Phase)
}

// RegisterAccount registers the protected profile and letter endpoints.
// All routes require a valid access token; letter creation additionally
// passes through the rate limiter so a single account cannot flood the
// upstream roster service.
func RegisterAccount(e *echo.Echo, jwtSecret string, p *handler.ProfileHandler, l *handler.LetterHandler, limiter echo.MiddlewareFunc) {
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("USER", "ADMIN"))

	auth.GET("/me", p.Me)
	auth.PATCH("/me", p.Edit)
	auth.PUT("/me/password", p.EditPassword)

	auth.POST("/letters", l.Create, limiter)
	auth.GET("/letters", l.List)
	auth.GET("/letters/:id", l.Get)
}

// RegisterAdmin registers the operational endpoints.  Only ADMIN accounts
// may trigger drains or inspect queue depths.
func RegisterAdmin(e *echo.Echo, jwtSecret string, a *handler.AdminHandler) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("ADMIN"))

	g.POST("/drain/letters", a.DrainLetters)
	g.POST("/drain/profiles", a.DrainProfiles)
	g.GET("/queues", a.Queues)
}
