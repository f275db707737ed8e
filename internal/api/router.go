package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"
	apiContext "hirely/internal/api/context"
	"hirely/internal/api/handlers"
	"hirely/internal/api/middleware"
	"hirely/internal/pkg/errors"
	"hirely/internal/platform/auth"
)

type Dependencies struct {
	ParseHandler        *handlers.ParseHandler
	CallbackHandler     *handlers.CallbackHandler
	HealthHandler       *handlers.HealthHandler
	AuthMiddleware      *middleware.AuthMiddleware
	SignatureMiddleware *middleware.SignatureMiddleware
	RateLimiter         *middleware.RateLimiter
}

func NewRouter(deps *Dependencies) http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Route not found", nil)
	})

	router.GET("/healthz", wrap(deps.HealthHandler.Check))

	// Middleware references
	authMid := deps.AuthMiddleware
	sigMid := deps.SignatureMiddleware
	limit := deps.RateLimiter.Limit

	// Resume parsing
	router.POST("/api/v1/resumes/parse",
		chain(deps.ParseHandler.Submit, authMid.Handle, middleware.RequireRole(auth.RoleJobSeeker), limit(middleware.LimitParseSubmit)))
	router.GET("/api/v1/parse-jobs/:job_id",
		chain(deps.ParseHandler.Get, authMid.Handle, limit(middleware.LimitAPIRead)))

	// Service-to-service callbacks
	router.POST("/api/v1/callbacks/resume-parser",
		chain(deps.CallbackHandler.ResumeParsed, limit(middleware.LimitCallback), sigMid.Handle))

	return middleware.RequestLogger(router)
}

// Helper function to chain middlewares
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		// Inject params into context
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}
