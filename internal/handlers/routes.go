package handlers

import (
	"net/http"
	"strings"
	"time"

	"chat-backend/internal/middleware"
)

var (
	Cache30Sec = middleware.CacheControl(30*time.Second, "private")
	Cache1Min  = middleware.CacheControl(1*time.Minute, "private")
)

func publicRoute(mux *http.ServeMux, pattern string, rateLimit *middleware.RateLimitStore, cacheMiddleware func(http.HandlerFunc) http.HandlerFunc, handler http.HandlerFunc) {
	mux.HandleFunc(pattern, middleware.RateLimitFunc(rateLimit, true)(cacheMiddleware(handler)))
}

func authRoute(mux *http.ServeMux, pattern string, rateLimit *middleware.RateLimitStore, cacheMiddleware func(http.HandlerFunc) http.HandlerFunc, handler http.HandlerFunc) {
	mux.HandleFunc(pattern, middleware.RateLimitFunc(rateLimit, true)(cacheMiddleware(middleware.RequireAuth(handler))))
}

func adminRoute(mux *http.ServeMux, pattern string, rateLimit *middleware.RateLimitStore, cacheMiddleware func(http.HandlerFunc) http.HandlerFunc, handler http.HandlerFunc) {
	mux.HandleFunc(pattern, middleware.RateLimitFunc(rateLimit, true)(cacheMiddleware(middleware.RequireAdmin(handler))))
}

// Routes registers every endpoint on a new mux and wraps it with request
// tracking, CORS and credential resolution.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	// Accounts
	publicRoute(mux, "POST /accounts", middleware.AuthRateLimit, middleware.NoCache, h.RegisterHandler)
	authRoute(mux, "GET /accounts/me", middleware.GlobalRateLimit, middleware.NoCache, h.MeHandler)

	// Categories
	publicRoute(mux, "GET /categories", middleware.GlobalRateLimit, Cache1Min, h.ListCategoriesHandler)
	publicRoute(mux, "GET /categories/{id}", middleware.GlobalRateLimit, Cache1Min, h.GetCategoryHandler)
	adminRoute(mux, "POST /categories", middleware.UploadRateLimit, middleware.NoCache, h.CreateCategoryHandler)
	adminRoute(mux, "PATCH /categories/{id}", middleware.UploadRateLimit, middleware.NoCache, h.UpdateCategoryHandler)
	adminRoute(mux, "DELETE /categories/{id}", middleware.GlobalRateLimit, middleware.NoCache, h.DeleteCategoryHandler)

	// Servers
	publicRoute(mux, "GET /servers/{$}", middleware.GlobalRateLimit, middleware.NoCache, h.ListServersHandler)
	publicRoute(mux, "GET /servers/{id}", middleware.GlobalRateLimit, Cache30Sec, h.GetServerHandler)
	authRoute(mux, "POST /servers", middleware.GlobalRateLimit, middleware.NoCache, h.CreateServerHandler)
	authRoute(mux, "PATCH /servers/{id}", middleware.GlobalRateLimit, middleware.NoCache, h.UpdateServerHandler)
	authRoute(mux, "DELETE /servers/{id}", middleware.GlobalRateLimit, middleware.NoCache, h.DeleteServerHandler)
	authRoute(mux, "POST /servers/{id}/members", middleware.GlobalRateLimit, middleware.NoCache, h.JoinServerHandler)
	authRoute(mux, "DELETE /servers/{id}/members", middleware.GlobalRateLimit, middleware.NoCache, h.LeaveServerHandler)
	publicRoute(mux, "GET /servers/{id}/channels", middleware.GlobalRateLimit, Cache30Sec, h.ListServerChannelsHandler)

	// Channels
	publicRoute(mux, "GET /channels/{id}", middleware.GlobalRateLimit, Cache30Sec, h.GetChannelHandler)
	authRoute(mux, "POST /channels", middleware.UploadRateLimit, middleware.NoCache, h.CreateChannelHandler)
	authRoute(mux, "PATCH /channels/{id}", middleware.UploadRateLimit, middleware.NoCache, h.UpdateChannelHandler)
	authRoute(mux, "DELETE /channels/{id}", middleware.GlobalRateLimit, middleware.NoCache, h.DeleteChannelHandler)

	// Stored media
	media := mediaPrefix(h.cfg.MediaURL)
	mux.Handle("GET "+media, middleware.StaticCache(http.StripPrefix(media, middleware.SecureStaticFileServer(h.cfg.MediaRoot)).ServeHTTP))

	// Operations
	mux.HandleFunc("GET /health", middleware.NoCache(h.HealthHandler))
	adminRoute(mux, "GET /metrics", middleware.GlobalRateLimit, middleware.NoCache, h.GetMetricsHandler)

	return middleware.TrackOutboundData(middleware.CORS(middleware.Authenticate(h.db)(mux)).ServeHTTP)
}

func mediaPrefix(mediaURL string) string {
	p := strings.Trim(mediaURL, "/")
	if p == "" {
		p = "media"
	}
	return "/" + p + "/"
}
