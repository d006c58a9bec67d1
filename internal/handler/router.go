package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/zhouzirui/medicare/backend/internal/config"
	"github.com/zhouzirui/medicare/backend/internal/handler/chat"
	"github.com/zhouzirui/medicare/backend/internal/handler/hospital"
	"github.com/zhouzirui/medicare/backend/internal/handler/session"
	"github.com/zhouzirui/medicare/backend/internal/handler/stream"
	middlewarePkg "github.com/zhouzirui/medicare/backend/internal/middleware"
	hospitalModel "github.com/zhouzirui/medicare/backend/internal/model/hospital"
	chatService "github.com/zhouzirui/medicare/backend/internal/service/chat"
	triageService "github.com/zhouzirui/medicare/backend/internal/service/triage"
	"github.com/zhouzirui/medicare/backend/pkg/utils"
)

// Deps 汇总路由依赖的服务。
type Deps struct {
	Server    config.ServerConfig
	Triage    *triageService.Service
	Hospitals hospitalModel.Store
	Sessions  *chatService.Service
	Logger    *zap.Logger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(deps.Server.AllowedOrigins))

	limiter := middlewarePkg.NewRateLimiter(deps.Logger, middlewarePkg.RateLimiterOptions{
		Limit: rate.Limit(deps.Server.RateLimitRPS),
		Burst: deps.Server.RateLimitBurst,
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"sessions": deps.Sessions.Len(),
		})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		// Backend contract answered in-process
		chat.New(deps.Triage).RegisterRoutes(api, limiter.Middleware)
		hospital.New(deps.Hospitals).RegisterRoutes(api)

		// Live sessions
		session.New(deps.Sessions, middlewarePkg.CheckOrigin(deps.Server.AllowedOrigins)).RegisterRoutes(api)
		stream.New(deps.Sessions).RegisterRoutes(api)
	})

	return r
}
