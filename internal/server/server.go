package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tradeproof/internal/handler"
	"tradeproof/internal/middleware"
)

// Deps are the wired components the server mounts. AuthHandler and
// AuthMiddleware are nil when access control is disabled; every route is
// then open.
type Deps struct {
	Handler        *handler.Handler
	AuthHandler    *handler.AuthHandler
	AuthMiddleware gin.HandlerFunc
}

type Server struct {
	router *gin.Engine
}

func NewServer(deps Deps) *Server {
	router := gin.Default()

	router.Use(middleware.CORS())
	router.Use(middleware.Metrics())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authRequired := deps.AuthMiddleware
	if authRequired == nil {
		authRequired = func(c *gin.Context) { c.Next() }
	}

	if deps.AuthHandler != nil {
		router.POST("/api/auth/login", deps.AuthHandler.Login)
	}

	deps.Handler.RegisterRoutes(router, authRequired)

	return &Server{router: router}
}

// Router exposes the engine for http.Server wiring and tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
