package server

import (
	"net"
	"net/http"

	"users-server/confs"
	"users-server/db"
	"users-server/handlers"
	httpHandler "users-server/handlers/http"
	"users-server/middleware"
	"users-server/repositories"
	"users-server/usecases"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	app *gin.Engine
	cfg *confs.Config
	db  db.Database
	log *zap.Logger
}

func NewServer(cfg *confs.Config, database db.Database, userRepo repositories.UserRepository, log *zap.Logger) *Server {
	s := &Server{
		app: gin.New(),
		cfg: cfg,
		db:  database,
		log: log,
	}
	// Match routes on the escaped path so an encoded "/" stays inside
	// the :username segment; params are still unescaped for handlers.
	s.app.UseRawPath = true
	s.routes(userRepo)
	return s
}

func (s *Server) routes(userRepo repositories.UserRepository) {
	// Setup CORS middleware
	config := cors.DefaultConfig()
	if s.cfg.AllowAllOrigins() {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = s.cfg.AllowedOrigins
	}
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader}
	config.ExposeHeaders = []string{middleware.RequestIDHeader}

	s.app.Use(
		middleware.RequestID(),
		middleware.RequestLogger(s.log),
		gin.CustomRecoveryWithWriter(zap.NewStdLog(s.log.Named("recovery")).Writer(), middleware.Recovered),
		cors.New(config),
		middleware.ErrorHandler(),
	)

	// Setup healthcheck route
	healthHandler := handlers.NewHealthHandler(s.db)
	s.app.GET("/health", healthHandler.Health)

	userUseCase := usecases.NewUserUseCase(s.db, userRepo)
	userHandler := httpHandler.NewUserHandler(userUseCase)

	api := s.app.Group("/api/v1")
	{
		users := api.Group("/users")
		{
			users.GET("", userHandler.GetAllUsers)
			users.POST("", userHandler.CreateUser)
			users.GET("/:username", userHandler.FindUser)
		}

		api.POST("/login", userHandler.Login)
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.app }

func (s *Server) Addr() string { return net.JoinHostPort(s.cfg.Host, s.cfg.Port) }

func (s *Server) Start() error {
	s.log.Info("server listening", zap.String("addr", s.Addr()))
	return s.app.Run(s.Addr())
}
