// Package httpapi serves the accountd REST API over gin.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/accountd/internal/logging"
	"github.com/dmitrijs2005/accountd/internal/server/auth"
	"github.com/dmitrijs2005/accountd/internal/server/metrics"
	"github.com/dmitrijs2005/accountd/internal/server/models"
	"github.com/dmitrijs2005/accountd/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const shutdownTimeout = 5 * time.Second

// AuthService is the authentication surface the handlers and guard need.
type AuthService interface {
	Resolver
	Login(ctx context.Context, identifier, password string) (*services.LoginResult, error)
	Register(ctx context.Context, in services.RegisterInput) (*services.LoginResult, error)
	Logout(ctx context.Context, token string) error
}

// UserService is the profile CRUD surface.
type UserService interface {
	Create(ctx context.Context, in services.CreateUserInput) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Get(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, id string, upd models.ProfileUpdate) (*models.User, error)
	Delete(ctx context.Context, id string) error
}

// Pinger reports storage health. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Options struct {
	Address  string
	Auth     AuthService
	Users    UserService
	Cookie   auth.CookieOptions
	DB       Pinger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   logging.Logger
}

type Server struct {
	address string
	engine  *gin.Engine
	auth    AuthService
	users   UserService
	cookie  auth.CookieOptions
	db      Pinger
	metrics *metrics.Metrics
	logger  logging.Logger
}

func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	s := &Server{
		address: opts.Address,
		auth:    opts.Auth,
		users:   opts.Users,
		cookie:  opts.Cookie,
		db:      opts.DB,
		metrics: opts.Metrics,
		logger:  logger.With("module", "http_server"),
	}

	public := NewPublicRoutes()
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.Use(Guard(s.auth, s.cookie.Name, public, s.metrics, s.logger))

	public.Add(http.MethodGet, "/health")
	r.GET("/health", s.health)

	if opts.Gatherer != nil {
		public.Add(http.MethodGet, "/metrics")
		r.GET("/metrics", gin.WrapH(metrics.HandlerFor(opts.Gatherer)))
	}

	authGroup := r.Group("/auth")
	public.Add(http.MethodPost, "/auth/register")
	authGroup.POST("/register", s.register)
	public.Add(http.MethodPost, "/auth/login")
	authGroup.POST("/login", s.login)
	public.Add(http.MethodPost, "/auth/logout")
	authGroup.POST("/logout", s.logout)

	users := r.Group("/users")
	users.GET("/me", s.getMe)
	users.PATCH("/me", s.updateMe)
	users.DELETE("/me", s.deleteMe)
	users.GET("", s.listUsers)
	users.POST("", s.createUser)
	users.GET("/:id", s.getUser)
	users.PATCH("/:id", s.updateUser)
	users.DELETE("/:id", s.deleteUser)

	s.engine = r
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	if s.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			s.logger.Warn(ctx, "health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
