package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/reservoireye/internal/alert"
	"github.com/reservoireye/internal/auth"
	"github.com/reservoireye/internal/logger"
	"github.com/reservoireye/internal/models"
	"github.com/reservoireye/internal/store"
	"gorm.io/gorm"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	DB             *gorm.DB
	Tokens         *auth.TokenManager
	Rules          *alert.RuleManager
	History        *alert.AlertHistory
	Alerts         *alert.AlertManager
	AllowedOrigins []string
}

type Server struct {
	db           *gorm.DB
	tokens       *auth.TokenManager
	users        *store.UserStore
	reservoirs   *store.ReservoirStore
	devices      *store.DeviceStore
	measurements *store.MeasurementStore
	ruleManager  *alert.RuleManager
	history      *alert.AlertHistory
	alertManager *alert.AlertManager
	router       *gin.Engine
}

func NewServer(d Deps) *Server {
	s := &Server{
		db:           d.DB,
		tokens:       d.Tokens,
		users:        store.NewUserStore(d.DB),
		reservoirs:   store.NewReservoirStore(d.DB),
		devices:      store.NewDeviceStore(d.DB),
		measurements: store.NewMeasurementStore(d.DB),
		ruleManager:  d.Rules,
		history:      d.History,
		alertManager: d.Alerts,
		router:       gin.New(),
	}

	s.router.Use(requestLogger(), recovery())
	if len(d.AllowedOrigins) > 0 {
		s.router.Use(cors.New(cors.Config{
			AllowOrigins:     d.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
			AllowHeaders:     []string{"Authorization", "Content-Type", auth.APIKeyHeader},
			AllowCredentials: true,
		}))
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	v1 := s.router.Group("/api/v1")

	// Public routes
	v1.GET("/health", s.health)
	v1.GET("/metrics", gin.WrapH(promhttp.Handler()))
	v1.POST("/auth/register", s.register)
	v1.POST("/auth/login", s.login)

	// Device routes (API key)
	v1.POST("/devices/measurements", auth.DeviceMiddleware(s.devices), s.submitMeasurement)

	// Protected routes (JWT)
	api := v1.Group("")
	api.Use(auth.AuthMiddleware(s.tokens, s.users))

	api.GET("/auth/me", s.me)
	api.PUT("/auth/me", s.updateMe)

	api.GET("/reservoirs", s.listReservoirs)
	api.POST("/reservoirs", s.createReservoir)
	api.GET("/reservoirs/:id", s.getReservoir)
	api.PUT("/reservoirs/:id", s.updateReservoir)
	api.DELETE("/reservoirs/:id", s.deleteReservoir)
	api.GET("/reservoirs/:id/rules", s.listRules)
	api.POST("/reservoirs/:id/rules", s.createRule)

	api.GET("/devices", s.listDevices)
	api.POST("/devices", s.createDevice)
	api.GET("/devices/:id", s.getDevice)
	api.PUT("/devices/:id", s.updateDevice)
	api.DELETE("/devices/:id", s.deleteDevice)
	api.POST("/devices/:id/rotate-key", s.rotateDeviceKey)
	api.GET("/devices/:id/measurements", s.listMeasurements)

	rules := api.Group("/rules")
	{
		rules.GET("/:id", s.getRule)
		rules.PUT("/:id", s.updateRule)
		rules.DELETE("/:id", s.deleteRule)
		rules.PUT("/:id/enable", s.enableRule)
		rules.PUT("/:id/disable", s.disableRule)
		rules.POST("/test", s.testRule)
	}

	api.GET("/alerts", s.listAlerts)

	admin := api.Group("/admin")
	admin.Use(auth.RequireRole(models.RoleAdmin))
	admin.GET("/users", s.listUsers)
	admin.PUT("/users/:id/role", s.setUserRole)
	admin.PUT("/users/:id/ban", s.setUserBan)
	admin.GET("/stats", s.stats)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log := logger.WithComponent("api")
		log.Info().Str("addr", addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) health(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
