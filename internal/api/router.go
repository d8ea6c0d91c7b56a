package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tkesici/greenhouse-manager/internal/auth"
	"github.com/tkesici/greenhouse-manager/internal/config"
	"github.com/tkesici/greenhouse-manager/internal/events"
	"github.com/tkesici/greenhouse-manager/internal/middleware"
	"github.com/tkesici/greenhouse-manager/internal/models"
	"github.com/tkesici/greenhouse-manager/internal/repository"
	"github.com/tkesici/greenhouse-manager/internal/tenancy"
)

type Server struct {
	router *gin.Engine
	config *config.Config
	db     *repository.Database

	authHandler       *AuthHandler
	telemetryHandler  *TelemetryHandler
	greenhouseHandler *GreenhouseHandler
	deviceHandler     *DeviceHandler
	verifier          middleware.TokenVerifier

	logger *zap.Logger
}

func NewServer(cfg *config.Config, db *repository.Database, publisher events.Publisher, logger *zap.Logger) *Server {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(corsMiddleware(cfg.CORS.Origin))
	if cfg.Metrics.Enabled {
		router.Use(middleware.Prometheus())
	}

	pool := db.Pool()
	users := repository.NewUserRepository(pool, logger)
	tenants := repository.NewTenantRepository(pool, logger)
	greenhouses := repository.NewGreenhouseRepository(pool, logger)
	telemetry := repository.NewTelemetryRepository(pool, logger)

	gate := tenancy.NewGate(greenhouses, logger)
	issuer := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)

	return &Server{
		router:            router,
		config:            cfg,
		db:                db,
		authHandler:       NewAuthHandler(users, tenants, greenhouses, issuer, cfg.Auth.BcryptCost, logger),
		telemetryHandler:  NewTelemetryHandler(telemetry, gate, publisher, logger),
		greenhouseHandler: NewGreenhouseHandler(greenhouses, telemetry, gate, logger),
		deviceHandler:     NewDeviceHandler(telemetry, gate, publisher, logger),
		verifier:          issuer,
		logger:            logger,
	}
}

func (s *Server) SetupRoutes() {
	// Public routes: never require a token.
	s.router.GET("/", s.root)
	s.router.GET("/health", s.healthCheck)
	if s.config.Metrics.Enabled {
		s.router.GET(s.config.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}
	s.router.POST("/login", s.authHandler.Login)
	s.router.POST("/register", s.authHandler.Register)

	// Device routes: authenticated by the shared device key, not by bearer
	// tokens.
	arduino := s.router.Group("/arduino/tenant/:tenantId/greenhouse/:greenhouseId")
	{
		arduino.GET("/push/:temperature/:humidity",
			middleware.DeviceKey(s.config.Device.Key, false),
			s.deviceHandler.PushReading)

		plain := middleware.DeviceKey(s.config.Device.Key, true)
		arduino.GET("/window", plain, s.deviceHandler.ActuatorStatus(models.ActuatorWindow))
		arduino.GET("/irrigation", plain, s.deviceHandler.ActuatorStatus(models.ActuatorIrrigation))
	}

	// User routes: bearer token unless auth is globally disabled.
	protected := s.router.Group("")
	if s.config.Auth.Enabled {
		protected.Use(middleware.Auth(s.verifier))
	}

	tenantScoped := protected.Group("/tenant/:tenantId")
	if s.config.Auth.Enabled {
		tenantScoped.Use(middleware.TenantAccess())
	}
	{
		tenantScoped.GET("/greenhouses", s.greenhouseHandler.List)

		gh := tenantScoped.Group("/greenhouse/:greenhouseId")
		{
			gh.GET("/temperature", s.telemetryHandler.GetTemperature)
			gh.GET("/humidity", s.telemetryHandler.GetHumidity)
			gh.GET("/window", s.telemetryHandler.GetActuator(models.ActuatorWindow))
			gh.GET("/irrigation", s.telemetryHandler.GetActuator(models.ActuatorIrrigation))
			gh.POST("/window", s.telemetryHandler.PostWindow)
			gh.POST("/irrigation", s.telemetryHandler.PostIrrigation)
		}
	}

	history := protected.Group("/greenhouse/:greenhouseId")
	{
		history.GET("/sensors", s.greenhouseHandler.SensorHistory)
		history.GET("/irrigation-history", s.greenhouseHandler.IrrigationHistory)
	}
}

func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "greenhouse-manager"})
}

func (s *Server) healthCheck(c *gin.Context) {
	if err := s.db.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "greenhouse-manager",
	})
}

func corsMiddleware(origin string) gin.HandlerFunc {
	corsCfg := cors.DefaultConfig()
	if origin == "" || origin == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{origin}
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	return cors.New(corsCfg)
}
