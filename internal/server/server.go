package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	activitydomain "github.com/smallbiznis/frontdesk/internal/activity/domain"
	allocationdomain "github.com/smallbiznis/frontdesk/internal/allocation/domain"
	"github.com/smallbiznis/frontdesk/internal/authorization"
	availabilitydomain "github.com/smallbiznis/frontdesk/internal/availability/domain"
	businessdatedomain "github.com/smallbiznis/frontdesk/internal/businessdate/domain"
	"github.com/smallbiznis/frontdesk/internal/config"
	nightauditdomain "github.com/smallbiznis/frontdesk/internal/nightaudit/domain"
	"github.com/smallbiznis/frontdesk/internal/observability"
	obsmiddleware "github.com/smallbiznis/frontdesk/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/frontdesk/internal/observability/metrics"
	obstracing "github.com/smallbiznis/frontdesk/internal/observability/tracing"
	"github.com/smallbiznis/frontdesk/internal/ratelimit"
	reservationdomain "github.com/smallbiznis/frontdesk/internal/reservation/domain"
	roomdomain "github.com/smallbiznis/frontdesk/internal/room/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	ratelimit.Module,
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, httpMetrics)
}

func registerRoutes(s *Server) {
	s.RegisterAdminRoutes()
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http.server.failed", zap.Error(err))
				}
			}()
			log.Info("http.server.listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	log             *zap.Logger
	authzSvc        authorization.Service
	limiter         *ratelimit.OperatorLimiter
	obsMetrics      *obsmetrics.Metrics
	nightAuditSvc   nightauditdomain.Service
	businessDateSvc businessdatedomain.Service
	availabilitySvc availabilitydomain.Service
	allocationSvc   allocationdomain.Service
	reservationSvc  reservationdomain.Service
	roomSvc         roomdomain.Service
	activitySvc     activitydomain.Service
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	Log             *zap.Logger
	AuthzSvc        authorization.Service
	Limiter         *ratelimit.OperatorLimiter `optional:"true"`
	ObsMetrics      *obsmetrics.Metrics        `optional:"true"`
	NightAuditSvc   nightauditdomain.Service
	BusinessDateSvc businessdatedomain.Service
	AvailabilitySvc availabilitydomain.Service
	AllocationSvc   allocationdomain.Service
	ReservationSvc  reservationdomain.Service
	RoomSvc         roomdomain.Service
	ActivitySvc     activitydomain.Service `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		log:             p.Log.Named("http.server"),
		authzSvc:        p.AuthzSvc,
		limiter:         p.Limiter,
		obsMetrics:      p.ObsMetrics,
		nightAuditSvc:   p.NightAuditSvc,
		businessDateSvc: p.BusinessDateSvc,
		availabilitySvc: p.AvailabilitySvc,
		allocationSvc:   p.AllocationSvc,
		reservationSvc:  p.ReservationSvc,
		roomSvc:         p.RoomSvc,
		activitySvc:     p.ActivitySvc,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) RegisterAdminRoutes() {
	admin := s.engine.Group("/admin")
	admin.Use(s.OperatorRequired())
	admin.Use(s.OperatorRateLimit())

	admin.POST("/night-audits", s.authorize(authorization.ObjectNightAudit, authorization.ActionNightAuditStart), s.StartNightAudit)
	admin.GET("/night-audits", s.authorize(authorization.ObjectNightAudit, authorization.ActionNightAuditView), s.ListNightAudits)
	admin.GET("/night-audits/:id", s.authorize(authorization.ObjectNightAudit, authorization.ActionNightAuditView), s.GetNightAudit)

	admin.GET("/business-date", s.authorize(authorization.ObjectBusinessDate, authorization.ActionBusinessDateView), s.GetBusinessDate)
	admin.PUT("/business-date", s.authorize(authorization.ObjectBusinessDate, authorization.ActionBusinessDateSet), s.SetBusinessDate)

	admin.GET("/availability", s.authorize(authorization.ObjectAvailability, authorization.ActionAvailabilityView), s.GetAvailability)
	admin.POST("/room-allocations", s.authorize(authorization.ObjectRoomAllocation, authorization.ActionRoomAllocate), s.AllocateRoom)

	admin.POST("/reservations", s.authorize(authorization.ObjectReservation, authorization.ActionReservationCreate), s.CreateReservation)
	admin.GET("/reservations/:id", s.authorize(authorization.ObjectReservation, authorization.ActionReservationView), s.GetReservation)
	admin.POST("/reservations/:id/check-in", s.authorize(authorization.ObjectReservation, authorization.ActionReservationCheckIn), s.CheckInReservation)
	admin.POST("/reservations/:id/check-out", s.authorize(authorization.ObjectReservation, authorization.ActionReservationCheckOut), s.CheckOutReservation)
	admin.POST("/reservations/:id/cancel", s.authorize(authorization.ObjectReservation, authorization.ActionReservationCancel), s.CancelReservation)

	admin.GET("/room-types", s.authorize(authorization.ObjectRoom, authorization.ActionRoomView), s.ListRoomTypes)
	admin.POST("/room-types", s.authorize(authorization.ObjectRoom, authorization.ActionRoomManage), s.CreateRoomType)
	admin.GET("/rooms", s.authorize(authorization.ObjectRoom, authorization.ActionRoomView), s.ListRooms)
	admin.POST("/rooms", s.authorize(authorization.ObjectRoom, authorization.ActionRoomManage), s.CreateRoom)
	admin.PATCH("/rooms/:id/housekeeping", s.authorize(authorization.ObjectRoom, authorization.ActionRoomHousekeeping), s.UpdateHousekeeping)

	admin.GET("/activity-logs", s.authorize(authorization.ObjectActivityLog, authorization.ActionActivityLogView), s.ListActivityLogs)
}
