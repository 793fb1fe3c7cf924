package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/aquaserve/poolops/internal/approval"
	"github.com/aquaserve/poolops/internal/config"
	"github.com/aquaserve/poolops/internal/estimate"
	estimatedomain "github.com/aquaserve/poolops/internal/estimate/domain"
	"github.com/aquaserve/poolops/internal/observability"
	obsmiddleware "github.com/aquaserve/poolops/internal/observability/logger"
	obsmetrics "github.com/aquaserve/poolops/internal/observability/metrics"
	"github.com/aquaserve/poolops/internal/providers/email"
	"github.com/aquaserve/poolops/internal/providers/pdf"
	"github.com/aquaserve/poolops/internal/ratelimit"
	"github.com/aquaserve/poolops/internal/repairjob"
	repairjobdomain "github.com/aquaserve/poolops/internal/repairjob/domain"
)

var Module = fx.Module("http.server",
	email.Module,
	pdf.Module,
	approval.Module,
	estimate.Module,
	repairjob.Module,
	ratelimit.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
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
	db              *gorm.DB
	estimateSvc     estimatedomain.Service
	repairJobSvc    repairjobdomain.Service
	approvalLimiter *ratelimit.PublicApprovalLimiter
	metricsReg      *prometheus.Registry
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	DB              *gorm.DB
	EstimateSvc     estimatedomain.Service
	RepairJobSvc    repairjobdomain.Service
	ApprovalLimiter *ratelimit.PublicApprovalLimiter `optional:"true"`
	MetricsReg      *prometheus.Registry
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		estimateSvc:     p.EstimateSvc,
		repairJobSvc:    p.RepairJobSvc,
		approvalLimiter: p.ApprovalLimiter,
		metricsReg:      p.MetricsReg,
	}

	svc.registerAPIRoutes()
	svc.registerPublicRoutes()
	svc.registerMetricsRoute()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	estimates := api.Group("/estimates")
	{
		estimates.POST("", s.CreateEstimate)
		estimates.GET("", s.ListEstimates)
		estimates.GET("/property/:propertyId", s.ListEstimatesByProperty)
		estimates.GET("/:id", s.GetEstimateByID)
		estimates.PUT("/:id", s.UpdateEstimate)
		estimates.DELETE("/:id", s.DeleteEstimate)

		estimates.POST("/:id/send-for-approval", s.SendEstimateForApproval)
		estimates.POST("/:id/manual-approve", s.ManualApproveEstimate)
		estimates.POST("/:id/manual-reject", s.ManualRejectEstimate)

		estimates.PATCH("/:id/schedule", s.ScheduleEstimate)
		estimates.PATCH("/:id/complete", s.CompleteEstimate)
		estimates.PATCH("/:id/ready-to-invoice", s.MarkEstimateReadyToInvoice)
		estimates.PATCH("/:id/invoice", s.InvoiceEstimate)
	}

	jobs := api.Group("/repair-jobs")
	{
		jobs.GET("", s.ListRepairJobs)
		jobs.GET("/:id", s.GetRepairJobByID)
	}
}

func (s *Server) registerPublicRoutes() {
	public := s.engine.Group("/public/estimates", s.publicApprovalRateLimit())

	public.GET("/approve/:token", s.ReviewEstimateByToken)
	public.POST("/approve/:token", s.ApproveEstimateByToken)
	public.GET("/reject/:token", s.ReviewEstimateByToken)
	public.POST("/reject/:token", s.RejectEstimateByToken)
}

func (s *Server) registerMetricsRoute() {
	s.engine.GET("/metrics", obsmetrics.Handler(s.metricsReg))
}
