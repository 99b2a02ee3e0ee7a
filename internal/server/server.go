package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/edustack/campus/internal/activity"
	activitydomain "github.com/edustack/campus/internal/activity/domain"
	"github.com/edustack/campus/internal/config"
	"github.com/edustack/campus/internal/course"
	coursedomain "github.com/edustack/campus/internal/course/domain"
	"github.com/edustack/campus/internal/enrollment"
	enrollmentdomain "github.com/edustack/campus/internal/enrollment/domain"
	"github.com/edustack/campus/internal/notification"
	notificationdomain "github.com/edustack/campus/internal/notification/domain"
	"github.com/edustack/campus/internal/notification/liveevents"
	obsmetrics "github.com/edustack/campus/internal/observability/metrics"
	"github.com/edustack/campus/internal/payment"
	paymentdomain "github.com/edustack/campus/internal/payment/domain"
)

var Module = fx.Module("http.server",
	activity.Module,
	course.Module,
	enrollment.Module,
	notification.Module,
	payment.Module,
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterRoutes() }),
	fx.Invoke(RunHTTP),
)

func NewEngine(log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestContextMiddleware())
	r.Use(LoggingMiddleware(log))
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type Params struct {
	fx.In

	Engine        *gin.Engine
	Cfg           config.Config
	DB            *gorm.DB
	Log           *zap.Logger
	PaymentSvc    paymentdomain.Service
	CourseSvc     coursedomain.Service
	EnrollmentSvc enrollmentdomain.Service
	Notifier      notificationdomain.Service
	ActivitySvc   activitydomain.Service
	Hub           *liveevents.Hub
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	db            *gorm.DB
	log           *zap.Logger
	paymentSvc    paymentdomain.Service
	courseSvc     coursedomain.Service
	enrollmentSvc enrollmentdomain.Service
	notifier      notificationdomain.Service
	activitySvc   activitydomain.Service
	hub           *liveevents.Hub
}

func NewServer(p Params) *Server {
	return &Server{
		engine:        p.Engine,
		cfg:           p.Cfg,
		db:            p.DB,
		log:           p.Log.Named("http.server"),
		paymentSvc:    p.PaymentSvc,
		courseSvc:     p.CourseSvc,
		enrollmentSvc: p.EnrollmentSvc,
		notifier:      p.Notifier,
		activitySvc:   p.ActivitySvc,
		hub:           p.Hub,
	}
}

func (s *Server) RegisterRoutes() {
	api := s.engine.Group("/api")

	api.POST("/webhooks/mercadopago", s.HandlePaymentWebhook)

	api.GET("/courses", s.HandleListCourses)
	api.POST("/courses", s.HandleCreateCourse)
	api.GET("/courses/:id", s.HandleGetCourse)
	api.POST("/courses/:id/checkout", s.HandleCreateCheckout)

	api.GET("/enrollments", s.HandleListEnrollments)

	api.GET("/notifications", s.HandleListNotifications)
	api.GET("/notifications/unread-count", s.HandleUnreadCount)
	api.POST("/notifications/:id/read", s.HandleMarkNotificationRead)
	api.GET("/notifications/stream", s.HandleNotificationStream)

	api.GET("/activity", s.HandleListActivity)
}

func RunHTTP(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
