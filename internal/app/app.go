// Package app assembles the services, middleware and routes of the API.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"sportsequip/internal/config"
	"sportsequip/internal/middleware"
	"sportsequip/internal/modules/auth"
	"sportsequip/internal/modules/equipment"
	"sportsequip/internal/modules/notification"
	"sportsequip/internal/modules/request"
	"sportsequip/internal/modules/student"
	"sportsequip/internal/modules/upload"
	"sportsequip/internal/pkg/jwt"
	"sportsequip/internal/pkg/mailer"
	"sportsequip/internal/pkg/response"
	"sportsequip/internal/repository"
)

type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Log    *zap.Logger
	// Redis switches rate limiting to the shared store when set.
	Redis *redis.Client
	// Mailer defaults to SMTP when configured, else the console sender.
	Mailer mailer.Sender
}

type App struct {
	Router *gin.Engine
	Store  *repository.Store
	Hub    *notification.Hub
	Tokens *jwt.Service

	cfg      *config.Config
	log      *zap.Logger
	limiters []*middleware.MemoryLimiter
}

func New(ctx context.Context, d Deps) (*App, error) {
	cfg, log := d.Config, d.Log
	if log == nil {
		log = zap.NewNop()
	}

	store := repository.NewStore(d.DB)
	tokens := jwt.New(cfg.JWTSecret, cfg.JWTExpiresIn)

	uploads := upload.NewService(upload.Config{
		Root:        cfg.Upload.Path,
		BaseURL:     cfg.BaseURL,
		MaxFileSize: cfg.Upload.MaxFileSize,
		MaxFiles:    cfg.Upload.MaxFiles,
	})
	if err := uploads.EnsureDirs(); err != nil {
		return nil, err
	}

	sender := d.Mailer
	if sender == nil {
		if cfg.SMTP.Enabled() {
			sender = mailer.NewSMTPSender(mailer.SMTPConfig{
				Host:     cfg.SMTP.Host,
				Port:     cfg.SMTP.Port,
				User:     cfg.SMTP.User,
				Password: cfg.SMTP.Password,
				From:     cfg.SMTP.From,
			})
		} else {
			sender = mailer.NewConsoleSender(log)
		}
	}

	hub := notification.NewHub(log, cfg.CORSAllowedOrigins)

	authSvc := auth.NewService(store, tokens, sender, uploads, cfg.OTPTTL, log)
	if _, err := authSvc.EnsureDefaultAdmin(ctx, cfg.DefaultAdminPassword); err != nil {
		return nil, fmt.Errorf("ensure default admin: %w", err)
	}

	a := &App{Store: store, Hub: hub, Tokens: tokens, cfg: cfg, log: log}

	apiLimit, otpLimit := a.newLimiters(d.Redis)

	authn := middleware.NewAuthenticator(tokens, store.Students, store.Admins, log)

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(log),
		middleware.Recovery(log),
		middleware.CORS(cfg.CORSAllowedOrigins),
	)
	r.Static("/uploads", uploads.Root())
	r.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{
			"status":    "OK",
			"timestamp": time.Now().UTC(),
			"websocket": hub.Connected(),
		})
	})

	api := r.Group("/api", middleware.RateLimit(apiLimit, middleware.ClientIPKey, log))
	auth.NewHandler(authSvc, uploads).RegisterRoutes(api, authn,
		middleware.RateLimit(otpLimit, middleware.ClientIPKey, log))
	equipment.NewHandler(equipment.NewService(store, uploads, hub), uploads).RegisterRoutes(api, authn)
	request.NewHandler(request.NewService(store, hub)).RegisterRoutes(api, authn)
	student.NewHandler(student.NewService(store, uploads), uploads).RegisterRoutes(api, authn)
	notification.NewHandler(notification.NewService(store, hub), hub, log).RegisterRoutes(api, authn)

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, http.StatusNotFound, "Route not found")
	})

	a.Router = r
	return a, nil
}

// newLimiters returns the general and the OTP limiter.
func (a *App) newLimiters(rdb *redis.Client) (middleware.Limiter, middleware.Limiter) {
	rl := a.cfg.RateLimit
	if rdb != nil {
		return middleware.NewRedisLimiter(rdb, "api", rl.Window, rl.Max),
			middleware.NewRedisLimiter(rdb, "otp", rl.Window, rl.OTPMax)
	}
	api := middleware.NewMemoryLimiter(rl.Window, rl.Max)
	otp := middleware.NewMemoryLimiter(rl.Window, rl.OTPMax)
	a.limiters = append(a.limiters, api, otp)
	return api, otp
}

// RunBackground starts the limiter sweepers and, when configured, the
// periodic OTP cleanup. Everything stops with ctx.
func (a *App) RunBackground(ctx context.Context) {
	for _, l := range a.limiters {
		go l.RunSweeper(ctx, time.Minute)
	}
	if a.cfg.OTPCleanupInterval > 0 {
		go a.cleanOTPs(ctx, a.cfg.OTPCleanupInterval)
	}
}

func (a *App) cleanOTPs(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := a.Store.Students.ClearExpiredOTPs(ctx, time.Now().UTC())
			if err != nil {
				a.log.Warn("otp cleanup failed", zap.Error(err))
				continue
			}
			if n > 0 {
				a.log.Info("expired otps cleared", zap.Int64("count", n))
			}
		}
	}
}

func (a *App) Close() {
	a.Hub.Close()
}
