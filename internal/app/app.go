// Package app wires configuration, storage, services, and the HTTP server.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/saffron-restaurant/api/internal/domain/coupon"
	"github.com/saffron-restaurant/api/internal/domain/order"
	"github.com/saffron-restaurant/api/internal/domain/reservation"
	"github.com/saffron-restaurant/api/internal/domain/review"
	"github.com/saffron-restaurant/api/internal/handler"
	"github.com/saffron-restaurant/api/internal/notify"
	"github.com/saffron-restaurant/api/internal/repository"
	"github.com/saffron-restaurant/api/internal/session"
	"github.com/saffron-restaurant/api/pkg/health"
	"github.com/saffron-restaurant/api/pkg/httpmiddleware"
)

// Run creates every dependency, starts the HTTP server and the notification
// worker, and handles graceful shutdown. It is the single wiring point.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.Migrate(ctx, pool); err != nil {
		return errors.Wrap(err, "migrate")
	}

	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.DatabaseCheck(pool))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.SetReady(true)

	// Repositories.
	menuRepo := repository.NewMenuRepository(pool)
	couponRepo := repository.NewCouponRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	reservationRepo := repository.NewReservationRepository(pool)
	reviewRepo := repository.NewReviewRepository(pool)
	apikeyRepo := repository.NewAPIKeyRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)

	// Admin notifications: nil transports are skipped by the dispatcher.
	var mailer notify.Mailer
	if cfg.SMTP.Host != "" {
		mailer = notify.NewSMTPMailer(notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			AdminTo:  cfg.SMTP.AdminTo,
		})
	}
	var chat notify.Messenger
	if cfg.Telegram.BotToken != "" {
		chat = notify.NewTelegramClient(notify.TelegramConfig{
			BotToken: cfg.Telegram.BotToken,
			ChatID:   cfg.Telegram.ChatID,
		})
	}
	dispatcher := notify.NewDispatcher(mailer, chat, lg.Named("notify"), 0)
	go dispatcher.Run(ctx)

	// Domain services.
	orderService := order.NewService(order.Config{
		Pricing:    cfg.Delivery.Pricing(),
		CodeTTL:    cfg.SMSCodeTTL,
		CodePepper: []byte(cfg.SMSCodePepper),
	}, menuRepo, couponRepo, orderRepo, notify.NewLogSMSSender(lg.Named("sms")), dispatcher, lg.Named("order"))
	reservationService := reservation.NewService(reservationRepo, dispatcher)
	reviewService := review.NewService(reviewRepo, dispatcher)

	sessions := session.NewManager(sessionRepo, cfg.SecureCookies)

	h := handler.New(
		handler.Config{
			Pricing:      cfg.Delivery.Pricing(),
			ImageBaseURL: cfg.ImageBaseURL,
		},
		menuRepo,
		coupon.NewResolver(couponRepo),
		orderService,
		reservationService,
		reviewService,
		sessions,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	h.Routes(mux)

	adminMux := http.NewServeMux()
	h.AdminRoutes(adminMux)
	mux.Handle("/admin/", httpmiddleware.Wrap(adminMux,
		handler.APIKeyAuth(apikeyRepo, []byte(cfg.APIKeyPepper)),
	))

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: otelhttp.NewHandler(
			httpmiddleware.Wrap(mux,
				httpmiddleware.Recovery(),
				httpmiddleware.CORS(httpmiddleware.CORSConfig{
					AllowOrigins:     cfg.CORS.Origins,
					AllowHeaders:     []string{"Content-Type", "X-API-Key", "X-Requested-With"},
					AllowCredentials: cfg.CORS.AllowCredentials,
					MaxAge:           86400,
				}),
				httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
					Max:    cfg.RateLimit.Max,
					Window: cfg.RateLimit.Window,
				}),
				httpmiddleware.RequestID(),
				httpmiddleware.LogRequests(zctx.From(ctx)),
			),
			"saffron-api",
			otelhttp.WithTracerProvider(m.TracerProvider()),
			otelhttp.WithMeterProvider(m.MeterProvider()),
		),
	}

	// Graceful shutdown: flip readiness, wait for the drain delay, stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
