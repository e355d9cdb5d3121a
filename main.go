package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"charter/internal/cache"
	intconfig "charter/internal/config"
	intdb "charter/internal/db"
	router "charter/internal/http"
	"charter/internal/http/handlers"
	"charter/internal/jobs"
	"charter/internal/mail"
	"charter/internal/numbering"
	"charter/internal/payments"
	"charter/internal/repositories"
	"charter/internal/services"
	"charter/internal/storage"
	"charter/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func main() {
	env, err := intconfig.LoadEnv()
	utils.SetupLogging(env.LogLevel, env.LogFile)
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	conn, err := intdb.Open(ctx, env.DB)
	if err != nil {
		logrus.WithError(err).Fatal("database connection failed")
	}
	defer conn.Close()

	if env.RunMigrations {
		if err := intdb.Migrate(env.DB, env.MigrationsPath); err != nil {
			logrus.WithError(err).Fatal("migrations failed")
		}
	}
	if missing := conn.MissingTables(ctx); len(missing) > 0 {
		logrus.WithField("tables", missing).Warn("database schema is incomplete, set MIGRATE=true")
	}

	numbers := &numbering.Allocator{
		DB: conn,
		Seeders: map[string]numbering.Seeder{
			env.Numbering.OfferPrefix:   numbering.SeedFromColumn("offers", "offer_number"),
			env.Numbering.BookingPrefix: numbering.SeedFromColumn("bookings", "booking_number"),
			env.Numbering.TicketPrefix:  numbering.SeedFromColumn("ticket_bookings", "order_number"),
		},
	}

	var mailer mail.Mailer = mail.LogMailer{}
	if env.MailEnabled() {
		m, err := mail.NewSMTPMailer(env.Mail)
		if err != nil {
			logrus.WithError(err).Fatal("smtp setup failed")
		}
		mailer = m
	} else {
		logrus.Warn("SMTP_HOST not set, emails are only logged")
	}

	if !env.StripeEnabled() {
		logrus.Warn("STRIPE_SECRET_KEY not set, online ticket checkout is disabled")
	}

	var files storage.Store = storage.Disabled{}
	if env.StorageEnabled() {
		s3, err := storage.NewS3Store(ctx, env.Storage)
		if err != nil {
			logrus.WithError(err).Fatal("object storage setup failed")
		}
		files = s3
	}

	var tripCache cache.Cache = cache.Nop{}
	if env.RedisURL != "" {
		rc, err := cache.NewRedis(ctx, env.RedisURL)
		if err != nil {
			// The feed still works straight from the database.
			utils.LogError("", "main", "redis", err)
		} else {
			defer rc.Close()
			tripCache = rc
		}
	}

	tokens := services.TokenService{
		Secret:   []byte(env.JWTSecret),
		AdminTTL: env.AdminTokenTTL,
		OfferTTL: env.OfferTokenTTL,
	}

	var notifications sync.WaitGroup
	deps := handlers.Deps{
		Env:        env,
		DB:         conn,
		Offers:     repositories.OfferRepository{DB: conn},
		Bookings:   repositories.BookingRepository{DB: conn},
		Departures: repositories.DepartureRepository{DB: conn},
		Trips:      repositories.TripRepository{DB: conn},
		Tickets:    repositories.TicketRepository{DB: conn},
		Drivers:    repositories.DriverRepository{DB: conn},
		Employees:  repositories.EmployeeRepository{DB: conn},
		Vehicles:   repositories.VehicleRepository{DB: conn},
		Agreements: repositories.AgreementRepository{DB: conn},
		Profiles:   repositories.PriceProfileRepository{DB: conn},
		Users:      repositories.UserRepository{DB: conn},
		Numbers:    numbers,
		Mailer:     mailer,
		Payments:   payments.NewStripeGateway(env.Stripe),
		Storage:    files,
		Cache:      tripCache,
		Tokens:     tokens,

		Notifications: &notifications,
	}

	auth := services.AuthService{Users: deps.Users, Tokens: tokens, RequestID: "startup"}
	if err := auth.EnsureAdmin(ctx, env.AdminEmail, env.AdminPassword, env.AdminName); err != nil {
		logrus.WithError(err).Fatal("could not create admin account")
	}

	trips := services.TripService{
		Trips:      deps.Trips,
		Departures: deps.Departures,
		Cache:      tripCache,
		CacheTTL:   env.PublicTripsCacheTTL,
		RequestID:  "job",
	}
	tickets := services.TicketService{
		Tickets:    deps.Tickets,
		PendingTTL: env.PendingOrderTTL,
		RequestID:  "job",
	}
	scheduler, err := jobs.New(
		jobs.Task{
			Name:     "rebuild_departure_cache",
			Interval: env.DepartureCacheInterval,
			Timeout:  5 * time.Minute,
			Run:      trips.RebuildAllCaches,
		},
		jobs.Task{
			Name:     "expire_pending_orders",
			Interval: env.PendingSweepInterval,
			Run: func(ctx context.Context) error {
				_, err := tickets.ExpirePending(ctx)
				return err
			},
		},
	)
	if err != nil {
		logrus.WithError(err).Fatal("scheduler setup failed")
	}
	scheduler.Start()

	r := router.NewRouter(handlers.New(deps), env)

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logrus.WithField("addr", env.AppAddr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logrus.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("server shutdown failed")
	}
	if err := scheduler.Stop(); err != nil {
		logrus.WithError(err).Error("scheduler shutdown failed")
	}
	if !services.WaitPending(&notifications, env.NotifyTimeout+5*time.Second) {
		logrus.Warn("shutdown before all notification emails were sent")
	}
	logrus.Info("server stopped")
}
