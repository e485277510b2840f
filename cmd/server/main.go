package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/hotelreserva/hotel-booking/internal/booking"
	"github.com/hotelreserva/hotel-booking/internal/config"
	"github.com/hotelreserva/hotel-booking/internal/database"
	"github.com/hotelreserva/hotel-booking/internal/handler"
	"github.com/hotelreserva/hotel-booking/internal/logger"
	"github.com/hotelreserva/hotel-booking/internal/mailer"
	"github.com/hotelreserva/hotel-booking/internal/middleware"
	"github.com/hotelreserva/hotel-booking/internal/queue"
	"github.com/hotelreserva/hotel-booking/internal/repository"
	"github.com/hotelreserva/hotel-booking/internal/router"
	"github.com/hotelreserva/hotel-booking/internal/service"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile, JSON: cfg.Env == "prod"})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg)
	if err != nil {
		log.WithError(err).WithField("db", cfg.DSNSummary()).Fatal("database connection failed")
	}
	defer db.Close()
	if err := database.Migrate(ctx, db, log); err != nil {
		log.WithError(err).Fatal("migrations failed")
	}

	clients := repository.NewClientRepo(db)
	tokens := repository.NewTokenRepo(db)
	rooms := repository.NewRoomRepo(db)
	reservations := repository.NewReservationRepo(db)

	if err := service.EnsureAdmin(ctx, clients, cfg.AdminEmail, cfg.AdminPassword, cfg.BcryptCost, log); err != nil {
		log.WithError(err).Fatal("admin bootstrap failed")
	}

	rdb := config.NewRedisClient(log)
	if rdb != nil {
		defer rdb.Close()
	}
	cacheCfg := config.LoadCacheConfig()

	engine := booking.NewEngine(log, booking.WithLocation(cfg.Location))

	roomHandler := handler.NewRoomHandler(engine, rooms, reservations, log)
	if rdb != nil && cacheCfg.Enabled {
		roomHandler.OnChange = func(ctx context.Context) error {
			return middleware.PurgeCache(ctx, rdb, cacheCfg.Prefix)
		}
	}
	publisher := service.NewQueuePublisher(cfg.RabbitURL, log)
	reservationHandler := handler.NewReservationHandler(engine, reservations, clients, publisher, log)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.Recover())
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log))

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, clients, tokens), cfg.JWTSecret)
	router.RegisterRooms(e, roomHandler, cfg.JWTSecret, middleware.NewRedisCache(cacheCfg, rdb, log))
	router.RegisterReservations(e, reservationHandler, cfg.JWTSecret,
		middleware.NewTokenBucket(config.LoadBookingRateLimitConfig(), rdb, log))
	router.RegisterClients(e, handler.NewClientHandler(clients, reservations, log), cfg.JWTSecret)

	if cfg.RabbitURL != "" {
		consumer := queue.NewConsumer(cfg.RabbitURL, log, logger.Rotating(cfg.JournalFile), mailer.New(cfg.SMTP, log))
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("reservation consumer stopped")
			}
		}()
	}

	go func() {
		log.WithFields(logrus.Fields{"addr": cfg.Addr(), "env": cfg.Env, "timezone": cfg.Location.String()}).Info("listening")
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
