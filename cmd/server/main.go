package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-ticket-booking/internal/booking"
	"github.com/iliyamo/cinema-ticket-booking/internal/catalog"
	"github.com/iliyamo/cinema-ticket-booking/internal/config"
	"github.com/iliyamo/cinema-ticket-booking/internal/database"
	"github.com/iliyamo/cinema-ticket-booking/internal/handler"
	"github.com/iliyamo/cinema-ticket-booking/internal/logger"
	"github.com/iliyamo/cinema-ticket-booking/internal/middleware"
	"github.com/iliyamo/cinema-ticket-booking/internal/payment"
	"github.com/iliyamo/cinema-ticket-booking/internal/queue"
	"github.com/iliyamo/cinema-ticket-booking/internal/report"
	"github.com/iliyamo/cinema-ticket-booking/internal/repository"
	"github.com/iliyamo/cinema-ticket-booking/internal/router"
)

// showStore is satisfied by repository.MemoryStore and repository.MySQLStore.
type showStore interface {
	booking.Store
	catalog.Store
}

type userStore interface {
	handler.UserStore
	report.CustomerCounter
}

type stores struct {
	shows  showStore
	users  userStore
	tokens handler.TokenStore
	db     *sql.DB
}

func openStores(ctx context.Context, cfg config.Config) stores {
	if cfg.StoreDriver == config.StoreMemory {
		logger.Get().Warn("using in-memory store; data is lost on restart")
		return stores{
			shows:  repository.NewMemoryStore(),
			users:  repository.NewMemoryUsers(),
			tokens: repository.NewMemoryTokens(),
		}
	}
	db, err := database.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db connect failed", "host", cfg.DB.Host, "error", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		logger.Fatal("db migrate failed", "error", err)
	}
	return stores{
		shows:  repository.NewMySQLStore(db),
		users:  repository.NewUserRepo(db),
		tokens: repository.NewTokenRepo(db),
		db:     db,
	}
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st := openStores(ctx, cfg)
	if st.db != nil {
		defer st.db.Close()
	}

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}

	bookingCfg := config.LoadBookingConfig()
	opts := []booking.Option{
		booking.WithHoldTTL(bookingCfg.HoldTTL),
		booking.WithSweepBatch(bookingCfg.SweepBatch),
		booking.WithLogger(log),
	}
	if broker := config.LoadBrokerConfig(); broker.Enabled {
		pub, err := queue.NewPublisher(ctx, broker.URL)
		if err != nil {
			log.Warn("rabbitmq unavailable; booking events disabled", "error", err)
		} else {
			defer pub.Close()
			outbox := queue.NewOutbox(pub, broker.OutboxSize, queue.DialTimeout+2*time.Second)
			outbox.Start(ctx)
			defer outbox.Stop()
			opts = append(opts, booking.WithEvents(outbox))
		}
	}

	payCfg := config.LoadPaymentConfig()
	gateway := payment.NewGateway(payment.Config{
		KeyID:     payCfg.KeyID,
		KeySecret: payCfg.KeySecret,
		Currency:  payCfg.Currency,
	})

	svc := booking.NewService(st.shows, gateway, opts...)
	inv := svc.Inventory()
	cat := catalog.NewService(st.shows, cfg.Location())
	rep := report.NewAggregator(st.shows, st.users, st.shows)

	sweeper := booking.NewSweeper(svc, bookingCfg.SweepInterval)
	sweeper.Start(ctx)

	cacheCfg := config.LoadCacheConfig()
	checks := map[string]handler.Check{}
	if st.db != nil {
		checks["mysql"] = st.db.PingContext
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e, handler.NewHealthHandler(checks))
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, st.users, st.tokens), cfg.JWTSecret)
	router.RegisterPublic(e, handler.NewShowHandler(cat, inv), middleware.NewRedisCache(cacheCfg, rdb))
	router.RegisterCustomer(e, handler.NewBookingHandler(svc, gateway), cfg.JWTSecret)
	router.RegisterAdmin(e, handler.NewAdminHandler(cat, svc, rep, purgeFunc(rdb, cacheCfg.Prefix)), cfg.JWTSecret)

	go func() {
		addr := ":" + cfg.Port
		log.Info("listening", "addr", addr, "env", cfg.Env, "store", cfg.StoreDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	sweeper.Stop()
	log.Info("server stopped")
}

func purgeFunc(rdb *redis.Client, prefix string) func(ctx context.Context) error {
	if rdb == nil {
		return nil
	}
	return func(ctx context.Context) error {
		return middleware.PurgeCache(ctx, rdb, prefix)
	}
}
