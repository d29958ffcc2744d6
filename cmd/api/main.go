package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/infra/db"
	"storefront/internal/infra/notify"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/logger"
	"storefront/internal/server"
	"storefront/internal/usecase"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	//.envは無くてもよい（本番は環境変数）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(logger.Options{
		Service: "storefront",
		Env:     cfg.GoEnv,
		Level:   cfg.LogLevel,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//DB接続
	gormDB, err := db.Connect(cfg.DSN())
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	//カート（セッション）はRedis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}

	notifier, closeNotifier, err := newNotifier(cfg, log)
	if err != nil {
		return err
	}
	defer closeNotifier()

	//Repository（GORM/Redis実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	sessionRepo := infraRepo.NewCartSessionRedisRepository(rdb, cfg.CartTTL)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//usecaseに渡す部品
	idGen := &uuidGenerator{}
	clock := usecase.SystemClock()

	//Usecase生成
	cartUC := usecase.NewCartUsecase(sessionRepo, productRepo, idGen)
	checkoutUC := usecase.NewCheckoutUsecase(txm, cartUC, userRepo, notifier, idGen, log)
	orderUC := usecase.NewOrderUsecase(txm, clock, log)
	adminOrderUC := usecase.NewAdminOrderUsecase(txm, clock, log)
	reviewUC := usecase.NewReviewUsecase(txm)

	//Handler生成
	e := server.New(server.Deps{
		Config:      cfg,
		Log:         log,
		Users:       userRepo,
		Sessions:    sessionRepo,
		Cart:        handler.NewCartHandler(cartUC),
		Orders:      handler.NewOrderHandler(checkoutUC, orderUC),
		AdminOrders: handler.NewAdminOrderHandler(adminOrderUC, orderUC),
		Reviews:     handler.NewReviewHandler(reviewUC),
	})

	//Server起動
	addr := cfg.Port
	if addr[0] != ':' {
		addr = ":" + addr
	}
	return server.Start(ctx, e, addr, log)
}

// AMQP_URLがあればRabbitMQ、無ければログに出すだけ
func newNotifier(cfg config.Config, log *slog.Logger) (usecase.Notifier, func(), error) {
	if cfg.AMQPURL == "" {
		log.Info("AMQP_URL is empty, order notifications go to log")
		return notify.NewLogNotifier(log), func() {}, nil
	}

	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect amqp: %w", err)
	}
	n, err := notify.NewAMQPNotifier(conn, log)
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return n, func() {
		_ = n.Close()
		_ = conn.Close()
	}, nil
}
