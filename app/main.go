package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Lightthouse/stirki/internal/controllers"
	tgcontrollers "github.com/Lightthouse/stirki/internal/controllers/telegram"
	"github.com/Lightthouse/stirki/internal/conversation"
	"github.com/Lightthouse/stirki/internal/integrations"
	"github.com/Lightthouse/stirki/internal/integrations/kaiten"
	mockboard "github.com/Lightthouse/stirki/internal/integrations/mock"
	"github.com/Lightthouse/stirki/internal/kanban"
	"github.com/Lightthouse/stirki/internal/listeners"
	"github.com/Lightthouse/stirki/internal/repositories"
	"github.com/Lightthouse/stirki/internal/routes"
	"github.com/Lightthouse/stirki/internal/services"
	"github.com/Lightthouse/stirki/pkg/config"
	"github.com/Lightthouse/stirki/pkg/customvalidator"
	"github.com/Lightthouse/stirki/pkg/database/postgresql"
	apperrors "github.com/Lightthouse/stirki/pkg/errors"
	"github.com/Lightthouse/stirki/pkg/eventbus"
	applogger "github.com/Lightthouse/stirki/pkg/logger"
	"github.com/Lightthouse/stirki/pkg/middleware"
	"github.com/Lightthouse/stirki/pkg/service"
	"github.com/Lightthouse/stirki/pkg/telegram"
	"github.com/Lightthouse/stirki/pkg/utils"
	"github.com/Lightthouse/stirki/seeders"
)

const shutdownTimeout = 30 * time.Second

func main() {
	managerToken := flag.String("manager-token", "", "выпустить JWT для менеджера с указанным именем и выйти")
	flag.Parse()

	cfg := config.New()
	logger := applogger.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	jwtSvc := service.NewJWTService(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL)
	if *managerToken != "" {
		token, err := jwtSvc.GenerateToken(*managerToken)
		if err != nil {
			logger.Fatal("Не удалось выпустить токен", zap.Error(err))
		}
		fmt.Println(token)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, jwtSvc, logger); err != nil {
		logger.Fatal("Сервис остановлен с ошибкой", zap.Error(err))
	}
	logger.Info("Сервис остановлен")
}

func run(ctx context.Context, cfg *config.Config, jwtSvc service.JWTService, logger *zap.Logger) error {
	// 1. БАЗА: миграции, пул, справочники
	if err := postgresql.Migrate(cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("миграции: %w", err)
	}
	dbConn, err := postgresql.ConnectDB(ctx, cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	if err := seeders.SeedDictionaries(ctx, dbConn, logger.Named("seeders")); err != nil {
		return fmt.Errorf("справочники: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("не удалось подключиться к Redis %s: %w", cfg.Redis.Address, err)
	}

	// 2. РЕПОЗИТОРИИ
	txManager := repositories.NewTxManager(dbConn)
	clientRepo := repositories.NewClientRepository(dbConn)
	streetRepo := repositories.NewStreetRepository(dbConn)
	orderRepo := repositories.NewOrderRepository(dbConn)
	historyRepo := repositories.NewOrderHistoryRepository(dbConn)
	cacheRepo := repositories.NewRedisCacheRepository(redisClient)

	// 3. ДОСКА И СИНХРОНИЗАЦИЯ
	board, err := activeBoard(cfg.Kaiten, logger)
	if err != nil {
		return err
	}
	syncer, err := kanban.NewSyncer(board, orderRepo, kanban.ColumnsFromConfig(cfg.Kaiten.Columns), kanban.Options{
		QueueSize:  cfg.Sync.QueueSize,
		Workers:    cfg.Sync.Workers,
		JobTimeout: cfg.Sync.JobTimeout,
	}, logger)
	if err != nil {
		return fmt.Errorf("колонки доски: %w", err)
	}

	// 4. СЕРВИСЫ И СОБЫТИЯ
	bus := eventbus.New(logger)
	tgService := telegram.NewService(cfg.Telegram.BotToken, cfg.Telegram.Debug, logger)

	orderService := services.NewOrderService(txManager, orderRepo, historyRepo, clientRepo, syncer, bus, logger)
	clientService := services.NewClientService(clientRepo, streetRepo, logger)

	listeners.NewNotificationListener(tgService, logger).Register(bus)
	var kafkaWriter interface{ Close() error }
	if len(cfg.Kafka.Brokers) > 0 {
		w := listeners.NewKafkaWriter(cfg.Kafka)
		kafkaWriter = w
		listeners.NewKafkaListener(w, logger).Register(bus)
	} else {
		logger.Info("KAFKA_BROKERS не задан, события в kafka не отправляются")
	}

	// 5. ДИАЛОГ
	v, err := customvalidator.New()
	if err != nil {
		return fmt.Errorf("регистрация правил валидации: %w", err)
	}
	engine := conversation.NewEngine(
		conversation.NewCacheSessionStore(cacheRepo, cfg.Session.TTL, logger),
		clientService,
		orderService,
		tgcontrollers.NewMessenger(tgService),
		v,
		logger,
	)
	dispatcher := conversation.NewDispatcher(engine, conversation.DispatcherOptions{
		MaxConcurrentSessions: cfg.Telegram.MaxConcurrentSessions,
		HandleTimeout:         cfg.Telegram.HandleTimeout,
	}, logger)

	// 6. HTTP
	e := newEcho(logger)
	e.Validator = utils.NewValidator(v)

	tgController := tgcontrollers.NewTelegramController(dispatcher, tgService, cacheRepo, cfg.Telegram, logger)
	routes.InitRouter(e, routes.Controllers{
		Order:    controllers.NewOrderController(orderService, logger.Named("order_api")),
		Telegram: tgController,
	}, middleware.NewAuthMiddleware(jwtSvc, logger.Named("auth")), &routes.Loggers{
		Main:  logger,
		Auth:  logger.Named("auth"),
		Order: logger.Named("order_api"),
	})

	// 7. ЗАПУСК
	syncer.Start()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("🚀 Сервер запущен", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http сервер: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		tgController.StartCleanup(gctx)
		return nil
	})
	g.Go(func() error {
		if err := tgController.RegisterWebhook(gctx); err != nil {
			logger.Error("Не удалось зарегистрировать Telegram Webhook", zap.Error(err))
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		// Порядок важен: сначала перестаём принимать апдейты, потом дожидаемся
		// диалогов, которые ещё могут поставить задания доске, и только потом
		// закрываем очередь синхронизации и шину.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Ошибка остановки HTTP сервера", zap.Error(err))
		}
		dispatcher.Stop()
		syncer.Stop()
		bus.Wait()
		if kafkaWriter != nil {
			if err := kafkaWriter.Close(); err != nil {
				logger.Warn("Ошибка закрытия kafka writer", zap.Error(err))
			}
		}
		return nil
	})

	return g.Wait()
}

func activeBoard(cfg config.KaitenConfig, logger *zap.Logger) (kanban.Board, error) {
	registry := integrations.NewRegistry()
	if err := registry.Register(mockboard.NewBoard()); err != nil {
		return nil, err
	}
	active := "mock"
	if cfg.Enabled() {
		if err := registry.Register(kaiten.New(cfg.Domain, cfg.APIKey, cfg.Board, cfg.Timeout, logger)); err != nil {
			return nil, err
		}
		active = "kaiten"
	} else {
		logger.Warn("KAITEN_API_KEY или KAITEN_DOMAIN не заданы, карточки создаются на mock-доске")
	}
	if err := registry.SetActive(active); err != nil {
		return nil, err
	}
	provider, err := registry.GetActive()
	if err != nil {
		return nil, err
	}
	return provider, nil
}

func newEcho(logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.RecoverWithConfig(echomw.RecoverConfig{
		DisableStackAll: true,
		StackSize:       1 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("!!! ОБНАРУЖЕНА ПАНИКА (PANIC) !!!",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err),
				zap.String("stack", string(stack)),
			)
			if !c.Response().Committed {
				httpErr := apperrors.NewHttpError(http.StatusInternalServerError, "Внутренняя ошибка сервера", err, nil)
				_ = utils.ErrorResponse(c, httpErr, logger)
			}
			return err
		},
	}))
	return e
}
