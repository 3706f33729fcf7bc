package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/user-tasks-api/internal/auth"
	"github.com/BuzzLyutic/user-tasks-api/internal/config"
	"github.com/BuzzLyutic/user-tasks-api/internal/handler"
	applog "github.com/BuzzLyutic/user-tasks-api/internal/logger"
	"github.com/BuzzLyutic/user-tasks-api/internal/repo"
	"github.com/BuzzLyutic/user-tasks-api/internal/router"
	"github.com/BuzzLyutic/user-tasks-api/internal/service"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Подключаем логгер
	logger, err := applog.New(applog.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	// Подключаем хранилище
	store, err := openStore(context.Background(), cfg)
	if err != nil {
		logger.Fatal("Failed to connect to the store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	logger.Info("Successfully connected to the store", zap.String("driver", cfg.StoreDriver))

	verifier, err := auth.NewVerifier(cfg.JWTSecret)
	if err != nil {
		logger.Fatal("Invalid auth configuration", zap.Error(err))
	}

	taskHandler := handler.NewTaskHandler(service.NewTaskService(store), logger)

	srv := http.Server{ // Создаем сервер
		Addr: ":" + cfg.Port,
		Handler: router.New(router.Deps{
			Store:    store,
			Tasks:    taskHandler,
			Verifier: verifier,
			Logger:   logger,
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() { // Запуск сервера и обработка ошибок
		logger.Info("Server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Shutdown error", zap.Error(err))
	}
	if err := store.Close(ctx); err != nil {
		logger.Error("Failed to close the store", zap.Error(err))
	}
	logger.Info("Server stopped successfully!")
}

// openStore открывает соединение с выбранным хранилищем и проверяет его пингом
func openStore(ctx context.Context, cfg config.Config) (repo.TaskRepository, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL) // Создаем новое соединение к БД
		if err != nil {
			return nil, err
		}
		if err := pool.Ping(ctx); err != nil { // Пытаемся пингануть БД
			pool.Close()
			return nil, err
		}
		return repo.NewTaskRepo(pool), nil

	case config.DriverMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, err
		}
		store := repo.NewMongoTaskRepo(client, cfg.MongoDatabase)
		if err := store.Ping(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		return store, nil

	case config.DriverMemory:
		return repo.NewMemoryTaskRepo(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
