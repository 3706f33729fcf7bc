// Package testdb поднимает PostgreSQL и MongoDB в контейнерах для интеграционных тестов хранилища.
package testdb

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SetupPostgres создает тестовую БД с помощью testcontainers и накатывает схему из migrations/
func SetupPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	// Находим путь к миграциям
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(filename)))
	migrationsPath := filepath.Join(projectRoot, "migrations")

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		postgres.WithInitScripts(filepath.Join(migrationsPath, "001_create_tasks.up.sql")),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Errorf("Failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}
	return pool
}

// TruncatePostgres очищает все таблицы
func TruncatePostgres(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(context.Background(), "TRUNCATE tasks, users RESTART IDENTITY CASCADE"); err != nil {
		t.Fatalf("Failed to truncate tables: %v", err)
	}
}

// SeedPostgresUser добавляет пользователя, чтобы выборки задач подтянули его проекцию
func SeedPostgresUser(t *testing.T, pool *pgxpool.Pool, id, name, username string) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		"INSERT INTO users (id, name, username) VALUES ($1, $2, $3)", uuid.MustParse(id), name, username)
	if err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
}

// SetupMongo поднимает MongoDB и возвращает клиента
func SetupMongo(t *testing.T) *mongo.Client {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	if err != nil {
		t.Fatalf("Failed to start mongo container: %v", err)
	}
	t.Cleanup(func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Errorf("Failed to terminate container: %v", err)
		}
	})

	uri, err := mongoContainer.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("Failed to connect to mongo: %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(ctx) })

	if err := client.Ping(ctx, nil); err != nil {
		t.Fatalf("Failed to ping mongo: %v", err)
	}
	return client
}

// SeedMongoUser кладет пользователя в коллекцию users
func SeedMongoUser(t *testing.T, db *mongo.Database, id primitive.ObjectID, name, username string) {
	t.Helper()
	_, err := db.Collection("users").InsertOne(context.Background(), bson.M{
		"_id": id, "name": name, "username": username, "password": "hash",
	})
	if err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
}
