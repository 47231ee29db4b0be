package main

import (
	"context"
	"math"
	"time"

	"campusnet/config"
	"campusnet/graph"
	"campusnet/notifications"
	"campusnet/realtime"
	"campusnet/server"
	"campusnet/storage"
	"campusnet/tasks"
	"campusnet/utils"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func runBackgroundTasks(storageManager *storage.Manager, cfg config.AppConfig) {
	// Follow edge symmetrize sweep
	go utils.Recoverer(math.MaxInt, 1, func() {
		tasks.RunEdgeRepair(
			storageManager,
			time.Duration(cfg.EdgeRepairIntervalMinutes)*time.Minute,
		)
	})
}

func main() {
	log.SetLevel(log.WarnLevel)

	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal("SECRET_KEY is required")
	}

	ctx := context.Background()
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		panic(err)
	}
	dbConnection := mongoClient.Database(cfg.MongoDatabase)

	redisConnection := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       0, // use default DB
	})

	storageManager := storage.NewManager(dbConnection, redisConnection)
	if err := storageManager.EnsureIndexes(ctx); err != nil {
		log.Errorf("Error ensuring indexes: %v", err)
	}

	registry := realtime.NewRegistry()
	hub := realtime.NewHub(registry)
	sink := notifications.NewSink(storageManager, storageManager, registry)
	coordinator := graph.NewCoordinator(
		storageManager,
		storageManager,
		sink,
		graph.Config{NotifyOnAccept: cfg.NotifyOnAccept},
	)

	s := server.NewServer(storageManager, coordinator, sink, registry, hub, cfg.JWTSecret)

	runBackgroundTasks(storageManager, cfg)

	s.Run(cfg.HTTPAddr)
}
