package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"pairgo/backend/internal/api/handler"
	"pairgo/backend/internal/chathub"
	"pairgo/backend/internal/config"
	"pairgo/backend/internal/localization"
	"pairgo/backend/internal/models"
	"pairgo/backend/internal/report"
	"pairgo/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDependencies(cfg *config.Config) (*gorm.DB, *redis.Client) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})

	ctx := context.Background()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.ChatRoom{},
		&models.ChatHistory{},
		&models.BlockRelation{},
		&models.Membership{},
		&models.Reaction{},
		&models.Notification{},
		&models.FriendRequest{},
		&models.Report{},
	)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database and Redis connections established, migrations complete.")
	return db, rdb
}

func main() {
	log.Println("Starting PairGo Backend...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	db, rdb := setupDependencies(cfg)
	s := storage.NewStorageService(db, rdb)

	loc := localization.NewLocalizer()

	hub := chathub.NewManagerService(s, loc)
	sessions := chathub.NewSessionService(hub, s)
	matcher := chathub.NewMatcherService(hub, s)
	chathub.NewRelayService(hub, s)
	chathub.NewBlockService(hub, s)
	presence := chathub.NewPresenceService(hub, s)
	chathub.NewNotifierService(hub, s, presence)
	sweeper := chathub.NewSweeperService(hub, s)
	hub.Reports = report.NewService(s)

	// Active pair sessions outlive a process restart; pick them back up
	// before accepting connections so grace timers work from the start.
	sessions.RecoverActiveSessions()

	hub.StartPubSubListener(s.SubscribeRooms())

	go hub.Run()
	go matcher.Run()
	go sweeper.Run()

	r := gin.Default()
	h := handler.NewHandler(hub, s, cfg.JWTSecret)

	r.GET("/anonid", h.GetAnonID)
	r.GET("/ws", h.ServeWebSocket)
	r.GET("/rooms/:roomId/history", h.GetRoomHistory)
	r.GET("/notifications", h.ListNotifications)
	r.POST("/notifications/read", h.MarkNotificationsRead)
	r.DELETE("/notifications", h.ClearNotifications)

	server := &http.Server{
		Addr:           cfg.ListenAddr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Fatal(server.ListenAndServe())
}
