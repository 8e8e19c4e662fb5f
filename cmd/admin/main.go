package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"pairgo/backend/internal/report"
	"pairgo/backend/internal/storage"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"pairgo/backend/internal/config"
)

// Small operator CLI for the moderation backlog. It talks to the same
// database and Redis as the service, so a processed report applies its
// reputation penalty and ban flag immediately.

func usage() {
	fmt.Fprintln(os.Stderr, `usage: admin <command> [args]

commands:
  list-reports                  show open reports, oldest first
  process-report <report-id>    re-evaluate the reported user's ban and mark the report processed
  close-stale-rooms <hours>     close active rooms idle longer than <hours>`)
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	s := storage.NewStorageService(db, rdb)
	reports := report.NewService(s)

	switch os.Args[1] {
	case "list-reports":
		listReports(s)
	case "process-report":
		if len(os.Args) != 3 {
			usage()
		}
		processReport(s, reports, os.Args[2])
	case "close-stale-rooms":
		if len(os.Args) != 3 {
			usage()
		}
		var hours int
		if _, err := fmt.Sscanf(os.Args[2], "%d", &hours); err != nil || hours <= 0 {
			usage()
		}
		closeStaleRooms(s, time.Duration(hours)*time.Hour)
	default:
		usage()
	}
}

func listReports(s storage.Storage) {
	open, err := s.ListOpenReports()
	if err != nil {
		log.Fatalf("Failed to list reports: %v", err)
	}
	if len(open) == 0 {
		fmt.Println("no open reports")
		return
	}
	for _, r := range open {
		fmt.Printf("%s  %-8s  reporter=%s  reported=%s  room=%s  %s\n",
			r.ReportID, r.Severity, r.ReporterID, r.ReportedUserID, r.RoomID, r.Reason)
	}
}

func processReport(s storage.Storage, reports *report.Service, reportID string) {
	open, err := s.ListOpenReports()
	if err != nil {
		log.Fatalf("Failed to list reports: %v", err)
	}
	for _, r := range open {
		if r.ReportID != reportID {
			continue
		}
		// The reputation penalty was applied when the report came in;
		// processing re-checks the ban and closes the backlog entry.
		if err := reports.CheckForBan(r.ReportedUserID); err != nil {
			log.Fatalf("Failed to re-evaluate ban: %v", err)
		}
		if err := s.MarkReportProcessed(reportID); err != nil {
			log.Fatalf("Failed to mark processed: %v", err)
		}
		fmt.Printf("report %s processed\n", reportID)
		return
	}
	log.Fatalf("no open report with id %s", reportID)
}

func closeStaleRooms(s storage.Storage, maxAge time.Duration) {
	rooms, err := s.GetActiveRooms()
	if err != nil {
		log.Fatalf("Failed to list rooms: %v", err)
	}

	cutoff := time.Now().Add(-maxAge)
	closed := 0
	for _, room := range rooms {
		if room.StartedAt.After(cutoff) {
			continue
		}
		if err := s.CloseRoom(room.RoomID); err != nil {
			log.Printf("Failed to close room %s: %v", room.RoomID, err)
			continue
		}
		closed++
	}
	fmt.Printf("closed %d stale rooms\n", closed)
}
