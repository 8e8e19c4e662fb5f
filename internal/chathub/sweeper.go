package chathub

import (
	"log"
	"time"

	"pairgo/backend/internal/config"
	"pairgo/backend/internal/models"
	"pairgo/backend/internal/storage"
)

// SweeperService evicts expired messages on a fixed interval. The sweep is
// the sole eviction authority: client-side timers are a UI optimism layer
// and reconcile against server truth on reconnect.
type SweeperService struct {
	Hub     *ManagerService
	Storage storage.Storage

	Interval time.Duration
	stop     chan struct{}
}

func NewSweeperService(hub *ManagerService, s storage.Storage) *SweeperService {
	return &SweeperService{
		Hub:      hub,
		Storage:  s,
		Interval: config.SweepInterval,
		stop:     make(chan struct{}),
	}
}

func (w *SweeperService) Run() {
	log.Println("Sweeper Service started.")

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.SweepOnce()
		case <-w.stop:
			return
		}
	}
}

func (w *SweeperService) Stop() {
	close(w.stop)
}

// SweepOnce runs one pass over every active room: messages whose age
// reached the room's disappearing duration are deleted, and connected
// occupants are told how many so they can prune without a full reload.
func (w *SweeperService) SweepOnce() {
	rooms, err := w.Storage.GetActiveRooms()
	if err != nil {
		log.Printf("ERROR: sweep could not list active rooms: %v", err)
		return
	}

	now := time.Now()
	for i := range rooms {
		room := rooms[i]
		if room.DisappearAfterSec <= 0 {
			continue
		}

		cutoff := now.Add(-room.DisappearAfter())
		count, err := w.Storage.DeleteExpiredMessages(room.RoomID, cutoff)
		if err != nil || count == 0 {
			continue
		}

		log.Printf("swept %d messages from room %s", count, room.RoomID)
		for _, userID := range w.Hub.Sessions.Occupants(room.RoomID) {
			w.Hub.SendToUser(userID, models.ChatMessage{
				Type:      models.EventMessagesSwept,
				RoomID:    room.RoomID,
				Count:     count,
				Content:   w.Hub.systemText(userID, "messages_swept"),
				CreatedAt: timeNow(),
			})
		}
	}
}
