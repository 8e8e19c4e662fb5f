package chathub

import (
	"log"
	"sort"
	"sync"
	"time"

	"pairgo/backend/internal/config"
	"pairgo/backend/internal/models"
	"pairgo/backend/internal/storage"
)

// MatcherService is the matchmaking queue manager. It admits searching
// users, applies preference filters, pairs the oldest compatible entries
// and times out the rest. The in-memory queue is the authority; the Redis
// set is a mirror kept for observability and recovery.
type MatcherService struct {
	Hub     *ManagerService
	Storage storage.Storage

	mu    sync.Mutex
	queue map[string]*models.SearchRequest

	// Tuning, overridable in tests.
	FallbackAfter time.Duration
	MaxWait       time.Duration

	stop chan struct{}
}

// NewMatcherService creates the matcher and wires it into the hub.
func NewMatcherService(hub *ManagerService, s storage.Storage) *MatcherService {
	m := &MatcherService{
		Hub:           hub,
		Storage:       s,
		queue:         make(map[string]*models.SearchRequest),
		FallbackAfter: config.FallbackAfter,
		MaxWait:       config.QueueMaxWait,
		stop:          make(chan struct{}),
	}
	hub.Matcher = m
	return m
}

// Run drives the periodic pairing tick.
func (m *MatcherService) Run() {
	log.Println("Matcher Service started.")

	ticker := time.NewTicker(config.QueueTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Tick()
		case <-m.stop:
			return
		}
	}
}

func (m *MatcherService) Stop() {
	close(m.stop)
}

// Enqueue admits a user into the queue and immediately attempts a pairing.
// A duplicate enqueue replaces the earlier entry. A gendered filter without
// the premium entitlement is dropped and the user is enqueued unfiltered,
// with an explicit error event explaining why.
func (m *MatcherService) Enqueue(userID string, filter models.SearchFilter) {
	banned, err := m.Storage.IsUserBanned(userID)
	if err != nil {
		log.Printf("ban check for %s: %v", userID, err)
	}
	if banned {
		m.Hub.SendToUser(userID, models.ChatMessage{
			Type:   models.EventQueueRejected,
			Reason: models.ReasonBanned,
		})
		return
	}

	user, err := m.Storage.EnsureUser(userID)
	if err != nil {
		m.Hub.SendToUser(userID, models.ChatMessage{
			Type:   models.EventQueueRejected,
			Reason: models.ReasonUnavailable,
		})
		return
	}

	if filter.Active() && !user.Premium {
		m.Hub.SendToUser(userID, models.ChatMessage{
			Type:   models.EventError,
			Reason: models.ReasonEntitlementRequired,
		})
		filter = models.SearchFilter{}
	}

	req := &models.SearchRequest{
		UserID:     userID,
		Gender:     user.Gender,
		Filter:     filter,
		EnqueuedAt: time.Now(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.queue[userID] = req
	if err := m.Storage.AddUserToSearchQueue(userID); err != nil {
		log.Printf("queue mirror add for %s: %v", userID, err)
	}
	log.Printf("user %s joined the search queue (filtered=%v)", userID, filter.Active())

	m.tryMatchLocked(req)
}

// Dequeue removes the user's entry. It is called synchronously from the
// connection-teardown path, which also preempts an in-flight pairing: the
// commit happens under the same lock this takes.
func (m *MatcherService) Dequeue(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(userID)
}

// Waiting reports whether a user currently holds a queue entry.
func (m *MatcherService) Waiting(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.queue[userID]
	return ok
}

// Tick is one pass of the background pairing loop: promote entries past
// the fallback threshold, pair whatever became compatible, then expire
// entries that waited out the maximum with no partner at all.
func (m *MatcherService) Tick() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()

	for _, req := range m.queue {
		if !req.Promoted && req.Filter.FallbackToRandom &&
			now.Sub(req.EnqueuedAt) >= m.FallbackAfter {
			req.Promoted = true
			log.Printf("queue entry %s promoted to unfiltered search", req.UserID)
		}
	}

	// Oldest first, for fairness and bounded wait.
	for _, req := range m.sortedLocked() {
		if _, ok := m.queue[req.UserID]; !ok {
			continue // already paired this pass
		}
		m.tryMatchLocked(req)
	}

	for _, req := range m.sortedLocked() {
		if now.Sub(req.EnqueuedAt) >= m.MaxWait {
			m.removeLocked(req.UserID)
			m.Hub.SendToUser(req.UserID, models.ChatMessage{
				Type: models.EventMatchTimeout,
			})
			log.Printf("queue entry %s timed out", req.UserID)
		}
	}
}

// sortedLocked returns the entries ordered by enqueue time.
func (m *MatcherService) sortedLocked() []*models.SearchRequest {
	entries := make([]*models.SearchRequest, 0, len(m.queue))
	for _, req := range m.queue {
		entries = append(entries, req)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].EnqueuedAt.Before(entries[j].EnqueuedAt)
	})
	return entries
}

// tryMatchLocked pairs req with the oldest compatible waiting entry. Room
// creation and the removal of both entries commit inside the caller's
// critical section, so no half-paired state is ever observable.
func (m *MatcherService) tryMatchLocked(req *models.SearchRequest) {
	var candidate *models.SearchRequest
	for _, target := range m.sortedLocked() {
		if target.UserID == req.UserID {
			continue
		}
		if compatible(req, target) {
			candidate = target
			break
		}
	}
	if candidate == nil {
		return
	}

	room, err := m.Hub.Sessions.CreatePair(models.RoomKindRandom, req.UserID, candidate.UserID)
	if err != nil {
		// Leave both entries queued; the next tick retries.
		log.Printf("Error creating room for %s and %s: %v", req.UserID, candidate.UserID, err)
		return
	}

	m.removeLocked(req.UserID)
	m.removeLocked(candidate.UserID)

	if c := m.Hub.ClientByID(req.UserID); c != nil {
		c.SetRoomID(room.RoomID)
	}
	if c := m.Hub.ClientByID(candidate.UserID); c != nil {
		c.SetRoomID(room.RoomID)
	}

	m.Hub.SendToUser(req.UserID, models.ChatMessage{
		Type:     models.EventMatched,
		RoomID:   room.RoomID,
		TargetID: candidate.UserID,
		Content:  m.Hub.systemText(req.UserID, "match_found"),
	})
	m.Hub.SendToUser(candidate.UserID, models.ChatMessage{
		Type:     models.EventMatched,
		RoomID:   room.RoomID,
		TargetID: req.UserID,
		Content:  m.Hub.systemText(candidate.UserID, "match_found"),
	})

	log.Printf("Match found: %s and %s in room %s", req.UserID, candidate.UserID, room.RoomID)
}

func (m *MatcherService) removeLocked(userID string) {
	if _, ok := m.queue[userID]; !ok {
		return
	}
	delete(m.queue, userID)
	if err := m.Storage.RemoveUserFromSearchQueue(userID); err != nil {
		log.Printf("queue mirror remove for %s: %v", userID, err)
	}
}

// compatible is bidirectional filter satisfaction: each side's filter, if
// still in force, must accept the other's gender. A promoted entry accepts
// anyone.
func compatible(a, b *models.SearchRequest) bool {
	if !a.Promoted && !a.Filter.Accepts(b.Gender) {
		return false
	}
	if !b.Promoted && !b.Filter.Accepts(a.Gender) {
		return false
	}
	return true
}
