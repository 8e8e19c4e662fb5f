package chathub

import (
	"errors"
	"log"
	"sync"
	"time"

	"pairgo/backend/internal/config"
	"pairgo/backend/internal/models"
	"pairgo/backend/internal/storage"

	"github.com/google/uuid"
)

// session is the in-memory state of one active room: the durable record,
// the set of currently-attached users (delivery routing, distinct from
// group Membership), and the grace timers of recently-disconnected
// participants.
type session struct {
	room      *models.ChatRoom
	occupants map[string]bool
	grace     map[string]*time.Timer

	// sendMu serializes assign-timestamp-then-fan-out in the relay so all
	// occupants observe messages in the same order.
	sendMu sync.Mutex
}

// SessionService owns the chat-session lifecycle: creation, occupancy,
// termination. It is the only component that mutates session state; the
// relay, sweeper and block services read through it.
type SessionService struct {
	Hub     *ManagerService
	Storage storage.Storage

	mu       sync.RWMutex
	sessions map[string]*session

	// Grace is how long a disconnected pair participant may reconnect
	// before the peer is told partner_left. Overridable in tests.
	Grace time.Duration
}

// NewSessionService creates the session registry and wires it into the hub.
func NewSessionService(hub *ManagerService, s storage.Storage) *SessionService {
	svc := &SessionService{
		Hub:      hub,
		Storage:  s,
		sessions: make(map[string]*session),
		Grace:    config.ReconnectGrace,
	}
	hub.Sessions = svc
	return svc
}

// RecoverActiveSessions reloads the registry from the durable store after a
// restart, so surviving rooms accept reattaching clients.
func (s *SessionService) RecoverActiveSessions() {
	log.Println("Starting active session recovery...")

	rooms, err := s.Storage.GetActiveRooms()
	if err != nil {
		log.Printf("ERROR: Failed to retrieve active rooms from storage: %v", err)
		return
	}

	s.mu.Lock()
	for i := range rooms {
		room := rooms[i]
		s.sessions[room.RoomID] = newSession(&room)
	}
	s.mu.Unlock()

	log.Printf("Recovery complete. Restored %d active sessions.", len(rooms))
}

func newSession(room *models.ChatRoom) *session {
	return &session{
		room:      room,
		occupants: make(map[string]bool),
		grace:     make(map[string]*time.Timer),
	}
}

// --- creation ---

// CreatePair allocates a pair room, persists it and attaches both
// participants. Used by the matcher, where both users are known to be
// connected.
func (s *SessionService) CreatePair(kind, user1, user2 string) (*models.ChatRoom, error) {
	room, err := s.createPairRoom(kind, user1, user2)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	sess := s.sessions[room.RoomID]
	sess.occupants[user1] = true
	sess.occupants[user2] = true
	s.mu.Unlock()

	return room, nil
}

func (s *SessionService) createPairRoom(kind, user1, user2 string) (*models.ChatRoom, error) {
	disappear := config.PairDisappearAfter
	room := &models.ChatRoom{
		RoomID:            uuid.New().String(),
		Kind:              kind,
		User1ID:           user1,
		User2ID:           user2,
		IsActive:          true,
		DisappearAfterSec: int64(disappear / time.Second),
		StartedAt:         time.Now(),
	}

	if err := s.Storage.SaveRoom(room); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[room.RoomID] = newSession(room)
	s.mu.Unlock()

	return room, nil
}

// CreateGroupFor creates a group room owned by userID and reports the new
// room id back to them. Group rooms start Active immediately.
func (s *SessionService) CreateGroupFor(userID, name string) {
	room, err := s.CreateGroup(userID, name)
	if err != nil {
		reason := models.ReasonInvalidPayload
		if !errors.Is(err, errInvalidGroupName) {
			reason = models.ReasonUnavailable
		}
		s.sendError(userID, reason)
		return
	}

	s.Hub.SendToUser(userID, models.ChatMessage{
		Type:    models.EventGroupCreated,
		RoomID:  room.RoomID,
		Content: room.Name,
	})
}

var errInvalidGroupName = errors.New("invalid group name")

// CreateGroup allocates a group room with userID as owner.
func (s *SessionService) CreateGroup(userID, name string) (*models.ChatRoom, error) {
	if name == "" {
		return nil, errInvalidGroupName
	}

	room := &models.ChatRoom{
		RoomID:            uuid.New().String(),
		Kind:              models.RoomKindGroup,
		OwnerID:           userID,
		Name:              name,
		IsActive:          true,
		DisappearAfterSec: int64(config.GroupDisappearAfter / time.Second),
		StartedAt:         time.Now(),
	}
	if err := s.Storage.SaveRoom(room); err != nil {
		return nil, err
	}

	if err := s.Storage.SaveMembership(&models.Membership{
		RoomID:   room.RoomID,
		UserID:   userID,
		Role:     models.RoleOwner,
		JoinedAt: time.Now(),
	}); err != nil {
		return nil, err
	}

	s.mu.Lock()
	sess := newSession(room)
	sess.occupants[userID] = true
	s.sessions[room.RoomID] = sess
	s.mu.Unlock()

	log.Printf("group %q created by %s (%s)", name, userID, room.RoomID)
	return room, nil
}

// --- lookups ---

// Room returns the room record of an active session.
func (s *SessionService) Room(roomID string) (*models.ChatRoom, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[roomID]
	if !ok {
		return nil, false
	}
	return sess.room, true
}

// Occupants returns the users currently attached for delivery.
func (s *SessionService) Occupants(roomID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[roomID]
	if !ok {
		return nil
	}
	users := make([]string, 0, len(sess.occupants))
	for u := range sess.occupants {
		users = append(users, u)
	}
	return users
}

// IsOccupant reports whether userID is attached to the room.
func (s *SessionService) IsOccupant(roomID, userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[roomID]
	return ok && sess.occupants[userID]
}

// sessionFor returns the live session, lazily reloading an active room
// from the durable store (e.g. a friend room untouched since restart).
func (s *SessionService) sessionFor(roomID string) *session {
	s.mu.RLock()
	sess, ok := s.sessions[roomID]
	s.mu.RUnlock()
	if ok {
		return sess
	}

	room, err := s.Storage.GetRoomByID(roomID)
	if err != nil || room == nil || !room.IsActive {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[roomID]; ok {
		return existing
	}
	sess = newSession(room)
	s.sessions[roomID] = sess
	return sess
}

// --- occupancy ---

// Attach adds a user to a room's delivery set. Reattach after a reconnect
// cancels the pending grace timer and marks the room's notifications read.
func (s *SessionService) Attach(roomID, userID string) bool {
	sess := s.sessionFor(roomID)
	if sess == nil {
		return false
	}

	s.mu.Lock()
	if t, ok := sess.grace[userID]; ok {
		t.Stop()
		delete(sess.grace, userID)
	}
	sess.occupants[userID] = true
	s.mu.Unlock()

	if err := s.Storage.MarkRoomNotificationsRead(userID, roomID); err != nil {
		log.Printf("mark notifications read for %s in %s: %v", userID, roomID, err)
	}
	return true
}

// Detach removes a user from a room's delivery set without touching the
// session's lifecycle state.
func (s *SessionService) Detach(roomID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[roomID]; ok {
		delete(sess.occupants, userID)
	}
}

// ReattachUser restores a reconnecting user's attachment to their active
// pair room, if any, and returns its id.
func (s *SessionService) ReattachUser(userID string) string {
	roomID, err := s.Storage.GetActiveRoomIDForUser(userID)
	if err != nil || roomID == "" {
		return ""
	}
	if !s.Attach(roomID, userID) {
		return ""
	}
	log.Printf("reattached %s to room %s", userID, roomID)
	return roomID
}

// HandleDisconnect treats an abrupt transport loss as leave, not end. For
// active pair rooms a grace timer is armed; only after it fires without a
// reconnect is the peer told partner_left. The session itself stays Active
// either way.
func (s *SessionService) HandleDisconnect(userID string) {
	type pending struct {
		roomID string
	}
	var graced []pending

	s.mu.Lock()
	for roomID, sess := range s.sessions {
		if !sess.occupants[userID] {
			continue
		}
		delete(sess.occupants, userID)

		if sess.room.IsPair() && sess.room.IsActive {
			graced = append(graced, pending{roomID: roomID})
		}
	}
	for _, p := range graced {
		sess := s.sessions[p.roomID]
		roomID := p.roomID
		if t, ok := sess.grace[userID]; ok {
			t.Stop()
		}
		sess.grace[userID] = time.AfterFunc(s.Grace, func() {
			s.reportPartnerLeft(roomID, userID)
		})
	}
	s.mu.Unlock()
}

// reportPartnerLeft fires when the grace window expires without a
// reconnect. False terminations from transient drops never reach here.
func (s *SessionService) reportPartnerLeft(roomID, userID string) {
	s.mu.Lock()
	sess, ok := s.sessions[roomID]
	if !ok || sess.occupants[userID] || !sess.room.IsActive {
		s.mu.Unlock()
		return
	}
	delete(sess.grace, userID)
	peer := sess.room.OtherParticipant(userID)
	s.mu.Unlock()

	if peer == "" {
		return
	}
	s.Hub.SendToUser(peer, models.ChatMessage{
		Type:     models.EventPartnerLeft,
		RoomID:   roomID,
		TargetID: userID,
		Content:  s.Hub.systemText(peer, "partner_left"),
	})
	log.Printf("grace window expired for %s in room %s", userID, roomID)
}

// --- termination ---

// Skip ends a random-pair session at the initiator's request. Skipping an
// unknown or already-ended session is a no-op: simultaneous skips from
// both sides are expected and must not surface as errors.
func (s *SessionService) Skip(roomID, initiator string) {
	s.mu.Lock()
	sess, ok := s.sessions[roomID]
	if !ok || !sess.room.IsActive || sess.room.Kind != models.RoomKindRandom ||
		!sess.room.HasParticipant(initiator) {
		s.mu.Unlock()
		log.Printf("skip on room %s by %s is a no-op", roomID, initiator)
		return
	}
	peer := sess.room.OtherParticipant(initiator)
	s.terminateLocked(sess)
	s.mu.Unlock()

	s.Hub.SendToUser(peer, models.ChatMessage{
		Type:     models.EventPartnerSkipped,
		RoomID:   roomID,
		Content:  s.Hub.systemText(peer, "partner_skipped"),
		TargetID: initiator,
	})
	// The initiator is immediately eligible to re-enter the queue.
	s.Hub.SendToUser(initiator, models.ChatMessage{
		Type:   models.EventChatEnded,
		RoomID: roomID,
	})

	s.clearClientRoom(initiator, roomID)
	s.clearClientRoom(peer, roomID)
}

// End terminates any kind of session. Pair rooms may be ended by either
// party; group rooms only by their owner. Ending an unknown or ended
// session is a no-op.
func (s *SessionService) End(roomID, initiator string) {
	s.mu.Lock()
	sess, ok := s.sessions[roomID]
	if !ok || !sess.room.IsActive {
		s.mu.Unlock()
		log.Printf("end on room %s by %s is a no-op", roomID, initiator)
		return
	}

	room := sess.room
	if room.IsPair() && !room.HasParticipant(initiator) {
		s.mu.Unlock()
		s.sendError(initiator, models.ReasonForbidden)
		return
	}
	if room.Kind == models.RoomKindGroup && room.OwnerID != initiator {
		s.mu.Unlock()
		s.sendError(initiator, models.ReasonForbidden)
		return
	}

	var recipients []string
	if room.IsPair() {
		recipients = []string{room.User1ID, room.User2ID}
	} else {
		for u := range sess.occupants {
			recipients = append(recipients, u)
		}
	}
	s.terminateLocked(sess)
	s.mu.Unlock()

	for _, userID := range recipients {
		s.Hub.SendToUser(userID, models.ChatMessage{
			Type:    models.EventChatEnded,
			RoomID:  roomID,
			Content: s.Hub.systemText(userID, "chat_ended"),
		})
		s.clearClientRoom(userID, roomID)
	}
}

// terminateLocked moves the session to its terminal state: durable close,
// registry removal, timer cleanup. History stays queryable by reference.
func (s *SessionService) terminateLocked(sess *session) {
	roomID := sess.room.RoomID
	sess.room.IsActive = false
	sess.room.EndedAt = time.Now()

	for _, t := range sess.grace {
		t.Stop()
	}
	delete(s.sessions, roomID)

	if err := s.Storage.CloseRoom(roomID); err != nil {
		log.Printf("ERROR: Failed to close room %s: %v", roomID, err)
	}
}

func (s *SessionService) clearClientRoom(userID, roomID string) {
	if c := s.Hub.ClientByID(userID); c != nil && c.GetRoomID() == roomID {
		c.SetRoomID("")
	}
}

func (s *SessionService) sendError(userID, reason string) {
	s.Hub.SendToUser(userID, models.ChatMessage{
		Type:   models.EventError,
		Reason: reason,
	})
}
