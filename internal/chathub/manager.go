package chathub

import (
	"log"
	"sync"

	"pairgo/backend/internal/localization"
	"pairgo/backend/internal/models"
	"pairgo/backend/internal/report"
	"pairgo/backend/internal/storage"
)

// ManagerService is the hub: it owns the registry of live connections and
// routes every inbound event to the service that handles it. All session
// state mutations go through SessionService; the hub itself only touches
// the client registry.
type ManagerService struct {
	mu      sync.RWMutex
	Clients map[string]Client

	IncomingCh   chan models.ChatMessage
	RegisterCh   chan Client
	UnregisterCh chan Client
	PubSubCh     chan models.ChatMessage

	Storage   storage.Storage
	Localizer *localization.Localizer

	// Wired by the service constructors.
	Matcher  *MatcherService
	Sessions *SessionService
	Relay    *RelayService
	Blocks   *BlockService
	Notifier *NotifierService
	Presence *PresenceService
	Reports  *report.Service

	stop chan struct{}
}

func NewManagerService(s storage.Storage, loc *localization.Localizer) *ManagerService {
	return &ManagerService{
		Clients:      make(map[string]Client),
		IncomingCh:   make(chan models.ChatMessage, 64),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		PubSubCh:     make(chan models.ChatMessage, 64),
		Storage:      s,
		Localizer:    loc,
		stop:         make(chan struct{}),
	}
}

// Run is the hub's main loop. Inbound events are handled one at a time
// here, which keeps per-connection ordering without extra locking; the
// services it calls into guard their own state.
func (m *ManagerService) Run() {
	log.Println("Manager Service started.")

	for {
		select {
		case client := <-m.RegisterCh:
			m.registerClient(client)

		case client := <-m.UnregisterCh:
			m.unregisterClient(client)

		case msg := <-m.IncomingCh:
			m.handleEvent(msg)

		case msg := <-m.PubSubCh:
			// A relay on this or another node published into the room's
			// channel; deliver to everyone attached here.
			m.deliverToRoom(msg)

		case <-m.stop:
			return
		}
	}
}

func (m *ManagerService) Stop() {
	close(m.stop)
}

func (m *ManagerService) registerClient(client Client) {
	userID := client.GetUserID()

	m.mu.Lock()
	if old, ok := m.Clients[userID]; ok && old != client {
		// A reconnect raced the old connection's teardown; latest wins.
		old.Close()
	}
	m.Clients[userID] = client
	m.mu.Unlock()

	log.Printf("client %s connected", userID)

	// Reattach the client to its active pair session, if one survived the
	// disconnect. This is what cancels the partner-left grace timer.
	if m.Sessions != nil {
		if roomID := m.Sessions.ReattachUser(userID); roomID != "" {
			client.SetRoomID(roomID)
		}
	}
}

func (m *ManagerService) unregisterClient(client Client) {
	userID := client.GetUserID()

	m.mu.Lock()
	current, ok := m.Clients[userID]
	if !ok || current != client {
		// Already replaced by a newer connection; nothing to tear down.
		m.mu.Unlock()
		return
	}
	delete(m.Clients, userID)
	m.mu.Unlock()

	client.Close()
	log.Printf("client %s disconnected", userID)

	// Queue removal must be synchronous with teardown so the matcher never
	// pairs a vanished user.
	if m.Matcher != nil {
		m.Matcher.Dequeue(userID)
	}
	if m.Sessions != nil {
		m.Sessions.HandleDisconnect(userID)
	}
}

// ClientByID returns the live connection for a user, or nil.
func (m *ManagerService) ClientByID(userID string) Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Clients[userID]
}

// SendToUser queues an event on a user's live connection. A full send
// buffer drops the event rather than blocking the hub; the durable store
// remains the source of truth for anything that matters.
func (m *ManagerService) SendToUser(userID string, msg models.ChatMessage) bool {
	client := m.ClientByID(userID)
	if client == nil {
		return false
	}

	select {
	case client.GetSendChannel() <- msg:
		return true
	default:
		log.Printf("send buffer full for client %s, dropping %s", userID, msg.Type)
		return false
	}
}

// deliverToRoom fans an event out to every occupant attached on this node.
func (m *ManagerService) deliverToRoom(msg models.ChatMessage) {
	if m.Sessions == nil {
		return
	}
	for _, userID := range m.Sessions.Occupants(msg.RoomID) {
		m.SendToUser(userID, msg)
	}
}

// systemText resolves a server-authored string in the user's language.
func (m *ManagerService) systemText(userID, key string) string {
	lang := ""
	if c := m.ClientByID(userID); c != nil {
		lang = c.GetLanguage()
	}
	return m.Localizer.Get(lang, key)
}
