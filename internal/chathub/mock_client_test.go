package chathub

import (
	"sync"

	"pairgo/backend/internal/localization"
	"pairgo/backend/internal/models"
	"pairgo/backend/internal/storage"
)

// mockClient is an in-memory Client; everything the hub sends lands on
// Recv for the test to inspect. The room binding is guarded the same way
// the real client guards it.
type mockClient struct {
	userID   string
	language string
	closed   bool

	mu     sync.RWMutex
	roomID string

	Recv chan models.ChatMessage
}

func newMockClient(userID string) *mockClient {
	return &mockClient{
		userID: userID,
		Recv:   make(chan models.ChatMessage, 32),
	}
}

func (c *mockClient) GetUserID() string { return c.userID }

func (c *mockClient) GetRoomID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomID
}

func (c *mockClient) SetRoomID(id string) {
	c.mu.Lock()
	c.roomID = id
	c.mu.Unlock()
}

func (c *mockClient) GetLanguage() string { return c.language }

func (c *mockClient) GetSendChannel() chan<- models.ChatMessage { return c.Recv }

func (c *mockClient) Run()   {}
func (c *mockClient) Close() { c.closed = true }

// drain returns every event queued so far without blocking.
func (c *mockClient) drain() []models.ChatMessage {
	var out []models.ChatMessage
	for {
		select {
		case msg := <-c.Recv:
			out = append(out, msg)
		default:
			return out
		}
	}
}

// newTestHub builds a hub with the builtin localizer and no running loop;
// tests call into the services directly.
func newTestHub(s storage.Storage) *ManagerService {
	return NewManagerService(s, localization.NewLocalizer())
}

// addClient registers a mock connection straight into the hub's registry.
func addClient(hub *ManagerService, userID string) *mockClient {
	c := newMockClient(userID)
	hub.Clients[userID] = c
	return c
}
