package chathub

import (
	"testing"
	"time"

	"pairgo/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newTestSessions(storageMock *MockStorage) (*ManagerService, *SessionService) {
	hub := newTestHub(storageMock)
	sessions := NewSessionService(hub, storageMock)
	return hub, sessions
}

func createTestPair(t *testing.T, storageMock *MockStorage, sessions *SessionService, a, b string) *models.ChatRoom {
	t.Helper()
	storageMock.On("SaveRoom", mock.AnythingOfType("*models.ChatRoom")).Return(nil).Once()
	room, err := sessions.CreatePair(models.RoomKindRandom, a, b)
	assert.NoError(t, err)
	return room
}

// TestSkipEndsSessionAndNotifiesPeer: the initiator gets chat_ended, the
// peer gets partner_skipped naming the initiator, and the session is gone.
func TestSkipEndsSessionAndNotifiesPeer(t *testing.T) {
	storageMock := new(MockStorage)
	hub, sessions := newTestSessions(storageMock)
	clientA := addClient(hub, "user_A")
	clientB := addClient(hub, "user_B")

	room := createTestPair(t, storageMock, sessions, "user_A", "user_B")
	clientA.SetRoomID(room.RoomID)
	clientB.SetRoomID(room.RoomID)
	storageMock.On("CloseRoom", room.RoomID).Return(nil).Once()

	sessions.Skip(room.RoomID, "user_A")

	eventsA := clientA.drain()
	eventsB := clientB.drain()
	if assert.Len(t, eventsA, 1) {
		assert.Equal(t, models.EventChatEnded, eventsA[0].Type)
	}
	if assert.Len(t, eventsB, 1) {
		assert.Equal(t, models.EventPartnerSkipped, eventsB[0].Type)
		assert.Equal(t, "user_A", eventsB[0].TargetID)
	}

	_, ok := sessions.Room(room.RoomID)
	assert.False(t, ok, "skipped session must leave the registry")
	assert.Empty(t, clientA.GetRoomID())
	assert.Empty(t, clientB.GetRoomID())
	storageMock.AssertExpectations(t)
}

// TestSkipTwiceIsNoOp: simultaneous skips from both sides are expected;
// the second one must not error or emit anything.
func TestSkipTwiceIsNoOp(t *testing.T) {
	storageMock := new(MockStorage)
	hub, sessions := newTestSessions(storageMock)
	clientA := addClient(hub, "user_A")
	clientB := addClient(hub, "user_B")

	room := createTestPair(t, storageMock, sessions, "user_A", "user_B")
	storageMock.On("CloseRoom", room.RoomID).Return(nil).Once()

	sessions.Skip(room.RoomID, "user_A")
	clientA.drain()
	clientB.drain()

	sessions.Skip(room.RoomID, "user_B")

	assert.Empty(t, clientA.drain())
	assert.Empty(t, clientB.drain())
	storageMock.AssertNumberOfCalls(t, "CloseRoom", 1)
}

// TestSkipByNonParticipantIsNoOp guards the session against outsiders.
func TestSkipByNonParticipantIsNoOp(t *testing.T) {
	storageMock := new(MockStorage)
	hub, sessions := newTestSessions(storageMock)
	addClient(hub, "user_A")
	addClient(hub, "user_B")
	intruder := addClient(hub, "user_X")

	room := createTestPair(t, storageMock, sessions, "user_A", "user_B")

	sessions.Skip(room.RoomID, "user_X")

	_, ok := sessions.Room(room.RoomID)
	assert.True(t, ok, "session must survive a skip by a non-participant")
	assert.Empty(t, intruder.drain())
	storageMock.AssertNotCalled(t, "CloseRoom", room.RoomID)
}

// TestEndGroupOwnerOnly: a member cannot end a group, the owner can.
func TestEndGroupOwnerOnly(t *testing.T) {
	storageMock := new(MockStorage)
	hub, sessions := newTestSessions(storageMock)
	owner := addClient(hub, "user_owner")
	member := addClient(hub, "user_member")

	storageMock.On("SaveRoom", mock.AnythingOfType("*models.ChatRoom")).Return(nil).Once()
	storageMock.On("SaveMembership", mock.AnythingOfType("*models.Membership")).Return(nil).Once()
	room, err := sessions.CreateGroup("user_owner", "weekend plans")
	assert.NoError(t, err)

	sessions.End(room.RoomID, "user_member")
	events := member.drain()
	if assert.Len(t, events, 1) {
		assert.Equal(t, models.EventError, events[0].Type)
		assert.Equal(t, models.ReasonForbidden, events[0].Reason)
	}
	_, ok := sessions.Room(room.RoomID)
	assert.True(t, ok)

	storageMock.On("CloseRoom", room.RoomID).Return(nil).Once()
	sessions.End(room.RoomID, "user_owner")

	_, ok = sessions.Room(room.RoomID)
	assert.False(t, ok)
	endedEvents := owner.drain()
	if assert.Len(t, endedEvents, 1) {
		assert.Equal(t, models.EventChatEnded, endedEvents[0].Type)
	}
	storageMock.AssertExpectations(t)
}

// TestDisconnectReconnectWithinGrace: a transient drop must not surface to
// the peer. The reconnect inside the grace window cancels the timer.
func TestDisconnectReconnectWithinGrace(t *testing.T) {
	storageMock := new(MockStorage)
	hub, sessions := newTestSessions(storageMock)
	clientA := addClient(hub, "user_A")
	addClient(hub, "user_B")
	sessions.Grace = 40 * time.Millisecond

	room := createTestPair(t, storageMock, sessions, "user_A", "user_B")
	storageMock.On("GetActiveRoomIDForUser", "user_B").Return(room.RoomID, nil)
	storageMock.On("MarkRoomNotificationsRead", "user_B", room.RoomID).Return(nil)

	sessions.HandleDisconnect("user_B")
	assert.False(t, sessions.IsOccupant(room.RoomID, "user_B"))

	// Reconnect before the grace window expires.
	assert.Equal(t, room.RoomID, sessions.ReattachUser("user_B"))
	assert.True(t, sessions.IsOccupant(room.RoomID, "user_B"))

	time.Sleep(3 * sessions.Grace)
	assert.Empty(t, clientA.drain(), "no partner_left after a reconnect within grace")

	_, ok := sessions.Room(room.RoomID)
	assert.True(t, ok, "session stays active through the drop")
}

// TestDisconnectGraceExpiryNotifiesPeer: only after the window passes with
// no reconnect does the peer learn the partner is gone. The session itself
// stays active for a potential late return.
func TestDisconnectGraceExpiryNotifiesPeer(t *testing.T) {
	storageMock := new(MockStorage)
	hub, sessions := newTestSessions(storageMock)
	clientA := addClient(hub, "user_A")
	addClient(hub, "user_B")
	sessions.Grace = 20 * time.Millisecond

	room := createTestPair(t, storageMock, sessions, "user_A", "user_B")

	sessions.HandleDisconnect("user_B")
	time.Sleep(5 * sessions.Grace)

	events := clientA.drain()
	if assert.Len(t, events, 1) {
		assert.Equal(t, models.EventPartnerLeft, events[0].Type)
		assert.Equal(t, "user_B", events[0].TargetID)
		assert.Equal(t, room.RoomID, events[0].RoomID)
	}

	_, ok := sessions.Room(room.RoomID)
	assert.True(t, ok)
}

// TestRecoverActiveSessions rebuilds the registry from storage after a
// restart.
func TestRecoverActiveSessions(t *testing.T) {
	storageMock := new(MockStorage)
	_, sessions := newTestSessions(storageMock)

	storageMock.On("GetActiveRooms").Return([]models.ChatRoom{
		{RoomID: "room-1", Kind: models.RoomKindRandom, User1ID: "a", User2ID: "b", IsActive: true},
		{RoomID: "room-2", Kind: models.RoomKindGroup, OwnerID: "c", IsActive: true},
	}, nil).Once()

	sessions.RecoverActiveSessions()

	_, ok := sessions.Room("room-1")
	assert.True(t, ok)
	_, ok = sessions.Room("room-2")
	assert.True(t, ok)
	assert.Empty(t, sessions.Occupants("room-1"), "recovered sessions start with no occupants")
}
