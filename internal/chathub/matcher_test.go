package chathub

import (
	"testing"
	"time"

	"pairgo/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newTestMatcher(storageMock *MockStorage) (*ManagerService, *MatcherService) {
	hub := newTestHub(storageMock)
	NewSessionService(hub, storageMock)
	matcher := NewMatcherService(hub, storageMock)
	return hub, matcher
}

func allowQueueMirror(storageMock *MockStorage) {
	storageMock.On("AddUserToSearchQueue", mock.Anything).Return(nil).Maybe()
	storageMock.On("RemoveUserFromSearchQueue", mock.Anything).Return(nil).Maybe()
}

// TestEnqueuePairsTwoWaitingUsers covers the basic flow: two unfiltered
// users enter the queue and come out paired in a shared room.
func TestEnqueuePairsTwoWaitingUsers(t *testing.T) {
	storageMock := new(MockStorage)
	hub, matcher := newTestMatcher(storageMock)
	clientA := addClient(hub, "user_A")
	clientB := addClient(hub, "user_B")

	allowQueueMirror(storageMock)
	storageMock.On("IsUserBanned", mock.Anything).Return(false, nil)
	storageMock.On("EnsureUser", "user_A").Return(&models.User{ID: "user_A"}, nil)
	storageMock.On("EnsureUser", "user_B").Return(&models.User{ID: "user_B"}, nil)
	storageMock.On("SaveRoom", mock.AnythingOfType("*models.ChatRoom")).Return(nil).Once()

	matcher.Enqueue("user_A", models.SearchFilter{})
	assert.True(t, matcher.Waiting("user_A"), "first user should wait for a partner")

	matcher.Enqueue("user_B", models.SearchFilter{})

	assert.False(t, matcher.Waiting("user_A"))
	assert.False(t, matcher.Waiting("user_B"))

	eventsA := clientA.drain()
	eventsB := clientB.drain()
	if assert.Len(t, eventsA, 1) && assert.Len(t, eventsB, 1) {
		assert.Equal(t, models.EventMatched, eventsA[0].Type)
		assert.Equal(t, models.EventMatched, eventsB[0].Type)
		assert.Equal(t, eventsA[0].RoomID, eventsB[0].RoomID, "both sides must land in the same room")
		assert.Equal(t, "user_B", eventsA[0].TargetID)
		assert.Equal(t, "user_A", eventsB[0].TargetID)
	}

	assert.Equal(t, clientA.GetRoomID(), clientB.GetRoomID())
	assert.NotEmpty(t, clientA.GetRoomID())
	storageMock.AssertExpectations(t)
}

// TestEnqueueBannedUserRejected verifies a banned user never enters the
// queue and is told why.
func TestEnqueueBannedUserRejected(t *testing.T) {
	storageMock := new(MockStorage)
	hub, matcher := newTestMatcher(storageMock)
	client := addClient(hub, "user_banned")

	storageMock.On("IsUserBanned", "user_banned").Return(true, nil)

	matcher.Enqueue("user_banned", models.SearchFilter{})

	assert.False(t, matcher.Waiting("user_banned"))
	events := client.drain()
	if assert.Len(t, events, 1) {
		assert.Equal(t, models.EventQueueRejected, events[0].Type)
		assert.Equal(t, models.ReasonBanned, events[0].Reason)
	}
	storageMock.AssertNotCalled(t, "AddUserToSearchQueue", "user_banned")
}

// TestEnqueueGenderFilterRequiresPremium: a non-premium user asking for a
// gendered match gets an explicit error and is queued unfiltered instead
// of being dropped.
func TestEnqueueGenderFilterRequiresPremium(t *testing.T) {
	storageMock := new(MockStorage)
	hub, matcher := newTestMatcher(storageMock)
	client := addClient(hub, "user_free")

	allowQueueMirror(storageMock)
	storageMock.On("IsUserBanned", "user_free").Return(false, nil)
	storageMock.On("EnsureUser", "user_free").Return(&models.User{ID: "user_free", Gender: "male"}, nil)

	matcher.Enqueue("user_free", models.SearchFilter{Gender: "female"})

	events := client.drain()
	if assert.Len(t, events, 1) {
		assert.Equal(t, models.EventError, events[0].Type)
		assert.Equal(t, models.ReasonEntitlementRequired, events[0].Reason)
	}

	assert.True(t, matcher.Waiting("user_free"), "user stays queued, just without the filter")
	assert.False(t, matcher.queue["user_free"].Filter.Active())
}

// TestGenderFilterGatesBothDirections: compatibility requires each side's
// filter to accept the other, so a premium user filtering for women never
// pairs with a waiting man.
func TestGenderFilterGatesBothDirections(t *testing.T) {
	storageMock := new(MockStorage)
	hub, matcher := newTestMatcher(storageMock)
	addClient(hub, "user_A")
	addClient(hub, "user_B")
	addClient(hub, "user_C")

	allowQueueMirror(storageMock)
	storageMock.On("IsUserBanned", mock.Anything).Return(false, nil)
	storageMock.On("EnsureUser", "user_A").Return(&models.User{ID: "user_A", Gender: "male", Premium: true}, nil)
	storageMock.On("EnsureUser", "user_B").Return(&models.User{ID: "user_B", Gender: "male"}, nil)
	storageMock.On("EnsureUser", "user_C").Return(&models.User{ID: "user_C", Gender: "female"}, nil)
	storageMock.On("SaveRoom", mock.AnythingOfType("*models.ChatRoom")).Return(nil).Once()

	matcher.Enqueue("user_A", models.SearchFilter{Gender: "female"})
	matcher.Enqueue("user_B", models.SearchFilter{})

	assert.True(t, matcher.Waiting("user_A"), "filter rejects user_B")
	assert.True(t, matcher.Waiting("user_B"))

	matcher.Enqueue("user_C", models.SearchFilter{})

	// user_C accepts anyone and the oldest entry, user_A, accepts user_C,
	// so they pair even though user_B has waited longer.
	assert.False(t, matcher.Waiting("user_A"))
	assert.False(t, matcher.Waiting("user_C"))
	assert.True(t, matcher.Waiting("user_B"))
}

// TestFallbackPromotionWidensSearch: once the fallback threshold passes,
// an unmatched filtered entry starts accepting anyone.
func TestFallbackPromotionWidensSearch(t *testing.T) {
	storageMock := new(MockStorage)
	hub, matcher := newTestMatcher(storageMock)
	addClient(hub, "user_A")
	addClient(hub, "user_B")

	allowQueueMirror(storageMock)
	storageMock.On("IsUserBanned", mock.Anything).Return(false, nil)
	storageMock.On("EnsureUser", "user_A").Return(&models.User{ID: "user_A", Gender: "male", Premium: true}, nil)
	storageMock.On("EnsureUser", "user_B").Return(&models.User{ID: "user_B", Gender: "male"}, nil)
	storageMock.On("SaveRoom", mock.AnythingOfType("*models.ChatRoom")).Return(nil).Once()

	matcher.Enqueue("user_A", models.SearchFilter{Gender: "female", FallbackToRandom: true})
	matcher.Enqueue("user_B", models.SearchFilter{})
	assert.True(t, matcher.Waiting("user_A"))

	// Age the filtered entry past the fallback threshold.
	matcher.queue["user_A"].EnqueuedAt = time.Now().Add(-matcher.FallbackAfter)
	matcher.Tick()

	assert.False(t, matcher.Waiting("user_A"))
	assert.False(t, matcher.Waiting("user_B"))
	storageMock.AssertExpectations(t)
}

// TestQueueTimeoutExpiresEntry: an entry that waits out the maximum with
// no partner is removed and told match_timeout.
func TestQueueTimeoutExpiresEntry(t *testing.T) {
	storageMock := new(MockStorage)
	hub, matcher := newTestMatcher(storageMock)
	client := addClient(hub, "user_lonely")

	allowQueueMirror(storageMock)
	storageMock.On("IsUserBanned", "user_lonely").Return(false, nil)
	storageMock.On("EnsureUser", "user_lonely").Return(&models.User{ID: "user_lonely"}, nil)

	matcher.Enqueue("user_lonely", models.SearchFilter{})
	client.drain()

	matcher.queue["user_lonely"].EnqueuedAt = time.Now().Add(-matcher.MaxWait)
	matcher.Tick()

	assert.False(t, matcher.Waiting("user_lonely"))
	events := client.drain()
	if assert.Len(t, events, 1) {
		assert.Equal(t, models.EventMatchTimeout, events[0].Type)
	}
}

// TestDequeueRemovesEntry covers explicit cancellation.
func TestDequeueRemovesEntry(t *testing.T) {
	storageMock := new(MockStorage)
	hub, matcher := newTestMatcher(storageMock)
	addClient(hub, "user_A")

	allowQueueMirror(storageMock)
	storageMock.On("IsUserBanned", "user_A").Return(false, nil)
	storageMock.On("EnsureUser", "user_A").Return(&models.User{ID: "user_A"}, nil)

	matcher.Enqueue("user_A", models.SearchFilter{})
	matcher.Dequeue("user_A")

	assert.False(t, matcher.Waiting("user_A"))
	storageMock.AssertCalled(t, "RemoveUserFromSearchQueue", "user_A")
}

// TestDuplicateEnqueueReplacesEntry: re-joining while waiting replaces the
// earlier request instead of creating a second one.
func TestDuplicateEnqueueReplacesEntry(t *testing.T) {
	storageMock := new(MockStorage)
	hub, matcher := newTestMatcher(storageMock)
	addClient(hub, "user_A")

	allowQueueMirror(storageMock)
	storageMock.On("IsUserBanned", "user_A").Return(false, nil)
	storageMock.On("EnsureUser", "user_A").Return(&models.User{ID: "user_A", Premium: true}, nil)

	matcher.Enqueue("user_A", models.SearchFilter{})
	matcher.Enqueue("user_A", models.SearchFilter{Gender: "female"})

	assert.Len(t, matcher.queue, 1)
	assert.Equal(t, "female", matcher.queue["user_A"].Filter.Gender)
}

// TestNoSelfMatch: a lone user is never paired with themselves.
func TestNoSelfMatch(t *testing.T) {
	storageMock := new(MockStorage)
	hub, matcher := newTestMatcher(storageMock)
	client := addClient(hub, "user_solo")

	allowQueueMirror(storageMock)
	storageMock.On("IsUserBanned", "user_solo").Return(false, nil)
	storageMock.On("EnsureUser", "user_solo").Return(&models.User{ID: "user_solo"}, nil)

	matcher.Enqueue("user_solo", models.SearchFilter{})
	matcher.Tick()

	assert.True(t, matcher.Waiting("user_solo"))
	assert.Empty(t, client.drain())
	storageMock.AssertNotCalled(t, "SaveRoom", mock.Anything)
}
